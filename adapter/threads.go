package adapter

import (
	"context"
	"errors"
	"sync"

	"goa.design/agui/runstream"
)

// AgentFactory constructs a fresh runtime-agent instance for a thread. It is
// invoked at most once per thread id.
type AgentFactory func(ctx context.Context, threadID string) (runstream.Agent, error)

// ThreadStore maps thread ids to their reusable runtime-agent instances.
// Each thread owns one conversation state; the store is the only cross-run
// shared mutable state of the adapter and is written exclusively by the run
// controller.
//
// Entries are never evicted automatically: bounding growth is the
// surrounding system's concern. Owners that retire threads call Delete.
type ThreadStore struct {
	mu     sync.Mutex
	agents map[string]runstream.Agent
}

// NewThreadStore returns an empty store.
func NewThreadStore() *ThreadStore {
	return &ThreadStore{agents: make(map[string]runstream.Agent)}
}

// Get returns the thread's agent, creating it through factory on first use.
func (s *ThreadStore) Get(ctx context.Context, threadID string, factory AgentFactory) (runstream.Agent, error) {
	if threadID == "" {
		return nil, errors.New("thread id is required")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if agent, ok := s.agents[threadID]; ok {
		return agent, nil
	}
	agent, err := factory(ctx, threadID)
	if err != nil {
		return nil, err
	}
	if agent == nil {
		return nil, errors.New("agent factory returned nil")
	}
	s.agents[threadID] = agent
	return agent, nil
}

// Delete removes the thread's agent, if any.
func (s *ThreadStore) Delete(threadID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.agents, threadID)
}

// Len returns the number of live thread entries.
func (s *ThreadStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.agents)
}
