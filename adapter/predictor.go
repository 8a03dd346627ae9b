package adapter

import (
	"sync"

	"goa.design/agui/events"
)

// statePredictor derives predicted-state events from resolved tool calls and
// tracks which tool results must be suppressed in their favor.
//
// The predictor outlives individual runs: its tracking persists until Reset
// so a reusable adapter keeps its prediction and suppression state across
// turns unless explicitly re-armed. The mutex covers Reset racing a live
// run's goroutine.
type statePredictor struct {
	mu         sync.Mutex
	byTool     map[string][]PredictStateMapping
	seen       map[string]struct{} // tool names that predicted this cycle
	suppressed map[string]struct{} // tool_call_ids whose results are handled via prediction
	deferred   *deferredBuffer
}

func newStatePredictor(byTool map[string][]PredictStateMapping) *statePredictor {
	return &statePredictor{
		byTool:     byTool,
		seen:       make(map[string]struct{}),
		suppressed: make(map[string]struct{}),
		deferred:   &deferredBuffer{},
	}
}

// OnToolResolved inspects a resolved tool call against the configured
// mappings. When the tool is mapped, its call id joins the suppression set;
// the first resolution of a mapped tool name additionally yields the
// PredictState custom event and, when any mapping asks for it, enqueues the
// deferred confirmation triple. Later resolutions of the same tool name
// yield nothing.
func (p *statePredictor) OnToolResolved(call *toolCall, parentMessageID string) *events.Custom {
	p.mu.Lock()
	defer p.mu.Unlock()

	mappings, ok := p.byTool[call.name]
	if !ok || len(mappings) == 0 {
		return nil
	}
	p.suppressed[call.id] = struct{}{}

	if _, done := p.seen[call.name]; done {
		return nil
	}
	p.seen[call.name] = struct{}{}

	payload := make([]PredictStatePayload, 0, len(mappings))
	confirm := false
	for _, m := range mappings {
		payload = append(payload, m.Payload())
		if m.ConfirmTool() {
			confirm = true
		}
	}
	if confirm {
		p.deferred.Enqueue(confirmTriple(parentMessageID)...)
	}
	return &events.Custom{Name: events.PredictStateName, Value: payload}
}

// SuppressResult reports whether the tool call id's result event must be
// withheld because the UI already received its state via prediction.
func (p *statePredictor) SuppressResult(toolCallID string) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	_, ok := p.suppressed[toolCallID]
	return ok
}

// HasDeferred reports whether confirmation events await the pre-termination
// flush.
func (p *statePredictor) HasDeferred() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.deferred.HasPending()
}

// FlushDeferred returns and clears the deferred confirmation events.
func (p *statePredictor) FlushDeferred() []events.Event {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.deferred.Flush()
}

// Reset clears prediction tracking, the suppression set, and any pending
// deferred events so the next run predicts from a clean slate.
func (p *statePredictor) Reset() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.seen = make(map[string]struct{})
	p.suppressed = make(map[string]struct{})
	p.deferred.Flush()
}
