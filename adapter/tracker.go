package adapter

import (
	"encoding/json"

	"github.com/google/uuid"

	"goa.design/agui/runstream"
)

type (
	// toolCall is one tracked tool invocation within a run.
	toolCall struct {
		// id is the externally stable tool_call_id.
		id string
		// internalID is the runtime's own identifier for the invocation.
		internalID string
		// name is the tool name.
		name string
		// args is the accumulated argument text: canonical JSON when the
		// input parses, raw text otherwise.
		args string
		// parsed is the decoded argument object, nil when args is not a
		// JSON object.
		parsed map[string]any
		// frontend marks calls executed by the consuming client.
		frontend bool
		// emitted marks calls whose start/args/end triple has been
		// produced.
		emitted bool
	}

	// toolCallTracker correlates fragmentary tool invocation records into
	// stable tool calls.
	//
	// Identifier policy: a fragment whose internal id was seen before reuses
	// the previously assigned external id. New frontend-tool invocations get
	// a freshly generated id so ids never collide across runs or threads;
	// new backend-tool invocations keep the runtime's id so result records
	// can be correlated back.
	toolCallTracker struct {
		calls         map[string]*toolCall // keyed by external id
		order         []string             // external ids in first-seen order
		frontendTools map[string]struct{}
	}
)

func newToolCallTracker(frontendTools map[string]struct{}) *toolCallTracker {
	return &toolCallTracker{
		calls:         make(map[string]*toolCall),
		frontendTools: frontendTools,
	}
}

// Observe folds a tool invocation fragment into the tracker. Later fragments
// supersede earlier input for the same invocation.
//
// An invocation is only tracked once a fragment names its tool: the external
// id and the frontend classification both depend on the name, and each
// fragment carries the full input-so-far, so nothing is lost by waiting.
func (t *toolCallTracker) Observe(f runstream.ToolCallFragment) {
	if existing := t.byInternalID(f.InternalID); existing != nil {
		existing.args, existing.parsed = normalizeArgs(f.Input)
		return
	}
	if f.Name == "" {
		return
	}

	_, frontend := t.frontendTools[f.Name]
	id := f.InternalID
	if frontend || id == "" {
		id = uuid.NewString()
	}
	call := &toolCall{
		id:         id,
		internalID: f.InternalID,
		name:       f.Name,
		frontend:   frontend,
	}
	call.args, call.parsed = normalizeArgs(f.Input)
	t.calls[id] = call
	t.order = append(t.order, id)
}

// Resolve returns the oldest tracked call whose lifecycle has not been
// produced yet and marks it emitted. It returns nil when every call has been
// resolved, making a duplicate input-complete signal a no-op.
func (t *toolCallTracker) Resolve() *toolCall {
	for _, id := range t.order {
		if call := t.calls[id]; !call.emitted {
			call.emitted = true
			return call
		}
	}
	return nil
}

// Lookup returns the call tracked under the given runtime internal id, nil
// when the id is unknown.
func (t *toolCallTracker) Lookup(internalID string) *toolCall {
	if internalID == "" {
		return nil
	}
	return t.byInternalID(internalID)
}

func (t *toolCallTracker) byInternalID(internalID string) *toolCall {
	if internalID == "" {
		return nil
	}
	for _, id := range t.order {
		if c := t.calls[id]; c.internalID == internalID {
			return c
		}
	}
	return nil
}

// normalizeArgs canonicalizes tool input. A JSON object becomes its compact
// encoding plus the decoded map; anything else passes through as raw text so
// malformed input never fails the run.
func normalizeArgs(input string) (string, map[string]any) {
	if input == "" {
		return "{}", nil
	}
	var parsed map[string]any
	if err := json.Unmarshal([]byte(input), &parsed); err != nil {
		return input, nil
	}
	canonical, err := json.Marshal(parsed)
	if err != nil {
		return input, parsed
	}
	return string(canonical), parsed
}
