package adapter

import (
	"github.com/google/uuid"

	"goa.design/agui/events"
)

// deferredBuffer holds fully formed protocol events that must not reach the
// consumer until immediately before the terminal event. Emitting a
// confirmation triple mid-run would let later events move the UI's
// confirmation affordance out of its awaiting state before the user acts.
type deferredBuffer struct {
	pending []events.Event
}

// Enqueue appends events to the buffer. Triples for one tool call are
// enqueued together so a flush emits them as a set or not at all.
func (b *deferredBuffer) Enqueue(evs ...events.Event) {
	b.pending = append(b.pending, evs...)
}

// HasPending reports whether a flush would emit anything.
func (b *deferredBuffer) HasPending() bool {
	return len(b.pending) > 0
}

// Flush returns the buffered events and clears the buffer. Flushing an empty
// buffer returns nil.
func (b *deferredBuffer) Flush() []events.Event {
	out := b.pending
	b.pending = nil
	return out
}

// confirmTriple builds the synthetic confirmation tool-call lifecycle: start,
// args with an empty object, end, all sharing one freshly generated id.
func confirmTriple(parentMessageID string) []events.Event {
	id := uuid.NewString()
	return []events.Event{
		events.NewToolCallStart(id, ConfirmToolName, parentMessageID),
		events.NewToolCallArgs(id, "{}"),
		events.NewToolCallEnd(id),
	}
}
