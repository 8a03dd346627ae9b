package adapter

import (
	"goa.design/agui/events"
)

// messageAssembler converts incremental text fragments into the protocol's
// open/append/close message lifecycle. One assembler serves one run: all
// fragments accumulate under a single message id generated when the run
// starts.
type messageAssembler struct {
	messageID  string
	role       string
	started    bool
	closed     bool
	suppressed bool
}

func newMessageAssembler(messageID string) *messageAssembler {
	return &messageAssembler{messageID: messageID, role: "assistant"}
}

// OnText converts a text fragment into protocol events, opening the message
// on the first fragment. Fragments are dropped while the assembler is
// suppressed or after the message closed.
func (a *messageAssembler) OnText(delta string) []events.Event {
	if delta == "" || a.suppressed || a.closed {
		return nil
	}
	var out []events.Event
	if !a.started {
		out = append(out, events.NewTextMessageStart(a.messageID, a.role))
		a.started = true
	}
	return append(out, events.NewTextMessageContent(a.messageID, delta))
}

// Suppress stops forwarding of further fragments. An open message stays open
// until Close.
func (a *messageAssembler) Suppress() {
	a.suppressed = true
}

// Close emits the message end event when a message is open. It is safe to
// call on an assembler that never opened a message or that already closed.
func (a *messageAssembler) Close() []events.Event {
	if !a.started || a.closed {
		return nil
	}
	a.closed = true
	return []events.Event{events.NewTextMessageEnd(a.messageID)}
}
