package events

import (
	"errors"
	"fmt"
)

// ErrSequenceInvalid is wrapped by all sequence validation failures.
var ErrSequenceInvalid = errors.New("event sequence invalid")

// ValidateSequence checks that a full run's event stream honors the protocol
// lifecycle invariants: RunStarted first, exactly one terminal event last,
// and open-before-append-before-close ordering for messages and tool calls.
// It validates each event's own fields along the way.
//
// The check is intentionally strict about ordering but does not require every
// opened message or tool call to be closed before RunError: an error may
// terminate a run mid-message.
func ValidateSequence(seq []Event) error {
	if len(seq) == 0 {
		return fmt.Errorf("%w: empty sequence", ErrSequenceInvalid)
	}
	if _, ok := seq[0].(RunStarted); !ok {
		return fmt.Errorf("%w: first event is %s, want %s", ErrSequenceInvalid, seq[0].Type(), TypeRunStarted)
	}

	openMessages := make(map[string]bool)   // message id → open
	closedMessages := make(map[string]bool) // message id → closed
	openCalls := make(map[string]bool)
	closedCalls := make(map[string]bool)
	terminated := false

	for i, ev := range seq {
		if err := ev.Validate(); err != nil {
			return fmt.Errorf("%w: event %d: %v", ErrSequenceInvalid, i, err)
		}
		if terminated {
			return fmt.Errorf("%w: event %d (%s) follows terminal event", ErrSequenceInvalid, i, ev.Type())
		}
		switch e := ev.(type) {
		case RunStarted:
			if i != 0 {
				return fmt.Errorf("%w: event %d: duplicate %s", ErrSequenceInvalid, i, TypeRunStarted)
			}
		case RunFinished:
			for id, open := range openMessages {
				if open {
					return fmt.Errorf("%w: run finished with message %q still open", ErrSequenceInvalid, id)
				}
			}
			for id, open := range openCalls {
				if open {
					return fmt.Errorf("%w: run finished with tool call %q still open", ErrSequenceInvalid, id)
				}
			}
			terminated = true
		case RunError:
			terminated = true
		case TextMessageStart:
			if openMessages[e.MessageID] || closedMessages[e.MessageID] {
				return fmt.Errorf("%w: event %d: message %q already started", ErrSequenceInvalid, i, e.MessageID)
			}
			openMessages[e.MessageID] = true
		case TextMessageContent:
			if !openMessages[e.MessageID] {
				return fmt.Errorf("%w: event %d: content for message %q before start", ErrSequenceInvalid, i, e.MessageID)
			}
		case TextMessageEnd:
			if !openMessages[e.MessageID] {
				return fmt.Errorf("%w: event %d: end for message %q before start", ErrSequenceInvalid, i, e.MessageID)
			}
			openMessages[e.MessageID] = false
			closedMessages[e.MessageID] = true
		case ToolCallStart:
			if openCalls[e.ToolCallID] || closedCalls[e.ToolCallID] {
				return fmt.Errorf("%w: event %d: tool call %q already started", ErrSequenceInvalid, i, e.ToolCallID)
			}
			openCalls[e.ToolCallID] = true
		case ToolCallArgs:
			if !openCalls[e.ToolCallID] {
				return fmt.Errorf("%w: event %d: args for tool call %q before start", ErrSequenceInvalid, i, e.ToolCallID)
			}
		case ToolCallEnd:
			if !openCalls[e.ToolCallID] {
				return fmt.Errorf("%w: event %d: end for tool call %q before start", ErrSequenceInvalid, i, e.ToolCallID)
			}
			openCalls[e.ToolCallID] = false
			closedCalls[e.ToolCallID] = true
		case ToolCallResult:
			if !closedCalls[e.ToolCallID] {
				return fmt.Errorf("%w: event %d: result for tool call %q before end", ErrSequenceInvalid, i, e.ToolCallID)
			}
		}
	}
	if !terminated {
		return fmt.Errorf("%w: missing terminal event", ErrSequenceInvalid)
	}
	return nil
}
