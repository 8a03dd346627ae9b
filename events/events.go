// Package events defines the closed set of AG-UI protocol events produced by
// the adapter. Events are abstract objects: a separate encoder is responsible
// for serializing them onto a transport (SSE, WebSocket, message bus). The
// package also provides RFC 6902 patch operations for state deltas and a
// sequence validator that enforces the protocol lifecycle invariants.
//
// Lifecycle invariants, summarized:
//   - RunStarted is the first event of every run.
//   - Exactly one terminal event (RunFinished or RunError) ends the run; no
//     event may follow it.
//   - Text messages and tool calls follow a strict open/append/close
//     discipline keyed by MessageID and ToolCallID respectively.
package events

import (
	"errors"
	"fmt"
)

// EventType identifies a protocol event variant. Values are the canonical
// AG-UI wire names.
type EventType string

const (
	// TypeRunStarted marks the beginning of a run. Always the first event.
	TypeRunStarted EventType = "RUN_STARTED"

	// TypeRunFinished marks successful completion of a run. Terminal.
	TypeRunFinished EventType = "RUN_FINISHED"

	// TypeRunError marks failed completion of a run. Terminal.
	TypeRunError EventType = "RUN_ERROR"

	// TypeTextMessageStart opens a streaming assistant text message.
	TypeTextMessageStart EventType = "TEXT_MESSAGE_START"

	// TypeTextMessageContent appends a text fragment to an open message.
	TypeTextMessageContent EventType = "TEXT_MESSAGE_CONTENT"

	// TypeTextMessageEnd closes an open text message.
	TypeTextMessageEnd EventType = "TEXT_MESSAGE_END"

	// TypeToolCallStart opens a tool call.
	TypeToolCallStart EventType = "TOOL_CALL_START"

	// TypeToolCallArgs appends an argument fragment to an open tool call.
	TypeToolCallArgs EventType = "TOOL_CALL_ARGS"

	// TypeToolCallEnd closes an open tool call.
	TypeToolCallEnd EventType = "TOOL_CALL_END"

	// TypeToolCallResult reports the result of a completed tool call.
	TypeToolCallResult EventType = "TOOL_CALL_RESULT"

	// TypeStateSnapshot carries a complete shared-state snapshot.
	TypeStateSnapshot EventType = "STATE_SNAPSHOT"

	// TypeStateDelta carries an ordered list of RFC 6902 patch operations to
	// apply to the prior snapshot.
	TypeStateDelta EventType = "STATE_DELTA"

	// TypeMessagesSnapshot carries the complete conversation message list.
	TypeMessagesSnapshot EventType = "MESSAGES_SNAPSHOT"

	// TypeCustom carries an application-defined event. The adapter uses it
	// for predicted-state payloads with Name set to "PredictState".
	TypeCustom EventType = "CUSTOM"
)

type (
	// Event is implemented by every protocol event variant. The set of
	// implementations is closed: consumers may switch exhaustively on Type()
	// or type-assert to concrete types.
	Event interface {
		// Type returns the protocol event type constant.
		Type() EventType

		// Validate reports whether the event carries the fields its type
		// requires.
		Validate() error
	}

	// RunStarted signals that a run has begun. It carries the conversation
	// thread and the unique run identifier so multiplexed consumers can
	// correlate subsequent events.
	RunStarted struct {
		ThreadID string `json:"threadId"`
		RunID    string `json:"runId"`
	}

	// RunFinished signals successful completion of a run.
	RunFinished struct {
		ThreadID string `json:"threadId"`
		RunID    string `json:"runId"`
	}

	// RunError signals failed completion of a run. Code identifies the
	// failing boundary (for example "RUNTIME_STREAM_ERROR").
	RunError struct {
		Message string `json:"message"`
		Code    string `json:"code,omitempty"`
	}

	// TextMessageStart opens an assistant text message. All content
	// fragments of the message reference the same MessageID.
	TextMessageStart struct {
		MessageID string `json:"messageId"`
		Role      string `json:"role"`
	}

	// TextMessageContent appends a non-empty text fragment to an open
	// message.
	TextMessageContent struct {
		MessageID string `json:"messageId"`
		Delta     string `json:"delta"`
	}

	// TextMessageEnd closes an open text message.
	TextMessageEnd struct {
		MessageID string `json:"messageId"`
	}

	// ToolCallStart opens a tool call. ParentMessageID links the call to the
	// assistant message in whose context it was issued.
	ToolCallStart struct {
		ToolCallID      string `json:"toolCallId"`
		ToolCallName    string `json:"toolCallName"`
		ParentMessageID string `json:"parentMessageId,omitempty"`
	}

	// ToolCallArgs appends an argument fragment to an open tool call.
	// Fragments are not guaranteed to be valid JSON on their own.
	ToolCallArgs struct {
		ToolCallID string `json:"toolCallId"`
		Delta      string `json:"delta"`
	}

	// ToolCallEnd closes an open tool call.
	ToolCallEnd struct {
		ToolCallID string `json:"toolCallId"`
	}

	// ToolCallResult reports the serialized result of a completed backend
	// tool call. Role is deliberately empty when the result must not be
	// folded into conversation history by the consumer.
	ToolCallResult struct {
		ToolCallID string `json:"toolCallId"`
		MessageID  string `json:"messageId"`
		Content    string `json:"content"`
		Role       string `json:"role,omitempty"`
	}

	// StateSnapshot carries a complete shared-state snapshot.
	StateSnapshot struct {
		Snapshot map[string]any `json:"snapshot"`
	}

	// StateDelta carries an ordered list of RFC 6902 patch operations.
	// Applying Delta to the prior snapshot yields the subsequent snapshot.
	StateDelta struct {
		Delta []PatchOp `json:"delta"`
	}

	// MessagesSnapshot carries the complete conversation message history.
	MessagesSnapshot struct {
		Messages []Message `json:"messages"`
	}

	// Message is a conversation message as transported in a
	// MessagesSnapshot.
	Message struct {
		ID         string `json:"id,omitempty"`
		Role       string `json:"role"`
		Content    string `json:"content,omitempty"`
		ToolCallID string `json:"toolCallId,omitempty"`
	}

	// Custom carries an application-defined event. The adapter emits
	// predicted-state payloads as Custom events with Name "PredictState".
	Custom struct {
		Name  string `json:"name"`
		Value any    `json:"value"`
	}
)

// PredictStateName is the Custom event name used for predicted-state
// payloads.
const PredictStateName = "PredictState"

// NewRunStarted returns a RunStarted event.
func NewRunStarted(threadID, runID string) RunStarted {
	return RunStarted{ThreadID: threadID, RunID: runID}
}

// NewRunFinished returns a RunFinished event.
func NewRunFinished(threadID, runID string) RunFinished {
	return RunFinished{ThreadID: threadID, RunID: runID}
}

// NewRunError returns a RunError event with the given message and code.
func NewRunError(message, code string) RunError {
	return RunError{Message: message, Code: code}
}

// NewTextMessageStart returns a TextMessageStart event for an assistant
// message.
func NewTextMessageStart(messageID, role string) TextMessageStart {
	return TextMessageStart{MessageID: messageID, Role: role}
}

// NewTextMessageContent returns a TextMessageContent event.
func NewTextMessageContent(messageID, delta string) TextMessageContent {
	return TextMessageContent{MessageID: messageID, Delta: delta}
}

// NewTextMessageEnd returns a TextMessageEnd event.
func NewTextMessageEnd(messageID string) TextMessageEnd {
	return TextMessageEnd{MessageID: messageID}
}

// NewToolCallStart returns a ToolCallStart event.
func NewToolCallStart(toolCallID, name, parentMessageID string) ToolCallStart {
	return ToolCallStart{ToolCallID: toolCallID, ToolCallName: name, ParentMessageID: parentMessageID}
}

// NewToolCallArgs returns a ToolCallArgs event.
func NewToolCallArgs(toolCallID, delta string) ToolCallArgs {
	return ToolCallArgs{ToolCallID: toolCallID, Delta: delta}
}

// NewToolCallEnd returns a ToolCallEnd event.
func NewToolCallEnd(toolCallID string) ToolCallEnd {
	return ToolCallEnd{ToolCallID: toolCallID}
}

// NewToolCallResult returns a ToolCallResult event with no role marker so the
// consumer completes the tool call without folding the result into
// conversation history.
func NewToolCallResult(toolCallID, messageID, content string) ToolCallResult {
	return ToolCallResult{ToolCallID: toolCallID, MessageID: messageID, Content: content}
}

// Type implements Event.
func (RunStarted) Type() EventType { return TypeRunStarted }

// Type implements Event.
func (RunFinished) Type() EventType { return TypeRunFinished }

// Type implements Event.
func (RunError) Type() EventType { return TypeRunError }

// Type implements Event.
func (TextMessageStart) Type() EventType { return TypeTextMessageStart }

// Type implements Event.
func (TextMessageContent) Type() EventType { return TypeTextMessageContent }

// Type implements Event.
func (TextMessageEnd) Type() EventType { return TypeTextMessageEnd }

// Type implements Event.
func (ToolCallStart) Type() EventType { return TypeToolCallStart }

// Type implements Event.
func (ToolCallArgs) Type() EventType { return TypeToolCallArgs }

// Type implements Event.
func (ToolCallEnd) Type() EventType { return TypeToolCallEnd }

// Type implements Event.
func (ToolCallResult) Type() EventType { return TypeToolCallResult }

// Type implements Event.
func (StateSnapshot) Type() EventType { return TypeStateSnapshot }

// Type implements Event.
func (StateDelta) Type() EventType { return TypeStateDelta }

// Type implements Event.
func (MessagesSnapshot) Type() EventType { return TypeMessagesSnapshot }

// Type implements Event.
func (Custom) Type() EventType { return TypeCustom }

// Validate implements Event.
func (e RunStarted) Validate() error {
	if e.RunID == "" {
		return errors.New("run started: run id is required")
	}
	return nil
}

// Validate implements Event.
func (e RunFinished) Validate() error {
	if e.RunID == "" {
		return errors.New("run finished: run id is required")
	}
	return nil
}

// Validate implements Event.
func (e RunError) Validate() error {
	if e.Message == "" {
		return errors.New("run error: message is required")
	}
	return nil
}

// Validate implements Event.
func (e TextMessageStart) Validate() error {
	if e.MessageID == "" {
		return errors.New("text message start: message id is required")
	}
	if e.Role == "" {
		return errors.New("text message start: role is required")
	}
	return nil
}

// Validate implements Event.
func (e TextMessageContent) Validate() error {
	if e.MessageID == "" {
		return errors.New("text message content: message id is required")
	}
	if e.Delta == "" {
		return errors.New("text message content: delta must not be empty")
	}
	return nil
}

// Validate implements Event.
func (e TextMessageEnd) Validate() error {
	if e.MessageID == "" {
		return errors.New("text message end: message id is required")
	}
	return nil
}

// Validate implements Event.
func (e ToolCallStart) Validate() error {
	if e.ToolCallID == "" {
		return errors.New("tool call start: tool call id is required")
	}
	if e.ToolCallName == "" {
		return errors.New("tool call start: tool call name is required")
	}
	return nil
}

// Validate implements Event.
func (e ToolCallArgs) Validate() error {
	if e.ToolCallID == "" {
		return errors.New("tool call args: tool call id is required")
	}
	return nil
}

// Validate implements Event.
func (e ToolCallEnd) Validate() error {
	if e.ToolCallID == "" {
		return errors.New("tool call end: tool call id is required")
	}
	return nil
}

// Validate implements Event.
func (e ToolCallResult) Validate() error {
	if e.ToolCallID == "" {
		return errors.New("tool call result: tool call id is required")
	}
	return nil
}

// Validate implements Event.
func (e StateSnapshot) Validate() error {
	if e.Snapshot == nil {
		return errors.New("state snapshot: snapshot is required")
	}
	return nil
}

// Validate implements Event.
func (e StateDelta) Validate() error {
	if len(e.Delta) == 0 {
		return errors.New("state delta: at least one patch operation is required")
	}
	for i, op := range e.Delta {
		if err := op.Validate(); err != nil {
			return fmt.Errorf("state delta: operation %d: %w", i, err)
		}
	}
	return nil
}

// Validate implements Event.
func (e MessagesSnapshot) Validate() error {
	for i, m := range e.Messages {
		if m.Role == "" {
			return fmt.Errorf("messages snapshot: message %d: role is required", i)
		}
	}
	return nil
}

// Validate implements Event.
func (e Custom) Validate() error {
	if e.Name == "" {
		return errors.New("custom: name is required")
	}
	return nil
}
