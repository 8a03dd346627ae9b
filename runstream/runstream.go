// Package runstream abstracts the underlying conversational-agent runtime as
// a stream of typed notifications. The adapter consumes this stream and never
// touches the runtime's own reasoning or tool-execution internals.
//
// Notification is a sealed interface: the set of variants is closed and the
// adapter matches it exhaustively. Runtimes that produce loosely structured
// records are expected to map them onto these variants in their Stream
// implementation; shapes that do not map are a bridge bug, not something the
// adapter silently tolerates.
package runstream

import "context"

type (
	// Notification is a single typed record reported by the runtime stream.
	// Implementations live in this package only.
	Notification interface {
		notification()
	}

	// TextDelta carries a fragment of streaming assistant prose.
	TextDelta struct {
		// Text is the incremental fragment. Empty fragments are ignored by
		// consumers.
		Text string
	}

	// ToolCallFragment is a partial or complete tool invocation record. The
	// runtime may report the same invocation several times as its input
	// streams in; fragments are keyed by the runtime's own internal id.
	ToolCallFragment struct {
		// InternalID is the runtime's internal identifier for the
		// invocation. It may be reused across runs and must not leak to
		// protocol consumers for frontend tools.
		InternalID string
		// Name is the tool name. May be empty on early fragments.
		Name string
		// Input is the tool input reported so far. Each fragment carries the
		// full input-so-far; later fragments supersede earlier ones. The
		// text may be an incomplete JSON document while streaming.
		Input string
	}

	// ToolInputComplete signals that the input of the most recently reported
	// unresolved tool invocation is complete. Completeness is only ever
	// derived from this signal, never from text heuristics.
	ToolInputComplete struct{}

	// ToolResult is a backend tool's result record.
	ToolResult struct {
		// InternalID correlates the result with the invocation's runtime
		// internal id.
		InternalID string
		// Name is the tool name when the runtime reports it.
		Name string
		// Content is the raw result text. It may or may not be valid JSON.
		Content string
	}

	// Completed signals the natural end of the runtime's activity for the
	// turn. The stream ends after this notification.
	Completed struct{}

	// ForceStopped signals that the runtime aborted the turn. The stream
	// ends after this notification.
	ForceStopped struct {
		// Reason is the runtime's stated cause, when available.
		Reason string
	}
)

func (TextDelta) notification()         {}
func (ToolCallFragment) notification()  {}
func (ToolInputComplete) notification() {}
func (ToolResult) notification()        {}
func (Completed) notification()         {}
func (ForceStopped) notification()      {}

type (
	// Stream is one turn's notification stream. It is consumed by a single
	// goroutine.
	Stream interface {
		// Next returns the next notification. It returns io.EOF once the
		// stream is exhausted and the context error if ctx is done first.
		Next(ctx context.Context) (Notification, error)

		// Close releases the stream's resources. It is idempotent: closing
		// an already closed or exhausted stream is a no-op. The adapter
		// calls Close exactly once per run.
		Close() error
	}

	// Agent is a reusable runtime-agent instance bound to one conversation
	// thread. The adapter never invokes the same Agent concurrently.
	Agent interface {
		// Stream starts one turn with the given user message and returns
		// the turn's notification stream.
		Stream(ctx context.Context, userMessage string) (Stream, error)
	}
)
