package adapter

type (
	// RunInput is the inbound request for one run of the adapter.
	RunInput struct {
		// ThreadID is the persistent conversation identity. When empty the
		// adapter falls back to DefaultThreadID.
		ThreadID string
		// RunID uniquely identifies this invocation.
		RunID string
		// Messages is the ordered conversation history supplied by the
		// consumer.
		Messages []InputMessage
		// State is the shared UI state blob. The adapter emits it back as a
		// filtered StateSnapshot at the start of the run.
		State map[string]any
		// Tools declares the tools the frontend executes itself. Tool calls
		// matching these names halt the run once issued.
		Tools []ToolDefinition
	}

	// InputMessage is one conversation message of the run input.
	InputMessage struct {
		ID         string
		Role       string
		Content    string
		ToolCallID string
	}

	// ToolDefinition declares a frontend-executed tool.
	ToolDefinition struct {
		Name        string
		Description string
		// Parameters is an opaque JSON schema the adapter passes through
		// without interpretation.
		Parameters map[string]any
	}
)

// DefaultThreadID is used when a run input carries no thread identity.
const DefaultThreadID = "default"

// threadID returns the effective thread identity of the input.
func (in RunInput) threadID() string {
	if in.ThreadID == "" {
		return DefaultThreadID
	}
	return in.ThreadID
}

// frontendToolNames returns the set of frontend-declared tool names.
func (in RunInput) frontendToolNames() map[string]struct{} {
	names := make(map[string]struct{}, len(in.Tools))
	for _, t := range in.Tools {
		if t.Name != "" {
			names[t.Name] = struct{}{}
		}
	}
	return names
}

// hasPendingToolResult reports whether the last input message is a tool
// result. When true the runtime is replaying a tool call the frontend just
// satisfied and the adapter must not re-emit that call's lifecycle events.
func (in RunInput) hasPendingToolResult() bool {
	if len(in.Messages) == 0 {
		return false
	}
	return in.Messages[len(in.Messages)-1].Role == "tool"
}

// latestUserMessage returns the content of the most recent user or tool
// message, the text handed to the runtime agent for this turn.
func (in RunInput) latestUserMessage() string {
	for i := len(in.Messages) - 1; i >= 0; i-- {
		m := in.Messages[i]
		if (m.Role == "user" || m.Role == "tool") && m.Content != "" {
			return m.Content
		}
	}
	return "Hello"
}
