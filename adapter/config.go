// Package adapter translates a runtime-agent notification stream into the
// strictly ordered AG-UI protocol event sequence consumed by UIs. One Adapter
// serves many runs; each run is driven by a single cooperative goroutine that
// consumes the runtime stream, assembles message and tool-call lifecycles,
// derives predicted-state and confirmation events, and always terminates the
// stream with exactly one terminal event.
package adapter

import (
	"context"

	"goa.design/agui/events"
)

type (
	// StatePayload is a shared-state value produced by state hooks.
	StatePayload = map[string]any

	// ToolCallContext is passed to tool call hooks once a call's input is
	// complete.
	ToolCallContext struct {
		// Input is the run input that produced the call.
		Input RunInput
		// ToolName is the resolved tool name.
		ToolName string
		// ToolCallID is the externally stable tool call identifier.
		ToolCallID string
		// Arguments is the accumulated argument text. It is canonical JSON
		// when the input parsed, raw text otherwise.
		Arguments string
		// Parsed is the decoded argument object, nil when Arguments is not
		// a JSON object.
		Parsed map[string]any
	}

	// ToolResultContext is passed to tool result hooks.
	ToolResultContext struct {
		ToolCallContext
		// Result is the serialized result content.
		Result string
		// MessageID is the run's primary message identifier.
		MessageID string
	}

	// ArgsStreamer overrides how a tool call's argument deltas are emitted.
	// The returned chunks become individual ToolCallArgs events. A failure
	// falls back to emitting the full argument text in one event.
	ArgsStreamer func(ctx context.Context, call ToolCallContext) ([]string, error)

	// StateFromArgs derives a state snapshot from a completed tool call's
	// arguments. A nil payload means no snapshot is emitted.
	StateFromArgs func(ctx context.Context, call ToolCallContext) (StatePayload, error)

	// StateFromResult derives a state snapshot from a tool result. A nil
	// payload means no snapshot is emitted.
	StateFromResult func(ctx context.Context, result ToolResultContext) (StatePayload, error)

	// CustomResultHandler emits arbitrary protocol events after a tool
	// result.
	CustomResultHandler func(ctx context.Context, result ToolResultContext) ([]events.Event, error)

	// StateContextBuilder may rewrite the user message handed to the
	// runtime agent, typically to fold shared state into the prompt. A
	// failure keeps the original message.
	StateContextBuilder func(ctx context.Context, input RunInput, userMessage string) (string, error)

	// PredictStateMapping declares how the UI predicts a state value from a
	// tool's arguments before the tool's result is known.
	PredictStateMapping struct {
		// StateKey is the shared-state key the prediction writes.
		StateKey string `json:"state_key" yaml:"state_key"`
		// Tool is the tool name the mapping attaches to.
		Tool string `json:"tool" yaml:"tool"`
		// ToolArgument names the argument whose value becomes the predicted
		// state.
		ToolArgument string `json:"tool_argument" yaml:"tool_argument"`
		// EmitConfirmTool controls whether resolving the tool also schedules
		// a deferred confirm_changes tool-call triple. Defaults to true when
		// unset.
		EmitConfirmTool *bool `json:"emit_confirm_tool,omitempty" yaml:"emit_confirm_tool"`
	}

	// PredictStatePayload is the wire form of one mapping inside a
	// PredictState custom event.
	PredictStatePayload struct {
		StateKey     string `json:"state_key"`
		Tool         string `json:"tool"`
		ToolArgument string `json:"tool_argument"`
	}

	// ToolBehavior is the declarative per-tool configuration surface.
	ToolBehavior struct {
		// SkipMessagesSnapshot tells result handlers not to emit a
		// MessagesSnapshot for this tool's turns.
		SkipMessagesSnapshot bool `yaml:"skip_messages_snapshot"`
		// ContinueAfterFrontendCall keeps the run going after a frontend
		// tool call instead of halting.
		ContinueAfterFrontendCall bool `yaml:"continue_after_frontend_call"`
		// StopStreamingAfterResult suppresses further prose once this
		// tool's result has been handled.
		StopStreamingAfterResult bool `yaml:"stop_streaming_after_result"`
		// PredictState declares predicted-state mappings for this tool.
		// Mappings with an empty Tool inherit the behavior's tool name.
		PredictState []PredictStateMapping `yaml:"predict_state"`

		// Hooks. Failures are logged and isolated; they never abort a run.
		ArgsStreamer        ArgsStreamer        `yaml:"-"`
		StateFromArgs       StateFromArgs       `yaml:"-"`
		StateFromResult     StateFromResult     `yaml:"-"`
		CustomResultHandler CustomResultHandler `yaml:"-"`
	}

	// Config is the adapter-level configuration.
	Config struct {
		// ToolBehaviors maps tool names to their behavior.
		ToolBehaviors map[string]ToolBehavior `yaml:"tools"`
		// PredictState declares predicted-state mappings independent of a
		// tool behavior entry. Each mapping must name its Tool.
		PredictState []PredictStateMapping `yaml:"predict_state"`
		// StateSnapshotExclude lists state keys filtered out of the initial
		// StateSnapshot. Nil means the default exclusion of "messages",
		// which UIs manage separately and whose roles they may not
		// recognize.
		StateSnapshotExclude []string `yaml:"state_snapshot_exclude"`
		// StateContextBuilder may rewrite the outgoing user message.
		StateContextBuilder StateContextBuilder `yaml:"-"`
	}
)

// ConfirmToolName is the synthetic tool name of the deferred confirmation
// tool-call triple.
const ConfirmToolName = "confirm_changes"

// Payload returns the mapping's wire form.
func (m PredictStateMapping) Payload() PredictStatePayload {
	return PredictStatePayload{
		StateKey:     m.StateKey,
		Tool:         m.Tool,
		ToolArgument: m.ToolArgument,
	}
}

// ConfirmTool reports whether the mapping schedules the deferred
// confirmation triple. Unset means true.
func (m PredictStateMapping) ConfirmTool() bool {
	return m.EmitConfirmTool == nil || *m.EmitConfirmTool
}

// NormalizePredictState resolves each mapping's tool name against the owning
// behavior's tool and drops mappings that still name no tool.
func NormalizePredictState(tool string, mappings []PredictStateMapping) []PredictStateMapping {
	out := make([]PredictStateMapping, 0, len(mappings))
	for _, m := range mappings {
		if m.Tool == "" {
			m.Tool = tool
		}
		if m.Tool == "" {
			continue
		}
		out = append(out, m)
	}
	return out
}

// predictStateByTool merges the flat mapping list and the per-behavior
// mappings into a tool-name index. Multiple state keys may share one tool.
func (c Config) predictStateByTool() map[string][]PredictStateMapping {
	byTool := make(map[string][]PredictStateMapping)
	for _, m := range NormalizePredictState("", c.PredictState) {
		byTool[m.Tool] = append(byTool[m.Tool], m)
	}
	for tool, b := range c.ToolBehaviors {
		for _, m := range NormalizePredictState(tool, b.PredictState) {
			byTool[m.Tool] = append(byTool[m.Tool], m)
		}
	}
	return byTool
}

// snapshotExclusions returns the effective state snapshot exclusion set.
func (c Config) snapshotExclusions() map[string]struct{} {
	keys := c.StateSnapshotExclude
	if keys == nil {
		keys = []string{"messages"}
	}
	out := make(map[string]struct{}, len(keys))
	for _, k := range keys {
		out[k] = struct{}{}
	}
	return out
}
