package adapter

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestRunInputThreadIDFallback(t *testing.T) {
	require.Equal(t, DefaultThreadID, RunInput{}.threadID())
	require.Equal(t, "t1", RunInput{ThreadID: "t1"}.threadID())
}

func TestRunInputFrontendToolNames(t *testing.T) {
	in := RunInput{Tools: []ToolDefinition{
		{Name: "change_background"},
		{Name: ""},
		{Name: "pick_color"},
	}}
	names := in.frontendToolNames()
	require.Len(t, names, 2)
	_, ok := names["change_background"]
	require.True(t, ok)
}

func TestRunInputHasPendingToolResult(t *testing.T) {
	require.False(t, RunInput{}.hasPendingToolResult())
	require.False(t, RunInput{Messages: []InputMessage{{Role: "user", Content: "hi"}}}.hasPendingToolResult())
	require.True(t, RunInput{Messages: []InputMessage{
		{Role: "user", Content: "hi"},
		{Role: "tool", Content: `{"ok":true}`, ToolCallID: "c1"},
	}}.hasPendingToolResult())
}

func TestRunInputLatestUserMessage(t *testing.T) {
	require.Equal(t, "Hello", RunInput{}.latestUserMessage())

	in := RunInput{Messages: []InputMessage{
		{Role: "user", Content: "first"},
		{Role: "assistant", Content: "reply"},
		{Role: "user", Content: "second"},
	}}
	require.Equal(t, "second", in.latestUserMessage())

	// A trailing tool result is the turn's outgoing message.
	in.Messages = append(in.Messages, InputMessage{Role: "tool", Content: `{"ok":true}`})
	require.Equal(t, `{"ok":true}`, in.latestUserMessage())
}
