package events

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestEventTypes(t *testing.T) {
	cases := []struct {
		event Event
		typ   EventType
	}{
		{RunStarted{}, TypeRunStarted},
		{RunFinished{}, TypeRunFinished},
		{RunError{}, TypeRunError},
		{TextMessageStart{}, TypeTextMessageStart},
		{TextMessageContent{}, TypeTextMessageContent},
		{TextMessageEnd{}, TypeTextMessageEnd},
		{ToolCallStart{}, TypeToolCallStart},
		{ToolCallArgs{}, TypeToolCallArgs},
		{ToolCallEnd{}, TypeToolCallEnd},
		{ToolCallResult{}, TypeToolCallResult},
		{StateSnapshot{}, TypeStateSnapshot},
		{StateDelta{}, TypeStateDelta},
		{MessagesSnapshot{}, TypeMessagesSnapshot},
		{Custom{}, TypeCustom},
	}
	for _, c := range cases {
		require.Equal(t, c.typ, c.event.Type())
	}
}

func TestValidateRequiredFields(t *testing.T) {
	require.Error(t, RunStarted{}.Validate())
	require.NoError(t, NewRunStarted("t1", "r1").Validate())

	require.Error(t, RunError{}.Validate())
	require.NoError(t, NewRunError("boom", "").Validate())

	require.Error(t, TextMessageStart{MessageID: "m1"}.Validate())
	require.NoError(t, NewTextMessageStart("m1", "assistant").Validate())

	require.Error(t, TextMessageContent{MessageID: "m1"}.Validate())
	require.NoError(t, NewTextMessageContent("m1", "hi").Validate())

	require.Error(t, ToolCallStart{ToolCallID: "c1"}.Validate())
	require.NoError(t, NewToolCallStart("c1", "get_weather", "m1").Validate())

	require.Error(t, StateSnapshot{}.Validate())
	require.NoError(t, StateSnapshot{Snapshot: map[string]any{}}.Validate())

	require.Error(t, StateDelta{}.Validate())
	require.Error(t, StateDelta{Delta: []PatchOp{{Op: "frobnicate", Path: "/x"}}}.Validate())
	require.NoError(t, StateDelta{Delta: []PatchOp{{Op: "remove", Path: "/x"}}}.Validate())

	require.Error(t, MessagesSnapshot{Messages: []Message{{Content: "hi"}}}.Validate())
	require.NoError(t, MessagesSnapshot{Messages: []Message{{Role: "user", Content: "hi"}}}.Validate())

	require.Error(t, Custom{}.Validate())
	require.NoError(t, Custom{Name: PredictStateName}.Validate())
}

func TestToolCallResultOmitsRole(t *testing.T) {
	ev := NewToolCallResult("c1", "m1", `{"ok":true}`)
	require.Empty(t, ev.Role)

	data, err := json.Marshal(ev)
	require.NoError(t, err)
	require.NotContains(t, string(data), `"role"`)
	require.Contains(t, string(data), `"toolCallId":"c1"`)
}

func TestJSONFieldNames(t *testing.T) {
	data, err := json.Marshal(NewToolCallStart("c1", "get_weather", "m1"))
	require.NoError(t, err)
	require.JSONEq(t, `{"toolCallId":"c1","toolCallName":"get_weather","parentMessageId":"m1"}`, string(data))

	data, err = json.Marshal(NewTextMessageContent("m1", "hi"))
	require.NoError(t, err)
	require.JSONEq(t, `{"messageId":"m1","delta":"hi"}`, string(data))

	data, err = json.Marshal(NewRunStarted("t1", "r1"))
	require.NoError(t, err)
	require.JSONEq(t, `{"threadId":"t1","runId":"r1"}`, string(data))
}
