//
// Tencent is pleased to support the open source community by making trpc-eval-go available.
//
// Copyright (C) 2025 Tencent.  All rights reserved.
//
// trpc-eval-go is licensed under the Apache License Version 2.0.
//
//

package sample

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const conversationJSON = `{
  "messages": [
    {"type": "human", "content": "What is the weather in Paris?"},
    {"type": "ai", "content": "", "tool_calls": [{"id": "c1", "name": "weather", "args": {"city": "Paris"}}]},
    {"type": "tool", "content": "18C, sunny", "tool_call_id": "c1"},
    {"type": "ai", "content": "It is 18C and sunny."}
  ]
}`

func TestConversationDecodesTaggedMessages(t *testing.T) {
	var s Sample
	require.NoError(t, json.Unmarshal([]byte(conversationJSON), &s))
	require.Len(t, s.Messages, 4)

	assert.IsType(t, &HumanMessage{}, s.Messages[0])
	ai, ok := s.Messages[1].(*AIMessage)
	require.True(t, ok)
	require.Len(t, ai.ToolCalls, 1)
	assert.Equal(t, "weather", ai.ToolCalls[0].Name)
	assert.Equal(t, "Paris", ai.ToolCalls[0].Args["city"])
	tool, ok := s.Messages[2].(*ToolMessage)
	require.True(t, ok)
	assert.Equal(t, "c1", tool.ToolCallID)

	assert.True(t, s.IsMultiTurn())
	assert.Equal(t, "What is the weather in Paris?", s.Question())
	assert.Equal(t, "It is 18C and sunny.", s.ResponseText())
	require.NoError(t, s.Validate())
}

func TestConversationRoundTripKeepsTypes(t *testing.T) {
	c := Conversation{
		&HumanMessage{Content: "hi"},
		&AIMessage{Content: "hello"},
	}
	data, err := json.Marshal(c)
	require.NoError(t, err)
	assert.JSONEq(t, `[{"type":"human","content":"hi"},{"type":"ai","content":"hello"}]`, string(data))
}

func TestConversationRejectsUnknownType(t *testing.T) {
	var c Conversation
	err := json.Unmarshal([]byte(`[{"type":"system","content":"x"}]`), &c)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "system")
}

func TestConversationRender(t *testing.T) {
	var s Sample
	require.NoError(t, json.Unmarshal([]byte(conversationJSON), &s))
	expected := "Human: What is the weather in Paris?\n" +
		"AI tool call: weather({\"city\":\"Paris\"})\n" +
		"Tool: 18C, sunny\n" +
		"AI: It is 18C and sunny."
	assert.Equal(t, expected, s.Messages.Render())
	assert.Len(t, s.Messages.ToolCalls(), 1)
	assert.Equal(t, []string{"It is 18C and sunny."}, s.Messages.AIContents())
}

func TestSampleValidate(t *testing.T) {
	var nilSample *Sample
	require.Error(t, nilSample.Validate())
	require.Error(t, (&Sample{}).Validate())
	require.Error(t, (&Sample{Messages: Conversation{nil}}).Validate())
	require.NoError(t, (&Sample{UserInput: "q"}).Validate())
}
