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
	"fmt"
	"strings"
)

// MessageType tags a conversation turn.
type MessageType string

// Supported message types.
const (
	MessageTypeHuman MessageType = "human"
	MessageTypeAI    MessageType = "ai"
	MessageTypeTool  MessageType = "tool"
)

// Message is one turn of a multi-turn conversation. The set of
// implementations is closed: *HumanMessage, *AIMessage and *ToolMessage.
type Message interface {
	// Type returns the message tag.
	Type() MessageType
	isMessage()
}

// HumanMessage is a user turn.
type HumanMessage struct {
	Content string `json:"content"`
}

// AIMessage is an assistant turn, optionally requesting tool calls.
type AIMessage struct {
	Content   string     `json:"content"`
	ToolCalls []ToolCall `json:"tool_calls,omitempty"`
}

// ToolMessage carries the result of a tool call.
type ToolMessage struct {
	Content    string `json:"content"`
	ToolCallID string `json:"tool_call_id,omitempty"`
}

// ToolCall is a tool invocation with its arguments.
type ToolCall struct {
	ID   string         `json:"id,omitempty"`
	Name string         `json:"name"`
	Args map[string]any `json:"args,omitempty"`
}

// Type implements Message.
func (*HumanMessage) Type() MessageType { return MessageTypeHuman }

// Type implements Message.
func (*AIMessage) Type() MessageType { return MessageTypeAI }

// Type implements Message.
func (*ToolMessage) Type() MessageType { return MessageTypeTool }

func (*HumanMessage) isMessage() {}
func (*AIMessage) isMessage()    {}
func (*ToolMessage) isMessage()  {}

// Conversation is an ordered list of messages with a tagged JSON encoding:
// every element carries a "type" field selecting the variant.
type Conversation []Message

type taggedMessage struct {
	Type       MessageType `json:"type"`
	Content    string      `json:"content"`
	ToolCalls  []ToolCall  `json:"tool_calls,omitempty"`
	ToolCallID string      `json:"tool_call_id,omitempty"`
}

// MarshalJSON implements json.Marshaler.
func (c Conversation) MarshalJSON() ([]byte, error) {
	out := make([]taggedMessage, 0, len(c))
	for i, m := range c {
		switch v := m.(type) {
		case *HumanMessage:
			out = append(out, taggedMessage{Type: MessageTypeHuman, Content: v.Content})
		case *AIMessage:
			out = append(out, taggedMessage{Type: MessageTypeAI, Content: v.Content, ToolCalls: v.ToolCalls})
		case *ToolMessage:
			out = append(out, taggedMessage{Type: MessageTypeTool, Content: v.Content, ToolCallID: v.ToolCallID})
		default:
			return nil, fmt.Errorf("message %d: unsupported message %T", i, m)
		}
	}
	return json.Marshal(out)
}

// UnmarshalJSON implements json.Unmarshaler.
func (c *Conversation) UnmarshalJSON(data []byte) error {
	var raw []taggedMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("unmarshal conversation: %w", err)
	}
	msgs := make(Conversation, 0, len(raw))
	for i, r := range raw {
		switch r.Type {
		case MessageTypeHuman:
			msgs = append(msgs, &HumanMessage{Content: r.Content})
		case MessageTypeAI:
			msgs = append(msgs, &AIMessage{Content: r.Content, ToolCalls: r.ToolCalls})
		case MessageTypeTool:
			msgs = append(msgs, &ToolMessage{Content: r.Content, ToolCallID: r.ToolCallID})
		default:
			return fmt.Errorf("message %d: unknown message type %q", i, r.Type)
		}
	}
	*c = msgs
	return nil
}

// Validate rejects nil entries.
func (c Conversation) Validate() error {
	for i, m := range c {
		if m == nil {
			return fmt.Errorf("message %d is nil", i)
		}
	}
	return nil
}

// Render formats the conversation as plain text for prompts.
func (c Conversation) Render() string {
	var b strings.Builder
	for _, m := range c {
		switch v := m.(type) {
		case *HumanMessage:
			fmt.Fprintf(&b, "Human: %s\n", v.Content)
		case *AIMessage:
			if v.Content != "" {
				fmt.Fprintf(&b, "AI: %s\n", v.Content)
			}
			for _, tc := range v.ToolCalls {
				args, _ := json.Marshal(tc.Args)
				fmt.Fprintf(&b, "AI tool call: %s(%s)\n", tc.Name, args)
			}
		case *ToolMessage:
			fmt.Fprintf(&b, "Tool: %s\n", v.Content)
		}
	}
	return strings.TrimRight(b.String(), "\n")
}

// ToolCalls returns every tool call requested by AI turns, in order.
func (c Conversation) ToolCalls() []ToolCall {
	var calls []ToolCall
	for _, m := range c {
		switch v := m.(type) {
		case *AIMessage:
			calls = append(calls, v.ToolCalls...)
		case *HumanMessage, *ToolMessage:
		}
	}
	return calls
}

// AIContents returns the text of every AI turn, in order.
func (c Conversation) AIContents() []string {
	var out []string
	for _, m := range c {
		if v, ok := m.(*AIMessage); ok && v.Content != "" {
			out = append(out, v.Content)
		}
	}
	return out
}
