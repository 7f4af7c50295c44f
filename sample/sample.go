//
// Tencent is pleased to support the open source community by making trpc-eval-go available.
//
// Copyright (C) 2025 Tencent.  All rights reserved.
//
// trpc-eval-go is licensed under the Apache License Version 2.0.
//
//

// Package sample defines the input under evaluation.
package sample

import (
	"errors"
	"strings"
)

// Sample is the single input instance being evaluated.
// It is owned by the caller and only read by the engine.
type Sample struct {
	// ID optionally identifies the sample in batch runs.
	ID string `json:"id,omitempty"`
	// UserInput is the user question or instruction.
	UserInput string `json:"user_input,omitempty"`
	// RetrievedContexts are the contexts handed to the system under test, in order.
	RetrievedContexts []string `json:"retrieved_contexts,omitempty"`
	// Response is the answer produced by the system under test.
	Response string `json:"response,omitempty"`
	// Reference is the ground truth answer.
	Reference string `json:"reference,omitempty"`
	// Messages holds a multi-turn conversation.
	Messages Conversation `json:"messages,omitempty"`
	// ReferenceToolCalls are the tool calls the system was expected to make.
	ReferenceToolCalls []ToolCall `json:"reference_tool_calls,omitempty"`
	// ReferenceTopics are the topics the conversation should stay within.
	ReferenceTopics []string `json:"reference_topics,omitempty"`
}

// IsMultiTurn reports whether the sample carries a conversation.
func (s *Sample) IsMultiTurn() bool {
	return len(s.Messages) > 0
}

// Validate checks that the sample has something to evaluate.
func (s *Sample) Validate() error {
	if s == nil {
		return errors.New("sample is nil")
	}
	if strings.TrimSpace(s.UserInput) == "" && len(s.Messages) == 0 {
		return errors.New("sample has neither user input nor messages")
	}
	return s.Messages.Validate()
}

// ResponseText returns the response to evaluate: the explicit response when
// set, otherwise the content of the last AI message of the conversation.
func (s *Sample) ResponseText() string {
	if s.Response != "" {
		return s.Response
	}
	for i := len(s.Messages) - 1; i >= 0; i-- {
		if ai, ok := s.Messages[i].(*AIMessage); ok && ai.Content != "" {
			return ai.Content
		}
	}
	return ""
}

// Question returns the user input, or the text of the first human turn of a
// conversation when no user input is set.
func (s *Sample) Question() string {
	if s.UserInput != "" {
		return s.UserInput
	}
	for _, m := range s.Messages {
		if h, ok := m.(*HumanMessage); ok {
			return h.Content
		}
	}
	return ""
}
