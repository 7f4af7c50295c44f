//
// Tencent is pleased to support the open source community by making trpc-eval-go available.
//
// Copyright (C) 2025 Tencent.  All rights reserved.
//
// trpc-eval-go is licensed under the Apache License Version 2.0.
//
//

package model

// Usage represents token usage information.
type Usage struct {
	// PromptTokens is the number of tokens in the prompt.
	PromptTokens int `json:"prompt_tokens"`
	// CompletionTokens is the number of tokens in the completion.
	CompletionTokens int `json:"completion_tokens"`
	// TotalTokens is the total number of tokens in the response.
	TotalTokens int `json:"total_tokens"`
}

// Response is the final answer of an LLM.
type Response struct {
	// Content is the text returned by the model.
	Content string `json:"content"`
	// Model is the model that served the request.
	Model string `json:"model,omitempty"`
	// FinishReason is the provider stop reason.
	FinishReason string `json:"finish_reason,omitempty"`
	// Usage is the token usage when reported.
	Usage *Usage `json:"usage,omitempty"`
}
