//
// Tencent is pleased to support the open source community by making trpc-eval-go available.
//
// Copyright (C) 2025 Tencent.  All rights reserved.
//
// trpc-eval-go is licensed under the Apache License Version 2.0.
//
//

// Package model defines the callable model handles the evaluation engine
// fans out to: language models and embedding models.
package model

import "context"

// Info describes a model handle.
type Info struct {
	// Provider is the backend name, for example "openai".
	Provider string `json:"provider"`
	// Name is the provider-side model name.
	Name string `json:"name"`
}

// Handle is a resolved, callable model.
type Handle interface {
	// Info returns information about the model implementation.
	Info() Info
}

// LLM is a handle that can answer prompts.
type LLM interface {
	Handle
	// Generate sends one non-streaming request and returns the final response.
	Generate(ctx context.Context, req *Request) (*Response, error)
}

// Embedder is a handle that can embed text.
type Embedder interface {
	Handle
	// Embed returns one vector per input, in input order.
	Embed(ctx context.Context, inputs []string) ([][]float64, error)
}
