//
// Tencent is pleased to support the open source community by making trpc-eval-go available.
//
// Copyright (C) 2025 Tencent.  All rights reserved.
//
// trpc-eval-go is licensed under the Apache License Version 2.0.
//
//

package gemini

import (
	"context"

	"google.golang.org/genai"
)

// Models is the subset of the GenAI models service the handle calls.
type Models interface {
	// GenerateContent generates content based on the provided model, contents, and configuration.
	GenerateContent(ctx context.Context, model string, contents []*genai.Content,
		config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error)
	// EmbedContent embeds the provided contents with the named model.
	EmbedContent(ctx context.Context, model string, contents []*genai.Content,
		config *genai.EmbedContentConfig) (*genai.EmbedContentResponse, error)
}

// modelsWrapper implements Models.
type modelsWrapper struct {
	models *genai.Models
}

func (m *modelsWrapper) GenerateContent(ctx context.Context, model string, contents []*genai.Content,
	config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error) {
	return m.models.GenerateContent(ctx, model, contents, config)
}

func (m *modelsWrapper) EmbedContent(ctx context.Context, model string, contents []*genai.Content,
	config *genai.EmbedContentConfig) (*genai.EmbedContentResponse, error) {
	return m.models.EmbedContent(ctx, model, contents, config)
}
