//
// Tencent is pleased to support the open source community by making trpc-eval-go available.
//
// Copyright (C) 2025 Tencent.  All rights reserved.
//
// trpc-eval-go is licensed under the Apache License Version 2.0.
//
//

package openai

import (
	"net/http"

	"github.com/openai/openai-go/option"
)

const (
	// DefaultEmbeddingModel is used by Embed when no embedding model is configured.
	DefaultEmbeddingModel = "text-embedding-3-small"
	defaultMaxTokens      = 1024
)

type options struct {
	apiKey         string
	baseURL        string
	embeddingModel string
	maxTokens      int
	httpClient     *http.Client
	requestOptions []option.RequestOption
}

var defaultOptions = options{
	embeddingModel: DefaultEmbeddingModel,
	maxTokens:      defaultMaxTokens,
}

// Option configures the OpenAI handle.
type Option func(*options)

// WithAPIKey sets the API key. If not provided, OPENAI_API_KEY is used by the SDK.
func WithAPIKey(key string) Option {
	return func(o *options) {
		o.apiKey = key
	}
}

// WithBaseURL sets the base URL for OpenAI-compatible endpoints.
func WithBaseURL(url string) Option {
	return func(o *options) {
		o.baseURL = url
	}
}

// WithEmbeddingModel sets the model used by Embed.
func WithEmbeddingModel(name string) Option {
	return func(o *options) {
		o.embeddingModel = name
	}
}

// WithMaxTokens sets the default completion token limit.
func WithMaxTokens(n int) Option {
	return func(o *options) {
		if n > 0 {
			o.maxTokens = n
		}
	}
}

// WithHTTPClient sets the HTTP client used by the SDK.
func WithHTTPClient(c *http.Client) Option {
	return func(o *options) {
		o.httpClient = c
	}
}

// WithRequestOptions appends raw SDK request options.
func WithRequestOptions(opts ...option.RequestOption) Option {
	return func(o *options) {
		o.requestOptions = append(o.requestOptions, opts...)
	}
}
