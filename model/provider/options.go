//
// Tencent is pleased to support the open source community by making trpc-eval-go available.
//
// Copyright (C) 2025 Tencent.  All rights reserved.
//
// trpc-eval-go is licensed under the Apache License Version 2.0.
//
//

package provider

import (
	"context"
	"net/http"
	"time"
)

// Option configures how a model handle should be constructed.
type Option func(*Options)

// Options contains resolved settings used when constructing provider-backed handles.
type Options struct {
	Context        context.Context // Context is used by providers whose client needs one at construction.
	ProviderName   string          // ProviderName is the provider identifier passed to Model.
	ModelName      string          // ModelName is the concrete model identifier.
	APIKey         string          // APIKey holds the credential used for downstream SDK initialization.
	BaseURL        string          // BaseURL overrides the default endpoint when specified.
	EmbeddingModel string          // EmbeddingModel overrides the model used for embeddings.
	MaxTokens      int             // MaxTokens is the default output token limit.
	Timeout        time.Duration   // Timeout bounds every HTTP request of the handle.
	RateLimit      float64         // RateLimit is the allowed calls per second; 0 disables throttling.
	Burst          int             // Burst is the token bucket size used with RateLimit.
}

// WithContext sets the construction context.
func WithContext(ctx context.Context) Option {
	return func(o *Options) { o.Context = ctx }
}

// WithAPIKey sets the API key.
func WithAPIKey(key string) Option {
	return func(o *Options) { o.APIKey = key }
}

// WithBaseURL sets the endpoint base URL.
func WithBaseURL(url string) Option {
	return func(o *Options) { o.BaseURL = url }
}

// WithEmbeddingModel sets the embedding model name.
func WithEmbeddingModel(name string) Option {
	return func(o *Options) { o.EmbeddingModel = name }
}

// WithMaxTokens sets the default output token limit.
func WithMaxTokens(n int) Option {
	return func(o *Options) { o.MaxTokens = n }
}

// WithTimeout sets the HTTP request timeout.
func WithTimeout(d time.Duration) Option {
	return func(o *Options) { o.Timeout = d }
}

// WithRateLimit throttles the handle to rps calls per second with the given burst.
func WithRateLimit(rps float64, burst int) Option {
	return func(o *Options) {
		o.RateLimit = rps
		o.Burst = burst
	}
}

func (o *Options) httpClient() *http.Client {
	if o.Timeout <= 0 {
		return nil
	}
	return &http.Client{Timeout: o.Timeout}
}
