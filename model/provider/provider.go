//
// Tencent is pleased to support the open source community by making trpc-eval-go available.
//
// Copyright (C) 2025 Tencent.  All rights reserved.
//
// trpc-eval-go is licensed under the Apache License Version 2.0.
//
//

// Package provider constructs model handles from a provider name and options.
package provider

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"trpc.group/trpc-go/trpc-eval-go/model"
	"trpc.group/trpc-go/trpc-eval-go/model/anthropic"
	"trpc.group/trpc-go/trpc-eval-go/model/gemini"
	"trpc.group/trpc-go/trpc-eval-go/model/openai"
	"trpc.group/trpc-go/trpc-eval-go/model/ratelimit"
)

func init() {
	Register(openai.ProviderName, openaiProvider)
	Register(anthropic.ProviderName, anthropicProvider)
	Register(gemini.ProviderName, geminiProvider)
}

// Provider builds a model handle.
type Provider func(opts *Options) (model.Handle, error)

var (
	providersMu sync.RWMutex                // providersMu guards providers access.
	providers   = make(map[string]Provider) // providers stores provider name to provider mappings.
)

// Register registers a provider by name.
func Register(name string, provider Provider) {
	providersMu.Lock()
	defer providersMu.Unlock()
	providers[name] = provider
}

// Get returns the provider by name.
func Get(name string) (Provider, bool) {
	providersMu.RLock()
	defer providersMu.RUnlock()
	provider, ok := providers[name]
	return provider, ok
}

// Names returns the registered provider names sorted lexicographically.
func Names() []string {
	providersMu.RLock()
	defer providersMu.RUnlock()
	names := make([]string, 0, len(providers))
	for name := range providers {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Model constructs a handle with the given provider name, model name and options.
// When a rate limit is configured the handle is wrapped by ratelimit.Wrap.
func Model(providerName, modelName string, opt ...Option) (model.Handle, error) {
	opts := &Options{
		Context:      context.Background(),
		ProviderName: providerName,
		ModelName:    modelName,
	}
	for _, o := range opt {
		o(opts)
	}
	provider, ok := Get(providerName)
	if !ok {
		return nil, fmt.Errorf("unknown provider: %s", providerName)
	}
	h, err := provider(opts)
	if err != nil {
		return nil, fmt.Errorf("build %s model %s: %w", providerName, modelName, err)
	}
	return ratelimit.Wrap(h, opts.RateLimit, opts.Burst), nil
}

// openaiProvider builds an OpenAI-compatible handle using the resolved options.
func openaiProvider(opts *Options) (model.Handle, error) {
	var res []openai.Option
	if opts.APIKey != "" {
		res = append(res, openai.WithAPIKey(opts.APIKey))
	}
	if opts.BaseURL != "" {
		res = append(res, openai.WithBaseURL(opts.BaseURL))
	}
	if opts.EmbeddingModel != "" {
		res = append(res, openai.WithEmbeddingModel(opts.EmbeddingModel))
	}
	if opts.MaxTokens > 0 {
		res = append(res, openai.WithMaxTokens(opts.MaxTokens))
	}
	if c := opts.httpClient(); c != nil {
		res = append(res, openai.WithHTTPClient(c))
	}
	return openai.New(opts.ModelName, res...), nil
}

// anthropicProvider builds an Anthropic handle using the resolved options.
func anthropicProvider(opts *Options) (model.Handle, error) {
	var res []anthropic.Option
	if opts.APIKey != "" {
		res = append(res, anthropic.WithAPIKey(opts.APIKey))
	}
	if opts.BaseURL != "" {
		res = append(res, anthropic.WithBaseURL(opts.BaseURL))
	}
	if opts.MaxTokens > 0 {
		res = append(res, anthropic.WithMaxTokens(opts.MaxTokens))
	}
	if c := opts.httpClient(); c != nil {
		res = append(res, anthropic.WithHTTPClient(c))
	}
	return anthropic.New(opts.ModelName, res...), nil
}

// geminiProvider builds a Gemini handle using the resolved options.
func geminiProvider(opts *Options) (model.Handle, error) {
	var res []gemini.Option
	if opts.APIKey != "" {
		res = append(res, gemini.WithAPIKey(opts.APIKey))
	}
	if opts.BaseURL != "" {
		res = append(res, gemini.WithBaseURL(opts.BaseURL))
	}
	if opts.EmbeddingModel != "" {
		res = append(res, gemini.WithEmbeddingModel(opts.EmbeddingModel))
	}
	if c := opts.httpClient(); c != nil {
		res = append(res, gemini.WithHTTPClient(c))
	}
	return gemini.New(opts.Context, opts.ModelName, res...)
}
