//
// Tencent is pleased to support the open source community by making trpc-eval-go available.
//
// Copyright (C) 2025 Tencent.  All rights reserved.
//
// trpc-eval-go is licensed under the Apache License Version 2.0.
//
//

// Package anthropic provides a model handle backed by the Anthropic Messages API.
package anthropic

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	anthropic "github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"

	"trpc.group/trpc-go/trpc-eval-go/model"
)

// ProviderName is the provider name reported in model.Info.
const ProviderName = "anthropic"

const defaultMaxTokens = 1024

var _ model.LLM = (*Model)(nil)

// Model implements model.LLM for the Anthropic API.
// Anthropic has no embedding endpoint, so the handle is not a model.Embedder.
type Model struct {
	client    anthropic.Client
	name      string
	maxTokens int
}

type options struct {
	apiKey     string
	baseURL    string
	maxTokens  int
	httpClient *http.Client
}

// Option configures the Anthropic handle.
type Option func(*options)

// WithAPIKey sets the API key. If not provided, ANTHROPIC_API_KEY is used by the SDK.
func WithAPIKey(key string) Option {
	return func(o *options) { o.apiKey = key }
}

// WithBaseURL sets the API base URL.
func WithBaseURL(url string) Option {
	return func(o *options) { o.baseURL = url }
}

// WithMaxTokens sets the default output token limit. The Messages API requires one.
func WithMaxTokens(n int) Option {
	return func(o *options) {
		if n > 0 {
			o.maxTokens = n
		}
	}
}

// WithHTTPClient sets the HTTP client used by the SDK.
func WithHTTPClient(c *http.Client) Option {
	return func(o *options) { o.httpClient = c }
}

// New creates a handle for the named Anthropic model.
func New(name string, opts ...Option) *Model {
	o := options{maxTokens: defaultMaxTokens}
	for _, opt := range opts {
		opt(&o)
	}
	clientOpts := []option.RequestOption{option.WithMaxRetries(0)}
	if o.apiKey != "" {
		clientOpts = append(clientOpts, option.WithAPIKey(o.apiKey))
	}
	if o.baseURL != "" {
		clientOpts = append(clientOpts, option.WithBaseURL(o.baseURL))
	}
	if o.httpClient != nil {
		clientOpts = append(clientOpts, option.WithHTTPClient(o.httpClient))
	}
	return &Model{
		client:    anthropic.NewClient(clientOpts...),
		name:      name,
		maxTokens: o.maxTokens,
	}
}

// Info implements model.Handle.
func (m *Model) Info() model.Info {
	return model.Info{Provider: ProviderName, Name: m.name}
}

// Generate implements model.LLM.
func (m *Model) Generate(ctx context.Context, req *model.Request) (*model.Response, error) {
	if req == nil {
		return nil, errors.New("request is nil")
	}
	params, err := m.buildParams(req)
	if err != nil {
		return nil, err
	}
	msg, err := m.client.Messages.New(ctx, params)
	if err != nil {
		return nil, wrapError(err)
	}
	var sb strings.Builder
	for _, block := range msg.Content {
		if block.Type == "text" {
			sb.WriteString(block.AsText().Text)
		}
	}
	return &model.Response{
		Content:      sb.String(),
		Model:        string(msg.Model),
		FinishReason: string(msg.StopReason),
		Usage: &model.Usage{
			PromptTokens:     int(msg.Usage.InputTokens),
			CompletionTokens: int(msg.Usage.OutputTokens),
			TotalTokens:      int(msg.Usage.InputTokens + msg.Usage.OutputTokens),
		},
	}, nil
}

func (m *Model) buildParams(req *model.Request) (anthropic.MessageNewParams, error) {
	maxTokens := m.maxTokens
	if req.MaxTokens != nil {
		maxTokens = *req.MaxTokens
	}
	params := anthropic.MessageNewParams{
		Model:     anthropic.Model(m.name),
		MaxTokens: int64(maxTokens),
	}
	for _, msg := range req.Messages {
		switch msg.Role {
		case model.RoleSystem:
		case model.RoleAssistant:
			params.Messages = append(params.Messages, anthropic.NewAssistantMessage(anthropic.NewTextBlock(msg.Content)))
		default:
			params.Messages = append(params.Messages, anthropic.NewUserMessage(anthropic.NewTextBlock(msg.Content)))
		}
	}
	system := req.SystemPrompt()
	// The Messages API has no response format parameter, so the schema is
	// stated in the system prompt and the engine validates the reply.
	if so := req.StructuredOutput; so != nil && so.Schema != nil {
		schema, err := json.Marshal(so.Schema)
		if err != nil {
			return params, fmt.Errorf("marshal output schema: %w", err)
		}
		instruction := "Respond only with a JSON object that conforms to this JSON schema:\n" + string(schema)
		if system == "" {
			system = instruction
		} else {
			system += "\n\n" + instruction
		}
	}
	if system != "" {
		params.System = []anthropic.TextBlockParam{{Text: system}}
	}
	if req.Temperature != nil {
		params.Temperature = anthropic.Float(*req.Temperature)
	}
	return params, nil
}

func wrapError(err error) error {
	var apiErr *anthropic.Error
	if errors.As(err, &apiErr) {
		return model.NewStatusError(ProviderName, apiErr.StatusCode, err)
	}
	if model.Classify(err) != model.KindUnknown {
		return err
	}
	return model.NewError(ProviderName, model.KindNetwork, err)
}
