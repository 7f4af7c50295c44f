//
// Tencent is pleased to support the open source community by making trpc-eval-go available.
//
// Copyright (C) 2025 Tencent.  All rights reserved.
//
// trpc-eval-go is licensed under the Apache License Version 2.0.
//
//

// Package gemini provides a model handle backed by the Google GenAI API.
package gemini

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"google.golang.org/genai"

	"trpc.group/trpc-go/trpc-eval-go/model"
)

// ProviderName is the provider name reported in model.Info.
const ProviderName = "gemini"

// DefaultEmbeddingModel is used by Embed when no embedding model is configured.
const DefaultEmbeddingModel = "text-embedding-004"

var (
	_ model.LLM      = (*Model)(nil)
	_ model.Embedder = (*Model)(nil)
)

// Model is a Gemini chat and embedding handle.
type Model struct {
	models         Models
	name           string
	embeddingModel string
}

type options struct {
	clientConfig   *genai.ClientConfig
	embeddingModel string
	models         Models
}

// Option configures the Gemini handle.
type Option func(*options)

// WithAPIKey sets the Gemini API key.
func WithAPIKey(key string) Option {
	return func(o *options) { o.clientConfig.APIKey = key }
}

// WithBaseURL overrides the API base URL.
func WithBaseURL(url string) Option {
	return func(o *options) { o.clientConfig.HTTPOptions.BaseURL = url }
}

// WithHTTPClient sets the HTTP client used by the GenAI client.
func WithHTTPClient(c *http.Client) Option {
	return func(o *options) { o.clientConfig.HTTPClient = c }
}

// WithClientConfig replaces the whole GenAI client configuration.
func WithClientConfig(cfg *genai.ClientConfig) Option {
	return func(o *options) {
		if cfg != nil {
			o.clientConfig = cfg
		}
	}
}

// WithEmbeddingModel sets the model used by Embed.
func WithEmbeddingModel(name string) Option {
	return func(o *options) { o.embeddingModel = name }
}

// WithModels injects the models service, mainly for tests.
func WithModels(m Models) Option {
	return func(o *options) { o.models = m }
}

// New creates a handle for the named Gemini model.
func New(ctx context.Context, name string, opts ...Option) (*Model, error) {
	o := options{
		clientConfig:   &genai.ClientConfig{Backend: genai.BackendGeminiAPI},
		embeddingModel: DefaultEmbeddingModel,
	}
	for _, opt := range opts {
		opt(&o)
	}
	models := o.models
	if models == nil {
		client, err := genai.NewClient(ctx, o.clientConfig)
		if err != nil {
			return nil, fmt.Errorf("create genai client: %w", err)
		}
		models = &modelsWrapper{models: client.Models}
	}
	return &Model{models: models, name: name, embeddingModel: o.embeddingModel}, nil
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
	rsp, err := m.models.GenerateContent(ctx, m.name, convertMessages(req.Messages), buildConfig(req))
	if err != nil {
		return nil, wrapError(err)
	}
	if rsp == nil || len(rsp.Candidates) == 0 {
		return nil, model.NewError(ProviderName, model.KindAPI, errors.New("no candidates in response"))
	}
	out := &model.Response{
		Content:      rsp.Text(),
		Model:        rsp.ModelVersion,
		FinishReason: string(rsp.Candidates[0].FinishReason),
	}
	if u := rsp.UsageMetadata; u != nil {
		out.Usage = &model.Usage{
			PromptTokens:     int(u.PromptTokenCount),
			CompletionTokens: int(u.CandidatesTokenCount),
			TotalTokens:      int(u.TotalTokenCount),
		}
	}
	return out, nil
}

func buildConfig(req *model.Request) *genai.GenerateContentConfig {
	cfg := &genai.GenerateContentConfig{}
	if system := req.SystemPrompt(); system != "" {
		cfg.SystemInstruction = genai.NewContentFromText(system, genai.RoleUser)
	}
	if so := req.StructuredOutput; so != nil && so.Schema != nil {
		cfg.ResponseMIMEType = "application/json"
		cfg.ResponseJsonSchema = so.Schema
	}
	if req.MaxTokens != nil {
		cfg.MaxOutputTokens = int32(*req.MaxTokens)
	}
	if req.Temperature != nil {
		cfg.Temperature = genai.Ptr(float32(*req.Temperature))
	}
	return cfg
}

func convertMessages(msgs []model.Message) []*genai.Content {
	out := make([]*genai.Content, 0, len(msgs))
	for _, msg := range msgs {
		switch msg.Role {
		case model.RoleSystem:
		case model.RoleAssistant:
			out = append(out, genai.NewContentFromText(msg.Content, genai.RoleModel))
		default:
			out = append(out, genai.NewContentFromText(msg.Content, genai.RoleUser))
		}
	}
	return out
}

// Embed implements model.Embedder.
func (m *Model) Embed(ctx context.Context, inputs []string) ([][]float64, error) {
	if len(inputs) == 0 {
		return nil, nil
	}
	contents := make([]*genai.Content, len(inputs))
	for i, in := range inputs {
		contents[i] = genai.NewContentFromText(in, genai.RoleUser)
	}
	rsp, err := m.models.EmbedContent(ctx, m.embeddingModel, contents, nil)
	if err != nil {
		return nil, wrapError(err)
	}
	if rsp == nil || len(rsp.Embeddings) != len(inputs) {
		got := 0
		if rsp != nil {
			got = len(rsp.Embeddings)
		}
		return nil, model.NewError(ProviderName, model.KindAPI,
			fmt.Errorf("expected %d embeddings, got %d", len(inputs), got))
	}
	out := make([][]float64, len(rsp.Embeddings))
	for i, e := range rsp.Embeddings {
		vec := make([]float64, len(e.Values))
		for j, v := range e.Values {
			vec[j] = float64(v)
		}
		out[i] = vec
	}
	return out, nil
}

func wrapError(err error) error {
	var apiErr genai.APIError
	if errors.As(err, &apiErr) {
		return model.NewStatusError(ProviderName, apiErr.Code, err)
	}
	var apiErrPtr *genai.APIError
	if errors.As(err, &apiErrPtr) {
		return model.NewStatusError(ProviderName, apiErrPtr.Code, err)
	}
	if model.Classify(err) != model.KindUnknown {
		return err
	}
	if strings.Contains(err.Error(), "unmarshal") {
		return model.NewError(ProviderName, model.KindParse, err)
	}
	return model.NewError(ProviderName, model.KindNetwork, err)
}
