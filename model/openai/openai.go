//
// Tencent is pleased to support the open source community by making trpc-eval-go available.
//
// Copyright (C) 2025 Tencent.  All rights reserved.
//
// trpc-eval-go is licensed under the Apache License Version 2.0.
//
//

// Package openai provides a model handle backed by the OpenAI API or any
// OpenAI-compatible endpoint. It serves both chat completions and embeddings.
package openai

import (
	"context"
	"errors"
	"fmt"
	"sort"

	openai "github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
	"github.com/openai/openai-go/shared"

	"trpc.group/trpc-go/trpc-eval-go/model"
)

// ProviderName is the provider name reported in model.Info.
const ProviderName = "openai"

var (
	_ model.LLM      = (*Model)(nil)
	_ model.Embedder = (*Model)(nil)
)

// Model is an OpenAI chat and embedding handle.
type Model struct {
	client         openai.Client
	name           string
	embeddingModel string
	maxTokens      int
}

// New creates a handle for the named chat model.
// SDK retries are disabled: a failed call is reported once and the engine
// decides what to do with it.
func New(name string, opts ...Option) *Model {
	o := defaultOptions
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
	clientOpts = append(clientOpts, o.requestOptions...)
	return &Model{
		client:         openai.NewClient(clientOpts...),
		name:           name,
		embeddingModel: o.embeddingModel,
		maxTokens:      o.maxTokens,
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
	completion, err := m.client.Chat.Completions.New(ctx, m.buildChatRequest(req))
	if err != nil {
		return nil, wrapError(err)
	}
	if len(completion.Choices) == 0 {
		return nil, model.NewError(ProviderName, model.KindAPI, errors.New("no choices in completion"))
	}
	choice := completion.Choices[0]
	return &model.Response{
		Content:      choice.Message.Content,
		Model:        completion.Model,
		FinishReason: choice.FinishReason,
		Usage: &model.Usage{
			PromptTokens:     int(completion.Usage.PromptTokens),
			CompletionTokens: int(completion.Usage.CompletionTokens),
			TotalTokens:      int(completion.Usage.TotalTokens),
		},
	}, nil
}

func (m *Model) buildChatRequest(req *model.Request) openai.ChatCompletionNewParams {
	params := openai.ChatCompletionNewParams{
		Model:    shared.ChatModel(m.name),
		Messages: convertMessages(req.Messages),
	}
	maxTokens := m.maxTokens
	if req.MaxTokens != nil {
		maxTokens = *req.MaxTokens
	}
	params.MaxCompletionTokens = openai.Int(int64(maxTokens))
	if req.Temperature != nil {
		params.Temperature = openai.Float(*req.Temperature)
	}
	if so := req.StructuredOutput; so != nil && so.Schema != nil {
		params.ResponseFormat = openai.ChatCompletionNewParamsResponseFormatUnion{
			OfJSONSchema: &shared.ResponseFormatJSONSchemaParam{
				JSONSchema: shared.ResponseFormatJSONSchemaJSONSchemaParam{
					Name:   so.Name,
					Schema: so.Schema,
					Strict: openai.Bool(so.Strict),
				},
			},
		}
	}
	return params
}

func convertMessages(msgs []model.Message) []openai.ChatCompletionMessageParamUnion {
	out := make([]openai.ChatCompletionMessageParamUnion, 0, len(msgs))
	for _, msg := range msgs {
		switch msg.Role {
		case model.RoleSystem:
			out = append(out, openai.SystemMessage(msg.Content))
		case model.RoleAssistant:
			out = append(out, openai.AssistantMessage(msg.Content))
		default:
			out = append(out, openai.UserMessage(msg.Content))
		}
	}
	return out
}

// Embed implements model.Embedder.
func (m *Model) Embed(ctx context.Context, inputs []string) ([][]float64, error) {
	if len(inputs) == 0 {
		return nil, nil
	}
	rsp, err := m.client.Embeddings.New(ctx, openai.EmbeddingNewParams{
		Input:          openai.EmbeddingNewParamsInputUnion{OfArrayOfStrings: inputs},
		Model:          m.embeddingModel,
		EncodingFormat: openai.EmbeddingNewParamsEncodingFormatFloat,
	})
	if err != nil {
		return nil, wrapError(err)
	}
	if len(rsp.Data) != len(inputs) {
		return nil, model.NewError(ProviderName, model.KindAPI,
			fmt.Errorf("expected %d embeddings, got %d", len(inputs), len(rsp.Data)))
	}
	data := rsp.Data
	sort.Slice(data, func(i, j int) bool { return data[i].Index < data[j].Index })
	out := make([][]float64, len(data))
	for i, d := range data {
		out[i] = d.Embedding
	}
	return out, nil
}

func wrapError(err error) error {
	var apiErr *openai.Error
	if errors.As(err, &apiErr) {
		return model.NewStatusError(ProviderName, apiErr.StatusCode, err)
	}
	if model.Classify(err) != model.KindUnknown {
		return err
	}
	return model.NewError(ProviderName, model.KindNetwork, err)
}
