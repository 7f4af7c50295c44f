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
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/genai"

	"trpc.group/trpc-go/trpc-eval-go/model"
)

type fakeModels struct {
	contents []*genai.Content
	config   *genai.GenerateContentConfig
	rsp      *genai.GenerateContentResponse
	embed    *genai.EmbedContentResponse
	err      error
}

func (f *fakeModels) GenerateContent(_ context.Context, _ string, contents []*genai.Content,
	config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error) {
	f.contents = contents
	f.config = config
	return f.rsp, f.err
}

func (f *fakeModels) EmbedContent(_ context.Context, _ string, contents []*genai.Content,
	_ *genai.EmbedContentConfig) (*genai.EmbedContentResponse, error) {
	f.contents = contents
	return f.embed, f.err
}

func TestGenerate(t *testing.T) {
	fake := &fakeModels{rsp: &genai.GenerateContentResponse{
		Candidates: []*genai.Candidate{{
			Content:      genai.NewContentFromText(`{"ok":true}`, genai.RoleModel),
			FinishReason: genai.FinishReasonStop,
		}},
		UsageMetadata: &genai.GenerateContentResponseUsageMetadata{
			PromptTokenCount: 3, CandidatesTokenCount: 2, TotalTokenCount: 5,
		},
	}}
	m, err := New(context.Background(), "gemini-test", WithModels(fake))
	require.NoError(t, err)

	rsp, err := m.Generate(context.Background(), &model.Request{
		Messages:         []model.Message{model.NewSystemMessage("sys"), model.NewUserMessage("q")},
		Temperature:      model.Float64Ptr(0),
		MaxTokens:        model.IntPtr(32),
		StructuredOutput: &model.StructuredOutput{Name: "x", Schema: map[string]any{"type": "object"}},
	})
	require.NoError(t, err)
	assert.Equal(t, `{"ok":true}`, rsp.Content)
	assert.Equal(t, string(genai.FinishReasonStop), rsp.FinishReason)
	assert.Equal(t, 5, rsp.Usage.TotalTokens)

	require.Len(t, fake.contents, 1)
	assert.Equal(t, "application/json", fake.config.ResponseMIMEType)
	assert.EqualValues(t, 32, fake.config.MaxOutputTokens)
	require.NotNil(t, fake.config.SystemInstruction)
	assert.Equal(t, "sys", fake.config.SystemInstruction.Parts[0].Text)
}

func TestGenerateErrors(t *testing.T) {
	fake := &fakeModels{err: genai.APIError{Code: 429, Message: "quota"}}
	m, err := New(context.Background(), "gemini-test", WithModels(fake))
	require.NoError(t, err)
	_, err = m.Generate(context.Background(), &model.Request{Messages: []model.Message{model.NewUserMessage("q")}})
	assert.Equal(t, model.KindRateLimit, model.Classify(err))

	fake.err = context.DeadlineExceeded
	_, err = m.Generate(context.Background(), &model.Request{Messages: []model.Message{model.NewUserMessage("q")}})
	assert.Equal(t, model.KindTimeout, model.Classify(err))

	fake.err = nil
	fake.rsp = &genai.GenerateContentResponse{}
	_, err = m.Generate(context.Background(), &model.Request{Messages: []model.Message{model.NewUserMessage("q")}})
	assert.Equal(t, model.KindAPI, model.Classify(err))

	fake.err = errors.New("dial tcp: refused")
	_, err = m.Generate(context.Background(), &model.Request{})
	assert.Equal(t, model.KindNetwork, model.Classify(err))
}

func TestEmbed(t *testing.T) {
	fake := &fakeModels{embed: &genai.EmbedContentResponse{Embeddings: []*genai.ContentEmbedding{
		{Values: []float32{1, 0}},
		{Values: []float32{0.5, 0.5}},
	}}}
	m, err := New(context.Background(), "gemini-test", WithModels(fake))
	require.NoError(t, err)
	vecs, err := m.Embed(context.Background(), []string{"a", "b"})
	require.NoError(t, err)
	assert.Equal(t, [][]float64{{1, 0}, {0.5, 0.5}}, vecs)

	fake.embed = &genai.EmbedContentResponse{}
	_, err = m.Embed(context.Background(), []string{"a"})
	assert.Equal(t, model.KindAPI, model.Classify(err))
}
