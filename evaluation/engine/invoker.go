//
// Tencent is pleased to support the open source community by making trpc-eval-go available.
//
// Copyright (C) 2025 Tencent.  All rights reserved.
//
// trpc-eval-go is licensed under the Apache License Version 2.0.
//
//

package engine

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"runtime/debug"
	"strings"
	"sync"
	"time"
	"unicode/utf8"

	"github.com/santhosh-tekuri/jsonschema/v6"

	"trpc.group/trpc-go/trpc-eval-go/log"
	"trpc.group/trpc-go/trpc-eval-go/model"
)

// LLMCall describes one prompt sent to one model.
type LLMCall struct {
	// System is an optional system prompt.
	System string
	// Prompt is the rendered user prompt.
	Prompt string
	// Schema is the JSON schema the reply must satisfy. When nil the reply
	// is decoded as JSON into the step result type, or kept verbatim if that
	// type is string.
	Schema map[string]any
	// SchemaName names the schema for providers that require one.
	SchemaName string
	// Temperature overrides the provider default.
	Temperature *float64
	// MaxTokens overrides the provider default.
	MaxTokens *int
}

// Request renders the call as a model request.
func (c *LLMCall) Request() *model.Request {
	req := &model.Request{Temperature: c.Temperature, MaxTokens: c.MaxTokens}
	if c.System != "" {
		req.Messages = append(req.Messages, model.NewSystemMessage(c.System))
	}
	req.Messages = append(req.Messages, model.NewUserMessage(c.Prompt))
	if c.Schema != nil {
		name := c.SchemaName
		if name == "" {
			name = "response"
		}
		req.StructuredOutput = &model.StructuredOutput{Name: name, Schema: c.Schema, Strict: false}
	}
	return req
}

// InvokeLLM sends call to h and decodes the reply into R. It never panics
// and never returns an error: every failure is recorded on the result.
func InvokeLLM[R any](ctx context.Context, modelID string, h model.Handle, call *LLMCall) (res ModelResult[R]) {
	res.ModelID = modelID
	start := time.Now()
	defer func() {
		res.Duration = time.Since(start)
		if r := recover(); r != nil {
			log.ErrorfContext(ctx, "model %s panicked: %v\n%s", modelID, r, string(debug.Stack()))
			res.Err = fmt.Errorf("model %s panicked: %v", modelID, r)
		}
	}()
	if call == nil {
		res.Err = errors.New("llm call is nil")
		return res
	}
	req := call.Request()
	res.Request = req
	llm, ok := h.(model.LLM)
	if !ok {
		res.Err = fmt.Errorf("model %s cannot generate text: %w", modelID, model.ErrUnsupported)
		return res
	}
	rsp, err := llm.Generate(ctx, req)
	if err != nil {
		res.Err = fmt.Errorf("generate: %w", err)
		return res
	}
	if rsp == nil {
		res.Err = model.NewError(h.Info().Provider, model.KindParse, errors.New("empty response"))
		return res
	}
	value, err := decode[R](rsp.Content, call.Schema)
	if err != nil {
		res.Err = model.NewError(h.Info().Provider, model.KindParse, err)
		return res
	}
	res.Value = value
	return res
}

// InvokeEmbedding embeds inputs with h. Like InvokeLLM it records every
// failure on the result.
func InvokeEmbedding(ctx context.Context, modelID string, h model.Handle, inputs []string) (res ModelResult[[][]float64]) {
	res.ModelID = modelID
	res.Request = inputs
	start := time.Now()
	defer func() {
		res.Duration = time.Since(start)
		if r := recover(); r != nil {
			log.ErrorfContext(ctx, "model %s panicked: %v\n%s", modelID, r, string(debug.Stack()))
			res.Err = fmt.Errorf("model %s panicked: %v", modelID, r)
		}
	}()
	emb, ok := h.(model.Embedder)
	if !ok {
		res.Err = fmt.Errorf("model %s cannot embed text: %w", modelID, model.ErrUnsupported)
		return res
	}
	vectors, err := emb.Embed(ctx, inputs)
	if err != nil {
		res.Err = fmt.Errorf("embed: %w", err)
		return res
	}
	if len(vectors) != len(inputs) {
		res.Err = model.NewError(h.Info().Provider, model.KindParse,
			fmt.Errorf("expected %d vectors, got %d", len(inputs), len(vectors)))
		return res
	}
	res.Value = vectors
	return res
}

func decode[R any](content string, schema map[string]any) (R, error) {
	var out R
	if schema == nil {
		if p, ok := any(&out).(*string); ok {
			*p = content
			return out, nil
		}
	}
	text := extractJSON(content)
	if text == "" {
		return out, fmt.Errorf("no JSON found in reply %q", truncate(content, 200))
	}
	if schema != nil {
		if err := validate(text, schema); err != nil {
			return out, err
		}
	}
	if err := json.Unmarshal([]byte(text), &out); err != nil {
		return out, fmt.Errorf("unmarshal reply: %w", err)
	}
	return out, nil
}

// extractJSON returns the outermost JSON object or array in s, tolerating
// markdown code fences and surrounding prose.
func extractJSON(s string) string {
	s = strings.TrimSpace(s)
	if strings.HasPrefix(s, "```") {
		s = strings.TrimPrefix(s, "```json")
		s = strings.TrimPrefix(s, "```")
		s = strings.TrimSuffix(strings.TrimSpace(s), "```")
		s = strings.TrimSpace(s)
	}
	if json.Valid([]byte(s)) {
		return s
	}
	start := strings.IndexAny(s, "{[")
	if start < 0 {
		return ""
	}
	closer := byte('}')
	if s[start] == '[' {
		closer = ']'
	}
	end := strings.LastIndexByte(s, closer)
	if end <= start {
		return ""
	}
	candidate := s[start : end+1]
	if !json.Valid([]byte(candidate)) {
		return ""
	}
	return candidate
}

var schemaCache sync.Map

func compileSchema(schema map[string]any) (*jsonschema.Schema, error) {
	raw, err := json.Marshal(schema)
	if err != nil {
		return nil, fmt.Errorf("marshal schema: %w", err)
	}
	key := string(raw)
	if cached, ok := schemaCache.Load(key); ok {
		return cached.(*jsonschema.Schema), nil
	}
	doc, err := jsonschema.UnmarshalJSON(strings.NewReader(key))
	if err != nil {
		return nil, fmt.Errorf("parse schema: %w", err)
	}
	c := jsonschema.NewCompiler()
	if err := c.AddResource("schema.json", doc); err != nil {
		return nil, fmt.Errorf("add schema: %w", err)
	}
	compiled, err := c.Compile("schema.json")
	if err != nil {
		return nil, fmt.Errorf("compile schema: %w", err)
	}
	schemaCache.Store(key, compiled)
	return compiled, nil
}

func validate(text string, schema map[string]any) error {
	compiled, err := compileSchema(schema)
	if err != nil {
		return err
	}
	inst, err := jsonschema.UnmarshalJSON(strings.NewReader(text))
	if err != nil {
		return fmt.Errorf("parse reply: %w", err)
	}
	if err := compiled.Validate(inst); err != nil {
		return fmt.Errorf("reply does not match schema: %w", err)
	}
	return nil
}

// truncate shortens s to at most n bytes without splitting a rune.
func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	for n > 0 && !utf8.RuneStart(s[n]) {
		n--
	}
	return s[:n] + "..."
}
