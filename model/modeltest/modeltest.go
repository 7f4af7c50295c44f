//
// Tencent is pleased to support the open source community by making trpc-eval-go available.
//
// Copyright (C) 2025 Tencent.  All rights reserved.
//
// trpc-eval-go is licensed under the Apache License Version 2.0.
//
//

// Package modeltest provides a scriptable fake model handle for tests.
package modeltest

import (
	"context"
	"fmt"
	"sync"
	"time"

	"trpc.group/trpc-go/trpc-eval-go/model"
)

// ProviderName is the provider name reported by fake handles.
const ProviderName = "fake"

var (
	_ model.LLM      = (*Model)(nil)
	_ model.Embedder = (*Model)(nil)
)

// Call records one invocation of a fake handle.
type Call struct {
	Start   time.Time
	End     time.Time
	Request *model.Request
	Inputs  []string
}

// Model is a fake LLM and embedder.
//
// Generate answers in priority order: Errors[i] for the i-th call, then
// GenerateFunc, then Responses cycled by call index, then "{}".
// Embed answers with EmbedFunc, then Vectors cycled per input.
type Model struct {
	Name         string
	Responses    []string
	Errors       []error
	Latency      time.Duration
	GenerateFunc func(ctx context.Context, req *model.Request) (*model.Response, error)
	Vectors      [][]float64
	EmbedFunc    func(ctx context.Context, inputs []string) ([][]float64, error)

	mu    sync.Mutex
	calls []Call
}

// New returns a fake that cycles through responses.
func New(name string, responses ...string) *Model {
	return &Model{Name: name, Responses: responses}
}

// Failing returns a fake whose every call fails with err.
func Failing(name string, err error) *Model {
	return &Model{
		Name: name,
		GenerateFunc: func(context.Context, *model.Request) (*model.Response, error) {
			return nil, err
		},
		EmbedFunc: func(context.Context, []string) ([][]float64, error) {
			return nil, err
		},
	}
}

// Info implements model.Handle.
func (m *Model) Info() model.Info {
	return model.Info{Provider: ProviderName, Name: m.Name}
}

// Generate implements model.LLM.
func (m *Model) Generate(ctx context.Context, req *model.Request) (*model.Response, error) {
	start := time.Now()
	if err := m.sleep(ctx); err != nil {
		m.record(Call{Start: start, End: time.Now(), Request: req})
		return nil, err
	}
	idx := m.record(Call{Start: start, End: time.Now(), Request: req})
	if idx < len(m.Errors) && m.Errors[idx] != nil {
		return nil, m.Errors[idx]
	}
	if m.GenerateFunc != nil {
		return m.GenerateFunc(ctx, req)
	}
	content := "{}"
	if len(m.Responses) > 0 {
		content = m.Responses[idx%len(m.Responses)]
	}
	return &model.Response{Content: content, Model: m.Name, FinishReason: "stop"}, nil
}

// Embed implements model.Embedder.
func (m *Model) Embed(ctx context.Context, inputs []string) ([][]float64, error) {
	start := time.Now()
	if err := m.sleep(ctx); err != nil {
		m.record(Call{Start: start, End: time.Now(), Inputs: inputs})
		return nil, err
	}
	idx := m.record(Call{Start: start, End: time.Now(), Inputs: inputs})
	if idx < len(m.Errors) && m.Errors[idx] != nil {
		return nil, m.Errors[idx]
	}
	if m.EmbedFunc != nil {
		return m.EmbedFunc(ctx, inputs)
	}
	if len(m.Vectors) == 0 {
		return nil, fmt.Errorf("fake model %s has no vectors", m.Name)
	}
	out := make([][]float64, len(inputs))
	for i := range inputs {
		out[i] = m.Vectors[i%len(m.Vectors)]
	}
	return out, nil
}

func (m *Model) sleep(ctx context.Context) error {
	if m.Latency <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(m.Latency)
	defer timer.Stop()
	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (m *Model) record(c Call) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls = append(m.calls, c)
	return len(m.calls) - 1
}

// Calls returns a copy of the recorded calls.
func (m *Model) Calls() []Call {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]Call(nil), m.calls...)
}

// CallCount returns the number of recorded calls.
func (m *Model) CallCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.calls)
}

// LLMOnly hides the Embed method of m.
func LLMOnly(m *Model) model.LLM {
	return llmOnly{m}
}

type llmOnly struct {
	m *Model
}

func (l llmOnly) Info() model.Info {
	return l.m.Info()
}

func (l llmOnly) Generate(ctx context.Context, req *model.Request) (*model.Response, error) {
	return l.m.Generate(ctx, req)
}
