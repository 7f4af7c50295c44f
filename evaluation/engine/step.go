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
	"fmt"
	"time"

	"trpc.group/trpc-go/trpc-eval-go/model"
)

// Step is one named phase of a metric over the per-model state S.
// Steps are built with LLMStep, EmbeddingStep and ComputeStep.
type Step[S any] interface {
	// Name returns the step name, unique within a metric.
	Name() string
	// Kind returns the kind of call the step makes.
	Kind() StepKind
	// execute runs the step for one model. It only touches state, which
	// belongs to that model alone.
	execute(ctx context.Context, modelID string, h model.Handle, state *S) *ModelOutcome
}

// LLMStep declares a step that prompts every active model.
//
// build derives the call for one model from that model's state. Returning a
// nil call skips the model at this step: it succeeds with a Skipped value
// and no model call.
// apply stores the decoded reply into the state for later steps.
func LLMStep[S, R any](
	name string,
	build func(modelID string, state *S) (*LLMCall, error),
	apply func(state *S, out R) error,
) Step[S] {
	return &llmStep[S, R]{name: name, build: build, apply: apply}
}

type llmStep[S, R any] struct {
	name  string
	build func(modelID string, state *S) (*LLMCall, error)
	apply func(state *S, out R) error
}

func (s *llmStep[S, R]) Name() string   { return s.name }
func (s *llmStep[S, R]) Kind() StepKind { return StepKindLLM }

func (s *llmStep[S, R]) execute(ctx context.Context, modelID string, h model.Handle, state *S) *ModelOutcome {
	start := time.Now()
	call, err := s.build(modelID, state)
	if err != nil {
		return failedOutcome(modelID, start, fmt.Errorf("build call: %w", err))
	}
	if call == nil {
		return skippedOutcome(modelID, start, SkipNoCall)
	}
	res := InvokeLLM[R](ctx, modelID, h, call)
	if res.Err == nil && s.apply != nil {
		if err := s.apply(state, res.Value); err != nil {
			res.Err = fmt.Errorf("apply result: %w", err)
		}
	}
	return res.Outcome()
}

// EmbeddingStep declares a step that embeds text with every active model.
// A nil or empty input list skips the model at this step with a Skipped value.
func EmbeddingStep[S any](
	name string,
	build func(modelID string, state *S) ([]string, error),
	apply func(state *S, vectors [][]float64) error,
) Step[S] {
	return &embeddingStep[S]{name: name, build: build, apply: apply}
}

type embeddingStep[S any] struct {
	name  string
	build func(modelID string, state *S) ([]string, error)
	apply func(state *S, vectors [][]float64) error
}

func (s *embeddingStep[S]) Name() string   { return s.name }
func (s *embeddingStep[S]) Kind() StepKind { return StepKindEmbedding }

func (s *embeddingStep[S]) execute(ctx context.Context, modelID string, h model.Handle, state *S) *ModelOutcome {
	start := time.Now()
	inputs, err := s.build(modelID, state)
	if err != nil {
		return failedOutcome(modelID, start, fmt.Errorf("build inputs: %w", err))
	}
	if len(inputs) == 0 {
		return skippedOutcome(modelID, start, SkipNoInputs)
	}
	res := InvokeEmbedding(ctx, modelID, h, inputs)
	if res.Err == nil && s.apply != nil {
		if err := s.apply(state, res.Value); err != nil {
			res.Err = fmt.Errorf("apply result: %w", err)
		}
	}
	return res.Outcome()
}

// ComputeStep declares a local step over already collected state. It makes
// no model call; an error still excludes the model.
func ComputeStep[S, R any](name string, fn func(modelID string, state *S) (R, error)) Step[S] {
	return &computeStep[S, R]{name: name, fn: fn}
}

type computeStep[S, R any] struct {
	name string
	fn   func(modelID string, state *S) (R, error)
}

func (s *computeStep[S, R]) Name() string   { return s.name }
func (s *computeStep[S, R]) Kind() StepKind { return StepKindCompute }

func (s *computeStep[S, R]) execute(_ context.Context, modelID string, _ model.Handle, state *S) *ModelOutcome {
	start := time.Now()
	v, err := s.fn(modelID, state)
	return ModelResult[R]{ModelID: modelID, Value: v, Duration: time.Since(start), Err: err}.Outcome()
}

func failedOutcome(modelID string, start time.Time, err error) *ModelOutcome {
	o := &ModelOutcome{ModelID: modelID, Duration: time.Since(start)}
	o.setError(err)
	return o
}
