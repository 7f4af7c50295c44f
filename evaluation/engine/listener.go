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
	"time"
)

// EvaluationStart describes a run about to execute.
type EvaluationStart struct {
	RunID      string
	MetricName string
	SampleID   string
	ModelIDs   []string
	StepNames  []string
	StartedAt  time.Time
}

// StepStart describes a step about to execute.
type StepStart struct {
	RunID        string
	MetricName   string
	StepName     string
	StepIndex    int
	Kind         StepKind
	ActiveModels []string
}

// Listener observes the lifecycle of evaluation runs.
//
// For one run the calls are ordered as
// BeforeEvaluation, then per step BeforeStep, AfterStep, AfterLLMStep for
// LLM steps and OnModelExcluded for each model that failed, and finally
// AfterEvaluation. Returned errors and panics are logged and otherwise
// ignored: a listener can never change the outcome of a run.
type Listener interface {
	BeforeEvaluation(ctx context.Context, start *EvaluationStart) error
	AfterEvaluation(ctx context.Context, result *EvaluationResult) error
	BeforeStep(ctx context.Context, start *StepStart) error
	AfterStep(ctx context.Context, result *StepResult) error
	AfterLLMStep(ctx context.Context, result *StepResult) error
	OnModelExcluded(ctx context.Context, event *ExclusionEvent) error
	// ForEvaluation returns the instance that observes one run. Stateless
	// listeners return themselves; stateful ones return a fresh instance.
	ForEvaluation() Listener
}

// NopListener implements every callback as a no-op. Embed it and override
// what you need; the embedding type still provides ForEvaluation.
type NopListener struct{}

// BeforeEvaluation implements Listener.
func (NopListener) BeforeEvaluation(context.Context, *EvaluationStart) error { return nil }

// AfterEvaluation implements Listener.
func (NopListener) AfterEvaluation(context.Context, *EvaluationResult) error { return nil }

// BeforeStep implements Listener.
func (NopListener) BeforeStep(context.Context, *StepStart) error { return nil }

// AfterStep implements Listener.
func (NopListener) AfterStep(context.Context, *StepResult) error { return nil }

// AfterLLMStep implements Listener.
func (NopListener) AfterLLMStep(context.Context, *StepResult) error { return nil }

// OnModelExcluded implements Listener.
func (NopListener) OnModelExcluded(context.Context, *ExclusionEvent) error { return nil }
