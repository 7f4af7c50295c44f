//
// Tencent is pleased to support the open source community by making trpc-eval-go available.
//
// Copyright (C) 2025 Tencent.  All rights reserved.
//
// trpc-eval-go is licensed under the Apache License Version 2.0.
//
//

// Package metric names the built-in metrics and looks them up by name.
//
// Metrics are generic over their per-model state, so the registry stores
// them behind the type-erased Evaluator interface.
package metric

import (
	"context"

	"trpc.group/trpc-go/trpc-eval-go/evaluation/engine"
	"trpc.group/trpc-go/trpc-eval-go/sample"
)

// Evaluator runs one metric on one sample.
type Evaluator interface {
	// Name returns the metric name.
	Name() string
	// Evaluate runs the metric through e. See engine.Evaluate.
	Evaluate(ctx context.Context, e *engine.Engine, s *sample.Sample, modelIDs []string,
		opts ...engine.RunOption) (*engine.EvaluationResult, error)
}

// Of adapts a typed metric to Evaluator.
func Of[S any](m *engine.Metric[S]) Evaluator {
	return &typed[S]{metric: m}
}

type typed[S any] struct {
	metric *engine.Metric[S]
}

func (t *typed[S]) Name() string {
	return t.metric.Name
}

func (t *typed[S]) Evaluate(ctx context.Context, e *engine.Engine, s *sample.Sample, modelIDs []string,
	opts ...engine.RunOption) (*engine.EvaluationResult, error) {
	return engine.Evaluate(ctx, e, t.metric, s, modelIDs, opts...)
}
