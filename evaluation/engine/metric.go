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
	"errors"
	"fmt"
	"math"

	"trpc.group/trpc-go/trpc-eval-go/sample"
)

// ScoreStepName is the name of the trailing step that computes each model's
// final score. Metric steps may not use it.
const ScoreStepName = "score"

// Metric is a declared sequence of steps plus a per-model scoring rule.
// S is the per-model intermediate state threaded through the steps.
type Metric[S any] struct {
	// Name identifies the metric in results and telemetry.
	Name string
	// NewState seeds the state of one model. The zero S is used when nil.
	NewState func(modelID string, s *sample.Sample) S
	// Steps run in order against the models still active.
	Steps []Step[S]
	// Score computes the final score of one model after every step.
	Score func(modelID string, state *S) (float64, error)
	// Metadata is copied into every result of the metric.
	Metadata map[string]any
}

// Validate checks the metric declaration.
func (m *Metric[S]) Validate() error {
	if m == nil {
		return errors.New("metric is nil")
	}
	if m.Name == "" {
		return errors.New("metric name is empty")
	}
	if m.Score == nil {
		return fmt.Errorf("metric %s: score function is nil", m.Name)
	}
	seen := make(map[string]struct{}, len(m.Steps))
	for i, step := range m.Steps {
		if step == nil {
			return fmt.Errorf("metric %s: step %d is nil", m.Name, i)
		}
		name := step.Name()
		if name == "" {
			return fmt.Errorf("metric %s: step %d has an empty name", m.Name, i)
		}
		if name == ScoreStepName {
			return fmt.Errorf("metric %s: step name %q is reserved", m.Name, ScoreStepName)
		}
		if _, ok := seen[name]; ok {
			return fmt.Errorf("metric %s: duplicate step name %q", m.Name, name)
		}
		seen[name] = struct{}{}
	}
	return nil
}

func (m *Metric[S]) plan() []Step[S] {
	steps := make([]Step[S], 0, len(m.Steps)+1)
	steps = append(steps, m.Steps...)
	return append(steps, ComputeStep(ScoreStepName, func(modelID string, state *S) (float64, error) {
		score, err := m.Score(modelID, state)
		if err != nil {
			return 0, err
		}
		if math.IsNaN(score) || math.IsInf(score, 0) {
			return 0, fmt.Errorf("score %v is not finite", score)
		}
		return score, nil
	}))
}

func (m *Metric[S]) newState(modelID string, s *sample.Sample) *S {
	var st S
	if m.NewState != nil {
		st = m.NewState(modelID, s)
	}
	return &st
}
