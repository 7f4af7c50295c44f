//
// Tencent is pleased to support the open source community by making trpc-eval-go available.
//
// Copyright (C) 2025 Tencent.  All rights reserved.
//
// trpc-eval-go is licensed under the Apache License Version 2.0.
//
//

// Package logging provides a listener that writes evaluation events to a logger.
package logging

import (
	"context"
	"strconv"
	"strings"

	"trpc.group/trpc-go/trpc-eval-go/evaluation/engine"
	"trpc.group/trpc-go/trpc-eval-go/log"
)

var _ engine.Listener = (*Listener)(nil)

// Listener logs evaluation events. It keeps no state, so one instance is
// shared by every run.
type Listener struct {
	logger log.Logger
}

// Option configures the listener.
type Option func(*Listener)

// WithLogger sets the logger. log.Default is used otherwise.
func WithLogger(l log.Logger) Option {
	return func(ln *Listener) {
		ln.logger = l
	}
}

// New creates a logging listener.
func New(opts ...Option) *Listener {
	l := &Listener{logger: log.Default}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// BeforeEvaluation implements engine.Listener.
func (l *Listener) BeforeEvaluation(_ context.Context, s *engine.EvaluationStart) error {
	l.logger.Infof("[%s] evaluation of %s started: sample=%q models=[%s] steps=[%s]",
		s.RunID, s.MetricName, s.SampleID, strings.Join(s.ModelIDs, ", "), strings.Join(s.StepNames, ", "))
	return nil
}

// AfterEvaluation implements engine.Listener.
func (l *Listener) AfterEvaluation(_ context.Context, r *engine.EvaluationResult) error {
	score := "none"
	if r.Score != nil {
		score = strconv.FormatFloat(*r.Score, 'f', 4, 64)
	}
	if r.Canceled {
		l.logger.Warnf("[%s] evaluation of %s canceled after %d steps in %s",
			r.RunID, r.MetricName, len(r.Steps), r.Duration)
		return nil
	}
	l.logger.Infof("[%s] evaluation of %s finished in %s: score=%s scored=%d excluded=%d",
		r.RunID, r.MetricName, r.Duration, score, len(r.ModelScores), len(r.Exclusions))
	return nil
}

// BeforeStep implements engine.Listener.
func (l *Listener) BeforeStep(_ context.Context, s *engine.StepStart) error {
	l.logger.Debugf("[%s] step %s(%d) %s started with [%s]",
		s.RunID, s.StepName, s.StepIndex, s.Kind, strings.Join(s.ActiveModels, ", "))
	return nil
}

// AfterStep implements engine.Listener.
func (l *Listener) AfterStep(_ context.Context, r *engine.StepResult) error {
	l.logger.Debugf("[%s] step %s(%d) finished in %s: %d succeeded, %d failed",
		r.RunID, r.Name, r.Index, r.Duration, r.Successes, r.Failures)
	return nil
}

// AfterLLMStep implements engine.Listener.
func (l *Listener) AfterLLMStep(_ context.Context, r *engine.StepResult) error {
	for _, o := range r.Outcomes {
		if o.Succeeded() {
			l.logger.Debugf("[%s] %s answered %s in %s", r.RunID, o.ModelID, r.Name, o.Duration)
		}
	}
	return nil
}

// OnModelExcluded implements engine.Listener.
func (l *Listener) OnModelExcluded(_ context.Context, ev *engine.ExclusionEvent) error {
	l.logger.Warnf("[%s] model %s excluded at step %s(%d), kind=%s: %s",
		ev.RunID, ev.ModelID, ev.StepName, ev.StepIndex, ev.Kind, ev.Error)
	return nil
}

// ForEvaluation implements engine.Listener.
func (l *Listener) ForEvaluation() engine.Listener {
	return l
}
