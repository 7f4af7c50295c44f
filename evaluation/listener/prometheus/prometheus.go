//
// Tencent is pleased to support the open source community by making trpc-eval-go available.
//
// Copyright (C) 2025 Tencent.  All rights reserved.
//
// trpc-eval-go is licensed under the Apache License Version 2.0.
//
//

// Package prometheus provides a listener that exports evaluation progress as
// Prometheus metrics.
package prometheus

import (
	"context"
	"strconv"

	prom "github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"trpc.group/trpc-go/trpc-eval-go/evaluation/engine"
)

// DefaultNamespace prefixes every metric name.
const DefaultNamespace = "trpc_eval"

// Outcome label values.
const (
	OutcomeSuccess = "success"
	OutcomeFailure = "failure"
)

var _ engine.Listener = (*Listener)(nil)

// Listener records evaluation events into Prometheus collectors. Collectors
// are safe for concurrent use, so one instance serves every run.
type Listener struct {
	runsStarted  *prom.CounterVec
	steps        *prom.CounterVec
	outcomes     *prom.CounterVec
	exclusions   *prom.CounterVec
	duration     *prom.HistogramVec
	score        *prom.GaugeVec
	activeModels *prom.GaugeVec
}

type options struct {
	registerer prom.Registerer
	namespace  string
	buckets    []float64
}

// Option configures the listener.
type Option func(*options)

// WithRegisterer sets where collectors are registered. The default is
// prometheus.DefaultRegisterer.
func WithRegisterer(r prom.Registerer) Option {
	return func(o *options) {
		o.registerer = r
	}
}

// WithNamespace overrides DefaultNamespace.
func WithNamespace(ns string) Option {
	return func(o *options) {
		o.namespace = ns
	}
}

// WithDurationBuckets sets the buckets of the evaluation duration histogram, in seconds.
func WithDurationBuckets(buckets []float64) Option {
	return func(o *options) {
		o.buckets = buckets
	}
}

// New creates the listener and registers its collectors. It panics if a
// collector with the same name is already registered, like promauto does.
func New(opts ...Option) *Listener {
	o := &options{
		registerer: prom.DefaultRegisterer,
		namespace:  DefaultNamespace,
		buckets:    []float64{0.1, 0.5, 1, 2.5, 5, 10, 30, 60, 120},
	}
	for _, opt := range opts {
		opt(o)
	}
	f := promauto.With(o.registerer)
	return &Listener{
		runsStarted: f.NewCounterVec(prom.CounterOpts{
			Namespace: o.namespace,
			Name:      "evaluations_started_total",
			Help:      "Evaluation runs started, by metric.",
		}, []string{"metric"}),
		steps: f.NewCounterVec(prom.CounterOpts{
			Namespace: o.namespace,
			Name:      "steps_total",
			Help:      "Steps completed, by step and kind.",
		}, []string{"step", "kind"}),
		outcomes: f.NewCounterVec(prom.CounterOpts{
			Namespace: o.namespace,
			Name:      "model_outcomes_total",
			Help:      "Per-model step outcomes, by model and outcome.",
		}, []string{"model", "kind", "outcome"}),
		exclusions: f.NewCounterVec(prom.CounterOpts{
			Namespace: o.namespace,
			Name:      "model_exclusions_total",
			Help:      "Models excluded from a run, by model, step and error kind.",
		}, []string{"model", "step", "error_kind"}),
		duration: f.NewHistogramVec(prom.HistogramOpts{
			Namespace: o.namespace,
			Name:      "evaluation_duration_seconds",
			Help:      "Wall-clock duration of evaluation runs.",
			Buckets:   o.buckets,
		}, []string{"metric", "canceled"}),
		score: f.NewGaugeVec(prom.GaugeOpts{
			Namespace: o.namespace,
			Name:      "last_score",
			Help:      "Aggregated score of the most recent run of a metric.",
		}, []string{"metric"}),
		activeModels: f.NewGaugeVec(prom.GaugeOpts{
			Namespace: o.namespace,
			Name:      "active_models",
			Help:      "Models active when the most recent step of a metric started.",
		}, []string{"metric"}),
	}
}

// BeforeEvaluation implements engine.Listener.
func (l *Listener) BeforeEvaluation(_ context.Context, s *engine.EvaluationStart) error {
	l.runsStarted.WithLabelValues(s.MetricName).Inc()
	return nil
}

// AfterEvaluation implements engine.Listener.
func (l *Listener) AfterEvaluation(_ context.Context, r *engine.EvaluationResult) error {
	l.duration.WithLabelValues(r.MetricName, strconv.FormatBool(r.Canceled)).Observe(r.Duration.Seconds())
	if r.Score != nil {
		l.score.WithLabelValues(r.MetricName).Set(*r.Score)
	}
	return nil
}

// BeforeStep implements engine.Listener.
func (l *Listener) BeforeStep(_ context.Context, s *engine.StepStart) error {
	l.activeModels.WithLabelValues(s.MetricName).Set(float64(len(s.ActiveModels)))
	return nil
}

// AfterStep implements engine.Listener.
func (l *Listener) AfterStep(_ context.Context, r *engine.StepResult) error {
	kind := string(r.Kind)
	l.steps.WithLabelValues(r.Name, kind).Inc()
	for _, o := range r.Outcomes {
		outcome := OutcomeSuccess
		if !o.Succeeded() {
			outcome = OutcomeFailure
		}
		l.outcomes.WithLabelValues(o.ModelID, kind, outcome).Inc()
	}
	return nil
}

// AfterLLMStep implements engine.Listener.
func (l *Listener) AfterLLMStep(context.Context, *engine.StepResult) error {
	return nil
}

// OnModelExcluded implements engine.Listener.
func (l *Listener) OnModelExcluded(_ context.Context, ev *engine.ExclusionEvent) error {
	l.exclusions.WithLabelValues(ev.ModelID, ev.StepName, string(ev.Kind)).Inc()
	return nil
}

// ForEvaluation implements engine.Listener.
func (l *Listener) ForEvaluation() engine.Listener {
	return l
}
