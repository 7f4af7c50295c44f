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
	"time"

	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"

	"trpc.group/trpc-go/trpc-eval-go/evaluation/aggregator"
	"trpc.group/trpc-go/trpc-eval-go/evaluation/aggregator/average"
	imetric "trpc.group/trpc-go/trpc-eval-go/telemetry/metric"
	itrace "trpc.group/trpc-go/trpc-eval-go/telemetry/trace"
)

// DefaultPoolSize is the default number of concurrent model invocations per engine.
const DefaultPoolSize = 64

// Option configures an Engine.
type Option func(*options)

type options struct {
	poolSize          int
	listeners         []Listener
	aggregator        aggregator.Aggregator
	invocationTimeout time.Duration
	tracer            trace.Tracer
	meter             metric.Meter
}

func newOptions(opts ...Option) *options {
	o := &options{
		poolSize:   DefaultPoolSize,
		aggregator: average.New(),
		tracer:     itrace.Tracer,
		meter:      imetric.Meter,
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// WithPoolSize sets how many model invocations the engine runs at once,
// across all concurrent evaluation runs.
func WithPoolSize(size int) Option {
	return func(o *options) {
		o.poolSize = size
	}
}

// WithListeners registers listeners notified for every run.
func WithListeners(listeners ...Listener) Option {
	return func(o *options) {
		o.listeners = append(o.listeners, listeners...)
	}
}

// WithAggregator sets the default aggregation strategy. Average is used otherwise.
func WithAggregator(a aggregator.Aggregator) Option {
	return func(o *options) {
		if a != nil {
			o.aggregator = a
		}
	}
}

// WithInvocationTimeout bounds every single model invocation. A model that
// exceeds it fails with a timeout and is excluded; the run goes on.
func WithInvocationTimeout(d time.Duration) Option {
	return func(o *options) {
		o.invocationTimeout = d
	}
}

// WithTracer sets the tracer for evaluation, step and invocation spans.
func WithTracer(t trace.Tracer) Option {
	return func(o *options) {
		if t != nil {
			o.tracer = t
		}
	}
}

// WithMeter sets the meter for invocation, exclusion and duration instruments.
func WithMeter(m metric.Meter) Option {
	return func(o *options) {
		if m != nil {
			o.meter = m
		}
	}
}

// RunOption configures a single evaluation run.
type RunOption func(*runOptions)

type runOptions struct {
	runID      string
	listeners  []Listener
	aggregator aggregator.Aggregator
}

// WithRunID sets the run id instead of a generated UUID.
func WithRunID(id string) RunOption {
	return func(o *runOptions) {
		o.runID = id
	}
}

// WithRunListeners adds listeners for this run only.
func WithRunListeners(listeners ...Listener) RunOption {
	return func(o *runOptions) {
		o.listeners = append(o.listeners, listeners...)
	}
}

// WithRunAggregator overrides the engine aggregator for this run.
func WithRunAggregator(a aggregator.Aggregator) RunOption {
	return func(o *runOptions) {
		o.aggregator = a
	}
}
