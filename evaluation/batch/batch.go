//
// Tencent is pleased to support the open source community by making trpc-eval-go available.
//
// Copyright (C) 2025 Tencent.  All rights reserved.
//
// trpc-eval-go is licensed under the Apache License Version 2.0.
//
//

// Package batch evaluates one metric over many samples with bounded
// parallelism. Every sample is an independent engine run, so listeners
// registered on the engine receive a scoped instance per sample.
package batch

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"trpc.group/trpc-go/trpc-eval-go/evaluation/engine"
	"trpc.group/trpc-go/trpc-eval-go/evaluation/metric"
	"trpc.group/trpc-go/trpc-eval-go/log"
	"trpc.group/trpc-go/trpc-eval-go/sample"
)

// DefaultConcurrency is the number of samples evaluated at once.
const DefaultConcurrency = 4

// Item is the outcome of one sample.
type Item struct {
	Index    int                      `json:"index"`
	SampleID string                   `json:"sample_id,omitempty"`
	Result   *engine.EvaluationResult `json:"result,omitempty"`
	Err      error                    `json:"-"`
	Error    string                   `json:"error,omitempty"`
}

// Report summarizes a batch.
type Report struct {
	Metric string  `json:"metric"`
	Items  []*Item `json:"items"`
	// Score is the mean of the sample scores that are not nil.
	Score    *float64      `json:"score"`
	Scored   int           `json:"scored"`
	Unscored int           `json:"unscored"`
	Failed   int           `json:"failed"`
	Duration time.Duration `json:"duration"`
}

type options struct {
	concurrency int
	runOptions  []engine.RunOption
	onItem      func(*Item)
}

// Option configures a batch run.
type Option func(*options)

// WithConcurrency bounds the number of samples evaluated at once.
func WithConcurrency(n int) Option {
	return func(o *options) {
		if n > 0 {
			o.concurrency = n
		}
	}
}

// WithRunOptions applies opts to every run.
func WithRunOptions(opts ...engine.RunOption) Option {
	return func(o *options) {
		o.runOptions = append(o.runOptions, opts...)
	}
}

// WithOnItem calls fn as each sample completes. Calls are serialized but
// arrive in completion order.
func WithOnItem(fn func(*Item)) Option {
	return func(o *options) {
		o.onItem = fn
	}
}

// Run evaluates ev on every sample against modelIDs.
//
// Model ids are resolved once up front. Failures of single samples are kept
// on their Item and do not stop the batch. If ctx is canceled the samples
// not yet finished are reported with the context error and Run returns
// ctx.Err() with the report.
func Run(
	ctx context.Context,
	e *engine.Engine,
	ev metric.Evaluator,
	samples []*sample.Sample,
	modelIDs []string,
	opts ...Option,
) (*Report, error) {
	if e == nil {
		return nil, errors.New("engine is nil")
	}
	if ev == nil {
		return nil, errors.New("evaluator is nil")
	}
	for _, id := range modelIDs {
		if _, err := e.Registry().Resolve(id); err != nil {
			return nil, fmt.Errorf("resolve models: %w", err)
		}
	}
	o := &options{concurrency: DefaultConcurrency}
	for _, opt := range opts {
		opt(o)
	}

	start := time.Now()
	report := &Report{Metric: ev.Name(), Items: make([]*Item, len(samples))}
	var mu sync.Mutex
	var g errgroup.Group
	g.SetLimit(o.concurrency)
	for i, s := range samples {
		item := &Item{Index: i}
		if s != nil {
			item.SampleID = s.ID
		}
		report.Items[i] = item
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				item.setError(err)
			} else {
				item.Result, item.Err = ev.Evaluate(ctx, e, s, modelIDs, o.runOptions...)
				if item.Err != nil {
					item.setError(item.Err)
					log.Warnf("batch %s: sample %d (%s): %v", ev.Name(), i, item.SampleID, item.Err)
				}
			}
			if o.onItem != nil {
				mu.Lock()
				o.onItem(item)
				mu.Unlock()
			}
			return nil
		})
	}
	_ = g.Wait()

	report.summarize()
	report.Duration = time.Since(start)
	return report, ctx.Err()
}

func (it *Item) setError(err error) {
	it.Err = err
	it.Error = err.Error()
}

func (r *Report) summarize() {
	var sum float64
	for _, it := range r.Items {
		switch {
		case it.Err != nil:
			r.Failed++
		case it.Result == nil || it.Result.Score == nil:
			r.Unscored++
		default:
			r.Scored++
			sum += *it.Result.Score
		}
	}
	if r.Scored > 0 {
		mean := sum / float64(r.Scored)
		r.Score = &mean
	}
}
