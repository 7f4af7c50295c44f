//
// Tencent is pleased to support the open source community by making trpc-eval-go available.
//
// Copyright (C) 2025 Tencent.  All rights reserved.
//
// trpc-eval-go is licensed under the Apache License Version 2.0.
//
//

// Package median aggregates scores by their median.
package median

import (
	"context"
	"sort"

	"trpc.group/trpc-go/trpc-eval-go/evaluation/aggregator"
)

type medianAggregator struct{}

// New returns the median aggregator.
func New() aggregator.Aggregator {
	return &medianAggregator{}
}

// Strategy implements aggregator.Aggregator.
func (a *medianAggregator) Strategy() aggregator.Strategy {
	return aggregator.StrategyMedian
}

// Aggregate returns the middle score, or the mean of the two middle scores
// when the count is even.
func (a *medianAggregator) Aggregate(_ context.Context, scores []aggregator.ModelScore) *aggregator.Result {
	if len(scores) == 0 {
		return aggregator.Empty(aggregator.StrategyMedian)
	}
	values := aggregator.Values(scores)
	sort.Float64s(values)
	mid := len(values) / 2
	m := values[mid]
	if len(values)%2 == 0 {
		m = (values[mid-1] + values[mid]) / 2
	}
	return &aggregator.Result{Strategy: aggregator.StrategyMedian, Score: aggregator.Float64Ptr(m)}
}
