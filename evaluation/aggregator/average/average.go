//
// Tencent is pleased to support the open source community by making trpc-eval-go available.
//
// Copyright (C) 2025 Tencent.  All rights reserved.
//
// trpc-eval-go is licensed under the Apache License Version 2.0.
//
//

// Package average aggregates scores by arithmetic mean.
package average

import (
	"context"

	"trpc.group/trpc-go/trpc-eval-go/evaluation/aggregator"
)

type averageAggregator struct{}

// New returns the average aggregator.
func New() aggregator.Aggregator {
	return &averageAggregator{}
}

// Strategy implements aggregator.Aggregator.
func (a *averageAggregator) Strategy() aggregator.Strategy {
	return aggregator.StrategyAverage
}

// Aggregate returns the arithmetic mean of the scores.
func (a *averageAggregator) Aggregate(_ context.Context, scores []aggregator.ModelScore) *aggregator.Result {
	if len(scores) == 0 {
		return aggregator.Empty(aggregator.StrategyAverage)
	}
	return &aggregator.Result{
		Strategy: aggregator.StrategyAverage,
		Score:    aggregator.Float64Ptr(aggregator.Mean(aggregator.Values(scores))),
	}
}
