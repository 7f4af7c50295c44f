//
// Tencent is pleased to support the open source community by making trpc-eval-go available.
//
// Copyright (C) 2025 Tencent.  All rights reserved.
//
// trpc-eval-go is licensed under the Apache License Version 2.0.
//
//

// Package extremum aggregates scores by their minimum or maximum.
package extremum

import (
	"context"

	"trpc.group/trpc-go/trpc-eval-go/evaluation/aggregator"
)

type extremumAggregator struct {
	strategy aggregator.Strategy
}

// NewMin returns an aggregator yielding the lowest score.
func NewMin() aggregator.Aggregator {
	return &extremumAggregator{strategy: aggregator.StrategyMin}
}

// NewMax returns an aggregator yielding the highest score.
func NewMax() aggregator.Aggregator {
	return &extremumAggregator{strategy: aggregator.StrategyMax}
}

// Strategy implements aggregator.Aggregator.
func (a *extremumAggregator) Strategy() aggregator.Strategy {
	return a.strategy
}

// Aggregate returns the extremal score and the model that produced it.
// On equal scores the model configured first wins.
func (a *extremumAggregator) Aggregate(_ context.Context, scores []aggregator.ModelScore) *aggregator.Result {
	if len(scores) == 0 {
		return aggregator.Empty(a.strategy)
	}
	best := scores[0]
	for _, s := range scores[1:] {
		if (a.strategy == aggregator.StrategyMin && s.Score < best.Score) ||
			(a.strategy == aggregator.StrategyMax && s.Score > best.Score) {
			best = s
		}
	}
	return &aggregator.Result{
		Strategy: a.strategy,
		Score:    aggregator.Float64Ptr(best.Score),
		Details:  map[string]any{"model_id": best.ModelID},
	}
}
