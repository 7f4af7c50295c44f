//
// Tencent is pleased to support the open source community by making trpc-eval-go available.
//
// Copyright (C) 2025 Tencent.  All rights reserved.
//
// trpc-eval-go is licensed under the Apache License Version 2.0.
//
//

// Package consensus averages scores only when every model agrees within a
// tolerance.
package consensus

import (
	"context"

	"trpc.group/trpc-go/trpc-eval-go/evaluation/aggregator"
)

// DefaultTolerance is the largest allowed spread between any two scores.
const DefaultTolerance = 0.1

// floating point slack when comparing the spread against the tolerance.
const epsilon = 1e-9

type consensusAggregator struct {
	tolerance float64
}

// New returns a consensus aggregator with the given tolerance.
func New(tolerance float64) aggregator.Aggregator {
	return &consensusAggregator{tolerance: tolerance}
}

// Strategy implements aggregator.Aggregator.
func (a *consensusAggregator) Strategy() aggregator.Strategy {
	return aggregator.StrategyConsensus
}

// Aggregate returns the mean score when the largest pairwise difference is
// within tolerance. Otherwise the score is nil and the details describe the
// disagreement.
func (a *consensusAggregator) Aggregate(_ context.Context, scores []aggregator.ModelScore) *aggregator.Result {
	if len(scores) == 0 {
		return aggregator.Empty(aggregator.StrategyConsensus)
	}
	lo, hi := scores[0], scores[0]
	for _, s := range scores[1:] {
		if s.Score < lo.Score {
			lo = s
		}
		if s.Score > hi.Score {
			hi = s
		}
	}
	spread := hi.Score - lo.Score
	details := map[string]any{
		"tolerance": a.tolerance,
		"spread":    spread,
	}
	if spread > a.tolerance+epsilon {
		details["disagreement"] = true
		details["min_model"] = lo.ModelID
		details["min_score"] = lo.Score
		details["max_model"] = hi.ModelID
		details["max_score"] = hi.Score
		return &aggregator.Result{Strategy: aggregator.StrategyConsensus, Details: details}
	}
	details["disagreement"] = false
	return &aggregator.Result{
		Strategy: aggregator.StrategyConsensus,
		Score:    aggregator.Float64Ptr(aggregator.Mean(aggregator.Values(scores))),
		Details:  details,
	}
}
