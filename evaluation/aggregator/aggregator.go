//
// Tencent is pleased to support the open source community by making trpc-eval-go available.
//
// Copyright (C) 2025 Tencent.  All rights reserved.
//
// trpc-eval-go is licensed under the Apache License Version 2.0.
//
//

// Package aggregator defines how per-model final scores are reduced into
// the single score of an evaluation run.
package aggregator

import (
	"context"
	"sort"
)

// Strategy names a built-in aggregation strategy.
type Strategy string

// Built-in strategies.
const (
	StrategyAverage        Strategy = "average"
	StrategyMedian         Strategy = "median"
	StrategyMin            Strategy = "min"
	StrategyMax            Strategy = "max"
	StrategyMajorityVoting Strategy = "majority_voting"
	StrategyConsensus      Strategy = "consensus"
)

// ModelScore is the final score one model produced.
type ModelScore struct {
	ModelID string  `json:"model_id"`
	Score   float64 `json:"score"`
}

// Result is the outcome of an aggregation.
// A nil Score means no aggregate exists: either no model produced a score
// or the strategy refused to combine the scores it was given.
type Result struct {
	Strategy Strategy       `json:"strategy"`
	Score    *float64       `json:"score"`
	Details  map[string]any `json:"details,omitempty"`
}

// Aggregator reduces per-model scores into one score.
// Implementations are pure and safe for concurrent use.
type Aggregator interface {
	// Strategy returns the strategy name.
	Strategy() Strategy
	// Aggregate combines scores given in configured model order.
	// An empty input yields a Result with a nil Score.
	Aggregate(ctx context.Context, scores []ModelScore) *Result
}

// FromMap converts a model id to score map into a slice ordered by model id.
func FromMap(scores map[string]float64) []ModelScore {
	out := make([]ModelScore, 0, len(scores))
	for id, s := range scores {
		out = append(out, ModelScore{ModelID: id, Score: s})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ModelID < out[j].ModelID })
	return out
}

// Values returns the bare scores in input order.
func Values(scores []ModelScore) []float64 {
	out := make([]float64, len(scores))
	for i, s := range scores {
		out[i] = s.Score
	}
	return out
}

// Mean returns the arithmetic mean of values. values must not be empty.
func Mean(values []float64) float64 {
	var sum float64
	for _, v := range values {
		sum += v
	}
	return sum / float64(len(values))
}

// Empty returns the result of aggregating no scores.
func Empty(strategy Strategy) *Result {
	return &Result{Strategy: strategy, Details: map[string]any{"reason": "no model produced a score"}}
}

// Float64Ptr returns a pointer to v.
func Float64Ptr(v float64) *float64 {
	return &v
}
