//
// Tencent is pleased to support the open source community by making trpc-eval-go available.
//
// Copyright (C) 2025 Tencent.  All rights reserved.
//
// trpc-eval-go is licensed under the Apache License Version 2.0.
//
//

// Package majorityvote aggregates scores into the share of models voting pass.
package majorityvote

import (
	"context"

	"trpc.group/trpc-go/trpc-eval-go/evaluation/aggregator"
)

// DefaultThreshold is the score at or above which a model votes pass.
const DefaultThreshold = 0.5

// Verdicts reported in the result details.
const (
	VerdictPass = "pass"
	VerdictFail = "fail"
)

// DefaultTieVerdict is the verdict of a run with as many pass as fail votes.
const DefaultTieVerdict = VerdictFail

type majorityVoteAggregator struct {
	threshold  float64
	tieVerdict string
}

// Option configures the aggregator.
type Option func(*majorityVoteAggregator)

// WithTieVerdict sets the verdict reported on a tie. Values other than
// VerdictPass and VerdictFail are ignored.
func WithTieVerdict(verdict string) Option {
	return func(a *majorityVoteAggregator) {
		if verdict == VerdictPass || verdict == VerdictFail {
			a.tieVerdict = verdict
		}
	}
}

// New returns a majority voting aggregator. A model votes pass when its
// score is greater than or equal to threshold.
func New(threshold float64, opts ...Option) aggregator.Aggregator {
	a := &majorityVoteAggregator{threshold: threshold, tieVerdict: DefaultTieVerdict}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Strategy implements aggregator.Aggregator.
func (a *majorityVoteAggregator) Strategy() aggregator.Strategy {
	return aggregator.StrategyMajorityVoting
}

// Aggregate returns the fraction of models voting pass. The verdict follows
// the majority, and a tie takes the configured tie verdict.
func (a *majorityVoteAggregator) Aggregate(_ context.Context, scores []aggregator.ModelScore) *aggregator.Result {
	if len(scores) == 0 {
		return aggregator.Empty(aggregator.StrategyMajorityVoting)
	}
	var pass []string
	var fail []string
	for _, s := range scores {
		if s.Score >= a.threshold {
			pass = append(pass, s.ModelID)
		} else {
			fail = append(fail, s.ModelID)
		}
	}
	verdict := VerdictFail
	switch {
	case len(pass) > len(fail):
		verdict = VerdictPass
	case len(pass) == len(fail):
		verdict = a.tieVerdict
	}
	share := float64(len(pass)) / float64(len(scores))
	return &aggregator.Result{
		Strategy: aggregator.StrategyMajorityVoting,
		Score:    aggregator.Float64Ptr(share),
		Details: map[string]any{
			"threshold":   a.threshold,
			"tie_verdict": a.tieVerdict,
			"verdict":     verdict,
			"pass":        pass,
			"fail":        fail,
		},
	}
}
