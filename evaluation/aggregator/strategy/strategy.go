//
// Tencent is pleased to support the open source community by making trpc-eval-go available.
//
// Copyright (C) 2025 Tencent.  All rights reserved.
//
// trpc-eval-go is licensed under the Apache License Version 2.0.
//
//

// Package strategy builds a built-in aggregator from its strategy name.
package strategy

import (
	"fmt"
	"strings"

	"trpc.group/trpc-go/trpc-eval-go/evaluation/aggregator"
	"trpc.group/trpc-go/trpc-eval-go/evaluation/aggregator/average"
	"trpc.group/trpc-go/trpc-eval-go/evaluation/aggregator/consensus"
	"trpc.group/trpc-go/trpc-eval-go/evaluation/aggregator/extremum"
	"trpc.group/trpc-go/trpc-eval-go/evaluation/aggregator/majorityvote"
	"trpc.group/trpc-go/trpc-eval-go/evaluation/aggregator/median"
)

// Params holds the parameters of the configurable strategies.
type Params struct {
	// Threshold is the pass threshold of majority voting.
	Threshold float64
	// Tolerance is the allowed spread of consensus.
	Tolerance float64
	// TieVerdict is the majority voting verdict on a tie, "pass" or "fail".
	// Empty means majorityvote.DefaultTieVerdict.
	TieVerdict string
}

// DefaultParams returns the documented defaults.
func DefaultParams() Params {
	return Params{
		Threshold:  majorityvote.DefaultThreshold,
		Tolerance:  consensus.DefaultTolerance,
		TieVerdict: majorityvote.DefaultTieVerdict,
	}
}

// New returns the aggregator for name. Names are case-insensitive.
func New(name aggregator.Strategy, p Params) (aggregator.Aggregator, error) {
	switch aggregator.Strategy(strings.ToLower(string(name))) {
	case aggregator.StrategyAverage, "":
		return average.New(), nil
	case aggregator.StrategyMedian:
		return median.New(), nil
	case aggregator.StrategyMin:
		return extremum.NewMin(), nil
	case aggregator.StrategyMax:
		return extremum.NewMax(), nil
	case aggregator.StrategyMajorityVoting:
		if p.Threshold < 0 || p.Threshold > 1 {
			return nil, fmt.Errorf("majority voting threshold %v out of range [0, 1]", p.Threshold)
		}
		switch p.TieVerdict {
		case "", majorityvote.VerdictPass, majorityvote.VerdictFail:
		default:
			return nil, fmt.Errorf("majority voting tie verdict %q must be %q or %q",
				p.TieVerdict, majorityvote.VerdictPass, majorityvote.VerdictFail)
		}
		return majorityvote.New(p.Threshold, majorityvote.WithTieVerdict(p.TieVerdict)), nil
	case aggregator.StrategyConsensus:
		if p.Tolerance < 0 {
			return nil, fmt.Errorf("consensus tolerance %v is negative", p.Tolerance)
		}
		return consensus.New(p.Tolerance), nil
	default:
		return nil, fmt.Errorf("unknown aggregation strategy: %s", name)
	}
}
