//
// Tencent is pleased to support the open source community by making trpc-eval-go available.
//
// Copyright (C) 2025 Tencent.  All rights reserved.
//
// trpc-eval-go is licensed under the Apache License Version 2.0.
//
//

package strategy

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"trpc.group/trpc-go/trpc-eval-go/evaluation/aggregator"
)

func TestNew(t *testing.T) {
	for _, s := range []aggregator.Strategy{
		aggregator.StrategyAverage, aggregator.StrategyMedian, aggregator.StrategyMin,
		aggregator.StrategyMax, aggregator.StrategyMajorityVoting, aggregator.StrategyConsensus,
	} {
		agg, err := New(s, DefaultParams())
		require.NoError(t, err, s)
		assert.Equal(t, s, agg.Strategy())
	}

	agg, err := New("MEDIAN", DefaultParams())
	require.NoError(t, err)
	assert.Equal(t, aggregator.StrategyMedian, agg.Strategy())

	agg, err = New("", DefaultParams())
	require.NoError(t, err)
	assert.Equal(t, aggregator.StrategyAverage, agg.Strategy())
}

func TestNewRejectsInvalid(t *testing.T) {
	_, err := New("mode", DefaultParams())
	assert.Error(t, err)
	_, err = New(aggregator.StrategyMajorityVoting, Params{Threshold: 1.5})
	assert.Error(t, err)
	_, err = New(aggregator.StrategyConsensus, Params{Tolerance: -1})
	assert.Error(t, err)
	_, err = New(aggregator.StrategyMajorityVoting, Params{Threshold: 0.5, TieVerdict: "abstain"})
	assert.Error(t, err)
}

func TestMajorityVotingTieVerdict(t *testing.T) {
	scores := []aggregator.ModelScore{{ModelID: "a", Score: 0.9}, {ModelID: "b", Score: 0.1}}

	agg, err := New(aggregator.StrategyMajorityVoting, DefaultParams())
	require.NoError(t, err)
	assert.Equal(t, "fail", agg.Aggregate(context.Background(), scores).Details["verdict"])

	p := DefaultParams()
	p.TieVerdict = "pass"
	agg, err = New(aggregator.StrategyMajorityVoting, p)
	require.NoError(t, err)
	assert.Equal(t, "pass", agg.Aggregate(context.Background(), scores).Details["verdict"])
}

func TestEveryStrategyReturnsNilOnEmpty(t *testing.T) {
	for _, s := range []aggregator.Strategy{
		aggregator.StrategyAverage, aggregator.StrategyMedian, aggregator.StrategyMin,
		aggregator.StrategyMax, aggregator.StrategyMajorityVoting, aggregator.StrategyConsensus,
	} {
		agg, err := New(s, DefaultParams())
		require.NoError(t, err)
		assert.Nil(t, agg.Aggregate(context.Background(), nil).Score, s)
	}
}
