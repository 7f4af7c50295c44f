//
// Tencent is pleased to support the open source community by making trpc-eval-go available.
//
// Copyright (C) 2025 Tencent.  All rights reserved.
//
// trpc-eval-go is licensed under the Apache License Version 2.0.
//
//

package average

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"trpc.group/trpc-go/trpc-eval-go/evaluation/aggregator"
)

func TestAggregate(t *testing.T) {
	agg := New()
	assert.Equal(t, aggregator.StrategyAverage, agg.Strategy())

	r := agg.Aggregate(context.Background(), aggregator.FromMap(map[string]float64{"a": 1, "b": 0.5, "c": 0}))
	require.NotNil(t, r.Score)
	assert.InDelta(t, 0.5, *r.Score, 1e-12)
}

func TestAggregateEmptyIsNil(t *testing.T) {
	assert.Nil(t, New().Aggregate(context.Background(), nil).Score)
	assert.Nil(t, New().Aggregate(context.Background(), aggregator.FromMap(map[string]float64{})).Score)
}
