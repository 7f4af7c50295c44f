//
// Tencent is pleased to support the open source community by making trpc-eval-go available.
//
// Copyright (C) 2025 Tencent.  All rights reserved.
//
// trpc-eval-go is licensed under the Apache License Version 2.0.
//
//

package aggregator

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFromMapOrdersByModelID(t *testing.T) {
	got := FromMap(map[string]float64{"b": 0.2, "a": 0.1})
	assert.Equal(t, []ModelScore{{ModelID: "a", Score: 0.1}, {ModelID: "b", Score: 0.2}}, got)
	assert.Equal(t, []float64{0.1, 0.2}, Values(got))
	assert.InDelta(t, 0.15, Mean(Values(got)), 1e-12)
}

func TestEmpty(t *testing.T) {
	r := Empty(StrategyMedian)
	assert.Nil(t, r.Score)
	assert.Equal(t, StrategyMedian, r.Strategy)
}
