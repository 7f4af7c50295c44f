//
// Tencent is pleased to support the open source community by making trpc-eval-go available.
//
// Copyright (C) 2025 Tencent.  All rights reserved.
//
// trpc-eval-go is licensed under the Apache License Version 2.0.
//
//

package median

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"trpc.group/trpc-go/trpc-eval-go/evaluation/aggregator"
)

func TestAggregate(t *testing.T) {
	tests := []struct {
		name   string
		scores map[string]float64
		want   float64
	}{
		{"single", map[string]float64{"a": 0.3}, 0.3},
		{"odd", map[string]float64{"a": 0.9, "b": 0.1, "c": 0.4}, 0.4},
		{"even", map[string]float64{"a": 0.9, "b": 0.1, "c": 0.4, "d": 0.6}, 0.5},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := New().Aggregate(context.Background(), aggregator.FromMap(tt.scores))
			require.NotNil(t, r.Score)
			assert.InDelta(t, tt.want, *r.Score, 1e-12)
		})
	}
}

func TestAggregateDoesNotReorderInput(t *testing.T) {
	in := []aggregator.ModelScore{{ModelID: "a", Score: 0.9}, {ModelID: "b", Score: 0.1}}
	New().Aggregate(context.Background(), in)
	assert.Equal(t, "a", in[0].ModelID)
	assert.Nil(t, New().Aggregate(context.Background(), nil).Score)
}
