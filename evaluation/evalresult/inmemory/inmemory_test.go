//
// Tencent is pleased to support the open source community by making trpc-eval-go available.
//
// Copyright (C) 2025 Tencent.  All rights reserved.
//
// trpc-eval-go is licensed under the Apache License Version 2.0.
//
//

package inmemory

import (
	"context"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"trpc.group/trpc-go/trpc-eval-go/evaluation/batch"
	"trpc.group/trpc-go/trpc-eval-go/evaluation/evalresult"
)

var _ evalresult.Manager = (*Manager)(nil)

func TestManager(t *testing.T) {
	ctx := context.Background()
	m := New()

	ids, err := m.List(ctx)
	require.NoError(t, err)
	assert.Empty(t, ids)

	second := &evalresult.Record{ID: "b", Report: &batch.Report{Metric: "m"}}
	_, err = m.Save(ctx, second)
	require.NoError(t, err)
	first, err := m.Save(ctx, &evalresult.Record{ID: "a", Report: &batch.Report{Metric: "m"}})
	require.NoError(t, err)
	assert.Equal(t, "a", first)

	got, err := m.Get(ctx, "b")
	require.NoError(t, err)
	assert.Same(t, second, got)
	assert.False(t, got.CreatedAt.IsZero())

	ids, err = m.List(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b"}, ids)

	_, err = m.Get(ctx, "c")
	assert.ErrorIs(t, err, os.ErrNotExist)

	_, err = m.Save(ctx, &evalresult.Record{})
	assert.Error(t, err)
}
