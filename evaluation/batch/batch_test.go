//
// Tencent is pleased to support the open source community by making trpc-eval-go available.
//
// Copyright (C) 2025 Tencent.  All rights reserved.
//
// trpc-eval-go is licensed under the Apache License Version 2.0.
//
//

package batch

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"trpc.group/trpc-go/trpc-eval-go/evaluation/engine"
	"trpc.group/trpc-go/trpc-eval-go/evaluation/listener/recorder"
	"trpc.group/trpc-go/trpc-eval-go/evaluation/metric"
	"trpc.group/trpc-go/trpc-eval-go/model"
	"trpc.group/trpc-go/trpc-eval-go/model/modeltest"
	"trpc.group/trpc-go/trpc-eval-go/registry"
	"trpc.group/trpc-go/trpc-eval-go/sample"
)

type lengthState struct {
	sample *sample.Sample
}

// lengthMetric scores a sample by the length of its response, capped at 1,
// after one model call.
func lengthMetric() metric.Evaluator {
	return metric.Of(&engine.Metric[lengthState]{
		Name:     "length",
		NewState: func(_ string, s *sample.Sample) lengthState { return lengthState{sample: s} },
		Steps: []engine.Step[lengthState]{
			engine.LLMStep("touch",
				func(string, *lengthState) (*engine.LLMCall, error) { return &engine.LLMCall{Prompt: "p"}, nil },
				func(*lengthState, string) error { return nil }),
		},
		Score: func(_ string, st *lengthState) (float64, error) {
			if st.sample.Response == "" {
				return 0, errors.New("empty response")
			}
			return float64(len(st.sample.Response)) / 10, nil
		},
	})
}

func newEngine(t *testing.T, m *modeltest.Model, opts ...engine.Option) *engine.Engine {
	t.Helper()
	reg, err := registry.New(registry.Entry{ID: m.Name, Handle: m})
	require.NoError(t, err)
	e, err := engine.New(reg, opts...)
	require.NoError(t, err)
	t.Cleanup(e.Close)
	return e
}

func TestRunEvaluatesEverySample(t *testing.T) {
	rec := recorder.New()
	m := modeltest.New("m", "ok")
	m.Latency = time.Millisecond
	e := newEngine(t, m, engine.WithListeners(rec))
	samples := []*sample.Sample{
		{ID: "a", Response: "abcd"},
		{ID: "b", Response: "ab"},
		nil,
		{ID: "d"},
	}
	var seen []int
	report, err := Run(context.Background(), e, lengthMetric(), samples, []string{"m"},
		WithConcurrency(2), WithOnItem(func(it *Item) { seen = append(seen, it.Index) }))
	require.NoError(t, err)

	assert.Equal(t, "length", report.Metric)
	require.Len(t, report.Items, 4)
	assert.Equal(t, 2, report.Scored)
	assert.Equal(t, 1, report.Unscored)
	assert.Equal(t, 1, report.Failed)
	require.NotNil(t, report.Score)
	assert.InDelta(t, 0.3, *report.Score, 1e-9)
	assert.ElementsMatch(t, []int{0, 1, 2, 3}, seen)

	assert.Error(t, report.Items[2].Err)
	assert.NotEmpty(t, report.Items[2].Error)
	assert.Equal(t, "a", report.Items[0].SampleID)
	assert.InDelta(t, 0.4, *report.Items[0].Result.Score, 1e-9)
	assert.Nil(t, report.Items[3].Result.Score)

	trails := rec.Trails()
	require.Len(t, trails, 3)
	runIDs := map[string]bool{}
	for _, tr := range trails {
		runIDs[tr.RunID] = true
	}
	assert.Len(t, runIDs, 3)
}

func TestRunBoundsConcurrency(t *testing.T) {
	var current, peak atomic.Int32
	m := &modeltest.Model{Name: "m", GenerateFunc: func(ctx context.Context, _ *model.Request) (*model.Response, error) {
		n := current.Add(1)
		defer current.Add(-1)
		for {
			old := peak.Load()
			if n <= old || peak.CompareAndSwap(old, n) {
				break
			}
		}
		time.Sleep(5 * time.Millisecond)
		return &model.Response{Content: "ok"}, nil
	}}
	e := newEngine(t, m)
	samples := make([]*sample.Sample, 8)
	for i := range samples {
		samples[i] = &sample.Sample{ID: fmt.Sprint(i), Response: "x"}
	}
	report, err := Run(context.Background(), e, lengthMetric(), samples, []string{"m"}, WithConcurrency(2))
	require.NoError(t, err)
	assert.Equal(t, 8, report.Scored)
	assert.LessOrEqual(t, peak.Load(), int32(2))
}

func TestRunRejectsUnknownModels(t *testing.T) {
	e := newEngine(t, modeltest.New("m"))
	_, err := Run(context.Background(), e, lengthMetric(), []*sample.Sample{{Response: "x"}}, []string{"nope"})
	assert.ErrorIs(t, err, registry.ErrModelNotFound)
	_, err = Run(context.Background(), e, nil, nil, nil)
	assert.Error(t, err)
}

func TestRunCanceled(t *testing.T) {
	m := modeltest.New("m", "ok")
	e := newEngine(t, m)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	var mu sync.Mutex
	count := 0
	report, err := Run(ctx, e, lengthMetric(), []*sample.Sample{{Response: "x"}, {Response: "y"}}, []string{"m"},
		WithOnItem(func(*Item) {
			mu.Lock()
			count++
			mu.Unlock()
		}))
	require.ErrorIs(t, err, context.Canceled)
	require.NotNil(t, report)
	assert.Equal(t, 2, report.Failed)
	assert.Nil(t, report.Score)
	assert.Equal(t, 2, count)
	assert.Zero(t, m.CallCount())
}
