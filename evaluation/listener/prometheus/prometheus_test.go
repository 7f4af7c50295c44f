//
// Tencent is pleased to support the open source community by making trpc-eval-go available.
//
// Copyright (C) 2025 Tencent.  All rights reserved.
//
// trpc-eval-go is licensed under the Apache License Version 2.0.
//
//

package prometheus

import (
	"context"
	"errors"
	"testing"

	prom "github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"trpc.group/trpc-go/trpc-eval-go/evaluation/engine"
	"trpc.group/trpc-go/trpc-eval-go/model"
	"trpc.group/trpc-go/trpc-eval-go/model/modeltest"
	"trpc.group/trpc-go/trpc-eval-go/registry"
	"trpc.group/trpc-go/trpc-eval-go/sample"
)

type noState struct{}

func TestListenerExportsRunMetrics(t *testing.T) {
	reg := prom.NewRegistry()
	l := New(WithRegisterer(reg))
	assert.Same(t, l, l.ForEvaluation())

	models, err := registry.New(
		registry.Entry{ID: "a", Handle: modeltest.New("a", "yes")},
		registry.Entry{ID: "b", Handle: modeltest.Failing("b", model.NewError("fake", model.KindRateLimit, errors.New("429")))},
	)
	require.NoError(t, err)
	e, err := engine.New(models, engine.WithListeners(l))
	require.NoError(t, err)
	defer e.Close()

	m := &engine.Metric[noState]{
		Name: "judge",
		Steps: []engine.Step[noState]{
			engine.LLMStep("ask",
				func(string, *noState) (*engine.LLMCall, error) { return &engine.LLMCall{Prompt: "p"}, nil },
				func(*noState, string) error { return nil }),
		},
		Score: func(string, *noState) (float64, error) { return 0.25, nil },
	}
	for i := 0; i < 2; i++ {
		_, err = engine.Evaluate(context.Background(), e, m, &sample.Sample{}, []string{"a", "b"})
		require.NoError(t, err)
	}

	assert.Equal(t, 2.0, testutil.ToFloat64(l.runsStarted.WithLabelValues("judge")))
	assert.Equal(t, 2.0, testutil.ToFloat64(l.steps.WithLabelValues("ask", "LLM")))
	assert.Equal(t, 2.0, testutil.ToFloat64(l.steps.WithLabelValues(engine.ScoreStepName, "COMPUTE")))
	assert.Equal(t, 2.0, testutil.ToFloat64(l.outcomes.WithLabelValues("a", "LLM", OutcomeSuccess)))
	assert.Equal(t, 2.0, testutil.ToFloat64(l.outcomes.WithLabelValues("b", "LLM", OutcomeFailure)))
	assert.Equal(t, 2.0, testutil.ToFloat64(l.exclusions.WithLabelValues("b", "ask", string(model.KindRateLimit))))
	assert.Equal(t, 0.25, testutil.ToFloat64(l.score.WithLabelValues("judge")))
	assert.Equal(t, 1.0, testutil.ToFloat64(l.activeModels.WithLabelValues("judge")))
	assert.Equal(t, 1, testutil.CollectAndCount(l.duration))

	count, err := testutil.GatherAndCount(reg, "trpc_eval_evaluation_duration_seconds")
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}

func TestNewWithNamespace(t *testing.T) {
	reg := prom.NewRegistry()
	l := New(WithRegisterer(reg), WithNamespace("custom"), WithDurationBuckets([]float64{1}))
	require.NoError(t, l.BeforeEvaluation(context.Background(), &engine.EvaluationStart{MetricName: "m"}))
	count, err := testutil.GatherAndCount(reg, "custom_evaluations_started_total")
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}
