//
// Tencent is pleased to support the open source community by making trpc-eval-go available.
//
// Copyright (C) 2025 Tencent.  All rights reserved.
//
// trpc-eval-go is licensed under the Apache License Version 2.0.
//
//

package logging

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"trpc.group/trpc-go/trpc-eval-go/evaluation/engine"
	"trpc.group/trpc-go/trpc-eval-go/model/modeltest"
	"trpc.group/trpc-go/trpc-eval-go/registry"
	"trpc.group/trpc-go/trpc-eval-go/sample"
)

type noState struct{}

func constantMetric() *engine.Metric[noState] {
	return &engine.Metric[noState]{
		Name: "constant",
		Steps: []engine.Step[noState]{
			engine.LLMStep("ask",
				func(string, *noState) (*engine.LLMCall, error) { return &engine.LLMCall{Prompt: "p"}, nil },
				func(*noState, string) error { return nil }),
		},
		Score: func(string, *noState) (float64, error) { return 1, nil },
	}
}

func TestListenerLogsRun(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	l := New(WithLogger(zap.New(core).Sugar()))
	assert.Same(t, l, l.ForEvaluation())

	reg, err := registry.New(
		registry.Entry{ID: "ok", Handle: modeltest.New("ok", "fine")},
		registry.Entry{ID: "bad", Handle: modeltest.Failing("bad", errors.New("boom"))},
	)
	require.NoError(t, err)
	e, err := engine.New(reg, engine.WithListeners(l))
	require.NoError(t, err)
	defer e.Close()

	_, err = engine.Evaluate(context.Background(), e, constantMetric(), &sample.Sample{ID: "s"}, []string{"ok", "bad"},
		engine.WithRunID("run-1"))
	require.NoError(t, err)

	excluded := logs.FilterMessageSnippet("model bad excluded at step ask(0)").All()
	require.Len(t, excluded, 1)
	assert.Equal(t, zapcore.WarnLevel, excluded[0].Level)
	assert.Equal(t, 1, logs.FilterMessageSnippet("evaluation of constant started").Len())
	finished := logs.FilterMessageSnippet("evaluation of constant finished").All()
	require.Len(t, finished, 1)
	assert.Contains(t, finished[0].Message, "score=1.0000")
	assert.Contains(t, finished[0].Message, "[run-1]")
	assert.Equal(t, 1, logs.FilterMessageSnippet("ok answered ask").Len())
}

func TestListenerLogsCancellation(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)
	l := New(WithLogger(zap.New(core).Sugar()))
	require.NoError(t, l.AfterEvaluation(context.Background(), &engine.EvaluationResult{
		RunID: "r", MetricName: "m", Canceled: true,
	}))
	entries := logs.All()
	require.Len(t, entries, 1)
	assert.Equal(t, zapcore.WarnLevel, entries[0].Level)
	assert.Contains(t, entries[0].Message, "canceled")
}
