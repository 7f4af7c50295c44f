//
// Tencent is pleased to support the open source community by making trpc-eval-go available.
//
// Copyright (C) 2025 Tencent.  All rights reserved.
//
// trpc-eval-go is licensed under the Apache License Version 2.0.
//
//

package engine

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type nilFactory struct {
	NopListener
}

func (nilFactory) ForEvaluation() Listener { return nil }

func TestNotifierScopesListeners(t *testing.T) {
	events := &eventLog{}
	n := newNotifier(context.Background(), []Listener{nil, panickingFactory{}, nilFactory{}, events})
	require.Len(t, n.listeners, 1)
	assert.Same(t, events, n.listeners[0])
}

func TestNotifierKeepsBroadcastingAfterFailures(t *testing.T) {
	events := &eventLog{}
	n := newNotifier(context.Background(), []Listener{
		&brokenListener{panics: true}, &brokenListener{}, events,
	})
	ctx := context.Background()
	n.beforeStep(ctx, &StepStart{StepName: "a"})
	n.afterStep(ctx, &StepResult{Name: "a", Kind: StepKindLLM})
	n.afterStep(ctx, &StepResult{Name: "b", Kind: StepKindEmbedding})
	n.afterStep(ctx, &StepResult{Name: "c", Kind: StepKindCompute})
	n.onModelExcluded(ctx, &ExclusionEvent{ModelID: "m", StepName: "a"})
	assert.Equal(t, []string{
		"before_step:a", "after_step:a", "after_llm_step:a",
		"after_step:b", "after_step:c", "excluded:m@a",
	}, events.snapshot())
}

func TestCallWithRecoveryTurnsPanicIntoError(t *testing.T) {
	err := callWithRecovery(context.Background(), "BeforeStep", 0, &brokenListener{panics: true},
		func(l Listener) error { return l.BeforeStep(context.Background(), &StepStart{}) })
	require.Error(t, err)
	assert.Contains(t, err.Error(), "listener exploded")
}

type ctxProbe struct {
	NopListener
	errs []error
}

func (p *ctxProbe) AfterEvaluation(ctx context.Context, _ *EvaluationResult) error {
	p.errs = append(p.errs, ctx.Err())
	return nil
}

func (p *ctxProbe) ForEvaluation() Listener { return p }

func TestListenersSeeAnUncanceledContext(t *testing.T) {
	e := newEngine(t, nil)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	probe := &ctxProbe{}
	_, err := Evaluate(ctx, e, twoStepMetric(), testSample, nil, WithRunListeners(probe))
	require.ErrorIs(t, err, context.Canceled)
	require.Len(t, probe.errs, 1)
	assert.NoError(t, probe.errs[0])
}
