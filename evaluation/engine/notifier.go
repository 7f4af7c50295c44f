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
	"fmt"
	"runtime/debug"

	"trpc.group/trpc-go/trpc-eval-go/log"
)

// notifier broadcasts the events of one run to its scoped listeners.
type notifier struct {
	listeners []Listener
}

// newNotifier asks every listener for its per-run instance. A listener whose
// factory panics or returns nil is left out of the run.
func newNotifier(ctx context.Context, listeners []Listener) *notifier {
	n := &notifier{listeners: make([]Listener, 0, len(listeners))}
	for idx, l := range listeners {
		if l == nil {
			continue
		}
		scoped := scope(ctx, idx, l)
		if scoped != nil {
			n.listeners = append(n.listeners, scoped)
		}
	}
	return n
}

func scope(ctx context.Context, idx int, l Listener) (scoped Listener) {
	defer func() {
		if r := recover(); r != nil {
			log.ErrorfContext(ctx, "ForEvaluation (listener: %T, idx: %d): %v\n%s", l, idx, r, string(debug.Stack()))
			scoped = nil
		}
	}()
	return l.ForEvaluation()
}

func (n *notifier) beforeEvaluation(ctx context.Context, start *EvaluationStart) {
	n.broadcast(ctx, "BeforeEvaluation", func(l Listener) error { return l.BeforeEvaluation(ctx, start) })
}

func (n *notifier) afterEvaluation(ctx context.Context, result *EvaluationResult) {
	n.broadcast(ctx, "AfterEvaluation", func(l Listener) error { return l.AfterEvaluation(ctx, result) })
}

func (n *notifier) beforeStep(ctx context.Context, start *StepStart) {
	n.broadcast(ctx, "BeforeStep", func(l Listener) error { return l.BeforeStep(ctx, start) })
}

func (n *notifier) afterStep(ctx context.Context, result *StepResult) {
	n.broadcast(ctx, "AfterStep", func(l Listener) error { return l.AfterStep(ctx, result) })
	if result.Kind == StepKindLLM {
		n.broadcast(ctx, "AfterLLMStep", func(l Listener) error { return l.AfterLLMStep(ctx, result) })
	}
}

func (n *notifier) onModelExcluded(ctx context.Context, event *ExclusionEvent) {
	n.broadcast(ctx, "OnModelExcluded", func(l Listener) error { return l.OnModelExcluded(ctx, event) })
}

func (n *notifier) broadcast(ctx context.Context, point string, call func(Listener) error) {
	for idx, l := range n.listeners {
		if err := callWithRecovery(ctx, point, idx, l, call); err != nil {
			log.ErrorfContext(ctx, "%s listener[%d] (%T): %v", point, idx, l, err)
		}
	}
}

func callWithRecovery(ctx context.Context, point string, idx int, l Listener, call func(Listener) error) (err error) {
	defer func() {
		if r := recover(); r != nil {
			log.ErrorfContext(ctx, "%s (listener: %T, idx: %d): %v\n%s", point, l, idx, r, string(debug.Stack()))
			err = fmt.Errorf("listener panic: %v", r)
		}
	}()
	return call(l)
}
