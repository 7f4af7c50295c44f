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
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func stepWith(name string, index int, failed map[string]error, ids ...string) *StepResult {
	sr := &StepResult{Name: name, Index: index}
	for _, id := range ids {
		o := &ModelOutcome{ModelID: id}
		if err, ok := failed[id]; ok {
			o.setError(err)
			sr.Failures++
		} else {
			sr.Successes++
		}
		sr.Outcomes = append(sr.Outcomes, o)
	}
	return sr
}

func TestTrackerKeepsConfiguredOrder(t *testing.T) {
	tr := newExclusionTracker("run", []string{"c", "a", "b"})
	assert.Equal(t, []string{"c", "a", "b"}, tr.activeSet())

	events := tr.observe(stepWith("s0", 0, map[string]error{"a": errors.New("x")}, "c", "a", "b"))
	require.Len(t, events, 1)
	assert.Equal(t, []string{"c", "b"}, tr.activeSet())
}

func TestTrackerFirstFailureWins(t *testing.T) {
	tr := newExclusionTracker("run", []string{"a", "b"})
	first := errors.New("first")
	tr.observe(stepWith("s0", 0, map[string]error{"a": first}, "a", "b"))
	again := tr.observe(stepWith("s1", 1, map[string]error{"a": errors.New("second"), "b": errors.New("b")}, "a", "b"))

	require.Len(t, again, 1)
	assert.Equal(t, "b", again[0].ModelID)

	history := tr.history()
	require.Len(t, history, 2)
	assert.Equal(t, "a", history[0].ModelID)
	assert.Equal(t, "s0", history[0].StepName)
	assert.Equal(t, 0, history[0].StepIndex)
	assert.Same(t, first, history[0].Cause)
	assert.Equal(t, "run", history[0].RunID)
	assert.Empty(t, tr.activeSet())
}

func TestTrackerIgnoresSuccesses(t *testing.T) {
	tr := newExclusionTracker("run", []string{"a"})
	assert.Empty(t, tr.observe(stepWith("s0", 0, nil, "a")))
	assert.Equal(t, []string{"a"}, tr.activeSet())
}
