//
// Tencent is pleased to support the open source community by making trpc-eval-go available.
//
// Copyright (C) 2025 Tencent.  All rights reserved.
//
// trpc-eval-go is licensed under the Apache License Version 2.0.
//
//

package faithfulness

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"trpc.group/trpc-go/trpc-eval-go/evaluation/engine"
	"trpc.group/trpc-go/trpc-eval-go/model/modeltest"
	"trpc.group/trpc-go/trpc-eval-go/registry"
	"trpc.group/trpc-go/trpc-eval-go/sample"
)

const statements = `{"statements": ["Paris is the capital of France.", "Paris has 10 million people.", " "]}`

func newEngine(t *testing.T, models ...*modeltest.Model) *engine.Engine {
	t.Helper()
	entries := make([]registry.Entry, len(models))
	for i, m := range models {
		entries[i] = registry.Entry{ID: m.Name, Handle: m}
	}
	reg, err := registry.New(entries...)
	require.NoError(t, err)
	e, err := engine.New(reg)
	require.NoError(t, err)
	t.Cleanup(e.Close)
	return e
}

var paris = &sample.Sample{
	ID:                "paris",
	UserInput:         "What is the capital of France?",
	Response:          "Paris is the capital of France and has 10 million people.",
	RetrievedContexts: []string{"Paris is the capital and largest city of France."},
}

func TestFaithfulness(t *testing.T) {
	strict := modeltest.New("strict", statements,
		`{"verdicts": [{"statement": "a", "verdict": 1}, {"statement": "b", "verdict": 0, "reason": "not in context"}]}`)
	lenient := modeltest.New("lenient", statements,
		"```json\n{\"verdicts\": [{\"statement\": \"a\", \"verdict\": 1}, {\"statement\": \"b\", \"verdict\": 1}]}\n```")
	short := modeltest.New("short", statements, `{"verdicts": [{"statement": "a", "verdict": 1}]}`)
	e := newEngine(t, strict, lenient, short)

	res, err := engine.Evaluate(context.Background(), e, New(WithTemperature(0), WithMaxTokens(512)), paris,
		[]string{"strict", "lenient", "short"})
	require.NoError(t, err)
	require.NotNil(t, res.Score)
	assert.InDelta(t, 0.75, *res.Score, 1e-9)
	assert.Equal(t, map[string]float64{"strict": 0.5, "lenient": 1}, res.ModelScores)
	require.Len(t, res.Exclusions, 1)
	assert.Equal(t, "short", res.Exclusions[0].ModelID)
	assert.Equal(t, StepVerifyStatements, res.Exclusions[0].StepName)

	req := strict.Calls()[1].Request
	require.NotNil(t, req.StructuredOutput)
	assert.Equal(t, "verdicts", req.StructuredOutput.Name)
	assert.Contains(t, req.Messages[0].Content, "1. Paris has 10 million people.")
	assert.Contains(t, req.Messages[0].Content, "- Paris is the capital and largest city of France.")
	require.NotNil(t, req.Temperature)
	assert.Equal(t, 0.0, *req.Temperature)
	assert.Equal(t, 512, *req.MaxTokens)
}

func TestFaithfulnessRejectsVerdictOutsideEnum(t *testing.T) {
	m := modeltest.New("m", statements,
		`{"verdicts": [{"statement": "a", "verdict": 2}, {"statement": "b", "verdict": 1}]}`)
	e := newEngine(t, m)
	res, err := engine.Evaluate(context.Background(), e, New(), paris, []string{"m"})
	require.NoError(t, err)
	assert.Nil(t, res.Score)
	require.Len(t, res.Exclusions, 1)
	assert.Equal(t, StepVerifyStatements, res.Exclusions[0].StepName)
}

func TestFaithfulnessWithoutContextsExcludesEveryModel(t *testing.T) {
	m := modeltest.New("m", statements)
	e := newEngine(t, m)
	s := &sample.Sample{UserInput: "q", Response: "r"}
	res, err := engine.Evaluate(context.Background(), e, New(), s, []string{"m"})
	require.NoError(t, err)
	assert.Nil(t, res.Score)
	assert.Zero(t, m.CallCount())
	require.Len(t, res.Exclusions, 1)
	assert.Equal(t, StepExtractStatements, res.Exclusions[0].StepName)
}

func TestFaithfulnessWithoutStatements(t *testing.T) {
	m := modeltest.New("m", `{"statements": []}`)
	e := newEngine(t, m)
	res, err := engine.Evaluate(context.Background(), e, New(), paris, []string{"m"})
	require.NoError(t, err)
	assert.Equal(t, 1, m.CallCount())
	require.Len(t, res.Exclusions, 1)
	assert.Equal(t, engine.ScoreStepName, res.Exclusions[0].StepName)
	assert.ErrorIs(t, res.Exclusions[0].Cause, errNoStatements)
}

func TestFaithfulnessUsesConversation(t *testing.T) {
	m := modeltest.New("m", `{"statements": ["x"]}`, `{"verdicts": [{"statement": "x", "verdict": 1}]}`)
	e := newEngine(t, m)
	s := &sample.Sample{
		RetrievedContexts: []string{"ctx"},
		Messages: sample.Conversation{
			&sample.HumanMessage{Content: "hello?"},
			&sample.AIMessage{Content: "hi there"},
		},
	}
	res, err := engine.Evaluate(context.Background(), e, New(), s, []string{"m"})
	require.NoError(t, err)
	require.NotNil(t, res.Score)
	assert.Equal(t, 1.0, *res.Score)
	prompt := m.Calls()[0].Request.Messages[0].Content
	assert.Contains(t, prompt, "Question: hello?")
	assert.Contains(t, prompt, "Answer: hi there")
}
