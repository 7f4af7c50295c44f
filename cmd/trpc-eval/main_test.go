//
// Tencent is pleased to support the open source community by making trpc-eval-go available.
//
// Copyright (C) 2025 Tencent.  All rights reserved.
//
// trpc-eval-go is licensed under the Apache License Version 2.0.
//
//

package main

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"trpc.group/trpc-go/trpc-eval-go/evaluation/evalresult"
	"trpc.group/trpc-go/trpc-eval-go/evaluation/evalresult/local"
	"trpc.group/trpc-go/trpc-eval-go/model"
	"trpc.group/trpc-go/trpc-eval-go/model/modeltest"
	"trpc.group/trpc-go/trpc-eval-go/model/provider"
)

func init() {
	provider.Register("cli-test", func(opts *provider.Options) (model.Handle, error) {
		if opts.ModelName == "chat-only" {
			return modeltest.LLMOnly(modeltest.New(opts.ModelName)), nil
		}
		return &modeltest.Model{Name: opts.ModelName, Vectors: [][]float64{{1, 0}, {1, 0}}}, nil
	})
}

const testConfig = `
log:
  level: error
aggregation:
  strategy: average
models:
  - id: embedder
    provider: cli-test
    model: vec
    rate_limit: {rps: 100, burst: 10}
  - id: chat
    provider: cli-test
    model: chat-only
`

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func execute(t *testing.T, args ...string) (string, string, error) {
	t.Helper()
	cmd := newRootCmd()
	var out, errOut bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&errOut)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), errOut.String(), err
}

func TestModelsCommand(t *testing.T) {
	dir := t.TempDir()
	cfg := writeFile(t, dir, "c.yaml", testConfig)
	out, _, err := execute(t, "models", "--config", cfg)
	require.NoError(t, err)
	assert.Equal(t, "embedder\tcli-test/vec\t100 rps\nchat\tcli-test/chat-only\tunlimited\n", out)
}

func TestMetricsCommand(t *testing.T) {
	out, _, err := execute(t, "metrics")
	require.NoError(t, err)
	assert.Contains(t, out, "semantic_similarity\n")
	assert.Contains(t, out, "faithfulness\n")
}

func TestEvaluateCommand(t *testing.T) {
	dir := t.TempDir()
	cfg := writeFile(t, dir, "c.yaml", testConfig)
	samples := writeFile(t, dir, "s.jsonl", `{"id": "s1", "user_input": "q", "response": "a", "reference": "b"}

{"user_input": "q2", "response": "a", "reference": "b"}
`)
	out, errOut, err := execute(t, "evaluate", "--config", cfg, "--metric", "semantic_similarity", "--samples", samples)
	require.NoError(t, err)

	lines := strings.Split(strings.TrimSpace(out), "\n")
	require.Len(t, lines, 2)
	var first struct {
		Index    int    `json:"index"`
		SampleID string `json:"sample_id"`
		Result   struct {
			Score       *float64           `json:"score"`
			ModelScores map[string]float64 `json:"model_scores"`
			Exclusions  []struct {
				ModelID string `json:"model_id"`
				Kind    string `json:"error_kind"`
			} `json:"exclusions"`
		} `json:"result"`
	}
	require.NoError(t, json.Unmarshal([]byte(lines[0]), &first))
	assert.Equal(t, "s1", first.SampleID)
	require.NotNil(t, first.Result.Score)
	assert.InDelta(t, 1, *first.Result.Score, 1e-9)
	require.Len(t, first.Result.Exclusions, 1)
	assert.Equal(t, "chat", first.Result.Exclusions[0].ModelID)
	assert.Equal(t, string(model.KindUnsupported), first.Result.Exclusions[0].Kind)
	assert.Contains(t, lines[1], `"sample_id":"line-3"`)
	assert.Contains(t, errOut, "semantic_similarity: 2 samples, 2 scored")
}

func TestEvaluateCommandErrors(t *testing.T) {
	dir := t.TempDir()
	cfg := writeFile(t, dir, "c.yaml", testConfig)
	good := writeFile(t, dir, "ok.jsonl", `{"user_input": "q", "response": "a", "reference": "b"}`)
	tests := []struct {
		name string
		args []string
		want string
	}{
		{"missing flags", []string{"evaluate", "--config", cfg}, "required flag"},
		{"unknown metric", []string{"evaluate", "--config", cfg, "--metric", "rouge", "--samples", good}, "get metric rouge"},
		{"unknown model", []string{"evaluate", "--config", cfg, "--metric", "semantic_similarity", "--samples", good,
			"--models", "embedder,ghost"}, "not found"},
		{"bad samples", []string{"evaluate", "--config", cfg, "--metric", "semantic_similarity",
			"--samples", writeFile(t, dir, "bad.jsonl", "{not json}\n")}, "line 1"},
		{"empty samples", []string{"evaluate", "--config", cfg, "--metric", "semantic_similarity",
			"--samples", writeFile(t, dir, "empty.jsonl", "\n\n")}, "empty"},
		{"missing config", []string{"models", "--config", filepath.Join(dir, "none.yaml")}, "reading config"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, err := execute(t, tt.args...)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestEvaluateCommandSavesReport(t *testing.T) {
	dir := t.TempDir()
	cfg := writeFile(t, dir, "c.yaml", testConfig)
	samples := writeFile(t, dir, "s.jsonl", `{"id": "s1", "user_input": "q", "response": "a", "reference": "b"}`+"\n")
	outDir := filepath.Join(dir, "results")

	_, errOut, err := execute(t, "evaluate", "--config", cfg, "--metric", "semantic_similarity",
		"--samples", samples, "--output-dir", outDir)
	require.NoError(t, err)
	require.Contains(t, errOut, "report saved as ")

	ids, err := local.New(evalresult.WithBaseDir(outDir)).List(context.Background())
	require.NoError(t, err)
	require.Len(t, ids, 1)
	assert.Contains(t, errOut, ids[0])

	record, err := local.New(evalresult.WithBaseDir(outDir)).Get(context.Background(), ids[0])
	require.NoError(t, err)
	assert.Equal(t, "semantic_similarity", record.Metric)
	require.NotNil(t, record.Report)
	assert.Len(t, record.Report.Items, 1)
}
