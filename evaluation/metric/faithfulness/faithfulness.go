//
// Tencent is pleased to support the open source community by making trpc-eval-go available.
//
// Copyright (C) 2025 Tencent.  All rights reserved.
//
// trpc-eval-go is licensed under the Apache License Version 2.0.
//
//

// Package faithfulness measures how much of a response is supported by its
// retrieved contexts.
//
// Each model first breaks the response into standalone statements, then
// judges every statement against the contexts. The model's score is the share
// of statements it judged supported.
package faithfulness

import (
	"bytes"
	"errors"
	"fmt"
	"strings"
	"text/template"

	"trpc.group/trpc-go/trpc-eval-go/evaluation/engine"
	"trpc.group/trpc-go/trpc-eval-go/sample"
)

// Name is the metric name.
const Name = "faithfulness"

// Step names.
const (
	StepExtractStatements = "extract_statements"
	StepVerifyStatements  = "verify_statements"
)

var (
	// errNoStatements is returned when a model finds nothing to verify.
	errNoStatements = errors.New("response has no verifiable statements")

	extractPrompt = `Break the answer below into standalone statements. Each statement must be
understandable without the others, must not use pronouns, and must carry exactly one fact.

Question: {{.Question}}
Answer: {{.Response}}

Reply with a JSON object: {"statements": ["..."]}.`

	verifyPrompt = `Judge whether each statement can be directly inferred from the context.
Use verdict 1 if it can, 0 if it cannot. Keep the order and count of the statements.

Context:
{{range .Contexts}}- {{.}}
{{end}}
Statements:
{{range $i, $s := .Statements}}{{$i}}. {{$s}}
{{end}}
Reply with a JSON object: {"verdicts": [{"statement": "...", "reason": "...", "verdict": 0 or 1}]}.`

	extractTemplate = template.Must(template.New("extractStatements").Parse(extractPrompt))
	verifyTemplate  = template.Must(template.New("verifyStatements").Parse(verifyPrompt))

	statementsSchema = map[string]any{
		"type": "object",
		"properties": map[string]any{
			"statements": map[string]any{
				"type":  "array",
				"items": map[string]any{"type": "string"},
			},
		},
		"required": []any{"statements"},
	}

	verdictsSchema = map[string]any{
		"type": "object",
		"properties": map[string]any{
			"verdicts": map[string]any{
				"type": "array",
				"items": map[string]any{
					"type": "object",
					"properties": map[string]any{
						"statement": map[string]any{"type": "string"},
						"reason":    map[string]any{"type": "string"},
						"verdict":   map[string]any{"type": "integer", "enum": []any{0, 1}},
					},
					"required": []any{"statement", "verdict"},
				},
			},
		},
		"required": []any{"verdicts"},
	}
)

// Verdict is a model's judgement of one statement.
type Verdict struct {
	Statement string `json:"statement"`
	Reason    string `json:"reason,omitempty"`
	Verdict   int    `json:"verdict"`
}

type statementsOutput struct {
	Statements []string `json:"statements"`
}

type verdictsOutput struct {
	Verdicts []Verdict `json:"verdicts"`
}

// State is the per-model state of one faithfulness run.
type State struct {
	Sample     *sample.Sample
	Statements []string
	Verdicts   []Verdict
}

// Option configures the metric.
type Option func(*options)

type options struct {
	temperature *float64
	maxTokens   *int
}

// WithTemperature sets the sampling temperature of both judge calls.
func WithTemperature(t float64) Option {
	return func(o *options) {
		o.temperature = &t
	}
}

// WithMaxTokens caps the reply length of both judge calls.
func WithMaxTokens(n int) Option {
	return func(o *options) {
		o.maxTokens = &n
	}
}

// New returns the faithfulness metric.
func New(opts ...Option) *engine.Metric[State] {
	o := &options{}
	for _, opt := range opts {
		opt(o)
	}
	return &engine.Metric[State]{
		Name: Name,
		NewState: func(_ string, s *sample.Sample) State {
			return State{Sample: s}
		},
		Steps: []engine.Step[State]{
			engine.LLMStep(StepExtractStatements,
				func(_ string, st *State) (*engine.LLMCall, error) {
					response := st.Sample.ResponseText()
					if strings.TrimSpace(response) == "" {
						return nil, errors.New("sample has no response")
					}
					if len(st.Sample.RetrievedContexts) == 0 {
						return nil, errors.New("sample has no retrieved contexts")
					}
					prompt, err := render(extractTemplate, map[string]any{
						"Question": st.Sample.Question(),
						"Response": response,
					})
					if err != nil {
						return nil, err
					}
					return o.call(prompt, statementsSchema, "statements"), nil
				},
				func(st *State, out statementsOutput) error {
					st.Statements = compact(out.Statements)
					return nil
				}),
			engine.LLMStep(StepVerifyStatements,
				func(_ string, st *State) (*engine.LLMCall, error) {
					if len(st.Statements) == 0 {
						return nil, nil
					}
					prompt, err := render(verifyTemplate, map[string]any{
						"Contexts":   st.Sample.RetrievedContexts,
						"Statements": st.Statements,
					})
					if err != nil {
						return nil, err
					}
					return o.call(prompt, verdictsSchema, "verdicts"), nil
				},
				func(st *State, out verdictsOutput) error {
					if len(out.Verdicts) != len(st.Statements) {
						return fmt.Errorf("got %d verdicts for %d statements", len(out.Verdicts), len(st.Statements))
					}
					st.Verdicts = out.Verdicts
					return nil
				}),
		},
		Score: Score,
		Metadata: map[string]any{
			"description": "share of response statements supported by the retrieved contexts",
		},
	}
}

// Score returns the share of statements judged supported.
func Score(_ string, st *State) (float64, error) {
	if len(st.Statements) == 0 {
		return 0, errNoStatements
	}
	supported := 0
	for _, v := range st.Verdicts {
		if v.Verdict == 1 {
			supported++
		}
	}
	return float64(supported) / float64(len(st.Statements)), nil
}

func (o *options) call(prompt string, schema map[string]any, schemaName string) *engine.LLMCall {
	return &engine.LLMCall{
		Prompt:      prompt,
		Schema:      schema,
		SchemaName:  schemaName,
		Temperature: o.temperature,
		MaxTokens:   o.maxTokens,
	}
}

func render(t *template.Template, data any) (string, error) {
	var buf bytes.Buffer
	if err := t.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("execute %s prompt template: %w", t.Name(), err)
	}
	return buf.String(), nil
}

func compact(in []string) []string {
	out := make([]string, 0, len(in))
	for _, s := range in {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}
