//
// Tencent is pleased to support the open source community by making trpc-eval-go available.
//
// Copyright (C) 2025 Tencent.  All rights reserved.
//
// trpc-eval-go is licensed under the Apache License Version 2.0.
//
//

// Package toolcallaccuracy scores the tool calls of a multi-turn conversation
// against the reference tool calls.
//
// Calls are paired by name in order. Each pair scores the share of reference
// arguments reproduced exactly. Pairs whose arguments differ are then shown
// to the judge model, which may accept them as equivalent. The final score is
// the mean pair score over the reference calls, and 0 when the call sequence
// is not aligned with the reference.
package toolcallaccuracy

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"reflect"
	"sort"
	"text/template"

	"trpc.group/trpc-go/trpc-eval-go/evaluation/engine"
	"trpc.group/trpc-go/trpc-eval-go/sample"
)

// Name is the metric name.
const Name = "tool_call_accuracy"

// Step names.
const (
	StepMatch = "match_tool_calls"
	StepJudge = "judge_arguments"
)

var (
	judgePrompt = `Each item below pairs an expected tool call with the call an assistant made.
The tool names match but the arguments differ. Decide for each item whether the
actual arguments are equivalent to the expected ones for the purpose of the call.

{{range .}}Item {{.Index}}: tool {{.Name}}
  expected arguments: {{.Expected}}
  actual arguments:   {{.Actual}}
{{end}}
Reply with a JSON object: {"judgements": [{"index": <item>, "equivalent": true|false, "reason": "..."}]}.`

	judgeTemplate = template.Must(template.New("judgeArguments").Parse(judgePrompt))

	judgementsSchema = map[string]any{
		"type": "object",
		"properties": map[string]any{
			"judgements": map[string]any{
				"type": "array",
				"items": map[string]any{
					"type": "object",
					"properties": map[string]any{
						"index":      map[string]any{"type": "integer", "minimum": 0},
						"equivalent": map[string]any{"type": "boolean"},
						"reason":     map[string]any{"type": "string"},
					},
					"required": []any{"index", "equivalent"},
				},
			},
		},
		"required": []any{"judgements"},
	}
)

// Pair is a reference call and the predicted call matched to it.
type Pair struct {
	Reference sample.ToolCall  `json:"reference"`
	Predicted *sample.ToolCall `json:"predicted,omitempty"`
	// ArgScore is the share of reference arguments reproduced exactly.
	ArgScore float64 `json:"arg_score"`
	// Equivalent is set when the judge accepted differing arguments.
	Equivalent bool `json:"equivalent,omitempty"`
}

// Score returns the pair score after judgement.
func (p *Pair) Score() float64 {
	if p.Predicted == nil {
		return 0
	}
	if p.Equivalent {
		return 1
	}
	return p.ArgScore
}

// State is the per-model state of one run.
type State struct {
	Sample  *sample.Sample
	Aligned bool
	Pairs   []Pair
}

type judgement struct {
	Index      int    `json:"index"`
	Equivalent bool   `json:"equivalent"`
	Reason     string `json:"reason,omitempty"`
}

type judgementsOutput struct {
	Judgements []judgement `json:"judgements"`
}

// Option configures the metric.
type Option func(*options)

type options struct {
	strictOrder bool
	judge       bool
}

// WithStrictOrder controls whether the call sequence must follow the
// reference order. It defaults to true; otherwise only the multiset of tool
// names must agree.
func WithStrictOrder(strict bool) Option {
	return func(o *options) {
		o.strictOrder = strict
	}
}

// WithoutJudge drops the judge step, leaving exact argument matching only.
func WithoutJudge() Option {
	return func(o *options) {
		o.judge = false
	}
}

// New returns the tool call accuracy metric.
func New(opts ...Option) *engine.Metric[State] {
	o := &options{strictOrder: true, judge: true}
	for _, opt := range opts {
		opt(o)
	}
	steps := []engine.Step[State]{
		engine.ComputeStep(StepMatch, func(_ string, st *State) (int, error) {
			return o.match(st)
		}),
	}
	if o.judge {
		steps = append(steps, engine.LLMStep(StepJudge, buildJudgeCall, applyJudgements))
	}
	return &engine.Metric[State]{
		Name: Name,
		NewState: func(_ string, s *sample.Sample) State {
			return State{Sample: s}
		},
		Steps: steps,
		Score: func(_ string, st *State) (float64, error) {
			if !st.Aligned || len(st.Pairs) == 0 {
				return 0, nil
			}
			var total float64
			for i := range st.Pairs {
				total += st.Pairs[i].Score()
			}
			return total / float64(len(st.Pairs)), nil
		},
		Metadata: map[string]any{"strict_order": o.strictOrder, "judge": o.judge},
	}
}

// match pairs every reference call with the first unused predicted call of
// the same name and returns the number of pairs found.
func (o *options) match(st *State) (int, error) {
	reference := st.Sample.ReferenceToolCalls
	if len(reference) == 0 {
		return 0, errors.New("sample has no reference tool calls")
	}
	predicted := st.Sample.Messages.ToolCalls()
	st.Aligned = aligned(names(predicted), names(reference), o.strictOrder)

	used := make([]bool, len(predicted))
	st.Pairs = make([]Pair, len(reference))
	matched := 0
	for i, ref := range reference {
		st.Pairs[i] = Pair{Reference: ref}
		for j := range predicted {
			if used[j] || predicted[j].Name != ref.Name {
				continue
			}
			used[j] = true
			pred := predicted[j]
			st.Pairs[i].Predicted = &pred
			st.Pairs[i].ArgScore = argScore(ref.Args, pred.Args)
			matched++
			break
		}
	}
	return matched, nil
}

type judgeItem struct {
	Index    int
	Name     string
	Expected string
	Actual   string
}

func buildJudgeCall(_ string, st *State) (*engine.LLMCall, error) {
	var items []judgeItem
	for i, p := range st.Pairs {
		if p.Predicted == nil || p.ArgScore == 1 {
			continue
		}
		expected, err := json.Marshal(p.Reference.Args)
		if err != nil {
			return nil, fmt.Errorf("marshal expected arguments: %w", err)
		}
		actual, err := json.Marshal(p.Predicted.Args)
		if err != nil {
			return nil, fmt.Errorf("marshal actual arguments: %w", err)
		}
		items = append(items, judgeItem{Index: i, Name: p.Reference.Name, Expected: string(expected), Actual: string(actual)})
	}
	if len(items) == 0 || !st.Aligned {
		return nil, nil
	}
	var buf bytes.Buffer
	if err := judgeTemplate.Execute(&buf, items); err != nil {
		return nil, fmt.Errorf("execute judge prompt template: %w", err)
	}
	return &engine.LLMCall{Prompt: buf.String(), Schema: judgementsSchema, SchemaName: "judgements"}, nil
}

func applyJudgements(st *State, out judgementsOutput) error {
	for _, j := range out.Judgements {
		if j.Index < 0 || j.Index >= len(st.Pairs) || st.Pairs[j.Index].Predicted == nil {
			return fmt.Errorf("judgement for unknown item %d", j.Index)
		}
		st.Pairs[j.Index].Equivalent = j.Equivalent
	}
	return nil
}

func names(calls []sample.ToolCall) []string {
	out := make([]string, len(calls))
	for i, c := range calls {
		out[i] = c.Name
	}
	return out
}

func aligned(predicted, reference []string, strict bool) bool {
	if len(predicted) != len(reference) {
		return false
	}
	if !strict {
		predicted = sorted(predicted)
		reference = sorted(reference)
	}
	for i := range predicted {
		if predicted[i] != reference[i] {
			return false
		}
	}
	return true
}

func sorted(in []string) []string {
	out := append([]string(nil), in...)
	sort.Strings(out)
	return out
}

// argScore is the share of reference arguments whose values the prediction
// reproduces. Two argument-less calls match fully.
func argScore(reference, predicted map[string]any) float64 {
	if len(reference) == 0 {
		if len(predicted) == 0 {
			return 1
		}
		return 0
	}
	hits := 0
	for k, want := range reference {
		if got, ok := predicted[k]; ok && reflect.DeepEqual(want, got) {
			hits++
		}
	}
	return float64(hits) / float64(len(reference))
}
