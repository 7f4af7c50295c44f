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
	"time"

	"trpc.group/trpc-go/trpc-eval-go/evaluation/aggregator"
	"trpc.group/trpc-go/trpc-eval-go/model"
)

// StepKind classifies a step by the call it makes.
type StepKind string

// Step kinds.
const (
	StepKindLLM       StepKind = "LLM"
	StepKindEmbedding StepKind = "EMBEDDING"
	StepKindCompute   StepKind = "COMPUTE"
)

// ModelResult is the typed outcome of one call to one model.
// Exactly one of Value and Err is meaningful: Err is nil on success.
type ModelResult[R any] struct {
	ModelID  string
	Value    R
	Duration time.Duration
	Request  any
	Err      error
}

// Succeeded reports whether the call succeeded.
func (r ModelResult[R]) Succeeded() bool {
	return r.Err == nil
}

// Outcome erases the value type for the step history.
func (r ModelResult[R]) Outcome() *ModelOutcome {
	o := &ModelOutcome{
		ModelID:  r.ModelID,
		Duration: r.Duration,
		Request:  r.Request,
	}
	if r.Err != nil {
		o.setError(r.Err)
		return o
	}
	o.Value = r.Value
	return o
}

// Skipped is the value of an outcome whose step made no call for the model.
type Skipped struct {
	Reason string `json:"skipped"`
}

// Skip reasons.
const (
	SkipNoCall   = "no call"
	SkipNoInputs = "no inputs"
)

// ModelOutcome is one model's recorded result within a step.
// Exactly one of Value and Err is set. A model the step skipped succeeds
// with a Skipped value.
type ModelOutcome struct {
	ModelID  string          `json:"model_id"`
	Value    any             `json:"value,omitempty"`
	Duration time.Duration   `json:"duration"`
	Request  any             `json:"request,omitempty"`
	Err      error           `json:"-"`
	Error    string          `json:"error,omitempty"`
	Kind     model.ErrorKind `json:"error_kind,omitempty"`
}

// Succeeded reports whether the model succeeded at the step.
func (o *ModelOutcome) Succeeded() bool {
	return o.Err == nil
}

// Skipped reports whether the step made no call for the model.
func (o *ModelOutcome) Skipped() bool {
	_, ok := o.Value.(Skipped)
	return ok
}

func skippedOutcome(modelID string, start time.Time, reason string) *ModelOutcome {
	return &ModelOutcome{ModelID: modelID, Value: Skipped{Reason: reason}, Duration: time.Since(start)}
}

func (o *ModelOutcome) setError(err error) {
	o.Value = nil
	o.Err = err
	o.Error = err.Error()
	o.Kind = model.Classify(err)
}

// StepResult is the outcome of one step across every model active when it ran.
// Outcomes follow the configured model order.
type StepResult struct {
	RunID     string          `json:"run_id"`
	Name      string          `json:"name"`
	Index     int             `json:"index"`
	Kind      StepKind        `json:"kind"`
	StartedAt time.Time       `json:"started_at"`
	Duration  time.Duration   `json:"duration"`
	Outcomes  []*ModelOutcome `json:"outcomes"`
	Successes int             `json:"successes"`
	Failures  int             `json:"failures"`
}

// Succeeded returns the outcomes of models that succeeded.
func (r *StepResult) Succeeded() []*ModelOutcome {
	out := make([]*ModelOutcome, 0, r.Successes)
	for _, o := range r.Outcomes {
		if o.Succeeded() {
			out = append(out, o)
		}
	}
	return out
}

// Failed returns the outcomes of models that failed.
func (r *StepResult) Failed() []*ModelOutcome {
	out := make([]*ModelOutcome, 0, r.Failures)
	for _, o := range r.Outcomes {
		if !o.Succeeded() {
			out = append(out, o)
		}
	}
	return out
}

// Outcome returns the outcome of modelID, or nil if it did not run at this step.
func (r *StepResult) Outcome(modelID string) *ModelOutcome {
	for _, o := range r.Outcomes {
		if o.ModelID == modelID {
			return o
		}
	}
	return nil
}

// ModelIDs returns the ids of the models that ran at this step.
func (r *StepResult) ModelIDs() []string {
	ids := make([]string, len(r.Outcomes))
	for i, o := range r.Outcomes {
		ids[i] = o.ModelID
	}
	return ids
}

// ExclusionEvent records the first failure of a model in a run.
type ExclusionEvent struct {
	RunID     string          `json:"run_id"`
	ModelID   string          `json:"model_id"`
	StepName  string          `json:"step_name"`
	StepIndex int             `json:"step_index"`
	Cause     error           `json:"-"`
	Error     string          `json:"error"`
	Kind      model.ErrorKind `json:"error_kind"`
}

// EvaluationResult is the terminal artifact of one evaluation run.
type EvaluationResult struct {
	RunID       string             `json:"run_id"`
	MetricName  string             `json:"metric_name"`
	SampleID    string             `json:"sample_id,omitempty"`
	ModelIDs    []string           `json:"model_ids"`
	Score       *float64           `json:"score"`
	ModelScores map[string]float64 `json:"model_scores"`
	Aggregation *aggregator.Result `json:"aggregation,omitempty"`
	Steps       []*StepResult      `json:"steps"`
	Exclusions  []*ExclusionEvent  `json:"exclusions"`
	StartedAt   time.Time          `json:"started_at"`
	Duration    time.Duration      `json:"duration"`
	Metadata    map[string]any     `json:"metadata,omitempty"`
	Canceled    bool               `json:"canceled,omitempty"`
}

// Excluded reports whether modelID was excluded during the run.
func (r *EvaluationResult) Excluded(modelID string) bool {
	for _, e := range r.Exclusions {
		if e.ModelID == modelID {
			return true
		}
	}
	return false
}
