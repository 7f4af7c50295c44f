//
// Tencent is pleased to support the open source community by making trpc-eval-go available.
//
// Copyright (C) 2025 Tencent.  All rights reserved.
//
// trpc-eval-go is licensed under the Apache License Version 2.0.
//
//

// Package recorder provides a listener that keeps the ordered event trail of
// every evaluation run, for auditing and for tests.
package recorder

import (
	"context"
	"sync"
	"time"

	"trpc.group/trpc-go/trpc-eval-go/evaluation/engine"
)

// EventType names a notification point.
type EventType string

// Event types, one per notification point.
const (
	EventBeforeEvaluation EventType = "before_evaluation"
	EventAfterEvaluation  EventType = "after_evaluation"
	EventBeforeStep       EventType = "before_step"
	EventAfterStep        EventType = "after_step"
	EventAfterLLMStep     EventType = "after_llm_step"
	EventModelExcluded    EventType = "model_excluded"
)

// Event is one notification received during a run.
type Event struct {
	Type      EventType `json:"type"`
	RunID     string    `json:"run_id"`
	StepName  string    `json:"step_name,omitempty"`
	StepIndex int       `json:"step_index"`
	ModelID   string    `json:"model_id,omitempty"`
	Models    []string  `json:"models,omitempty"`
	Time      time.Time `json:"time"`
}

// Trail is the ordered event log of one run.
type Trail struct {
	RunID      string                   `json:"run_id"`
	MetricName string                   `json:"metric_name"`
	Events     []Event                  `json:"events"`
	Result     *engine.EvaluationResult `json:"result,omitempty"`
}

// Types returns the event types of the trail in order.
func (t *Trail) Types() []EventType {
	out := make([]EventType, len(t.Events))
	for i, ev := range t.Events {
		out[i] = ev.Type
	}
	return out
}

// Recorder collects one Trail per run. Register it with the engine; each run
// receives its own scoped instance through ForEvaluation.
type Recorder struct {
	engine.NopListener

	mu     sync.Mutex
	trails []*Trail
	byRun  map[string]*Trail
}

// New creates an empty recorder.
func New() *Recorder {
	return &Recorder{byRun: map[string]*Trail{}}
}

// ForEvaluation returns a fresh instance that records one run.
func (r *Recorder) ForEvaluation() engine.Listener {
	return &run{parent: r, now: time.Now}
}

// Trails returns the completed trails in completion order.
func (r *Recorder) Trails() []*Trail {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]*Trail(nil), r.trails...)
}

// Trail returns the trail of runID, if that run has completed.
func (r *Recorder) Trail(runID string) (*Trail, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	t, ok := r.byRun[runID]
	return t, ok
}

// Reset drops every recorded trail.
func (r *Recorder) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.trails = nil
	r.byRun = map[string]*Trail{}
}

func (r *Recorder) publish(t *Trail) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.trails = append(r.trails, t)
	r.byRun[t.RunID] = t
}

// run records the events of a single evaluation. The engine calls it from
// one goroutine at a time, so it needs no lock.
type run struct {
	parent *Recorder
	now    func() time.Time
	trail  Trail
}

func (r *run) add(ev Event) {
	ev.Time = r.now()
	r.trail.Events = append(r.trail.Events, ev)
}

func (r *run) BeforeEvaluation(_ context.Context, s *engine.EvaluationStart) error {
	r.trail.RunID = s.RunID
	r.trail.MetricName = s.MetricName
	r.add(Event{Type: EventBeforeEvaluation, RunID: s.RunID, StepIndex: -1,
		Models: append([]string(nil), s.ModelIDs...)})
	return nil
}

func (r *run) AfterEvaluation(_ context.Context, res *engine.EvaluationResult) error {
	r.add(Event{Type: EventAfterEvaluation, RunID: res.RunID, StepIndex: -1})
	r.trail.Result = res
	r.parent.publish(&r.trail)
	return nil
}

func (r *run) BeforeStep(_ context.Context, s *engine.StepStart) error {
	r.add(Event{Type: EventBeforeStep, RunID: s.RunID, StepName: s.StepName, StepIndex: s.StepIndex,
		Models: append([]string(nil), s.ActiveModels...)})
	return nil
}

func (r *run) AfterStep(_ context.Context, res *engine.StepResult) error {
	r.add(Event{Type: EventAfterStep, RunID: res.RunID, StepName: res.Name, StepIndex: res.Index,
		Models: res.ModelIDs()})
	return nil
}

func (r *run) AfterLLMStep(_ context.Context, res *engine.StepResult) error {
	r.add(Event{Type: EventAfterLLMStep, RunID: res.RunID, StepName: res.Name, StepIndex: res.Index})
	return nil
}

func (r *run) OnModelExcluded(_ context.Context, ev *engine.ExclusionEvent) error {
	r.add(Event{Type: EventModelExcluded, RunID: ev.RunID, StepName: ev.StepName, StepIndex: ev.StepIndex,
		ModelID: ev.ModelID})
	return nil
}

func (r *run) ForEvaluation() engine.Listener {
	return r
}
