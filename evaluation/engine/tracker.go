//
// Tencent is pleased to support the open source community by making trpc-eval-go available.
//
// Copyright (C) 2025 Tencent.  All rights reserved.
//
// trpc-eval-go is licensed under the Apache License Version 2.0.
//
//

package engine

// exclusionTracker owns the active model set of one run.
// A model is either active or excluded; excluded models never come back,
// and only the first failure of a model produces an event.
// It is used by the orchestrator goroutine only.
type exclusionTracker struct {
	runID    string
	order    []string
	excluded map[string]*ExclusionEvent
	events   []*ExclusionEvent
}

func newExclusionTracker(runID string, modelIDs []string) *exclusionTracker {
	return &exclusionTracker{
		runID:    runID,
		order:    append([]string(nil), modelIDs...),
		excluded: make(map[string]*ExclusionEvent, len(modelIDs)),
	}
}

// activeSet returns the active models in configured order.
func (t *exclusionTracker) activeSet() []string {
	active := make([]string, 0, len(t.order))
	for _, id := range t.order {
		if _, ok := t.excluded[id]; !ok {
			active = append(active, id)
		}
	}
	return active
}

func (t *exclusionTracker) isActive(id string) bool {
	_, excluded := t.excluded[id]
	return !excluded
}

// observe excludes every active model that failed in step and returns the
// new events in step outcome order.
func (t *exclusionTracker) observe(step *StepResult) []*ExclusionEvent {
	var fresh []*ExclusionEvent
	for _, o := range step.Outcomes {
		if o.Succeeded() || !t.isActive(o.ModelID) {
			continue
		}
		ev := &ExclusionEvent{
			RunID:     t.runID,
			ModelID:   o.ModelID,
			StepName:  step.Name,
			StepIndex: step.Index,
			Cause:     o.Err,
			Error:     o.Error,
			Kind:      o.Kind,
		}
		t.excluded[o.ModelID] = ev
		t.events = append(t.events, ev)
		fresh = append(fresh, ev)
	}
	return fresh
}

// history returns every event of the run in exclusion order.
func (t *exclusionTracker) history() []*ExclusionEvent {
	return append([]*ExclusionEvent(nil), t.events...)
}
