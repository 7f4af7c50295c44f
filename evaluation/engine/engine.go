//
// Tencent is pleased to support the open source community by making trpc-eval-go available.
//
// Copyright (C) 2025 Tencent.  All rights reserved.
//
// trpc-eval-go is licensed under the Apache License Version 2.0.
//
//

// Package engine runs a metric's steps concurrently against several models,
// excludes models as they fail, and aggregates the survivors' scores.
package engine

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/panjf2000/ants/v2"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/semaphore"

	"trpc.group/trpc-go/trpc-eval-go/evaluation/aggregator"
	"trpc.group/trpc-go/trpc-eval-go/log"
	"trpc.group/trpc-go/trpc-eval-go/model"
	"trpc.group/trpc-go/trpc-eval-go/registry"
	"trpc.group/trpc-go/trpc-eval-go/sample"
	imetric "trpc.group/trpc-go/trpc-eval-go/telemetry/metric"
)

// Engine executes metrics against models resolved from a registry.
// One Engine is safe for any number of concurrent Evaluate calls.
type Engine struct {
	registry          registry.Registry
	pool              *ants.PoolWithFunc
	slots             *semaphore.Weighted
	listeners         []Listener
	aggregator        aggregator.Aggregator
	invocationTimeout time.Duration
	tracer            trace.Tracer
	instruments       *instruments
}

// New creates an engine over reg.
func New(reg registry.Registry, opts ...Option) (*Engine, error) {
	if reg == nil {
		return nil, errors.New("registry is nil")
	}
	o := newOptions(opts...)
	pool, err := createInvocationPool(o.poolSize)
	if err != nil {
		return nil, err
	}
	ins, err := newInstruments(o.meter)
	if err != nil {
		pool.Release()
		return nil, err
	}
	return &Engine{
		registry:          reg,
		pool:              pool,
		slots:             semaphore.NewWeighted(int64(o.poolSize)),
		listeners:         o.listeners,
		aggregator:        o.aggregator,
		invocationTimeout: o.invocationTimeout,
		tracer:            o.tracer,
		instruments:       ins,
	}, nil
}

// Registry returns the registry the engine resolves models from.
func (e *Engine) Registry() registry.Registry {
	return e.registry
}

// Close releases the worker pool. The engine must not be used afterwards.
func (e *Engine) Close() {
	e.pool.Release()
}

// phase is the orchestrator state of one run.
type phase string

const (
	phaseInit        phase = "INIT"
	phaseRunning     phase = "RUNNING"
	phaseAggregating phase = "AGGREGATING"
	phaseDone        phase = "DONE"
)

type run struct {
	id     string
	metric string
	phase  phase
	logger log.Logger
}

func (r *run) enter(p phase, stepIndex int) {
	if p == phaseRunning {
		r.logger.Debugf("%s -> %s(%d)", r.phase, p, stepIndex)
	} else {
		r.logger.Debugf("%s -> %s", r.phase, p)
	}
	r.phase = p
}

// Evaluate runs metric m on sample s against modelIDs.
//
// Every id is resolved before anything runs; an unknown id, an invalid metric
// or a nil sample is the only error returned for a run that starts. Model
// failures never surface as errors: they exclude the model, and a run in
// which every model is excluded ends with a nil score. If ctx is canceled the
// steps completed so far are returned in a partial result marked Canceled,
// together with ctx.Err(). A step is dropped from that result only when the
// cancellation made one of its models fail; models not yet submitted when
// ctx ends are never started.
func Evaluate[S any](
	ctx context.Context,
	e *Engine,
	m *Metric[S],
	s *sample.Sample,
	modelIDs []string,
	opts ...RunOption,
) (*EvaluationResult, error) {
	if e == nil {
		return nil, errors.New("engine is nil")
	}
	if err := m.Validate(); err != nil {
		return nil, fmt.Errorf("invalid metric: %w", err)
	}
	if s == nil {
		return nil, errors.New("sample is nil")
	}
	handles, err := e.resolve(modelIDs)
	if err != nil {
		return nil, err
	}
	ro := &runOptions{}
	for _, opt := range opts {
		opt(ro)
	}
	runID := ro.runID
	if runID == "" {
		runID = uuid.NewString()
	}
	agg := e.aggregator
	if ro.aggregator != nil {
		agg = ro.aggregator
	}

	listenerCtx := context.WithoutCancel(ctx)
	n := newNotifier(listenerCtx, append(append([]Listener(nil), e.listeners...), ro.listeners...))
	r := &run{id: runID, metric: m.Name, phase: phaseInit, logger: log.ForEvaluation(runID, m.Name)}

	ctx, span := e.tracer.Start(ctx, "evaluate "+m.Name, trace.WithAttributes(
		attribute.String(imetric.KeyRunID, runID),
		attribute.String(imetric.KeyMetric, m.Name),
		attribute.StringSlice("trpc_eval.models", modelIDs),
	))
	defer span.End()

	steps := m.plan()
	states := make(map[string]*S, len(modelIDs))
	for _, id := range modelIDs {
		states[id] = m.newState(id, s)
	}
	startedAt := time.Now()
	result := &EvaluationResult{
		RunID:       runID,
		MetricName:  m.Name,
		SampleID:    s.ID,
		ModelIDs:    append([]string(nil), modelIDs...),
		ModelScores: map[string]float64{},
		Steps:       make([]*StepResult, 0, len(steps)),
		StartedAt:   startedAt,
		Metadata:    copyMetadata(m.Metadata),
	}
	stepNames := make([]string, len(steps))
	for i, step := range steps {
		stepNames[i] = step.Name()
	}
	n.beforeEvaluation(listenerCtx, &EvaluationStart{
		RunID:      runID,
		MetricName: m.Name,
		SampleID:   s.ID,
		ModelIDs:   result.ModelIDs,
		StepNames:  stepNames,
		StartedAt:  startedAt,
	})

	tracker := newExclusionTracker(runID, modelIDs)
	var runErr error
	for idx, step := range steps {
		if err := ctx.Err(); err != nil {
			runErr = err
			break
		}
		r.enter(phaseRunning, idx)
		active := tracker.activeSet()
		n.beforeStep(listenerCtx, &StepStart{
			RunID:        runID,
			MetricName:   m.Name,
			StepName:     step.Name(),
			StepIndex:    idx,
			Kind:         step.Kind(),
			ActiveModels: active,
		})
		stepResult := e.runStep(ctx, r, step.Name(), idx, step.Kind(), active,
			func(ctx context.Context, modelID string) *ModelOutcome {
				return step.execute(ctx, modelID, handles[modelID], states[modelID])
			})
		if err := ctx.Err(); err != nil && interrupted(stepResult, err) {
			// Failures of an interrupted step say nothing about the models.
			runErr = err
			break
		}
		result.Steps = append(result.Steps, stepResult)
		excluded := tracker.observe(stepResult)
		n.afterStep(listenerCtx, stepResult)
		for _, ev := range excluded {
			r.logger.Infof("model %s excluded at step %s(%d): %s", ev.ModelID, ev.StepName, ev.StepIndex, ev.Error)
			e.instruments.recordExclusion(ctx, m.Name, ev)
			n.onModelExcluded(listenerCtx, ev)
		}
	}
	result.Exclusions = tracker.history()

	if runErr == nil {
		r.enter(phaseAggregating, 0)
		scores := finalScores(result.Steps[len(result.Steps)-1])
		for _, sc := range scores {
			result.ModelScores[sc.ModelID] = sc.Score
		}
		result.Aggregation = agg.Aggregate(ctx, scores)
		if result.Aggregation != nil {
			result.Score = result.Aggregation.Score
		}
		if result.Score != nil {
			span.SetAttributes(attribute.Float64("trpc_eval.score", *result.Score))
		}
	} else {
		result.Canceled = true
		span.RecordError(runErr)
		span.SetStatus(codes.Error, runErr.Error())
	}
	result.Duration = time.Since(startedAt)
	r.enter(phaseDone, 0)
	e.instruments.recordEvaluation(listenerCtx, m.Name, result.Duration, result.Canceled)
	n.afterEvaluation(listenerCtx, result)
	return result, runErr
}

func (e *Engine) resolve(modelIDs []string) (map[string]model.Handle, error) {
	handles := make(map[string]model.Handle, len(modelIDs))
	for _, id := range modelIDs {
		if _, dup := handles[id]; dup {
			return nil, fmt.Errorf("duplicate model id %q", id)
		}
		h, err := e.registry.Resolve(id)
		if err != nil {
			return nil, fmt.Errorf("resolve models: %w", err)
		}
		handles[id] = h
	}
	return handles, nil
}

// runStep fans one step out to every active model and waits for all of them.
func (e *Engine) runStep(
	ctx context.Context,
	r *run,
	name string,
	index int,
	kind StepKind,
	active []string,
	exec func(ctx context.Context, modelID string) *ModelOutcome,
) *StepResult {
	ctx, span := e.tracer.Start(ctx, "step "+name, trace.WithAttributes(
		attribute.String(imetric.KeyRunID, r.id),
		attribute.String(imetric.KeyStep, name),
		attribute.Int(imetric.KeyStepIndex, index),
		attribute.String(imetric.KeyStepKind, string(kind)),
		attribute.Int("trpc_eval.active_models", len(active)),
	))
	defer span.End()

	startedAt := time.Now()
	r.logger.Debugf("step %s(%d) started with %d active models", name, index, len(active))
	outcomes := make([]*ModelOutcome, len(active))
	invoke := func(ctx context.Context, modelID string) *ModelOutcome {
		return e.invoke(ctx, r, name, kind, modelID, exec)
	}
	var wg sync.WaitGroup
	for i, id := range active {
		// Acquire may succeed on a done context, so check it first.
		err := ctx.Err()
		if err == nil {
			err = e.slots.Acquire(ctx, 1)
		}
		if err != nil {
			outcomes[i] = failedOutcome(id, time.Now(), fmt.Errorf("submit step task: %w", err))
			continue
		}
		param := invocationParamPool.Get().(*invocationParam)
		param.idx = i
		param.ctx = ctx
		param.modelID = id
		param.run = invoke
		param.outcomes = outcomes
		param.wg = &wg
		param.slots = e.slots
		wg.Add(1)
		if err := e.pool.Invoke(param); err != nil {
			e.slots.Release(1)
			wg.Done()
			param.reset()
			invocationParamPool.Put(param)
			outcomes[i] = failedOutcome(id, time.Now(), fmt.Errorf("submit step task: %w", err))
		}
	}
	wg.Wait()

	result := &StepResult{
		RunID:     r.id,
		Name:      name,
		Index:     index,
		Kind:      kind,
		StartedAt: startedAt,
		Duration:  time.Since(startedAt),
		Outcomes:  outcomes,
	}
	for _, o := range outcomes {
		if o.Succeeded() {
			result.Successes++
		} else {
			result.Failures++
		}
	}
	span.SetAttributes(
		attribute.Int("trpc_eval.successes", result.Successes),
		attribute.Int("trpc_eval.failures", result.Failures),
	)
	r.logger.Debugf("step %s(%d) finished in %s: %d succeeded, %d failed",
		name, index, result.Duration, result.Successes, result.Failures)
	return result
}

// invoke runs one model's share of a step under the invocation timeout.
func (e *Engine) invoke(
	ctx context.Context,
	r *run,
	step string,
	kind StepKind,
	modelID string,
	exec func(ctx context.Context, modelID string) *ModelOutcome,
) *ModelOutcome {
	ctx, span := e.tracer.Start(ctx, "invoke "+modelID, trace.WithAttributes(
		attribute.String(imetric.KeyModel, modelID),
		attribute.String(imetric.KeyStep, step),
	))
	defer span.End()
	if e.invocationTimeout > 0 && kind != StepKindCompute {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, e.invocationTimeout)
		defer cancel()
	}
	outcome := runGuarded(ctx, modelID, exec)
	if !outcome.Succeeded() {
		span.RecordError(outcome.Err)
		span.SetStatus(codes.Error, outcome.Error)
		span.SetAttributes(attribute.String(imetric.KeyErrorKind, string(outcome.Kind)))
	}
	e.instruments.recordInvocation(ctx, r.metric, kind, outcome)
	return outcome
}

// interrupted reports whether cancellation of the run cut step short, that
// is whether some model failed because of cause.
func interrupted(step *StepResult, cause error) bool {
	for _, o := range step.Outcomes {
		if o.Err != nil && (o.Kind == model.KindCanceled || errors.Is(o.Err, cause)) {
			return true
		}
	}
	return false
}

func finalScores(scoreStep *StepResult) []aggregator.ModelScore {
	scores := make([]aggregator.ModelScore, 0, scoreStep.Successes)
	for _, o := range scoreStep.Outcomes {
		if !o.Succeeded() {
			continue
		}
		if v, ok := o.Value.(float64); ok {
			scores = append(scores, aggregator.ModelScore{ModelID: o.ModelID, Score: v})
		}
	}
	return scores
}

func copyMetadata(src map[string]any) map[string]any {
	if len(src) == 0 {
		return nil
	}
	dst := make(map[string]any, len(src))
	for k, v := range src {
		dst[k] = v
	}
	return dst
}
