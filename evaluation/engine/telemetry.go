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
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	imetric "trpc.group/trpc-go/trpc-eval-go/telemetry/metric"
)

const (
	outcomeSuccess = "success"
	outcomeFailure = "failure"
)

type instruments struct {
	invocations        metric.Int64Counter
	invocationDuration metric.Float64Histogram
	exclusions         metric.Int64Counter
	evaluationDuration metric.Float64Histogram
}

func newInstruments(meter metric.Meter) (*instruments, error) {
	var (
		ins instruments
		err error
	)
	if ins.invocations, err = meter.Int64Counter(imetric.MetricModelInvocations,
		metric.WithDescription("Number of model invocations"),
		metric.WithUnit("1"),
	); err != nil {
		return nil, fmt.Errorf("create metric %s: %w", imetric.MetricModelInvocations, err)
	}
	if ins.invocationDuration, err = meter.Float64Histogram(imetric.MetricModelInvocationDuration,
		metric.WithDescription("Duration of one model invocation"),
		metric.WithUnit("s"),
	); err != nil {
		return nil, fmt.Errorf("create metric %s: %w", imetric.MetricModelInvocationDuration, err)
	}
	if ins.exclusions, err = meter.Int64Counter(imetric.MetricModelExclusions,
		metric.WithDescription("Number of models excluded from evaluation runs"),
		metric.WithUnit("1"),
	); err != nil {
		return nil, fmt.Errorf("create metric %s: %w", imetric.MetricModelExclusions, err)
	}
	if ins.evaluationDuration, err = meter.Float64Histogram(imetric.MetricEvaluationDuration,
		metric.WithDescription("Wall-clock duration of one evaluation run"),
		metric.WithUnit("s"),
	); err != nil {
		return nil, fmt.Errorf("create metric %s: %w", imetric.MetricEvaluationDuration, err)
	}
	return &ins, nil
}

func (i *instruments) recordInvocation(ctx context.Context, metricName string, kind StepKind, o *ModelOutcome) {
	outcome := outcomeSuccess
	attrs := []attribute.KeyValue{
		attribute.String(imetric.KeyMetric, metricName),
		attribute.String(imetric.KeyStepKind, string(kind)),
		attribute.String(imetric.KeyModel, o.ModelID),
	}
	if !o.Succeeded() {
		outcome = outcomeFailure
		attrs = append(attrs, attribute.String(imetric.KeyErrorKind, string(o.Kind)))
	}
	attrs = append(attrs, attribute.String(imetric.KeyOutcome, outcome))
	set := metric.WithAttributes(attrs...)
	i.invocations.Add(ctx, 1, set)
	i.invocationDuration.Record(ctx, o.Duration.Seconds(), set)
}

func (i *instruments) recordExclusion(ctx context.Context, metricName string, ev *ExclusionEvent) {
	i.exclusions.Add(ctx, 1, metric.WithAttributes(
		attribute.String(imetric.KeyMetric, metricName),
		attribute.String(imetric.KeyModel, ev.ModelID),
		attribute.String(imetric.KeyStep, ev.StepName),
		attribute.String(imetric.KeyErrorKind, string(ev.Kind)),
	))
}

func (i *instruments) recordEvaluation(ctx context.Context, metricName string, d time.Duration, canceled bool) {
	i.evaluationDuration.Record(ctx, d.Seconds(), metric.WithAttributes(
		attribute.String(imetric.KeyMetric, metricName),
		attribute.Bool("trpc_eval.canceled", canceled),
	))
}
