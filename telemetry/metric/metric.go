//
// Tencent is pleased to support the open source community by making trpc-eval-go available.
//
// Copyright (C) 2025 Tencent.  All rights reserved.
//
// trpc-eval-go is licensed under the Apache License Version 2.0.
//
//

// Package metric provides the meter used by the evaluation engine, the names
// of the instruments it records, and a helper that exports them to an OTLP
// gRPC collector.
package metric

import (
	"context"
	"fmt"
	"os"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetricgrpc"
	"go.opentelemetry.io/otel/metric"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/resource"
	semconv "go.opentelemetry.io/otel/semconv/v1.21.0"
)

// InstrumentationName is the instrumentation scope of every instrument the module creates.
const InstrumentationName = "trpc.group/trpc-go/trpc-eval-go"

// Instrument names.
const (
	// MetricModelInvocations counts model invocations by model, step kind and outcome.
	MetricModelInvocations = "trpc_eval.model.invocations"
	// MetricModelInvocationDuration records the duration of one model invocation.
	MetricModelInvocationDuration = "trpc_eval.model.invocation.duration"
	// MetricModelExclusions counts models excluded from an evaluation run.
	MetricModelExclusions = "trpc_eval.model.exclusions"
	// MetricEvaluationDuration records the wall-clock duration of one evaluation run.
	MetricEvaluationDuration = "trpc_eval.evaluation.duration"
)

// Attribute keys shared by spans and instruments.
const (
	KeyRunID     = "trpc_eval.run_id"
	KeyMetric    = "trpc_eval.metric"
	KeyStep      = "trpc_eval.step"
	KeyStepIndex = "trpc_eval.step.index"
	KeyStepKind  = "trpc_eval.step.kind"
	KeyModel     = "trpc_eval.model"
	KeyOutcome   = "trpc_eval.outcome"
	KeyErrorKind = "trpc_eval.error.kind"
)

const shutdownTimeout = 5 * time.Second

// Meter is the default meter. It delegates to the global meter provider,
// so it is a no-op until Start or otel.SetMeterProvider is called.
var Meter metric.Meter = otel.Meter(InstrumentationName)

// Option configures Start.
type Option func(*options)

type options struct {
	metricsEndpoint string
	serviceName     string
	interval        time.Duration
}

// WithEndpoint sets the collector endpoint (host and port, no scheme).
func WithEndpoint(endpoint string) Option {
	return func(o *options) { o.metricsEndpoint = endpoint }
}

// WithServiceName overrides the service.name resource attribute.
func WithServiceName(name string) Option {
	return func(o *options) { o.serviceName = name }
}

// WithInterval sets the export interval of the periodic reader.
func WithInterval(d time.Duration) Option {
	return func(o *options) { o.interval = d }
}

// Start installs an OTLP gRPC meter provider as the global provider and
// returns a cleanup function that flushes and shuts it down.
func Start(ctx context.Context, opts ...Option) (clean func() error, err error) {
	o := &options{serviceName: "trpc-eval-go", interval: 30 * time.Second}
	for _, opt := range opts {
		opt(o)
	}
	if o.metricsEndpoint == "" {
		o.metricsEndpoint = metricsEndpoint()
	}
	exporter, err := otlpmetricgrpc.New(ctx,
		otlpmetricgrpc.WithEndpoint(o.metricsEndpoint),
		otlpmetricgrpc.WithInsecure(),
	)
	if err != nil {
		return nil, fmt.Errorf("create metrics exporter: %w", err)
	}
	res, err := resource.New(ctx,
		resource.WithAttributes(semconv.ServiceName(o.serviceName)),
		resource.WithFromEnv(),
		resource.WithTelemetrySDK(),
	)
	if err != nil {
		return nil, fmt.Errorf("create resource: %w", err)
	}
	provider := sdkmetric.NewMeterProvider(
		sdkmetric.WithReader(sdkmetric.NewPeriodicReader(exporter, sdkmetric.WithInterval(o.interval))),
		sdkmetric.WithResource(res),
	)
	otel.SetMeterProvider(provider)
	Meter = provider.Meter(InstrumentationName)
	return func() error {
		ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return provider.Shutdown(ctx)
	}, nil
}

func metricsEndpoint() string {
	if endpoint := os.Getenv("OTEL_EXPORTER_OTLP_METRICS_ENDPOINT"); endpoint != "" {
		return endpoint
	}
	if endpoint := os.Getenv("OTEL_EXPORTER_OTLP_ENDPOINT"); endpoint != "" {
		return endpoint
	}
	return "localhost:4317"
}
