//
// Tencent is pleased to support the open source community by making trpc-eval-go available.
//
// Copyright (C) 2025 Tencent.  All rights reserved.
//
// trpc-eval-go is licensed under the Apache License Version 2.0.
//
//

// Package trace provides the tracer used by the evaluation engine and a
// helper that exports spans to an OTLP gRPC collector.
package trace

import (
	"context"
	"fmt"
	"os"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.21.0"
	"go.opentelemetry.io/otel/trace"
)

// InstrumentationName is the instrumentation scope of every span the module creates.
const InstrumentationName = "trpc.group/trpc-go/trpc-eval-go"

// Tracer is the default tracer. It delegates to the global tracer provider,
// so it is a no-op until Start or otel.SetTracerProvider is called.
var Tracer trace.Tracer = otel.Tracer(InstrumentationName)

const (
	defaultServiceName = "trpc-eval-go"
	shutdownTimeout    = 5 * time.Second
)

// Option configures Start.
type Option func(*options)

type options struct {
	tracesEndpoint string
	serviceName    string
	sampler        sdktrace.Sampler
}

// WithEndpoint sets the collector endpoint (host and port, no scheme).
// It takes precedence over OTEL_EXPORTER_OTLP_TRACES_ENDPOINT and OTEL_EXPORTER_OTLP_ENDPOINT.
func WithEndpoint(endpoint string) Option {
	return func(o *options) {
		o.tracesEndpoint = endpoint
	}
}

// WithServiceName overrides the service.name resource attribute.
func WithServiceName(name string) Option {
	return func(o *options) {
		o.serviceName = name
	}
}

// WithSampler sets the span sampler. Spans are always sampled by default.
func WithSampler(s sdktrace.Sampler) Option {
	return func(o *options) {
		o.sampler = s
	}
}

// Start installs a batching OTLP gRPC tracer provider as the global provider
// and returns a cleanup function that flushes and shuts it down.
func Start(ctx context.Context, opts ...Option) (clean func() error, err error) {
	o := &options{
		serviceName: defaultServiceName,
		sampler:     sdktrace.AlwaysSample(),
	}
	for _, opt := range opts {
		opt(o)
	}
	if o.tracesEndpoint == "" {
		o.tracesEndpoint = tracesEndpoint()
	}
	exporter, err := otlptracegrpc.New(ctx,
		otlptracegrpc.WithEndpoint(o.tracesEndpoint),
		otlptracegrpc.WithInsecure(),
	)
	if err != nil {
		return nil, fmt.Errorf("create trace exporter: %w", err)
	}
	res, err := resource.New(ctx,
		resource.WithAttributes(semconv.ServiceName(o.serviceName)),
		resource.WithFromEnv(),
		resource.WithTelemetrySDK(),
	)
	if err != nil {
		return nil, fmt.Errorf("create resource: %w", err)
	}
	provider := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exporter),
		sdktrace.WithResource(res),
		sdktrace.WithSampler(o.sampler),
	)
	otel.SetTracerProvider(provider)
	Tracer = provider.Tracer(InstrumentationName)
	return func() error {
		ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return provider.Shutdown(ctx)
	}, nil
}

func tracesEndpoint() string {
	if endpoint := os.Getenv("OTEL_EXPORTER_OTLP_TRACES_ENDPOINT"); endpoint != "" {
		return endpoint
	}
	if endpoint := os.Getenv("OTEL_EXPORTER_OTLP_ENDPOINT"); endpoint != "" {
		return endpoint
	}
	return "localhost:4317"
}
