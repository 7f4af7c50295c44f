//
// Tencent is pleased to support the open source community by making trpc-eval-go available.
//
// Copyright (C) 2025 Tencent.  All rights reserved.
//
// trpc-eval-go is licensed under the Apache License Version 2.0.
//
//

package metric

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMetricsEndpoint(t *testing.T) {
	t.Setenv("OTEL_EXPORTER_OTLP_METRICS_ENDPOINT", "custom-metric:4317")
	t.Setenv("OTEL_EXPORTER_OTLP_ENDPOINT", "generic:4317")
	assert.Equal(t, "custom-metric:4317", metricsEndpoint())

	t.Setenv("OTEL_EXPORTER_OTLP_METRICS_ENDPOINT", "")
	assert.Equal(t, "generic:4317", metricsEndpoint())

	t.Setenv("OTEL_EXPORTER_OTLP_ENDPOINT", "")
	assert.Equal(t, "localhost:4317", metricsEndpoint())
}

func TestStartAndClean(t *testing.T) {
	clean, err := Start(context.Background(), WithEndpoint("localhost:4317"), WithInterval(time.Hour))
	require.NoError(t, err)
	counter, err := Meter.Int64Counter(MetricModelInvocations)
	require.NoError(t, err)
	counter.Add(context.Background(), 1)
	_ = clean()
}
