// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package telemetry

import (
	"bytes"
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/metric"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
)

func TestForMode(t *testing.T) {
	tests := []struct {
		mode          string
		trace, metric string
	}{
		{"", ExporterNone, ExporterNone},
		{"none", ExporterNone, ExporterNone},
		{"stdout", ExporterStdout, ExporterStdout},
		{"otlp", ExporterOTLP, ExporterNone},
		{"prometheus", ExporterNone, ExporterPrometheus},
		{"zipkin", "zipkin", ExporterNone},
	}
	for _, tt := range tests {
		cfg := ForMode(tt.mode)
		assert.Equal(t, tt.trace, cfg.TraceExporter, tt.mode)
		assert.Equal(t, tt.metric, cfg.MetricExporter, tt.mode)
		assert.Equal(t, "treenav", cfg.ServiceName)
	}
}

func TestInit_NilContext(t *testing.T) {
	//nolint:staticcheck // nil context is the case under test
	_, err := Init(nil, DefaultConfig())
	assert.True(t, errors.Is(err, ErrNilContext))
}

func TestInit_None(t *testing.T) {
	shutdown, err := Init(context.Background(), ForMode("none"))
	require.NoError(t, err)
	assert.NoError(t, shutdown(context.Background()))
}

func TestInit_UnknownExporter(t *testing.T) {
	_, err := Init(context.Background(), ForMode("zipkin"))
	assert.True(t, errors.Is(err, ErrUnknownExporter))

	cfg := DefaultConfig()
	cfg.MetricExporter = "statsd"
	_, err = Init(context.Background(), cfg)
	assert.True(t, errors.Is(err, ErrUnknownExporter))
}

func TestInit_Stdout(t *testing.T) {
	var buf bytes.Buffer
	cfg := ForMode("stdout")
	cfg.Writer = &buf

	shutdown, err := Init(context.Background(), cfg)
	require.NoError(t, err)

	_, span := otel.Tracer("treenav.test").Start(context.Background(), "resolve")
	span.End()
	require.NoError(t, shutdown(context.Background()))

	assert.Contains(t, buf.String(), `"Name":"resolve"`)
}

func TestInit_Prometheus(t *testing.T) {
	shutdown, err := Init(context.Background(), ForMode("prometheus"))
	require.NoError(t, err)
	defer func() { _ = shutdown(context.Background()) }()

	counter, err := otel.Meter("treenav.test").Int64Counter("treenav_test_total")
	require.NoError(t, err)
	counter.Add(context.Background(), 3, metric.WithAttributes())

	handler := MetricsHandler()
	require.NotNil(t, handler)

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))
	body, err := io.ReadAll(rec.Body)
	require.NoError(t, err)
	assert.Contains(t, string(body), "treenav_test_total")
	assert.Contains(t, string(body), "go_goroutines")
}

func TestRecordErrorAndTraceID(t *testing.T) {
	recorder := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(recorder))
	defer func() { _ = tp.Shutdown(context.Background()) }()

	ctx, span := tp.Tracer("treenav.test").Start(context.Background(), "move")
	assert.NotEmpty(t, TraceID(ctx))
	assert.Empty(t, TraceID(context.Background()))

	RecordError(span, errors.New("boom"))
	RecordError(span, nil)
	RecordError(nil, errors.New("ignored"))
	span.End()

	ended := recorder.Ended()
	require.Len(t, ended, 1)
	assert.Equal(t, "boom", ended[0].Status().Description)
	require.Len(t, ended[0].Events(), 1)

	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, nil))
	LoggerWithTrace(ctx, logger).Info("step")
	assert.Contains(t, buf.String(), "trace_id="+TraceID(ctx))

	assert.Same(t, logger, LoggerWithTrace(context.Background(), logger))
}
