// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package tsitter

import (
	"context"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
)

var (
	tracer = otel.Tracer("treenav.tsitter")
	meter  = otel.Meter("treenav.tsitter")
)

var (
	buildLatency      metric.Float64Histogram
	buildTotal        metric.Int64Counter
	injectedTrees     metric.Int64Histogram
	skippedInjections metric.Int64Counter

	metricsOnce sync.Once
	metricsErr  error
)

func initMetrics() error {
	metricsOnce.Do(func() {
		var err error

		buildLatency, err = meter.Float64Histogram(
			"treenav_forest_build_duration_seconds",
			metric.WithDescription("Duration of forest builds including injections"),
			metric.WithUnit("s"),
		)
		if err != nil {
			metricsErr = err
			return
		}

		buildTotal, err = meter.Int64Counter(
			"treenav_forest_build_total",
			metric.WithDescription("Total number of forest builds"),
		)
		if err != nil {
			metricsErr = err
			return
		}

		injectedTrees, err = meter.Int64Histogram(
			"treenav_injected_trees",
			metric.WithDescription("Number of injected trees per forest"),
		)
		if err != nil {
			metricsErr = err
			return
		}

		skippedInjections, err = meter.Int64Counter(
			"treenav_injections_skipped_total",
			metric.WithDescription("Injection sites skipped for lack of a grammar"),
		)
		if err != nil {
			metricsErr = err
			return
		}
	})
	return metricsErr
}

func recordBuildMetrics(ctx context.Context, lang string, duration time.Duration, injected int, success bool) {
	if err := initMetrics(); err != nil {
		return
	}
	attrs := metric.WithAttributes(
		attribute.String("language", lang),
		attribute.Bool("success", success),
	)
	buildLatency.Record(ctx, duration.Seconds(), attrs)
	buildTotal.Add(ctx, 1, attrs)
	if success {
		injectedTrees.Record(ctx, int64(injected), metric.WithAttributes(attribute.String("language", lang)))
	}
}

func recordSkippedInjection(ctx context.Context, host, lang string) {
	if err := initMetrics(); err != nil {
		return
	}
	skippedInjections.Add(ctx, 1, metric.WithAttributes(
		attribute.String("host", host),
		attribute.String("language", lang),
	))
}

func startBuildSpan(ctx context.Context, lang string, size int) (context.Context, trace.Span) {
	return tracer.Start(ctx, "Builder.Build",
		trace.WithAttributes(
			attribute.String("tsitter.language", lang),
			attribute.Int("tsitter.content_size", size),
		),
	)
}

func setBuildSpanResult(span trace.Span, injected int) {
	span.SetAttributes(attribute.Int("tsitter.injected_trees", injected))
}
