// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package engine

import (
	"context"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
)

// Package-level tracer and meter for navigation.
var (
	tracer = otel.Tracer("treenav.engine")
	meter  = otel.Meter("treenav.engine")
)

// Metrics for navigation operations.
var (
	navLatency      metric.Float64Histogram
	navTotal        metric.Int64Counter
	nodesVisited    metric.Int64Histogram
	budgetExhausted metric.Int64Counter

	metricsOnce sync.Once
	metricsErr  error
)

// initMetrics initializes the metrics. Safe to call multiple times.
func initMetrics() error {
	metricsOnce.Do(func() {
		var err error

		navLatency, err = meter.Float64Histogram(
			"treenav_navigation_duration_seconds",
			metric.WithDescription("Duration of navigation operations"),
			metric.WithUnit("s"),
		)
		if err != nil {
			metricsErr = err
			return
		}

		navTotal, err = meter.Int64Counter(
			"treenav_navigation_total",
			metric.WithDescription("Total number of navigation operations"),
		)
		if err != nil {
			metricsErr = err
			return
		}

		nodesVisited, err = meter.Int64Histogram(
			"treenav_nodes_visited",
			metric.WithDescription("Number of tree steps taken per navigation"),
		)
		if err != nil {
			metricsErr = err
			return
		}

		budgetExhausted, err = meter.Int64Counter(
			"treenav_budget_exhausted_total",
			metric.WithDescription("Navigations stopped by a distance budget"),
		)
		if err != nil {
			metricsErr = err
			return
		}
	})
	return metricsErr
}

// recordNavigation records metrics for one navigation call.
//
// Parameters:
//   - ctx: Context for metric recording
//   - op: Operation name ("resolve", "parent", "next", ...)
//   - duration: How long the navigation took
//   - s: The finished search, for step count and budget
//   - found: Whether a node was returned
func recordNavigation(ctx context.Context, op string, duration time.Duration, s *search, found bool) {
	if err := initMetrics(); err != nil {
		return // Silently skip if metrics init failed
	}

	attrs := metric.WithAttributes(
		attribute.String("op", op),
		attribute.Bool("found", found),
	)
	navLatency.Record(ctx, duration.Seconds(), attrs)
	navTotal.Add(ctx, 1, attrs)
	nodesVisited.Record(ctx, int64(s.visited), metric.WithAttributes(attribute.String("op", op)))

	if s.exhausted != "" {
		budgetExhausted.Add(ctx, 1, metric.WithAttributes(
			attribute.String("op", op),
			attribute.String("budget", s.exhausted),
		))
	}
}

// startNavSpan creates a span for a navigation operation.
//
// Returns:
//   - ctx: Context with span
//   - span: The created span (caller must call span.End())
func startNavSpan(ctx context.Context, op string, from Position) (context.Context, trace.Span) {
	return tracer.Start(ctx, "Navigator."+op,
		trace.WithAttributes(
			attribute.String("treenav.op", op),
			attribute.String("treenav.from", from.String()),
			attribute.String("treenav.lang", from.Lang()),
		),
	)
}

// setNavSpanResult sets the result attributes on a navigation span.
func setNavSpanResult(span trace.Span, s *search, result Position, found bool) {
	span.SetAttributes(
		attribute.Bool("treenav.found", found),
		attribute.Int("treenav.visited", s.visited),
	)
	if found {
		span.SetAttributes(attribute.String("treenav.result", result.String()))
	}
	if s.exhausted != "" {
		span.SetAttributes(attribute.String("treenav.budget", s.exhausted))
	}
}
