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
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"

	"github.com/AleutianAI/treenav/services/treenav/langtree/memtree"
)

// counterValue sums the data points of counter name carrying all attrs.
func counterValue(rm metricdata.ResourceMetrics, name string, attrs ...attribute.KeyValue) int64 {
	var total int64
	for _, sm := range rm.ScopeMetrics {
		for _, m := range sm.Metrics {
			if m.Name != name {
				continue
			}
			sum, ok := m.Data.(metricdata.Sum[int64])
			if !ok {
				continue
			}
			for _, dp := range sum.DataPoints {
				match := true
				for _, kv := range attrs {
					if v, ok := dp.Attributes.Value(kv.Key); !ok || v != kv.Value {
						match = false
						break
					}
				}
				if match {
					total += dp.Value
				}
			}
		}
	}
	return total
}

func TestMetrics_RecordNavigation(t *testing.T) {
	reader := sdkmetric.NewManualReader()
	provider := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	otel.SetMeterProvider(provider)
	t.Cleanup(func() { _ = provider.Shutdown(context.Background()) })

	tree := memtree.MustParse("x", "(a (b:1) (c:1))")
	nav := NewNavigator(tree)
	ctx := context.Background()

	_, ok := nav.Parent(ctx, find(t, tree, "b"), DefaultOptions())
	require.True(t, ok)

	_, ok = nav.Parent(ctx, find(t, tree, "b"), withOpts(func(o *Options) { o.MaxAscend = 0 }))
	require.False(t, ok)

	var rm metricdata.ResourceMetrics
	require.NoError(t, reader.Collect(ctx, &rm))

	assert.GreaterOrEqual(t, counterValue(rm, "treenav_navigation_total",
		attribute.String("op", "parent"), attribute.Bool("found", true)), int64(1))
	assert.GreaterOrEqual(t, counterValue(rm, "treenav_navigation_total",
		attribute.String("op", "parent"), attribute.Bool("found", false)), int64(1))
	assert.GreaterOrEqual(t, counterValue(rm, "treenav_budget_exhausted_total",
		attribute.String("budget", "max_ascend")), int64(1))
}
