package telemetry

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
)

func collectScope(t *testing.T, reader *sdkmetric.ManualReader, scopeName string) map[string]metricdata.Metrics {
	t.Helper()

	var rm metricdata.ResourceMetrics
	require.NoError(t, reader.Collect(context.Background(), &rm))

	out := make(map[string]metricdata.Metrics)
	for _, scope := range rm.ScopeMetrics {
		if scope.Scope.Name != scopeName {
			continue
		}
		for _, m := range scope.Metrics {
			out[m.Name] = m
		}
	}
	return out
}

func counterTotal(t *testing.T, m metricdata.Metrics) int64 {
	t.Helper()
	sum, ok := m.Data.(metricdata.Sum[int64])
	require.True(t, ok, "expected int64 sum for %s", m.Name)
	var total int64
	for _, dp := range sum.DataPoints {
		total += dp.Value
	}
	return total
}

func TestNewPublishMetrics(t *testing.T) {
	t.Parallel()

	t.Run("returns nil when provider is nil", func(t *testing.T) {
		t.Parallel()

		metrics, err := NewPublishMetrics(nil)
		require.NoError(t, err)
		assert.Nil(t, metrics)
	})

	t.Run("creates metrics with SDK provider", func(t *testing.T) {
		t.Parallel()

		mp := sdkmetric.NewMeterProvider()
		defer func() { _ = mp.Shutdown(context.Background()) }()

		metrics, err := NewPublishMetrics(mp)
		require.NoError(t, err)
		require.NotNil(t, metrics)
		assert.NotNil(t, metrics.publishTotal)
		assert.NotNil(t, metrics.conflictsSuppressed)
		assert.NotNil(t, metrics.chainResets)
	})
}

func TestPublishMetrics_Record(t *testing.T) {
	t.Parallel()

	t.Run("no-op when metrics is nil", func(t *testing.T) {
		t.Parallel()

		var metrics *PublishMetrics
		// Should not panic
		metrics.RecordPublish(context.Background(), "/a:b", "committed", time.Second)
		metrics.RecordSuppressedConflict(context.Background(), "/a:b")
		metrics.RecordChainReset(context.Background(), true)
	})

	t.Run("records publications conflicts and resets", func(t *testing.T) {
		t.Parallel()

		reader := sdkmetric.NewManualReader()
		mp := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
		defer func() { _ = mp.Shutdown(context.Background()) }()

		metrics, err := NewPublishMetrics(mp)
		require.NoError(t, err)

		ctx := context.Background()
		metrics.RecordPublish(ctx, "/ietf-yang-library:modules-state", "committed", 20*time.Millisecond)
		metrics.RecordPublish(ctx, "/ietf-yang-library:modules-state", "benign_conflict", 30*time.Millisecond)
		metrics.RecordSuppressedConflict(ctx, "/ietf-yang-library:modules-state")
		metrics.RecordChainReset(ctx, true)

		got := collectScope(t, reader, PublishMetricsMeterName)
		assert.Equal(t, int64(2), counterTotal(t, got["thv_schema_sync_publish_total"]))
		assert.Equal(t, int64(1), counterTotal(t, got["thv_schema_sync_conflicts_suppressed_total"]))
		assert.Equal(t, int64(1), counterTotal(t, got["thv_schema_sync_chain_resets_total"]))

		hist, ok := got["thv_schema_sync_publish_duration_seconds"].Data.(metricdata.Histogram[float64])
		require.True(t, ok, "expected histogram data type")
		var sum float64
		for _, dp := range hist.DataPoints {
			sum += dp.Sum
		}
		assert.InDelta(t, 0.05, sum, 0.0001)
	})
}

func TestNewSyncMetrics(t *testing.T) {
	t.Parallel()

	t.Run("returns nil when provider is nil", func(t *testing.T) {
		t.Parallel()

		metrics, err := NewSyncMetrics(nil)
		require.NoError(t, err)
		assert.Nil(t, metrics)
	})

	t.Run("creates metrics with SDK provider", func(t *testing.T) {
		t.Parallel()

		mp := sdkmetric.NewMeterProvider()
		defer func() { _ = mp.Shutdown(context.Background()) }()

		metrics, err := NewSyncMetrics(mp)
		require.NoError(t, err)
		require.NotNil(t, metrics)
		assert.NotNil(t, metrics.generation)
		assert.NotNil(t, metrics.updateDuration)
	})
}

func TestSyncMetrics_RecordUpdate(t *testing.T) {
	t.Parallel()

	t.Run("no-op when metrics is nil", func(t *testing.T) {
		t.Parallel()

		var metrics *SyncMetrics
		// Should not panic
		metrics.RecordUpdate(context.Background(), 1, 2, "Complete", time.Second)
	})

	t.Run("records generation and duration", func(t *testing.T) {
		t.Parallel()

		reader := sdkmetric.NewManualReader()
		mp := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
		defer func() { _ = mp.Shutdown(context.Background()) }()

		metrics, err := NewSyncMetrics(mp)
		require.NoError(t, err)

		metrics.RecordUpdate(context.Background(), 7, 12, "Complete", 1500*time.Millisecond)

		got := collectScope(t, reader, SyncMetricsMeterName)

		gauge, ok := got["thv_schema_sync_generation"].Data.(metricdata.Gauge[int64])
		require.True(t, ok)
		require.Len(t, gauge.DataPoints, 1)
		assert.Equal(t, int64(7), gauge.DataPoints[0].Value)

		modules, ok := got["thv_schema_sync_modules"].Data.(metricdata.Gauge[int64])
		require.True(t, ok)
		require.Len(t, modules.DataPoints, 1)
		assert.Equal(t, int64(12), modules.DataPoints[0].Value)

		assert.Equal(t, int64(1), counterTotal(t, got["thv_schema_sync_model_updates_total"]))

		hist, ok := got["thv_schema_sync_update_duration_seconds"].Data.(metricdata.Histogram[float64])
		require.True(t, ok)
		require.NotEmpty(t, hist.DataPoints)
		assert.InDelta(t, 1.5, hist.DataPoints[0].Sum, 0.001)
	})
}
