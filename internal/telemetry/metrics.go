// Package telemetry provides OpenTelemetry instrumentation for the schema sync service.
package telemetry

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

const (
	// PublishMetricsMeterName is the name used for the publisher metrics meter
	PublishMetricsMeterName = "github.com/stacklok/toolhive-schema-sync/publish"

	// SyncMetricsMeterName is the name used for the model update metrics meter
	SyncMetricsMeterName = "github.com/stacklok/toolhive-schema-sync/sync"
)

// PublishMetrics holds the OpenTelemetry instruments for record publication
type PublishMetrics struct {
	publishTotal        metric.Int64Counter
	publishDuration     metric.Float64Histogram
	conflictsSuppressed metric.Int64Counter
	chainResets         metric.Int64Counter
}

// NewPublishMetrics creates a new PublishMetrics instance with the given meter provider.
// If provider is nil, it returns nil (no-op metrics).
func NewPublishMetrics(provider metric.MeterProvider) (*PublishMetrics, error) {
	if provider == nil {
		return nil, nil
	}

	meter := provider.Meter(PublishMetricsMeterName)

	publishTotal, err := meter.Int64Counter(
		"thv_schema_sync_publish_total",
		metric.WithDescription("Number of record publications by classification"),
		metric.WithUnit("{publication}"),
	)
	if err != nil {
		return nil, err
	}

	publishDuration, err := meter.Float64Histogram(
		"thv_schema_sync_publish_duration_seconds",
		metric.WithDescription("Duration of record publications in seconds, including conflict resolution"),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5),
	)
	if err != nil {
		return nil, err
	}

	conflictsSuppressed, err := meter.Int64Counter(
		"thv_schema_sync_conflicts_suppressed_total",
		metric.WithDescription("Number of write conflicts from peer nodes that were treated as success"),
		metric.WithUnit("{conflict}"),
	)
	if err != nil {
		return nil, err
	}

	chainResets, err := meter.Int64Counter(
		"thv_schema_sync_chain_resets_total",
		metric.WithDescription("Number of transaction chain resets"),
		metric.WithUnit("{reset}"),
	)
	if err != nil {
		return nil, err
	}

	return &PublishMetrics{
		publishTotal:        publishTotal,
		publishDuration:     publishDuration,
		conflictsSuppressed: conflictsSuppressed,
		chainResets:         chainResets,
	}, nil
}

// RecordPublish records one finished publication of the record at location
func (m *PublishMetrics) RecordPublish(ctx context.Context, location, classification string, duration time.Duration) {
	if m == nil || m.publishTotal == nil {
		return
	}

	attrs := metric.WithAttributes(
		attribute.String("location", location),
		attribute.String("classification", classification),
	)
	m.publishTotal.Add(ctx, 1, attrs)
	m.publishDuration.Record(ctx, duration.Seconds(), attrs)
}

// RecordSuppressedConflict records a peer write conflict that was suppressed
func (m *PublishMetrics) RecordSuppressedConflict(ctx context.Context, location string) {
	if m == nil || m.conflictsSuppressed == nil {
		return
	}
	m.conflictsSuppressed.Add(ctx, 1, metric.WithAttributes(attribute.String("location", location)))
}

// RecordChainReset records a transaction chain reset
func (m *PublishMetrics) RecordChainReset(ctx context.Context, success bool) {
	if m == nil || m.chainResets == nil {
		return
	}
	m.chainResets.Add(ctx, 1, metric.WithAttributes(attribute.Bool("success", success)))
}

// SyncMetrics holds the OpenTelemetry instruments for model updates
type SyncMetrics struct {
	generation     metric.Int64Gauge
	modules        metric.Int64Gauge
	updatesTotal   metric.Int64Counter
	updateDuration metric.Float64Histogram
}

// NewSyncMetrics creates a new SyncMetrics instance with the given meter provider.
// If provider is nil, it returns nil (no-op metrics).
func NewSyncMetrics(provider metric.MeterProvider) (*SyncMetrics, error) {
	if provider == nil {
		return nil, nil
	}

	meter := provider.Meter(SyncMetricsMeterName)

	generation, err := meter.Int64Gauge(
		"thv_schema_sync_generation",
		metric.WithDescription("Generation of the most recently accepted schema model"),
	)
	if err != nil {
		return nil, err
	}

	modules, err := meter.Int64Gauge(
		"thv_schema_sync_modules",
		metric.WithDescription("Number of modules in the current schema model"),
		metric.WithUnit("{module}"),
	)
	if err != nil {
		return nil, err
	}

	updatesTotal, err := meter.Int64Counter(
		"thv_schema_sync_model_updates_total",
		metric.WithDescription("Number of handled model updates by resulting phase"),
		metric.WithUnit("{update}"),
	)
	if err != nil {
		return nil, err
	}

	updateDuration, err := meter.Float64Histogram(
		"thv_schema_sync_update_duration_seconds",
		metric.WithDescription("Duration of model update handling in seconds"),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(0.01, 0.05, 0.1, 0.5, 1, 2.5, 5, 10, 30),
	)
	if err != nil {
		return nil, err
	}

	return &SyncMetrics{
		generation:     generation,
		modules:        modules,
		updatesTotal:   updatesTotal,
		updateDuration: updateDuration,
	}, nil
}

// RecordUpdate records one handled model update
func (m *SyncMetrics) RecordUpdate(ctx context.Context, generation uint64, modules int, phase string, duration time.Duration) {
	if m == nil || m.updatesTotal == nil {
		return
	}

	m.generation.Record(ctx, int64(generation))
	m.modules.Record(ctx, int64(modules))

	attrs := metric.WithAttributes(attribute.String("phase", phase))
	m.updatesTotal.Add(ctx, 1, attrs)
	m.updateDuration.Record(ctx, duration.Seconds(), attrs)
}
