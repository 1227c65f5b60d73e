// Package otel provides OpenTelemetry span helpers for the schema sync service.
package otel

import (
	"context"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// Attribute keys shared by the publisher and the orchestrator spans.
const (
	AttrLocation       = attribute.Key("store.location")
	AttrChainID        = attribute.Key("store.chain_id")
	AttrOutcome        = attribute.Key("store.outcome")
	AttrClassification = attribute.Key("publish.classification")
	AttrGeneration     = attribute.Key("schema.generation")
	AttrModuleCount    = attribute.Key("schema.module_count")
)

// StartSpan starts a span on tracer. Components built without a tracer get
// the span already in ctx, which is a no-op span unless a caller started one.
func StartSpan(
	ctx context.Context,
	tracer trace.Tracer,
	name string,
	opts ...trace.SpanStartOption,
) (context.Context, trace.Span) {
	if tracer == nil {
		return ctx, trace.SpanFromContext(ctx)
	}
	return tracer.Start(ctx, name, opts...)
}

// RecordError marks span as failed and attaches err as an exception event.
// The status description is fixed; store errors can carry connection details.
func RecordError(span trace.Span, err error) {
	if err != nil && span != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "operation failed")
	}
}
