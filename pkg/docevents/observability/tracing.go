package observability

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// Tracer is the docevents tracer instance.
// Uses the global OTel tracer provider.
var tracer = otel.Tracer("docevents")

// SpanManager handles trace span lifecycle.
// Use NewSpanManager() for OTel tracing or NoopSpanManager{} when disabled.
type SpanManager interface {
	// StartCloseSpan starts a span for one document close.
	StartCloseSpan(ctx context.Context, documentID string, events int) (context.Context, trace.Span)

	// StartPhaseSpan starts a span for the aggregation or completion phase.
	// The phase span should be a child of the close span.
	StartPhaseSpan(ctx context.Context, phase string, products int) (context.Context, trace.Span)

	// StartHandlerSpan starts a span for one handler call within a phase.
	StartHandlerSpan(ctx context.Context, product, phase string) (context.Context, trace.Span)

	// EndSpanWithError completes a span, optionally recording an error.
	EndSpanWithError(span trace.Span, err error)

	// AddSpanEvent adds an event to the current span in context.
	AddSpanEvent(ctx context.Context, name string, attrs ...attribute.KeyValue)
}

// otelSpanManager implements SpanManager using OpenTelemetry.
type otelSpanManager struct{}

// NewSpanManager returns a SpanManager that uses OpenTelemetry.
//
// The span manager uses the global OTel tracer provider. Configure the provider
// before calling this function, or call SetupTracing:
//
//	import "go.opentelemetry.io/otel"
//	otel.SetTracerProvider(yourProvider)
func NewSpanManager() SpanManager {
	return &otelSpanManager{}
}

// StartCloseSpan starts a span for one document close.
func (m *otelSpanManager) StartCloseSpan(ctx context.Context, documentID string, events int) (context.Context, trace.Span) {
	return StartCloseSpan(ctx, documentID, events)
}

// StartPhaseSpan starts a span for a close phase.
func (m *otelSpanManager) StartPhaseSpan(ctx context.Context, phase string, products int) (context.Context, trace.Span) {
	return StartPhaseSpan(ctx, phase, products)
}

// StartHandlerSpan starts a span for a handler call.
func (m *otelSpanManager) StartHandlerSpan(ctx context.Context, product, phase string) (context.Context, trace.Span) {
	return StartHandlerSpan(ctx, product, phase)
}

// EndSpanWithError completes a span, optionally recording an error.
func (m *otelSpanManager) EndSpanWithError(span trace.Span, err error) {
	EndSpanWithError(span, err)
}

// AddSpanEvent adds an event to the current span.
func (m *otelSpanManager) AddSpanEvent(ctx context.Context, name string, attrs ...attribute.KeyValue) {
	AddSpanEvent(ctx, name, attrs...)
}

// Convenience functions that operate on the global tracer.
// These are useful for simple cases where you don't need the interface.

// StartCloseSpan starts a span for one document close.
// Uses the global OTel tracer.
func StartCloseSpan(ctx context.Context, documentID string, events int) (context.Context, trace.Span) {
	return tracer.Start(ctx, "docevents.close",
		trace.WithAttributes(
			attribute.String("document.id", documentID),
			attribute.Int("events.count", events),
		),
		trace.WithSpanKind(trace.SpanKindInternal),
	)
}

// StartPhaseSpan starts a span for a close phase.
// Uses the global OTel tracer.
func StartPhaseSpan(ctx context.Context, phase string, products int) (context.Context, trace.Span) {
	return tracer.Start(ctx, "docevents.phase."+phase,
		trace.WithAttributes(
			attribute.String("phase", phase),
			attribute.Int("products.count", products),
		),
		trace.WithSpanKind(trace.SpanKindInternal),
	)
}

// StartHandlerSpan starts a span for a handler call.
// Uses the global OTel tracer.
func StartHandlerSpan(ctx context.Context, product, phase string) (context.Context, trace.Span) {
	return tracer.Start(ctx, "docevents.handler."+phase,
		trace.WithAttributes(
			attribute.String("product.name", product),
			attribute.String("phase", phase),
		),
		trace.WithSpanKind(trace.SpanKindInternal),
	)
}

// EndSpanWithError completes a span, optionally recording an error.
func EndSpanWithError(span trace.Span, err error) {
	if span == nil {
		return
	}
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	} else {
		span.SetStatus(codes.Ok, "")
	}
	span.End()
}

// AddSpanEvent adds an event to the current span in context.
func AddSpanEvent(ctx context.Context, name string, attrs ...attribute.KeyValue) {
	span := trace.SpanFromContext(ctx)
	if span == nil || !span.IsRecording() {
		return
	}
	span.AddEvent(name, trace.WithAttributes(attrs...))
}
