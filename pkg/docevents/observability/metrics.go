package observability

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// MetricsRecorder records docevents metrics.
// Use NewMetricsRecorder() for OTel metrics or NoopMetrics{} when disabled.
type MetricsRecorder interface {
	// RecordClose records a finished document close.
	RecordClose(ctx context.Context, products, events int, duration time.Duration, err error)

	// RecordHandlerCall records one handler call in the given phase.
	RecordHandlerCall(ctx context.Context, product, phase string, duration time.Duration, err error)

	// RecordUnknownProduct records an event-bearing product with no handler.
	RecordUnknownProduct(ctx context.Context, product string)

	// RecordEmit records an event emitted by product.
	RecordEmit(ctx context.Context, product string)
}

// otelMetrics implements MetricsRecorder using OpenTelemetry.
type otelMetrics struct {
	closes          metric.Int64Counter
	closeLatency    metric.Float64Histogram
	closeEvents     metric.Int64Histogram
	handlerCalls    metric.Int64Counter
	handlerErrors   metric.Int64Counter
	handlerLatency  metric.Float64Histogram
	unknownProducts metric.Int64Counter
	emitted         metric.Int64Counter
}

var (
	defaultMetrics     *otelMetrics
	defaultMetricsOnce sync.Once
	defaultMetricsErr  error
)

// getDefaultMetrics returns the default OTel metrics instance.
// Lazily initializes the metrics on first call.
func getDefaultMetrics() (*otelMetrics, error) {
	defaultMetricsOnce.Do(func() {
		defaultMetrics, defaultMetricsErr = newOtelMetrics()
	})
	return defaultMetrics, defaultMetricsErr
}

// newOtelMetrics creates a new OTel metrics instance.
func newOtelMetrics() (*otelMetrics, error) {
	meter := otel.Meter("docevents")
	m := &otelMetrics{}
	var err error

	if m.closes, err = meter.Int64Counter("docevents.close.count",
		metric.WithDescription("Number of document closes that drained events"),
	); err != nil {
		return nil, err
	}

	if m.closeLatency, err = meter.Float64Histogram("docevents.close.latency_ms",
		metric.WithDescription("Document close latency in milliseconds"),
		metric.WithUnit("ms"),
	); err != nil {
		return nil, err
	}

	if m.closeEvents, err = meter.Int64Histogram("docevents.close.events",
		metric.WithDescription("Events drained per document close"),
	); err != nil {
		return nil, err
	}

	if m.handlerCalls, err = meter.Int64Counter("docevents.handler.calls",
		metric.WithDescription("Number of product handler calls"),
	); err != nil {
		return nil, err
	}

	if m.handlerErrors, err = meter.Int64Counter("docevents.handler.errors",
		metric.WithDescription("Number of failed product handler calls"),
	); err != nil {
		return nil, err
	}

	if m.handlerLatency, err = meter.Float64Histogram("docevents.handler.latency_ms",
		metric.WithDescription("Product handler call latency in milliseconds"),
		metric.WithUnit("ms"),
	); err != nil {
		return nil, err
	}

	if m.unknownProducts, err = meter.Int64Counter("docevents.unknown_products",
		metric.WithDescription("Event-bearing products without a registered handler"),
	); err != nil {
		return nil, err
	}

	if m.emitted, err = meter.Int64Counter("docevents.events.emitted",
		metric.WithDescription("Number of events emitted by products"),
	); err != nil {
		return nil, err
	}

	return m, nil
}

// NewMetricsRecorder returns a MetricsRecorder that uses OpenTelemetry.
// If metrics initialization fails, returns a no-op recorder.
//
// The recorder uses the global OTel meter provider. Configure the provider
// before calling this function:
//
//	import "go.opentelemetry.io/otel"
//	otel.SetMeterProvider(yourProvider)
func NewMetricsRecorder() MetricsRecorder {
	m, err := getDefaultMetrics()
	if err != nil {
		slog.Warn("metrics initialization failed, using no-op recorder",
			slog.String("error", err.Error()))
		return NoopMetrics{}
	}
	return m
}

// RecordClose records a document close.
func (m *otelMetrics) RecordClose(ctx context.Context, products, events int, duration time.Duration, err error) {
	attrs := metric.WithAttributes(
		attribute.Bool("success", err == nil),
	)
	m.closes.Add(ctx, 1, attrs)
	m.closeLatency.Record(ctx, float64(duration.Microseconds())/1000, attrs)
	m.closeEvents.Record(ctx, int64(events), attrs)
}

// RecordHandlerCall records a handler call.
func (m *otelMetrics) RecordHandlerCall(ctx context.Context, product, phase string, duration time.Duration, err error) {
	attrs := metric.WithAttributes(
		attribute.String("product", product),
		attribute.String("phase", phase),
	)
	m.handlerCalls.Add(ctx, 1, attrs)
	m.handlerLatency.Record(ctx, float64(duration.Microseconds())/1000, attrs)
	if err != nil {
		m.handlerErrors.Add(ctx, 1, attrs)
	}
}

// RecordUnknownProduct records an unknown product.
func (m *otelMetrics) RecordUnknownProduct(ctx context.Context, product string) {
	m.unknownProducts.Add(ctx, 1, metric.WithAttributes(
		attribute.String("product", product),
	))
}

// RecordEmit records an emitted event.
func (m *otelMetrics) RecordEmit(ctx context.Context, product string) {
	m.emitted.Add(ctx, 1, metric.WithAttributes(
		attribute.String("product", product),
	))
}
