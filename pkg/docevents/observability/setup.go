package observability

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
)

// TracingOptions configures SetupTracing.
type TracingOptions struct {
	// Endpoint is the OTLP/HTTP collector URL. Empty disables tracing.
	Endpoint string

	// ServiceName is reported as the service.name resource attribute.
	// Default: "docevents"
	ServiceName string
}

// SetupTracing installs a global OTLP/HTTP tracer provider.
//
// Tracing is opt-in: with an empty endpoint SetupTracing returns a no-op
// shutdown function and leaves the global provider untouched.
//
// The returned shutdown function flushes pending spans and should be
// deferred by the caller.
func SetupTracing(ctx context.Context, opts TracingOptions) (shutdown func(context.Context) error, err error) {
	noopShutdown := func(context.Context) error { return nil }
	if opts.Endpoint == "" {
		return noopShutdown, nil
	}
	if opts.ServiceName == "" {
		opts.ServiceName = "docevents"
	}

	exporter, err := otlptracehttp.New(ctx,
		otlptracehttp.WithEndpointURL(opts.Endpoint),
	)
	if err != nil {
		return noopShutdown, fmt.Errorf("create otlp exporter: %w", err)
	}

	res, err := resource.New(ctx,
		resource.WithAttributes(
			semconv.ServiceName(opts.ServiceName),
		),
	)
	if err != nil {
		return noopShutdown, fmt.Errorf("create resource: %w", err)
	}

	tp := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exporter),
		sdktrace.WithResource(res),
	)
	otel.SetTracerProvider(tp)
	otel.SetTextMapPropagator(propagation.TraceContext{})

	return tp.Shutdown, nil
}
