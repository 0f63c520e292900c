// Package observability provides logging, diagnostics, metrics, and tracing
// for docevents.
//
// Features:
//   - Structured logging via slog (Go stdlib)
//   - Diagnostics reporting with stable message identifiers
//   - Metrics via OpenTelemetry
//   - Tracing via OpenTelemetry, with an OTLP/HTTP exporter setup helper
//
// All features are opt-in and have no-op implementations when disabled.
package observability

import (
	"log/slog"
	"time"
)

// EnrichLogger adds close context to a logger.
// Returns a new logger with document_id and product fields.
//
// Example:
//
//	enriched := EnrichLogger(logger, docID.String(), "forms")
//	enriched.Info("aggregating") // includes document_id, product
func EnrichLogger(logger *slog.Logger, documentID, product string) *slog.Logger {
	if logger == nil {
		return nil
	}
	return logger.With(
		slog.String("document_id", documentID),
		slog.String("product", product),
	)
}

// LogCloseStart logs the start of a document close.
func LogCloseStart(logger *slog.Logger, documentID string, events int) {
	if logger == nil {
		return
	}
	logger.Debug("document close starting",
		slog.String("document_id", documentID),
		slog.Int("events", events),
	)
}

// LogCloseComplete logs a finished document close.
func LogCloseComplete(logger *slog.Logger, documentID string, durationMs float64, products int) {
	if logger == nil {
		return
	}
	logger.Info("document close completed",
		slog.String("document_id", documentID),
		slog.Float64("duration_ms", durationMs),
		slog.Int("products", products),
	)
}

// LogCloseError logs a close that finished with handler faults.
func LogCloseError(logger *slog.Logger, documentID string, err error, durationMs float64) {
	if logger == nil {
		return
	}
	logger.Error("document close finished with failures",
		slog.String("document_id", documentID),
		slog.String("error", err.Error()),
		slog.Float64("duration_ms", durationMs),
	)
}

// LogHandlerError logs a product handler fault.
func LogHandlerError(logger *slog.Logger, documentID, product, phase string, err error) {
	if logger == nil {
		return
	}
	logger.Warn("product handler failed",
		slog.String("document_id", documentID),
		slog.String("product", product),
		slog.String("phase", phase),
		slog.String("error", err.Error()),
	)
}

// LogUnknownProduct logs a product that had events but no handler.
func LogUnknownProduct(logger *slog.Logger, documentID, product string, events int) {
	if logger == nil {
		return
	}
	logger.Debug("skipping unknown product",
		slog.String("document_id", documentID),
		slog.String("product", product),
		slog.Int("events", events),
	)
}

// TimedOperation measures the duration of an operation.
// Returns a function that, when called, returns the elapsed time in milliseconds.
//
// Example:
//
//	done := TimedOperation()
//	// ... do work ...
//	durationMs := done()
func TimedOperation() func() float64 {
	start := time.Now()
	return func() float64 {
		return float64(time.Since(start).Microseconds()) / 1000
	}
}
