package docevents

import (
	"log/slog"

	"github.com/randalmurphal/docevents/pkg/docevents/observability"
)

// closerConfig holds configuration for a Closer.
type closerConfig struct {
	logger   *slog.Logger
	reporter observability.Reporter
	metrics  observability.MetricsRecorder
	spans    observability.SpanManager
	parallel bool
}

// defaultCloserConfig returns the default configuration.
func defaultCloserConfig() closerConfig {
	return closerConfig{
		logger:  slog.Default(),
		metrics: observability.NoopMetrics{},
		spans:   observability.NoopSpanManager{},
	}
}

// Option configures a Closer.
type Option func(*closerConfig)

// WithLogger sets the logger for close and emission records.
// Default: slog.Default(). A nil logger disables logging.
func WithLogger(logger *slog.Logger) Option {
	return func(c *closerConfig) {
		c.logger = logger
	}
}

// WithReporter sets the diagnostics reporter.
// Default: a LogReporter over the closer's logger.
//
// Example:
//
//	rec := &observability.RecordingReporter{}
//	closer := docevents.NewCloser(ledger, handlers, docevents.WithReporter(rec))
func WithReporter(r observability.Reporter) Option {
	return func(c *closerConfig) {
		c.reporter = r
	}
}

// WithMetrics enables metrics recording.
// Default: observability.NoopMetrics{}
func WithMetrics(m observability.MetricsRecorder) Option {
	return func(c *closerConfig) {
		if m != nil {
			c.metrics = m
		}
	}
}

// WithSpanManager enables tracing.
// Default: observability.NoopSpanManager{}
func WithSpanManager(s observability.SpanManager) Option {
	return func(c *closerConfig) {
		if s != nil {
			c.spans = s
		}
	}
}

// WithParallelPhases runs each phase concurrently across products. The
// completion phase still starts only after every aggregate call returned.
// Default: false
func WithParallelPhases(enabled bool) Option {
	return func(c *closerConfig) {
		c.parallel = enabled
	}
}
