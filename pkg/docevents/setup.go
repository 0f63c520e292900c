package docevents

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/randalmurphal/docevents/pkg/docevents/config"
	"github.com/randalmurphal/docevents/pkg/docevents/event"
	"github.com/randalmurphal/docevents/pkg/docevents/observability"
	"github.com/randalmurphal/docevents/pkg/docevents/product"
	"github.com/randalmurphal/docevents/pkg/docevents/report"
	"github.com/randalmurphal/docevents/pkg/docevents/usage"
)

// Runtime is a fully wired docevents instance built from Settings.
type Runtime struct {
	Closer   *Closer
	Ledger   *event.Ledger
	Handlers *product.Registry
	Store    report.Store
	Logger   *slog.Logger

	shutdownTracing func(context.Context) error
}

// Replaced in tests.
var (
	openStore    = OpenStore
	setupTracing = observability.SetupTracing
)

// SetupOption configures Setup.
type SetupOption func(*setupConfig)

type setupConfig struct {
	logOutput io.Writer
	closer    []Option
}

// WithLogOutput sets where the runtime logger writes.
// Default: os.Stderr
func WithLogOutput(w io.Writer) SetupOption {
	return func(c *setupConfig) {
		c.logOutput = w
	}
}

// WithCloserOptions appends options applied after the settings-derived ones.
func WithCloserOptions(opts ...Option) SetupOption {
	return func(c *setupConfig) {
		c.closer = append(c.closer, opts...)
	}
}

// Setup builds a Runtime: a logger at the configured level and format, the
// report store, OTLP tracing when an endpoint is set, a fresh ledger, and a
// registry holding the usage handler under CoreProduct.
//
// Example:
//
//	settings, err := config.Load("docevents.yaml")
//	// ...
//	rt, err := docevents.Setup(ctx, settings)
//	// ...
//	defer rt.Shutdown(ctx)
func Setup(ctx context.Context, s config.Settings, opts ...SetupOption) (*Runtime, error) {
	cfg := setupConfig{logOutput: os.Stderr}
	for _, opt := range opts {
		opt(&cfg)
	}

	if err := s.Validate(); err != nil {
		return nil, err
	}

	logger, err := NewLogger(cfg.logOutput, s.Log)
	if err != nil {
		return nil, err
	}

	store, err := openStore(s.Store)
	if err != nil {
		return nil, err
	}

	shutdownTracing, err := setupTracing(ctx, observability.TracingOptions{
		Endpoint:    s.Tracing.Endpoint,
		ServiceName: s.Tracing.ServiceName,
	})
	if err != nil {
		return nil, errors.Join(fmt.Errorf("setup tracing: %w", err), store.Close())
	}

	usageOpts := usage.OptionsFromValues(s.Product(CoreProduct))
	usageOpts.Store = store
	usageOpts.Logger = logger

	handlers := product.NewRegistry()
	handlers.MustRegister(CoreProduct, usage.New(usageOpts))

	closerOpts := []Option{
		WithLogger(logger),
		WithReporter(observability.NewLogReporter(logger)),
		WithMetrics(observability.NewMetricsRecorder()),
		WithParallelPhases(s.Close.ParallelPhases),
	}
	if s.Tracing.Endpoint != "" {
		closerOpts = append(closerOpts, WithSpanManager(observability.NewSpanManager()))
	}
	closerOpts = append(closerOpts, cfg.closer...)

	ledger := event.NewLedger()
	logger.Debug("docevents runtime ready",
		slog.String("store", s.Store.Driver),
		slog.Bool("parallel_phases", s.Close.ParallelPhases),
		slog.Bool("tracing", s.Tracing.Endpoint != ""),
	)

	return &Runtime{
		Closer:          NewCloser(ledger, handlers, closerOpts...),
		Ledger:          ledger,
		Handlers:        handlers,
		Store:           store,
		Logger:          logger,
		shutdownTracing: shutdownTracing,
	}, nil
}

// Shutdown flushes tracing and closes the report store.
func (r *Runtime) Shutdown(ctx context.Context) error {
	var errs []error
	if r.shutdownTracing != nil {
		if err := r.shutdownTracing(ctx); err != nil {
			errs = append(errs, fmt.Errorf("shutdown tracing: %w", err))
		}
	}
	if r.Store != nil {
		if err := r.Store.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close store: %w", err))
		}
	}
	return errors.Join(errs...)
}

// NewLogger builds a slog logger writing to w.
func NewLogger(w io.Writer, s config.LogSettings) (*slog.Logger, error) {
	level, err := s.SlogLevel()
	if err != nil {
		return nil, err
	}
	handlerOpts := &slog.HandlerOptions{Level: level}

	switch s.Format {
	case "json":
		return slog.New(slog.NewJSONHandler(w, handlerOpts)), nil
	case "", "text":
		return slog.New(slog.NewTextHandler(w, handlerOpts)), nil
	default:
		return nil, fmt.Errorf("%w: log.format %q", config.ErrInvalidSettings, s.Format)
	}
}

// OpenStore opens the report store named by s.Driver.
func OpenStore(s config.StoreSettings) (report.Store, error) {
	switch s.Driver {
	case "", config.StoreMemory:
		return report.NewMemoryStore(), nil
	case config.StoreSQLite:
		store, err := report.NewSQLiteStore(s.Path)
		if err != nil {
			return nil, fmt.Errorf("open sqlite store: %w", err)
		}
		return store, nil
	default:
		return nil, fmt.Errorf("%w: store.driver %q", config.ErrInvalidSettings, s.Driver)
	}
}
