// Package usage implements a product handler that summarizes the events a
// product recorded for a document and writes a report when the document
// closes.
//
// The handler is registered under docevents.CoreProduct by default. Hosts
// can register additional instances under their own product names:
//
//	h := usage.New(usage.Options{Store: store, Logger: logger})
//	product.MustRegister("forms", h)
package usage

import (
	"context"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/randalmurphal/docevents/pkg/docevents/config"
	"github.com/randalmurphal/docevents/pkg/docevents/event"
	"github.com/randalmurphal/docevents/pkg/docevents/product"
	"github.com/randalmurphal/docevents/pkg/docevents/report"
)

// SummaryKey is the session scratch key Aggregate writes the Summary under.
const SummaryKey = "usage.summary"

// Summary counts one product's events for one closing document.
type Summary struct {
	Counts       map[string]int
	Total        int
	FirstEventAt time.Time
	LastEventAt  time.Time
}

// Options configures a Handler.
type Options struct {
	// Store receives one report per close. Nil disables persistence.
	Store report.Store
	// Logger receives a "usage report" record per close. Nil disables it.
	Logger *slog.Logger
	// IgnoreTypes lists event types excluded from counting.
	IgnoreTypes []string
}

// OptionsFromValues reads per-product options. Recognized keys:
// ignore_types (list of strings).
func OptionsFromValues(v config.Values) Options {
	return Options{
		IgnoreTypes: v.StringSlice("ignore_types", nil),
	}
}

// Handler is a product.Handler that reports event usage.
// It is safe for concurrent use across documents.
type Handler struct {
	store    report.Store
	logger   *slog.Logger
	ignore   map[string]struct{}
	received atomic.Int64
}

var _ product.Handler = (*Handler)(nil)

// New creates a usage handler.
func New(opts Options) *Handler {
	ignore := make(map[string]struct{}, len(opts.IgnoreTypes))
	for _, t := range opts.IgnoreTypes {
		ignore[t] = struct{}{}
	}
	return &Handler{
		store:  opts.Store,
		logger: opts.Logger,
		ignore: ignore,
	}
}

// Received returns how many events were emitted to the handler.
func (h *Handler) Received() int64 {
	return h.received.Load()
}

// Receive implements product.Handler.
func (h *Handler) Receive(_ context.Context, _ event.Event) error {
	h.received.Add(1)
	return nil
}

// Aggregate implements product.Handler. It stores a Summary in the session.
func (h *Handler) Aggregate(_ context.Context, session *product.ClosingSession) error {
	session.Set(SummaryKey, h.summarize(session.Events()))
	return nil
}

// Complete implements product.Handler. It turns the session's Summary into
// a report and saves it. A session without a Summary is summarized here.
func (h *Handler) Complete(ctx context.Context, session *product.ClosingSession) error {
	summary, ok := session.Property(SummaryKey).(Summary)
	if !ok {
		summary = h.summarize(session.Events())
	}

	r := &report.Report{
		DocumentID:   session.DocumentID().String(),
		Product:      session.ProductName(),
		Counts:       summary.Counts,
		Total:        summary.Total,
		FirstEventAt: summary.FirstEventAt,
		LastEventAt:  summary.LastEventAt,
	}

	if h.store != nil {
		if err := h.store.Save(ctx, r); err != nil {
			return fmt.Errorf("save usage report: %w", err)
		}
	}

	if h.logger != nil {
		h.logger.Info("usage report",
			slog.String("document_id", r.DocumentID),
			slog.String("product", r.Product),
			slog.Int("events", r.Total),
			slog.Int("types", len(r.Counts)),
		)
	}
	return nil
}

// summarize counts events by type, skipping ignored types.
func (h *Handler) summarize(events []event.Event) Summary {
	s := Summary{Counts: make(map[string]int)}
	for _, evt := range events {
		if _, skip := h.ignore[evt.Type()]; skip {
			continue
		}
		s.Counts[evt.Type()]++
		s.Total++

		ts := evt.Timestamp()
		if s.FirstEventAt.IsZero() || ts.Before(s.FirstEventAt) {
			s.FirstEventAt = ts
		}
		if ts.After(s.LastEventAt) {
			s.LastEventAt = ts
		}
	}
	return s
}
