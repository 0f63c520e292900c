package docevents

import (
	"context"
	"errors"
	"runtime/debug"
	"sync"
	"time"

	"github.com/randalmurphal/docevents/pkg/docevents/event"
	"github.com/randalmurphal/docevents/pkg/docevents/observability"
	"github.com/randalmurphal/docevents/pkg/docevents/product"
)

// Closer records events against open documents and runs the two-phase
// close when a document closes. It is safe for concurrent use; closes of
// distinct documents run independently.
type Closer struct {
	ledger   *event.Ledger
	handlers *product.Registry
	cfg      closerConfig
}

// NewCloser creates a Closer over ledger and handlers. Nil arguments fall
// back to event.DefaultLedger and product.DefaultRegistry.
func NewCloser(ledger *event.Ledger, handlers *product.Registry, opts ...Option) *Closer {
	if ledger == nil {
		ledger = event.DefaultLedger
	}
	if handlers == nil {
		handlers = product.DefaultRegistry
	}

	cfg := defaultCloserConfig()
	for _, opt := range opts {
		opt(&cfg)
	}
	if cfg.reporter == nil {
		if cfg.logger != nil {
			cfg.reporter = observability.NewLogReporter(cfg.logger)
		} else {
			cfg.reporter = observability.NoopReporter{}
		}
	}

	return &Closer{ledger: ledger, handlers: handlers, cfg: cfg}
}

// Default returns a Closer over the process-wide ledger and registry.
func Default(opts ...Option) *Closer {
	return NewCloser(event.DefaultLedger, product.DefaultRegistry, opts...)
}

// Ledger returns the closer's event ledger.
func (c *Closer) Ledger() *event.Ledger {
	return c.ledger
}

// Handlers returns the closer's handler registry.
func (c *Closer) Handlers() *product.Registry {
	return c.handlers
}

// Emit records evt against the document and forwards it to the product's
// Receive. An unknown product still has its event recorded, so the close
// reports it, and Emit returns an *UnknownProductError.
func (c *Closer) Emit(ctx context.Context, id event.DocumentID, evt event.Event) error {
	if err := c.ledger.Record(id, evt); err != nil {
		return err
	}
	c.cfg.metrics.RecordEmit(ctx, evt.ProductName())

	h, ok := c.handlers.Lookup(evt.ProductName())
	if !ok {
		c.cfg.reporter.Report(ctx, observability.EventWithoutHandler, evt.ProductName(), evt.Type())
		return &UnknownProductError{Product: evt.ProductName(), EventType: evt.Type()}
	}

	start := time.Now()
	err := safeCall(evt.ProductName(), PhaseReceive, func() error {
		return h.Receive(ctx, evt)
	})
	c.cfg.metrics.RecordHandlerCall(ctx, evt.ProductName(), string(PhaseReceive), time.Since(start), err)
	if err != nil {
		observability.LogHandlerError(c.cfg.logger, id.String(), evt.ProductName(), string(PhaseReceive), err)
		return &HandlerError{Product: evt.ProductName(), Phase: PhaseReceive, Err: err}
	}
	return nil
}

// Close closes doc. A nil document is a no-op.
func (c *Closer) Close(ctx context.Context, doc Document) error {
	if doc == nil {
		return nil
	}
	return c.CloseDocument(ctx, doc.DocumentID())
}

// Dispatch handles a close-document lifecycle event. A nil event or an
// event without a document is a no-op.
func (c *Closer) Dispatch(ctx context.Context, evt *CloseDocumentEvent) error {
	if evt == nil {
		return nil
	}
	return c.Close(ctx, evt.Document())
}

// binding pairs an event-bearing product with its handler and session for
// one close.
type binding struct {
	product string
	handler product.Handler
	session *product.ClosingSession
}

// CloseDocument drains the document's events and runs the aggregation
// phase followed by the completion phase over every event-bearing product.
//
// Close flow:
//  1. Drain the ledger; a zero id or no events returns nil
//  2. Group events by product in order of first appearance
//  3. Resolve handlers; unknown products get one diagnostic and are skipped
//  4. Aggregate every product, then Complete every product
//
// Handler errors and panics never stop other handlers. They are returned
// together as a *CloseError once both phases ran.
func (c *Closer) CloseDocument(ctx context.Context, id event.DocumentID) (closeErr error) {
	if id.IsZero() {
		return nil
	}
	events := c.ledger.Drain(id)
	if len(events) == 0 {
		return nil
	}

	docID := id.String()
	done := observability.TimedOperation()
	start := time.Now()
	observability.LogCloseStart(c.cfg.logger, docID, len(events))

	ctx, span := c.cfg.spans.StartCloseSpan(ctx, docID, len(events))
	defer func() {
		c.cfg.spans.EndSpanWithError(span, closeErr)
	}()

	bindings := c.resolve(ctx, id, events)

	var failures []*HandlerError
	failures = append(failures, c.runPhase(ctx, docID, PhaseAggregate, bindings)...)
	failures = append(failures, c.runPhase(ctx, docID, PhaseComplete, bindings)...)

	if len(failures) > 0 {
		closeErr = &CloseError{DocumentID: id, Failures: failures}
	}
	c.cfg.metrics.RecordClose(ctx, len(bindings), len(events), time.Since(start), closeErr)

	if closeErr != nil {
		observability.LogCloseError(c.cfg.logger, docID, closeErr, done())
	} else {
		observability.LogCloseComplete(c.cfg.logger, docID, done(), len(bindings))
	}
	return closeErr
}

// resolve groups events and looks up every handler from one registry
// snapshot, so both phases of a close use the same handlers even if the
// registry changes.
func (c *Closer) resolve(ctx context.Context, id event.DocumentID, events []event.Event) []binding {
	names, groups := event.GroupByProduct(events)
	bindings := make([]binding, 0, len(names))
	bound := c.handlers.Snapshot()
	for _, name := range names {
		h, ok := bound[name]
		if !ok {
			c.cfg.reporter.Report(ctx, observability.UnknownProductInvolved, name)
			c.cfg.metrics.RecordUnknownProduct(ctx, name)
			observability.LogUnknownProduct(c.cfg.logger, id.String(), name, len(groups[name]))
			continue
		}
		bindings = append(bindings, binding{
			product: name,
			handler: h,
			session: product.NewClosingSession(id, name, groups[name]),
		})
	}
	return bindings
}

// runPhase calls every binding's handler for phase and returns the faults
// in binding order.
func (c *Closer) runPhase(ctx context.Context, docID string, phase Phase, bindings []binding) []*HandlerError {
	if len(bindings) == 0 {
		return nil
	}

	phaseCtx, span := c.cfg.spans.StartPhaseSpan(ctx, string(phase), len(bindings))
	results := make([]*HandlerError, len(bindings))

	if c.cfg.parallel && len(bindings) > 1 {
		var wg sync.WaitGroup
		for i := range bindings {
			wg.Add(1)
			go func(i int) {
				defer wg.Done()
				results[i] = c.invoke(phaseCtx, docID, phase, &bindings[i])
			}(i)
		}
		wg.Wait()
	} else {
		for i := range bindings {
			results[i] = c.invoke(phaseCtx, docID, phase, &bindings[i])
		}
	}

	var failures []*HandlerError
	var errs []error
	for _, r := range results {
		if r != nil {
			failures = append(failures, r)
			errs = append(errs, r)
		}
	}
	c.cfg.spans.EndSpanWithError(span, errors.Join(errs...))
	return failures
}

// invoke runs one handler call with tracing, metrics, and panic recovery.
func (c *Closer) invoke(ctx context.Context, docID string, phase Phase, b *binding) *HandlerError {
	handlerCtx, span := c.cfg.spans.StartHandlerSpan(ctx, b.product, string(phase))
	start := time.Now()

	err := safeCall(b.product, phase, func() error {
		if phase == PhaseAggregate {
			return b.handler.Aggregate(handlerCtx, b.session)
		}
		return b.handler.Complete(handlerCtx, b.session)
	})
	if phase == PhaseAggregate {
		b.session.SetAggregationErr(err)
	}

	c.cfg.metrics.RecordHandlerCall(handlerCtx, b.product, string(phase), time.Since(start), err)
	c.cfg.spans.EndSpanWithError(span, err)

	if err == nil {
		return nil
	}
	observability.LogHandlerError(c.cfg.logger, docID, b.product, string(phase), err)
	return &HandlerError{Product: b.product, Phase: phase, Err: err}
}

// safeCall runs fn, converting a panic into a *PanicError.
func safeCall(productName string, phase Phase, fn func() error) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = &PanicError{
				Product: productName,
				Phase:   phase,
				Value:   r,
				Stack:   string(debug.Stack()),
			}
		}
	}()
	return fn()
}

var (
	defaultCloser     *Closer
	defaultCloserOnce sync.Once
)

func getDefaultCloser() *Closer {
	defaultCloserOnce.Do(func() {
		defaultCloser = Default()
	})
	return defaultCloser
}

// Emit records evt on the process-wide closer.
func Emit(ctx context.Context, id event.DocumentID, evt event.Event) error {
	return getDefaultCloser().Emit(ctx, id, evt)
}

// CloseDocument closes id on the process-wide closer.
func CloseDocument(ctx context.Context, id event.DocumentID) error {
	return getDefaultCloser().CloseDocument(ctx, id)
}

// Close closes doc on the process-wide closer.
func Close(ctx context.Context, doc Document) error {
	return getDefaultCloser().Close(ctx, doc)
}
