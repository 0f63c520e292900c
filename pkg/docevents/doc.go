/*
Package docevents collects lifecycle events that products raise against an
open document and delivers them to each product's handler when the
document closes.

# Overview

A product is a named component, such as a forms plugin or a signing
plugin, that emits events while a document is open. Each product owns a
product.Handler. Events are recorded per document in an event.Ledger.
Closing the document drains the ledger and runs two passes over the
products that recorded events:

  - Aggregation: every product summarizes its own events
  - Completion: every product finalizes, after all aggregations finished

Each product gets a product.ClosingSession that carries state from its
Aggregate call to its Complete call.

# Basic Usage

	handlers := product.NewRegistry()
	handlers.MustRegister("forms", formsHandler)

	closer := docevents.NewCloser(event.NewLedger(), handlers)

	doc := docevents.NewHandle()
	err := closer.Emit(ctx, doc.ID, event.New("forms", "field-filled", payload))
	// ...
	err = closer.Close(ctx, doc)

# Unknown Products

Events may name a product with no registered handler. Emit still records
them and returns an *UnknownProductError. On close such a product gets one
observability.UnknownProductInvolved diagnostic and no handler calls. Other
products are unaffected.

# Failures

A handler error or panic never stops other handlers, and a product whose
Aggregate failed still gets its Complete call. All faults of one close are
returned together as a *CloseError:

	var closeErr *docevents.CloseError
	if errors.As(err, &closeErr) {
	    for _, f := range closeErr.Failures {
	        log.Printf("%s %s: %v", f.Product, f.Phase, f.Err)
	    }
	}

	if errors.Is(err, docevents.ErrHandlerPanic) {
	    // at least one handler panicked
	}

# Overrides

Tests and hosts can rebind handlers temporarily. Release restores every
previous binding in one step:

	err := handlers.WithOverride(func(ov *product.Override) error {
	    ov.Install("forms", fakeForms)
	    return closer.Close(ctx, doc)
	})

# Configuration

Setup builds a Runtime from config.Settings: logger, report store, OTLP
tracing, and a registry holding the usage handler under CoreProduct.

	settings, err := config.Load("docevents.yaml")
	rt, err := docevents.Setup(ctx, settings)
	defer rt.Shutdown(ctx)

# Thread Safety

Closer, event.Ledger, and product.Registry are safe for concurrent use.
Closes of distinct documents run fully in parallel. A ClosingSession
belongs to one product in one close and must not be shared.
*/
package docevents
