package product

import (
	"context"

	"github.com/randalmurphal/docevents/pkg/docevents/event"
)

// Handler is the capability a product implements to take part in document
// close processing.
//
// Aggregate and Complete are called by the close orchestrator only. For one
// close, Aggregate is called at most once per product, and Complete is
// called exactly once after it. Every Aggregate call of a close finishes
// before any Complete call of that close starts. Handlers must not close
// other documents from inside Aggregate or Complete.
type Handler interface {
	// Receive is called when the product emits an event.
	Receive(ctx context.Context, evt event.Event) error

	// Aggregate summarizes the product's events into the session scratch.
	Aggregate(ctx context.Context, session *ClosingSession) error

	// Complete reads the session scratch and performs the terminal action.
	Complete(ctx context.Context, session *ClosingSession) error
}

// HandlerFuncs adapts functions to the Handler interface.
// Nil functions are no-ops.
type HandlerFuncs struct {
	OnReceive   func(ctx context.Context, evt event.Event) error
	OnAggregate func(ctx context.Context, session *ClosingSession) error
	OnComplete  func(ctx context.Context, session *ClosingSession) error
}

// Compile-time interface check.
var _ Handler = HandlerFuncs{}

// Receive implements Handler.
func (h HandlerFuncs) Receive(ctx context.Context, evt event.Event) error {
	if h.OnReceive == nil {
		return nil
	}
	return h.OnReceive(ctx, evt)
}

// Aggregate implements Handler.
func (h HandlerFuncs) Aggregate(ctx context.Context, session *ClosingSession) error {
	if h.OnAggregate == nil {
		return nil
	}
	return h.OnAggregate(ctx, session)
}

// Complete implements Handler.
func (h HandlerFuncs) Complete(ctx context.Context, session *ClosingSession) error {
	if h.OnComplete == nil {
		return nil
	}
	return h.OnComplete(ctx, session)
}
