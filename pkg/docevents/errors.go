package docevents

import (
	"errors"
	"fmt"
	"strings"

	"github.com/randalmurphal/docevents/pkg/docevents/event"
)

// Sentinel errors for emission and close.
var (
	// ErrUnknownProduct indicates an event named a product with no registered handler.
	ErrUnknownProduct = errors.New("unknown product")

	// ErrHandlerPanic indicates a product handler panicked.
	ErrHandlerPanic = errors.New("product handler panicked")
)

// Phase names the handler operation being run.
type Phase string

// Handler phases.
const (
	PhaseReceive   Phase = "receive"
	PhaseAggregate Phase = "aggregate"
	PhaseComplete  Phase = "complete"
)

// HandlerError wraps an error with product and phase context.
type HandlerError struct {
	// Product is the product whose handler failed.
	Product string
	// Phase is the operation that failed.
	Phase Phase
	// Err is the underlying error, a *PanicError if the handler panicked.
	Err error
}

// Error implements the error interface.
func (e *HandlerError) Error() string {
	return fmt.Sprintf("product %s: %s: %v", e.Product, e.Phase, e.Err)
}

// Unwrap returns the underlying error for errors.Is/As support.
func (e *HandlerError) Unwrap() error {
	return e.Err
}

// PanicError captures panic information from a handler call.
// It includes the stack trace for debugging.
type PanicError struct {
	// Product is the product whose handler panicked.
	Product string
	// Phase is the operation that panicked.
	Phase Phase
	// Value is the value passed to panic().
	Value any
	// Stack is the full stack trace at the point of panic.
	Stack string
}

// Error implements the error interface.
func (e *PanicError) Error() string {
	return fmt.Sprintf("product %s panicked during %s: %v", e.Product, e.Phase, e.Value)
}

// Unwrap returns ErrHandlerPanic for errors.Is support.
func (e *PanicError) Unwrap() error {
	return ErrHandlerPanic
}

// UnknownProductError is returned by Emit when no handler is registered for
// the event's product. The event is still recorded.
type UnknownProductError struct {
	Product   string
	EventType string
}

// Error implements the error interface.
func (e *UnknownProductError) Error() string {
	return fmt.Sprintf("unknown product %q for event %q", e.Product, e.EventType)
}

// Unwrap returns ErrUnknownProduct for errors.Is support.
func (e *UnknownProductError) Unwrap() error {
	return ErrUnknownProduct
}

// CloseError reports every handler fault of one document close. Failures
// are in phase order, then in canonical product order.
type CloseError struct {
	DocumentID event.DocumentID
	Failures   []*HandlerError
}

// Error implements the error interface.
func (e *CloseError) Error() string {
	msgs := make([]string, len(e.Failures))
	for i, f := range e.Failures {
		msgs[i] = f.Error()
	}
	return fmt.Sprintf("close document %s: %d handler failure(s): %s",
		e.DocumentID, len(e.Failures), strings.Join(msgs, "; "))
}

// Unwrap returns the failures for errors.Is/As support.
func (e *CloseError) Unwrap() []error {
	errs := make([]error, len(e.Failures))
	for i, f := range e.Failures {
		errs[i] = f
	}
	return errs
}
