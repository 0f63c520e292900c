// Package product defines the capability every usage-emitting product
// implements, and the registry that binds product names to handlers.
//
// # Handlers
//
// A Handler receives events as they are emitted, and takes part in the two
// close phases of every document it recorded events against:
//
//	type formsHandler struct{}
//
//	func (formsHandler) Receive(ctx context.Context, evt event.Event) error { return nil }
//
//	func (formsHandler) Aggregate(ctx context.Context, s *product.ClosingSession) error {
//	    s.Set("fields", len(s.Events()))
//	    return nil
//	}
//
//	func (formsHandler) Complete(ctx context.Context, s *product.ClosingSession) error {
//	    log.Printf("flattened %v fields", s.Property("fields"))
//	    return nil
//	}
//
// HandlerFuncs adapts plain functions when a full type is overkill.
//
// # Registry
//
// Registry maps product names to handlers. DefaultRegistry is the
// process-wide instance populated with the built-in handlers:
//
//	product.MustRegister("forms", formsHandler{})
//
// # Scoped Overrides
//
// AcquireOverride returns a handle that installs bindings temporarily.
// Release puts every binding back exactly as it was, newest first:
//
//	ov := registry.AcquireOverride()
//	defer ov.Release()
//
//	ov.Install("forms", recordingHandler)
//
// WithOverride runs a function under an override and releases it on every
// exit path, including panics.
package product
