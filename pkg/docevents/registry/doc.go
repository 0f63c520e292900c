// Package registry provides a generic thread-safe map of key bindings with
// atomic swap and restore.
//
// # Basic Usage
//
//	r := registry.New[string, Handler]()
//	r.Register("forms", formsHandler)
//
//	h, ok := r.Get("forms")
//
// # Swap and Restore
//
// Swap replaces a binding and hands back the one it replaced. Feeding the
// returned bindings to Restore, newest first, puts the registry back
// exactly as it was, including keys that were previously unbound:
//
//	prev := r.Swap("forms", testHandler)
//	defer r.Restore(prev)
//
// Restore applies all of its bindings under one write lock, so concurrent
// readers see either the state before the restore or the state after it.
//
// # Thread Safety
//
// All Registry methods are safe for concurrent use. Snapshot copies every
// binding under one read lock.
package registry
