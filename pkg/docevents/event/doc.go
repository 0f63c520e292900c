// Package event provides the usage event primitives for docevents.
//
// # Overview
//
// Products emit events against an open document. Each event is tagged with
// the emitting product's name and an event type, and carries a free-form
// payload:
//
//	evt := event.New("forms", "field.flattened", map[string]any{"fields": 3})
//
// # Document Identity
//
// DocumentID is an opaque, comparable token minted once per open document.
// The zero value means "no document":
//
//	id := event.NewDocumentID()
//	id.IsZero() // false
//
//	var none event.DocumentID
//	none.IsZero() // true
//
// # Ledger
//
// Ledger accumulates events per document until the document closes:
//
//	ledger := event.NewLedger()
//	ledger.Record(id, evt)
//
//	// On close, take everything recorded so far
//	events := ledger.Drain(id)
//
// Drain removes the entry atomically. Each recorded event is returned by
// exactly one Drain call; a second Drain for the same document returns nil
// until new events are recorded.
//
// # Thread Safety
//
// Ledger is safe for concurrent use. Events are immutable values and can be
// shared freely between goroutines.
package event
