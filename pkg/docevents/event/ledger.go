package event

import (
	"errors"
	"sync"
)

// ErrNoDocument indicates an event was recorded without a document identity.
var ErrNoDocument = errors.New("document identity is required")

// Ledger accumulates events per document until they are drained.
// A document appears in the ledger only while it has undrained events.
type Ledger struct {
	mu      sync.Mutex
	entries map[DocumentID][]Event
}

// NewLedger creates an empty ledger.
func NewLedger() *Ledger {
	return &Ledger{
		entries: make(map[DocumentID][]Event),
	}
}

// Record appends evt to the sequence for id, creating the entry if needed.
// Returns ErrNoDocument if id is the absent identity.
func (l *Ledger) Record(id DocumentID, evt Event) error {
	if id.IsZero() {
		return ErrNoDocument
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	l.entries[id] = append(l.entries[id], evt)
	return nil
}

// Drain removes and returns every event recorded for id, in insertion
// order. Returns nil if the document has no entry.
func (l *Ledger) Drain(id DocumentID) []Event {
	if id.IsZero() {
		return nil
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	events, ok := l.entries[id]
	if !ok {
		return nil
	}
	delete(l.entries, id)
	return events
}

// Peek returns a copy of the events recorded for id without removing them.
func (l *Ledger) Peek(id DocumentID) []Event {
	l.mu.Lock()
	defer l.mu.Unlock()
	events, ok := l.entries[id]
	if !ok {
		return nil
	}
	return append([]Event(nil), events...)
}

// Discard drops every event recorded for id.
func (l *Ledger) Discard(id DocumentID) {
	l.mu.Lock()
	defer l.mu.Unlock()
	delete(l.entries, id)
}

// Len returns the number of undrained events for id.
func (l *Ledger) Len(id DocumentID) int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.entries[id])
}

// Documents returns the identities that currently have undrained events.
// The order is not guaranteed.
func (l *Ledger) Documents() []DocumentID {
	l.mu.Lock()
	defer l.mu.Unlock()
	ids := make([]DocumentID, 0, len(l.entries))
	for id := range l.entries {
		ids = append(ids, id)
	}
	return ids
}

// DefaultLedger is the process-wide event ledger.
var DefaultLedger = NewLedger()
