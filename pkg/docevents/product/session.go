package product

import "github.com/randalmurphal/docevents/pkg/docevents/event"

// ClosingSession carries one product's state from its Aggregate call to its
// Complete call during one document close. A session is never shared
// across products or documents and is not safe for concurrent use.
type ClosingSession struct {
	documentID   event.DocumentID
	productName  string
	events       []event.Event
	scratch      map[string]any
	aggregateErr error
}

// NewClosingSession creates a session for productName on a closing document.
// events are the product's own events, in recorded order.
func NewClosingSession(documentID event.DocumentID, productName string, events []event.Event) *ClosingSession {
	return &ClosingSession{
		documentID:  documentID,
		productName: productName,
		events:      events,
		scratch:     make(map[string]any),
	}
}

// DocumentID returns the identity of the closing document.
func (s *ClosingSession) DocumentID() event.DocumentID {
	return s.documentID
}

// ProductName returns the product this session belongs to.
func (s *ClosingSession) ProductName() string {
	return s.productName
}

// Events returns a copy of the product's events for the closing document.
func (s *ClosingSession) Events() []event.Event {
	return append([]event.Event(nil), s.events...)
}

// EventCount returns the number of events the product recorded.
func (s *ClosingSession) EventCount() int {
	return len(s.events)
}

// Set stores a scratch value.
func (s *ClosingSession) Set(key string, value any) {
	s.scratch[key] = value
}

// Get returns a scratch value and whether it was set.
func (s *ClosingSession) Get(key string) (any, bool) {
	v, ok := s.scratch[key]
	return v, ok
}

// Property returns a scratch value, or nil if it was never set.
func (s *ClosingSession) Property(key string) any {
	return s.scratch[key]
}

// AggregationErr returns the error the product's Aggregate call returned
// for this close, or nil.
func (s *ClosingSession) AggregationErr() error {
	return s.aggregateErr
}

// SetAggregationErr records the outcome of the Aggregate call. It is called
// by the close orchestrator before Complete.
func (s *ClosingSession) SetAggregationErr(err error) {
	s.aggregateErr = err
}
