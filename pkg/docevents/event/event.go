package event

import (
	"time"

	"github.com/google/uuid"
)

// Event is one occurrence recorded by a product against a document.
// Events are immutable once created.
type Event struct {
	id          string
	productName string
	eventType   string
	payload     any
	timestamp   time.Time
}

// ID returns the unique event identifier.
func (e Event) ID() string {
	return e.id
}

// ProductName returns the name of the product that emitted the event.
func (e Event) ProductName() string {
	return e.productName
}

// Type returns the event type (e.g., "page.rendered").
func (e Event) Type() string {
	return e.eventType
}

// Payload returns the free-form event metadata.
func (e Event) Payload() any {
	return e.payload
}

// Timestamp returns when the event occurred.
func (e Event) Timestamp() time.Time {
	return e.timestamp
}

// Option configures event creation.
type Option func(*eventConfig)

type eventConfig struct {
	id        string
	timestamp time.Time
}

// WithEventID sets a specific event ID (default: auto-generated UUID).
func WithEventID(id string) Option {
	return func(cfg *eventConfig) {
		cfg.id = id
	}
}

// WithTimestamp sets a specific timestamp (default: time.Now()).
func WithTimestamp(t time.Time) Option {
	return func(cfg *eventConfig) {
		cfg.timestamp = t
	}
}

// New creates an event emitted by productName.
func New(productName, eventType string, payload any, opts ...Option) Event {
	cfg := &eventConfig{}
	for _, opt := range opts {
		opt(cfg)
	}
	if cfg.id == "" {
		cfg.id = uuid.New().String()
	}
	if cfg.timestamp.IsZero() {
		cfg.timestamp = time.Now()
	}

	return Event{
		id:          cfg.id,
		productName: productName,
		eventType:   eventType,
		payload:     payload,
		timestamp:   cfg.timestamp,
	}
}

// GroupByProduct splits events by product name. The returned names are in
// order of first appearance; each group keeps the original relative order.
func GroupByProduct(events []Event) (names []string, groups map[string][]Event) {
	groups = make(map[string][]Event)
	for _, evt := range events {
		name := evt.productName
		if _, seen := groups[name]; !seen {
			names = append(names, name)
		}
		groups[name] = append(groups[name], evt)
	}
	return names, groups
}
