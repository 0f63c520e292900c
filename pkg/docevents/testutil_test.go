package docevents_test

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/randalmurphal/docevents/pkg/docevents/event"
	"github.com/randalmurphal/docevents/pkg/docevents/product"
)

// callLog records handler calls across products in call order.
type callLog struct {
	mu    sync.Mutex
	calls []string
}

func (l *callLog) add(call string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.calls = append(l.calls, call)
}

func (l *callLog) all() []string {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]string(nil), l.calls...)
}

// fakeHandler logs every call as "<product>.<phase>".
type fakeHandler struct {
	name string
	log  *callLog

	receiveErr   error
	aggregateErr error
	completeErr  error
	panicOn      string
	delay        time.Duration

	mu          sync.Mutex
	received    []event.Event
	sessions    []*product.ClosingSession
	seenAggErrs []error
}

func newFake(name string, log *callLog) *fakeHandler {
	return &fakeHandler{name: name, log: log}
}

func (h *fakeHandler) Receive(_ context.Context, evt event.Event) error {
	h.log.add(h.name + ".receive")
	if h.panicOn == "receive" {
		panic("receive exploded")
	}
	h.mu.Lock()
	h.received = append(h.received, evt)
	h.mu.Unlock()
	return h.receiveErr
}

func (h *fakeHandler) Aggregate(_ context.Context, s *product.ClosingSession) error {
	if h.delay > 0 {
		time.Sleep(h.delay)
	}
	h.log.add(h.name + ".aggregate")
	if h.panicOn == "aggregate" {
		panic("aggregate exploded")
	}
	s.Set("count", s.EventCount())
	h.mu.Lock()
	h.sessions = append(h.sessions, s)
	h.mu.Unlock()
	return h.aggregateErr
}

func (h *fakeHandler) Complete(_ context.Context, s *product.ClosingSession) error {
	h.log.add(h.name + ".complete")
	if h.panicOn == "complete" {
		panic("complete exploded")
	}
	h.mu.Lock()
	h.seenAggErrs = append(h.seenAggErrs, s.AggregationErr())
	h.mu.Unlock()
	return h.completeErr
}

func (h *fakeHandler) lastSession() *product.ClosingSession {
	h.mu.Lock()
	defer h.mu.Unlock()
	if len(h.sessions) == 0 {
		return nil
	}
	return h.sessions[len(h.sessions)-1]
}

var errBoom = errors.New("boom")

// record adds events straight to the ledger, bypassing Receive.
func record(ledger *event.Ledger, id event.DocumentID, products ...string) {
	for _, p := range products {
		if err := ledger.Record(id, event.New(p, "test-event", nil)); err != nil {
			panic(err)
		}
	}
}
