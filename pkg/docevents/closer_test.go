package docevents_test

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/randalmurphal/docevents/pkg/docevents"
	"github.com/randalmurphal/docevents/pkg/docevents/event"
	"github.com/randalmurphal/docevents/pkg/docevents/observability"
	"github.com/randalmurphal/docevents/pkg/docevents/product"
)

type fixture struct {
	ledger   *event.Ledger
	handlers *product.Registry
	reporter *observability.RecordingReporter
	log      *callLog
	closer   *docevents.Closer
}

func newFixture(t *testing.T, opts ...docevents.Option) *fixture {
	t.Helper()
	f := &fixture{
		ledger:   event.NewLedger(),
		handlers: product.NewRegistry(),
		reporter: &observability.RecordingReporter{},
		log:      &callLog{},
	}
	opts = append([]docevents.Option{
		docevents.WithLogger(nil),
		docevents.WithReporter(f.reporter),
	}, opts...)
	f.closer = docevents.NewCloser(f.ledger, f.handlers, opts...)
	return f
}

func (f *fixture) register(t *testing.T, names ...string) []*fakeHandler {
	t.Helper()
	out := make([]*fakeHandler, 0, len(names))
	for _, name := range names {
		h := newFake(name, f.log)
		require.NoError(t, f.handlers.Register(name, h))
		out = append(out, h)
	}
	return out
}

func TestCloseDocument_TwoProducts(t *testing.T) {
	f := newFixture(t)
	f.register(t, "test-product-1", "test-product-2")

	doc := event.NewDocumentID()
	record(f.ledger, doc, "test-product-1", "test-product-2", "test-product-1", "test-product-2")

	require.NoError(t, f.closer.CloseDocument(context.Background(), doc))

	calls := f.log.all()
	require.Len(t, calls, 4)
	assert.ElementsMatch(t, []string{"test-product-1.aggregate", "test-product-2.aggregate"}, calls[:2])
	assert.ElementsMatch(t, []string{"test-product-1.complete", "test-product-2.complete"}, calls[2:])
	assert.Empty(t, f.reporter.Entries())
}

func TestCloseDocument_FirstAppearanceOrder(t *testing.T) {
	f := newFixture(t)
	f.register(t, "alpha", "beta", "gamma")

	doc := event.NewDocumentID()
	record(f.ledger, doc, "gamma", "alpha", "gamma", "beta")

	require.NoError(t, f.closer.CloseDocument(context.Background(), doc))
	assert.Equal(t, []string{
		"gamma.aggregate", "alpha.aggregate", "beta.aggregate",
		"gamma.complete", "alpha.complete", "beta.complete",
	}, f.log.all())
}

func TestCloseDocument_SessionPerProduct(t *testing.T) {
	f := newFixture(t)
	hs := f.register(t, "forms", "signing")
	forms, signing := hs[0], hs[1]

	doc := event.NewDocumentID()
	record(f.ledger, doc, "forms", "signing", "forms", "forms")

	require.NoError(t, f.closer.CloseDocument(context.Background(), doc))

	fs := forms.lastSession()
	require.NotNil(t, fs)
	assert.Equal(t, doc, fs.DocumentID())
	assert.Equal(t, "forms", fs.ProductName())
	assert.Equal(t, 3, fs.Property("count"))
	assert.Equal(t, 1, signing.lastSession().Property("count"))
	assert.NotSame(t, fs, signing.lastSession())

	for _, evt := range fs.Events() {
		assert.Equal(t, "forms", evt.ProductName())
	}
}

func TestCloseDocument_NoOp(t *testing.T) {
	t.Run("zero identity", func(t *testing.T) {
		f := newFixture(t)
		f.register(t, "forms")
		assert.NoError(t, f.closer.CloseDocument(context.Background(), event.DocumentID{}))
		assert.Empty(t, f.log.all())
	})

	t.Run("no events", func(t *testing.T) {
		f := newFixture(t)
		f.register(t, "forms")
		assert.NoError(t, f.closer.CloseDocument(context.Background(), event.NewDocumentID()))
		assert.Empty(t, f.log.all())
	})

	t.Run("nil document", func(t *testing.T) {
		f := newFixture(t)
		f.register(t, "forms")
		assert.NoError(t, f.closer.Close(context.Background(), nil))
		assert.Empty(t, f.log.all())
	})

	t.Run("nil close event", func(t *testing.T) {
		f := newFixture(t)
		assert.NoError(t, f.closer.Dispatch(context.Background(), nil))
		assert.NoError(t, f.closer.Dispatch(context.Background(), docevents.NewCloseDocumentEvent(nil)))
	})
}

func TestCloseDocument_DrainsOnce(t *testing.T) {
	f := newFixture(t)
	f.register(t, "forms")

	doc := docevents.NewHandle()
	record(f.ledger, doc.ID, "forms", "forms")

	require.NoError(t, f.closer.Close(context.Background(), doc))
	require.NoError(t, f.closer.Close(context.Background(), doc))

	assert.Equal(t, []string{"forms.aggregate", "forms.complete"}, f.log.all())
	assert.Equal(t, 0, f.ledger.Len(doc.ID))
}

func TestCloseDocument_UnknownProduct(t *testing.T) {
	f := newFixture(t)
	f.register(t, "forms")

	doc := event.NewDocumentID()
	record(f.ledger, doc, "ghost", "forms", "ghost", "ghost")

	require.NoError(t, f.closer.CloseDocument(context.Background(), doc))

	assert.Equal(t, []string{"forms.aggregate", "forms.complete"}, f.log.all())
	require.Equal(t, 1, f.reporter.Count(observability.UnknownProductInvolved))
	entry := f.reporter.Entries()[0]
	assert.Equal(t, []any{"ghost"}, entry.Args)
	assert.Equal(t, `unknown product "ghost" involved into document related event`, entry.Message)

	record(f.ledger, doc, "ghost")
	require.NoError(t, f.closer.CloseDocument(context.Background(), doc))
	assert.Equal(t, 2, f.reporter.Count(observability.UnknownProductInvolved), "one diagnostic per close")
}

func TestCloseDocument_OnlyUnknownProducts(t *testing.T) {
	f := newFixture(t)

	doc := event.NewDocumentID()
	record(f.ledger, doc, "ghost-1", "ghost-2")

	assert.NoError(t, f.closer.CloseDocument(context.Background(), doc))
	assert.Equal(t, 2, f.reporter.Count(observability.UnknownProductInvolved))
	assert.Empty(t, f.log.all())
}

func TestCloseDocument_AggregateFailureStillCompletes(t *testing.T) {
	f := newFixture(t)
	hs := f.register(t, "forms", "signing")
	hs[0].aggregateErr = errBoom

	doc := event.NewDocumentID()
	record(f.ledger, doc, "forms", "signing")

	err := f.closer.CloseDocument(context.Background(), doc)
	require.Error(t, err)

	assert.Equal(t, []string{
		"forms.aggregate", "signing.aggregate",
		"forms.complete", "signing.complete",
	}, f.log.all())

	var closeErr *docevents.CloseError
	require.ErrorAs(t, err, &closeErr)
	assert.Equal(t, doc, closeErr.DocumentID)
	require.Len(t, closeErr.Failures, 1)
	assert.Equal(t, "forms", closeErr.Failures[0].Product)
	assert.Equal(t, docevents.PhaseAggregate, closeErr.Failures[0].Phase)
	assert.ErrorIs(t, err, errBoom)

	require.Len(t, hs[0].seenAggErrs, 1)
	assert.ErrorIs(t, hs[0].seenAggErrs[0], errBoom, "complete sees the aggregate failure")
	assert.NoError(t, hs[1].seenAggErrs[0])
}

func TestCloseDocument_CollectsAllFailures(t *testing.T) {
	f := newFixture(t)
	hs := f.register(t, "a", "b", "c")
	hs[0].completeErr = errors.New("a complete")
	hs[1].aggregateErr = errors.New("b aggregate")
	hs[2].completeErr = errors.New("c complete")

	doc := event.NewDocumentID()
	record(f.ledger, doc, "a", "b", "c")

	err := f.closer.CloseDocument(context.Background(), doc)

	var closeErr *docevents.CloseError
	require.ErrorAs(t, err, &closeErr)
	require.Len(t, closeErr.Failures, 3)
	assert.Equal(t, "b", closeErr.Failures[0].Product)
	assert.Equal(t, docevents.PhaseAggregate, closeErr.Failures[0].Phase)
	assert.Equal(t, "a", closeErr.Failures[1].Product)
	assert.Equal(t, "c", closeErr.Failures[2].Product)
	assert.Contains(t, err.Error(), "3 handler failure(s)")
	assert.Len(t, f.log.all(), 6)
}

func TestCloseDocument_PanicRecovered(t *testing.T) {
	f := newFixture(t)
	hs := f.register(t, "forms", "signing")
	hs[0].panicOn = "aggregate"

	doc := event.NewDocumentID()
	record(f.ledger, doc, "forms", "signing")

	var err error
	assert.NotPanics(t, func() {
		err = f.closer.CloseDocument(context.Background(), doc)
	})
	require.Error(t, err)
	assert.ErrorIs(t, err, docevents.ErrHandlerPanic)

	var panicErr *docevents.PanicError
	require.ErrorAs(t, err, &panicErr)
	assert.Equal(t, "forms", panicErr.Product)
	assert.Equal(t, docevents.PhaseAggregate, panicErr.Phase)
	assert.Equal(t, "aggregate exploded", panicErr.Value)
	assert.NotEmpty(t, panicErr.Stack)

	assert.Equal(t, []string{
		"forms.aggregate", "signing.aggregate",
		"forms.complete", "signing.complete",
	}, f.log.all())
}

func TestCloseDocument_ParallelPhases(t *testing.T) {
	f := newFixture(t, docevents.WithParallelPhases(true))

	const n = 8
	names := make([]string, n)
	for i := range names {
		names[i] = fmt.Sprintf("product-%d", i)
	}
	hs := f.register(t, names...)
	hs[0].delay = 20 * time.Millisecond
	hs[3].completeErr = errBoom
	hs[6].completeErr = errBoom

	doc := event.NewDocumentID()
	record(f.ledger, doc, names...)

	err := f.closer.CloseDocument(context.Background(), doc)

	calls := f.log.all()
	require.Len(t, calls, 2*n)
	for i, call := range calls {
		if i < n {
			assert.Contains(t, call, ".aggregate")
		} else {
			assert.Contains(t, call, ".complete")
		}
	}

	var closeErr *docevents.CloseError
	require.ErrorAs(t, err, &closeErr)
	require.Len(t, closeErr.Failures, 2)
	assert.Equal(t, "product-3", closeErr.Failures[0].Product)
	assert.Equal(t, "product-6", closeErr.Failures[1].Product)
}

func TestCloseDocument_ConcurrentDocuments(t *testing.T) {
	f := newFixture(t)
	f.register(t, "forms")

	const docs = 25
	ids := make([]event.DocumentID, docs)
	for i := range ids {
		ids[i] = event.NewDocumentID()
		record(f.ledger, ids[i], "forms", "forms")
	}

	var wg sync.WaitGroup
	for _, id := range ids {
		wg.Add(1)
		go func(id event.DocumentID) {
			defer wg.Done()
			assert.NoError(t, f.closer.CloseDocument(context.Background(), id))
		}(id)
	}
	wg.Wait()

	assert.Len(t, f.log.all(), 2*docs)
}

func TestCloseDocument_Override(t *testing.T) {
	f := newFixture(t)
	hs := f.register(t, "forms")
	original := hs[0]

	doc := event.NewDocumentID()
	record(f.ledger, doc, "forms")

	replacement := newFake("forms-override", f.log)
	err := f.handlers.WithOverride(func(ov *product.Override) error {
		require.NoError(t, ov.Install("forms", replacement))
		if err := f.closer.CloseDocument(context.Background(), doc); err != nil {
			return err
		}
		return errBoom
	})
	assert.ErrorIs(t, err, errBoom)

	assert.Equal(t, []string{"forms-override.aggregate", "forms-override.complete"}, f.log.all())

	got, ok := f.handlers.Lookup("forms")
	require.True(t, ok)
	assert.Same(t, original, got, "binding restored after the scope failed")
}

func TestDispatch(t *testing.T) {
	f := newFixture(t)
	f.register(t, "forms")

	doc := docevents.NewHandle()
	record(f.ledger, doc.ID, "forms")

	evt := docevents.NewCloseDocumentEvent(doc)
	assert.Equal(t, docevents.CloseDocumentEventType, evt.Type())
	assert.Equal(t, docevents.CoreProduct, evt.ProductName())
	assert.Equal(t, doc, evt.Document())
	assert.False(t, evt.Timestamp().IsZero())

	require.NoError(t, f.closer.Dispatch(context.Background(), evt))
	assert.Equal(t, []string{"forms.aggregate", "forms.complete"}, f.log.all())
}

func TestNewCloserDefaults(t *testing.T) {
	c := docevents.NewCloser(nil, nil)
	assert.Same(t, event.DefaultLedger, c.Ledger())
	assert.Same(t, product.DefaultRegistry, c.Handlers())

	assert.True(t, product.DefaultRegistry.Has(docevents.CoreProduct), "usage handler registered at init")
}
