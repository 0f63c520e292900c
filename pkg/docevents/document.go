package docevents

import (
	"time"

	"github.com/randalmurphal/docevents/pkg/docevents/event"
)

// CoreProduct is the product name of the built-in usage handler and of
// lifecycle events raised by docevents itself.
const CoreProduct = "docevents-core"

// CloseDocumentEventType is the type of CloseDocumentEvent.
const CloseDocumentEventType = "close-document-event"

// Document is an open document instance.
type Document interface {
	DocumentID() event.DocumentID
}

// Handle is a minimal Document holding only its identity.
type Handle struct {
	ID event.DocumentID
}

// NewHandle returns a Handle with a fresh identity.
func NewHandle() Handle {
	return Handle{ID: event.NewDocumentID()}
}

// DocumentID implements Document.
func (h Handle) DocumentID() event.DocumentID {
	return h.ID
}

// CloseDocumentEvent announces that a document is closing.
// Dispatch it with Closer.Dispatch.
type CloseDocumentEvent struct {
	doc       Document
	timestamp time.Time
}

// NewCloseDocumentEvent creates a close event for doc.
func NewCloseDocumentEvent(doc Document) *CloseDocumentEvent {
	return &CloseDocumentEvent{doc: doc, timestamp: time.Now()}
}

// Type returns CloseDocumentEventType.
func (e *CloseDocumentEvent) Type() string {
	return CloseDocumentEventType
}

// ProductName returns CoreProduct.
func (e *CloseDocumentEvent) ProductName() string {
	return CoreProduct
}

// Document returns the closing document.
func (e *CloseDocumentEvent) Document() Document {
	return e.doc
}

// Timestamp returns when the event was created.
func (e *CloseDocumentEvent) Timestamp() time.Time {
	return e.timestamp
}
