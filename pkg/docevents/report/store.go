// Package report persists per-document usage reports produced when a
// document closes.
package report

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
)

// Store persists usage reports.
// Implementations must be safe for concurrent use.
type Store interface {
	// Save stores a report. A report with an empty ID is assigned one.
	// Saving an existing ID overwrites it.
	Save(ctx context.Context, r *Report) error

	// Get retrieves a report by ID.
	// Returns ErrNotFound if the report doesn't exist.
	Get(ctx context.Context, id string) (*Report, error)

	// ListByDocument returns every report for a document, oldest first.
	// Returns empty slice (not error) if the document has no reports.
	ListByDocument(ctx context.Context, documentID string) ([]*Report, error)

	// ListByProduct returns the most recent reports for a product, newest
	// first. A limit <= 0 means no limit.
	ListByProduct(ctx context.Context, product string, limit int) ([]*Report, error)

	// Close releases any resources (connections, files).
	Close() error
}

// Report summarizes the events one product saw for one document.
type Report struct {
	ID           string
	DocumentID   string
	Product      string
	Counts       map[string]int
	Total        int
	FirstEventAt time.Time
	LastEventAt  time.Time
	CreatedAt    time.Time
}

// Sentinel errors for report operations.
var (
	// ErrNotFound indicates a report doesn't exist.
	ErrNotFound = errors.New("report not found")

	// ErrStoreClosed indicates the store has been closed.
	ErrStoreClosed = errors.New("report store closed")
)

// prepare fills defaults before a save.
func prepare(r *Report) {
	if r.ID == "" {
		r.ID = uuid.NewString()
	}
	if r.CreatedAt.IsZero() {
		r.CreatedAt = time.Now().UTC()
	}
}

func (r *Report) clone() *Report {
	c := *r
	if r.Counts != nil {
		c.Counts = make(map[string]int, len(r.Counts))
		for k, v := range r.Counts {
			c.Counts[k] = v
		}
	}
	return &c
}
