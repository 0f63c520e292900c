package report

import (
	"context"
	"errors"
	"sort"
	"sync"
)

var errNilReport = errors.New("nil report")

// MemoryStore is an in-memory report store.
// Data is lost when the process exits.
type MemoryStore struct {
	mu      sync.RWMutex
	reports map[string]*Report
	closed  bool
}

// NewMemoryStore creates a new in-memory report store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		reports: make(map[string]*Report),
	}
}

// Save implements Store.
func (m *MemoryStore) Save(_ context.Context, r *Report) error {
	if r == nil {
		return errNilReport
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return ErrStoreClosed
	}

	prepare(r)
	// Copy to avoid retaining the caller's map
	m.reports[r.ID] = r.clone()
	return nil
}

// Get implements Store.
func (m *MemoryStore) Get(_ context.Context, id string) (*Report, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.closed {
		return nil, ErrStoreClosed
	}

	r, ok := m.reports[id]
	if !ok {
		return nil, ErrNotFound
	}
	return r.clone(), nil
}

// ListByDocument implements Store.
func (m *MemoryStore) ListByDocument(_ context.Context, documentID string) ([]*Report, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.closed {
		return nil, ErrStoreClosed
	}

	var out []*Report
	for _, r := range m.reports {
		if r.DocumentID == documentID {
			out = append(out, r.clone())
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.Before(out[j].CreatedAt)
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

// ListByProduct implements Store.
func (m *MemoryStore) ListByProduct(_ context.Context, product string, limit int) ([]*Report, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.closed {
		return nil, ErrStoreClosed
	}

	var out []*Report
	for _, r := range m.reports {
		if r.Product == product {
			out = append(out, r.clone())
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.After(out[j].CreatedAt)
		}
		return out[i].ID > out[j].ID
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

// Close implements Store.
func (m *MemoryStore) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.closed = true
	m.reports = nil
	return nil
}

// Len returns the number of stored reports.
func (m *MemoryStore) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.reports)
}
