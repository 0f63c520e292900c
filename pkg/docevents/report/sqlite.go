package report

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	_ "modernc.org/sqlite" // Pure Go SQLite driver
)

// SQLiteStore persists reports to SQLite.
// It is suitable for single-process production use.
type SQLiteStore struct {
	db     *sql.DB
	mu     sync.RWMutex
	closed bool
}

// NewSQLiteStore creates a new SQLite report store.
// The path should be a file path (e.g., "./reports.db") or ":memory:" for testing.
func NewSQLiteStore(path string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	// ":memory:" databases are per connection
	db.SetMaxOpenConns(1)

	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("enable WAL mode: %w", err)
	}

	for _, stmt := range []string{
		`CREATE TABLE IF NOT EXISTS reports (
			id TEXT PRIMARY KEY,
			document_id TEXT NOT NULL,
			product TEXT NOT NULL,
			counts TEXT NOT NULL,
			total INTEGER NOT NULL,
			first_event_at TEXT NOT NULL,
			last_event_at TEXT NOT NULL,
			created_at TEXT NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_reports_document_id ON reports(document_id)`,
		`CREATE INDEX IF NOT EXISTS idx_reports_product ON reports(product, created_at)`,
	} {
		if _, err := db.Exec(stmt); err != nil {
			db.Close()
			return nil, fmt.Errorf("create schema: %w", err)
		}
	}

	return &SQLiteStore{db: db}, nil
}

// Save implements Store.
func (s *SQLiteStore) Save(ctx context.Context, r *Report) error {
	if r == nil {
		return errNilReport
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return ErrStoreClosed
	}

	prepare(r)
	counts, err := json.Marshal(r.Counts)
	if err != nil {
		return fmt.Errorf("encode counts: %w", err)
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO reports (id, document_id, product, counts, total, first_event_at, last_event_at, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			document_id = excluded.document_id,
			product = excluded.product,
			counts = excluded.counts,
			total = excluded.total,
			first_event_at = excluded.first_event_at,
			last_event_at = excluded.last_event_at,
			created_at = excluded.created_at
	`, r.ID, r.DocumentID, r.Product, string(counts), r.Total,
		formatTime(r.FirstEventAt), formatTime(r.LastEventAt), formatTime(r.CreatedAt))
	if err != nil {
		return fmt.Errorf("save report: %w", err)
	}
	return nil
}

const selectColumns = `SELECT id, document_id, product, counts, total, first_event_at, last_event_at, created_at FROM reports`

// Get implements Store.
func (s *SQLiteStore) Get(ctx context.Context, id string) (*Report, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.closed {
		return nil, ErrStoreClosed
	}

	r, err := scanReport(s.db.QueryRowContext(ctx, selectColumns+` WHERE id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("load report: %w", err)
	}
	return r, nil
}

// ListByDocument implements Store.
func (s *SQLiteStore) ListByDocument(ctx context.Context, documentID string) ([]*Report, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.closed {
		return nil, ErrStoreClosed
	}

	return s.query(ctx, selectColumns+` WHERE document_id = ? ORDER BY created_at ASC, id ASC`, documentID)
}

// ListByProduct implements Store.
func (s *SQLiteStore) ListByProduct(ctx context.Context, product string, limit int) ([]*Report, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.closed {
		return nil, ErrStoreClosed
	}

	if limit <= 0 {
		limit = -1 // SQLite: no limit
	}
	return s.query(ctx, selectColumns+` WHERE product = ? ORDER BY created_at DESC, id DESC LIMIT ?`, product, limit)
}

func (s *SQLiteStore) query(ctx context.Context, q string, args ...any) ([]*Report, error) {
	rows, err := s.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("list reports: %w", err)
	}
	defer rows.Close()

	var out []*Report
	for rows.Next() {
		r, err := scanReport(rows)
		if err != nil {
			return nil, fmt.Errorf("scan report: %w", err)
		}
		out = append(out, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate reports: %w", err)
	}
	return out, nil
}

// Close implements Store.
func (s *SQLiteStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil
	}

	s.closed = true
	return s.db.Close()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanReport(row scanner) (*Report, error) {
	var (
		r                    Report
		counts               string
		first, last, created string
	)
	if err := row.Scan(&r.ID, &r.DocumentID, &r.Product, &counts, &r.Total, &first, &last, &created); err != nil {
		return nil, err
	}
	if err := json.Unmarshal([]byte(counts), &r.Counts); err != nil {
		return nil, fmt.Errorf("decode counts: %w", err)
	}
	r.FirstEventAt = parseTime(first)
	r.LastEventAt = parseTime(last)
	r.CreatedAt = parseTime(created)
	return &r, nil
}

// timeLayout is fixed width so stored timestamps sort lexically.
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

func formatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(timeLayout)
}

func parseTime(s string) time.Time {
	if s == "" {
		return time.Time{}
	}
	t, _ := time.Parse(timeLayout, s)
	return t
}
