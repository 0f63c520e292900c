package observability

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
)

// DiagnosticID identifies a diagnostic message independently of its text.
type DiagnosticID string

// Diagnostic identifiers.
const (
	// UnknownProductInvolved is reported once per unknown product per close.
	// Args: product name.
	UnknownProductInvolved DiagnosticID = "unknown-product-involved"

	// EventWithoutHandler is reported when an event is emitted for a product
	// with no registered handler. Args: product name, event type.
	EventWithoutHandler DiagnosticID = "event-without-handler"
)

var diagnosticTemplates = map[DiagnosticID]string{
	UnknownProductInvolved: "unknown product %q involved into document related event",
	EventWithoutHandler:    "event %[2]q emitted by product %[1]q with no registered handler",
}

// Message renders the diagnostic text for id with args.
// Unknown identifiers render as the id followed by the args.
func (id DiagnosticID) Message(args ...any) string {
	tmpl, ok := diagnosticTemplates[id]
	if !ok {
		if len(args) == 0 {
			return string(id)
		}
		return fmt.Sprintf("%s: %v", id, args)
	}
	return fmt.Sprintf(tmpl, args...)
}

// Reporter receives diagnostics. Implementations must be safe for
// concurrent use and must not fail.
type Reporter interface {
	Report(ctx context.Context, id DiagnosticID, args ...any)
}

// LogReporter writes diagnostics to a slog logger at WARN level.
type LogReporter struct {
	logger *slog.Logger
}

// Compile-time interface check.
var _ Reporter = (*LogReporter)(nil)

// NewLogReporter creates a reporter writing to logger.
// A nil logger uses slog.Default().
func NewLogReporter(logger *slog.Logger) *LogReporter {
	if logger == nil {
		logger = slog.Default()
	}
	return &LogReporter{logger: logger}
}

// Report implements Reporter.
func (r *LogReporter) Report(ctx context.Context, id DiagnosticID, args ...any) {
	r.logger.WarnContext(ctx, id.Message(args...),
		slog.String("diagnostic", string(id)),
	)
}

// NoopReporter discards diagnostics.
type NoopReporter struct{}

// Compile-time interface check.
var _ Reporter = NoopReporter{}

// Report does nothing.
func (NoopReporter) Report(context.Context, DiagnosticID, ...any) {}

// Diagnostic is one recorded report.
type Diagnostic struct {
	ID      DiagnosticID
	Args    []any
	Message string
}

// RecordingReporter keeps every diagnostic in memory.
type RecordingReporter struct {
	mu      sync.Mutex
	entries []Diagnostic
}

// Compile-time interface check.
var _ Reporter = (*RecordingReporter)(nil)

// Report implements Reporter.
func (r *RecordingReporter) Report(_ context.Context, id DiagnosticID, args ...any) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.entries = append(r.entries, Diagnostic{
		ID:      id,
		Args:    append([]any(nil), args...),
		Message: id.Message(args...),
	})
}

// Entries returns a copy of the recorded diagnostics.
func (r *RecordingReporter) Entries() []Diagnostic {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Diagnostic(nil), r.entries...)
}

// Count returns how many diagnostics with id were reported.
func (r *RecordingReporter) Count(id DiagnosticID) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for _, d := range r.entries {
		if d.ID == id {
			n++
		}
	}
	return n
}

// Reset drops every recorded diagnostic.
func (r *RecordingReporter) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.entries = nil
}
