package audit

import "context"

// Entry records a single processed agent callback (or API action) for the
// audit trail.
type Entry struct {
	EntryID         string `json:"entry_id"`
	Timestamp       int64  `json:"timestamp"`
	Action          string `json:"action"`
	InvestigationID string `json:"investigation_id"`
	Parameters      string `json:"parameters"`
	Result          string `json:"result"`
	Warning         string `json:"warning"`
	Error           string `json:"error_message"`
	DurationMs      int64  `json:"duration_ms"`
	Status          string `json:"status"` // "success", "warning" or "error"
}

// Logger writes audit entries to storage.
type Logger interface {
	Log(ctx context.Context, entry *Entry) error
	LogAsync(entry *Entry)
	Close() error
}
