package evidence

import (
	"context"
	"io"
	"time"
)

// Outcomes recorded for a chat request. The first three mirror the relay's
// own outcomes; OutcomeRejected marks requests answered with a JSON error
// before any stream started.
const (
	OutcomeCompleted = "completed"
	OutcomeFailed    = "failed"
	OutcomeCancelled = "cancelled"
	OutcomeRejected  = "rejected"
)

// RelayRecord is the audit trail of a single POST /api/chat request. It never
// carries message content: only counts, a hash of the conversation and the
// timing of the relay.
type RelayRecord struct {
	// Identity
	ID        string `json:"id"`                   // UUID v4
	RequestID string `json:"request_id"`           // From the request id middleware
	SessionID string `json:"session_id,omitempty"` // Client supplied sessionId

	// Upstream
	Backend string `json:"backend"` // Completion source name
	Model   string `json:"model"`   // Model sent upstream

	// Request content summary
	Messages         int    `json:"messages"`          // Message count
	SystemPrompt     bool   `json:"system_prompt"`     // Whether a system prompt was prepended
	ConversationHash string `json:"conversation_hash"` // SHA-256 of the conversation

	// Result
	Outcome    string `json:"outcome"`              // completed, failed, cancelled, rejected
	TokensSent int    `json:"tokens_sent"`          // Data events written
	StatusCode int    `json:"status_code"`          // HTTP status sent
	Error      string `json:"error,omitempty"`      // Error message if the request failed
	ErrorType  string `json:"error_type,omitempty"` // auth, rate_limit, timeout, ...

	// Timing
	RequestTime       time.Time     `json:"request_time"`        // When the request arrived
	FirstTokenLatency time.Duration `json:"first_token_latency"` // 0 when no token was sent
	Duration          time.Duration `json:"duration"`            // Request to last event
	RecordedTime      time.Time     `json:"recorded_time"`       // When the record was written
}

// Query defines filter parameters for querying relay records.
type Query struct {
	// Time range
	StartTime *time.Time `json:"start_time,omitempty"` // Inclusive start time
	EndTime   *time.Time `json:"end_time,omitempty"`   // Inclusive end time

	// Filters
	RequestID string `json:"request_id,omitempty"`
	SessionID string `json:"session_id,omitempty"`
	Backend   string `json:"backend,omitempty"`
	Model     string `json:"model,omitempty"`
	Outcome   string `json:"outcome,omitempty"`

	// Pagination
	Limit  int `json:"limit,omitempty"`  // Max records to return, 0 for all
	Offset int `json:"offset,omitempty"` // Skip N records

	// Sorting
	SortBy    string `json:"sort_by,omitempty"`    // "request_time", "duration", "tokens_sent"
	SortOrder string `json:"sort_order,omitempty"` // "asc", "desc"
}

// Storage defines the interface for evidence storage backends.
// Implementations must be safe for concurrent use.
type Storage interface {
	// Store persists a record.
	Store(ctx context.Context, record *RelayRecord) error

	// Query retrieves records matching the query filters.
	// Returns an empty slice if no records match.
	Query(ctx context.Context, query *Query) ([]*RelayRecord, error)

	// Count returns the number of records matching the query filters.
	Count(ctx context.Context, query *Query) (int64, error)

	// Delete removes records matching the query filters and returns the
	// number removed. Pagination and sorting are ignored.
	Delete(ctx context.Context, query *Query) (int64, error)

	// Close releases any resources held by the storage backend.
	Close() error
}

// Exporter writes records in a particular format.
type Exporter interface {
	Export(ctx context.Context, records []*RelayRecord, w io.Writer) error
}
