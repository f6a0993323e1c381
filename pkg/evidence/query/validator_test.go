package query

import (
	"errors"
	"strings"
	"testing"
	"time"

	"grokgate/pkg/evidence"
)

func TestValidate(t *testing.T) {
	now := time.Now()
	past := now.Add(-24 * time.Hour)

	tests := []struct {
		name    string
		query   *evidence.Query
		wantErr bool
		errMsg  string
	}{
		{
			name: "valid query with all filters",
			query: &evidence.Query{
				StartTime: &past,
				EndTime:   &now,
				SessionID: "session-1",
				Backend:   "xai",
				Model:     "grok-2-latest",
				Outcome:   evidence.OutcomeCompleted,
				Limit:     100,
				SortBy:    "duration",
				SortOrder: "asc",
			},
		},
		{
			name:  "valid query with minimal filters",
			query: &evidence.Query{Limit: 50},
		},
		{
			name:    "negative limit",
			query:   &evidence.Query{Limit: -1},
			wantErr: true,
			errMsg:  "limit must be >= 0",
		},
		{
			name:    "limit exceeds max",
			query:   &evidence.Query{Limit: MaxLimit + 1},
			wantErr: true,
			errMsg:  "limit must be <=",
		},
		{
			name:    "negative offset",
			query:   &evidence.Query{Offset: -1},
			wantErr: true,
			errMsg:  "offset must be >= 0",
		},
		{
			name:    "invalid sort field",
			query:   &evidence.Query{SortBy: "actual_cost"},
			wantErr: true,
			errMsg:  "invalid sort field",
		},
		{
			name:    "invalid sort order",
			query:   &evidence.Query{SortOrder: "up"},
			wantErr: true,
			errMsg:  "invalid sort order",
		},
		{
			name:    "start after end",
			query:   &evidence.Query{StartTime: &now, EndTime: &past},
			wantErr: true,
			errMsg:  "start_time must be before end_time",
		},
		{
			name:    "unknown outcome",
			query:   &evidence.Query{Outcome: "blocked"},
			wantErr: true,
			errMsg:  "invalid outcome",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := Validate(tt.query)
			if (err != nil) != tt.wantErr {
				t.Fatalf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
			if !tt.wantErr {
				return
			}

			var queryErr *evidence.QueryError
			if !errors.As(err, &queryErr) {
				t.Errorf("expected *evidence.QueryError, got %T", err)
			}
			if !strings.Contains(err.Error(), tt.errMsg) {
				t.Errorf("error = %q, want substring %q", err.Error(), tt.errMsg)
			}
		})
	}
}

func TestApplyDefaults(t *testing.T) {
	q := &evidence.Query{}
	ApplyDefaults(q)

	if q.Limit != DefaultLimit {
		t.Errorf("Limit = %d, want %d", q.Limit, DefaultLimit)
	}
	if q.SortBy != "request_time" || q.SortOrder != "desc" {
		t.Errorf("sort = %s %s, want request_time desc", q.SortBy, q.SortOrder)
	}

	// Explicit values are kept.
	q = &evidence.Query{Limit: 5, SortBy: "tokens_sent", SortOrder: "asc"}
	ApplyDefaults(q)
	if q.Limit != 5 || q.SortBy != "tokens_sent" || q.SortOrder != "asc" {
		t.Errorf("ApplyDefaults overwrote explicit values: %+v", q)
	}
}
