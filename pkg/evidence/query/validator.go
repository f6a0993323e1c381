package query

import (
	"fmt"

	"grokgate/pkg/evidence"
)

const (
	// DefaultLimit is the default number of records to return if not specified.
	DefaultLimit = 100

	// MaxLimit is the maximum number of records that can be returned in a single query.
	MaxLimit = 10000
)

// ValidSortFields contains the fields that can be used for sorting.
var ValidSortFields = map[string]bool{
	"request_time":  true,
	"recorded_time": true,
	"duration":      true,
	"tokens_sent":   true,
}

// ValidSortOrders contains the valid sort orders.
var ValidSortOrders = map[string]bool{
	"asc":  true,
	"desc": true,
}

// ValidOutcomes contains the outcomes a query can filter on.
var ValidOutcomes = map[string]bool{
	evidence.OutcomeCompleted: true,
	evidence.OutcomeFailed:    true,
	evidence.OutcomeCancelled: true,
	evidence.OutcomeRejected:  true,
}

// Validate validates a query and returns an error if any parameters are invalid.
func Validate(q *evidence.Query) error {
	if q.Limit < 0 {
		return evidence.NewQueryError(q, fmt.Errorf("limit must be >= 0, got %d", q.Limit))
	}
	if q.Limit > MaxLimit {
		return evidence.NewQueryError(q, fmt.Errorf("limit must be <= %d, got %d", MaxLimit, q.Limit))
	}

	if q.Offset < 0 {
		return evidence.NewQueryError(q, fmt.Errorf("offset must be >= 0, got %d", q.Offset))
	}

	if q.SortBy != "" && !ValidSortFields[q.SortBy] {
		return evidence.NewQueryError(q, fmt.Errorf("invalid sort field: %s", q.SortBy))
	}

	if q.SortOrder != "" && !ValidSortOrders[q.SortOrder] {
		return evidence.NewQueryError(q, fmt.Errorf("invalid sort order: %s (must be 'asc' or 'desc')", q.SortOrder))
	}

	if q.StartTime != nil && q.EndTime != nil {
		if q.StartTime.After(*q.EndTime) {
			return evidence.NewQueryError(q, fmt.Errorf("start_time must be before end_time"))
		}
	}

	if q.Outcome != "" && !ValidOutcomes[q.Outcome] {
		return evidence.NewQueryError(q, fmt.Errorf("invalid outcome: %s (must be completed, failed, cancelled or rejected)", q.Outcome))
	}

	return nil
}

// ApplyDefaults applies default values to a query.
func ApplyDefaults(q *evidence.Query) {
	if q.Limit == 0 {
		q.Limit = DefaultLimit
	}
	if q.SortBy == "" {
		q.SortBy = "request_time"
	}
	if q.SortOrder == "" {
		q.SortOrder = "desc"
	}
}
