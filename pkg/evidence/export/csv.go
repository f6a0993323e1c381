package export

import (
	"context"
	"encoding/csv"
	"io"
	"strconv"
	"time"

	"grokgate/pkg/evidence"
)

// CSVExporter exports relay records as CSV, one row per record.
type CSVExporter struct {
	// IncludeHeader includes a header row with column names.
	IncludeHeader bool
}

// NewCSVExporter creates a new CSV exporter.
func NewCSVExporter(includeHeader bool) *CSVExporter {
	return &CSVExporter{IncludeHeader: includeHeader}
}

// Header lists the CSV columns in order. Durations are in milliseconds.
var Header = []string{
	"id", "request_id", "session_id",
	"backend", "model",
	"messages", "system_prompt", "conversation_hash",
	"outcome", "tokens_sent", "status_code", "error", "error_type",
	"request_time", "first_token_ms", "duration_ms", "recorded_time",
}

// Export writes records to w in CSV format.
func (e *CSVExporter) Export(ctx context.Context, records []*evidence.RelayRecord, w io.Writer) error {
	writer := csv.NewWriter(w)

	if e.IncludeHeader {
		if err := writer.Write(Header); err != nil {
			return evidence.NewExportError("csv", len(records), err)
		}
	}

	for _, record := range records {
		if err := ctx.Err(); err != nil {
			return evidence.NewExportError("csv", len(records), err)
		}
		if err := writer.Write(recordToRow(record)); err != nil {
			return evidence.NewExportError("csv", len(records), err)
		}
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		return evidence.NewExportError("csv", len(records), err)
	}
	return nil
}

func recordToRow(record *evidence.RelayRecord) []string {
	return []string{
		record.ID,
		record.RequestID,
		record.SessionID,
		record.Backend,
		record.Model,
		strconv.Itoa(record.Messages),
		strconv.FormatBool(record.SystemPrompt),
		record.ConversationHash,
		record.Outcome,
		strconv.Itoa(record.TokensSent),
		strconv.Itoa(record.StatusCode),
		record.Error,
		record.ErrorType,
		formatTime(record.RequestTime),
		formatMillis(record.FirstTokenLatency),
		formatMillis(record.Duration),
		formatTime(record.RecordedTime),
	}
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(time.RFC3339Nano)
}

func formatMillis(d time.Duration) string {
	return strconv.FormatFloat(float64(d)/float64(time.Millisecond), 'f', 3, 64)
}
