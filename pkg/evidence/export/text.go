package export

import (
	"context"
	"fmt"
	"io"
	"sort"
	"strings"
	"time"

	"grokgate/pkg/evidence"
)

// TextExporter writes relay records as human-readable blocks.
type TextExporter struct {
	// MaxRecords caps how many records are printed. 0 prints all.
	MaxRecords int
}

// NewTextExporter creates a text exporter printing at most maxRecords.
func NewTextExporter(maxRecords int) *TextExporter {
	return &TextExporter{MaxRecords: maxRecords}
}

// Export writes records to w.
func (e *TextExporter) Export(ctx context.Context, records []*evidence.RelayRecord, w io.Writer) error {
	var b strings.Builder

	fmt.Fprintf(&b, "Total records: %d\n", len(records))
	if len(records) == 0 {
		b.WriteString("No records found.\n")
	}

	for i, record := range records {
		if err := ctx.Err(); err != nil {
			return evidence.NewExportError("text", len(records), err)
		}
		if e.MaxRecords > 0 && i >= e.MaxRecords {
			fmt.Fprintf(&b, "\n... and %d more records\n", len(records)-i)
			b.WriteString("Use --limit and --offset for pagination.\n")
			break
		}

		b.WriteString("\n")
		fmt.Fprintf(&b, "Record ID: %s\n", record.ID)
		fmt.Fprintf(&b, "Request ID: %s\n", record.RequestID)
		fmt.Fprintf(&b, "Time: %s\n", record.RequestTime.UTC().Format(time.RFC3339))
		if record.SessionID != "" {
			fmt.Fprintf(&b, "Session: %s\n", record.SessionID)
		}
		fmt.Fprintf(&b, "Backend: %s (%s)\n", record.Backend, record.Model)
		fmt.Fprintf(&b, "Outcome: %s (HTTP %d)\n", record.Outcome, record.StatusCode)
		fmt.Fprintf(&b, "Messages: %d, tokens sent: %d\n", record.Messages, record.TokensSent)
		if record.FirstTokenLatency > 0 {
			fmt.Fprintf(&b, "First token: %s\n", record.FirstTokenLatency.Round(time.Millisecond))
		}
		fmt.Fprintf(&b, "Duration: %s\n", record.Duration.Round(time.Millisecond))
		if record.Error != "" {
			if record.ErrorType != "" {
				fmt.Fprintf(&b, "Error (%s): %s\n", record.ErrorType, record.Error)
			} else {
				fmt.Fprintf(&b, "Error: %s\n", record.Error)
			}
		}
	}

	if _, err := io.WriteString(w, b.String()); err != nil {
		return evidence.NewExportError("text", len(records), err)
	}
	return nil
}

// Summary aggregates a set of relay records.
type Summary struct {
	Total         int            `json:"total"`
	ByOutcome     map[string]int `json:"by_outcome"`
	ByBackend     map[string]int `json:"by_backend"`
	ByErrorType   map[string]int `json:"by_error_type"`
	TokensSent    int            `json:"tokens_sent"`
	AvgFirstToken time.Duration  `json:"avg_first_token"`
	AvgDuration   time.Duration  `json:"avg_duration"`
}

// Summarize aggregates records. First-token latency is averaged only over
// records that sent at least one token.
func Summarize(records []*evidence.RelayRecord) *Summary {
	s := &Summary{
		Total:       len(records),
		ByOutcome:   make(map[string]int),
		ByBackend:   make(map[string]int),
		ByErrorType: make(map[string]int),
	}

	var firstTotal, durTotal time.Duration
	var withTokens int
	for _, r := range records {
		s.ByOutcome[r.Outcome]++
		s.ByBackend[r.Backend]++
		if r.ErrorType != "" {
			s.ByErrorType[r.ErrorType]++
		}
		s.TokensSent += r.TokensSent
		durTotal += r.Duration
		if r.TokensSent > 0 {
			firstTotal += r.FirstTokenLatency
			withTokens++
		}
	}

	if len(records) > 0 {
		s.AvgDuration = durTotal / time.Duration(len(records))
	}
	if withTokens > 0 {
		s.AvgFirstToken = firstTotal / time.Duration(withTokens)
	}
	return s
}

// WriteText writes the summary as an aligned report.
func (s *Summary) WriteText(w io.Writer) error {
	var b strings.Builder

	b.WriteString("Evidence Report\n")
	b.WriteString("===============\n")
	fmt.Fprintf(&b, "Total requests: %d\n", s.Total)
	fmt.Fprintf(&b, "Tokens sent: %d\n", s.TokensSent)
	fmt.Fprintf(&b, "Avg first token: %s\n", s.AvgFirstToken.Round(time.Millisecond))
	fmt.Fprintf(&b, "Avg duration: %s\n", s.AvgDuration.Round(time.Millisecond))

	writeCounts(&b, "By outcome", s.ByOutcome)
	writeCounts(&b, "By backend", s.ByBackend)
	writeCounts(&b, "By error type", s.ByErrorType)

	_, err := io.WriteString(w, b.String())
	return err
}

func writeCounts(b *strings.Builder, title string, counts map[string]int) {
	if len(counts) == 0 {
		return
	}
	keys := make([]string, 0, len(counts))
	for k := range counts {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	fmt.Fprintf(b, "\n%s:\n", title)
	for _, k := range keys {
		fmt.Fprintf(b, "  %-12s %d\n", k, counts[k])
	}
}
