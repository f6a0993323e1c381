package export

import (
	"bytes"
	"context"
	"encoding/csv"
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"

	"grokgate/pkg/evidence"
)

func sampleRecords() []*evidence.RelayRecord {
	base := time.Date(2026, 1, 15, 10, 30, 0, 0, time.UTC)
	return []*evidence.RelayRecord{
		{
			ID:                "rec-1",
			RequestID:         "req-1",
			SessionID:         "sess-a",
			Backend:           "xai",
			Model:             "grok-beta",
			Messages:          2,
			SystemPrompt:      true,
			ConversationHash:  "abc123",
			Outcome:           evidence.OutcomeCompleted,
			TokensSent:        12,
			StatusCode:        200,
			RequestTime:       base,
			FirstTokenLatency: 250 * time.Millisecond,
			Duration:          1500 * time.Millisecond,
			RecordedTime:      base.Add(2 * time.Second),
		},
		{
			ID:          "rec-2",
			RequestID:   "req-2",
			Backend:     "xai",
			Model:       "grok-beta",
			Messages:    1,
			Outcome:     evidence.OutcomeFailed,
			TokensSent:  3,
			StatusCode:  200,
			Error:       "stream reset, by peer",
			ErrorType:   "stream",
			RequestTime: base.Add(time.Minute),
			Duration:    time.Second,
		},
		{
			ID:          "rec-3",
			RequestID:   "req-3",
			Backend:     "placeholder",
			Outcome:     evidence.OutcomeRejected,
			StatusCode:  500,
			Error:       "GROK_API_KEY is not configured",
			ErrorType:   "configuration",
			RequestTime: base.Add(2 * time.Minute),
		},
	}
}

func TestJSONExporter(t *testing.T) {
	tests := []struct {
		name    string
		records []*evidence.RelayRecord
		pretty  bool
		want    int
	}{
		{name: "empty", records: nil, want: 0},
		{name: "single record is still an array", records: sampleRecords()[:1], want: 1},
		{name: "pretty", records: sampleRecords(), pretty: true, want: 3},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			if err := NewJSONExporter(tt.pretty).Export(context.Background(), tt.records, &buf); err != nil {
				t.Fatalf("Export() failed: %v", err)
			}

			var decoded []evidence.RelayRecord
			if err := json.Unmarshal(buf.Bytes(), &decoded); err != nil {
				t.Fatalf("output is not a JSON array: %v\n%s", err, buf.String())
			}
			if len(decoded) != tt.want {
				t.Errorf("decoded %d records, want %d", len(decoded), tt.want)
			}
			if tt.pretty && !strings.Contains(buf.String(), "\n  ") {
				t.Error("pretty output is not indented")
			}
		})
	}
}

func TestJSONExporter_NoContentFields(t *testing.T) {
	var buf bytes.Buffer
	if err := NewJSONExporter(false).Export(context.Background(), sampleRecords()[:1], &buf); err != nil {
		t.Fatalf("Export() failed: %v", err)
	}
	for _, field := range []string{`"content"`, `"prompt"`, `"messages":[`} {
		if strings.Contains(buf.String(), field) {
			t.Errorf("exported record contains %s", field)
		}
	}
}

func TestCSVExporter(t *testing.T) {
	var buf bytes.Buffer
	if err := NewCSVExporter(true).Export(context.Background(), sampleRecords(), &buf); err != nil {
		t.Fatalf("Export() failed: %v", err)
	}

	rows, err := csv.NewReader(&buf).ReadAll()
	if err != nil {
		t.Fatalf("output is not valid CSV: %v", err)
	}
	if len(rows) != 4 {
		t.Fatalf("rows = %d, want header + 3", len(rows))
	}
	if strings.Join(rows[0], ",") != strings.Join(Header, ",") {
		t.Errorf("header = %v", rows[0])
	}

	col := func(name string) int {
		for i, h := range Header {
			if h == name {
				return i
			}
		}
		t.Fatalf("no column %q", name)
		return -1
	}

	first := rows[1]
	if first[col("id")] != "rec-1" {
		t.Errorf("id = %q", first[col("id")])
	}
	if first[col("system_prompt")] != "true" {
		t.Errorf("system_prompt = %q", first[col("system_prompt")])
	}
	if first[col("first_token_ms")] != "250.000" {
		t.Errorf("first_token_ms = %q, want 250.000", first[col("first_token_ms")])
	}
	if first[col("request_time")] != "2026-01-15T10:30:00Z" {
		t.Errorf("request_time = %q", first[col("request_time")])
	}

	// The comma in the error survives quoting.
	if rows[2][col("error")] != "stream reset, by peer" {
		t.Errorf("error = %q", rows[2][col("error")])
	}
	if rows[3][col("recorded_time")] != "" {
		t.Errorf("zero recorded_time = %q, want empty", rows[3][col("recorded_time")])
	}
}

func TestCSVExporter_NoHeader(t *testing.T) {
	var buf bytes.Buffer
	if err := NewCSVExporter(false).Export(context.Background(), nil, &buf); err != nil {
		t.Fatalf("Export() failed: %v", err)
	}
	if buf.Len() != 0 {
		t.Errorf("output = %q, want empty", buf.String())
	}
}

func TestTextExporter(t *testing.T) {
	var buf bytes.Buffer
	if err := NewTextExporter(0).Export(context.Background(), sampleRecords(), &buf); err != nil {
		t.Fatalf("Export() failed: %v", err)
	}

	out := buf.String()
	for _, want := range []string{
		"Total records: 3",
		"Record ID: rec-1",
		"Session: sess-a",
		"Outcome: completed (HTTP 200)",
		"First token: 250ms",
		"Error (stream): stream reset, by peer",
		"Outcome: rejected (HTTP 500)",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q\n%s", want, out)
		}
	}
}

func TestTextExporter_Truncates(t *testing.T) {
	var buf bytes.Buffer
	if err := NewTextExporter(1).Export(context.Background(), sampleRecords(), &buf); err != nil {
		t.Fatalf("Export() failed: %v", err)
	}
	out := buf.String()
	if strings.Contains(out, "rec-2") {
		t.Error("output should stop after the first record")
	}
	if !strings.Contains(out, "... and 2 more records") {
		t.Errorf("missing truncation note:\n%s", out)
	}
}

func TestTextExporter_Empty(t *testing.T) {
	var buf bytes.Buffer
	if err := NewTextExporter(0).Export(context.Background(), nil, &buf); err != nil {
		t.Fatalf("Export() failed: %v", err)
	}
	if !strings.Contains(buf.String(), "No records found.") {
		t.Errorf("output = %q", buf.String())
	}
}

func TestExport_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	exporters := map[string]evidence.Exporter{
		"json": NewJSONExporter(false),
		"csv":  NewCSVExporter(true),
		"text": NewTextExporter(0),
	}
	for name, exp := range exporters {
		err := exp.Export(ctx, sampleRecords(), &bytes.Buffer{})
		var exportErr *evidence.ExportError
		if !errors.As(err, &exportErr) {
			t.Errorf("%s: error = %v, want ExportError", name, err)
			continue
		}
		if exportErr.Format != name {
			t.Errorf("%s: Format = %q", name, exportErr.Format)
		}
	}
}

func TestSummarize(t *testing.T) {
	s := Summarize(sampleRecords())

	if s.Total != 3 {
		t.Errorf("Total = %d, want 3", s.Total)
	}
	if s.TokensSent != 15 {
		t.Errorf("TokensSent = %d, want 15", s.TokensSent)
	}
	if s.ByOutcome[evidence.OutcomeCompleted] != 1 || s.ByOutcome[evidence.OutcomeRejected] != 1 {
		t.Errorf("ByOutcome = %v", s.ByOutcome)
	}
	if s.ByBackend["xai"] != 2 {
		t.Errorf("ByBackend = %v", s.ByBackend)
	}
	// Only rec-1 and rec-2 sent tokens: (250ms + 0) / 2.
	if s.AvgFirstToken != 125*time.Millisecond {
		t.Errorf("AvgFirstToken = %s, want 125ms", s.AvgFirstToken)
	}
	if want := 2500 * time.Millisecond / 3; s.AvgDuration != want {
		t.Errorf("AvgDuration = %s, want %s", s.AvgDuration, want)
	}

	var buf bytes.Buffer
	if err := s.WriteText(&buf); err != nil {
		t.Fatalf("WriteText() failed: %v", err)
	}
	for _, want := range []string{"Total requests: 3", "By outcome:", "configuration", "placeholder"} {
		if !strings.Contains(buf.String(), want) {
			t.Errorf("report missing %q", want)
		}
	}
}

func TestSummarize_Empty(t *testing.T) {
	s := Summarize(nil)
	if s.Total != 0 || s.AvgDuration != 0 || s.AvgFirstToken != 0 {
		t.Errorf("Summarize(nil) = %+v", s)
	}
}
