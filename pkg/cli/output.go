package cli

import (
	"fmt"
	"strings"

	"grokgate/pkg/evidence"
	"grokgate/pkg/evidence/export"
)

// OutputFormat represents the output format for command results.
type OutputFormat string

const (
	// FormatText is plain text output (default).
	FormatText OutputFormat = "text"
	// FormatJSON is JSON output.
	FormatJSON OutputFormat = "json"
	// FormatCSV is CSV output.
	FormatCSV OutputFormat = "csv"
)

// textPreview caps how many records text output prints.
const textPreview = 10

// ParseFormat validates a --format flag value.
func ParseFormat(s string) (OutputFormat, error) {
	switch f := OutputFormat(strings.ToLower(strings.TrimSpace(s))); f {
	case "":
		return FormatText, nil
	case FormatText, FormatJSON, FormatCSV:
		return f, nil
	default:
		return "", fmt.Errorf("unsupported format %q (supported: text, json, csv)", s)
	}
}

// NewExporter returns the evidence exporter for format.
func NewExporter(format OutputFormat) evidence.Exporter {
	switch format {
	case FormatJSON:
		return export.NewJSONExporter(true)
	case FormatCSV:
		return export.NewCSVExporter(true)
	default:
		return export.NewTextExporter(textPreview)
	}
}
