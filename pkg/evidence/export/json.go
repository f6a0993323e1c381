package export

import (
	"context"
	"encoding/json"
	"io"

	"grokgate/pkg/evidence"
)

var (
	_ evidence.Exporter = (*JSONExporter)(nil)
	_ evidence.Exporter = (*CSVExporter)(nil)
	_ evidence.Exporter = (*TextExporter)(nil)
)

// JSONExporter exports relay records as a JSON array.
type JSONExporter struct {
	// Pretty enables pretty-printing with indentation.
	Pretty bool
}

// NewJSONExporter creates a new JSON exporter.
func NewJSONExporter(pretty bool) *JSONExporter {
	return &JSONExporter{Pretty: pretty}
}

// Export writes records to w as a JSON array followed by a newline. An
// empty set is written as [].
func (e *JSONExporter) Export(ctx context.Context, records []*evidence.RelayRecord, w io.Writer) error {
	if err := ctx.Err(); err != nil {
		return evidence.NewExportError("json", len(records), err)
	}
	if records == nil {
		records = []*evidence.RelayRecord{}
	}

	enc := json.NewEncoder(w)
	if e.Pretty {
		enc.SetIndent("", "  ")
	}
	if err := enc.Encode(records); err != nil {
		return evidence.NewExportError("json", len(records), err)
	}
	return nil
}
