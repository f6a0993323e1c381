// Package export writes relay records in JSON, CSV and text formats and
// aggregates them into summary reports.
//
//	exporter := export.NewCSVExporter(true)
//	if err := exporter.Export(ctx, records, os.Stdout); err != nil {
//	    return err
//	}
//
// All exporters implement evidence.Exporter.
package export
