package main

import (
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"grokgate/pkg/cli"
	"grokgate/pkg/config"
	"grokgate/pkg/evidence"
	"grokgate/pkg/evidence/export"
	"grokgate/pkg/evidence/query"
	"grokgate/pkg/evidence/retention"
	"grokgate/pkg/evidence/storage"
)

var evidenceFlags struct {
	timeRange  string
	since      time.Duration
	requestID  string
	session    string
	source     string
	model      string
	outcome    string
	limit      int
	offset     int
	format     string
	output     string
	days       int
	maxRecords int64
}

var evidenceCmd = &cobra.Command{
	Use:   "evidence",
	Short: "Inspect and maintain relay evidence records",
	Long: `Query, summarize and prune the audit records written for every chat
request. Records live in the storage configured under evidence.`,
}

var evidenceQueryCmd = &cobra.Command{
	Use:   "query",
	Short: "Query evidence records",
	Long: `Query evidence records with various filters.

Time Range Format:
  RFC3339 interval format: "start/end"
  Example: "2026-10-01T00:00:00Z/2026-10-02T00:00:00Z"

Examples:
  # Records from the last hour
  grokgate evidence query --since 1h

  # Failed relays of one session
  grokgate evidence query --session "sess-42" --outcome failed

  # Export to CSV
  grokgate evidence query --format csv --output evidence.csv`,
	RunE: queryEvidence,
}

var evidenceReportCmd = &cobra.Command{
	Use:   "report",
	Short: "Summarize evidence records",
	Long:  `Print totals by outcome, completion source and error type with average latencies.`,
	RunE:  generateReport,
}

var evidencePruneCmd = &cobra.Command{
	Use:   "prune",
	Short: "Delete records outside the retention policy",
	Long: `Run one retention pass now: delete records older than the retention
period, then the oldest records above the record limit. Flags override
evidence.retention from the configuration.`,
	RunE: pruneEvidence,
}

func init() {
	rootCmd.AddCommand(evidenceCmd)
	evidenceCmd.AddCommand(evidenceQueryCmd, evidenceReportCmd, evidencePruneCmd)

	addRangeFlags := func(cmd *cobra.Command) {
		cmd.Flags().StringVar(&evidenceFlags.timeRange, "time-range", "", "time range (RFC3339 interval: start/end)")
		cmd.Flags().DurationVar(&evidenceFlags.since, "since", 0, "only records newer than this duration (e.g. 24h)")
		cmd.Flags().StringVarP(&evidenceFlags.output, "output", "o", "", "output file (default: stdout)")
	}

	addRangeFlags(evidenceQueryCmd)
	evidenceQueryCmd.Flags().StringVar(&evidenceFlags.requestID, "request-id", "", "filter by request ID")
	evidenceQueryCmd.Flags().StringVar(&evidenceFlags.session, "session", "", "filter by session ID")
	evidenceQueryCmd.Flags().StringVar(&evidenceFlags.source, "source", "", "filter by completion source (xai, placeholder)")
	evidenceQueryCmd.Flags().StringVar(&evidenceFlags.model, "model", "", "filter by model")
	evidenceQueryCmd.Flags().StringVar(&evidenceFlags.outcome, "outcome", "", "filter by outcome (completed, failed, cancelled, rejected)")
	evidenceQueryCmd.Flags().IntVar(&evidenceFlags.limit, "limit", query.DefaultLimit, "max results")
	evidenceQueryCmd.Flags().IntVar(&evidenceFlags.offset, "offset", 0, "pagination offset")
	evidenceQueryCmd.Flags().StringVar(&evidenceFlags.format, "format", "text", "output format: text, json, csv")

	addRangeFlags(evidenceReportCmd)

	evidencePruneCmd.Flags().IntVar(&evidenceFlags.days, "days", -1, "retention period in days (0 keeps records forever)")
	evidencePruneCmd.Flags().Int64Var(&evidenceFlags.maxRecords, "max-records", -1, "maximum records to keep (0 for unlimited)")
}

func queryEvidence(cmd *cobra.Command, args []string) error {
	format, err := cli.ParseFormat(evidenceFlags.format)
	if err != nil {
		return cli.NewConfigError("format", err.Error())
	}

	q := &evidence.Query{
		RequestID: evidenceFlags.requestID,
		SessionID: evidenceFlags.session,
		Backend:   evidenceFlags.source,
		Model:     evidenceFlags.model,
		Outcome:   evidenceFlags.outcome,
		Limit:     evidenceFlags.limit,
		Offset:    evidenceFlags.offset,
	}
	if err := applyTimeRange(q, time.Now()); err != nil {
		return err
	}
	if err := query.Validate(q); err != nil {
		return cli.NewCommandError("evidence query", err)
	}
	query.ApplyDefaults(q)

	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	store, err := openStore(cfg, "evidence query")
	if err != nil {
		return err
	}
	defer store.Close()

	records, err := store.Query(cmd.Context(), q)
	if err != nil {
		return cli.NewCommandError("evidence query", err)
	}

	return withOutput(cmd, func(w io.Writer) error {
		return cli.NewExporter(format).Export(cmd.Context(), records, w)
	})
}

func generateReport(cmd *cobra.Command, args []string) error {
	q := &evidence.Query{}
	if err := applyTimeRange(q, time.Now()); err != nil {
		return err
	}
	if err := query.Validate(q); err != nil {
		return cli.NewCommandError("evidence report", err)
	}

	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	store, err := openStore(cfg, "evidence report")
	if err != nil {
		return err
	}
	defer store.Close()

	records, err := store.Query(cmd.Context(), q)
	if err != nil {
		return cli.NewCommandError("evidence report", err)
	}

	return withOutput(cmd, func(w io.Writer) error {
		if err := export.Summarize(records).WriteText(w); err != nil {
			return err
		}
		fmt.Fprintln(w)
		if q.StartTime != nil || q.EndTime != nil {
			fmt.Fprintf(w, "Time range: %s to %s\n", formatBound(q.StartTime), formatBound(q.EndTime))
		}
		_, err := fmt.Fprintf(w, "Generated: %s\n", time.Now().UTC().Format(time.RFC3339))
		return err
	})
}

func pruneEvidence(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	retentionCfg := retention.ConfigFrom(cfg.Evidence.Retention)
	if evidenceFlags.days >= 0 {
		retentionCfg.RetentionDays = evidenceFlags.days
	}
	if evidenceFlags.maxRecords >= 0 {
		retentionCfg.MaxRecords = evidenceFlags.maxRecords
	}

	store, err := openStore(cfg, "evidence prune")
	if err != nil {
		return err
	}
	defer store.Close()

	deleted, err := retention.NewPruner(store, retentionCfg).Prune(cmd.Context())
	if err != nil {
		return cli.NewCommandError("evidence prune", err)
	}

	fmt.Fprintf(cmd.OutOrStdout(), "✓ Pruned %d records (retention %d days, max %d records)\n",
		deleted, retentionCfg.RetentionDays, retentionCfg.MaxRecords)
	return nil
}

// openStore opens the configured evidence storage for offline use.
func openStore(cfg *config.Config, command string) (evidence.Storage, error) {
	if cfg.Evidence.Backend == "memory" {
		return nil, cli.NewConfigError("evidence.backend", "the memory backend does not persist records between runs")
	}
	store, err := storage.New(cfg.Evidence)
	if err != nil {
		return nil, cli.NewCommandError(command, err)
	}
	return store, nil
}

// applyTimeRange sets the query bounds from --time-range or --since.
func applyTimeRange(q *evidence.Query, now time.Time) error {
	if evidenceFlags.timeRange != "" && evidenceFlags.since > 0 {
		return cli.NewConfigError("time-range", "--time-range and --since are mutually exclusive")
	}

	if evidenceFlags.since > 0 {
		start := now.Add(-evidenceFlags.since)
		q.StartTime = &start
		return nil
	}

	if evidenceFlags.timeRange == "" {
		return nil
	}
	parts := strings.Split(evidenceFlags.timeRange, "/")
	if len(parts) != 2 {
		return cli.NewConfigError("time-range", "invalid time range format (expected: start/end)")
	}
	startTime, err := time.Parse(time.RFC3339, parts[0])
	if err != nil {
		return cli.NewConfigError("time-range", fmt.Sprintf("invalid start time: %v", err))
	}
	endTime, err := time.Parse(time.RFC3339, parts[1])
	if err != nil {
		return cli.NewConfigError("time-range", fmt.Sprintf("invalid end time: %v", err))
	}
	q.StartTime = &startTime
	q.EndTime = &endTime
	return nil
}

// withOutput runs write against --output, or stdout when none is given.
func withOutput(cmd *cobra.Command, write func(io.Writer) error) error {
	if evidenceFlags.output == "" {
		return write(cmd.OutOrStdout())
	}

	f, err := os.Create(evidenceFlags.output)
	if err != nil {
		return cli.NewCommandError("evidence", fmt.Errorf("failed to create output file: %w", err))
	}
	if err := write(f); err != nil {
		f.Close()
		return cli.NewCommandError("evidence", err)
	}
	return f.Close()
}

func formatBound(t *time.Time) string {
	if t == nil {
		return "-"
	}
	return t.UTC().Format(time.RFC3339)
}
