package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"grokgate/pkg/config"
)

var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate configuration",
	Long: `Load the configuration from file, dotenv and environment, validate it
and print a summary. The API key is reported as configured or missing,
never printed.

Examples:
  grokgate validate
  grokgate validate --config /etc/grokgate/config.yaml`,
	RunE: validateConfig,
}

func init() {
	rootCmd.AddCommand(validateCmd)
}

func validateConfig(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()
	fmt.Fprintln(out, "✓ Configuration valid")
	printSummary(out, cfg)
	return nil
}

func printSummary(w io.Writer, cfg *config.Config) {
	fmt.Fprintf(w, "\nServer\n")
	fmt.Fprintf(w, "  Listen:           %s\n", cfg.Server.ListenAddress())
	fmt.Fprintf(w, "  Allowed origins:  %s\n", strings.Join(cfg.Server.CORS.AllowedOrigins, ", "))
	fmt.Fprintf(w, "  Shutdown timeout: %s\n", cfg.Server.ShutdownTimeout)

	fmt.Fprintf(w, "\nUpstream\n")
	fmt.Fprintf(w, "  Backend:          %s\n", cfg.Upstream.Backend)
	if cfg.Upstream.Backend == config.BackendXAI {
		fmt.Fprintf(w, "  Base URL:         %s\n", cfg.Upstream.BaseURL)
		fmt.Fprintf(w, "  Model:            %s\n", cfg.Upstream.Model)
		fmt.Fprintf(w, "  API key:          %s\n", keyState(cfg.Upstream))
		fmt.Fprintf(w, "  Timeout:          %s\n", cfg.Upstream.Timeout)
		fmt.Fprintf(w, "  Max retries:      %d\n", cfg.Upstream.MaxRetries)
	}
	if cfg.Upstream.SystemPrompt != "" {
		fmt.Fprintf(w, "  System prompt:    %d chars\n", len(cfg.Upstream.SystemPrompt))
	}

	fmt.Fprintf(w, "\nEvidence\n")
	if !cfg.Evidence.Enabled {
		fmt.Fprintf(w, "  Disabled\n")
	} else {
		fmt.Fprintf(w, "  Backend:          %s\n", cfg.Evidence.Backend)
		if cfg.Evidence.Backend == "sqlite" {
			fmt.Fprintf(w, "  Path:             %s\n", cfg.Evidence.SQLite.Path)
		}
		fmt.Fprintf(w, "  Retention:        %d days, max %d records\n",
			cfg.Evidence.Retention.Days, cfg.Evidence.Retention.MaxRecords)
	}

	fmt.Fprintf(w, "\nTelemetry\n")
	fmt.Fprintf(w, "  Logging:          %s (%s)\n", cfg.Telemetry.Logging.Level, cfg.Telemetry.Logging.Format)
	fmt.Fprintf(w, "  Metrics:          %s\n", enabledAt(cfg.Telemetry.Metrics.Enabled, cfg.Telemetry.Metrics.Path))
	fmt.Fprintf(w, "  Tracing:          %s\n", enabledAt(cfg.Telemetry.Tracing.Enabled, cfg.Telemetry.Tracing.Endpoint))
}

func enabledAt(enabled bool, where string) string {
	if !enabled {
		return "disabled"
	}
	return "enabled at " + where
}
