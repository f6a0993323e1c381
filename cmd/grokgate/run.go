package main

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"os"
	"strconv"

	"github.com/spf13/cobra"

	"grokgate/pkg/cli"
	"grokgate/pkg/config"
	"grokgate/pkg/providerfactory"
	"grokgate/pkg/providers"
	"grokgate/pkg/server"
	"grokgate/pkg/telemetry/health"
	"grokgate/pkg/telemetry/logging"
)

var runFlags struct {
	listenAddress string
	logLevel      string
	dryRun        bool
}

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Start the grokgate relay server",
	Long: `Start the relay server with the specified configuration.

The server listens on the configured address and relays POST /api/chat
conversations to the configured completion source as an SSE stream.
SIGINT or SIGTERM drains open streams and stops the server; a second
signal exits immediately.

Examples:
  # Start with default config
  grokgate run

  # Start with custom config
  grokgate run --config /etc/grokgate/config.yaml

  # Override listen address
  grokgate run --listen 0.0.0.0:8000

  # Validate config without starting server
  grokgate run --dry-run`,
	RunE: runServer,
}

func init() {
	rootCmd.AddCommand(runCmd)

	runCmd.Flags().StringVarP(&runFlags.listenAddress, "listen", "l", "", "override listen address (host:port)")
	runCmd.Flags().StringVar(&runFlags.logLevel, "log-level", "", "override log level (debug, info, warn, error)")
	runCmd.Flags().BoolVar(&runFlags.dryRun, "dry-run", false, "validate config without starting server")
}

func runServer(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	if err := applyRunOverrides(cfg); err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if runFlags.dryRun {
		fmt.Fprintln(out, "✓ Configuration valid")
		return nil
	}

	logger, err := logging.New(cfg.Telemetry.Logging, os.Stdout)
	if err != nil {
		return cli.NewConfigError("telemetry.logging", err.Error())
	}
	slog.SetDefault(logger)

	source, err := newSource(cfg.Upstream, logger)
	if err != nil {
		return err
	}

	ctx, stop := cli.SetupSignalHandler(cmd.Context())
	defer stop()

	srv, err := server.New(ctx, cfg, source,
		server.WithVersion(health.NewVersionInfo(Version, GitCommit, BuildDate)),
	)
	if err != nil {
		return cli.NewCommandError("run", err)
	}

	printBanner(out, cfg, source)

	if err := srv.Start(ctx); err != nil {
		return cli.NewCommandError("run", err)
	}

	fmt.Fprintln(out, "✓ Server stopped")
	return nil
}

// applyRunOverrides applies --listen and --log-level on top of the loaded
// configuration.
func applyRunOverrides(cfg *config.Config) error {
	if runFlags.listenAddress != "" {
		host, portStr, err := net.SplitHostPort(runFlags.listenAddress)
		if err != nil {
			return cli.NewConfigError("listen", err.Error())
		}
		port, err := strconv.Atoi(portStr)
		if err != nil || port < 1 || port > 65535 {
			return cli.NewConfigError("listen", fmt.Sprintf("invalid port %q", portStr))
		}
		cfg.Server.Host = host
		cfg.Server.Port = port
	}
	if runFlags.logLevel != "" {
		if _, err := logging.ParseLevel(runFlags.logLevel); err != nil {
			return cli.NewConfigError("log-level", err.Error())
		}
		cfg.Telemetry.Logging.Level = runFlags.logLevel
	}
	return nil
}

// newSource builds the completion source. A missing API key does not stop
// the server: every chat request is answered with the configuration error
// instead.
func newSource(cfg config.UpstreamConfig, logger *slog.Logger) (providers.CompletionSource, error) {
	source, err := providerfactory.NewSource(cfg)
	if errors.Is(err, providerfactory.ErrAPIKeyMissing) {
		logger.Warn("GROK_API_KEY is not set, chat requests will be rejected",
			"backend", cfg.Backend,
		)
		return providerfactory.NewUnconfigured(cfg.Backend, err), nil
	}
	if err != nil {
		return nil, cli.NewConfigError("upstream", err.Error())
	}
	return source, nil
}

func printBanner(w io.Writer, cfg *config.Config, source providers.CompletionSource) {
	fmt.Fprintf(w, "grokgate %s\n", Version)
	fmt.Fprintf(w, "✓ Completion source: %s", source.Name())
	if cfg.Upstream.Backend == config.BackendXAI {
		fmt.Fprintf(w, " (model %s, key %s)", cfg.Upstream.Model, keyState(cfg.Upstream))
	}
	fmt.Fprintln(w)
	if cfg.Evidence.Enabled {
		fmt.Fprintf(w, "✓ Evidence recording enabled (%s)\n", cfg.Evidence.Backend)
	}
	if cfg.Telemetry.Metrics.Enabled {
		fmt.Fprintf(w, "✓ Metrics at %s\n", cfg.Telemetry.Metrics.Path)
	}
	if cfg.Telemetry.Tracing.Enabled {
		fmt.Fprintf(w, "✓ Tracing to %s\n", cfg.Telemetry.Tracing.Endpoint)
	}
	fmt.Fprintf(w, "✓ Listening on %s\n", cfg.Server.ListenAddress())
}

func keyState(cfg config.UpstreamConfig) string {
	if cfg.HasAPIKey() {
		return "configured"
	}
	return "missing"
}
