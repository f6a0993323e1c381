package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"grokgate/pkg/cli"
	"grokgate/pkg/config"
)

const defaultConfigFile = "config.yaml"

var (
	cfgFile string
	envFile string
)

var rootCmd = &cobra.Command{
	Use:   "grokgate",
	Short: "Streaming chat relay for Grok",
	Long: `grokgate accepts a conversation over HTTP and relays the model's reply
back to the client as Server-Sent Events, token by token.

Configuration is read from a YAML file, a dotenv file and the process
environment, in that order. GROK_API_KEY supplies the upstream key.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute runs the root command and exits with the code matching the error.
func Execute() {
	if err := rootCmd.ExecuteContext(context.Background()); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(cli.ExitCode(err))
	}
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", defaultConfigFile, "config file path")
	rootCmd.PersistentFlags().StringVar(&envFile, "env-file", ".env", "dotenv file loaded before environment overrides")
}

// loadConfig reads configuration for cmd. The default config file may be
// absent; an explicitly named one may not.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	optional := !cmd.Flags().Changed("config")
	cfg, err := config.Load(config.LoadOptions{
		Path:     cfgFile,
		Optional: optional,
		EnvFile:  envFile,
	})
	if err != nil {
		return nil, cli.NewConfigError("", err.Error())
	}
	return cfg, nil
}
