package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/zhouzirui/moodflow/backend/internal/client"
	"github.com/zhouzirui/moodflow/backend/internal/config"
	"github.com/zhouzirui/moodflow/backend/internal/logging"
)

var (
	apiURL  string
	verbose bool
	version = "dev"

	logger = zap.NewNop()
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "moodflow",
	Short: "Guided mood check-ins from the terminal",
	Long: `moodflow walks you through a short guided session based on how you feel,
and records each session with the moodflow API.

Quick Start:
  moodflow chat                      # Start a guided session
  moodflow sessions list             # List recorded sessions
  moodflow sessions completed -f yaml

The API location defaults to MOODFLOW_API_URL or http://localhost:8080.`,
	Version:       version,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if !verbose {
			logger = zap.NewNop()
			return nil
		}
		l, err := logging.New(config.LogConfig{Level: "debug", Format: "console"})
		if err != nil {
			return fmt.Errorf("failed to initialize logger: %w", err)
		}
		logger = l
		return nil
	},
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// newAPIClient builds a client from the environment, letting --api override the base URL.
func newAPIClient() (*client.Client, *config.ClientConfig, error) {
	cfg, err := config.LoadClient()
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load client configuration: %w", err)
	}
	if apiURL != "" {
		cfg.BaseURL = apiURL
	}

	c := client.New(cfg.BaseURL,
		client.WithTimeout(cfg.Timeout),
		client.WithLogger(logger.Named("client")))
	return c, cfg, nil
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose logging")
	rootCmd.PersistentFlags().StringVar(&apiURL, "api", "", "Base URL of the moodflow API (overrides MOODFLOW_API_URL)")

	rootCmd.SetVersionTemplate(`{{printf "%s\n" .Version}}`)
}
