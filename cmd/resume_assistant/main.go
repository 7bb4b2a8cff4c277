// Package main provides the entry point for the Resume & Cover Letter Assistant:
// a web UI server plus command-line access to the pipeline backend.
package main

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/jonathan/resume-assistant/internal/client"
	"github.com/jonathan/resume-assistant/internal/config"
	"github.com/jonathan/resume-assistant/internal/logger"
)

// globalOptions are the persistent flags shared by every subcommand.
type globalOptions struct {
	configPath string
	apiBase    string
	jsonLog    bool
	debug      bool
}

func newRootCmd() *cobra.Command {
	opts := &globalOptions{}
	cmd := &cobra.Command{
		Use:   "resume_assistant",
		Short: "Resume & Cover Letter Assistant",
		Long: `Resume & Cover Letter Assistant sends a job description and a candidate profile to the
resume pipeline backend and shows the match report, evidence map and generated outputs.

Configuration is read from the environment (API_BASE, PORT, REQUEST_TIMEOUT, LOG_JSON,
LOG_DEBUG), then from the optional --config JSON file, then from built-in defaults.`,
		SilenceUsage: true,
	}

	flags := cmd.PersistentFlags()
	flags.StringVar(&opts.configPath, "config", "", "Path to config.json file")
	flags.StringVar(&opts.apiBase, "api-base", "", "Backend base URL (overrides API_BASE and the config file)")
	flags.BoolVar(&opts.jsonLog, "json-log", false, "Write logs as JSON")
	flags.BoolVar(&opts.debug, "debug", false, "Enable debug logging")

	cmd.AddCommand(newServeCmd(opts), newRunCmd(opts), newHealthCmd(opts))
	return cmd
}

// setup resolves the configuration and builds the logger.
func (o *globalOptions) setup() (config.Config, *zap.Logger, error) {
	cfg, err := config.Load(o.configPath)
	if err != nil {
		return config.Config{}, nil, err
	}
	if o.apiBase != "" {
		cfg.APIBase = config.NormalizeBaseURL(o.apiBase)
		if err := cfg.Validate(); err != nil {
			return config.Config{}, nil, err
		}
	}
	cfg.LogJSON = cfg.LogJSON || o.jsonLog
	cfg.LogDebug = cfg.LogDebug || o.debug

	log, err := logger.New(cfg.LogJSON, cfg.LogDebug)
	if err != nil {
		return config.Config{}, nil, fmt.Errorf("failed to create logger: %w", err)
	}
	return cfg, log, nil
}

func newClient(cfg config.Config, log *zap.Logger) *client.Client {
	return client.New(client.Options{
		BaseURL: cfg.APIBase,
		Timeout: cfg.Timeout(),
		Logger:  log,
	})
}

func main() {
	// Load .env file if it exists
	_ = godotenv.Load()

	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
