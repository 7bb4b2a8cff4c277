package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/jonathan/resume-assistant/internal/orchestrator"
	"github.com/jonathan/resume-assistant/internal/server"
)

func newServeCmd(opts *globalOptions) *cobra.Command {
	var port int
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the web UI",
		Long:  `Start an HTTP server that renders the request form and result panels and forwards submissions to the backend.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, log, err := opts.setup()
			if err != nil {
				return err
			}
			defer func() { _ = log.Sync() }()

			if cmd.Flags().Changed("port") {
				cfg.Port = port
			}

			backend := newClient(cfg, log)
			srv, err := server.New(server.Config{
				Port:         cfg.Port,
				Orchestrator: orchestrator.New(backend, log),
				Backend:      backend,
				Logger:       log,
			})
			if err != nil {
				return fmt.Errorf("failed to create server: %w", err)
			}

			log.Info("web UI configured", zap.Int("port", cfg.Port), zap.Duration("request_timeout", cfg.Timeout()))
			return srv.Start()
		},
	}
	cmd.Flags().IntVar(&port, "port", 0, "Port to listen on (defaults to PORT or 3000)")
	return cmd
}
