package main

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/jonathan/resume-assistant/internal/client"
	"github.com/jonathan/resume-assistant/internal/orchestrator"
)

func newHealthCmd(opts *globalOptions) *cobra.Command {
	var timeout time.Duration
	cmd := &cobra.Command{
		Use:   "health",
		Short: "Check that the pipeline backend is reachable",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, log, err := opts.setup()
			if err != nil {
				return err
			}
			defer func() { _ = log.Sync() }()

			ctx, cancel := context.WithTimeout(cmd.Context(), timeout)
			defer cancel()

			backend := newClient(cfg, log)
			if err := backend.Health(ctx); err != nil {
				msg := client.Message(err)
				if msg == "" {
					msg = orchestrator.FallbackErrorMessage
				}
				return fmt.Errorf("backend %s: %s", backend.BaseURL(), msg)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "backend %s: ok\n", backend.BaseURL())
			return nil
		},
	}
	cmd.Flags().DurationVar(&timeout, "timeout", 10*time.Second, "How long to wait for the backend")
	return cmd
}
