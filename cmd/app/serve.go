package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"TraderGenie/internal/di"
	"TraderGenie/pkg/config"
)

func newServeCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API and the scan scheduler",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runServe(cmd.Context(), *opts)
		},
	}
}

func runServe(ctx context.Context, opts rootOptions) error {
	cfg, err := config.LoadWithEnv(opts.configPath, opts.envFiles...)
	if err != nil {
		return fmt.Errorf("config load failed: %w", err)
	}

	app, err := di.InitializeApp(cfg)
	if err != nil {
		return fmt.Errorf("app initialization failed: %w", err)
	}
	return app.Run(ctx)
}
