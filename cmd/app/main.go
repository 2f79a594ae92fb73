package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

const appName = "tradergenie"

func main() {
	if err := newRootCmd().ExecuteContext(context.Background()); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var opts rootOptions

	root := &cobra.Command{
		Use:           appName,
		Short:         "Crypto strategy evaluation engine",
		SilenceUsage:  true,
		SilenceErrors: true,
		// no subcommand runs the service
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runServe(cmd.Context(), opts)
		},
	}
	root.PersistentFlags().StringVar(&opts.configPath, "config", "config/config.yaml", "config file path")
	root.PersistentFlags().StringSliceVar(&opts.envFiles, "env-file", []string{".env"}, "dotenv files loaded before the config (missing files are skipped)")

	root.AddCommand(newServeCmd(&opts), newScanCmd(&opts))
	return root
}

type rootOptions struct {
	configPath string
	envFiles   []string
}
