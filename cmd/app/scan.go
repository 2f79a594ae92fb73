package main

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"TraderGenie/internal/di"
	"TraderGenie/internal/domain/models"
	"TraderGenie/pkg/config"
)

type scanOptions struct {
	minConfidence int
	limit         int
	strategies    []string
	compact       bool
}

func newScanCmd(root *rootOptions) *cobra.Command {
	var opts scanOptions

	cmd := &cobra.Command{
		Use:   "scan",
		Short: "Run one scan and print the result as JSON",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			req, err := opts.request(cmd)
			if err != nil {
				return err
			}

			cfg, err := config.LoadWithEnv(root.configPath, root.envFiles...)
			if err != nil {
				return fmt.Errorf("config load failed: %w", err)
			}
			// stdout carries the JSON result
			cfg.Logger.Output = "stderr"

			scanner, err := di.InitializeScanner(cfg)
			if err != nil {
				return fmt.Errorf("scanner initialization failed: %w", err)
			}

			res, err := scanner.Scan(cmd.Context(), req)
			if err != nil {
				return fmt.Errorf("scan: %w", err)
			}
			return writeJSON(cmd.OutOrStdout(), res, !opts.compact)
		},
	}

	f := cmd.Flags()
	f.IntVar(&opts.minConfidence, "min-confidence", 0, "minimum confidence 0..100 (default from config)")
	f.IntVar(&opts.limit, "limit", 0, "maximum number of signals (default from config)")
	f.StringSliceVar(&opts.strategies, "strategy", nil, "strategy ids to run (repeatable, default all active)")
	f.BoolVar(&opts.compact, "compact", false, "print single-line JSON")
	return cmd
}

// request maps flags to a ScanRequest. Only flags the user set override
// the configured defaults.
func (o scanOptions) request(cmd *cobra.Command) (models.ScanRequest, error) {
	var req models.ScanRequest
	if cmd.Flags().Changed("min-confidence") {
		if o.minConfidence < 0 || o.minConfidence > 100 {
			return req, fmt.Errorf("--min-confidence must be within 0..100, got %d", o.minConfidence)
		}
		v := o.minConfidence
		req.MinConfidence = &v
	}
	if cmd.Flags().Changed("limit") {
		if o.limit < 1 {
			return req, fmt.Errorf("--limit must be positive, got %d", o.limit)
		}
		v := o.limit
		req.Limit = &v
	}
	req.StrategyIDs = o.strategies
	return req, nil
}

func writeJSON(w io.Writer, v interface{}, indent bool) error {
	enc := json.NewEncoder(w)
	if indent {
		enc.SetIndent("", "  ")
	}
	return enc.Encode(v)
}
