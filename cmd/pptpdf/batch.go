// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/pdiddy/pptpdf/internal/convert"
	"github.com/pdiddy/pptpdf/internal/history"
	"github.com/pdiddy/pptpdf/pkg/types"
)

func init() {
	f := rootCmd.Flags()
	f.BoolP("recursive", "r", false, "search subdirectories for presentations")
	f.String("report", "", "write a YAML or JSON run report to this file")
	f.Bool("no-progress", false, "disable the progress bar")
	f.Bool("fail-on-error", false, "exit non-zero when any file fails to convert")
}

func runBatch(cmd *cobra.Command, args []string) error {
	if len(args) == 0 {
		return cmd.Help()
	}
	out := cmd.OutOrStdout()

	input := args[0]
	if err := convert.ValidateInputRoot(input); err != nil {
		fmt.Fprintf(out, "Error: %s is not a valid directory\n", input)
		return errReported
	}
	var output string
	if len(args) > 1 {
		output = args[1]
	}

	recursive, _ := cmd.Flags().GetBool("recursive")
	reportPath, _ := cmd.Flags().GetString("report")
	noProgress, _ := cmd.Flags().GetBool("no-progress")
	failOnError, _ := cmd.Flags().GetBool("fail-on-error")

	backend, err := convert.Select(cfg.Conversion, logger)
	if err != nil {
		return err
	}

	opts := convert.Options{
		Timeout:  cfg.Conversion.Timeout,
		Patterns: cfg.Discovery.Patterns,
		Out:      out,
		Logger:   &logger,
	}
	if !noProgress && cfg.Log.Format != "json" {
		opts.Observer = newProgressObserver(cmd.ErrOrStderr())
	}

	ctx := cmd.Context()
	summary, err := convert.NewDriver(backend, opts).Run(ctx, convert.BatchRequest{
		InputRoot:  input,
		OutputRoot: output,
		Recursive:  recursive,
	})
	if err != nil {
		return err
	}

	if reportPath != "" {
		if err := convert.WriteReport(reportPath, summary); err != nil {
			return fmt.Errorf("writing report: %w", err)
		}
		logger.Info().Str("path", reportPath).Msg("report written")
	}
	recordHistory(ctx, summary)

	if failOnError && summary.HasFailures() {
		return fmt.Errorf("%d of %d files failed to convert", summary.Failed, summary.Found)
	}
	return nil
}

// recordHistory appends the run to the history database when one is
// configured. Failures are logged and never fail the batch.
func recordHistory(ctx context.Context, summary types.BatchSummary) {
	if cfg.History.Path == "" {
		return
	}
	store, err := history.NewStore(cfg.History.Path)
	if err != nil {
		logger.Warn().Err(err).Str("path", cfg.History.Path).Msg("history unavailable")
		return
	}
	defer store.Close()

	// Interrupted batches are recorded too.
	if err := store.Record(context.WithoutCancel(ctx), summary); err != nil {
		logger.Warn().Err(err).Str("run_id", summary.RunID).Msg("recording run failed")
		return
	}
	logger.Debug().Str("run_id", summary.RunID).Str("path", cfg.History.Path).Msg("run recorded")
}
