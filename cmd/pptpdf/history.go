// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"

	"github.com/pdiddy/pptpdf/internal/history"
)

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Show past conversion runs",
	Long: `History reads the run ledger written by batches started with --history
(or history.path in the config file). It lists recent runs, shows the jobs
of one run with --run, or writes an export file with --export.`,
	Args: cobra.NoArgs,
	RunE: runHistory,
}

func runHistory(cmd *cobra.Command, args []string) error {
	if cfg.History.Path == "" {
		return errors.New("no history database configured: pass --history or set history.path")
	}
	limit, _ := cmd.Flags().GetInt("limit")
	runID, _ := cmd.Flags().GetString("run")
	exportPath, _ := cmd.Flags().GetString("export")
	jsonOutput, _ := cmd.Flags().GetBool("json")

	store, err := history.NewStore(cfg.History.Path)
	if err != nil {
		return err
	}
	defer store.Close()

	ctx := cmd.Context()
	out := cmd.OutOrStdout()

	if exportPath != "" {
		if err := store.Export(ctx, exportPath, runID); err != nil {
			return err
		}
		fmt.Fprintf(out, "Exported to %s\n", exportPath)
		return nil
	}

	if runID != "" {
		run, err := store.Run(ctx, runID)
		if err != nil {
			return err
		}
		jobs, err := store.Jobs(ctx, runID)
		if err != nil {
			return err
		}
		if jsonOutput {
			return writeJSON(out, history.ExportEntry{Run: run, Jobs: jobs})
		}
		formatJobs(out, run, jobs)
		return nil
	}

	runs, err := store.ListRuns(ctx, limit)
	if err != nil {
		return err
	}
	if jsonOutput {
		return writeJSON(out, runs)
	}
	formatRuns(out, runs)
	return nil
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func formatRuns(w io.Writer, runs []history.Run) {
	if len(runs) == 0 {
		fmt.Fprintln(w, "No runs recorded.")
		return
	}
	for _, r := range runs {
		fmt.Fprintf(w, "%s  %s  %d/%d converted  %s -> %s  (%s)\n",
			r.ID, r.StartedAt.Local().Format(time.DateTime),
			r.Succeeded, r.Found, r.InputRoot, r.OutputRoot, r.Backend)
	}
}

func formatJobs(w io.Writer, run history.Run, jobs []history.Job) {
	fmt.Fprintf(w, "Run %s: %d/%d converted, %d failed\n", run.ID, run.Succeeded, run.Found, run.Failed)
	for _, j := range jobs {
		fmt.Fprintf(w, "  [%s] %s", j.Status, j.Input)
		if j.Reason != "" {
			fmt.Fprintf(w, ": %s", j.Reason)
		}
		fmt.Fprintf(w, " (%s)\n", j.Duration.Round(time.Millisecond))
	}
}

func init() {
	historyCmd.Flags().Int("limit", history.DefaultLimit, "maximum number of runs to list")
	historyCmd.Flags().String("run", "", "show the jobs of this run ID")
	historyCmd.Flags().String("export", "", "write runs and jobs to a YAML or JSON file")
	historyCmd.Flags().Bool("json", false, "print JSON instead of text")

	rootCmd.AddCommand(historyCmd)
}
