// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/pdiddy/pptpdf/internal/convert"
	"github.com/pdiddy/pptpdf/internal/watch"
)

var watchCmd = &cobra.Command{
	Use:   "watch <input_folder> [output_folder]",
	Short: "Convert presentations as they are added or changed",
	Long: `Watch monitors input_folder and converts each new or modified .ppt or
.pptx file once writes have settled. Files are converted one at a time with
the same backend and timeout as a batch. Stop with Ctrl-C.`,
	Args: cobra.RangeArgs(1, 2),
	RunE: runWatch,
}

func runWatch(cmd *cobra.Command, args []string) error {
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
	debounce, _ := cmd.Flags().GetDuration("debounce")

	backend, err := convert.Select(cfg.Conversion, logger)
	if err != nil {
		return err
	}
	driver := convert.NewDriver(backend, convert.Options{
		Timeout:  cfg.Conversion.Timeout,
		Patterns: cfg.Discovery.Patterns,
		Out:      out,
		Logger:   &logger,
	})

	w := watch.New(driver, input, watch.Options{
		OutputRoot: output,
		Recursive:  recursive,
		Patterns:   cfg.Discovery.Patterns,
		Debounce:   debounce,
		Logger:     &logger,
	})
	fmt.Fprintf(out, "Watching %s (PDFs go to %s). Press Ctrl-C to stop.\n", input, w.OutputRoot())
	return w.Run(cmd.Context())
}

func init() {
	watchCmd.Flags().BoolP("recursive", "r", false, "watch subdirectories too")
	watchCmd.Flags().Duration("debounce", watch.DefaultDebounce, "quiet period before converting changed files")

	rootCmd.AddCommand(watchCmd)
}
