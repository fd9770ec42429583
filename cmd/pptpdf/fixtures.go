// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/pdiddy/pptpdf/internal/fixtures"
)

var fixturesCmd = &cobra.Command{
	Use:   "fixtures [dir]",
	Short: "Generate sample presentations for testing conversion",
	Long: `Fixtures writes small .pptx files with a title slide and a bullet slide.
By default it writes presentation_1.pptx, presentation_2.pptx,
presentation_3.pptx, and my_presentation.pptx into dir (default: current
directory). With --single it writes only test_presentation.pptx.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runFixtures,
}

func runFixtures(cmd *cobra.Command, args []string) error {
	dir := "."
	if len(args) == 1 {
		dir = args[0]
	}
	single, _ := cmd.Flags().GetBool("single")

	decks := fixtures.DefaultSet()
	if single {
		decks = []fixtures.Deck{fixtures.Single()}
	}

	out := cmd.OutOrStdout()
	paths, err := fixtures.WriteAll(dir, decks, out)
	if err != nil {
		return err
	}
	if len(paths) > 1 {
		fmt.Fprintln(out, "\nAll test presentations created successfully!")
	}
	return nil
}

func init() {
	fixturesCmd.Flags().Bool("single", false, "write a single test_presentation.pptx")
	rootCmd.AddCommand(fixturesCmd)
}
