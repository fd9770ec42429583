// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package main is the entry point for the pptpdf CLI: batch conversion of
// PowerPoint presentations to PDF, plus fixture generation, watch mode, and
// the run history ledger.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/pdiddy/pptpdf/internal/config"
	"github.com/pdiddy/pptpdf/internal/logging"
	"github.com/pdiddy/pptpdf/pkg/types"
)

// version is set at build time via ldflags.
var version = "dev"

// errReported signals that the command already printed its error.
var errReported = errors.New("error already reported")

var (
	v      = viper.New()
	cfg    types.Config
	logger = zerolog.Nop()
)

// rootCmd converts a folder of presentations when given arguments.
var rootCmd = &cobra.Command{
	Use:   "pptpdf <input_folder> [output_folder]",
	Short: "Convert PowerPoint presentations to PDF in bulk",
	Long: `pptpdf converts every .ppt and .pptx file in a folder to PDF. On Windows
it drives PowerPoint through COM automation; elsewhere it runs LibreOffice in
headless mode. PDFs are written to output_folder, which defaults to
<input_folder>_pdf.

A file that fails to convert is reported and the batch continues.

A folder named like a subcommand (fixtures, history, watch, version) must be
given as a path, for example ./history.`,
	Example: `  pptpdf ./decks
  pptpdf ./decks ./pdfs --recursive
  pptpdf ./history ./history_pdf
  pptpdf ./decks --report run.yaml --history ~/.local/share/pptpdf/history.db`,
	Args:              cobra.MaximumNArgs(2),
	SilenceUsage:      true,
	SilenceErrors:     true,
	PersistentPreRunE: loadConfig,
	RunE:              runBatch,
}

func init() {
	pf := rootCmd.PersistentFlags()
	pf.String("config", "", "config file (default: ./pptpdf.yaml or ~/.config/pptpdf/pptpdf.yaml)")
	pf.String("backend", string(types.BackendAuto), "conversion backend: auto, automation, or headless")
	pf.String("program", "soffice", "headless converter program")
	pf.Duration("timeout", config.DefaultTimeout, "per-file conversion timeout (0 disables)")
	pf.String("container-image", "", "run the headless converter inside this container image")
	pf.String("runtime", "", "container runtime: docker or podman (default: detect)")
	pf.String("history", "", "SQLite database recording each run")
	pf.String("log-level", "info", "log level: debug, info, warn, or error")
	pf.String("log-format", "console", "log format: console or json")

	if err := config.BindFlags(v, pf); err != nil {
		panic(err)
	}
}

func loadConfig(cmd *cobra.Command, args []string) error {
	cfgFile, _ := cmd.Flags().GetString("config")
	c, used, err := config.Load(v, cfgFile)
	if err != nil {
		return err
	}
	cfg = c

	l, err := logging.New(cfg.Log, os.Stderr)
	if err != nil {
		return err
	}
	logger = l
	if used != "" {
		logger.Debug().Str("file", used).Msg("using config file")
	}
	return nil
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := rootCmd.ExecuteContext(ctx)
	stop()
	if err != nil {
		if !errors.Is(err, errReported) {
			fmt.Fprintln(os.Stderr, "Error:", err)
		}
		os.Exit(1)
	}
}
