// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package convert

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	"github.com/pdiddy/pptpdf/internal/container"
)

const (
	defaultProgram = "soffice"
	// macOSBundleProgram is where the LibreOffice cask installs the binary
	// without putting it on PATH.
	macOSBundleProgram = "/Applications/LibreOffice.app/Contents/MacOS/soffice"

	installHint = "LibreOffice is not installed or not in PATH. Please install LibreOffice to convert presentations on this platform.\n" +
		"  On macOS: brew install --cask libreoffice\n" +
		"  On Linux: sudo apt-get install libreoffice"

	// maxReasonLen caps converter stderr copied into a failure reason.
	maxReasonLen = 2048

	// waitDelay bounds how long Run waits for output pipes after the
	// converter is killed.
	waitDelay = 2 * time.Second
)

// executor abstracts command execution for testing.
type executor interface {
	LookPath(file string) (string, error)
	Run(ctx context.Context, name string, args []string, stdout, stderr io.Writer) error
}

// osExecutor is the production executor backed by os/exec.
type osExecutor struct{}

func (osExecutor) LookPath(file string) (string, error) {
	return exec.LookPath(file)
}

func (osExecutor) Run(ctx context.Context, name string, args []string, stdout, stderr io.Writer) error {
	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Stdout = stdout
	cmd.Stderr = stderr
	cmd.WaitDelay = waitDelay
	killProcessGroup(cmd)
	return cmd.Run()
}

// HeadlessBackend converts presentations by running an office suite in
// headless mode:
//
//	<program> --headless --convert-to pdf --outdir <dir> <input>
//
// The converter names its output after the input's stem; Convert moves the
// file to the requested path when the two differ.
type HeadlessBackend struct {
	program string
	exec    executor

	// Set when the converter runs inside a container image.
	runtime container.Runtime
	image   string
}

// NewHeadlessBackend creates a backend for the local converter program. An
// empty program means "soffice". The program is probed on every Convert so a
// missing install fails each job with ErrBackendUnavailable rather than
// aborting the batch.
func NewHeadlessBackend(program string) *HeadlessBackend {
	if program == "" {
		program = defaultProgram
	}
	return &HeadlessBackend{program: program, exec: osExecutor{}}
}

// NewContainerHeadlessBackend creates a backend that runs program inside
// image using rt. It verifies the image exists locally before returning.
func NewContainerHeadlessBackend(rt container.Runtime, image, program string) (*HeadlessBackend, error) {
	if err := rt.ImageExists(image); err != nil {
		return nil, fmt.Errorf("%w: converter image not available in %s: %v", ErrBackendUnavailable, rt.Name(), err)
	}
	h := NewHeadlessBackend(program)
	h.runtime = rt
	h.image = image
	return h, nil
}

// Name identifies the backend.
func (h *HeadlessBackend) Name() string {
	if h.runtime != nil {
		return "headless:" + h.runtime.Name() + ":" + h.image
	}
	return "headless:" + h.program
}

// Convert runs the converter for input and leaves the PDF at output.
func (h *HeadlessBackend) Convert(ctx context.Context, input, output string) error {
	outDir := filepath.Dir(output)
	if err := os.MkdirAll(outDir, 0o755); err != nil {
		return fmt.Errorf("creating output directory %s: %w", outDir, err)
	}

	name, args, err := h.command(input, outDir)
	if err != nil {
		return err
	}

	// A PDF left by an earlier run must not pass for this run's output.
	produced := OutputPathFor(input, outDir)
	for _, p := range []string{produced, output} {
		if err := os.Remove(p); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("%w: removing stale %s: %v", ErrConversionFailed, p, err)
		}
	}

	var stdout, stderr bytes.Buffer
	if err := h.exec.Run(ctx, name, args, &stdout, &stderr); err != nil {
		if ctx.Err() != nil {
			return fmt.Errorf("%w: %s interrupted: %v", ErrConversionFailed, filepath.Base(name), ctx.Err())
		}
		reason := strings.TrimSpace(stderr.String())
		if reason == "" {
			reason = err.Error()
		}
		if len(reason) > maxReasonLen {
			reason = reason[:maxReasonLen] + "..."
		}
		return fmt.Errorf("%w: %s: %s", ErrConversionFailed, filepath.Base(name), reason)
	}

	if produced != output {
		if err := os.Rename(produced, output); err != nil {
			return fmt.Errorf("%w: moving %s to %s: %v", ErrConversionFailed, produced, output, err)
		}
	}

	if _, err := os.Stat(output); err != nil {
		return fmt.Errorf("%w: converter exited successfully but wrote no PDF at %s", ErrConversionFailed, output)
	}
	return nil
}

// command resolves the binary and argv for one conversion.
func (h *HeadlessBackend) command(input, outDir string) (string, []string, error) {
	if h.runtime != nil {
		in, err := filepath.Abs(input)
		if err != nil {
			return "", nil, fmt.Errorf("resolving %s: %w", input, err)
		}
		out, err := filepath.Abs(outDir)
		if err != nil {
			return "", nil, fmt.Errorf("resolving %s: %w", outDir, err)
		}
		args := h.runtime.RunArgs(h.image, []string{filepath.Dir(in), out}, h.program, converterArgs(in, out)...)
		return h.runtime.Name(), args, nil
	}

	bin, err := h.resolve()
	if err != nil {
		return "", nil, err
	}
	return bin, converterArgs(input, outDir), nil
}

// resolve finds the converter binary. Besides the configured program it
// tries the "libreoffice" wrapper and the macOS app bundle when the default
// is in use.
func (h *HeadlessBackend) resolve() (string, error) {
	candidates := []string{h.program}
	if h.program == defaultProgram {
		candidates = append(candidates, "libreoffice", macOSBundleProgram)
	}
	for _, c := range candidates {
		if path, err := h.exec.LookPath(c); err == nil {
			return path, nil
		}
	}
	return "", fmt.Errorf("%w: %s", ErrBackendUnavailable, installHint)
}

func converterArgs(input, outDir string) []string {
	return []string{"--headless", "--convert-to", "pdf", "--outdir", outDir, input}
}
