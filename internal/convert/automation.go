// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package convert

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
)

const powerPointProgID = "PowerPoint.Application"

// AutomationBackend converts presentations by driving a live PowerPoint
// instance over COM: open, export as PDF, close, quit. It is only available
// on Windows with PowerPoint installed.
type AutomationBackend struct {
	progID string
	// export performs one blocking open/export/close/quit round-trip.
	export func(progID, input, output string) error
}

// NewAutomationBackend probes for the office-suite automation server and
// returns ErrBackendUnavailable when it cannot be reached.
func NewAutomationBackend() (*AutomationBackend, error) {
	if err := probeAutomation(powerPointProgID); err != nil {
		return nil, err
	}
	return &AutomationBackend{progID: powerPointProgID, export: exportPDF}, nil
}

// Name identifies the backend.
func (a *AutomationBackend) Name() string {
	return "automation:" + a.progID
}

// Convert exports input as PDF to output. The COM round-trip runs on its own
// locked OS thread; if ctx ends first Convert returns without waiting and the
// round-trip is abandoned.
func (a *AutomationBackend) Convert(ctx context.Context, input, output string) error {
	in, err := filepath.Abs(input)
	if err != nil {
		return fmt.Errorf("resolving %s: %w", input, err)
	}
	out, err := filepath.Abs(output)
	if err != nil {
		return fmt.Errorf("resolving %s: %w", output, err)
	}
	if err := os.MkdirAll(filepath.Dir(out), 0o755); err != nil {
		return fmt.Errorf("creating output directory: %w", err)
	}

	done := make(chan error, 1)
	go func() {
		done <- a.export(a.progID, in, out)
	}()

	select {
	case err := <-done:
		if err != nil {
			return fmt.Errorf("%w: %v", ErrConversionFailed, err)
		}
		return nil
	case <-ctx.Done():
		return fmt.Errorf("%w: waiting for %s: %v", ErrConversionFailed, a.progID, ctx.Err())
	}
}
