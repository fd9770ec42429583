// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

//go:build !windows

package convert

import "fmt"

func probeAutomation(progID string) error {
	return fmt.Errorf("%w: %s automation requires Windows", ErrBackendUnavailable, progID)
}

func exportPDF(progID, _, _ string) error {
	return probeAutomation(progID)
}
