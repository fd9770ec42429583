// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

//go:build windows

package convert

import "os/exec"

// killProcessGroup keeps the default cancellation, which kills the process;
// WaitDelay bounds the wait on any inherited pipes.
func killProcessGroup(*exec.Cmd) {}
