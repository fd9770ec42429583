// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package container detects a container runtime and builds the command line
// that runs the headless office converter inside an image.
package container

import (
	"fmt"
	"os/exec"
	"sort"
)

const (
	binDocker = "docker"
	binPodman = "podman"
)

// Runtime provides container operations: checking availability, verifying
// images, and building run commands.
type Runtime interface {
	// Name returns the runtime binary ("docker" or "podman").
	Name() string

	// Available reports whether the runtime binary exists on PATH and
	// responds to an info command.
	Available() bool

	// ImageExists checks whether the named image exists locally.
	// Returns nil when the image is found, or an error describing the failure.
	ImageExists(image string) error

	// RunArgs returns the runtime arguments that execute program with args
	// inside image. Each directory in mounts is bind-mounted at the same path
	// so host paths stay valid inside the container.
	RunArgs(image string, mounts []string, program string, args ...string) []string
}

// executor abstracts command execution for testing.
type executor interface {
	LookPath(file string) (string, error)
	RunSilent(name string, args ...string) error
}

// osExecutor is the production executor backed by os/exec.
type osExecutor struct{}

func (o *osExecutor) LookPath(file string) (string, error) {
	return exec.LookPath(file)
}

func (o *osExecutor) RunSilent(name string, args ...string) error {
	return exec.Command(name, args...).Run()
}

// runtime implements Runtime for a specific container binary. Both Docker
// and Podman share the same logic; they differ only in binary name and the
// subcommand used to check image existence.
type runtime struct {
	bin           string
	imageCheckCmd []string // e.g. ["image", "inspect"] for docker
	exec          executor
}

func (r *runtime) Name() string { return r.bin }

func (r *runtime) Available() bool {
	if _, err := r.exec.LookPath(r.bin); err != nil {
		return false
	}
	return r.exec.RunSilent(r.bin, "info") == nil
}

func (r *runtime) ImageExists(image string) error {
	args := make([]string, 0, len(r.imageCheckCmd)+1)
	args = append(args, r.imageCheckCmd...)
	args = append(args, image)

	if err := r.exec.RunSilent(r.bin, args...); err != nil {
		return fmt.Errorf("image %s not found in %s: %w", image, r.bin, err)
	}
	return nil
}

func (r *runtime) RunArgs(image string, mounts []string, program string, args ...string) []string {
	dirs := uniqueSorted(mounts)
	argv := make([]string, 0, 3+2*len(dirs)+2+len(args))
	argv = append(argv, "run", "--rm", "--network=none")
	for _, d := range dirs {
		argv = append(argv, "-v", d+":"+d)
	}
	argv = append(argv, image, program)
	return append(argv, args...)
}

func uniqueSorted(in []string) []string {
	seen := make(map[string]bool, len(in))
	out := make([]string, 0, len(in))
	for _, s := range in {
		if s == "" || seen[s] {
			continue
		}
		seen[s] = true
		out = append(out, s)
	}
	sort.Strings(out)
	return out
}

func newDockerRuntime(exec executor) *runtime {
	return &runtime{
		bin:           binDocker,
		imageCheckCmd: []string{"image", "inspect"},
		exec:          exec,
	}
}

func newPodmanRuntime(exec executor) *runtime {
	return &runtime{
		bin:           binPodman,
		imageCheckCmd: []string{"image", "exists"},
		exec:          exec,
	}
}

var defaultExec = &osExecutor{}

// DetectRuntime tries docker first, falls back to podman. Returns an error
// if neither runtime is available.
func DetectRuntime() (Runtime, error) {
	return detectRuntime(defaultExec)
}

func detectRuntime(exec executor) (Runtime, error) {
	docker := newDockerRuntime(exec)
	if docker.Available() {
		return docker, nil
	}

	podman := newPodmanRuntime(exec)
	if podman.Available() {
		return podman, nil
	}

	return nil, fmt.Errorf(
		"no container runtime available: neither %s nor %s found or operational",
		binDocker, binPodman,
	)
}

// Named returns the runtime called name ("docker" or "podman"), or detects
// one when name is empty.
func Named(name string) (Runtime, error) {
	return named(defaultExec, name)
}

func named(exec executor, name string) (Runtime, error) {
	var rt *runtime
	switch name {
	case "":
		return detectRuntime(exec)
	case binDocker:
		rt = newDockerRuntime(exec)
	case binPodman:
		rt = newPodmanRuntime(exec)
	default:
		return nil, fmt.Errorf("unknown container runtime %q: use %s or %s", name, binDocker, binPodman)
	}
	if !rt.Available() {
		return nil, fmt.Errorf("container runtime %s not found or not operational", name)
	}
	return rt, nil
}
