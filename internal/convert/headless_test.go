// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package convert

import (
	"bytes"
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	goruntime "runtime"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/pptpdf/pkg/types"
)

// mockExecutor records calls and simulates the converter. By default a run
// writes <outdir>/<stem>.pdf the way LibreOffice does.
type mockExecutor struct {
	availableBins map[string]bool
	runFunc       func(name string, args []string, stdout, stderr io.Writer) error
	calls         [][]string
}

func (m *mockExecutor) LookPath(file string) (string, error) {
	if m.availableBins[file] {
		if filepath.IsAbs(file) {
			return file, nil
		}
		return "/usr/bin/" + file, nil
	}
	return "", errors.New("not found: " + file)
}

func (m *mockExecutor) Run(ctx context.Context, name string, args []string, stdout, stderr io.Writer) error {
	m.calls = append(m.calls, append([]string{name}, args...))
	if m.runFunc != nil {
		return m.runFunc(name, args, stdout, stderr)
	}
	return writeLikeSoffice(args)
}

// writeLikeSoffice emulates "--outdir <dir> <input>".
func writeLikeSoffice(args []string) error {
	var outDir string
	for i, a := range args {
		if a == "--outdir" && i+1 < len(args) {
			outDir = args[i+1]
		}
	}
	input := args[len(args)-1]
	stem := strings.TrimSuffix(filepath.Base(input), filepath.Ext(input))
	return os.WriteFile(filepath.Join(outDir, stem+".pdf"), []byte("%PDF"), 0o644)
}

func newTestHeadless(exec *mockExecutor) *HeadlessBackend {
	h := NewHeadlessBackend("")
	h.exec = exec
	return h
}

func TestHeadless_Convert(t *testing.T) {
	in := filepath.Join(t.TempDir(), "sample.pptx")
	require.NoError(t, os.WriteFile(in, []byte("pptx"), 0o644))
	outRoot := filepath.Join(t.TempDir(), "out")

	exec := &mockExecutor{availableBins: map[string]bool{"soffice": true}}
	h := newTestHeadless(exec)

	out := OutputPathFor(in, outRoot)
	require.NoError(t, h.Convert(context.Background(), in, out))

	assert.FileExists(t, filepath.Join(outRoot, "sample.pdf"))
	require.Len(t, exec.calls, 1)
	assert.Equal(t, []string{
		"/usr/bin/soffice", "--headless", "--convert-to", "pdf", "--outdir", outRoot, in,
	}, exec.calls[0])
}

func TestHeadless_RenamesToRequestedOutput(t *testing.T) {
	in := filepath.Join(t.TempDir(), "sample.pptx")
	require.NoError(t, os.WriteFile(in, []byte("pptx"), 0o644))
	outDir := t.TempDir()
	want := filepath.Join(outDir, "renamed.pdf")

	h := newTestHeadless(&mockExecutor{availableBins: map[string]bool{"soffice": true}})
	require.NoError(t, h.Convert(context.Background(), in, want))

	assert.FileExists(t, want)
	assert.NoFileExists(t, filepath.Join(outDir, "sample.pdf"))
}

func TestHeadless_ProgramFallbacks(t *testing.T) {
	tests := []struct {
		name    string
		program string
		bins    map[string]bool
		wantBin string
		wantErr bool
	}{
		{
			name:    "soffice on PATH",
			bins:    map[string]bool{"soffice": true, "libreoffice": true},
			wantBin: "/usr/bin/soffice",
		},
		{
			name:    "libreoffice wrapper",
			bins:    map[string]bool{"libreoffice": true},
			wantBin: "/usr/bin/libreoffice",
		},
		{
			name:    "macOS app bundle",
			bins:    map[string]bool{macOSBundleProgram: true},
			wantBin: macOSBundleProgram,
		},
		{
			name:    "custom program has no fallbacks",
			program: "lowriter",
			bins:    map[string]bool{"soffice": true},
			wantErr: true,
		},
		{
			name:    "nothing installed",
			bins:    map[string]bool{},
			wantErr: true,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := NewHeadlessBackend(tt.program)
			h.exec = &mockExecutor{availableBins: tt.bins}
			bin, err := h.resolve()
			if tt.wantErr {
				require.ErrorIs(t, err, ErrBackendUnavailable)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantBin, bin)
		})
	}
}

func TestHeadless_MissingProgramSkipsRun(t *testing.T) {
	in := filepath.Join(t.TempDir(), "a.pptx")
	exec := &mockExecutor{availableBins: map[string]bool{}}
	h := newTestHeadless(exec)

	err := h.Convert(context.Background(), in, filepath.Join(t.TempDir(), "a.pdf"))
	require.ErrorIs(t, err, ErrBackendUnavailable)
	assert.Contains(t, err.Error(), "brew install --cask libreoffice")
	assert.Contains(t, err.Error(), "apt-get install libreoffice")
	assert.Empty(t, exec.calls, "conversion must not be attempted without the program")
}

func TestHeadless_NonZeroExit(t *testing.T) {
	in := filepath.Join(t.TempDir(), "a.pptx")
	exec := &mockExecutor{
		availableBins: map[string]bool{"soffice": true},
		runFunc: func(_ string, _ []string, _, stderr io.Writer) error {
			io.WriteString(stderr, "Error: source file could not be loaded\n")
			return errors.New("exit status 1")
		},
	}
	h := newTestHeadless(exec)

	err := h.Convert(context.Background(), in, filepath.Join(t.TempDir(), "a.pdf"))
	require.ErrorIs(t, err, ErrConversionFailed)
	assert.Contains(t, err.Error(), "source file could not be loaded")
}

func TestHeadless_NonZeroExitWithoutStderr(t *testing.T) {
	exec := &mockExecutor{
		availableBins: map[string]bool{"soffice": true},
		runFunc: func(string, []string, io.Writer, io.Writer) error {
			return errors.New("exit status 81")
		},
	}
	h := newTestHeadless(exec)

	err := h.Convert(context.Background(), "a.pptx", filepath.Join(t.TempDir(), "a.pdf"))
	require.ErrorIs(t, err, ErrConversionFailed)
	assert.Contains(t, err.Error(), "exit status 81")
}

func TestHeadless_SuccessWithoutOutput(t *testing.T) {
	exec := &mockExecutor{
		availableBins: map[string]bool{"soffice": true},
		runFunc:       func(string, []string, io.Writer, io.Writer) error { return nil },
	}
	h := newTestHeadless(exec)

	err := h.Convert(context.Background(), "a.pptx", filepath.Join(t.TempDir(), "a.pdf"))
	require.ErrorIs(t, err, ErrConversionFailed)
}

func TestHeadless_Interrupted(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	exec := &mockExecutor{
		availableBins: map[string]bool{"soffice": true},
		runFunc: func(string, []string, io.Writer, io.Writer) error {
			cancel()
			return errors.New("signal: killed")
		},
	}
	h := newTestHeadless(exec)

	err := h.Convert(ctx, "a.pptx", filepath.Join(t.TempDir(), "a.pdf"))
	require.ErrorIs(t, err, ErrConversionFailed)
	assert.Contains(t, err.Error(), "interrupted")
}

// fakeRuntime implements container.Runtime for backend tests.
type fakeRuntime struct {
	imageErr error
}

func (f *fakeRuntime) Name() string    { return "docker" }
func (f *fakeRuntime) Available() bool { return true }
func (f *fakeRuntime) ImageExists(string) error {
	return f.imageErr
}
func (f *fakeRuntime) RunArgs(image string, mounts []string, program string, args ...string) []string {
	argv := []string{"run", image, program}
	return append(argv, args...)
}

func TestHeadless_Container(t *testing.T) {
	in := filepath.Join(t.TempDir(), "sample.pptx")
	require.NoError(t, os.WriteFile(in, []byte("pptx"), 0o644))
	outRoot := t.TempDir()

	h, err := NewContainerHeadlessBackend(&fakeRuntime{}, "office:latest", "")
	require.NoError(t, err)
	exec := &mockExecutor{}
	h.exec = exec

	assert.Equal(t, "headless:docker:office:latest", h.Name())
	require.NoError(t, h.Convert(context.Background(), in, filepath.Join(outRoot, "sample.pdf")))

	require.Len(t, exec.calls, 1)
	assert.Equal(t, "docker", exec.calls[0][0])
	assert.Equal(t, []string{"run", "office:latest", "soffice", "--headless"}, exec.calls[0][1:5])
	assert.FileExists(t, filepath.Join(outRoot, "sample.pdf"))
}

func TestHeadless_ContainerImageMissing(t *testing.T) {
	_, err := NewContainerHeadlessBackend(&fakeRuntime{imageErr: errors.New("no such image")}, "office:latest", "")
	require.ErrorIs(t, err, ErrBackendUnavailable)
	assert.Contains(t, err.Error(), "no such image")
}

func TestHeadless_SampleLandsInOutputRoot(t *testing.T) {
	inDir := t.TempDir()
	in := filepath.Join(inDir, "sample.pptx")
	require.NoError(t, os.WriteFile(in, []byte("pptx"), 0o644))
	outRoot := filepath.Join(t.TempDir(), "out")

	exec := &mockExecutor{availableBins: map[string]bool{"soffice": true}}
	d := NewDriver(newTestHeadless(exec), Options{})
	summary, err := d.Run(context.Background(), BatchRequest{InputRoot: inDir, OutputRoot: outRoot})
	require.NoError(t, err)

	require.Equal(t, 1, summary.Succeeded)
	assert.Equal(t, filepath.Join(outRoot, "sample.pdf"), summary.Converted[0].Output)
	assert.FileExists(t, filepath.Join(outRoot, "sample.pdf"))
}

func TestHeadless_StaleOutputIsNotSuccess(t *testing.T) {
	in := filepath.Join(t.TempDir(), "sample.pptx")
	require.NoError(t, os.WriteFile(in, []byte("pptx"), 0o644))
	outRoot := t.TempDir()
	stale := filepath.Join(outRoot, "sample.pdf")
	require.NoError(t, os.WriteFile(stale, []byte("%PDF old"), 0o644))

	// LibreOffice exits 0 when it cannot load the source.
	exec := &mockExecutor{
		availableBins: map[string]bool{"soffice": true},
		runFunc:       func(string, []string, io.Writer, io.Writer) error { return nil },
	}
	h := newTestHeadless(exec)

	err := h.Convert(context.Background(), in, stale)
	require.ErrorIs(t, err, ErrConversionFailed)
	assert.NoFileExists(t, stale)
}

func TestHeadless_StaleRenameTargetIsReplaced(t *testing.T) {
	in := filepath.Join(t.TempDir(), "sample.pptx")
	require.NoError(t, os.WriteFile(in, []byte("pptx"), 0o644))
	outDir := t.TempDir()
	want := filepath.Join(outDir, "renamed.pdf")
	require.NoError(t, os.WriteFile(want, []byte("%PDF old"), 0o644))

	h := newTestHeadless(&mockExecutor{availableBins: map[string]bool{"soffice": true}})
	require.NoError(t, h.Convert(context.Background(), in, want))

	data, err := os.ReadFile(want)
	require.NoError(t, err)
	assert.Equal(t, "%PDF", string(data))
}

func TestOSExecutor_DeadlineKillsForkedChildren(t *testing.T) {
	if goruntime.GOOS == "windows" {
		t.Skip("needs a POSIX shell")
	}
	sh, err := osExecutor{}.LookPath("sh")
	if err != nil {
		t.Skip("sh not available")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 500*time.Millisecond)
	defer cancel()

	// The background sleep inherits stdout and stderr, as soffice.bin does
	// from the soffice launcher.
	var stdout, stderr bytes.Buffer
	start := time.Now()
	err = osExecutor{}.Run(ctx, sh, []string{"-c", "sleep 5 & sleep 5"}, &stdout, &stderr)
	elapsed := time.Since(start)

	require.Error(t, err)
	assert.Less(t, elapsed, 500*time.Millisecond+waitDelay+time.Second,
		"Run must return soon after the deadline, took %s", elapsed)
}

func TestHeadless_DeadlineBoundsRealSubprocess(t *testing.T) {
	if goruntime.GOOS == "windows" {
		t.Skip("needs a POSIX shell")
	}
	dir := t.TempDir()
	program := filepath.Join(dir, "hung-soffice")
	require.NoError(t, os.WriteFile(program, []byte("#!/bin/sh\nsleep 5 &\nsleep 5\n"), 0o755))
	in := filepath.Join(dir, "deck.pptx")
	require.NoError(t, os.WriteFile(in, []byte("pptx"), 0o644))

	d := NewDriver(NewHeadlessBackend(program), Options{Timeout: 300 * time.Millisecond})
	start := time.Now()
	result := d.ConvertOne(context.Background(), types.ConversionJob{
		InputPath:  in,
		OutputPath: filepath.Join(dir, "out", "deck.pdf"),
	})

	assert.Equal(t, types.ConversionFailed, result.Status)
	assert.Contains(t, result.Reason, ErrTimeout.Error())
	assert.Less(t, time.Since(start), 300*time.Millisecond+waitDelay+time.Second)
}
