// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package convert drives batch presentation-to-PDF conversion over a
// pluggable external backend (PowerPoint automation or a headless office
// converter). Each file is converted in isolation: a failing file is
// reported and the batch moves on.
package convert

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/pdiddy/pptpdf/internal/discover"
	"github.com/pdiddy/pptpdf/pkg/types"
)

const (
	pdfExt           = ".pdf"
	outputRootSuffix = "_pdf"
)

var (
	// ErrDiscoveryEmpty reports a batch with nothing to convert. Run logs it
	// and returns a zero summary; it is never returned as an error.
	ErrDiscoveryEmpty = errors.New("no presentation files found")

	// ErrBackendUnavailable means the external tool a backend needs is missing.
	ErrBackendUnavailable = errors.New("conversion backend unavailable")

	// ErrConversionFailed wraps automation errors, non-zero converter exits,
	// and missing output files.
	ErrConversionFailed = errors.New("conversion failed")

	// ErrTimeout marks a job that exceeded its deadline.
	ErrTimeout = errors.New("conversion timed out")

	// ErrInvalidInput marks an input root that is not a directory.
	ErrInvalidInput = errors.New("invalid input")
)

// Backend converts one presentation to PDF. Implementations must honour ctx
// and must write the result to exactly output.
type Backend interface {
	// Name identifies the backend in logs and reports.
	Name() string

	// Convert writes a PDF rendition of input to output.
	Convert(ctx context.Context, input, output string) error
}

// Observer receives batch progress. It is called from the driver's goroutine
// only.
type Observer interface {
	Start(total int)
	Done(result types.ConversionResult)
	Finish()
}

type nopObserver struct{}

func (nopObserver) Start(int)                   {}
func (nopObserver) Done(types.ConversionResult) {}
func (nopObserver) Finish()                     {}

// Options configures a Driver. The zero value is usable.
type Options struct {
	// Timeout bounds each job. Zero means no bound.
	Timeout time.Duration

	// Patterns overrides discover.DefaultPatterns.
	Patterns []string

	// Out receives the human-readable status lines. Defaults to io.Discard.
	Out io.Writer

	// Logger receives structured per-job events. Defaults to a no-op logger.
	Logger *zerolog.Logger

	// Observer is notified as jobs complete.
	Observer Observer
}

// BatchRequest names the directories of one batch.
type BatchRequest struct {
	InputRoot string
	// OutputRoot defaults to DefaultOutputRoot(InputRoot).
	OutputRoot string
	Recursive  bool
}

// Driver runs conversion batches sequentially over a single Backend. It keeps
// no state between runs.
type Driver struct {
	backend  Backend
	finder   discover.Finder
	timeout  time.Duration
	out      io.Writer
	log      zerolog.Logger
	observer Observer
}

// NewDriver creates a driver that dispatches every job to b.
func NewDriver(b Backend, opts Options) *Driver {
	d := &Driver{
		backend:  b,
		finder:   discover.Finder{Patterns: opts.Patterns},
		timeout:  opts.Timeout,
		out:      opts.Out,
		log:      zerolog.Nop(),
		observer: opts.Observer,
	}
	if d.out == nil {
		d.out = io.Discard
	}
	if opts.Logger != nil {
		d.log = *opts.Logger
	}
	if d.observer == nil {
		d.observer = nopObserver{}
	}
	return d
}

// Backend returns the backend jobs are dispatched to.
func (d *Driver) Backend() Backend {
	return d.backend
}

// ValidateInputRoot checks that path is an existing directory.
func ValidateInputRoot(path string) error {
	info, err := os.Stat(path)
	if err != nil || !info.IsDir() {
		return fmt.Errorf("%w: %s is not a valid directory", ErrInvalidInput, path)
	}
	return nil
}

// DefaultOutputRoot returns "<inputRoot>_pdf".
func DefaultOutputRoot(inputRoot string) string {
	return filepath.Clean(inputRoot) + outputRootSuffix
}

// DefaultOutputPath returns input with its extension replaced by ".pdf".
func DefaultOutputPath(input string) string {
	return strings.TrimSuffix(input, filepath.Ext(input)) + pdfExt
}

// OutputPathFor returns the PDF path for input inside outputRoot.
func OutputPathFor(input, outputRoot string) string {
	base := filepath.Base(input)
	return filepath.Join(outputRoot, strings.TrimSuffix(base, filepath.Ext(base))+pdfExt)
}

// PlanJobs builds one job per file, in order. Files that share a stem map to
// the same output; the later job overwrites the earlier one.
func (d *Driver) PlanJobs(files []string, outputRoot string) []types.ConversionJob {
	jobs := make([]types.ConversionJob, len(files))
	claimed := make(map[string]string, len(files))
	for i, f := range files {
		out := OutputPathFor(f, outputRoot)
		if prev, ok := claimed[out]; ok {
			d.log.Warn().Str("input", f).Str("previous", prev).Str("output", out).
				Msg("output name collision; later file overwrites")
		}
		claimed[out] = f
		jobs[i] = types.ConversionJob{InputPath: f, OutputPath: out}
	}
	return jobs
}

// Run converts every presentation under req.InputRoot. Only pre-flight
// problems (output root cannot be created, input root cannot be walked) are
// returned as errors; per-file failures are recorded in the summary.
func (d *Driver) Run(ctx context.Context, req BatchRequest) (types.BatchSummary, error) {
	outRoot := req.OutputRoot
	if outRoot == "" {
		outRoot = DefaultOutputRoot(req.InputRoot)
	}

	summary := types.BatchSummary{
		RunID:      uuid.NewString(),
		InputRoot:  req.InputRoot,
		OutputRoot: outRoot,
		Backend:    d.backend.Name(),
		Recursive:  req.Recursive,
		StartedAt:  time.Now().UTC(),
		Converted:  []types.ConvertedPair{},
	}
	log := d.log.With().Str("run_id", summary.RunID).Logger()

	if err := os.MkdirAll(outRoot, 0o755); err != nil {
		return summary, fmt.Errorf("creating output directory %s: %w", outRoot, err)
	}

	files, err := d.finder.Find(req.InputRoot, req.Recursive)
	if err != nil {
		return summary, fmt.Errorf("discovering presentations in %s: %w", req.InputRoot, err)
	}
	summary.Found = len(files)

	if len(files) == 0 {
		fmt.Fprintf(d.out, "No PowerPoint files found in %s\n", req.InputRoot)
		log.Info().Err(ErrDiscoveryEmpty).Str("input_root", req.InputRoot).Msg("nothing to convert")
		summary.FinishedAt = time.Now().UTC()
		return summary, nil
	}

	fmt.Fprintf(d.out, "Found %d PowerPoint files to convert\n", len(files))
	log.Info().Int("found", len(files)).Str("backend", d.backend.Name()).
		Str("output_root", outRoot).Msg("batch started")

	d.observer.Start(len(files))
	for _, job := range d.PlanJobs(files, outRoot) {
		fmt.Fprintf(d.out, "Converting: %s\n", job.InputPath)
		result := d.ConvertOne(ctx, job)
		summary.Add(result)
		d.observer.Done(result)
	}
	d.observer.Finish()

	summary.FinishedAt = time.Now().UTC()
	fmt.Fprintf(d.out, "\nConversion completed! Successfully converted %d out of %d files.\n",
		summary.Succeeded, summary.Found)
	log.Info().Int("found", summary.Found).Int("succeeded", summary.Succeeded).
		Int("failed", summary.Failed).Dur("elapsed", summary.FinishedAt.Sub(summary.StartedAt)).
		Msg("batch finished")
	return summary, nil
}

// ConvertFile converts a single file. An empty output means
// DefaultOutputPath(input).
func (d *Driver) ConvertFile(ctx context.Context, input, output string) types.ConversionResult {
	if output == "" {
		output = DefaultOutputPath(input)
	}
	return d.ConvertOne(ctx, types.ConversionJob{InputPath: input, OutputPath: output})
}

// ConvertOne dispatches job to the backend and always returns a terminal
// result. Errors and panics from the backend become a failed result.
func (d *Driver) ConvertOne(ctx context.Context, job types.ConversionJob) (result types.ConversionResult) {
	result = types.ConversionResult{Job: job, Status: types.ConversionPending}
	start := time.Now()

	defer func() {
		if p := recover(); p != nil {
			result.Status = types.ConversionFailed
			result.Reason = fmt.Sprintf("%s backend panicked: %v", d.backend.Name(), p)
		}
		result.Duration = time.Since(start)
		d.report(result)
	}()

	if err := ctx.Err(); err != nil {
		result.Status = types.ConversionFailed
		result.Reason = fmt.Sprintf("batch cancelled: %v", err)
		return result
	}

	if dir := filepath.Dir(job.OutputPath); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			result.Status = types.ConversionFailed
			result.Reason = fmt.Sprintf("creating output directory %s: %v", dir, err)
			return result
		}
	}

	jobCtx, cancel := d.jobContext(ctx)
	defer cancel()

	result.Status = types.ConversionDispatched
	err := d.backend.Convert(jobCtx, job.InputPath, job.OutputPath)
	if err != nil {
		if errors.Is(jobCtx.Err(), context.DeadlineExceeded) && ctx.Err() == nil {
			err = fmt.Errorf("%w after %s: %v", ErrTimeout, d.timeout, err)
		}
		result.Status = types.ConversionFailed
		result.Reason = err.Error()
		return result
	}

	result.Status = types.ConversionSucceeded
	return result
}

func (d *Driver) jobContext(ctx context.Context) (context.Context, context.CancelFunc) {
	if d.timeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, d.timeout)
}

// report writes the status line and the structured event for one result.
func (d *Driver) report(r types.ConversionResult) {
	ev := d.log.Info()
	if !r.Succeeded() {
		ev = d.log.Error()
	}
	ev.Str("input", r.Job.InputPath).
		Str("output", r.Job.OutputPath).
		Str("backend", d.backend.Name()).
		Str("status", string(r.Status)).
		Dur("duration", r.Duration)
	if r.Reason != "" {
		ev = ev.Str("reason", r.Reason)
	}
	ev.Msg("job finished")

	if r.Succeeded() {
		fmt.Fprintf(d.out, "Successfully converted: %s -> %s\n", r.Job.InputPath, r.Job.OutputPath)
		return
	}
	fmt.Fprintf(d.out, "Error converting %s: %s\n", r.Job.InputPath, r.Reason)
}
