// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package watch converts presentations as they appear or change under a
// directory. Events are debounced and the collected files are converted one
// at a time.
package watch

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/rs/zerolog"

	"github.com/pdiddy/pptpdf/internal/convert"
	"github.com/pdiddy/pptpdf/internal/discover"
	"github.com/pdiddy/pptpdf/pkg/types"
)

// DefaultDebounce is how long the watcher waits after the last event before
// converting.
const DefaultDebounce = 2 * time.Second

// Converter runs one job. *convert.Driver satisfies it.
type Converter interface {
	ConvertOne(ctx context.Context, job types.ConversionJob) types.ConversionResult
}

// Options configures a Watcher.
type Options struct {
	// OutputRoot defaults to convert.DefaultOutputRoot(inputRoot).
	OutputRoot string
	Recursive  bool
	Patterns   []string
	Debounce   time.Duration
	Logger     *zerolog.Logger

	// OnResult, if set, is called after each conversion.
	OnResult func(types.ConversionResult)
}

// Watcher turns file system events under an input root into conversion jobs.
type Watcher struct {
	conv       Converter
	inputRoot  string
	outputRoot string
	recursive  bool
	finder     discover.Finder
	debounce   time.Duration
	log        zerolog.Logger
	onResult   func(types.ConversionResult)

	pending map[string]struct{}
}

// New creates a watcher over inputRoot.
func New(conv Converter, inputRoot string, opts Options) *Watcher {
	w := &Watcher{
		conv:       conv,
		inputRoot:  inputRoot,
		outputRoot: opts.OutputRoot,
		recursive:  opts.Recursive,
		finder:     discover.Finder{Patterns: opts.Patterns},
		debounce:   opts.Debounce,
		log:        zerolog.Nop(),
		onResult:   opts.OnResult,
		pending:    make(map[string]struct{}),
	}
	if w.outputRoot == "" {
		w.outputRoot = convert.DefaultOutputRoot(inputRoot)
	}
	if w.debounce <= 0 {
		w.debounce = DefaultDebounce
	}
	if opts.Logger != nil {
		w.log = *opts.Logger
	}
	return w
}

// OutputRoot returns the directory PDFs are written to.
func (w *Watcher) OutputRoot() string {
	return w.outputRoot
}

// Run watches until ctx is cancelled. Files still pending at cancellation are
// not converted.
func (w *Watcher) Run(ctx context.Context) error {
	if err := convert.ValidateInputRoot(w.inputRoot); err != nil {
		return err
	}
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("creating watcher: %w", err)
	}
	defer fw.Close()

	if err := w.addDirs(fw, w.inputRoot); err != nil {
		return err
	}
	w.log.Info().Str("input_root", w.inputRoot).Str("output_root", w.outputRoot).
		Bool("recursive", w.recursive).Msg("watching for presentations")

	timer := time.NewTimer(w.debounce)
	timer.Stop()
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-fw.Events:
			if !ok {
				return nil
			}
			if w.handle(fw, event) {
				timer.Reset(w.debounce)
			}

		case err, ok := <-fw.Errors:
			if !ok {
				return nil
			}
			w.log.Warn().Err(err).Msg("watcher error")

		case <-timer.C:
			w.flush(ctx)
		}
	}
}

// addDirs watches root and, in recursive mode, every non-hidden directory
// below it.
func (w *Watcher) addDirs(fw *fsnotify.Watcher, root string) error {
	if !w.recursive {
		if err := fw.Add(root); err != nil {
			return fmt.Errorf("watching %s: %w", root, err)
		}
		return nil
	}
	return filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			return nil
		}
		if path != root && discover.Hidden(d.Name()) {
			return fs.SkipDir
		}
		if err := fw.Add(path); err != nil {
			return fmt.Errorf("watching %s: %w", path, err)
		}
		return nil
	})
}

// handle records a relevant event and reports whether the debounce timer
// should restart. fw may be nil in tests.
func (w *Watcher) handle(fw *fsnotify.Watcher, event fsnotify.Event) bool {
	if event.Op == fsnotify.Chmod {
		return false
	}

	if event.Has(fsnotify.Remove) || event.Has(fsnotify.Rename) {
		delete(w.pending, event.Name)
		return false
	}

	if !event.Has(fsnotify.Create) && !event.Has(fsnotify.Write) {
		return false
	}

	info, err := os.Stat(event.Name)
	if err != nil {
		return false
	}
	if info.IsDir() {
		if event.Has(fsnotify.Create) && w.recursive && fw != nil && !discover.Hidden(info.Name()) {
			if err := w.addDirs(fw, event.Name); err != nil {
				w.log.Warn().Err(err).Str("dir", event.Name).Msg("cannot watch new directory")
			}
			w.queueExisting(event.Name)
			return true
		}
		return false
	}

	if !w.finder.Match(event.Name) {
		return false
	}
	w.pending[event.Name] = struct{}{}
	return true
}

// queueExisting queues presentations already inside a directory that was
// moved or copied into the tree.
func (w *Watcher) queueExisting(dir string) {
	files, err := w.finder.Find(dir, true)
	if err != nil {
		return
	}
	for _, f := range files {
		w.pending[f] = struct{}{}
	}
}

// flush converts every pending file in path order and clears the queue.
func (w *Watcher) flush(ctx context.Context) {
	if len(w.pending) == 0 {
		return
	}
	paths := make([]string, 0, len(w.pending))
	for p := range w.pending {
		paths = append(paths, p)
	}
	w.pending = make(map[string]struct{})
	sort.Strings(paths)

	w.log.Info().Int("files", len(paths)).Msg("converting changed presentations")
	for _, p := range paths {
		if ctx.Err() != nil {
			return
		}
		if _, err := os.Stat(p); err != nil {
			continue
		}
		job := types.ConversionJob{InputPath: p, OutputPath: convert.OutputPathFor(p, w.outputRoot)}
		result := w.conv.ConvertOne(ctx, job)
		if w.onResult != nil {
			w.onResult(result)
		}
	}
}
