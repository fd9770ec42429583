// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package discover enumerates presentation files under a directory.
package discover

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
)

// DefaultPatterns match the legacy and the OOXML presentation formats.
var DefaultPatterns = []string{"*.ppt", "*.pptx"}

// Finder matches file names against glob patterns. Matching is case
// sensitive, as with shell globs.
type Finder struct {
	Patterns []string
}

// Find lists presentation files under root using DefaultPatterns.
func Find(root string, recursive bool) ([]string, error) {
	return Finder{Patterns: DefaultPatterns}.Find(root, recursive)
}

// Find returns the files under root whose base name matches one of the
// patterns. Results are grouped by pattern in pattern order and, within a
// pattern, in lexical walk order. A file is listed once even if several
// patterns match it. Dot-files are ignored and dot-directories are not
// descended. No matches yields an empty slice and a nil error.
func (f Finder) Find(root string, recursive bool) ([]string, error) {
	patterns := f.Patterns
	if len(patterns) == 0 {
		patterns = DefaultPatterns
	}
	for _, p := range patterns {
		if _, err := filepath.Match(p, ""); err != nil {
			return nil, fmt.Errorf("invalid pattern %q: %w", p, err)
		}
	}

	info, err := os.Stat(root)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", root, err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("%s is not a directory", root)
	}

	buckets := make([][]string, len(patterns))
	seen := make(map[string]bool)

	err = filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			// Unreadable subtrees are skipped; only the root itself is fatal.
			if path == root {
				return err
			}
			if d != nil && d.IsDir() {
				return fs.SkipDir
			}
			return nil
		}
		if d.IsDir() {
			if path == root {
				return nil
			}
			if !recursive || hidden(d.Name()) {
				return fs.SkipDir
			}
			return nil
		}
		if hidden(d.Name()) || seen[path] {
			return nil
		}
		for i, p := range patterns {
			if ok, _ := filepath.Match(p, d.Name()); ok {
				buckets[i] = append(buckets[i], path)
				seen[path] = true
				break
			}
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("walking %s: %w", root, err)
	}

	files := make([]string, 0, len(seen))
	for _, b := range buckets {
		files = append(files, b...)
	}
	return files, nil
}

// Match reports whether the base name of path would be listed by Find.
func (f Finder) Match(path string) bool {
	name := filepath.Base(path)
	if hidden(name) {
		return false
	}
	patterns := f.Patterns
	if len(patterns) == 0 {
		patterns = DefaultPatterns
	}
	for _, p := range patterns {
		if ok, _ := filepath.Match(p, name); ok {
			return true
		}
	}
	return false
}

// Hidden reports whether name is a dot-file or dot-directory.
func Hidden(name string) bool {
	return hidden(name)
}

func hidden(name string) bool {
	return strings.HasPrefix(name, ".")
}
