// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package history

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"go.yaml.in/yaml/v3"
)

// ExportEntry is a run with its jobs, as written by Export.
type ExportEntry struct {
	Run  `json:",inline" yaml:",inline"`
	Jobs []Job `json:"jobs" yaml:"jobs"`
}

const exportLimit = 100000

// Export writes runs and their jobs to path: JSON for a .json extension,
// YAML otherwise. A non-empty runID restricts the export to that run.
func (s *Store) Export(ctx context.Context, path, runID string) error {
	entries, err := s.exportEntries(ctx, runID)
	if err != nil {
		return err
	}

	var data []byte
	if strings.EqualFold(filepath.Ext(path), ".json") {
		data, err = json.MarshalIndent(entries, "", "  ")
		if err != nil {
			return fmt.Errorf("marshaling JSON: %w", err)
		}
	} else {
		data, err = yaml.Marshal(entries)
		if err != nil {
			return fmt.Errorf("marshaling YAML: %w", err)
		}
	}

	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("creating export directory: %w", err)
		}
	}
	return os.WriteFile(path, data, 0o644)
}

func (s *Store) exportEntries(ctx context.Context, runID string) ([]ExportEntry, error) {
	var runs []Run
	if runID != "" {
		r, err := s.Run(ctx, runID)
		if err != nil {
			return nil, err
		}
		runs = []Run{r}
	} else {
		var err error
		runs, err = s.ListRuns(ctx, exportLimit)
		if err != nil {
			return nil, fmt.Errorf("querying for export: %w", err)
		}
	}

	entries := make([]ExportEntry, len(runs))
	for i, r := range runs {
		jobs, err := s.Jobs(ctx, r.ID)
		if err != nil {
			return nil, err
		}
		entries[i] = ExportEntry{Run: r, Jobs: jobs}
	}
	return entries, nil
}
