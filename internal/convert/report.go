// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package convert

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"go.yaml.in/yaml/v3"

	"github.com/pdiddy/pptpdf/pkg/types"
)

// WriteReport saves the batch summary to path. The extension picks the
// format: .json for JSON, anything else for YAML.
func WriteReport(path string, summary types.BatchSummary) error {
	var (
		data []byte
		err  error
	)
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		data, err = json.MarshalIndent(summary, "", "  ")
	default:
		data, err = yaml.Marshal(&summary)
	}
	if err != nil {
		return fmt.Errorf("marshaling report: %w", err)
	}

	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("creating report directory: %w", err)
		}
	}
	return os.WriteFile(path, data, 0o644)
}

// ReadReport loads a report written by WriteReport.
func ReadReport(path string) (types.BatchSummary, error) {
	var summary types.BatchSummary
	data, err := os.ReadFile(path)
	if err != nil {
		return summary, fmt.Errorf("reading report: %w", err)
	}
	if strings.ToLower(filepath.Ext(path)) == ".json" {
		err = json.Unmarshal(data, &summary)
	} else {
		err = yaml.Unmarshal(data, &summary)
	}
	if err != nil {
		return summary, fmt.Errorf("parsing report %s: %w", path, err)
	}
	return summary, nil
}
