// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import "time"

// ConversionStatus tracks a job through pending -> dispatched -> succeeded|failed.
type ConversionStatus string

const (
	ConversionPending    ConversionStatus = "pending"
	ConversionDispatched ConversionStatus = "dispatched"
	ConversionSucceeded  ConversionStatus = "succeeded"
	ConversionFailed     ConversionStatus = "failed"
)

// Terminal reports whether no further transition is allowed.
func (s ConversionStatus) Terminal() bool {
	return s == ConversionSucceeded || s == ConversionFailed
}

// ConversionJob is one (input, output) conversion unit. It is not modified
// after creation.
type ConversionJob struct {
	// InputPath is the presentation file to convert.
	InputPath string `json:"input" yaml:"input"`

	// OutputPath is where the PDF must end up.
	OutputPath string `json:"output" yaml:"output"`
}

// ConversionResult is the outcome of dispatching one job.
type ConversionResult struct {
	Job      ConversionJob    `json:"job" yaml:"job"`
	Status   ConversionStatus `json:"status" yaml:"status"`
	Reason   string           `json:"reason,omitempty" yaml:"reason,omitempty"`
	Duration time.Duration    `json:"duration" yaml:"duration"`
}

// Succeeded reports whether the job produced its PDF.
func (r ConversionResult) Succeeded() bool {
	return r.Status == ConversionSucceeded
}

// ConvertedPair is an (input, output) pair of a successful conversion.
type ConvertedPair struct {
	Input  string `json:"input" yaml:"input"`
	Output string `json:"output" yaml:"output"`
}

// BatchSummary aggregates the results of one batch run. Converted and Results
// keep discovery order.
type BatchSummary struct {
	RunID      string             `json:"run_id" yaml:"run_id"`
	InputRoot  string             `json:"input_root" yaml:"input_root"`
	OutputRoot string             `json:"output_root" yaml:"output_root"`
	Backend    string             `json:"backend" yaml:"backend"`
	Recursive  bool               `json:"recursive" yaml:"recursive"`
	Found      int                `json:"found" yaml:"found"`
	Succeeded  int                `json:"succeeded" yaml:"succeeded"`
	Failed     int                `json:"failed" yaml:"failed"`
	Converted  []ConvertedPair    `json:"converted" yaml:"converted"`
	Results    []ConversionResult `json:"results" yaml:"results"`
	StartedAt  time.Time          `json:"started_at" yaml:"started_at"`
	FinishedAt time.Time          `json:"finished_at" yaml:"finished_at"`
}

// Add folds one result into the summary.
func (s *BatchSummary) Add(r ConversionResult) {
	s.Results = append(s.Results, r)
	if r.Succeeded() {
		s.Succeeded++
		s.Converted = append(s.Converted, ConvertedPair{Input: r.Job.InputPath, Output: r.Job.OutputPath})
		return
	}
	s.Failed++
}

// Failures returns the failed results in discovery order.
func (s BatchSummary) Failures() []ConversionResult {
	var out []ConversionResult
	for _, r := range s.Results {
		if !r.Succeeded() {
			out = append(out, r)
		}
	}
	return out
}

// HasFailures reports whether any job failed.
func (s BatchSummary) HasFailures() bool {
	return s.Failed > 0
}
