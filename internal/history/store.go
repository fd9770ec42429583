// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package history keeps an append-only SQLite ledger of conversion batches.
// It is an audit log: nothing in it is ever resumed or retried.
package history

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/pdiddy/pptpdf/pkg/types"
)

// DefaultLimit caps ListRuns when the caller passes a non-positive limit.
const DefaultLimit = 20

// ErrRunNotFound is returned by Run for an unknown run ID.
var ErrRunNotFound = errors.New("run not found")

// Run is one recorded batch.
type Run struct {
	ID         string    `json:"id" yaml:"id"`
	InputRoot  string    `json:"input_root" yaml:"input_root"`
	OutputRoot string    `json:"output_root" yaml:"output_root"`
	Backend    string    `json:"backend" yaml:"backend"`
	Recursive  bool      `json:"recursive" yaml:"recursive"`
	Found      int       `json:"found" yaml:"found"`
	Succeeded  int       `json:"succeeded" yaml:"succeeded"`
	Failed     int       `json:"failed" yaml:"failed"`
	StartedAt  time.Time `json:"started_at" yaml:"started_at"`
	FinishedAt time.Time `json:"finished_at" yaml:"finished_at"`
}

// Job is one recorded conversion inside a run, in discovery order.
type Job struct {
	RunID    string                 `json:"run_id" yaml:"run_id"`
	Seq      int                    `json:"seq" yaml:"seq"`
	Input    string                 `json:"input" yaml:"input"`
	Output   string                 `json:"output" yaml:"output"`
	Status   types.ConversionStatus `json:"status" yaml:"status"`
	Reason   string                 `json:"reason,omitempty" yaml:"reason,omitempty"`
	Duration time.Duration          `json:"duration" yaml:"duration"`
}

// Store manages the history database.
type Store struct {
	db *sql.DB
}

// NewStore opens or creates the database at path, creating parent
// directories and the schema as needed.
func NewStore(path string) (*Store, error) {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("creating history directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite3", path+"?_journal_mode=WAL&_foreign_keys=on")
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	s := &Store{db: db}
	if err := s.createSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}
	return s, nil
}

// Close releases the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) createSchema() error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS runs (
			id TEXT PRIMARY KEY,
			input_root TEXT NOT NULL,
			output_root TEXT NOT NULL,
			backend TEXT NOT NULL,
			recursive INTEGER NOT NULL,
			found INTEGER NOT NULL,
			succeeded INTEGER NOT NULL,
			failed INTEGER NOT NULL,
			started_at TEXT NOT NULL,
			finished_at TEXT NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS jobs (
			run_id TEXT NOT NULL REFERENCES runs(id) ON DELETE CASCADE,
			seq INTEGER NOT NULL,
			input TEXT NOT NULL,
			output TEXT NOT NULL,
			status TEXT NOT NULL,
			reason TEXT,
			duration_ns INTEGER NOT NULL,
			PRIMARY KEY (run_id, seq)
		)`,
		`CREATE INDEX IF NOT EXISTS idx_runs_started_at ON runs(started_at)`,
		`CREATE INDEX IF NOT EXISTS idx_jobs_status ON jobs(status)`,
	}

	for _, stmt := range statements {
		if _, err := s.db.Exec(stmt); err != nil {
			return fmt.Errorf("executing schema statement: %w", err)
		}
	}
	return nil
}

// Record stores a finished batch and all of its results in one transaction.
// Recording the same run twice replaces the earlier copy.
func (s *Store) Record(ctx context.Context, summary types.BatchSummary) error {
	if summary.RunID == "" {
		return errors.New("recording run: empty run ID")
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM jobs WHERE run_id = ?`, summary.RunID); err != nil {
		return fmt.Errorf("clearing previous jobs: %w", err)
	}

	_, err = tx.ExecContext(ctx,
		`INSERT INTO runs (id, input_root, output_root, backend, recursive, found, succeeded, failed, started_at, finished_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT(id) DO UPDATE SET
			input_root=excluded.input_root, output_root=excluded.output_root,
			backend=excluded.backend, recursive=excluded.recursive, found=excluded.found,
			succeeded=excluded.succeeded, failed=excluded.failed,
			started_at=excluded.started_at, finished_at=excluded.finished_at`,
		summary.RunID, summary.InputRoot, summary.OutputRoot, summary.Backend,
		summary.Recursive, summary.Found, summary.Succeeded, summary.Failed,
		formatTime(summary.StartedAt), formatTime(summary.FinishedAt),
	)
	if err != nil {
		return fmt.Errorf("inserting run: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO jobs (run_id, seq, input, output, status, reason, duration_ns)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("preparing insert: %w", err)
	}
	defer stmt.Close()

	for i, r := range summary.Results {
		_, err := stmt.ExecContext(ctx,
			summary.RunID, i, r.Job.InputPath, r.Job.OutputPath,
			string(r.Status), r.Reason, int64(r.Duration),
		)
		if err != nil {
			return fmt.Errorf("inserting job %s: %w", r.Job.InputPath, err)
		}
	}

	return tx.Commit()
}

// ListRuns returns up to limit runs, most recent first.
func (s *Store) ListRuns(ctx context.Context, limit int) ([]Run, error) {
	if limit <= 0 {
		limit = DefaultLimit
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, input_root, output_root, backend, recursive, found, succeeded, failed, started_at, finished_at
		 FROM runs ORDER BY started_at DESC, id LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("querying runs: %w", err)
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		r, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		runs = append(runs, r)
	}
	return runs, rows.Err()
}

// Run returns the run with the given ID.
func (s *Store) Run(ctx context.Context, id string) (Run, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, input_root, output_root, backend, recursive, found, succeeded, failed, started_at, finished_at
		 FROM runs WHERE id = ?`, id)
	r, err := scanRun(row)
	if errors.Is(err, sql.ErrNoRows) {
		return Run{}, fmt.Errorf("%w: %s", ErrRunNotFound, id)
	}
	return r, err
}

// Jobs returns the jobs of a run in discovery order.
func (s *Store) Jobs(ctx context.Context, runID string) ([]Job, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT run_id, seq, input, output, status, COALESCE(reason, ''), duration_ns
		 FROM jobs WHERE run_id = ? ORDER BY seq`, runID)
	if err != nil {
		return nil, fmt.Errorf("querying jobs: %w", err)
	}
	defer rows.Close()

	var jobs []Job
	for rows.Next() {
		var (
			j      Job
			status string
			durNS  int64
		)
		if err := rows.Scan(&j.RunID, &j.Seq, &j.Input, &j.Output, &status, &j.Reason, &durNS); err != nil {
			return nil, fmt.Errorf("scanning job: %w", err)
		}
		j.Status = types.ConversionStatus(status)
		j.Duration = time.Duration(durNS)
		jobs = append(jobs, j)
	}
	return jobs, rows.Err()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanRun(sc scanner) (Run, error) {
	var (
		r                 Run
		started, finished string
	)
	if err := sc.Scan(&r.ID, &r.InputRoot, &r.OutputRoot, &r.Backend, &r.Recursive,
		&r.Found, &r.Succeeded, &r.Failed, &started, &finished); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return r, err
		}
		return r, fmt.Errorf("scanning run: %w", err)
	}
	r.StartedAt = parseTime(started)
	r.FinishedAt = parseTime(finished)
	return r, nil
}

func formatTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339Nano)
}

func parseTime(s string) time.Time {
	t, _ := time.Parse(time.RFC3339Nano, s)
	return t
}
