// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package history keeps a SQLite log of annotation jobs: who uploaded
// what, which backend answered, how many highlights were written and how
// long it took. Document bytes are never stored.
package history

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/pdiddy/pdf-annotate/pkg/types"
)

// timeLayout sorts lexically in chronological order.
const timeLayout = "2006-01-02T15:04:05.000000000Z"

const defaultListLimit = 50

// Store manages the job history database.
type Store struct {
	db *sql.DB
}

// Open opens or creates the history database at path and creates the
// schema if it does not exist.
func Open(path string) (*Store, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("creating history directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite3", path+"?_journal_mode=WAL&_busy_timeout=5000")
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
		`CREATE TABLE IF NOT EXISTS jobs (
			id TEXT PRIMARY KEY,
			filename TEXT NOT NULL,
			backend TEXT NOT NULL,
			model TEXT,
			pages INTEGER NOT NULL,
			annotations INTEGER NOT NULL,
			highlights INTEGER NOT NULL,
			status TEXT NOT NULL,
			error TEXT,
			started_at TEXT NOT NULL,
			duration_ns INTEGER NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_jobs_started_at ON jobs(started_at)`,
	}
	for _, stmt := range statements {
		if _, err := s.db.Exec(stmt); err != nil {
			return fmt.Errorf("executing schema statement: %w", err)
		}
	}
	return nil
}

// Record inserts job, replacing any earlier row with the same ID.
func (s *Store) Record(ctx context.Context, job types.Job) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT OR REPLACE INTO jobs (id, filename, backend, model, pages, annotations, highlights, status, error, started_at, duration_ns)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		job.ID, job.Filename, job.Backend, job.Model,
		job.Pages, job.Annotations, job.Highlights,
		string(job.Status), job.Error,
		job.StartedAt.UTC().Format(timeLayout), int64(job.Duration),
	)
	if err != nil {
		return fmt.Errorf("recording job %s: %w", job.ID, err)
	}
	return nil
}

// List returns up to limit jobs, newest first. A limit of zero or less
// selects a default.
func (s *Store) List(ctx context.Context, limit int) ([]types.Job, error) {
	if limit <= 0 {
		limit = defaultListLimit
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, filename, backend, model, pages, annotations, highlights, status, error, started_at, duration_ns
		 FROM jobs ORDER BY started_at DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("querying jobs: %w", err)
	}
	defer rows.Close()

	var jobs []types.Job
	for rows.Next() {
		var (
			job           types.Job
			model, errMsg sql.NullString
			status        string
			started       string
			duration      int64
		)
		if err := rows.Scan(&job.ID, &job.Filename, &job.Backend, &model,
			&job.Pages, &job.Annotations, &job.Highlights,
			&status, &errMsg, &started, &duration); err != nil {
			return nil, fmt.Errorf("scanning job: %w", err)
		}
		job.Model = model.String
		job.Error = errMsg.String
		job.Status = types.JobStatus(status)
		job.Duration = time.Duration(duration)
		if job.StartedAt, err = time.Parse(timeLayout, started); err != nil {
			return nil, fmt.Errorf("parsing start time of job %s: %w", job.ID, err)
		}
		jobs = append(jobs, job)
	}
	return jobs, rows.Err()
}

// Prune deletes jobs started before cutoff and returns how many were removed.
func (s *Store) Prune(ctx context.Context, cutoff time.Time) (int64, error) {
	res, err := s.db.ExecContext(ctx,
		`DELETE FROM jobs WHERE started_at < ?`, cutoff.UTC().Format(timeLayout))
	if err != nil {
		return 0, fmt.Errorf("pruning jobs: %w", err)
	}
	return res.RowsAffected()
}
