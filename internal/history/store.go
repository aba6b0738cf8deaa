// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package history persists conversion run outcomes in a SQLite database so
// past runs and their failures can be listed later. The store is a ledger:
// nothing in it short-circuits a conversion.
package history

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/pdiddy/docmark/pkg/types"
)

const dbFile = "history.db"

// Store manages the run-history SQLite database.
type Store struct {
	db *sql.DB
}

// DefaultPath returns the per-user history database path under the OS
// cache directory.
func DefaultPath() (string, error) {
	dir, err := os.UserCacheDir()
	if err != nil {
		return "", fmt.Errorf("resolving cache dir: %w", err)
	}
	return filepath.Join(dir, "docmark", dbFile), nil
}

// Open opens or creates the history database at dbPath, creating the
// schema and parent directory when missing.
func Open(dbPath string) (*Store, error) {
	if dir := filepath.Dir(dbPath); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("creating history directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_foreign_keys=on")
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
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			root TEXT NOT NULL,
			started_at TEXT NOT NULL,
			finished_at TEXT NOT NULL,
			converted INTEGER NOT NULL,
			skipped INTEGER NOT NULL,
			failed INTEGER NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS files (
			rowid INTEGER PRIMARY KEY AUTOINCREMENT,
			run_id INTEGER NOT NULL REFERENCES runs(id),
			path TEXT NOT NULL,
			output TEXT,
			status TEXT NOT NULL,
			error TEXT,
			duration_ms INTEGER
		)`,
		`CREATE INDEX IF NOT EXISTS idx_files_run_id ON files(run_id)`,
		`CREATE INDEX IF NOT EXISTS idx_files_status ON files(status)`,
	}

	for _, stmt := range statements {
		if _, err := s.db.Exec(stmt); err != nil {
			return fmt.Errorf("executing schema statement: %w", err)
		}
	}
	return nil
}

// RecordRun inserts a completed run and its per-file results in one
// transaction, returning the new run ID.
func (s *Store) RecordRun(report types.RunReport) (int64, error) {
	tx, err := s.db.Begin()
	if err != nil {
		return 0, fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	res, err := tx.Exec(
		`INSERT INTO runs (root, started_at, finished_at, converted, skipped, failed)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		report.Root,
		report.StartedAt.UTC().Format(time.RFC3339),
		report.FinishedAt.UTC().Format(time.RFC3339),
		report.Converted,
		report.Skipped,
		report.Failed,
	)
	if err != nil {
		return 0, fmt.Errorf("inserting run: %w", err)
	}
	runID, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("reading run id: %w", err)
	}

	stmt, err := tx.Prepare(
		`INSERT INTO files (run_id, path, output, status, error, duration_ms)
		 VALUES (?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return 0, fmt.Errorf("preparing file insert: %w", err)
	}
	defer stmt.Close()

	for _, fr := range report.Results {
		if _, err := stmt.Exec(runID, fr.Path, fr.Output, string(fr.Status), fr.Error, fr.DurationMS); err != nil {
			return 0, fmt.Errorf("inserting file result %s: %w", fr.Path, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("committing run: %w", err)
	}
	return runID, nil
}

// Run summarizes one recorded conversion run.
type Run struct {
	ID         int64
	Root       string
	StartedAt  time.Time
	FinishedAt time.Time
	Converted  int
	Skipped    int
	Failed     int
}

// RecentRuns returns up to limit runs, newest first.
func (s *Store) RecentRuns(limit int) ([]Run, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := s.db.Query(
		`SELECT id, root, started_at, finished_at, converted, skipped, failed
		 FROM runs ORDER BY id DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("querying runs: %w", err)
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		var r Run
		var started, finished string
		if err := rows.Scan(&r.ID, &r.Root, &started, &finished, &r.Converted, &r.Skipped, &r.Failed); err != nil {
			return nil, fmt.Errorf("scanning run: %w", err)
		}
		if r.StartedAt, err = time.Parse(time.RFC3339, started); err != nil {
			return nil, fmt.Errorf("parsing started_at %q: %w", started, err)
		}
		if r.FinishedAt, err = time.Parse(time.RFC3339, finished); err != nil {
			return nil, fmt.Errorf("parsing finished_at %q: %w", finished, err)
		}
		runs = append(runs, r)
	}
	return runs, rows.Err()
}

// Failure is one failed file from a recorded run.
type Failure struct {
	RunID int64
	Path  string
	Error string
	At    time.Time
}

// RecentFailures returns up to limit failed file results, newest first.
func (s *Store) RecentFailures(limit int) ([]Failure, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := s.db.Query(
		`SELECT f.run_id, f.path, f.error, r.finished_at
		 FROM files f JOIN runs r ON r.id = f.run_id
		 WHERE f.status = ?
		 ORDER BY f.rowid DESC LIMIT ?`,
		string(types.ConversionFailed), limit)
	if err != nil {
		return nil, fmt.Errorf("querying failures: %w", err)
	}
	defer rows.Close()

	var failures []Failure
	for rows.Next() {
		var f Failure
		var finished string
		if err := rows.Scan(&f.RunID, &f.Path, &f.Error, &finished); err != nil {
			return nil, fmt.Errorf("scanning failure: %w", err)
		}
		if f.At, err = time.Parse(time.RFC3339, finished); err != nil {
			return nil, fmt.Errorf("parsing finished_at %q: %w", finished, err)
		}
		failures = append(failures, f)
	}
	return failures, rows.Err()
}
