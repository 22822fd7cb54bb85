// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package history records consolidation runs in a SQLite database and
// exports them as YAML or JSON.
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
)

const (
	dbFile = "history.db"

	// timeLayout is fixed width so stored timestamps sort as text.
	timeLayout = "2006-01-02T15:04:05.000000000Z"
)

// Status is the outcome of a run.
type Status string

const (
	StatusSucceeded Status = "succeeded"
	StatusFailed    Status = "failed"
)

// File outcomes recorded per source.
const (
	FileConverted = "converted"
	FileFailed    = "failed"
	FileSkipped   = "skipped" // converted but unreadable at merge
)

// ErrNotFound is returned by Get for an unknown run ID.
var ErrNotFound = errors.New("run not found")

// FileOutcome is the result of one source file within a run.
type FileOutcome struct {
	Name   string `json:"name" yaml:"name"`
	Format string `json:"format" yaml:"format"`
	Status string `json:"status" yaml:"status"`
	Error  string `json:"error,omitempty" yaml:"error,omitempty"`
}

// RunRecord is one consolidation run.
type RunRecord struct {
	ID            int64         `json:"id" yaml:"id"`
	StartedAt     time.Time     `json:"started_at" yaml:"started_at"`
	FinishedAt    time.Time     `json:"finished_at" yaml:"finished_at"`
	Identifier    string        `json:"identifier" yaml:"identifier"`
	Client        string        `json:"client" yaml:"client"`
	Reimbursement string        `json:"reimbursement" yaml:"reimbursement"`
	OutputPath    string        `json:"output_path,omitempty" yaml:"output_path,omitempty"`
	Status        Status        `json:"status" yaml:"status"`
	Converted     int           `json:"converted" yaml:"converted"`
	Failed        int           `json:"failed" yaml:"failed"`
	Skipped       int           `json:"skipped" yaml:"skipped"`
	Pages         int           `json:"pages" yaml:"pages"`
	Error         string        `json:"error,omitempty" yaml:"error,omitempty"`
	Files         []FileOutcome `json:"files,omitempty" yaml:"files,omitempty"`
}

// Duration returns how long the run took.
func (r RunRecord) Duration() time.Duration {
	return r.FinishedAt.Sub(r.StartedAt)
}

// Store manages the run history database.
type Store struct {
	db  *sql.DB
	dir string
}

// Open opens or creates the history database at dir/history.db.
func Open(dir string) (*Store, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("creating history directory: %w", err)
	}

	dbPath := filepath.Join(dir, dbFile)
	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_foreign_keys=on&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	s := &Store{db: db, dir: dir}
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

// Dir returns the directory holding the database.
func (s *Store) Dir() string { return s.dir }

func (s *Store) createSchema() error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS runs (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			started_at TEXT NOT NULL,
			finished_at TEXT NOT NULL,
			identifier TEXT,
			client TEXT,
			reimbursement TEXT,
			output_path TEXT,
			status TEXT NOT NULL,
			converted INTEGER,
			failed INTEGER,
			skipped INTEGER,
			pages INTEGER,
			error TEXT
		)`,
		`CREATE TABLE IF NOT EXISTS run_files (
			run_id INTEGER NOT NULL REFERENCES runs(id) ON DELETE CASCADE,
			position INTEGER NOT NULL,
			name TEXT NOT NULL,
			format TEXT,
			status TEXT NOT NULL,
			error TEXT,
			PRIMARY KEY (run_id, position)
		)`,
		`CREATE INDEX IF NOT EXISTS idx_runs_started_at ON runs(started_at)`,
	}
	for _, stmt := range statements {
		if _, err := s.db.Exec(stmt); err != nil {
			return fmt.Errorf("executing schema statement: %w", err)
		}
	}
	return nil
}

// Record stores rec and its file outcomes and returns the new run ID.
func (s *Store) Record(ctx context.Context, rec RunRecord) (int64, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx,
		`INSERT INTO runs (started_at, finished_at, identifier, client, reimbursement,
			output_path, status, converted, failed, skipped, pages, error)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		formatTime(rec.StartedAt), formatTime(rec.FinishedAt),
		rec.Identifier, rec.Client, rec.Reimbursement, rec.OutputPath,
		string(rec.Status), rec.Converted, rec.Failed, rec.Skipped, rec.Pages, rec.Error,
	)
	if err != nil {
		return 0, fmt.Errorf("inserting run: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("reading run id: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO run_files (run_id, position, name, format, status, error) VALUES (?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return 0, fmt.Errorf("preparing insert: %w", err)
	}
	defer stmt.Close()

	for i, f := range rec.Files {
		if _, err := stmt.ExecContext(ctx, id, i, f.Name, f.Format, f.Status, f.Error); err != nil {
			return 0, fmt.Errorf("inserting file %s: %w", f.Name, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("committing run: %w", err)
	}
	return id, nil
}

// ListOptions filters List.
type ListOptions struct {
	// Limit caps the number of runs; zero means no limit.
	Limit int
	// Status keeps only runs with this status when set.
	Status Status
}

// List returns runs newest first, each with its file outcomes.
func (s *Store) List(ctx context.Context, opts ListOptions) ([]RunRecord, error) {
	query := `SELECT id, started_at, finished_at, identifier, client, reimbursement,
		output_path, status, converted, failed, skipped, pages, error FROM runs`
	var args []any
	if opts.Status != "" {
		query += ` WHERE status = ?`
		args = append(args, string(opts.Status))
	}
	query += ` ORDER BY started_at DESC, id DESC`
	if opts.Limit > 0 {
		query += ` LIMIT ?`
		args = append(args, opts.Limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying runs: %w", err)
	}
	defer rows.Close()

	var runs []RunRecord
	for rows.Next() {
		r, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		runs = append(runs, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating runs: %w", err)
	}

	for i := range runs {
		files, err := s.files(ctx, runs[i].ID)
		if err != nil {
			return nil, err
		}
		runs[i].Files = files
	}
	return runs, nil
}

// Get returns the run with the given ID.
func (s *Store) Get(ctx context.Context, id int64) (RunRecord, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, started_at, finished_at, identifier, client, reimbursement,
			output_path, status, converted, failed, skipped, pages, error
		 FROM runs WHERE id = ?`, id)
	r, err := scanRun(row)
	if errors.Is(err, sql.ErrNoRows) {
		return RunRecord{}, fmt.Errorf("%w: %d", ErrNotFound, id)
	}
	if err != nil {
		return RunRecord{}, err
	}
	r.Files, err = s.files(ctx, id)
	return r, err
}

func (s *Store) files(ctx context.Context, runID int64) ([]FileOutcome, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT name, format, status, error FROM run_files WHERE run_id = ? ORDER BY position`, runID)
	if err != nil {
		return nil, fmt.Errorf("querying files of run %d: %w", runID, err)
	}
	defer rows.Close()

	var files []FileOutcome
	for rows.Next() {
		var (
			f              FileOutcome
			format, errStr sql.NullString
		)
		if err := rows.Scan(&f.Name, &format, &f.Status, &errStr); err != nil {
			return nil, fmt.Errorf("scanning file row: %w", err)
		}
		f.Format = format.String
		f.Error = errStr.String
		files = append(files, f)
	}
	return files, rows.Err()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanRun(row scanner) (RunRecord, error) {
	var (
		r                         RunRecord
		started, finished, status string
		id, client, reimb, out, e sql.NullString
		conv, failed, skip, pages sql.NullInt64
	)
	err := row.Scan(&r.ID, &started, &finished, &id, &client, &reimb,
		&out, &status, &conv, &failed, &skip, &pages, &e)
	if errors.Is(err, sql.ErrNoRows) {
		return r, err
	}
	if err != nil {
		return r, fmt.Errorf("scanning run row: %w", err)
	}
	r.StartedAt = parseTime(started)
	r.FinishedAt = parseTime(finished)
	r.Identifier = id.String
	r.Client = client.String
	r.Reimbursement = reimb.String
	r.OutputPath = out.String
	r.Status = Status(status)
	r.Converted = int(conv.Int64)
	r.Failed = int(failed.Int64)
	r.Skipped = int(skip.Int64)
	r.Pages = int(pages.Int64)
	r.Error = e.String
	return r, nil
}

func formatTime(t time.Time) string {
	return t.UTC().Format(timeLayout)
}

func parseTime(s string) time.Time {
	t, _ := time.Parse(timeLayout, s)
	return t
}
