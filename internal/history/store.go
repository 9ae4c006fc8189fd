// Package history persists a local record of what each resched run did:
// which tasks were rescheduled where, and which completions were counted.
// The history is purely observational; losing it never affects scheduling
// decisions, which live in the per-task metadata comments.
package history

import (
	"context"
	"database/sql"
	_ "embed"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"

	"github.com/harrison/resched/internal/schedule"
)

//go:embed schema.sql
var schemaSQL string

// Store manages the SQLite database holding run history.
type Store struct {
	db     *sql.DB
	dbPath string
}

// NewStore creates a Store instance and initializes the database.
func NewStore(dbPath string) (*Store, error) {
	if dbPath != ":memory:" {
		dir := filepath.Dir(dbPath)
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("create database directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	// SQLite serializes writers anyway; a single pooled connection avoids
	// lock contention and keeps :memory: databases coherent.
	db.SetMaxOpenConns(1)

	// busy_timeout first so the remaining pragmas wait on locks instead of
	// failing when another process holds the database.
	pragmas := []string{
		"PRAGMA busy_timeout=5000",
		"PRAGMA journal_mode=WAL",
		"PRAGMA synchronous=NORMAL",
	}
	for _, pragma := range pragmas {
		if err := execWithRetry(db, pragma, 5, 10*time.Millisecond); err != nil {
			db.Close()
			return nil, fmt.Errorf("set %s: %w", pragma, err)
		}
	}

	if _, err := db.Exec(schemaSQL); err != nil {
		db.Close()
		return nil, fmt.Errorf("init schema: %w", err)
	}

	return &Store{db: db, dbPath: dbPath}, nil
}

// execWithRetry executes a SQL statement with exponential backoff retry on
// lock errors.
func execWithRetry(db *sql.DB, stmt string, maxRetries int, baseDelay time.Duration) error {
	var lastErr error
	for attempt := 0; attempt < maxRetries; attempt++ {
		_, err := db.Exec(stmt)
		if err == nil {
			return nil
		}
		if !strings.Contains(err.Error(), "database is locked") {
			return err
		}
		lastErr = err
		time.Sleep(baseDelay * time.Duration(1<<attempt))
	}
	return lastErr
}

// Close closes the database connection.
func (s *Store) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// Run is an open run-history record. It implements schedule.Recorder so the
// orchestrator can attach per-task events to it.
type Run struct {
	ID    string
	store *Store
}

// BeginRun opens a new run record and returns it.
func (s *Store) BeginRun(ctx context.Context, startedAt time.Time) (*Run, error) {
	id := uuid.NewString()
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO runs (id, started_at) VALUES (?, ?)`,
		id, startedAt.UTC())
	if err != nil {
		return nil, fmt.Errorf("insert run: %w", err)
	}
	return &Run{ID: id, store: s}, nil
}

// RecordReschedule records one reschedule attempt for this run.
func (r *Run) RecordReschedule(ctx context.Context, event schedule.RescheduleEvent) error {
	applied := 0
	if event.Applied {
		applied = 1
	}
	_, err := r.store.db.ExecContext(ctx,
		`INSERT INTO reschedules (run_id, task_id, content, failures, ratio, due_date, applied, error)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		r.ID, event.TaskID, event.Content, event.Failures, event.Ratio,
		event.DueDate.Format("2006-01-02"), applied, event.Error)
	if err != nil {
		return fmt.Errorf("insert reschedule: %w", err)
	}
	return nil
}

// RecordCompletion records one newly counted completion for this run.
func (r *Run) RecordCompletion(ctx context.Context, event schedule.CompletionEvent) error {
	_, err := r.store.db.ExecContext(ctx,
		`INSERT INTO completions (run_id, task_id, content, completed_at)
		 VALUES (?, ?, ?, ?)`,
		r.ID, event.TaskID, event.Content, event.CompletedAt)
	if err != nil {
		return fmt.Errorf("insert completion: %w", err)
	}
	return nil
}

// Finish closes the run record with its final counters.
func (r *Run) Finish(ctx context.Context, overdue schedule.Summary, completions schedule.CompletionSummary) error {
	_, err := r.store.db.ExecContext(ctx,
		`UPDATE runs
		 SET finished_at = ?, overdue_total = ?, rescheduled = ?, update_errors = ?, completions_tracked = ?
		 WHERE id = ?`,
		time.Now().UTC(), overdue.Total, overdue.Applied, overdue.Errors, completions.Tracked, r.ID)
	if err != nil {
		return fmt.Errorf("finish run: %w", err)
	}
	return nil
}
