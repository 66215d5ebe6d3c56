package store

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"

	"github.com/ashureev/quiz-agent/internal/domain"
	"github.com/ashureev/quiz-agent/internal/shared"
)

// conflictRetries bounds how often a write is retried on SQLITE_BUSY.
const conflictRetries = 3

// SQLiteStore implements Repository using SQLite.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLite creates a new SQLite-backed repository.
func NewSQLite(dbPath string) (Repository, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create database directory: %w", err)
	}

	// Open database with WAL mode for better concurrency.
	dsn := dbPath + "?_journal=WAL&_sync=NORMAL&_busy_timeout=5000"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("ping database: %w", err)
	}

	store := &SQLiteStore{db: db}
	if err := store.initSchema(); err != nil {
		return nil, fmt.Errorf("initialize schema: %w", err)
	}

	return store, nil
}

func (s *SQLiteStore) initSchema() error {
	query := `
	PRAGMA busy_timeout = 5000;
	CREATE TABLE IF NOT EXISTS chain_runs (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		start_url TEXT NOT NULL,
		total INTEGER NOT NULL,
		correct INTEGER NOT NULL,
		wrong INTEGER NOT NULL,
		elapsed_seconds REAL NOT NULL,
		created_at INTEGER NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_chain_runs_created ON chain_runs(created_at);

	CREATE TABLE IF NOT EXISTS question_results (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		run_id INTEGER NOT NULL REFERENCES chain_runs(id),
		url TEXT NOT NULL,
		outcome TEXT NOT NULL,
		reason TEXT,
		attempts INTEGER NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_question_results_run ON question_results(run_id);
	`
	if _, err := s.db.Exec(query); err != nil {
		return fmt.Errorf("create schema: %w", err)
	}
	return nil
}

// Ping verifies database connectivity.
func (s *SQLiteStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// Close closes the database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// SaveChainRun persists a finished chain run and its question results in
// one transaction, retrying on SQLite concurrency conflicts.
func (s *SQLiteStore) SaveChainRun(ctx context.Context, stats domain.ChainStats) (int64, error) {
	var runID int64
	var err error
	for attempt := 0; attempt <= conflictRetries; attempt++ {
		runID, err = s.saveChainRun(ctx, stats)
		if err == nil || !shared.IsSQLiteConflictError(err) {
			return runID, err
		}
		time.Sleep(time.Duration(attempt+1) * 50 * time.Millisecond)
	}
	return 0, fmt.Errorf("save chain run: %w", err)
}

func (s *SQLiteStore) saveChainRun(ctx context.Context, stats domain.ChainStats) (int64, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx, `
		INSERT INTO chain_runs (start_url, total, correct, wrong, elapsed_seconds, created_at)
		VALUES (?, ?, ?, ?, ?, ?)`,
		stats.StartURL, stats.Total, stats.Correct, stats.Wrong, stats.ElapsedS, time.Now().Unix(),
	)
	if err != nil {
		return 0, fmt.Errorf("insert chain run: %w", err)
	}
	runID, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("last insert id: %w", err)
	}

	for _, q := range stats.Questions {
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO question_results (run_id, url, outcome, reason, attempts)
			VALUES (?, ?, ?, ?, ?)`,
			runID, q.URL, string(q.Outcome), q.Reason, q.Attempts,
		); err != nil {
			return 0, fmt.Errorf("insert question result: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit: %w", err)
	}
	return runID, nil
}

// ListRecentRuns returns the most recent chain runs, newest first.
func (s *SQLiteStore) ListRecentRuns(ctx context.Context, limit int) ([]ChainRun, error) {
	if limit <= 0 {
		limit = 20
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, start_url, total, correct, wrong, elapsed_seconds, created_at
		FROM chain_runs ORDER BY created_at DESC, id DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("query chain runs: %w", err)
	}
	defer rows.Close()

	var runs []ChainRun
	for rows.Next() {
		var run ChainRun
		var createdAt int64
		if err := rows.Scan(&run.ID, &run.StartURL, &run.Total, &run.Correct, &run.Wrong, &run.ElapsedS, &createdAt); err != nil {
			return nil, fmt.Errorf("scan chain run: %w", err)
		}
		run.CreatedAt = time.Unix(createdAt, 0)
		runs = append(runs, run)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate chain runs: %w", err)
	}

	for i := range runs {
		questions, err := s.questionResults(ctx, runs[i].ID)
		if err != nil {
			return nil, err
		}
		runs[i].Questions = questions
	}
	return runs, nil
}

func (s *SQLiteStore) questionResults(ctx context.Context, runID int64) ([]domain.QuestionResult, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT url, outcome, reason, attempts
		FROM question_results WHERE run_id = ? ORDER BY id`, runID)
	if err != nil {
		return nil, fmt.Errorf("query question results: %w", err)
	}
	defer rows.Close()

	var results []domain.QuestionResult
	for rows.Next() {
		var q domain.QuestionResult
		var outcome string
		var reason sql.NullString
		if err := rows.Scan(&q.URL, &outcome, &reason, &q.Attempts); err != nil {
			return nil, fmt.Errorf("scan question result: %w", err)
		}
		q.Outcome = domain.QuestionOutcome(outcome)
		q.Reason = reason.String
		results = append(results, q)
	}
	return results, rows.Err()
}
