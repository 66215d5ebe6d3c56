// Package store provides data persistence interfaces and implementations.
package store

import (
	"context"
	"time"

	"github.com/ashureev/quiz-agent/internal/domain"
)

// ChainRun is a persisted chain run with its per-question results.
type ChainRun struct {
	ID        int64                   `json:"id"`
	StartURL  string                  `json:"start_url"`
	Total     int                     `json:"total"`
	Correct   int                     `json:"correct"`
	Wrong     int                     `json:"wrong"`
	ElapsedS  float64                 `json:"elapsed_seconds"`
	CreatedAt time.Time               `json:"created_at"`
	Questions []domain.QuestionResult `json:"questions"`
}

// Repository defines the interface for persisting chain run results.
type Repository interface {
	// SaveChainRun persists a finished chain run and its question results,
	// returning the run's ID.
	SaveChainRun(ctx context.Context, stats domain.ChainStats) (int64, error)

	// ListRecentRuns returns the most recent chain runs, newest first.
	ListRecentRuns(ctx context.Context, limit int) ([]ChainRun, error)

	// Ping verifies database connectivity and returns an error if the
	// database is unreachable.
	Ping(ctx context.Context) error

	// Close closes the database connection.
	Close() error
}
