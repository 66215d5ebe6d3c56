// Package api provides HTTP handlers for the quiz agent API.
package api

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/ashureev/quiz-agent/internal/domain"
	"github.com/ashureev/quiz-agent/internal/progress"
	"github.com/ashureev/quiz-agent/internal/store"
)

// Runner starts a quiz chain and returns its final stats.
type Runner interface {
	Run(ctx context.Context, startURL string) domain.ChainStats
}

// Handler provides common handler utilities.
type Handler struct {
	repo   store.Repository
	runner Runner
	broker *progress.Broker
	email  string
	secret string
}

// NewHandler creates a new Handler with common dependencies.
func NewHandler(repo store.Repository, runner Runner, broker *progress.Broker, email, secret string) *Handler {
	return &Handler{
		repo:   repo,
		runner: runner,
		broker: broker,
		email:  email,
		secret: secret,
	}
}

// JSON writes a JSON response with the given status code.
func JSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		http.Error(w, `{"error": "failed to encode response"}`, http.StatusInternalServerError)
	}
}

// Error writes a JSON error response.
func Error(w http.ResponseWriter, status int, message string) {
	JSON(w, status, map[string]string{"error": message})
}
