package api

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/ashureev/quiz-agent/internal/store"
)

// solveRequest is the payload accepted on POST /.
type solveRequest struct {
	Email  string `json:"email"`
	Secret string `json:"secret"`
	URL    string `json:"url"`
}

// Solve accepts a quiz URL and kicks off the chain in the background. The
// response returns immediately; the grader observes progress through the
// agent's own submissions.
func (h *Handler) Solve(w http.ResponseWriter, r *http.Request) {
	var req solveRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		Error(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if req.URL == "" || req.Email == "" || req.Secret == "" {
		Error(w, http.StatusBadRequest, "email, secret and url are required")
		return
	}
	if req.Secret != h.secret {
		Error(w, http.StatusForbidden, "invalid secret")
		return
	}

	go h.runChain(req.URL)

	JSON(w, http.StatusOK, map[string]string{
		"status": "processing",
		"url":    req.URL,
	})
}

// runChain executes one chain detached from the request context and
// persists the outcome.
func (h *Handler) runChain(startURL string) {
	defer func() {
		if rec := recover(); rec != nil {
			slog.Error("Chain run panicked", "url", startURL, "panic", rec)
		}
	}()

	stats := h.runner.Run(context.Background(), startURL)
	if _, err := h.repo.SaveChainRun(context.Background(), stats); err != nil {
		slog.Error("Failed to persist chain run", "url", startURL, "error", err)
	}
}

// Health reports liveness and the configured submission identity.
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	JSON(w, http.StatusOK, map[string]string{
		"status": "ok",
		"email":  h.email,
	})
}

// Runs lists recent chain runs.
func (h *Handler) Runs(w http.ResponseWriter, r *http.Request) {
	runs, err := h.repo.ListRecentRuns(r.Context(), 20)
	if err != nil {
		slog.Error("Failed to list runs", "error", err)
		Error(w, http.StatusInternalServerError, "failed to list runs")
		return
	}
	if runs == nil {
		runs = []store.ChainRun{}
	}
	JSON(w, http.StatusOK, runs)
}
