package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/ashureev/quiz-agent/internal/domain"
	"github.com/ashureev/quiz-agent/internal/progress"
	"github.com/ashureev/quiz-agent/internal/store"
)

type fakeRepo struct {
	saved chan domain.ChainStats
	runs  []store.ChainRun
}

func (f *fakeRepo) SaveChainRun(_ context.Context, stats domain.ChainStats) (int64, error) {
	if f.saved != nil {
		f.saved <- stats
	}
	return 1, nil
}

func (f *fakeRepo) ListRecentRuns(context.Context, int) ([]store.ChainRun, error) {
	return f.runs, nil
}

func (f *fakeRepo) Ping(context.Context) error { return nil }
func (f *fakeRepo) Close() error               { return nil }

type fakeRunner struct {
	started chan string
}

func (f *fakeRunner) Run(_ context.Context, startURL string) domain.ChainStats {
	if f.started != nil {
		f.started <- startURL
	}
	return domain.ChainStats{StartURL: startURL}
}

func newTestHandler() (*Handler, *fakeRepo, *fakeRunner) {
	repo := &fakeRepo{saved: make(chan domain.ChainStats, 1)}
	runner := &fakeRunner{started: make(chan string, 1)}
	h := NewHandler(repo, runner, progress.NewBroker(), "agent@example.com", "s3cret")
	return h, repo, runner
}

func postSolve(t *testing.T, h *Handler, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(body))
	rec := httptest.NewRecorder()
	h.Solve(rec, req)
	return rec
}

func TestSolveRejectsInvalidJSON(t *testing.T) {
	h, _, _ := newTestHandler()
	if rec := postSolve(t, h, "{not json"); rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", rec.Code)
	}
}

func TestSolveRejectsMissingFields(t *testing.T) {
	h, _, _ := newTestHandler()
	if rec := postSolve(t, h, `{"secret":"s3cret"}`); rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", rec.Code)
	}
}

func TestSolveRejectsWrongSecret(t *testing.T) {
	h, _, runner := newTestHandler()
	rec := postSolve(t, h, `{"email":"a@example.com","secret":"wrong","url":"https://q.example/1"}`)
	if rec.Code != http.StatusForbidden {
		t.Errorf("status = %d, want 403", rec.Code)
	}
	select {
	case url := <-runner.started:
		t.Errorf("chain started for %q despite rejection", url)
	case <-time.After(50 * time.Millisecond):
	}
}

func TestSolveStartsChainInBackground(t *testing.T) {
	h, repo, runner := newTestHandler()
	rec := postSolve(t, h, `{"email":"a@example.com","secret":"s3cret","url":"https://q.example/1"}`)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	var resp map[string]string
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("invalid response JSON: %v", err)
	}
	if resp["status"] != "processing" || resp["url"] != "https://q.example/1" {
		t.Errorf("response = %v", resp)
	}

	select {
	case url := <-runner.started:
		if url != "https://q.example/1" {
			t.Errorf("chain started for %q", url)
		}
	case <-time.After(time.Second):
		t.Fatal("chain never started")
	}
	select {
	case stats := <-repo.saved:
		if stats.StartURL != "https://q.example/1" {
			t.Errorf("persisted stats = %+v", stats)
		}
	case <-time.After(time.Second):
		t.Fatal("chain stats never persisted")
	}
}

func TestHealth(t *testing.T) {
	h, _, _ := newTestHandler()
	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	rec := httptest.NewRecorder()
	h.Health(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	var resp map[string]string
	json.Unmarshal(rec.Body.Bytes(), &resp)
	if resp["status"] != "ok" || resp["email"] != "agent@example.com" {
		t.Errorf("response = %v", resp)
	}
}

func TestRunsReturnsEmptyArray(t *testing.T) {
	h, _, _ := newTestHandler()
	req := httptest.NewRequest(http.MethodGet, "/runs", nil)
	rec := httptest.NewRecorder()
	h.Runs(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if body := strings.TrimSpace(rec.Body.String()); body != "[]" {
		t.Errorf("body = %q, want []", body)
	}
}
