package store

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/ashureev/quiz-agent/internal/domain"
)

func newTestStore(t *testing.T) Repository {
	t.Helper()
	repo, err := NewSQLite(filepath.Join(t.TempDir(), "quiz.db"))
	if err != nil {
		t.Fatalf("NewSQLite failed: %v", err)
	}
	t.Cleanup(func() { repo.Close() })
	return repo
}

func TestSaveAndListChainRuns(t *testing.T) {
	repo := newTestStore(t)
	ctx := context.Background()

	stats := domain.ChainStats{StartURL: "https://q.example/1", ElapsedS: 42.5}
	stats.RecordCorrect("https://q.example/1", 1)
	stats.RecordWrong("https://q.example/2", "expected 43", 2)

	runID, err := repo.SaveChainRun(ctx, stats)
	if err != nil {
		t.Fatalf("SaveChainRun failed: %v", err)
	}
	if runID == 0 {
		t.Fatal("expected a non-zero run ID")
	}

	runs, err := repo.ListRecentRuns(ctx, 10)
	if err != nil {
		t.Fatalf("ListRecentRuns failed: %v", err)
	}
	if len(runs) != 1 {
		t.Fatalf("runs = %d, want 1", len(runs))
	}

	run := runs[0]
	if run.StartURL != "https://q.example/1" || run.Total != 2 || run.Correct != 1 || run.Wrong != 1 {
		t.Errorf("run = %+v", run)
	}
	if run.ElapsedS != 42.5 {
		t.Errorf("elapsed = %v", run.ElapsedS)
	}
	if len(run.Questions) != 2 {
		t.Fatalf("questions = %d, want 2", len(run.Questions))
	}
	if run.Questions[1].Outcome != domain.OutcomeWrong || run.Questions[1].Reason != "expected 43" {
		t.Errorf("question = %+v", run.Questions[1])
	}
}

func TestListRecentRunsOrderAndLimit(t *testing.T) {
	repo := newTestStore(t)
	ctx := context.Background()

	for _, url := range []string{"https://q.example/a", "https://q.example/b", "https://q.example/c"} {
		if _, err := repo.SaveChainRun(ctx, domain.ChainStats{StartURL: url}); err != nil {
			t.Fatalf("SaveChainRun failed: %v", err)
		}
	}

	runs, err := repo.ListRecentRuns(ctx, 2)
	if err != nil {
		t.Fatalf("ListRecentRuns failed: %v", err)
	}
	if len(runs) != 2 {
		t.Fatalf("runs = %d, want 2", len(runs))
	}
	if runs[0].StartURL != "https://q.example/c" {
		t.Errorf("newest run = %q, want the last saved", runs[0].StartURL)
	}
}

func TestPing(t *testing.T) {
	repo := newTestStore(t)
	if err := repo.Ping(context.Background()); err != nil {
		t.Fatalf("Ping failed: %v", err)
	}
}
