package chain

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/ashureev/quiz-agent/internal/config"
	"github.com/ashureev/quiz-agent/internal/domain"
)

type fakeSolver struct {
	calls  []string
	solved map[string]*Solved
	err    error
}

func (f *fakeSolver) Solve(_ context.Context, url string) (*Solved, error) {
	f.calls = append(f.calls, url)
	if f.err != nil {
		return nil, f.err
	}
	if s, ok := f.solved[url]; ok {
		return s, nil
	}
	return &Solved{Answer: "42", AnswerType: domain.AnswerNumber, SubmitURL: url + "/submit"}, nil
}

type fakeSubmitter struct {
	calls   []domain.Submission
	results []domain.SubmissionResult
}

func (f *fakeSubmitter) Submit(_ context.Context, _ string, sub domain.Submission) domain.SubmissionResult {
	i := len(f.calls)
	f.calls = append(f.calls, sub)
	if i < len(f.results) {
		return f.results[i]
	}
	return domain.SubmissionResult{Success: true, Correct: true}
}

func testConfig() *config.Config {
	return &config.Config{
		Email:        "agent@example.com",
		Secret:       "s3cret",
		ChainTimeout: 170 * time.Second,
		SolveTimeout: 90 * time.Second,
		MaxAttempts:  2,
	}
}

func TestRunAdvancesThroughChain(t *testing.T) {
	solver := &fakeSolver{}
	submitter := &fakeSubmitter{results: []domain.SubmissionResult{
		{Success: true, Correct: true, NextURL: "https://q.example/2"},
		{Success: true, Correct: true},
	}}
	c := NewController(solver, submitter, nil, testConfig())

	stats := c.Run(context.Background(), "https://q.example/1")

	if stats.Total != 2 || stats.Correct != 2 || stats.Wrong != 0 {
		t.Errorf("stats = %+v", stats)
	}
	if len(solver.calls) != 2 || solver.calls[1] != "https://q.example/2" {
		t.Errorf("solver calls = %v", solver.calls)
	}
	if submitter.calls[0].Email != "agent@example.com" || submitter.calls[0].Secret != "s3cret" {
		t.Errorf("submission = %+v", submitter.calls[0])
	}
}

func TestRunRetriesThenAdvancesWrong(t *testing.T) {
	solver := &fakeSolver{}
	submitter := &fakeSubmitter{results: []domain.SubmissionResult{
		{Success: true, Correct: false, Reason: "wrong", NextURL: "https://q.example/2"},
		{Success: true, Correct: false, Reason: "wrong again", NextURL: "https://q.example/2"},
		{Success: true, Correct: true},
	}}
	c := NewController(solver, submitter, nil, testConfig())

	stats := c.Run(context.Background(), "https://q.example/1")

	// Exactly two full solve attempts on the failed question, then the
	// chain advances with the question counted wrong.
	if got := countCalls(solver.calls, "https://q.example/1"); got != 2 {
		t.Errorf("attempts on q1 = %d, want 2", got)
	}
	if stats.Total != 2 || stats.Wrong != 1 || stats.Correct != 1 {
		t.Errorf("stats = %+v", stats)
	}
	if stats.Questions[0].Outcome != domain.OutcomeWrong || stats.Questions[0].Attempts != 2 {
		t.Errorf("question result = %+v", stats.Questions[0])
	}
}

func TestRunTerminatesWithoutNextURL(t *testing.T) {
	solver := &fakeSolver{}
	submitter := &fakeSubmitter{results: []domain.SubmissionResult{
		{Success: true, Correct: false, Reason: "wrong"},
		{Success: true, Correct: false, Reason: "wrong"},
	}}
	c := NewController(solver, submitter, nil, testConfig())

	stats := c.Run(context.Background(), "https://q.example/1")

	if stats.Total != 1 || stats.Wrong != 1 {
		t.Errorf("stats = %+v", stats)
	}
	if len(solver.calls) != 2 {
		t.Errorf("solver calls = %v", solver.calls)
	}
}

func TestRunExpiredDeadlineDoesNothing(t *testing.T) {
	solver := &fakeSolver{}
	submitter := &fakeSubmitter{}
	cfg := testConfig()
	cfg.ChainTimeout = 0
	c := NewController(solver, submitter, nil, cfg)

	stats := c.Run(context.Background(), "https://q.example/1")

	if len(solver.calls) != 0 {
		t.Errorf("no solve should start after the deadline, got %v", solver.calls)
	}
	if len(submitter.calls) != 0 {
		t.Errorf("no submission should be sent after the deadline, got %v", submitter.calls)
	}
	if stats.Total != 0 {
		t.Errorf("stats = %+v", stats)
	}
}

func TestRunSolverErrorCountsAsAttempt(t *testing.T) {
	solver := &fakeSolver{err: errors.New("conversation exhausted")}
	submitter := &fakeSubmitter{}
	c := NewController(solver, submitter, nil, testConfig())

	stats := c.Run(context.Background(), "https://q.example/1")

	if len(solver.calls) != 2 {
		t.Errorf("solver calls = %d, want 2", len(solver.calls))
	}
	if len(submitter.calls) != 0 {
		t.Error("failed solves must not submit")
	}
	if stats.Wrong != 1 || stats.Questions[0].Reason != "conversation exhausted" {
		t.Errorf("stats = %+v", stats)
	}
}

func TestRunSolveTimeoutAbandonsChain(t *testing.T) {
	solver := &fakeSolver{err: context.DeadlineExceeded}
	submitter := &fakeSubmitter{}
	c := NewController(solver, submitter, nil, testConfig())

	stats := c.Run(context.Background(), "https://q.example/1")

	// A timed-out solve is not retried; the chain ends there.
	if len(solver.calls) != 1 {
		t.Errorf("solver calls = %d, want 1", len(solver.calls))
	}
	if len(submitter.calls) != 0 {
		t.Error("nothing should be submitted after a solve timeout")
	}
	if stats.Wrong != 1 || stats.Questions[0].Reason != "solve timeout" {
		t.Errorf("stats = %+v", stats)
	}
}

func countCalls(calls []string, url string) int {
	n := 0
	for _, c := range calls {
		if c == url {
			n++
		}
	}
	return n
}
