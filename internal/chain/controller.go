// Package chain walks a linked chain of quiz pages: solve, submit, follow
// the next URL, all under one wall-clock budget.
package chain

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/ashureev/quiz-agent/internal/config"
	"github.com/ashureev/quiz-agent/internal/domain"
	"github.com/ashureev/quiz-agent/internal/progress"
)

// Controller runs quiz chains end to end.
type Controller struct {
	solver    Solver
	submitter Submitter
	events    progress.Publisher

	email        string
	secret       string
	chainTimeout time.Duration
	solveTimeout time.Duration
	maxAttempts  int
}

// NewController creates a Controller from configuration. A nil events
// publisher is replaced with a no-op.
func NewController(solver Solver, submitter Submitter, events progress.Publisher, cfg *config.Config) *Controller {
	if events == nil {
		events = progress.NopPublisher{}
	}
	return &Controller{
		solver:       solver,
		submitter:    submitter,
		events:       events,
		email:        cfg.Email,
		secret:       cfg.Secret,
		chainTimeout: cfg.ChainTimeout,
		solveTimeout: cfg.SolveTimeout,
		maxAttempts:  cfg.MaxAttempts,
	}
}

// Run solves the chain starting at startURL until it ends, fails, or the
// chain deadline expires. The deadline is re-checked before every question
// and every retry so a submission is never started that cannot land.
func (c *Controller) Run(ctx context.Context, startURL string) domain.ChainStats {
	start := time.Now()
	deadline := start.Add(c.chainTimeout)
	ctx, cancel := context.WithDeadline(ctx, deadline)
	defer cancel()

	stats := domain.ChainStats{StartURL: startURL}
	c.events.Publish(progress.Event{Type: progress.EventChainStarted, URL: startURL})
	slog.Info("Chain started", "url", startURL, "deadline", deadline)

	url := startURL
	for url != "" {
		if time.Until(deadline) <= 0 || ctx.Err() != nil {
			slog.Warn("Chain deadline reached, terminating", "url", url)
			break
		}
		next, cont := c.runQuestion(ctx, deadline, url, &stats)
		if !cont {
			break
		}
		url = next
	}

	stats.Elapsed = time.Since(start)
	stats.ElapsedS = stats.Elapsed.Seconds()
	c.events.Publish(progress.Event{Type: progress.EventChainFinished, URL: startURL})
	slog.Info("Chain finished",
		"url", startURL,
		"total", stats.Total,
		"correct", stats.Correct,
		"wrong", stats.Wrong,
		"elapsed", stats.Elapsed)
	return stats
}

// runQuestion solves and submits one question, retrying a full re-solve on
// a wrong answer while attempts and time remain. It returns the next URL
// and whether the chain should continue.
func (c *Controller) runQuestion(ctx context.Context, deadline time.Time, url string, stats *domain.ChainStats) (string, bool) {
	c.events.Publish(progress.Event{Type: progress.EventQuestionStart, URL: url})

	var lastReason string
	var lastNext string
	for attempt := 1; attempt <= c.maxAttempts; attempt++ {
		remaining := time.Until(deadline)
		if remaining <= 0 {
			stats.RecordWrong(url, "chain deadline expired", attempt-1)
			c.publishOutcome(url, domain.OutcomeWrong, "chain deadline expired")
			return "", false
		}

		res, timedOut := c.attempt(ctx, url, min(c.solveTimeout, remaining))
		if timedOut {
			// A question that ran out its solve window never submitted;
			// the remaining budget cannot fit another attempt either.
			stats.RecordWrong(url, "solve timeout", attempt)
			c.publishOutcome(url, domain.OutcomeWrong, "solve timeout")
			slog.Warn("Question abandoned on timeout", "url", url, "attempt", attempt)
			return "", false
		}
		c.events.Publish(progress.Event{
			Type:    progress.EventAttemptResult,
			URL:     url,
			Attempt: attempt,
			Outcome: attemptOutcome(res),
			Reason:  res.Reason,
		})

		if res.Success && res.Correct {
			stats.RecordCorrect(url, attempt)
			c.publishOutcome(url, domain.OutcomeCorrect, "")
			slog.Info("Question solved", "url", url, "attempt", attempt, "next", res.NextURL)
			return res.NextURL, res.NextURL != ""
		}

		lastReason = res.Reason
		lastNext = res.NextURL
		slog.Warn("Attempt failed", "url", url, "attempt", attempt, "reason", res.Reason)
	}

	// Retries exhausted. A known next URL lets the chain move on; without
	// one the chain is over.
	stats.RecordWrong(url, lastReason, c.maxAttempts)
	c.publishOutcome(url, domain.OutcomeWrong, lastReason)
	if lastNext != "" {
		slog.Info("Advancing past failed question", "url", url, "next", lastNext)
		return lastNext, true
	}
	return "", false
}

// attempt runs one solve and submit cycle under its own sub-timeout. The
// second return value reports that the solve window itself expired.
func (c *Controller) attempt(ctx context.Context, url string, timeout time.Duration) (domain.SubmissionResult, bool) {
	attemptCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	solved, err := c.solver.Solve(attemptCtx, url)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) || attemptCtx.Err() != nil {
			return domain.SubmissionResult{Reason: "solve timeout"}, true
		}
		return domain.SubmissionResult{Reason: err.Error()}, false
	}
	return c.submitter.Submit(attemptCtx, solved.SubmitURL, domain.Submission{
		Email:  c.email,
		Secret: c.secret,
		URL:    url,
		Answer: solved.Answer,
	}), false
}

func (c *Controller) publishOutcome(url string, outcome domain.QuestionOutcome, reason string) {
	c.events.Publish(progress.Event{
		Type:    progress.EventQuestionResult,
		URL:     url,
		Outcome: string(outcome),
		Reason:  reason,
	})
}

func attemptOutcome(res domain.SubmissionResult) string {
	switch {
	case res.Success && res.Correct:
		return string(domain.OutcomeCorrect)
	case res.Success:
		return string(domain.OutcomeWrong)
	default:
		return "failed"
	}
}
