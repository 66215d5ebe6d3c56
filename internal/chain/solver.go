package chain

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/ashureev/quiz-agent/internal/answer"
	"github.com/ashureev/quiz-agent/internal/domain"
	"github.com/ashureev/quiz-agent/internal/driver"
	"github.com/ashureev/quiz-agent/internal/llm"
	"github.com/ashureev/quiz-agent/internal/sandbox"
	"github.com/ashureev/quiz-agent/internal/scrape"
	"github.com/ashureev/quiz-agent/internal/session"
)

// Solved is the output of one full solve pass over a quiz page.
type Solved struct {
	Answer     any
	AnswerType domain.AnswerType
	SubmitURL  string
}

// Solver turns one quiz URL into a submittable answer.
type Solver interface {
	Solve(ctx context.Context, quizURL string) (*Solved, error)
}

// QuizSolver is the production Solver: scrape, convert, formulate the
// question, drive the tool conversation, then extract and normalize the
// answer.
type QuizSolver struct {
	loader    scrape.Loader
	converter *scrape.Converter
	sessions  *session.Store
	client    llm.Client
	driver    *driver.Driver
}

// NewQuizSolver wires the solve pipeline.
func NewQuizSolver(loader scrape.Loader, converter *scrape.Converter, sessions *session.Store, client llm.Client, d *driver.Driver) *QuizSolver {
	return &QuizSolver{
		loader:    loader,
		converter: converter,
		sessions:  sessions,
		client:    client,
		driver:    d,
	}
}

// Solve runs the pipeline for one quiz URL.
func (s *QuizSolver) Solve(ctx context.Context, quizURL string) (*Solved, error) {
	sess, err := s.sessions.Open(quizURL)
	if err != nil {
		return nil, err
	}

	page, err := s.loader.Load(ctx, quizURL)
	if err != nil {
		return nil, fmt.Errorf("load quiz page: %w", err)
	}
	pageContext, data := s.converter.Convert(ctx, page, sess)

	q, err := s.formulate(ctx, pageContext)
	if err != nil {
		return nil, err
	}
	slog.Info("Question formulated", "url", quizURL, "answer_type", q.AnswerType, "submit_url", q.SubmitURL)

	bindings := sandbox.Bindings{Dir: sess.Dir, CSV: data.CSV, Params: data.Params}
	raw, err := s.driver.Drive(ctx, llm.SolvePrompt(q, pageContext), quizURL, bindings)
	if err != nil {
		return nil, fmt.Errorf("drive conversation: %w", err)
	}

	extracted := answer.Clean(answer.Extract(raw))
	if extracted == "" {
		return nil, fmt.Errorf("submission response carried no extractable answer")
	}
	norm := answer.Normalize(extracted, q.AnswerType, sess)

	if err := sess.SaveAnswer(norm, q.AnswerType); err != nil {
		slog.Warn("Failed to persist answer artifact", "url", quizURL, "error", err)
	}

	return &Solved{
		Answer:     payloadValue(norm, q.AnswerType),
		AnswerType: q.AnswerType,
		SubmitURL:  scrape.Resolve(quizURL, q.SubmitURL),
	}, nil
}

// formulate asks the model to restate the page as a structured question
// record.
func (s *QuizSolver) formulate(ctx context.Context, pageContext string) (domain.Question, error) {
	resp, err := s.client.Chat(ctx, []llm.Message{
		{Role: llm.RoleUser, Content: llm.QuestionPrompt(pageContext)},
	})
	if err != nil {
		return domain.Question{}, fmt.Errorf("formulate question: %w", err)
	}
	return llm.ParseQuestion(resp), nil
}
