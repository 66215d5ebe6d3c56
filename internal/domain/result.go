package domain

import "time"

// Submission is the payload posted to a grading endpoint.
type Submission struct {
	Email  string `json:"email"`
	Secret string `json:"secret"`
	URL    string `json:"url"`
	Answer any    `json:"answer"`
}

// SubmissionResult is the grading service's verdict for one submission.
// Success reflects transport-level delivery; Correct is the grade itself.
type SubmissionResult struct {
	Success bool
	Correct bool
	Reason  string
	NextURL string
}

// QuestionOutcome labels how a question in a chain ended.
type QuestionOutcome string

const (
	OutcomeCorrect QuestionOutcome = "correct"
	OutcomeWrong   QuestionOutcome = "wrong"
)

// QuestionResult records one question's outcome within a chain run.
type QuestionResult struct {
	URL      string          `json:"url"`
	Outcome  QuestionOutcome `json:"result"`
	Reason   string          `json:"reason,omitempty"`
	Attempts int             `json:"attempts"`
}

// ChainStats accumulates results across one chain of linked quizzes.
type ChainStats struct {
	StartURL  string           `json:"start_url"`
	Total     int              `json:"total"`
	Correct   int              `json:"correct"`
	Wrong     int              `json:"wrong"`
	Elapsed   time.Duration    `json:"-"`
	ElapsedS  float64          `json:"elapsed_seconds"`
	Questions []QuestionResult `json:"questions"`
}

// RecordCorrect adds a correct result for url.
func (s *ChainStats) RecordCorrect(url string, attempts int) {
	s.Total++
	s.Correct++
	s.Questions = append(s.Questions, QuestionResult{URL: url, Outcome: OutcomeCorrect, Attempts: attempts})
}

// RecordWrong adds a wrong result for url.
func (s *ChainStats) RecordWrong(url, reason string, attempts int) {
	s.Total++
	s.Wrong++
	s.Questions = append(s.Questions, QuestionResult{URL: url, Outcome: OutcomeWrong, Reason: reason, Attempts: attempts})
}
