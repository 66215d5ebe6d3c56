package chain

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/ashureev/quiz-agent/internal/domain"
)

// maxSubmissionSize is the grader's documented payload limit. Oversized
// payloads are rejected locally so the grader never sees them.
const maxSubmissionSize = 1 << 20

// Submitter posts one answer to a grading endpoint and reports the verdict.
type Submitter interface {
	Submit(ctx context.Context, submitURL string, sub domain.Submission) domain.SubmissionResult
}

// HTTPSubmitter posts submissions as JSON over HTTP.
type HTTPSubmitter struct {
	client *http.Client
}

// NewHTTPSubmitter creates a Submitter with the given request timeout.
func NewHTTPSubmitter(timeout time.Duration) *HTTPSubmitter {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &HTTPSubmitter{client: &http.Client{Timeout: timeout}}
}

// gradeResponse is the grader's reply shape. Unknown fields are ignored.
type gradeResponse struct {
	Correct bool   `json:"correct"`
	Reason  string `json:"reason"`
	Message string `json:"message"`
	URL     string `json:"url"`
}

// Submit delivers the submission. Transport failures and non-2xx statuses
// come back as Success=false; a delivered but wrong answer is Success=true,
// Correct=false.
func (s *HTTPSubmitter) Submit(ctx context.Context, submitURL string, sub domain.Submission) domain.SubmissionResult {
	payload, err := json.Marshal(sub)
	if err != nil {
		return domain.SubmissionResult{Reason: fmt.Sprintf("marshal submission: %v", err)}
	}
	if len(payload) > maxSubmissionSize {
		return domain.SubmissionResult{Reason: fmt.Sprintf("submission payload is %d bytes, limit is %d", len(payload), maxSubmissionSize)}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, submitURL, bytes.NewReader(payload))
	if err != nil {
		return domain.SubmissionResult{Reason: fmt.Sprintf("build request: %v", err)}
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return domain.SubmissionResult{Reason: fmt.Sprintf("post submission: %v", err)}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return domain.SubmissionResult{Reason: fmt.Sprintf("read grader response: %v", err)}
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return domain.SubmissionResult{Reason: fmt.Sprintf("grader returned status %d: %s", resp.StatusCode, body)}
	}

	var grade gradeResponse
	if err := json.Unmarshal(body, &grade); err != nil {
		return domain.SubmissionResult{Reason: fmt.Sprintf("decode grader response: %v", err)}
	}
	reason := grade.Reason
	if reason == "" {
		reason = grade.Message
	}
	return domain.SubmissionResult{
		Success: true,
		Correct: grade.Correct,
		Reason:  reason,
		NextURL: grade.URL,
	}
}

// payloadValue converts a normalized answer string into the JSON value the
// grader expects for the declared type. Anything that does not parse as its
// declared type is sent as the string itself.
func payloadValue(norm string, t domain.AnswerType) any {
	switch t {
	case domain.AnswerNumber:
		if n, err := strconv.ParseInt(norm, 10, 64); err == nil {
			return n
		}
		if f, err := strconv.ParseFloat(norm, 64); err == nil {
			return f
		}
	case domain.AnswerBoolean:
		if b, err := strconv.ParseBool(norm); err == nil {
			return b
		}
	case domain.AnswerJSON:
		if json.Valid([]byte(norm)) {
			return json.RawMessage(norm)
		}
	}
	return norm
}
