package chain

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/ashureev/quiz-agent/internal/domain"
)

func TestSubmitCorrectAnswer(t *testing.T) {
	var got domain.Submission
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Errorf("method = %s", r.Method)
		}
		if ct := r.Header.Get("Content-Type"); ct != "application/json" {
			t.Errorf("content type = %s", ct)
		}
		json.NewDecoder(r.Body).Decode(&got)
		json.NewEncoder(w).Encode(map[string]any{"correct": true, "url": "https://q.example/next"})
	}))
	defer srv.Close()

	s := NewHTTPSubmitter(5 * time.Second)
	res := s.Submit(context.Background(), srv.URL, domain.Submission{
		Email: "a@example.com", Secret: "k", URL: "https://q.example/1", Answer: int64(42),
	})

	if !res.Success || !res.Correct || res.NextURL != "https://q.example/next" {
		t.Errorf("result = %+v", res)
	}
	if got.Email != "a@example.com" || got.Answer != float64(42) {
		t.Errorf("server saw %+v", got)
	}
}

func TestSubmitWrongAnswerIsDelivered(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{"correct": false, "reason": "expected 43"})
	}))
	defer srv.Close()

	s := NewHTTPSubmitter(5 * time.Second)
	res := s.Submit(context.Background(), srv.URL, domain.Submission{Answer: "42"})

	if !res.Success || res.Correct {
		t.Errorf("result = %+v", res)
	}
	if res.Reason != "expected 43" {
		t.Errorf("reason = %q", res.Reason)
	}
}

func TestSubmitNon2xxIsFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "nope", http.StatusBadGateway)
	}))
	defer srv.Close()

	s := NewHTTPSubmitter(5 * time.Second)
	res := s.Submit(context.Background(), srv.URL, domain.Submission{Answer: "42"})

	if res.Success {
		t.Errorf("result = %+v, want Success=false", res)
	}
	if !strings.Contains(res.Reason, "502") {
		t.Errorf("reason = %q", res.Reason)
	}
}

func TestSubmitRejectsOversizedPayloadLocally(t *testing.T) {
	requests := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requests++
	}))
	defer srv.Close()

	s := NewHTTPSubmitter(5 * time.Second)
	res := s.Submit(context.Background(), srv.URL, domain.Submission{
		Answer: strings.Repeat("x", maxSubmissionSize+1),
	})

	if res.Success {
		t.Errorf("result = %+v, want local rejection", res)
	}
	if !strings.Contains(res.Reason, "limit") {
		t.Errorf("reason = %q", res.Reason)
	}
	if requests != 0 {
		t.Errorf("grader received %d requests, want 0", requests)
	}
}

func TestPayloadValue(t *testing.T) {
	tests := []struct {
		norm string
		t    domain.AnswerType
		want any
	}{
		{"42", domain.AnswerNumber, int64(42)},
		{"3.14", domain.AnswerNumber, 3.14},
		{"not a number", domain.AnswerNumber, "not a number"},
		{"true", domain.AnswerBoolean, true},
		{"false", domain.AnswerBoolean, false},
		{`{"a":1}`, domain.AnswerJSON, json.RawMessage(`{"a":1}`)},
		{"plain", domain.AnswerText, "plain"},
		{"data:image/png;base64,AA==", domain.AnswerChart, "data:image/png;base64,AA=="},
	}
	for _, tt := range tests {
		got := payloadValue(tt.norm, tt.t)
		switch want := tt.want.(type) {
		case json.RawMessage:
			if string(got.(json.RawMessage)) != string(want) {
				t.Errorf("payloadValue(%q, %s) = %v", tt.norm, tt.t, got)
			}
		default:
			if got != tt.want {
				t.Errorf("payloadValue(%q, %s) = %v (%T), want %v", tt.norm, tt.t, got, got, tt.want)
			}
		}
	}
}
