package answer

import (
	"testing"

	"github.com/ashureev/quiz-agent/internal/domain"
)

func TestNormalizeNumber(t *testing.T) {
	tests := []struct {
		raw  string
		want string
	}{
		{"the result is 47008599.0", "47008599"},
		{"3.14 approx", "3.14"},
		{"60", "60"},
		{"-12.0", "-12"},
		{"answer: -7", "-7"},
		{"no digits here", "no digits here"},
	}

	for _, tt := range tests {
		if got := Normalize(tt.raw, domain.AnswerNumber, nil); got != tt.want {
			t.Errorf("Normalize(%q, number) = %q, want %q", tt.raw, got, tt.want)
		}
	}
}

func TestNormalizeBoolean(t *testing.T) {
	tests := []struct {
		raw  string
		want string
	}{
		{"Result: TRUE", "true"},
		{"false", "false"},
		{"0", "false"},
		{"1", "true"},
		{"yes", "true"},
		{"NO", "false"},
		{"maybe", "maybe"},
	}

	for _, tt := range tests {
		if got := Normalize(tt.raw, domain.AnswerBoolean, nil); got != tt.want {
			t.Errorf("Normalize(%q, boolean) = %q, want %q", tt.raw, got, tt.want)
		}
	}
}

func TestNormalizeJSON(t *testing.T) {
	tests := []struct {
		raw  string
		want string
	}{
		{`Here you go: {"a": 1} hope that helps`, `{"a": 1}`},
		{`{"nested": {"b": 2}}`, `{"nested": {"b": 2}}`},
		{`no braces`, `no braces`},
	}

	for _, tt := range tests {
		if got := Normalize(tt.raw, domain.AnswerJSON, nil); got != tt.want {
			t.Errorf("Normalize(%q, json) = %q, want %q", tt.raw, got, tt.want)
		}
	}
}

type fakeResolver struct {
	uris map[string]string
}

func (f *fakeResolver) DataURI(answer string) (string, bool) {
	uri, ok := f.uris[answer]
	return uri, ok
}

func TestNormalizeFileLike(t *testing.T) {
	resolver := &fakeResolver{uris: map[string]string{
		"chart.png": "data:image/png;base64,aGk=",
	}}

	// Already a data URI passes through.
	uri := "data:image/png;base64,Zm9v"
	if got := Normalize(uri, domain.AnswerImage, resolver); got != uri {
		t.Errorf("data URI should pass through, got %q", got)
	}

	// Session artifact resolves.
	if got := Normalize("chart.png", domain.AnswerChart, resolver); got != "data:image/png;base64,aGk=" {
		t.Errorf("chart resolution failed: %q", got)
	}

	// Unresolvable answers pass through rather than erroring.
	if got := Normalize("missing.bin", domain.AnswerFile, resolver); got != "missing.bin" {
		t.Errorf("unresolvable answer should pass through, got %q", got)
	}
}

func TestNormalizeTextUnchanged(t *testing.T) {
	in := "Access-Control-Allow-Origin: https://example.com"
	if got := Normalize(in, domain.AnswerText, nil); got != in {
		t.Errorf("text must pass through unchanged, got %q", got)
	}
}
