package session

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/ashureev/quiz-agent/internal/domain"
)

func TestKeyDeterministic(t *testing.T) {
	url := "https://quiz.example/page?id=1"
	if Key(url) != Key(url) {
		t.Fatal("Key must be deterministic")
	}
	if len(Key(url)) != 8 {
		t.Fatalf("Key length = %d, want 8", len(Key(url)))
	}
	if Key(url) == Key("https://quiz.example/page?id=2") {
		t.Fatal("Different URLs must not collide on the short key")
	}
}

func TestOpenReusesDirectory(t *testing.T) {
	store := NewStore(t.TempDir())

	s1, err := store.Open("https://quiz.example/q1")
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	s2, err := store.Open("https://quiz.example/q1")
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	if s1.Dir != s2.Dir {
		t.Errorf("Same URL must map to the same dir: %s vs %s", s1.Dir, s2.Dir)
	}
}

func TestSaveAnswer(t *testing.T) {
	store := NewStore(t.TempDir())
	s, _ := store.Open("https://quiz.example/q1")

	if err := s.SaveAnswer("42", domain.AnswerNumber); err != nil {
		t.Fatalf("SaveAnswer failed: %v", err)
	}

	data, err := os.ReadFile(filepath.Join(s.Dir, AnswerFile))
	if err != nil {
		t.Fatalf("answer.json not written: %v", err)
	}
	var got savedAnswer
	if err := json.Unmarshal(data, &got); err != nil {
		t.Fatalf("answer.json not valid JSON: %v", err)
	}
	if got.Answer != "42" || got.AnswerType != domain.AnswerNumber {
		t.Errorf("answer.json = %+v", got)
	}
}

func TestDataURIResolution(t *testing.T) {
	store := NewStore(t.TempDir())
	s, _ := store.Open("https://quiz.example/q1")

	if _, ok := s.DataURI("nothing-here"); ok {
		t.Fatal("Expected no resolution in an empty session")
	}

	// A session-relative file resolves.
	if _, err := s.SaveFile("output.png", []byte{0x89, 0x50}); err != nil {
		t.Fatalf("SaveFile failed: %v", err)
	}
	uri, ok := s.DataURI("output.png")
	if !ok {
		t.Fatal("Expected output.png to resolve")
	}
	if !strings.HasPrefix(uri, "data:image/png;base64,") {
		t.Errorf("unexpected data URI: %s", uri)
	}

	// The chart artifact is the fallback for unresolvable answers.
	if _, err := s.SaveFile(ChartFile, []byte{0x89, 0x50, 0x4e}); err != nil {
		t.Fatalf("SaveFile failed: %v", err)
	}
	if _, ok := s.DataURI("some text answer"); !ok {
		t.Error("Expected fallback to the chart artifact")
	}
}

func TestSweepRemovesStaleDirs(t *testing.T) {
	base := t.TempDir()
	store := NewStore(base)
	s, _ := store.Open("https://quiz.example/old")

	stale := time.Now().Add(-48 * time.Hour)
	if err := os.Chtimes(s.Dir, stale, stale); err != nil {
		t.Fatalf("Chtimes failed: %v", err)
	}

	sweep(store.Base(), 24*time.Hour)

	if _, err := os.Stat(s.Dir); !os.IsNotExist(err) {
		t.Error("Expected stale session dir to be removed")
	}
}
