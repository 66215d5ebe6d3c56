// Package session manages the per-question working directory: the only
// persisted state in the system. Directories are keyed deterministically
// by a hash of the question URL, so repeated runs against the same
// question reuse the same directory.
package session

import (
	"crypto/md5"
	"encoding/base64"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/ashureev/quiz-agent/internal/domain"
)

// Artifact names written during solving.
const (
	AnswerFile = "answer.json"
	ChartFile  = "chart.png"
)

// Store hands out per-question session directories under a base data dir.
type Store struct {
	base string
}

// NewStore creates a session store rooted at dataDir/sessions.
func NewStore(dataDir string) *Store {
	return &Store{base: filepath.Join(dataDir, "sessions")}
}

// Key derives the deterministic session key for a quiz URL.
func Key(quizURL string) string {
	sum := md5.Sum([]byte(quizURL))
	return hex.EncodeToString(sum[:])[:8]
}

// Session is one question's working directory.
type Session struct {
	URL string
	Dir string
}

// Open returns the session for a quiz URL, creating its directory.
func (s *Store) Open(quizURL string) (*Session, error) {
	dir := filepath.Join(s.base, Key(quizURL))
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create session dir: %w", err)
	}
	return &Session{URL: quizURL, Dir: dir}, nil
}

// Base returns the sessions root directory.
func (s *Store) Base() string { return s.base }

// SaveFile writes an artifact into the session directory.
func (s *Session) SaveFile(name string, data []byte) (string, error) {
	path := filepath.Join(s.Dir, filepath.Base(name))
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", fmt.Errorf("save session file %s: %w", name, err)
	}
	return path, nil
}

// savedAnswer is the persisted record of a computed answer.
type savedAnswer struct {
	Answer     string            `json:"answer"`
	AnswerType domain.AnswerType `json:"answer_type"`
}

// SaveAnswer records the computed answer and its declared type.
func (s *Session) SaveAnswer(ans string, t domain.AnswerType) error {
	data, err := json.MarshalIndent(savedAnswer{Answer: ans, AnswerType: t}, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal answer: %w", err)
	}
	if _, err := s.SaveFile(AnswerFile, data); err != nil {
		return err
	}
	return nil
}

// DataURI resolves a file-like answer to a base64 data URI. Checked in
// order: the literal answer as a path (absolute or session-relative), then
// the session's generated chart artifact.
func (s *Session) DataURI(ans string) (string, bool) {
	candidates := []string{}
	if filepath.IsAbs(ans) {
		candidates = append(candidates, ans)
	} else if ans != "" {
		candidates = append(candidates, filepath.Join(s.Dir, filepath.Base(ans)))
	}
	candidates = append(candidates, filepath.Join(s.Dir, ChartFile))

	for _, path := range candidates {
		if uri, err := FileToDataURI(path); err == nil {
			return uri, true
		}
	}
	return "", false
}

// FileToDataURI reads a file and encodes it as a base64 data URI with a
// MIME type inferred from the extension.
func FileToDataURI(path string) (string, error) {
	info, err := os.Stat(path)
	if err != nil || info.IsDir() {
		return "", fmt.Errorf("not a file: %s", path)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("read %s: %w", path, err)
	}
	return fmt.Sprintf("data:%s;base64,%s", mimeFor(path), base64.StdEncoding.EncodeToString(data)), nil
}

func mimeFor(path string) string {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".png":
		return "image/png"
	case ".jpg", ".jpeg":
		return "image/jpeg"
	case ".gif":
		return "image/gif"
	case ".webp":
		return "image/webp"
	case ".pdf":
		return "application/pdf"
	case ".csv":
		return "text/csv"
	case ".json":
		return "application/json"
	default:
		return "application/octet-stream"
	}
}
