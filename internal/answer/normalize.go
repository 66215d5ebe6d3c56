package answer

import (
	"math"
	"regexp"
	"strconv"
	"strings"

	"github.com/ashureev/quiz-agent/internal/domain"
)

var numberRe = regexp.MustCompile(`-?\d+(\.\d+)?`)

// FileResolver resolves a file-like answer (path or artifact name) to a
// base64 data URI. Implemented by the session working directory.
type FileResolver interface {
	DataURI(answer string) (string, bool)
}

// Normalize converts a cleaned raw answer into the wire form implied by its
// declared type. Unrecognized content passes through unmodified; the
// grading service is the final judge.
func Normalize(raw string, t domain.AnswerType, files FileResolver) string {
	switch t {
	case domain.AnswerNumber:
		return normalizeNumber(raw)
	case domain.AnswerBoolean:
		return normalizeBoolean(raw)
	case domain.AnswerJSON:
		return normalizeJSON(raw)
	default:
		if t.IsFileLike() {
			return normalizeFile(raw, files)
		}
		return raw
	}
}

func normalizeNumber(raw string) string {
	tok := numberRe.FindString(raw)
	if tok == "" {
		return raw
	}
	if strings.Contains(tok, ".") {
		f, err := strconv.ParseFloat(tok, 64)
		if err != nil {
			return tok
		}
		// Integral values drop the fractional part: 47008599.0 -> 47008599.
		if f == math.Trunc(f) && !math.IsInf(f, 0) {
			return strconv.FormatFloat(f, 'f', -1, 64)
		}
	}
	return tok
}

func normalizeBoolean(raw string) string {
	lower := strings.ToLower(strings.TrimSpace(raw))
	switch {
	case strings.Contains(lower, "true"), lower == "1", lower == "yes":
		return "true"
	case strings.Contains(lower, "false"), lower == "0", lower == "no":
		return "false"
	}
	return raw
}

func normalizeJSON(raw string) string {
	// Slice from the first '{' to the matching last '}'. Garbage outside
	// the braces is discarded; the inside is trusted verbatim.
	start := strings.Index(raw, "{")
	if start < 0 {
		return raw
	}
	end := strings.LastIndex(raw, "}")
	if end <= start {
		return raw
	}
	return raw[start : end+1]
}

func normalizeFile(raw string, files FileResolver) string {
	if strings.HasPrefix(raw, "data:") {
		return raw
	}
	if files != nil {
		if uri, ok := files.DataURI(raw); ok {
			return uri
		}
	}
	return raw
}
