package llm

import (
	"regexp"
	"strings"

	"github.com/ashureev/quiz-agent/internal/domain"
)

var urlRe = regexp.MustCompile(`https?://[^\s\[\]<>"')]+`)

// ParseQuestion turns the model's line-oriented question record into a
// typed domain.Question. Missing or unrecognized ANSWER_TYPE defaults to
// text; SUBMIT_URL tolerates markdown links and surrounding brackets.
func ParseQuestion(response string) domain.Question {
	q := domain.Question{AnswerType: domain.AnswerText}

	for _, line := range strings.Split(response, "\n") {
		line = strings.TrimSpace(line)
		switch {
		case strings.HasPrefix(line, "QUESTION:"):
			q.Text = cleanValue(strings.TrimPrefix(line, "QUESTION:"))
		case strings.HasPrefix(line, "CONTEXT:"):
			q.Context = cleanValue(strings.TrimPrefix(line, "CONTEXT:"))
		case strings.HasPrefix(line, "ANSWER_TYPE:"):
			q.AnswerType = domain.ParseAnswerType(cleanValue(strings.TrimPrefix(line, "ANSWER_TYPE:")))
		case strings.HasPrefix(line, "SUBMIT_URL:"):
			raw := cleanValue(strings.TrimPrefix(line, "SUBMIT_URL:"))
			if m := urlRe.FindString(raw); m != "" {
				raw = m
			}
			q.SubmitURL = raw
		case strings.HasPrefix(line, "INSTRUCTIONS:"):
			q.Instructions = cleanValue(strings.TrimPrefix(line, "INSTRUCTIONS:"))
		}
	}

	return q
}

// cleanValue strips markdown artifacts the model tends to wrap values in.
func cleanValue(v string) string {
	v = strings.TrimSpace(v)
	v = strings.ReplaceAll(v, "```", "")
	v = strings.Trim(v, "[]")
	v = strings.Trim(v, `"'`)
	return strings.TrimSpace(v)
}
