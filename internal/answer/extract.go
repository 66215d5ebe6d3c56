// Package answer parses free-text model output into normalized answer values.
//
// The model boundary is unstructured text: answers arrive as "ANSWER: ..."
// lines, optionally fenced, optionally nested inside a "TOOL: SUBMIT" block.
// All pattern matching over that text lives here so the rest of the system
// only sees clean strings.
package answer

import (
	"regexp"
	"strings"
)

const (
	answerMarker = "ANSWER:"
	submitMarker = "TOOL: SUBMIT"
)

var (
	leadingFenceRe  = regexp.MustCompile("^```[a-zA-Z0-9_+-]*\n?")
	trailingFenceRe = regexp.MustCompile("\n?```[ \t]*$")
	fencedBlockRe   = regexp.MustCompile("(?s)```[a-zA-Z0-9_+-]*\n?(.*?)```")
)

// Extract pulls the answer value out of a raw model response.
//
// Lookup order: a fenced block following "ANSWER:", then inline text after
// "ANSWER:" truncated at the first blank line, scoped after "TOOL: SUBMIT"
// when that marker is present. Returns "" when no answer marker is found;
// callers must treat that as "no answer yet", not as an empty answer.
func Extract(response string) string {
	scope := response
	if idx := strings.Index(response, submitMarker); idx >= 0 {
		scope = response[idx+len(submitMarker):]
	}

	idx := strings.Index(scope, answerMarker)
	if idx < 0 {
		// The marker may precede TOOL: SUBMIT in a malformed response;
		// fall back to scanning the whole text.
		scope = response
		idx = strings.Index(scope, answerMarker)
	}
	if idx < 0 {
		return ""
	}

	rest := scope[idx+len(answerMarker):]
	rest = strings.TrimLeft(rest, " \t")
	rest = strings.TrimPrefix(rest, "\n")

	if strings.HasPrefix(rest, "```") {
		if m := fencedBlockRe.FindStringSubmatch(rest); m != nil {
			return Clean(strings.Trim(m[1], "\n"))
		}
	}

	// Inline or multi-line answer: a blank line ends the answer and starts
	// commentary. A following tool marker line ends it too.
	if cut := strings.Index(rest, "\n\n"); cut >= 0 {
		rest = rest[:cut]
	}
	if cut := strings.Index(rest, "\nTOOL:"); cut >= 0 {
		rest = rest[:cut]
	}
	return Clean(rest)
}

// Clean strips surrounding code fences (with optional language tag) and
// trims horizontal whitespace from both ends. Internal newlines are
// preserved deliberately: some answers are line-oriented payloads (YAML,
// headers) that collapsing newlines would corrupt. Clean is idempotent.
func Clean(raw string) string {
	s := strings.Trim(raw, " \t")
	for {
		next := leadingFenceRe.ReplaceAllString(s, "")
		next = trailingFenceRe.ReplaceAllString(next, "")
		next = strings.Trim(next, " \t")
		if next == s {
			return s
		}
		s = next
	}
}
