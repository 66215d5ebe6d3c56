// Package tool classifies raw model responses into tool invocations.
//
// The model signals actions with literal text markers (TOOL: RUN_CODE,
// TOOL: SCRAPE, TOOL: SUBMIT) rather than structured tool calls. This
// package is the single parsing boundary over that contract: it returns a
// tagged Invocation so no other component inspects raw response text.
package tool

import (
	"regexp"
	"strings"

	"github.com/ashureev/quiz-agent/internal/answer"
)

// Kind identifies which tool the model asked for.
type Kind int

const (
	// None means no tool marker and no extractable answer was found.
	None Kind = iota
	// RunCode requests sandboxed execution of a code block.
	RunCode
	// Scrape requests a secondary fetch of another URL.
	Scrape
	// Submit carries the final answer.
	Submit
)

// Invocation is the parsed form of one assistant response. Exactly one
// field beyond Kind is meaningful, matching the Kind.
type Invocation struct {
	Kind   Kind
	Code   string
	URL    string
	Answer string
}

const (
	runCodeMarker = "TOOL: RUN_CODE"
	scrapeMarker  = "TOOL: SCRAPE"
)

var (
	codeBlockRe = regexp.MustCompile("(?s)```[a-zA-Z0-9_+-]*\n?(.*?)```")
	scrapeURLRe = regexp.MustCompile(`URL:\s*(\S+)`)
)

// Detect scans a model response for a tool marker and extracts its
// arguments. Priority is fixed (RunCode, then Scrape, then Submit or an
// implicit extractable answer) so that when a malformed response carries
// several markers, code execution, which can produce data a submission
// depends on, always wins.
func Detect(response string) Invocation {
	if strings.Contains(response, runCodeMarker) {
		if code := extractCode(response); code != "" {
			return Invocation{Kind: RunCode, Code: code}
		}
	}

	if strings.Contains(response, scrapeMarker) {
		if m := scrapeURLRe.FindStringSubmatch(response); m != nil {
			return Invocation{Kind: Scrape, URL: m[1]}
		}
	}

	if a := answer.Extract(response); a != "" {
		return Invocation{Kind: Submit, Answer: a}
	}

	return Invocation{Kind: None}
}

// extractCode returns the first fenced code block after the RUN_CODE
// marker, falling back to the first block anywhere in the response.
func extractCode(response string) string {
	scope := response
	if idx := strings.Index(response, runCodeMarker); idx >= 0 {
		scope = response[idx:]
	}
	if m := codeBlockRe.FindStringSubmatch(scope); m != nil {
		return strings.Trim(m[1], "\n")
	}
	if m := codeBlockRe.FindStringSubmatch(response); m != nil {
		return strings.Trim(m[1], "\n")
	}
	return ""
}
