package scrape

import (
	"regexp"
	"strconv"
)

var (
	cutoffRe = regexp.MustCompile(`(?i)cutoff[:\s=]+(\d+)`)
	emailRe  = regexp.MustCompile(`[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}`)
)

// ExtractParams pulls well-known scalar parameters out of page text so
// generated code can reference them as Python variables instead of
// re-parsing the page.
func ExtractParams(text string) map[string]any {
	params := map[string]any{}

	if m := cutoffRe.FindStringSubmatch(text); m != nil {
		if n, err := strconv.Atoi(m[1]); err == nil {
			params["cutoff"] = n
		}
	}
	if m := emailRe.FindString(text); m != "" {
		params["email"] = m
	}

	if len(params) == 0 {
		return nil
	}
	return params
}
