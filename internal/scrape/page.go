// Package scrape loads quiz pages, fetches linked data, and converts
// everything collected into one LLM-ready context string.
package scrape

import (
	"context"
	"net/url"
	"regexp"
	"strings"
)

// Link is a hyperlink found on a quiz page.
type Link struct {
	Href string
	Text string
}

// Page is everything extracted from one quiz page. Audio, Files and Links
// carry absolute URLs.
type Page struct {
	URL    string
	Text   string
	HTML   string
	Audio  []string
	Files  []Link
	Links  []Link
	Params map[string]any
}

// Loader loads a quiz page. The default implementation is plain HTTP;
// a headless-browser loader can be plugged in behind the same interface
// for JavaScript-rendered pages.
type Loader interface {
	Load(ctx context.Context, pageURL string) (*Page, error)
}

// HTTPLoader loads pages over plain HTTP and parses them with a
// lightweight tag scan, which is enough for static quiz pages.
type HTTPLoader struct {
	fetcher *Fetcher
}

// NewHTTPLoader creates a Loader on top of a Fetcher.
func NewHTTPLoader(fetcher *Fetcher) *HTTPLoader {
	return &HTTPLoader{fetcher: fetcher}
}

var (
	anchorRe = regexp.MustCompile(`(?is)<a\s[^>]*href=["']([^"']+)["'][^>]*>(.*?)</a>`)
	audioRe  = regexp.MustCompile(`(?is)<(?:audio|source)\s[^>]*src=["']([^"']+)["']`)
	tagRe    = regexp.MustCompile(`(?s)<[^>]*>`)
	scriptRe = regexp.MustCompile(`(?is)<(script|style)[^>]*>.*?</(script|style)>`)
	blankRe  = regexp.MustCompile(`\n{3,}`)
)

// Load fetches the page and extracts text, audio sources, file links and
// all links, resolving relative URLs against the page URL.
func (l *HTTPLoader) Load(ctx context.Context, pageURL string) (*Page, error) {
	html, err := l.fetcher.Get(ctx, pageURL)
	if err != nil {
		return nil, err
	}

	page := &Page{
		URL:  pageURL,
		HTML: html,
		Text: htmlToText(html),
	}

	for _, m := range audioRe.FindAllStringSubmatch(html, -1) {
		page.Audio = append(page.Audio, Resolve(pageURL, m[1]))
	}

	for _, m := range anchorRe.FindAllStringSubmatch(html, -1) {
		href := m[1]
		if strings.HasPrefix(href, "javascript:") || strings.HasPrefix(href, "#") {
			continue
		}
		link := Link{Href: Resolve(pageURL, href), Text: strings.TrimSpace(htmlToText(m[2]))}
		page.Links = append(page.Links, link)
		// A trailing path segment with an extension marks a data file.
		if seg := href[strings.LastIndex(href, "/")+1:]; strings.Contains(seg, ".") {
			page.Files = append(page.Files, link)
		}
	}

	page.Params = ExtractParams(page.Text)
	return page, nil
}

// htmlToText strips markup and collapses excess blank lines.
func htmlToText(html string) string {
	text := scriptRe.ReplaceAllString(html, "")
	text = tagRe.ReplaceAllString(text, "\n")
	text = strings.ReplaceAll(text, "&amp;", "&")
	text = strings.ReplaceAll(text, "&lt;", "<")
	text = strings.ReplaceAll(text, "&gt;", ">")
	text = strings.ReplaceAll(text, "&quot;", `"`)
	text = strings.ReplaceAll(text, "&#39;", "'")
	text = strings.ReplaceAll(text, "&nbsp;", " ")

	lines := strings.Split(text, "\n")
	for i, line := range lines {
		lines[i] = strings.TrimSpace(line)
	}
	text = strings.Join(lines, "\n")
	text = blankRe.ReplaceAllString(text, "\n\n")
	return strings.TrimSpace(text)
}

// Resolve joins a possibly-relative reference against a base URL.
func Resolve(base, ref string) string {
	b, err := url.Parse(base)
	if err != nil {
		return ref
	}
	r, err := url.Parse(ref)
	if err != nil {
		return ref
	}
	return b.ResolveReference(r).String()
}
