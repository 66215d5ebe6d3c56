package scrape

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"
)

// maxDownload caps how much of any single fetched resource is read.
const maxDownload = 20 << 20 // 20 MB

// Fetcher performs the outbound HTTP requests for page loads and file
// downloads. One instance is shared by the loader and the converter.
type Fetcher struct {
	client *http.Client
}

// NewFetcher creates a Fetcher with the given per-request timeout.
func NewFetcher(timeout time.Duration) *Fetcher {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Fetcher{client: &http.Client{Timeout: timeout}}
}

// Get fetches a URL and returns the body as a string.
func (f *Fetcher) Get(ctx context.Context, url string) (string, error) {
	data, err := f.Download(ctx, url)
	if err != nil {
		return "", err
	}
	return string(data), nil
}

// Download fetches a URL and returns the raw body bytes. Non-2xx
// responses are errors.
func (f *Fetcher) Download(ctx context.Context, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("build request for %s: %w", url, err)
	}
	req.Header.Set("User-Agent", "quiz-agent/1.0")

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch %s: %w", url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("fetch %s: status %d", url, resp.StatusCode)
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxDownload))
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", url, err)
	}
	return data, nil
}
