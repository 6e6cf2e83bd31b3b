package calendar

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"
)

const maxFeedBytes = 10 << 20

// FeedFetcher loads a raw iCalendar payload from a URL or a local path.
type FeedFetcher interface {
	Fetch(ctx context.Context, source string) ([]byte, error)
}

// Fetcher reads feeds over HTTP(S) or from disk with a per-fetch timeout.
type Fetcher struct {
	client  *http.Client
	timeout time.Duration
}

// NewFetcher creates a Fetcher. A non-positive timeout falls back to five seconds.
func NewFetcher(timeout time.Duration) *Fetcher {
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &Fetcher{
		client:  &http.Client{Timeout: timeout},
		timeout: timeout,
	}
}

// Fetch returns the feed body. Remote sources are fetched with GET; anything else is
// treated as a file path.
func (f *Fetcher) Fetch(ctx context.Context, source string) ([]byte, error) {
	source = strings.TrimSpace(source)
	if source == "" {
		return nil, errors.New("feed source is empty")
	}
	if isRemote(source) {
		return f.fetchRemote(ctx, source)
	}
	body, err := os.ReadFile(source)
	if err != nil {
		return nil, fmt.Errorf("read local feed: %w", err)
	}
	return body, nil
}

func (f *Fetcher) fetchRemote(ctx context.Context, url string) ([]byte, error) {
	ctx, cancel := context.WithTimeout(ctx, f.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, webcalToHTTPS(url), nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "text/calendar")

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status %s", resp.Status)
	}
	return io.ReadAll(io.LimitReader(resp.Body, maxFeedBytes))
}

func isRemote(source string) bool {
	lower := strings.ToLower(source)
	return strings.HasPrefix(lower, "http://") ||
		strings.HasPrefix(lower, "https://") ||
		strings.HasPrefix(lower, "webcal://")
}

func webcalToHTTPS(url string) string {
	if strings.HasPrefix(strings.ToLower(url), "webcal://") {
		return "https://" + url[len("webcal://"):]
	}
	return url
}

// RedactURL hides the path and query of a feed URL, which usually embed a private token.
func RedactURL(u string) string {
	const redactedSuffix = "/...(redacted)"

	i := strings.Index(u, "://")
	if i == -1 {
		return "file" + redactedSuffix
	}
	rest := u[i+3:]
	if j := strings.IndexByte(rest, '/'); j != -1 {
		rest = rest[:j]
	}
	return u[:i+3] + rest + redactedSuffix
}
