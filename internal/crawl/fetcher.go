package crawl

import (
	"context"
	"io"
	"net/http"
	"time"
)

// fetchOutcome is one tier-1 attempt's result before heuristic checks.
type fetchOutcome struct {
	finalURL    string
	html        string
	contentType string
}

// fetcher performs the cheap HTTP tier.
type fetcher struct {
	client    *http.Client
	userAgent string
}

func newFetcher(timeout time.Duration, userAgent string) *fetcher {
	return &fetcher{
		client:    &http.Client{Timeout: timeout},
		userAgent: userAgent,
	}
}

// fetch issues one GET following redirects and reads the full body.
func (f *fetcher) fetch(ctx context.Context, url string) (*fetchOutcome, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", f.userAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8")
	req.Header.Set("Accept-Language", "en-US,en;q=0.9")

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}

	return &fetchOutcome{
		finalURL:    resp.Request.URL.String(),
		html:        string(body),
		contentType: resp.Header.Get("Content-Type"),
	}, nil
}
