// Package search queries the Google-proxy search backend. One query in, up
// to ten organic results out; ranking happens downstream in discovery.
package search

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"golang.org/x/time/rate"

	"github.com/partly/enrichment-engine/internal/config"
	"github.com/partly/enrichment-engine/internal/domain"
	"github.com/partly/enrichment-engine/internal/observability"
)

// Result is one organic search hit.
type Result struct {
	Link    string `json:"link"`
	Title   string `json:"title"`
	Snippet string `json:"snippet"`
}

// Client talks to the search proxy.
type Client struct {
	endpoint    string
	apiKey      string
	resultCount int
	httpClient  *http.Client
	limiter     *rate.Limiter
	log         *observability.Logger
}

// NewClient creates a search client from config.
func NewClient(cfg config.SearchConfig, log *observability.Logger) *Client {
	limit := rate.Limit(cfg.RatePerSecond)
	if cfg.RatePerSecond <= 0 {
		limit = rate.Inf
	}
	burst := cfg.BurstAllowance
	if burst < 1 {
		burst = 1
	}

	count := cfg.ResultCount
	if count < 1 {
		count = 10
	}

	return &Client{
		endpoint:    cfg.Endpoint,
		apiKey:      cfg.APIKey,
		resultCount: count,
		httpClient:  &http.Client{},
		limiter:     rate.NewLimiter(limit, burst),
		log:         log,
	}
}

// envelope accepts both response shapes the proxy is known to emit.
type envelope struct {
	Organic []Result `json:"organic"`
	Results []Result `json:"results"`
}

// Search issues one query and returns the organic results. Errors only on
// transport failure or a non-2xx status.
func (c *Client) Search(ctx context.Context, query string) ([]Result, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	body, err := json.Marshal(map[string]any{
		"q":   query,
		"num": c.resultCount,
	})
	if err != nil {
		return nil, domain.APIError("failed to marshal search request", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, domain.APIError("failed to build search request", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-API-KEY", c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, domain.APIError("search request failed", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		bodyBytes, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		return nil, domain.APIError(fmt.Sprintf("search backend returned status %d: %s", resp.StatusCode, string(bodyBytes)), nil)
	}

	var env envelope
	if err := json.NewDecoder(resp.Body).Decode(&env); err != nil {
		return nil, domain.ParseError("failed to decode search response", err)
	}

	results := env.Organic
	if len(results) == 0 {
		results = env.Results
	}

	c.log.Debug().
		Str("query", query).
		Int("results", len(results)).
		Msg("search completed")

	return results, nil
}
