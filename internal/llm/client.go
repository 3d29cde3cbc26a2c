// Package llm talks to the generative-text backend. Both datasheet mapping
// and synthesis go through the same structured-generation contract: one
// prompt in, one JSON object out, temperature pinned to zero.
package llm

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

// Client handles communication with the generative-text API.
type Client struct {
	endpoint   string
	apiKey     string
	model      string
	httpClient *http.Client
	limiter    *rate.Limiter
	log        *observability.Logger
}

// request mirrors the generateContent wire shape.
type request struct {
	Contents         []content        `json:"contents"`
	GenerationConfig generationConfig `json:"generationConfig"`
}

type content struct {
	Parts []part `json:"parts"`
}

type part struct {
	Text string `json:"text"`
}

type generationConfig struct {
	Temperature float64 `json:"temperature"`
}

// response mirrors the candidate shape of the generateContent reply.
type response struct {
	Candidates []candidate `json:"candidates"`
}

type candidate struct {
	Content content `json:"content"`
}

// NewClient creates a new LLM client.
func NewClient(cfg config.LLMConfig, log *observability.Logger) *Client {
	limit := rate.Limit(cfg.RatePerSecond)
	if cfg.RatePerSecond <= 0 {
		limit = rate.Inf
	}
	burst := cfg.BurstAllowance
	if burst < 1 {
		burst = 1
	}

	return &Client{
		endpoint:   cfg.Endpoint,
		apiKey:     cfg.APIKey,
		model:      cfg.Model,
		httpClient: &http.Client{},
		limiter:    rate.NewLimiter(limit, burst),
		log:        log,
	}
}

// GenerateStructured sends the prompt and returns the first complete JSON
// object found in the model's reply. LLM calls carry no explicit deadline;
// failures surface as HTTP errors.
func (c *Client) GenerateStructured(ctx context.Context, prompt string) ([]byte, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	body, err := json.Marshal(request{
		Contents:         []content{{Parts: []part{{Text: prompt}}}},
		GenerationConfig: generationConfig{Temperature: 0},
	})
	if err != nil {
		return nil, domain.APIError("failed to marshal request", err)
	}

	url := fmt.Sprintf("%s/%s:generateContent", c.endpoint, c.model)

	resp, err := c.retryWithBackoff(ctx, func() (*http.Response, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
		if err != nil {
			return nil, err
		}
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("x-goog-api-key", c.apiKey)
		return c.httpClient.Do(req)
	})
	if err != nil {
		return nil, domain.APIError("failed to send request", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		bodyBytes, _ := io.ReadAll(resp.Body)
		return nil, domain.APIError(fmt.Sprintf("API returned status %d: %s", resp.StatusCode, string(bodyBytes)), nil)
	}

	var parsed response
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return nil, domain.ParseError("failed to decode response envelope", err)
	}

	text := candidateText(parsed)
	if text == "" {
		return nil, domain.ParseError("response contained no candidate text", nil)
	}

	return ExtractJSONObject(text)
}

// candidateText joins the parts of the first candidate.
func candidateText(r response) string {
	if len(r.Candidates) == 0 {
		return ""
	}
	var buf bytes.Buffer
	for _, p := range r.Candidates[0].Content.Parts {
		buf.WriteString(p.Text)
	}
	return buf.String()
}
