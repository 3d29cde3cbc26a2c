package domain

import "context"

// Discoverer finds candidate product URLs for an MPN.
type Discoverer interface {
	Discover(ctx context.Context, mpn, manufacturer string) (*DiscoveryResult, error)
}

// Crawler retrieves HTML for a candidate URL. It never returns an error;
// failures are reported through the CrawlResult tags.
type Crawler interface {
	Crawl(ctx context.Context, url string) CrawlResult
}

// StructuredGenerator is the single LLM abstraction shared by datasheet
// mapping and synthesis. The returned bytes are a complete JSON object.
type StructuredGenerator interface {
	GenerateStructured(ctx context.Context, prompt string) ([]byte, error)
}
