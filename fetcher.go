package spider

import "context"

// Response is the result of a successful HTTP fetch.
type Response struct {
	StatusCode int
	Body       string
}

// Fetcher retrieves page bodies from URLs.
type Fetcher interface {
	// Fetch performs a GET request and returns the decoded body.
	// Transport errors, timeouts and non-2xx responses are returned as errors.
	// The context controls cancellation.
	Fetch(ctx context.Context, url string) (*Response, error)

	// Close releases resources held by the fetcher.
	Close() error
}

// RateLimiter bounds the aggregate rate of outbound requests.
type RateLimiter interface {
	// Wait blocks until a request may be issued and consumes one permit.
	// Returns an error if the context is canceled first.
	Wait(ctx context.Context) error
}

// SeedResolver obtains the seed URL of a crawl from an external source.
type SeedResolver interface {
	// ResolveSeed returns the canonical seed URL.
	// Failures are reported with the EBOOTSTRAP code.
	ResolveSeed(ctx context.Context) (string, error)
}
