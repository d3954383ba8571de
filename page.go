package spider

import "context"

// ParsedPage holds the structured data extracted from a fetched page.
// It is never modified after the parser returns it.
type ParsedPage struct {
	SourceURL string
	Title     string

	// Text is the space-joined visible text of the page.
	Text string

	// Links is the set of canonical outbound URLs in first-seen order.
	Links []string
}

// Event returns the read-only summary reported for a processed page.
func (p *ParsedPage) Event() PageEvent {
	return PageEvent{
		URL:       p.SourceURL,
		Title:     p.Title,
		LinkCount: len(p.Links),
	}
}

// PageEvent summarizes a processed page for reporting.
type PageEvent struct {
	URL       string
	Title     string
	LinkCount int
}

// Parser turns raw HTML into a ParsedPage.
type Parser interface {
	// Parse extracts the title, text and outbound links of html.
	// The sourceURL is used to resolve relative links.
	// Malformed HTML yields a degraded page rather than an error.
	Parse(sourceURL, html string) (*ParsedPage, error)
}

// PageStore persists crawl results with atomic semantics.
// Save writes to a pending location; Commit makes changes permanent;
// Abort discards pending changes.
type PageStore interface {
	Save(ctx context.Context, page *ParsedPage) error
	Commit() error
	Abort() error
}
