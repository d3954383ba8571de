package sqlite

import (
	"context"
	"strings"
	"time"

	"github.com/fwojciec/spider"
)

// Page is a page recorded during a crawl run.
type Page struct {
	CrawlID     string
	URL         string
	Title       string
	Text        string
	Links       []string
	ContentHash string
	Position    int
	FetchedAt   time.Time
}

// PageFilter selects recorded pages. Results are in visit order.
type PageFilter struct {
	CrawlID     string
	ContentHash *string
	Limit       int
	Offset      int
}

// PageService reads recorded pages.
type PageService struct {
	db *DB
}

// NewPageService creates a new PageService.
func NewPageService(db *DB) *PageService {
	return &PageService{db: db}
}

// FindPages retrieves pages matching the filter.
func (s *PageService) FindPages(ctx context.Context, filter PageFilter) ([]*Page, error) {
	if filter.CrawlID == "" {
		return nil, spider.Errorf(spider.EINVALID, "crawl ID required")
	}

	var query strings.Builder
	args := []any{filter.CrawlID}

	query.WriteString(`SELECT crawl_id, url, title, text, links, content_hash, position, fetched_at
		FROM pages WHERE crawl_id = ?`)
	if filter.ContentHash != nil {
		query.WriteString(" AND content_hash = ?")
		args = append(args, *filter.ContentHash)
	}
	query.WriteString(" ORDER BY position ASC")
	paginate(&query, &args, filter.Limit, filter.Offset)

	rows, err := s.db.QueryContext(ctx, query.String(), args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var pages []*Page
	for rows.Next() {
		var p Page
		var links, fetchedAt string
		if err := rows.Scan(&p.CrawlID, &p.URL, &p.Title, &p.Text, &links,
			&p.ContentHash, &p.Position, &fetchedAt); err != nil {
			return nil, err
		}
		p.Links = splitLinks(links)
		if p.FetchedAt, err = parseTimestamp(fetchedAt, "fetched_at"); err != nil {
			return nil, err
		}
		pages = append(pages, &p)
	}
	return pages, rows.Err()
}

// FindFrontier retrieves the frontier snapshot of a crawl run, sorted by URL.
func (s *PageService) FindFrontier(ctx context.Context, crawlID string) ([]spider.FrontierEntry, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT url, state, attempts, failure_kind, reason
		FROM frontier
		WHERE crawl_id = ?
		ORDER BY url
	`, crawlID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var entries []spider.FrontierEntry
	for rows.Next() {
		var e spider.FrontierEntry
		var state, failureKind, reason string
		if err := rows.Scan(&e.URL, &state, &e.State.Attempts, &failureKind, &reason); err != nil {
			return nil, err
		}
		kind, err := spider.ParseStateKind(state)
		if err != nil {
			return nil, err
		}
		e.State.Kind = kind
		if failureKind != "" {
			fk, err := spider.ParseFailureKind(failureKind)
			if err != nil {
				return nil, err
			}
			e.State.Reason = &spider.Failure{URL: e.URL, Kind: fk, Err: storedError(reason)}
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// storedError is a failure reason read back from the database.
type storedError string

func (e storedError) Error() string { return string(e) }

func joinLinks(links []string) string {
	return strings.Join(links, "\n")
}

func splitLinks(s string) []string {
	if s == "" {
		return nil
	}
	return strings.Split(s, "\n")
}
