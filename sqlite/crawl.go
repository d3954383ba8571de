package sqlite

import (
	"context"
	"database/sql"
	"strings"
	"time"

	"github.com/fwojciec/spider"
)

// Crawl run statuses.
const (
	StatusRunning   = "running"
	StatusCompleted = "completed"
	StatusCanceled  = "canceled"
)

// Crawl is a recorded crawl run.
type Crawl struct {
	ID         string
	Seed       string
	Status     string
	Visited    int
	Failed     int
	StartedAt  time.Time
	FinishedAt time.Time // zero while running
}

// CrawlFilter selects crawl runs.
type CrawlFilter struct {
	Seed   *string
	Limit  int
	Offset int
}

// CrawlService reads recorded crawl runs.
type CrawlService struct {
	db *DB
}

// NewCrawlService creates a new CrawlService.
func NewCrawlService(db *DB) *CrawlService {
	return &CrawlService{db: db}
}

const crawlColumns = "id, seed, status, visited, failed, started_at, finished_at"

// FindCrawlByID retrieves a crawl run by ID.
func (s *CrawlService) FindCrawlByID(ctx context.Context, id string) (*Crawl, error) {
	row := s.db.QueryRowContext(ctx, "SELECT "+crawlColumns+" FROM crawls WHERE id = ?", id)
	c, err := scanCrawl(row)
	if err == sql.ErrNoRows {
		return nil, spider.Errorf(spider.ENOTFOUND, "crawl not found")
	}
	return c, err
}

// FindCrawls retrieves crawl runs, most recent first.
func (s *CrawlService) FindCrawls(ctx context.Context, filter CrawlFilter) ([]*Crawl, error) {
	var query strings.Builder
	var args []any

	query.WriteString("SELECT " + crawlColumns + " FROM crawls WHERE 1=1")
	if filter.Seed != nil {
		query.WriteString(" AND seed = ?")
		args = append(args, *filter.Seed)
	}
	query.WriteString(" ORDER BY started_at DESC, id")
	paginate(&query, &args, filter.Limit, filter.Offset)

	rows, err := s.db.QueryContext(ctx, query.String(), args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var crawls []*Crawl
	for rows.Next() {
		c, err := scanCrawl(rows)
		if err != nil {
			return nil, err
		}
		crawls = append(crawls, c)
	}
	return crawls, rows.Err()
}

// DeleteCrawl permanently removes a crawl run with its pages and frontier.
func (s *CrawlService) DeleteCrawl(ctx context.Context, id string) error {
	result, err := s.db.ExecContext(ctx, "DELETE FROM crawls WHERE id = ?", id)
	if err != nil {
		return err
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return spider.Errorf(spider.ENOTFOUND, "crawl not found")
	}
	return nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanCrawl(row scanner) (*Crawl, error) {
	var c Crawl
	var startedAt, finishedAt string
	if err := row.Scan(&c.ID, &c.Seed, &c.Status, &c.Visited, &c.Failed, &startedAt, &finishedAt); err != nil {
		return nil, err
	}

	var err error
	if c.StartedAt, err = parseTimestamp(startedAt, "started_at"); err != nil {
		return nil, err
	}
	if c.FinishedAt, err = parseTimestamp(finishedAt, "finished_at"); err != nil {
		return nil, err
	}
	return &c, nil
}
