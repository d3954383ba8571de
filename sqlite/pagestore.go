package sqlite

import (
	"context"
	"database/sql"
	"encoding/binary"
	"encoding/hex"
	"fmt"
	"sync"
	"time"

	"github.com/cespare/xxhash/v2"
	"github.com/fwojciec/spider"
	"github.com/google/uuid"
)

// Compile-time interface verification.
var _ spider.PageStore = (*PageStore)(nil)

// PageStore records one crawl run. Pages and the frontier snapshot are
// written in a single transaction, so an aborted run leaves no trace.
type PageStore struct {
	db   *DB
	id   string
	seed string

	mu       sync.Mutex
	tx       *sql.Tx
	position int
	status   string
	visited  int
	failed   int
}

// NewPageStore creates a PageStore for a new crawl run from seed.
// The run is recorded on the first write.
func NewPageStore(db *DB, seed string) *PageStore {
	return &PageStore{
		db:     db,
		id:     uuid.New().String(),
		seed:   seed,
		status: StatusCompleted,
	}
}

// ID returns the crawl run ID.
func (s *PageStore) ID() string {
	return s.id
}

// hashContent computes xxHash of content and returns hex string.
func hashContent(content string) string {
	return hex.EncodeToString(binary.BigEndian.AppendUint64(nil, xxhash.Sum64String(content)))
}

// begin opens the run's transaction and records the crawl on first use.
// Callers must hold s.mu.
func (s *PageStore) begin(ctx context.Context) (*sql.Tx, error) {
	if s.tx != nil {
		return s.tx, nil
	}

	// The transaction must outlive a canceled crawl so partial runs can be committed.
	tx, err := s.db.BeginTx(context.WithoutCancel(ctx), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	if _, err := tx.ExecContext(ctx, `
		INSERT INTO crawls (id, seed, status, started_at)
		VALUES (?, ?, ?, ?)
	`, s.id, s.seed, StatusRunning, formatTimestamp(time.Now())); err != nil {
		_ = tx.Rollback()
		return nil, fmt.Errorf("failed to record crawl: %w", err)
	}
	s.tx = tx
	return tx, nil
}

// Save records a parsed page. Saving the same URL twice keeps the latest copy.
func (s *PageStore) Save(ctx context.Context, page *spider.ParsedPage) error {
	if page == nil || page.SourceURL == "" {
		return spider.Errorf(spider.EINVALID, "page URL required")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.begin(ctx)
	if err != nil {
		return err
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO pages (crawl_id, url, title, text, links, content_hash, position, fetched_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (crawl_id, url) DO UPDATE SET
			title = excluded.title,
			text = excluded.text,
			links = excluded.links,
			content_hash = excluded.content_hash,
			fetched_at = excluded.fetched_at
	`, s.id, page.SourceURL, page.Title, page.Text, joinLinks(page.Links), hashContent(page.Text),
		s.position, formatTimestamp(time.Now()))
	if err != nil {
		return fmt.Errorf("failed to save page: %w", err)
	}
	s.position++
	return nil
}

// SaveFrontier records the final frontier snapshot of the run and its
// visited and failed totals.
func (s *PageStore) SaveFrontier(ctx context.Context, entries []spider.FrontierEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.begin(ctx)
	if err != nil {
		return err
	}

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO frontier (crawl_id, url, state, attempts, failure_kind, reason)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT (crawl_id, url) DO UPDATE SET
			state = excluded.state,
			attempts = excluded.attempts,
			failure_kind = excluded.failure_kind,
			reason = excluded.reason
	`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	s.visited, s.failed = 0, 0
	for _, e := range entries {
		var failureKind, reason string
		if r := e.State.Reason; r != nil {
			failureKind = r.Kind.String()
			if r.Err != nil {
				reason = r.Err.Error()
			}
		}
		if _, err := stmt.ExecContext(ctx, s.id, e.URL, e.State.Kind.String(), e.State.Attempts, failureKind, reason); err != nil {
			return fmt.Errorf("failed to save frontier entry %s: %w", e.URL, err)
		}
		switch e.State.Kind {
		case spider.Visited:
			s.visited++
		case spider.Failed:
			s.failed++
		}
	}
	return nil
}

// MarkCanceled records that the run ended before the frontier was exhausted.
func (s *PageStore) MarkCanceled() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.status = StatusCanceled
}

// Commit finalizes the run and makes everything saved visible.
func (s *PageStore) Commit() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	ctx := context.Background()
	tx, err := s.begin(ctx)
	if err != nil {
		return err
	}
	s.tx = nil

	if _, err := tx.ExecContext(ctx, `
		UPDATE crawls SET status = ?, visited = ?, failed = ?, finished_at = ?
		WHERE id = ?
	`, s.status, s.visited, s.failed, formatTimestamp(time.Now()), s.id); err != nil {
		_ = tx.Rollback()
		return fmt.Errorf("failed to finish crawl: %w", err)
	}
	return tx.Commit()
}

// Abort discards everything saved for the run. It is a no-op when nothing
// was saved.
func (s *PageStore) Abort() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.tx == nil {
		return nil
	}
	tx := s.tx
	s.tx = nil
	return tx.Rollback()
}
