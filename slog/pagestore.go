package slog

import (
	"context"
	"log/slog"
	"time"

	"github.com/fwojciec/spider"
)

// Ensure LoggingPageStore implements spider.PageStore.
var _ spider.PageStore = (*LoggingPageStore)(nil)

// LoggingPageStore wraps a PageStore with logging.
type LoggingPageStore struct {
	next   spider.PageStore
	logger *slog.Logger
}

// NewLoggingPageStore creates a new LoggingPageStore.
func NewLoggingPageStore(next spider.PageStore, logger *slog.Logger) *LoggingPageStore {
	return &LoggingPageStore{next: next, logger: logger}
}

// Save delegates to the wrapped store and logs the page saved.
func (s *LoggingPageStore) Save(ctx context.Context, page *spider.ParsedPage) (err error) {
	defer func(begin time.Time) {
		s.logger.Log(ctx, level(err), "save page",
			"url", page.SourceURL,
			"title", page.Title,
			"links", len(page.Links),
			"duration", time.Since(begin),
			"err", err,
		)
	}(time.Now())
	return s.next.Save(ctx, page)
}

// Commit delegates to the wrapped store.
func (s *LoggingPageStore) Commit() (err error) {
	defer func() {
		s.logger.Info("commit pages", "err", err)
	}()
	return s.next.Commit()
}

// Abort delegates to the wrapped store.
func (s *LoggingPageStore) Abort() (err error) {
	defer func() {
		s.logger.Info("abort pages", "err", err)
	}()
	return s.next.Abort()
}
