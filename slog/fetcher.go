// Package slog provides log/slog decorators for spider services.
package slog

import (
	"context"
	"log/slog"
	"time"

	"github.com/fwojciec/spider"
)

// Ensure LoggingFetcher implements spider.Fetcher.
var _ spider.Fetcher = (*LoggingFetcher)(nil)

// LoggingFetcher wraps a Fetcher with logging. Successful fetches are logged
// at debug level and failures at warn level.
type LoggingFetcher struct {
	next   spider.Fetcher
	logger *slog.Logger
}

// NewLoggingFetcher creates a new LoggingFetcher.
func NewLoggingFetcher(next spider.Fetcher, logger *slog.Logger) *LoggingFetcher {
	return &LoggingFetcher{next: next, logger: logger}
}

// Fetch logs the URL being fetched and delegates to the wrapped fetcher.
func (f *LoggingFetcher) Fetch(ctx context.Context, url string) (resp *spider.Response, err error) {
	defer func(begin time.Time) {
		var status, bytes int
		if resp != nil {
			status, bytes = resp.StatusCode, len(resp.Body)
		}
		f.logger.Log(ctx, level(err), "fetch",
			"url", url,
			"status", status,
			"bytes", bytes,
			"duration", time.Since(begin),
			"err", err,
		)
	}(time.Now())
	return f.next.Fetch(ctx, url)
}

// Close delegates to the wrapped fetcher.
func (f *LoggingFetcher) Close() error {
	return f.next.Close()
}

func level(err error) slog.Level {
	if err != nil {
		return slog.LevelWarn
	}
	return slog.LevelDebug
}
