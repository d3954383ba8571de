package slog

import (
	"context"
	"log/slog"
	"time"

	"github.com/fwojciec/spider"
)

// Ensure LoggingSeedResolver implements spider.SeedResolver.
var _ spider.SeedResolver = (*LoggingSeedResolver)(nil)

// LoggingSeedResolver wraps a SeedResolver with logging.
type LoggingSeedResolver struct {
	next   spider.SeedResolver
	logger *slog.Logger
}

// NewLoggingSeedResolver creates a new LoggingSeedResolver.
func NewLoggingSeedResolver(next spider.SeedResolver, logger *slog.Logger) *LoggingSeedResolver {
	return &LoggingSeedResolver{next: next, logger: logger}
}

// ResolveSeed delegates to the wrapped resolver and logs the operation.
func (r *LoggingSeedResolver) ResolveSeed(ctx context.Context) (seed string, err error) {
	defer func(begin time.Time) {
		r.logger.Info("seed bootstrap",
			"seed", seed,
			"duration", time.Since(begin),
			"err", err,
		)
	}(time.Now())
	return r.next.ResolveSeed(ctx)
}
