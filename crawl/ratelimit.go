package crawl

import (
	"context"
	"time"

	"github.com/fwojciec/spider"
	"golang.org/x/time/rate"
)

var _ spider.RateLimiter = (*Limiter)(nil)

// Limiter bounds the aggregate request rate of all workers with a single
// token bucket. Tokens refill continuously at quota/window with a burst of 1,
// so at most quota requests are granted in any window of the given length.
// Waiters are granted tokens in the order they reserved them.
type Limiter struct {
	limiter *rate.Limiter
}

// NewLimiter creates a Limiter allowing quota requests per window.
// A non-positive quota or window yields a limiter that never blocks.
func NewLimiter(quota int, window time.Duration) *Limiter {
	limit := rate.Inf
	if quota > 0 && window > 0 {
		// Round the interval up so quota intervals never fit in less than window.
		interval := (window + time.Duration(quota) - 1) / time.Duration(quota)
		limit = rate.Every(interval)
	}
	return &Limiter{
		limiter: rate.NewLimiter(limit, 1),
	}
}

// Wait blocks until a token is available and consumes it.
// Returns an error if the context is canceled, or if its deadline would
// pass before the token becomes available.
func (l *Limiter) Wait(ctx context.Context) error {
	return l.limiter.Wait(ctx)
}
