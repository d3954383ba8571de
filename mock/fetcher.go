package mock

import (
	"context"

	"github.com/fwojciec/spider"
)

var _ spider.Fetcher = (*Fetcher)(nil)

// Fetcher is a mock implementation of spider.Fetcher.
type Fetcher struct {
	FetchFn func(ctx context.Context, url string) (*spider.Response, error)
	CloseFn func() error
}

func (f *Fetcher) Fetch(ctx context.Context, url string) (*spider.Response, error) {
	return f.FetchFn(ctx, url)
}

func (f *Fetcher) Close() error {
	return f.CloseFn()
}

var _ spider.RateLimiter = (*RateLimiter)(nil)

// RateLimiter is a mock implementation of spider.RateLimiter.
type RateLimiter struct {
	WaitFn func(ctx context.Context) error
}

func (l *RateLimiter) Wait(ctx context.Context) error {
	return l.WaitFn(ctx)
}

var _ spider.SeedResolver = (*SeedResolver)(nil)

// SeedResolver is a mock implementation of spider.SeedResolver.
type SeedResolver struct {
	ResolveSeedFn func(ctx context.Context) (string, error)
}

func (r *SeedResolver) ResolveSeed(ctx context.Context) (string, error) {
	return r.ResolveSeedFn(ctx)
}
