package crawl

import (
	"context"
	"fmt"

	"github.com/fwojciec/spider"
	"golang.org/x/sync/errgroup"
)

// DefaultWorkers is the number of workers used when Pool.Workers is not set.
const DefaultWorkers = 4

// Pool is a fixed set of workers that fetch and parse batches of URLs.
// Workers hold only shared handles (fetcher, parser, limiter, channels)
// and keep no state across batches.
type Pool struct {
	Fetcher spider.Fetcher
	Parser  spider.Parser
	Limiter spider.RateLimiter
	Workers int
}

// Run starts the workers and blocks until all of them have exited.
// Each worker receives batches until the batches channel is closed and
// processes the URLs of a batch one at a time, sending one outcome per URL.
// Workers stop early when ctx is canceled.
func (p *Pool) Run(ctx context.Context, batches <-chan []string, outcomes chan<- spider.FetchOutcome) error {
	workers := p.Workers
	if workers <= 0 {
		workers = DefaultWorkers
	}

	var g errgroup.Group
	for range workers {
		g.Go(func() error {
			return p.work(ctx, batches, outcomes)
		})
	}
	return g.Wait()
}

func (p *Pool) work(ctx context.Context, batches <-chan []string, outcomes chan<- spider.FetchOutcome) error {
	for {
		var batch []string
		var ok bool
		select {
		case <-ctx.Done():
			return nil
		case batch, ok = <-batches:
			if !ok {
				return nil
			}
		}

		for _, url := range batch {
			outcome := p.Process(ctx, url)
			select {
			case outcomes <- outcome:
			case <-ctx.Done():
				return nil
			}
		}
	}
}

// Process fetches and parses a single URL, throttled by the limiter.
// It never panics: a panic while handling the page becomes a ParseError.
func (p *Pool) Process(ctx context.Context, url string) (outcome spider.FetchOutcome) {
	defer func() {
		if r := recover(); r != nil {
			outcome = spider.FailedOutcome(url, spider.ParseError, fmt.Errorf("panic: %v", r))
		}
	}()

	if p.Limiter != nil {
		if err := p.Limiter.Wait(ctx); err != nil {
			return spider.FailedOutcome(url, spider.RateLimited, err)
		}
	}

	resp, err := p.Fetcher.Fetch(ctx, url)
	if err != nil {
		return spider.FailedOutcome(url, spider.NetworkError, err)
	}

	page, err := p.Parser.Parse(url, resp.Body)
	if err != nil {
		return spider.FailedOutcome(url, spider.ParseError, err)
	}
	if page == nil {
		return spider.FailedOutcome(url, spider.ParseError, spider.Errorf(spider.EPARSE, "parser returned no page"))
	}
	return spider.Success(url, page)
}
