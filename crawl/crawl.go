// Package crawl provides crawl orchestration.
// It coordinates the URL frontier, a shared rate limiter and a pool of
// workers that fetch and parse pages.
package crawl

import (
	"context"
	"fmt"
	"net/url"
	"time"

	"github.com/fwojciec/spider"
)

// DefaultBatchSize is the number of URLs sent to a worker at once when
// Crawler.BatchSize is not set.
const DefaultBatchSize = 5

// Crawler drives a crawl from a seed URL to completion.
type Crawler struct {
	Fetcher     spider.Fetcher
	Parser      spider.Parser
	RateLimiter spider.RateLimiter

	// Store, if set, receives every successfully parsed page.
	Store spider.PageStore

	Workers   int
	BatchSize int

	// MaxPages stops the crawl once this many pages are visited. Zero means no limit.
	MaxPages int

	// MaxURLs caps the number of URLs the frontier tracks. Zero means no limit.
	MaxURLs int

	// Retry bounds re-dispatching of failed URLs. Nil means DefaultRetryPolicy.
	Retry *RetryPolicy

	// SameHost restricts discovered links to the seed's host.
	SameHost bool

	// Filter, if set, restricts discovered links by pattern.
	Filter *spider.URLFilter
}

// Result holds the outcome of a crawl.
type Result struct {
	Seed       string
	Visited    int
	Failed     int
	Discovered int
	Retries    int
	Bytes      int

	// Dropped approximates the distinct URLs ignored because MaxURLs was reached.
	Dropped uint

	// SaveErrors counts pages the Store failed to save.
	SaveErrors int

	// Canceled is true if the context was canceled before the crawl returned.
	Canceled bool

	// Entries is the final frontier snapshot, sorted by URL.
	Entries []spider.FrontierEntry
}

// ProgressEvent reports progress during a crawl.
type ProgressEvent struct {
	Type      ProgressType
	URL       string
	Title     string
	LinkCount int
	Attempt   int
	Visited   int
	Pending   int
	Error     error
}

// ProgressType indicates the type of progress event.
type ProgressType int

const (
	ProgressStarted ProgressType = iota
	ProgressCompleted
	ProgressRetrying
	ProgressFailed
	ProgressFinished
)

// ProgressFunc is a callback for reporting crawl progress.
// It is always called from the coordinator goroutine.
type ProgressFunc func(event ProgressEvent)

// Crawl crawls outward from seed until the page limit is reached or the
// frontier is exhausted. A canceled context ends the crawl early; the
// partial result is returned with Canceled set.
func (c *Crawler) Crawl(ctx context.Context, seed string, progress ProgressFunc) (*Result, error) {
	seedURL, err := spider.Canonicalize(seed)
	if err != nil {
		return nil, err
	}
	parsedSeed, err := url.Parse(seedURL)
	if err != nil {
		return nil, spider.Errorf(spider.EINVALID, "invalid seed URL: %v", err)
	}

	retry := DefaultRetryPolicy()
	if c.Retry != nil {
		retry = *c.Retry
	}
	batchSize := c.BatchSize
	if batchSize <= 0 {
		batchSize = DefaultBatchSize
	}

	frontier := NewFrontier(c.MaxURLs, retry)
	frontier.Add(seedURL)

	co := &coordinator{
		crawler:  c,
		frontier: frontier,
		progress: progress,
		seedHost: parsedSeed.Host,
		result:   &Result{Seed: seedURL},
	}

	batches := make(chan []string)
	outcomes := make(chan spider.FetchOutcome)

	pool := &Pool{
		Fetcher: c.Fetcher,
		Parser:  c.Parser,
		Limiter: c.RateLimiter,
		Workers: c.Workers,
	}
	poolDone := make(chan error, 1)
	go func() {
		poolDone <- pool.Run(ctx, batches, outcomes)
		close(outcomes)
	}()

	co.notify(ProgressEvent{Type: ProgressStarted, URL: seedURL})

	var next []string
coordinatorLoop:
	for {
		if next == nil {
			next = frontier.Next(co.budget(batchSize), time.Now())
		}

		// Terminate when nothing can be dispatched and nothing is in flight.
		// URLs waiting for a retry delay keep the frontier from being done.
		if next == nil && (frontier.Done() || (co.limitReached() && frontier.InFlight() == 0)) {
			break coordinatorLoop
		}

		var send chan<- []string
		if next != nil {
			send = batches
		}

		var wake <-chan time.Time
		var timer *time.Timer
		if next == nil && !co.limitReached() {
			if at, ok := frontier.NextRetry(); ok {
				timer = time.NewTimer(time.Until(at))
				wake = timer.C
			}
		}

		stop := false
		select {
		case <-ctx.Done():
			stop = true
		case send <- next:
			next = nil
		case outcome, ok := <-outcomes:
			if !ok {
				// Workers only exit early on cancellation.
				stop = true
				break
			}
			co.handle(ctx, outcome)
		case <-wake:
		}

		if timer != nil {
			timer.Stop()
		}
		if stop {
			break coordinatorLoop
		}
	}

	// A batch taken from the frontier but never sent was not attempted.
	frontier.Requeue(next)

	// Signal workers to stop, then process every outcome still in flight.
	close(batches)
	for outcome := range outcomes {
		co.handle(ctx, outcome)
	}
	if err := <-poolDone; err != nil {
		return nil, fmt.Errorf("worker pool: %w", err)
	}

	result := co.result
	result.Canceled = ctx.Err() != nil
	result.Visited = frontier.Visited()
	result.Failed = frontier.Failed()
	result.Discovered = frontier.Len()
	result.Dropped = frontier.Overflow()
	result.Entries = frontier.Entries()

	co.notify(ProgressEvent{
		Type:    ProgressFinished,
		Visited: result.Visited,
		Pending: frontier.Pending(),
	})

	return result, nil
}

// coordinator holds the state owned by the crawl loop.
type coordinator struct {
	crawler  *Crawler
	frontier *Frontier
	progress ProgressFunc
	seedHost string
	result   *Result
}

// budget returns how many URLs may be dispatched now. With a page limit,
// visited plus in-flight pages never exceed it.
func (co *coordinator) budget(batchSize int) int {
	if co.crawler.MaxPages <= 0 {
		return batchSize
	}
	remaining := co.crawler.MaxPages - co.frontier.Visited() - co.frontier.InFlight()
	return min(batchSize, remaining)
}

func (co *coordinator) limitReached() bool {
	return co.crawler.MaxPages > 0 && co.frontier.Visited() >= co.crawler.MaxPages
}

// handle merges one outcome into the frontier.
func (co *coordinator) handle(ctx context.Context, outcome spider.FetchOutcome) {
	if !outcome.OK() {
		co.handleFailure(outcome)
		return
	}
	if !co.frontier.Visit(outcome.URL) {
		return
	}

	page := outcome.Page
	for _, link := range page.Links {
		if co.inScope(link) {
			co.frontier.Add(link)
		}
	}
	co.result.Bytes += len(page.Text)

	if co.crawler.Store != nil {
		// Pages drained after cancellation are still worth keeping.
		if err := co.crawler.Store.Save(context.WithoutCancel(ctx), page); err != nil {
			co.result.SaveErrors++
			co.notify(ProgressEvent{
				Type:    ProgressFailed,
				URL:     outcome.URL,
				Visited: co.frontier.Visited(),
				Pending: co.frontier.Pending(),
				Error:   fmt.Errorf("save: %w", err),
			})
			return
		}
	}

	event := page.Event()
	co.notify(ProgressEvent{
		Type:      ProgressCompleted,
		URL:       event.URL,
		Title:     event.Title,
		LinkCount: event.LinkCount,
		Visited:   co.frontier.Visited(),
		Pending:   co.frontier.Pending(),
	})
}

func (co *coordinator) handleFailure(outcome spider.FetchOutcome) {
	failure := outcome.Failure
	if failure == nil {
		failure = &spider.Failure{
			URL:  outcome.URL,
			Kind: spider.ParseError,
			Err:  spider.Errorf(spider.EPARSE, "outcome without page"),
		}
	}
	if failure.URL != outcome.URL {
		f := *failure
		f.URL = outcome.URL
		failure = &f
	}

	retrying := co.frontier.Fail(failure, time.Now())
	st, _ := co.frontier.State(outcome.URL)

	event := ProgressEvent{
		URL:     outcome.URL,
		Attempt: st.Attempts,
		Visited: co.frontier.Visited(),
		Pending: co.frontier.Pending(),
		Error:   failure,
	}
	switch {
	case retrying:
		co.result.Retries++
		event.Type = ProgressRetrying
	case st.Kind == spider.Failed:
		event.Type = ProgressFailed
	default:
		return
	}
	co.notify(event)
}

// inScope reports whether a discovered link may enter the frontier.
func (co *coordinator) inScope(link string) bool {
	if co.crawler.SameHost {
		u, err := url.Parse(link)
		if err != nil || u.Host != co.seedHost {
			return false
		}
	}
	return co.crawler.Filter.Match(link)
}

func (co *coordinator) notify(event ProgressEvent) {
	if co.progress != nil {
		co.progress(event)
	}
}
