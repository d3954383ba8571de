package main

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"

	"github.com/fwojciec/spider"
	"github.com/fwojciec/spider/crawl"
	"github.com/fwojciec/spider/fs"
	spiderslog "github.com/fwojciec/spider/slog"
)

// Run executes the crawl command.
func (c *CrawlCmd) Run(deps *Dependencies) error {
	seed := c.Seed
	if seed == "" {
		if deps.Seeds == nil {
			return errorf(deps, spider.Errorf(spider.EINVALID, "a seed URL or --bootstrap endpoint is required"))
		}
		resolved, err := deps.Seeds.ResolveSeed(deps.Ctx)
		if err != nil {
			return errorf(deps, err)
		}
		seed = resolved
	}

	seed, err := spider.Canonicalize(seed)
	if err != nil {
		return errorf(deps, err)
	}

	filter, err := spider.CompileURLFilter(c.Include, c.Exclude)
	if err != nil {
		return errorf(deps, err)
	}

	var run RunStore
	var stores pageStores
	if deps.NewRunStore != nil {
		run = deps.NewRunStore(seed)
		stores = append(stores, run)
	}
	if c.Out != "" {
		stores = append(stores, fs.NewPageStore(filepath.Dir(c.Out), filepath.Base(c.Out)))
	}

	crawler := &crawl.Crawler{
		Fetcher:     deps.Fetcher,
		Parser:      deps.Parser,
		RateLimiter: crawl.NewLimiter(c.Rate, c.RateWindow),
		Workers:     c.Workers,
		BatchSize:   c.Batch,
		MaxPages:    c.MaxPages,
		MaxURLs:     c.MaxURLs,
		Retry:       retryPolicy(c.Retries),
		SameHost:    c.SameHost,
		Filter:      filter,
	}
	if len(stores) > 0 {
		var store spider.PageStore = stores
		if deps.Logger != nil {
			store = spiderslog.NewLoggingPageStore(store, deps.Logger)
		}
		crawler.Store = store
	}

	fmt.Fprintf(deps.Stdout, "Crawling %s\n", seed)

	result, err := crawler.Crawl(deps.Ctx, seed, progressPrinter(deps))
	if err != nil {
		if crawler.Store != nil {
			_ = crawler.Store.Abort()
		}
		return errorf(deps, err)
	}

	if run != nil {
		// The frontier is recorded even when the crawl was interrupted.
		ctx := context.WithoutCancel(deps.Ctx)
		if err := run.SaveFrontier(ctx, result.Entries); err != nil {
			_ = crawler.Store.Abort()
			return errorf(deps, err)
		}
		if result.Canceled {
			run.MarkCanceled()
		}
	}
	if crawler.Store != nil {
		if err := crawler.Store.Commit(); err != nil {
			return errorf(deps, err)
		}
	}

	fmt.Fprintln(deps.Stdout, crawl.FormatSummary(result))
	if run != nil {
		fmt.Fprintf(deps.Stdout, "Crawl ID: %s\n", run.ID())
	}
	if c.Out != "" && result.Visited > result.SaveErrors {
		fmt.Fprintf(deps.Stdout, "Pages written to %s\n", c.Out)
	}
	return nil
}

func retryPolicy(retries int) *crawl.RetryPolicy {
	policy := crawl.DefaultRetryPolicy()
	policy.MaxRetries = max(retries, 0)
	return &policy
}

func progressPrinter(deps *Dependencies) crawl.ProgressFunc {
	return func(e crawl.ProgressEvent) {
		switch e.Type {
		case crawl.ProgressCompleted:
			title := e.Title
			if title == "" {
				title = "(untitled)"
			}
			fmt.Fprintf(deps.Stdout, "  [%d] %s  %s  %d links\n", e.Visited, crawl.TruncateURL(e.URL, 70), title, e.LinkCount)
		case crawl.ProgressRetrying:
			fmt.Fprintf(deps.Stderr, "  retry %s (attempt %d): %s\n", crawl.TruncateURL(e.URL, 70), e.Attempt, reason(e.Error))
		case crawl.ProgressFailed:
			fmt.Fprintf(deps.Stderr, "  failed %s: %s\n", crawl.TruncateURL(e.URL, 70), reason(e.Error))
		}
	}
}

// reason returns the cause of a crawl failure without the URL it concerns.
func reason(err error) string {
	var f *spider.Failure
	if errors.As(err, &f) && f.Err != nil {
		err = f.Err
	}
	var e *spider.Error
	if errors.As(err, &e) {
		return e.Message
	}
	return err.Error()
}

// pageStores fans pages out to several stores.
type pageStores []spider.PageStore

func (s pageStores) Save(ctx context.Context, page *spider.ParsedPage) error {
	var errs []error
	for _, store := range s {
		if err := store.Save(ctx, page); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (s pageStores) Commit() error {
	for i, store := range s {
		if err := store.Commit(); err != nil {
			for _, rest := range s[i+1:] {
				_ = rest.Abort()
			}
			return err
		}
	}
	return nil
}

func (s pageStores) Abort() error {
	var errs []error
	for _, store := range s {
		if err := store.Abort(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
