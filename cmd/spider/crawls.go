package main

import (
	"fmt"

	"github.com/fwojciec/spider"
	"github.com/fwojciec/spider/sqlite"
)

// Run executes the crawls command.
func (c *CrawlsCmd) Run(deps *Dependencies) error {
	filter := sqlite.CrawlFilter{Limit: c.Limit}
	if c.Seed != "" {
		seed, err := spider.Canonicalize(c.Seed)
		if err != nil {
			return errorf(deps, err)
		}
		filter.Seed = &seed
	}

	crawls, err := deps.Crawls.FindCrawls(deps.Ctx, filter)
	if err != nil {
		return errorf(deps, err)
	}

	if len(crawls) == 0 {
		fmt.Fprintln(deps.Stdout, "No crawls found. Use 'spider crawl' to start one.")
		return nil
	}

	for _, cr := range crawls {
		fmt.Fprintf(deps.Stdout, "%s  %s  %-9s  %d visited  %d failed  %s\n",
			cr.ID, cr.StartedAt.Format("2006-01-02 15:04"), cr.Status, cr.Visited, cr.Failed, cr.Seed)
	}
	return nil
}
