package main

import (
	"fmt"

	"github.com/fwojciec/spider"
	"github.com/fwojciec/spider/sqlite"
)

// Run executes the pages command.
func (c *PagesCmd) Run(deps *Dependencies) error {
	run, err := deps.Crawls.FindCrawlByID(deps.Ctx, c.CrawlID)
	if err != nil {
		return errorf(deps, err)
	}

	if c.Frontier {
		return c.printFrontier(deps)
	}

	pages, err := deps.Pages.FindPages(deps.Ctx, sqlite.PageFilter{CrawlID: run.ID, Limit: c.Limit})
	if err != nil {
		return errorf(deps, err)
	}

	if len(pages) == 0 {
		fmt.Fprintf(deps.Stdout, "No pages recorded for crawl %s.\n", run.ID)
		return nil
	}

	for _, p := range pages {
		fmt.Fprintf(deps.Stdout, "%d  %s  %s  %d links\n", p.Position, p.URL, p.Title, len(p.Links))
		if c.Full {
			fmt.Fprintf(deps.Stdout, "\n%s\n\n", p.Text)
		}
	}
	return nil
}

func (c *PagesCmd) printFrontier(deps *Dependencies) error {
	entries, err := deps.Pages.FindFrontier(deps.Ctx, c.CrawlID)
	if err != nil {
		return errorf(deps, err)
	}
	for _, e := range entries {
		line := fmt.Sprintf("%-11s %d  %s", e.State.Kind, e.State.Attempts, e.URL)
		if e.State.Kind == spider.Failed && e.State.Reason != nil {
			line += "  (" + reason(e.State.Reason) + ")"
		}
		fmt.Fprintln(deps.Stdout, line)
	}
	return nil
}
