package main

import (
	"context"
	"io"
	"log/slog"
	"time"

	"github.com/alecthomas/kong"
	"github.com/fwojciec/spider"
	"github.com/fwojciec/spider/sqlite"
)

// Dependencies holds injected dependencies for Kong commands.
type Dependencies struct {
	Ctx    context.Context
	Stdout io.Writer
	Stderr io.Writer
	Logger *slog.Logger

	Crawls *sqlite.CrawlService
	Pages  *sqlite.PageService

	// Crawl command dependencies.
	Fetcher spider.Fetcher
	Parser  spider.Parser
	Seeds   spider.SeedResolver

	// NewRunStore opens the store recording a crawl run. Nil disables recording.
	NewRunStore func(seed string) RunStore
}

// RunStore is a PageStore that also records the run's frontier and status.
type RunStore interface {
	spider.PageStore
	ID() string
	SaveFrontier(ctx context.Context, entries []spider.FrontierEntry) error
	MarkCanceled()
}

// CLI defines the command-line interface structure for Kong.
type CLI struct {
	Config  kong.ConfigFlag `help:"Load flag defaults from a YAML file."`
	Verbose bool            `short:"v" help:"Log every fetch and save."`
	DB      string          `name:"db" env:"SPIDER_DB" default:"${db_path}" help:"SQLite database path."`

	Crawl  CrawlCmd  `cmd:"" help:"Crawl outward from a seed URL"`
	Crawls CrawlsCmd `cmd:"" help:"List recorded crawls"`
	Pages  PagesCmd  `cmd:"" help:"List pages recorded by a crawl"`
}

// CrawlCmd crawls from a seed URL.
type CrawlCmd struct {
	Seed      string `arg:"" optional:"" help:"Seed URL. Resolved from --bootstrap when omitted."`
	Bootstrap string `env:"SPIDER_BOOTSTRAP" help:"Endpoint returning the seed URL as {\"address\": ...}."`

	Workers    int           `short:"w" default:"4" help:"Number of concurrent workers."`
	Batch      int           `default:"5" help:"URLs handed to a worker at once."`
	MaxPages   int           `short:"n" default:"100" help:"Stop after visiting this many pages (0 for no limit)."`
	MaxURLs    int           `name:"max-urls" default:"100000" help:"Maximum URLs tracked by the frontier (0 for no limit)."`
	Rate       int           `default:"30" help:"Requests allowed per rate window."`
	RateWindow time.Duration `default:"1m" help:"Length of the rate window."`
	Retries    int           `default:"2" help:"Retries per failed URL."`
	Timeout    time.Duration `short:"t" default:"10s" help:"Per-request timeout."`
	UserAgent  string        `default:"${user_agent}" help:"User-Agent header sent with every request."`

	SameHost bool     `help:"Only follow links on the seed's host."`
	Include  []string `short:"i" help:"Only follow links matching these regular expressions."`
	Exclude  []string `short:"x" help:"Never follow links matching these regular expressions."`

	Out     string `short:"o" type:"path" help:"Also write pages as text files to this directory."`
	NoStore bool   `help:"Do not record the crawl in the database."`
}

// CrawlsCmd lists recorded crawls.
type CrawlsCmd struct {
	Seed  string `help:"Only list crawls of this seed URL."`
	Limit int    `short:"l" default:"20" help:"Maximum crawls to list."`
}

// PagesCmd lists the pages of a recorded crawl.
type PagesCmd struct {
	CrawlID  string `arg:"" help:"Crawl ID."`
	Full     bool   `short:"f" help:"Print the text of each page."`
	Frontier bool   `help:"List the final state of every discovered URL instead."`
	Limit    int    `short:"l" help:"Maximum pages to list (0 for all)."`
}
