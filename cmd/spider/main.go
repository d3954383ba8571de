package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/adrg/xdg"
	"github.com/alecthomas/kong"
	"github.com/fwojciec/spider"
	"github.com/fwojciec/spider/goquery"
	spiderhttp "github.com/fwojciec/spider/http"
	spiderslog "github.com/fwojciec/spider/slog"
	"github.com/fwojciec/spider/sqlite"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	m := NewMain()

	if err := m.Run(ctx, os.Args[1:], os.Stdout, os.Stderr); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// Main represents the program.
type Main struct {
	// Default database path, overridden by --db or SPIDER_DB.
	DBPath string

	// Default config file, loaded before --config. Empty means none.
	ConfigPath string

	// SQLite database used by SQLite service implementations.
	DB *sqlite.DB
}

// NewMain returns a new instance of Main with defaults.
func NewMain() *Main {
	return &Main{
		DBPath:     defaultDBPath(),
		ConfigPath: defaultConfigPath(),
	}
}

// Close gracefully stops the program.
func (m *Main) Close() error {
	if m.DB != nil {
		return m.DB.Close()
	}
	return nil
}

// Run executes the CLI with the given arguments.
func (m *Main) Run(ctx context.Context, args []string, stdout, stderr io.Writer) error {
	// Initialize dependencies struct for Kong binding
	deps := &Dependencies{
		Ctx:    ctx,
		Stdout: stdout,
		Stderr: stderr,
	}

	var configPaths []string
	if m.ConfigPath != "" {
		configPaths = append(configPaths, m.ConfigPath)
	}

	cli := &CLI{}
	parser, err := kong.New(cli,
		kong.Name("spider"),
		kong.Description("Crawl websites concurrently within a request-rate budget"),
		kong.Writers(stdout, stderr),
		kong.Exit(func(int) {}), // Don't exit on help
		kong.Configuration(yamlLoader, configPaths...),
		kong.Vars{
			"db_path":    m.DBPath,
			"user_agent": spiderhttp.DefaultUserAgent,
		},
		kong.Bind(deps),
	)
	if err != nil {
		return fmt.Errorf("failed to create parser: %w", err)
	}

	// Handle help flags using Kong
	if len(args) == 0 {
		_, _ = parser.Parse([]string{"--help"})
		return fmt.Errorf("no command specified. Run 'spider --help' to see available commands")
	}

	cmd := args[0]
	if cmd == "help" || cmd == "--help" || cmd == "-h" {
		_, _ = parser.Parse([]string{"--help"})
		return nil
	}

	// Parse arguments first to know which command and its flags
	kongCtx, err := parser.Parse(args)
	if err != nil {
		return err
	}

	level := slog.LevelInfo
	if cli.Verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(stderr, &slog.HandlerOptions{Level: level}))
	deps.Logger = logger

	// Open database
	m.DB = sqlite.NewDB(cli.DB)
	if err := m.DB.Open(); err != nil {
		fmt.Fprintf(stderr, "Hint: Set SPIDER_DB to use a different database path\n")
		return fmt.Errorf("failed to open database at %q: %w", cli.DB, err)
	}
	defer m.Close()

	deps.Crawls = sqlite.NewCrawlService(m.DB)
	deps.Pages = sqlite.NewPageService(m.DB)

	// Wire command-specific dependencies based on command
	if strings.Fields(kongCtx.Command())[0] == "crawl" {
		c := cli.Crawl
		opts := []spiderhttp.Option{
			spiderhttp.WithTimeout(c.Timeout),
			spiderhttp.WithUserAgent(c.UserAgent),
		}

		fetcher := spiderslog.NewLoggingFetcher(spiderhttp.NewFetcher(opts...), logger)
		defer fetcher.Close()
		deps.Fetcher = fetcher
		deps.Parser = goquery.NewParser()

		if c.Bootstrap != "" {
			deps.Seeds = spiderslog.NewLoggingSeedResolver(spiderhttp.NewSeedResolver(c.Bootstrap, opts...), logger)
		}

		if !c.NoStore {
			db := m.DB
			deps.NewRunStore = func(seed string) RunStore {
				return sqlite.NewPageStore(db, seed)
			}
		}
	}

	return kongCtx.Run(deps)
}

func defaultDBPath() string {
	path, err := xdg.DataFile("spider/spider.db")
	if err != nil {
		return "spider.db"
	}
	return path
}

func defaultConfigPath() string {
	path, err := xdg.SearchConfigFile("spider/config.yaml")
	if err != nil {
		return ""
	}
	return path
}

// errorf prints a user-facing error message and returns err.
func errorf(deps *Dependencies, err error) error {
	fmt.Fprintf(deps.Stderr, "error: %s\n", spider.ErrorMessage(err))
	return err
}
