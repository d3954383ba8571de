// Package http provides net/http implementations of spider.Fetcher and
// spider.SeedResolver.
package http

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"time"

	"github.com/fwojciec/spider"
	"golang.org/x/net/html/charset"
)

const (
	// DefaultFetchTimeout is the default timeout for HTTP requests.
	DefaultFetchTimeout = 10 * time.Second

	// DefaultMaxBodySize caps how much of a response body is read.
	DefaultMaxBodySize = 5 << 20

	// DefaultUserAgent identifies the crawler to the sites it visits.
	DefaultUserAgent = "spider/1.0 (+https://github.com/fwojciec/spider)"
)

// Ensure Fetcher implements spider.Fetcher at compile time.
var _ spider.Fetcher = (*Fetcher)(nil)

// config holds settings shared by Fetcher and SeedResolver.
type config struct {
	timeout     time.Duration
	userAgent   string
	maxBodySize int64
}

func newConfig(opts []Option) config {
	c := config{
		timeout:     DefaultFetchTimeout,
		userAgent:   DefaultUserAgent,
		maxBodySize: DefaultMaxBodySize,
	}
	for _, opt := range opts {
		opt(&c)
	}
	return c
}

// Option configures a Fetcher or SeedResolver.
type Option func(*config)

// WithTimeout sets the timeout for HTTP requests.
// Defaults to DefaultFetchTimeout (10s) if not specified.
func WithTimeout(d time.Duration) Option {
	return func(c *config) {
		c.timeout = d
	}
}

// WithUserAgent sets the User-Agent header sent with every request.
func WithUserAgent(ua string) Option {
	return func(c *config) {
		c.userAgent = ua
	}
}

// WithMaxBodySize sets the largest response body accepted, in bytes.
func WithMaxBodySize(n int64) Option {
	return func(c *config) {
		c.maxBodySize = n
	}
}

// Fetcher retrieves HTML content from URLs using HTTP GET requests.
// Bodies are decoded to UTF-8 according to the declared or sniffed charset.
type Fetcher struct {
	client *http.Client
	config config
}

// NewFetcher creates a new HTTP-based Fetcher.
func NewFetcher(opts ...Option) *Fetcher {
	c := newConfig(opts)
	return &Fetcher{
		client: &http.Client{Timeout: c.timeout},
		config: c,
	}
}

// Fetch retrieves the body of the given URL.
// Transport failures and non-2xx responses return an ENETWORK error.
func (f *Fetcher) Fetch(ctx context.Context, url string) (*spider.Response, error) {
	resp, err := get(ctx, f.client, f.config.userAgent, url)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, spider.Errorf(spider.ENETWORK, "HTTP %d for %s", resp.StatusCode, url)
	}

	body, err := readBody(resp, f.config.maxBodySize)
	if err != nil {
		return nil, err
	}
	return &spider.Response{StatusCode: resp.StatusCode, Body: body}, nil
}

// Close releases idle connections.
func (f *Fetcher) Close() error {
	f.client.CloseIdleConnections()
	return nil
}

func get(ctx context.Context, client *http.Client, userAgent, url string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, spider.Errorf(spider.EINVALID, "invalid request URL %s: %v", url, err)
	}
	req.Header.Set("User-Agent", userAgent)

	resp, err := client.Do(req)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		return nil, spider.Errorf(spider.ENETWORK, "GET %s: %v", url, err)
	}
	return resp, nil
}

// readBody reads at most maxSize raw bytes and decodes them to UTF-8.
func readBody(resp *http.Response, maxSize int64) (string, error) {
	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxSize+1))
	if err != nil {
		return "", spider.Errorf(spider.ENETWORK, "read body: %v", err)
	}
	if int64(len(raw)) > maxSize {
		return "", spider.Errorf(spider.ENETWORK, "response body exceeds %d bytes", maxSize)
	}
	if len(raw) == 0 {
		return "", nil
	}

	reader, err := charset.NewReader(bytes.NewReader(raw), resp.Header.Get("Content-Type"))
	if err != nil {
		return "", spider.Errorf(spider.ENETWORK, "unsupported charset: %v", err)
	}
	body, err := io.ReadAll(reader)
	if err != nil {
		return "", spider.Errorf(spider.ENETWORK, "decode body: %v", err)
	}
	return string(body), nil
}
