package main_test

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"testing"

	main "github.com/fwojciec/spider/cmd/spider"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// newSite serves a three-page site: / links to /a and /b, /a links back to /.
func newSite(t *testing.T) *httptest.Server {
	t.Helper()

	pages := map[string]string{
		"/":  `<html><head><title>Home</title></head><body><p>Welcome</p><a href="/a">A</a><a href="/b">B</a></body></html>`,
		"/a": `<html><head><title>Page A</title></head><body><p>Alpha</p><a href="/">home</a></body></html>`,
		"/b": `<html><head><title>Page B</title></head><body><p>Beta</p></body></html>`,
	}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, ok := pages[r.URL.Path]
		if !ok {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		fmt.Fprint(w, body)
	}))
	t.Cleanup(srv.Close)
	return srv
}

func newMain(t *testing.T) *main.Main {
	t.Helper()

	m := main.NewMain()
	m.DBPath = filepath.Join(t.TempDir(), "spider.db")
	m.ConfigPath = ""
	return m
}

// fastCrawl are crawl flags that keep tests quick.
var fastCrawl = []string{"--rate", "1000", "--rate-window", "1s", "--retries", "0", "--timeout", "5s"}

func crawlArgs(args ...string) []string {
	return append(append([]string{"crawl"}, args...), fastCrawl...)
}

var crawlIDPattern = regexp.MustCompile(`Crawl ID: (\S+)`)

func TestMain_Run(t *testing.T) {
	t.Parallel()

	t.Run("shows help with all commands", func(t *testing.T) {
		t.Parallel()

		stdout := &bytes.Buffer{}
		stderr := &bytes.Buffer{}

		err := newMain(t).Run(context.Background(), []string{"--help"}, stdout, stderr)

		require.NoError(t, err)
		for _, cmd := range []string{"crawl", "crawls", "pages"} {
			assert.Contains(t, stdout.String(), cmd, "Help should mention %s command", cmd)
		}
	})

	t.Run("returns error when no command is given", func(t *testing.T) {
		t.Parallel()

		stdout := &bytes.Buffer{}
		stderr := &bytes.Buffer{}

		err := newMain(t).Run(context.Background(), []string{}, stdout, stderr)

		require.Error(t, err)
		assert.Contains(t, err.Error(), "no command specified")
	})

	t.Run("crawls a site and lists the recorded pages", func(t *testing.T) {
		t.Parallel()

		srv := newSite(t)
		m := newMain(t)
		stdout := &bytes.Buffer{}
		stderr := &bytes.Buffer{}

		err := m.Run(context.Background(), crawlArgs(srv.URL+"/"), stdout, stderr)
		require.NoError(t, err, stderr.String())

		out := stdout.String()
		assert.Contains(t, out, "Visited 3 pages")
		assert.Contains(t, out, "Page A")
		assert.Contains(t, out, "Page B")

		match := crawlIDPattern.FindStringSubmatch(out)
		require.Len(t, match, 2, out)

		stdout.Reset()
		err = newMainAt(m.DBPath).Run(context.Background(), []string{"pages", match[1]}, stdout, stderr)
		require.NoError(t, err, stderr.String())

		lines := strings.Split(strings.TrimSpace(stdout.String()), "\n")
		require.Len(t, lines, 3)
		assert.Contains(t, lines[0], "Home")
	})

	t.Run("lists recorded crawls", func(t *testing.T) {
		t.Parallel()

		srv := newSite(t)
		m := newMain(t)
		stdout := &bytes.Buffer{}
		stderr := &bytes.Buffer{}

		require.NoError(t, m.Run(context.Background(), crawlArgs(srv.URL+"/", "-n", "1"), stdout, stderr))

		stdout.Reset()
		err := newMainAt(m.DBPath).Run(context.Background(), []string{"crawls"}, stdout, stderr)
		require.NoError(t, err)

		assert.Contains(t, stdout.String(), "completed")
		assert.Contains(t, stdout.String(), "1 visited")
		assert.Contains(t, stdout.String(), srv.URL+"/")
	})

	t.Run("lists the final frontier of a crawl", func(t *testing.T) {
		t.Parallel()

		srv := newSite(t)
		m := newMain(t)
		stdout := &bytes.Buffer{}
		stderr := &bytes.Buffer{}

		require.NoError(t, m.Run(context.Background(), crawlArgs(srv.URL+"/", "-n", "1"), stdout, stderr))
		match := crawlIDPattern.FindStringSubmatch(stdout.String())
		require.Len(t, match, 2)

		stdout.Reset()
		err := newMainAt(m.DBPath).Run(context.Background(), []string{"pages", "--frontier", match[1]}, stdout, stderr)
		require.NoError(t, err)

		out := stdout.String()
		assert.Contains(t, out, "visited     1  "+srv.URL+"/\n")
		assert.Contains(t, out, "not_visited 0  "+srv.URL+"/a\n")
		assert.Contains(t, out, "not_visited 0  "+srv.URL+"/b\n")
	})

	t.Run("reports an unknown crawl ID", func(t *testing.T) {
		t.Parallel()

		stdout := &bytes.Buffer{}
		stderr := &bytes.Buffer{}

		err := newMain(t).Run(context.Background(), []string{"pages", "missing"}, stdout, stderr)

		require.Error(t, err)
		assert.Contains(t, stderr.String(), "error:")
	})

	t.Run("reads flag defaults from a config file", func(t *testing.T) {
		t.Parallel()

		srv := newSite(t)
		config := filepath.Join(t.TempDir(), "spider.yaml")
		require.NoError(t, os.WriteFile(config, []byte("max_pages: 1\nsame-host: true\n"), 0o644))

		stdout := &bytes.Buffer{}
		stderr := &bytes.Buffer{}

		args := append([]string{"--config", config}, crawlArgs(srv.URL+"/")...)
		err := newMain(t).Run(context.Background(), args, stdout, stderr)

		require.NoError(t, err, stderr.String())
		assert.Contains(t, stdout.String(), "Visited 1 pages")
	})

	t.Run("resolves the seed from a bootstrap endpoint", func(t *testing.T) {
		t.Parallel()

		site := newSite(t)
		bootstrap := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			fmt.Fprintf(w, `{"address": %q}`, site.URL+"/b")
		}))
		t.Cleanup(bootstrap.Close)

		stdout := &bytes.Buffer{}
		stderr := &bytes.Buffer{}

		err := newMain(t).Run(context.Background(), crawlArgs("--bootstrap", bootstrap.URL, "--no-store"), stdout, stderr)

		require.NoError(t, err, stderr.String())
		assert.Contains(t, stdout.String(), "Crawling "+site.URL+"/b")
		assert.Contains(t, stdout.String(), "Visited 1 pages")
		assert.NotContains(t, stdout.String(), "Crawl ID")
	})

	t.Run("writes pages to an output directory", func(t *testing.T) {
		t.Parallel()

		srv := newSite(t)
		out := filepath.Join(t.TempDir(), "pages")
		stdout := &bytes.Buffer{}
		stderr := &bytes.Buffer{}

		err := newMain(t).Run(context.Background(), crawlArgs(srv.URL+"/", "--out", out, "--no-store"), stdout, stderr)
		require.NoError(t, err, stderr.String())

		u, err := url.Parse(srv.URL)
		require.NoError(t, err)
		host := strings.ReplaceAll(u.Host, ":", "_")

		content, err := os.ReadFile(filepath.Join(out, host, "a.txt"))
		require.NoError(t, err)
		assert.Contains(t, string(content), "title: Page A")
		assert.Contains(t, string(content), "Alpha")
		assert.NoDirExists(t, out+".tmp")
	})
}

func newMainAt(dbPath string) *main.Main {
	m := main.NewMain()
	m.DBPath = dbPath
	m.ConfigPath = ""
	return m
}
