// Package fs provides file-based storage for crawled pages.
package fs

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/cespare/xxhash/v2"
	"github.com/fwojciec/spider"
	"gopkg.in/yaml.v3"
)

// URLToPath converts a page URL to a relative file path under a directory
// named after the host.
// Example: https://example.com/docs/api/users → example.com/docs/api/users.txt
//
// URLs that differ only in their query map to distinct files.
func URLToPath(rawURL string) (string, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return "", spider.Errorf(spider.EINVALID, "invalid page URL: %v", err)
	}
	if u.Host == "" {
		return "", spider.Errorf(spider.EINVALID, "page URL %q has no host", rawURL)
	}

	// Ports are not valid in directory names on every platform.
	host := strings.ReplaceAll(u.Host, ":", "_")

	path := strings.TrimPrefix(u.Path, "/")
	if path == "" || strings.HasSuffix(path, "/") {
		path += "index"
	}
	for _, segment := range strings.Split(path, "/") {
		if segment == ".." || segment == "." {
			return "", spider.Errorf(spider.EINVALID, "page URL %q attempts path traversal", rawURL)
		}
	}

	if u.RawQuery != "" {
		path += fmt.Sprintf("__%08x", uint32(xxhash.Sum64String(u.RawQuery)))
	}

	return host + "/" + path + ".txt", nil
}

// frontmatter is the header written before a page's text.
type frontmatter struct {
	Source  string   `yaml:"source"`
	Title   string   `yaml:"title"`
	Crawled string   `yaml:"crawled"`
	Links   []string `yaml:"links,omitempty"`
}

// FormatPage formats a page with YAML frontmatter.
func FormatPage(page *spider.ParsedPage, crawled time.Time) (string, error) {
	header, err := yaml.Marshal(frontmatter{
		Source:  page.SourceURL,
		Title:   page.Title,
		Crawled: crawled.Format("2006-01-02"),
		Links:   page.Links,
	})
	if err != nil {
		return "", fmt.Errorf("marshal frontmatter: %w", err)
	}

	var b strings.Builder
	b.WriteString("---\n")
	b.Write(header)
	b.WriteString("---\n\n")
	b.WriteString(page.Text)
	return b.String(), nil
}
