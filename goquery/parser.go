// Package goquery implements spider.Parser on top of goquery.
package goquery

import (
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/fwojciec/spider"
)

// textSelector matches the inline text-bearing elements whose content
// makes up a page's text.
const textSelector = "p, b, i, em, small, sub, sup, ins, mark"

// linkSelector matches elements whose href is an outbound link.
const linkSelector = "a[href], link[href]"

var _ spider.Parser = (*Parser)(nil)

// Parser extracts title, text and links from HTML documents.
// It holds no state and is safe for concurrent use.
type Parser struct{}

// NewParser creates a new Parser.
func NewParser() *Parser {
	return &Parser{}
}

// Parse extracts a ParsedPage from html fetched from sourceURL.
// Malformed HTML yields whatever could be recovered; the only error is an
// invalid source URL.
func (p *Parser) Parse(sourceURL, html string) (*spider.ParsedPage, error) {
	canonical, err := spider.Canonicalize(sourceURL)
	if err != nil {
		return nil, err
	}
	base, err := url.Parse(canonical)
	if err != nil {
		return nil, spider.Errorf(spider.EINVALID, "invalid source URL: %v", err)
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		// The HTML5 parser recovers from malformed markup, so this is a reader failure.
		return nil, spider.Errorf(spider.EPARSE, "failed to parse HTML: %v", err)
	}

	return &spider.ParsedPage{
		SourceURL: canonical,
		Title:     collapse(doc.Find("title").First().Text()),
		Text:      extractText(doc),
		Links:     extractLinks(doc, base),
	}, nil
}

func extractText(doc *goquery.Document) string {
	var pieces []string
	doc.Find(textSelector).Each(func(_ int, sel *goquery.Selection) {
		// Text of nested elements is already part of the outer element.
		if sel.ParentsFiltered(textSelector).Length() > 0 {
			return
		}
		if text := collapse(sel.Text()); text != "" {
			pieces = append(pieces, text)
		}
	})
	return strings.Join(pieces, " ")
}

// extractLinks returns canonical outbound links in first-seen document order.
func extractLinks(doc *goquery.Document, base *url.URL) []string {
	seen := make(map[string]bool)
	var links []string
	doc.Find(linkSelector).Each(func(_ int, sel *goquery.Selection) {
		href, _ := sel.Attr("href")
		link, ok := spider.ResolveReference(base, href)
		if !ok || seen[link] {
			return
		}
		seen[link] = true
		links = append(links, link)
	})
	return links
}

func collapse(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
