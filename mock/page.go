package mock

import (
	"context"

	"github.com/fwojciec/spider"
)

// Compile-time interface verification.
var (
	_ spider.Parser    = (*Parser)(nil)
	_ spider.PageStore = (*PageStore)(nil)
)

// Parser is a mock implementation of spider.Parser.
type Parser struct {
	ParseFn func(sourceURL, html string) (*spider.ParsedPage, error)
}

func (p *Parser) Parse(sourceURL, html string) (*spider.ParsedPage, error) {
	return p.ParseFn(sourceURL, html)
}

// PageStore is a mock implementation of spider.PageStore.
type PageStore struct {
	SaveFn   func(ctx context.Context, page *spider.ParsedPage) error
	CommitFn func() error
	AbortFn  func() error
}

func (s *PageStore) Save(ctx context.Context, page *spider.ParsedPage) error {
	return s.SaveFn(ctx, page)
}

func (s *PageStore) Commit() error {
	return s.CommitFn()
}

func (s *PageStore) Abort() error {
	return s.AbortFn()
}
