package http

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/fwojciec/spider"
)

var _ spider.SeedResolver = (*SeedResolver)(nil)

// SeedResolver obtains the crawl's seed URL from a bootstrap endpoint that
// responds with a JSON document of the form {"address": "<url>"}.
type SeedResolver struct {
	endpoint string
	client   *http.Client
	config   config
}

// NewSeedResolver creates a SeedResolver for the given endpoint.
func NewSeedResolver(endpoint string, opts ...Option) *SeedResolver {
	c := newConfig(opts)
	return &SeedResolver{
		endpoint: endpoint,
		client:   &http.Client{Timeout: c.timeout},
		config:   c,
	}
}

type seedResponse struct {
	Address string `json:"address"`
}

// ResolveSeed fetches the bootstrap document and returns the canonical seed URL.
// Every failure is reported as EBOOTSTRAP.
func (r *SeedResolver) ResolveSeed(ctx context.Context) (string, error) {
	resp, err := get(ctx, r.client, r.config.userAgent, r.endpoint)
	if err != nil {
		return "", spider.Errorf(spider.EBOOTSTRAP, "bootstrap request failed: %s", errorText(err))
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return "", spider.Errorf(spider.EBOOTSTRAP, "bootstrap endpoint returned HTTP %d", resp.StatusCode)
	}

	var doc seedResponse
	if err := json.NewDecoder(io.LimitReader(resp.Body, r.config.maxBodySize)).Decode(&doc); err != nil {
		return "", spider.Errorf(spider.EBOOTSTRAP, "invalid bootstrap response: %v", err)
	}
	if doc.Address == "" {
		return "", spider.Errorf(spider.EBOOTSTRAP, "bootstrap response has no address")
	}

	seed, err := spider.Canonicalize(doc.Address)
	if err != nil {
		return "", spider.Errorf(spider.EBOOTSTRAP, "invalid seed address: %s", spider.ErrorMessage(err))
	}
	return seed, nil
}

func errorText(err error) string {
	var e *spider.Error
	if errors.As(err, &e) {
		return e.Message
	}
	return err.Error()
}
