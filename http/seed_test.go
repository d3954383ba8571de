package http_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/fwojciec/spider"
	spiderhttp "github.com/fwojciec/spider/http"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func seedServer(t *testing.T, status int, body string) *httptest.Server {
	t.Helper()
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(server.Close)
	return server
}

func TestSeedResolver_ResolveSeed(t *testing.T) {
	t.Parallel()

	t.Run("returns the canonical address", func(t *testing.T) {
		t.Parallel()

		server := seedServer(t, http.StatusOK, `{"address": "HTTPS://Example.com:443"}`)

		seed, err := spiderhttp.NewSeedResolver(server.URL).ResolveSeed(context.Background())

		require.NoError(t, err)
		assert.Equal(t, "https://example.com/", seed)
	})

	t.Run("ignores unknown fields", func(t *testing.T) {
		t.Parallel()

		server := seedServer(t, http.StatusOK, `{"address": "https://example.com/start", "ttl": 60}`)

		seed, err := spiderhttp.NewSeedResolver(server.URL).ResolveSeed(context.Background())

		require.NoError(t, err)
		assert.Equal(t, "https://example.com/start", seed)
	})

	t.Run("fails on non-2xx status", func(t *testing.T) {
		t.Parallel()

		server := seedServer(t, http.StatusServiceUnavailable, `{}`)

		_, err := spiderhttp.NewSeedResolver(server.URL).ResolveSeed(context.Background())

		assert.Equal(t, spider.EBOOTSTRAP, spider.ErrorCode(err))
		assert.Contains(t, spider.ErrorMessage(err), "503")
	})

	t.Run("fails on malformed JSON", func(t *testing.T) {
		t.Parallel()

		server := seedServer(t, http.StatusOK, `{"address": `)

		_, err := spiderhttp.NewSeedResolver(server.URL).ResolveSeed(context.Background())

		assert.Equal(t, spider.EBOOTSTRAP, spider.ErrorCode(err))
	})

	t.Run("fails when address is missing", func(t *testing.T) {
		t.Parallel()

		server := seedServer(t, http.StatusOK, `{"url": "https://example.com"}`)

		_, err := spiderhttp.NewSeedResolver(server.URL).ResolveSeed(context.Background())

		assert.Equal(t, spider.EBOOTSTRAP, spider.ErrorCode(err))
	})

	t.Run("fails when address is not crawlable", func(t *testing.T) {
		t.Parallel()

		server := seedServer(t, http.StatusOK, `{"address": "mailto:someone@example.com"}`)

		_, err := spiderhttp.NewSeedResolver(server.URL).ResolveSeed(context.Background())

		assert.Equal(t, spider.EBOOTSTRAP, spider.ErrorCode(err))
	})

	t.Run("fails when the endpoint is unreachable", func(t *testing.T) {
		t.Parallel()

		_, err := spiderhttp.NewSeedResolver("http://non-existent-host.invalid/seed").ResolveSeed(context.Background())

		assert.Equal(t, spider.EBOOTSTRAP, spider.ErrorCode(err))
	})
}
