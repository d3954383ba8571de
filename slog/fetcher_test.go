package slog_test

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"testing"

	"github.com/fwojciec/spider"
	"github.com/fwojciec/spider/mock"
	spiderslog "github.com/fwojciec/spider/slog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newLogger(buf *bytes.Buffer, level slog.Level) *slog.Logger {
	return slog.New(slog.NewTextHandler(buf, &slog.HandlerOptions{Level: level}))
}

func TestLoggingFetcher_Fetch(t *testing.T) {
	t.Parallel()

	t.Run("logs fetch with status, bytes and duration", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		inner := &mock.Fetcher{
			FetchFn: func(ctx context.Context, url string) (*spider.Response, error) {
				return &spider.Response{StatusCode: 200, Body: "<html>content</html>"}, nil
			},
		}

		fetcher := spiderslog.NewLoggingFetcher(inner, newLogger(&buf, slog.LevelDebug))
		resp, err := fetcher.Fetch(context.Background(), "https://example.com/docs")

		require.NoError(t, err)
		assert.Equal(t, "<html>content</html>", resp.Body)
		output := buf.String()
		assert.Contains(t, output, "level=DEBUG")
		assert.Contains(t, output, "msg=fetch")
		assert.Contains(t, output, "url=https://example.com/docs")
		assert.Contains(t, output, "status=200")
		assert.Contains(t, output, "bytes=20")
		assert.Contains(t, output, "duration=")
	})

	t.Run("omits successful fetches above debug level", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		inner := &mock.Fetcher{
			FetchFn: func(ctx context.Context, url string) (*spider.Response, error) {
				return &spider.Response{StatusCode: 200}, nil
			},
		}

		fetcher := spiderslog.NewLoggingFetcher(inner, newLogger(&buf, slog.LevelInfo))
		_, err := fetcher.Fetch(context.Background(), "https://example.com/docs")

		require.NoError(t, err)
		assert.Empty(t, buf.String())
	})

	t.Run("logs error on failure as a warning", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		inner := &mock.Fetcher{
			FetchFn: func(ctx context.Context, url string) (*spider.Response, error) {
				return nil, errors.New("network error")
			},
		}

		fetcher := spiderslog.NewLoggingFetcher(inner, newLogger(&buf, slog.LevelInfo))
		_, err := fetcher.Fetch(context.Background(), "https://example.com/docs")

		require.Error(t, err)
		output := buf.String()
		assert.Contains(t, output, "level=WARN")
		assert.Contains(t, output, "msg=fetch")
		assert.Contains(t, output, "err=\"network error\"")
	})
}

func TestLoggingFetcher_Close(t *testing.T) {
	t.Parallel()

	t.Run("delegates to inner fetcher", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		closeCalled := false
		inner := &mock.Fetcher{
			CloseFn: func() error {
				closeCalled = true
				return nil
			},
		}

		fetcher := spiderslog.NewLoggingFetcher(inner, newLogger(&buf, slog.LevelDebug))
		err := fetcher.Close()

		require.NoError(t, err)
		assert.True(t, closeCalled)
	})
}

func TestLoggingSeedResolver_ResolveSeed(t *testing.T) {
	t.Parallel()

	t.Run("logs resolved seed", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		inner := &mock.SeedResolver{
			ResolveSeedFn: func(ctx context.Context) (string, error) {
				return "https://example.com/", nil
			},
		}

		resolver := spiderslog.NewLoggingSeedResolver(inner, newLogger(&buf, slog.LevelInfo))
		seed, err := resolver.ResolveSeed(context.Background())

		require.NoError(t, err)
		assert.Equal(t, "https://example.com/", seed)
		assert.Contains(t, buf.String(), "msg=\"seed bootstrap\"")
		assert.Contains(t, buf.String(), "seed=https://example.com/")
	})

	t.Run("logs bootstrap errors", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		inner := &mock.SeedResolver{
			ResolveSeedFn: func(ctx context.Context) (string, error) {
				return "", spider.Errorf(spider.EBOOTSTRAP, "endpoint down")
			},
		}

		resolver := spiderslog.NewLoggingSeedResolver(inner, newLogger(&buf, slog.LevelInfo))
		_, err := resolver.ResolveSeed(context.Background())

		assert.Equal(t, spider.EBOOTSTRAP, spider.ErrorCode(err))
		assert.Contains(t, buf.String(), "endpoint down")
	})
}
