package spider_test

import (
	"testing"

	"github.com/fwojciec/spider"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestURLFilter_Match(t *testing.T) {
	t.Parallel()

	t.Run("nil filter matches everything", func(t *testing.T) {
		t.Parallel()

		var f *spider.URLFilter
		assert.True(t, f.Match("https://example.com/anything"))
	})

	t.Run("include restricts and exclude removes", func(t *testing.T) {
		t.Parallel()

		f, err := spider.CompileURLFilter([]string{`/docs/`}, []string{`/docs/old/`})
		require.NoError(t, err)

		assert.True(t, f.Match("https://example.com/docs/intro"))
		assert.False(t, f.Match("https://example.com/blog/post"))
		assert.False(t, f.Match("https://example.com/docs/old/intro"))
	})

	t.Run("returns nil filter without patterns", func(t *testing.T) {
		t.Parallel()

		f, err := spider.CompileURLFilter(nil, nil)
		require.NoError(t, err)
		assert.Nil(t, f)
	})

	t.Run("rejects invalid pattern", func(t *testing.T) {
		t.Parallel()

		_, err := spider.CompileURLFilter([]string{"("}, nil)
		require.Error(t, err)
		assert.Equal(t, spider.EINVALID, spider.ErrorCode(err))
	})
}

func TestStateKind_String(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "not_visited", spider.NotVisited.String())
	assert.Equal(t, "dispatched", spider.Dispatched.String())
	assert.Equal(t, "visited", spider.Visited.String())
	assert.Equal(t, "failed", spider.Failed.String())
}

func TestParseStateKind(t *testing.T) {
	t.Parallel()

	t.Run("round-trips every state", func(t *testing.T) {
		t.Parallel()
		for _, k := range []spider.StateKind{spider.NotVisited, spider.Dispatched, spider.Visited, spider.Failed} {
			got, err := spider.ParseStateKind(k.String())
			require.NoError(t, err)
			assert.Equal(t, k, got)
		}
	})

	t.Run("rejects unknown names", func(t *testing.T) {
		t.Parallel()
		_, err := spider.ParseStateKind("unknown")
		assert.Equal(t, spider.EINVALID, spider.ErrorCode(err))
	})
}

func TestParseFailureKind(t *testing.T) {
	t.Parallel()

	for _, k := range []spider.FailureKind{spider.NetworkError, spider.ParseError, spider.RateLimited} {
		got, err := spider.ParseFailureKind(k.String())
		require.NoError(t, err)
		assert.Equal(t, k, got)
	}

	_, err := spider.ParseFailureKind("timeout")
	assert.Equal(t, spider.EINVALID, spider.ErrorCode(err))
}
