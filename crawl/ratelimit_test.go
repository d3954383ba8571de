package crawl_test

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/fwojciec/spider"
	"github.com/fwojciec/spider/crawl"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLimiter(t *testing.T) {
	t.Parallel()

	t.Run("implements spider.RateLimiter interface", func(t *testing.T) {
		t.Parallel()
		var _ spider.RateLimiter = crawl.NewLimiter(1, time.Second)
	})

	t.Run("allows immediate first request", func(t *testing.T) {
		t.Parallel()

		limiter := crawl.NewLimiter(10, time.Second)

		start := time.Now()
		err := limiter.Wait(context.Background())
		elapsed := time.Since(start)

		require.NoError(t, err)
		assert.Less(t, elapsed, 50*time.Millisecond, "first request should be immediate")
	})

	t.Run("spaces requests evenly across the window", func(t *testing.T) {
		t.Parallel()

		limiter := crawl.NewLimiter(10, time.Second) // one token every 100ms

		require.NoError(t, limiter.Wait(context.Background()))

		start := time.Now()
		err := limiter.Wait(context.Background())
		elapsed := time.Since(start)

		require.NoError(t, err)
		assert.GreaterOrEqual(t, elapsed, 80*time.Millisecond, "should wait for the next token")
	})

	t.Run("never exceeds the quota under concurrent load", func(t *testing.T) {
		t.Parallel()

		const (
			quota   = 5
			window  = 250 * time.Millisecond
			workers = 8
		)
		limiter := crawl.NewLimiter(quota, window)

		// Over two windows the bucket can grant its single initial token
		// plus one token per refill interval.
		ctx, cancel := context.WithTimeout(context.Background(), 2*window)
		defer cancel()

		var wg sync.WaitGroup
		var granted atomic.Int32
		for range workers {
			wg.Add(1)
			go func() {
				defer wg.Done()
				for limiter.Wait(ctx) == nil {
					granted.Add(1)
				}
			}()
		}
		wg.Wait()

		assert.LessOrEqual(t, int(granted.Load()), 2*quota+1)
		assert.GreaterOrEqual(t, int(granted.Load()), quota, "waiters should not starve")
	})

	t.Run("every blocked waiter eventually proceeds", func(t *testing.T) {
		t.Parallel()

		limiter := crawl.NewLimiter(100, time.Second) // one token every 10ms

		var wg sync.WaitGroup
		var completed atomic.Int32
		for range 5 {
			wg.Add(1)
			go func() {
				defer wg.Done()
				if limiter.Wait(context.Background()) == nil {
					completed.Add(1)
				}
			}()
		}

		wg.Wait()
		assert.Equal(t, int32(5), completed.Load(), "all requests should complete")
	})

	t.Run("respects context cancellation", func(t *testing.T) {
		t.Parallel()

		limiter := crawl.NewLimiter(1, time.Second)

		// First request exhausts the token
		require.NoError(t, limiter.Wait(context.Background()))

		ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
		defer cancel()

		err := limiter.Wait(ctx)
		assert.Error(t, err, "should fail when context times out")
	})

	t.Run("non-positive quota never blocks", func(t *testing.T) {
		t.Parallel()

		limiter := crawl.NewLimiter(0, time.Second)

		start := time.Now()
		for range 100 {
			require.NoError(t, limiter.Wait(context.Background()))
		}
		assert.Less(t, time.Since(start), 50*time.Millisecond)
	})
}
