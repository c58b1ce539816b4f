// Package cache memoizes expensive provider calls for the lifetime of the
// process. Historical bars for a fixed (symbol, period) key do not change, so
// entries are never evicted; only "today" goes stale, which is an accepted
// tradeoff inherited from the dashboard's design.
package cache

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/singleflight"

	"MarketLens/internal/model"
)

type entry[T any] struct {
	value     T
	fetchedAt time.Time
}

// Cache is a process-lifetime memoization layer keyed by strings built with
// Key. Concurrent callers for the same key share a single in-flight fetch;
// distinct keys never block each other. Failed fetches are not cached, so the
// next caller retries.
type Cache[T any] struct {
	mu           sync.RWMutex
	entries      map[string]entry[T]
	group        singleflight.Group
	fetchTimeout time.Duration
	log          zerolog.Logger
}

// New creates a cache whose fetches run under the given timeout.
func New[T any](fetchTimeout time.Duration, log zerolog.Logger) *Cache[T] {
	return &Cache[T]{
		entries:      make(map[string]entry[T]),
		fetchTimeout: fetchTimeout,
		log:          log.With().Str("component", "cache").Logger(),
	}
}

// Key builds the cache key for a symbol (or pair) and period.
func Key(symbol string, period model.Period) string {
	return symbol + "|" + string(period)
}

// GetOrFetch returns the cached value for key, fetching it at most once per
// process lifetime. The fetch runs on a context detached from the caller so
// that an abandoned request still populates the cache for future reuse; the
// caller's context only decides whether the result is delivered.
func (c *Cache[T]) GetOrFetch(ctx context.Context, key string, fetch func(ctx context.Context) (T, error)) (T, error) {
	c.mu.RLock()
	e, ok := c.entries[key]
	c.mu.RUnlock()
	if ok {
		return e.value, nil
	}

	v, err, shared := c.group.Do(key, func() (interface{}, error) {
		// A waiter may have populated the entry while we queued.
		c.mu.RLock()
		e, ok := c.entries[key]
		c.mu.RUnlock()
		if ok {
			return e.value, nil
		}

		fctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), c.fetchTimeout)
		defer cancel()

		val, err := fetch(fctx)
		if err != nil {
			return nil, err
		}

		c.mu.Lock()
		c.entries[key] = entry[T]{value: val, fetchedAt: time.Now()}
		c.mu.Unlock()
		return val, nil
	})
	if err != nil {
		var zero T
		return zero, err
	}
	if shared {
		c.log.Debug().Str("key", key).Msg("shared in-flight fetch")
	}
	if cerr := ctx.Err(); cerr != nil {
		// The request was superseded; the cache kept the result but the
		// caller must not receive it.
		var zero T
		return zero, cerr
	}
	return v.(T), nil
}

// Len returns the number of cached entries.
func (c *Cache[T]) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}
