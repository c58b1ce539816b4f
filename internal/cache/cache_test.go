package cache

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"MarketLens/internal/model"
)

func TestKey(t *testing.T) {
	assert.Equal(t, "005930.KS|3y", Key("005930.KS", model.Period3y))
	assert.Equal(t, "KRW=X|max", Key("KRW=X", model.PeriodMax))
}

func TestGetOrFetch_FetchesOnce(t *testing.T) {
	c := New[int](time.Second, zerolog.Nop())
	var calls int32

	for i := 0; i < 3; i++ {
		v, err := c.GetOrFetch(context.Background(), "k", func(context.Context) (int, error) {
			atomic.AddInt32(&calls, 1)
			return 42, nil
		})
		require.NoError(t, err)
		assert.Equal(t, 42, v)
	}

	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))
	assert.Equal(t, 1, c.Len())
}

func TestGetOrFetch_SingleFlight(t *testing.T) {
	c := New[int](time.Second, zerolog.Nop())
	var calls int32

	fetch := func(context.Context) (int, error) {
		atomic.AddInt32(&calls, 1)
		time.Sleep(50 * time.Millisecond)
		return 7, nil
	}

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			v, err := c.GetOrFetch(context.Background(), "hot", fetch)
			assert.NoError(t, err)
			assert.Equal(t, 7, v)
		}()
	}
	wg.Wait()

	assert.Equal(t, int32(1), atomic.LoadInt32(&calls), "concurrent callers must share one fetch")
}

func TestGetOrFetch_DistinctKeys(t *testing.T) {
	c := New[string](time.Second, zerolog.Nop())

	a, err := c.GetOrFetch(context.Background(), "a", func(context.Context) (string, error) { return "A", nil })
	require.NoError(t, err)
	b, err := c.GetOrFetch(context.Background(), "b", func(context.Context) (string, error) { return "B", nil })
	require.NoError(t, err)

	assert.Equal(t, "A", a)
	assert.Equal(t, "B", b)
	assert.Equal(t, 2, c.Len())
}

func TestGetOrFetch_FailureNotCached(t *testing.T) {
	c := New[int](time.Second, zerolog.Nop())
	boom := errors.New("provider down")
	var calls int32

	_, err := c.GetOrFetch(context.Background(), "k", func(context.Context) (int, error) {
		atomic.AddInt32(&calls, 1)
		return 0, boom
	})
	require.ErrorIs(t, err, boom)
	assert.Equal(t, 0, c.Len(), "failed fetches must not populate the cache")

	// Next caller retries and can succeed.
	v, err := c.GetOrFetch(context.Background(), "k", func(context.Context) (int, error) {
		atomic.AddInt32(&calls, 1)
		return 9, nil
	})
	require.NoError(t, err)
	assert.Equal(t, 9, v)
	assert.Equal(t, int32(2), atomic.LoadInt32(&calls))
}

func TestGetOrFetch_AbandonedCallerStillPopulates(t *testing.T) {
	c := New[int](time.Second, zerolog.Nop())
	var calls int32

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	// The superseded caller gets nothing back...
	_, err := c.GetOrFetch(ctx, "k", func(context.Context) (int, error) {
		atomic.AddInt32(&calls, 1)
		return 5, nil
	})
	require.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 1, c.Len(), "fetch is detached from the caller and must still fill the cache")

	// ...but the next caller hits the entry without refetching.
	v, err := c.GetOrFetch(context.Background(), "k", func(context.Context) (int, error) {
		atomic.AddInt32(&calls, 1)
		return 0, errors.New("should not be called")
	})
	require.NoError(t, err)
	assert.Equal(t, 5, v)
	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))
}
