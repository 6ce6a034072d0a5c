package stats

import (
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCacheReadThrough(t *testing.T) {
	cache := NewCache(time.Minute)
	loads := 0

	load := func() (Summary, error) {
		loads++
		return Summary{TotalSessions: 7}, nil
	}

	first, err := cache.Get(1, load)
	require.NoError(t, err)
	assert.Equal(t, 7, first.TotalSessions)

	second, err := cache.Get(1, load)
	require.NoError(t, err)
	assert.Equal(t, 7, second.TotalSessions)
	assert.Equal(t, 1, loads, "second read must come from cache")
}

func TestCacheInvalidate(t *testing.T) {
	cache := NewCache(time.Minute)
	loads := 0

	load := func() (Summary, error) {
		loads++
		return Summary{TotalSessions: loads}, nil
	}

	_, err := cache.Get(1, load)
	require.NoError(t, err)

	cache.Invalidate(1)

	summary, err := cache.Get(1, load)
	require.NoError(t, err)
	assert.Equal(t, 2, loads)
	assert.Equal(t, 2, summary.TotalSessions)
}

func TestCacheExpiry(t *testing.T) {
	cache := NewCache(10 * time.Millisecond)
	loads := 0

	load := func() (Summary, error) {
		loads++
		return Summary{}, nil
	}

	_, err := cache.Get(1, load)
	require.NoError(t, err)

	time.Sleep(20 * time.Millisecond)

	_, err = cache.Get(1, load)
	require.NoError(t, err)
	assert.Equal(t, 2, loads)
}

func TestCacheKeysAreIndependent(t *testing.T) {
	cache := NewCache(time.Minute)

	_, err := cache.Get(1, func() (Summary, error) { return Summary{TotalSessions: 1}, nil })
	require.NoError(t, err)
	summary, err := cache.Get(2, func() (Summary, error) { return Summary{TotalSessions: 2}, nil })
	require.NoError(t, err)

	assert.Equal(t, 2, summary.TotalSessions)

	cache.Invalidate(2)
	summary, err = cache.Get(1, func() (Summary, error) { return Summary{TotalSessions: 99}, nil })
	require.NoError(t, err)
	assert.Equal(t, 1, summary.TotalSessions, "invalidating one user must not evict another")
}

func TestCacheSingleFlight(t *testing.T) {
	cache := NewCache(time.Minute)
	var loads int32

	load := func() (Summary, error) {
		atomic.AddInt32(&loads, 1)
		time.Sleep(20 * time.Millisecond)
		return Summary{TotalSessions: 1}, nil
	}

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			summary, err := cache.Get(1, load)
			assert.NoError(t, err)
			assert.Equal(t, 1, summary.TotalSessions)
		}()
	}
	wg.Wait()

	assert.Equal(t, int32(1), atomic.LoadInt32(&loads), "concurrent misses must collapse into one load")
}
