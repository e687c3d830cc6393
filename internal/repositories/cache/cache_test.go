package cache_test

import (
	"context"
	"testing"
	"time"

	"github.com/SscSPs/fx_rates_service/internal/dto"
	"github.com/SscSPs/fx_rates_service/internal/repositories/cache"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func day(s string) time.Time {
	t, err := time.ParseInLocation("2006-01-02", s, time.UTC)
	if err != nil {
		panic(err)
	}
	return t
}

func TestMemoryCacheSetGet(t *testing.T) {
	ctx := context.Background()
	c := cache.NewMemoryCache()

	_, ok := c.Get(ctx, "missing")
	assert.False(t, ok)

	c.Set(ctx, "k", "v", 0)
	got, ok := c.Get(ctx, "k")
	require.True(t, ok)
	assert.Equal(t, "v", got)

	c.Delete(ctx, "k")
	_, ok = c.Get(ctx, "k")
	assert.False(t, ok)
}

func TestMemoryCacheTTLExpiry(t *testing.T) {
	ctx := context.Background()
	c := cache.NewMemoryCache()

	c.Set(ctx, "short", "v", 10*time.Millisecond)
	_, ok := c.Get(ctx, "short")
	assert.True(t, ok)

	time.Sleep(20 * time.Millisecond)
	_, ok = c.Get(ctx, "short")
	assert.False(t, ok)
}

func TestMemoryCacheClear(t *testing.T) {
	ctx := context.Background()
	c := cache.NewMemoryCache()
	c.Set(ctx, "a", "1", 0)
	c.Set(ctx, "b", "2", 0)

	c.Clear(ctx)

	_, ok := c.Get(ctx, "a")
	assert.False(t, ok)
	_, ok = c.Get(ctx, "b")
	assert.False(t, ok)
}

func TestRateResponseCacheRoundTrip(t *testing.T) {
	ctx := context.Background()
	c := cache.NewRateResponseCache(cache.NewMemoryCache())

	diff := "0.00100000"
	dateDiff := "2024-03-14"
	resp := dto.RateResponse{Rate: "1.23400000", Diff: &diff, Date: "2024-03-15", DateDiff: &dateDiff}

	c.Set(ctx, "cbr", "USD", "RUB", day("2024-03-15"), resp)

	got, ok := c.Get(ctx, "cbr", "USD", "RUB", day("2024-03-15"))
	require.True(t, ok)
	assert.Equal(t, resp, *got)

	// Different day misses.
	_, ok = c.Get(ctx, "cbr", "USD", "RUB", day("2024-03-16"))
	assert.False(t, ok)
}

func TestCorrectedDayCache(t *testing.T) {
	ctx := context.Background()
	c := cache.NewCorrectedDayCache(cache.NewMemoryCache())

	assert.Nil(t, c.Get(ctx, "ecb", day("2024-03-16")))

	// Saturday and Sunday both redirect to Friday.
	c.Set(ctx, "ecb", day("2024-03-16"), day("2024-03-15"))
	c.Set(ctx, "ecb", day("2024-03-17"), day("2024-03-15"))

	sat := c.Get(ctx, "ecb", day("2024-03-16"))
	require.NotNil(t, sat)
	assert.Equal(t, day("2024-03-15"), *sat)

	sun := c.Get(ctx, "ecb", day("2024-03-17"))
	require.NotNil(t, sun)
	assert.Equal(t, day("2024-03-15"), *sun)

	// Scoped per provider.
	assert.Nil(t, c.Get(ctx, "cbr", day("2024-03-16")))
}

func TestProviderLimitCacheCounting(t *testing.T) {
	ctx := context.Background()
	c := cache.NewProviderLimitCache(cache.NewMemoryCache())

	n, err := c.Count(ctx, "oxr", 100, time.Hour)
	require.NoError(t, err)
	assert.EqualValues(t, 0, n)

	n, err = c.Increment(ctx, "oxr", 100, time.Hour)
	require.NoError(t, err)
	assert.EqualValues(t, 1, n)

	n, err = c.Increment(ctx, "oxr", 100, time.Hour)
	require.NoError(t, err)
	assert.EqualValues(t, 2, n)

	// Peek does not consume quota.
	n, err = c.Count(ctx, "oxr", 100, time.Hour)
	require.NoError(t, err)
	assert.EqualValues(t, 2, n)

	// Independent per provider.
	n, err = c.Count(ctx, "fred", 120, time.Minute)
	require.NoError(t, err)
	assert.EqualValues(t, 0, n)
}

func TestProviderLimitCacheBlock(t *testing.T) {
	ctx := context.Background()
	c := cache.NewProviderLimitCache(cache.NewMemoryCache())

	assert.Nil(t, c.BlockedUntil(ctx, "oxr"))

	c.Block(ctx, "oxr", time.Hour)
	until := c.BlockedUntil(ctx, "oxr")
	require.NotNil(t, until)
	assert.WithinDuration(t, time.Now().Add(time.Hour), *until, time.Minute)

	// Expired blocks report as unblocked.
	c.Block(ctx, "cnb", time.Millisecond)
	time.Sleep(5 * time.Millisecond)
	assert.Nil(t, c.BlockedUntil(ctx, "cnb"))
}
