package storage

import (
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/offer-tracker/internal/valuation"
)

func newTestRateCache(t *testing.T, ttl time.Duration) (*RateCache, *miniredis.Miniredis) {
	t.Helper()

	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })

	return NewRateCache(NewRedisCacheFromClient(client), ttl), mr
}

func TestRateCacheMissThenHit(t *testing.T) {
	cache, _ := newTestRateCache(t, 5*time.Minute)
	ctx := testContext(t)

	rates, ok, err := cache.Get(ctx)
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Nil(t, rates)

	want := valuation.RateTable{"MR": 1.7, "UR": 1.6, "AA": 1.4}
	require.NoError(t, cache.Set(ctx, want))

	rates, ok, err = cache.Get(ctx)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, want, rates)
}

func TestRateCacheInvalidate(t *testing.T) {
	cache, _ := newTestRateCache(t, 5*time.Minute)
	ctx := testContext(t)

	require.NoError(t, cache.Set(ctx, valuation.RateTable{"UA": 1.2}))
	require.NoError(t, cache.Invalidate(ctx))

	_, ok, err := cache.Get(ctx)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestRateCacheExpiry(t *testing.T) {
	cache, mr := newTestRateCache(t, time.Minute)
	ctx := testContext(t)

	require.NoError(t, cache.Set(ctx, valuation.RateTable{"DL": 1.1}))

	mr.FastForward(2 * time.Minute)

	_, ok, err := cache.Get(ctx)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestRateCacheCorruptEntry(t *testing.T) {
	cache, mr := newTestRateCache(t, time.Minute)
	ctx := testContext(t)

	require.NoError(t, mr.Set(rateTableKey, "not json"))

	_, _, err := cache.Get(ctx)
	assert.Error(t, err)
}
