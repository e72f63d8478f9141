package storage

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"

	apperrors "github.com/offer-tracker/internal/errors"
	"github.com/offer-tracker/internal/valuation"
)

// rateTableKey is the single cache key for the bulk valuation map. The rate
// table is small and read on every offer listing, so it is cached whole.
const rateTableKey = "rates:cpp"

// RateCache caches the bulk cents-per-point lookup in Redis with a TTL.
// Administrative updates to currency valuations invalidate it.
type RateCache struct {
	redis *RedisCache
	ttl   time.Duration
}

// NewRateCache creates a new rate cache
func NewRateCache(redis *RedisCache, ttl time.Duration) *RateCache {
	return &RateCache{
		redis: redis,
		ttl:   ttl,
	}
}

// Get returns the cached rate table. The second return value is false on a
// cache miss; a miss is not an error.
func (c *RateCache) Get(ctx context.Context) (valuation.RateTable, bool, error) {
	data, err := c.redis.Get(ctx, rateTableKey)
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, false, nil
		}
		return nil, false, apperrors.NewCacheError("get rate table", err)
	}

	var rates valuation.RateTable
	if err := json.Unmarshal([]byte(data), &rates); err != nil {
		return nil, false, apperrors.NewCacheError("decode rate table", err)
	}

	return rates, true, nil
}

// Set stores the rate table with the configured TTL
func (c *RateCache) Set(ctx context.Context, rates valuation.RateTable) error {
	data, err := json.Marshal(rates)
	if err != nil {
		return apperrors.NewCacheError("encode rate table", err)
	}

	if err := c.redis.Set(ctx, rateTableKey, data, c.ttl); err != nil {
		return apperrors.NewCacheError("store rate table", err)
	}
	return nil
}

// Invalidate drops the cached rate table. Called after any currency valuation
// create or update.
func (c *RateCache) Invalidate(ctx context.Context) error {
	if err := c.redis.Del(ctx, rateTableKey); err != nil {
		return apperrors.NewCacheError("drop rate table", err)
	}
	return nil
}

// TTL returns the configured TTL for this cache
func (c *RateCache) TTL() time.Duration {
	return c.ttl
}
