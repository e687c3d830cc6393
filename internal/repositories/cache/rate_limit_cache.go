package cache

import (
	"context"
	"sync"
	"time"

	"github.com/SscSPs/fx_rates_service/internal/core/ports"
	limiter "github.com/ulule/limiter/v3"
	"github.com/ulule/limiter/v3/drivers/store/memory"
)

const blockKeyPrefix = "rate-limit-block-"

// ProviderLimitCache tracks per-provider request volume in fixed windows and
// holds circuit-breaker blocks. Window counting is delegated to a limiter
// store; block expiries live in the KV cache so a block survives counter
// resets within the window.
type ProviderLimitCache struct {
	store limiter.Store
	kv    ports.KVCache

	mu       sync.Mutex
	limiters map[string]*limiter.Limiter
}

// NewProviderLimitCache creates a limit cache with an in-memory limiter store.
func NewProviderLimitCache(kv ports.KVCache) *ProviderLimitCache {
	return &ProviderLimitCache{
		store:    memory.NewStore(),
		kv:       kv,
		limiters: make(map[string]*limiter.Limiter),
	}
}

// A provider's limit and period are fixed, so one limiter per provider key is
// built lazily and reused.
func (c *ProviderLimitCache) limiterFor(providerKey string, limit int64, period time.Duration) *limiter.Limiter {
	c.mu.Lock()
	defer c.mu.Unlock()
	if l, ok := c.limiters[providerKey]; ok {
		return l
	}
	l := limiter.New(c.store, limiter.Rate{Period: period, Limit: limit})
	c.limiters[providerKey] = l
	return l
}

// Count returns the number of requests recorded in the current window without
// consuming quota.
func (c *ProviderLimitCache) Count(ctx context.Context, providerKey string, limit int64, period time.Duration) (int64, error) {
	lctx, err := c.limiterFor(providerKey, limit, period).Peek(ctx, providerKey)
	if err != nil {
		return 0, err
	}
	return lctx.Limit - lctx.Remaining, nil
}

// Increment records one request and returns the new window count.
func (c *ProviderLimitCache) Increment(ctx context.Context, providerKey string, limit int64, period time.Duration) (int64, error) {
	lctx, err := c.limiterFor(providerKey, limit, period).Get(ctx, providerKey)
	if err != nil {
		return 0, err
	}
	return lctx.Limit - lctx.Remaining, nil
}

// Block marks the provider as throttled for d.
func (c *ProviderLimitCache) Block(ctx context.Context, providerKey string, d time.Duration) {
	until := time.Now().Add(d)
	c.kv.Set(ctx, blockKeyPrefix+providerKey, until.Format(time.RFC3339), d)
}

// BlockedUntil returns the block expiry, or nil when the provider is not blocked.
func (c *ProviderLimitCache) BlockedUntil(ctx context.Context, providerKey string) *time.Time {
	raw, ok := c.kv.Get(ctx, blockKeyPrefix+providerKey)
	if !ok {
		return nil
	}
	until, err := time.Parse(time.RFC3339, raw)
	if err != nil || time.Now().After(until) {
		return nil
	}
	return &until
}
