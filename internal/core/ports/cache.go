package ports

import (
	"context"
	"time"
)

// KVCache is the generic key-value cache collaborator. A ttl of zero means the
// entry does not expire.
type KVCache interface {
	Get(ctx context.Context, key string) (string, bool)
	Set(ctx context.Context, key, value string, ttl time.Duration)
	Delete(ctx context.Context, key string)
	Clear(ctx context.Context)
}

// RateLimitCache tracks per-provider request volume and circuit-breaker blocks.
type RateLimitCache interface {
	// Count returns the number of requests recorded in the current window.
	Count(ctx context.Context, providerKey string, limit int64, period time.Duration) (int64, error)
	// Increment records one request and returns the new window count.
	Increment(ctx context.Context, providerKey string, limit int64, period time.Duration) (int64, error)
	// Block marks the provider as throttled for the given duration.
	Block(ctx context.Context, providerKey string, d time.Duration)
	// BlockedUntil returns the block expiry, or nil when the provider is not blocked.
	BlockedUntil(ctx context.Context, providerKey string) *time.Time
}

// CorrectedDayCache records that the nearest actual data for a requested day
// lives at an earlier day (weekends, holidays). Entries are never invalidated.
type CorrectedDayCache interface {
	Get(ctx context.Context, providerKey string, date time.Time) *time.Time
	Set(ctx context.Context, providerKey string, date, correctedDate time.Time)
}
