package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/SscSPs/fx_rates_service/internal/core/domain"
	"github.com/SscSPs/fx_rates_service/internal/core/ports"
)

// CorrectedDayCache maps requested days to the earlier day actual data lives
// at (weekends, holidays). The mapping is many-to-one and historical facts do
// not change, so entries are stored without TTL.
type CorrectedDayCache struct {
	kv ports.KVCache
}

// NewCorrectedDayCache creates a corrected-day cache over the given KV store.
func NewCorrectedDayCache(kv ports.KVCache) *CorrectedDayCache {
	return &CorrectedDayCache{kv: kv}
}

func correctedDayKey(providerKey string, date time.Time) string {
	return fmt.Sprintf("corrected-date-%s-%s", providerKey, date.Format(domain.DateLayout))
}

// Get returns the corrected day for the requested day, or nil when none is known.
func (c *CorrectedDayCache) Get(ctx context.Context, providerKey string, date time.Time) *time.Time {
	raw, ok := c.kv.Get(ctx, correctedDayKey(providerKey, date))
	if !ok {
		return nil
	}
	t, err := time.ParseInLocation(domain.DateLayout, raw, time.UTC)
	if err != nil {
		return nil
	}
	return &t
}

// Set records that data requested for date actually lives at correctedDate.
func (c *CorrectedDayCache) Set(ctx context.Context, providerKey string, date, correctedDate time.Time) {
	c.kv.Set(ctx, correctedDayKey(providerKey, date), correctedDate.Format(domain.DateLayout), 0)
}
