package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/SscSPs/fx_rates_service/internal/core/domain"
	"github.com/SscSPs/fx_rates_service/internal/core/ports"
	"github.com/SscSPs/fx_rates_service/internal/dto"
)

const (
	// rateTTL is slightly under a day so a stale entry cannot outlive the next
	// day's import.
	rateTTL       = 85400 * time.Second
	timeseriesTTL = 24 * time.Hour
	providersTTL  = time.Hour

	providerListKey = "providers-list"
)

// RateResponseCache is the KV-backed ports.RateResponseCache implementation.
type RateResponseCache struct {
	kv ports.KVCache
}

// NewRateResponseCache creates a rate response cache over the given KV store.
func NewRateResponseCache(kv ports.KVCache) *RateResponseCache {
	return &RateResponseCache{kv: kv}
}

func rateKey(providerKey, currency, baseCurrency string, date time.Time) string {
	return fmt.Sprintf("rate-%s-%s-%s-%s", providerKey, currency, baseCurrency, date.Format(domain.DateLayout))
}

func (c *RateResponseCache) Get(ctx context.Context, providerKey, currency, baseCurrency string, date time.Time) (*dto.RateResponse, bool) {
	raw, ok := c.kv.Get(ctx, rateKey(providerKey, currency, baseCurrency, date))
	if !ok {
		return nil, false
	}
	var resp dto.RateResponse
	if err := json.Unmarshal([]byte(raw), &resp); err != nil {
		return nil, false
	}
	return &resp, true
}

func (c *RateResponseCache) Set(ctx context.Context, providerKey, currency, baseCurrency string, date time.Time, resp dto.RateResponse) {
	raw, err := json.Marshal(resp)
	if err != nil {
		return
	}
	c.kv.Set(ctx, rateKey(providerKey, currency, baseCurrency, date), string(raw), rateTTL)
}

// TimeseriesCache is the KV-backed ports.TimeseriesCache implementation.
type TimeseriesCache struct {
	kv ports.KVCache
}

// NewTimeseriesCache creates a timeseries cache over the given KV store.
func NewTimeseriesCache(kv ports.KVCache) *TimeseriesCache {
	return &TimeseriesCache{kv: kv}
}

func timeseriesKey(providerKey, currency, baseCurrency string, start, end time.Time) string {
	return fmt.Sprintf("timeseries-%s-%s-%s-%s-%s",
		providerKey, currency, baseCurrency,
		start.Format(domain.DateLayout), end.Format(domain.DateLayout))
}

func (c *TimeseriesCache) Get(ctx context.Context, providerKey, currency, baseCurrency string, start, end time.Time) (*dto.TimeseriesResponse, bool) {
	raw, ok := c.kv.Get(ctx, timeseriesKey(providerKey, currency, baseCurrency, start, end))
	if !ok {
		return nil, false
	}
	var resp dto.TimeseriesResponse
	if err := json.Unmarshal([]byte(raw), &resp); err != nil {
		return nil, false
	}
	return &resp, true
}

func (c *TimeseriesCache) Set(ctx context.Context, providerKey, currency, baseCurrency string, start, end time.Time, resp dto.TimeseriesResponse) {
	raw, err := json.Marshal(resp)
	if err != nil {
		return
	}
	c.kv.Set(ctx, timeseriesKey(providerKey, currency, baseCurrency, start, end), string(raw), timeseriesTTL)
}

// ProviderListCache is the KV-backed ports.ProviderListCache implementation.
type ProviderListCache struct {
	kv ports.KVCache
}

// NewProviderListCache creates a provider list cache over the given KV store.
func NewProviderListCache(kv ports.KVCache) *ProviderListCache {
	return &ProviderListCache{kv: kv}
}

func (c *ProviderListCache) Get(ctx context.Context) ([]dto.ProviderInfo, bool) {
	raw, ok := c.kv.Get(ctx, providerListKey)
	if !ok {
		return nil, false
	}
	var infos []dto.ProviderInfo
	if err := json.Unmarshal([]byte(raw), &infos); err != nil {
		return nil, false
	}
	return infos, true
}

func (c *ProviderListCache) Set(ctx context.Context, infos []dto.ProviderInfo) {
	raw, err := json.Marshal(infos)
	if err != nil {
		return
	}
	c.kv.Set(ctx, providerListKey, string(raw), providersTTL)
}

func (c *ProviderListCache) Delete(ctx context.Context) {
	c.kv.Delete(ctx, providerListKey)
}
