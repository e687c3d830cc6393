package ports

import (
	"context"
	"time"

	"github.com/SscSPs/fx_rates_service/internal/dto"
)

// RateResponseCache caches resolved rate responses per (provider, pair, day).
// Only complete responses belong here; fallback responses are never cached so
// later lookups can pick up freshly imported data.
type RateResponseCache interface {
	Get(ctx context.Context, providerKey, currency, baseCurrency string, date time.Time) (*dto.RateResponse, bool)
	Set(ctx context.Context, providerKey, currency, baseCurrency string, date time.Time, resp dto.RateResponse)
}

// TimeseriesCache caches timeseries responses per (provider, pair, range).
type TimeseriesCache interface {
	Get(ctx context.Context, providerKey, currency, baseCurrency string, start, end time.Time) (*dto.TimeseriesResponse, bool)
	Set(ctx context.Context, providerKey, currency, baseCurrency string, start, end time.Time, resp dto.TimeseriesResponse)
}

// ProviderListCache caches the assembled provider metadata listing.
type ProviderListCache interface {
	Get(ctx context.Context) ([]dto.ProviderInfo, bool)
	Set(ctx context.Context, infos []dto.ProviderInfo)
	Delete(ctx context.Context)
}
