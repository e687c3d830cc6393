package ports

import (
	"context"
	"time"

	"github.com/SscSPs/fx_rates_service/internal/core/domain"
)

// Provider is one external exchange-rate source adapter. Implementations
// normalize wildly different wire formats (XML, JSON, delimited text) and
// temporal semantics into domain.RatesResult.
type Provider interface {
	// Key is the stable identifier used in task envelopes and cache keys.
	Key() string
	// ID is the numeric identifier persisted with each rate record.
	ID() int
	// BaseCurrency is the currency all of this provider's rates are quoted against.
	BaseCurrency() string
	HomePage() string
	Description() string
	// DaysLag is how many days behind "now" this provider publishes; zero for
	// same-day sources.
	DaysLag() int
	Active() bool
	AvailableCurrencies() []string
	// RequestLimit is the provider's quota per RequestLimitPeriod; zero means
	// unlimited.
	RequestLimit() int
	RequestLimitPeriod() time.Duration
	// RequestDelay is the polite pause between consecutive calls during backfill.
	RequestDelay() time.Duration

	// RatesByDate fetches rates for the given day. The returned result's Date
	// is the day the data actually applies to, which may be earlier than the
	// requested day. An empty Rates map means a non-trading day.
	RatesByDate(ctx context.Context, date time.Time) (domain.RatesResult, error)
	// RatesByRange fetches rates for a date span. Sources without a bulk
	// historical endpoint return apperrors.ErrUnsupportedOperation.
	RatesByRange(ctx context.Context, start, end time.Time) ([]domain.RatesResult, error)
}
