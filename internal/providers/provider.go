// Package providers contains the adapters for the external exchange-rate
// sources. Each adapter lives in its own file, shares the Info metadata
// struct and the HTTP Client, and normalizes its source's wire format into
// domain.RatesResult.
package providers

import (
	"context"
	"time"

	"github.com/SscSPs/fx_rates_service/internal/apperrors"
	"github.com/SscSPs/fx_rates_service/internal/core/domain"
)

// Info carries the static metadata half of the provider interface. Adapters
// embed it and add the fetch methods.
type Info struct {
	ProviderKey string
	ProviderID  int
	Base        string
	Home        string
	Desc        string
	Lag         int
	IsActive    bool
	Currencies  []string
	Limit       int
	LimitPeriod time.Duration
	FetchDelay  time.Duration
}

func (i Info) Key() string                       { return i.ProviderKey }
func (i Info) ID() int                           { return i.ProviderID }
func (i Info) BaseCurrency() string              { return i.Base }
func (i Info) HomePage() string                  { return i.Home }
func (i Info) Description() string               { return i.Desc }
func (i Info) DaysLag() int                      { return i.Lag }
func (i Info) Active() bool                      { return i.IsActive }
func (i Info) AvailableCurrencies() []string     { return i.Currencies }
func (i Info) RequestLimit() int                 { return i.Limit }
func (i Info) RequestLimitPeriod() time.Duration { return i.LimitPeriod }
func (i Info) RequestDelay() time.Duration       { return i.FetchDelay }

// noRange is embedded by adapters whose source has no bulk historical endpoint.
type noRange struct{}

func (noRange) RatesByRange(context.Context, time.Time, time.Time) ([]domain.RatesResult, error) {
	return nil, apperrors.ErrUnsupportedOperation
}
