package providers

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/SscSPs/fx_rates_service/internal/apperrors"
	"github.com/SscSPs/fx_rates_service/internal/core/domain"
	"github.com/SscSPs/fx_rates_service/internal/utils/decimals"
)

// FastForex fetches USD-based rates from fastforex.io. The plan only exposes
// current rates, so historical days are reported as unavailable.
type FastForex struct {
	Info
	noRange
	client  *Client
	baseURL string
	apiKey  string
}

// NewFastForex creates the adapter; a missing key disables it.
func NewFastForex(client *Client, baseURL, apiKey string) (*FastForex, error) {
	if apiKey == "" {
		return nil, apperrors.NewDisabledProvider("fast_forex: FAST_FOREX_KEY is not set")
	}
	return &FastForex{
		Info: Info{
			ProviderKey: "fast_forex",
			ProviderID:  19,
			Base:        "USD",
			Home:        "https://www.fastforex.io",
			Desc:        "fastFOREX",
			IsActive:    true,
			Currencies: []string{
				"EUR", "GBP", "JPY", "AUD", "CAD", "CHF", "CNY", "SEK", "NZD",
				"MXN", "SGD", "HKD", "NOK", "KRW", "TRY", "INR", "BRL", "ZAR",
			},
			Limit:       1000,
			LimitPeriod: 30 * 24 * time.Hour,
			FetchDelay:  time.Second,
		},
		client:  client,
		baseURL: baseURL,
		apiKey:  apiKey,
	}, nil
}

type fastForexDocument struct {
	Results map[string]json.Number `json:"results"`
}

// RatesByDate fetches current rates; any earlier day yields ErrNoDataAvailable.
func (p *FastForex) RatesByDate(ctx context.Context, date time.Time) (domain.RatesResult, error) {
	today := domain.Day(time.Now().UTC())
	target := domain.Day(date)
	if target.Before(today) {
		return domain.RatesResult{}, apperrors.ErrNoDataAvailable
	}

	url := fmt.Sprintf("%s/fetch-all?from=%s&api_key=%s", p.baseURL, p.Base, p.apiKey)

	var doc fastForexDocument
	if err := p.client.GetJSON(ctx, url, nil, &doc); err != nil {
		return domain.RatesResult{}, err
	}

	rates := make(map[string]string, len(doc.Results))
	for code, v := range doc.Results {
		rates[code] = decimals.Normalize(v.String())
	}

	return domain.RatesResult{
		ProviderID:   p.ProviderID,
		BaseCurrency: p.Base,
		Date:         today,
		Rates:        rates,
	}, nil
}
