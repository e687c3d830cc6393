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

// AbstractAPI fetches USD-based rates from abstractapi.com. Kept inactive:
// the free quota is exhausted and the account is not being renewed.
type AbstractAPI struct {
	Info
	noRange
	client  *Client
	baseURL string
	apiKey  string
}

// NewAbstractAPI creates the adapter; a missing key disables it.
func NewAbstractAPI(client *Client, baseURL, apiKey string) (*AbstractAPI, error) {
	if apiKey == "" {
		return nil, apperrors.NewDisabledProvider("abstract_api: ABSTRACT_API_KEY is not set")
	}
	return &AbstractAPI{
		Info: Info{
			ProviderKey: "abstract_api",
			ProviderID:  23,
			Base:        "USD",
			Home:        "https://www.abstractapi.com",
			Desc:        "Abstract Exchange Rates API",
			IsActive:    false,
			Currencies: []string{
				"EUR", "GBP", "JPY", "AUD", "CAD", "CHF", "CNY", "SEK", "NZD",
				"MXN", "SGD", "HKD", "NOK", "TRY", "ZAR", "PLN", "CZK", "DKK",
			},
			Limit:       500,
			LimitPeriod: 30 * 24 * time.Hour,
			FetchDelay:  time.Second,
		},
		client:  client,
		baseURL: baseURL,
		apiKey:  apiKey,
	}, nil
}

type abstractAPIDocument struct {
	Base          string                 `json:"base"`
	ExchangeRates map[string]json.Number `json:"exchange_rates"`
}

// RatesByDate fetches /live for the current day and /historical otherwise.
func (p *AbstractAPI) RatesByDate(ctx context.Context, date time.Time) (domain.RatesResult, error) {
	today := domain.Day(time.Now().UTC())
	target := domain.Day(date)

	url := fmt.Sprintf("%s/live?api_key=%s&base=%s", p.baseURL, p.apiKey, p.Base)
	if target.Before(today) {
		url = fmt.Sprintf("%s/historical?api_key=%s&base=%s&date=%s", p.baseURL, p.apiKey, p.Base, target.Format(domain.DateLayout))
	}

	var doc abstractAPIDocument
	if err := p.client.GetJSON(ctx, url, nil, &doc); err != nil {
		return domain.RatesResult{}, err
	}

	rates := make(map[string]string, len(doc.ExchangeRates))
	for code, v := range doc.ExchangeRates {
		rates[code] = decimals.Normalize(v.String())
	}

	return domain.RatesResult{
		ProviderID:   p.ProviderID,
		BaseCurrency: p.Base,
		Date:         target,
		Rates:        rates,
	}, nil
}
