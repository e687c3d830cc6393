package providers

import (
	"context"
	"fmt"
	"time"

	"github.com/SscSPs/fx_rates_service/internal/apperrors"
	"github.com/SscSPs/fx_rates_service/internal/core/domain"
	"github.com/SscSPs/fx_rates_service/internal/utils/decimals"
)

// APILayerExchangeRatesData fetches EUR-based rates from the Exchange Rates
// Data product on apilayer. Same payload shape as the Fixer product.
type APILayerExchangeRatesData struct {
	Info
	noRange
	client  *Client
	baseURL string
	apiKey  string
}

// NewAPILayerExchangeRatesData creates the adapter; a missing key disables it.
func NewAPILayerExchangeRatesData(client *Client, baseURL, apiKey string) (*APILayerExchangeRatesData, error) {
	if apiKey == "" {
		return nil, apperrors.NewDisabledProvider("api_layer_exchange_rates_data: API_LAYER_EXCHANGE_RATES_KEY is not set")
	}
	return &APILayerExchangeRatesData{
		Info: Info{
			ProviderKey: "api_layer_exchange_rates_data",
			ProviderID:  17,
			Base:        "EUR",
			Home:        "https://apilayer.com/marketplace/exchangerates_data-api",
			Desc:        "apilayer Exchange Rates Data",
			IsActive:    true,
			Currencies: []string{
				"USD", "GBP", "JPY", "AUD", "CAD", "CHF", "CNY", "SEK", "NZD",
				"MXN", "SGD", "HKD", "NOK", "KRW", "TRY", "INR", "BRL", "ZAR",
				"PLN", "CZK", "DKK", "HUF",
			},
			Limit:       100,
			LimitPeriod: 30 * 24 * time.Hour,
			FetchDelay:  time.Second,
		},
		client:  client,
		baseURL: baseURL,
		apiKey:  apiKey,
	}, nil
}

// RatesByDate fetches /latest for the current day and /{date} otherwise.
func (p *APILayerExchangeRatesData) RatesByDate(ctx context.Context, date time.Time) (domain.RatesResult, error) {
	today := domain.Day(time.Now().UTC())
	target := domain.Day(date)

	path := "/exchangerates_data/latest"
	if target.Before(today) {
		path = "/exchangerates_data/" + target.Format(domain.DateLayout)
	}
	url := fmt.Sprintf("%s%s?base=%s", p.baseURL, path, p.Base)
	headers := map[string]string{"apikey": p.apiKey}

	var doc apiLayerRatesDocument
	if err := p.client.GetJSON(ctx, url, headers, &doc); err != nil {
		return domain.RatesResult{}, err
	}
	if !doc.Success {
		return domain.RatesResult{}, fmt.Errorf("api_layer_exchange_rates_data: upstream error %s: %s", doc.Error.Code, doc.Error.Info)
	}

	actual := target
	if t, err := time.ParseInLocation(domain.DateLayout, doc.Date, time.UTC); err == nil {
		actual = t
	}

	rates := make(map[string]string, len(doc.Rates))
	for code, v := range doc.Rates {
		rates[code] = decimals.Normalize(v.String())
	}

	return domain.RatesResult{
		ProviderID:   p.ProviderID,
		BaseCurrency: p.Base,
		Date:         actual,
		Rates:        rates,
	}, nil
}
