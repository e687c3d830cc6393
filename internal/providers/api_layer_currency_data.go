package providers

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/SscSPs/fx_rates_service/internal/apperrors"
	"github.com/SscSPs/fx_rates_service/internal/core/domain"
	"github.com/SscSPs/fx_rates_service/internal/utils/decimals"
)

// APILayerCurrencyData fetches USD-based rates from the Currency Data product
// on apilayer. Quotes arrive as source-prefixed pair keys ("USDEUR").
type APILayerCurrencyData struct {
	Info
	noRange
	client  *Client
	baseURL string
	apiKey  string
}

// NewAPILayerCurrencyData creates the adapter; a missing key disables it.
func NewAPILayerCurrencyData(client *Client, baseURL, apiKey string) (*APILayerCurrencyData, error) {
	if apiKey == "" {
		return nil, apperrors.NewDisabledProvider("api_layer_currency_data: API_LAYER_CURRENCY_DATA_KEY is not set")
	}
	return &APILayerCurrencyData{
		Info: Info{
			ProviderKey: "api_layer_currency_data",
			ProviderID:  16,
			Base:        "USD",
			Home:        "https://apilayer.com/marketplace/currency_data-api",
			Desc:        "apilayer Currency Data",
			IsActive:    true,
			Currencies: []string{
				"EUR", "GBP", "JPY", "AUD", "CAD", "CHF", "CNY", "SEK", "NZD",
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

type apiLayerQuotesDocument struct {
	Success bool `json:"success"`
	Error   struct {
		Code string `json:"code"`
		Info string `json:"info"`
	} `json:"error"`
	Source string                 `json:"source"`
	Date   string                 `json:"date"`
	Quotes map[string]json.Number `json:"quotes"`
}

// RatesByDate fetches /live for the current day and /historical otherwise.
func (p *APILayerCurrencyData) RatesByDate(ctx context.Context, date time.Time) (domain.RatesResult, error) {
	today := domain.Day(time.Now().UTC())
	target := domain.Day(date)

	url := fmt.Sprintf("%s/currency_data/live?source=%s", p.baseURL, p.Base)
	if target.Before(today) {
		url = fmt.Sprintf("%s/currency_data/historical?source=%s&date=%s", p.baseURL, p.Base, target.Format(domain.DateLayout))
	}
	headers := map[string]string{"apikey": p.apiKey}

	var doc apiLayerQuotesDocument
	if err := p.client.GetJSON(ctx, url, headers, &doc); err != nil {
		return domain.RatesResult{}, err
	}
	if !doc.Success {
		return domain.RatesResult{}, fmt.Errorf("api_layer_currency_data: upstream error %s: %s", doc.Error.Code, doc.Error.Info)
	}

	source := doc.Source
	if source == "" {
		source = p.Base
	}

	actual := target
	if t, err := time.ParseInLocation(domain.DateLayout, doc.Date, time.UTC); err == nil {
		actual = t
	}

	rates := make(map[string]string, len(doc.Quotes))
	for pair, v := range doc.Quotes {
		currency := strings.TrimPrefix(pair, source)
		if currency == pair || currency == "" {
			continue
		}
		rates[currency] = decimals.Normalize(v.String())
	}

	return domain.RatesResult{
		ProviderID:   p.ProviderID,
		BaseCurrency: p.Base,
		Date:         actual,
		Rates:        rates,
	}, nil
}
