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

// APILayerFixer fetches EUR-based rates from the Fixer product on apilayer.
// The key travels in the apikey header, not the query string.
type APILayerFixer struct {
	Info
	noRange
	client  *Client
	baseURL string
	apiKey  string
}

// NewAPILayerFixer creates the adapter; a missing key disables it.
func NewAPILayerFixer(client *Client, baseURL, apiKey string) (*APILayerFixer, error) {
	if apiKey == "" {
		return nil, apperrors.NewDisabledProvider("api_layer_fixer: API_LAYER_FIXER_KEY is not set")
	}
	return &APILayerFixer{
		Info: Info{
			ProviderKey: "api_layer_fixer",
			ProviderID:  15,
			Base:        "EUR",
			Home:        "https://apilayer.com/marketplace/fixer-api",
			Desc:        "apilayer Fixer",
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

type apiLayerRatesDocument struct {
	Success bool `json:"success"`
	Error   struct {
		Code string `json:"code"`
		Info string `json:"info"`
	} `json:"error"`
	Date  string                 `json:"date"`
	Rates map[string]json.Number `json:"rates"`
}

// RatesByDate fetches /latest for the current day and /{date} otherwise.
func (p *APILayerFixer) RatesByDate(ctx context.Context, date time.Time) (domain.RatesResult, error) {
	today := domain.Day(time.Now().UTC())
	target := domain.Day(date)

	path := "/fixer/latest"
	if target.Before(today) {
		path = "/fixer/" + target.Format(domain.DateLayout)
	}
	url := fmt.Sprintf("%s%s?base=%s", p.baseURL, path, p.Base)
	headers := map[string]string{"apikey": p.apiKey}

	var doc apiLayerRatesDocument
	if err := p.client.GetJSON(ctx, url, headers, &doc); err != nil {
		return domain.RatesResult{}, err
	}
	if !doc.Success {
		return domain.RatesResult{}, fmt.Errorf("api_layer_fixer: upstream error %s: %s", doc.Error.Code, doc.Error.Info)
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
