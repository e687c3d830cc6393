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

// OpenExchangeRates fetches USD-based rates from openexchangerates.org. The
// free plan is tightly metered, so the adapter carries a request limit the
// importer enforces.
type OpenExchangeRates struct {
	Info
	noRange
	client  *Client
	baseURL string
	appID   string
}

// NewOpenExchangeRates creates the adapter; a missing app id disables it.
func NewOpenExchangeRates(client *Client, baseURL, appID string) (*OpenExchangeRates, error) {
	if appID == "" {
		return nil, apperrors.NewDisabledProvider("open_exchange_rates: OXR_APP_ID is not set")
	}
	return &OpenExchangeRates{
		Info: Info{
			ProviderKey: "open_exchange_rates",
			ProviderID:  12,
			Base:        "USD",
			Home:        "https://openexchangerates.org",
			Desc:        "Open Exchange Rates",
			IsActive:    true,
			Currencies: []string{
				"EUR", "GBP", "JPY", "AUD", "CAD", "CHF", "CNY", "SEK", "NZD",
				"MXN", "SGD", "HKD", "NOK", "KRW", "TRY", "RUB", "INR", "BRL",
				"ZAR", "PLN", "CZK", "DKK", "HUF", "ILS", "THB", "UAH",
			},
			Limit:       100,
			LimitPeriod: 24 * time.Hour,
			FetchDelay:  time.Second,
		},
		client:  client,
		baseURL: baseURL,
		appID:   appID,
	}, nil
}

type oxrDocument struct {
	Error       bool                   `json:"error"`
	Status      int                    `json:"status"`
	Description string                 `json:"description"`
	Timestamp   int64                  `json:"timestamp"`
	Rates       map[string]json.Number `json:"rates"`
}

// RatesByDate fetches latest.json for the current day and the dated archive
// document otherwise.
func (p *OpenExchangeRates) RatesByDate(ctx context.Context, date time.Time) (domain.RatesResult, error) {
	today := domain.Day(time.Now().UTC())
	target := domain.Day(date)

	var url string
	if target.Before(today) {
		url = fmt.Sprintf("%s/historical/%s.json?app_id=%s", p.baseURL, target.Format(domain.DateLayout), p.appID)
	} else {
		url = fmt.Sprintf("%s/latest.json?app_id=%s", p.baseURL, p.appID)
	}

	var doc oxrDocument
	if err := p.client.GetJSON(ctx, url, nil, &doc); err != nil {
		return domain.RatesResult{}, err
	}
	if doc.Error {
		return domain.RatesResult{}, fmt.Errorf("open_exchange_rates: upstream error %d: %s", doc.Status, doc.Description)
	}

	actual := target
	if doc.Timestamp > 0 {
		actual = domain.Day(time.Unix(doc.Timestamp, 0).UTC())
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
