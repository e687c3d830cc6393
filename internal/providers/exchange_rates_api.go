package providers

import (
	"context"
	"fmt"
	"time"

	"github.com/SscSPs/fx_rates_service/internal/apperrors"
	"github.com/SscSPs/fx_rates_service/internal/core/domain"
	"github.com/SscSPs/fx_rates_service/internal/utils/decimals"
)

// ExchangeRatesAPI fetches EUR-based rates from exchangeratesapi.io.
type ExchangeRatesAPI struct {
	Info
	noRange
	client    *Client
	baseURL   string
	accessKey string
}

// NewExchangeRatesAPI creates the adapter; a missing access key disables it.
func NewExchangeRatesAPI(client *Client, baseURL, accessKey string) (*ExchangeRatesAPI, error) {
	if accessKey == "" {
		return nil, apperrors.NewDisabledProvider("exchange_rates_api: EXCHANGE_RATES_API_KEY is not set")
	}
	return &ExchangeRatesAPI{
		Info: Info{
			ProviderKey: "exchange_rates_api",
			ProviderID:  18,
			Base:        "EUR",
			Home:        "https://exchangeratesapi.io",
			Desc:        "exchangeratesapi.io",
			IsActive:    true,
			Currencies: []string{
				"USD", "GBP", "JPY", "AUD", "CAD", "CHF", "CNY", "SEK", "NZD",
				"MXN", "SGD", "HKD", "NOK", "KRW", "TRY", "INR", "BRL", "ZAR",
				"PLN", "CZK", "DKK", "HUF", "RON", "BGN",
			},
			Limit:       250,
			LimitPeriod: 30 * 24 * time.Hour,
			FetchDelay:  time.Second,
		},
		client:    client,
		baseURL:   baseURL,
		accessKey: accessKey,
	}, nil
}

// RatesByDate fetches /latest for the current day and /{date} otherwise. The
// payload shape matches the apilayer rates family.
func (p *ExchangeRatesAPI) RatesByDate(ctx context.Context, date time.Time) (domain.RatesResult, error) {
	today := domain.Day(time.Now().UTC())
	target := domain.Day(date)

	path := "/latest"
	if target.Before(today) {
		path = "/" + target.Format(domain.DateLayout)
	}
	url := fmt.Sprintf("%s%s?access_key=%s&base=%s", p.baseURL, path, p.accessKey, p.Base)

	var doc apiLayerRatesDocument
	if err := p.client.GetJSON(ctx, url, nil, &doc); err != nil {
		return domain.RatesResult{}, err
	}
	if !doc.Success {
		return domain.RatesResult{}, fmt.Errorf("exchange_rates_api: upstream error %s: %s", doc.Error.Code, doc.Error.Info)
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
