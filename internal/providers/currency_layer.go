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

// CurrencyLayer fetches USD-based rates from currencylayer.com. Quotes arrive
// as source-prefixed pair keys ("USDEUR").
type CurrencyLayer struct {
	Info
	noRange
	client    *Client
	baseURL   string
	accessKey string
}

// NewCurrencyLayer creates the adapter; a missing access key disables it.
func NewCurrencyLayer(client *Client, baseURL, accessKey string) (*CurrencyLayer, error) {
	if accessKey == "" {
		return nil, apperrors.NewDisabledProvider("currency_layer: CURRENCY_LAYER_KEY is not set")
	}
	return &CurrencyLayer{
		Info: Info{
			ProviderKey: "currency_layer",
			ProviderID:  13,
			Base:        "USD",
			Home:        "https://currencylayer.com",
			Desc:        "currencylayer",
			IsActive:    true,
			Currencies: []string{
				"EUR", "GBP", "JPY", "AUD", "CAD", "CHF", "CNY", "SEK", "NZD",
				"MXN", "SGD", "HKD", "NOK", "KRW", "TRY", "INR", "BRL", "ZAR",
				"PLN", "CZK", "DKK", "HUF", "ILS", "THB",
			},
			Limit:       100,
			LimitPeriod: 30 * 24 * time.Hour,
			FetchDelay:  time.Second,
		},
		client:    client,
		baseURL:   baseURL,
		accessKey: accessKey,
	}, nil
}

type currencyLayerDocument struct {
	Success bool `json:"success"`
	Error   struct {
		Code int    `json:"code"`
		Info string `json:"info"`
	} `json:"error"`
	Date   string                 `json:"date"`
	Quotes map[string]json.Number `json:"quotes"`
}

// RatesByDate fetches /live for the current day and /historical otherwise.
func (p *CurrencyLayer) RatesByDate(ctx context.Context, date time.Time) (domain.RatesResult, error) {
	today := domain.Day(time.Now().UTC())
	target := domain.Day(date)

	var url string
	if target.Before(today) {
		url = fmt.Sprintf("%s/historical?access_key=%s&date=%s", p.baseURL, p.accessKey, target.Format(domain.DateLayout))
	} else {
		url = fmt.Sprintf("%s/live?access_key=%s", p.baseURL, p.accessKey)
	}

	var doc currencyLayerDocument
	if err := p.client.GetJSON(ctx, url, nil, &doc); err != nil {
		return domain.RatesResult{}, err
	}
	if !doc.Success {
		return domain.RatesResult{}, fmt.Errorf("currency_layer: upstream error %d: %s", doc.Error.Code, doc.Error.Info)
	}

	actual := target
	if t, err := time.ParseInLocation(domain.DateLayout, doc.Date, time.UTC); err == nil {
		actual = t
	}

	rates := make(map[string]string, len(doc.Quotes))
	for pair, v := range doc.Quotes {
		currency := strings.TrimPrefix(pair, p.Base)
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
