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

// Frankfurter fetches ECB reference rates through the frankfurter.app API.
type Frankfurter struct {
	Info
	noRange
	client  *Client
	baseURL string
}

// NewFrankfurter creates the Frankfurter adapter.
func NewFrankfurter(client *Client, baseURL string) *Frankfurter {
	return &Frankfurter{
		Info: Info{
			ProviderKey: "frankfurter",
			ProviderID:  10,
			Base:        "EUR",
			Home:        "https://www.frankfurter.app",
			Desc:        "Frankfurter open ECB rates API",
			IsActive:    true,
			Currencies: []string{
				"USD", "JPY", "BGN", "CZK", "DKK", "GBP", "HUF", "PLN", "RON",
				"SEK", "CHF", "ISK", "NOK", "TRY", "AUD", "BRL", "CAD", "CNY",
				"HKD", "IDR", "ILS", "INR", "KRW", "MXN", "MYR", "NZD", "PHP",
				"SGD", "THB", "ZAR",
			},
		},
		client:  client,
		baseURL: baseURL,
	}
}

type frankfurterDocument struct {
	Date  string                 `json:"date"`
	Rates map[string]json.Number `json:"rates"`
}

// RatesByDate fetches rates for the requested day. The API resolves
// non-trading days to the previous trading day, carried in the payload date.
func (p *Frankfurter) RatesByDate(ctx context.Context, date time.Time) (domain.RatesResult, error) {
	url := fmt.Sprintf("%s/%s?base=%s", p.baseURL, date.Format(domain.DateLayout), p.Base)

	var doc frankfurterDocument
	if err := p.client.GetJSON(ctx, url, nil, &doc); err != nil {
		return domain.RatesResult{}, err
	}

	actual, err := time.ParseInLocation(domain.DateLayout, doc.Date, time.UTC)
	if err != nil {
		return domain.RatesResult{}, apperrors.NewParseError("frankfurter: unexpected payload date", doc.Date)
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
