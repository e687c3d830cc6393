package providers

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/SscSPs/fx_rates_service/internal/core/domain"
	"github.com/SscSPs/fx_rates_service/internal/utils/decimals"
)

// NBG fetches rates from the National Bank of Georgia.
type NBG struct {
	Info
	noRange
	client  *Client
	baseURL string
	scale   int
}

// NewNBG creates the NBG adapter.
func NewNBG(client *Client, baseURL string, scale int) *NBG {
	return &NBG{
		Info: Info{
			ProviderKey: "nbg",
			ProviderID:  8,
			Base:        "GEL",
			Home:        "https://nbg.gov.ge",
			Desc:        "National Bank of Georgia",
			IsActive:    true,
			Currencies: []string{
				"AED", "AMD", "AUD", "AZN", "BGN", "BYN", "CAD", "CHF", "CNY",
				"CZK", "DKK", "EGP", "EUR", "GBP", "HKD", "HUF", "ILS", "INR",
				"JPY", "KGS", "KRW", "KZT", "MDL", "NOK", "NZD", "PLN", "QAR",
				"RON", "RSD", "RUB", "SEK", "SGD", "TJS", "TMT", "TRY", "UAH",
				"USD", "UZS",
			},
		},
		client:  client,
		baseURL: baseURL,
		scale:   scale,
	}
}

type nbgDay struct {
	Date       string `json:"date"`
	Currencies []struct {
		Code     string      `json:"code"`
		Rate     json.Number `json:"rate"`
		Quantity json.Number `json:"quantity"`
	} `json:"currencies"`
}

// RatesByDate fetches the official GEL rates for the requested day. The bank
// answers non-publishing days with the nearest earlier publication.
func (p *NBG) RatesByDate(ctx context.Context, date time.Time) (domain.RatesResult, error) {
	url := fmt.Sprintf("%s/?date=%s", p.baseURL, date.Format(domain.DateLayout))

	var days []nbgDay
	if err := p.client.GetJSON(ctx, url, nil, &days); err != nil {
		return domain.RatesResult{}, err
	}

	result := domain.RatesResult{
		ProviderID:   p.ProviderID,
		BaseCurrency: p.Base,
		Date:         domain.Day(date),
		Rates:        map[string]string{},
	}
	if len(days) == 0 {
		return result, nil
	}
	day := days[0]

	// Date arrives as an ISO timestamp; only the day part matters.
	if len(day.Date) >= len(domain.DateLayout) {
		if actual, err := time.ParseInLocation(domain.DateLayout, day.Date[:len(domain.DateLayout)], time.UTC); err == nil {
			result.Date = actual
		}
	}

	rates := make(map[string]string, len(day.Currencies))
	for _, c := range day.Currencies {
		// Rates are quoted per Quantity units.
		rate, err := decimals.Div(c.Rate.String(), c.Quantity.String(), p.scale)
		if err != nil {
			return domain.RatesResult{}, fmt.Errorf("nbg: bad value for %s: %w", c.Code, err)
		}
		rates[c.Code] = rate
	}
	result.Rates = rates
	return result, nil
}
