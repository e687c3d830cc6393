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

// RCB fetches rates from the community JSON mirror of the Russian central
// bank's daily fixing. It duplicates cbr through a second channel, which the
// consistency monitoring compares against.
type RCB struct {
	Info
	noRange
	client  *Client
	baseURL string
	scale   int
}

// NewRCB creates the RCB adapter.
func NewRCB(client *Client, baseURL string, scale int) *RCB {
	return &RCB{
		Info: Info{
			ProviderKey: "rcb",
			ProviderID:  6,
			Base:        "RUB",
			Home:        "https://www.cbr-xml-daily.ru",
			Desc:        "Russian Central Bank daily JSON mirror",
			IsActive:    true,
			Currencies: []string{
				"AUD", "AZN", "AMD", "BYN", "BGN", "BRL", "HUF", "KRW", "HKD",
				"DKK", "USD", "EUR", "INR", "KZT", "CAD", "KGS", "CNY", "MDL",
				"NOK", "PLN", "RON", "SGD", "TJS", "TRY", "TMT", "UZS", "UAH",
				"GBP", "CZK", "SEK", "CHF", "ZAR", "JPY",
			},
		},
		client:  client,
		baseURL: baseURL,
		scale:   scale,
	}
}

type rcbDocument struct {
	Date   string `json:"Date"`
	Valute map[string]struct {
		Nominal json.Number `json:"Nominal"`
		Value   json.Number `json:"Value"`
	} `json:"Valute"`
}

func (p *RCB) documentURL(date time.Time) string {
	today := domain.Day(time.Now().UTC())
	if !domain.Day(date).Before(today) {
		return p.baseURL
	}
	// Archive layout: .../archive/2024/03/15/daily_json.js derived from the
	// base document URL.
	base := strings.TrimSuffix(p.baseURL, "/daily_json.js")
	return fmt.Sprintf("%s/archive/%s/daily_json.js", base, date.Format("2006/01/02"))
}

// RatesByDate fetches the mirrored fixing for the requested day.
func (p *RCB) RatesByDate(ctx context.Context, date time.Time) (domain.RatesResult, error) {
	var doc rcbDocument
	if err := p.client.GetJSON(ctx, p.documentURL(date), nil, &doc); err != nil {
		return domain.RatesResult{}, err
	}

	actual, err := time.Parse(time.RFC3339, doc.Date)
	if err != nil {
		return domain.RatesResult{}, apperrors.NewParseError("rcb: unexpected document date", doc.Date)
	}

	rates := make(map[string]string, len(doc.Valute))
	for code, v := range doc.Valute {
		rate, err := decimals.Div(v.Value.String(), v.Nominal.String(), p.scale)
		if err != nil {
			return domain.RatesResult{}, fmt.Errorf("rcb: bad value for %s: %w", code, err)
		}
		rates[code] = rate
	}

	return domain.RatesResult{
		ProviderID:   p.ProviderID,
		BaseCurrency: p.Base,
		Date:         domain.Day(actual),
		Rates:        rates,
	}, nil
}
