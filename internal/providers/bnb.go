package providers

import (
	"context"
	"time"

	"github.com/SscSPs/fx_rates_service/internal/core/domain"
	"github.com/SscSPs/fx_rates_service/internal/utils/decimals"
)

// BNB fetches rates from the Bulgarian National Bank. Kept inactive: the feed
// only serves the current fixing and BGN is pegged to EUR, so ecb covers it.
type BNB struct {
	Info
	noRange
	client  *Client
	baseURL string
}

// NewBNB creates the BNB adapter.
func NewBNB(client *Client, baseURL string) *BNB {
	return &BNB{
		Info: Info{
			ProviderKey: "bnb",
			ProviderID:  9,
			Base:        "BGN",
			Home:        "https://www.bnb.bg",
			Desc:        "Bulgarian National Bank",
			IsActive:    false,
			Currencies: []string{
				"AUD", "BRL", "CAD", "CHF", "CNY", "CZK", "DKK", "EUR", "GBP",
				"HKD", "HUF", "IDR", "ILS", "INR", "ISK", "JPY", "KRW", "MXN",
				"MYR", "NOK", "NZD", "PHP", "PLN", "RON", "SEK", "SGD", "THB",
				"TRY", "USD", "ZAR",
			},
		},
		client:  client,
		baseURL: baseURL,
	}
}

type bnbRowSet struct {
	Rows []struct {
		Code  string `xml:"CODE"`
		Ratio string `xml:"RATIO"`
		Rate  string `xml:"RATE"`
		Title string `xml:"TITLE"`
	} `xml:"ROW"`
}

// RatesByDate fetches the current fixing. Rows without a currency code are
// header/title rows and skipped; a malformed document yields an empty result
// rather than an error because the feed intermixes presentation rows.
func (p *BNB) RatesByDate(ctx context.Context, date time.Time) (domain.RatesResult, error) {
	url := p.baseURL + "?download=xml&lang=EN"

	result := domain.RatesResult{
		ProviderID:   p.ProviderID,
		BaseCurrency: p.Base,
		Date:         domain.Day(date),
		Rates:        map[string]string{},
	}

	var doc bnbRowSet
	if err := p.client.GetXML(ctx, url, nil, &doc); err != nil {
		if _, ok := err.(*StatusError); ok {
			return domain.RatesResult{}, err
		}
		return result, nil
	}

	rates := make(map[string]string)
	for _, row := range doc.Rows {
		if row.Code == "" || row.Title != "" || row.Rate == "" {
			continue
		}
		rates[row.Code] = decimals.Normalize(row.Rate)
	}
	result.Rates = rates
	return result, nil
}
