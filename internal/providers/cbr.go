package providers

import (
	"context"
	"fmt"
	"time"

	"github.com/SscSPs/fx_rates_service/internal/apperrors"
	"github.com/SscSPs/fx_rates_service/internal/core/domain"
	"github.com/SscSPs/fx_rates_service/internal/utils/decimals"
)

// CBR fetches daily rates from the Central Bank of the Russian Federation.
type CBR struct {
	Info
	noRange
	client  *Client
	baseURL string
	scale   int
}

// NewCBR creates the CBR adapter.
func NewCBR(client *Client, baseURL string, scale int) *CBR {
	return &CBR{
		Info: Info{
			ProviderKey: "cbr",
			ProviderID:  1,
			Base:        "RUB",
			Home:        "https://www.cbr.ru",
			Desc:        "Central Bank of the Russian Federation",
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

type cbrValCurs struct {
	Date    string `xml:"Date,attr"`
	Valutes []struct {
		CharCode string `xml:"CharCode"`
		Nominal  string `xml:"Nominal"`
		Value    string `xml:"Value"`
	} `xml:"Valute"`
}

// RatesByDate fetches the daily fixing. The bank answers requests for
// non-trading days with the last published fixing, carrying its own date.
func (p *CBR) RatesByDate(ctx context.Context, date time.Time) (domain.RatesResult, error) {
	url := fmt.Sprintf("%s?date_req=%s", p.baseURL, date.Format("02/01/2006"))

	var doc cbrValCurs
	if err := p.client.GetXML(ctx, url, nil, &doc); err != nil {
		return domain.RatesResult{}, err
	}

	actual, err := time.ParseInLocation("02.01.2006", doc.Date, time.UTC)
	if err != nil {
		return domain.RatesResult{}, apperrors.NewParseError("cbr: unexpected document date", doc.Date)
	}

	rates := make(map[string]string, len(doc.Valutes))
	for _, v := range doc.Valutes {
		// Values are quoted per Nominal units of the currency.
		rate, err := decimals.Div(v.Value, v.Nominal, p.scale)
		if err != nil {
			return domain.RatesResult{}, fmt.Errorf("cbr: bad value for %s: %w", v.CharCode, err)
		}
		rates[v.CharCode] = rate
	}

	return domain.RatesResult{
		ProviderID:   p.ProviderID,
		BaseCurrency: p.Base,
		Date:         domain.Day(actual),
		Rates:        rates,
	}, nil
}
