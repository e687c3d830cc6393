package providers

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/SscSPs/fx_rates_service/internal/apperrors"
	"github.com/SscSPs/fx_rates_service/internal/core/domain"
	"github.com/SscSPs/fx_rates_service/internal/utils/decimals"
)

// NBU fetches rates from the National Bank of Ukraine.
type NBU struct {
	Info
	noRange
	client  *Client
	baseURL string
}

// NewNBU creates the NBU adapter.
func NewNBU(client *Client, baseURL string) *NBU {
	return &NBU{
		Info: Info{
			ProviderKey: "nbu",
			ProviderID:  7,
			Base:        "UAH",
			Home:        "https://bank.gov.ua",
			Desc:        "National Bank of Ukraine",
			IsActive:    true,
			Currencies: []string{
				"AUD", "CAD", "CNY", "CZK", "DKK", "HKD", "HUF", "INR", "IDR",
				"ILS", "JPY", "KZT", "KRW", "MXN", "MDL", "NZD", "NOK", "SGD",
				"ZAR", "SEK", "CHF", "EGP", "GBP", "USD", "EUR", "PLN", "DZD",
				"TRY",
			},
		},
		client:  client,
		baseURL: baseURL,
	}
}

type nbuCurrency struct {
	CC           string  `xml:"cc"`
	Rate         float64 `xml:"rate"`
	ExchangeDate string  `xml:"exchangedate"`
}

type nbuDocument struct {
	Currencies []nbuCurrency `xml:"currency"`
}

// RatesByDate fetches the official UAH rates for the requested day.
func (p *NBU) RatesByDate(ctx context.Context, date time.Time) (domain.RatesResult, error) {
	url := fmt.Sprintf("%s?date=%s", p.baseURL, date.Format("20060102"))

	var doc nbuDocument
	if err := p.client.GetXML(ctx, url, nil, &doc); err != nil {
		return domain.RatesResult{}, err
	}

	result := domain.RatesResult{
		ProviderID:   p.ProviderID,
		BaseCurrency: p.Base,
		Date:         domain.Day(date),
		Rates:        map[string]string{},
	}
	if len(doc.Currencies) == 0 {
		return result, nil
	}

	actual, err := time.ParseInLocation("02.01.2006", doc.Currencies[0].ExchangeDate, time.UTC)
	if err != nil {
		return domain.RatesResult{}, apperrors.NewParseError("nbu: unexpected exchange date", doc.Currencies[0].ExchangeDate)
	}

	rates := make(map[string]string, len(doc.Currencies))
	for _, c := range doc.Currencies {
		rates[c.CC] = decimals.Normalize(strconv.FormatFloat(c.Rate, 'f', -1, 64))
	}
	result.Date = domain.Day(actual)
	result.Rates = rates
	return result, nil
}
