package providers

import (
	"context"
	"time"

	"github.com/SscSPs/fx_rates_service/internal/core/domain"
	"github.com/SscSPs/fx_rates_service/internal/utils/decimals"
)

// ECB fetches euro foreign exchange reference rates from the European Central
// Bank. The bank publishes three growing files (today, last 90 days, full
// history); the adapter picks the cheapest one that can contain the target day
// and then searches for the latest published day at or before it.
type ECB struct {
	Info
	noRange
	client  *Client
	baseURL string
}

// NewECB creates the ECB adapter.
func NewECB(client *Client, baseURL string) *ECB {
	return &ECB{
		Info: Info{
			ProviderKey: "ecb",
			ProviderID:  2,
			Base:        "EUR",
			Home:        "https://www.ecb.europa.eu",
			Desc:        "European Central Bank",
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

type ecbEnvelope struct {
	Days []struct {
		Time  string `xml:"time,attr"`
		Rates []struct {
			Currency string `xml:"currency,attr"`
			Rate     string `xml:"rate,attr"`
		} `xml:"Cube"`
	} `xml:"Cube>Cube"`
}

func (p *ECB) historyURL(date time.Time) string {
	today := domain.Day(time.Now().UTC())
	target := domain.Day(date)
	switch {
	case !target.Before(today):
		return p.baseURL + "/eurofxref-daily.xml"
	case today.Sub(target) <= 90*24*time.Hour:
		return p.baseURL + "/eurofxref-hist-90d.xml"
	default:
		return p.baseURL + "/eurofxref-hist.xml"
	}
}

// RatesByDate returns the latest published fixing at or before the requested
// day, or an empty result when the file holds nothing that old.
func (p *ECB) RatesByDate(ctx context.Context, date time.Time) (domain.RatesResult, error) {
	var doc ecbEnvelope
	if err := p.client.GetXML(ctx, p.historyURL(date), nil, &doc); err != nil {
		return domain.RatesResult{}, err
	}

	target := domain.Day(date)
	result := domain.RatesResult{
		ProviderID:   p.ProviderID,
		BaseCurrency: p.Base,
		Date:         target,
		Rates:        map[string]string{},
	}

	var bestDay time.Time
	var bestIdx = -1
	for i, day := range doc.Days {
		t, err := time.ParseInLocation(domain.DateLayout, day.Time, time.UTC)
		if err != nil {
			continue
		}
		if t.After(target) {
			continue
		}
		if bestIdx < 0 || t.After(bestDay) {
			bestDay, bestIdx = t, i
		}
	}
	if bestIdx < 0 {
		return result, nil
	}

	rates := make(map[string]string, len(doc.Days[bestIdx].Rates))
	for _, r := range doc.Days[bestIdx].Rates {
		rates[r.Currency] = decimals.Normalize(r.Rate)
	}
	result.Date = bestDay
	result.Rates = rates
	return result, nil
}
