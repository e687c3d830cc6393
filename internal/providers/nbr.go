package providers

import (
	"context"
	"fmt"
	"time"

	"github.com/SscSPs/fx_rates_service/internal/core/domain"
	"github.com/SscSPs/fx_rates_service/internal/utils/decimals"
)

// NBR fetches rates from the National Bank of Romania. History is published as
// one XML file per calendar year; the adapter searches the file for the latest
// day at or before the target.
type NBR struct {
	Info
	noRange
	client  *Client
	baseURL string
	scale   int
}

// NewNBR creates the NBR adapter.
func NewNBR(client *Client, baseURL string, scale int) *NBR {
	return &NBR{
		Info: Info{
			ProviderKey: "nbr",
			ProviderID:  3,
			Base:        "RON",
			Home:        "https://www.bnr.ro",
			Desc:        "National Bank of Romania",
			IsActive:    true,
			Currencies: []string{
				"AED", "AUD", "BGN", "BRL", "CAD", "CHF", "CNY", "CZK", "DKK",
				"EGP", "EUR", "GBP", "HUF", "INR", "JPY", "KRW", "MDL", "MXN",
				"NOK", "NZD", "PLN", "RSD", "RUB", "SEK", "TRY", "UAH", "USD",
				"XAU", "XDR", "ZAR",
			},
		},
		client:  client,
		baseURL: baseURL,
		scale:   scale,
	}
}

type nbrDataSet struct {
	Cubes []struct {
		Date  string `xml:"date,attr"`
		Rates []struct {
			Currency   string `xml:"currency,attr"`
			Multiplier string `xml:"multiplier,attr"`
			Value      string `xml:",chardata"`
		} `xml:"Rate"`
	} `xml:"Body>Cube"`
}

func (p *NBR) fileURL(date time.Time) string {
	if date.Year() == time.Now().UTC().Year() {
		return p.baseURL + "/nbrfxrates.xml"
	}
	return fmt.Sprintf("%s/years/nbrfxrates%d.xml", p.baseURL, date.Year())
}

// RatesByDate returns the latest published fixing at or before the requested
// day within the target year's file, or an empty result when none exists.
func (p *NBR) RatesByDate(ctx context.Context, date time.Time) (domain.RatesResult, error) {
	var doc nbrDataSet
	if err := p.client.GetXML(ctx, p.fileURL(date), nil, &doc); err != nil {
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
	bestIdx := -1
	for i, cube := range doc.Cubes {
		t, err := time.ParseInLocation(domain.DateLayout, cube.Date, time.UTC)
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

	rates := make(map[string]string, len(doc.Cubes[bestIdx].Rates))
	for _, r := range doc.Cubes[bestIdx].Rates {
		// Some currencies are quoted per 100 or 10000 units.
		multiplier := r.Multiplier
		if multiplier == "" {
			multiplier = "1"
		}
		rate, err := decimals.Div(r.Value, multiplier, p.scale)
		if err != nil {
			return domain.RatesResult{}, fmt.Errorf("nbr: bad value for %s: %w", r.Currency, err)
		}
		rates[r.Currency] = rate
	}
	result.Date = bestDay
	result.Rates = rates
	return result, nil
}
