package providers

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/SscSPs/fx_rates_service/internal/core/domain"
	"github.com/SscSPs/fx_rates_service/internal/utils/decimals"
)

// cbrtMaxLookback bounds the walk backwards over non-publishing days.
const cbrtMaxLookback = 10

// CBRT fetches rates from the Central Bank of the Republic of Türkiye. The
// bank serves one file per publishing day and answers holidays with 404, so
// the adapter walks backwards day by day until it finds a file.
type CBRT struct {
	Info
	noRange
	client  *Client
	baseURL string
	scale   int
}

// NewCBRT creates the CBRT adapter.
func NewCBRT(client *Client, baseURL string, scale int) *CBRT {
	return &CBRT{
		Info: Info{
			ProviderKey: "cbrt",
			ProviderID:  4,
			Base:        "TRY",
			Home:        "https://www.tcmb.gov.tr",
			Desc:        "Central Bank of the Republic of Turkiye",
			IsActive:    true,
			Currencies: []string{
				"USD", "AUD", "DKK", "EUR", "GBP", "CHF", "SEK", "CAD", "KWD",
				"NOK", "SAR", "JPY", "BGN", "RON", "RUB", "CNY", "PKR", "QAR",
				"KRW", "AZN", "AED",
			},
		},
		client:  client,
		baseURL: baseURL,
		scale:   scale,
	}
}

type cbrtDocument struct {
	Currencies []struct {
		Code         string `xml:"CurrencyCode,attr"`
		Unit         string `xml:"Unit"`
		ForexSelling string `xml:"ForexSelling"`
	} `xml:"Currency"`
}

func (p *CBRT) fileURL(date time.Time) string {
	today := domain.Day(time.Now().UTC())
	if !domain.Day(date).Before(today) {
		return p.baseURL + "/today.xml"
	}
	return fmt.Sprintf("%s/%s/%s.xml", p.baseURL, date.Format("200601"), date.Format("02012006"))
}

// RatesByDate walks backwards from the requested day until a published file is
// found, returning an empty result when the lookback is exhausted.
func (p *CBRT) RatesByDate(ctx context.Context, date time.Time) (domain.RatesResult, error) {
	target := domain.Day(date)

	for step := 0; step <= cbrtMaxLookback; step++ {
		day := target.AddDate(0, 0, -step)

		var doc cbrtDocument
		err := p.client.GetXML(ctx, p.fileURL(day), nil, &doc)
		if err != nil {
			var se *StatusError
			if errors.As(err, &se) && se.StatusCode == http.StatusNotFound {
				continue
			}
			return domain.RatesResult{}, err
		}

		rates := make(map[string]string, len(doc.Currencies))
		for _, c := range doc.Currencies {
			if c.ForexSelling == "" {
				continue
			}
			rate, err := decimals.Div(c.ForexSelling, c.Unit, p.scale)
			if err != nil {
				return domain.RatesResult{}, fmt.Errorf("cbrt: bad value for %s: %w", c.Code, err)
			}
			rates[c.Code] = rate
		}
		return domain.RatesResult{
			ProviderID:   p.ProviderID,
			BaseCurrency: p.Base,
			Date:         day,
			Rates:        rates,
		}, nil
	}

	return domain.RatesResult{
		ProviderID:   p.ProviderID,
		BaseCurrency: p.Base,
		Date:         target,
		Rates:        map[string]string{},
	}, nil
}
