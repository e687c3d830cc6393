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

// Xignite fetches real-time rates from the Xignite GlobalCurrencies API.
// Symbols are requested as "<CUR>USD" so the mid price is USD per unit.
type Xignite struct {
	Info
	noRange
	client  *Client
	baseURL string
	token   string
}

// NewXignite creates the adapter; a missing token disables it.
func NewXignite(client *Client, baseURL, token string) (*Xignite, error) {
	if token == "" {
		return nil, apperrors.NewDisabledProvider("xignite: XIGNITE_TOKEN is not set")
	}
	return &Xignite{
		Info: Info{
			ProviderKey: "xignite",
			ProviderID:  21,
			Base:        "USD",
			Home:        "https://www.xignite.com",
			Desc:        "Xignite GlobalCurrencies",
			IsActive:    true,
			Currencies: []string{
				"EUR", "GBP", "JPY", "AUD", "CAD", "CHF", "CNY", "SEK", "NZD",
				"MXN", "SGD", "HKD", "NOK", "KRW", "TRY", "INR", "BRL", "ZAR",
			},
			FetchDelay: time.Second,
		},
		client:  client,
		baseURL: baseURL,
		token:   token,
	}, nil
}

type xigniteDocument struct {
	Rates []struct {
		Symbol string      `json:"Symbol"`
		Mid    json.Number `json:"Mid"`
	} `json:"Rates"`
}

// RatesByDate fetches current quotes; any earlier day yields ErrNoDataAvailable.
func (p *Xignite) RatesByDate(ctx context.Context, date time.Time) (domain.RatesResult, error) {
	today := domain.Day(time.Now().UTC())
	target := domain.Day(date)
	if target.Before(today) {
		return domain.RatesResult{}, apperrors.ErrNoDataAvailable
	}

	symbols := make([]string, 0, len(p.Currencies))
	for _, c := range p.Currencies {
		symbols = append(symbols, c+p.Base)
	}
	url := fmt.Sprintf("%s/GetRealTimeRates?Symbols=%s&_token=%s", p.baseURL, strings.Join(symbols, ","), p.token)

	var doc xigniteDocument
	if err := p.client.GetJSON(ctx, url, nil, &doc); err != nil {
		return domain.RatesResult{}, err
	}

	rates := make(map[string]string, len(doc.Rates))
	for _, r := range doc.Rates {
		currency := strings.TrimSuffix(r.Symbol, p.Base)
		if currency == r.Symbol || currency == "" {
			continue
		}
		rates[currency] = decimals.Normalize(r.Mid.String())
	}

	return domain.RatesResult{
		ProviderID:   p.ProviderID,
		BaseCurrency: p.Base,
		Date:         today,
		Rates:        rates,
	}, nil
}
