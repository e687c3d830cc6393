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

// Forge fetches spot quotes from 1forge.com. Quotes are requested per pair
// ("EUR/USD" is USD per EUR) and only current data is available.
type Forge struct {
	Info
	noRange
	client  *Client
	baseURL string
	apiKey  string
}

// NewForge creates the adapter; a missing key disables it.
func NewForge(client *Client, baseURL, apiKey string) (*Forge, error) {
	if apiKey == "" {
		return nil, apperrors.NewDisabledProvider("forge: FORGE_KEY is not set")
	}
	return &Forge{
		Info: Info{
			ProviderKey: "forge",
			ProviderID:  20,
			Base:        "USD",
			Home:        "https://1forge.com",
			Desc:        "1forge",
			IsActive:    true,
			Currencies: []string{
				"EUR", "GBP", "JPY", "AUD", "CAD", "CHF", "CNY", "SEK", "NZD",
				"MXN", "SGD", "HKD", "NOK", "TRY", "ZAR",
			},
			Limit:       1000,
			LimitPeriod: 24 * time.Hour,
			FetchDelay:  time.Second,
		},
		client:  client,
		baseURL: baseURL,
		apiKey:  apiKey,
	}, nil
}

type forgeQuote struct {
	Symbol string      `json:"s"`
	Price  json.Number `json:"p"`
}

// RatesByDate fetches current quotes; any earlier day yields ErrNoDataAvailable.
func (p *Forge) RatesByDate(ctx context.Context, date time.Time) (domain.RatesResult, error) {
	today := domain.Day(time.Now().UTC())
	target := domain.Day(date)
	if target.Before(today) {
		return domain.RatesResult{}, apperrors.ErrNoDataAvailable
	}

	pairs := make([]string, 0, len(p.Currencies))
	for _, c := range p.Currencies {
		pairs = append(pairs, c+"/"+p.Base)
	}
	url := fmt.Sprintf("%s/quotes?pairs=%s&api_key=%s", p.baseURL, strings.Join(pairs, ","), p.apiKey)

	var quotes []forgeQuote
	if err := p.client.GetJSON(ctx, url, nil, &quotes); err != nil {
		return domain.RatesResult{}, err
	}

	rates := make(map[string]string, len(quotes))
	for _, q := range quotes {
		currency, _, found := strings.Cut(q.Symbol, "/")
		if !found || currency == "" {
			continue
		}
		rates[currency] = decimals.Normalize(q.Price.String())
	}

	return domain.RatesResult{
		ProviderID:   p.ProviderID,
		BaseCurrency: p.Base,
		Date:         today,
		Rates:        rates,
	}, nil
}
