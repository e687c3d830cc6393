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

// CurrencyDataFeed fetches spot quotes from currencydatafeed.com. Symbols are
// requested as "<CUR>/USD" and only current data is available.
type CurrencyDataFeed struct {
	Info
	noRange
	client  *Client
	baseURL string
	token   string
}

// NewCurrencyDataFeed creates the adapter; a missing token disables it.
func NewCurrencyDataFeed(client *Client, baseURL, token string) (*CurrencyDataFeed, error) {
	if token == "" {
		return nil, apperrors.NewDisabledProvider("currency_data_feed: CURRENCY_DATA_FEED_KEY is not set")
	}
	return &CurrencyDataFeed{
		Info: Info{
			ProviderKey: "currency_data_feed",
			ProviderID:  22,
			Base:        "USD",
			Home:        "https://currencydatafeed.com",
			Desc:        "Currency Data Feed",
			IsActive:    true,
			Currencies: []string{
				"EUR", "GBP", "JPY", "AUD", "CAD", "CHF", "CNY", "SEK", "NZD",
				"MXN", "SGD", "HKD", "NOK", "TRY", "ZAR",
			},
			FetchDelay: time.Second,
		},
		client:  client,
		baseURL: baseURL,
		token:   token,
	}, nil
}

type currencyDataFeedDocument struct {
	Status   bool `json:"status"`
	Currency []struct {
		Symbol string      `json:"symbol"`
		Price  json.Number `json:"price"`
	} `json:"currency"`
}

// RatesByDate fetches current quotes; any earlier day yields ErrNoDataAvailable.
func (p *CurrencyDataFeed) RatesByDate(ctx context.Context, date time.Time) (domain.RatesResult, error) {
	today := domain.Day(time.Now().UTC())
	target := domain.Day(date)
	if target.Before(today) {
		return domain.RatesResult{}, apperrors.ErrNoDataAvailable
	}

	symbols := make([]string, 0, len(p.Currencies))
	for _, c := range p.Currencies {
		symbols = append(symbols, c+"/"+p.Base)
	}
	url := fmt.Sprintf("%s/currency.php?token=%s&currency=%s", p.baseURL, p.token, strings.Join(symbols, ","))

	var doc currencyDataFeedDocument
	if err := p.client.GetJSON(ctx, url, nil, &doc); err != nil {
		return domain.RatesResult{}, err
	}
	if !doc.Status {
		return domain.RatesResult{}, fmt.Errorf("currency_data_feed: upstream reported failure")
	}

	rates := make(map[string]string, len(doc.Currency))
	for _, q := range doc.Currency {
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
