package providers

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/SscSPs/fx_rates_service/internal/apperrors"
	"github.com/SscSPs/fx_rates_service/internal/core/domain"
	"github.com/SscSPs/fx_rates_service/internal/utils/decimals"
)

// Binance fetches crypto asset prices quoted in USDT. Current prices come
// from one bulk ticker call; historical days are assembled per symbol from
// daily klines, skipping symbols that were not listed yet.
type Binance struct {
	Info
	noRange
	client  *Client
	baseURL string
}

// NewBinance creates the Binance adapter.
func NewBinance(client *Client, baseURL string) *Binance {
	return &Binance{
		Info: Info{
			ProviderKey: "binance",
			ProviderID:  24,
			Base:        "USDT",
			Home:        "https://www.binance.com",
			Desc:        "Binance spot market",
			IsActive:    true,
			Currencies: []string{
				"BTC", "ETH", "BNB", "SOL", "XRP", "ADA", "DOGE", "DOT",
				"LTC", "LINK", "AVAX", "ATOM", "ETC", "XLM", "NEAR", "ALGO",
			},
			FetchDelay: 500 * time.Millisecond,
		},
		client:  client,
		baseURL: baseURL,
	}
}

type binanceTicker struct {
	Symbol string `json:"symbol"`
	Price  string `json:"price"`
}

func (p *Binance) latest(ctx context.Context) (map[string]string, error) {
	symbols := make([]string, 0, len(p.Currencies))
	for _, c := range p.Currencies {
		symbols = append(symbols, `"`+c+p.Base+`"`)
	}
	u := fmt.Sprintf("%s/api/v3/ticker/price?symbols=%s",
		p.baseURL, url.QueryEscape("["+strings.Join(symbols, ",")+"]"))

	var tickers []binanceTicker
	if err := p.client.GetJSON(ctx, u, nil, &tickers); err != nil {
		return nil, err
	}

	rates := make(map[string]string, len(tickers))
	for _, t := range tickers {
		currency := strings.TrimSuffix(t.Symbol, p.Base)
		if currency == t.Symbol || currency == "" {
			continue
		}
		rates[currency] = decimals.Normalize(t.Price)
	}
	return rates, nil
}

func (p *Binance) historical(ctx context.Context, day time.Time) (map[string]string, error) {
	start := day.UnixMilli()
	end := day.Add(24*time.Hour).UnixMilli() - 1

	rates := make(map[string]string, len(p.Currencies))
	for _, c := range p.Currencies {
		u := fmt.Sprintf("%s/api/v3/klines?symbol=%s&interval=1d&startTime=%d&endTime=%d&limit=1",
			p.baseURL, c+p.Base, start, end)

		var klines [][]json.RawMessage
		if err := p.client.GetJSON(ctx, u, nil, &klines); err != nil {
			// Symbols not listed on that day fail individually and are skipped.
			if _, limited := apperrors.AsLimitExceeded(err); limited {
				return nil, err
			}
			continue
		}
		if len(klines) == 0 || len(klines[0]) < 5 {
			continue
		}
		var closePrice string
		if err := json.Unmarshal(klines[0][4], &closePrice); err != nil {
			continue
		}
		rates[c] = decimals.Normalize(closePrice)
	}
	return rates, nil
}

// RatesByDate fetches bulk current prices for the current day and per-symbol
// daily closes otherwise.
func (p *Binance) RatesByDate(ctx context.Context, date time.Time) (domain.RatesResult, error) {
	today := domain.Day(time.Now().UTC())
	target := domain.Day(date)

	var rates map[string]string
	var err error
	if target.Before(today) {
		rates, err = p.historical(ctx, target)
	} else {
		rates, err = p.latest(ctx)
		target = today
	}
	if err != nil {
		return domain.RatesResult{}, err
	}

	return domain.RatesResult{
		ProviderID:   p.ProviderID,
		BaseCurrency: p.Base,
		Date:         target,
		Rates:        rates,
	}, nil
}
