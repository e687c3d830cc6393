package providers

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/SscSPs/fx_rates_service/internal/apperrors"
	"github.com/SscSPs/fx_rates_service/internal/core/domain"
	"github.com/SscSPs/fx_rates_service/internal/utils/decimals"
)

// CoinLayer fetches crypto asset rates quoted in USD from coinlayer.com.
type CoinLayer struct {
	Info
	noRange
	client    *Client
	baseURL   string
	accessKey string
}

// NewCoinLayer creates the adapter; a missing access key disables it.
func NewCoinLayer(client *Client, baseURL, accessKey string) (*CoinLayer, error) {
	if accessKey == "" {
		return nil, apperrors.NewDisabledProvider("coin_layer: COIN_LAYER_KEY is not set")
	}
	return &CoinLayer{
		Info: Info{
			ProviderKey: "coin_layer",
			ProviderID:  14,
			Base:        "USD",
			Home:        "https://coinlayer.com",
			Desc:        "coinlayer crypto rates",
			IsActive:    true,
			Currencies: []string{
				"BTC", "ETH", "LTC", "XRP", "BCH", "ADA", "DOT", "SOL", "DOGE",
				"LINK", "XLM", "ETC", "UNI", "AVAX",
			},
			Limit:       100,
			LimitPeriod: 30 * 24 * time.Hour,
			FetchDelay:  time.Second,
		},
		client:    client,
		baseURL:   baseURL,
		accessKey: accessKey,
	}, nil
}

type coinLayerDocument struct {
	Success bool `json:"success"`
	Error   struct {
		Code int    `json:"code"`
		Info string `json:"info"`
	} `json:"error"`
	Rates map[string]json.Number `json:"rates"`
}

// RatesByDate fetches /live for the current day and the dated endpoint otherwise.
func (p *CoinLayer) RatesByDate(ctx context.Context, date time.Time) (domain.RatesResult, error) {
	today := domain.Day(time.Now().UTC())
	target := domain.Day(date)

	var url string
	if target.Before(today) {
		url = fmt.Sprintf("%s/%s?access_key=%s", p.baseURL, target.Format(domain.DateLayout), p.accessKey)
	} else {
		url = fmt.Sprintf("%s/live?access_key=%s", p.baseURL, p.accessKey)
	}

	var doc coinLayerDocument
	if err := p.client.GetJSON(ctx, url, nil, &doc); err != nil {
		return domain.RatesResult{}, err
	}
	if !doc.Success {
		return domain.RatesResult{}, fmt.Errorf("coin_layer: upstream error %d: %s", doc.Error.Code, doc.Error.Info)
	}

	rates := make(map[string]string, len(doc.Rates))
	for code, v := range doc.Rates {
		rates[code] = decimals.Normalize(v.String())
	}

	return domain.RatesResult{
		ProviderID:   p.ProviderID,
		BaseCurrency: p.Base,
		Date:         target,
		Rates:        rates,
	}, nil
}
