package providers

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/SscSPs/fx_rates_service/internal/core/domain"
	"github.com/SscSPs/fx_rates_service/internal/utils/decimals"
)

// BankOfCanada fetches daily FX observations from the Bank of Canada Valet
// API. Series are keyed "FX<CUR>CAD"; weekends and holidays have no
// observation and yield an empty result.
type BankOfCanada struct {
	Info
	noRange
	client  *Client
	baseURL string
}

// NewBankOfCanada creates the Bank of Canada adapter.
func NewBankOfCanada(client *Client, baseURL string) *BankOfCanada {
	return &BankOfCanada{
		Info: Info{
			ProviderKey: "bank_of_canada",
			ProviderID:  11,
			Base:        "CAD",
			Home:        "https://www.bankofcanada.ca",
			Desc:        "Bank of Canada",
			IsActive:    true,
			Currencies: []string{
				"AUD", "BRL", "CNY", "EUR", "HKD", "INR", "IDR", "JPY", "MXN",
				"NZD", "NOK", "PEN", "RUB", "SAR", "SGD", "ZAR", "KRW", "SEK",
				"CHF", "TWD", "TRY", "GBP", "USD",
			},
		},
		client:  client,
		baseURL: baseURL,
	}
}

type bocDocument struct {
	Observations []map[string]json.RawMessage `json:"observations"`
}

type bocValue struct {
	V string `json:"v"`
}

// RatesByDate fetches the observation for exactly the requested day.
func (p *BankOfCanada) RatesByDate(ctx context.Context, date time.Time) (domain.RatesResult, error) {
	day := date.Format(domain.DateLayout)
	url := fmt.Sprintf("%s?start_date=%s&end_date=%s", p.baseURL, day, day)

	var doc bocDocument
	if err := p.client.GetJSON(ctx, url, nil, &doc); err != nil {
		return domain.RatesResult{}, err
	}

	result := domain.RatesResult{
		ProviderID:   p.ProviderID,
		BaseCurrency: p.Base,
		Date:         domain.Day(date),
		Rates:        map[string]string{},
	}
	if len(doc.Observations) == 0 {
		return result, nil
	}

	rates := make(map[string]string)
	for key, raw := range doc.Observations[len(doc.Observations)-1] {
		if !strings.HasPrefix(key, "FX") || !strings.HasSuffix(key, "CAD") {
			continue
		}
		currency := strings.TrimSuffix(strings.TrimPrefix(key, "FX"), "CAD")
		var v bocValue
		if err := json.Unmarshal(raw, &v); err != nil || v.V == "" {
			continue
		}
		rates[currency] = decimals.Normalize(v.V)
	}
	result.Rates = rates
	return result, nil
}
