package providers

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/SscSPs/fx_rates_service/internal/apperrors"
	"github.com/SscSPs/fx_rates_service/internal/core/domain"
	"github.com/SscSPs/fx_rates_service/internal/utils/decimals"
)

// CNB fetches rates from the Czech National Bank. The feed is pipe-delimited
// text: a date header line, a column header line, then one row per currency.
type CNB struct {
	Info
	noRange
	client  *Client
	baseURL string
	scale   int
}

// NewCNB creates the CNB adapter.
func NewCNB(client *Client, baseURL string, scale int) *CNB {
	return &CNB{
		Info: Info{
			ProviderKey: "cnb",
			ProviderID:  5,
			Base:        "CZK",
			Home:        "https://www.cnb.cz",
			Desc:        "Czech National Bank",
			IsActive:    true,
			Currencies: []string{
				"AUD", "BRL", "BGN", "CNY", "DKK", "EUR", "PHP", "HKD", "INR",
				"IDR", "ISK", "ILS", "JPY", "ZAR", "CAD", "KRW", "HUF", "MYR",
				"MXN", "XDR", "NOK", "NZD", "PLN", "RON", "SGD", "SEK", "CHF",
				"THB", "TRY", "USD", "GBP",
			},
		},
		client:  client,
		baseURL: baseURL,
		scale:   scale,
	}
}

// RatesByDate fetches the daily fixing. For non-trading days the bank answers
// with the last published fixing, dated in the header line.
func (p *CNB) RatesByDate(ctx context.Context, date time.Time) (domain.RatesResult, error) {
	url := fmt.Sprintf("%s?date=%s", p.baseURL, date.Format("02.01.2006"))

	body, err := p.client.Get(ctx, url, nil)
	if err != nil {
		return domain.RatesResult{}, err
	}

	lines := strings.Split(strings.ReplaceAll(string(body), "\r\n", "\n"), "\n")
	if len(lines) < 2 {
		return domain.RatesResult{}, apperrors.NewParseError("cnb: response too short", string(body))
	}

	// Header line: "15 Mar 2024 #54".
	dateField, _, _ := strings.Cut(strings.TrimSpace(lines[0]), "#")
	actual, err := time.ParseInLocation("02 Jan 2006", strings.TrimSpace(dateField), time.UTC)
	if err != nil {
		return domain.RatesResult{}, apperrors.NewParseError("cnb: unexpected header date", lines[0])
	}

	rates := make(map[string]string)
	for _, line := range lines[2:] {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		// Country|Currency|Amount|Code|Rate
		fields := strings.Split(line, "|")
		if len(fields) != 5 {
			return domain.RatesResult{}, apperrors.NewParseError("cnb: unexpected row shape", line)
		}
		rate, err := decimals.Div(fields[4], fields[2], p.scale)
		if err != nil {
			return domain.RatesResult{}, fmt.Errorf("cnb: bad value for %s: %w", fields[3], err)
		}
		rates[fields[3]] = rate
	}

	return domain.RatesResult{
		ProviderID:   p.ProviderID,
		BaseCurrency: p.Base,
		Date:         domain.Day(actual),
		Rates:        rates,
	}, nil
}
