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

// moexSecurities maps the exchange's FX instrument codes to currencies.
var moexSecurities = map[string]string{
	"USD000UTSTOM": "USD",
	"EUR_RUB__TOM": "EUR",
	"CNYRUB_TOM":   "CNY",
	"TRYRUB_TOM":   "TRY",
	"KZTRUB_TOM":   "KZT",
	"BYNRUB_TOM":   "BYN",
	"HKDRUB_TOM":   "HKD",
	"AMDRUB_TOM":   "AMD",
}

// MOEX fetches RUB exchange rates from the Moscow Exchange ISS API. Current
// data comes from one weighted-average-price table; historical days are
// assembled per instrument from the CETS board history, skipping instruments
// without trades.
type MOEX struct {
	Info
	noRange
	client  *Client
	baseURL string
}

// NewMOEX creates the MOEX adapter.
func NewMOEX(client *Client, baseURL string) *MOEX {
	currencies := make([]string, 0, len(moexSecurities))
	for _, c := range moexSecurities {
		currencies = append(currencies, c)
	}
	return &MOEX{
		Info: Info{
			ProviderKey: "moex",
			ProviderID:  26,
			Base:        "RUB",
			Home:        "https://www.moex.com",
			Desc:        "Moscow Exchange",
			IsActive:    true,
			Currencies:  currencies,
			FetchDelay:  500 * time.Millisecond,
		},
		client:  client,
		baseURL: baseURL,
	}
}

// moexTable is the generic ISS columns/data table shape.
type moexTable struct {
	Columns []string            `json:"columns"`
	Data    [][]json.RawMessage `json:"data"`
}

func (t *moexTable) columnIndex(name string) int {
	for i, c := range t.Columns {
		if c == name {
			return i
		}
	}
	return -1
}

func cellString(raw json.RawMessage) (string, bool) {
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s, true
	}
	var n json.Number
	if err := json.Unmarshal(raw, &n); err == nil {
		return n.String(), true
	}
	return "", false
}

func (p *MOEX) latest(ctx context.Context) (map[string]string, error) {
	url := p.baseURL + "/iss/statistics/engines/currency/markets/selt/rates.json?iss.meta=off"

	var doc struct {
		WapRates moexTable `json:"wap_rates"`
	}
	if err := p.client.GetJSON(ctx, url, nil, &doc); err != nil {
		return nil, err
	}

	secIdx := doc.WapRates.columnIndex("secid")
	priceIdx := doc.WapRates.columnIndex("price")
	if secIdx < 0 || priceIdx < 0 {
		return nil, apperrors.NewParseError("moex: wap_rates table missing columns", fmt.Sprint(doc.WapRates.Columns))
	}

	rates := make(map[string]string)
	for _, row := range doc.WapRates.Data {
		if len(row) <= secIdx || len(row) <= priceIdx {
			continue
		}
		sec, ok := cellString(row[secIdx])
		if !ok {
			continue
		}
		currency, known := moexSecurities[sec]
		if !known {
			continue
		}
		price, ok := cellString(row[priceIdx])
		if !ok || price == "" {
			continue
		}
		rates[currency] = decimals.Normalize(price)
	}
	return rates, nil
}

func (p *MOEX) historical(ctx context.Context, day time.Time) (map[string]string, error) {
	date := day.Format(domain.DateLayout)

	rates := make(map[string]string, len(moexSecurities))
	for sec, currency := range moexSecurities {
		url := fmt.Sprintf("%s/iss/history/engines/currency/markets/selt/boards/CETS/securities/%s.json?from=%s&till=%s&iss.meta=off",
			p.baseURL, sec, date, date)

		var doc struct {
			History moexTable `json:"history"`
		}
		if err := p.client.GetJSON(ctx, url, nil, &doc); err != nil {
			// Instruments without trades on that day fail individually.
			if _, limited := apperrors.AsLimitExceeded(err); limited {
				return nil, err
			}
			continue
		}

		priceIdx := doc.History.columnIndex("waprice")
		if priceIdx < 0 || len(doc.History.Data) == 0 {
			continue
		}
		row := doc.History.Data[len(doc.History.Data)-1]
		if len(row) <= priceIdx {
			continue
		}
		price, ok := cellString(row[priceIdx])
		if !ok || price == "" || price == "null" {
			continue
		}
		rates[currency] = decimals.Normalize(price)
	}
	return rates, nil
}

// RatesByDate fetches the weighted average FX prices for the requested day.
func (p *MOEX) RatesByDate(ctx context.Context, date time.Time) (domain.RatesResult, error) {
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
