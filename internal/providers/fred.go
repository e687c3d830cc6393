package providers

import (
	"context"
	"fmt"
	"time"

	"github.com/SscSPs/fx_rates_service/internal/apperrors"
	"github.com/SscSPs/fx_rates_service/internal/core/domain"
	"github.com/SscSPs/fx_rates_service/internal/utils/decimals"
)

// fredSeries describes one FRED exchange rate series. Series quoting the
// foreign currency per USD are inverted to the USD-per-unit convention.
type fredSeries struct {
	Currency string
	Invert   bool
	Start    string // first observation, requests before it are skipped
}

var fredSeriesMap = map[string]fredSeries{
	"DEXUSEU": {Currency: "EUR", Start: "1999-01-04"},
	"DEXUSUK": {Currency: "GBP", Start: "1971-01-04"},
	"DEXUSAL": {Currency: "AUD", Start: "1971-01-04"},
	"DEXUSNZ": {Currency: "NZD", Start: "1971-01-04"},
	"DEXJPUS": {Currency: "JPY", Invert: true, Start: "1971-01-04"},
	"DEXCAUS": {Currency: "CAD", Invert: true, Start: "1971-01-04"},
	"DEXCHUS": {Currency: "CNY", Invert: true, Start: "1981-01-02"},
	"DEXSZUS": {Currency: "CHF", Invert: true, Start: "1971-01-04"},
	"DEXMXUS": {Currency: "MXN", Invert: true, Start: "1993-11-08"},
	"DEXINUS": {Currency: "INR", Invert: true, Start: "1973-01-02"},
	"DEXBZUS": {Currency: "BRL", Invert: true, Start: "1995-01-02"},
	"DEXKOUS": {Currency: "KRW", Invert: true, Start: "1981-04-13"},
	"DEXSDUS": {Currency: "SEK", Invert: true, Start: "1971-01-04"},
	"DEXNOUS": {Currency: "NOK", Invert: true, Start: "1971-01-04"},
	"DEXDNUS": {Currency: "DKK", Invert: true, Start: "1971-01-04"},
	"DEXSIUS": {Currency: "SGD", Invert: true, Start: "1981-01-02"},
	"DEXHKUS": {Currency: "HKD", Invert: true, Start: "1981-01-02"},
	"DEXSFUS": {Currency: "ZAR", Invert: true, Start: "1971-01-04"},
	"DEXTHUS": {Currency: "THB", Invert: true, Start: "1981-01-02"},
	"DEXTAUS": {Currency: "TWD", Invert: true, Start: "1983-10-03"},
}

// FRED assembles USD rates from the Federal Reserve H.10 series, one request
// per series. Publication lags several business days, so the adapter carries
// an 11-day reporting lag.
type FRED struct {
	Info
	noRange
	client  *Client
	baseURL string
	apiKey  string
	scale   int
}

// NewFRED creates the adapter; a missing API key disables it.
func NewFRED(client *Client, baseURL, apiKey string, scale int) (*FRED, error) {
	if apiKey == "" {
		return nil, apperrors.NewDisabledProvider("fred: FRED_API_KEY is not set")
	}
	currencies := make([]string, 0, len(fredSeriesMap))
	for _, s := range fredSeriesMap {
		currencies = append(currencies, s.Currency)
	}
	return &FRED{
		Info: Info{
			ProviderKey: "fred",
			ProviderID:  25,
			Base:        "USD",
			Home:        "https://fred.stlouisfed.org",
			Desc:        "Federal Reserve Economic Data",
			IsActive:    true,
			Lag:         11,
			Currencies:  currencies,
			Limit:       120,
			LimitPeriod: time.Minute,
			FetchDelay:  time.Second,
		},
		client:  client,
		baseURL: baseURL,
		apiKey:  apiKey,
		scale:   scale,
	}, nil
}

type fredObservations struct {
	Observations []struct {
		Date  string `json:"date"`
		Value string `json:"value"`
	} `json:"observations"`
}

// RatesByDate requests each series for exactly the target day. Series without
// an observation, with the "." placeholder, or starting after the target day
// are skipped; quota errors abort the whole fetch.
func (p *FRED) RatesByDate(ctx context.Context, date time.Time) (domain.RatesResult, error) {
	target := domain.Day(date)
	day := target.Format(domain.DateLayout)

	rates := make(map[string]string, len(fredSeriesMap))
	for id, series := range fredSeriesMap {
		if start, err := time.ParseInLocation(domain.DateLayout, series.Start, time.UTC); err == nil && target.Before(start) {
			continue
		}

		url := fmt.Sprintf("%s/series/observations?series_id=%s&api_key=%s&file_type=json&observation_start=%s&observation_end=%s",
			p.baseURL, id, p.apiKey, day, day)

		var doc fredObservations
		if err := p.client.GetJSON(ctx, url, nil, &doc); err != nil {
			if _, limited := apperrors.AsLimitExceeded(err); limited {
				return domain.RatesResult{}, err
			}
			continue
		}
		if len(doc.Observations) == 0 {
			continue
		}
		value := doc.Observations[len(doc.Observations)-1].Value
		if value == "" || value == "." {
			continue
		}

		rate := decimals.Normalize(value)
		if series.Invert {
			positive, err := decimals.Compare(rate, "0", p.scale)
			if err != nil || positive <= 0 {
				continue
			}
			if rate, err = decimals.Div("1", rate, p.scale); err != nil {
				continue
			}
		}
		rates[series.Currency] = rate
	}

	return domain.RatesResult{
		ProviderID:   p.ProviderID,
		BaseCurrency: p.Base,
		Date:         target,
		Rates:        rates,
	}, nil
}
