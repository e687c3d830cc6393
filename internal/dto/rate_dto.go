package dto

// RateResponse carries one resolved rate with its day-over-day change.
// A nil Diff marks a provisional (fallback) response: the previous comparison
// point is not persisted yet, and the caller should retry later for the diff.
type RateResponse struct {
	Rate     string  `json:"rate"`
	Diff     *string `json:"diff,omitempty"`
	Date     string  `json:"date"`
	DateDiff *string `json:"dateDiff,omitempty"`
}

// IsFallback reports whether the response lacks a day-over-day comparison.
// Fallback responses are never cached so they can heal once more data arrives.
func (r RateResponse) IsFallback() bool {
	return r.Diff == nil
}

// TimeseriesResponse carries rates for a currency pair over a date range.
// Rates maps day (YYYY-MM-DD) to decimal string; days without data on either
// leg are absent.
type TimeseriesResponse struct {
	BaseCurrency string            `json:"baseCurrency"`
	Currency     string            `json:"currency"`
	StartDate    string            `json:"startDate"`
	EndDate      string            `json:"endDate"`
	Rates        map[string]string `json:"rates"`
}

// ProviderInfo is the cached metadata entry returned by the registry listing.
type ProviderInfo struct {
	Key                 string   `json:"key"`
	HomePage            string   `json:"homePage"`
	Description         string   `json:"description"`
	BaseCurrency        string   `json:"baseCurrency"`
	AvailableCurrencies []string `json:"availableCurrencies"`
	MinDate             *string  `json:"minDate,omitempty"`
}
