package domain

import "time"

// DateLayout is the canonical day format used in cache keys, responses and logs.
const DateLayout = "2006-01-02"

// Day truncates t to midnight UTC. All rate dates are calendar days; the time
// component is never significant.
func Day(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// RateRecord is one persisted exchange rate observation. Records are immutable
// once written: a provider's historical value for a given day is authoritative
// forever, and duplicate inserts are silently ignored.
type RateRecord struct {
	Date         time.Time
	Currency     string
	BaseCurrency string
	Rate         string
	ProviderID   int
	CreatedAt    time.Time
}

// RatesResult is the transient result of one provider fetch. Date is the day
// the data actually applies to, which may differ from the requested day
// (weekends, holidays). Rates maps currency code to a decimal string.
type RatesResult struct {
	ProviderID   int
	BaseCurrency string
	Date         time.Time
	Rates        map[string]string
}

// FetchStatus describes the outcome of one importer run.
type FetchStatus string

const (
	FetchStatusAlreadyExists FetchStatus = "exist"
	FetchStatusEmpty         FetchStatus = "empty"
	FetchStatusSuccess       FetchStatus = "success"
)
