package ports

import (
	"context"
	"time"

	"github.com/SscSPs/fx_rates_service/internal/core/domain"
)

// RateRepository defines the persistence operations for exchange rate records.
// Insert is the sole mutation path; rows are immutable once written.
type RateRepository interface {
	// InsertRatesIfAbsent batch-inserts all currency/rate pairs for one
	// provider/base/day, silently skipping rows that already exist. Safe under
	// concurrent importer runs for the same day.
	InsertRatesIfAbsent(ctx context.Context, date time.Time, providerID int, baseCurrency string, rates map[string]string) error

	// FindRecentRecords returns up to limit records for the pair at or before
	// maxDate, most recent first.
	FindRecentRecords(ctx context.Context, providerID int, currency, baseCurrency string, maxDate time.Time, limit int) ([]domain.RateRecord, error)

	// FindRecordsInRange returns records for the pair within [start, end],
	// ordered by date ascending.
	FindRecordsInRange(ctx context.Context, providerID int, currency, baseCurrency string, start, end time.Time) ([]domain.RateRecord, error)

	// FindOneInRange returns the most recent record for the provider/base with
	// date in [minDate, maxDate], or nil if none exists.
	FindOneInRange(ctx context.Context, providerID int, baseCurrency string, minDate, maxDate time.Time) (*domain.RateRecord, error)

	// RecordExists reports whether any record exists for provider/base on date.
	RecordExists(ctx context.Context, providerID int, baseCurrency string, date time.Time) (bool, error)

	// MinDate returns the earliest stored date, optionally restricted to one
	// provider. Returns nil when the store is empty.
	MinDate(ctx context.Context, providerID *int) (*time.Time, error)
}
