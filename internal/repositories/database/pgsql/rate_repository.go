package pgsql

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/SscSPs/fx_rates_service/internal/core/domain"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PgxRateRepository implements the ports.RateRepository interface using pgxpool.
//
// Rows are written once and never updated; the unique index on
// (date, currency, base_currency, provider_id) plus ON CONFLICT DO NOTHING
// makes concurrent imports of the same day safe.
type PgxRateRepository struct {
	BaseRepository
}

// NewPgxRateRepository creates a new PgxRateRepository.
func NewPgxRateRepository(db *pgxpool.Pool) *PgxRateRepository {
	return &PgxRateRepository{
		BaseRepository: BaseRepository{Pool: db},
	}
}

const rateColumns = `date, currency, base_currency, rate, provider_id, created_at`

// InsertRatesIfAbsent batch-inserts all currency/rate pairs for one
// provider/base/day, silently skipping rows that already exist.
func (r *PgxRateRepository) InsertRatesIfAbsent(ctx context.Context, date time.Time, providerID int, baseCurrency string, rates map[string]string) error {
	if len(rates) == 0 {
		return nil
	}

	tx, err := r.Begin(ctx)
	if err != nil {
		return err
	}

	now := time.Now().UTC()
	batch := &pgx.Batch{}
	for currency, rate := range rates {
		batch.Queue(`
			INSERT INTO exchange_rates (date, currency, base_currency, rate, provider_id, created_at)
			VALUES ($1, $2, $3, $4, $5, $6)
			ON CONFLICT (date, currency, base_currency, provider_id) DO NOTHING`,
			domain.Day(date), strings.ToUpper(currency), strings.ToUpper(baseCurrency), rate, providerID, now,
		)
	}

	br := tx.SendBatch(ctx, batch)
	for i := 0; i < batch.Len(); i++ {
		if _, err := br.Exec(); err != nil {
			_ = br.Close()
			_ = r.Rollback(ctx, tx)
			return fmt.Errorf("failed to insert exchange rates: %w", err)
		}
	}
	if err := br.Close(); err != nil {
		_ = r.Rollback(ctx, tx)
		return fmt.Errorf("failed to close insert batch: %w", err)
	}

	return r.Commit(ctx, tx)
}

// FindRecentRecords returns up to limit records for the pair at or before
// maxDate, most recent first.
func (r *PgxRateRepository) FindRecentRecords(ctx context.Context, providerID int, currency, baseCurrency string, maxDate time.Time, limit int) ([]domain.RateRecord, error) {
	query := `
		SELECT ` + rateColumns + `
		FROM exchange_rates
		WHERE provider_id = $1 AND currency = $2 AND base_currency = $3 AND date <= $4
		ORDER BY date DESC
		LIMIT $5;
	`

	rows, err := r.Pool.Query(ctx, query,
		providerID, strings.ToUpper(currency), strings.ToUpper(baseCurrency), domain.Day(maxDate), limit)
	if err != nil {
		return nil, fmt.Errorf("failed to find recent exchange rates: %w", err)
	}
	defer rows.Close()

	return scanRecords(rows)
}

// FindRecordsInRange returns records for the pair within [start, end], ordered
// by date ascending.
func (r *PgxRateRepository) FindRecordsInRange(ctx context.Context, providerID int, currency, baseCurrency string, start, end time.Time) ([]domain.RateRecord, error) {
	query := `
		SELECT ` + rateColumns + `
		FROM exchange_rates
		WHERE provider_id = $1 AND currency = $2 AND base_currency = $3 AND date BETWEEN $4 AND $5
		ORDER BY date ASC;
	`

	rows, err := r.Pool.Query(ctx, query,
		providerID, strings.ToUpper(currency), strings.ToUpper(baseCurrency), domain.Day(start), domain.Day(end))
	if err != nil {
		return nil, fmt.Errorf("failed to find exchange rates in range: %w", err)
	}
	defer rows.Close()

	return scanRecords(rows)
}

// FindOneInRange returns the most recent record for the provider/base with
// date in [minDate, maxDate], or nil if none exists.
func (r *PgxRateRepository) FindOneInRange(ctx context.Context, providerID int, baseCurrency string, minDate, maxDate time.Time) (*domain.RateRecord, error) {
	query := `
		SELECT ` + rateColumns + `
		FROM exchange_rates
		WHERE provider_id = $1 AND base_currency = $2 AND date BETWEEN $3 AND $4
		ORDER BY date DESC
		LIMIT 1;
	`

	var rec domain.RateRecord
	err := r.Pool.QueryRow(ctx, query,
		providerID, strings.ToUpper(baseCurrency), domain.Day(minDate), domain.Day(maxDate)).Scan(
		&rec.Date, &rec.Currency, &rec.BaseCurrency, &rec.Rate, &rec.ProviderID, &rec.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to find exchange rate in range: %w", err)
	}
	return &rec, nil
}

// RecordExists reports whether any record exists for provider/base on date.
func (r *PgxRateRepository) RecordExists(ctx context.Context, providerID int, baseCurrency string, date time.Time) (bool, error) {
	query := `
		SELECT EXISTS (
			SELECT 1 FROM exchange_rates
			WHERE provider_id = $1 AND base_currency = $2 AND date = $3
		);
	`

	var exists bool
	err := r.Pool.QueryRow(ctx, query, providerID, strings.ToUpper(baseCurrency), domain.Day(date)).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("failed to check exchange rate existence: %w", err)
	}
	return exists, nil
}

// MinDate returns the earliest stored date, optionally restricted to one
// provider. Returns nil when the store is empty.
func (r *PgxRateRepository) MinDate(ctx context.Context, providerID *int) (*time.Time, error) {
	var minDate *time.Time
	var err error
	if providerID != nil {
		err = r.Pool.QueryRow(ctx,
			`SELECT MIN(date) FROM exchange_rates WHERE provider_id = $1;`, *providerID).Scan(&minDate)
	} else {
		err = r.Pool.QueryRow(ctx, `SELECT MIN(date) FROM exchange_rates;`).Scan(&minDate)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find minimum exchange rate date: %w", err)
	}
	return minDate, nil
}

func scanRecords(rows pgx.Rows) ([]domain.RateRecord, error) {
	var records []domain.RateRecord
	for rows.Next() {
		var rec domain.RateRecord
		if err := rows.Scan(&rec.Date, &rec.Currency, &rec.BaseCurrency, &rec.Rate, &rec.ProviderID, &rec.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan exchange rate: %w", err)
		}
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating exchange rates: %w", err)
	}
	return records, nil
}
