package services

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/SscSPs/fx_rates_service/internal/apperrors"
	"github.com/SscSPs/fx_rates_service/internal/core/domain"
	"github.com/SscSPs/fx_rates_service/internal/core/ports"
	"github.com/SscSPs/fx_rates_service/internal/utils/decimals"
)

// existingDataWindow is the trailing span checked before calling a provider:
// any stored record for the provider in (date-window, date] means the day is
// already covered (directly or through a corrected earlier day).
const existingDataWindow = 10

// ImporterService orchestrates one provider/day import: quota guards, the
// provider call, consistency monitoring, corrected-day recording and the
// idempotent persist.
type ImporterService struct {
	logger    *slog.Logger
	registry  *RegistryService
	rateRepo  ports.RateRepository
	limits    ports.RateLimitCache
	corrected ports.CorrectedDayCache
	scale     int
}

// NewImporterService creates an ImporterService.
func NewImporterService(logger *slog.Logger, registry *RegistryService, rateRepo ports.RateRepository, limits ports.RateLimitCache, corrected ports.CorrectedDayCache, scale int) *ImporterService {
	return &ImporterService{
		logger:    logger,
		registry:  registry,
		rateRepo:  rateRepo,
		limits:    limits,
		corrected: corrected,
		scale:     scale,
	}
}

// Import loads the provider's rates for the requested day. It returns the
// outcome status and the day the data actually applies to, which may be
// earlier than requested.
//
// The stored-data check runs before any provider call and wins over
// corrected-day derivation, so a day already covered through an earlier
// publication never costs provider quota.
func (s *ImporterService) Import(ctx context.Context, providerKey string, date time.Time) (domain.FetchStatus, time.Time, error) {
	day := domain.Day(date)

	provider, err := s.registry.Get(providerKey)
	if err != nil {
		return "", day, err
	}

	if until := s.limits.BlockedUntil(ctx, providerKey); until != nil {
		return "", day, apperrors.NewLimitExceeded(time.Until(*until))
	}

	// Days inside the provider's reporting lag cannot have data yet.
	newest := domain.Day(time.Now().UTC()).AddDate(0, 0, -provider.DaysLag())
	if day.After(newest) {
		return "", day, apperrors.ErrNoDataAvailable
	}

	existing, err := s.rateRepo.FindOneInRange(ctx, provider.ID(), provider.BaseCurrency(), day.AddDate(0, 0, -existingDataWindow), day)
	if err != nil {
		return "", day, err
	}
	if existing != nil {
		return domain.FetchStatusAlreadyExists, existing.Date, nil
	}

	result, err := provider.RatesByDate(ctx, day)
	if err != nil {
		if le, ok := apperrors.AsLimitExceeded(err); ok {
			s.limits.Block(ctx, providerKey, le.RetryAfter)
			s.logger.Warn("provider blocked on quota",
				slog.String("provider", providerKey),
				slog.Duration("retryAfter", le.RetryAfter))
		}
		return "", day, err
	}

	if provider.RequestLimit() > 0 {
		if _, err := s.limits.Increment(ctx, providerKey, int64(provider.RequestLimit()), provider.RequestLimitPeriod()); err != nil {
			s.logger.Warn("failed to record request against quota",
				slog.String("provider", providerKey), slog.Any("error", err))
		}
	}

	if len(result.Rates) == 0 {
		return domain.FetchStatusEmpty, result.Date, nil
	}

	s.logConsistency(provider, result)

	// Every day between the actual publication and the requested day resolves
	// to the publication.
	if result.Date.Before(day) {
		for d := result.Date.AddDate(0, 0, 1); !d.After(day); d = d.AddDate(0, 0, 1) {
			s.corrected.Set(ctx, providerKey, d, result.Date)
		}
	}

	rates := make(map[string]string, len(result.Rates))
	for currency, value := range result.Rates {
		rounded, err := decimals.Round(value, s.scale)
		if err != nil {
			return "", day, fmt.Errorf("%s: non-numeric rate for %s: %w", providerKey, currency, err)
		}
		rates[currency] = rounded
	}

	if err := s.rateRepo.InsertRatesIfAbsent(ctx, result.Date, provider.ID(), result.BaseCurrency, rates); err != nil {
		return "", day, err
	}

	s.logger.Info("rates imported",
		slog.String("provider", providerKey),
		slog.String("date", result.Date.Format(domain.DateLayout)),
		slog.Int("currencies", len(rates)))

	return domain.FetchStatusSuccess, result.Date, nil
}

// logConsistency compares the declared currency list with the delivered one
// in both directions. Drift is only logged; the delivered data is stored.
func (s *ImporterService) logConsistency(provider ports.Provider, result domain.RatesResult) {
	declared := make(map[string]bool, len(provider.AvailableCurrencies()))
	for _, c := range provider.AvailableCurrencies() {
		declared[c] = true
	}

	var missing, extra []string
	for c := range declared {
		if _, ok := result.Rates[c]; !ok {
			missing = append(missing, c)
		}
	}
	for c := range result.Rates {
		if !declared[c] {
			extra = append(extra, c)
		}
	}

	if len(missing) > 0 {
		s.logger.Warn("declared currencies missing from provider response",
			slog.String("provider", provider.Key()),
			slog.String("date", result.Date.Format(domain.DateLayout)),
			slog.Any("currencies", missing))
	}
	if len(extra) > 0 {
		s.logger.Warn("provider delivered undeclared currencies",
			slog.String("provider", provider.Key()),
			slog.String("date", result.Date.Format(domain.DateLayout)),
			slog.Any("currencies", extra))
	}
}
