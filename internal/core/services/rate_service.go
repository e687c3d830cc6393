package services

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/SscSPs/fx_rates_service/internal/apperrors"
	"github.com/SscSPs/fx_rates_service/internal/core/domain"
	"github.com/SscSPs/fx_rates_service/internal/core/ports"
	"github.com/SscSPs/fx_rates_service/internal/dto"
	"github.com/SscSPs/fx_rates_service/internal/utils/decimals"
)

// RateService resolves rate queries against the persisted data. Missing data
// never triggers a synchronous provider call; instead fetch tasks are enqueued
// and the caller is told to retry.
type RateService struct {
	logger    *slog.Logger
	registry  *RegistryService
	rateRepo  ports.RateRepository
	corrected ports.CorrectedDayCache
	respCache ports.RateResponseCache
	tsCache   ports.TimeseriesCache
	queue     ports.TaskQueue
	scale     int
}

// NewRateService creates a RateService.
func NewRateService(logger *slog.Logger, registry *RegistryService, rateRepo ports.RateRepository, corrected ports.CorrectedDayCache, respCache ports.RateResponseCache, tsCache ports.TimeseriesCache, queue ports.TaskQueue, scale int) *RateService {
	return &RateService{
		logger:    logger,
		registry:  registry,
		rateRepo:  rateRepo,
		corrected: corrected,
		respCache: respCache,
		tsCache:   tsCache,
		queue:     queue,
		scale:     scale,
	}
}

// GetRate resolves one rate with its day-over-day change. When the pair is
// not quoted against the provider's own base currency, both legs are resolved
// against it and triangulated.
//
// Responses missing the comparison point are returned as fallbacks and never
// cached, so they heal once the enqueued fetches land.
func (s *RateService) GetRate(ctx context.Context, providerKey, currency, baseCurrency string, date time.Time) (*dto.RateResponse, error) {
	provider, err := s.registry.Get(providerKey)
	if err != nil {
		return nil, err
	}
	currency = strings.ToUpper(currency)
	baseCurrency = strings.ToUpper(baseCurrency)
	day := domain.Day(date)

	// A known non-publishing day resolves straight to its publication day.
	if cd := s.corrected.Get(ctx, providerKey, day); cd != nil {
		day = *cd
	}

	if resp, ok := s.respCache.Get(ctx, providerKey, currency, baseCurrency, day); ok {
		return resp, nil
	}

	var resp *dto.RateResponse
	if baseCurrency == provider.BaseCurrency() {
		resp, err = s.direct(ctx, provider, currency, day)
	} else {
		resp, err = s.cross(ctx, provider, currency, baseCurrency, day)
	}
	if err != nil {
		return nil, err
	}

	if !resp.IsFallback() {
		s.respCache.Set(ctx, providerKey, currency, baseCurrency, day, *resp)
	}
	return resp, nil
}

// direct resolves a pair quoted against the provider's own base currency with
// a single two-record lookup: the newest record at or before the day carries
// the rate, and the record from the directly preceding publication day, when
// stored, the comparison point.
func (s *RateService) direct(ctx context.Context, provider ports.Provider, currency string, day time.Time) (*dto.RateResponse, error) {
	recs, err := s.rateRepo.FindRecentRecords(ctx, provider.ID(), currency, provider.BaseCurrency(), day, 2)
	if err != nil {
		return nil, err
	}

	if len(recs) == 0 {
		// Nothing stored yet; fetch the day and its predecessor so both the
		// rate and its comparison point can land.
		s.enqueueFetch(ctx, provider.Key(), day)
		s.enqueueFetch(ctx, provider.Key(), day.AddDate(0, 0, -1))
		return nil, fmt.Errorf("%w: %s/%s at %s via %s",
			apperrors.ErrRateNotFound, currency, provider.BaseCurrency(), day.Format(domain.DateLayout), provider.Key())
	}

	current := recs[0]
	resp := &dto.RateResponse{
		Rate: current.Rate,
		Date: current.Date.Format(domain.DateLayout),
	}

	// The comparison point is the day right before the served record, resolved
	// through the corrected-day table like the requested day itself. An older
	// second record is a data hole, not a comparison point.
	prevDay := current.Date.AddDate(0, 0, -1)
	if cd := s.corrected.Get(ctx, provider.Key(), prevDay); cd != nil {
		prevDay = *cd
	}
	if len(recs) < 2 || !recs[1].Date.Equal(prevDay) {
		// Comparison point missing; fetch it and answer provisionally.
		s.enqueueFetch(ctx, provider.Key(), prevDay)
		return resp, nil
	}

	previous := recs[1]
	diff, err := decimals.Sub(current.Rate, previous.Rate, s.scale)
	if err != nil {
		return nil, fmt.Errorf("failed to compute diff for %s: %w", currency, err)
	}
	dateDiff := previous.Date.Format(domain.DateLayout)
	resp.Diff = &diff
	resp.DateDiff = &dateDiff
	return resp, nil
}

// cross triangulates a pair through the provider's base currency, one level
// deep. The previous-day legs are reconstructed as rate minus diff; a zero
// previous base leg forfeits the diff rather than dividing by zero.
func (s *RateService) cross(ctx context.Context, provider ports.Provider, currency, baseCurrency string, day time.Time) (*dto.RateResponse, error) {
	curLeg, err := s.direct(ctx, provider, currency, day)
	if err != nil {
		return nil, err
	}
	baseLeg, err := s.direct(ctx, provider, baseCurrency, day)
	if err != nil {
		return nil, err
	}

	rate, err := decimals.Div(curLeg.Rate, baseLeg.Rate, s.scale)
	if err != nil {
		return nil, fmt.Errorf("%w: unusable base leg %s/%s", apperrors.ErrRateNotFound, baseCurrency, provider.BaseCurrency())
	}

	resp := &dto.RateResponse{Rate: rate, Date: curLeg.Date}
	if curLeg.Diff == nil || baseLeg.Diff == nil {
		return resp, nil
	}

	curPrev, err := decimals.Sub(curLeg.Rate, *curLeg.Diff, s.scale)
	if err != nil {
		return resp, nil
	}
	basePrev, err := decimals.Sub(baseLeg.Rate, *baseLeg.Diff, s.scale)
	if err != nil {
		return resp, nil
	}
	if cmp, err := decimals.Compare(basePrev, "0", s.scale); err != nil || cmp == 0 {
		return resp, nil
	}

	prevCross, err := decimals.Div(curPrev, basePrev, s.scale)
	if err != nil {
		return resp, nil
	}
	diff, err := decimals.Sub(rate, prevCross, s.scale)
	if err != nil {
		return resp, nil
	}
	resp.Diff = &diff
	resp.DateDiff = curLeg.DateDiff
	return resp, nil
}

// GetTimeseries resolves rates over a date range. Cross pairs are joined day
// by day; days missing either leg, or with a zero base leg, are skipped.
// Sparse results are cached like complete ones.
func (s *RateService) GetTimeseries(ctx context.Context, providerKey, currency, baseCurrency string, start, end time.Time) (*dto.TimeseriesResponse, error) {
	provider, err := s.registry.Get(providerKey)
	if err != nil {
		return nil, err
	}
	currency = strings.ToUpper(currency)
	baseCurrency = strings.ToUpper(baseCurrency)
	start, end = domain.Day(start), domain.Day(end)
	if end.Before(start) {
		return nil, fmt.Errorf("invalid range: %s after %s", start.Format(domain.DateLayout), end.Format(domain.DateLayout))
	}

	if resp, ok := s.tsCache.Get(ctx, providerKey, currency, baseCurrency, start, end); ok {
		return resp, nil
	}

	rates := make(map[string]string)
	if baseCurrency == provider.BaseCurrency() {
		recs, err := s.rateRepo.FindRecordsInRange(ctx, provider.ID(), currency, baseCurrency, start, end)
		if err != nil {
			return nil, err
		}
		for _, rec := range recs {
			rates[rec.Date.Format(domain.DateLayout)] = rec.Rate
		}
	} else {
		curRecs, err := s.rateRepo.FindRecordsInRange(ctx, provider.ID(), currency, provider.BaseCurrency(), start, end)
		if err != nil {
			return nil, err
		}
		baseRecs, err := s.rateRepo.FindRecordsInRange(ctx, provider.ID(), baseCurrency, provider.BaseCurrency(), start, end)
		if err != nil {
			return nil, err
		}
		baseByDay := make(map[string]string, len(baseRecs))
		for _, rec := range baseRecs {
			baseByDay[rec.Date.Format(domain.DateLayout)] = rec.Rate
		}
		for _, rec := range curRecs {
			key := rec.Date.Format(domain.DateLayout)
			baseRate, ok := baseByDay[key]
			if !ok {
				continue
			}
			crossRate, err := decimals.Div(rec.Rate, baseRate, s.scale)
			if err != nil {
				continue
			}
			rates[key] = crossRate
		}
	}

	resp := &dto.TimeseriesResponse{
		BaseCurrency: baseCurrency,
		Currency:     currency,
		StartDate:    start.Format(domain.DateLayout),
		EndDate:      end.Format(domain.DateLayout),
		Rates:        rates,
	}
	s.tsCache.Set(ctx, providerKey, currency, baseCurrency, start, end, *resp)
	return resp, nil
}

func (s *RateService) enqueueFetch(ctx context.Context, providerKey string, day time.Time) {
	task := domain.NewFetchTask(providerKey, day, 0)
	if err := s.queue.Enqueue(ctx, task, 0); err != nil {
		s.logger.Warn("failed to enqueue fetch task",
			slog.String("provider", providerKey),
			slog.String("date", day.Format(domain.DateLayout)),
			slog.Any("error", err))
	}
}
