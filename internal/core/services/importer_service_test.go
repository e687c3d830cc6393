package services_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/SscSPs/fx_rates_service/internal/apperrors"
	"github.com/SscSPs/fx_rates_service/internal/core/domain"
	"github.com/SscSPs/fx_rates_service/internal/core/ports"
	"github.com/SscSPs/fx_rates_service/internal/core/services"
	"github.com/SscSPs/fx_rates_service/internal/repositories/cache"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/suite"
)

type ImporterServiceTestSuite struct {
	suite.Suite
	mockRateRepo *MockRateRepository
	provider     *stubProvider
	limits       *cache.ProviderLimitCache
	corrected    *cache.CorrectedDayCache
	service      *services.ImporterService
}

func (suite *ImporterServiceTestSuite) SetupTest() {
	suite.mockRateRepo = new(MockRateRepository)
	suite.provider = &stubProvider{
		key:        "testbank",
		id:         99,
		base:       "EUR",
		active:     true,
		currencies: []string{"USD", "JPY"},
	}

	kv := cache.NewMemoryCache()
	suite.limits = cache.NewProviderLimitCache(kv)
	suite.corrected = cache.NewCorrectedDayCache(kv)

	registry := services.NewRegistryService(testLogger(),
		[]ports.Provider{suite.provider},
		map[string]error{"keyless": apperrors.NewDisabledProvider("keyless: credential not configured")},
		suite.mockRateRepo, cache.NewProviderListCache(kv))

	suite.service = services.NewImporterService(testLogger(), registry, suite.mockRateRepo, suite.limits, suite.corrected, 8)
}

func (suite *ImporterServiceTestSuite) expectNoStoredData() {
	suite.mockRateRepo.On("FindOneInRange", mock.Anything, 99, "EUR", mock.Anything, mock.Anything).
		Return(nil, nil).Once()
}

func (suite *ImporterServiceTestSuite) TestImport_SuccessRoundsAndPersists() {
	ctx := context.Background()
	target := domain.Day(time.Now().UTC()).AddDate(0, 0, -5)

	suite.expectNoStoredData()
	suite.provider.ratesFn = func(_ context.Context, date time.Time) (domain.RatesResult, error) {
		return domain.RatesResult{
			BaseCurrency: "EUR",
			Date:         date,
			Rates:        map[string]string{"USD": "1.085001234567", "JPY": "162.15"},
		}, nil
	}
	suite.mockRateRepo.On("InsertRatesIfAbsent", ctx, target, 99, "EUR",
		map[string]string{"USD": "1.08500123", "JPY": "162.15000000"}).Return(nil).Once()

	status, resolved, err := suite.service.Import(ctx, "testbank", target)

	suite.Require().NoError(err)
	suite.Equal(domain.FetchStatusSuccess, status)
	suite.Equal(target, resolved)
	suite.mockRateRepo.AssertExpectations(suite.T())
}

func (suite *ImporterServiceTestSuite) TestImport_BlockedProviderShortCircuits() {
	ctx := context.Background()
	suite.limits.Block(ctx, "testbank", time.Hour)

	_, _, err := suite.service.Import(ctx, "testbank", time.Now().UTC().AddDate(0, 0, -5))

	le, ok := apperrors.AsLimitExceeded(err)
	suite.Require().True(ok)
	suite.Greater(le.RetryAfter, time.Duration(0))
	suite.mockRateRepo.AssertNotCalled(suite.T(), "FindOneInRange", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func (suite *ImporterServiceTestSuite) TestImport_DateInsideReportingLag() {
	suite.provider.lag = 5

	_, _, err := suite.service.Import(context.Background(), "testbank", time.Now().UTC().AddDate(0, 0, -2))

	suite.Require().ErrorIs(err, apperrors.ErrNoDataAvailable)
}

func (suite *ImporterServiceTestSuite) TestImport_ExistingDataSkipsProviderCall() {
	ctx := context.Background()
	target := domain.Day(time.Now().UTC()).AddDate(0, 0, -5)
	stored := target.AddDate(0, 0, -2)

	suite.mockRateRepo.On("FindOneInRange", mock.Anything, 99, "EUR", target.AddDate(0, 0, -10), target).
		Return(&domain.RateRecord{Date: stored, BaseCurrency: "EUR", ProviderID: 99}, nil).Once()

	status, resolved, err := suite.service.Import(ctx, "testbank", target)

	suite.Require().NoError(err)
	suite.Equal(domain.FetchStatusAlreadyExists, status)
	suite.Equal(stored, resolved)
	suite.mockRateRepo.AssertExpectations(suite.T())
}

func (suite *ImporterServiceTestSuite) TestImport_EmptyDay() {
	ctx := context.Background()
	target := domain.Day(time.Now().UTC()).AddDate(0, 0, -5)

	suite.expectNoStoredData()
	suite.provider.ratesFn = func(_ context.Context, date time.Time) (domain.RatesResult, error) {
		return domain.RatesResult{BaseCurrency: "EUR", Date: date}, nil
	}

	status, resolved, err := suite.service.Import(ctx, "testbank", target)

	suite.Require().NoError(err)
	suite.Equal(domain.FetchStatusEmpty, status)
	suite.Equal(target, resolved)
	suite.mockRateRepo.AssertNotCalled(suite.T(), "InsertRatesIfAbsent", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func (suite *ImporterServiceTestSuite) TestImport_RecordsCorrectedDays() {
	ctx := context.Background()
	target := domain.Day(time.Now().UTC()).AddDate(0, 0, -5)
	published := target.AddDate(0, 0, -2)

	suite.expectNoStoredData()
	suite.provider.ratesFn = func(_ context.Context, _ time.Time) (domain.RatesResult, error) {
		return domain.RatesResult{
			BaseCurrency: "EUR",
			Date:         published,
			Rates:        map[string]string{"USD": "1.0850"},
		}, nil
	}
	suite.mockRateRepo.On("InsertRatesIfAbsent", ctx, published, 99, "EUR", mock.Anything).Return(nil).Once()

	status, resolved, err := suite.service.Import(ctx, "testbank", target)

	suite.Require().NoError(err)
	suite.Equal(domain.FetchStatusSuccess, status)
	suite.Equal(published, resolved)

	// Both non-publishing days resolve to the publication day; the publication
	// day itself needs no correction.
	for d := published.AddDate(0, 0, 1); !d.After(target); d = d.AddDate(0, 0, 1) {
		cd := suite.corrected.Get(ctx, "testbank", d)
		suite.Require().NotNil(cd)
		suite.Equal(published, *cd)
	}
	suite.Nil(suite.corrected.Get(ctx, "testbank", published))
}

func (suite *ImporterServiceTestSuite) TestImport_QuotaErrorBlocksProvider() {
	ctx := context.Background()

	suite.expectNoStoredData()
	suite.provider.ratesFn = func(_ context.Context, _ time.Time) (domain.RatesResult, error) {
		return domain.RatesResult{}, apperrors.NewLimitExceeded(30 * time.Minute)
	}

	_, _, err := suite.service.Import(ctx, "testbank", time.Now().UTC().AddDate(0, 0, -5))

	_, ok := apperrors.AsLimitExceeded(err)
	suite.Require().True(ok)
	suite.NotNil(suite.limits.BlockedUntil(ctx, "testbank"))
}

func (suite *ImporterServiceTestSuite) TestImport_CountsAgainstQuota() {
	ctx := context.Background()
	suite.provider.limit = 100
	suite.provider.limitPeriod = time.Hour

	suite.expectNoStoredData()
	suite.provider.ratesFn = func(_ context.Context, date time.Time) (domain.RatesResult, error) {
		return domain.RatesResult{BaseCurrency: "EUR", Date: date, Rates: map[string]string{"USD": "1.0850"}}, nil
	}
	suite.mockRateRepo.On("InsertRatesIfAbsent", mock.Anything, mock.Anything, 99, "EUR", mock.Anything).Return(nil).Once()

	_, _, err := suite.service.Import(ctx, "testbank", time.Now().UTC().AddDate(0, 0, -5))
	suite.Require().NoError(err)

	count, err := suite.limits.Count(ctx, "testbank", 100, time.Hour)
	suite.Require().NoError(err)
	suite.Equal(int64(1), count)
}

func (suite *ImporterServiceTestSuite) TestImport_NonNumericRateFails() {
	ctx := context.Background()

	suite.expectNoStoredData()
	suite.provider.ratesFn = func(_ context.Context, date time.Time) (domain.RatesResult, error) {
		return domain.RatesResult{BaseCurrency: "EUR", Date: date, Rates: map[string]string{"USD": "n/a"}}, nil
	}

	_, _, err := suite.service.Import(ctx, "testbank", time.Now().UTC().AddDate(0, 0, -5))

	suite.Require().ErrorIs(err, apperrors.ErrInvalidOperand)
	suite.mockRateRepo.AssertNotCalled(suite.T(), "InsertRatesIfAbsent", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func (suite *ImporterServiceTestSuite) TestImport_UnknownAndDisabledProviders() {
	ctx := context.Background()

	_, _, err := suite.service.Import(ctx, "nope", time.Now().UTC())
	suite.Require().ErrorIs(err, apperrors.ErrProviderNotFound)

	_, _, err = suite.service.Import(ctx, "keyless", time.Now().UTC())
	suite.True(apperrors.IsDisabledProvider(err))
}

func (suite *ImporterServiceTestSuite) TestImport_RepositoryErrorPropagates() {
	ctx := context.Background()
	dbErr := errors.New("connection refused")

	suite.mockRateRepo.On("FindOneInRange", mock.Anything, 99, "EUR", mock.Anything, mock.Anything).
		Return(nil, dbErr).Once()

	_, _, err := suite.service.Import(ctx, "testbank", time.Now().UTC().AddDate(0, 0, -5))
	suite.Require().ErrorIs(err, dbErr)
}

func TestImporterServiceTestSuite(t *testing.T) {
	suite.Run(t, new(ImporterServiceTestSuite))
}
