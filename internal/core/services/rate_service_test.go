package services_test

import (
	"context"
	"testing"

	"github.com/SscSPs/fx_rates_service/internal/apperrors"
	"github.com/SscSPs/fx_rates_service/internal/core/domain"
	"github.com/SscSPs/fx_rates_service/internal/core/ports"
	"github.com/SscSPs/fx_rates_service/internal/core/services"
	"github.com/SscSPs/fx_rates_service/internal/repositories/cache"
	"github.com/stretchr/testify/suite"
)

type RateServiceTestSuite struct {
	suite.Suite
	mockRateRepo *MockRateRepository
	queue        *recordingQueue
	corrected    *cache.CorrectedDayCache
	service      *services.RateService
}

func (suite *RateServiceTestSuite) SetupTest() {
	suite.mockRateRepo = new(MockRateRepository)
	suite.queue = new(recordingQueue)

	kv := cache.NewMemoryCache()
	suite.corrected = cache.NewCorrectedDayCache(kv)

	provider := &stubProvider{
		key:        "testbank",
		id:         99,
		base:       "EUR",
		active:     true,
		currencies: []string{"USD", "JPY"},
	}
	registry := services.NewRegistryService(testLogger(),
		[]ports.Provider{provider}, nil,
		suite.mockRateRepo, cache.NewProviderListCache(kv))

	suite.service = services.NewRateService(testLogger(), registry, suite.mockRateRepo,
		suite.corrected, cache.NewRateResponseCache(kv), cache.NewTimeseriesCache(kv),
		suite.queue, 8)
}

func (suite *RateServiceTestSuite) TestGetRate_DirectWithDiff() {
	ctx := context.Background()
	target := day("2024-03-15")

	suite.mockRateRepo.On("FindRecentRecords", ctx, 99, "USD", "EUR", target, 2).
		Return([]domain.RateRecord{
			{Date: target, Currency: "USD", BaseCurrency: "EUR", Rate: "1.08500000"},
			{Date: day("2024-03-14"), Currency: "USD", BaseCurrency: "EUR", Rate: "1.07000000"},
		}, nil).Once()

	resp, err := suite.service.GetRate(ctx, "testbank", "usd", "eur", target)

	suite.Require().NoError(err)
	suite.Equal("1.08500000", resp.Rate)
	suite.Equal("2024-03-15", resp.Date)
	suite.Require().NotNil(resp.Diff)
	suite.Equal("0.01500000", *resp.Diff)
	suite.Require().NotNil(resp.DateDiff)
	suite.Equal("2024-03-14", *resp.DateDiff)
	suite.Empty(suite.queue.all())

	// A repeated lookup is served from the cache; the Once expectation above
	// would reject a second repository call.
	again, err := suite.service.GetRate(ctx, "testbank", "USD", "EUR", target)
	suite.Require().NoError(err)
	suite.Equal(resp.Rate, again.Rate)
	suite.mockRateRepo.AssertExpectations(suite.T())
}

func (suite *RateServiceTestSuite) TestGetRate_SingleRecordFallbackNotCached() {
	ctx := context.Background()
	target := day("2024-03-15")
	found := day("2024-03-13")

	suite.mockRateRepo.On("FindRecentRecords", ctx, 99, "USD", "EUR", target, 2).
		Return([]domain.RateRecord{
			{Date: found, Currency: "USD", BaseCurrency: "EUR", Rate: "1.08500000"},
		}, nil).Twice()

	resp, err := suite.service.GetRate(ctx, "testbank", "USD", "EUR", target)

	suite.Require().NoError(err)
	suite.Equal("1.08500000", resp.Rate)
	suite.Equal("2024-03-13", resp.Date)
	suite.Nil(resp.Diff)
	suite.True(resp.IsFallback())

	// The comparison point is requested from the day before the found record.
	tasks := suite.queue.all()
	suite.Require().Len(tasks, 1)
	suite.Equal(day("2024-03-12"), tasks[0].task.Date)

	// Fallbacks are not cached, so the second call hits the repository again.
	_, err = suite.service.GetRate(ctx, "testbank", "USD", "EUR", target)
	suite.Require().NoError(err)
	suite.mockRateRepo.AssertExpectations(suite.T())
}

func (suite *RateServiceTestSuite) TestGetRate_StaleSecondRecordForfeitsDiff() {
	ctx := context.Background()
	target := day("2024-03-15")

	// The second record sits five days back with no corrected-day entries in
	// between, so it is a data hole rather than a comparison point.
	suite.mockRateRepo.On("FindRecentRecords", ctx, 99, "USD", "EUR", target, 2).
		Return([]domain.RateRecord{
			{Date: target, Currency: "USD", BaseCurrency: "EUR", Rate: "1.08500000"},
			{Date: day("2024-03-10"), Currency: "USD", BaseCurrency: "EUR", Rate: "1.07000000"},
		}, nil).Twice()

	resp, err := suite.service.GetRate(ctx, "testbank", "USD", "EUR", target)

	suite.Require().NoError(err)
	suite.Equal("1.08500000", resp.Rate)
	suite.Nil(resp.Diff)
	suite.Nil(resp.DateDiff)
	suite.True(resp.IsFallback())

	// The missing day is requested so the hole can heal.
	tasks := suite.queue.all()
	suite.Require().Len(tasks, 1)
	suite.Equal(day("2024-03-14"), tasks[0].task.Date)

	// Provisional answers are not cached.
	_, err = suite.service.GetRate(ctx, "testbank", "USD", "EUR", target)
	suite.Require().NoError(err)
	suite.mockRateRepo.AssertExpectations(suite.T())
}

func (suite *RateServiceTestSuite) TestGetRate_CorrectedPreviousDayKeepsDiff() {
	ctx := context.Background()
	target := day("2024-03-15")

	// The day before the record resolves to an older publication day, so the
	// older second record is the legitimate comparison point.
	suite.corrected.Set(ctx, "testbank", day("2024-03-14"), day("2024-03-10"))

	suite.mockRateRepo.On("FindRecentRecords", ctx, 99, "USD", "EUR", target, 2).
		Return([]domain.RateRecord{
			{Date: target, Currency: "USD", BaseCurrency: "EUR", Rate: "1.08500000"},
			{Date: day("2024-03-10"), Currency: "USD", BaseCurrency: "EUR", Rate: "1.07000000"},
		}, nil).Once()

	resp, err := suite.service.GetRate(ctx, "testbank", "USD", "EUR", target)

	suite.Require().NoError(err)
	suite.Require().NotNil(resp.Diff)
	suite.Equal("0.01500000", *resp.Diff)
	suite.Require().NotNil(resp.DateDiff)
	suite.Equal("2024-03-10", *resp.DateDiff)
	suite.Empty(suite.queue.all())
}

func (suite *RateServiceTestSuite) TestGetRate_NoRecordsEnqueuesFetches() {
	ctx := context.Background()
	target := day("2024-03-15")

	suite.mockRateRepo.On("FindRecentRecords", ctx, 99, "USD", "EUR", target, 2).
		Return([]domain.RateRecord{}, nil).Once()

	_, err := suite.service.GetRate(ctx, "testbank", "USD", "EUR", target)

	suite.Require().ErrorIs(err, apperrors.ErrRateNotFound)

	tasks := suite.queue.all()
	suite.Require().Len(tasks, 2)
	suite.Equal(day("2024-03-15"), tasks[0].task.Date)
	suite.Equal(day("2024-03-14"), tasks[1].task.Date)
}

func (suite *RateServiceTestSuite) TestGetRate_CorrectedDayRedirect() {
	ctx := context.Background()
	saturday := day("2024-03-16")
	friday := day("2024-03-15")
	suite.corrected.Set(ctx, "testbank", saturday, friday)

	suite.mockRateRepo.On("FindRecentRecords", ctx, 99, "USD", "EUR", friday, 2).
		Return([]domain.RateRecord{
			{Date: friday, Currency: "USD", BaseCurrency: "EUR", Rate: "1.08500000"},
			{Date: day("2024-03-14"), Currency: "USD", BaseCurrency: "EUR", Rate: "1.07000000"},
		}, nil).Once()

	resp, err := suite.service.GetRate(ctx, "testbank", "USD", "EUR", saturday)

	suite.Require().NoError(err)
	suite.Equal("2024-03-15", resp.Date)
	suite.mockRateRepo.AssertExpectations(suite.T())
}

func (suite *RateServiceTestSuite) TestGetRate_CrossTriangulation() {
	ctx := context.Background()
	target := day("2024-03-15")
	previous := day("2024-03-14")

	suite.mockRateRepo.On("FindRecentRecords", ctx, 99, "USD", "EUR", target, 2).
		Return([]domain.RateRecord{
			{Date: target, Currency: "USD", BaseCurrency: "EUR", Rate: "1.08500000"},
			{Date: previous, Currency: "USD", BaseCurrency: "EUR", Rate: "1.07000000"},
		}, nil).Once()
	suite.mockRateRepo.On("FindRecentRecords", ctx, 99, "JPY", "EUR", target, 2).
		Return([]domain.RateRecord{
			{Date: target, Currency: "JPY", BaseCurrency: "EUR", Rate: "162.00000000"},
			{Date: previous, Currency: "JPY", BaseCurrency: "EUR", Rate: "160.00000000"},
		}, nil).Once()

	resp, err := suite.service.GetRate(ctx, "testbank", "USD", "JPY", target)

	suite.Require().NoError(err)
	// 1.085 / 162 and its previous-day counterpart 1.07 / 160.
	suite.Equal("0.00669753", resp.Rate)
	suite.Require().NotNil(resp.Diff)
	suite.Equal("0.00001003", *resp.Diff)
	suite.Require().NotNil(resp.DateDiff)
	suite.Equal("2024-03-14", *resp.DateDiff)
	suite.mockRateRepo.AssertExpectations(suite.T())
}

func (suite *RateServiceTestSuite) TestGetRate_CrossZeroPreviousBaseForfeitsDiff() {
	ctx := context.Background()
	target := day("2024-03-15")
	previous := day("2024-03-14")

	suite.mockRateRepo.On("FindRecentRecords", ctx, 99, "USD", "EUR", target, 2).
		Return([]domain.RateRecord{
			{Date: target, Currency: "USD", BaseCurrency: "EUR", Rate: "1.08500000"},
			{Date: previous, Currency: "USD", BaseCurrency: "EUR", Rate: "1.07000000"},
		}, nil).Once()
	// Previous base leg reconstructs to zero.
	suite.mockRateRepo.On("FindRecentRecords", ctx, 99, "JPY", "EUR", target, 2).
		Return([]domain.RateRecord{
			{Date: target, Currency: "JPY", BaseCurrency: "EUR", Rate: "1.00000000"},
			{Date: previous, Currency: "JPY", BaseCurrency: "EUR", Rate: "0.00000000"},
		}, nil).Once()

	resp, err := suite.service.GetRate(ctx, "testbank", "USD", "JPY", target)

	suite.Require().NoError(err)
	suite.Equal("1.08500000", resp.Rate)
	suite.Nil(resp.Diff)
}

func (suite *RateServiceTestSuite) TestGetTimeseries_DirectCached() {
	ctx := context.Background()
	start, end := day("2024-03-11"), day("2024-03-13")

	suite.mockRateRepo.On("FindRecordsInRange", ctx, 99, "USD", "EUR", start, end).
		Return([]domain.RateRecord{
			{Date: day("2024-03-11"), Currency: "USD", BaseCurrency: "EUR", Rate: "1.07000000"},
			{Date: day("2024-03-13"), Currency: "USD", BaseCurrency: "EUR", Rate: "1.08500000"},
		}, nil).Once()

	resp, err := suite.service.GetTimeseries(ctx, "testbank", "USD", "EUR", start, end)

	suite.Require().NoError(err)
	suite.Equal("USD", resp.Currency)
	suite.Equal("EUR", resp.BaseCurrency)
	suite.Len(resp.Rates, 2)
	suite.Equal("1.07000000", resp.Rates["2024-03-11"])
	suite.Equal("1.08500000", resp.Rates["2024-03-13"])

	// Second lookup is served from the cache.
	again, err := suite.service.GetTimeseries(ctx, "testbank", "USD", "EUR", start, end)
	suite.Require().NoError(err)
	suite.Equal(resp.Rates, again.Rates)
	suite.mockRateRepo.AssertExpectations(suite.T())
}

func (suite *RateServiceTestSuite) TestGetTimeseries_CrossSkipsIncompleteDays() {
	ctx := context.Background()
	start, end := day("2024-03-11"), day("2024-03-13")

	suite.mockRateRepo.On("FindRecordsInRange", ctx, 99, "USD", "EUR", start, end).
		Return([]domain.RateRecord{
			{Date: day("2024-03-11"), Currency: "USD", BaseCurrency: "EUR", Rate: "1.07000000"},
			{Date: day("2024-03-12"), Currency: "USD", BaseCurrency: "EUR", Rate: "1.08500000"},
		}, nil).Once()
	suite.mockRateRepo.On("FindRecordsInRange", ctx, 99, "JPY", "EUR", start, end).
		Return([]domain.RateRecord{
			{Date: day("2024-03-11"), Currency: "JPY", BaseCurrency: "EUR", Rate: "160.00000000"},
		}, nil).Once()

	resp, err := suite.service.GetTimeseries(ctx, "testbank", "USD", "JPY", start, end)

	suite.Require().NoError(err)
	// Only the day with both legs survives the join.
	suite.Len(resp.Rates, 1)
	suite.Equal("0.00668750", resp.Rates["2024-03-11"])
}

func (suite *RateServiceTestSuite) TestGetTimeseries_InvalidRange() {
	_, err := suite.service.GetTimeseries(context.Background(), "testbank", "USD", "EUR",
		day("2024-03-13"), day("2024-03-11"))
	suite.Require().Error(err)
}

func (suite *RateServiceTestSuite) TestGetRate_UnknownProvider() {
	_, err := suite.service.GetRate(context.Background(), "nope", "USD", "EUR", day("2024-03-15"))
	suite.Require().ErrorIs(err, apperrors.ErrProviderNotFound)
}

func TestRateServiceTestSuite(t *testing.T) {
	suite.Run(t, new(RateServiceTestSuite))
}
