package services_test

import (
	"context"
	"testing"

	"github.com/SscSPs/fx_rates_service/internal/apperrors"
	"github.com/SscSPs/fx_rates_service/internal/core/ports"
	"github.com/SscSPs/fx_rates_service/internal/core/services"
	"github.com/SscSPs/fx_rates_service/internal/repositories/cache"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/suite"
)

type RegistryServiceTestSuite struct {
	suite.Suite
	mockRateRepo *MockRateRepository
	active       *stubProvider
	inactive     *stubProvider
	service      *services.RegistryService
}

func (suite *RegistryServiceTestSuite) SetupTest() {
	suite.mockRateRepo = new(MockRateRepository)
	suite.active = &stubProvider{
		key:        "testbank",
		id:         99,
		base:       "EUR",
		active:     true,
		currencies: []string{"USD", "JPY"},
	}
	suite.inactive = &stubProvider{key: "dormant", id: 100, base: "USD"}

	suite.service = services.NewRegistryService(testLogger(),
		[]ports.Provider{suite.active, suite.inactive},
		map[string]error{"keyless": apperrors.NewDisabledProvider("keyless: credential not configured")},
		suite.mockRateRepo, cache.NewProviderListCache(cache.NewMemoryCache()))
}

func (suite *RegistryServiceTestSuite) TestGet() {
	p, err := suite.service.Get("testbank")
	suite.Require().NoError(err)
	suite.Equal("testbank", p.Key())

	_, err = suite.service.Get("keyless")
	suite.True(apperrors.IsDisabledProvider(err))

	_, err = suite.service.Get("nope")
	suite.Require().ErrorIs(err, apperrors.ErrProviderNotFound)
}

func (suite *RegistryServiceTestSuite) TestActive() {
	active := suite.service.Active()
	suite.Require().Len(active, 1)
	suite.Equal("testbank", active[0].Key())
}

func (suite *RegistryServiceTestSuite) TestListAll_CachesAssembledListing() {
	ctx := context.Background()
	min := day("2023-09-01")

	id := 99
	suite.mockRateRepo.On("MinDate", ctx, &id).Return(&min, nil).Once()

	infos, err := suite.service.ListAll(ctx, false)
	suite.Require().NoError(err)
	suite.Require().Len(infos, 1)
	suite.Equal("testbank", infos[0].Key)
	suite.Equal("EUR", infos[0].BaseCurrency)
	suite.Equal([]string{"USD", "JPY"}, infos[0].AvailableCurrencies)
	suite.Require().NotNil(infos[0].MinDate)
	suite.Equal("2023-09-01", *infos[0].MinDate)

	// Served from the cache; the Once expectation above would reject a second
	// repository call.
	again, err := suite.service.ListAll(ctx, false)
	suite.Require().NoError(err)
	suite.Equal(infos, again)
	suite.mockRateRepo.AssertExpectations(suite.T())
}

func (suite *RegistryServiceTestSuite) TestListAll_ForceRebuilds() {
	ctx := context.Background()

	suite.mockRateRepo.On("MinDate", ctx, mock.Anything).Return(nil, nil).Times(2)

	_, err := suite.service.ListAll(ctx, false)
	suite.Require().NoError(err)

	infos, err := suite.service.ListAll(ctx, true)
	suite.Require().NoError(err)
	suite.Require().Len(infos, 1)
	suite.Nil(infos[0].MinDate)
	suite.mockRateRepo.AssertExpectations(suite.T())
}

func TestRegistryServiceTestSuite(t *testing.T) {
	suite.Run(t, new(RegistryServiceTestSuite))
}
