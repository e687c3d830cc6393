package services_test

import (
	"context"
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/SscSPs/fx_rates_service/internal/apperrors"
	"github.com/SscSPs/fx_rates_service/internal/core/domain"
	"github.com/stretchr/testify/mock"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func day(s string) time.Time {
	t, err := time.ParseInLocation(domain.DateLayout, s, time.UTC)
	if err != nil {
		panic(err)
	}
	return t
}

// --- Mock RateRepository ---

type MockRateRepository struct {
	mock.Mock
}

func (m *MockRateRepository) InsertRatesIfAbsent(ctx context.Context, date time.Time, providerID int, baseCurrency string, rates map[string]string) error {
	args := m.Called(ctx, date, providerID, baseCurrency, rates)
	return args.Error(0)
}

func (m *MockRateRepository) FindRecentRecords(ctx context.Context, providerID int, currency, baseCurrency string, maxDate time.Time, limit int) ([]domain.RateRecord, error) {
	args := m.Called(ctx, providerID, currency, baseCurrency, maxDate, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.RateRecord), args.Error(1)
}

func (m *MockRateRepository) FindRecordsInRange(ctx context.Context, providerID int, currency, baseCurrency string, start, end time.Time) ([]domain.RateRecord, error) {
	args := m.Called(ctx, providerID, currency, baseCurrency, start, end)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.RateRecord), args.Error(1)
}

func (m *MockRateRepository) FindOneInRange(ctx context.Context, providerID int, baseCurrency string, minDate, maxDate time.Time) (*domain.RateRecord, error) {
	args := m.Called(ctx, providerID, baseCurrency, minDate, maxDate)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.RateRecord), args.Error(1)
}

func (m *MockRateRepository) RecordExists(ctx context.Context, providerID int, baseCurrency string, date time.Time) (bool, error) {
	args := m.Called(ctx, providerID, baseCurrency, date)
	return args.Bool(0), args.Error(1)
}

func (m *MockRateRepository) MinDate(ctx context.Context, providerID *int) (*time.Time, error) {
	args := m.Called(ctx, providerID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*time.Time), args.Error(1)
}

// --- Mock Importer ---

type MockImporter struct {
	mock.Mock
}

func (m *MockImporter) Import(ctx context.Context, providerKey string, date time.Time) (domain.FetchStatus, time.Time, error) {
	args := m.Called(ctx, providerKey, date)
	return args.Get(0).(domain.FetchStatus), args.Get(1).(time.Time), args.Error(2)
}

// --- Recording queue ---

type enqueuedTask struct {
	task  domain.FetchTask
	delay time.Duration
}

// recordingQueue captures enqueued tasks so tests can assert on scheduling
// decisions without running workers.
type recordingQueue struct {
	mu    sync.Mutex
	tasks []enqueuedTask
}

func (q *recordingQueue) Enqueue(_ context.Context, task domain.FetchTask, delay time.Duration) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.tasks = append(q.tasks, enqueuedTask{task: task, delay: delay})
	return nil
}

func (q *recordingQueue) all() []enqueuedTask {
	q.mu.Lock()
	defer q.mu.Unlock()
	return append([]enqueuedTask(nil), q.tasks...)
}

// --- Stub provider ---

// stubProvider is a configurable in-test provider adapter.
type stubProvider struct {
	key         string
	id          int
	base        string
	lag         int
	active      bool
	currencies  []string
	limit       int
	limitPeriod time.Duration
	delay       time.Duration
	ratesFn     func(ctx context.Context, date time.Time) (domain.RatesResult, error)
}

func (p *stubProvider) Key() string                       { return p.key }
func (p *stubProvider) ID() int                           { return p.id }
func (p *stubProvider) BaseCurrency() string              { return p.base }
func (p *stubProvider) HomePage() string                  { return "https://example.test" }
func (p *stubProvider) Description() string               { return "stub provider" }
func (p *stubProvider) DaysLag() int                      { return p.lag }
func (p *stubProvider) Active() bool                      { return p.active }
func (p *stubProvider) AvailableCurrencies() []string     { return p.currencies }
func (p *stubProvider) RequestLimit() int                 { return p.limit }
func (p *stubProvider) RequestLimitPeriod() time.Duration { return p.limitPeriod }
func (p *stubProvider) RequestDelay() time.Duration       { return p.delay }

func (p *stubProvider) RatesByDate(ctx context.Context, date time.Time) (domain.RatesResult, error) {
	if p.ratesFn == nil {
		panic("unexpected RatesByDate call on " + p.key)
	}
	return p.ratesFn(ctx, date)
}

func (p *stubProvider) RatesByRange(_ context.Context, _, _ time.Time) ([]domain.RatesResult, error) {
	return nil, apperrors.ErrUnsupportedOperation
}
