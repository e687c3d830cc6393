package services

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/SscSPs/fx_rates_service/internal/apperrors"
	"github.com/SscSPs/fx_rates_service/internal/core/domain"
	"github.com/SscSPs/fx_rates_service/internal/core/ports"
)

// retrySchedule spaces out retries of unexpectedly failed fetches. After the
// last step the chain is dropped with a fatal log.
var retrySchedule = []time.Duration{
	10 * time.Minute,
	time.Hour,
	24 * time.Hour,
	7 * 24 * time.Hour,
}

// maxNoRateStreak terminates a backfill chain once this many consecutive
// empty days have been seen; the provider's history is considered exhausted.
const maxNoRateStreak = 10

// backpressureMargin is the remaining-quota threshold under which chain steps
// start spacing themselves out.
const backpressureMargin = 10

// Importer runs one provider/day import.
type Importer interface {
	Import(ctx context.Context, providerKey string, date time.Time) (domain.FetchStatus, time.Time, error)
}

// FetchWorker executes fetch tasks: it runs the importer, schedules retries,
// and drives historical backfill chains day by day into the past.
type FetchWorker struct {
	logger   *slog.Logger
	importer Importer
	registry *RegistryService
	queue    ports.TaskQueue
	limits   ports.RateLimitCache
}

// NewFetchWorker creates a FetchWorker.
func NewFetchWorker(logger *slog.Logger, importer Importer, registry *RegistryService, queue ports.TaskQueue, limits ports.RateLimitCache) *FetchWorker {
	return &FetchWorker{
		logger:   logger,
		importer: importer,
		registry: registry,
		queue:    queue,
		limits:   limits,
	}
}

// Handle processes one fetch task. It always returns nil: every failure mode
// is either rescheduled or deliberately dropped, and the queue must not
// re-deliver on its own.
func (w *FetchWorker) Handle(ctx context.Context, task domain.FetchTask) error {
	status, resolvedDate, err := w.importer.Import(ctx, task.ProviderKey, task.Date)
	if err != nil {
		w.handleFailure(ctx, task, err)
		return nil
	}

	w.logger.Debug("fetch task done",
		slog.String("taskID", task.TaskID),
		slog.String("provider", task.ProviderKey),
		slog.String("date", task.Date.Format(domain.DateLayout)),
		slog.String("status", string(status)))

	if task.Backfill > 0 {
		w.continueChain(ctx, task, status, resolvedDate)
	}
	return nil
}

func (w *FetchWorker) handleFailure(ctx context.Context, task domain.FetchTask, err error) {
	if apperrors.IsDisabledProvider(err) {
		w.logger.Info("fetch skipped, provider disabled",
			slog.String("provider", task.ProviderKey))
		return
	}
	if errors.Is(err, apperrors.ErrNoDataAvailable) {
		w.logger.Debug("fetch skipped, date inside reporting lag",
			slog.String("provider", task.ProviderKey),
			slog.String("date", task.Date.Format(domain.DateLayout)))
		return
	}

	// Quota exhaustion reschedules the same task without consuming retry
	// budget; the provider tells us when it is worth coming back.
	if le, ok := apperrors.AsLimitExceeded(err); ok {
		w.logger.Warn("fetch delayed by provider quota",
			slog.String("provider", task.ProviderKey),
			slog.Duration("retryAfter", le.RetryAfter))
		w.enqueue(ctx, task, le.RetryAfter)
		return
	}

	if task.RetryCount >= len(retrySchedule) {
		w.logger.Error("fetch task dropped after exhausting retries",
			slog.String("taskID", task.TaskID),
			slog.String("provider", task.ProviderKey),
			slog.String("date", task.Date.Format(domain.DateLayout)),
			slog.Any("error", err))
		return
	}

	delay := retrySchedule[task.RetryCount]
	w.logger.Warn("fetch failed, retrying",
		slog.String("provider", task.ProviderKey),
		slog.String("date", task.Date.Format(domain.DateLayout)),
		slog.Int("retry", task.RetryCount+1),
		slog.Duration("delay", delay),
		slog.Any("error", err))
	w.enqueue(ctx, task.WithRetry(), delay)
}

// continueChain enqueues the next day of a backfill chain. Discovered gaps
// jump the chain straight to the day before the actual publication.
func (w *FetchWorker) continueChain(ctx context.Context, task domain.FetchTask, status domain.FetchStatus, resolvedDate time.Time) {
	streak := 0
	if status == domain.FetchStatusEmpty {
		streak = task.NoRateStreak + 1
		if streak > maxNoRateStreak {
			w.logger.Info("backfill chain terminated, provider history exhausted",
				slog.String("provider", task.ProviderKey),
				slog.String("date", task.Date.Format(domain.DateLayout)))
			return
		}
	}

	next := domain.Day(resolvedDate)
	if task.Date.Before(next) {
		next = task.Date
	}
	next = next.AddDate(0, 0, -1)

	w.enqueue(ctx, task.NextDay(next, streak), w.chainDelay(ctx, task.ProviderKey, status))
}

// chainDelay implements cooperative backpressure: chains slow to a tenth of
// the quota window when the remaining quota gets thin, and successful fetches
// additionally wait the provider's polite delay.
func (w *FetchWorker) chainDelay(ctx context.Context, providerKey string, status domain.FetchStatus) time.Duration {
	provider, err := w.registry.Get(providerKey)
	if err != nil {
		return 0
	}

	var delay time.Duration
	if limit := provider.RequestLimit(); limit > 0 {
		count, err := w.limits.Count(ctx, providerKey, int64(limit), provider.RequestLimitPeriod())
		if err == nil && int64(limit)-count <= backpressureMargin {
			delay += provider.RequestLimitPeriod() / 10
		}
	}
	if status == domain.FetchStatusSuccess {
		delay += provider.RequestDelay()
	}
	return delay
}

// StartBackfill enqueues a "load the last N days" chain for every active
// provider, starting at the newest day each provider can have published.
func (w *FetchWorker) StartBackfill(ctx context.Context, days int) {
	if days <= 0 {
		return
	}
	for _, p := range w.registry.Active() {
		start := domain.Day(time.Now().UTC()).AddDate(0, 0, -p.DaysLag())
		task := domain.NewFetchTask(p.Key(), start, days)
		w.logger.Info("backfill chain started",
			slog.String("provider", p.Key()),
			slog.String("from", start.Format(domain.DateLayout)),
			slog.Int("days", days))
		w.enqueue(ctx, task, 0)
	}
}

func (w *FetchWorker) enqueue(ctx context.Context, task domain.FetchTask, delay time.Duration) {
	if err := w.queue.Enqueue(ctx, task, delay); err != nil {
		w.logger.Error("failed to enqueue fetch task",
			slog.String("taskID", task.TaskID),
			slog.String("provider", task.ProviderKey),
			slog.Any("error", err))
	}
}
