package queue_test

import (
	"context"
	"log/slog"
	"runtime"
	"sync"
	"testing"
	"time"

	"github.com/SscSPs/fx_rates_service/internal/core/domain"
	"github.com/SscSPs/fx_rates_service/internal/repositories/queue"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingHandler struct {
	mu    sync.Mutex
	tasks []domain.FetchTask
	seen  chan struct{}
}

func newRecordingHandler() *recordingHandler {
	return &recordingHandler{seen: make(chan struct{}, 64)}
}

func (h *recordingHandler) Handle(_ context.Context, task domain.FetchTask) error {
	h.mu.Lock()
	h.tasks = append(h.tasks, task)
	h.mu.Unlock()
	h.seen <- struct{}{}
	return nil
}

func (h *recordingHandler) handled() []domain.FetchTask {
	h.mu.Lock()
	defer h.mu.Unlock()
	out := make([]domain.FetchTask, len(h.tasks))
	copy(out, h.tasks)
	return out
}

func waitFor(t *testing.T, ch chan struct{}, n int) {
	t.Helper()
	for i := 0; i < n; i++ {
		select {
		case <-ch:
		case <-time.After(2 * time.Second):
			t.Fatalf("timed out waiting for task %d of %d", i+1, n)
		}
	}
}

func day(s string) time.Time {
	t, err := time.ParseInLocation("2006-01-02", s, time.UTC)
	if err != nil {
		panic(err)
	}
	return t
}

func TestEnqueueDispatchesToHandler(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	h := newRecordingHandler()
	q := queue.NewMemoryQueue(slog.Default(), 16)
	q.Start(ctx, h, 2)

	task := domain.NewFetchTask("cbr", day("2024-03-15"), 0)
	require.NoError(t, q.Enqueue(ctx, task, 0))

	waitFor(t, h.seen, 1)
	handled := h.handled()
	require.Len(t, handled, 1)
	assert.Equal(t, task.TaskID, handled[0].TaskID)
}

func TestDuplicatePendingTasksCollapse(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	h := newRecordingHandler()
	q := queue.NewMemoryQueue(slog.Default(), 16)

	// Same provider/day twice while nothing drains the queue.
	first := domain.NewFetchTask("cbr", day("2024-03-15"), 0)
	second := domain.NewFetchTask("cbr", day("2024-03-15"), 0)
	require.NoError(t, q.Enqueue(ctx, first, 50*time.Millisecond))
	require.NoError(t, q.Enqueue(ctx, second, 50*time.Millisecond))

	// A different day is not collapsed.
	other := domain.NewFetchTask("cbr", day("2024-03-14"), 0)
	require.NoError(t, q.Enqueue(ctx, other, 0))

	q.Start(ctx, h, 1)
	waitFor(t, h.seen, 2)

	time.Sleep(50 * time.Millisecond)
	handled := h.handled()
	require.Len(t, handled, 2)

	ids := []string{handled[0].TaskID, handled[1].TaskID}
	assert.Contains(t, ids, first.TaskID)
	assert.Contains(t, ids, other.TaskID)
	assert.NotContains(t, ids, second.TaskID)
}

func TestHandlerMayReenqueueOwnKey(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	q := queue.NewMemoryQueue(slog.Default(), 16)
	h := newRecordingHandler()

	retried := make(chan struct{}, 1)
	q.Start(ctx, retryOnce{q: q, inner: h, retried: retried}, 1)

	task := domain.NewFetchTask("ecb", day("2024-03-15"), 0)
	require.NoError(t, q.Enqueue(ctx, task, 0))

	waitFor(t, h.seen, 2)
	handled := h.handled()
	require.Len(t, handled, 2)
	assert.Equal(t, 0, handled[0].RetryCount)
	assert.Equal(t, 1, handled[1].RetryCount)
}

type retryOnce struct {
	q       *queue.MemoryQueue
	inner   *recordingHandler
	retried chan struct{}
}

func (h retryOnce) Handle(ctx context.Context, task domain.FetchTask) error {
	if err := h.inner.Handle(ctx, task); err != nil {
		return err
	}
	if task.RetryCount == 0 {
		select {
		case h.retried <- struct{}{}:
			return h.q.Enqueue(ctx, task.WithRetry(), 0)
		default:
		}
	}
	return nil
}

type gateHandler struct {
	inner   *recordingHandler
	started chan struct{}
	release chan struct{}
}

func (h *gateHandler) Handle(ctx context.Context, task domain.FetchTask) error {
	h.started <- struct{}{}
	<-h.release
	return h.inner.Handle(ctx, task)
}

func TestExecutingTaskCollapsesDuplicates(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	h := newRecordingHandler()
	g := &gateHandler{inner: h, started: make(chan struct{}, 2), release: make(chan struct{})}
	q := queue.NewMemoryQueue(slog.Default(), 16)
	q.Start(ctx, g, 2)

	first := domain.NewFetchTask("cbr", day("2024-03-15"), 0)
	require.NoError(t, q.Enqueue(ctx, first, 0))
	waitFor(t, g.started, 1)

	// Same provider/day from elsewhere while the first task is mid-execution.
	dup := domain.NewFetchTask("cbr", day("2024-03-15"), 0)
	require.NoError(t, q.Enqueue(ctx, dup, 0))
	close(g.release)

	waitFor(t, h.seen, 1)
	time.Sleep(50 * time.Millisecond)
	handled := h.handled()
	require.Len(t, handled, 1)
	assert.Equal(t, first.TaskID, handled[0].TaskID)
}

func TestShutdownUnblocksOverflowingPushes(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())

	h := newRecordingHandler()
	q := queue.NewMemoryQueue(slog.Default(), 1)
	q.Start(ctx, h, 1)
	cancel()
	q.Wait()

	base := runtime.NumGoroutine()
	for i := 0; i < 20; i++ {
		task := domain.NewFetchTask("cbr", day("2024-03-01").AddDate(0, 0, i), 0)
		require.NoError(t, q.Enqueue(ctx, task, 0))
	}

	// Pushes past the buffer must not linger once the workers are gone.
	require.Eventually(t, func() bool {
		return runtime.NumGoroutine() <= base+1
	}, 2*time.Second, 10*time.Millisecond)
}

func TestDelayedEnqueueWaits(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	h := newRecordingHandler()
	q := queue.NewMemoryQueue(slog.Default(), 16)
	q.Start(ctx, h, 1)

	start := time.Now()
	task := domain.NewFetchTask("cnb", day("2024-03-15"), 0)
	require.NoError(t, q.Enqueue(ctx, task, 80*time.Millisecond))

	waitFor(t, h.seen, 1)
	assert.GreaterOrEqual(t, time.Since(start), 80*time.Millisecond)
}
