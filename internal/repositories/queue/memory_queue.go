// Package queue provides the in-process task queue backing ports.TaskQueue.
package queue

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/SscSPs/fx_rates_service/internal/core/domain"
	"github.com/SscSPs/fx_rates_service/internal/core/ports"
)

// MemoryQueue is a delay-capable in-process task queue. Tasks sharing a
// DedupKey are collapsed while one of them is queued, waiting out a delay, or
// being executed. The executing task itself may re-enqueue its own key to
// schedule a retry; anything else targeting the same key is dropped, so a
// given fetch target runs at most once at a time.
type MemoryQueue struct {
	logger *slog.Logger
	tasks  chan domain.FetchTask

	mu       sync.Mutex
	pending  map[string]struct{}
	inflight map[string]execution
	seq      uint64

	done     chan struct{}
	stopOnce sync.Once

	wg sync.WaitGroup
}

// execution identifies one handler run of a key: the owning task and a serial
// so a finished run never clears a newer run of the same key.
type execution struct {
	taskID string
	seq    uint64
}

// NewMemoryQueue creates a queue with the given channel buffer size.
func NewMemoryQueue(logger *slog.Logger, buffer int) *MemoryQueue {
	if buffer <= 0 {
		buffer = 1024
	}
	return &MemoryQueue{
		logger:   logger,
		tasks:    make(chan domain.FetchTask, buffer),
		pending:  make(map[string]struct{}),
		inflight: make(map[string]execution),
		done:     make(chan struct{}),
	}
}

// Enqueue schedules a task after delay. Duplicate pending tasks are dropped,
// as are foreign duplicates of a task currently being executed; only the
// executing task itself may put its key back in.
func (q *MemoryQueue) Enqueue(_ context.Context, task domain.FetchTask, delay time.Duration) error {
	key := task.DedupKey()

	q.mu.Lock()
	if _, dup := q.pending[key]; dup {
		q.mu.Unlock()
		q.logger.Debug("duplicate task collapsed", slog.String("dedupKey", key))
		return nil
	}
	if exec, busy := q.inflight[key]; busy && exec.taskID != task.TaskID {
		q.mu.Unlock()
		q.logger.Debug("duplicate of executing task collapsed", slog.String("dedupKey", key))
		return nil
	}
	q.pending[key] = struct{}{}
	q.mu.Unlock()

	q.logger.Debug("task enqueued",
		slog.String("taskID", task.TaskID),
		slog.String("dedupKey", key),
		slog.Duration("delay", delay))

	if delay <= 0 {
		q.push(task)
		return nil
	}
	time.AfterFunc(delay, func() { q.push(task) })
	return nil
}

func (q *MemoryQueue) push(task domain.FetchTask) {
	select {
	case q.tasks <- task:
		return
	default:
	}
	// Buffer full; hand off without blocking the caller or the timer. The
	// done channel keeps these goroutines from outliving the workers.
	go func() {
		select {
		case q.tasks <- task:
		case <-q.done:
		}
	}()
}

// Start runs the given number of workers until ctx is cancelled.
func (q *MemoryQueue) Start(ctx context.Context, handler ports.TaskHandler, workers int) {
	if workers <= 0 {
		workers = 1
	}
	go func() {
		<-ctx.Done()
		q.stopOnce.Do(func() { close(q.done) })
	}()
	for i := 0; i < workers; i++ {
		q.wg.Add(1)
		go q.work(ctx, handler)
	}
}

func (q *MemoryQueue) work(ctx context.Context, handler ports.TaskHandler) {
	defer q.wg.Done()
	for {
		select {
		case <-ctx.Done():
			return
		case task := <-q.tasks:
			seq := q.begin(task)
			err := handler.Handle(ctx, task)
			q.finish(task, seq)
			if err != nil {
				q.logger.Error("task handler failed",
					slog.String("taskID", task.TaskID),
					slog.String("provider", task.ProviderKey),
					slog.Any("error", err))
			}
		}
	}
}

// begin moves a key from queued to executing and returns the run's serial.
func (q *MemoryQueue) begin(task domain.FetchTask) uint64 {
	key := task.DedupKey()
	q.mu.Lock()
	defer q.mu.Unlock()
	delete(q.pending, key)
	q.seq++
	q.inflight[key] = execution{taskID: task.TaskID, seq: q.seq}
	return q.seq
}

// finish releases a key unless a newer run of the same key has taken it over.
func (q *MemoryQueue) finish(task domain.FetchTask, seq uint64) {
	key := task.DedupKey()
	q.mu.Lock()
	defer q.mu.Unlock()
	if exec, ok := q.inflight[key]; ok && exec.seq == seq {
		delete(q.inflight, key)
	}
}

// Wait blocks until all workers have exited after ctx cancellation.
func (q *MemoryQueue) Wait() {
	q.wg.Wait()
}
