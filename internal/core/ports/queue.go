package ports

import (
	"context"
	"time"

	"github.com/SscSPs/fx_rates_service/internal/core/domain"
)

// TaskQueue is the async fetch-task collaborator: at-least-once delivery,
// delay-capable, and dedup-aware (while a task is queued or delayed, further
// tasks with the same DedupKey are collapsed into it; a task being handled may
// re-enqueue its own key, which is how retries work).
type TaskQueue interface {
	Enqueue(ctx context.Context, task domain.FetchTask, delay time.Duration) error
}

// TaskHandler processes one dequeued fetch task.
type TaskHandler interface {
	Handle(ctx context.Context, task domain.FetchTask) error
}
