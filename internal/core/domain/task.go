package domain

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// FetchTask is one schedulable unit of fetch work. Tasks are immutable values:
// a retry or a backfill step always produces a new task via WithRetry/NextDay,
// never mutates an existing one.
type FetchTask struct {
	TaskID      string
	ProviderKey string
	Date        time.Time
	// Backfill is the number of additional previous days to load after this one.
	Backfill int
	// NoRateStreak counts consecutive empty days seen by this backfill chain.
	NoRateStreak int
	RetryCount   int
}

// NewFetchTask creates a task for one provider/day fetch.
func NewFetchTask(providerKey string, date time.Time, backfill int) FetchTask {
	return FetchTask{
		TaskID:      uuid.NewString(),
		ProviderKey: providerKey,
		Date:        Day(date),
		Backfill:    backfill,
	}
}

// DedupKey identifies the fetch target. The queue collapses duplicate in-flight
// tasks with the same key so a given (provider, day) is fetched at most once
// concurrently.
func (t FetchTask) DedupKey() string {
	return fmt.Sprintf("fetch-rate-%s-%s", t.Date.Format(DateLayout), t.ProviderKey)
}

// WithRetry returns a copy with the retry counter incremented. The ID is kept:
// a retry is the same unit of work, and the queue recognizes it as such when
// the handler re-enqueues it mid-execution.
func (t FetchTask) WithRetry() FetchTask {
	next := t
	next.RetryCount++
	return next
}

// NextDay returns the follow-up task of a backfill chain, targeting date with
// one less day left to load.
func (t FetchTask) NextDay(date time.Time, noRateStreak int) FetchTask {
	return FetchTask{
		TaskID:       uuid.NewString(),
		ProviderKey:  t.ProviderKey,
		Date:         Day(date),
		Backfill:     t.Backfill - 1,
		NoRateStreak: noRateStreak,
	}
}
