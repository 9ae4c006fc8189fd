package schedule

import (
	"context"
	"time"

	"github.com/harrison/resched/internal/metadata"
	"github.com/harrison/resched/internal/todoist"
)

// Tracker maintains the failure and success counters on task metadata
// records.
type Tracker struct {
	store  *metadata.Store
	clock  func() time.Time
	dryRun bool
}

// NewTracker creates a tracker over the given metadata store. In dry-run
// mode counters are computed in memory but never persisted.
func NewTracker(store *metadata.Store, dryRun bool) *Tracker {
	return &Tracker{
		store:  store,
		clock:  time.Now,
		dryRun: dryRun,
	}
}

// SetClock overrides the tracker's time source. Used by tests.
func (t *Tracker) SetClock(clock func() time.Time) {
	t.clock = clock
}

// MarkFailure increments the task's failure counter and stamps last_failed,
// returning the updated record. The increment is not idempotent: every call
// counts, including repeat runs over the same overdue set.
func (t *Tracker) MarkFailure(ctx context.Context, task todoist.Task) (metadata.Record, error) {
	rec := t.store.Get(ctx, task.ID)
	failures := rec.Failures + 1
	lastFailed := t.clock().Format(time.RFC3339)

	if t.dryRun {
		return rec.Apply(metadata.Update{
			Failures:   &failures,
			LastFailed: &lastFailed,
		}), nil
	}

	return t.store.Merge(ctx, task.ID, metadata.Update{
		Failures:   &failures,
		LastFailed: &lastFailed,
	})
}

// TrackCompletion records a completed task, incrementing the success counter
// at most once per distinct completion timestamp. It reports whether this
// call counted a new completion. Tasks without a completion timestamp are
// ignored.
func (t *Tracker) TrackCompletion(ctx context.Context, task todoist.Task) (bool, error) {
	if !task.IsCompleted() {
		return false, nil
	}

	rec := t.store.Get(ctx, task.ID)
	if rec.LastCompletion == task.CompletedAt {
		// Already counted this completion event.
		return false, nil
	}

	successes := rec.Successes + 1
	completedAt := task.CompletedAt

	if t.dryRun {
		return true, nil
	}

	_, err := t.store.Merge(ctx, task.ID, metadata.Update{
		Successes:      &successes,
		LastCompletion: &completedAt,
	})
	if err != nil {
		return false, err
	}
	return true, nil
}
