// Package schedule implements the rescheduling engine: exponential backoff
// from failure counts, success-ratio ranking, day-spreading of regular tasks,
// and the batch orchestration that applies the resulting schedule.
package schedule

import "github.com/harrison/resched/internal/metadata"

// MaxDelayHours caps the backoff delay at one week.
const MaxDelayHours = 168

// DelayHours returns the retry delay for a task with the given cumulative
// failure count: 24 hours doubled per consecutive failure, capped at one
// week. Callers pass the post-increment count, which is always >= 1.
func DelayHours(failures int) int {
	if failures <= 1 {
		return 24
	}
	// The cap is reached at four failures; shifting beyond that would
	// overflow for large counts.
	if failures >= 4 {
		return MaxDelayHours
	}
	return 24 << (failures - 1)
}

// SuccessRatio returns the smoothed success-to-failure ratio used to rank
// regular tasks. The +1 on both sides avoids division by zero and puts a
// brand-new task (0 successes, 0 failures) at exactly 1.0.
func SuccessRatio(rec metadata.Record) float64 {
	return float64(rec.Successes+1) / float64(rec.Failures+1)
}
