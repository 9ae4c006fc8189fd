package schedule

import (
	"sort"
	"time"

	"github.com/harrison/resched/internal/todoist"
)

// Candidate is an overdue task annotated with its post-increment failure
// count and the derived ranking inputs.
type Candidate struct {
	Task       todoist.Task
	Failures   int
	Ratio      float64
	DelayHours int
}

// Assignment is a scheduling decision for one task: the date it should be
// retried and the failure count to reflect in its content.
type Assignment struct {
	Task     todoist.Task
	Failures int
	Ratio    float64
	DueDate  time.Time // date-only, midnight local
}

// BuildSchedule computes new due dates for a batch of overdue tasks.
//
// Urgent tasks are always assigned today, regardless of history. Regular
// tasks are sorted by success ratio descending (stable, so ties keep their
// input order) and each is assigned max(backoffDays, position) days out:
// no task lands sooner than its backoff requires, and lower-ranked tasks are
// pushed to later days instead of piling up on the same date.
func BuildSchedule(today time.Time, urgent, regular []Candidate) []Assignment {
	today = truncateToDay(today)
	assignments := make([]Assignment, 0, len(urgent)+len(regular))

	for _, c := range urgent {
		assignments = append(assignments, Assignment{
			Task:     c.Task,
			Failures: c.Failures,
			Ratio:    c.Ratio,
			DueDate:  today,
		})
	}

	ranked := make([]Candidate, len(regular))
	copy(ranked, regular)
	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].Ratio > ranked[j].Ratio
	})

	for i, c := range ranked {
		minDelayDays := c.DelayHours / 24
		offsetDays := minDelayDays
		if i > offsetDays {
			offsetDays = i
		}
		assignments = append(assignments, Assignment{
			Task:     c.Task,
			Failures: c.Failures,
			Ratio:    c.Ratio,
			DueDate:  today.AddDate(0, 0, offsetDays),
		})
	}

	return assignments
}

// truncateToDay discards the time-of-day component.
func truncateToDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}
