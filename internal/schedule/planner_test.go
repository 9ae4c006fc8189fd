package schedule

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/harrison/resched/internal/todoist"
)

func testDay() time.Time {
	return time.Date(2025, 6, 2, 14, 30, 0, 0, time.UTC) // time-of-day must be discarded
}

func TestBuildScheduleUrgentAlwaysToday(t *testing.T) {
	urgent := []Candidate{
		{Task: todoist.Task{ID: "u1", Priority: 4}, Failures: 7, Ratio: 0.1, DelayHours: 168},
		{Task: todoist.Task{ID: "u2", Priority: 3}, Failures: 1, Ratio: 1.0, DelayHours: 24},
	}

	assignments := BuildSchedule(testDay(), urgent, nil)
	require.Len(t, assignments, 2)

	today := time.Date(2025, 6, 2, 0, 0, 0, 0, time.UTC)
	for _, a := range assignments {
		assert.Equal(t, today, a.DueDate, "urgent task %s must land on today", a.Task.ID)
	}
}

func TestBuildScheduleSpreadsRegularTasks(t *testing.T) {
	// Three regular tasks, all failures=1 (minDelayDays=1), distinct ratios.
	// Rank order by ratio desc: a, b, c. Offsets max(1, i) = [1, 1, 2].
	regular := []Candidate{
		{Task: todoist.Task{ID: "c"}, Failures: 1, Ratio: 0.5, DelayHours: 24},
		{Task: todoist.Task{ID: "a"}, Failures: 1, Ratio: 3.0, DelayHours: 24},
		{Task: todoist.Task{ID: "b"}, Failures: 1, Ratio: 1.0, DelayHours: 24},
	}

	assignments := BuildSchedule(testDay(), nil, regular)
	require.Len(t, assignments, 3)

	today := time.Date(2025, 6, 2, 0, 0, 0, 0, time.UTC)

	assert.Equal(t, "a", assignments[0].Task.ID)
	assert.Equal(t, today.AddDate(0, 0, 1), assignments[0].DueDate)

	assert.Equal(t, "b", assignments[1].Task.ID)
	assert.Equal(t, today.AddDate(0, 0, 1), assignments[1].DueDate)

	assert.Equal(t, "c", assignments[2].Task.ID)
	assert.Equal(t, today.AddDate(0, 0, 2), assignments[2].DueDate)
}

func TestBuildScheduleBackoffDominatesPosition(t *testing.T) {
	// A heavily failed task at rank 0 still gets its full backoff delay.
	regular := []Candidate{
		{Task: todoist.Task{ID: "x"}, Failures: 4, Ratio: 2.0, DelayHours: 168},
	}

	assignments := BuildSchedule(testDay(), nil, regular)
	require.Len(t, assignments, 1)

	today := time.Date(2025, 6, 2, 0, 0, 0, 0, time.UTC)
	assert.Equal(t, today.AddDate(0, 0, 7), assignments[0].DueDate)
}

func TestBuildSchedulePositionDominatesBackoff(t *testing.T) {
	// Many low-backoff tasks: later ranks get pushed out by position even
	// though their own backoff would allow day 1.
	var regular []Candidate
	for _, id := range []string{"t0", "t1", "t2", "t3", "t4"} {
		regular = append(regular, Candidate{
			Task: todoist.Task{ID: id}, Failures: 1, Ratio: 1.0, DelayHours: 24,
		})
	}

	assignments := BuildSchedule(testDay(), nil, regular)
	require.Len(t, assignments, 5)

	today := time.Date(2025, 6, 2, 0, 0, 0, 0, time.UTC)
	wantOffsets := []int{1, 1, 2, 3, 4}
	for i, a := range assignments {
		assert.Equal(t, today.AddDate(0, 0, wantOffsets[i]), a.DueDate, "rank %d", i)
	}
}

func TestBuildScheduleStableOnRatioTies(t *testing.T) {
	regular := []Candidate{
		{Task: todoist.Task{ID: "first"}, Failures: 1, Ratio: 1.0, DelayHours: 24},
		{Task: todoist.Task{ID: "second"}, Failures: 1, Ratio: 1.0, DelayHours: 24},
		{Task: todoist.Task{ID: "third"}, Failures: 1, Ratio: 1.0, DelayHours: 24},
	}

	assignments := BuildSchedule(testDay(), nil, regular)
	require.Len(t, assignments, 3)

	// Ties keep input order.
	assert.Equal(t, "first", assignments[0].Task.ID)
	assert.Equal(t, "second", assignments[1].Task.ID)
	assert.Equal(t, "third", assignments[2].Task.ID)
}

func TestBuildScheduleDoesNotMutateInput(t *testing.T) {
	regular := []Candidate{
		{Task: todoist.Task{ID: "low"}, Ratio: 0.5, Failures: 1, DelayHours: 24},
		{Task: todoist.Task{ID: "high"}, Ratio: 2.0, Failures: 1, DelayHours: 24},
	}

	BuildSchedule(testDay(), nil, regular)

	assert.Equal(t, "low", regular[0].Task.ID)
	assert.Equal(t, "high", regular[1].Task.ID)
}
