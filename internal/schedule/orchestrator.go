package schedule

import (
	"context"
	"fmt"
	"time"

	"github.com/harrison/resched/internal/todoist"
)

// TaskUpdater is the subset of the Todoist client the orchestrator needs to
// apply scheduling decisions.
type TaskUpdater interface {
	UpdateTask(ctx context.Context, id string, args todoist.UpdateTaskArgs) error
}

// Logger is the logging interface the orchestrator reports through.
type Logger interface {
	LogDebug(message string)
	LogInfo(message string)
	LogWarn(message string)
	LogError(message string)
}

// RescheduleEvent describes one applied (or attempted) reschedule, for
// recording in the run history.
type RescheduleEvent struct {
	TaskID   string
	Content  string
	Failures int
	Ratio    float64
	DueDate  time.Time
	Applied  bool
	Error    string
}

// CompletionEvent describes one newly counted completion.
type CompletionEvent struct {
	TaskID      string
	Content     string
	CompletedAt string
}

// Recorder receives per-task events for the run history. Recording failures
// must never affect the batch; implementations are expected to swallow their
// own errors or return them for logging only.
type Recorder interface {
	RecordReschedule(ctx context.Context, event RescheduleEvent) error
	RecordCompletion(ctx context.Context, event CompletionEvent) error
}

// OrchestratorConfig holds the orchestrator's tunables.
type OrchestratorConfig struct {
	// UrgentPriority is the minimum priority treated as urgent (rescheduled
	// to today, exempt from backoff and spreading).
	UrgentPriority int

	// DryRun computes and logs the schedule without writing anything.
	DryRun bool
}

// Summary reports the outcome of a reschedule pass.
type Summary struct {
	Total   int // overdue tasks processed
	Urgent  int
	Regular int
	Applied int // due-date updates that succeeded
	Errors  int // due-date updates that failed and were skipped
}

// CompletionSummary reports the outcome of a completion-tracking pass.
type CompletionSummary struct {
	Total   int // completed tasks examined
	Tracked int // completions counted for the first time
	Errors  int
}

// Orchestrator runs the two batch passes: rescheduling overdue tasks and
// tracking recent completions. Both passes are best-effort per task; an
// error on one task is logged and the batch continues.
type Orchestrator struct {
	api      TaskUpdater
	tracker  *Tracker
	log      Logger
	config   OrchestratorConfig
	recorder Recorder
	clock    func() time.Time
}

// NewOrchestrator creates an orchestrator.
func NewOrchestrator(api TaskUpdater, tracker *Tracker, log Logger, config OrchestratorConfig) *Orchestrator {
	if config.UrgentPriority <= 0 {
		config.UrgentPriority = 3
	}
	return &Orchestrator{
		api:     api,
		tracker: tracker,
		log:     log,
		config:  config,
		clock:   time.Now,
	}
}

// SetRecorder attaches a run-history recorder. Without one, events are not
// recorded.
func (o *Orchestrator) SetRecorder(r Recorder) {
	o.recorder = r
}

// SetClock overrides the orchestrator's time source. Used by tests.
func (o *Orchestrator) SetClock(clock func() time.Time) {
	o.clock = clock
}

// RescheduleOverdue marks every overdue task as failed, computes new due
// dates (urgent tasks today, regular tasks backed off and spread across
// future days in success-ratio order), and applies the updates.
func (o *Orchestrator) RescheduleOverdue(ctx context.Context, tasks []todoist.Task) Summary {
	summary := Summary{Total: len(tasks)}
	if len(tasks) == 0 {
		return summary
	}

	var urgent, regular []Candidate
	for _, task := range tasks {
		c := o.markAndRank(ctx, task)
		if task.Priority >= o.config.UrgentPriority {
			urgent = append(urgent, c)
		} else {
			regular = append(regular, c)
		}
	}
	summary.Urgent = len(urgent)
	summary.Regular = len(regular)

	assignments := BuildSchedule(o.clock(), urgent, regular)

	for _, a := range assignments {
		if o.apply(ctx, a) {
			summary.Applied++
		} else {
			summary.Errors++
		}
	}

	return summary
}

// markAndRank increments the task's failure counter and derives its ranking
// inputs from the post-increment record. A metadata persist failure is
// logged but does not exclude the task from rescheduling.
func (o *Orchestrator) markAndRank(ctx context.Context, task todoist.Task) Candidate {
	rec, err := o.tracker.MarkFailure(ctx, task)
	if err != nil {
		o.log.LogWarn(fmt.Sprintf("Failed to persist failure count for task %s: %v", task.ID, err))
	}

	return Candidate{
		Task:       task,
		Failures:   rec.Failures,
		Ratio:      SuccessRatio(rec),
		DelayHours: DelayHours(rec.Failures),
	}
}

// apply pushes one scheduling decision to Todoist. Returns false if the
// update failed and was skipped.
func (o *Orchestrator) apply(ctx context.Context, a Assignment) bool {
	dueDate := a.DueDate.Format("2006-01-02")
	content := RewriteContent(a.Task.Content, a.Failures)

	if o.config.DryRun {
		o.log.LogInfo(fmt.Sprintf("[dry-run] Would reschedule: %s -> %s (failure #%d)", a.Task.Content, dueDate, a.Failures))
		return true
	}

	err := o.api.UpdateTask(ctx, a.Task.ID, todoist.UpdateTaskArgs{
		DueDate: dueDate,
		Content: content,
	})

	event := RescheduleEvent{
		TaskID:   a.Task.ID,
		Content:  a.Task.Content,
		Failures: a.Failures,
		Ratio:    a.Ratio,
		DueDate:  a.DueDate,
		Applied:  err == nil,
	}
	if err != nil {
		event.Error = err.Error()
	}
	o.record(func(r Recorder) error { return r.RecordReschedule(ctx, event) })

	if err != nil {
		o.log.LogError(fmt.Sprintf("Failed to reschedule task %s: %v", a.Task.ID, err))
		return false
	}

	o.log.LogInfo(fmt.Sprintf("Rescheduled: %s -> %s (failure #%d)", a.Task.Content, dueDate, a.Failures))
	return true
}

// TrackCompletions records recently completed tasks, counting each distinct
// completion timestamp at most once.
func (o *Orchestrator) TrackCompletions(ctx context.Context, tasks []todoist.Task) CompletionSummary {
	summary := CompletionSummary{Total: len(tasks)}

	for _, task := range tasks {
		tracked, err := o.tracker.TrackCompletion(ctx, task)
		if err != nil {
			o.log.LogError(fmt.Sprintf("Failed to track completion for task %s: %v", task.ID, err))
			summary.Errors++
			continue
		}
		if !tracked {
			continue
		}
		summary.Tracked++
		o.log.LogInfo(fmt.Sprintf("Tracked completion: %s", task.Content))

		event := CompletionEvent{
			TaskID:      task.ID,
			Content:     task.Content,
			CompletedAt: task.CompletedAt,
		}
		o.record(func(r Recorder) error { return r.RecordCompletion(ctx, event) })
	}

	return summary
}

// record invokes the recorder if one is attached, logging (not propagating)
// any error.
func (o *Orchestrator) record(fn func(Recorder) error) {
	if o.recorder == nil {
		return
	}
	if err := fn(o.recorder); err != nil {
		o.log.LogWarn(fmt.Sprintf("Failed to record run history: %v", err))
	}
}
