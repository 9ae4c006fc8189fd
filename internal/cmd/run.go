package cmd

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/harrison/resched/internal/config"
	"github.com/harrison/resched/internal/history"
	"github.com/harrison/resched/internal/logger"
	"github.com/harrison/resched/internal/metadata"
	"github.com/harrison/resched/internal/runlock"
	"github.com/harrison/resched/internal/schedule"
	"github.com/harrison/resched/internal/todoist"
)

// NewRunCommand creates the run command
func NewRunCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Reschedule overdue tasks and track recent completions",
		Long: `Run one batch pass: fetch overdue tasks, increment their failure
counters, compute new due dates (urgent tasks move to today, regular tasks
are backed off and spread across future days by success ratio), apply the
updates, then count completions from the recent completion window.

The Todoist API token is read from the ` + config.APITokenEnv + ` environment
variable. Configuration is loaded from .resched/config.yaml if present;
CLI flags override configuration file settings.

Examples:
  resched run                      # Full pass with defaults
  resched run --dry-run            # Show the schedule without writing
  resched run --query "overdue & @work"
  resched run --window 48h         # Look back two days for completions
  resched run --no-history         # Skip the local run-history database`,
		Args: cobra.NoArgs,
		RunE: runCommand,
	}

	// Add flags
	cmd.Flags().String("config", "", "Path to config file (default: .resched/config.yaml)")
	cmd.Flags().Bool("dry-run", false, "Compute and log the schedule without writing anything")
	cmd.Flags().String("query", "", "Todoist filter query selecting tasks to reschedule")
	cmd.Flags().Duration("window", 0, "Completion lookback window (e.g. 24h, 48h)")
	cmd.Flags().Bool("no-history", false, "Do not record this run in the history database")
	cmd.Flags().String("log-level", "", "Log verbosity (trace, debug, info, warn, error)")

	return cmd
}

// runCommand implements the run command logic
func runCommand(cmd *cobra.Command, args []string) error {
	// Load configuration from file
	configPath, _ := cmd.Flags().GetString("config")
	var cfg *config.Config
	var err error

	if configPath != "" {
		cfg, err = config.LoadConfig(configPath)
		if err != nil {
			return fmt.Errorf("failed to load config from %s: %w", configPath, err)
		}
	} else {
		cfg, err = config.LoadConfigFromDir(".")
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}
	}

	// Apply flag overrides
	dryRun, _ := cmd.Flags().GetBool("dry-run")
	noHistory, _ := cmd.Flags().GetBool("no-history")
	if queryFlag, _ := cmd.Flags().GetString("query"); queryFlag != "" {
		cfg.Query = queryFlag
	}
	if windowFlag, _ := cmd.Flags().GetDuration("window"); windowFlag > 0 {
		cfg.CompletionWindow = windowFlag
	}
	if logLevelFlag, _ := cmd.Flags().GetString("log-level"); logLevelFlag != "" {
		cfg.LogLevel = logLevelFlag
	}

	log := logger.NewConsoleLogger(os.Stdout, cfg.LogLevel)

	token, err := config.APIToken()
	if err != nil {
		return err
	}

	// A dry run performs no writes, so it may safely overlap a live run.
	if !dryRun {
		lock, err := runlock.New(cfg.LockPath)
		if err != nil {
			return err
		}
		if err := lock.Acquire(); err != nil {
			return err
		}
		defer lock.Release()
	}

	var clientOpts []todoist.Option
	if cfg.Todoist.BaseURL != "" {
		clientOpts = append(clientOpts, todoist.WithBaseURL(cfg.Todoist.BaseURL))
	}
	if cfg.Todoist.Timeout > 0 {
		clientOpts = append(clientOpts, todoist.WithTimeout(cfg.Todoist.Timeout))
	}
	client := todoist.NewClient(token, clientOpts...)

	store := metadata.NewStore(client, log)
	tracker := schedule.NewTracker(store, dryRun)
	orch := schedule.NewOrchestrator(client, tracker, log, schedule.OrchestratorConfig{
		UrgentPriority: cfg.UrgentPriority,
		DryRun:         dryRun,
	})

	ctx := cmd.Context()
	started := time.Now()

	// The run history is best-effort: a broken database must never block a
	// batch, so failures here only downgrade to an unrecorded run.
	var run *history.Run
	if cfg.History.Enabled && !noHistory && !dryRun {
		hs, err := history.NewStore(cfg.History.DBPath)
		if err != nil {
			log.LogWarn(fmt.Sprintf("Run history unavailable: %v", err))
		} else {
			defer hs.Close()
			run, err = hs.BeginRun(ctx, started)
			if err != nil {
				log.LogWarn(fmt.Sprintf("Failed to open run record: %v", err))
				run = nil
			} else {
				orch.SetRecorder(run)
			}
		}
	}

	overdueTasks, err := client.FilterTasks(ctx, cfg.Query)
	if err != nil {
		return fmt.Errorf("failed to fetch overdue tasks: %w", err)
	}
	log.LogInfo(fmt.Sprintf("Found %d overdue task(s) for query %q", len(overdueTasks), cfg.Query))

	summary := orch.RescheduleOverdue(ctx, overdueTasks)

	until := time.Now()
	since := until.Add(-cfg.CompletionWindow)
	completedTasks, err := client.CompletedByCompletionDate(ctx, since, until)
	if err != nil {
		// Completion tracking is a separate pass; a fetch failure here must
		// not undo the reschedules already applied.
		log.LogError(fmt.Sprintf("Failed to fetch completed tasks: %v", err))
		completedTasks = nil
	}

	completionSummary := orch.TrackCompletions(ctx, completedTasks)

	if run != nil {
		if err := run.Finish(ctx, summary, completionSummary); err != nil {
			log.LogWarn(fmt.Sprintf("Failed to close run record: %v", err))
		}
	}

	log.LogRunSummary(summary, completionSummary, time.Since(started))
	return nil
}
