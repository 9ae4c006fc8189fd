package cmd

import (
	"github.com/spf13/cobra"
)

// Version is injected at build time via -ldflags
var Version = "dev"

// NewRootCommand creates and returns the root cobra command for resched
func NewRootCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "resched",
		Short: "Failure-aware rescheduling for overdue Todoist tasks",
		Long: `Resched reschedules overdue Todoist tasks using each task's
failure/success history.

Every overdue task's failure counter is incremented, then urgent tasks
(priority >= 3) are moved to today while regular tasks are pushed out by
exponential backoff and spread across future days in success-ratio order.
Recently completed tasks are counted exactly once per completion. History
lives in a metadata comment on each task, so no external state is required.`,
		Version: Version,
		// Silence usage on errors to avoid duplicate help text
		SilenceUsage: true,
	}

	// Add subcommands
	cmd.AddCommand(NewRunCommand())
	cmd.AddCommand(NewStatsCommand())

	return cmd
}
