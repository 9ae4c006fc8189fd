package cmd

import (
	"fmt"
	"os"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/harrison/resched/internal/config"
	"github.com/harrison/resched/internal/history"
)

// NewStatsCommand creates the stats command
func NewStatsCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "stats",
		Short: "Show aggregate statistics from the run history",
		Long: `Summarize the local run-history database: total runs, reschedules,
tracked completions, and the tasks that have failed the most.

Examples:
  resched stats
  resched stats --top 20
  resched stats --db /path/to/history.db`,
		Args: cobra.NoArgs,
		RunE: statsCommand,
	}

	cmd.Flags().String("config", "", "Path to config file (default: .resched/config.yaml)")
	cmd.Flags().String("db", "", "Path to the history database (overrides config)")
	cmd.Flags().Int("top", 10, "Number of most-failing tasks to show")

	return cmd
}

// statsCommand implements the stats command logic
func statsCommand(cmd *cobra.Command, args []string) error {
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

	dbPath := cfg.History.DBPath
	if dbFlag, _ := cmd.Flags().GetString("db"); dbFlag != "" {
		dbPath = dbFlag
	}
	topN, _ := cmd.Flags().GetInt("top")

	if _, err := os.Stat(dbPath); os.IsNotExist(err) {
		return fmt.Errorf("no run history found at %s", dbPath)
	}

	store, err := history.NewStore(dbPath)
	if err != nil {
		return fmt.Errorf("failed to open history database: %w", err)
	}
	defer store.Close()

	stats, err := store.Stats(cmd.Context(), topN)
	if err != nil {
		return fmt.Errorf("failed to compute stats: %w", err)
	}

	out := cmd.OutOrStdout()
	header := color.New(color.Bold)

	header.Fprintln(out, "Run History")
	fmt.Fprintf(out, "  Runs:                %d\n", stats.Runs)
	fmt.Fprintf(out, "  Reschedules:         %d (%d applied)\n", stats.Reschedules, stats.Applied)
	fmt.Fprintf(out, "  Completions tracked: %d\n", stats.Completions)

	if len(stats.TopFailing) > 0 {
		fmt.Fprintln(out)
		header.Fprintln(out, "Most-failing tasks")
		for _, ts := range stats.TopFailing {
			failures := fmt.Sprintf("%d failure(s)", ts.MaxFailures)
			if ts.MaxFailures >= 3 {
				failures = color.New(color.FgRed).Sprint(failures)
			}
			fmt.Fprintf(out, "  %s  %s (rescheduled %dx) - %s\n", ts.TaskID, ts.Content, ts.Reschedules, failures)
		}
	}

	return nil
}
