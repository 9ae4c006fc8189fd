package history

import (
	"context"
	"fmt"
)

// Stats summarizes the recorded run history.
type Stats struct {
	Runs        int
	Reschedules int
	Applied     int
	Completions int
	TopFailing  []TaskStat
}

// TaskStat describes the reschedule history of a single task.
type TaskStat struct {
	TaskID      string
	Content     string
	MaxFailures int
	Reschedules int
}

// Stats computes aggregate statistics over the full history.
// topN limits the most-failing-tasks list (0 = default of 10).
func (s *Store) Stats(ctx context.Context, topN int) (*Stats, error) {
	if topN <= 0 {
		topN = 10
	}

	stats := &Stats{}

	row := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM runs`)
	if err := row.Scan(&stats.Runs); err != nil {
		return nil, fmt.Errorf("count runs: %w", err)
	}

	row = s.db.QueryRowContext(ctx,
		`SELECT COUNT(*), COALESCE(SUM(applied), 0) FROM reschedules`)
	if err := row.Scan(&stats.Reschedules, &stats.Applied); err != nil {
		return nil, fmt.Errorf("count reschedules: %w", err)
	}

	row = s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM completions`)
	if err := row.Scan(&stats.Completions); err != nil {
		return nil, fmt.Errorf("count completions: %w", err)
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT task_id, content, MAX(failures), COUNT(*)
		 FROM reschedules
		 GROUP BY task_id
		 ORDER BY MAX(failures) DESC, COUNT(*) DESC
		 LIMIT ?`, topN)
	if err != nil {
		return nil, fmt.Errorf("query top failing tasks: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var ts TaskStat
		if err := rows.Scan(&ts.TaskID, &ts.Content, &ts.MaxFailures, &ts.Reschedules); err != nil {
			return nil, fmt.Errorf("scan task stat: %w", err)
		}
		stats.TopFailing = append(stats.TopFailing, ts)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate task stats: %w", err)
	}

	return stats, nil
}
