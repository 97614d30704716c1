package cli

import (
	"encoding/json"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"
)

var (
	metricsJSON  bool
	metricsSince string
)

var metricsCmd = &cobra.Command{
	Use:   "metrics",
	Short: "Display task, project, and habit metrics",
	Long: `Display aggregated metrics derived from the event log.

Metrics include task creation/completion counts, kanban moves by state,
project activity, and habit compliance rates.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if MetricsCalc == nil {
			return fmt.Errorf("metrics calculator not initialized (observability may be disabled)")
		}

		since := metricsSince
		if since == "" && Config != nil && Config.Alerts.MetricsWindowDays > 0 {
			since = fmt.Sprintf("%dd", Config.Alerts.MetricsWindowDays)
		}
		sinceTime, err := parseSinceDuration(since)
		if err != nil {
			return fmt.Errorf("parsing --since: %w", err)
		}

		metrics, err := MetricsCalc.Calculate(sinceTime)
		if err != nil {
			return fmt.Errorf("calculating metrics: %w", err)
		}

		if metricsJSON {
			data, err := json.MarshalIndent(metrics, "", "  ")
			if err != nil {
				return fmt.Errorf("formatting metrics as JSON: %w", err)
			}
			fmt.Println(string(data))
			return nil
		}

		// Table format.
		fmt.Printf("Metrics (since %s)\n\n", sinceTime.Format("2006-01-02"))
		fmt.Printf("  %-24s %d\n", "Events recorded:", metrics.EventCount)
		fmt.Printf("  %-24s %d\n", "Tasks created:", metrics.TasksCreated)
		fmt.Printf("  %-24s %d\n", "Tasks completed:", metrics.TasksCompleted)
		fmt.Printf("  %-24s %d\n", "Tasks deleted:", metrics.TasksDeleted)
		fmt.Printf("  %-24s %d\n", "Tasks blocked:", metrics.TasksBlocked)
		fmt.Printf("  %-24s %d\n", "Projects created:", metrics.ProjectsCreated)
		fmt.Printf("  %-24s %d\n", "Projects closed:", metrics.ProjectsClosed)

		if metrics.HabitCheckIns > 0 {
			fmt.Printf("  %-24s %d\n", "Habit check-ins:", metrics.HabitCheckIns)
			fmt.Printf("  %-24s %.0f%%\n", "Habit compliance:", metrics.HabitComplianceRate*100)
		}

		if len(metrics.MovesByState) > 0 {
			states := make([]string, 0, len(metrics.MovesByState))
			for state := range metrics.MovesByState {
				states = append(states, state)
			}
			sort.Strings(states)

			fmt.Println("\n  Moves by state:")
			for _, state := range states {
				fmt.Printf("    %-20s %d\n", state+":", metrics.MovesByState[state])
			}
		}

		if metrics.OldestEvent != nil {
			fmt.Printf("\n  %-24s %s\n", "Oldest event:", metrics.OldestEvent.Format(time.RFC3339))
		}
		if metrics.NewestEvent != nil {
			fmt.Printf("  %-24s %s\n", "Newest event:", metrics.NewestEvent.Format(time.RFC3339))
		}

		return nil
	},
}

// parseSinceDuration parses a human-friendly duration string like "7d", "30d",
// or "24h" and returns the corresponding time in the past.
func parseSinceDuration(s string) (time.Time, error) {
	now := time.Now().UTC()
	s = strings.TrimSpace(s)
	if s == "" {
		return now.AddDate(0, 0, -7), nil
	}

	if strings.HasSuffix(s, "d") {
		days, err := strconv.Atoi(strings.TrimSuffix(s, "d"))
		if err != nil {
			return time.Time{}, fmt.Errorf("invalid day duration %q", s)
		}
		return now.AddDate(0, 0, -days), nil
	}

	if strings.HasSuffix(s, "h") {
		hours, err := strconv.Atoi(strings.TrimSuffix(s, "h"))
		if err != nil {
			return time.Time{}, fmt.Errorf("invalid hour duration %q", s)
		}
		return now.Add(-time.Duration(hours) * time.Hour), nil
	}

	return time.Time{}, fmt.Errorf("unsupported duration format %q (use e.g. 7d, 30d, 24h)", s)
}

func init() {
	metricsCmd.Flags().BoolVar(&metricsJSON, "json", false, "Output metrics as JSON")
	metricsCmd.Flags().StringVar(&metricsSince, "since", "", "Time window for metrics (e.g. 7d, 30d, 24h; defaults to the configured window)")
	rootCmd.AddCommand(metricsCmd)
}
