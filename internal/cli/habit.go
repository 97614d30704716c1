package cli

import (
	"fmt"
	"sort"
	"time"

	"github.com/spf13/cobra"

	"github.com/gacsesystems/tareas/internal/core"
	"github.com/gacsesystems/tareas/pkg/models"
)

var habitCmd = &cobra.Command{
	Use:   "habit",
	Short: "Manage habits and check-ins",
	Long: `Habit tracking commands.

Habits are binary (did it or not), negative (stay under a limit), or
positive quantitative (reach a target). Daily habits logged compliant on
the same day extend the streak; backfilled logs only record compliance.`,
}

var (
	habitAddKind      string
	habitAddUnit      string
	habitAddTarget    float64
	habitAddThreshold float64
	habitAddPeriod    string
)

var habitAddCmd = &cobra.Command{
	Use:   "add <name>",
	Short: "Register a new habit",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if HabitMgr == nil {
			return fmt.Errorf("habit manager not initialized")
		}

		in := core.CreateHabitInput{
			Name:        args[0],
			Kind:        models.HabitKind(habitAddKind),
			Unit:        habitAddUnit,
			Periodicity: models.Periodicity(habitAddPeriod),
		}
		if cmd.Flags().Changed("target") {
			in.Target = &habitAddTarget
		}
		if cmd.Flags().Changed("threshold") {
			in.ComplianceThreshold = &habitAddThreshold
		}

		habit, err := HabitMgr.CreateHabit(in)
		if err != nil {
			return fmt.Errorf("creating habit: %w", err)
		}

		fmt.Printf("Created habit %d: %s (%s, %s)\n", habit.ID, habit.Name, habit.Kind, habit.Periodicity)
		return nil
	},
}

var habitListCmd = &cobra.Command{
	Use:   "list",
	Short: "List habits with streaks",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if HabitMgr == nil {
			return fmt.Errorf("habit manager not initialized")
		}

		habits, err := HabitMgr.ListHabits()
		if err != nil {
			return fmt.Errorf("listing habits: %w", err)
		}

		if len(habits) == 0 {
			fmt.Println("No habits found.")
			return nil
		}

		fmt.Printf("%-5s %-10s %-8s %-6s %-6s %s\n", "ID", "KIND", "PERIOD", "STREAK", "BEST", "NAME")
		for _, h := range habits {
			fmt.Printf("%-5d %-10s %-8s %-6d %-6d %s\n",
				h.ID, h.Kind, h.Periodicity, h.Streak, h.BestStreak, h.Name)
		}
		return nil
	},
}

var (
	habitLogDate  string
	habitLogValue float64
)

var habitLogCmd = &cobra.Command{
	Use:   "log <habit-id>",
	Short: "Record a habit check-in",
	Long: `Record a check-in for a habit. Binary habits need no value; negative
and positive quantitative habits take --value. Defaults to today; use
--date to backfill (backfills never advance the streak).`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if HabitMgr == nil {
			return fmt.Errorf("habit manager not initialized")
		}

		id, err := parseID(args[0])
		if err != nil {
			return err
		}

		now := time.Now().UTC()
		date := now
		if habitLogDate != "" {
			date, err = time.Parse("2006-01-02", habitLogDate)
			if err != nil {
				return fmt.Errorf("invalid --date %q: use YYYY-MM-DD", habitLogDate)
			}
		}

		var value *float64
		if cmd.Flags().Changed("value") {
			value = &habitLogValue
		}

		habit, err := HabitMgr.LogCheckIn(id, date, value, 0, now)
		if err != nil {
			return fmt.Errorf("logging habit %d: %w", id, err)
		}

		key := date.Format("2006-01-02")
		log := habit.Logs[key]
		compliance := "non-compliant"
		if log.Compliant {
			compliance = "compliant"
		}
		fmt.Printf("Logged %s for %s: %s (%.2f%%), streak %d\n",
			habit.Name, key, compliance, log.Percentage, habit.Streak)
		return nil
	},
}

var habitShowCmd = &cobra.Command{
	Use:   "show <habit-id>",
	Short: "Show a habit with its recent check-ins",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if HabitMgr == nil {
			return fmt.Errorf("habit manager not initialized")
		}

		id, err := parseID(args[0])
		if err != nil {
			return err
		}
		h, err := HabitMgr.GetHabit(id)
		if err != nil {
			return fmt.Errorf("getting habit %d: %w", id, err)
		}

		fmt.Printf("Habit %d: %s\n", h.ID, h.Name)
		fmt.Printf("  Kind:        %s\n", h.Kind)
		fmt.Printf("  Periodicity: %s\n", h.Periodicity)
		if h.Target != nil {
			fmt.Printf("  Target:      %.2f %s\n", *h.Target, h.Unit)
		}
		if h.ComplianceThreshold != nil {
			fmt.Printf("  Threshold:   %.0f%%\n", *h.ComplianceThreshold)
		}
		fmt.Printf("  Streak:      %d (best %d)\n", h.Streak, h.BestStreak)
		if h.MonthlyFreezes > 0 {
			fmt.Printf("  Freezes:     %d\n", h.MonthlyFreezes)
		}

		if len(h.Logs) == 0 {
			return nil
		}

		dates := make([]string, 0, len(h.Logs))
		for d := range h.Logs {
			dates = append(dates, d)
		}
		sort.Sort(sort.Reverse(sort.StringSlice(dates)))
		if len(dates) > 14 {
			dates = dates[:14]
		}

		fmt.Println("\n  Recent check-ins:")
		for _, d := range dates {
			log := h.Logs[d]
			mark := " "
			if log.Compliant {
				mark = "x"
			}
			line := fmt.Sprintf("    [%s] %s", mark, d)
			if log.Value != nil {
				line += fmt.Sprintf("  %.2f %s", *log.Value, h.Unit)
			}
			fmt.Printf("%s  (%.2f%%)\n", line, log.Percentage)
		}
		return nil
	},
}

var habitResetCmd = &cobra.Command{
	Use:   "reset <habit-id>",
	Short: "Reset a habit's current streak to zero",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if HabitMgr == nil {
			return fmt.Errorf("habit manager not initialized")
		}

		id, err := parseID(args[0])
		if err != nil {
			return err
		}
		h, err := HabitMgr.ResetStreak(id)
		if err != nil {
			return fmt.Errorf("resetting habit %d: %w", id, err)
		}
		fmt.Printf("Reset streak for habit %d: %s (best remains %d)\n", h.ID, h.Name, h.BestStreak)
		return nil
	},
}

var habitDeleteCmd = &cobra.Command{
	Use:   "delete <habit-id>",
	Short: "Delete a habit and its logs",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if HabitMgr == nil {
			return fmt.Errorf("habit manager not initialized")
		}

		id, err := parseID(args[0])
		if err != nil {
			return err
		}
		if err := HabitMgr.DeleteHabit(id); err != nil {
			return fmt.Errorf("deleting habit %d: %w", id, err)
		}
		fmt.Printf("Deleted habit %d\n", id)
		return nil
	},
}

func init() {
	habitAddCmd.Flags().StringVar(&habitAddKind, "kind", string(models.HabitPositive), "Habit kind (positive or negative)")
	habitAddCmd.Flags().StringVar(&habitAddUnit, "unit", "", "Unit for quantitative habits (e.g. min, pages)")
	habitAddCmd.Flags().Float64Var(&habitAddTarget, "target", 0, "Target (positive) or limit (negative) value")
	habitAddCmd.Flags().Float64Var(&habitAddThreshold, "threshold", 0, "Compliance threshold percentage")
	habitAddCmd.Flags().StringVar(&habitAddPeriod, "period", string(models.PeriodDaily), "Periodicity (daily, weekly, monthly)")

	habitLogCmd.Flags().StringVar(&habitLogDate, "date", "", "Check-in date (YYYY-MM-DD, default today)")
	habitLogCmd.Flags().Float64Var(&habitLogValue, "value", 0, "Measured value for quantitative habits")

	habitLogCmd.ValidArgsFunction = completeHabitIDs
	habitShowCmd.ValidArgsFunction = completeHabitIDs
	habitResetCmd.ValidArgsFunction = completeHabitIDs
	habitDeleteCmd.ValidArgsFunction = completeHabitIDs

	habitCmd.AddCommand(habitAddCmd)
	habitCmd.AddCommand(habitListCmd)
	habitCmd.AddCommand(habitLogCmd)
	habitCmd.AddCommand(habitShowCmd)
	habitCmd.AddCommand(habitResetCmd)
	habitCmd.AddCommand(habitDeleteCmd)

	rootCmd.AddCommand(habitCmd)
}
