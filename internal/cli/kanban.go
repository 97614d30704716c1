package cli

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/gacsesystems/tareas/internal/core"
	"github.com/gacsesystems/tareas/pkg/models"
)

var boardCmd = &cobra.Command{
	Use:   "board",
	Short: "Show the kanban board",
	Long: `Show all live tasks grouped by column in ranking order. Frogs and
rocks are flagged so the day's priorities stand out.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if TaskMgr == nil {
			return fmt.Errorf("task manager not initialized")
		}

		tasks, err := TaskMgr.ListTasks(core.TaskFilter{})
		if err != nil {
			return fmt.Errorf("listing tasks: %w", err)
		}

		grouped := make(map[models.TaskState][]models.Task)
		for _, t := range tasks {
			grouped[t.State] = append(grouped[t.State], t)
		}

		for _, state := range models.AllTaskStates {
			column := grouped[state]
			if len(column) == 0 {
				continue
			}
			fmt.Printf("== %s (%d) ==\n", state, len(column))
			for _, t := range column {
				flags := taskFlags(t)
				if flags != "" {
					flags = " [" + flags + "]"
				}
				fmt.Printf("  %4d  %-40s %7.2f%s\n", t.ID, truncate(t.Title, 40), t.Score, flags)
			}
			fmt.Println()
		}
		return nil
	},
}

var (
	moveAfter  int64
	moveBefore int64
)

var moveCmd = &cobra.Command{
	Use:   "move <task-id> <state>",
	Short: "Move a task to a column position",
	Long: `Move a task to a kanban column. Without --after/--before the task
lands at the tail of the column; with neighbors it takes the midpoint
ranking between them, reflowing the column if the gap has collapsed.`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		if TaskMgr == nil {
			return fmt.Errorf("task manager not initialized")
		}

		id, err := parseID(args[0])
		if err != nil {
			return err
		}
		state := models.TaskState(args[1])

		var afterID, beforeID *int64
		if cmd.Flags().Changed("after") {
			afterID = &moveAfter
		}
		if cmd.Flags().Changed("before") {
			beforeID = &moveBefore
		}

		task, err := TaskMgr.MoveTask(id, state, afterID, beforeID, time.Now().UTC())
		if err != nil {
			return fmt.Errorf("moving task %d: %w", id, err)
		}

		fmt.Printf("Moved task %d to %s (ranking %d)\n", task.ID, task.State, task.Ranking)
		return nil
	},
}

var reflowCmd = &cobra.Command{
	Use:   "reflow <state>",
	Short: "Re-space the rankings of a column",
	Long: `Rewrite a column's rankings to evenly spaced values, preserving the
current order. Useful after many midpoint insertions have squeezed the
gaps.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if TaskMgr == nil {
			return fmt.Errorf("task manager not initialized")
		}

		state := models.TaskState(args[0])
		ranks, err := TaskMgr.ReflowColumn(state)
		if err != nil {
			return fmt.Errorf("reflowing %s: %w", state, err)
		}

		fmt.Printf("Reflowed %d task(s) in %s\n", len(ranks), state)
		return nil
	},
}

func init() {
	moveCmd.Flags().Int64Var(&moveAfter, "after", 0, "Place the task after this task ID")
	moveCmd.Flags().Int64Var(&moveBefore, "before", 0, "Place the task before this task ID")
	moveCmd.ValidArgsFunction = func(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
		if len(args) == 0 {
			return completeTaskIDs()(cmd, args, toComplete)
		}
		if len(args) == 1 {
			return completeStates(cmd, args, toComplete)
		}
		return nil, cobra.ShellCompDirectiveNoFileComp
	}
	reflowCmd.ValidArgsFunction = completeStates

	rootCmd.AddCommand(boardCmd)
	rootCmd.AddCommand(moveCmd)
	rootCmd.AddCommand(reflowCmd)
}
