package cli

import (
	"fmt"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"github.com/gacsesystems/tareas/internal/core"
	"github.com/gacsesystems/tareas/pkg/models"
)

var taskCmd = &cobra.Command{
	Use:   "task",
	Short: "Manage tasks (add, list, show, update, move, done, delete)",
	Long: `Unified task management commands.

Create tasks with scoring criteria, inspect their score breakdown, mark
frogs and rocks, boost or block them, and move them across the board.`,
}

var (
	taskAddType    string
	taskAddState   string
	taskAddArea    string
	taskAddContext string
	taskAddMoscow  string
	taskAddHorizon string
	taskAddImpact  int
	taskAddValue   int
	taskAddEff     int
	taskAddStake   int
	taskAddUrgency int
	taskAddDue     string
	taskAddNotes   string
	taskAddProject int64
	taskAddStage   int64
)

var taskAddCmd = &cobra.Command{
	Use:   "add <title>",
	Short: "Create a new task",
	Long: `Create a new task with the given title.

Criteria flags (--impact, --value, --efficiency, --stakeholders) take
values 0-10 and feed the base score. Unset criteria default to neutral.
The task is scored immediately and placed at the tail of its column.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if TaskMgr == nil {
			return fmt.Errorf("task manager not initialized")
		}

		input := core.CreateTaskInput{
			Title:     args[0],
			Notes:     taskAddNotes,
			State:     models.TaskState(taskAddState),
			Type:      models.TaskType(taskAddType),
			Area:      taskAddArea,
			Context:   taskAddContext,
			Moscow:    models.Moscow(taskAddMoscow),
			Horizon:   models.Horizon(taskAddHorizon),
			ProjectID: taskAddProject,
			StageID:   taskAddStage,
		}
		if Config != nil {
			if input.Area == "" {
				input.Area = Config.DefaultArea
			}
			if input.Context == "" {
				input.Context = Config.DefaultContext
			}
			if input.Moscow == "" {
				input.Moscow = Config.DefaultMoscow
			}
			if input.Horizon == "" {
				input.Horizon = Config.DefaultHorizon
			}
		}
		if cmd.Flags().Changed("impact") {
			input.Impact = &taskAddImpact
		}
		if cmd.Flags().Changed("value") {
			input.Value = &taskAddValue
		}
		if cmd.Flags().Changed("efficiency") {
			input.Efficiency = &taskAddEff
		}
		if cmd.Flags().Changed("stakeholders") {
			input.Stakeholders = &taskAddStake
		}
		if cmd.Flags().Changed("urgency") {
			input.ManualUrgency = &taskAddUrgency
		}
		if taskAddDue != "" {
			due, err := time.Parse("2006-01-02", taskAddDue)
			if err != nil {
				return fmt.Errorf("invalid --due %q: use YYYY-MM-DD", taskAddDue)
			}
			input.DueAt = &due
		}

		task, err := TaskMgr.CreateTask(input, time.Now().UTC())
		if err != nil {
			return fmt.Errorf("creating task: %w", err)
		}

		fmt.Printf("Created task %d\n", task.ID)
		fmt.Printf("  Title:   %s\n", task.Title)
		fmt.Printf("  State:   %s\n", task.State)
		fmt.Printf("  Score:   %.2f\n", task.Score)
		fmt.Printf("  Ranking: %d\n", task.Ranking)
		return nil
	},
}

var (
	taskListState   string
	taskListArea    string
	taskListContext string
	taskListProject int64
	taskListAll     bool
)

var taskListCmd = &cobra.Command{
	Use:   "list",
	Short: "List tasks",
	Long: `List tasks, optionally filtered by state, area, context, or project.

Within each state tasks are shown in board order (ranking ascending).`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if TaskMgr == nil {
			return fmt.Errorf("task manager not initialized")
		}

		filter := core.TaskFilter{
			Area:      taskListArea,
			Context:   taskListContext,
			ProjectID: taskListProject,
			Deleted:   taskListAll,
		}
		if taskListState != "" {
			filter.States = []models.TaskState{models.TaskState(taskListState)}
		}

		tasks, err := TaskMgr.ListTasks(filter)
		if err != nil {
			return fmt.Errorf("listing tasks: %w", err)
		}

		if len(tasks) == 0 {
			fmt.Println("No tasks found.")
			return nil
		}

		fmt.Printf("%-5s %-12s %-7s %-8s %-30s %s\n", "ID", "STATE", "RANK", "SCORE", "TITLE", "FLAGS")
		for _, t := range tasks {
			fmt.Printf("%-5d %-12s %-7d %-8.2f %-30s %s\n",
				t.ID, t.State, t.Ranking, t.Score, truncate(t.Title, 30), taskFlags(t))
		}
		return nil
	},
}

var taskShowCmd = &cobra.Command{
	Use:   "show <task-id>",
	Short: "Show a task with its full score breakdown",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if TaskMgr == nil {
			return fmt.Errorf("task manager not initialized")
		}

		id, err := parseID(args[0])
		if err != nil {
			return err
		}
		task, err := TaskMgr.GetTask(id)
		if err != nil {
			return fmt.Errorf("getting task %d: %w", id, err)
		}

		fmt.Printf("Task %d: %s\n", task.ID, task.Title)
		fmt.Printf("  State:    %s\n", task.State)
		if task.Type != "" {
			fmt.Printf("  Type:     %s\n", task.Type)
		}
		if task.Area != "" {
			fmt.Printf("  Area:     %s\n", task.Area)
		}
		if task.Context != "" {
			fmt.Printf("  Context:  %s\n", task.Context)
		}
		if task.Moscow != "" {
			fmt.Printf("  MoSCoW:   %s\n", task.Moscow)
		}
		if task.Horizon != "" {
			fmt.Printf("  Horizon:  %s\n", task.Horizon)
		}
		if task.DueAt != nil {
			fmt.Printf("  Due:      %s\n", task.DueAt.Format("2006-01-02"))
		}
		if task.ProjectID != 0 {
			fmt.Printf("  Project:  %d\n", task.ProjectID)
		}
		if flags := taskFlags(*task); flags != "" {
			fmt.Printf("  Flags:    %s\n", flags)
		}
		if task.Blocked {
			fmt.Printf("  Blocked:  %s\n", task.BlockedReason)
		}
		fmt.Printf("  Ranking:  %d\n", task.Ranking)
		fmt.Printf("  Score:    %.4f\n", task.Score)

		if ScoreEng != nil {
			b := ScoreEng.Breakdown(*task, time.Now().UTC())
			fmt.Println("\n  Score breakdown:")
			fmt.Printf("    %-12s %d\n", "urgency", b.Urgency)
			fmt.Printf("    %-12s %.4f\n", "base", b.Base)
			multipliers := []struct {
				name  string
				value float64
			}{
				{"rock", b.Rock}, {"frog", b.Frog}, {"pareto", b.Pareto},
				{"family", b.Family}, {"kash", b.Kash}, {"kaizen", b.Kaizen},
				{"interest", b.Interest}, {"boost", b.Boost}, {"decay", b.Decay},
				{"risk", b.Risk}, {"blocked", b.Blocked},
			}
			for _, m := range multipliers {
				if m.value != 1 {
					fmt.Printf("    %-12s x%.4f\n", m.name, m.value)
				}
			}
			fmt.Printf("    %-12s %.4f\n", "score", b.Score)
		}
		return nil
	},
}

var (
	taskUpdateTitle   string
	taskUpdateNotes   string
	taskUpdateArea    string
	taskUpdateContext string
	taskUpdateMoscow  string
	taskUpdateHorizon string
	taskUpdateImpact  int
	taskUpdateValue   int
	taskUpdateEff     int
	taskUpdateStake   int
	taskUpdateUrgency int
	taskUpdateDue     string
	taskUpdateRisk    float64
)

var taskUpdateCmd = &cobra.Command{
	Use:   "update <task-id>",
	Short: "Update task fields",
	Long: `Update a task's fields. Only the flags given are changed, and the
score is recomputed before the task is saved. Pass --due "" to clear
the due date.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if TaskMgr == nil {
			return fmt.Errorf("task manager not initialized")
		}

		id, err := parseID(args[0])
		if err != nil {
			return err
		}

		var patch core.TaskPatch
		if cmd.Flags().Changed("title") {
			patch.Title = &taskUpdateTitle
		}
		if cmd.Flags().Changed("notes") {
			patch.Notes = &taskUpdateNotes
		}
		if cmd.Flags().Changed("area") {
			patch.Area = &taskUpdateArea
		}
		if cmd.Flags().Changed("context") {
			patch.Context = &taskUpdateContext
		}
		if cmd.Flags().Changed("moscow") {
			m := models.Moscow(taskUpdateMoscow)
			patch.Moscow = &m
		}
		if cmd.Flags().Changed("horizon") {
			h := models.Horizon(taskUpdateHorizon)
			patch.Horizon = &h
		}
		if cmd.Flags().Changed("impact") {
			patch.Impact = &core.IntPatch{Value: taskUpdateImpact}
		}
		if cmd.Flags().Changed("value") {
			patch.Value = &core.IntPatch{Value: taskUpdateValue}
		}
		if cmd.Flags().Changed("efficiency") {
			patch.Efficiency = &core.IntPatch{Value: taskUpdateEff}
		}
		if cmd.Flags().Changed("stakeholders") {
			patch.Stakeholders = &core.IntPatch{Value: taskUpdateStake}
		}
		if cmd.Flags().Changed("urgency") {
			patch.ManualUrgency = &core.IntPatch{Value: taskUpdateUrgency}
		}
		if cmd.Flags().Changed("risk") {
			patch.RiskOpportunityDelta = &core.FloatPatch{Value: taskUpdateRisk}
		}
		if cmd.Flags().Changed("due") {
			if taskUpdateDue == "" {
				patch.DueAt = &core.TimePatch{Clear: true}
			} else {
				due, err := time.Parse("2006-01-02", taskUpdateDue)
				if err != nil {
					return fmt.Errorf("invalid --due %q: use YYYY-MM-DD", taskUpdateDue)
				}
				patch.DueAt = &core.TimePatch{Value: due}
			}
		}

		task, err := TaskMgr.UpdateTask(id, patch, time.Now().UTC())
		if err != nil {
			return fmt.Errorf("updating task %d: %w", id, err)
		}

		fmt.Printf("Updated task %d (score %.2f)\n", task.ID, task.Score)
		return nil
	},
}

var taskDoneCmd = &cobra.Command{
	Use:   "done <task-id>",
	Short: "Complete a task",
	Long: `Mark a task done. If the task is linked to a habit, a compliant
check-in is logged for today as part of the same operation.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if TaskMgr == nil {
			return fmt.Errorf("task manager not initialized")
		}

		id, err := parseID(args[0])
		if err != nil {
			return err
		}
		task, err := TaskMgr.CompleteTask(id, time.Now().UTC())
		if err != nil {
			return fmt.Errorf("completing task %d: %w", id, err)
		}
		fmt.Printf("Completed task %d: %s\n", task.ID, task.Title)
		return nil
	},
}

var taskDeleteCmd = &cobra.Command{
	Use:   "delete <task-id>",
	Short: "Soft-delete a task",
	Long: `Soft-delete a task. The task is excluded from boards, scores, and
progress, but its record stays in the store. Habit logs that reference
it keep their data with the link cleared.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if TaskMgr == nil {
			return fmt.Errorf("task manager not initialized")
		}

		id, err := parseID(args[0])
		if err != nil {
			return err
		}
		if err := TaskMgr.DeleteTask(id, time.Now().UTC()); err != nil {
			return fmt.Errorf("deleting task %d: %w", id, err)
		}
		fmt.Printf("Deleted task %d\n", id)
		return nil
	},
}

func flagToggleCmd(use, short string, apply func(id int64, on bool, now time.Time) (*models.Task, error)) *cobra.Command {
	var off bool
	cmd := &cobra.Command{
		Use:   use + " <task-id>",
		Short: short,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if TaskMgr == nil {
				return fmt.Errorf("task manager not initialized")
			}
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			task, err := apply(id, !off, time.Now().UTC())
			if err != nil {
				return fmt.Errorf("%s task %d: %w", use, id, err)
			}
			fmt.Printf("Task %d: %s (score %.2f)\n", task.ID, task.Title, task.Score)
			return nil
		},
	}
	cmd.Flags().BoolVar(&off, "off", false, "Clear the flag instead of setting it")
	return cmd
}

var (
	taskBoostFactor float64
	taskBoostUntil  string
)

var taskBoostCmd = &cobra.Command{
	Use:   "boost <task-id>",
	Short: "Apply a temporary score boost",
	Long: `Apply a temporary multiplier to a task's score until the given date.
Factors are capped at 1.25; expired boosts stop applying on their own.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if TaskMgr == nil {
			return fmt.Errorf("task manager not initialized")
		}
		id, err := parseID(args[0])
		if err != nil {
			return err
		}
		until, err := time.Parse("2006-01-02", taskBoostUntil)
		if err != nil {
			return fmt.Errorf("invalid --until %q: use YYYY-MM-DD", taskBoostUntil)
		}
		task, err := TaskMgr.BoostTask(id, taskBoostFactor, until, time.Now().UTC())
		if err != nil {
			return fmt.Errorf("boosting task %d: %w", id, err)
		}
		fmt.Printf("Boosted task %d by x%.2f until %s (score %.2f)\n",
			task.ID, task.BoostFactor, until.Format("2006-01-02"), task.Score)
		return nil
	},
}

var taskInterestCmd = &cobra.Command{
	Use:   "interest <task-id>",
	Short: "Register an interest hit on a task",
	Long: `Register that the task came up again. Each hit adds 2% to the score
multiplier, capped at 20%.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if TaskMgr == nil {
			return fmt.Errorf("task manager not initialized")
		}
		id, err := parseID(args[0])
		if err != nil {
			return err
		}
		task, err := TaskMgr.RegisterInterest(id, time.Now().UTC())
		if err != nil {
			return fmt.Errorf("registering interest on task %d: %w", id, err)
		}
		fmt.Printf("Task %d interest hits: %d (score %.2f)\n", task.ID, task.InterestHitCount, task.Score)
		return nil
	},
}

var taskBlockReason string

var taskBlockCmd = &cobra.Command{
	Use:   "block <task-id>",
	Short: "Mark a task blocked",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if TaskMgr == nil {
			return fmt.Errorf("task manager not initialized")
		}
		id, err := parseID(args[0])
		if err != nil {
			return err
		}
		task, err := TaskMgr.SetBlocked(id, true, taskBlockReason, time.Now().UTC())
		if err != nil {
			return fmt.Errorf("blocking task %d: %w", id, err)
		}
		fmt.Printf("Blocked task %d (score %.2f)\n", task.ID, task.Score)
		return nil
	},
}

var taskUnblockCmd = &cobra.Command{
	Use:   "unblock <task-id>",
	Short: "Clear a task's blocked state",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if TaskMgr == nil {
			return fmt.Errorf("task manager not initialized")
		}
		id, err := parseID(args[0])
		if err != nil {
			return err
		}
		task, err := TaskMgr.SetBlocked(id, false, "", time.Now().UTC())
		if err != nil {
			return fmt.Errorf("unblocking task %d: %w", id, err)
		}
		fmt.Printf("Unblocked task %d (score %.2f)\n", task.ID, task.Score)
		return nil
	},
}

var taskRescoreCmd = &cobra.Command{
	Use:   "rescore",
	Short: "Recompute the scores of all live tasks",
	Long: `Recompute every live task's score at the current time. Run this
periodically (or after a long absence) so decay and expired boosts
catch up with the calendar.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if TaskMgr == nil {
			return fmt.Errorf("task manager not initialized")
		}
		n, err := TaskMgr.RescoreAll(time.Now().UTC())
		if err != nil {
			return fmt.Errorf("rescoring tasks: %w", err)
		}
		fmt.Printf("Rescored %d task(s)\n", n)
		return nil
	},
}

// --- helpers ---

func parseID(s string) (int64, error) {
	id, err := strconv.ParseInt(s, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid task ID %q", s)
	}
	return id, nil
}

func taskFlags(t models.Task) string {
	var flags []byte
	if t.IsFrog {
		flags = append(flags, 'F')
	}
	if t.IsRock {
		flags = append(flags, 'R')
	}
	if t.IsPareto {
		flags = append(flags, 'P')
	}
	if t.Blocked {
		flags = append(flags, 'B')
	}
	if t.Deleted {
		flags = append(flags, 'D')
	}
	return string(flags)
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max-3] + "..."
}

func init() {
	taskAddCmd.Flags().StringVar(&taskAddType, "type", "", "Task type: action, errand, deep_work, follow_up, recurring")
	taskAddCmd.Flags().StringVar(&taskAddState, "state", "backlog", "Initial state (default backlog)")
	taskAddCmd.Flags().StringVar(&taskAddArea, "area", "", "Life area (defaults from config)")
	taskAddCmd.Flags().StringVar(&taskAddContext, "context", "", "GTD context (defaults from config)")
	taskAddCmd.Flags().StringVar(&taskAddMoscow, "moscow", "", "MoSCoW bucket: must, should, could, wont")
	taskAddCmd.Flags().StringVar(&taskAddHorizon, "horizon", "", "Planning horizon: week, month, quarter, year, someday")
	taskAddCmd.Flags().IntVar(&taskAddImpact, "impact", 0, "Impact criterion 0-10")
	taskAddCmd.Flags().IntVar(&taskAddValue, "value", 0, "Value criterion 0-10")
	taskAddCmd.Flags().IntVar(&taskAddEff, "efficiency", 0, "Efficiency criterion 0-10")
	taskAddCmd.Flags().IntVar(&taskAddStake, "stakeholders", 0, "Stakeholders criterion 0-10")
	taskAddCmd.Flags().IntVar(&taskAddUrgency, "urgency", 0, "Manual urgency override 0-10")
	taskAddCmd.Flags().StringVar(&taskAddDue, "due", "", "Due date (YYYY-MM-DD)")
	taskAddCmd.Flags().StringVar(&taskAddNotes, "notes", "", "Free-form notes")
	taskAddCmd.Flags().Int64Var(&taskAddProject, "project", 0, "Project ID to attach the task to")
	taskAddCmd.Flags().Int64Var(&taskAddStage, "stage", 0, "Stage ID within the project")
	_ = taskAddCmd.RegisterFlagCompletionFunc("state", completeStates)
	_ = taskAddCmd.RegisterFlagCompletionFunc("moscow", completeMoscow)
	_ = taskAddCmd.RegisterFlagCompletionFunc("horizon", completeHorizons)

	taskListCmd.Flags().StringVar(&taskListState, "state", "", "Filter by state")
	taskListCmd.Flags().StringVar(&taskListArea, "area", "", "Filter by area")
	taskListCmd.Flags().StringVar(&taskListContext, "context", "", "Filter by context")
	taskListCmd.Flags().Int64Var(&taskListProject, "project", 0, "Filter by project ID")
	taskListCmd.Flags().BoolVar(&taskListAll, "all", false, "Include soft-deleted tasks")
	_ = taskListCmd.RegisterFlagCompletionFunc("state", completeStates)

	taskUpdateCmd.Flags().StringVar(&taskUpdateTitle, "title", "", "New title")
	taskUpdateCmd.Flags().StringVar(&taskUpdateNotes, "notes", "", "New notes")
	taskUpdateCmd.Flags().StringVar(&taskUpdateArea, "area", "", "New area")
	taskUpdateCmd.Flags().StringVar(&taskUpdateContext, "context", "", "New context")
	taskUpdateCmd.Flags().StringVar(&taskUpdateMoscow, "moscow", "", "New MoSCoW bucket")
	taskUpdateCmd.Flags().StringVar(&taskUpdateHorizon, "horizon", "", "New planning horizon")
	taskUpdateCmd.Flags().IntVar(&taskUpdateImpact, "impact", 0, "New impact 0-10")
	taskUpdateCmd.Flags().IntVar(&taskUpdateValue, "value", 0, "New value 0-10")
	taskUpdateCmd.Flags().IntVar(&taskUpdateEff, "efficiency", 0, "New efficiency 0-10")
	taskUpdateCmd.Flags().IntVar(&taskUpdateStake, "stakeholders", 0, "New stakeholders 0-10")
	taskUpdateCmd.Flags().IntVar(&taskUpdateUrgency, "urgency", 0, "New manual urgency 0-10")
	taskUpdateCmd.Flags().StringVar(&taskUpdateDue, "due", "", "New due date (YYYY-MM-DD, empty clears)")
	taskUpdateCmd.Flags().Float64Var(&taskUpdateRisk, "risk", 0, "Risk/opportunity delta -0.20 to 0.20")
	taskUpdateCmd.ValidArgsFunction = completeTaskIDs()

	taskBoostCmd.Flags().Float64Var(&taskBoostFactor, "factor", 1.1, "Boost multiplier (capped at 1.25)")
	taskBoostCmd.Flags().StringVar(&taskBoostUntil, "until", "", "Boost expiry date (YYYY-MM-DD)")
	_ = taskBoostCmd.MarkFlagRequired("until")
	taskBoostCmd.ValidArgsFunction = completeTaskIDs()

	taskBlockCmd.Flags().StringVar(&taskBlockReason, "reason", "", "Why the task is blocked")
	taskBlockCmd.ValidArgsFunction = completeTaskIDs()
	taskUnblockCmd.ValidArgsFunction = completeTaskIDs()
	taskShowCmd.ValidArgsFunction = completeTaskIDs()
	taskDoneCmd.ValidArgsFunction = completeTaskIDs(models.StateDone)
	taskDeleteCmd.ValidArgsFunction = completeTaskIDs()
	taskInterestCmd.ValidArgsFunction = completeTaskIDs()

	frogCmd := flagToggleCmd("frog", "Mark a task as the frog (hardest, most avoided)", func(id int64, on bool, now time.Time) (*models.Task, error) {
		return TaskMgr.SetFrog(id, on, now)
	})
	rockCmd := flagToggleCmd("rock", "Mark a task as a rock (weekly big thing)", func(id int64, on bool, now time.Time) (*models.Task, error) {
		return TaskMgr.SetRock(id, on, now)
	})
	paretoCmd := flagToggleCmd("pareto", "Mark a task as pareto (80/20 leverage)", func(id int64, on bool, now time.Time) (*models.Task, error) {
		return TaskMgr.SetPareto(id, on, now)
	})
	frogCmd.ValidArgsFunction = completeTaskIDs()
	rockCmd.ValidArgsFunction = completeTaskIDs()
	paretoCmd.ValidArgsFunction = completeTaskIDs()

	taskCmd.AddCommand(taskAddCmd)
	taskCmd.AddCommand(taskListCmd)
	taskCmd.AddCommand(taskShowCmd)
	taskCmd.AddCommand(taskUpdateCmd)
	taskCmd.AddCommand(taskDoneCmd)
	taskCmd.AddCommand(taskDeleteCmd)
	taskCmd.AddCommand(frogCmd)
	taskCmd.AddCommand(rockCmd)
	taskCmd.AddCommand(paretoCmd)
	taskCmd.AddCommand(taskBoostCmd)
	taskCmd.AddCommand(taskInterestCmd)
	taskCmd.AddCommand(taskBlockCmd)
	taskCmd.AddCommand(taskUnblockCmd)
	taskCmd.AddCommand(taskRescoreCmd)

	rootCmd.AddCommand(taskCmd)
}
