package cli

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/gacsesystems/tareas/internal/core"
	"github.com/gacsesystems/tareas/pkg/models"
)

var projectCmd = &cobra.Command{
	Use:   "project",
	Short: "Manage projects (add, list, show, stages, objectives, close)",
	Long: `Project management commands.

Projects derive their progress from plan-weighted stages, objectives, or
task completion depending on the closure criterion, and resolve a single
next action from their open tasks.`,
}

var projectAddObjectivesFlag bool

var projectAddCmd = &cobra.Command{
	Use:   "add <name>",
	Short: "Create a new project",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if ProjectMgr == nil {
			return fmt.Errorf("project manager not initialized")
		}

		criterion := models.CloseByTasks
		if projectAddObjectivesFlag {
			criterion = models.CloseByObjectives
		}
		project, err := ProjectMgr.CreateProject(args[0], criterion, time.Now().UTC())
		if err != nil {
			return fmt.Errorf("creating project: %w", err)
		}

		fmt.Printf("Created project %d: %s (closure %s)\n", project.ID, project.Name, project.ClosureCriterion)
		return nil
	},
}

var projectListCmd = &cobra.Command{
	Use:   "list",
	Short: "List projects by priority",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if ProjectMgr == nil {
			return fmt.Errorf("project manager not initialized")
		}

		projects, err := ProjectMgr.ListProjects()
		if err != nil {
			return fmt.Errorf("listing projects: %w", err)
		}

		if len(projects) == 0 {
			fmt.Println("No projects found.")
			return nil
		}

		fmt.Printf("%-5s %-8s %-10s %-30s %s\n", "ID", "STATUS", "PROGRESS", "NAME", "NEXT")
		for _, p := range projects {
			next := "-"
			if p.NextActionTaskID != nil {
				next = fmt.Sprintf("task %d", *p.NextActionTaskID)
			}
			fmt.Printf("%-5d %-8s %9.2f%% %-30s %s\n",
				p.ID, p.Status, p.ProgressPct, truncate(p.Name, 30), next)
		}
		return nil
	},
}

var projectShowCmd = &cobra.Command{
	Use:   "show <project-id>",
	Short: "Show a project with its stages and objectives",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if ProjectMgr == nil {
			return fmt.Errorf("project manager not initialized")
		}

		id, err := parseID(args[0])
		if err != nil {
			return err
		}
		p, err := ProjectMgr.GetProject(id)
		if err != nil {
			return fmt.Errorf("getting project %d: %w", id, err)
		}

		fmt.Printf("Project %d: %s\n", p.ID, p.Name)
		fmt.Printf("  Status:    %s\n", p.Status)
		fmt.Printf("  Progress:  %.2f%%\n", p.ProgressPct)
		fmt.Printf("  Closure:   %s\n", p.ClosureCriterion)
		fmt.Printf("  Next mode: %s\n", p.NextActionMode)
		if p.NextActionTaskID != nil {
			fmt.Printf("  Next task: %d\n", *p.NextActionTaskID)
		}
		if p.ActualEnd != nil {
			fmt.Printf("  Closed at: %s\n", p.ActualEnd.Format("2006-01-02"))
		}

		if len(p.Stages) > 0 {
			fmt.Println("\n  Stages:")
			for _, s := range p.Stages {
				mark := " "
				if s.Done {
					mark = "x"
				}
				plan := ""
				if s.PlanStart != nil && s.PlanEnd != nil {
					plan = fmt.Sprintf(" (%s to %s)", s.PlanStart.Format("2006-01-02"), s.PlanEnd.Format("2006-01-02"))
				}
				fmt.Printf("    [%s] %d. %s%s\n", mark, s.ID, s.Name, plan)
			}
		}

		if len(p.Objectives) > 0 {
			fmt.Println("\n  Objectives:")
			for _, o := range p.Objectives {
				mark := " "
				if o.Completed {
					mark = "x"
				}
				fmt.Printf("    [%s] %d. %s\n", mark, o.ID, o.Name)
			}
		}
		return nil
	},
}

var (
	stageAddPlanStart string
	stageAddPlanEnd   string
)

var projectStageAddCmd = &cobra.Command{
	Use:   "stage-add <project-id> <name>",
	Short: "Add a stage to a project",
	Long: `Add a stage to a project. Plan dates weight the stage's share of
project progress: longer planned stages count for more.`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		if ProjectMgr == nil {
			return fmt.Errorf("project manager not initialized")
		}

		id, err := parseID(args[0])
		if err != nil {
			return err
		}

		var planStart, planEnd *time.Time
		if stageAddPlanStart != "" {
			t, err := time.Parse("2006-01-02", stageAddPlanStart)
			if err != nil {
				return fmt.Errorf("invalid --plan-start %q: use YYYY-MM-DD", stageAddPlanStart)
			}
			planStart = &t
		}
		if stageAddPlanEnd != "" {
			t, err := time.Parse("2006-01-02", stageAddPlanEnd)
			if err != nil {
				return fmt.Errorf("invalid --plan-end %q: use YYYY-MM-DD", stageAddPlanEnd)
			}
			planEnd = &t
		}

		p, err := ProjectMgr.AddStage(id, args[1], planStart, planEnd, time.Now().UTC())
		if err != nil {
			return fmt.Errorf("adding stage to project %d: %w", id, err)
		}

		fmt.Printf("Added stage to project %d (progress %.2f%%)\n", p.ID, p.ProgressPct)
		return nil
	},
}

var projectStageDoneCmd = &cobra.Command{
	Use:   "stage-done <project-id> <stage-id>",
	Short: "Mark a project stage done",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		if ProjectMgr == nil {
			return fmt.Errorf("project manager not initialized")
		}

		projectID, err := parseID(args[0])
		if err != nil {
			return err
		}
		stageID, err := parseID(args[1])
		if err != nil {
			return err
		}

		done := true
		patch := core.StagePatch{Done: &done}
		p, err := ProjectMgr.UpdateStage(projectID, stageID, patch, time.Now().UTC())
		if err != nil {
			return fmt.Errorf("completing stage %d: %w", stageID, err)
		}

		fmt.Printf("Project %d progress: %.2f%%", p.ID, p.ProgressPct)
		if p.Status == models.ProjectClosed {
			fmt.Print(" (closed)")
		}
		fmt.Println()
		return nil
	},
}

var projectObjectiveAddCmd = &cobra.Command{
	Use:   "objective-add <project-id> <name>",
	Short: "Add an objective to a project",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		if ProjectMgr == nil {
			return fmt.Errorf("project manager not initialized")
		}

		id, err := parseID(args[0])
		if err != nil {
			return err
		}
		p, err := ProjectMgr.AddObjective(id, args[1], time.Now().UTC())
		if err != nil {
			return fmt.Errorf("adding objective to project %d: %w", id, err)
		}

		fmt.Printf("Added objective to project %d (progress %.2f%%)\n", p.ID, p.ProgressPct)
		return nil
	},
}

var objectiveDoneUndo bool

var projectObjectiveDoneCmd = &cobra.Command{
	Use:   "objective-done <project-id> <objective-id>",
	Short: "Mark a project objective completed",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		if ProjectMgr == nil {
			return fmt.Errorf("project manager not initialized")
		}

		projectID, err := parseID(args[0])
		if err != nil {
			return err
		}
		objectiveID, err := parseID(args[1])
		if err != nil {
			return err
		}

		p, err := ProjectMgr.SetObjectiveCompleted(projectID, objectiveID, !objectiveDoneUndo, time.Now().UTC())
		if err != nil {
			return fmt.Errorf("updating objective %d: %w", objectiveID, err)
		}

		fmt.Printf("Project %d progress: %.2f%%", p.ID, p.ProgressPct)
		if p.Status == models.ProjectClosed {
			fmt.Print(" (closed)")
		}
		fmt.Println()
		return nil
	},
}

var projectNextPin int64

var projectNextCmd = &cobra.Command{
	Use:   "next <project-id>",
	Short: "Show or pin a project's next action",
	Long: `Resolve and show the project's next action. With --pin the given task
is pinned as a manual next action; with --auto resolution returns to
automatic mode.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if ProjectMgr == nil {
			return fmt.Errorf("project manager not initialized")
		}

		id, err := parseID(args[0])
		if err != nil {
			return err
		}
		now := time.Now().UTC()

		var p *models.Project
		switch {
		case cmd.Flags().Changed("pin"):
			p, err = ProjectMgr.SetNextActionMode(id, models.NextActionManual, &projectNextPin, now)
		case cmd.Flags().Changed("auto"):
			p, err = ProjectMgr.SetNextActionMode(id, models.NextActionAuto, nil, now)
		default:
			p, err = ProjectMgr.RecomputeProject(id, now)
		}
		if err != nil {
			return fmt.Errorf("resolving next action for project %d: %w", id, err)
		}

		if p.NextActionTaskID == nil {
			fmt.Printf("Project %d has no eligible next action.\n", p.ID)
			return nil
		}

		fmt.Printf("Project %d next action: task %d (%s mode)\n", p.ID, *p.NextActionTaskID, p.NextActionMode)
		if TaskMgr != nil {
			if task, err := TaskMgr.GetTask(*p.NextActionTaskID); err == nil {
				fmt.Printf("  %s (score %.2f)\n", task.Title, task.Score)
			}
		}
		return nil
	},
}

var projectCloseCmd = &cobra.Command{
	Use:   "close <project-id>",
	Short: "Close a project",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if ProjectMgr == nil {
			return fmt.Errorf("project manager not initialized")
		}

		id, err := parseID(args[0])
		if err != nil {
			return err
		}
		p, err := ProjectMgr.CloseProject(id, time.Now().UTC())
		if err != nil {
			return fmt.Errorf("closing project %d: %w", id, err)
		}
		fmt.Printf("Closed project %d: %s\n", p.ID, p.Name)
		return nil
	},
}

var projectReopenCmd = &cobra.Command{
	Use:   "reopen <project-id>",
	Short: "Reopen a closed project",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if ProjectMgr == nil {
			return fmt.Errorf("project manager not initialized")
		}

		id, err := parseID(args[0])
		if err != nil {
			return err
		}
		p, err := ProjectMgr.ReopenProject(id, time.Now().UTC())
		if err != nil {
			return fmt.Errorf("reopening project %d: %w", id, err)
		}
		fmt.Printf("Reopened project %d: %s\n", p.ID, p.Name)
		return nil
	},
}

var projectDeleteCmd = &cobra.Command{
	Use:   "delete <project-id>",
	Short: "Delete a project",
	Long: `Delete a project. Its tasks survive with the project link cleared.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if ProjectMgr == nil {
			return fmt.Errorf("project manager not initialized")
		}

		id, err := parseID(args[0])
		if err != nil {
			return err
		}
		if err := ProjectMgr.DeleteProject(id); err != nil {
			return fmt.Errorf("deleting project %d: %w", id, err)
		}
		fmt.Printf("Deleted project %d\n", id)
		return nil
	},
}

func init() {
	projectAddCmd.Flags().BoolVar(&projectAddObjectivesFlag, "by-objectives", false, "Derive progress from objectives instead of tasks")

	projectStageAddCmd.Flags().StringVar(&stageAddPlanStart, "plan-start", "", "Planned start date (YYYY-MM-DD)")
	projectStageAddCmd.Flags().StringVar(&stageAddPlanEnd, "plan-end", "", "Planned end date (YYYY-MM-DD)")

	projectNextCmd.Flags().Int64Var(&projectNextPin, "pin", 0, "Pin this task ID as the manual next action")
	projectNextCmd.Flags().Bool("auto", false, "Return next-action resolution to automatic mode")
	projectObjectiveDoneCmd.Flags().BoolVar(&objectiveDoneUndo, "undo", false, "Mark the objective incomplete instead")

	projectShowCmd.ValidArgsFunction = completeProjectIDs
	projectNextCmd.ValidArgsFunction = completeProjectIDs
	projectCloseCmd.ValidArgsFunction = completeProjectIDs
	projectReopenCmd.ValidArgsFunction = completeProjectIDs
	projectDeleteCmd.ValidArgsFunction = completeProjectIDs

	projectCmd.AddCommand(projectAddCmd)
	projectCmd.AddCommand(projectListCmd)
	projectCmd.AddCommand(projectShowCmd)
	projectCmd.AddCommand(projectStageAddCmd)
	projectCmd.AddCommand(projectStageDoneCmd)
	projectCmd.AddCommand(projectObjectiveAddCmd)
	projectCmd.AddCommand(projectObjectiveDoneCmd)
	projectCmd.AddCommand(projectNextCmd)
	projectCmd.AddCommand(projectCloseCmd)
	projectCmd.AddCommand(projectReopenCmd)
	projectCmd.AddCommand(projectDeleteCmd)

	rootCmd.AddCommand(projectCmd)
}
