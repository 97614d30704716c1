package models

import "time"

// ProjectStatus represents a project's lifecycle state.
type ProjectStatus string

const (
	ProjectOpen   ProjectStatus = "open"
	ProjectClosed ProjectStatus = "closed"
)

// ClosureCriterion selects how project progress (and therefore auto-closure)
// is derived when the project has no stages.
type ClosureCriterion string

const (
	CloseByTasks      ClosureCriterion = "by-tasks"
	CloseByObjectives ClosureCriterion = "by-objectives"
)

// NextActionMode selects whether the project's next action is resolved
// automatically or pinned by hand.
type NextActionMode string

const (
	NextActionAuto   NextActionMode = "auto"
	NextActionManual NextActionMode = "manual"
)

// ProjectStage is an ordered phase within a project, with its own plan and
// actual date ranges and progress.
type ProjectStage struct {
	ID          int64      `yaml:"id"`
	Name        string     `yaml:"name"`
	Orden       int        `yaml:"orden"`
	Done        bool       `yaml:"done,omitempty"`
	ProgressPct *float64   `yaml:"progress_pct,omitempty"`
	PlanStart   *time.Time `yaml:"plan_start,omitempty"`
	PlanEnd     *time.Time `yaml:"plan_end,omitempty"`
	ActualStart *time.Time `yaml:"actual_start,omitempty"`
	ActualEnd   *time.Time `yaml:"actual_end,omitempty"`
}

// ProjectObjective is an ordered objective with a completion flag.
type ProjectObjective struct {
	ID        int64  `yaml:"id"`
	Name      string `yaml:"name"`
	Orden     int    `yaml:"orden"`
	Completed bool   `yaml:"completed,omitempty"`
}

// Project owns zero or more stages, objectives, and tasks. ProgressPct is a
// derived field: it is recomputed on every stage, objective, or task change
// and never trusted from input.
type Project struct {
	ID        int64         `yaml:"id"`
	Name      string        `yaml:"name"`
	Status    ProjectStatus `yaml:"status"`
	Priority  int           `yaml:"priority,omitempty"`
	Strategic bool          `yaml:"strategic,omitempty"`

	PlanStart   *time.Time `yaml:"plan_start,omitempty"`
	PlanEnd     *time.Time `yaml:"plan_end,omitempty"`
	ActualStart *time.Time `yaml:"actual_start,omitempty"`
	ActualEnd   *time.Time `yaml:"actual_end,omitempty"`

	ClosureCriterion ClosureCriterion `yaml:"closure_criterion"`
	ProgressPct      float64          `yaml:"progress_pct"`

	NextActionMode      NextActionMode `yaml:"next_action_mode"`
	NextActionTaskID    *int64         `yaml:"next_action_task_id,omitempty"`
	NextActionUpdatedAt *time.Time     `yaml:"next_action_updated_at,omitempty"`

	Stages     []ProjectStage     `yaml:"stages,omitempty"`
	Objectives []ProjectObjective `yaml:"objectives,omitempty"`
}
