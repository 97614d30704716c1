package models

import "time"

// TaskState represents the kanban column a task currently lives in.
type TaskState string

const (
	StateBacklog    TaskState = "backlog"
	StateNext       TaskState = "next"
	StateToday      TaskState = "today"
	StateInProgress TaskState = "in_progress"
	StateInReview   TaskState = "in_review"
	StateDone       TaskState = "done"
	StateBlocked    TaskState = "blocked"
)

// AllTaskStates lists every valid state in kanban column order.
var AllTaskStates = []TaskState{
	StateBacklog,
	StateNext,
	StateToday,
	StateInProgress,
	StateInReview,
	StateDone,
	StateBlocked,
}

// TaskType represents the kind of work a task involves.
type TaskType string

const (
	TaskTypeAction    TaskType = "action"
	TaskTypeErrand    TaskType = "errand"
	TaskTypeDeepWork  TaskType = "deep_work"
	TaskTypeFollowUp  TaskType = "follow_up"
	TaskTypeRecurring TaskType = "recurring"
)

// Moscow represents the MoSCoW prioritization bucket.
type Moscow string

const (
	MoscowMust   Moscow = "must"
	MoscowShould Moscow = "should"
	MoscowCould  Moscow = "could"
	MoscowWont   Moscow = "wont"
)

// Horizon represents the planning horizon bucket.
type Horizon string

const (
	HorizonWeek    Horizon = "week"
	HorizonMonth   Horizon = "month"
	HorizonQuarter Horizon = "quarter"
	HorizonYear    Horizon = "year"
	HorizonSomeday Horizon = "someday"
)

// KashBucket classifies a task's growth focus
// (Knowledge / Attitude / Skill / Habit).
type KashBucket string

const (
	KashKnowledge KashBucket = "K"
	KashAttitude  KashBucket = "A"
	KashSkill     KashBucket = "S"
	KashHabit     KashBucket = "H"
)

// Task is the central entity. Score and Ranking are derived fields: Score is
// always recomputed from the other fields plus a reference time and is never
// accepted from input; Ranking is the sparse kanban sort key within a state.
type Task struct {
	ID    int64     `yaml:"id"`
	Title string    `yaml:"title"`
	Notes string    `yaml:"notes,omitempty"`
	State TaskState `yaml:"state"`
	Type  TaskType  `yaml:"type,omitempty"`

	Area    string  `yaml:"area,omitempty"`
	Context string  `yaml:"context,omitempty"`
	Moscow  Moscow  `yaml:"moscow,omitempty"`
	Horizon Horizon `yaml:"horizon,omitempty"`

	// Multi-criteria inputs, each 0-10 or absent.
	Impact        *int `yaml:"impact,omitempty"`
	Value         *int `yaml:"value,omitempty"`
	Efficiency    *int `yaml:"efficiency,omitempty"`
	Stakeholders  *int `yaml:"stakeholders,omitempty"`
	ManualUrgency *int `yaml:"manual_urgency,omitempty"`

	IsRock         bool       `yaml:"is_rock,omitempty"`
	IsFrog         bool       `yaml:"is_frog,omitempty"`
	FrogDate       *time.Time `yaml:"frog_date,omitempty"`
	IsPareto       bool       `yaml:"is_pareto,omitempty"`
	FamilyFriendly bool       `yaml:"family_friendly,omitempty"`
	Kash           KashBucket `yaml:"kash,omitempty"`
	Kaizen         bool       `yaml:"kaizen,omitempty"`

	CreatedAt      time.Time  `yaml:"created_at"`
	DueAt          *time.Time `yaml:"due_at,omitempty"`
	FollowUpAt     *time.Time `yaml:"follow_up_at,omitempty"`
	LastMovementAt *time.Time `yaml:"last_movement_at,omitempty"`

	Blocked       bool   `yaml:"blocked,omitempty"`
	BlockedReason string `yaml:"blocked_reason,omitempty"`

	BoostFactor float64    `yaml:"boost_factor,omitempty"`
	BoostUntil  *time.Time `yaml:"boost_until,omitempty"`

	InterestHitCount int        `yaml:"interest_hit_count,omitempty"`
	InterestLastAt   *time.Time `yaml:"interest_last_at,omitempty"`

	RiskOpportunityDelta *float64 `yaml:"risk_opportunity_delta,omitempty"`

	Ranking int     `yaml:"ranking"`
	Score   float64 `yaml:"score"`

	ProjectID int64 `yaml:"project_id,omitempty"`
	StageID   int64 `yaml:"stage_id,omitempty"`
	HabitID   int64 `yaml:"habit_id,omitempty"`

	Deleted bool `yaml:"deleted,omitempty"`
}
