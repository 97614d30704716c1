package models

// HabitKind distinguishes habits to build up (positive) from habits to
// cut down (negative).
type HabitKind string

const (
	HabitPositive HabitKind = "positive"
	HabitNegative HabitKind = "negative"
)

// Periodicity is how often a habit is expected to be checked in.
type Periodicity string

const (
	PeriodDaily   Periodicity = "daily"
	PeriodWeekly  Periodicity = "weekly"
	PeriodMonthly Periodicity = "monthly"
)

// Habit is either binary (no unit and no target: a plain did/didn't check-in)
// or quantitative (unit plus target, optionally with a compliance threshold).
type Habit struct {
	ID   int64     `yaml:"id"`
	Name string    `yaml:"name"`
	Kind HabitKind `yaml:"kind"`

	Unit                string   `yaml:"unit,omitempty"`
	Target              *float64 `yaml:"target,omitempty"`
	ComplianceThreshold *float64 `yaml:"compliance_threshold,omitempty"`

	Periodicity Periodicity `yaml:"periodicity"`

	Streak     int `yaml:"streak"`
	BestStreak int `yaml:"best_streak"`

	// MonthlyFreezes is the number of grace skips left this month; reset by
	// an external scheduled job, not by the engine.
	MonthlyFreezes int `yaml:"monthly_freezes,omitempty"`

	// Logs holds one entry per check-in date, keyed by YYYY-MM-DD.
	Logs map[string]HabitLog `yaml:"logs,omitempty"`
}

// HabitLog records one check-in: the raw value supplied plus the computed
// compliance flag and percentage. TaskID links the recurring-task instance
// that produced the log; deleting that task clears the reference but keeps
// the log.
type HabitLog struct {
	Date       string   `yaml:"date"`
	Value      *float64 `yaml:"value,omitempty"`
	Compliant  bool     `yaml:"compliant"`
	Percentage float64  `yaml:"percentage"`
	TaskID     int64    `yaml:"task_id,omitempty"`
}

// IsBinary reports whether the habit has neither unit nor target defined.
func (h Habit) IsBinary() bool {
	return h.Unit == "" && h.Target == nil
}
