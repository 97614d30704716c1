package core

import "github.com/gacsesystems/tareas/pkg/models"

// TaskStore is the persistence surface the managers need for tasks.
// Defining it here keeps core independent of the storage package.
type TaskStore interface {
	Add(t models.Task) error
	Update(t models.Task) error
	Get(id int64) (*models.Task, error)
	GetAll() ([]models.Task, error)
	Remove(id int64) error
	Load() error
	Save() error
}

// ProjectStore is the persistence surface for projects (stages and
// objectives travel embedded in the Project record).
type ProjectStore interface {
	Add(p models.Project) error
	Update(p models.Project) error
	Get(id int64) (*models.Project, error)
	GetAll() ([]models.Project, error)
	Remove(id int64) error
	Load() error
	Save() error
}

// HabitStore is the persistence surface for habits and their logs.
type HabitStore interface {
	Add(h models.Habit) error
	Update(h models.Habit) error
	Get(id int64) (*models.Habit, error)
	GetAll() ([]models.Habit, error)
	Remove(id int64) error
	// ClearTaskRefs blanks the task reference on every log that points at the
	// given task, keeping the historical log itself.
	ClearTaskRefs(taskID int64) error
	Load() error
	Save() error
}

// EventLogger is the subset of the observability event log the managers use.
type EventLogger interface {
	LogEvent(eventType string, data map[string]any) error
}
