package observability

import (
	"fmt"
	"time"
)

// Metrics holds calculated metrics derived from the event log.
type Metrics struct {
	TasksCreated   int            `json:"tasks_created"`
	TasksCompleted int            `json:"tasks_completed"`
	TasksDeleted   int            `json:"tasks_deleted"`
	TasksBlocked   int            `json:"tasks_blocked"`
	MovesByState   map[string]int `json:"moves_by_state"`

	ProjectsCreated int `json:"projects_created"`
	ProjectsClosed  int `json:"projects_closed"`

	HabitCheckIns          int     `json:"habit_check_ins"`
	HabitCompliantCheckIns int     `json:"habit_compliant_check_ins"`
	HabitComplianceRate    float64 `json:"habit_compliance_rate"`

	EventCount  int        `json:"event_count"`
	OldestEvent *time.Time `json:"oldest_event,omitempty"`
	NewestEvent *time.Time `json:"newest_event,omitempty"`
}

// MetricsCalculator derives metrics from the event log.
type MetricsCalculator interface {
	Calculate(since time.Time) (*Metrics, error)
}

// metricsCalculator implements MetricsCalculator by reading from an EventLog.
type metricsCalculator struct {
	eventLog EventLog
}

// NewMetricsCalculator creates a new MetricsCalculator that reads from the given EventLog.
func NewMetricsCalculator(eventLog EventLog) MetricsCalculator {
	return &metricsCalculator{eventLog: eventLog}
}

// Calculate reads all events since the given time and aggregates them into metrics.
func (mc *metricsCalculator) Calculate(since time.Time) (*Metrics, error) {
	events, err := mc.eventLog.Read(EventFilter{Since: &since})
	if err != nil {
		return nil, fmt.Errorf("reading events for metrics: %w", err)
	}

	m := &Metrics{
		MovesByState: make(map[string]int),
	}

	m.EventCount = len(events)

	for i, event := range events {
		if i == 0 {
			t := event.Time
			m.OldestEvent = &t
		}
		t := event.Time
		m.NewestEvent = &t

		switch event.Type {
		case "task.created":
			m.TasksCreated++
		case "task.completed":
			m.TasksCompleted++
		case "task.deleted":
			m.TasksDeleted++
		case "task.blocked":
			if blocked, ok := event.Data["blocked"].(bool); ok && blocked {
				m.TasksBlocked++
			}
		case "task.state_changed":
			if state, ok := event.Data["new_state"].(string); ok {
				m.MovesByState[state]++
			}
		case "project.created":
			m.ProjectsCreated++
		case "project.closed":
			m.ProjectsClosed++
		case "habit.logged":
			m.HabitCheckIns++
			if compliant, ok := event.Data["compliant"].(bool); ok && compliant {
				m.HabitCompliantCheckIns++
			}
		}
	}

	if m.HabitCheckIns > 0 {
		m.HabitComplianceRate = float64(m.HabitCompliantCheckIns) / float64(m.HabitCheckIns)
	}

	return m, nil
}
