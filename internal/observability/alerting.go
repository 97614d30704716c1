package observability

import (
	"fmt"
	"time"

	"github.com/gacsesystems/tareas/pkg/models"
)

// AlertSeverity represents the urgency of an alert.
type AlertSeverity string

const (
	SeverityHigh   AlertSeverity = "high"
	SeverityMedium AlertSeverity = "medium"
	SeverityLow    AlertSeverity = "low"
)

// Alert represents a triggered alert condition.
type Alert struct {
	ID          string        `json:"id"`
	Condition   string        `json:"condition"`
	Severity    AlertSeverity `json:"severity"`
	Message     string        `json:"message"`
	TriggeredAt time.Time     `json:"triggered_at"`
}

// AlertThresholds configures when alerts should fire.
type AlertThresholds struct {
	BlockedHours   int `yaml:"blocked_threshold_hours" json:"blocked_threshold_hours"`
	StaleDays      int `yaml:"stale_threshold_days" json:"stale_threshold_days"`
	FollowUpDays   int `yaml:"follow_up_threshold_days" json:"follow_up_threshold_days"`
	MaxBacklogSize int `yaml:"max_backlog_size" json:"max_backlog_size"`
}

// DefaultAlertThresholds returns sensible defaults for alert thresholds.
func DefaultAlertThresholds() AlertThresholds {
	return AlertThresholds{
		BlockedHours:   48,
		StaleDays:      7,
		FollowUpDays:   0,
		MaxBacklogSize: 100,
	}
}

// TaskSource is the slice of the task store the alert engine reads for
// conditions that live on task fields rather than in the event stream.
type TaskSource interface {
	Load() error
	GetAll() ([]models.Task, error)
}

// AlertEngine evaluates alert conditions against the event log and the
// current task registry.
type AlertEngine interface {
	Evaluate(now time.Time) ([]Alert, error)
}

type alertEngine struct {
	eventLog   EventLog
	tasks      TaskSource
	thresholds AlertThresholds
}

// NewAlertEngine creates an AlertEngine. tasks may be nil, in which case the
// follow-up and backlog-size conditions are skipped.
func NewAlertEngine(eventLog EventLog, tasks TaskSource, thresholds AlertThresholds) AlertEngine {
	return &alertEngine{
		eventLog:   eventLog,
		tasks:      tasks,
		thresholds: thresholds,
	}
}

// Evaluate checks all alert conditions at the given reference time and
// returns any triggered alerts.
func (ae *alertEngine) Evaluate(now time.Time) ([]Alert, error) {
	var alerts []Alert

	blockedAlerts, err := ae.checkBlockedTasks(now)
	if err != nil {
		return nil, fmt.Errorf("checking blocked tasks: %w", err)
	}
	alerts = append(alerts, blockedAlerts...)

	staleAlerts, err := ae.checkStaleTasks(now)
	if err != nil {
		return nil, fmt.Errorf("checking stale tasks: %w", err)
	}
	alerts = append(alerts, staleAlerts...)

	if ae.tasks != nil {
		followUpAlerts, err := ae.checkOverdueFollowUps(now)
		if err != nil {
			return nil, fmt.Errorf("checking follow-ups: %w", err)
		}
		alerts = append(alerts, followUpAlerts...)

		backlogAlerts, err := ae.checkBacklogSize(now)
		if err != nil {
			return nil, fmt.Errorf("checking backlog size: %w", err)
		}
		alerts = append(alerts, backlogAlerts...)
	}

	return alerts, nil
}

// checkBlockedTasks looks for tasks that have been blocked longer than the
// threshold, based on the latest task.blocked event per task.
func (ae *alertEngine) checkBlockedTasks(now time.Time) ([]Alert, error) {
	events, err := ae.eventLog.Read(EventFilter{Type: "task.blocked"})
	if err != nil {
		return nil, err
	}

	type blockState struct {
		blocked bool
		since   time.Time
	}
	latest := make(map[int64]blockState)
	for _, event := range events {
		taskID := event.TaskID()
		if taskID == 0 {
			continue
		}
		blocked, _ := event.Data["blocked"].(bool)
		latest[taskID] = blockState{blocked: blocked, since: event.Time}
	}

	threshold := time.Duration(ae.thresholds.BlockedHours) * time.Hour
	var alerts []Alert
	for taskID, state := range latest {
		if state.blocked && now.Sub(state.since) > threshold {
			alerts = append(alerts, Alert{
				ID:          fmt.Sprintf("blocked-%d", taskID),
				Condition:   "task_blocked_too_long",
				Severity:    SeverityHigh,
				Message:     fmt.Sprintf("task %d has been blocked for more than %d hours", taskID, ae.thresholds.BlockedHours),
				TriggeredAt: now,
			})
		}
	}

	return alerts, nil
}

// checkStaleTasks looks for in-progress tasks with no recent activity in the
// event stream.
func (ae *alertEngine) checkStaleTasks(now time.Time) ([]Alert, error) {
	events, err := ae.eventLog.Read(EventFilter{})
	if err != nil {
		return nil, err
	}

	lastActivity := make(map[int64]time.Time)
	currentState := make(map[int64]string)

	for _, event := range events {
		taskID := event.TaskID()
		if taskID == 0 {
			continue
		}
		if event.Time.After(lastActivity[taskID]) {
			lastActivity[taskID] = event.Time
		}
		if event.Type == "task.state_changed" {
			if newState, ok := event.Data["new_state"].(string); ok {
				currentState[taskID] = newState
			}
		}
	}

	threshold := time.Duration(ae.thresholds.StaleDays) * 24 * time.Hour
	var alerts []Alert
	for taskID, lastTime := range lastActivity {
		if currentState[taskID] == string(models.StateInProgress) && now.Sub(lastTime) > threshold {
			alerts = append(alerts, Alert{
				ID:          fmt.Sprintf("stale-%d", taskID),
				Condition:   "task_stale",
				Severity:    SeverityMedium,
				Message:     fmt.Sprintf("task %d has had no activity for more than %d days", taskID, ae.thresholds.StaleDays),
				TriggeredAt: now,
			})
		}
	}

	return alerts, nil
}

// checkOverdueFollowUps looks for live tasks whose follow-up date has passed
// by more than the configured grace days.
func (ae *alertEngine) checkOverdueFollowUps(now time.Time) ([]Alert, error) {
	if err := ae.tasks.Load(); err != nil {
		return nil, err
	}
	all, err := ae.tasks.GetAll()
	if err != nil {
		return nil, err
	}

	grace := time.Duration(ae.thresholds.FollowUpDays) * 24 * time.Hour
	var alerts []Alert
	for _, t := range all {
		if t.Deleted || t.State == models.StateDone || t.FollowUpAt == nil {
			continue
		}
		if now.Sub(*t.FollowUpAt) > grace {
			alerts = append(alerts, Alert{
				ID:          fmt.Sprintf("followup-%d", t.ID),
				Condition:   "follow_up_overdue",
				Severity:    SeverityMedium,
				Message:     fmt.Sprintf("task %d follow-up was due %s", t.ID, t.FollowUpAt.Format("2006-01-02")),
				TriggeredAt: now,
			})
		}
	}

	return alerts, nil
}

// checkBacklogSize counts live backlog tasks and alerts when they exceed the
// configured maximum.
func (ae *alertEngine) checkBacklogSize(now time.Time) ([]Alert, error) {
	if err := ae.tasks.Load(); err != nil {
		return nil, err
	}
	all, err := ae.tasks.GetAll()
	if err != nil {
		return nil, err
	}

	backlogCount := 0
	for _, t := range all {
		if !t.Deleted && t.State == models.StateBacklog {
			backlogCount++
		}
	}

	var alerts []Alert
	if backlogCount > ae.thresholds.MaxBacklogSize {
		alerts = append(alerts, Alert{
			ID:          "backlog-size",
			Condition:   "backlog_too_large",
			Severity:    SeverityLow,
			Message:     fmt.Sprintf("backlog has %d tasks, exceeding the maximum of %d", backlogCount, ae.thresholds.MaxBacklogSize),
			TriggeredAt: now,
		})
	}

	return alerts, nil
}
