package core

import (
	"fmt"
	"sort"
	"time"

	"github.com/gacsesystems/tareas/pkg/models"
)

const habitDateLayout = "2006-01-02"

// CreateHabitInput carries the fields needed to register a habit. A habit
// with neither Unit nor Target is binary.
type CreateHabitInput struct {
	Name                string
	Kind                models.HabitKind
	Unit                string
	Target              *float64
	ComplianceThreshold *float64
	Periodicity         models.Periodicity
}

// HabitManager owns habit registration and check-ins. Streaks advance only
// on same-day compliant check-ins of daily habits; backfilled logs record
// compliance but never touch the streak.
type HabitManager interface {
	CreateHabit(in CreateHabitInput) (*models.Habit, error)
	GetHabit(id int64) (*models.Habit, error)
	ListHabits() ([]models.Habit, error)
	LogCheckIn(habitID int64, date time.Time, value *float64, taskID int64, now time.Time) (*models.Habit, error)
	ResetStreak(habitID int64) (*models.Habit, error)
	ResetMonthlyFreezes(count int) error
	DeleteHabit(habitID int64) error
}

type habitManager struct {
	idGen     IDGenerator
	store     HabitStore
	evaluator HabitEvaluator
	events    EventLogger
}

// NewHabitManager creates a HabitManager; events may be nil.
func NewHabitManager(idGen IDGenerator, store HabitStore, evaluator HabitEvaluator, events EventLogger) HabitManager {
	return &habitManager{idGen: idGen, store: store, evaluator: evaluator, events: events}
}

func (m *habitManager) logEvent(eventType string, data map[string]any) {
	if m.events != nil {
		_ = m.events.LogEvent(eventType, data)
	}
}

func (m *habitManager) CreateHabit(in CreateHabitInput) (*models.Habit, error) {
	if in.Name == "" {
		return nil, fmt.Errorf("creating habit: name must not be empty")
	}
	if in.Kind != models.HabitPositive && in.Kind != models.HabitNegative {
		return nil, fmt.Errorf("creating habit: invalid kind %q", in.Kind)
	}
	switch in.Periodicity {
	case "":
		in.Periodicity = models.PeriodDaily
	case models.PeriodDaily, models.PeriodWeekly, models.PeriodMonthly:
	default:
		return nil, fmt.Errorf("creating habit: invalid periodicity %q", in.Periodicity)
	}
	if in.Target != nil && *in.Target <= 0 {
		return nil, fmt.Errorf("creating habit: target must be positive")
	}

	id, err := m.idGen.NextID()
	if err != nil {
		return nil, fmt.Errorf("creating habit: %w", err)
	}

	habit := models.Habit{
		ID:                  id,
		Name:                in.Name,
		Kind:                in.Kind,
		Unit:                in.Unit,
		Target:              in.Target,
		ComplianceThreshold: in.ComplianceThreshold,
		Periodicity:         in.Periodicity,
	}

	if err := m.store.Load(); err != nil {
		return nil, fmt.Errorf("creating habit: loading store: %w", err)
	}
	if err := m.store.Add(habit); err != nil {
		return nil, fmt.Errorf("creating habit: %w", err)
	}
	if err := m.store.Save(); err != nil {
		return nil, fmt.Errorf("creating habit: saving store: %w", err)
	}

	m.logEvent("habit.created", map[string]any{"habit_id": id, "name": in.Name})
	return &habit, nil
}

func (m *habitManager) GetHabit(id int64) (*models.Habit, error) {
	if err := m.store.Load(); err != nil {
		return nil, fmt.Errorf("getting habit %d: loading store: %w", id, err)
	}
	h, err := m.store.Get(id)
	if err != nil {
		return nil, fmt.Errorf("getting habit %d: %w", id, err)
	}
	return h, nil
}

func (m *habitManager) ListHabits() ([]models.Habit, error) {
	if err := m.store.Load(); err != nil {
		return nil, fmt.Errorf("listing habits: loading store: %w", err)
	}
	all, err := m.store.GetAll()
	if err != nil {
		return nil, fmt.Errorf("listing habits: %w", err)
	}
	sort.SliceStable(all, func(i, j int) bool { return all[i].ID < all[j].ID })
	return all, nil
}

// LogCheckIn evaluates and records a check-in for the given calendar date.
// A second check-in on the same date replaces the first. The streak advances
// at most once per day, and only when a daily habit's check-in for today is
// compliant.
func (m *habitManager) LogCheckIn(habitID int64, date time.Time, value *float64, taskID int64, now time.Time) (*models.Habit, error) {
	if err := m.store.Load(); err != nil {
		return nil, fmt.Errorf("logging habit %d: loading store: %w", habitID, err)
	}
	h, err := m.store.Get(habitID)
	if err != nil {
		return nil, fmt.Errorf("logging habit %d: %w", habitID, err)
	}

	day := startOfDay(date)
	if day.After(startOfDay(now)) {
		return nil, fmt.Errorf("logging habit %d: date %s is in the future", habitID, day.Format(habitDateLayout))
	}

	compliant, percentage := m.evaluator.Evaluate(*h, value)
	key := day.Format(habitDateLayout)
	_, replaced := h.Logs[key]

	if h.Logs == nil {
		h.Logs = make(map[string]models.HabitLog)
	}
	h.Logs[key] = models.HabitLog{
		Date:       key,
		Value:      value,
		Compliant:  compliant,
		Percentage: percentage,
		TaskID:     taskID,
	}

	streakAdvanced := false
	if h.Periodicity == models.PeriodDaily && key == startOfDay(now).Format(habitDateLayout) && compliant && !replaced {
		h.Streak++
		if h.Streak > h.BestStreak {
			h.BestStreak = h.Streak
		}
		streakAdvanced = true
	}

	if err := m.store.Update(*h); err != nil {
		return nil, fmt.Errorf("logging habit %d: %w", habitID, err)
	}
	if err := m.store.Save(); err != nil {
		return nil, fmt.Errorf("logging habit %d: saving store: %w", habitID, err)
	}

	m.logEvent("habit.logged", map[string]any{
		"habit_id":        habitID,
		"date":            key,
		"compliant":       compliant,
		"percentage":      percentage,
		"streak_advanced": streakAdvanced,
	})
	return h, nil
}

// ResetStreak zeroes the current streak, typically after a missed day. The
// best streak is preserved.
func (m *habitManager) ResetStreak(habitID int64) (*models.Habit, error) {
	if err := m.store.Load(); err != nil {
		return nil, fmt.Errorf("resetting streak for habit %d: loading store: %w", habitID, err)
	}
	h, err := m.store.Get(habitID)
	if err != nil {
		return nil, fmt.Errorf("resetting streak for habit %d: %w", habitID, err)
	}

	h.Streak = 0
	if err := m.store.Update(*h); err != nil {
		return nil, fmt.Errorf("resetting streak for habit %d: %w", habitID, err)
	}
	if err := m.store.Save(); err != nil {
		return nil, fmt.Errorf("resetting streak for habit %d: saving store: %w", habitID, err)
	}

	m.logEvent("habit.streak_reset", map[string]any{"habit_id": habitID})
	return h, nil
}

// ResetMonthlyFreezes restores every habit's freeze allowance. Meant to be
// invoked by a monthly scheduled job, not by normal check-in flow.
func (m *habitManager) ResetMonthlyFreezes(count int) error {
	if count < 0 {
		return fmt.Errorf("resetting freezes: count must not be negative")
	}
	if err := m.store.Load(); err != nil {
		return fmt.Errorf("resetting freezes: loading store: %w", err)
	}
	all, err := m.store.GetAll()
	if err != nil {
		return fmt.Errorf("resetting freezes: %w", err)
	}
	for _, h := range all {
		h.MonthlyFreezes = count
		if err := m.store.Update(h); err != nil {
			return fmt.Errorf("resetting freezes: habit %d: %w", h.ID, err)
		}
	}
	if err := m.store.Save(); err != nil {
		return fmt.Errorf("resetting freezes: saving store: %w", err)
	}
	m.logEvent("habit.freezes_reset", map[string]any{"count": count})
	return nil
}

func (m *habitManager) DeleteHabit(habitID int64) error {
	if err := m.store.Load(); err != nil {
		return fmt.Errorf("deleting habit %d: loading store: %w", habitID, err)
	}
	if err := m.store.Remove(habitID); err != nil {
		return fmt.Errorf("deleting habit %d: %w", habitID, err)
	}
	if err := m.store.Save(); err != nil {
		return fmt.Errorf("deleting habit %d: saving store: %w", habitID, err)
	}
	m.logEvent("habit.deleted", map[string]any{"habit_id": habitID})
	return nil
}
