package cli

import (
	"strings"
	"testing"
	"time"

	"github.com/gacsesystems/tareas/internal/core"
	"github.com/gacsesystems/tareas/pkg/models"
)

// mockHabitManager implements core.HabitManager with overridable functions.
type mockHabitManager struct {
	createHabitFn         func(in core.CreateHabitInput) (*models.Habit, error)
	getHabitFn            func(id int64) (*models.Habit, error)
	listHabitsFn          func() ([]models.Habit, error)
	logCheckInFn          func(habitID int64, date time.Time, value *float64, taskID int64, now time.Time) (*models.Habit, error)
	resetStreakFn         func(habitID int64) (*models.Habit, error)
	resetMonthlyFreezesFn func(count int) error
	deleteHabitFn         func(habitID int64) error
}

func (m *mockHabitManager) CreateHabit(in core.CreateHabitInput) (*models.Habit, error) {
	if m.createHabitFn != nil {
		return m.createHabitFn(in)
	}
	return nil, errMockNotImplemented
}

func (m *mockHabitManager) GetHabit(id int64) (*models.Habit, error) {
	if m.getHabitFn != nil {
		return m.getHabitFn(id)
	}
	return nil, errMockNotImplemented
}

func (m *mockHabitManager) ListHabits() ([]models.Habit, error) {
	if m.listHabitsFn != nil {
		return m.listHabitsFn()
	}
	return nil, errMockNotImplemented
}

func (m *mockHabitManager) LogCheckIn(habitID int64, date time.Time, value *float64, taskID int64, now time.Time) (*models.Habit, error) {
	if m.logCheckInFn != nil {
		return m.logCheckInFn(habitID, date, value, taskID, now)
	}
	return nil, errMockNotImplemented
}

func (m *mockHabitManager) ResetStreak(habitID int64) (*models.Habit, error) {
	if m.resetStreakFn != nil {
		return m.resetStreakFn(habitID)
	}
	return nil, errMockNotImplemented
}

func (m *mockHabitManager) ResetMonthlyFreezes(count int) error {
	if m.resetMonthlyFreezesFn != nil {
		return m.resetMonthlyFreezesFn(count)
	}
	return errMockNotImplemented
}

func (m *mockHabitManager) DeleteHabit(habitID int64) error {
	if m.deleteHabitFn != nil {
		return m.deleteHabitFn(habitID)
	}
	return errMockNotImplemented
}

// --- Registration Tests ---

func TestHabitCmd_Registration(t *testing.T) {
	found := false
	for _, cmd := range rootCmd.Commands() {
		if cmd.Name() == "habit" {
			found = true
			break
		}
	}
	if !found {
		t.Error("expected 'habit' command to be registered on root")
	}
}

func TestHabitCmd_Subcommands(t *testing.T) {
	expected := []string{"add", "list", "log", "show", "reset", "delete"}
	subs := make(map[string]bool)
	for _, cmd := range habitCmd.Commands() {
		subs[cmd.Name()] = true
	}
	for _, name := range expected {
		if !subs[name] {
			t.Errorf("expected subcommand %q on 'habit', but it was not registered", name)
		}
	}
}

// --- habit add Tests ---

func TestHabitAdd_DefaultsPositiveDaily(t *testing.T) {
	origHabitMgr := HabitMgr
	defer func() { HabitMgr = origHabitMgr }()

	var captured core.CreateHabitInput
	HabitMgr = &mockHabitManager{
		createHabitFn: func(in core.CreateHabitInput) (*models.Habit, error) {
			captured = in
			return &models.Habit{ID: 1, Name: in.Name, Kind: in.Kind, Periodicity: in.Periodicity}, nil
		},
	}

	if err := habitAddCmd.RunE(habitAddCmd, []string{"meditate"}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if captured.Kind != models.HabitPositive {
		t.Errorf("kind = %q, want positive", captured.Kind)
	}
	if captured.Periodicity != models.PeriodDaily {
		t.Errorf("periodicity = %q, want daily", captured.Periodicity)
	}
	if captured.Target != nil {
		t.Errorf("expected nil target without --target, got %v", captured.Target)
	}
}

func TestHabitAdd_TargetOnlyWhenSet(t *testing.T) {
	origHabitMgr := HabitMgr
	defer func() {
		HabitMgr = origHabitMgr
		habitAddCmd.Flag("target").Changed = false
		habitAddTarget = 0
	}()

	var captured core.CreateHabitInput
	HabitMgr = &mockHabitManager{
		createHabitFn: func(in core.CreateHabitInput) (*models.Habit, error) {
			captured = in
			return &models.Habit{ID: 2, Name: in.Name}, nil
		},
	}

	habitAddCmd.Flags().Set("target", "30")

	if err := habitAddCmd.RunE(habitAddCmd, []string{"read"}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if captured.Target == nil || *captured.Target != 30 {
		t.Errorf("target = %v, want 30", captured.Target)
	}
}

// --- habit log Tests ---

func TestHabitLog_DefaultsToToday(t *testing.T) {
	origHabitMgr := HabitMgr
	defer func() { HabitMgr = origHabitMgr }()

	var gotDate time.Time
	HabitMgr = &mockHabitManager{
		logCheckInFn: func(habitID int64, date time.Time, value *float64, taskID int64, now time.Time) (*models.Habit, error) {
			gotDate = date
			key := date.Format("2006-01-02")
			return &models.Habit{
				ID:     habitID,
				Name:   "meditate",
				Streak: 1,
				Logs: map[string]models.HabitLog{
					key: {Date: key, Compliant: true, Percentage: 100},
				},
			}, nil
		},
	}

	if err := habitLogCmd.RunE(habitLogCmd, []string{"1"}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	today := time.Now().UTC().Format("2006-01-02")
	if gotDate.Format("2006-01-02") != today {
		t.Errorf("date = %s, want %s", gotDate.Format("2006-01-02"), today)
	}
}

func TestHabitLog_BackfillDate(t *testing.T) {
	origHabitMgr := HabitMgr
	origDate := habitLogDate
	defer func() {
		HabitMgr = origHabitMgr
		habitLogDate = origDate
	}()
	habitLogDate = "2026-08-20"

	var gotDate time.Time
	HabitMgr = &mockHabitManager{
		logCheckInFn: func(habitID int64, date time.Time, value *float64, taskID int64, now time.Time) (*models.Habit, error) {
			gotDate = date
			return &models.Habit{
				ID:   habitID,
				Name: "run",
				Logs: map[string]models.HabitLog{
					"2026-08-20": {Date: "2026-08-20", Compliant: true, Percentage: 100},
				},
			}, nil
		},
	}

	if err := habitLogCmd.RunE(habitLogCmd, []string{"1"}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if gotDate.Format("2006-01-02") != "2026-08-20" {
		t.Errorf("date = %s, want 2026-08-20", gotDate.Format("2006-01-02"))
	}
}

func TestHabitLog_InvalidDate(t *testing.T) {
	origHabitMgr := HabitMgr
	origDate := habitLogDate
	defer func() {
		HabitMgr = origHabitMgr
		habitLogDate = origDate
	}()
	habitLogDate = "yesterday"
	HabitMgr = &mockHabitManager{}

	err := habitLogCmd.RunE(habitLogCmd, []string{"1"})
	if err == nil {
		t.Fatal("expected error for invalid --date")
	}
	if !strings.Contains(err.Error(), "invalid --date") {
		t.Errorf("unexpected error: %v", err)
	}
}

func TestHabitLog_ValueOnlyWhenSet(t *testing.T) {
	origHabitMgr := HabitMgr
	defer func() {
		HabitMgr = origHabitMgr
		habitLogCmd.Flag("value").Changed = false
		habitLogValue = 0
	}()

	var gotValue *float64
	HabitMgr = &mockHabitManager{
		logCheckInFn: func(habitID int64, date time.Time, value *float64, taskID int64, now time.Time) (*models.Habit, error) {
			gotValue = value
			key := date.Format("2006-01-02")
			return &models.Habit{
				ID:   habitID,
				Name: "read",
				Logs: map[string]models.HabitLog{
					key: {Date: key, Value: value, Compliant: true, Percentage: 100},
				},
			}, nil
		},
	}

	habitLogCmd.Flags().Set("value", "45")

	if err := habitLogCmd.RunE(habitLogCmd, []string{"2"}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if gotValue == nil || *gotValue != 45 {
		t.Errorf("value = %v, want 45", gotValue)
	}
}

// --- habit reset / delete Tests ---

func TestHabitReset(t *testing.T) {
	origHabitMgr := HabitMgr
	defer func() { HabitMgr = origHabitMgr }()

	var resetID int64
	HabitMgr = &mockHabitManager{
		resetStreakFn: func(habitID int64) (*models.Habit, error) {
			resetID = habitID
			return &models.Habit{ID: habitID, Name: "meditate", Streak: 0, BestStreak: 9}, nil
		},
	}

	if err := habitResetCmd.RunE(habitResetCmd, []string{"3"}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if resetID != 3 {
		t.Errorf("reset ID = %d, want 3", resetID)
	}
}

func TestHabitDelete(t *testing.T) {
	origHabitMgr := HabitMgr
	defer func() { HabitMgr = origHabitMgr }()

	var deletedID int64
	HabitMgr = &mockHabitManager{
		deleteHabitFn: func(habitID int64) error {
			deletedID = habitID
			return nil
		},
	}

	if err := habitDeleteCmd.RunE(habitDeleteCmd, []string{"4"}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if deletedID != 4 {
		t.Errorf("deleted ID = %d, want 4", deletedID)
	}
}

// --- habit show Tests ---

func TestHabitShow_WithLogs(t *testing.T) {
	origHabitMgr := HabitMgr
	defer func() { HabitMgr = origHabitMgr }()

	target := 30.0
	HabitMgr = &mockHabitManager{
		getHabitFn: func(id int64) (*models.Habit, error) {
			return &models.Habit{
				ID:          id,
				Name:        "read",
				Kind:        models.HabitPositive,
				Unit:        "min",
				Target:      &target,
				Periodicity: models.PeriodDaily,
				Streak:      4,
				BestStreak:  10,
				Logs: map[string]models.HabitLog{
					"2026-08-30": {Date: "2026-08-30", Compliant: true, Percentage: 100},
					"2026-08-31": {Date: "2026-08-31", Compliant: false, Percentage: 50},
				},
			}, nil
		},
	}

	if err := habitShowCmd.RunE(habitShowCmd, []string{"1"}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}
