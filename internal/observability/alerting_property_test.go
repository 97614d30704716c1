package observability

import (
	"fmt"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"pgregory.net/rapid"
)

// A task blocked longer than the threshold always alerts, one blocked more
// recently never does. The reference time is fixed so hour offsets are exact.
func TestBlockedAlertMatchesThreshold(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		logPath := filepath.Join(t.TempDir(), "events.jsonl")
		el, err := NewJSONLEventLog(logPath)
		if err != nil {
			t.Fatalf("creating event log: %v", err)
		}
		defer el.Close()

		now := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)
		thresholds := DefaultAlertThresholds()
		thresholds.BlockedHours = rapid.IntRange(1, 168).Draw(rt, "thresholdHours")

		numTasks := rapid.IntRange(1, 10).Draw(rt, "numTasks")
		expectAlert := make(map[int64]bool)
		for i := 0; i < numTasks; i++ {
			taskID := int64(i + 1)
			hoursAgo := rapid.IntRange(1, 400).Draw(rt, fmt.Sprintf("hoursAgo_%d", i))
			if hoursAgo != thresholds.BlockedHours {
				expectAlert[taskID] = hoursAgo > thresholds.BlockedHours
			}

			event := Event{
				Time:    now.Add(-time.Duration(hoursAgo) * time.Hour),
				Level:   "INFO",
				Type:    "task.blocked",
				Message: "task.blocked",
				Data:    map[string]any{"task_id": taskID, "blocked": true},
			}
			if err := el.Write(event); err != nil {
				t.Fatalf("writing event: %v", err)
			}
		}

		engine := NewAlertEngine(el, nil, thresholds)
		alerts, err := engine.Evaluate(now)
		if err != nil {
			t.Fatalf("evaluating alerts: %v", err)
		}

		got := make(map[int64]bool)
		for _, a := range alerts {
			if a.Condition != "task_blocked_too_long" {
				continue
			}
			var taskID int64
			if _, err := fmt.Sscanf(a.ID, "blocked-%d", &taskID); err != nil {
				rt.Fatalf("unexpected alert ID %q", a.ID)
			}
			got[taskID] = true
		}

		for taskID, want := range expectAlert {
			if got[taskID] != want {
				rt.Errorf("task %d: alert = %v, want %v", taskID, got[taskID], want)
			}
		}
	})
}

// Every alert the engine emits has a known condition, a severity, and a
// trigger time equal to the evaluation time.
func TestAlertsAreWellFormed(t *testing.T) {
	knownConditions := map[string]AlertSeverity{
		"task_blocked_too_long": SeverityHigh,
		"task_stale":            SeverityMedium,
		"follow_up_overdue":     SeverityMedium,
		"backlog_too_large":     SeverityLow,
	}

	rapid.Check(t, func(rt *rapid.T) {
		logPath := filepath.Join(t.TempDir(), "events.jsonl")
		el, err := NewJSONLEventLog(logPath)
		if err != nil {
			t.Fatalf("creating event log: %v", err)
		}
		defer el.Close()

		now := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)
		numEvents := rapid.IntRange(0, 20).Draw(rt, "numEvents")
		for i := 0; i < numEvents; i++ {
			taskID := rapid.Int64Range(1, 20).Draw(rt, fmt.Sprintf("taskID_%d", i))
			hoursAgo := rapid.IntRange(1, 500).Draw(rt, fmt.Sprintf("hoursAgo_%d", i))

			kind := rapid.SampledFrom([]string{"blocked", "state", "touch"}).Draw(rt, fmt.Sprintf("kind_%d", i))
			event := Event{
				Time:  now.Add(-time.Duration(hoursAgo) * time.Hour),
				Level: "INFO",
				Data:  map[string]any{"task_id": taskID},
			}
			switch kind {
			case "blocked":
				event.Type = "task.blocked"
				event.Data["blocked"] = rapid.Bool().Draw(rt, fmt.Sprintf("blocked_%d", i))
			case "state":
				event.Type = "task.state_changed"
				states := []string{"backlog", "next", "in_progress", "done"}
				event.Data["new_state"] = rapid.SampledFrom(states).Draw(rt, fmt.Sprintf("state_%d", i))
			default:
				event.Type = "task.updated"
			}
			event.Message = event.Type
			if err := el.Write(event); err != nil {
				t.Fatalf("writing event: %v", err)
			}
		}

		engine := NewAlertEngine(el, nil, DefaultAlertThresholds())
		alerts, err := engine.Evaluate(now)
		if err != nil {
			t.Fatalf("evaluating alerts: %v", err)
		}

		seen := make(map[string]bool)
		for _, a := range alerts {
			wantSeverity, known := knownConditions[a.Condition]
			if !known {
				rt.Errorf("unknown alert condition %q", a.Condition)
				continue
			}
			if a.Severity != wantSeverity {
				rt.Errorf("condition %s: severity = %s, want %s", a.Condition, a.Severity, wantSeverity)
			}
			if !a.TriggeredAt.Equal(now) {
				rt.Errorf("alert %s triggered at %v, want %v", a.ID, a.TriggeredAt, now)
			}
			if strings.TrimSpace(a.Message) == "" {
				rt.Errorf("alert %s has an empty message", a.ID)
			}
			if seen[a.ID] {
				rt.Errorf("duplicate alert ID %s", a.ID)
			}
			seen[a.ID] = true
		}
	})
}
