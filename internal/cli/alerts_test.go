package cli

import (
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/gacsesystems/tareas/internal/observability"
)

type alertsMock struct {
	evaluateFn func(now time.Time) ([]observability.Alert, error)
}

func (m *alertsMock) Evaluate(now time.Time) ([]observability.Alert, error) {
	return m.evaluateFn(now)
}

type notifierMock struct {
	notifyFn func(alerts []observability.Alert) error
}

func (m *notifierMock) Notify(alerts []observability.Alert) error {
	return m.notifyFn(alerts)
}

func TestAlertsCmd_NilEngine(t *testing.T) {
	orig := AlertEngine
	defer func() { AlertEngine = orig }()
	AlertEngine = nil

	err := alertsCmd.RunE(alertsCmd, []string{})
	if err == nil {
		t.Fatal("expected error when AlertEngine is nil")
	}
	if !strings.Contains(err.Error(), "not initialized") {
		t.Errorf("unexpected error: %v", err)
	}
}

func TestAlertsCmd_NoAlerts(t *testing.T) {
	orig := AlertEngine
	defer func() { AlertEngine = orig }()

	AlertEngine = &alertsMock{
		evaluateFn: func(now time.Time) ([]observability.Alert, error) {
			return nil, nil
		},
	}

	err := alertsCmd.RunE(alertsCmd, []string{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestAlertsCmd_WithAlerts(t *testing.T) {
	orig := AlertEngine
	defer func() { AlertEngine = orig }()

	AlertEngine = &alertsMock{
		evaluateFn: func(now time.Time) ([]observability.Alert, error) {
			return []observability.Alert{
				{Severity: observability.SeverityHigh, Message: "task blocked for 3 days", TriggeredAt: time.Now().UTC()},
				{Severity: observability.SeverityLow, Message: "backlog has 120 tasks", TriggeredAt: time.Now().UTC()},
			}, nil
		},
	}

	err := alertsCmd.RunE(alertsCmd, []string{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestAlertsCmd_EvaluateError(t *testing.T) {
	orig := AlertEngine
	defer func() { AlertEngine = orig }()

	AlertEngine = &alertsMock{
		evaluateFn: func(now time.Time) ([]observability.Alert, error) {
			return nil, fmt.Errorf("event log read error")
		},
	}

	err := alertsCmd.RunE(alertsCmd, []string{})
	if err == nil {
		t.Fatal("expected error from Evaluate")
	}
	if !strings.Contains(err.Error(), "evaluating alerts") {
		t.Errorf("unexpected error: %v", err)
	}
}

func TestAlertsCmd_EvaluateReceivesCurrentTime(t *testing.T) {
	orig := AlertEngine
	defer func() { AlertEngine = orig }()

	var gotNow time.Time
	AlertEngine = &alertsMock{
		evaluateFn: func(now time.Time) ([]observability.Alert, error) {
			gotNow = now
			return nil, nil
		},
	}

	before := time.Now().UTC()
	if err := alertsCmd.RunE(alertsCmd, []string{}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	after := time.Now().UTC()

	if gotNow.Before(before) || gotNow.After(after) {
		t.Errorf("Evaluate received %v, want between %v and %v", gotNow, before, after)
	}
}

func TestAlertsCmd_NotifyWithoutNotifier(t *testing.T) {
	origEngine := AlertEngine
	origNotifier := Notifier
	defer func() {
		AlertEngine = origEngine
		Notifier = origNotifier
	}()

	AlertEngine = &alertsMock{
		evaluateFn: func(now time.Time) ([]observability.Alert, error) {
			return []observability.Alert{
				{Severity: observability.SeverityHigh, Message: "blocked", TriggeredAt: time.Now().UTC()},
			}, nil
		},
	}
	Notifier = nil

	alertsCmd.Flags().Set("notify", "true")
	defer alertsCmd.Flags().Set("notify", "false")

	err := alertsCmd.RunE(alertsCmd, []string{})
	if err == nil {
		t.Fatal("expected error when notifier is nil")
	}
	if !strings.Contains(err.Error(), "notifier not configured") {
		t.Errorf("unexpected error: %v", err)
	}
}

func TestAlertsCmd_NotifySendsAlerts(t *testing.T) {
	origEngine := AlertEngine
	origNotifier := Notifier
	defer func() {
		AlertEngine = origEngine
		Notifier = origNotifier
	}()

	AlertEngine = &alertsMock{
		evaluateFn: func(now time.Time) ([]observability.Alert, error) {
			return []observability.Alert{
				{Severity: observability.SeverityMedium, Message: "stale", TriggeredAt: time.Now().UTC()},
			}, nil
		},
	}

	var notified []observability.Alert
	Notifier = &notifierMock{
		notifyFn: func(alerts []observability.Alert) error {
			notified = alerts
			return nil
		},
	}

	alertsCmd.Flags().Set("notify", "true")
	defer alertsCmd.Flags().Set("notify", "false")

	if err := alertsCmd.RunE(alertsCmd, []string{}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(notified) != 1 || notified[0].Message != "stale" {
		t.Errorf("notified alerts = %+v, want the stale alert", notified)
	}
}

func TestAlertsCmd_NotifyError(t *testing.T) {
	origEngine := AlertEngine
	origNotifier := Notifier
	defer func() {
		AlertEngine = origEngine
		Notifier = origNotifier
	}()

	AlertEngine = &alertsMock{
		evaluateFn: func(now time.Time) ([]observability.Alert, error) {
			return []observability.Alert{
				{Severity: observability.SeverityHigh, Message: "blocked", TriggeredAt: time.Now().UTC()},
			}, nil
		},
	}
	Notifier = &notifierMock{
		notifyFn: func(alerts []observability.Alert) error {
			return fmt.Errorf("webhook returned 500")
		},
	}

	alertsCmd.Flags().Set("notify", "true")
	defer alertsCmd.Flags().Set("notify", "false")

	err := alertsCmd.RunE(alertsCmd, []string{})
	if err == nil {
		t.Fatal("expected error from Notify")
	}
	if !strings.Contains(err.Error(), "sending notifications") {
		t.Errorf("unexpected error: %v", err)
	}
}

func TestAlertsCmd_NoNotifyWhenNoAlerts(t *testing.T) {
	origEngine := AlertEngine
	origNotifier := Notifier
	defer func() {
		AlertEngine = origEngine
		Notifier = origNotifier
	}()

	AlertEngine = &alertsMock{
		evaluateFn: func(now time.Time) ([]observability.Alert, error) {
			return nil, nil
		},
	}
	Notifier = &notifierMock{
		notifyFn: func(alerts []observability.Alert) error {
			t.Error("Notify should not be called when there are no alerts")
			return nil
		},
	}

	alertsCmd.Flags().Set("notify", "true")
	defer alertsCmd.Flags().Set("notify", "false")

	if err := alertsCmd.RunE(alertsCmd, []string{}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}
