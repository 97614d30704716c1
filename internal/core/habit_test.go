package core

import (
	"testing"

	"github.com/gacsesystems/tareas/pkg/models"
)

func TestEvaluate_Binary(t *testing.T) {
	eval := NewHabitEvaluator()
	habit := models.Habit{ID: 1, Name: "meditate", Kind: models.HabitPositive}

	cases := []struct {
		name          string
		value         *float64
		wantCompliant bool
		wantPct       float64
	}{
		{"checked in", floatPtr(1), true, 100},
		{"explicit zero", floatPtr(0), false, 0},
		{"no value", nil, false, 0},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			compliant, pct := eval.Evaluate(habit, tc.value)
			if compliant != tc.wantCompliant || pct != tc.wantPct {
				t.Errorf("expected (%v, %v), got (%v, %v)", tc.wantCompliant, tc.wantPct, compliant, pct)
			}
		})
	}
}

func TestEvaluate_NegativeUnderTarget(t *testing.T) {
	eval := NewHabitEvaluator()
	habit := models.Habit{
		ID:     1,
		Name:   "minutes of doomscrolling",
		Kind:   models.HabitNegative,
		Unit:   "min",
		Target: floatPtr(30),
	}

	compliant, pct := eval.Evaluate(habit, floatPtr(10))
	if !compliant {
		t.Error("expected 10 <= 30 to be compliant")
	}
	if pct != 66.67 {
		t.Errorf("expected percentage 66.67, got %v", pct)
	}
}

func TestEvaluate_NegativeThresholdOverridesTarget(t *testing.T) {
	eval := NewHabitEvaluator()
	habit := models.Habit{
		ID:                  1,
		Kind:                models.HabitNegative,
		Unit:                "min",
		Target:              floatPtr(30),
		ComplianceThreshold: floatPtr(45),
	}

	compliant, _ := eval.Evaluate(habit, floatPtr(40))
	if !compliant {
		t.Error("expected 40 <= 45 to be compliant when the threshold overrides the target")
	}
}

func TestEvaluate_NegativeOverLimit(t *testing.T) {
	eval := NewHabitEvaluator()
	habit := models.Habit{
		ID:     1,
		Kind:   models.HabitNegative,
		Unit:   "min",
		Target: floatPtr(30),
	}

	compliant, pct := eval.Evaluate(habit, floatPtr(60))
	if compliant {
		t.Error("expected 60 > 30 to be non-compliant")
	}
	if pct != 0 {
		t.Errorf("expected percentage clamped to 0, got %v", pct)
	}
}

func TestEvaluate_NegativeNoValue(t *testing.T) {
	eval := NewHabitEvaluator()
	habit := models.Habit{
		ID:     1,
		Kind:   models.HabitNegative,
		Unit:   "min",
		Target: floatPtr(30),
	}

	compliant, _ := eval.Evaluate(habit, nil)
	if compliant {
		t.Error("expected missing value to be non-compliant")
	}
}

func TestEvaluate_PositiveQuantitative(t *testing.T) {
	eval := NewHabitEvaluator()
	habit := models.Habit{
		ID:     1,
		Name:   "pages read",
		Kind:   models.HabitPositive,
		Unit:   "pages",
		Target: floatPtr(20),
	}

	cases := []struct {
		name          string
		value         *float64
		threshold     *float64
		wantCompliant bool
		wantPct       float64
	}{
		{"full target", floatPtr(20), nil, true, 100},
		{"over target capped", floatPtr(40), nil, true, 100},
		{"half without threshold", floatPtr(10), nil, false, 50},
		{"half with 50 threshold", floatPtr(10), floatPtr(50), true, 50},
		{"missing value", nil, nil, false, 0},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			h := habit
			h.ComplianceThreshold = tc.threshold
			compliant, pct := eval.Evaluate(h, tc.value)
			if compliant != tc.wantCompliant || pct != tc.wantPct {
				t.Errorf("expected (%v, %v), got (%v, %v)", tc.wantCompliant, tc.wantPct, compliant, pct)
			}
		})
	}
}
