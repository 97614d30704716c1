package core

import (
	"github.com/gacsesystems/tareas/pkg/models"
)

// HabitEvaluator decides pass/fail and completion percentage for a single
// habit check-in. Pure: streak bookkeeping belongs to the HabitManager.
type HabitEvaluator interface {
	Evaluate(h models.Habit, value *float64) (compliant bool, percentage float64)
}

type habitEvaluator struct{}

// NewHabitEvaluator creates a HabitEvaluator.
func NewHabitEvaluator() HabitEvaluator {
	return habitEvaluator{}
}

// Evaluate applies the habit's semantics to a raw check-in value.
//
// Binary habits (no unit and no target) treat any non-zero value as done.
// Negative quantitative habits pass when the value stays at or under the
// limit (threshold, falling back to target); the percentage is how far under
// the limit the value landed. Positive quantitative habits pass when the
// percentage of target reached meets the compliance threshold (default 100).
func (habitEvaluator) Evaluate(h models.Habit, value *float64) (bool, float64) {
	if h.IsBinary() {
		compliant := value != nil && *value != 0
		if compliant {
			return true, 100
		}
		return false, 0
	}

	if h.Kind == models.HabitNegative {
		limit := 0.0
		switch {
		case h.ComplianceThreshold != nil:
			limit = *h.ComplianceThreshold
		case h.Target != nil:
			limit = *h.Target
		}
		compliant := value != nil && *value <= limit
		if limit > 0 && value != nil {
			return compliant, round2(clampFloat((1-*value/limit)*100, 0, 100))
		}
		if compliant {
			return true, 100
		}
		return false, 0
	}

	// Positive quantitative.
	pct := 0.0
	if h.Target != nil && *h.Target > 0 && value != nil {
		pct = *value / *h.Target * 100
		if pct > 100 {
			pct = 100
		}
	}
	pct = round2(pct)
	required := 100.0
	if h.ComplianceThreshold != nil {
		required = *h.ComplianceThreshold
	}
	return pct >= required, pct
}
