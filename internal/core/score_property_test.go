package core

import (
	"math"
	"testing"
	"time"

	"github.com/gacsesystems/tareas/pkg/models"
	"pgregory.net/rapid"
)

// genScoredTask draws a task with arbitrary criteria, flags, and temporal
// fields, anchored around the given reference time.
func genScoredTask(rt *rapid.T, now time.Time) models.Task {
	task := models.Task{
		ID:        rapid.Int64Range(1, 1<<30).Draw(rt, "id"),
		Title:     "property task",
		State:     models.StateNext,
		CreatedAt: now.AddDate(0, 0, -rapid.IntRange(0, 400).Draw(rt, "age_days")),
	}

	if rapid.Bool().Draw(rt, "has_impact") {
		task.Impact = intPtr(rapid.IntRange(0, 10).Draw(rt, "impact"))
	}
	if rapid.Bool().Draw(rt, "has_value") {
		task.Value = intPtr(rapid.IntRange(0, 10).Draw(rt, "value"))
	}
	if rapid.Bool().Draw(rt, "has_efficiency") {
		task.Efficiency = intPtr(rapid.IntRange(0, 10).Draw(rt, "efficiency"))
	}
	if rapid.Bool().Draw(rt, "has_stakeholders") {
		task.Stakeholders = intPtr(rapid.IntRange(0, 10).Draw(rt, "stakeholders"))
	}
	if rapid.Bool().Draw(rt, "has_due") {
		task.DueAt = timePtr(now.AddDate(0, 0, rapid.IntRange(-30, 120).Draw(rt, "due_days")))
	}
	if rapid.Bool().Draw(rt, "has_manual_urgency") {
		task.ManualUrgency = intPtr(rapid.IntRange(0, 10).Draw(rt, "manual_urgency"))
	}

	task.IsRock = rapid.Bool().Draw(rt, "is_rock")
	task.IsFrog = rapid.Bool().Draw(rt, "is_frog")
	task.IsPareto = rapid.Bool().Draw(rt, "is_pareto")
	task.FamilyFriendly = rapid.Bool().Draw(rt, "family_friendly")
	task.Kaizen = rapid.Bool().Draw(rt, "kaizen")
	task.Kash = models.KashBucket(rapid.SampledFrom([]string{"", "K", "A", "S", "H"}).Draw(rt, "kash"))
	task.InterestHitCount = rapid.IntRange(0, 30).Draw(rt, "interest_hits")

	if rapid.Bool().Draw(rt, "has_boost") {
		task.BoostFactor = rapid.Float64Range(1.0, 1.25).Draw(rt, "boost_factor")
		task.BoostUntil = timePtr(now.Add(time.Duration(rapid.IntRange(-48, 48).Draw(rt, "boost_hours")) * time.Hour))
	}
	if rapid.Bool().Draw(rt, "has_risk") {
		task.RiskOpportunityDelta = floatPtr(rapid.Float64Range(-0.5, 0.5).Draw(rt, "risk_delta"))
	}

	return task
}

// Scoring is deterministic: the same task at the same reference time always
// produces the same score.
func TestProperty_ScoreDeterministic(t *testing.T) {
	now := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)
	engine := NewScoreEngine(DefaultScoreWeights())

	rapid.Check(t, func(rt *rapid.T) {
		task := genScoredTask(rt, now)
		first := engine.ComputeScore(task, now)
		second := engine.ComputeScore(task, now)
		if first != second {
			rt.Fatalf("score not deterministic: %v vs %v", first, second)
		}
	})
}

// Scores are never negative.
func TestProperty_ScoreNonNegative(t *testing.T) {
	now := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)
	engine := NewScoreEngine(DefaultScoreWeights())

	rapid.Check(t, func(rt *rapid.T) {
		task := genScoredTask(rt, now)
		if score := engine.ComputeScore(task, now); score < 0 {
			rt.Fatalf("negative score %v", score)
		}
	})
}

// Raising one criterion while holding everything else fixed never lowers
// the score.
func TestProperty_ScoreMonotonicInImpact(t *testing.T) {
	now := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)
	engine := NewScoreEngine(DefaultScoreWeights())

	rapid.Check(t, func(rt *rapid.T) {
		task := genScoredTask(rt, now)
		lo := rapid.IntRange(0, 9).Draw(rt, "lo")
		hi := rapid.IntRange(lo+1, 10).Draw(rt, "hi")

		task.Impact = intPtr(lo)
		low := engine.ComputeScore(task, now)
		task.Impact = intPtr(hi)
		high := engine.ComputeScore(task, now)

		if high < low {
			rt.Fatalf("impact %d scored %v but impact %d scored %v", lo, low, hi, high)
		}
	})
}

// A blocked task scores at most 20% of its unblocked self (modulo rounding).
func TestProperty_BlockedDominance(t *testing.T) {
	now := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)
	engine := NewScoreEngine(DefaultScoreWeights())

	rapid.Check(t, func(rt *rapid.T) {
		task := genScoredTask(rt, now)

		task.Blocked = false
		open := engine.ComputeScore(task, now)
		task.Blocked = true
		blocked := engine.ComputeScore(task, now)

		if blocked > open*0.20+1e-4 {
			rt.Fatalf("blocked score %v exceeds 20%% of open score %v", blocked, open)
		}
	})
}

// The age decay multiplier never drops below its floor no matter how far the
// reference time advances.
func TestProperty_DecayFloor(t *testing.T) {
	engine := NewScoreEngine(DefaultScoreWeights())

	rapid.Check(t, func(rt *rapid.T) {
		created := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
		now := created.AddDate(0, 0, rapid.IntRange(0, 100000).Draw(rt, "elapsed_days"))

		task := models.Task{ID: 1, CreatedAt: created, Impact: intPtr(5)}
		b := engine.Breakdown(task, now)

		if b.Decay < decayFloor-1e-12 {
			rt.Fatalf("decay %v fell below floor %v", b.Decay, decayFloor)
		}
		if b.Decay > 1 {
			rt.Fatalf("decay %v exceeds 1", b.Decay)
		}
	})
}

// The boost multiplier never exceeds its cap, regardless of the stored factor.
func TestProperty_BoostBounded(t *testing.T) {
	now := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)
	engine := NewScoreEngine(DefaultScoreWeights())

	rapid.Check(t, func(rt *rapid.T) {
		task := models.Task{
			ID:          1,
			CreatedAt:   now,
			Impact:      intPtr(5),
			BoostFactor: rapid.Float64Range(0, 10).Draw(rt, "factor"),
			BoostUntil:  timePtr(now.Add(time.Hour)),
		}
		b := engine.Breakdown(task, now)
		if b.Boost > maxBoostFactor || b.Boost < 1 {
			rt.Fatalf("boost multiplier %v outside [1, %v]", b.Boost, maxBoostFactor)
		}
	})
}

// The breakdown's multiplier product and score agree with ComputeScore.
func TestProperty_BreakdownConsistent(t *testing.T) {
	now := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)
	engine := NewScoreEngine(DefaultScoreWeights())

	rapid.Check(t, func(rt *rapid.T) {
		task := genScoredTask(rt, now)
		b := engine.Breakdown(task, now)

		product := b.Rock * b.Frog * b.Pareto * b.Family * b.Kash * b.Kaizen *
			b.Interest * b.Boost * b.Decay * b.Risk * b.Blocked
		if math.Abs(product-b.Multiplier) > 1e-9 {
			rt.Fatalf("multiplier %v does not match factor product %v", b.Multiplier, product)
		}
		if got := engine.ComputeScore(task, now); got != b.Score {
			rt.Fatalf("ComputeScore %v disagrees with Breakdown.Score %v", got, b.Score)
		}
	})
}
