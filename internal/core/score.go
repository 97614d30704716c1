package core

import (
	"math"
	"time"

	"github.com/gacsesystems/tareas/pkg/models"
)

// ScoreWeights tunes how the multi-criteria inputs combine into the base score.
type ScoreWeights struct {
	Impact       float64
	Value        float64
	Urgency      float64
	Efficiency   float64
	Stakeholders float64
}

// DefaultScoreWeights returns the production weighting of the base score.
func DefaultScoreWeights() ScoreWeights {
	return ScoreWeights{
		Impact:       0.30,
		Value:        0.25,
		Urgency:      0.20,
		Efficiency:   0.15,
		Stakeholders: 0.10,
	}
}

// Fixed multiplier constants.
const (
	rockMultiplier   = 1.15
	frogMultiplier   = 1.20
	paretoMultiplier = 1.10
	familyMultiplier = 1.25
	kashMultiplier   = 1.10
	kaizenMultiplier = 1.05

	interestStep = 0.02
	interestCap  = 0.20

	decayGraceDays = 7
	decayPerDay    = 0.03
	decayFloor     = 0.40

	riskDeltaLimit = 0.20

	blockedMultiplier = 0.20

	defaultUrgency = 3
	maxBoostFactor = 1.25
)

// ScoreBreakdown explains how a task's score was derived.
type ScoreBreakdown struct {
	Urgency    int     `json:"urgency"`
	Base       float64 `json:"base"`
	Rock       float64 `json:"rock"`
	Frog       float64 `json:"frog"`
	Pareto     float64 `json:"pareto"`
	Family     float64 `json:"family"`
	Kash       float64 `json:"kash"`
	Kaizen     float64 `json:"kaizen"`
	Interest   float64 `json:"interest"`
	Boost      float64 `json:"boost"`
	Decay      float64 `json:"decay"`
	Risk       float64 `json:"risk"`
	Blocked    float64 `json:"blocked"`
	Multiplier float64 `json:"multiplier"`
	Score      float64 `json:"score"`
}

// ScoreEngine computes a task's decision score at an explicit reference time.
// It is pure: the caller persists the result into Task.Score.
type ScoreEngine interface {
	ComputeScore(t models.Task, now time.Time) float64
	Breakdown(t models.Task, now time.Time) ScoreBreakdown
}

type scoreEngine struct {
	weights ScoreWeights
}

// NewScoreEngine creates a ScoreEngine with the given base-score weights.
func NewScoreEngine(weights ScoreWeights) ScoreEngine {
	return &scoreEngine{weights: weights}
}

// ComputeScore returns the task's score rounded to four decimal places.
func (e *scoreEngine) ComputeScore(t models.Task, now time.Time) float64 {
	return e.Breakdown(t, now).Score
}

// Breakdown computes the full multiplier chain. The multipliers are
// commutative; blocked is listed last only for readability of the output.
func (e *scoreEngine) Breakdown(t models.Task, now time.Time) ScoreBreakdown {
	b := ScoreBreakdown{
		Rock: 1, Frog: 1, Pareto: 1, Family: 1, Kash: 1, Kaizen: 1,
		Interest: 1, Boost: 1, Decay: 1, Risk: 1, Blocked: 1,
	}

	b.Urgency = deriveUrgency(t, now)
	b.Base = 10 * (e.weights.Impact*float64(clampCriterion(t.Impact)) +
		e.weights.Value*float64(clampCriterion(t.Value)) +
		e.weights.Urgency*float64(b.Urgency) +
		e.weights.Efficiency*float64(clampCriterion(t.Efficiency)) +
		e.weights.Stakeholders*float64(clampCriterion(t.Stakeholders)))

	if t.IsRock {
		b.Rock = rockMultiplier
	}
	if t.IsFrog {
		b.Frog = frogMultiplier
	}
	if t.IsPareto {
		b.Pareto = paretoMultiplier
	}
	if t.FamilyFriendly {
		b.Family = familyMultiplier
	}
	if t.Kash == models.KashSkill || t.Kash == models.KashHabit {
		b.Kash = kashMultiplier
	}
	if t.Kaizen {
		b.Kaizen = kaizenMultiplier
	}

	b.Interest = 1 + math.Min(float64(t.InterestHitCount)*interestStep, interestCap)

	if t.BoostUntil != nil && now.Before(*t.BoostUntil) {
		b.Boost = math.Max(1.0, math.Min(t.BoostFactor, maxBoostFactor))
	}

	age := calendarDays(t.CreatedAt, now)
	over := age - decayGraceDays
	if over < 0 {
		over = 0
	}
	b.Decay = math.Max(decayFloor, 1-decayPerDay*float64(over))

	if t.RiskOpportunityDelta != nil {
		delta := clampFloat(*t.RiskOpportunityDelta, -riskDeltaLimit, riskDeltaLimit)
		b.Risk = 1 + delta
	}

	if t.Blocked {
		b.Blocked = blockedMultiplier
	}

	b.Multiplier = b.Rock * b.Frog * b.Pareto * b.Family * b.Kash * b.Kaizen *
		b.Interest * b.Boost * b.Decay * b.Risk * b.Blocked
	b.Score = round4(b.Base * b.Multiplier)

	return b
}

// deriveUrgency maps a task to an urgency of 0-10: the manual override when
// present, 3 when there is no due date, otherwise fixed breakpoints on the
// calendar-day distance to the due date (overdue counts as immediate).
func deriveUrgency(t models.Task, now time.Time) int {
	if t.ManualUrgency != nil {
		return clampInt(*t.ManualUrgency, 0, 10)
	}
	if t.DueAt == nil {
		return defaultUrgency
	}

	days := calendarDays(now, *t.DueAt)
	switch {
	case days <= 0:
		return 10
	case days <= 1:
		return 9
	case days <= 2:
		return 8
	case days <= 3:
		return 7
	case days <= 5:
		return 6
	case days <= 7:
		return 5
	case days <= 14:
		return 4
	case days <= 30:
		return 3
	default:
		return 2
	}
}

// calendarDays returns the whole-day difference to-from, comparing UTC dates
// so that a due date "today" is day zero all day.
func calendarDays(from, to time.Time) int {
	f := from.UTC()
	t := to.UTC()
	fd := time.Date(f.Year(), f.Month(), f.Day(), 0, 0, 0, 0, time.UTC)
	td := time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
	return int(td.Sub(fd).Hours() / 24)
}

// clampCriterion treats an absent 0-10 input as 0 and clamps present values
// into range. Range violations are rejected upstream; the clamp keeps the
// score in contract regardless.
func clampCriterion(v *int) int {
	if v == nil {
		return 0
	}
	return clampInt(*v, 0, 10)
}

func clampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func clampFloat(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func round4(v float64) float64 {
	return math.Round(v*10000) / 10000
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
