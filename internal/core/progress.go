package core

import (
	"time"

	"github.com/gacsesystems/tareas/pkg/models"
)

// ProgressCalculator derives a project's progress percentage and closure
// decision from its stages, objectives, and tasks. Pure: the manager persists
// the result into Project.ProgressPct.
type ProgressCalculator interface {
	ComputeProgress(p models.Project, tasks []models.Task) float64
	ShouldClose(p models.Project) bool
}

type progressCalculator struct{}

// NewProgressCalculator creates a ProgressCalculator.
func NewProgressCalculator() ProgressCalculator {
	return progressCalculator{}
}

// ComputeProgress returns 0-100 with two decimal places.
//
// Priority of sources: stages (plan-duration-weighted average), then
// objectives when the closure criterion asks for them, then the done ratio
// of the project's non-deleted tasks.
func (progressCalculator) ComputeProgress(p models.Project, tasks []models.Task) float64 {
	if len(p.Stages) > 0 {
		var sum, weight float64
		for _, s := range p.Stages {
			pct := 0.0
			switch {
			case s.ProgressPct != nil:
				pct = *s.ProgressPct
			case s.Done:
				pct = 100
			}

			w := 1.0
			if s.PlanStart != nil && s.PlanEnd != nil {
				days := calendarDays(*s.PlanStart, *s.PlanEnd) + 1
				if days < 1 {
					days = 1
				}
				w = float64(days)
			}

			sum += pct * w
			weight += w
		}
		if weight == 0 {
			return 0
		}
		return round2(sum / weight)
	}

	if p.ClosureCriterion == models.CloseByObjectives && len(p.Objectives) > 0 {
		completed := 0
		for _, o := range p.Objectives {
			if o.Completed {
				completed++
			}
		}
		return round2(100 * float64(completed) / float64(len(p.Objectives)))
	}

	total, done := 0, 0
	for _, t := range tasks {
		if t.Deleted {
			continue
		}
		total++
		if t.State == models.StateDone {
			done++
		}
	}
	if total == 0 {
		return 0
	}
	return round2(100 * float64(done) / float64(total))
}

// ShouldClose reports whether the project qualifies for auto-closure:
// every stage done, or (stage-less) progress at 100.
func (progressCalculator) ShouldClose(p models.Project) bool {
	if len(p.Stages) > 0 {
		for _, s := range p.Stages {
			if !s.Done {
				return false
			}
		}
		return true
	}
	return p.ProgressPct >= 100
}

// CloseProject flips the project to closed and stamps the actual end date if
// it is not already set.
func CloseProject(p *models.Project, today time.Time) {
	p.Status = models.ProjectClosed
	if p.ActualEnd == nil {
		d := today
		p.ActualEnd = &d
	}
}

// ReopenProject flips the project back to open. The actual end date is left
// untouched so the closure history survives a reopen.
func ReopenProject(p *models.Project) {
	p.Status = models.ProjectOpen
}
