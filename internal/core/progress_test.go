package core

import (
	"testing"
	"time"

	"github.com/gacsesystems/tareas/pkg/models"
)

func TestComputeProgress_TwoUnweightedStages(t *testing.T) {
	calc := NewProgressCalculator()

	p := models.Project{
		ID: 1,
		Stages: []models.ProjectStage{
			{ID: 1, Name: "design", Orden: 1, ProgressPct: floatPtr(40)},
			{ID: 2, Name: "build", Orden: 2, ProgressPct: floatPtr(80)},
		},
	}
	if got := calc.ComputeProgress(p, nil); got != 60.00 {
		t.Errorf("expected 60.00, got %v", got)
	}
}

func TestComputeProgress_StagesWeightedByPlanDuration(t *testing.T) {
	calc := NewProgressCalculator()

	// Stage one spans 1 day (weight 1), stage two spans 3 days (weight 3).
	d1 := time.Date(2026, 4, 1, 0, 0, 0, 0, time.UTC)
	d3 := time.Date(2026, 4, 3, 0, 0, 0, 0, time.UTC)
	p := models.Project{
		ID: 1,
		Stages: []models.ProjectStage{
			{ID: 1, Orden: 1, ProgressPct: floatPtr(100), PlanStart: &d1, PlanEnd: &d1},
			{ID: 2, Orden: 2, ProgressPct: floatPtr(0), PlanStart: &d1, PlanEnd: &d3},
		},
	}
	// (100*1 + 0*3) / 4 = 25.00
	if got := calc.ComputeProgress(p, nil); got != 25.00 {
		t.Errorf("expected 25.00, got %v", got)
	}
}

func TestComputeProgress_DoneStageWithoutExplicitPct(t *testing.T) {
	calc := NewProgressCalculator()

	p := models.Project{
		ID: 1,
		Stages: []models.ProjectStage{
			{ID: 1, Orden: 1, Done: true},
			{ID: 2, Orden: 2},
		},
	}
	if got := calc.ComputeProgress(p, nil); got != 50.00 {
		t.Errorf("expected 50.00, got %v", got)
	}
}

func TestComputeProgress_ByObjectives(t *testing.T) {
	calc := NewProgressCalculator()

	p := models.Project{
		ID:               1,
		ClosureCriterion: models.CloseByObjectives,
		Objectives: []models.ProjectObjective{
			{ID: 1, Completed: true},
			{ID: 2, Completed: true},
			{ID: 3, Completed: false},
		},
	}
	if got := calc.ComputeProgress(p, nil); got != 66.67 {
		t.Errorf("expected 66.67, got %v", got)
	}
}

func TestComputeProgress_ByTasks(t *testing.T) {
	calc := NewProgressCalculator()

	p := models.Project{ID: 1, ClosureCriterion: models.CloseByTasks}
	tasks := []models.Task{
		{ID: 1, ProjectID: 1, State: models.StateDone},
		{ID: 2, ProjectID: 1, State: models.StateNext},
		{ID: 3, ProjectID: 1, State: models.StateDone, Deleted: true}, // ignored
	}
	if got := calc.ComputeProgress(p, tasks); got != 50.00 {
		t.Errorf("expected 50.00, got %v", got)
	}
}

func TestComputeProgress_NoTasksIsZero(t *testing.T) {
	calc := NewProgressCalculator()

	p := models.Project{ID: 1}
	if got := calc.ComputeProgress(p, nil); got != 0 {
		t.Errorf("expected 0, got %v", got)
	}
}

func TestShouldClose_AllStagesDone(t *testing.T) {
	calc := NewProgressCalculator()

	p := models.Project{
		ID: 1,
		Stages: []models.ProjectStage{
			{ID: 1, Done: true},
			{ID: 2, Done: true},
		},
	}
	if !calc.ShouldClose(p) {
		t.Error("expected ShouldClose with every stage done")
	}

	p.Stages[1].Done = false
	if calc.ShouldClose(p) {
		t.Error("expected no closure with an open stage")
	}
}

func TestShouldClose_StagelessAtFullProgress(t *testing.T) {
	calc := NewProgressCalculator()

	p := models.Project{ID: 1, ProgressPct: 100}
	if !calc.ShouldClose(p) {
		t.Error("expected ShouldClose at 100% progress")
	}

	p.ProgressPct = 99.99
	if calc.ShouldClose(p) {
		t.Error("expected no closure below 100%")
	}
}

func TestCloseProject_StampsActualEndOnce(t *testing.T) {
	today := time.Date(2026, 5, 1, 0, 0, 0, 0, time.UTC)
	earlier := today.AddDate(0, 0, -10)

	p := models.Project{ID: 1, Status: models.ProjectOpen}
	CloseProject(&p, today)
	if p.Status != models.ProjectClosed {
		t.Errorf("expected closed status, got %s", p.Status)
	}
	if p.ActualEnd == nil || !p.ActualEnd.Equal(today) {
		t.Errorf("expected actual end %v, got %v", today, p.ActualEnd)
	}

	// A second close keeps the original date.
	ReopenProject(&p)
	p.ActualEnd = &earlier
	CloseProject(&p, today)
	if !p.ActualEnd.Equal(earlier) {
		t.Errorf("expected actual end preserved at %v, got %v", earlier, p.ActualEnd)
	}
}

func TestReopenProject_KeepsActualEnd(t *testing.T) {
	today := time.Date(2026, 5, 1, 0, 0, 0, 0, time.UTC)

	p := models.Project{ID: 1, Status: models.ProjectOpen}
	CloseProject(&p, today)
	ReopenProject(&p)

	if p.Status != models.ProjectOpen {
		t.Errorf("expected open status, got %s", p.Status)
	}
	if p.ActualEnd == nil {
		t.Error("expected actual end to survive reopen")
	}
}
