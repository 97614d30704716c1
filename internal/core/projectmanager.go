package core

import (
	"fmt"
	"sort"
	"time"

	"github.com/gacsesystems/tareas/pkg/models"
)

// StagePatch describes a partial stage update. Nil fields are left untouched.
type StagePatch struct {
	Name        *string
	Orden       *int
	Done        *bool
	ProgressPct *FloatPatch
	PlanStart   *TimePatch
	PlanEnd     *TimePatch
	ActualStart *TimePatch
	ActualEnd   *TimePatch
}

// ProjectManager owns the project mutation paths. Every write recomputes the
// project's progress, checks auto-closure, and (in auto mode) re-resolves the
// next action before persisting.
type ProjectManager interface {
	CreateProject(name string, criterion models.ClosureCriterion, now time.Time) (*models.Project, error)
	GetProject(id int64) (*models.Project, error)
	ListProjects() ([]models.Project, error)
	AddStage(projectID int64, name string, planStart, planEnd *time.Time, now time.Time) (*models.Project, error)
	UpdateStage(projectID, stageID int64, patch StagePatch, now time.Time) (*models.Project, error)
	AddObjective(projectID int64, name string, now time.Time) (*models.Project, error)
	SetObjectiveCompleted(projectID, objectiveID int64, completed bool, now time.Time) (*models.Project, error)
	SetClosureCriterion(projectID int64, criterion models.ClosureCriterion, now time.Time) (*models.Project, error)
	SetNextActionMode(projectID int64, mode models.NextActionMode, taskID *int64, now time.Time) (*models.Project, error)
	RecomputeProject(projectID int64, now time.Time) (*models.Project, error)
	CloseProject(projectID int64, now time.Time) (*models.Project, error)
	ReopenProject(projectID int64, now time.Time) (*models.Project, error)
	DeleteProject(projectID int64) error
}

type projectManager struct {
	idGen    IDGenerator
	subIDGen IDGenerator
	store    ProjectStore
	tasks    TaskStore
	calc     ProgressCalculator
	resolver NextActionResolver
	events   EventLogger
}

// NewProjectManager creates a ProjectManager. subIDGen sequences stage and
// objective IDs; events may be nil.
func NewProjectManager(idGen, subIDGen IDGenerator, store ProjectStore, tasks TaskStore, calc ProgressCalculator, resolver NextActionResolver, events EventLogger) ProjectManager {
	return &projectManager{
		idGen:    idGen,
		subIDGen: subIDGen,
		store:    store,
		tasks:    tasks,
		calc:     calc,
		resolver: resolver,
		events:   events,
	}
}

func (m *projectManager) logEvent(eventType string, data map[string]any) {
	if m.events != nil {
		_ = m.events.LogEvent(eventType, data)
	}
}

func (m *projectManager) CreateProject(name string, criterion models.ClosureCriterion, now time.Time) (*models.Project, error) {
	if name == "" {
		return nil, fmt.Errorf("creating project: name must not be empty")
	}
	if criterion == "" {
		criterion = models.CloseByTasks
	}

	id, err := m.idGen.NextID()
	if err != nil {
		return nil, fmt.Errorf("creating project: %w", err)
	}

	project := models.Project{
		ID:               id,
		Name:             name,
		Status:           models.ProjectOpen,
		ClosureCriterion: criterion,
		NextActionMode:   models.NextActionAuto,
	}

	if err := m.store.Load(); err != nil {
		return nil, fmt.Errorf("creating project: loading store: %w", err)
	}
	if err := m.store.Add(project); err != nil {
		return nil, fmt.Errorf("creating project: %w", err)
	}
	if err := m.store.Save(); err != nil {
		return nil, fmt.Errorf("creating project: saving store: %w", err)
	}

	m.logEvent("project.created", map[string]any{"project_id": id, "name": name})
	return &project, nil
}

func (m *projectManager) GetProject(id int64) (*models.Project, error) {
	if err := m.store.Load(); err != nil {
		return nil, fmt.Errorf("getting project %d: loading store: %w", id, err)
	}
	p, err := m.store.Get(id)
	if err != nil {
		return nil, fmt.Errorf("getting project %d: %w", id, err)
	}
	return p, nil
}

func (m *projectManager) ListProjects() ([]models.Project, error) {
	if err := m.store.Load(); err != nil {
		return nil, fmt.Errorf("listing projects: loading store: %w", err)
	}
	all, err := m.store.GetAll()
	if err != nil {
		return nil, fmt.Errorf("listing projects: %w", err)
	}
	sort.SliceStable(all, func(i, j int) bool {
		if all[i].Priority != all[j].Priority {
			return all[i].Priority > all[j].Priority
		}
		return all[i].ID < all[j].ID
	})
	return all, nil
}

// mutateProject loads the store, applies fn, refreshes derived fields, and
// saves. Mutation and recompute persist together or not at all.
func (m *projectManager) mutateProject(op string, id int64, now time.Time, fn func(*models.Project) error) (*models.Project, error) {
	if err := m.store.Load(); err != nil {
		return nil, fmt.Errorf("%s %d: loading store: %w", op, id, err)
	}
	p, err := m.store.Get(id)
	if err != nil {
		return nil, fmt.Errorf("%s %d: %w", op, id, err)
	}

	if err := fn(p); err != nil {
		return nil, fmt.Errorf("%s %d: %w", op, id, err)
	}
	if err := m.refreshDerived(p, now); err != nil {
		return nil, fmt.Errorf("%s %d: %w", op, id, err)
	}

	if err := m.store.Update(*p); err != nil {
		return nil, fmt.Errorf("%s %d: %w", op, id, err)
	}
	if err := m.store.Save(); err != nil {
		return nil, fmt.Errorf("%s %d: saving store: %w", op, id, err)
	}
	return p, nil
}

// refreshDerived recomputes progress, applies auto-closure, and re-resolves
// the next action. Manual next-action mode freezes the pinned task but the
// recompute timestamp is stamped regardless.
func (m *projectManager) refreshDerived(p *models.Project, now time.Time) error {
	tasks, err := m.projectTasks(p.ID)
	if err != nil {
		return err
	}

	p.ProgressPct = m.calc.ComputeProgress(*p, tasks)
	m.logEvent("project.progress", map[string]any{
		"project_id": p.ID,
		"progress":   p.ProgressPct,
	})

	if p.Status == models.ProjectOpen && m.calc.ShouldClose(*p) {
		CloseProject(p, startOfDay(now))
		m.logEvent("project.closed", map[string]any{"project_id": p.ID, "auto": true})
	}

	if p.NextActionMode == models.NextActionAuto {
		prev := p.NextActionTaskID
		p.NextActionTaskID = m.resolver.Resolve(*p, tasks)
		if !sameID(prev, p.NextActionTaskID) {
			m.logEvent("project.next_action", map[string]any{
				"project_id": p.ID,
				"task_id":    idOrZero(p.NextActionTaskID),
			})
		}
	}
	stamp := now
	p.NextActionUpdatedAt = &stamp

	return nil
}

func (m *projectManager) projectTasks(projectID int64) ([]models.Task, error) {
	if err := m.tasks.Load(); err != nil {
		return nil, fmt.Errorf("loading tasks: %w", err)
	}
	all, err := m.tasks.GetAll()
	if err != nil {
		return nil, fmt.Errorf("reading tasks: %w", err)
	}
	var owned []models.Task
	for _, t := range all {
		if t.ProjectID == projectID {
			owned = append(owned, t)
		}
	}
	return owned, nil
}

func sameID(a, b *int64) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}

func idOrZero(id *int64) int64 {
	if id == nil {
		return 0
	}
	return *id
}

func (m *projectManager) AddStage(projectID int64, name string, planStart, planEnd *time.Time, now time.Time) (*models.Project, error) {
	stageID, err := m.subIDGen.NextID()
	if err != nil {
		return nil, fmt.Errorf("adding stage to project %d: %w", projectID, err)
	}

	p, err := m.mutateProject("adding stage to project", projectID, now, func(p *models.Project) error {
		if name == "" {
			return fmt.Errorf("stage name must not be empty")
		}
		p.Stages = append(p.Stages, models.ProjectStage{
			ID:        stageID,
			Name:      name,
			Orden:     len(p.Stages) + 1,
			PlanStart: planStart,
			PlanEnd:   planEnd,
		})
		return nil
	})
	if err != nil {
		return nil, err
	}
	m.logEvent("project.stage_added", map[string]any{"project_id": projectID, "stage_id": stageID})
	return p, nil
}

func (m *projectManager) UpdateStage(projectID, stageID int64, patch StagePatch, now time.Time) (*models.Project, error) {
	p, err := m.mutateProject("updating stage in project", projectID, now, func(p *models.Project) error {
		for i := range p.Stages {
			if p.Stages[i].ID != stageID {
				continue
			}
			applyStagePatch(&p.Stages[i], patch, now)
			sort.SliceStable(p.Stages, func(a, b int) bool { return p.Stages[a].Orden < p.Stages[b].Orden })
			return nil
		}
		return fmt.Errorf("stage %d not found", stageID)
	})
	if err != nil {
		return nil, err
	}
	m.logEvent("project.stage_updated", map[string]any{"project_id": projectID, "stage_id": stageID})
	return p, nil
}

func applyStagePatch(s *models.ProjectStage, p StagePatch, now time.Time) {
	if p.Name != nil {
		s.Name = *p.Name
	}
	if p.Orden != nil {
		s.Orden = *p.Orden
	}
	if p.Done != nil {
		s.Done = *p.Done
		if s.Done && s.ActualEnd == nil {
			d := startOfDay(now)
			s.ActualEnd = &d
		}
	}
	if p.ProgressPct != nil {
		if p.ProgressPct.Clear {
			s.ProgressPct = nil
		} else {
			v := clampFloat(p.ProgressPct.Value, 0, 100)
			s.ProgressPct = &v
		}
	}
	applyTimePatch(&s.PlanStart, p.PlanStart)
	applyTimePatch(&s.PlanEnd, p.PlanEnd)
	applyTimePatch(&s.ActualStart, p.ActualStart)
	applyTimePatch(&s.ActualEnd, p.ActualEnd)
}

func (m *projectManager) AddObjective(projectID int64, name string, now time.Time) (*models.Project, error) {
	objectiveID, err := m.subIDGen.NextID()
	if err != nil {
		return nil, fmt.Errorf("adding objective to project %d: %w", projectID, err)
	}

	p, err := m.mutateProject("adding objective to project", projectID, now, func(p *models.Project) error {
		if name == "" {
			return fmt.Errorf("objective name must not be empty")
		}
		p.Objectives = append(p.Objectives, models.ProjectObjective{
			ID:    objectiveID,
			Name:  name,
			Orden: len(p.Objectives) + 1,
		})
		return nil
	})
	if err != nil {
		return nil, err
	}
	m.logEvent("project.objective_added", map[string]any{"project_id": projectID, "objective_id": objectiveID})
	return p, nil
}

func (m *projectManager) SetObjectiveCompleted(projectID, objectiveID int64, completed bool, now time.Time) (*models.Project, error) {
	p, err := m.mutateProject("completing objective in project", projectID, now, func(p *models.Project) error {
		for i := range p.Objectives {
			if p.Objectives[i].ID == objectiveID {
				p.Objectives[i].Completed = completed
				return nil
			}
		}
		return fmt.Errorf("objective %d not found", objectiveID)
	})
	if err != nil {
		return nil, err
	}
	m.logEvent("project.objective_completed", map[string]any{
		"project_id":   projectID,
		"objective_id": objectiveID,
		"completed":    completed,
	})
	return p, nil
}

func (m *projectManager) SetClosureCriterion(projectID int64, criterion models.ClosureCriterion, now time.Time) (*models.Project, error) {
	return m.mutateProject("setting closure criterion on project", projectID, now, func(p *models.Project) error {
		if criterion != models.CloseByTasks && criterion != models.CloseByObjectives {
			return fmt.Errorf("invalid closure criterion %q", criterion)
		}
		p.ClosureCriterion = criterion
		return nil
	})
}

// SetNextActionMode switches between automatic and manual next-action
// resolution. Switching to manual freezes the current (or supplied) task
// until explicitly changed.
func (m *projectManager) SetNextActionMode(projectID int64, mode models.NextActionMode, taskID *int64, now time.Time) (*models.Project, error) {
	return m.mutateProject("setting next-action mode on project", projectID, now, func(p *models.Project) error {
		if mode != models.NextActionAuto && mode != models.NextActionManual {
			return fmt.Errorf("invalid next-action mode %q", mode)
		}
		p.NextActionMode = mode
		if mode == models.NextActionManual && taskID != nil {
			p.NextActionTaskID = taskID
		}
		return nil
	})
}

// RecomputeProject refreshes progress, closure, and next action without any
// other mutation. TaskManager calls this after task churn.
func (m *projectManager) RecomputeProject(projectID int64, now time.Time) (*models.Project, error) {
	return m.mutateProject("recomputing project", projectID, now, func(*models.Project) error {
		return nil
	})
}

func (m *projectManager) CloseProject(projectID int64, now time.Time) (*models.Project, error) {
	p, err := m.mutateProject("closing project", projectID, now, func(p *models.Project) error {
		if p.Status == models.ProjectClosed {
			return fmt.Errorf("project is already closed")
		}
		CloseProject(p, startOfDay(now))
		return nil
	})
	if err != nil {
		return nil, err
	}
	m.logEvent("project.closed", map[string]any{"project_id": projectID, "auto": false})
	return p, nil
}

// ReopenProject reopens a closed project. The actual end date stays as it
// was; only the status flips.
func (m *projectManager) ReopenProject(projectID int64, now time.Time) (*models.Project, error) {
	p, err := m.mutateProject("reopening project", projectID, now, func(p *models.Project) error {
		if p.Status != models.ProjectClosed {
			return fmt.Errorf("project is not closed")
		}
		ReopenProject(p)
		return nil
	})
	if err != nil {
		return nil, err
	}
	m.logEvent("project.reopened", map[string]any{"project_id": projectID})
	return p, nil
}

func (m *projectManager) DeleteProject(projectID int64) error {
	if err := m.store.Load(); err != nil {
		return fmt.Errorf("deleting project %d: loading store: %w", projectID, err)
	}
	if err := m.store.Remove(projectID); err != nil {
		return fmt.Errorf("deleting project %d: %w", projectID, err)
	}
	if err := m.store.Save(); err != nil {
		return fmt.Errorf("deleting project %d: saving store: %w", projectID, err)
	}
	m.logEvent("project.deleted", map[string]any{"project_id": projectID})
	return nil
}
