package core

import (
	"fmt"
	"path/filepath"
	"sort"
	"time"

	"github.com/gacsesystems/tareas/pkg/models"
)

// IntPatch sets or clears an optional integer field: Clear removes the value,
// otherwise Value is applied.
type IntPatch struct {
	Clear bool
	Value int
}

// FloatPatch sets or clears an optional float field.
type FloatPatch struct {
	Clear bool
	Value float64
}

// TimePatch sets or clears an optional timestamp field.
type TimePatch struct {
	Clear bool
	Value time.Time
}

// TaskPatch describes a partial update. Nil fields are left untouched.
type TaskPatch struct {
	Title   *string
	Notes   *string
	State   *models.TaskState
	Type    *models.TaskType
	Area    *string
	Context *string
	Moscow  *models.Moscow
	Horizon *models.Horizon

	Impact        *IntPatch
	Value         *IntPatch
	Efficiency    *IntPatch
	Stakeholders  *IntPatch
	ManualUrgency *IntPatch

	DueAt      *TimePatch
	FollowUpAt *TimePatch

	Rock           *bool
	Frog           *bool
	Pareto         *bool
	FamilyFriendly *bool
	Kaizen         *bool
	Kash           *models.KashBucket

	RiskOpportunityDelta *FloatPatch

	ProjectID *int64
	StageID   *int64
}

// CreateTaskInput carries the caller-supplied fields for a new task.
type CreateTaskInput struct {
	Title   string
	Notes   string
	State   models.TaskState
	Type    models.TaskType
	Area    string
	Context string
	Moscow  models.Moscow
	Horizon models.Horizon

	Impact        *int
	Value         *int
	Efficiency    *int
	Stakeholders  *int
	ManualUrgency *int

	DueAt     *time.Time
	ProjectID int64
	StageID   int64
	HabitID   int64
}

// TaskFilter selects tasks for listing. All criteria use AND logic.
type TaskFilter struct {
	States    []models.TaskState
	Area      string
	Context   string
	ProjectID int64
	Deleted   bool // include soft-deleted tasks
}

// ProjectRecomputer is the slice of ProjectManager that TaskManager needs:
// task churn changes by-task project progress.
type ProjectRecomputer interface {
	RecomputeProject(projectID int64, now time.Time) (*models.Project, error)
}

// TaskManager owns the task mutation paths. Every mutation recomputes the
// task's score before persisting, inside the same load/save cycle.
type TaskManager interface {
	CreateTask(input CreateTaskInput, now time.Time) (*models.Task, error)
	GetTask(id int64) (*models.Task, error)
	ListTasks(filter TaskFilter) ([]models.Task, error)
	UpdateTask(id int64, patch TaskPatch, now time.Time) (*models.Task, error)
	MoveTask(id int64, state models.TaskState, afterID, beforeID *int64, now time.Time) (*models.Task, error)
	ReflowColumn(state models.TaskState) (map[int64]int, error)
	SetFrog(id int64, on bool, now time.Time) (*models.Task, error)
	SetRock(id int64, on bool, now time.Time) (*models.Task, error)
	SetPareto(id int64, on bool, now time.Time) (*models.Task, error)
	BoostTask(id int64, factor float64, until time.Time, now time.Time) (*models.Task, error)
	RegisterInterest(id int64, now time.Time) (*models.Task, error)
	SetBlocked(id int64, blocked bool, reason string, now time.Time) (*models.Task, error)
	CompleteTask(id int64, now time.Time) (*models.Task, error)
	DeleteTask(id int64, now time.Time) error
	RescoreAll(now time.Time) (int, error)
}

type taskManager struct {
	basePath string
	idGen    IDGenerator
	store    TaskStore
	habits   HabitStore
	engine   ScoreEngine
	ledger   RankingLedger
	events   EventLogger
	projects ProjectRecomputer
}

// NewTaskManager creates a TaskManager with all dependencies injected.
// habits and events may be nil. The project recomputer is attached afterwards
// via SetProjectRecomputer since the two managers see each other's data.
func NewTaskManager(basePath string, idGen IDGenerator, store TaskStore, habits HabitStore, engine ScoreEngine, ledger RankingLedger, events EventLogger) TaskManager {
	return &taskManager{
		basePath: basePath,
		idGen:    idGen,
		store:    store,
		habits:   habits,
		engine:   engine,
		ledger:   ledger,
		events:   events,
	}
}

// SetProjectRecomputer attaches the project recompute hook; app wiring calls
// it once at startup on the concrete type.
func (m *taskManager) SetProjectRecomputer(pr ProjectRecomputer) {
	m.projects = pr
}

func (m *taskManager) rankingLockPath() string {
	return filepath.Join(m.basePath, ".tareas_ranking.lock")
}

func (m *taskManager) logEvent(eventType string, data map[string]any) {
	if m.events != nil {
		_ = m.events.LogEvent(eventType, data)
	}
}

// normalizeTask enforces the task-level consistency rules on every mutation:
// the frog date exists iff the task is the frog and sits in today's column,
// and the boost factor stays within its contract range.
func normalizeTask(t *models.Task, now time.Time) {
	if t.IsFrog && t.State == models.StateToday {
		if t.FrogDate == nil {
			d := startOfDay(now)
			t.FrogDate = &d
		}
	} else {
		t.FrogDate = nil
	}

	if t.BoostFactor != 0 {
		t.BoostFactor = clampFloat(t.BoostFactor, 1.0, maxBoostFactor)
	}
}

func startOfDay(now time.Time) time.Time {
	u := now.UTC()
	return time.Date(u.Year(), u.Month(), u.Day(), 0, 0, 0, 0, time.UTC)
}

// rescore recomputes the derived score; callers persist the task afterwards.
func (m *taskManager) rescore(t *models.Task, now time.Time) {
	normalizeTask(t, now)
	t.Score = m.engine.ComputeScore(*t, now)
}

// CreateTask assigns a fresh ID, appends the task at the end of its column,
// computes the initial score, and persists the result.
func (m *taskManager) CreateTask(input CreateTaskInput, now time.Time) (*models.Task, error) {
	if input.Title == "" {
		return nil, fmt.Errorf("creating task: title must not be empty")
	}

	id, err := m.idGen.NextID()
	if err != nil {
		return nil, fmt.Errorf("creating task: %w", err)
	}

	state := input.State
	if state == "" {
		state = models.StateBacklog
	}

	if err := m.store.Load(); err != nil {
		return nil, fmt.Errorf("creating task: loading store: %w", err)
	}

	task := models.Task{
		ID:            id,
		Title:         input.Title,
		Notes:         input.Notes,
		State:         state,
		Type:          input.Type,
		Area:          input.Area,
		Context:       input.Context,
		Moscow:        input.Moscow,
		Horizon:       input.Horizon,
		Impact:        input.Impact,
		Value:         input.Value,
		Efficiency:    input.Efficiency,
		Stakeholders:  input.Stakeholders,
		ManualUrgency: input.ManualUrgency,
		DueAt:         input.DueAt,
		CreatedAt:     now,
		ProjectID:     input.ProjectID,
		StageID:       input.StageID,
		HabitID:       input.HabitID,
	}
	task.Ranking = m.columnTailRank(state)
	m.rescore(&task, now)

	if err := m.store.Add(task); err != nil {
		return nil, fmt.Errorf("creating task: %w", err)
	}
	if err := m.store.Save(); err != nil {
		return nil, fmt.Errorf("creating task: saving store: %w", err)
	}

	m.logEvent("task.created", map[string]any{
		"task_id": id,
		"state":   string(state),
		"score":   task.Score,
	})
	m.recomputeOwningProject(task.ProjectID, now)

	return &task, nil
}

// columnTailRank returns the rank for appending at the end of a state column.
// The store must already be loaded.
func (m *taskManager) columnTailRank(state models.TaskState) int {
	all, err := m.store.GetAll()
	if err != nil {
		return rankSeed
	}
	var tail *int
	for _, t := range all {
		if t.Deleted || t.State != state {
			continue
		}
		r := t.Ranking
		if tail == nil || r > *tail {
			v := r
			tail = &v
		}
	}
	return m.ledger.InsertBetween(tail, nil)
}

func (m *taskManager) GetTask(id int64) (*models.Task, error) {
	if err := m.store.Load(); err != nil {
		return nil, fmt.Errorf("getting task %d: loading store: %w", id, err)
	}
	task, err := m.store.Get(id)
	if err != nil {
		return nil, fmt.Errorf("getting task %d: %w", id, err)
	}
	return task, nil
}

// ListTasks returns tasks matching the filter, ordered by state column, then
// ranking, then score.
func (m *taskManager) ListTasks(filter TaskFilter) ([]models.Task, error) {
	if err := m.store.Load(); err != nil {
		return nil, fmt.Errorf("listing tasks: loading store: %w", err)
	}
	all, err := m.store.GetAll()
	if err != nil {
		return nil, fmt.Errorf("listing tasks: %w", err)
	}

	var result []models.Task
	for _, t := range all {
		if t.Deleted && !filter.Deleted {
			continue
		}
		if len(filter.States) > 0 && !containsState(filter.States, t.State) {
			continue
		}
		if filter.Area != "" && t.Area != filter.Area {
			continue
		}
		if filter.Context != "" && t.Context != filter.Context {
			continue
		}
		if filter.ProjectID != 0 && t.ProjectID != filter.ProjectID {
			continue
		}
		result = append(result, t)
	}

	sort.SliceStable(result, func(i, j int) bool {
		a, b := result[i], result[j]
		if a.State != b.State {
			return stateIndex(a.State) < stateIndex(b.State)
		}
		if a.Ranking != b.Ranking {
			return a.Ranking < b.Ranking
		}
		return a.Score > b.Score
	})

	return result, nil
}

func containsState(haystack []models.TaskState, needle models.TaskState) bool {
	for _, s := range haystack {
		if s == needle {
			return true
		}
	}
	return false
}

func stateIndex(s models.TaskState) int {
	for i, state := range models.AllTaskStates {
		if s == state {
			return i
		}
	}
	return len(models.AllTaskStates)
}

// mutateTask loads the store, applies fn to the stored task, recomputes the
// score, and saves. The mutation and its derived recompute persist together
// or not at all.
func (m *taskManager) mutateTask(op string, id int64, now time.Time, fn func(*models.Task) error) (*models.Task, error) {
	if err := m.store.Load(); err != nil {
		return nil, fmt.Errorf("%s %d: loading store: %w", op, id, err)
	}
	task, err := m.store.Get(id)
	if err != nil {
		return nil, fmt.Errorf("%s %d: %w", op, id, err)
	}
	if task.Deleted {
		return nil, fmt.Errorf("%s %d: task is deleted", op, id)
	}

	if err := fn(task); err != nil {
		return nil, fmt.Errorf("%s %d: %w", op, id, err)
	}
	m.rescore(task, now)

	if err := m.store.Update(*task); err != nil {
		return nil, fmt.Errorf("%s %d: %w", op, id, err)
	}
	if err := m.store.Save(); err != nil {
		return nil, fmt.Errorf("%s %d: saving store: %w", op, id, err)
	}
	return task, nil
}

// UpdateTask applies a partial update and recomputes the score.
func (m *taskManager) UpdateTask(id int64, patch TaskPatch, now time.Time) (*models.Task, error) {
	var oldState models.TaskState
	task, err := m.mutateTask("updating task", id, now, func(t *models.Task) error {
		oldState = t.State
		applyPatch(t, patch)
		return nil
	})
	if err != nil {
		return nil, err
	}

	m.logEvent("task.updated", map[string]any{"task_id": id, "score": task.Score})
	if patch.State != nil && *patch.State != oldState {
		m.logEvent("task.state_changed", map[string]any{
			"task_id":   id,
			"old_state": string(oldState),
			"new_state": string(*patch.State),
		})
	}
	m.recomputeOwningProject(task.ProjectID, now)

	return task, nil
}

func applyPatch(t *models.Task, p TaskPatch) {
	if p.Title != nil {
		t.Title = *p.Title
	}
	if p.Notes != nil {
		t.Notes = *p.Notes
	}
	if p.State != nil {
		t.State = *p.State
	}
	if p.Type != nil {
		t.Type = *p.Type
	}
	if p.Area != nil {
		t.Area = *p.Area
	}
	if p.Context != nil {
		t.Context = *p.Context
	}
	if p.Moscow != nil {
		t.Moscow = *p.Moscow
	}
	if p.Horizon != nil {
		t.Horizon = *p.Horizon
	}

	applyIntPatch(&t.Impact, p.Impact)
	applyIntPatch(&t.Value, p.Value)
	applyIntPatch(&t.Efficiency, p.Efficiency)
	applyIntPatch(&t.Stakeholders, p.Stakeholders)
	applyIntPatch(&t.ManualUrgency, p.ManualUrgency)

	applyTimePatch(&t.DueAt, p.DueAt)
	applyTimePatch(&t.FollowUpAt, p.FollowUpAt)

	if p.Rock != nil {
		t.IsRock = *p.Rock
	}
	if p.Frog != nil {
		t.IsFrog = *p.Frog
	}
	if p.Pareto != nil {
		t.IsPareto = *p.Pareto
	}
	if p.FamilyFriendly != nil {
		t.FamilyFriendly = *p.FamilyFriendly
	}
	if p.Kaizen != nil {
		t.Kaizen = *p.Kaizen
	}
	if p.Kash != nil {
		t.Kash = *p.Kash
	}

	if p.RiskOpportunityDelta != nil {
		if p.RiskOpportunityDelta.Clear {
			t.RiskOpportunityDelta = nil
		} else {
			v := clampFloat(p.RiskOpportunityDelta.Value, -riskDeltaLimit, riskDeltaLimit)
			t.RiskOpportunityDelta = &v
		}
	}

	if p.ProjectID != nil {
		t.ProjectID = *p.ProjectID
	}
	if p.StageID != nil {
		t.StageID = *p.StageID
	}
}

func applyIntPatch(dst **int, p *IntPatch) {
	if p == nil {
		return
	}
	if p.Clear {
		*dst = nil
		return
	}
	v := clampInt(p.Value, 0, 10)
	*dst = &v
}

func applyTimePatch(dst **time.Time, p *TimePatch) {
	if p == nil {
		return
	}
	if p.Clear {
		*dst = nil
		return
	}
	v := p.Value
	*dst = &v
}

// MoveTask moves a task into a column position between two optional
// neighbors. The ranking lock is taken before neighbor ranks are read so a
// concurrent move cannot leave either computation against stale neighbors.
func (m *taskManager) MoveTask(id int64, state models.TaskState, afterID, beforeID *int64, now time.Time) (*models.Task, error) {
	unlock, err := lockFile(m.rankingLockPath())
	if err != nil {
		return nil, fmt.Errorf("moving task %d: %w", id, err)
	}
	defer func() { _ = unlock() }()

	if err := m.store.Load(); err != nil {
		return nil, fmt.Errorf("moving task %d: loading store: %w", id, err)
	}
	task, err := m.store.Get(id)
	if err != nil {
		return nil, fmt.Errorf("moving task %d: %w", id, err)
	}
	if task.Deleted {
		return nil, fmt.Errorf("moving task %d: task is deleted", id)
	}

	afterRank, err := m.neighborRank(afterID, state)
	if err != nil {
		return nil, fmt.Errorf("moving task %d: %w", id, err)
	}
	beforeRank, err := m.neighborRank(beforeID, state)
	if err != nil {
		return nil, fmt.Errorf("moving task %d: %w", id, err)
	}

	oldState := task.State
	task.State = state
	task.Ranking = m.ledger.InsertBetween(afterRank, beforeRank)
	moved := now
	task.LastMovementAt = &moved
	m.rescore(task, now)

	if err := m.store.Update(*task); err != nil {
		return nil, fmt.Errorf("moving task %d: %w", id, err)
	}
	if err := m.store.Save(); err != nil {
		return nil, fmt.Errorf("moving task %d: saving store: %w", id, err)
	}

	m.logEvent("task.moved", map[string]any{
		"task_id": id,
		"state":   string(state),
		"ranking": task.Ranking,
	})
	if oldState != state {
		m.logEvent("task.state_changed", map[string]any{
			"task_id":   id,
			"old_state": string(oldState),
			"new_state": string(state),
		})
	}
	m.recomputeOwningProject(task.ProjectID, now)

	return task, nil
}

// neighborRank resolves a neighbor task ID to its rank, checking it actually
// lives in the target column. The store must already be loaded.
func (m *taskManager) neighborRank(id *int64, state models.TaskState) (*int, error) {
	if id == nil {
		return nil, nil
	}
	neighbor, err := m.store.Get(*id)
	if err != nil {
		return nil, fmt.Errorf("resolving neighbor %d: %w", *id, err)
	}
	if neighbor.State != state {
		return nil, fmt.Errorf("neighbor %d is in state %s, not %s", *id, neighbor.State, state)
	}
	r := neighbor.Ranking
	return &r, nil
}

// ReflowColumn renumbers a whole column to (index+1)*100 in current order,
// repairing rank collapse from repeated midpoint insertion. The whole reflow
// persists in one save.
func (m *taskManager) ReflowColumn(state models.TaskState) (map[int64]int, error) {
	unlock, err := lockFile(m.rankingLockPath())
	if err != nil {
		return nil, fmt.Errorf("reflowing column %s: %w", state, err)
	}
	defer func() { _ = unlock() }()

	if err := m.store.Load(); err != nil {
		return nil, fmt.Errorf("reflowing column %s: loading store: %w", state, err)
	}
	all, err := m.store.GetAll()
	if err != nil {
		return nil, fmt.Errorf("reflowing column %s: %w", state, err)
	}

	var column []models.Task
	for _, t := range all {
		if t.Deleted || t.State != state {
			continue
		}
		column = append(column, t)
	}
	sort.SliceStable(column, func(i, j int) bool {
		if column[i].Ranking != column[j].Ranking {
			return column[i].Ranking < column[j].Ranking
		}
		return column[i].ID < column[j].ID
	})

	ids := make([]int64, len(column))
	for i, t := range column {
		ids[i] = t.ID
	}
	ranks := m.ledger.Reflow(ids)

	for _, t := range column {
		t.Ranking = ranks[t.ID]
		if err := m.store.Update(t); err != nil {
			return nil, fmt.Errorf("reflowing column %s: %w", state, err)
		}
	}
	if err := m.store.Save(); err != nil {
		return nil, fmt.Errorf("reflowing column %s: saving store: %w", state, err)
	}

	m.logEvent("column.reflowed", map[string]any{"state": string(state), "count": len(ids)})
	return ranks, nil
}

// SetFrog designates (or clears) the task as today's frog. Turning the frog
// on also pulls the task into the today column.
func (m *taskManager) SetFrog(id int64, on bool, now time.Time) (*models.Task, error) {
	task, err := m.mutateTask("setting frog on task", id, now, func(t *models.Task) error {
		t.IsFrog = on
		if on {
			t.State = models.StateToday
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	m.logEvent("task.frog", map[string]any{"task_id": id, "on": on})
	return task, nil
}

// SetRock designates the task as one of the week's rocks.
func (m *taskManager) SetRock(id int64, on bool, now time.Time) (*models.Task, error) {
	task, err := m.mutateTask("setting rock on task", id, now, func(t *models.Task) error {
		t.IsRock = on
		return nil
	})
	if err != nil {
		return nil, err
	}
	m.logEvent("task.rock", map[string]any{"task_id": id, "on": on})
	return task, nil
}

// SetPareto flags the task as top-20% value work.
func (m *taskManager) SetPareto(id int64, on bool, now time.Time) (*models.Task, error) {
	task, err := m.mutateTask("setting pareto on task", id, now, func(t *models.Task) error {
		t.IsPareto = on
		return nil
	})
	if err != nil {
		return nil, err
	}
	m.logEvent("task.pareto", map[string]any{"task_id": id, "on": on})
	return task, nil
}

// BoostTask applies a temporary score boost. Boosting a blocked task is
// rejected here, at the action layer; the score engine itself stays pure.
func (m *taskManager) BoostTask(id int64, factor float64, until time.Time, now time.Time) (*models.Task, error) {
	task, err := m.mutateTask("boosting task", id, now, func(t *models.Task) error {
		if t.Blocked {
			return fmt.Errorf("task is blocked; unblock it before boosting")
		}
		if !until.After(now) {
			return fmt.Errorf("boost expiry %s is not in the future", until.Format(time.RFC3339))
		}
		t.BoostFactor = clampFloat(factor, 1.0, maxBoostFactor)
		u := until
		t.BoostUntil = &u
		return nil
	})
	if err != nil {
		return nil, err
	}
	m.logEvent("task.boosted", map[string]any{"task_id": id, "factor": task.BoostFactor})
	return task, nil
}

// RegisterInterest records one more "I looked at this" hit, feeding the
// capped interest multiplier.
func (m *taskManager) RegisterInterest(id int64, now time.Time) (*models.Task, error) {
	task, err := m.mutateTask("registering interest on task", id, now, func(t *models.Task) error {
		t.InterestHitCount++
		hit := now
		t.InterestLastAt = &hit
		return nil
	})
	if err != nil {
		return nil, err
	}
	m.logEvent("task.interest", map[string]any{"task_id": id, "hits": task.InterestHitCount})
	return task, nil
}

// SetBlocked toggles the blocked flag and reason.
func (m *taskManager) SetBlocked(id int64, blocked bool, reason string, now time.Time) (*models.Task, error) {
	task, err := m.mutateTask("blocking task", id, now, func(t *models.Task) error {
		t.Blocked = blocked
		if blocked {
			t.BlockedReason = reason
		} else {
			t.BlockedReason = ""
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	m.logEvent("task.blocked", map[string]any{"task_id": id, "blocked": blocked, "reason": reason})
	return task, nil
}

// CompleteTask moves the task to done.
func (m *taskManager) CompleteTask(id int64, now time.Time) (*models.Task, error) {
	task, err := m.mutateTask("completing task", id, now, func(t *models.Task) error {
		t.State = models.StateDone
		moved := now
		t.LastMovementAt = &moved
		return nil
	})
	if err != nil {
		return nil, err
	}
	m.logEvent("task.completed", map[string]any{"task_id": id})
	m.recomputeOwningProject(task.ProjectID, now)
	return task, nil
}

// DeleteTask soft-deletes the task. Habit logs that reference it keep their
// history with the task reference cleared.
func (m *taskManager) DeleteTask(id int64, now time.Time) error {
	task, err := m.mutateTask("deleting task", id, now, func(t *models.Task) error {
		t.Deleted = true
		return nil
	})
	if err != nil {
		return err
	}

	if m.habits != nil {
		if err := m.habits.Load(); err == nil {
			if err := m.habits.ClearTaskRefs(id); err == nil {
				_ = m.habits.Save()
			}
		}
	}

	m.logEvent("task.deleted", map[string]any{"task_id": id})
	m.recomputeOwningProject(task.ProjectID, now)
	return nil
}

// RescoreAll recomputes every live task's score at now. Scores drift with
// time (urgency, decay, boost expiry); this is the maintenance entry point.
func (m *taskManager) RescoreAll(now time.Time) (int, error) {
	if err := m.store.Load(); err != nil {
		return 0, fmt.Errorf("rescoring tasks: loading store: %w", err)
	}
	all, err := m.store.GetAll()
	if err != nil {
		return 0, fmt.Errorf("rescoring tasks: %w", err)
	}

	count := 0
	for _, t := range all {
		if t.Deleted {
			continue
		}
		m.rescore(&t, now)
		if err := m.store.Update(t); err != nil {
			return count, fmt.Errorf("rescoring task %d: %w", t.ID, err)
		}
		count++
	}
	if err := m.store.Save(); err != nil {
		return count, fmt.Errorf("rescoring tasks: saving store: %w", err)
	}

	m.logEvent("tasks.rescored", map[string]any{"count": count})
	return count, nil
}

// recomputeOwningProject refreshes the owning project's derived fields after
// task churn. Best-effort: a missing project hook is not an error.
func (m *taskManager) recomputeOwningProject(projectID int64, now time.Time) {
	if projectID == 0 || m.projects == nil {
		return
	}
	_, _ = m.projects.RecomputeProject(projectID, now)
}
