// Package mcp provides an MCP (Model Context Protocol) server that exposes
// tareas functionality as MCP tools for AI assistants.
package mcp

import (
	"context"
	"fmt"
	"time"

	gomcp "github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/gacsesystems/tareas/internal/core"
	"github.com/gacsesystems/tareas/internal/observability"
	"github.com/gacsesystems/tareas/pkg/models"
)

// Server wraps tareas services and exposes them as MCP tools.
type Server struct {
	server      *gomcp.Server
	taskMgr     core.TaskManager
	projectMgr  core.ProjectManager
	habitMgr    core.HabitManager
	scoreEngine core.ScoreEngine
	metricsCalc observability.MetricsCalculator
	alertEngine observability.AlertEngine
}

// NewServer creates a new MCP server with the given service dependencies.
// metricsCalc and alertEngine may be nil if observability is disabled.
func NewServer(
	taskMgr core.TaskManager,
	projectMgr core.ProjectManager,
	habitMgr core.HabitManager,
	scoreEngine core.ScoreEngine,
	metricsCalc observability.MetricsCalculator,
	alertEngine observability.AlertEngine,
	version string,
) *Server {
	if version == "" {
		version = "dev"
	}

	s := &Server{
		taskMgr:     taskMgr,
		projectMgr:  projectMgr,
		habitMgr:    habitMgr,
		scoreEngine: scoreEngine,
		metricsCalc: metricsCalc,
		alertEngine: alertEngine,
	}

	s.server = gomcp.NewServer(
		&gomcp.Implementation{Name: "tareas", Version: version},
		nil,
	)

	s.registerTools()

	return s
}

// Run starts the MCP server on stdio, blocking until the client disconnects
// or the context is cancelled.
func (s *Server) Run(ctx context.Context) error {
	return s.server.Run(ctx, &gomcp.StdioTransport{})
}

// MCPServer returns the underlying mcp.Server for testing purposes.
func (s *Server) MCPServer() *gomcp.Server {
	return s.server
}

// --- Tool input/output types ---

type getTaskInput struct {
	TaskID int64 `json:"task_id" jsonschema:"required,the numeric task identifier"`
}

type taskOutput struct {
	ID       int64   `json:"id"`
	Title    string  `json:"title"`
	State    string  `json:"state"`
	Type     string  `json:"type,omitempty"`
	Area     string  `json:"area,omitempty"`
	Context  string  `json:"context,omitempty"`
	Moscow   string  `json:"moscow,omitempty"`
	Horizon  string  `json:"horizon,omitempty"`
	IsFrog   bool    `json:"is_frog,omitempty"`
	IsRock   bool    `json:"is_rock,omitempty"`
	IsPareto bool    `json:"is_pareto,omitempty"`
	Blocked  bool    `json:"blocked,omitempty"`
	Ranking  int     `json:"ranking"`
	Score    float64 `json:"score"`
	DueAt    string  `json:"due_at,omitempty"`
	Project  int64   `json:"project_id,omitempty"`
}

type listTasksInput struct {
	State   string `json:"state,omitempty" jsonschema:"filter tasks by kanban state (backlog, next, today, in_progress, in_review, done, blocked)"`
	Area    string `json:"area,omitempty" jsonschema:"filter tasks by area"`
	Context string `json:"context,omitempty" jsonschema:"filter tasks by context"`
	Project int64  `json:"project_id,omitempty" jsonschema:"filter tasks by project"`
}

type listTasksOutput struct {
	Tasks []taskOutput `json:"tasks"`
	Count int          `json:"count"`
}

type scoreTaskInput struct {
	TaskID int64 `json:"task_id" jsonschema:"required,the numeric task identifier"`
}

type scoreTaskOutput struct {
	TaskID    int64               `json:"task_id"`
	Score     float64             `json:"score"`
	Breakdown core.ScoreBreakdown `json:"breakdown"`
}

type nextActionInput struct {
	ProjectID int64 `json:"project_id" jsonschema:"required,the numeric project identifier"`
}

type nextActionOutput struct {
	ProjectID  int64       `json:"project_id"`
	TaskID     *int64      `json:"task_id,omitempty"`
	Task       *taskOutput `json:"task,omitempty"`
	Mode       string      `json:"mode"`
	ResolvedAt string      `json:"resolved_at,omitempty"`
}

type logHabitInput struct {
	HabitID int64    `json:"habit_id" jsonschema:"required,the numeric habit identifier"`
	Date    string   `json:"date,omitempty" jsonschema:"check-in date in YYYY-MM-DD format. Defaults to today."`
	Value   *float64 `json:"value,omitempty" jsonschema:"measured value for quantitative habits. Omit for binary habits."`
}

type logHabitOutput struct {
	HabitID    int64   `json:"habit_id"`
	Date       string  `json:"date"`
	Compliant  bool    `json:"compliant"`
	Percentage float64 `json:"percentage"`
	Streak     int     `json:"streak"`
	BestStreak int     `json:"best_streak"`
}

type getMetricsInput struct {
	Since string `json:"since,omitempty" jsonschema:"time window for metrics (e.g. 7d, 30d, 24h). Defaults to 30d."`
}

type metricsOutput struct {
	TasksCreated        int            `json:"tasks_created"`
	TasksCompleted      int            `json:"tasks_completed"`
	TasksDeleted        int            `json:"tasks_deleted"`
	TasksBlocked        int            `json:"tasks_blocked"`
	MovesByState        map[string]int `json:"moves_by_state"`
	ProjectsCreated     int            `json:"projects_created"`
	ProjectsClosed      int            `json:"projects_closed"`
	HabitCheckIns       int            `json:"habit_check_ins"`
	HabitComplianceRate float64        `json:"habit_compliance_rate"`
	EventCount          int            `json:"event_count"`
	OldestEvent         string         `json:"oldest_event,omitempty"`
	NewestEvent         string         `json:"newest_event,omitempty"`
}

type getAlertsInput struct{}

type alertOutput struct {
	ID          string `json:"id"`
	Condition   string `json:"condition"`
	Severity    string `json:"severity"`
	Message     string `json:"message"`
	TriggeredAt string `json:"triggered_at"`
}

type getAlertsOutput struct {
	Alerts []alertOutput `json:"alerts"`
	Count  int           `json:"count"`
}

// --- Tool registration ---

func (s *Server) registerTools() {
	gomcp.AddTool(s.server, &gomcp.Tool{
		Name:        "get_task",
		Description: "Get task details by ID. Returns the full task including state, flags, ranking, and score.",
	}, s.handleGetTask)

	gomcp.AddTool(s.server, &gomcp.Tool{
		Name:        "list_tasks",
		Description: "List tasks with optional state, area, context, and project filters.",
	}, s.handleListTasks)

	gomcp.AddTool(s.server, &gomcp.Tool{
		Name:        "score_task",
		Description: "Compute a task's score with the full multiplier breakdown (urgency, frog, rock, boost, decay, and the rest).",
	}, s.handleScoreTask)

	gomcp.AddTool(s.server, &gomcp.Tool{
		Name:        "next_action",
		Description: "Resolve and return the single most relevant open task for a project.",
	}, s.handleNextAction)

	gomcp.AddTool(s.server, &gomcp.Tool{
		Name:        "log_habit",
		Description: "Record a habit check-in for a date. Evaluates compliance and advances the streak for same-day daily check-ins.",
	}, s.handleLogHabit)

	gomcp.AddTool(s.server, &gomcp.Tool{
		Name:        "get_metrics",
		Description: "Get aggregated metrics from the event log, including task throughput, state moves, and habit compliance.",
	}, s.handleGetMetrics)

	gomcp.AddTool(s.server, &gomcp.Tool{
		Name:        "get_alerts",
		Description: "Evaluate and return active alerts (blocked tasks, stale tasks, overdue follow-ups, backlog size).",
	}, s.handleGetAlerts)
}

// --- Tool handlers ---

func (s *Server) handleGetTask(_ context.Context, _ *gomcp.CallToolRequest, input getTaskInput) (*gomcp.CallToolResult, taskOutput, error) {
	if input.TaskID == 0 {
		return errorResult("task_id is required"), taskOutput{}, nil
	}

	task, err := s.taskMgr.GetTask(input.TaskID)
	if err != nil {
		return errorResult(fmt.Sprintf("getting task %d: %s", input.TaskID, err)), taskOutput{}, nil
	}

	return nil, taskToOutput(*task), nil
}

func (s *Server) handleListTasks(_ context.Context, _ *gomcp.CallToolRequest, input listTasksInput) (*gomcp.CallToolResult, listTasksOutput, error) {
	filter := core.TaskFilter{
		Area:      input.Area,
		Context:   input.Context,
		ProjectID: input.Project,
	}
	if input.State != "" {
		state := models.TaskState(input.State)
		valid := false
		for _, st := range models.AllTaskStates {
			if st == state {
				valid = true
				break
			}
		}
		if !valid {
			return errorResult(fmt.Sprintf("invalid state %q", input.State)), listTasksOutput{}, nil
		}
		filter.States = []models.TaskState{state}
	}

	tasks, err := s.taskMgr.ListTasks(filter)
	if err != nil {
		return errorResult(fmt.Sprintf("listing tasks: %s", err)), listTasksOutput{}, nil
	}

	out := listTasksOutput{
		Tasks: make([]taskOutput, len(tasks)),
		Count: len(tasks),
	}
	for i, t := range tasks {
		out.Tasks[i] = taskToOutput(t)
	}

	return nil, out, nil
}

func (s *Server) handleScoreTask(_ context.Context, _ *gomcp.CallToolRequest, input scoreTaskInput) (*gomcp.CallToolResult, scoreTaskOutput, error) {
	if input.TaskID == 0 {
		return errorResult("task_id is required"), scoreTaskOutput{}, nil
	}

	task, err := s.taskMgr.GetTask(input.TaskID)
	if err != nil {
		return errorResult(fmt.Sprintf("getting task %d: %s", input.TaskID, err)), scoreTaskOutput{}, nil
	}

	breakdown := s.scoreEngine.Breakdown(*task, time.Now().UTC())
	out := scoreTaskOutput{
		TaskID:    task.ID,
		Score:     breakdown.Score,
		Breakdown: breakdown,
	}
	return nil, out, nil
}

func (s *Server) handleNextAction(_ context.Context, _ *gomcp.CallToolRequest, input nextActionInput) (*gomcp.CallToolResult, nextActionOutput, error) {
	if input.ProjectID == 0 {
		return errorResult("project_id is required"), nextActionOutput{}, nil
	}

	project, err := s.projectMgr.RecomputeProject(input.ProjectID, time.Now().UTC())
	if err != nil {
		return errorResult(fmt.Sprintf("resolving next action for project %d: %s", input.ProjectID, err)), nextActionOutput{}, nil
	}

	out := nextActionOutput{
		ProjectID: project.ID,
		TaskID:    project.NextActionTaskID,
		Mode:      string(project.NextActionMode),
	}
	if project.NextActionUpdatedAt != nil {
		out.ResolvedAt = project.NextActionUpdatedAt.Format(time.RFC3339)
	}
	if project.NextActionTaskID != nil {
		task, err := s.taskMgr.GetTask(*project.NextActionTaskID)
		if err == nil {
			to := taskToOutput(*task)
			out.Task = &to
		}
	}

	return nil, out, nil
}

func (s *Server) handleLogHabit(_ context.Context, _ *gomcp.CallToolRequest, input logHabitInput) (*gomcp.CallToolResult, logHabitOutput, error) {
	if input.HabitID == 0 {
		return errorResult("habit_id is required"), logHabitOutput{}, nil
	}

	now := time.Now().UTC()
	date := now
	if input.Date != "" {
		parsed, err := time.Parse("2006-01-02", input.Date)
		if err != nil {
			return errorResult(fmt.Sprintf("invalid date %q: use YYYY-MM-DD", input.Date)), logHabitOutput{}, nil
		}
		date = parsed
	}

	habit, err := s.habitMgr.LogCheckIn(input.HabitID, date, input.Value, 0, now)
	if err != nil {
		return errorResult(fmt.Sprintf("logging habit %d: %s", input.HabitID, err)), logHabitOutput{}, nil
	}

	key := date.Format("2006-01-02")
	log := habit.Logs[key]
	out := logHabitOutput{
		HabitID:    habit.ID,
		Date:       key,
		Compliant:  log.Compliant,
		Percentage: log.Percentage,
		Streak:     habit.Streak,
		BestStreak: habit.BestStreak,
	}
	return nil, out, nil
}

func (s *Server) handleGetMetrics(_ context.Context, _ *gomcp.CallToolRequest, input getMetricsInput) (*gomcp.CallToolResult, metricsOutput, error) {
	if s.metricsCalc == nil {
		return errorResult("metrics calculator not available (observability may be disabled)"), emptyMetricsOutput(), nil
	}

	sinceStr := input.Since
	if sinceStr == "" {
		sinceStr = "30d"
	}

	sinceTime, err := parseSince(sinceStr)
	if err != nil {
		return errorResult(fmt.Sprintf("parsing since duration: %s", err)), emptyMetricsOutput(), nil
	}

	metrics, err := s.metricsCalc.Calculate(sinceTime)
	if err != nil {
		return errorResult(fmt.Sprintf("calculating metrics: %s", err)), emptyMetricsOutput(), nil
	}

	out := metricsOutput{
		TasksCreated:        metrics.TasksCreated,
		TasksCompleted:      metrics.TasksCompleted,
		TasksDeleted:        metrics.TasksDeleted,
		TasksBlocked:        metrics.TasksBlocked,
		MovesByState:        metrics.MovesByState,
		ProjectsCreated:     metrics.ProjectsCreated,
		ProjectsClosed:      metrics.ProjectsClosed,
		HabitCheckIns:       metrics.HabitCheckIns,
		HabitComplianceRate: metrics.HabitComplianceRate,
		EventCount:          metrics.EventCount,
	}
	if metrics.OldestEvent != nil {
		out.OldestEvent = metrics.OldestEvent.Format(time.RFC3339)
	}
	if metrics.NewestEvent != nil {
		out.NewestEvent = metrics.NewestEvent.Format(time.RFC3339)
	}

	return nil, out, nil
}

func (s *Server) handleGetAlerts(_ context.Context, _ *gomcp.CallToolRequest, _ getAlertsInput) (*gomcp.CallToolResult, getAlertsOutput, error) {
	if s.alertEngine == nil {
		return errorResult("alert engine not available (observability may be disabled)"), getAlertsOutput{}, nil
	}

	alerts, err := s.alertEngine.Evaluate(time.Now().UTC())
	if err != nil {
		return errorResult(fmt.Sprintf("evaluating alerts: %s", err)), getAlertsOutput{}, nil
	}

	out := getAlertsOutput{
		Alerts: make([]alertOutput, len(alerts)),
		Count:  len(alerts),
	}
	for i, a := range alerts {
		out.Alerts[i] = alertOutput{
			ID:          a.ID,
			Condition:   a.Condition,
			Severity:    string(a.Severity),
			Message:     a.Message,
			TriggeredAt: a.TriggeredAt.Format(time.RFC3339),
		}
	}

	return nil, out, nil
}

// --- Helpers ---

func taskToOutput(t models.Task) taskOutput {
	out := taskOutput{
		ID:       t.ID,
		Title:    t.Title,
		State:    string(t.State),
		Type:     string(t.Type),
		Area:     t.Area,
		Context:  t.Context,
		Moscow:   string(t.Moscow),
		Horizon:  string(t.Horizon),
		IsFrog:   t.IsFrog,
		IsRock:   t.IsRock,
		IsPareto: t.IsPareto,
		Blocked:  t.Blocked,
		Ranking:  t.Ranking,
		Score:    t.Score,
		Project:  t.ProjectID,
	}
	if t.DueAt != nil {
		out.DueAt = t.DueAt.Format("2006-01-02")
	}
	return out
}

func emptyMetricsOutput() metricsOutput {
	return metricsOutput{
		MovesByState: make(map[string]int),
	}
}

func errorResult(msg string) *gomcp.CallToolResult {
	return &gomcp.CallToolResult{
		Content: []gomcp.Content{&gomcp.TextContent{Text: msg}},
		IsError: true,
	}
}

// parseSince parses a human-friendly duration string like "7d", "30d", or "24h"
// into the corresponding time in the past.
func parseSince(s string) (time.Time, error) {
	now := time.Now().UTC()

	if len(s) < 2 {
		return time.Time{}, fmt.Errorf("invalid duration %q", s)
	}

	suffix := s[len(s)-1]
	numStr := s[:len(s)-1]
	var num int
	if _, err := fmt.Sscanf(numStr, "%d", &num); err != nil {
		return time.Time{}, fmt.Errorf("invalid duration %q: %w", s, err)
	}

	switch suffix {
	case 'd':
		return now.AddDate(0, 0, -num), nil
	case 'h':
		return now.Add(-time.Duration(num) * time.Hour), nil
	default:
		return time.Time{}, fmt.Errorf("unsupported duration suffix %q (use d or h)", string(suffix))
	}
}
