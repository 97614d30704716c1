// Package internal provides the App struct that wires all components of the
// tareas engine together and initializes the CLI layer.
package internal

import (
	"os"
	"path/filepath"
	"time"

	"github.com/gacsesystems/tareas/internal/cli"
	"github.com/gacsesystems/tareas/internal/core"
	"github.com/gacsesystems/tareas/internal/observability"
	"github.com/gacsesystems/tareas/internal/storage"
)

// App holds all service dependencies for the tareas engine.
type App struct {
	BasePath string

	// Configuration
	ConfigMgr core.ConfigurationManager

	// Storage layer
	TaskStore    storage.TaskStore
	ProjectStore storage.ProjectStore
	HabitStore   storage.HabitStore

	// Core services
	ScoreEng   core.ScoreEngine
	Ledger     core.RankingLedger
	Progress   core.ProgressCalculator
	Resolver   core.NextActionResolver
	Evaluator  core.HabitEvaluator
	TaskMgr    core.TaskManager
	ProjectMgr core.ProjectManager
	HabitMgr   core.HabitManager

	// Observability
	EventLog    observability.EventLog
	AlertEngine observability.AlertEngine
	MetricsCalc observability.MetricsCalculator
	Notifier    observability.Notifier
}

// NewApp creates and wires all components of the tareas engine. basePath is
// the directory holding the YAML stores, the config file, and the event log.
func NewApp(basePath string) (*App, error) {
	app := &App{BasePath: basePath}

	// --- Configuration ---
	app.ConfigMgr = core.NewConfigurationManager(basePath)
	globalCfg, err := app.ConfigMgr.LoadGlobalConfig()
	if err != nil {
		return nil, err
	}

	// --- Storage layer ---
	app.TaskStore = storage.NewTaskStore(basePath)
	app.ProjectStore = storage.NewProjectStore(basePath)
	app.HabitStore = storage.NewHabitStore(basePath)

	// --- Observability ---
	eventLogPath := filepath.Join(basePath, ".tareas_events.jsonl")
	app.EventLog, err = observability.NewJSONLEventLog(eventLogPath)
	if err != nil {
		// Non-fatal: disable observability if the log can't be created.
		app.EventLog = nil
	}
	if app.EventLog != nil {
		thresholds := observability.DefaultAlertThresholds()
		if globalCfg.Alerts.BlockedHours > 0 {
			thresholds.BlockedHours = globalCfg.Alerts.BlockedHours
		}
		if globalCfg.Alerts.StaleDays > 0 {
			thresholds.StaleDays = globalCfg.Alerts.StaleDays
		}
		if globalCfg.Alerts.FollowUpDays > 0 {
			thresholds.FollowUpDays = globalCfg.Alerts.FollowUpDays
		}
		if globalCfg.Alerts.MaxBacklogSize > 0 {
			thresholds.MaxBacklogSize = globalCfg.Alerts.MaxBacklogSize
		}
		app.AlertEngine = observability.NewAlertEngine(app.EventLog, app.TaskStore, thresholds)
		app.MetricsCalc = observability.NewMetricsCalculator(app.EventLog)
	}
	if globalCfg.Alerts.SlackWebhookURL != "" {
		app.Notifier = observability.NewSlackNotifier(globalCfg.Alerts.SlackWebhookURL)
	}

	// --- Core engines ---
	app.ScoreEng = core.NewScoreEngine(core.DefaultScoreWeights())
	app.Ledger = core.NewRankingLedger()
	app.Progress = core.NewProgressCalculator()
	app.Resolver = core.NewNextActionResolver()
	app.Evaluator = core.NewHabitEvaluator()

	var events core.EventLogger
	if app.EventLog != nil {
		events = &eventLogAdapter{log: app.EventLog}
	}

	// --- Managers ---
	taskIDs := core.NewIDGenerator(basePath, "task")
	projectIDs := core.NewIDGenerator(basePath, "project")
	projectItemIDs := core.NewIDGenerator(basePath, "project_item")
	habitIDs := core.NewIDGenerator(basePath, "habit")

	app.TaskMgr = core.NewTaskManager(basePath, taskIDs, app.TaskStore, app.HabitStore, app.ScoreEng, app.Ledger, events)
	app.ProjectMgr = core.NewProjectManager(projectIDs, projectItemIDs, app.ProjectStore, app.TaskStore, app.Progress, app.Resolver, events)
	app.HabitMgr = core.NewHabitManager(habitIDs, app.HabitStore, app.Evaluator, events)

	// Task churn feeds project progress; attach the hook after both managers
	// exist.
	if tm, ok := app.TaskMgr.(interface {
		SetProjectRecomputer(core.ProjectRecomputer)
	}); ok {
		tm.SetProjectRecomputer(app.ProjectMgr)
	}

	// --- Wire CLI package-level variables ---
	cli.BasePath = basePath
	cli.Config = globalCfg
	cli.TaskMgr = app.TaskMgr
	cli.ProjectMgr = app.ProjectMgr
	cli.HabitMgr = app.HabitMgr
	cli.ScoreEng = app.ScoreEng

	cli.EventLog = app.EventLog
	cli.AlertEngine = app.AlertEngine
	cli.MetricsCalc = app.MetricsCalc
	cli.Notifier = app.Notifier

	return app, nil
}

// Close releases resources held by the App, such as the event log file handle.
// It is safe to call Close on an App whose EventLog is nil.
func (a *App) Close() error {
	if a.EventLog != nil {
		return a.EventLog.Close()
	}
	return nil
}

// ResolveBasePath determines the base path for the tareas data directory.
// It checks the TAREAS_HOME env var, then walks up from the current directory
// looking for a .tareasconfig file.
func ResolveBasePath() string {
	if home := os.Getenv("TAREAS_HOME"); home != "" {
		return home
	}
	dir, err := os.Getwd()
	if err != nil {
		return "."
	}
	for {
		if _, err := os.Stat(filepath.Join(dir, ".tareasconfig")); err == nil {
			return dir
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}
	cwd, _ := os.Getwd()
	return cwd
}

// eventLogAdapter adapts observability.EventLog to core.EventLogger.
type eventLogAdapter struct {
	log observability.EventLog
}

func (a *eventLogAdapter) LogEvent(eventType string, data map[string]any) error {
	return a.log.Write(observability.Event{
		Time:    time.Now().UTC(),
		Level:   "INFO",
		Type:    eventType,
		Message: eventType,
		Data:    data,
	})
}
