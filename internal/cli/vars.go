package cli

import (
	"github.com/gacsesystems/tareas/internal/core"
	"github.com/gacsesystems/tareas/internal/observability"
	"github.com/gacsesystems/tareas/pkg/models"
)

// Service instances, set during app initialization in app.go.
var (
	TaskMgr    core.TaskManager
	ProjectMgr core.ProjectManager
	HabitMgr   core.HabitManager
	ScoreEng   core.ScoreEngine

	EventLog    observability.EventLog
	AlertEngine observability.AlertEngine
	MetricsCalc observability.MetricsCalculator
	Notifier    observability.Notifier

	// BasePath is the resolved data directory.
	BasePath string

	// Config is the loaded global configuration.
	Config *models.GlobalConfig
)
