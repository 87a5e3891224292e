package cli

import (
	"github.com/valter-silva-au/scrum-assistant/internal/core"
	"github.com/valter-silva-au/scrum-assistant/internal/observability"
	"github.com/valter-silva-au/scrum-assistant/internal/storage"
	"github.com/valter-silva-au/scrum-assistant/pkg/models"
)

// Board and assistant services, set during app initialization in app.go.
var (
	Config     *models.GlobalConfig
	Tasks      storage.TaskStore
	Board      core.SnapshotSource
	ActionExec core.ActionExecutor
	Chat       *core.Conversation
)

// Observability service instances, set during app initialization in app.go.
var (
	EventLog    observability.EventLog
	AlertEngine observability.AlertEngine
	MetricsCalc observability.MetricsCalculator
	Notifier    observability.Notifier
)
