// Package internal provides the App struct that wires the board, the
// assistant and observability together and initializes the CLI layer.
package internal

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/valter-silva-au/scrum-assistant/internal/cli"
	"github.com/valter-silva-au/scrum-assistant/internal/core"
	"github.com/valter-silva-au/scrum-assistant/internal/observability"
	"github.com/valter-silva-au/scrum-assistant/internal/storage"
	"github.com/valter-silva-au/scrum-assistant/pkg/models"
)

// EventsFileName is the default event log name under the base path.
const EventsFileName = ".scrum_events.jsonl"

// App holds all service dependencies of the scrum assistant.
type App struct {
	BasePath string
	Logger   *slog.Logger

	// Configuration
	ConfigMgr core.ConfigurationManager
	Config    *models.GlobalConfig

	// Board
	Board     *storage.Board
	Tasks     storage.TaskStore
	Snapshots core.SnapshotSource

	// Assistant
	Executor core.ActionExecutor
	Chat     *core.Conversation

	// Observability
	EventLog    observability.EventLog
	AlertEngine observability.AlertEngine
	MetricsCalc observability.MetricsCalculator
	Notifier    observability.Notifier
}

// NewApp creates and wires all components. basePath is the directory holding
// .scrumconfig and the event log.
func NewApp(basePath string) (*App, error) {
	app := &App{BasePath: basePath}

	// --- Configuration ---
	app.ConfigMgr = core.NewConfigurationManager(basePath)
	cfg, err := app.ConfigMgr.LoadGlobalConfig()
	if err != nil {
		slog.Warn("failed to load configuration, using defaults", "error", err)
		cfg = core.DefaultGlobalConfig()
	} else if err := app.ConfigMgr.ValidateConfig(cfg); err != nil {
		slog.Warn("invalid configuration, using defaults", "error", err)
		cfg = core.DefaultGlobalConfig()
	}
	app.Config = cfg
	app.Logger = NewLogger(cfg)

	// --- Board ---
	seed, err := storage.LoadBoardFile(resolvePath(basePath, cfg.SeedPath))
	if err != nil {
		return nil, fmt.Errorf("loading board: %w", err)
	}
	app.Board, err = storage.NewBoard(seed, time.Now().UTC(), app.Logger)
	if err != nil {
		return nil, err
	}
	app.Tasks = app.Board.Store()
	app.Snapshots = &boardSnapshotSource{board: app.Board, livePoints: cfg.LivePoints}

	// --- Observability ---
	eventsPath := cfg.EventsPath
	if eventsPath == "" {
		eventsPath = EventsFileName
	}
	app.EventLog, err = observability.NewJSONLEventLog(resolvePath(basePath, eventsPath))
	if err != nil {
		// Non-fatal: the assistant works without an event log.
		app.Logger.Warn("event log disabled", "path", eventsPath, "error", err)
		app.EventLog = nil
	}
	app.AlertEngine = observability.NewAlertEngine(observability.ThresholdsFromConfig(cfg.Alerts))
	if app.EventLog != nil {
		app.MetricsCalc = observability.NewMetricsCalculator(app.EventLog)
	}
	if cfg.Notifications.Enabled && cfg.Notifications.SlackWebhookURL != "" {
		app.Notifier = observability.NewSlackNotifier(cfg.Notifications.SlackWebhookURL)
	}

	// --- Assistant ---
	var events core.EventLogger
	if app.EventLog != nil {
		events = &eventLogAdapter{log: app.EventLog}
	}
	var notifier core.ActionNotifier
	if app.Notifier != nil {
		notifier = &notifierAdapter{notifier: app.Notifier}
	}
	app.Executor = core.NewActionExecutor(app.Tasks, cfg, events, notifier, app.Logger)
	app.Chat = core.NewConversation(app.Snapshots, app.Executor, events, app.Logger)

	// --- Wire CLI ---
	cli.Config = cfg
	cli.Tasks = app.Tasks
	cli.Board = app.Snapshots
	cli.ActionExec = app.Executor
	cli.Chat = app.Chat
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

// NewLogger builds a slog logger on stderr from the log settings in cfg and
// installs it as the process default.
func NewLogger(cfg *models.GlobalConfig) *slog.Logger {
	var level slog.Level
	switch strings.ToLower(cfg.LogLevel) {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}

	opts := &slog.HandlerOptions{Level: level}
	var handler slog.Handler
	if strings.ToLower(cfg.LogFormat) == "json" {
		handler = slog.NewJSONHandler(os.Stderr, opts)
	} else {
		handler = slog.NewTextHandler(os.Stderr, opts)
	}

	logger := slog.New(handler)
	slog.SetDefault(logger)
	return logger
}

// ResolveBasePath determines the scrum assistant's base directory. It checks
// the SCRUM_HOME env var, then walks up from the current directory looking
// for .scrumconfig, then falls back to the current directory.
func ResolveBasePath() string {
	if home := os.Getenv("SCRUM_HOME"); home != "" {
		return home
	}
	dir, err := os.Getwd()
	if err != nil {
		return "."
	}
	for {
		for _, name := range []string{core.ConfigFileName, core.ConfigFileName + ".yaml"} {
			if _, err := os.Stat(filepath.Join(dir, name)); err == nil {
				return dir
			}
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

// resolvePath joins relative paths onto basePath. Empty stays empty.
func resolvePath(basePath, p string) string {
	if p == "" || filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(basePath, p)
}

// --- Adapters ---

// boardSnapshotSource adapts storage.Board to core.SnapshotSource. With
// livePoints the sprint point totals follow the task list.
type boardSnapshotSource struct {
	board      *storage.Board
	livePoints bool
}

func (s *boardSnapshotSource) Snapshot() (core.Snapshot, error) {
	tasks := s.board.Store().ListTasks()
	sprint := s.board.Sprint()
	if s.livePoints {
		sprint = core.RecomputeSprintPoints(sprint, tasks)
	}
	return core.NewSnapshot(tasks, sprint, s.board.Blockers()), nil
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

// notifierAdapter adapts observability.Notifier to core.ActionNotifier.
type notifierAdapter struct {
	notifier observability.Notifier
}

func (a *notifierAdapter) NotifyAction(c core.Confirmation) error {
	notice := observability.ActionNotice{
		Kind:    string(c.Kind),
		Title:   c.Title,
		Message: c.Message,
	}
	if c.Task != nil {
		notice.TaskID = c.Task.ID
	}
	return a.notifier.NotifyAction(notice)
}
