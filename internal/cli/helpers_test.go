package cli

import (
	"bytes"
	"testing"
	"time"

	"github.com/spf13/cobra"

	"github.com/valter-silva-au/scrum-assistant/internal/core"
	"github.com/valter-silva-au/scrum-assistant/internal/observability"
	"github.com/valter-silva-au/scrum-assistant/internal/storage"
)

// boardSource serves snapshots from a storage.Board.
type boardSource struct {
	board *storage.Board
}

func (s boardSource) Snapshot() (core.Snapshot, error) {
	return core.NewSnapshot(s.board.Store().ListTasks(), s.board.Sprint(), s.board.Blockers()), nil
}

// eventRecorder writes core events to an observability.EventLog.
type eventRecorder struct {
	log observability.EventLog
}

func (r eventRecorder) LogEvent(eventType string, data map[string]any) error {
	return r.log.Write(observability.Event{Time: time.Now().UTC(), Level: "INFO", Type: eventType, Data: data})
}

// useSeededBoard points every package-level service at a fresh seeded board
// and restores the previous values when the test ends.
func useSeededBoard(t *testing.T) *storage.Board {
	t.Helper()

	origConfig, origTasks, origBoard, origExec, origChat := Config, Tasks, Board, ActionExec, Chat
	origEvents, origAlerts, origMetrics, origNotifier := EventLog, AlertEngine, MetricsCalc, Notifier
	t.Cleanup(func() {
		Config, Tasks, Board, ActionExec, Chat = origConfig, origTasks, origBoard, origExec, origChat
		EventLog, AlertEngine, MetricsCalc, Notifier = origEvents, origAlerts, origMetrics, origNotifier
	})

	bf, err := storage.LoadBoardFile("")
	if err != nil {
		t.Fatalf("loading seed: %v", err)
	}
	board, err := storage.NewBoard(bf, time.Now().UTC(), nil)
	if err != nil {
		t.Fatalf("building board: %v", err)
	}

	cfg := core.DefaultGlobalConfig()
	cfg.ThinkingDelay = 0
	events := observability.NewMemoryEventLog()
	recorder := eventRecorder{log: events}
	src := boardSource{board: board}

	Config = cfg
	Tasks = board.Store()
	Board = src
	ActionExec = core.NewActionExecutor(board.Store(), cfg, recorder, nil, nil)
	Chat = core.NewConversation(src, ActionExec, recorder, nil)
	EventLog = events
	AlertEngine = observability.NewAlertEngine(observability.ThresholdsFromConfig(cfg.Alerts))
	MetricsCalc = observability.NewMetricsCalculator(events)
	Notifier = nil

	return board
}

// runCmd runs cmd's RunE with args and returns what it printed.
func runCmd(t *testing.T, cmd *cobra.Command, args ...string) (string, error) {
	t.Helper()
	var buf bytes.Buffer
	cmd.SetOut(&buf)
	t.Cleanup(func() { cmd.SetOut(nil) })
	err := cmd.RunE(cmd, args)
	return buf.String(), err
}
