package storage

import (
	_ "embed"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/valter-silva-au/scrum-assistant/pkg/models"
	"gopkg.in/yaml.v3"
)

//go:embed seed.yaml
var defaultSeed []byte

// flaggedBlockerReason is recorded for tasks flagged blocked from chat.
const flaggedBlockerReason = "Flagged as blocked"

// BoardFile represents the top-level structure of a board seed file.
type BoardFile struct {
	Version  string               `yaml:"version"`
	Sprint   models.SprintMetrics `yaml:"sprint"`
	Tasks    []models.Task        `yaml:"tasks"`
	Blockers []models.Blocker     `yaml:"blockers"`
}

// ParseBoardFile decodes a board seed from YAML.
func ParseBoardFile(data []byte) (*BoardFile, error) {
	var bf BoardFile
	if err := yaml.Unmarshal(data, &bf); err != nil {
		return nil, fmt.Errorf("parsing board seed: %w", err)
	}
	for i, t := range bf.Tasks {
		if t.Status != "" && !t.Status.Valid() {
			return nil, fmt.Errorf("parsing board seed: task %d (%s) has invalid status %q", i, t.ID, t.Status)
		}
		if t.Priority != "" && !t.Priority.Valid() {
			return nil, fmt.Errorf("parsing board seed: task %d (%s) has invalid priority %q", i, t.ID, t.Priority)
		}
	}
	return &bf, nil
}

// LoadBoardFile reads a board seed from path, or the built-in demo board
// when path is empty.
func LoadBoardFile(path string) (*BoardFile, error) {
	if path == "" {
		return ParseBoardFile(defaultSeed)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading board seed %s: %w", path, err)
	}
	return ParseBoardFile(data)
}

// Board combines the task store with the sprint metrics and blockers read
// from the seed. Sprint metrics and blockers are read-only.
type Board struct {
	store    TaskStore
	sprint   models.SprintMetrics
	blockers []models.Blocker
}

// NewBoard builds a Board and its TaskStore from a seed file. Seed tasks
// without timestamps are stamped with now.
func NewBoard(bf *BoardFile, now time.Time, logger *slog.Logger) (*Board, error) {
	tasks := make([]models.Task, len(bf.Tasks))
	for i, t := range bf.Tasks {
		if t.CreatedAt.IsZero() {
			t.CreatedAt = now
		}
		if t.UpdatedAt.IsZero() {
			t.UpdatedAt = t.CreatedAt
		}
		tasks[i] = t
	}

	store, err := NewTaskStore(tasks, logger)
	if err != nil {
		return nil, fmt.Errorf("building board: %w", err)
	}

	return &Board{
		store:    store,
		sprint:   bf.Sprint,
		blockers: append([]models.Blocker(nil), bf.Blockers...),
	}, nil
}

// Store returns the board's task repository.
func (b *Board) Store() TaskStore {
	return b.store
}

// Sprint returns the seeded sprint metrics.
func (b *Board) Sprint() models.SprintMetrics {
	return b.sprint
}

// Blockers returns the open blockers. Seeded blockers whose task is done are
// resolved and left out; tasks flagged blocked without a seeded blocker get
// one with medium severity.
func (b *Board) Blockers() []models.Blocker {
	tasks := b.store.ListTasks()
	byID := make(map[string]models.Task, len(tasks))
	for _, t := range tasks {
		byID[t.ID] = t
	}

	var out []models.Blocker
	covered := make(map[string]bool)
	for _, bl := range b.blockers {
		if t, ok := byID[bl.TaskID]; ok && t.Status == models.StatusDone {
			continue
		}
		covered[bl.TaskID] = true
		out = append(out, bl)
	}

	for _, t := range tasks {
		if !t.IsBlocked || covered[t.ID] || t.Status == models.StatusDone {
			continue
		}
		out = append(out, models.Blocker{
			ID:          "flag-" + t.ID,
			TaskID:      t.ID,
			TaskTitle:   t.Title,
			Assignee:    t.Assignee,
			DaysBlocked: int(time.Since(t.UpdatedAt).Hours() / 24),
			Reason:      flaggedBlockerReason,
			Severity:    models.SeverityMedium,
		})
	}

	return out
}
