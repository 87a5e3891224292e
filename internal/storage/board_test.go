package storage

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/valter-silva-au/scrum-assistant/pkg/models"
)

func TestLoadBoardFile_DefaultSeed(t *testing.T) {
	bf, err := LoadBoardFile("")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if bf.Sprint.Name != "Sprint 5" {
		t.Errorf("Sprint.Name = %q, want Sprint 5", bf.Sprint.Name)
	}
	if bf.Sprint.TotalPoints != 55 || bf.Sprint.CompletedPoints != 16 {
		t.Errorf("sprint points = %d/%d, want 16/55", bf.Sprint.CompletedPoints, bf.Sprint.TotalPoints)
	}
	if bf.Sprint.RiskStatus != models.RiskAtRisk {
		t.Errorf("RiskStatus = %q, want at-risk", bf.Sprint.RiskStatus)
	}
	if len(bf.Tasks) != 6 {
		t.Fatalf("got %d tasks, want 6", len(bf.Tasks))
	}
	if bf.Tasks[5].Title != "Setup CI/CD pipeline" || bf.Tasks[5].Status != models.StatusDone {
		t.Errorf("task[5] = %+v", bf.Tasks[5])
	}
	if len(bf.Blockers) != 2 {
		t.Errorf("got %d blockers, want 2", len(bf.Blockers))
	}
}

func TestLoadBoardFile_FromDisk(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "board.yaml")
	content := `version: "1.0"
sprint:
  sprint_id: s9
  name: Sprint 9
  total_points: 10
tasks:
  - id: a
    title: Only task
    status: review
    priority: low
`
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("write: %v", err)
	}

	bf, err := LoadBoardFile(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if bf.Sprint.SprintID != "s9" || len(bf.Tasks) != 1 || bf.Tasks[0].Status != models.StatusReview {
		t.Errorf("unexpected board: %+v", bf)
	}
}

func TestLoadBoardFile_Errors(t *testing.T) {
	if _, err := LoadBoardFile(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Error("expected error for missing file")
	}

	tests := map[string]string{
		"bad yaml":     "tasks: [",
		"bad status":   "tasks:\n  - id: a\n    title: x\n    status: blocked\n",
		"bad priority": "tasks:\n  - id: a\n    title: x\n    status: todo\n    priority: P1\n",
	}
	for name, content := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := ParseBoardFile([]byte(content))
			if err == nil {
				t.Fatal("expected error")
			}
			if !strings.Contains(err.Error(), "parsing board seed") {
				t.Errorf("error %q lacks context", err)
			}
		})
	}
}

func newTestBoard(t *testing.T) *Board {
	t.Helper()
	bf, err := LoadBoardFile("")
	if err != nil {
		t.Fatalf("LoadBoardFile: %v", err)
	}
	b, err := NewBoard(bf, time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC), nil)
	if err != nil {
		t.Fatalf("NewBoard: %v", err)
	}
	return b
}

func TestNewBoard_StampsSeedTimestamps(t *testing.T) {
	b := newTestBoard(t)
	for _, task := range b.Store().ListTasks() {
		if task.CreatedAt.IsZero() || task.UpdatedAt.IsZero() {
			t.Errorf("task %s has zero timestamps", task.ID)
		}
	}
}

func TestBoard_BlockersResolveWhenTaskDone(t *testing.T) {
	b := newTestBoard(t)
	if got := len(b.Blockers()); got != 2 {
		t.Fatalf("got %d blockers, want 2", got)
	}

	if _, err := b.Store().UpdateTask("4", models.TaskUpdate{Status: models.StatusDone}); err != nil {
		t.Fatalf("UpdateTask: %v", err)
	}

	blockers := b.Blockers()
	if len(blockers) != 1 || blockers[0].TaskID != "3" {
		t.Errorf("blockers = %+v, want only task 3", blockers)
	}
}

func TestBoard_FlaggedTaskBecomesBlocker(t *testing.T) {
	b := newTestBoard(t)
	blocked := true
	if _, err := b.Store().UpdateTask("5", models.TaskUpdate{IsBlocked: &blocked}); err != nil {
		t.Fatalf("UpdateTask: %v", err)
	}

	blockers := b.Blockers()
	if len(blockers) != 3 {
		t.Fatalf("got %d blockers, want 3", len(blockers))
	}
	last := blockers[2]
	if last.TaskID != "5" || last.Reason != flaggedBlockerReason || last.Severity != models.SeverityMedium {
		t.Errorf("flag blocker = %+v", last)
	}
}

func TestBoard_SeededBlockerNotDuplicatedByFlag(t *testing.T) {
	b := newTestBoard(t)
	// Task 3 is flagged in the seed and already has blocker b1.
	for _, bl := range b.Blockers() {
		if bl.ID == "flag-3" {
			t.Fatal("flagged task with a seeded blocker was listed twice")
		}
	}
}
