package core

import "github.com/valter-silva-au/scrum-assistant/pkg/models"

// TaskRepository is the subset of storage.TaskStore that the assistant needs.
// Defining it here keeps core independent of the storage package.
type TaskRepository interface {
	ListTasks() []models.Task
	UpdateTask(id string, updates models.TaskUpdate) (*models.Task, error)
	CreateTask(task models.Task) (*models.Task, error)
}

// SnapshotSource supplies the board state a reply is computed from.
type SnapshotSource interface {
	Snapshot() (Snapshot, error)
}

// EventLogger is the subset of the observability event log that core
// services need. Defining it here avoids importing the observability package.
type EventLogger interface {
	LogEvent(eventType string, data map[string]any) error
}

// ActionNotifier receives a confirmation after an action mutates the board.
type ActionNotifier interface {
	NotifyAction(c Confirmation) error
}
