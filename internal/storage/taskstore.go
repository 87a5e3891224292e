package storage

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/valter-silva-au/scrum-assistant/pkg/models"
)

// ErrTaskNotFound is returned when a task id is not in the store.
var ErrTaskNotFound = errors.New("task not found")

// TaskFilter specifies criteria for filtering tasks.
// All specified fields use AND logic: a task must match every criterion.
type TaskFilter struct {
	Status   []models.TaskStatus
	Priority []models.Priority
	Assignee string
	SprintID string
	Blocked  *bool
}

// TaskStore is the in-memory task repository shared by the assistant, the
// dashboard and the MCP server. Iteration order is insertion order.
type TaskStore interface {
	ListTasks() []models.Task
	GetTask(id string) (*models.Task, error)
	FilterTasks(filter TaskFilter) []models.Task
	CreateTask(task models.Task) (*models.Task, error)
	UpdateTask(id string, updates models.TaskUpdate) (*models.Task, error)
}

type memTaskStore struct {
	mu     sync.RWMutex
	tasks  []models.Task
	index  map[string]int
	now    func() time.Time
	logger *slog.Logger
}

// NewTaskStore creates a TaskStore seeded with tasks in the given order.
// Seed tasks without an id are assigned one.
func NewTaskStore(seed []models.Task, logger *slog.Logger) (TaskStore, error) {
	if logger == nil {
		logger = slog.Default()
	}
	s := &memTaskStore{
		index:  make(map[string]int, len(seed)),
		now:    time.Now,
		logger: logger,
	}
	for _, t := range seed {
		if t.ID == "" {
			t.ID = newTaskID()
		}
		if _, exists := s.index[t.ID]; exists {
			return nil, fmt.Errorf("seeding tasks: duplicate task id %s", t.ID)
		}
		if t.StoryPoints < 0 {
			return nil, fmt.Errorf("seeding tasks: task %s has negative story points %d", t.ID, t.StoryPoints)
		}
		s.index[t.ID] = len(s.tasks)
		s.tasks = append(s.tasks, cloneTask(t))
	}
	return s, nil
}

func newTaskID() string {
	return "task-" + uuid.New().String()
}

func (s *memTaskStore) ListTasks() []models.Task {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]models.Task, len(s.tasks))
	for i, t := range s.tasks {
		out[i] = cloneTask(t)
	}
	return out
}

func (s *memTaskStore) GetTask(id string) (*models.Task, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	i, ok := s.index[strings.TrimSpace(id)]
	if !ok {
		return nil, fmt.Errorf("task %s: %w", id, ErrTaskNotFound)
	}
	t := cloneTask(s.tasks[i])
	return &t, nil
}

func (s *memTaskStore) FilterTasks(filter TaskFilter) []models.Task {
	var result []models.Task
	for _, t := range s.ListTasks() {
		if matchesFilter(t, filter) {
			result = append(result, t)
		}
	}
	return result
}

func (s *memTaskStore) CreateTask(task models.Task) (*models.Task, error) {
	if strings.TrimSpace(task.Title) == "" {
		return nil, fmt.Errorf("creating task: title must not be empty")
	}
	if task.Status == "" {
		task.Status = models.StatusTodo
	}
	if !task.Status.Valid() {
		return nil, fmt.Errorf("creating task: invalid status %q", task.Status)
	}
	if task.Priority != "" && !task.Priority.Valid() {
		return nil, fmt.Errorf("creating task: invalid priority %q", task.Priority)
	}
	if task.StoryPoints < 0 {
		return nil, fmt.Errorf("creating task: story points must not be negative, got %d", task.StoryPoints)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if task.ID == "" {
		task.ID = newTaskID()
	}
	if _, exists := s.index[task.ID]; exists {
		return nil, fmt.Errorf("creating task: task %s already exists", task.ID)
	}
	now := s.now()
	task.CreatedAt = now
	task.UpdatedAt = now

	s.index[task.ID] = len(s.tasks)
	s.tasks = append(s.tasks, cloneTask(task))
	s.logger.Info("task created", "task_id", task.ID, "title", task.Title)

	out := cloneTask(task)
	return &out, nil
}

func (s *memTaskStore) UpdateTask(id string, updates models.TaskUpdate) (*models.Task, error) {
	if updates.Status != "" && !updates.Status.Valid() {
		return nil, fmt.Errorf("updating task %s: invalid status %q", id, updates.Status)
	}
	if updates.Priority != "" && !updates.Priority.Valid() {
		return nil, fmt.Errorf("updating task %s: invalid priority %q", id, updates.Priority)
	}
	if updates.StoryPoints != nil && *updates.StoryPoints < 0 {
		return nil, fmt.Errorf("updating task %s: story points must not be negative, got %d", id, *updates.StoryPoints)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	i, ok := s.index[strings.TrimSpace(id)]
	if !ok {
		return nil, fmt.Errorf("task %s: %w", id, ErrTaskNotFound)
	}

	before := s.tasks[i]
	after := updates.Apply(before)
	if after.Status != before.Status {
		// Aging restarts whenever a task enters or leaves the in-progress column.
		after.DaysInProgress = 0
	}
	after.UpdatedAt = s.now()
	s.tasks[i] = after
	s.logger.Info("task updated", "task_id", after.ID, "status", after.Status)

	out := cloneTask(after)
	return &out, nil
}

func matchesFilter(t models.Task, filter TaskFilter) bool {
	if len(filter.Status) > 0 && !contains(filter.Status, t.Status) {
		return false
	}
	if len(filter.Priority) > 0 && !contains(filter.Priority, t.Priority) {
		return false
	}
	if filter.Assignee != "" && !strings.EqualFold(t.Assignee, filter.Assignee) {
		return false
	}
	if filter.SprintID != "" && t.SprintID != filter.SprintID {
		return false
	}
	if filter.Blocked != nil && t.IsBlocked != *filter.Blocked {
		return false
	}
	return true
}

func contains[T comparable](list []T, v T) bool {
	for _, item := range list {
		if item == v {
			return true
		}
	}
	return false
}

// cloneTask copies t including its slices so callers cannot alias store state.
func cloneTask(t models.Task) models.Task {
	if t.BlockedBy != nil {
		t.BlockedBy = append([]string(nil), t.BlockedBy...)
	}
	if t.Tags != nil {
		t.Tags = append([]string(nil), t.Tags...)
	}
	return t
}
