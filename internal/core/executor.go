package core

import (
	"fmt"
	"log/slog"
	"strings"
	"unicode"

	"github.com/valter-silva-au/scrum-assistant/pkg/models"
)

// Fallbacks used when a create action leaves fields empty.
const (
	DefaultCreatedTitle       = "New AI-suggested task"
	DefaultCreatedDescription = "Task created by AI assistant"
)

// Confirmation is the user-visible result of an executed action.
type Confirmation struct {
	Kind    models.ActionKind
	Title   string
	Message string
	Task    *models.Task
}

// ActionExecutor applies assistant actions to the task repository.
type ActionExecutor interface {
	// Execute performs the action. Advisory kinds and deferred selections
	// return a nil Confirmation and a nil error.
	Execute(action models.TaskAction) (*Confirmation, error)
}

type actionExecutor struct {
	repo     TaskRepository
	cfg      *models.GlobalConfig
	events   EventLogger
	notifier ActionNotifier
	logger   *slog.Logger
}

// NewActionExecutor creates an ActionExecutor over repo. cfg supplies the
// defaults for created tasks. events and notifier may be nil.
func NewActionExecutor(repo TaskRepository, cfg *models.GlobalConfig, events EventLogger, notifier ActionNotifier, logger *slog.Logger) ActionExecutor {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg == nil {
		cfg = DefaultGlobalConfig()
	}
	return &actionExecutor{
		repo:     repo,
		cfg:      cfg,
		events:   events,
		notifier: notifier,
		logger:   logger,
	}
}

func (e *actionExecutor) Execute(action models.TaskAction) (*Confirmation, error) {
	var (
		conf *Confirmation
		err  error
	)

	switch action.Kind {
	case models.ActionUpdateTask:
		conf, err = e.updateTask(action)
	case models.ActionCreateTask:
		conf, err = e.createTask(action)
	case models.ActionAssignTask:
		conf, err = e.assignTask(action)
	case models.ActionMarkBlocker:
		if action.TaskID == "" {
			e.logger.Debug("mark blocker deferred until a task is chosen")
			return nil, nil
		}
		conf, err = e.markBlocker(action)
	case models.ActionRebalance, models.ActionSprintUpdate:
		e.logger.Debug("advisory action, nothing to apply", "kind", action.Kind)
		return nil, nil
	default:
		return nil, fmt.Errorf("unsupported action kind %q", action.Kind)
	}
	if err != nil {
		return nil, err
	}

	e.notify(*conf)
	return conf, nil
}

func (e *actionExecutor) updateTask(action models.TaskAction) (*Confirmation, error) {
	if action.TaskID == "" {
		return nil, fmt.Errorf("update_task action has no task id")
	}
	if action.Updates.Status != "" && !action.Updates.Status.Valid() {
		return nil, fmt.Errorf("update_task action has invalid status %q", action.Updates.Status)
	}

	var previous models.TaskStatus
	for _, t := range e.repo.ListTasks() {
		if t.ID == action.TaskID {
			previous = t.Status
			break
		}
	}

	task, err := e.repo.UpdateTask(action.TaskID, action.Updates)
	if err != nil {
		return nil, fmt.Errorf("updating task %s: %w", action.TaskID, err)
	}

	e.logEvent("task.updated", map[string]any{"task_id": task.ID, "title": task.Title})
	if action.Updates.Status != "" && action.Updates.Status != previous {
		e.logEvent("task.status_changed", map[string]any{
			"task_id":    task.ID,
			"old_status": string(previous),
			"new_status": string(task.Status),
		})
	}

	return &Confirmation{
		Kind:    action.Kind,
		Title:   "Task Updated",
		Message: fmt.Sprintf("%q is now %s.", task.Title, task.Status),
		Task:    task,
	}, nil
}

func (e *actionExecutor) createTask(action models.TaskAction) (*Confirmation, error) {
	u := action.Updates
	task := models.Task{
		Title:       orDefault(u.Title, DefaultCreatedTitle),
		Description: orDefault(u.Description, DefaultCreatedDescription),
		Status:      models.StatusTodo,
		Priority:    e.cfg.DefaultPriority,
		Assignee:    Initials(e.cfg.UserName),
		StoryPoints: e.cfg.DefaultStoryPoints,
		SprintID:    e.cfg.DefaultSprint,
	}
	// Explicit fields on the action override configured defaults.
	task = models.TaskUpdate{
		Status:      u.Status,
		Priority:    u.Priority,
		Assignee:    u.Assignee,
		StoryPoints: u.StoryPoints,
		SprintID:    u.SprintID,
		Tags:        u.Tags,
	}.Apply(task)

	created, err := e.repo.CreateTask(task)
	if err != nil {
		return nil, fmt.Errorf("creating task %q: %w", task.Title, err)
	}

	e.logEvent("task.created", map[string]any{
		"task_id":  created.ID,
		"title":    created.Title,
		"priority": string(created.Priority),
	})

	return &Confirmation{
		Kind:    action.Kind,
		Title:   "Task Created",
		Message: fmt.Sprintf("%q was added to the backlog.", created.Title),
		Task:    created,
	}, nil
}

func (e *actionExecutor) assignTask(action models.TaskAction) (*Confirmation, error) {
	if action.TaskID == "" {
		return nil, fmt.Errorf("assign_task action has no task id")
	}
	if action.Updates.Assignee == "" {
		return nil, fmt.Errorf("assign_task action for %s has no assignee", action.TaskID)
	}

	task, err := e.repo.UpdateTask(action.TaskID, models.TaskUpdate{Assignee: action.Updates.Assignee})
	if err != nil {
		return nil, fmt.Errorf("assigning task %s: %w", action.TaskID, err)
	}

	e.logEvent("task.assigned", map[string]any{"task_id": task.ID, "assignee": task.Assignee})

	return &Confirmation{
		Kind:    action.Kind,
		Title:   "Task Assigned",
		Message: fmt.Sprintf("%q is now assigned to %s.", task.Title, task.Assignee),
		Task:    task,
	}, nil
}

func (e *actionExecutor) markBlocker(action models.TaskAction) (*Confirmation, error) {
	blocked := true
	task, err := e.repo.UpdateTask(action.TaskID, models.TaskUpdate{IsBlocked: &blocked})
	if err != nil {
		return nil, fmt.Errorf("marking task %s blocked: %w", action.TaskID, err)
	}

	e.logEvent("task.blocked", map[string]any{"task_id": task.ID, "title": task.Title})

	return &Confirmation{
		Kind:    action.Kind,
		Title:   "Blocker Marked",
		Message: fmt.Sprintf("%q is flagged as blocked.", task.Title),
		Task:    task,
	}, nil
}

func (e *actionExecutor) logEvent(eventType string, data map[string]any) {
	if e.events == nil {
		return
	}
	if err := e.events.LogEvent(eventType, data); err != nil {
		e.logger.Warn("failed to log event", "event", eventType, "error", err)
	}
}

func (e *actionExecutor) notify(c Confirmation) {
	if e.notifier == nil {
		return
	}
	if err := e.notifier.NotifyAction(c); err != nil {
		e.logger.Warn("failed to deliver action notification", "kind", c.Kind, "error", err)
	}
}

// Initials returns the uppercased first letter of each word in name,
// e.g. "John Doe" becomes "JD".
func Initials(name string) string {
	var b strings.Builder
	for _, word := range strings.Fields(name) {
		for _, r := range word {
			b.WriteRune(unicode.ToUpper(r))
			break
		}
	}
	return b.String()
}

func orDefault(s, fallback string) string {
	if strings.TrimSpace(s) == "" {
		return fallback
	}
	return s
}
