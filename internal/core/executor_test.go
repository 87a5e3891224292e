package core

import (
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/valter-silva-au/scrum-assistant/pkg/models"
)

var errNoSuchTask = errors.New("task not found")

// fakeRepo is an in-memory TaskRepository for core tests.
type fakeRepo struct {
	tasks     []models.Task
	createErr error
	nextID    int
}

func newFakeRepo(tasks ...models.Task) *fakeRepo {
	return &fakeRepo{tasks: tasks}
}

func (r *fakeRepo) ListTasks() []models.Task {
	out := make([]models.Task, len(r.tasks))
	copy(out, r.tasks)
	return out
}

func (r *fakeRepo) UpdateTask(id string, updates models.TaskUpdate) (*models.Task, error) {
	for i := range r.tasks {
		if r.tasks[i].ID == id {
			r.tasks[i] = updates.Apply(r.tasks[i])
			t := r.tasks[i]
			return &t, nil
		}
	}
	return nil, errNoSuchTask
}

func (r *fakeRepo) CreateTask(task models.Task) (*models.Task, error) {
	if r.createErr != nil {
		return nil, r.createErr
	}
	r.nextID++
	task.ID = fmt.Sprintf("new-%d", r.nextID)
	r.tasks = append(r.tasks, task)
	return &task, nil
}

type recordedEvent struct {
	eventType string
	data      map[string]any
}

type fakeEvents struct {
	events []recordedEvent
	err    error
}

func (f *fakeEvents) LogEvent(eventType string, data map[string]any) error {
	f.events = append(f.events, recordedEvent{eventType: eventType, data: data})
	return f.err
}

func (f *fakeEvents) types() []string {
	var out []string
	for _, e := range f.events {
		out = append(out, e.eventType)
	}
	return out
}

type fakeNotifier struct {
	got []Confirmation
	err error
}

func (f *fakeNotifier) NotifyAction(c Confirmation) error {
	f.got = append(f.got, c)
	return f.err
}

func TestExecute_UpdateTask(t *testing.T) {
	repo := newFakeRepo(boardTasks()...)
	events := &fakeEvents{}
	notifier := &fakeNotifier{}
	exec := NewActionExecutor(repo, nil, events, notifier, nil)

	conf, err := exec.Execute(models.TaskAction{
		Kind:    models.ActionUpdateTask,
		TaskID:  "3",
		Updates: models.TaskUpdate{Status: models.StatusReview},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if conf == nil || conf.Title != "Task Updated" {
		t.Fatalf("confirmation = %+v, want Task Updated", conf)
	}
	if conf.Task.Status != models.StatusReview {
		t.Errorf("status = %q, want review", conf.Task.Status)
	}
	if repo.tasks[2].Status != models.StatusReview {
		t.Errorf("repo not mutated: %+v", repo.tasks[2])
	}

	got := strings.Join(events.types(), ",")
	if got != "task.updated,task.status_changed" {
		t.Errorf("events = %s", got)
	}
	change := events.events[1].data
	if change["old_status"] != "inprogress" || change["new_status"] != "review" {
		t.Errorf("status change data = %v", change)
	}
	if len(notifier.got) != 1 {
		t.Errorf("notifications = %d, want 1", len(notifier.got))
	}
}

func TestExecute_UpdateTaskNotFoundWrapsError(t *testing.T) {
	exec := NewActionExecutor(newFakeRepo(), nil, nil, nil, nil)

	_, err := exec.Execute(models.TaskAction{
		Kind:    models.ActionUpdateTask,
		TaskID:  "missing",
		Updates: models.TaskUpdate{Status: models.StatusDone},
	})
	if !errors.Is(err, errNoSuchTask) {
		t.Fatalf("error = %v, want wrapped errNoSuchTask", err)
	}
	if !strings.Contains(err.Error(), "updating task missing") {
		t.Errorf("error %q lacks context", err)
	}
}

func TestExecute_UpdateTaskValidation(t *testing.T) {
	exec := NewActionExecutor(newFakeRepo(boardTasks()...), nil, nil, nil, nil)

	if _, err := exec.Execute(models.TaskAction{Kind: models.ActionUpdateTask}); err == nil {
		t.Error("expected error for missing task id")
	}
	_, err := exec.Execute(models.TaskAction{
		Kind:    models.ActionUpdateTask,
		TaskID:  "1",
		Updates: models.TaskUpdate{Status: "blocked"},
	})
	if err == nil {
		t.Error("expected error for invalid status")
	}
}

func TestExecute_CreateTaskDefaults(t *testing.T) {
	repo := newFakeRepo()
	events := &fakeEvents{}
	cfg := DefaultGlobalConfig()
	exec := NewActionExecutor(repo, cfg, events, nil, nil)

	conf, err := exec.Execute(models.TaskAction{Kind: models.ActionCreateTask})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	got := conf.Task
	if got.Title != DefaultCreatedTitle {
		t.Errorf("Title = %q, want %q", got.Title, DefaultCreatedTitle)
	}
	if got.Description != DefaultCreatedDescription {
		t.Errorf("Description = %q", got.Description)
	}
	if got.Status != models.StatusTodo {
		t.Errorf("Status = %q, want todo", got.Status)
	}
	if got.Priority != models.PriorityMedium {
		t.Errorf("Priority = %q, want medium", got.Priority)
	}
	if got.Assignee != "JD" {
		t.Errorf("Assignee = %q, want JD", got.Assignee)
	}
	if got.StoryPoints != 3 {
		t.Errorf("StoryPoints = %d, want 3", got.StoryPoints)
	}
	if got.SprintID != "sprint-1" {
		t.Errorf("SprintID = %q, want sprint-1", got.SprintID)
	}
	if conf.Title != "Task Created" {
		t.Errorf("confirmation title = %q", conf.Title)
	}
	if len(events.events) != 1 || events.events[0].eventType != "task.created" {
		t.Errorf("events = %v", events.types())
	}
}

func TestExecute_CreateTaskUsesActionFields(t *testing.T) {
	repo := newFakeRepo()
	cfg := DefaultGlobalConfig()
	cfg.UserName = "ada lovelace byron"
	cfg.DefaultPriority = models.PriorityLow
	exec := NewActionExecutor(repo, cfg, nil, nil, nil)

	points := 8
	conf, err := exec.Execute(models.TaskAction{
		Kind: models.ActionCreateTask,
		Updates: models.TaskUpdate{
			Title:       "rewrite auth module",
			Priority:    models.PriorityHigh,
			StoryPoints: &points,
		},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if conf.Task.Title != "rewrite auth module" {
		t.Errorf("Title = %q", conf.Task.Title)
	}
	if conf.Task.Priority != models.PriorityHigh {
		t.Errorf("Priority = %q, want high", conf.Task.Priority)
	}
	if conf.Task.StoryPoints != 8 {
		t.Errorf("StoryPoints = %d, want 8", conf.Task.StoryPoints)
	}
	if conf.Task.Assignee != "ALB" {
		t.Errorf("Assignee = %q, want ALB", conf.Task.Assignee)
	}
}

func TestExecute_CreateTaskRepositoryError(t *testing.T) {
	repo := newFakeRepo()
	repo.createErr = errors.New("disk full")
	exec := NewActionExecutor(repo, nil, nil, nil, nil)

	_, err := exec.Execute(models.TaskAction{Kind: models.ActionCreateTask, Updates: models.TaskUpdate{Title: "x"}})
	if err == nil || !strings.Contains(err.Error(), "disk full") {
		t.Fatalf("error = %v, want wrapped repository error", err)
	}
}

func TestExecute_AssignTask(t *testing.T) {
	repo := newFakeRepo(boardTasks()...)
	exec := NewActionExecutor(repo, nil, nil, nil, nil)

	conf, err := exec.Execute(models.TaskAction{
		Kind:    models.ActionAssignTask,
		TaskID:  "2",
		Updates: models.TaskUpdate{Assignee: "DK"},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if conf.Task.Assignee != "DK" || conf.Title != "Task Assigned" {
		t.Errorf("confirmation = %+v", conf)
	}

	if _, err := exec.Execute(models.TaskAction{Kind: models.ActionAssignTask, TaskID: "2"}); err == nil {
		t.Error("expected error when assignee is missing")
	}
}

func TestExecute_MarkBlocker(t *testing.T) {
	repo := newFakeRepo(boardTasks()...)
	notifier := &fakeNotifier{}
	exec := NewActionExecutor(repo, nil, nil, notifier, nil)

	conf, err := exec.Execute(models.TaskAction{Kind: models.ActionMarkBlocker})
	if err != nil || conf != nil {
		t.Fatalf("deferred mark_blocker = (%+v, %v), want (nil, nil)", conf, err)
	}

	conf, err = exec.Execute(models.TaskAction{Kind: models.ActionMarkBlocker, TaskID: "4"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !conf.Task.IsBlocked || !repo.tasks[3].IsBlocked {
		t.Errorf("task not flagged blocked: %+v", repo.tasks[3])
	}
	if len(notifier.got) != 1 {
		t.Errorf("notifications = %d, want 1", len(notifier.got))
	}
}

func TestExecute_AdvisoryKindsDoNotMutate(t *testing.T) {
	repo := newFakeRepo(boardTasks()...)
	before := repo.ListTasks()
	notifier := &fakeNotifier{}
	exec := NewActionExecutor(repo, nil, nil, notifier, nil)

	for _, kind := range []models.ActionKind{models.ActionRebalance, models.ActionSprintUpdate} {
		conf, err := exec.Execute(models.TaskAction{Kind: kind, Label: "x"})
		if err != nil || conf != nil {
			t.Errorf("%s = (%+v, %v), want (nil, nil)", kind, conf, err)
		}
	}
	after := repo.ListTasks()
	for i := range before {
		if before[i].Status != after[i].Status || before[i].Assignee != after[i].Assignee {
			t.Errorf("task %s mutated by advisory action", before[i].ID)
		}
	}
	if len(notifier.got) != 0 {
		t.Errorf("advisory actions notified %d times", len(notifier.got))
	}
}

func TestExecute_UnknownKind(t *testing.T) {
	exec := NewActionExecutor(newFakeRepo(), nil, nil, nil, nil)
	if _, err := exec.Execute(models.TaskAction{Kind: "launch_rocket"}); err == nil {
		t.Error("expected error for unknown action kind")
	}
}

func TestExecute_SideChannelFailuresAreNotFatal(t *testing.T) {
	repo := newFakeRepo(boardTasks()...)
	events := &fakeEvents{err: errors.New("log closed")}
	notifier := &fakeNotifier{err: errors.New("webhook down")}
	exec := NewActionExecutor(repo, nil, events, notifier, nil)

	conf, err := exec.Execute(models.TaskAction{Kind: models.ActionUpdateTask, TaskID: "1", Updates: models.TaskUpdate{Status: models.StatusDone}})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if conf == nil {
		t.Fatal("expected confirmation")
	}
}

func TestInitials(t *testing.T) {
	tests := map[string]string{
		"John Doe":      "JD",
		"sarah chen":    "SC",
		"  Mia  ":       "M",
		"":              "",
		"Élodie Durand": "ÉD",
		"one two three": "OTT",
	}
	for in, want := range tests {
		if got := Initials(in); got != want {
			t.Errorf("Initials(%q) = %q, want %q", in, got, want)
		}
	}
}
