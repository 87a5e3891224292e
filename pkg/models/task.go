package models

import "time"

// TaskStatus represents the board column a task currently sits in.
type TaskStatus string

const (
	StatusTodo       TaskStatus = "todo"
	StatusInProgress TaskStatus = "inprogress"
	StatusReview     TaskStatus = "review"
	StatusDone       TaskStatus = "done"
)

// Statuses lists the board columns in display order.
var Statuses = []TaskStatus{StatusTodo, StatusInProgress, StatusReview, StatusDone}

// Valid reports whether s is one of the four board columns.
func (s TaskStatus) Valid() bool {
	switch s {
	case StatusTodo, StatusInProgress, StatusReview, StatusDone:
		return true
	}
	return false
}

// Priority represents the urgency level of a task.
type Priority string

const (
	PriorityLow      Priority = "low"
	PriorityMedium   Priority = "medium"
	PriorityHigh     Priority = "high"
	PriorityCritical Priority = "critical"
)

// Valid reports whether p is a known priority.
func (p Priority) Valid() bool {
	switch p {
	case PriorityLow, PriorityMedium, PriorityHigh, PriorityCritical:
		return true
	}
	return false
}

// Task is a unit of sprint work shown on the board.
type Task struct {
	ID             string     `yaml:"id" json:"id"`
	Title          string     `yaml:"title" json:"title"`
	Description    string     `yaml:"description" json:"description"`
	Status         TaskStatus `yaml:"status" json:"status"`
	Priority       Priority   `yaml:"priority" json:"priority"`
	Assignee       string     `yaml:"assignee,omitempty" json:"assignee,omitempty"`
	StoryPoints    int        `yaml:"story_points,omitempty" json:"story_points,omitempty"`
	SprintID       string     `yaml:"sprint_id,omitempty" json:"sprint_id,omitempty"`
	CreatedAt      time.Time  `yaml:"created_at" json:"created_at"`
	UpdatedAt      time.Time  `yaml:"updated_at" json:"updated_at"`
	BlockedBy      []string   `yaml:"blocked_by,omitempty" json:"blocked_by,omitempty"`
	IsBlocked      bool       `yaml:"is_blocked,omitempty" json:"is_blocked,omitempty"`
	DaysInProgress int        `yaml:"days_in_progress,omitempty" json:"days_in_progress,omitempty"`
	Tags           []string   `yaml:"tags,omitempty" json:"tags,omitempty"`
}

// TaskUpdate is a partial update of a Task. Zero-valued fields and nil
// pointers are left unchanged when the update is applied.
type TaskUpdate struct {
	Title       string     `yaml:"title,omitempty" json:"title,omitempty"`
	Description string     `yaml:"description,omitempty" json:"description,omitempty"`
	Status      TaskStatus `yaml:"status,omitempty" json:"status,omitempty"`
	Priority    Priority   `yaml:"priority,omitempty" json:"priority,omitempty"`
	Assignee    string     `yaml:"assignee,omitempty" json:"assignee,omitempty"`
	StoryPoints *int       `yaml:"story_points,omitempty" json:"story_points,omitempty"`
	SprintID    string     `yaml:"sprint_id,omitempty" json:"sprint_id,omitempty"`
	IsBlocked   *bool      `yaml:"is_blocked,omitempty" json:"is_blocked,omitempty"`
	Tags        []string   `yaml:"tags,omitempty" json:"tags,omitempty"`
}

// IsEmpty reports whether the update changes nothing.
func (u TaskUpdate) IsEmpty() bool {
	return u.Title == "" && u.Description == "" && u.Status == "" &&
		u.Priority == "" && u.Assignee == "" && u.StoryPoints == nil &&
		u.SprintID == "" && u.IsBlocked == nil && u.Tags == nil
}

// Apply returns a copy of t with the non-empty fields of u written over it.
// UpdatedAt is not touched; the repository owns timestamps.
func (u TaskUpdate) Apply(t Task) Task {
	if u.Title != "" {
		t.Title = u.Title
	}
	if u.Description != "" {
		t.Description = u.Description
	}
	if u.Status != "" {
		t.Status = u.Status
	}
	if u.Priority != "" {
		t.Priority = u.Priority
	}
	if u.Assignee != "" {
		t.Assignee = u.Assignee
	}
	if u.StoryPoints != nil {
		t.StoryPoints = *u.StoryPoints
	}
	if u.SprintID != "" {
		t.SprintID = u.SprintID
	}
	if u.IsBlocked != nil {
		t.IsBlocked = *u.IsBlocked
	}
	if u.Tags != nil {
		t.Tags = append([]string(nil), u.Tags...)
	}
	return t
}
