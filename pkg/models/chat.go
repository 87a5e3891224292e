package models

import "time"

// Role identifies who authored a chat message.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// ChatMessage is one entry of the conversation log. Messages are never
// modified after they are appended.
type ChatMessage struct {
	ID         string      `yaml:"id" json:"id"`
	Content    string      `yaml:"content" json:"content"`
	Role       Role        `yaml:"role" json:"role"`
	Timestamp  time.Time   `yaml:"timestamp" json:"timestamp"`
	Confidence float64     `yaml:"confidence,omitempty" json:"confidence,omitempty"`
	Reasoning  string      `yaml:"reasoning,omitempty" json:"reasoning,omitempty"`
	Action     *TaskAction `yaml:"action,omitempty" json:"action,omitempty"`
}

// ActionKind names the board mutation an assistant reply proposes.
type ActionKind string

const (
	ActionUpdateTask   ActionKind = "update_task"
	ActionCreateTask   ActionKind = "create_task"
	ActionAssignTask   ActionKind = "assign_task"
	ActionSprintUpdate ActionKind = "sprint_update"
	ActionMarkBlocker  ActionKind = "mark_blocker"
	ActionRebalance    ActionKind = "rebalance"
)

// TaskAction is a structured side effect attached to an assistant reply.
// TaskID is set for kinds that target a single task; Updates carries the
// fields to write; Label is shown on the action button.
type TaskAction struct {
	Kind    ActionKind `yaml:"kind" json:"kind"`
	TaskID  string     `yaml:"task_id,omitempty" json:"task_id,omitempty"`
	Updates TaskUpdate `yaml:"updates,omitempty" json:"updates,omitempty"`
	Label   string     `yaml:"label" json:"label"`
}
