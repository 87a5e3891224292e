// Package core contains the business logic of the scrum assistant: input
// normalization, intent classification, reply synthesis, action execution,
// conversation state and configuration.
package core

import (
	"errors"
	"regexp"
	"strings"

	"github.com/valter-silva-au/scrum-assistant/pkg/models"
)

// ErrEmptyInput is returned when a message is empty after trimming.
var ErrEmptyInput = errors.New("input is empty")

// Normalize lowercases raw and strips surrounding whitespace.
func Normalize(raw string) (string, error) {
	s := strings.ToLower(strings.TrimSpace(raw))
	if s == "" {
		return "", ErrEmptyInput
	}
	return s, nil
}

// IntentKind names a classified intent.
type IntentKind string

const (
	IntentUpdateTask      IntentKind = "update_task"
	IntentCreateTask      IntentKind = "create_task"
	IntentSprintProgress  IntentKind = "sprint_progress"
	IntentMarkBlocker     IntentKind = "mark_blocker"
	IntentShowBlockers    IntentKind = "show_blockers"
	IntentTeamPerformance IntentKind = "team_performance"
	IntentRecommend       IntentKind = "recommend"
	IntentUnknown         IntentKind = "unknown"
)

// Intent is the classified meaning of a user message. The set of
// implementations is closed.
type Intent interface {
	Kind() IntentKind
	isIntent()
}

// UpdateTaskIntent asks to move the task whose title contains TaskName.
type UpdateTaskIntent struct {
	TaskName string
	Status   models.TaskStatus
}

// CreateTaskIntent asks to create a task described by Title.
type CreateTaskIntent struct {
	Title string
}

type (
	SprintProgressIntent  struct{}
	MarkBlockerIntent     struct{}
	ShowBlockersIntent    struct{}
	TeamPerformanceIntent struct{}
	RecommendIntent       struct{}
)

// UnknownIntent carries the message exactly as the user typed it.
type UnknownIntent struct {
	Query string
}

func (UpdateTaskIntent) Kind() IntentKind      { return IntentUpdateTask }
func (CreateTaskIntent) Kind() IntentKind      { return IntentCreateTask }
func (SprintProgressIntent) Kind() IntentKind  { return IntentSprintProgress }
func (MarkBlockerIntent) Kind() IntentKind     { return IntentMarkBlocker }
func (ShowBlockersIntent) Kind() IntentKind    { return IntentShowBlockers }
func (TeamPerformanceIntent) Kind() IntentKind { return IntentTeamPerformance }
func (RecommendIntent) Kind() IntentKind       { return IntentRecommend }
func (UnknownIntent) Kind() IntentKind         { return IntentUnknown }

func (UpdateTaskIntent) isIntent()      {}
func (CreateTaskIntent) isIntent()      {}
func (SprintProgressIntent) isIntent()  {}
func (MarkBlockerIntent) isIntent()     {}
func (ShowBlockersIntent) isIntent()    {}
func (TeamPerformanceIntent) isIntent() {}
func (RecommendIntent) isIntent()       {}
func (UnknownIntent) isIntent()         {}

var (
	updateTaskPattern = regexp.MustCompile(`update task (.+?) to (todo|in progress|review|done)`)
	createTaskPattern = regexp.MustCompile(`create (?:a )?task (?:for )?(.+)`)
)

// rule pairs a predicate over normalized text with the intent it yields.
// match returns nil when the rule does not apply.
type rule struct {
	name  string
	match func(text string) Intent
}

// rules is evaluated in order and the first match wins. The order matters:
// "mark blocker" must beat the generic blocker rule, and "update task" must
// beat "create task" on inputs that contain both.
var rules = []rule{
	{name: "update_task", match: func(text string) Intent {
		m := updateTaskPattern.FindStringSubmatch(text)
		if m == nil {
			return nil
		}
		return UpdateTaskIntent{
			TaskName: m[1],
			Status:   models.TaskStatus(strings.ReplaceAll(m[2], " ", "")),
		}
	}},
	{name: "mark_blocker", match: func(text string) Intent {
		if strings.Contains(text, "mark") && strings.Contains(text, "blocker") {
			return MarkBlockerIntent{}
		}
		return nil
	}},
	{name: "sprint_progress", match: func(text string) Intent {
		if strings.Contains(text, "sprint") && containsAny(text, "progress", "status") {
			return SprintProgressIntent{}
		}
		return nil
	}},
	{name: "show_blockers", match: func(text string) Intent {
		if containsAny(text, "blocker", "stuck", "issue") {
			return ShowBlockersIntent{}
		}
		return nil
	}},
	{name: "team_performance", match: func(text string) Intent {
		if containsAny(text, "team", "performance", "member") {
			return TeamPerformanceIntent{}
		}
		return nil
	}},
	{name: "recommend", match: func(text string) Intent {
		if containsAny(text, "recommend", "suggest", "advice") {
			return RecommendIntent{}
		}
		return nil
	}},
	{name: "create_task", match: func(text string) Intent {
		m := createTaskPattern.FindStringSubmatch(text)
		if m == nil {
			return nil
		}
		return CreateTaskIntent{Title: strings.TrimSpace(m[1])}
	}},
}

// Classify normalizes raw and returns the intent of the first matching rule,
// or an UnknownIntent holding raw unchanged.
func Classify(raw string) (Intent, error) {
	text, err := Normalize(raw)
	if err != nil {
		return nil, err
	}
	for _, r := range rules {
		if intent := r.match(text); intent != nil {
			return intent, nil
		}
	}
	return UnknownIntent{Query: raw}, nil
}

func containsAny(text string, words ...string) bool {
	for _, w := range words {
		if strings.Contains(text, w) {
			return true
		}
	}
	return false
}
