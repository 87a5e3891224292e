// Package mcp provides an MCP (Model Context Protocol) server that exposes
// the scrum assistant and the board as MCP tools for AI coding assistants.
package mcp

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	gomcp "github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/valter-silva-au/scrum-assistant/internal/core"
	"github.com/valter-silva-au/scrum-assistant/internal/observability"
	"github.com/valter-silva-au/scrum-assistant/internal/storage"
	"github.com/valter-silva-au/scrum-assistant/pkg/models"
)

// TaskLister is the subset of the task store the server reads from.
type TaskLister interface {
	FilterTasks(filter storage.TaskFilter) []models.Task
}

// Services groups the dependencies exposed as tools. Executor, Metrics and
// Alerts may be nil; the matching tools then report themselves unavailable.
// Events may be nil, in which case ask turns are not recorded.
type Services struct {
	Tasks    TaskLister
	Board    core.SnapshotSource
	Executor core.ActionExecutor
	Metrics  observability.MetricsCalculator
	Alerts   observability.AlertEngine
	Events   observability.EventLog
}

// Server wraps the assistant services and exposes them as MCP tools.
type Server struct {
	server *gomcp.Server
	svc    Services
}

// NewServer creates a new MCP server over svc.
func NewServer(svc Services, version string) *Server {
	if version == "" {
		version = "dev"
	}

	s := &Server{svc: svc}
	s.server = gomcp.NewServer(
		&gomcp.Implementation{Name: "scrum", Version: version},
		nil,
	)

	s.registerTools()

	return s
}

// Run starts the MCP server on stdio, blocking until the client disconnects
// or the context is cancelled.
func (s *Server) Run(ctx context.Context) error {
	return s.server.Run(ctx, &gomcp.StdioTransport{})
}

// MCPServer returns the underlying mcp.Server for testing purposes.
func (s *Server) MCPServer() *gomcp.Server {
	return s.server
}

// --- Tool input/output types ---

type askInput struct {
	Message string `json:"message" jsonschema:"required,the message to send to the assistant (e.g. show sprint progress)"`
	Execute bool   `json:"execute,omitempty" jsonschema:"apply the suggested board action, if any"`
}

type actionOutput struct {
	Kind   string `json:"kind"`
	TaskID string `json:"task_id,omitempty"`
	Label  string `json:"label,omitempty"`
}

type askOutput struct {
	Intent       string        `json:"intent"`
	Response     string        `json:"response"`
	Confidence   float64       `json:"confidence"`
	Reasoning    string        `json:"reasoning,omitempty"`
	Action       *actionOutput `json:"action,omitempty"`
	Confirmation string        `json:"confirmation,omitempty"`
}

type taskOutput struct {
	ID             string   `json:"id"`
	Title          string   `json:"title"`
	Status         string   `json:"status"`
	Priority       string   `json:"priority"`
	Assignee       string   `json:"assignee,omitempty"`
	StoryPoints    int      `json:"story_points"`
	SprintID       string   `json:"sprint_id,omitempty"`
	IsBlocked      bool     `json:"is_blocked"`
	DaysInProgress int      `json:"days_in_progress"`
	Updated        string   `json:"updated"`
	Tags           []string `json:"tags,omitempty"`
}

type listTasksInput struct {
	Status   string `json:"status,omitempty" jsonschema:"filter tasks by status (todo, inprogress, review, done)"`
	Assignee string `json:"assignee,omitempty" jsonschema:"filter tasks by assignee initials"`
}

type listTasksOutput struct {
	Tasks []taskOutput `json:"tasks"`
	Count int          `json:"count"`
}

type updateTaskStatusInput struct {
	TaskID string `json:"task_id" jsonschema:"required,the task identifier"`
	Status string `json:"status" jsonschema:"required,the new status (todo, inprogress, review, done)"`
}

type updateTaskStatusOutput struct {
	Message string `json:"message"`
}

type sprintInput struct{}

type sprintOutput struct {
	Name            string `json:"name"`
	TotalPoints     int    `json:"total_points"`
	CompletedPoints int    `json:"completed_points"`
	RemainingPoints int    `json:"remaining_points"`
	PercentComplete int    `json:"percent_complete"`
	Velocity        int    `json:"velocity"`
	VelocityDelta   string `json:"velocity_delta"`
	DaysRemaining   int    `json:"days_remaining"`
	RiskStatus      string `json:"risk_status"`
}

type listBlockersInput struct{}

type blockerOutput struct {
	TaskID      string `json:"task_id"`
	TaskTitle   string `json:"task_title"`
	Assignee    string `json:"assignee,omitempty"`
	DaysBlocked int    `json:"days_blocked"`
	Reason      string `json:"reason"`
	Severity    string `json:"severity"`
}

type listBlockersOutput struct {
	Blockers []blockerOutput `json:"blockers"`
	Count    int             `json:"count"`
}

type getMetricsInput struct {
	Since string `json:"since,omitempty" jsonschema:"time window for metrics (e.g. 7d, 30d, 24h). Defaults to 7d."`
}

type metricsOutput struct {
	Turns             int            `json:"turns"`
	TurnsByIntent     map[string]int `json:"turns_by_intent"`
	AverageConfidence float64        `json:"average_confidence"`
	ActionsProposed   int            `json:"actions_proposed"`
	TasksCreated      int            `json:"tasks_created"`
	TasksUpdated      int            `json:"tasks_updated"`
	StatusChanges     map[string]int `json:"status_changes"`
	EventCount        int            `json:"event_count"`
	OldestEvent       string         `json:"oldest_event,omitempty"`
	NewestEvent       string         `json:"newest_event,omitempty"`
}

type getAlertsInput struct{}

type alertOutput struct {
	ID          string `json:"id"`
	Condition   string `json:"condition"`
	Severity    string `json:"severity"`
	Message     string `json:"message"`
	TaskID      string `json:"task_id,omitempty"`
	TriggeredAt string `json:"triggered_at"`
}

type getAlertsOutput struct {
	Alerts []alertOutput `json:"alerts"`
	Count  int           `json:"count"`
}

// --- Tool registration ---

func (s *Server) registerTools() {
	gomcp.AddTool(s.server, &gomcp.Tool{
		Name:        "ask",
		Description: "Send a message to the scrum assistant. Returns the reply, the detected intent and any suggested board action. Set execute to apply the action.",
	}, s.handleAsk)

	gomcp.AddTool(s.server, &gomcp.Tool{
		Name:        "list_tasks",
		Description: "List board tasks with optional status and assignee filters.",
	}, s.handleListTasks)

	gomcp.AddTool(s.server, &gomcp.Tool{
		Name:        "update_task_status",
		Description: "Move a task to another column. Valid statuses: todo, inprogress, review, done.",
	}, s.handleUpdateTaskStatus)

	gomcp.AddTool(s.server, &gomcp.Tool{
		Name:        "get_sprint_progress",
		Description: "Get the current sprint's points, velocity, days remaining and risk status.",
	}, s.handleGetSprintProgress)

	gomcp.AddTool(s.server, &gomcp.Tool{
		Name:        "list_blockers",
		Description: "List open blockers with their owner, age and severity.",
	}, s.handleListBlockers)

	gomcp.AddTool(s.server, &gomcp.Tool{
		Name:        "get_metrics",
		Description: "Get assistant usage and board change metrics from the event log.",
	}, s.handleGetMetrics)

	gomcp.AddTool(s.server, &gomcp.Tool{
		Name:        "get_alerts",
		Description: "Evaluate and return active alerts (long blockers, aging tasks, long reviews, backlog size, sprint risk).",
	}, s.handleGetAlerts)
}

// --- Tool handlers ---

func (s *Server) handleAsk(ctx context.Context, _ *gomcp.CallToolRequest, input askInput) (*gomcp.CallToolResult, askOutput, error) {
	if strings.TrimSpace(input.Message) == "" {
		return errorResult("message is required"), askOutput{}, nil
	}
	if err := ctx.Err(); err != nil {
		return nil, askOutput{}, err
	}

	snap, err := s.svc.Board.Snapshot()
	if err != nil {
		return errorResult(fmt.Sprintf("loading board: %s", err)), askOutput{}, nil
	}

	intent, reply, err := core.Respond(input.Message, snap)
	if err != nil {
		return errorResult(err.Error()), askOutput{}, nil
	}
	s.logTurn(intent, reply)

	out := askOutput{
		Intent:     string(intent.Kind()),
		Response:   reply.Response,
		Confidence: reply.Confidence,
		Reasoning:  reply.Reasoning,
	}
	if reply.Action != nil {
		out.Action = &actionOutput{
			Kind:   string(reply.Action.Kind),
			TaskID: reply.Action.TaskID,
			Label:  reply.Action.Label,
		}
	}

	if input.Execute && reply.Action != nil {
		if s.svc.Executor == nil {
			return errorResult("action execution not available"), out, nil
		}
		conf, err := s.svc.Executor.Execute(*reply.Action)
		if err != nil {
			return errorResult(fmt.Sprintf("applying %s: %s", reply.Action.Kind, err)), out, nil
		}
		if conf != nil {
			out.Confirmation = conf.Message
		}
	}

	return nil, out, nil
}

// logTurn records an answered ask in the event log so metrics count MCP
// turns alongside chat ones. Write failures do not fail the tool call.
func (s *Server) logTurn(intent core.Intent, reply core.Reply) {
	if s.svc.Events == nil {
		return
	}
	err := s.svc.Events.Write(observability.Event{
		Time:    time.Now().UTC(),
		Level:   "INFO",
		Type:    core.EventAssistantTurn,
		Message: "mcp ask",
		Data:    core.TurnEventData(intent, reply),
	})
	if err != nil {
		slog.Warn("failed to log mcp turn", "error", err)
	}
}

func (s *Server) handleListTasks(_ context.Context, _ *gomcp.CallToolRequest, input listTasksInput) (*gomcp.CallToolResult, listTasksOutput, error) {
	var filter storage.TaskFilter
	if input.Status != "" {
		status := models.TaskStatus(input.Status)
		if !status.Valid() {
			return errorResult(fmt.Sprintf("invalid status %q: must be one of %s", input.Status, statusList())), listTasksOutput{}, nil
		}
		filter.Status = []models.TaskStatus{status}
	}
	filter.Assignee = input.Assignee

	tasks := s.svc.Tasks.FilterTasks(filter)
	out := listTasksOutput{
		Tasks: make([]taskOutput, len(tasks)),
		Count: len(tasks),
	}
	for i, t := range tasks {
		out.Tasks[i] = taskToOutput(t)
	}

	return nil, out, nil
}

func (s *Server) handleUpdateTaskStatus(_ context.Context, _ *gomcp.CallToolRequest, input updateTaskStatusInput) (*gomcp.CallToolResult, updateTaskStatusOutput, error) {
	if input.TaskID == "" {
		return errorResult("task_id is required"), updateTaskStatusOutput{}, nil
	}
	if input.Status == "" {
		return errorResult("status is required"), updateTaskStatusOutput{}, nil
	}

	status := models.TaskStatus(input.Status)
	if !status.Valid() {
		return errorResult(fmt.Sprintf("invalid status %q: must be one of %s", input.Status, statusList())), updateTaskStatusOutput{}, nil
	}
	if s.svc.Executor == nil {
		return errorResult("task updates not available"), updateTaskStatusOutput{}, nil
	}

	conf, err := s.svc.Executor.Execute(models.TaskAction{
		Kind:    models.ActionUpdateTask,
		TaskID:  input.TaskID,
		Updates: models.TaskUpdate{Status: status},
	})
	if err != nil {
		return errorResult(fmt.Sprintf("updating task %s status: %s", input.TaskID, err)), updateTaskStatusOutput{}, nil
	}

	msg := fmt.Sprintf("task %s status updated to %s", input.TaskID, input.Status)
	if conf != nil && conf.Message != "" {
		msg = conf.Message
	}
	return nil, updateTaskStatusOutput{Message: msg}, nil
}

func (s *Server) handleGetSprintProgress(_ context.Context, _ *gomcp.CallToolRequest, _ sprintInput) (*gomcp.CallToolResult, sprintOutput, error) {
	snap, err := s.svc.Board.Snapshot()
	if err != nil {
		return errorResult(fmt.Sprintf("loading board: %s", err)), sprintOutput{}, nil
	}

	sp := snap.Sprint
	return nil, sprintOutput{
		Name:            sp.Name,
		TotalPoints:     sp.TotalPoints,
		CompletedPoints: sp.CompletedPoints,
		RemainingPoints: sp.RemainingPoints,
		PercentComplete: core.Percent(sp.CompletedPoints, sp.TotalPoints),
		Velocity:        sp.Velocity,
		VelocityDelta:   core.FormatVelocityDelta(sp.Velocity, sp.PreviousVelocity),
		DaysRemaining:   sp.DaysRemaining,
		RiskStatus:      string(sp.RiskStatus),
	}, nil
}

func (s *Server) handleListBlockers(_ context.Context, _ *gomcp.CallToolRequest, _ listBlockersInput) (*gomcp.CallToolResult, listBlockersOutput, error) {
	snap, err := s.svc.Board.Snapshot()
	if err != nil {
		return errorResult(fmt.Sprintf("loading board: %s", err)), listBlockersOutput{}, nil
	}

	out := listBlockersOutput{
		Blockers: make([]blockerOutput, len(snap.Blockers)),
		Count:    len(snap.Blockers),
	}
	for i, b := range snap.Blockers {
		out.Blockers[i] = blockerOutput{
			TaskID:      b.TaskID,
			TaskTitle:   b.TaskTitle,
			Assignee:    b.Assignee,
			DaysBlocked: b.DaysBlocked,
			Reason:      b.Reason,
			Severity:    string(b.Severity),
		}
	}
	return nil, out, nil
}

func (s *Server) handleGetMetrics(_ context.Context, _ *gomcp.CallToolRequest, input getMetricsInput) (*gomcp.CallToolResult, metricsOutput, error) {
	if s.svc.Metrics == nil {
		return errorResult("metrics calculator not available (event log may be disabled)"), emptyMetricsOutput(), nil
	}

	sinceStr := input.Since
	if sinceStr == "" {
		sinceStr = "7d"
	}

	sinceTime, err := ParseSince(sinceStr, time.Now().UTC())
	if err != nil {
		return errorResult(fmt.Sprintf("parsing since duration: %s", err)), emptyMetricsOutput(), nil
	}

	metrics, err := s.svc.Metrics.Calculate(sinceTime)
	if err != nil {
		return errorResult(fmt.Sprintf("calculating metrics: %s", err)), emptyMetricsOutput(), nil
	}

	out := metricsOutput{
		Turns:             metrics.Turns,
		TurnsByIntent:     metrics.TurnsByIntent,
		AverageConfidence: metrics.AverageConfidence,
		ActionsProposed:   metrics.ActionsProposed,
		TasksCreated:      metrics.TasksCreated,
		TasksUpdated:      metrics.TasksUpdated,
		StatusChanges:     metrics.StatusChanges,
		EventCount:        metrics.EventCount,
	}
	if metrics.OldestEvent != nil {
		out.OldestEvent = metrics.OldestEvent.Format(time.RFC3339)
	}
	if metrics.NewestEvent != nil {
		out.NewestEvent = metrics.NewestEvent.Format(time.RFC3339)
	}

	return nil, out, nil
}

func (s *Server) handleGetAlerts(_ context.Context, _ *gomcp.CallToolRequest, _ getAlertsInput) (*gomcp.CallToolResult, getAlertsOutput, error) {
	if s.svc.Alerts == nil {
		return errorResult("alert engine not available"), getAlertsOutput{}, nil
	}

	snap, err := s.svc.Board.Snapshot()
	if err != nil {
		return errorResult(fmt.Sprintf("loading board: %s", err)), getAlertsOutput{}, nil
	}

	alerts := s.svc.Alerts.Evaluate(observability.BoardState{
		Tasks:    snap.Tasks,
		Blockers: snap.Blockers,
		Sprint:   snap.Sprint,
	})

	out := getAlertsOutput{
		Alerts: make([]alertOutput, len(alerts)),
		Count:  len(alerts),
	}
	for i, a := range alerts {
		out.Alerts[i] = alertOutput{
			ID:          a.ID,
			Condition:   a.Condition,
			Severity:    string(a.Severity),
			Message:     a.Message,
			TaskID:      a.TaskID,
			TriggeredAt: a.TriggeredAt.Format(time.RFC3339),
		}
	}

	return nil, out, nil
}

// --- Helpers ---

func taskToOutput(t models.Task) taskOutput {
	return taskOutput{
		ID:             t.ID,
		Title:          t.Title,
		Status:         string(t.Status),
		Priority:       string(t.Priority),
		Assignee:       t.Assignee,
		StoryPoints:    t.StoryPoints,
		SprintID:       t.SprintID,
		IsBlocked:      t.IsBlocked,
		DaysInProgress: t.DaysInProgress,
		Updated:        t.UpdatedAt.Format(time.RFC3339),
		Tags:           t.Tags,
	}
}

func statusList() string {
	names := make([]string, len(models.Statuses))
	for i, s := range models.Statuses {
		names[i] = string(s)
	}
	return strings.Join(names, ", ")
}

func emptyMetricsOutput() metricsOutput {
	return metricsOutput{
		TurnsByIntent: make(map[string]int),
		StatusChanges: make(map[string]int),
	}
}

func errorResult(msg string) *gomcp.CallToolResult {
	return &gomcp.CallToolResult{
		Content: []gomcp.Content{&gomcp.TextContent{Text: msg}},
		IsError: true,
	}
}

// ParseSince parses a human-friendly duration string like "7d", "30d", or
// "24h" into the corresponding time before now.
func ParseSince(s string, now time.Time) (time.Time, error) {
	if len(s) < 2 {
		return time.Time{}, fmt.Errorf("invalid duration %q", s)
	}

	suffix := s[len(s)-1]
	numStr := s[:len(s)-1]
	var num int
	if _, err := fmt.Sscanf(numStr, "%d", &num); err != nil {
		return time.Time{}, fmt.Errorf("invalid duration %q: %w", s, err)
	}
	if num < 0 {
		return time.Time{}, fmt.Errorf("invalid duration %q: must not be negative", s)
	}

	switch suffix {
	case 'd':
		return now.AddDate(0, 0, -num), nil
	case 'h':
		return now.Add(-time.Duration(num) * time.Hour), nil
	default:
		return time.Time{}, fmt.Errorf("unsupported duration suffix %q (use d or h)", string(suffix))
	}
}
