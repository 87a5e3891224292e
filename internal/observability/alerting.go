package observability

import (
	"fmt"
	"sort"
	"time"

	"github.com/valter-silva-au/scrum-assistant/pkg/models"
)

// AlertSeverity represents the urgency of an alert.
type AlertSeverity string

const (
	SeverityHigh   AlertSeverity = "high"
	SeverityMedium AlertSeverity = "medium"
	SeverityLow    AlertSeverity = "low"
)

func severityRank(s AlertSeverity) int {
	switch s {
	case SeverityHigh:
		return 0
	case SeverityMedium:
		return 1
	default:
		return 2
	}
}

// Alert represents a triggered alert condition.
type Alert struct {
	ID          string        `json:"id"`
	Condition   string        `json:"condition"`
	Severity    AlertSeverity `json:"severity"`
	Message     string        `json:"message"`
	TaskID      string        `json:"task_id,omitempty"`
	TriggeredAt time.Time     `json:"triggered_at"`
}

// AlertThresholds configures when alerts should fire.
type AlertThresholds struct {
	BlockedHours   int `yaml:"blocked_hours" json:"blocked_hours"`
	StaleDays      int `yaml:"stale_days" json:"stale_days"`
	ReviewDays     int `yaml:"review_days" json:"review_days"`
	MaxBacklogSize int `yaml:"max_backlog_size" json:"max_backlog_size"`
}

// ThresholdsFromConfig converts the configured alert settings.
func ThresholdsFromConfig(cfg models.AlertConfig) AlertThresholds {
	return AlertThresholds{
		BlockedHours:   cfg.BlockedHours,
		StaleDays:      cfg.StaleDays,
		ReviewDays:     cfg.ReviewDays,
		MaxBacklogSize: cfg.MaxBacklogSize,
	}
}

// BoardState is the board data alerts are evaluated against.
type BoardState struct {
	Tasks    []models.Task
	Blockers []models.Blocker
	Sprint   models.SprintMetrics
}

// AlertEngine evaluates alert conditions against the board.
type AlertEngine interface {
	Evaluate(state BoardState) []Alert
}

type alertEngine struct {
	thresholds AlertThresholds
	now        func() time.Time
}

// NewAlertEngine creates an AlertEngine with the given thresholds.
func NewAlertEngine(thresholds AlertThresholds) AlertEngine {
	return &alertEngine{
		thresholds: thresholds,
		now:        func() time.Time { return time.Now().UTC() },
	}
}

// Evaluate checks every alert condition and returns the triggered alerts,
// most severe first.
func (ae *alertEngine) Evaluate(state BoardState) []Alert {
	now := ae.now()

	var alerts []Alert
	alerts = append(alerts, ae.checkBlockers(state.Blockers, now)...)
	alerts = append(alerts, ae.checkAgingTasks(state.Tasks, now)...)
	alerts = append(alerts, ae.checkLongReviews(state.Tasks, now)...)
	alerts = append(alerts, ae.checkBacklogSize(state.Tasks, now)...)
	alerts = append(alerts, ae.checkSprintRisk(state.Sprint, now)...)

	sort.SliceStable(alerts, func(i, j int) bool {
		ri, rj := severityRank(alerts[i].Severity), severityRank(alerts[j].Severity)
		if ri != rj {
			return ri < rj
		}
		return alerts[i].ID < alerts[j].ID
	})
	return alerts
}

// checkBlockers flags blockers open longer than the blocked threshold.
func (ae *alertEngine) checkBlockers(blockers []models.Blocker, now time.Time) []Alert {
	var alerts []Alert
	for _, b := range blockers {
		if b.DaysBlocked*24 < ae.thresholds.BlockedHours {
			continue
		}
		sev := SeverityMedium
		if b.Severity == models.SeverityHigh {
			sev = SeverityHigh
		}
		alerts = append(alerts, Alert{
			ID:          fmt.Sprintf("blocked-%s", b.TaskID),
			Condition:   "task_blocked_too_long",
			Severity:    sev,
			Message:     fmt.Sprintf("%q has been blocked for %d day(s): %s", b.TaskTitle, b.DaysBlocked, b.Reason),
			TaskID:      b.TaskID,
			TriggeredAt: now,
		})
	}
	return alerts
}

// checkAgingTasks flags in-progress tasks older than the stale threshold.
func (ae *alertEngine) checkAgingTasks(tasks []models.Task, now time.Time) []Alert {
	var alerts []Alert
	for _, t := range tasks {
		if t.Status != models.StatusInProgress || t.DaysInProgress <= ae.thresholds.StaleDays {
			continue
		}
		alerts = append(alerts, Alert{
			ID:          fmt.Sprintf("aging-%s", t.ID),
			Condition:   "task_aging",
			Severity:    SeverityMedium,
			Message:     fmt.Sprintf("%q has been in progress for %d days", t.Title, t.DaysInProgress),
			TaskID:      t.ID,
			TriggeredAt: now,
		})
	}
	return alerts
}

// checkLongReviews flags tasks sitting in review past the review threshold.
func (ae *alertEngine) checkLongReviews(tasks []models.Task, now time.Time) []Alert {
	threshold := time.Duration(ae.thresholds.ReviewDays) * 24 * time.Hour
	var alerts []Alert
	for _, t := range tasks {
		if t.Status != models.StatusReview || t.UpdatedAt.IsZero() || now.Sub(t.UpdatedAt) <= threshold {
			continue
		}
		alerts = append(alerts, Alert{
			ID:          fmt.Sprintf("review-%s", t.ID),
			Condition:   "review_too_long",
			Severity:    SeverityMedium,
			Message:     fmt.Sprintf("%q has been in review for more than %d days", t.Title, ae.thresholds.ReviewDays),
			TaskID:      t.ID,
			TriggeredAt: now,
		})
	}
	return alerts
}

// checkBacklogSize alerts when the todo column exceeds the maximum.
func (ae *alertEngine) checkBacklogSize(tasks []models.Task, now time.Time) []Alert {
	todo := 0
	for _, t := range tasks {
		if t.Status == models.StatusTodo {
			todo++
		}
	}
	if todo <= ae.thresholds.MaxBacklogSize {
		return nil
	}
	return []Alert{{
		ID:          "backlog-size",
		Condition:   "backlog_too_large",
		Severity:    SeverityLow,
		Message:     fmt.Sprintf("backlog has %d tasks, exceeding the maximum of %d", todo, ae.thresholds.MaxBacklogSize),
		TriggeredAt: now,
	}}
}

// checkSprintRisk surfaces the sprint's own risk assessment.
func (ae *alertEngine) checkSprintRisk(s models.SprintMetrics, now time.Time) []Alert {
	var sev AlertSeverity
	switch s.RiskStatus {
	case models.RiskAtRisk:
		sev = SeverityMedium
	case models.RiskBehind:
		sev = SeverityHigh
	default:
		return nil
	}
	name := s.Name
	if name == "" {
		name = "sprint"
	}
	return []Alert{{
		ID:          "sprint-risk",
		Condition:   "sprint_" + string(s.RiskStatus),
		Severity:    sev,
		Message:     fmt.Sprintf("%s is %s with %d of %d points remaining and %d days left", name, s.RiskStatus, s.RemainingPoints, s.TotalPoints, s.DaysRemaining),
		TriggeredAt: now,
	}}
}
