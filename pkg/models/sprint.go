package models

// RiskStatus classifies how likely the sprint is to finish its commitment.
type RiskStatus string

const (
	RiskOnTrack RiskStatus = "on-track"
	RiskAtRisk  RiskStatus = "at-risk"
	RiskBehind  RiskStatus = "behind"
)

// SprintMetrics is the aggregate view of the active sprint.
type SprintMetrics struct {
	SprintID         string     `yaml:"sprint_id" json:"sprint_id"`
	Name             string     `yaml:"name" json:"name"`
	TotalPoints      int        `yaml:"total_points" json:"total_points"`
	CompletedPoints  int        `yaml:"completed_points" json:"completed_points"`
	RemainingPoints  int        `yaml:"remaining_points" json:"remaining_points"`
	BurndownIdeal    []int      `yaml:"burndown_ideal,omitempty" json:"burndown_ideal,omitempty"`
	BurndownActual   []int      `yaml:"burndown_actual,omitempty" json:"burndown_actual,omitempty"`
	Velocity         int        `yaml:"velocity" json:"velocity"`
	PreviousVelocity int        `yaml:"previous_velocity" json:"previous_velocity"`
	DaysRemaining    int        `yaml:"days_remaining" json:"days_remaining"`
	RiskStatus       RiskStatus `yaml:"risk_status" json:"risk_status"`
}

// BlockerSeverity grades how much a blocker threatens the sprint.
type BlockerSeverity string

const (
	SeverityLow    BlockerSeverity = "low"
	SeverityMedium BlockerSeverity = "medium"
	SeverityHigh   BlockerSeverity = "high"
)

// Blocker is an impediment recorded against a task.
type Blocker struct {
	ID          string          `yaml:"id" json:"id"`
	TaskID      string          `yaml:"task_id" json:"task_id"`
	TaskTitle   string          `yaml:"task_title" json:"task_title"`
	Assignee    string          `yaml:"assignee" json:"assignee"`
	DaysBlocked int             `yaml:"days_blocked" json:"days_blocked"`
	Reason      string          `yaml:"reason" json:"reason"`
	Severity    BlockerSeverity `yaml:"severity" json:"severity"`
}

// Workload buckets a team member's committed points.
type Workload string

const (
	WorkloadLight   Workload = "light"
	WorkloadOptimal Workload = "optimal"
	WorkloadHeavy   Workload = "heavy"
)

// TeamMemberStats summarises one assignee's share of the sprint.
type TeamMemberStats struct {
	Assignee    string   `yaml:"assignee" json:"assignee"`
	Completed   int      `yaml:"completed" json:"completed"`
	InProgress  int      `yaml:"in_progress" json:"in_progress"`
	Total       int      `yaml:"total" json:"total"`
	TotalPoints int      `yaml:"total_points" json:"total_points"`
	Workload    Workload `yaml:"workload" json:"workload"`
}
