package core

import (
	"fmt"
	"math"
	"strings"

	"github.com/valter-silva-au/scrum-assistant/pkg/models"
)

// Display confidences per reply kind. They are shown to the user and never
// used for routing.
const (
	confidenceUpdateFound    = 0.95
	confidenceUpdateNotFound = 0.7
	confidenceCreate         = 0.9
	confidenceMarkBlocker    = 0.85
	confidenceSprint         = 0.98
	confidenceAllClear       = 0.95
	confidenceBlockers       = 0.92
	confidenceTeam           = 0.9
	confidenceRecommend      = 0.88
	confidenceUnknown        = 0.6
)

// maxSuggestions caps the titles offered when an update finds no task.
const maxSuggestions = 3

// Snapshot is the read-only board state a reply is computed from.
type Snapshot struct {
	Tasks    []models.Task
	Sprint   models.SprintMetrics
	Blockers []models.Blocker
	Team     []models.TeamMemberStats
}

// NewSnapshot builds a Snapshot whose Team is derived from tasks.
func NewSnapshot(tasks []models.Task, sprint models.SprintMetrics, blockers []models.Blocker) Snapshot {
	return Snapshot{
		Tasks:    tasks,
		Sprint:   sprint,
		Blockers: blockers,
		Team:     TeamStatsFromTasks(tasks),
	}
}

// Reply is the synthesized assistant answer for one intent.
type Reply struct {
	Response   string
	Action     *models.TaskAction
	Confidence float64
	Reasoning  string
}

// Synthesize computes the reply for intent from snap. It has no side effects.
func Synthesize(intent Intent, snap Snapshot) Reply {
	switch in := intent.(type) {
	case UpdateTaskIntent:
		return synthesizeUpdate(in, snap)
	case CreateTaskIntent:
		return synthesizeCreate(in)
	case MarkBlockerIntent:
		return synthesizeMarkBlocker(snap)
	case SprintProgressIntent:
		return synthesizeSprint(snap.Sprint)
	case ShowBlockersIntent:
		return synthesizeBlockers(snap.Blockers)
	case TeamPerformanceIntent:
		return synthesizeTeam(snap.Tasks)
	case RecommendIntent:
		return synthesizeRecommend(snap)
	case UnknownIntent:
		return synthesizeUnknown(in)
	default:
		return synthesizeUnknown(UnknownIntent{})
	}
}

// Percent returns round(100*part/total), or 0 when total is 0.
func Percent(part, total int) int {
	if total == 0 {
		return 0
	}
	return int(math.Round(100 * float64(part) / float64(total)))
}

// VelocityDelta returns the rounded percentage change from previous to
// current. ok is false when previous is 0.
func VelocityDelta(current, previous int) (delta int, ok bool) {
	if previous == 0 {
		return 0, false
	}
	return int(math.Round(100 * float64(current-previous) / float64(previous))), true
}

// FormatVelocityDelta renders a delta as "+16%", "-5%" or "n/a".
func FormatVelocityDelta(current, previous int) string {
	delta, ok := VelocityDelta(current, previous)
	if !ok {
		return "n/a"
	}
	return fmt.Sprintf("%+d%%", delta)
}

// FindTaskByTitle returns the first task whose lowercased title contains
// fragment, in slice order.
func FindTaskByTitle(tasks []models.Task, fragment string) (models.Task, bool) {
	needle := strings.ToLower(fragment)
	for _, t := range tasks {
		if strings.Contains(strings.ToLower(t.Title), needle) {
			return t, true
		}
	}
	return models.Task{}, false
}

func synthesizeUpdate(in UpdateTaskIntent, snap Snapshot) Reply {
	task, ok := FindTaskByTitle(snap.Tasks, in.TaskName)
	if !ok {
		var b strings.Builder
		fmt.Fprintf(&b, "I couldn't find a task matching %q.", in.TaskName)
		if len(snap.Tasks) == 0 {
			b.WriteString(" There are no tasks on the board yet.")
		} else {
			b.WriteString(" Did you mean one of these?\n")
			for i, t := range snap.Tasks {
				if i == maxSuggestions {
					break
				}
				fmt.Fprintf(&b, "\n• %s", t.Title)
			}
		}
		return Reply{
			Response:   b.String(),
			Confidence: confidenceUpdateNotFound,
			Reasoning:  fmt.Sprintf("No task title contains %q.", in.TaskName),
		}
	}

	where := "in the " + string(in.Status) + " column"
	if in.Status == models.StatusDone {
		where = "completed"
	}
	return Reply{
		Response: fmt.Sprintf("I've updated %q to %s. The task is now %s.", task.Title, in.Status, where),
		Action: &models.TaskAction{
			Kind:    models.ActionUpdateTask,
			TaskID:  task.ID,
			Updates: models.TaskUpdate{Status: in.Status},
			Label:   "Move to " + string(in.Status),
		},
		Confidence: confidenceUpdateFound,
		Reasoning:  fmt.Sprintf("%q is the first task whose title contains %q.", task.Title, in.TaskName),
	}
}

func synthesizeCreate(in CreateTaskIntent) Reply {
	return Reply{
		Response: fmt.Sprintf("I've created a new task: %q. It's been added to the backlog. "+
			"Would you like to assign it to someone or set a priority?", in.Title),
		Action: &models.TaskAction{
			Kind:    models.ActionCreateTask,
			Updates: models.TaskUpdate{Title: in.Title},
			Label:   "Create task",
		},
		Confidence: confidenceCreate,
		Reasoning:  "The message asks for a new task with a description.",
	}
}

func synthesizeMarkBlocker(snap Snapshot) Reply {
	var b strings.Builder
	var candidates int
	for _, t := range snap.Tasks {
		if t.Status != models.StatusInProgress {
			continue
		}
		if candidates == 0 {
			b.WriteString("Which task is blocked? These tasks are in progress:\n")
		}
		candidates++
		fmt.Fprintf(&b, "\n• %s (%s)", t.Title, assigneeOrUnassigned(t.Assignee))
	}
	if candidates == 0 {
		b.WriteString("There are no tasks in progress right now, so nothing can be marked as blocked.")
	}
	return Reply{
		Response: b.String(),
		Action: &models.TaskAction{
			Kind:  models.ActionMarkBlocker,
			Label: "Mark blocker",
		},
		Confidence: confidenceMarkBlocker,
		Reasoning:  fmt.Sprintf("Only in-progress tasks can be blocked; %d candidate(s).", candidates),
	}
}

func synthesizeSprint(s models.SprintMetrics) Reply {
	name := s.Name
	if name == "" {
		name = "Sprint"
	}
	percent := Percent(s.CompletedPoints, s.TotalPoints)

	var b strings.Builder
	fmt.Fprintf(&b, "%s progress:\n\n", name)
	fmt.Fprintf(&b, "• Completion: %d%% (%d/%d story points)\n", percent, s.CompletedPoints, s.TotalPoints)
	fmt.Fprintf(&b, "• Remaining: %d story points\n", s.RemainingPoints)
	fmt.Fprintf(&b, "• Days remaining: %d\n", s.DaysRemaining)
	fmt.Fprintf(&b, "• Velocity: %d points (%s vs last sprint)\n\n", s.Velocity, FormatVelocityDelta(s.Velocity, s.PreviousVelocity))
	b.WriteString(riskSentence(s.RiskStatus))

	return Reply{
		Response:   b.String(),
		Confidence: confidenceSprint,
		Reasoning:  fmt.Sprintf("Computed from sprint metrics: %d of %d points done, risk %s.", s.CompletedPoints, s.TotalPoints, riskLabel(s.RiskStatus)),
	}
}

func riskSentence(r models.RiskStatus) string {
	switch r {
	case models.RiskOnTrack:
		return "The sprint is on track. Keep the current pace."
	case models.RiskAtRisk:
		return "The sprint is at risk. Consider swarming on in-progress work or descoping low-priority items."
	case models.RiskBehind:
		return "The sprint is behind schedule. Review the commitment with the product owner and move items out of scope."
	default:
		return "No risk assessment is available for this sprint."
	}
}

func riskLabel(r models.RiskStatus) string {
	if r == "" {
		return "unknown"
	}
	return string(r)
}

func synthesizeBlockers(blockers []models.Blocker) Reply {
	if len(blockers) == 0 {
		return Reply{
			Response:   "No blockers detected. All tasks are flowing smoothly.",
			Confidence: confidenceAllClear,
			Reasoning:  "The blocker list is empty.",
		}
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Found %d blocker(s):\n", len(blockers))
	for _, bl := range blockers {
		fmt.Fprintf(&b, "\n• %q (%s): %s, blocked %d day(s) [%s]",
			bl.TaskTitle, assigneeOrUnassigned(bl.Assignee), bl.Reason, bl.DaysBlocked, bl.Severity)
	}
	b.WriteString("\n\nWould you like me to rebalance work around these blockers?")

	return Reply{
		Response: b.String(),
		Action: &models.TaskAction{
			Kind:  models.ActionRebalance,
			Label: "Rebalance workload",
		},
		Confidence: confidenceBlockers,
		Reasoning:  fmt.Sprintf("%d open blocker(s) on the board.", len(blockers)),
	}
}

func synthesizeTeam(tasks []models.Task) Reply {
	tallies := AggregateByAssignee(tasks)
	if len(tallies) == 0 {
		return Reply{
			Response:   "No tasks are on the board yet, so there is no team activity to report.",
			Confidence: confidenceTeam,
			Reasoning:  "The task list is empty.",
		}
	}

	var b strings.Builder
	b.WriteString("Team performance:\n")
	for _, t := range tallies {
		fmt.Fprintf(&b, "\n• %s: %d/%d tasks done, %d story points", t.Assignee, t.Done, t.Total, t.Points)
	}

	return Reply{
		Response:   b.String(),
		Confidence: confidenceTeam,
		Reasoning:  fmt.Sprintf("Aggregated %d task(s) across %d member(s).", len(tasks), len(tallies)),
	}
}

func synthesizeRecommend(snap Snapshot) Reply {
	var inReview, urgentTodo int
	for _, t := range snap.Tasks {
		switch {
		case t.Status == models.StatusReview:
			inReview++
		case t.Status == models.StatusTodo && (t.Priority == models.PriorityHigh || t.Priority == models.PriorityCritical):
			urgentTodo++
		}
	}

	var b strings.Builder
	b.WriteString("Recommendations:\n\n")

	delta, ok := VelocityDelta(snap.Sprint.Velocity, snap.Sprint.PreviousVelocity)
	switch {
	case !ok:
		b.WriteString("1. Velocity: there is no previous sprint to compare against yet. Use this sprint as the baseline.\n")
	case delta > 0:
		fmt.Fprintf(&b, "1. Velocity: team velocity is up %d%% on last sprint. Consider raising the commitment next sprint.\n", delta)
	case delta < 0:
		fmt.Fprintf(&b, "1. Velocity: team velocity is down %d%% on last sprint. Keep the commitment steady and look for drag.\n", -delta)
	default:
		b.WriteString("1. Velocity: team velocity is flat. The current commitment looks sustainable.\n")
	}

	if n := len(snap.Blockers); n > 0 {
		fmt.Fprintf(&b, "2. Blockers: %d open blocker(s). Resolve them before pulling in new work.\n", n)
	} else {
		b.WriteString("2. Blockers: none open. Keep surfacing impediments at stand-up.\n")
	}

	fmt.Fprintf(&b, "3. Code reviews: %d task(s) waiting in review. Add reviewers or schedule a review session.\n", inReview)
	fmt.Fprintf(&b, "4. High priority: %d high-priority task(s) not started. Pull them forward.\n", urgentTodo)

	var heavy []string
	for _, m := range snap.Team {
		if m.Workload == models.WorkloadHeavy {
			heavy = append(heavy, m.Assignee)
		}
	}
	if len(heavy) > 0 {
		fmt.Fprintf(&b, "5. Team balance: %s at capacity. Consider redistributing work.", strings.Join(heavy, ", "))
	} else {
		b.WriteString("5. Team balance: workload is evenly spread.")
	}

	return Reply{
		Response: b.String(),
		Action: &models.TaskAction{
			Kind:  models.ActionRebalance,
			Label: "Rebalance workload",
		},
		Confidence: confidenceRecommend,
		Reasoning:  fmt.Sprintf("Based on %d blocker(s), velocity trend %s and %d task(s) in review.", len(snap.Blockers), FormatVelocityDelta(snap.Sprint.Velocity, snap.Sprint.PreviousVelocity), inReview),
	}
}

// helpMenu lists the phrasings the classifier understands.
const helpMenu = `I can help with:

• Task management: "update task <name> to <status>", "create a task for <description>"
• Sprint analytics: "show sprint progress"
• Blockers: "what are the blockers?", "mark a blocker"
• Team insights: "show team performance"
• Recommendations: "any recommendations?"

Try a specific command or ask me a question!`

func synthesizeUnknown(in UnknownIntent) Reply {
	return Reply{
		Response:   fmt.Sprintf("I understand you're asking about %q. %s", in.Query, helpMenu),
		Confidence: confidenceUnknown,
		Reasoning:  "No rule matched the message.",
	}
}

func assigneeOrUnassigned(a string) string {
	if a == "" {
		return UnassignedLabel
	}
	return a
}
