package core

import "github.com/valter-silva-au/scrum-assistant/pkg/models"

// UnassignedLabel groups tasks that have no assignee.
const UnassignedLabel = "Unassigned"

// Workload thresholds in committed story points.
const (
	heavyWorkloadPoints   = 13
	optimalWorkloadPoints = 5
)

// AssigneeTally is the per-assignee aggregate over a task list.
type AssigneeTally struct {
	Assignee   string
	Done       int
	InProgress int
	Total      int
	Points     int
}

// AggregateByAssignee groups tasks by assignee, keeping the order in which
// each assignee first appears in tasks.
func AggregateByAssignee(tasks []models.Task) []AssigneeTally {
	var tallies []AssigneeTally
	index := make(map[string]int)

	for _, t := range tasks {
		who := t.Assignee
		if who == "" {
			who = UnassignedLabel
		}
		i, ok := index[who]
		if !ok {
			i = len(tallies)
			index[who] = i
			tallies = append(tallies, AssigneeTally{Assignee: who})
		}
		tally := &tallies[i]
		tally.Total++
		tally.Points += t.StoryPoints
		switch t.Status {
		case models.StatusDone:
			tally.Done++
		case models.StatusInProgress:
			tally.InProgress++
		}
	}

	return tallies
}

// ClassifyWorkload buckets a committed point total.
func ClassifyWorkload(points int) models.Workload {
	switch {
	case points >= heavyWorkloadPoints:
		return models.WorkloadHeavy
	case points >= optimalWorkloadPoints:
		return models.WorkloadOptimal
	default:
		return models.WorkloadLight
	}
}

// TeamStatsFromTasks derives TeamMemberStats from tasks using the same
// aggregation as the team performance reply, so the two never disagree.
func TeamStatsFromTasks(tasks []models.Task) []models.TeamMemberStats {
	tallies := AggregateByAssignee(tasks)
	stats := make([]models.TeamMemberStats, 0, len(tallies))
	for _, t := range tallies {
		stats = append(stats, models.TeamMemberStats{
			Assignee:    t.Assignee,
			Completed:   t.Done,
			InProgress:  t.InProgress,
			Total:       t.Total,
			TotalPoints: t.Points,
			Workload:    ClassifyWorkload(t.Points),
		})
	}
	return stats
}

// RecomputeSprintPoints returns base with its point totals recalculated from
// the tasks that belong to the sprint. Other fields are carried over.
func RecomputeSprintPoints(base models.SprintMetrics, tasks []models.Task) models.SprintMetrics {
	total, completed := 0, 0
	for _, t := range tasks {
		if base.SprintID != "" && t.SprintID != base.SprintID {
			continue
		}
		total += t.StoryPoints
		if t.Status == models.StatusDone {
			completed += t.StoryPoints
		}
	}
	base.TotalPoints = total
	base.CompletedPoints = completed
	base.RemainingPoints = total - completed
	return base
}
