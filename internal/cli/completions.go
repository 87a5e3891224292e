package cli

import (
	"strings"

	"github.com/spf13/cobra"

	"github.com/valter-silva-au/scrum-assistant/pkg/models"
)

// completeTaskIDs completes the first positional argument with task ids,
// described by their title.
func completeTaskIDs(_ *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
	if len(args) > 0 || Tasks == nil {
		return nil, cobra.ShellCompDirectiveNoFileComp
	}

	var ids []string
	for _, t := range Tasks.ListTasks() {
		if toComplete == "" || strings.HasPrefix(t.ID, toComplete) {
			ids = append(ids, t.ID+"\t"+t.Title)
		}
	}
	return ids, cobra.ShellCompDirectiveNoFileComp
}

// completeMoveArgs completes a task id, then a target column.
func completeMoveArgs(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
	if len(args) == 1 {
		return completeStatuses(cmd, args, toComplete)
	}
	return completeTaskIDs(cmd, args, toComplete)
}

// completeAssignees completes with the assignees currently on the board.
func completeAssignees(_ *cobra.Command, _ []string, toComplete string) ([]string, cobra.ShellCompDirective) {
	if Tasks == nil {
		return nil, cobra.ShellCompDirectiveNoFileComp
	}
	seen := make(map[string]bool)
	var names []string
	for _, t := range Tasks.ListTasks() {
		if t.Assignee == "" || seen[t.Assignee] {
			continue
		}
		seen[t.Assignee] = true
		if strings.HasPrefix(strings.ToLower(t.Assignee), strings.ToLower(toComplete)) {
			names = append(names, t.Assignee)
		}
	}
	return names, cobra.ShellCompDirectiveNoFileComp
}

// completeAssignArgs completes a task id, then an assignee.
func completeAssignArgs(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
	if len(args) == 1 {
		return completeAssignees(cmd, nil, toComplete)
	}
	return completeTaskIDs(cmd, args, toComplete)
}

// completePriorities returns a completion function for priority values.
func completePriorities(_ *cobra.Command, _ []string, _ string) ([]string, cobra.ShellCompDirective) {
	return []string{
		string(models.PriorityLow) + "\tCan wait",
		string(models.PriorityMedium) + "\tNormal",
		string(models.PriorityHigh) + "\tThis sprint",
		string(models.PriorityCritical) + "\tDrop everything",
	}, cobra.ShellCompDirectiveNoFileComp
}

// completeStatuses returns a completion function for board columns.
func completeStatuses(_ *cobra.Command, _ []string, _ string) ([]string, cobra.ShellCompDirective) {
	return []string{
		string(models.StatusTodo) + "\tNot started",
		string(models.StatusInProgress) + "\tBeing worked on",
		string(models.StatusReview) + "\tWaiting for review",
		string(models.StatusDone) + "\tCompleted",
	}, cobra.ShellCompDirectiveNoFileComp
}

// registerTaskCompletions wires argument and flag completion onto the
// tasks subcommands.
func registerTaskCompletions() {
	taskMoveCmd.ValidArgsFunction = completeMoveArgs
	taskAssignCmd.ValidArgsFunction = completeAssignArgs
	taskBlockCmd.ValidArgsFunction = completeTaskIDs

	_ = taskListCmd.RegisterFlagCompletionFunc("status", completeStatuses)
	_ = taskListCmd.RegisterFlagCompletionFunc("priority", completePriorities)
	_ = taskListCmd.RegisterFlagCompletionFunc("assignee", completeAssignees)
	_ = taskCreateCmd.RegisterFlagCompletionFunc("priority", completePriorities)
	_ = taskCreateCmd.RegisterFlagCompletionFunc("assignee", completeAssignees)
}
