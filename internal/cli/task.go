package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/valter-silva-au/scrum-assistant/internal/storage"
	"github.com/valter-silva-au/scrum-assistant/pkg/models"
)

var taskCmd = &cobra.Command{
	Use:     "tasks",
	Aliases: []string{"task"},
	Short:   "List and change board tasks",
	Long: `Inspect the board and apply changes directly, without going through the
assistant. Changes are logged and notified the same way assistant actions are.`,
}

var (
	taskListStatus   []string
	taskListPriority []string
	taskListAssignee string
	taskListSprint   string
	taskListBlocked  bool
	taskListYAML     bool
	taskListJSON     bool
)

var taskListCmd = &cobra.Command{
	Use:   "list",
	Short: "List tasks with optional filters",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if Tasks == nil {
			return fmt.Errorf("task store not initialized")
		}

		filter, err := buildTaskFilter(cmd)
		if err != nil {
			return err
		}
		tasks := Tasks.FilterTasks(filter)

		out := cmd.OutOrStdout()
		switch {
		case taskListJSON:
			data, err := json.MarshalIndent(tasks, "", "  ")
			if err != nil {
				return fmt.Errorf("formatting tasks as JSON: %w", err)
			}
			fmt.Fprintln(out, string(data))
		case taskListYAML:
			data, err := yaml.Marshal(tasks)
			if err != nil {
				return fmt.Errorf("formatting tasks as YAML: %w", err)
			}
			fmt.Fprint(out, string(data))
		default:
			printTaskTable(out, tasks)
		}
		return nil
	},
}

// buildTaskFilter turns the list flags into a storage filter, rejecting
// unknown statuses and priorities.
func buildTaskFilter(cmd *cobra.Command) (storage.TaskFilter, error) {
	var filter storage.TaskFilter
	for _, s := range taskListStatus {
		status := models.TaskStatus(strings.ToLower(strings.TrimSpace(s)))
		if !status.Valid() {
			return filter, fmt.Errorf("invalid status %q: must be one of todo, inprogress, review, done", s)
		}
		filter.Status = append(filter.Status, status)
	}
	for _, p := range taskListPriority {
		priority := models.Priority(strings.ToLower(strings.TrimSpace(p)))
		if !priority.Valid() {
			return filter, fmt.Errorf("invalid priority %q: must be one of low, medium, high, critical", p)
		}
		filter.Priority = append(filter.Priority, priority)
	}
	filter.Assignee = taskListAssignee
	filter.SprintID = taskListSprint
	if cmd.Flags().Changed("blocked") {
		blocked := taskListBlocked
		filter.Blocked = &blocked
	}
	return filter, nil
}

func printTaskTable(out io.Writer, tasks []models.Task) {
	if len(tasks) == 0 {
		fmt.Fprintln(out, "No tasks found.")
		return
	}

	fmt.Fprintf(out, "%-10s %-36s %-11s %-9s %-8s %s\n", "ID", "TITLE", "STATUS", "PRIORITY", "ASSIGNEE", "POINTS")
	for _, t := range tasks {
		title := t.Title
		if t.IsBlocked {
			title = "⛔ " + title
		}
		if len([]rune(title)) > 36 {
			title = string([]rune(title)[:35]) + "…"
		}
		fmt.Fprintf(out, "%-10s %-36s %-11s %-9s %-8s %d\n",
			shortID(t.ID), title, t.Status, t.Priority, orDash(t.Assignee), t.StoryPoints)
	}
	fmt.Fprintf(out, "\n%d task(s)\n", len(tasks))
}

func shortID(id string) string {
	if len(id) > 10 {
		return id[:10]
	}
	return id
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}

var taskMoveCmd = &cobra.Command{
	Use:   "move <task-id> <status>",
	Short: "Move a task to another column",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		status := models.TaskStatus(strings.ToLower(args[1]))
		if !status.Valid() {
			return fmt.Errorf("invalid status %q: must be one of todo, inprogress, review, done", args[1])
		}
		return runTaskAction(cmd.OutOrStdout(), models.TaskAction{
			Kind:    models.ActionUpdateTask,
			TaskID:  args[0],
			Updates: models.TaskUpdate{Status: status},
		})
	},
}

var (
	taskCreatePriority string
	taskCreatePoints   int
	taskCreateAssignee string
	taskCreateTags     []string
)

var taskCreateCmd = &cobra.Command{
	Use:   "create <title>",
	Short: "Create a task in the todo column",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		u := models.TaskUpdate{
			Title:    strings.Join(args, " "),
			Assignee: taskCreateAssignee,
			Tags:     taskCreateTags,
		}
		if taskCreatePriority != "" {
			p := models.Priority(strings.ToLower(taskCreatePriority))
			if !p.Valid() {
				return fmt.Errorf("invalid priority %q: must be one of low, medium, high, critical", taskCreatePriority)
			}
			u.Priority = p
		}
		if cmd.Flags().Changed("points") {
			if taskCreatePoints < 0 {
				return fmt.Errorf("invalid --points %d: story points must not be negative", taskCreatePoints)
			}
			points := taskCreatePoints
			u.StoryPoints = &points
		}
		return runTaskAction(cmd.OutOrStdout(), models.TaskAction{Kind: models.ActionCreateTask, Updates: u})
	},
}

var taskAssignCmd = &cobra.Command{
	Use:   "assign <task-id> <assignee>",
	Short: "Assign a task to a team member",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runTaskAction(cmd.OutOrStdout(), models.TaskAction{
			Kind:    models.ActionAssignTask,
			TaskID:  args[0],
			Updates: models.TaskUpdate{Assignee: args[1]},
		})
	},
}

var taskBlockCmd = &cobra.Command{
	Use:   "block <task-id>",
	Short: "Flag a task as blocked",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runTaskAction(cmd.OutOrStdout(), models.TaskAction{
			Kind:   models.ActionMarkBlocker,
			TaskID: args[0],
		})
	},
}

// runTaskAction applies action through the shared executor and prints the
// confirmation.
func runTaskAction(out io.Writer, action models.TaskAction) error {
	if ActionExec == nil {
		return fmt.Errorf("action executor not initialized")
	}
	conf, err := ActionExec.Execute(action)
	if err != nil {
		return err
	}
	if conf == nil {
		fmt.Fprintln(out, "Nothing to apply.")
		return nil
	}
	fmt.Fprintf(out, "✓ %s: %s\n", conf.Title, conf.Message)
	if conf.Task != nil {
		fmt.Fprintf(out, "  ID:       %s\n", conf.Task.ID)
		fmt.Fprintf(out, "  Status:   %s\n", conf.Task.Status)
		fmt.Fprintf(out, "  Assignee: %s\n", orDash(conf.Task.Assignee))
	}
	return nil
}

func init() {
	taskListCmd.Flags().StringSliceVar(&taskListStatus, "status", nil, "Filter by status (todo, inprogress, review, done)")
	taskListCmd.Flags().StringSliceVar(&taskListPriority, "priority", nil, "Filter by priority (low, medium, high, critical)")
	taskListCmd.Flags().StringVar(&taskListAssignee, "assignee", "", "Filter by assignee")
	taskListCmd.Flags().StringVar(&taskListSprint, "sprint", "", "Filter by sprint id")
	taskListCmd.Flags().BoolVar(&taskListBlocked, "blocked", false, "Only blocked tasks (--blocked=false for unblocked)")
	taskListCmd.Flags().BoolVar(&taskListYAML, "yaml", false, "Output tasks as YAML")
	taskListCmd.Flags().BoolVar(&taskListJSON, "json", false, "Output tasks as JSON")

	taskCreateCmd.Flags().StringVar(&taskCreatePriority, "priority", "", "Task priority (defaults to tasks.default_priority)")
	taskCreateCmd.Flags().IntVar(&taskCreatePoints, "points", 0, "Story points (defaults to tasks.default_story_points)")
	taskCreateCmd.Flags().StringVar(&taskCreateAssignee, "assignee", "", "Assignee (defaults to your initials)")
	taskCreateCmd.Flags().StringSliceVar(&taskCreateTags, "tags", nil, "Comma-separated tags")

	taskCmd.AddCommand(taskListCmd)
	taskCmd.AddCommand(taskMoveCmd)
	taskCmd.AddCommand(taskCreateCmd)
	taskCmd.AddCommand(taskAssignCmd)
	taskCmd.AddCommand(taskBlockCmd)
	registerTaskCompletions()
	rootCmd.AddCommand(taskCmd)
}
