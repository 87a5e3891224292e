package cli

import (
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/valter-silva-au/scrum-assistant/internal/core"
	"github.com/valter-silva-au/scrum-assistant/pkg/models"
)

var statusFilter string

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Display the board grouped by column",
	Long: `Display the sprint header and every task grouped by board column.

Optionally show a single column with --filter (e.g. --filter inprogress).`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		snap, _, err := loadBoardState()
		if err != nil {
			return err
		}
		out := cmd.OutOrStdout()

		columns := models.Statuses
		if statusFilter != "" {
			status := models.TaskStatus(strings.ToLower(statusFilter))
			if !status.Valid() {
				return fmt.Errorf("invalid status %q: must be one of todo, inprogress, review, done", statusFilter)
			}
			columns = []models.TaskStatus{status}
		}

		s := snap.Sprint
		fmt.Fprintf(out, "%s: %d%% complete (%d/%d points), %d day(s) left, %s\n\n",
			orDefault(s.Name, "Sprint"), core.Percent(s.CompletedPoints, s.TotalPoints),
			s.CompletedPoints, s.TotalPoints, s.DaysRemaining, orDefault(string(s.RiskStatus), "unknown risk"))

		grouped := make(map[models.TaskStatus][]models.Task)
		for _, t := range snap.Tasks {
			grouped[t.Status] = append(grouped[t.Status], t)
		}
		for i, status := range columns {
			if i > 0 {
				fmt.Fprintln(out)
			}
			printStatusGroup(out, status, grouped[status])
		}
		return nil
	},
}

// printStatusGroup prints a table of tasks under a column heading.
func printStatusGroup(out io.Writer, status models.TaskStatus, tasks []models.Task) {
	fmt.Fprintf(out, "== %s (%d) ==\n", strings.ToUpper(string(status)), len(tasks))
	if len(tasks) == 0 {
		fmt.Fprintln(out, "  (empty)")
		return
	}
	for _, t := range tasks {
		flag := ""
		if t.IsBlocked {
			flag = "  [blocked]"
		}
		fmt.Fprintf(out, "  %-6s %-9s %-4s %2dpt  %s%s\n", shortID(t.ID), t.Priority, orDash(t.Assignee), t.StoryPoints, t.Title, flag)
	}
}

func orDefault(s, fallback string) string {
	if s == "" {
		return fallback
	}
	return s
}

func init() {
	statusCmd.Flags().StringVar(&statusFilter, "filter", "", "Show a single column (todo, inprogress, review, done)")
	_ = statusCmd.RegisterFlagCompletionFunc("filter", completeStatuses)
	rootCmd.AddCommand(statusCmd)
}
