package cli

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"
)

var teamJSON bool

var teamCmd = &cobra.Command{
	Use:   "team",
	Short: "Show team workload and completion",
	Long: `Show one row per assignee with their story points, completed and
in-progress task counts, and workload band (light under 5 points, optimal
under 13, heavy from 13).`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		snap, _, err := loadBoardState()
		if err != nil {
			return err
		}
		out := cmd.OutOrStdout()

		if teamJSON {
			data, err := json.MarshalIndent(snap.Team, "", "  ")
			if err != nil {
				return fmt.Errorf("formatting team as JSON: %w", err)
			}
			fmt.Fprintln(out, string(data))
			return nil
		}

		if len(snap.Team) == 0 {
			fmt.Fprintln(out, "No tasks assigned.")
			return nil
		}

		fmt.Fprintf(out, "%-10s %6s %6s %7s %7s  %s\n", "ASSIGNEE", "POINTS", "TASKS", "DONE", "ACTIVE", "WORKLOAD")
		for _, m := range snap.Team {
			fmt.Fprintf(out, "%-10s %6d %6d %7d %7d  %s\n",
				m.Assignee, m.TotalPoints, m.Total, m.Completed, m.InProgress, m.Workload)
		}
		return nil
	},
}

func init() {
	teamCmd.Flags().BoolVar(&teamJSON, "json", false, "Output team stats as JSON")
	rootCmd.AddCommand(teamCmd)
}
