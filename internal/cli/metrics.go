package cli

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/spf13/cobra"

	scrummcp "github.com/valter-silva-au/scrum-assistant/internal/mcp"
)

var (
	metricsJSON  bool
	metricsSince string
)

var metricsCmd = &cobra.Command{
	Use:   "metrics",
	Short: "Display assistant and board metrics",
	Long: `Display aggregated metrics derived from the event log.

Metrics include assistant turns by intent, average confidence, proposed
actions, and the task creations, updates and status changes they caused.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if MetricsCalc == nil {
			return fmt.Errorf("metrics calculator not initialized (event log may be disabled)")
		}

		sinceTime, err := parseSinceDuration(metricsSince)
		if err != nil {
			return fmt.Errorf("parsing --since: %w", err)
		}

		metrics, err := MetricsCalc.Calculate(sinceTime)
		if err != nil {
			return fmt.Errorf("calculating metrics: %w", err)
		}

		out := cmd.OutOrStdout()
		if metricsJSON {
			data, err := json.MarshalIndent(metrics, "", "  ")
			if err != nil {
				return fmt.Errorf("formatting metrics as JSON: %w", err)
			}
			fmt.Fprintln(out, string(data))
			return nil
		}

		// Table format.
		fmt.Fprintf(out, "Metrics (since %s)\n\n", sinceTime.Format("2006-01-02"))
		fmt.Fprintf(out, "  %-24s %d\n", "Events recorded:", metrics.EventCount)
		fmt.Fprintf(out, "  %-24s %d\n", "Assistant turns:", metrics.Turns)
		fmt.Fprintf(out, "  %-24s %.2f\n", "Average confidence:", metrics.AverageConfidence)
		fmt.Fprintf(out, "  %-24s %d\n", "Actions proposed:", metrics.ActionsProposed)
		fmt.Fprintf(out, "  %-24s %d\n", "Tasks created:", metrics.TasksCreated)
		fmt.Fprintf(out, "  %-24s %d\n", "Tasks updated:", metrics.TasksUpdated)
		fmt.Fprintf(out, "  %-24s %d\n", "Tasks assigned:", metrics.TasksAssigned)
		fmt.Fprintf(out, "  %-24s %d\n", "Blockers flagged:", metrics.TasksBlocked)

		if top := metrics.TopIntents(); len(top) > 0 {
			fmt.Fprintln(out, "\n  Turns by intent:")
			for _, ic := range top {
				fmt.Fprintf(out, "    %-20s %d\n", ic.Intent+":", ic.Count)
			}
		}

		if len(metrics.StatusChanges) > 0 {
			fmt.Fprintln(out, "\n  Status changes:")
			statuses := make([]string, 0, len(metrics.StatusChanges))
			for status := range metrics.StatusChanges {
				statuses = append(statuses, status)
			}
			sort.Strings(statuses)
			for _, status := range statuses {
				fmt.Fprintf(out, "    %-20s %d\n", status+":", metrics.StatusChanges[status])
			}
		}

		if metrics.OldestEvent != nil {
			fmt.Fprintf(out, "\n  %-24s %s\n", "Oldest event:", metrics.OldestEvent.Format(time.RFC3339))
		}
		if metrics.NewestEvent != nil {
			fmt.Fprintf(out, "  %-24s %s\n", "Newest event:", metrics.NewestEvent.Format(time.RFC3339))
		}

		return nil
	},
}

// parseSinceDuration parses a human-friendly duration string like "7d", "30d",
// or "24h" and returns the corresponding time in the past. Empty means 7d.
func parseSinceDuration(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		s = "7d"
	}
	return scrummcp.ParseSince(s, time.Now().UTC())
}

func init() {
	metricsCmd.Flags().BoolVar(&metricsJSON, "json", false, "Output metrics as JSON")
	metricsCmd.Flags().StringVar(&metricsSince, "since", "7d", "Time window for metrics (e.g. 7d, 30d, 24h)")
	rootCmd.AddCommand(metricsCmd)
}
