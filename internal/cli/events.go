package cli

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/valter-silva-au/scrum-assistant/internal/observability"
)

var (
	eventsType  string
	eventsLevel string
	eventsSince string
	eventsUntil string
	eventsLimit int
	eventsJSON  bool
)

// eventTypes are the event types written by the assistant and the executor.
var eventTypes = []string{
	observability.EventAssistantTurn,
	observability.EventTaskCreated,
	observability.EventTaskUpdated,
	observability.EventTaskStatusChanged,
	observability.EventTaskAssigned,
	observability.EventTaskBlocked,
}

var eventsCmd = &cobra.Command{
	Use:   "events",
	Short: "List recorded events",
	Long: `List events from the event log, oldest first.

--since and --until take durations relative to now (e.g. 7d, 24h). With
--until 1h only events older than one hour are shown. --limit keeps the
most recent N matching events.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if EventLog == nil {
			return fmt.Errorf("event log not initialized")
		}

		filter, err := eventsFilter()
		if err != nil {
			return err
		}
		events, err := EventLog.Read(filter)
		if err != nil {
			return fmt.Errorf("reading events: %w", err)
		}
		if eventsLimit > 0 && len(events) > eventsLimit {
			events = events[len(events)-eventsLimit:]
		}

		out := cmd.OutOrStdout()
		if eventsJSON {
			if events == nil {
				events = []observability.Event{}
			}
			data, err := json.MarshalIndent(events, "", "  ")
			if err != nil {
				return fmt.Errorf("formatting events as JSON: %w", err)
			}
			fmt.Fprintln(out, string(data))
			return nil
		}

		if len(events) == 0 {
			fmt.Fprintln(out, "No events recorded.")
			return nil
		}
		for _, e := range events {
			fmt.Fprintf(out, "%s  %-5s  %-20s  %s\n", e.Time.Format(time.RFC3339), e.Level, e.Type, formatEventData(e.Data))
		}
		return nil
	},
}

// eventsFilter builds the read filter from the command flags.
func eventsFilter() (observability.EventFilter, error) {
	filter := observability.EventFilter{
		Type:  strings.TrimSpace(eventsType),
		Level: strings.ToUpper(strings.TrimSpace(eventsLevel)),
	}

	since, err := parseSinceDuration(eventsSince)
	if err != nil {
		return filter, fmt.Errorf("parsing --since: %w", err)
	}
	filter.Since = &since

	if strings.TrimSpace(eventsUntil) != "" {
		until, err := parseSinceDuration(eventsUntil)
		if err != nil {
			return filter, fmt.Errorf("parsing --until: %w", err)
		}
		if until.Before(since) {
			return filter, fmt.Errorf("--until %s is earlier than --since %s", eventsUntil, eventsSince)
		}
		filter.Until = &until
	}

	switch filter.Level {
	case "", "INFO", "WARN", "ERROR":
	default:
		return filter, fmt.Errorf("invalid --level %q: must be one of info, warn, error", eventsLevel)
	}
	return filter, nil
}

// formatEventData renders data as space separated key=value pairs in key order.
func formatEventData(data map[string]any) string {
	keys := make([]string, 0, len(data))
	for k := range data {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, fmt.Sprintf("%s=%v", k, data[k]))
	}
	return strings.Join(parts, " ")
}

func completeEventTypes(_ *cobra.Command, _ []string, _ string) ([]string, cobra.ShellCompDirective) {
	return eventTypes, cobra.ShellCompDirectiveNoFileComp
}

func init() {
	eventsCmd.Flags().StringVar(&eventsType, "type", "", "Only show events of this type (e.g. task.status_changed)")
	eventsCmd.Flags().StringVar(&eventsLevel, "level", "", "Only show events at this level (info, warn, error)")
	eventsCmd.Flags().StringVar(&eventsSince, "since", "7d", "Show events newer than this (e.g. 7d, 24h)")
	eventsCmd.Flags().StringVar(&eventsUntil, "until", "", "Show events older than this (e.g. 1h)")
	eventsCmd.Flags().IntVar(&eventsLimit, "limit", 0, "Show at most the N most recent events")
	eventsCmd.Flags().BoolVar(&eventsJSON, "json", false, "Output events as JSON")
	_ = eventsCmd.RegisterFlagCompletionFunc("type", completeEventTypes)
	rootCmd.AddCommand(eventsCmd)
}
