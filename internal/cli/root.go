package cli

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/valter-silva-au/scrum-assistant/internal/core"
	"github.com/valter-silva-au/scrum-assistant/internal/observability"
)

var (
	appVersion = "dev"
	appCommit  = "none"
	appDate    = "unknown"
)

// SetVersionInfo sets the version information injected via ldflags.
func SetVersionInfo(version, commit, date string) {
	appVersion = version
	appCommit = commit
	appDate = date
}

var rootCmd = &cobra.Command{
	Use:   "scrum",
	Short: "AI Scrum Master - a chat assistant for your sprint board",
	Long: `scrum is a conversational assistant for a scrum board. Ask it about sprint
progress, blockers and team workload, or tell it to move and create tasks.

Run "scrum chat" for the interactive assistant or "scrum ask" for one-off
questions from scripts.`,
	SilenceUsage: true,
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintf(cmd.OutOrStdout(), "scrum %s\ncommit: %s\nbuilt:  %s\n", appVersion, appCommit, appDate)
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

// commandContext returns the command's context, or Background when the
// command is run directly.
func commandContext(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}

// thinkingDelay is the pause before the assistant answers.
func thinkingDelay() time.Duration {
	if Config == nil {
		return core.DefaultGlobalConfig().ThinkingDelay
	}
	return Config.ThinkingDelay
}

// sleepContext waits for d or until ctx is done.
func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// loadBoardState reads the current snapshot in the shape the alert engine
// evaluates.
func loadBoardState() (core.Snapshot, observability.BoardState, error) {
	if Board == nil {
		return core.Snapshot{}, observability.BoardState{}, fmt.Errorf("board not initialized")
	}
	snap, err := Board.Snapshot()
	if err != nil {
		return core.Snapshot{}, observability.BoardState{}, fmt.Errorf("loading board: %w", err)
	}
	return snap, observability.BoardState{Tasks: snap.Tasks, Blockers: snap.Blockers, Sprint: snap.Sprint}, nil
}
