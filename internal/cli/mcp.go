package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"

	"github.com/spf13/cobra"

	scrummcp "github.com/valter-silva-au/scrum-assistant/internal/mcp"
)

var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "MCP server commands",
	Long:  "Commands for running the scrum MCP (Model Context Protocol) server.",
}

var mcpServeCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the scrum MCP server on stdio",
	Long: `Start the scrum MCP server on stdio transport.

The server exposes the assistant and the board as MCP tools that AI coding
assistants can call: ask, list_tasks, update_task_status, get_sprint_progress,
list_blockers, get_metrics, get_alerts.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if Tasks == nil || Board == nil {
			return fmt.Errorf("board not initialized")
		}

		srv := scrummcp.NewServer(scrummcp.Services{
			Tasks:    Tasks,
			Board:    Board,
			Executor: ActionExec,
			Metrics:  MetricsCalc,
			Alerts:   AlertEngine,
			Events:   EventLog,
		}, appVersion)

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
		defer stop()

		if err := srv.Run(ctx); err != nil {
			return fmt.Errorf("running MCP server: %w", err)
		}

		return nil
	},
}

func init() {
	mcpCmd.AddCommand(mcpServeCmd)
	rootCmd.AddCommand(mcpCmd)
}
