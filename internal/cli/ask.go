package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"strings"

	"github.com/spf13/cobra"

	"github.com/valter-silva-au/scrum-assistant/internal/core"
	"github.com/valter-silva-au/scrum-assistant/pkg/models"
)

var (
	askDryRun bool
	askQuick  int
	askJSON   bool
)

// askResult is the --json shape of an answer.
type askResult struct {
	Intent       string             `json:"intent"`
	Response     string             `json:"response"`
	Confidence   float64            `json:"confidence"`
	Reasoning    string             `json:"reasoning,omitempty"`
	Action       *models.TaskAction `json:"action,omitempty"`
	Confirmation string             `json:"confirmation,omitempty"`
	ActionError  string             `json:"action_error,omitempty"`
}

var askCmd = &cobra.Command{
	Use:   "ask [message]",
	Short: "Ask the assistant a single question",
	Long: `Send one message to the assistant and print its reply.

Any action the reply carries (moving or creating a task, flagging a blocker)
is applied to the board unless --dry-run is given. Use --quick N to send the
Nth quick action instead of a typed message:

  1  Show sprint progress
  2  What are the blockers?
  3  Show team performance
  4  Any recommendations?
  5  Mark a blocker`,
	RunE: func(cmd *cobra.Command, args []string) error {
		raw, err := askMessage(args)
		if err != nil {
			return err
		}

		ctx := commandContext(cmd)
		if err := sleepContext(ctx, thinkingDelay()); err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		if askDryRun {
			return askDry(out, raw)
		}

		if Chat == nil {
			return fmt.Errorf("assistant not initialized")
		}
		turn, err := Chat.Submit(ctx, raw)
		if err != nil {
			if errors.Is(err, core.ErrEmptyInput) {
				return fmt.Errorf("nothing to ask: message is empty")
			}
			return fmt.Errorf("asking assistant: %w", err)
		}

		res := askResult{
			Intent:     string(turn.Intent.Kind()),
			Response:   turn.Assistant.Content,
			Confidence: turn.Assistant.Confidence,
			Reasoning:  turn.Assistant.Reasoning,
			Action:     turn.Assistant.Action,
		}
		if turn.Confirmation != nil {
			res.Confirmation = fmt.Sprintf("%s: %s", turn.Confirmation.Title, turn.Confirmation.Message)
		}
		if turn.ActionErr != nil {
			res.ActionError = turn.ActionErr.Error()
		}

		if err := printAskResult(out, res); err != nil {
			return err
		}
		if turn.ActionErr != nil {
			return fmt.Errorf("applying %s: %w", turn.Assistant.Action.Kind, turn.ActionErr)
		}
		return nil
	},
}

// askMessage resolves the message from --quick or the positional args.
func askMessage(args []string) (string, error) {
	if askQuick != 0 {
		if askQuick < 1 || askQuick > len(core.QuickActions) {
			return "", fmt.Errorf("--quick must be between 1 and %d", len(core.QuickActions))
		}
		return core.QuickActions[askQuick-1].Prompt, nil
	}
	raw := strings.Join(args, " ")
	if _, err := core.Normalize(raw); err != nil {
		return "", fmt.Errorf("nothing to ask: message is empty")
	}
	return raw, nil
}

// askDry answers without touching the board or the conversation log.
func askDry(out io.Writer, raw string) error {
	if Board == nil {
		return fmt.Errorf("board not initialized")
	}
	snap, err := Board.Snapshot()
	if err != nil {
		return fmt.Errorf("loading board: %w", err)
	}
	intent, reply, err := core.Respond(raw, snap)
	if err != nil {
		return fmt.Errorf("asking assistant: %w", err)
	}
	return printAskResult(out, askResult{
		Intent:     string(intent.Kind()),
		Response:   reply.Response,
		Confidence: reply.Confidence,
		Reasoning:  reply.Reasoning,
		Action:     reply.Action,
	})
}

func printAskResult(out io.Writer, res askResult) error {
	if askJSON {
		data, err := json.MarshalIndent(res, "", "  ")
		if err != nil {
			return fmt.Errorf("formatting answer as JSON: %w", err)
		}
		fmt.Fprintln(out, string(data))
		return nil
	}

	fmt.Fprintln(out, res.Response)
	fmt.Fprintf(out, "\n(%s, %d%% confidence)\n", res.Intent, int(math.Round(res.Confidence*100)))
	switch {
	case res.Confirmation != "":
		fmt.Fprintf(out, "✓ %s\n", res.Confirmation)
	case res.ActionError != "":
		fmt.Fprintf(out, "✗ %s\n", res.ActionError)
	case res.Action != nil && res.Action.Label != "":
		fmt.Fprintf(out, "Suggested action: %s\n", res.Action.Label)
	}
	return nil
}

func init() {
	askCmd.Flags().BoolVar(&askDryRun, "dry-run", false, "Answer without applying any action to the board")
	askCmd.Flags().IntVar(&askQuick, "quick", 0, "Send quick action N (1-5) instead of a message")
	askCmd.Flags().BoolVar(&askJSON, "json", false, "Output the answer as JSON")
	rootCmd.AddCommand(askCmd)
}
