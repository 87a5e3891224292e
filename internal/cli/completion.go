package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

// completionHints are the per-shell instructions printed to stderr ahead of
// the script, so that stdout can be piped or eval'd untouched.
var completionHints = map[string][]string{
	"bash": {
		`# Load in the current session:  eval "$(scrum completion bash)"`,
		"# Install for your user:        scrum completion bash > ~/.local/share/bash-completion/completions/scrum",
	},
	"zsh": {
		`# Load in the current session:  eval "$(scrum completion zsh)"`,
		`# Install for your user:        scrum completion zsh > "${fpath[1]}/_scrum"`,
	},
	"fish": {
		"# Load in the current session:  scrum completion fish | source",
		"# Install for your user:        scrum completion fish > ~/.config/fish/completions/scrum.fish",
	},
	"powershell": {
		"# Load in the current session:  scrum completion powershell | Out-String | Invoke-Expression",
		"# Add the same line to your PowerShell profile to keep it.",
	},
}

var completionCmd = &cobra.Command{
	Use:   "completion <shell>",
	Short: "Print shell completions for scrum",
	Long: `Print a tab-completion script for scrum commands, flags, task ids,
columns and assignees.

Supported shells: bash, zsh, fish, powershell`,
	ValidArgs: []string{"bash", "zsh", "fish", "powershell"},
	Args:      cobra.MaximumNArgs(1),
	RunE:      runCompletion,
}

func runCompletion(cmd *cobra.Command, args []string) error {
	if len(args) == 0 {
		return cmd.Help()
	}
	shell := args[0]

	hints, ok := completionHints[shell]
	if !ok {
		return fmt.Errorf("unsupported shell %q (supported: bash, zsh, fish, powershell)", shell)
	}
	for _, line := range hints {
		_, _ = fmt.Fprintln(cmd.ErrOrStderr(), line)
	}

	out := cmd.OutOrStdout()
	switch shell {
	case "bash":
		return rootCmd.GenBashCompletionV2(out, true)
	case "zsh":
		return rootCmd.GenZshCompletion(out)
	case "fish":
		return rootCmd.GenFishCompletion(out, true)
	default:
		return rootCmd.GenPowerShellCompletionWithDesc(out)
	}
}

func init() {
	// Replace Cobra's default completion command with ours.
	rootCmd.CompletionOptions.DisableDefaultCmd = true
	rootCmd.AddCommand(completionCmd)
}
