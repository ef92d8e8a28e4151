package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

// newCompletionCmd generates shell completion scripts on stdout. It never
// starts the server, so it is safe to run with stdout redirected to a file.
func newCompletionCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "completion [bash|zsh|fish|powershell]",
		Short: "Generate completion script",
		Long: `To load completions:

Bash:
  $ source <(orchestr8-mcp completion bash)

  # To load completions for each session, execute once:
  # Linux:
  $ orchestr8-mcp completion bash > /etc/bash_completion.d/orchestr8-mcp
  # macOS:
  $ orchestr8-mcp completion bash > $(brew --prefix)/etc/bash_completion.d/orchestr8-mcp

Zsh:
  # If shell completion is not already enabled in your environment,
  # you will need to enable it.  You can execute the following once:
  $ echo "autoload -U compinit; compinit" >> ~/.zshrc

  # To load completions for each session, execute once:
  $ orchestr8-mcp completion zsh > "${fpath[1]}/_orchestr8-mcp"

  # You will need to start a new shell for this setup to take effect.

Fish:
  $ orchestr8-mcp completion fish | source

  # To load completions for each session, execute once:
  $ orchestr8-mcp completion fish > ~/.config/fish/completions/orchestr8-mcp.fish

PowerShell:
  PS> orchestr8-mcp completion powershell | Out-String | Invoke-Expression

  # To load completions for every new session, run:
  PS> orchestr8-mcp completion powershell > orchestr8-mcp.ps1
  # and source this file from your PowerShell profile.
`,
		DisableFlagsInUseLine: true,
		ValidArgs:             []string{"bash", "zsh", "fish", "powershell"},
		Args:                  cobra.MatchAll(cobra.ExactArgs(1), cobra.OnlyValidArgs),
		RunE: func(cmd *cobra.Command, args []string) error {
			switch args[0] {
			case "bash":
				return cmd.Root().GenBashCompletionV2(cmd.OutOrStdout(), true)
			case "zsh":
				return cmd.Root().GenZshCompletion(cmd.OutOrStdout())
			case "fish":
				return cmd.Root().GenFishCompletion(cmd.OutOrStdout(), true)
			case "powershell":
				return cmd.Root().GenPowerShellCompletionWithDesc(cmd.OutOrStdout())
			default:
				return fmt.Errorf("unsupported shell type: %s", args[0])
			}
		},
	}

	return cmd
}
