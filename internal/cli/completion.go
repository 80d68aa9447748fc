package cli

import (
	"github.com/spf13/cobra"
)

// completionCommand creates the completion command for generating shell completions.
// Completion scripts are written to the command's output stream.
func (c *CLI) completionCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "completion [bash|zsh|fish|powershell]",
		Short: "Generate shell completion scripts",
		Long: `Generate shell completion scripts for mindmap.

To load completions:

Bash:
  $ source <(mindmap completion bash)

  # To load completions for each session, execute once:
  # Linux:
  $ mindmap completion bash > /etc/bash_completion.d/mindmap
  # macOS:
  $ mindmap completion bash > $(brew --prefix)/etc/bash_completion.d/mindmap

Zsh:
  # If shell completion is not already enabled in your environment,
  # you will need to enable it. You can execute the following once:
  $ echo "autoload -U compinit; compinit" >> ~/.zshrc

  # To load completions for each session, execute once:
  $ mindmap completion zsh > "${fpath[1]}/_mindmap"

  # You will need to start a new shell for this setup to take effect.

Fish:
  $ mindmap completion fish | source

  # To load completions for each session, execute once:
  $ mindmap completion fish > ~/.config/fish/completions/mindmap.fish

PowerShell:
  PS> mindmap completion powershell | Out-String | Invoke-Expression

  # To load completions for every new session, run:
  PS> mindmap completion powershell > mindmap.ps1
  # and source this file from your PowerShell profile.
`,
		DisableFlagsInUseLine: true,
		ValidArgs:             []string{"bash", "zsh", "fish", "powershell"},
		Args:                  cobra.MatchAll(cobra.ExactArgs(1), cobra.OnlyValidArgs),
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			switch args[0] {
			case "bash":
				return cmd.Root().GenBashCompletionV2(out, true)
			case "zsh":
				return cmd.Root().GenZshCompletion(out)
			case "fish":
				return cmd.Root().GenFishCompletion(out, true)
			case "powershell":
				return cmd.Root().GenPowerShellCompletionWithDesc(out)
			}
			return nil
		},
	}

	return cmd
}

// registerCompletions completes map IDs for every command whose first
// argument is a stored map.
func (c *CLI) registerCompletions(root *cobra.Command) {
	for _, name := range []string{"show", "rename", "layout", "export", "edit"} {
		if cmd, _, err := root.Find([]string{name}); err == nil {
			cmd.ValidArgsFunction = c.completeMapIDs(false)
		}
	}
	if cmd, _, err := root.Find([]string{"rm"}); err == nil {
		cmd.ValidArgsFunction = c.completeMapIDs(true)
	}
	if node, _, err := root.Find([]string{"node"}); err == nil {
		for _, cmd := range node.Commands() {
			cmd.ValidArgsFunction = c.completeMapIDs(false)
		}
	}
}

// completeMapIDs lists stored maps as "<id>\t<title>". Unless every
// argument is a map ID, only the first position is completed.
func (c *CLI) completeMapIDs(every bool) cobra.CompletionFunc {
	return func(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
		if len(args) > 0 && !every {
			return nil, cobra.ShellCompDirectiveNoFileComp
		}
		ctx := cmd.Context()
		st, err := c.openStore(ctx)
		if err != nil {
			return nil, cobra.ShellCompDirectiveError
		}
		defer st.Close()
		maps, err := st.List(ctx)
		if err != nil {
			return nil, cobra.ShellCompDirectiveError
		}
		ids := make([]string, 0, len(maps))
		for _, m := range maps {
			ids = append(ids, m.ID+"\t"+m.Title)
		}
		return ids, cobra.ShellCompDirectiveNoFileComp
	}
}
