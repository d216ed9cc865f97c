// Copyright © 2026 One Concern

package cmd

import (
	"github.com/spf13/cobra"
)

const (
	bash = "bash"
	zsh  = "zsh"
)

func newCompletionCmd(rootCmd *cobra.Command) *cobra.Command {
	return &cobra.Command{
		Use:   "completion SHELL",
		Short: "Generate completions for the mrdev command",
		Long: `Generate completions for your shell

	For bash add the following line to your ~/.bashrc

		eval "$(mrdev completion bash)"

	For zsh generate a file:

		mrdev completion zsh > /usr/local/share/zsh/site-functions/_mrdev
`,
		ValidArgs:         []string{bash, zsh},
		Args:              cobra.MatchAll(cobra.ExactArgs(1), cobra.OnlyValidArgs),
		Hidden:            true,
		PersistentPreRunE: func(*cobra.Command, []string) error { return nil },
		Run: func(cmd *cobra.Command, args []string) {
			var err error
			switch args[0] {
			case bash:
				err = rootCmd.GenBashCompletion(cmd.OutOrStdout())
			case zsh:
				err = rootCmd.GenZshCompletion(cmd.OutOrStdout())
			}
			if err != nil {
				wrapFatalln("failed to generate "+args[0]+" completion", err)
				return
			}
		},
	}
}
