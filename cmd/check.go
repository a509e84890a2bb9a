package cmd

import (
	"github.com/josephlewis42/hooksh/core/shell"
	"github.com/spf13/cobra"
)

var checkScript scriptSource

// checkCmd parses a script without running it.
var checkCmd = &cobra.Command{
	Use:   "check [-c SCRIPT | FILE]",
	Short: "Check a script's syntax and print its parse tree.",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cmd.SilenceUsage = true

		script, err := checkScript.Read(cmd, args)
		if err != nil {
			return err
		}

		list, err := shell.Parse(script)
		if err != nil {
			return err
		}

		shell.Dump(cmd.OutOrStdout(), list)
		return nil
	},
}

func init() {
	checkScript.addFlags(checkCmd)
	rootCmd.AddCommand(checkCmd)
}
