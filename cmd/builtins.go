package cmd

import (
	"fmt"

	"github.com/josephlewis42/hooksh/commands"
	"github.com/spf13/cobra"
)

var builtinsCmd = &cobra.Command{
	Use:   "builtins",
	Short: "List the builtin commands, marking ones the config disables.",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		enabled := enabledBuiltins(cfg)

		for _, entry := range commands.ListBuiltins() {
			if _, ok := enabled.Lookup(entry.Name); ok {
				fmt.Fprintln(cmd.OutOrStdout(), entry.Name)
			} else {
				fmt.Fprintf(cmd.OutOrStdout(), "%s (disabled)\n", entry.Name)
			}
		}

		return nil
	},
}

func init() {
	rootCmd.AddCommand(builtinsCmd)
}
