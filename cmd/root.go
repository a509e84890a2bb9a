package cmd

import (
	"errors"
	"fmt"
	"log"
	"os"

	"github.com/josephlewis42/hooksh/commands"
	"github.com/josephlewis42/hooksh/core/config"
	"github.com/josephlewis42/hooksh/core/interp"
	"github.com/spf13/cobra"
)

var cfgPath string

func loadConfig() (*config.Configuration, error) {
	configuration, err := config.LoadOrDefault(cfgPath)
	if err != nil {
		log.Println("Couldn't load config: fix it or run init in an empty directory")
	}

	return configuration, err
}

// enabledBuiltins returns the builtins the configuration allows.
func enabledBuiltins(cfg *config.Configuration) interp.Registry {
	return commands.AllBuiltins.Without(cfg.DisabledBuiltins...)
}

// exitError carries a script's exit code out of a command.
type exitError int

func (e exitError) Error() string {
	return fmt.Sprintf("exit status %d", int(e))
}

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "hooksh",
	Short: "Embedded POSIX-like command interpreter",
	Long: `A small shell for running hook scripts: pipelines, redirects, globbing
and a handful of builtins, without depending on the host's /bin/sh.`,
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	err := rootCmd.Execute()

	var code exitError
	if errors.As(err, &code) {
		os.Exit(int(code))
	}
	cobra.CheckErr(err)
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgPath, "config", ".", "config path")
}
