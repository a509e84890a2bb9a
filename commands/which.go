package commands

import (
	"errors"
	"fmt"

	"github.com/josephlewis42/hooksh/core/interp"
)

// Which locates commands.
func Which(bc *interp.Context) interp.ExecuteResult {
	cmd := &SimpleCommand{
		Use:   "which [COMMAND...]",
		Short: "Locate a command.",
	}

	return code(cmd.RunEachArg(bc, func(arg string) error {
		if _, ok := bc.State().Builtins().Lookup(arg); ok {
			fmt.Fprintf(bc.Stdout, "%s: shell builtin\n", arg)
			return nil
		}

		res, err := bc.State().LookPath(arg)
		if err != nil {
			return errors.New("no " + arg + " in PATH")
		}
		fmt.Fprintln(bc.Stdout, res)
		return nil
	}))
}

func init() {
	addBuiltin("which", Which)
}
