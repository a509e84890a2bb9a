package commands

import (
	"fmt"

	"github.com/josephlewis42/hooksh/core/interp"
)

// Pwd prints the working directory.
func Pwd(bc *interp.Context) interp.ExecuteResult {
	cmd := &SimpleCommand{
		Use:   "pwd",
		Short: "Print the name of the current working directory.",
	}

	return code(cmd.Run(bc, func() int {
		if len(cmd.Flags().Args()) > 0 {
			bc.Errorf("too many arguments")
			return 1
		}

		fmt.Fprintln(bc.Stdout, bc.State().Cwd())
		return 0
	}))
}

func init() {
	addBuiltin("pwd", Pwd)
}
