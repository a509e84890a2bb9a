package commands

import (
	"github.com/josephlewis42/hooksh/core/interp"
	"github.com/josephlewis42/hooksh/core/shell"
)

// Unset removes shell and environment variables.
func Unset(bc *interp.Context) interp.ExecuteResult {
	cmd := &SimpleCommand{
		Use:   "unset NAME...",
		Short: "Unset values of shell and environment variables.",
	}

	var changes []interp.EnvChange
	ret := cmd.Run(bc, func() int {
		names := cmd.Flags().Args()
		if len(names) == 0 {
			bc.Errorf("not enough arguments")
			return 1
		}

		for _, name := range names {
			if !shell.IsValidName(name) {
				bc.Errorf("%q: not a valid identifier", name)
				changes = nil
				return 1
			}
			changes = append(changes, interp.UnsetVar{Name: name})
		}
		return 0
	})

	return interp.Continue(ret, changes...)
}

func init() {
	addBuiltin("unset", Unset)
}
