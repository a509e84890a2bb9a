package commands

import (
	"fmt"
	"sort"
	"strings"

	"github.com/josephlewis42/hooksh/core/interp"
	"github.com/josephlewis42/hooksh/core/shell"
	"github.com/josephlewis42/hooksh/core/vos"
)

// Env prints the environment, with any NAME=VALUE arguments applied.
//
// https://pubs.opengroup.org/onlinepubs/9699919799.2018edition/utilities/env.html
func Env(bc *interp.Context) interp.ExecuteResult {
	cmd := &SimpleCommand{
		Use:   "env [-i] [NAME=VALUE...]",
		Short: "Print the environment for command invocation.",
	}

	ignoreEnv := cmd.Flags().BoolLong("ignore-environment", 'i', "start with an empty environment")

	return code(cmd.Run(bc, func() int {
		env := vos.NewMapEnvFromEnvList(bc.State().Environ())
		if *ignoreEnv {
			env = vos.NewMapEnv()
		}

		for _, arg := range cmd.Flags().Args() {
			name, value, ok := strings.Cut(arg, "=")
			if !ok || !shell.IsValidName(name) {
				bc.Errorf("%q: not a NAME=VALUE pair", arg)
				return 1
			}
			env.Setenv(name, value)
		}

		environ := env.Environ()
		sort.Strings(environ)
		for _, envDef := range environ {
			fmt.Fprintln(bc.Stdout, envDef)
		}

		return 0
	}))
}

func init() {
	addBuiltin("env", Env)
}
