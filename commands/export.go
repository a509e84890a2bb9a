package commands

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/josephlewis42/hooksh/core/interp"
	"github.com/josephlewis42/hooksh/core/shell"
	"mvdan.cc/sh/v3/syntax"
)

// Export marks variables for export to the environment of commands, or
// lists the environment if called without arguments.
//
// https://pubs.opengroup.org/onlinepubs/9699919799.2018edition/utilities/V3_chap02.html#export
func Export(bc *interp.Context) interp.ExecuteResult {
	cmd := &SimpleCommand{
		Use:   "export [NAME[=VALUE]...]",
		Short: "Set export attribute for shell variables.",
	}

	// -p is the POSIX spelling of the listing.
	cmd.Flags().Bool('p', "list exported variables")

	var changes []interp.EnvChange
	ret := cmd.Run(bc, func() int {
		state := bc.State()
		args := cmd.Flags().Args()
		if len(args) == 0 {
			for _, kv := range state.Environ() {
				name, value, _ := strings.Cut(kv, "=")
				fmt.Fprintf(bc.Stdout, "export %s=%s\n", name, quoteValue(value))
			}
			return 0
		}

		anyFailed := false
		for _, arg := range args {
			name, value, hasValue := strings.Cut(arg, "=")
			if !shell.IsValidName(name) {
				bc.Errorf("%q: not a valid identifier", arg)
				anyFailed = true
				continue
			}

			if !hasValue {
				// Promote the shell variable, or export an empty one.
				value, _ = state.GetVar(name)
			}
			changes = append(changes, interp.SetEnvVar{Name: name, Value: value})
		}

		if anyFailed {
			return 1
		}
		return 0
	})

	return interp.Continue(ret, changes...)
}

// quoteValue quotes a value so it can be pasted back into a script.
func quoteValue(value string) string {
	quoted, err := syntax.Quote(value, syntax.LangBash)
	if err != nil {
		return strconv.Quote(value)
	}
	return quoted
}

func init() {
	addBuiltin("export", Export)
}
