package commands

import (
	"fmt"
	"io"
	"strings"

	"github.com/anmitsu/go-shlex"
	"github.com/josephlewis42/hooksh/core/interp"
	"github.com/josephlewis42/hooksh/core/vos"
)

// Xargs builds a command line from stdin and runs it.
//
// https://pubs.opengroup.org/onlinepubs/9699919799.2018edition/utilities/xargs.html
func Xargs(bc *interp.Context) interp.ExecuteResult {
	cmd := &SimpleCommand{
		Use:   "xargs [OPTION...] [COMMAND [INITIAL-ARGS...]]",
		Short: "Run COMMAND with arguments INITIAL-ARGS and more arguments read from input.",
	}

	noRunIfEmpty := cmd.Flags().BoolLong("no-run-if-empty", 'r', "don't run the command if the input is empty")
	verbose := cmd.Flags().BoolLong("verbose", 't', "print the command line on stderr before running it")

	return code(cmd.Run(bc, func() int {
		argv := cmd.Flags().Args()
		if len(argv) == 0 {
			argv = []string{"echo"}
		}

		input, err := io.ReadAll(bc.Stdin)
		if err != nil {
			bc.Errorf("reading input: %v", err)
			return 1
		}

		extra, err := shlex.Split(string(input), true)
		if err != nil {
			bc.Errorf("%v", err)
			bc.LogInvalidInvocation(err)
			return 1
		}
		if len(extra) == 0 && *noRunIfEmpty {
			return 0
		}

		argv = append(append([]string(nil), argv...), extra...)
		if *verbose {
			fmt.Fprintln(bc.Stderr, strings.Join(argv, " "))
		}

		// The pipe that fed xargs is exhausted, the command gets the stdin the
		// script started with.
		res := bc.Execute(argv, vos.NewStdio(bc.HostStdin(), bc.Stdout, bc.Stderr))
		return res.ExitCode
	}))
}

func init() {
	addBuiltin("xargs", Xargs)
}
