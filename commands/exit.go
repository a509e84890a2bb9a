package commands

import (
	"strconv"

	"github.com/josephlewis42/hooksh/core/interp"
)

// Exit stops the script. Without an argument the exit code is the code of the
// previous sequence.
func Exit(bc *interp.Context) interp.ExecuteResult {
	args := bc.Args[1:]
	switch len(args) {
	case 0:
		return interp.Exit(bc.State().LastExit())
	case 1:
		n, err := strconv.Atoi(args[0])
		if err != nil {
			bc.Errorf("%s: numeric argument required", args[0])
			bc.LogInvalidInvocation(err)
			return interp.Exit(2)
		}
		// Exit codes are a byte wide.
		return interp.Exit(n & 0xff)
	default:
		bc.Errorf("too many arguments")
		return code(1)
	}
}

func init() {
	addBuiltin("exit", Exit)
}
