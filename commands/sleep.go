package commands

import (
	"strconv"
	"time"

	"github.com/josephlewis42/hooksh/core/interp"
)

// Sleep pauses for the given number of seconds. It returns early, with
// 128+signal, if the script is killed.
func Sleep(bc *interp.Context) interp.ExecuteResult {
	cmd := &SimpleCommand{
		Use:   "sleep SECONDS",
		Short: "Pause for SECONDS, which may be fractional.",
	}

	return code(cmd.Run(bc, func() int {
		args := cmd.Flags().Args()
		if len(args) != 1 {
			bc.Errorf("expected one operand, got %d", len(args))
			return 1
		}

		seconds, err := strconv.ParseFloat(args[0], 64)
		if err != nil || seconds < 0 {
			bc.Errorf("invalid time interval %q", args[0])
			if err != nil {
				bc.LogInvalidInvocation(err)
			}
			return 1
		}

		timer := time.NewTimer(time.Duration(seconds * float64(time.Second)))
		defer timer.Stop()

		kill := bc.State().KillSignal()
		select {
		case <-timer.C:
			return 0
		case <-kill.Done():
			sig, _ := kill.Fired()
			return 128 + int(sig)
		}
	}))
}

func init() {
	addBuiltin("sleep", Sleep)
}
