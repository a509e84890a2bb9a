package commands

import (
	"github.com/josephlewis42/hooksh/core/interp"
)

// Wait blocks until the background jobs started so far have finished. It
// returns early, with 128+signal, if the script is killed.
func Wait(bc *interp.Context) interp.ExecuteResult {
	cmd := &SimpleCommand{
		Use:   "wait",
		Short: "Wait for background jobs to finish.",
	}

	return code(cmd.Run(bc, func() int {
		if args := cmd.Flags().Args(); len(args) > 0 {
			bc.Errorf("job operands are not supported")
			return 2
		}

		kill := bc.State().KillSignal()
		for _, job := range bc.State().Jobs() {
			select {
			case <-job.Done():
			case <-kill.Done():
				sig, _ := kill.Fired()
				return 128 + int(sig)
			}
		}
		return 0
	}))
}

func init() {
	addBuiltin("wait", Wait)
}
