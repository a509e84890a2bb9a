package cmd

import (
	"os"
	"time"

	"github.com/josephlewis42/hooksh/core/ttylog"
	"github.com/spf13/cobra"
)

var idleTimeLimit time.Duration

// replayCmd plays back output recorded with run --record.
var replayCmd = &cobra.Command{
	Use:   "replay FILE",
	Short: "Replay a script's recorded output in the terminal.",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cmd.SilenceUsage = true
		fd, err := os.Open(args[0])
		if err != nil {
			return err
		}
		defer fd.Close()

		sink := ttylog.NewClientOutput(cmd.OutOrStdout())
		sink = ttylog.NewRealTimePlayback(idleTimeLimit, sink)
		return ttylog.Replay(ttylog.NewAsciicastLogSource(fd), sink)
	},
}

func init() {
	replayCmd.Flags().DurationVarP(&idleTimeLimit, "idle-time-limit", "i", 2*time.Second, "longest pause between outputs, 0 prints without pausing")
	rootCmd.AddCommand(replayCmd)
}
