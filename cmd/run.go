package cmd

import (
	"context"
	"errors"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/josephlewis42/hooksh/core/interp"
	"github.com/josephlewis42/hooksh/core/shell"
	"github.com/josephlewis42/hooksh/core/ttylog"
	"github.com/josephlewis42/hooksh/core/vos"
	"github.com/spf13/cobra"
)

var (
	runScript  scriptSource
	runDir     string
	runTimeout time.Duration
	runEvents  string
	runRecord  string
)

// runCmd runs a script and exits with its status.
var runCmd = &cobra.Command{
	Use:   "run [-c SCRIPT | FILE]",
	Short: "Run a script and exit with its status.",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cmd.SilenceUsage = true
		runLogger := log.New(cmd.ErrOrStderr(), "[hooksh] ", 0)

		cfg, err := loadConfig()
		if err != nil {
			return err
		}

		script, err := runScript.Read(cmd, args)
		if err != nil {
			return err
		}

		dir, err := workingDir(runDir)
		if err != nil {
			return err
		}

		eventLog, err := openEventLog(cfg, runEvents)
		if err != nil {
			return err
		}
		if eventLog != nil {
			defer eventLog.Close()
		}

		timeout := cfg.ScriptTimeout()
		if cmd.Flags().Changed("timeout") {
			timeout = runTimeout
		}

		stdout, stderr := cmd.OutOrStdout(), cmd.ErrOrStderr()
		var recorder *ttylog.Recorder
		if runRecord != "" {
			castFd, err := os.Create(runRecord)
			if err != nil {
				return err
			}
			defer castFd.Close()

			recorder = ttylog.NewRecorder(ttylog.NewAsciicastLogSink(castFd, "hooksh run"))
			stdout = recorder.Writer(ttylog.FdStdout, stdout)
			stderr = recorder.Writer(ttylog.FdStderr, stderr)
		}

		kill := vos.NewKillSignal()
		tracker := vos.NewTracker()
		tracker.KillGrace = cfg.KillGrace()
		defer superviseScript(runLogger, kill, timeout)()

		code, err := interp.Run(context.Background(), script, interp.RunOptions{
			Dir:        dir,
			Env:        cfg.Environ(os.Environ()),
			Builtins:   enabledBuiltins(cfg),
			Stdin:      cmd.InOrStdin(),
			Stdout:     stdout,
			Stderr:     stderr,
			Events:     newEventSession(eventLog),
			KillSignal: kill,
			Tracker:    tracker,
			Name:       cfg.ShellName,
		})

		var parseErr *shell.ParseError
		switch {
		case errors.As(err, &parseErr):
			runLogger.Println(parseErr)
		case errors.Is(err, interp.ErrCancelled):
			reapProcesses(runLogger, tracker, cfg.KillGrace())
		}

		if recorder != nil && recorder.Err() != nil {
			runLogger.Printf("Recording failed: %v", recorder.Err())
		}

		if code != 0 {
			cmd.SilenceErrors = true
			return exitError(code)
		}
		return nil
	},
}

// superviseScript forwards SIGINT and SIGTERM to the script's kill signal and
// sends SIGTERM once the timeout passes. A zero timeout never expires.
func superviseScript(logger *log.Logger, kill *vos.KillSignal, timeout time.Duration) func() {
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, os.Interrupt, syscall.SIGTERM)

	var timer *time.Timer
	var expired <-chan time.Time
	if timeout > 0 {
		timer = time.NewTimer(timeout)
		expired = timer.C
	}

	done := make(chan struct{})
	go func() {
		select {
		case sig := <-sigs:
			logger.Printf("Got signal %q, stopping script...", sig)
			if sig == os.Interrupt {
				kill.Send(vos.SigInt)
			} else {
				kill.Send(vos.SigTerm)
			}
		case <-expired:
			logger.Printf("Script timed out after %s, stopping...", timeout)
			kill.Send(vos.SigTerm)
		case <-done:
		}
	}()

	return func() {
		signal.Stop(sigs)
		if timer != nil {
			timer.Stop()
		}
		close(done)
	}
}

// reapProcesses waits for processes that outlived a cancelled script, killing
// any that are still around after the grace period.
func reapProcesses(logger *log.Logger, tracker *vos.Tracker, grace time.Duration) {
	ctx, cancel := context.WithTimeout(context.Background(), grace)
	defer cancel()

	if err := tracker.Wait(ctx); err != nil {
		logger.Printf("%d processes still running after %s, killing...", len(tracker.Running()), grace)
		tracker.KillAll(vos.SigKill)
	}
}

func init() {
	runScript.addFlags(runCmd)
	runCmd.Flags().StringVar(&runDir, "dir", "", "directory to run the script in, defaults to the current one")
	runCmd.Flags().DurationVar(&runTimeout, "timeout", 0, "stop the script after this long, overrides the configured timeout")
	runCmd.Flags().StringVar(&runEvents, "events", "", "append command events to this file instead of the configured log")
	runCmd.Flags().StringVar(&runRecord, "record", "", "record the script's output to an asciicast file")
	rootCmd.AddCommand(runCmd)
}
