package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"path/filepath"

	"github.com/abiosoft/readline"
	"github.com/fatih/color"
	"github.com/josephlewis42/hooksh/core/config"
	"github.com/josephlewis42/hooksh/core/interp"
	"github.com/josephlewis42/hooksh/core/shell"
	"github.com/josephlewis42/hooksh/core/vos"
	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"
)

var (
	colorBoldRed   = color.New(color.FgRed, color.Bold)
	colorBoldGreen = color.New(color.FgGreen, color.Bold)
)

// playground is an interactive loop over a single interpreter state, so cd
// and variables carry over between lines.
type playground struct {
	state    *interp.State
	readline *readline.Instance
	stdio    vos.Stdio
	logger   *log.Logger
}

func (p *playground) prompt() string {
	dir := filepath.Base(p.state.Cwd())
	if code := p.state.LastExit(); code != 0 {
		return colorBoldRed.Sprintf("[%d] %s $ ", code, dir)
	}
	return colorBoldGreen.Sprintf("%s $ ", dir)
}

func (p *playground) loop() int {
	for {
		p.readline.SetPrompt(p.prompt())
		line, err := p.readline.Readline()

		switch {
		case err == io.EOF:
			return p.state.LastExit() // Input closed, quit.
		case err == readline.ErrInterrupt:
			// Interrupt clears line.
			continue
		case err != nil:
			p.logger.Printf("Error readline: %v", err)
			continue
		case len(line) == 0:
			continue // empty line
		}

		p.runLine(line)
		if p.state.Exited() {
			return p.state.LastExit()
		}
	}
}

func (p *playground) runLine(line string) {
	list, err := shell.Parse(line)
	if err != nil {
		fmt.Fprintf(p.stdio.Stderr, "%s: %v\n", p.state.Name(), err)
		return
	}

	// Each line gets its own kill signal, ^C only stops the running line.
	p.state.SetKillSignal(vos.NewKillSignal())
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if _, err := interp.Execute(ctx, list, p.state, p.stdio); errors.Is(err, interp.ErrCancelled) {
		fmt.Fprintln(p.stdio.Stderr)
	}
}

func newPlayground(cfg *config.Configuration, dir string, stdio vos.Stdio, logger *log.Logger) (*playground, error) {
	rlCfg := &readline.Config{
		Stdin:  readline.NewCancelableStdin(stdio.Stdin),
		Stdout: stdio.Stdout,
		Stderr: stdio.Stderr,
	}
	if err := rlCfg.Init(); err != nil {
		return nil, err
	}
	rl, err := readline.NewEx(rlCfg)
	if err != nil {
		return nil, err
	}

	state := interp.NewStateFromOptions(interp.RunOptions{
		Dir:      dir,
		Env:      cfg.Environ(os.Environ()),
		Builtins: enabledBuiltins(cfg),
		Name:     cfg.ShellName,
	})
	// Interactive programs need the terminal's foreground process group.
	state.Tracker().SharedProcessGroup = true
	state.Tracker().KillGrace = cfg.KillGrace()

	return &playground{
		state:    state,
		readline: rl,
		stdio:    stdio,
		logger:   logger,
	}, nil
}

// playgroundCmd runs an interactive interpreter for trying out scripts.
var playgroundCmd = &cobra.Command{
	Use:   "playground",
	Short: "Run an interactive shell for trying out hook scripts.",
	Args:  cobra.ExactArgs(0),
	RunE: func(cmd *cobra.Command, args []string) error {
		cmd.SilenceUsage = true
		playgroundLogger := log.New(cmd.ErrOrStderr(), "[playground] ", 0)

		if !isatty.IsTerminal(os.Stdin.Fd()) && !isatty.IsCygwinTerminal(os.Stdin.Fd()) {
			return errors.New("playground needs a terminal, use run for scripts")
		}

		cfg, err := loadConfig()
		if err != nil {
			return err
		}

		dir, err := os.Getwd()
		if err != nil {
			return err
		}

		pg, err := newPlayground(cfg, dir, vos.NewStdio(os.Stdin, cmd.OutOrStdout(), cmd.ErrOrStderr()), playgroundLogger)
		if err != nil {
			return err
		}
		defer pg.readline.Close()

		playgroundLogger.Println("Type exit or press ^D to quit.")
		if code := pg.loop(); code != 0 {
			cmd.SilenceErrors = true
			return exitError(code)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(playgroundCmd)
}
