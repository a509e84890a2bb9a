package interp

import (
	"context"
	"io"

	"github.com/josephlewis42/hooksh/core/logger"
	"github.com/josephlewis42/hooksh/core/shell"
	"github.com/josephlewis42/hooksh/core/vos"
	"github.com/spf13/afero"
)

// RunOptions configures Run.
type RunOptions struct {
	// Dir is the absolute working directory.
	Dir string
	// Env is the initial environment in KEY=value form.
	Env []string
	// Builtins are the commands implemented in process.
	Builtins Registry

	Stdin  io.Reader
	Stdout io.Writer
	Stderr io.Writer

	// Fs overrides the filesystem, defaults to the OS filesystem.
	Fs afero.Fs
	// Events receives command events, nil disables them.
	Events *logger.SessionLogger
	// KillSignal overrides the root signal, e.g. to wire it to OS signals.
	KillSignal *vos.KillSignal
	// Tracker overrides the process tracker.
	Tracker *vos.Tracker
	// Name prefixes error messages, defaults to DefaultName.
	Name string
}

// NewStateFromOptions creates a State configured from the options.
func NewStateFromOptions(opts RunOptions) *State {
	state := NewState(opts.Dir, opts.Env, opts.Builtins)
	if opts.Fs != nil {
		state.SetFs(opts.Fs)
	}
	if opts.KillSignal != nil {
		state.SetKillSignal(opts.KillSignal)
	}
	if opts.Tracker != nil {
		state.SetTracker(opts.Tracker)
	}
	if opts.Name != "" {
		state.SetName(opts.Name)
	}
	state.SetEventLogger(opts.Events)
	return state
}

// Run parses the script and executes it. Syntax errors are returned as
// *shell.ParseError before anything runs.
func Run(ctx context.Context, script string, opts RunOptions) (int, error) {
	list, err := shell.Parse(script)
	if err != nil {
		return 2, err
	}

	state := NewStateFromOptions(opts)
	return Execute(ctx, list, state, vos.NewStdio(opts.Stdin, opts.Stdout, opts.Stderr))
}
