// Package interptest runs builtins and scripts against an in-memory
// filesystem with a fixed environment.
package interptest

import (
	"bytes"
	"context"
	"io"
	"sync"
	"time"

	"github.com/josephlewis42/hooksh/core/interp"
	"github.com/josephlewis42/hooksh/core/logger"
	"github.com/josephlewis42/hooksh/core/shell"
	"github.com/josephlewis42/hooksh/core/vos"
	"github.com/spf13/afero"
)

const (
	// DefaultDir is the working directory commands start in.
	DefaultDir = "/home/user"
)

// DefaultEnv is the environment commands start with.
func DefaultEnv() []string {
	return []string{
		"HOME=/home/user",
		"PATH=/usr/bin:/bin",
		"USER=user",
	}
}

// TimeSource returns Go's reference time with a different value in each
// position.
func TimeSource() time.Time {
	return time.Date(2006, 1, 2, 3, 4, 5, 0, time.UTC)
}

// EventLog collects events in memory.
type EventLog struct {
	mu     sync.Mutex
	events []logger.Event
}

// Session returns a session logger writing to the log.
func (l *EventLog) Session() *logger.SessionLogger {
	lg := &logger.Logger{
		Record: func(e *logger.Event) error {
			l.mu.Lock()
			defer l.mu.Unlock()
			l.events = append(l.events, *e)
			return nil
		},
		TimeSource: TimeSource,
	}
	return lg.NamedSession("test")
}

// Events returns a copy of the recorded events.
func (l *EventLog) Events() []logger.Event {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]logger.Event(nil), l.events...)
}

// Types returns the type of every recorded event in order.
func (l *EventLog) Types() []logger.EventType {
	var out []logger.EventType
	for _, e := range l.Events() {
		out = append(out, e.Type)
	}
	return out
}

// Cmd is similar to exec.Cmd but runs a single builtin through the
// interpreter.
type Cmd struct {
	// Builtin to run, registered under Argv[0].
	Builtin interp.Builtin
	// Argv is the command line, the first argument should be the builtin name.
	Argv []string
	// Dir is the working directory, DefaultDir if empty. It's created if it
	// doesn't exist.
	Dir string
	// Env is the environment, DefaultEnv if nil.
	Env []string
	// Fs is the filesystem, a new in-memory filesystem if nil.
	Fs afero.Fs

	Stdin  io.Reader
	Stdout io.Writer
	Stderr io.Writer

	// ExitStatus is set after Run.
	ExitStatus int
	// State is the shell state after Run with the builtin's changes applied.
	State *interp.State
	// Events holds the events recorded during Run.
	Events EventLog

	// Setup is called with the filesystem before the builtin runs.
	Setup func(afero.Fs) error
}

// Command creates a Cmd for the builtin.
func Command(builtin interp.Builtin, name string, arg ...string) *Cmd {
	return &Cmd{
		Builtin: builtin,
		Argv:    append([]string{name}, arg...),
	}
}

// CombinedOutput runs the command and returns stdout and stderr interleaved.
func (c *Cmd) CombinedOutput() ([]byte, error) {
	buf := &vos.CaptureBuffer{}
	c.Stdout = buf
	c.Stderr = buf

	if err := c.Run(); err != nil {
		return nil, err
	}
	return []byte(buf.String()), nil
}

// Output runs the command and returns its stdout.
func (c *Cmd) Output() ([]byte, error) {
	buf := &bytes.Buffer{}
	c.Stdout = buf

	if err := c.Run(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// Run starts the command and waits for it to complete.
func (c *Cmd) Run() error {
	state, err := NewState(c.Fs, c.Dir, c.Env, interp.Registry{c.Argv[0]: c.Builtin})
	if err != nil {
		return err
	}
	state.SetEventLogger(c.Events.Session())

	if c.Setup != nil {
		if err := c.Setup(state.Fs()); err != nil {
			return err
		}
	}

	cmd := &shell.SimpleCommand{}
	for _, arg := range c.Argv {
		cmd.Args = append(cmd.Args, shell.Word{shell.Text(arg)})
	}
	list := &shell.SequentialList{
		Items: []shell.SequentialItem{{
			Sequence: &shell.Pipeline{
				Commands: []shell.PipelineCommand{{Command: cmd}},
			},
		}},
	}

	c.ExitStatus, err = interp.Execute(context.Background(), list, state, vos.NewStdio(c.Stdin, c.Stdout, c.Stderr))
	c.State = state
	return err
}

// NewState creates a state on fsys, or a new in-memory filesystem if it's
// nil, with dir created. Empty dir and nil env use the defaults.
func NewState(fsys afero.Fs, dir string, env []string, builtins interp.Registry) (*interp.State, error) {
	if fsys == nil {
		fsys = afero.NewMemMapFs()
	}
	if dir == "" {
		dir = DefaultDir
	}
	if env == nil {
		env = DefaultEnv()
	}
	if err := fsys.MkdirAll(dir, 0755); err != nil {
		return nil, err
	}

	state := interp.NewState(dir, env, builtins)
	state.SetFs(fsys)
	return state, nil
}

// Script runs a script against an in-memory filesystem and returns its exit
// code and combined output.
type Script struct {
	// Builtins available to the script.
	Builtins interp.Registry
	// Fs is the filesystem, a new in-memory filesystem if nil.
	Fs afero.Fs
	// Dir is the working directory, DefaultDir if empty.
	Dir string
	// Env is the environment, DefaultEnv if nil.
	Env   []string
	Stdin io.Reader

	Events EventLog
}

// Run parses and runs the script. Output is stdout and stderr interleaved.
func (s *Script) Run(ctx context.Context, script string) (int, string, error) {
	list, err := shell.Parse(script)
	if err != nil {
		return 2, "", err
	}

	state, err := NewState(s.Fs, s.Dir, s.Env, s.Builtins)
	if err != nil {
		return 1, "", err
	}
	s.Fs = state.Fs()
	state.SetEventLogger(s.Events.Session())

	out := &vos.CaptureBuffer{}
	code, err := interp.Execute(ctx, list, state, vos.NewStdio(s.Stdin, out, out))
	return code, out.String(), err
}
