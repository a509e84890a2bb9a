package interp

import (
	"fmt"
	"io"
	"sort"

	"github.com/josephlewis42/hooksh/core/logger"
	"github.com/josephlewis42/hooksh/core/vos"
)

// Builtin is a command implemented inside the interpreter.
type Builtin interface {
	Main(bc *Context) ExecuteResult
}

// BuiltinFunc adapts a function to the Builtin interface.
type BuiltinFunc func(bc *Context) ExecuteResult

// Main implements Builtin.
func (f BuiltinFunc) Main(bc *Context) ExecuteResult {
	return f(bc)
}

// Registry maps command names to builtins. It's never modified while scripts
// run.
type Registry map[string]Builtin

// Lookup returns the builtin with the given name.
func (r Registry) Lookup(name string) (Builtin, bool) {
	b, ok := r[name]
	return b, ok
}

// Names returns the sorted builtin names.
func (r Registry) Names() []string {
	var out []string
	for name := range r {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

// Without returns a copy of the registry without the named builtins.
func (r Registry) Without(names ...string) Registry {
	out := make(Registry, len(r))
	for name, b := range r {
		out[name] = b
	}
	for _, name := range names {
		delete(out, name)
	}
	return out
}

// Context is handed to a builtin when it runs.
type Context struct {
	// Args holds the command line, Args[0] is the name the builtin was invoked
	// with.
	Args []string

	Stdin  io.Reader
	Stdout io.Writer
	Stderr io.Writer

	state *State
}

// State is a read-only view of the shell state. Builtins change the state by
// returning EnvChanges.
func (bc *Context) State() *State {
	return bc.state
}

// HostStdin is the stdin the top-level invocation was started with, which
// is what xargs-like builtins hand to the commands they run.
func (bc *Context) HostStdin() io.Reader {
	return bc.state.hostStdin
}

// Execute runs argv as a single command, a builtin or an external program,
// in a copy of the current state. An exit inside it only ends that command.
func (bc *Context) Execute(argv []string, stdio vos.Stdio) ExecuteResult {
	if len(argv) == 0 {
		return Continue(0)
	}
	ec := execContext{stdin: stdio.Stdin, stdout: stdio.Stdout, stderr: stdio.Stderr}
	res := bc.state.Clone().runArgs(ec, argv, nil)
	res.Changes = nil
	return res.contained()
}

// Errorf writes a message prefixed with the command name to stderr.
func (bc *Context) Errorf(format string, args ...interface{}) {
	fmt.Fprintf(bc.Stderr, "%s: %s\n", bc.Args[0], fmt.Sprintf(format, args...))
}

// LogInvalidInvocation records that the builtin was called with arguments it
// doesn't understand.
func (bc *Context) LogInvalidInvocation(err error) {
	bc.state.record(&logger.Event{
		Type:     logger.InvalidInvocation,
		Command:  bc.Args,
		Error:    err.Error(),
		ExitCode: 1,
	})
}
