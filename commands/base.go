package commands

import (
	"fmt"
	"io"
	"sort"

	"github.com/josephlewis42/hooksh/core/interp"
	getopt "github.com/pborman/getopt/v2"
)

// AllBuiltins holds every registered builtin.
var AllBuiltins = make(interp.Registry)

// addBuiltin registers a builtin, names must be unique.
func addBuiltin(name string, b interp.BuiltinFunc) {
	if _, ok := AllBuiltins[name]; ok {
		panic(fmt.Sprintf("builtin %q registered twice", name))
	}
	AllBuiltins[name] = b
}

// BuiltinEntry describes a builtin for listings.
type BuiltinEntry struct {
	Name    string
	Builtin interp.Builtin
}

// ListBuiltins returns the registered builtins sorted by name.
func ListBuiltins() []BuiltinEntry {
	var out []BuiltinEntry
	for name, b := range AllBuiltins {
		out = append(out, BuiltinEntry{Name: name, Builtin: b})
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].Name < out[j].Name
	})
	return out
}

type SimpleCommand struct {
	// Use holds a one line usage string
	Use string
	// Short holds a one line description of the command.
	Short string
	// ShowHelp sets whether help is displayed or not.
	// If this is non-nil when Run() is called, then the default help flag isn't
	// added.
	ShowHelp *bool
	// NeverBail skips interacting with stdout/stderr on failure and
	// always runs the callback.
	NeverBail bool

	flags *getopt.Set
}

// Flags gets the command's flag set.
func (s *SimpleCommand) Flags() *getopt.Set {
	if s.flags == nil {
		s.flags = getopt.New()
	}

	return s.flags
}

// PrintHelp writes help for the command to the given writer.
func (s *SimpleCommand) PrintHelp(w io.Writer) {
	fmt.Fprint(w, "usage: ")
	fmt.Fprintln(w, s.Use)
	fmt.Fprintln(w, s.Short)
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Flags:")
	s.Flags().PrintOptions(w)
}

// Run the command, if flag parsing was successful call the callback.
func (s *SimpleCommand) Run(bc *interp.Context, callback func() int) int {
	opts := s.Flags()

	// Add help flag if not overridden.
	if s.ShowHelp == nil {
		s.ShowHelp = opts.BoolLong("help", 'h', "show this help and exit")
	}

	err := opts.Getopt(bc.Args, nil)
	if err != nil {
		bc.LogInvalidInvocation(err)
	}

	if err != nil && !s.NeverBail {
		fmt.Fprintf(bc.Stderr, "error: %s\n\n", err)

		s.PrintHelp(bc.Stderr)
		return 1
	}

	if *s.ShowHelp {
		s.PrintHelp(bc.Stdout)
		return 0
	}

	return callback()
}

// RunEachArg runs the callback for every positional argument. Errors are
// printed prefixed with the command name and make the command exit 1, but
// don't stop later arguments from running.
func (s *SimpleCommand) RunEachArg(bc *interp.Context, callback func(string) error) int {
	return s.Run(bc, func() int {
		anyFailed := false
		for _, arg := range s.Flags().Args() {
			if err := callback(arg); err != nil {
				bc.Errorf("%v", err)
				anyFailed = true
			}
		}

		if anyFailed {
			return 1
		}
		return 0
	})
}

// code wraps an exit code in a result that lets the script continue.
func code(c int) interp.ExecuteResult {
	return interp.Continue(c)
}
