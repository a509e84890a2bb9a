// Package interp executes parsed scripts.
//
// Every list, pipeline stage, background job and command substitution runs
// against its own State. Builtins and nested lists never mutate the state of
// the scope that called them, they return EnvChanges which the engine applies
// at sequence boundaries.
package interp

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os/exec"

	"github.com/josephlewis42/hooksh/core/logger"
	"github.com/josephlewis42/hooksh/core/shell"
	"github.com/josephlewis42/hooksh/core/vos"
	"golang.org/x/sync/errgroup"
)

// ErrCancelled is returned when a script was stopped by its kill signal.
var ErrCancelled = errors.New("script cancelled")

type execContext struct {
	stdin  io.Reader
	stdout io.Writer
	stderr io.Writer
}

// Execute runs the list against the state and returns the exit code of the
// last sequence that ran. Changes are applied to state as the script runs.
// Background jobs are joined before returning.
//
// Cancelling ctx fires the state's kill signal. A script stopped by its kill
// signal returns 128+signal and ErrCancelled.
func Execute(ctx context.Context, list *shell.SequentialList, state *State, stdio vos.Stdio) (int, error) {
	stdio = vos.NewStdio(stdio.Stdin, stdio.Stdout, stdio.Stderr)
	state.hostStdin = stdio.Stdin

	stop := context.AfterFunc(ctx, func() {
		state.kill.Send(vos.SigKill)
	})
	defer stop()

	res := state.runList(execContext{stdin: stdio.Stdin, stdout: stdio.Stdout, stderr: stdio.Stderr}, list)
	waitJobs(res.Jobs)
	state.lastExit = res.ExitCode
	state.exited = res.IsExit()

	if sig, fired := state.kill.Fired(); fired {
		return 128 + int(sig), ErrCancelled
	}
	return res.ExitCode, nil
}

func (s *State) runList(ec execContext, list *shell.SequentialList) ExecuteResult {
	var out ExecuteResult
	for _, item := range list.Items {
		if sig, fired := s.kill.Fired(); fired {
			out.Kind = KindExit
			out.ExitCode = 128 + int(sig)
			return out
		}

		if item.IsAsync {
			job := s.startJob(ec, item.Sequence)
			s.addJobs(job)
			out.Jobs = append(out.Jobs, job)
			out.ExitCode = 0
			s.lastExit = 0
			continue
		}

		res := s.runSequence(ec, item.Sequence)
		s.Apply(res.Changes...)
		s.addJobs(res.Jobs...)
		out.Changes = append(out.Changes, res.Changes...)
		out.Jobs = append(out.Jobs, res.Jobs...)
		out.ExitCode = res.ExitCode
		s.lastExit = res.ExitCode

		if res.IsExit() {
			out.Kind = KindExit
			return out
		}
	}
	return out
}

// startJob runs the sequence in the background on a copy of the state. The
// job reads from the null device unless it redirects its input.
func (s *State) startJob(ec execContext, seq shell.Sequence) *Job {
	bg := s.Clone()
	bg.kill = s.kill.Child()
	ec.stdin = vos.Null

	job := &Job{done: make(chan struct{})}
	go func() {
		defer close(job.done)
		defer bg.kill.Release()

		res := bg.runSequence(ec, seq)
		waitJobs(res.Jobs)
		job.code = res.ExitCode
	}()
	return job
}

func (s *State) runSequence(ec execContext, seq shell.Sequence) ExecuteResult {
	switch seq := seq.(type) {
	case *shell.ShellVarAssignment:
		x := s.expander(ec)
		value := x.str(seq.Value)
		return Continue(x.status, SetShellVar{Name: seq.Name, Value: value})

	case *shell.BooleanList:
		left := s.runSequence(ec, seq.Left)
		if left.IsExit() {
			return left
		}
		if _, fired := s.kill.Fired(); fired {
			return left
		}
		succeeded := left.ExitCode == 0
		if (seq.Op == shell.And) != succeeded {
			return left
		}

		// The right side sees the left side's changes.
		right := s.Clone()
		right.Apply(left.Changes...)
		right.lastExit = left.ExitCode
		res := right.runSequence(ec, seq.Right)
		res.Changes = append(append([]EnvChange(nil), left.Changes...), res.Changes...)
		res.Jobs = append(append([]*Job(nil), left.Jobs...), res.Jobs...)
		return res

	case *shell.Pipeline:
		return s.runPipeline(ec, seq)

	default:
		fmt.Fprintf(ec.stderr, "%s: unsupported sequence %T\n", s.name, seq)
		return Continue(2)
	}
}

func (s *State) runPipeline(ec execContext, p *shell.Pipeline) ExecuteResult {
	if len(p.Commands) == 1 {
		res := s.runCommand(ec, p.Commands[0].Command)
		if p.Negated && !res.IsExit() {
			res.ExitCode = negate(res.ExitCode)
		}
		return res
	}

	n := len(p.Commands)
	pipes := make([]*vos.Pipe, 0, n-1)
	for i := 0; i < n-1; i++ {
		pipe, err := vos.NewPipe()
		if err != nil {
			for _, created := range pipes {
				created.Close()
			}
			fmt.Fprintf(ec.stderr, "%s: %v\n", s.name, err)
			return Continue(1)
		}
		pipes = append(pipes, pipe)
	}

	results := make([]ExecuteResult, n)
	var g errgroup.Group
	for i, pc := range p.Commands {
		i, pc := i, pc

		stage := ec
		if i > 0 {
			stage.stdin = pipes[i-1].Reader
		}
		if i < n-1 {
			stage.stdout = pipes[i].Writer
			if pc.Pipe == shell.PipeStdoutStderr {
				stage.stderr = pipes[i].Writer
			}
		}

		state := s.Clone()
		g.Go(func() error {
			defer func() {
				if i > 0 {
					pipes[i-1].CloseReader()
				}
				if i < n-1 {
					pipes[i].CloseWriter()
				}
			}()

			// exit in a stage only ends that stage.
			results[i] = state.runCommand(stage, pc.Command).contained()
			return nil
		})
	}

	done := make(chan struct{})
	go func() {
		g.Wait()
		close(done)
	}()

	select {
	case <-done:
	case <-s.kill.Done():
		// Stop waiting, the stages were signalled too and unwind on their own.
		sig, _ := s.kill.Fired()
		return Continue(128 + int(sig))
	}

	var jobs []*Job
	for _, res := range results {
		jobs = append(jobs, res.Jobs...)
	}

	code := results[n-1].ExitCode
	if p.Negated {
		code = negate(code)
	}
	return Continue(code).WithJobs(jobs...)
}

func negate(code int) int {
	if code == 0 {
		return 1
	}
	return 0
}

func (s *State) runCommand(ec execContext, cmd shell.Command) ExecuteResult {
	switch cmd := cmd.(type) {
	case *shell.SimpleCommand:
		return s.runSimple(ec, cmd)

	case *shell.Subshell:
		sub := s.Clone()
		redirected, cleanup, err := sub.redirect(ec, cmd.Redirects)
		if err != nil {
			s.redirectFailed(ec, err)
			return Continue(1)
		}
		defer cleanup()

		res := sub.runList(redirected, cmd.List)
		return Continue(res.ExitCode).WithJobs(res.Jobs...)

	case *shell.Group:
		group := s.Clone()
		redirected, cleanup, err := group.redirect(ec, cmd.Redirects)
		if err != nil {
			s.redirectFailed(ec, err)
			return Continue(1)
		}
		defer cleanup()

		return group.runList(redirected, cmd.List)

	default:
		fmt.Fprintf(ec.stderr, "%s: unsupported command %T\n", s.name, cmd)
		return Continue(2)
	}
}

func (s *State) redirectFailed(ec execContext, err error) {
	fmt.Fprintf(ec.stderr, "%s: %v\n", s.name, err)
}

func (s *State) runSimple(ec execContext, cmd *shell.SimpleCommand) ExecuteResult {
	x := s.expander(ec)
	args := x.fields(cmd.Args)

	// Command scoped assignments see the ones before them.
	var overlay []SetEnvVar
	if len(cmd.EnvVars) > 0 {
		scope := s.Clone()
		for _, env := range cmd.EnvVars {
			// The status is the one of the last substitution performed.
			sx := scope.expander(ec)
			sx.status = x.status
			change := SetEnvVar{Name: env.Name, Value: sx.str(env.Value)}
			scope.Apply(change)
			overlay = append(overlay, change)
			x.status = sx.status
		}
	}

	redirected, cleanup, err := s.redirect(ec, cmd.Redirects)
	if err != nil {
		s.redirectFailed(ec, err)
		return Continue(1)
	}
	defer cleanup()

	if len(args) == 0 {
		// Nothing to run, the assignments apply to the shell.
		var changes []EnvChange
		for _, env := range overlay {
			changes = append(changes, SetShellVar{Name: env.Name, Value: env.Value})
		}
		return Continue(x.status, changes...)
	}

	return s.runArgs(redirected, args, overlay)
}

// runArgs runs an expanded command line, the overlay is only visible to the
// command itself.
func (s *State) runArgs(ec execContext, args []string, overlay []SetEnvVar) ExecuteResult {
	if b, ok := s.builtins.Lookup(args[0]); ok {
		scope := s
		if len(overlay) > 0 {
			scope = s.Clone()
			for _, env := range overlay {
				scope.Apply(env)
			}
		}
		return scope.runBuiltin(ec, b, args)
	}

	return s.runExternal(ec, args, overlay)
}

func (s *State) runBuiltin(ec execContext, b Builtin, args []string) (res ExecuteResult) {
	bc := &Context{
		Args:   args,
		Stdin:  ec.stdin,
		Stdout: ec.stdout,
		Stderr: ec.stderr,
		state:  s,
	}

	defer func() {
		if r := recover(); r != nil {
			fmt.Fprintf(ec.stderr, "%s: %s: internal error: %v\n", s.name, args[0], r)
			s.record(&logger.Event{
				Type:     logger.BuiltinPanic,
				Command:  args,
				Error:    fmt.Sprint(r),
				ExitCode: 1,
			})
			res = Continue(1)
		}
	}()

	return b.Main(bc)
}

func (s *State) runExternal(ec execContext, args []string, overlay []SetEnvVar) ExecuteResult {
	env := s.env
	if len(overlay) > 0 {
		env = s.env.Clone()
		for _, e := range overlay {
			env.Setenv(e.Name, e.Value)
		}
	}

	pathEnv, _ := env.LookupEnv(EnvPath)
	path, err := vos.LookPath(s.fs, s.cwd, pathEnv, args[0])
	switch {
	case errors.Is(err, vos.ErrNotFound):
		fmt.Fprintf(ec.stderr, "%s: %s: command not found\n", s.name, args[0])
		s.record(&logger.Event{Type: logger.CommandNotFound, Command: args, ExitCode: 127})
		return Continue(127)
	case errors.Is(err, fs.ErrPermission):
		fmt.Fprintf(ec.stderr, "%s: %s: permission denied\n", s.name, args[0])
		return Continue(126)
	case err != nil:
		fmt.Fprintf(ec.stderr, "%s: %s: %v\n", s.name, args[0], err)
		return Continue(126)
	}

	cmd := &exec.Cmd{
		Path:      path,
		Args:      args,
		Dir:       s.cwd,
		Env:       env.Environ(),
		Stdin:     processReader(ec.stdin),
		Stdout:    processWriter(ec.stdout),
		Stderr:    processWriter(ec.stderr),
		WaitDelay: s.waitDelay,
	}

	proc, err := s.tracker.Start(cmd, s.kill)
	switch {
	case errors.Is(err, vos.ErrKilled):
		code, _ := proc.Wait()
		return Continue(code)
	case err != nil:
		fmt.Fprintf(ec.stderr, "%s: %s: %v\n", s.name, args[0], err)
		s.record(&logger.Event{
			Type:         logger.CommandExited,
			Command:      args,
			ResolvedPath: path,
			ExitCode:     126,
			Error:        err.Error(),
		})
		return Continue(126)
	}

	s.record(&logger.Event{
		Type:         logger.CommandStarted,
		Command:      args,
		ResolvedPath: path,
		Pid:          proc.Pid,
	})

	code, err := proc.Wait()
	exited := &logger.Event{
		Type:         logger.CommandExited,
		Command:      args,
		ResolvedPath: path,
		Pid:          proc.Pid,
		ExitCode:     code,
	}
	if err != nil {
		exited.Error = err.Error()
	}
	s.record(exited)

	return Continue(code)
}

// processReader and processWriter hand the null device to exec as nil so the
// child gets the OS null device instead of a copying goroutine.
func processReader(r io.Reader) io.Reader {
	if r == nil || vos.IsNull(r) {
		return nil
	}
	return r
}

func processWriter(w io.Writer) io.Writer {
	if w == nil || vos.IsNull(w) {
		return nil
	}
	return w
}
