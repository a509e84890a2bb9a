package vos

import (
	"context"
	"errors"
	"fmt"
	"os/exec"
	"sync"
	"time"
)

// ErrKilled is returned for processes stopped by their KillSignal, including
// ones that were never started because the signal had already fired.
var ErrKilled = errors.New("process killed")

// ProcessState is the lifecycle state of a tracked process.
type ProcessState int

const (
	Running ProcessState = iota
	Exited
	Killed
)

func (s ProcessState) String() string {
	switch s {
	case Running:
		return "running"
	case Exited:
		return "exited"
	case Killed:
		return "killed"
	default:
		return fmt.Sprintf("ProcessState(%d)", int(s))
	}
}

// Process is an OS process started through a Tracker.
type Process struct {
	Pid int
	Cmd *exec.Cmd

	tracker *Tracker
	signal  *KillSignal
	stopKill func()

	mu       sync.Mutex
	state    ProcessState
	started  bool
	killed   bool
	killSig  Signal
	exitCode int
	err      error
	done     chan struct{}
}

// State returns the current lifecycle state.
func (p *Process) State() ProcessState {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.state
}

// Done returns a channel that's closed once the process has been reaped.
func (p *Process) Done() <-chan struct{} {
	return p.done
}

// Wait blocks until the process exits and returns its exit code. Processes
// terminated by a signal report 128+signal. If the process was stopped by its
// KillSignal the error is ErrKilled.
func (p *Process) Wait() (int, error) {
	<-p.done
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.exitCode, p.err
}

// kill is the KillSignal observer for the process. A process that hasn't
// been started yet only records the kill, start then refuses to spawn it.
func (p *Process) kill(sig Signal) {
	p.mu.Lock()
	if p.state != Running || p.killed {
		p.mu.Unlock()
		return
	}
	p.killed = true
	p.killSig = sig
	started := p.started
	p.mu.Unlock()

	if started {
		p.tracker.signalProcess(p, sig)
	}
}

func (p *Process) wait() {
	waitErr := p.Cmd.Wait()

	p.mu.Lock()
	switch {
	case p.killed:
		p.state = Killed
		p.exitCode = 128 + int(p.killSig)
		p.err = ErrKilled
	case p.Cmd.ProcessState != nil:
		p.state = Exited
		p.exitCode = exitCode(p.Cmd.ProcessState)
		var exitErr *exec.ExitError
		if waitErr != nil && !errors.As(waitErr, &exitErr) {
			p.err = waitErr
		}
	default:
		p.state = Exited
		p.exitCode = 1
		p.err = waitErr
	}
	p.mu.Unlock()

	p.finish()
}

func (p *Process) finish() {
	if p.stopKill != nil {
		p.stopKill()
	}
	p.signal.Release()
	p.tracker.remove(p)
	close(p.done)
}

// Tracker keeps track of every process spawned by an interpreter so they can
// be signalled and joined.
type Tracker struct {
	// KillGrace is how long a process gets to exit after a SIGINT or SIGTERM
	// before it's sent SIGKILL. Zero disables the escalation.
	KillGrace time.Duration

	// SharedProcessGroup keeps children in the host's process group. Children
	// that read from the host's terminal need it, otherwise only the direct
	// child is signalled rather than its whole group.
	SharedProcessGroup bool

	mu    sync.Mutex
	procs map[*Process]struct{}
}

// NewTracker creates an empty tracker.
func NewTracker() *Tracker {
	return &Tracker{procs: make(map[*Process]struct{})}
}

// Start registers the command and then starts it under a child of parent.
// Firing parent kills the process. If parent has already fired, or KillAll
// reached the process first, the command is never started and ErrKilled is
// returned.
func (t *Tracker) Start(cmd *exec.Cmd, parent *KillSignal) (*Process, error) {
	p := t.register(cmd, parent)
	return p, t.start(p)
}

func (t *Tracker) register(cmd *exec.Cmd, parent *KillSignal) *Process {
	p := &Process{
		Cmd:     cmd,
		tracker: t,
		signal:  parent.Child(),
		done:    make(chan struct{}),
	}

	t.mu.Lock()
	defer t.mu.Unlock()
	if t.procs == nil {
		t.procs = make(map[*Process]struct{})
	}
	t.procs[p] = struct{}{}
	return p
}

func (t *Tracker) start(p *Process) error {
	// Holding the lock through the start means a concurrent kill either
	// lands before it and stops the spawn, or after it with a live process.
	p.mu.Lock()
	if sig, fired := p.signal.Fired(); fired && !p.killed {
		p.killed = true
		p.killSig = sig
	}
	if p.killed {
		p.state = Killed
		p.exitCode = 128 + int(p.killSig)
		p.err = ErrKilled
		p.mu.Unlock()
		p.finish()
		return ErrKilled
	}

	if !t.SharedProcessGroup {
		setProcessGroup(p.Cmd)
	}
	if err := p.Cmd.Start(); err != nil {
		p.state = Exited
		p.exitCode = 126
		p.err = err
		p.mu.Unlock()
		p.finish()
		return err
	}
	p.started = true
	p.Pid = p.Cmd.Process.Pid
	p.mu.Unlock()

	// Registered after the start so a signal fired in between still reaches
	// the process through the immediate callback.
	p.stopKill = p.signal.OnKill(p.kill)
	go p.wait()
	return nil
}

func (t *Tracker) signalProcess(p *Process, sig Signal) {
	if err := killProcess(p.Cmd.Process, sig, !t.SharedProcessGroup); err != nil {
		return
	}
	if t.KillGrace <= 0 || sig == SigKill {
		return
	}

	timer := time.AfterFunc(t.KillGrace, func() {
		if p.State() == Running {
			killProcess(p.Cmd.Process, SigKill, !t.SharedProcessGroup)
		}
	})
	go func() {
		<-p.done
		timer.Stop()
	}()
}

func (t *Tracker) remove(p *Process) {
	t.mu.Lock()
	defer t.mu.Unlock()
	delete(t.procs, p)
}

// Running lists the processes that haven't been reaped yet.
func (t *Tracker) Running() []*Process {
	t.mu.Lock()
	defer t.mu.Unlock()

	var out []*Process
	for p := range t.procs {
		out = append(out, p)
	}
	return out
}

// KillAll delivers sig to every running process.
func (t *Tracker) KillAll(sig Signal) {
	for _, p := range t.Running() {
		p.kill(sig)
	}
}

// Wait blocks until every tracked process has been reaped or ctx is done.
func (t *Tracker) Wait(ctx context.Context) error {
	for {
		running := t.Running()
		if len(running) == 0 {
			return nil
		}
		for _, p := range running {
			select {
			case <-p.Done():
			case <-ctx.Done():
				return ctx.Err()
			}
		}
	}
}
