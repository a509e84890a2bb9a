package interp

import (
	"io"
	"path/filepath"
	"sort"
	"strconv"
	"time"

	"github.com/josephlewis42/hooksh/core/logger"
	"github.com/josephlewis42/hooksh/core/vos"
	"github.com/spf13/afero"
)

const (
	EnvHome   = "HOME"
	EnvPath   = "PATH"
	EnvPWD    = "PWD"
	EnvOldPWD = "OLDPWD"

	// DefaultName prefixes the interpreter's own error messages.
	DefaultName = "hooksh"

	// DefaultWaitDelay bounds how long to wait for a process's I/O to drain
	// after it exits.
	DefaultWaitDelay = time.Second
)

// State is the interpreter state for one invocation: working directory,
// environment and shell variables, builtins and the cancellation tree.
//
// A State isn't safe for concurrent use, every concurrently running stage gets
// its own copy from Clone.
type State struct {
	cwd      string
	env      *vos.MapEnv
	vars     map[string]string
	lastExit int
	exited   bool
	jobs     []*Job

	builtins  Registry
	kill      *vos.KillSignal
	tracker   *vos.Tracker
	fs        afero.Fs
	events    *logger.SessionLogger
	name      string
	hostStdin io.Reader
	waitDelay time.Duration
}

// NewState creates the state for a new invocation rooted at cwd, which must
// be absolute, with the environment in KEY=value form.
func NewState(cwd string, environ []string, builtins Registry) *State {
	return &State{
		cwd:       filepath.Clean(cwd),
		env:       vos.NewMapEnvFromEnvList(environ),
		vars:      make(map[string]string),
		builtins:  builtins,
		kill:      vos.NewKillSignal(),
		tracker:   vos.NewTracker(),
		fs:        afero.NewOsFs(),
		name:      DefaultName,
		hostStdin: vos.Null,
		waitDelay: DefaultWaitDelay,
	}
}

// SetFs replaces the filesystem used for redirects, globbing, executable
// lookup and file builtins. Processes always see the real filesystem.
func (s *State) SetFs(fs afero.Fs) {
	s.fs = fs
}

// SetEventLogger sets where command events are recorded, nil disables them.
func (s *State) SetEventLogger(events *logger.SessionLogger) {
	s.events = events
}

// SetKillSignal replaces the signal that stops everything the state runs.
func (s *State) SetKillSignal(kill *vos.KillSignal) {
	s.kill = kill
}

// SetTracker replaces the tracker processes are registered with.
func (s *State) SetTracker(tracker *vos.Tracker) {
	s.tracker = tracker
}

// SetName sets the name used to prefix error messages.
func (s *State) SetName(name string) {
	s.name = name
}

// SetWaitDelay sets how long to wait for a process's I/O after it exits.
func (s *State) SetWaitDelay(d time.Duration) {
	s.waitDelay = d
}

// Cwd returns the absolute working directory.
func (s *State) Cwd() string {
	return s.cwd
}

// Environ returns the environment passed to child processes, sorted.
func (s *State) Environ() []string {
	return s.env.Environ()
}

// LookupEnv looks up an environment variable, shell variables are ignored.
func (s *State) LookupEnv(name string) (string, bool) {
	return s.env.LookupEnv(name)
}

// GetVar looks up a variable for word expansion: shell variables first, then
// the environment. "?" is the exit code of the previous sequence.
func (s *State) GetVar(name string) (string, bool) {
	if name == "?" {
		return strconv.Itoa(s.lastExit), true
	}
	if val, ok := s.vars[name]; ok {
		return val, true
	}
	return s.env.LookupEnv(name)
}

// ShellVars returns the names of the variables that aren't exported, sorted.
func (s *State) ShellVars() []string {
	var names []string
	for name := range s.vars {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// LastExit is the exit code of the previous sequence.
func (s *State) LastExit() int {
	return s.lastExit
}

// Exited reports whether the last Execute was stopped by the exit builtin.
func (s *State) Exited() bool {
	return s.exited
}

// Jobs returns the background jobs started so far that hadn't finished when
// the last one was added.
func (s *State) Jobs() []*Job {
	return append([]*Job(nil), s.jobs...)
}

func (s *State) addJobs(jobs ...*Job) {
	if len(jobs) == 0 {
		return
	}
	running := s.jobs[:0]
	for _, j := range s.jobs {
		if !j.finished() {
			running = append(running, j)
		}
	}
	s.jobs = append(running, jobs...)
}

// Builtins returns the builtin registry.
func (s *State) Builtins() Registry {
	return s.builtins
}

// KillSignal returns the signal that stops everything the state runs.
func (s *State) KillSignal() *vos.KillSignal {
	return s.kill
}

// Tracker returns the process tracker.
func (s *State) Tracker() *vos.Tracker {
	return s.tracker
}

// Fs returns the filesystem.
func (s *State) Fs() afero.Fs {
	return s.fs
}

// Name returns the name used in error messages.
func (s *State) Name() string {
	return s.name
}

// Abs resolves path against the working directory.
func (s *State) Abs(path string) string {
	if filepath.IsAbs(path) {
		return filepath.Clean(path)
	}
	return filepath.Join(s.cwd, path)
}

// LookPath finds an executable using the state's PATH and working directory.
func (s *State) LookPath(file string) (string, error) {
	pathEnv, _ := s.env.LookupEnv(EnvPath)
	return vos.LookPath(s.fs, s.cwd, pathEnv, file)
}

// Clone returns an independent copy of the state. Mutations of the copy never
// reach the original, the kill signal and tracker are shared.
func (s *State) Clone() *State {
	out := *s
	out.env = s.env.Clone()
	out.jobs = append([]*Job(nil), s.jobs...)
	out.vars = make(map[string]string, len(s.vars))
	for k, v := range s.vars {
		out.vars[k] = v
	}
	return &out
}

// Apply applies the changes in order.
func (s *State) Apply(changes ...EnvChange) {
	for _, c := range changes {
		c.apply(s)
	}
}

func (s *State) record(event *logger.Event) {
	if event.Dir == "" {
		event.Dir = s.cwd
	}
	// Event logging is best effort, a broken log mustn't stop scripts.
	_ = s.events.Record(event)
}
