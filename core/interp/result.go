package interp

// EnvChange is a mutation of the shell state returned by a builtin or a
// nested list. Changes are only applied by the engine, at sequence
// boundaries, to the scope that owns them.
type EnvChange interface {
	apply(s *State)
}

// SetEnvVar sets an environment variable, which child processes inherit.
type SetEnvVar struct {
	Name  string
	Value string
}

// SetShellVar sets a variable local to the shell. If the name is already an
// environment variable the environment is updated instead.
type SetShellVar struct {
	Name  string
	Value string
}

// UnsetVar removes a shell or environment variable.
type UnsetVar struct {
	Name string
}

// Cd changes the working directory. Path must be absolute.
type Cd struct {
	Path string
}

func (c SetEnvVar) apply(s *State) {
	s.env.Setenv(c.Name, c.Value)
	delete(s.vars, c.Name)
}

func (c SetShellVar) apply(s *State) {
	if _, ok := s.env.LookupEnv(c.Name); ok {
		s.env.Setenv(c.Name, c.Value)
		return
	}
	s.vars[c.Name] = c.Value
}

func (c UnsetVar) apply(s *State) {
	s.env.Unsetenv(c.Name)
	delete(s.vars, c.Name)
}

func (c Cd) apply(s *State) {
	old := s.cwd
	s.cwd = c.Path
	SetShellVar{Name: "OLDPWD", Value: old}.apply(s)
	SetShellVar{Name: "PWD", Value: c.Path}.apply(s)
}

// ResultKind says whether execution continues after a command.
type ResultKind int

const (
	// KindContinue lets the enclosing list run its next item.
	KindContinue ResultKind = iota
	// KindExit stops the enclosing invocation, as the exit builtin does.
	KindExit
)

// ExecuteResult is the outcome of running a command, a sequence or a list.
type ExecuteResult struct {
	Kind     ResultKind
	ExitCode int
	// Changes are the state mutations the caller should apply to its scope.
	Changes []EnvChange
	// Jobs are background jobs started while running, the top level joins
	// them before returning.
	Jobs []*Job
}

// Continue creates a result that lets execution continue.
func Continue(code int, changes ...EnvChange) ExecuteResult {
	return ExecuteResult{Kind: KindContinue, ExitCode: code, Changes: changes}
}

// Exit creates a result that stops the current invocation with the code.
func Exit(code int) ExecuteResult {
	return ExecuteResult{Kind: KindExit, ExitCode: code}
}

// IsExit reports whether the result stops the invocation.
func (r ExecuteResult) IsExit() bool {
	return r.Kind == KindExit
}

// WithJobs returns a copy of the result with the jobs added.
func (r ExecuteResult) WithJobs(jobs ...*Job) ExecuteResult {
	if len(jobs) == 0 {
		return r
	}
	r.Jobs = append(append([]*Job(nil), r.Jobs...), jobs...)
	return r
}

// contained converts an Exit into a Continue, used where exit only ends a
// sub-invocation such as a subshell.
func (r ExecuteResult) contained() ExecuteResult {
	r.Kind = KindContinue
	return r
}

// Job is a sequence running in the background.
type Job struct {
	done chan struct{}
	code int
}

// Wait blocks until the job, and every job it started, finishes and returns
// its exit code.
func (j *Job) Wait() int {
	<-j.done
	return j.code
}

// Done returns a channel that's closed when the job finishes.
func (j *Job) Done() <-chan struct{} {
	return j.done
}

func (j *Job) finished() bool {
	select {
	case <-j.done:
		return true
	default:
		return false
	}
}

func waitJobs(jobs []*Job) {
	for _, j := range jobs {
		j.Wait()
	}
}
