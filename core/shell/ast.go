package shell

import (
	"fmt"
	"strings"
)

// SequentialList is a list of sequences separated by ";", "&" or newlines.
type SequentialList struct {
	Items []SequentialItem
}

// SequentialItem is a single sequence in a list.
type SequentialItem struct {
	Sequence Sequence
	// IsAsync is set when the sequence was terminated by "&", the engine
	// won't wait for it before starting the next item.
	IsAsync bool
}

// Sequence is one of *ShellVarAssignment, *BooleanList or *Pipeline.
type Sequence interface {
	sequence()
	fmt.Stringer
}

// ShellVarAssignment sets a shell-local variable, e.g. FOO=bar.
type ShellVarAssignment struct {
	Name  string
	Value Word
}

// BooleanOp joins the two halves of a BooleanList.
type BooleanOp int

const (
	// And runs the right side if the left side succeeded (&&).
	And BooleanOp = iota
	// Or runs the right side if the left side failed (||).
	Or
)

func (op BooleanOp) String() string {
	if op == Or {
		return "||"
	}
	return "&&"
}

// BooleanList joins two sequences with && or ||.
type BooleanList struct {
	Left  Sequence
	Op    BooleanOp
	Right Sequence
}

// Pipeline is one or more commands joined by pipes.
type Pipeline struct {
	Negated  bool
	Commands []PipelineCommand
}

// PipeKind says which streams of a command feed the next pipeline stage.
type PipeKind int

const (
	// PipeNone is used for the last command in a pipeline.
	PipeNone PipeKind = iota
	// PipeStdout connects stdout to the next stage (|).
	PipeStdout
	// PipeStdoutStderr connects both stdout and stderr to the next stage (|&).
	PipeStdoutStderr
)

func (k PipeKind) String() string {
	switch k {
	case PipeStdout:
		return "|"
	case PipeStdoutStderr:
		return "|&"
	default:
		return ""
	}
}

// PipelineCommand is a command within a pipeline.
type PipelineCommand struct {
	Command Command
	Pipe    PipeKind
}

// Command is one of *SimpleCommand, *Subshell or *Group.
type Command interface {
	command()
	fmt.Stringer
}

// EnvVar is a NAME=value pair.
type EnvVar struct {
	Name  string
	Value Word
}

func (e EnvVar) String() string {
	return e.Name + "=" + e.Value.String()
}

// SimpleCommand is a program name with arguments, redirects and
// command-scoped environment variables.
type SimpleCommand struct {
	EnvVars   []EnvVar
	Args      []Word
	Redirects []Redirect
}

// Subshell runs a list in an isolated copy of the shell state: ( list ).
type Subshell struct {
	List      *SequentialList
	Redirects []Redirect
}

// Group runs a list in the enclosing scope: { list; }.
type Group struct {
	List      *SequentialList
	Redirects []Redirect
}

// Fd is a file descriptor number.
type Fd int

const (
	FdStdin  Fd = 0
	FdStdout Fd = 1
	FdStderr Fd = 2
	// FdBoth is used by &> and &>> to redirect stdout and stderr together.
	FdBoth Fd = -1
)

// RedirectOp is the kind of redirection.
type RedirectOp int

const (
	Overwrite RedirectOp = iota
	Append
	InputFrom
)

// RedirectTarget is one of PathTarget or FdTarget.
type RedirectTarget interface {
	redirectTarget()
}

// PathTarget redirects to or from a file.
type PathTarget struct {
	Path Word
}

// FdTarget duplicates another file descriptor, e.g. 2>&1.
type FdTarget struct {
	Fd Fd
}

func (PathTarget) redirectTarget() {}
func (FdTarget) redirectTarget()   {}

// Redirect is a single I/O redirection.
type Redirect struct {
	Fd     Fd
	Op     RedirectOp
	Target RedirectTarget
}

func (r Redirect) String() string {
	var sb strings.Builder
	switch {
	case r.Fd == FdBoth:
		sb.WriteString("&")
	case r.Op == InputFrom && r.Fd == FdStdin:
	case r.Op != InputFrom && r.Fd == FdStdout:
	default:
		fmt.Fprintf(&sb, "%d", r.Fd)
	}
	switch r.Op {
	case Overwrite:
		sb.WriteString(">")
	case Append:
		sb.WriteString(">>")
	case InputFrom:
		sb.WriteString("<")
	}
	switch target := r.Target.(type) {
	case FdTarget:
		fmt.Fprintf(&sb, "&%d", target.Fd)
	case PathTarget:
		sb.WriteString(target.Path.String())
	}
	return sb.String()
}

func (*ShellVarAssignment) sequence() {}
func (*BooleanList) sequence()        {}
func (*Pipeline) sequence()           {}

func (*SimpleCommand) command() {}
func (*Subshell) command()      {}
func (*Group) command()         {}

func (l *SequentialList) String() string {
	var sb strings.Builder
	for i, item := range l.Items {
		if i > 0 {
			sb.WriteString(" ")
		}
		sb.WriteString(item.Sequence.String())
		switch {
		case item.IsAsync:
			sb.WriteString(" &")
		case i < len(l.Items)-1:
			sb.WriteString(";")
		}
	}
	return sb.String()
}

func (s *ShellVarAssignment) String() string {
	return s.Name + "=" + s.Value.String()
}

func (b *BooleanList) String() string {
	return b.Left.String() + " " + b.Op.String() + " " + b.Right.String()
}

func (p *Pipeline) String() string {
	var sb strings.Builder
	if p.Negated {
		sb.WriteString("! ")
	}
	for _, pc := range p.Commands {
		sb.WriteString(pc.Command.String())
		if pc.Pipe != PipeNone {
			sb.WriteString(" ")
			sb.WriteString(pc.Pipe.String())
			sb.WriteString(" ")
		}
	}
	return sb.String()
}

func (c *SimpleCommand) String() string {
	var fields []string
	for _, env := range c.EnvVars {
		fields = append(fields, env.String())
	}
	for _, arg := range c.Args {
		fields = append(fields, arg.String())
	}
	for _, r := range c.Redirects {
		fields = append(fields, r.String())
	}
	return strings.Join(fields, " ")
}

func (s *Subshell) String() string {
	return "(" + s.List.String() + ")" + redirectSuffix(s.Redirects)
}

func (g *Group) String() string {
	end := "; }"
	if n := len(g.List.Items); n > 0 && g.List.Items[n-1].IsAsync {
		end = " }"
	}
	return "{ " + g.List.String() + end + redirectSuffix(g.Redirects)
}

func redirectSuffix(redirects []Redirect) string {
	var sb strings.Builder
	for _, r := range redirects {
		sb.WriteString(" ")
		sb.WriteString(r.String())
	}
	return sb.String()
}
