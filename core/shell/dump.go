package shell

import (
	"fmt"
	"io"
	"strings"
)

// Dump writes an indented, human readable tree of the list to w.
func Dump(w io.Writer, list *SequentialList) {
	d := &dumper{w: w}
	d.list(list)
}

type dumper struct {
	w     io.Writer
	depth int
}

func (d *dumper) line(format string, args ...interface{}) {
	fmt.Fprintf(d.w, "%s%s\n", strings.Repeat("  ", d.depth), fmt.Sprintf(format, args...))
}

func (d *dumper) nested(fn func()) {
	d.depth++
	fn()
	d.depth--
}

func (d *dumper) list(list *SequentialList) {
	d.line("list")
	d.nested(func() {
		for _, item := range list.Items {
			if item.IsAsync {
				d.line("item async")
			} else {
				d.line("item")
			}
			d.nested(func() { d.sequence(item.Sequence) })
		}
	})
}

func (d *dumper) sequence(seq Sequence) {
	switch seq := seq.(type) {
	case *ShellVarAssignment:
		d.line("assign %s %s", seq.Name, PartsString(seq.Value))
	case *BooleanList:
		d.line("boolean %s", seq.Op)
		d.nested(func() {
			d.sequence(seq.Left)
			d.sequence(seq.Right)
		})
	case *Pipeline:
		if seq.Negated {
			d.line("pipeline negated")
		} else {
			d.line("pipeline")
		}
		d.nested(func() {
			for _, pc := range seq.Commands {
				d.command(pc.Command, pc.Pipe)
			}
		})
	}
}

func (d *dumper) command(cmd Command, pipe PipeKind) {
	suffix := ""
	if pipe != PipeNone {
		suffix = " " + pipe.String()
	}

	switch cmd := cmd.(type) {
	case *SimpleCommand:
		d.line("simple%s", suffix)
		d.nested(func() {
			for _, env := range cmd.EnvVars {
				d.line("env %s %s", env.Name, PartsString(env.Value))
			}
			for _, arg := range cmd.Args {
				d.line("arg %s", PartsString(arg))
			}
			d.redirects(cmd.Redirects)
		})
	case *Subshell:
		d.line("subshell%s", suffix)
		d.nested(func() {
			d.list(cmd.List)
			d.redirects(cmd.Redirects)
		})
	case *Group:
		d.line("group%s", suffix)
		d.nested(func() {
			d.list(cmd.List)
			d.redirects(cmd.Redirects)
		})
	}
}

func (d *dumper) redirects(redirects []Redirect) {
	for _, r := range redirects {
		d.line("redirect %s", r)
	}
}

// PartsString describes each part of a word, e.g. Text("a") Variable("B").
func PartsString(parts []WordPart) string {
	var out []string
	for _, part := range parts {
		switch part := part.(type) {
		case Text:
			out = append(out, fmt.Sprintf("Text(%q)", string(part)))
		case Variable:
			out = append(out, fmt.Sprintf("Variable(%q)", string(part)))
		case Glob:
			out = append(out, fmt.Sprintf("Glob(%q)", string(part)))
		case Tilde:
			out = append(out, "Tilde")
		case Quoted:
			out = append(out, "Quoted["+PartsString(part)+"]")
		case *Substitution:
			out = append(out, fmt.Sprintf("Substitution(%q)", part.List.String()))
		}
	}
	return strings.Join(out, " ")
}
