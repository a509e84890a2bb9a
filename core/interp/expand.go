package interp

import (
	"strings"

	"github.com/josephlewis42/hooksh/core/glob"
	"github.com/josephlewis42/hooksh/core/shell"
	"github.com/josephlewis42/hooksh/core/vos"
)

// expander resolves words against a state at execution time.
type expander struct {
	s  *State
	ec execContext

	// status is the exit code of the last command substitution.
	status int
}

func (s *State) expander(ec execContext) *expander {
	return &expander{s: s, ec: ec}
}

// fields expands the words into command line arguments. Unquoted variables
// and substitutions are split on blanks and glob patterns that match nothing
// are kept as written.
func (x *expander) fields(words []shell.Word) []string {
	var out []string
	for _, word := range words {
		out = append(out, x.word(word)...)
	}
	return out
}

func (x *expander) word(word shell.Word) []string {
	var fb fieldBuilder
	for _, part := range word {
		switch part := part.(type) {
		case shell.Text:
			fb.literal(string(part))
		case shell.Quoted:
			fb.literal(x.quoted(part))
		case shell.Variable:
			val, _ := x.s.GetVar(string(part))
			fb.split(val)
		case *shell.Substitution:
			fb.split(x.substitute(part))
		case shell.Glob:
			fb.glob(string(part))
		case shell.Tilde:
			fb.literal(x.home())
		}
	}
	fb.end()

	var out []string
	for _, f := range fb.fields {
		if !f.glob {
			out = append(out, f.lit)
			continue
		}
		matches, err := glob.Expand(x.s.fs, x.s.cwd, f.pattern)
		if err != nil || len(matches) == 0 {
			out = append(out, f.lit)
			continue
		}
		out = append(out, matches...)
	}
	return out
}

// str expands a word into a single string without splitting or globbing, as
// used for assignments.
func (x *expander) str(word shell.Word) string {
	var sb strings.Builder
	for _, part := range word {
		switch part := part.(type) {
		case shell.Text:
			sb.WriteString(string(part))
		case shell.Glob:
			sb.WriteString(string(part))
		case shell.Tilde:
			sb.WriteString(x.home())
		case shell.Quoted:
			sb.WriteString(x.quoted(part))
		case shell.Variable:
			val, _ := x.s.GetVar(string(part))
			sb.WriteString(val)
		case *shell.Substitution:
			sb.WriteString(x.substitute(part))
		}
	}
	return sb.String()
}

func (x *expander) quoted(parts shell.Quoted) string {
	var sb strings.Builder
	for _, part := range parts {
		switch part := part.(type) {
		case shell.Text:
			sb.WriteString(string(part))
		case shell.Variable:
			val, _ := x.s.GetVar(string(part))
			sb.WriteString(val)
		case *shell.Substitution:
			sb.WriteString(x.substitute(part))
		}
	}
	return sb.String()
}

func (x *expander) home() string {
	if home, ok := x.s.GetVar(EnvHome); ok {
		return home
	}
	return "~"
}

// substitute runs the list in a sub-invocation and returns its output
// without trailing newlines.
func (x *expander) substitute(sub *shell.Substitution) string {
	child := x.s.Clone()
	child.kill = x.s.kill.Child()
	defer child.kill.Release()

	var buf vos.CaptureBuffer
	res := child.runList(execContext{stdin: x.ec.stdin, stdout: &buf, stderr: x.ec.stderr}, sub.List)
	waitJobs(res.Jobs)
	x.status = res.ExitCode

	return strings.TrimRight(buf.String(), "\n")
}

type field struct {
	lit     string
	pattern string
	glob    bool
}

// fieldBuilder accumulates the fields of a single word. Each field keeps its
// literal value and a glob pattern where only unquoted glob parts are live.
type fieldBuilder struct {
	fields []field

	lit     strings.Builder
	pattern strings.Builder
	isGlob  bool
	started bool
}

func (b *fieldBuilder) literal(s string) {
	b.lit.WriteString(s)
	b.pattern.WriteString(glob.QuoteMeta(s))
	b.started = true
}

func (b *fieldBuilder) glob(p string) {
	b.lit.WriteString(p)
	// [!...] is the POSIX spelling of a negated class.
	if strings.HasPrefix(p, "[!") {
		p = "[^" + p[2:]
	}
	b.pattern.WriteString(p)
	b.isGlob = true
	b.started = true
}

// split adds an unquoted expansion, blanks in it separate fields.
func (b *fieldBuilder) split(val string) {
	if val == "" {
		return
	}
	if isIFS(rune(val[0])) {
		b.end()
	}
	for i, w := range strings.FieldsFunc(val, isIFS) {
		if i > 0 {
			b.end()
		}
		b.literal(w)
	}
	if isIFS(rune(val[len(val)-1])) {
		b.end()
	}
}

func (b *fieldBuilder) end() {
	if !b.started {
		return
	}
	b.fields = append(b.fields, field{lit: b.lit.String(), pattern: b.pattern.String(), glob: b.isGlob})
	b.lit.Reset()
	b.pattern.Reset()
	b.isGlob = false
	b.started = false
}

func isIFS(r rune) bool {
	return r == ' ' || r == '\t' || r == '\n'
}
