package shell

import (
	"strings"
)

// Word is a single shell word made of an ordered list of parts. Words are
// only resolved to strings at execution time.
type Word []WordPart

// WordPart is one piece of a Word.
type WordPart interface {
	wordPart()
}

// Text is literal text.
type Text string

// Variable is a reference to a shell or environment variable, e.g. $HOME.
type Variable string

// Substitution is a command substitution, e.g. $(pwd).
type Substitution struct {
	List *SequentialList
}

// Quoted holds the parts of a quoted string. Single quoted strings contain
// a single Text part, double quoted strings may contain variables and
// substitutions.
type Quoted []WordPart

// Glob is an unquoted glob pattern fragment: *, ? or a [...] class.
type Glob string

// Tilde is a leading ~ which expands to $HOME.
type Tilde struct{}

func (Text) wordPart()          {}
func (Variable) wordPart()      {}
func (*Substitution) wordPart() {}
func (Quoted) wordPart()        {}
func (Glob) wordPart()          {}
func (Tilde) wordPart()         {}

// Literal returns the word's value if it contains no expansions.
func (w Word) Literal() (string, bool) {
	var sb strings.Builder
	if !writeLiteral(&sb, w) {
		return "", false
	}
	return sb.String(), true
}

func writeLiteral(sb *strings.Builder, parts []WordPart) bool {
	for _, part := range parts {
		switch part := part.(type) {
		case Text:
			sb.WriteString(string(part))
		case Quoted:
			if !writeLiteral(sb, part) {
				return false
			}
		default:
			return false
		}
	}
	return true
}

// HasGlob reports whether the word contains an unquoted glob pattern.
func (w Word) HasGlob() bool {
	for _, part := range w {
		if _, ok := part.(Glob); ok {
			return true
		}
	}
	return false
}

// String renders the word back into shell syntax.
func (w Word) String() string {
	var sb strings.Builder
	for _, part := range w {
		writePart(&sb, part, false)
	}
	return sb.String()
}

func writePart(sb *strings.Builder, part WordPart, inQuotes bool) {
	switch part := part.(type) {
	case Text:
		if inQuotes {
			sb.WriteString(dquoteEscaper.Replace(string(part)))
		} else {
			sb.WriteString(wordEscaper.Replace(string(part)))
		}
	case Variable:
		sb.WriteString("${")
		sb.WriteString(string(part))
		sb.WriteString("}")
	case *Substitution:
		sb.WriteString("$(")
		sb.WriteString(part.List.String())
		sb.WriteString(")")
	case Quoted:
		sb.WriteString(`"`)
		for _, sub := range part {
			writePart(sb, sub, true)
		}
		sb.WriteString(`"`)
	case Glob:
		sb.WriteString(string(part))
	case Tilde:
		sb.WriteString("~")
	}
}

var (
	dquoteEscaper = strings.NewReplacer(`\`, `\\`, `"`, `\"`, `$`, `\$`, "`", "\\`")
	wordEscaper   = strings.NewReplacer(
		`\`, `\\`, `"`, `\"`, `'`, `\'`, `$`, `\$`, " ", `\ `, "\t", "\\\t",
		";", `\;`, "&", `\&`, "|", `\|`, "<", `\<`, ">", `\>`, "(", `\(`, ")", `\)`,
		"*", `\*`, "?", `\?`, "[", `\[`, "#", `\#`, "~", `\~`,
	)
)
