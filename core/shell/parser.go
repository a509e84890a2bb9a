// Package shell parses the restricted POSIX-like command language run by the
// interpreter.
//
// Scripts are parsed with mvdan.cc/sh and then translated into the engine's
// own tree. Constructs the engine doesn't run, like functions, control flow,
// here-documents and arithmetic, are rejected during translation so a script
// either parses completely or not at all.
//
// Parsing is purely syntactic: variables, substitutions and globs are recorded
// as word parts and only resolved by the interpreter at execution time.
package shell

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"mvdan.cc/sh/v3/syntax"
)

// ParseError is returned for malformed scripts.
type ParseError struct {
	// Line and Column are 1 based.
	Line    int
	Column  int
	Message string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("syntax error at line %d, column %d: %s", e.Line, e.Column, e.Message)
}

func errorAt(pos syntax.Pos, format string, args ...interface{}) *ParseError {
	return &ParseError{
		Line:    int(pos.Line()),
		Column:  int(pos.Col()),
		Message: fmt.Sprintf(format, args...),
	}
}

// Parse parses a script into a SequentialList.
func Parse(text string) (*SequentialList, error) {
	// The bash variant is needed for |& and &>, everything else bash adds is
	// rejected while translating.
	file, err := syntax.NewParser(syntax.Variant(syntax.LangBash)).Parse(strings.NewReader(text), "")
	if err != nil {
		return nil, convertError(err)
	}
	return convertStmts(file.Stmts)
}

// MustParse is like Parse but panics on error.
func MustParse(text string) *SequentialList {
	list, err := Parse(text)
	if err != nil {
		panic(err)
	}
	return list
}

func convertError(err error) error {
	var parseErr syntax.ParseError
	if errors.As(err, &parseErr) {
		return errorAt(parseErr.Pos, "%s", parseErr.Text)
	}
	var langErr syntax.LangError
	if errors.As(err, &langErr) {
		return errorAt(langErr.Pos, "%s: not supported", langErr.Feature)
	}
	return err
}

func convertStmts(stmts []*syntax.Stmt) (*SequentialList, error) {
	list := &SequentialList{}
	for _, stmt := range stmts {
		if stmt.Coprocess {
			return nil, errorAt(stmt.Semicolon, "coprocesses are not supported")
		}
		seq, err := convertSequence(stmt)
		if err != nil {
			return nil, err
		}
		list.Items = append(list.Items, SequentialItem{Sequence: seq, IsAsync: stmt.Background})
	}
	return list, nil
}

func convertSequence(stmt *syntax.Stmt) (Sequence, error) {
	if bin, ok := stmt.Cmd.(*syntax.BinaryCmd); ok && (bin.Op == syntax.AndStmt || bin.Op == syntax.OrStmt) {
		left, err := convertSequence(bin.X)
		if err != nil {
			return nil, err
		}
		right, err := convertSequence(bin.Y)
		if err != nil {
			return nil, err
		}
		op := And
		if bin.Op == syntax.OrStmt {
			op = Or
		}
		return &BooleanList{Left: left, Op: op, Right: right}, nil
	}

	// A lone NAME=value is a sequence of its own. Longer runs stay a simple
	// command so every assignment is applied.
	if call, ok := stmt.Cmd.(*syntax.CallExpr); ok && !stmt.Negated && len(stmt.Redirs) == 0 &&
		len(call.Args) == 0 && len(call.Assigns) == 1 {
		env, err := convertAssign(call.Assigns[0])
		if err != nil {
			return nil, err
		}
		return &ShellVarAssignment{Name: env.Name, Value: env.Value}, nil
	}

	pipeline := &Pipeline{Negated: stmt.Negated}
	if err := appendStages(pipeline, stmt); err != nil {
		return nil, err
	}
	return pipeline, nil
}

// appendStages flattens the left associative chain of pipes under stmt.
func appendStages(pipeline *Pipeline, stmt *syntax.Stmt) error {
	bin, ok := stmt.Cmd.(*syntax.BinaryCmd)
	if !ok || (bin.Op != syntax.Pipe && bin.Op != syntax.PipeAll) {
		cmd, err := convertCommand(stmt)
		if err != nil {
			return err
		}
		pipeline.Commands = append(pipeline.Commands, PipelineCommand{Command: cmd})
		return nil
	}

	if err := appendStages(pipeline, bin.X); err != nil {
		return err
	}
	kind := PipeStdout
	if bin.Op == syntax.PipeAll {
		kind = PipeStdoutStderr
	}
	pipeline.Commands[len(pipeline.Commands)-1].Pipe = kind
	return appendStages(pipeline, bin.Y)
}

func convertCommand(stmt *syntax.Stmt) (Command, error) {
	redirects, err := convertRedirects(stmt.Redirs)
	if err != nil {
		return nil, err
	}

	switch cmd := stmt.Cmd.(type) {
	case nil:
		return &SimpleCommand{Redirects: redirects}, nil

	case *syntax.CallExpr:
		simple := &SimpleCommand{Redirects: redirects}
		for _, assign := range cmd.Assigns {
			env, err := convertAssign(assign)
			if err != nil {
				return nil, err
			}
			simple.EnvVars = append(simple.EnvVars, env)
		}
		for _, arg := range cmd.Args {
			word, err := convertWord(arg, true)
			if err != nil {
				return nil, err
			}
			simple.Args = append(simple.Args, word)
		}
		return simple, nil

	case *syntax.DeclClause:
		return convertDecl(cmd, redirects)

	case *syntax.Subshell:
		if len(cmd.Stmts) == 0 {
			return nil, errorAt(cmd.Lparen, "empty subshell")
		}
		list, err := convertStmts(cmd.Stmts)
		if err != nil {
			return nil, err
		}
		return &Subshell{List: list, Redirects: redirects}, nil

	case *syntax.Block:
		if len(cmd.Stmts) == 0 {
			return nil, errorAt(cmd.Lbrace, "empty group")
		}
		list, err := convertStmts(cmd.Stmts)
		if err != nil {
			return nil, err
		}
		return &Group{List: list, Redirects: redirects}, nil

	default:
		return nil, errorAt(cmd.Pos(), "%s are not supported", commandKind(cmd))
	}
}

func commandKind(cmd syntax.Command) string {
	switch cmd.(type) {
	case *syntax.FuncDecl:
		return "function declarations"
	case *syntax.IfClause:
		return "if clauses"
	case *syntax.WhileClause:
		return "while loops"
	case *syntax.ForClause:
		return "for loops"
	case *syntax.CaseClause:
		return "case statements"
	case *syntax.ArithmCmd, *syntax.LetClause:
		return "arithmetic commands"
	case *syntax.TestClause:
		return "test expressions"
	case *syntax.TimeClause:
		return "time clauses"
	case *syntax.CoprocClause:
		return "coprocesses"
	default:
		return fmt.Sprintf("%T commands", cmd)
	}
}

// convertDecl turns a declaration like export back into a plain command line
// so it runs as an ordinary builtin.
func convertDecl(decl *syntax.DeclClause, redirects []Redirect) (*SimpleCommand, error) {
	cmd := &SimpleCommand{
		Args:      []Word{{Text(decl.Variant.Value)}},
		Redirects: redirects,
	}
	for _, assign := range decl.Args {
		var arg Word
		switch {
		case assign.Naked && assign.Index == nil && assign.Name != nil:
			arg = Word{Text(assign.Name.Value)}
		case assign.Naked && assign.Index == nil:
			word, err := convertWord(assign.Value, true)
			if err != nil {
				return nil, err
			}
			arg = word
		default:
			env, err := convertAssign(assign)
			if err != nil {
				return nil, err
			}
			arg = appendText(Word{}, env.Name+"=")
			for _, part := range env.Value {
				arg = appendPart(arg, part)
			}
		}
		cmd.Args = append(cmd.Args, arg)
	}
	return cmd, nil
}

func convertAssign(assign *syntax.Assign) (EnvVar, error) {
	switch {
	case assign.Append:
		return EnvVar{}, errorAt(assign.Pos(), "+= assignments are not supported")
	case assign.Index != nil || assign.Array != nil:
		return EnvVar{}, errorAt(assign.Pos(), "arrays are not supported")
	case assign.Naked || assign.Name == nil:
		return EnvVar{}, errorAt(assign.Pos(), "expected NAME=value")
	}

	value := Word{}
	if assign.Value != nil {
		word, err := convertWord(assign.Value, false)
		if err != nil {
			return EnvVar{}, err
		}
		value = word
	}
	return EnvVar{Name: assign.Name.Value, Value: value}, nil
}

func convertRedirects(redirs []*syntax.Redirect) ([]Redirect, error) {
	var out []Redirect
	for _, redir := range redirs {
		r, err := convertRedirect(redir)
		if err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, nil
}

func convertRedirect(redir *syntax.Redirect) (Redirect, error) {
	r := Redirect{Fd: FdStdout}
	if redir.N != nil {
		fd, err := strconv.Atoi(redir.N.Value)
		if err != nil {
			return Redirect{}, errorAt(redir.N.Pos(), "unsupported redirect source %q", redir.N.Value)
		}
		r.Fd = Fd(fd)
	}

	switch redir.Op {
	case syntax.RdrOut, syntax.ClbOut:
		r.Op = Overwrite
	case syntax.AppOut:
		r.Op = Append
	case syntax.RdrIn:
		r.Op = InputFrom
		if redir.N == nil {
			r.Fd = FdStdin
		}
	case syntax.RdrAll:
		r.Fd, r.Op = FdBoth, Overwrite
	case syntax.AppAll:
		r.Fd, r.Op = FdBoth, Append
	case syntax.DplOut:
		target, err := strconv.Atoi(redir.Word.Lit())
		if err != nil || target < 0 {
			return Redirect{}, errorAt(redir.Word.Pos(), "expected a file descriptor after %q", ">&")
		}
		r.Op = Overwrite
		r.Target = FdTarget{Fd: Fd(target)}
		return r, nil
	case syntax.Hdoc, syntax.DashHdoc:
		return Redirect{}, errorAt(redir.OpPos, "here-documents are not supported")
	case syntax.WordHdoc:
		return Redirect{}, errorAt(redir.OpPos, "here-strings are not supported")
	default:
		return Redirect{}, errorAt(redir.OpPos, "%s redirects are not supported", redir.Op)
	}

	path, err := convertWord(redir.Word, true)
	if err != nil {
		return Redirect{}, err
	}
	r.Target = PathTarget{Path: path}
	return r, nil
}

// convertWord translates a parsed word. Globs and a leading tilde are only
// recognized when patterns is set, assignment values keep them as text.
func convertWord(word *syntax.Word, patterns bool) (Word, error) {
	out := Word{}
	parts := word.Parts
	for i := 0; i < len(parts); i++ {
		switch part := parts[i].(type) {
		case *syntax.Lit:
			// The lexer may split one run of unquoted text, e.g. at '['.
			first := i == 0
			raw := part.Value
			for i+1 < len(parts) {
				next, ok := parts[i+1].(*syntax.Lit)
				if !ok {
					break
				}
				raw += next.Value
				i++
			}
			if patterns && first && (strings.HasPrefix(raw, "~/") || (raw == "~" && i == len(parts)-1)) {
				out = append(out, Tilde{})
				raw = raw[1:]
			}
			out = appendUnquoted(out, raw, patterns)

		case *syntax.SglQuoted:
			if part.Dollar {
				return nil, errorAt(part.Pos(), "$'...' strings are not supported")
			}
			if part.Value == "" {
				out = append(out, Quoted{})
			} else {
				out = append(out, Quoted{Text(part.Value)})
			}

		case *syntax.DblQuoted:
			if part.Dollar {
				return nil, errorAt(part.Pos(), "$\"...\" strings are not supported")
			}
			quoted, err := convertDblQuoted(part)
			if err != nil {
				return nil, err
			}
			out = append(out, quoted)

		default:
			converted, err := convertExpansion(part)
			if err != nil {
				return nil, err
			}
			out = append(out, converted)
		}
	}
	return out, nil
}

func convertDblQuoted(dq *syntax.DblQuoted) (Quoted, error) {
	quoted := Quoted{}
	for _, part := range dq.Parts {
		if lit, ok := part.(*syntax.Lit); ok {
			quoted = Quoted(appendText(Word(quoted), unescapeDblQuoted(lit.Value)))
			continue
		}
		converted, err := convertExpansion(part)
		if err != nil {
			return nil, err
		}
		quoted = append(quoted, converted)
	}
	return quoted, nil
}

// convertExpansion handles the parts that may appear both bare and inside
// double quotes.
func convertExpansion(part syntax.WordPart) (WordPart, error) {
	switch part := part.(type) {
	case *syntax.ParamExp:
		return convertParam(part)
	case *syntax.CmdSubst:
		if part.Backquotes {
			return nil, errorAt(part.Left, "backtick substitution is not supported, use $(...)")
		}
		if part.TempFile || part.ReplyVar {
			return nil, errorAt(part.Left, "unsupported command substitution")
		}
		list, err := convertStmts(part.Stmts)
		if err != nil {
			return nil, err
		}
		return &Substitution{List: list}, nil
	case *syntax.ArithmExp:
		return nil, errorAt(part.Left, "arithmetic expansion is not supported")
	case *syntax.ProcSubst:
		return nil, errorAt(part.OpPos, "process substitution is not supported")
	case *syntax.ExtGlob:
		return nil, errorAt(part.OpPos, "extended globs are not supported")
	default:
		return nil, errorAt(part.Pos(), "unsupported word part %T", part)
	}
}

func convertParam(param *syntax.ParamExp) (WordPart, error) {
	if param.Param == nil || param.Excl || param.Length || param.Width ||
		param.Index != nil || param.Slice != nil || param.Repl != nil ||
		param.Names != 0 || param.Exp != nil {
		return nil, errorAt(param.Dollar, "unsupported parameter expansion")
	}

	name := param.Param.Value
	if name != "?" && !IsValidName(name) {
		return nil, errorAt(param.Dollar, "special parameter $%s is not supported", name)
	}
	return Variable(name), nil
}

// appendUnquoted removes backslash escapes from raw unquoted text and splits
// out the glob patterns.
func appendUnquoted(word Word, raw string, patterns bool) Word {
	var text strings.Builder
	flush := func() {
		word = appendText(word, text.String())
		text.Reset()
	}

	runes := []rune(raw)
	for i := 0; i < len(runes); i++ {
		r := runes[i]
		switch {
		case r == '\\' && i+1 < len(runes):
			i++
			if runes[i] != '\n' {
				text.WriteRune(runes[i])
			}
		case patterns && (r == '*' || r == '?'):
			flush()
			word = append(word, Glob(string(r)))
		case patterns && r == '[':
			end, ok := bracketEnd(runes, i)
			if !ok {
				text.WriteRune(r)
				continue
			}
			flush()
			word = append(word, Glob(string(runes[i:end+1])))
			i = end
		default:
			text.WriteRune(r)
		}
	}
	flush()
	return word
}

// bracketEnd finds the ']' closing the class that opens at runes[start].
func bracketEnd(runes []rune, start int) (int, bool) {
	end := start + 1
	if end < len(runes) && (runes[end] == '!' || runes[end] == '^') {
		end++
	}
	if end < len(runes) && runes[end] == ']' {
		end++
	}
	for ; end < len(runes); end++ {
		switch runes[end] {
		case ']':
			return end, true
		case '\\':
			return 0, false
		}
	}
	return 0, false
}

func unescapeDblQuoted(raw string) string {
	var sb strings.Builder
	runes := []rune(raw)
	for i := 0; i < len(runes); i++ {
		if runes[i] == '\\' && i+1 < len(runes) {
			switch next := runes[i+1]; next {
			case '$', '`', '"', '\\':
				sb.WriteRune(next)
				i++
				continue
			case '\n':
				i++
				continue
			}
		}
		sb.WriteRune(runes[i])
	}
	return sb.String()
}

// appendText adds text to the word, merging it with a trailing Text part.
func appendText(word Word, text string) Word {
	if text == "" {
		return word
	}
	if n := len(word); n > 0 {
		if last, ok := word[n-1].(Text); ok {
			word[n-1] = last + Text(text)
			return word
		}
	}
	return append(word, Text(text))
}

func appendPart(word Word, part WordPart) Word {
	if text, ok := part.(Text); ok {
		return appendText(word, string(text))
	}
	return append(word, part)
}

// IsValidName reports whether s can be used as a variable name.
func IsValidName(s string) bool {
	return syntax.ValidName(s)
}
