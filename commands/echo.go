package commands

import (
	"io"
	"regexp"
	"strconv"
	"strings"

	"github.com/josephlewis42/hooksh/core/interp"
)

var (
	unescapeOctal   = regexp.MustCompile(`\\0[0-7][0-7]?[0-7]?`)
	unescapeHex     = regexp.MustCompile(`\\x[0-9a-fA-F][0-9a-fA-F]?`)
	unescapeReplace = strings.NewReplacer(
		`\n`, "\n", // newline
		`\r`, "\r", // carriage return
		`\t`, "\t", // horizontal tab
		`\\`, `\`, // backslash literal
		`\b`, "\b", // backspace
		`\a`, "\a", // alert
		`\f`, "\f", // form feed
		`\v`, "\v", // vertical tab
	)
)

func unescape(s string) string {
	s = unescapeReplace.Replace(s)
	s = unescapeOctal.ReplaceAllStringFunc(s, func(arg string) string {
		out, err := strconv.ParseUint(arg[2:], 8, 8)
		if err != nil {
			return arg
		}
		return string(rune(out))
	})
	s = unescapeHex.ReplaceAllStringFunc(s, func(arg string) string {
		out, err := strconv.ParseUint(arg[2:], 16, 8)
		if err != nil {
			return arg
		}
		return string(rune(out))
	})
	return s
}

// echoFlags splits leading flag arguments off args. Like most shells' echo,
// anything that isn't made up entirely of known flags is printed.
func echoFlags(args []string) (newline, escapes bool, rest []string) {
	newline = true
	for len(args) > 0 {
		arg := args[0]
		if len(arg) < 2 || arg[0] != '-' || strings.Trim(arg[1:], "neE") != "" {
			break
		}
		for _, c := range arg[1:] {
			switch c {
			case 'n':
				newline = false
			case 'e':
				escapes = true
			case 'E':
				escapes = false
			}
		}
		args = args[1:]
	}
	return newline, escapes, args
}

// Echo writes its arguments separated by spaces.
func Echo(bc *interp.Context) interp.ExecuteResult {
	newline, escapes, args := echoFlags(bc.Args[1:])

	var sb strings.Builder
	for i, arg := range args {
		if i > 0 {
			sb.WriteString(" ")
		}
		if escapes {
			arg = unescape(arg)
		}
		sb.WriteString(arg)
	}
	if newline {
		sb.WriteString("\n")
	}

	if _, err := io.WriteString(bc.Stdout, sb.String()); err != nil {
		return code(1)
	}
	return code(0)
}

func init() {
	addBuiltin("echo", Echo)
}
