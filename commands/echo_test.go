package commands

import (
	"testing"

	"github.com/josephlewis42/hooksh/core/interp"
	"github.com/josephlewis42/hooksh/core/interp/interptest"
	"github.com/stretchr/testify/assert"
)

func TestUnescape(t *testing.T) {
	cases := []struct {
		escaped  string
		expected string
	}{
		{"not escaped", "not escaped"},
		{`newline\n`, "newline\n"},
		{`double-escape\\n`, `double-escape\n`},
		{`tab\tseparated`, "tab\tseparated"},
		// Octal
		{`\07`, string(rune(7))},
		{`\011`, "\t"},
		{`\0101`, "A"},
		// Hex
		{`\x7`, string(rune(07))},
		{`\x9`, "\t"},
		{`\x4A`, "J"},
	}

	for _, tc := range cases {
		t.Run(tc.escaped, func(t *testing.T) {
			actual := unescape(tc.escaped)

			assert.Equal(t, tc.expected, actual)
		})
	}
}

func TestEcho(t *testing.T) {
	cases := goldenTestSuite{
		"no-args":        {[]string{"echo"}},
		"words":          {[]string{"echo", "hello", "world"}},
		"no-newline":     {[]string{"echo", "-n", "hello"}},
		"escapes":        {[]string{"echo", "-e", `a\tb\x41`}},
		"combined-flags": {[]string{"echo", "-ne", `a\nb`}},
		"unknown-flag":   {[]string{"echo", "-x", "-n"}},
		"flag-after-arg": {[]string{"echo", "a", "-n"}},
	}

	cases.Run(t, interp.BuiltinFunc(Echo))
}

func TestEcho_brokenPipe(t *testing.T) {
	cmd := interptest.Command(interp.BuiltinFunc(Echo), "echo", "hello")
	cmd.Stdout = failingWriter{}

	err := cmd.Run()

	assert.NoError(t, err)
	assert.Equal(t, 1, cmd.ExitStatus)
}
