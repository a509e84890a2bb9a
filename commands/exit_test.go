package commands

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestExit(t *testing.T) {
	cases := map[string]struct {
		script   string
		wantCode int
		wantOut  string
	}{
		"short circuits": {
			script:   "exit 3; echo should-not-print",
			wantCode: 3,
		},
		"last code": {
			script:   "false; exit",
			wantCode: 1,
		},
		"wraps": {
			script:   "exit 257",
			wantCode: 1,
		},
		"not a number": {
			script:   "exit abc; echo unreachable",
			wantCode: 2,
			wantOut:  "exit: abc: numeric argument required\n",
		},
		"too many args continues": {
			script:  "exit 1 2; echo after",
			wantOut: "exit: too many arguments\nafter\n",
		},
		"subshell contains exit": {
			script:  "(exit 4); echo $?",
			wantOut: "4\n",
		},
		"group exits script": {
			script:   "{ exit 5; }; echo unreachable",
			wantCode: 5,
		},
		"boolean list": {
			script:   "true && exit 6 || echo unreachable; echo unreachable",
			wantCode: 6,
		},
		"pipeline stage contains exit": {
			script:  "exit 7 | true; echo $?",
			wantOut: "0\n",
		},
		"substitution contains exit": {
			script:  `echo "[$(exit 8)]" $?`,
			wantOut: "[] 8\n",
		},
	}

	for tn, tc := range cases {
		t.Run(tn, func(t *testing.T) {
			code, out := runScript(t, tc.script)

			assert.Equal(t, tc.wantCode, code)
			assert.Equal(t, tc.wantOut, out)
		})
	}
}

func TestTrueFalse(t *testing.T) {
	code, out := runScript(t, "true && echo yes; false || echo no; false")

	assert.Equal(t, 1, code)
	assert.Equal(t, "yes\nno\n", out)
}
