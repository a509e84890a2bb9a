package commands

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestWhich(t *testing.T) {
	cases := map[string]struct {
		script   string
		wantCode int
		wantOut  string
	}{
		"builtin": {
			script:  "which echo",
			wantOut: "echo: shell builtin\n",
		},
		"path": {
			script:  "which git",
			wantOut: "/usr/bin/git\n",
		},
		"not executable": {
			script:   "which notes",
			wantCode: 1,
			wantOut:  "which: no notes in PATH\n",
		},
		"missing continues": {
			script:   "which nope cd",
			wantCode: 1,
			wantOut:  "which: no nope in PATH\ncd: shell builtin\n",
		},
		"relative path": {
			script:  "which ./bin/tool",
			wantOut: "/home/user/bin/tool\n",
		},
		"uses PATH from scope": {
			script:  "PATH=/home/user/bin which tool",
			wantOut: "/home/user/bin/tool\n",
		},
	}

	for tn, tc := range cases {
		t.Run(tn, func(t *testing.T) {
			code, out := runScript(t, tc.script,
				withExecutable("/usr/bin/git"),
				withExecutable("/home/user/bin/tool"),
				withFile("/usr/bin/notes", "not a program"))

			assert.Equal(t, tc.wantCode, code)
			assert.Equal(t, tc.wantOut, out)
		})
	}
}
