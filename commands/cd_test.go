package commands

import (
	"testing"

	"github.com/josephlewis42/hooksh/core/interp/interptest"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func withDirs(dirs ...string) func(*interptest.Script) {
	return func(s *interptest.Script) {
		if s.Fs == nil {
			s.Fs = afero.NewMemMapFs()
		}
		for _, dir := range dirs {
			if err := s.Fs.MkdirAll(dir, 0755); err != nil {
				panic(err)
			}
		}
	}
}

func withFile(path, contents string) func(*interptest.Script) {
	return func(s *interptest.Script) {
		if s.Fs == nil {
			s.Fs = afero.NewMemMapFs()
		}
		if err := afero.WriteFile(s.Fs, path, []byte(contents), 0644); err != nil {
			panic(err)
		}
	}
}

func TestCd(t *testing.T) {
	cases := map[string]struct {
		script   string
		wantCode int
		wantOut  string
	}{
		"absolute": {
			script:  "cd /tmp && pwd",
			wantOut: "/tmp\n",
		},
		"relative": {
			script:  "cd src/..//src; pwd",
			wantOut: "/home/user/src\n",
		},
		"home": {
			script:  "cd /tmp; cd; pwd",
			wantOut: "/home/user\n",
		},
		"dash": {
			script:  "cd /tmp; cd -; pwd",
			wantOut: "/home/user\n/home/user\n",
		},
		"pwd vars": {
			script:  "cd /tmp; echo $PWD $OLDPWD",
			wantOut: "/tmp /home/user\n",
		},
		"subshell scoped": {
			script:  "(cd /tmp && pwd); pwd",
			wantOut: "/tmp\n/home/user\n",
		},
		"group shares scope": {
			script:  "{ cd /tmp; }; pwd",
			wantOut: "/tmp\n",
		},
		"missing": {
			script:   "cd nope",
			wantCode: 1,
			wantOut:  "cd: nope: no such file or directory\n",
		},
		"file": {
			script:   "cd notes.txt",
			wantCode: 1,
			wantOut:  "cd: notes.txt: not a directory\n",
		},
		"too many": {
			script:   "cd /tmp /",
			wantCode: 1,
			wantOut:  "cd: too many arguments\n",
		},
		"failed cd keeps dir": {
			script:   "cd nope 2>/dev/null; pwd",
			wantCode: 0,
			wantOut:  "/home/user\n",
		},
		"no oldpwd": {
			script:   "cd -",
			wantCode: 1,
			wantOut:  "cd: OLDPWD not set\n",
		},
		"no home": {
			script:   "unset HOME; cd",
			wantCode: 1,
			wantOut:  "cd: HOME not set\n",
		},
	}

	for tn, tc := range cases {
		t.Run(tn, func(t *testing.T) {
			code, out := runScript(t, tc.script,
				withDirs("/tmp", "/home/user/src"),
				withFile("/home/user/notes.txt", "hello"))

			assert.Equal(t, tc.wantCode, code)
			assert.Equal(t, tc.wantOut, out)
		})
	}
}

func TestCd_exportedPwd(t *testing.T) {
	script := &interptest.Script{
		Builtins: AllBuiltins,
		Env:      append(interptest.DefaultEnv(), "PWD=/home/user"),
	}
	withDirs("/tmp")(script)

	code, out, err := script.Run(ctx(), "cd /tmp; env")
	require.NoError(t, err)

	assert.Equal(t, 0, code)
	assert.Contains(t, out, "PWD=/tmp\n")
	// OLDPWD wasn't exported so it stays a shell variable.
	assert.NotContains(t, out, "OLDPWD")
}

func withExecutable(path string) func(*interptest.Script) {
	return func(s *interptest.Script) {
		if s.Fs == nil {
			s.Fs = afero.NewMemMapFs()
		}
		if err := afero.WriteFile(s.Fs, path, []byte("#!/bin/sh\n"), 0755); err != nil {
			panic(err)
		}
	}
}
