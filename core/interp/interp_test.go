package interp_test

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/josephlewis42/hooksh/commands"
	"github.com/josephlewis42/hooksh/core/interp"
	"github.com/josephlewis42/hooksh/core/interp/interptest"
	"github.com/josephlewis42/hooksh/core/logger"
	"github.com/josephlewis42/hooksh/core/shell"
	"github.com/josephlewis42/hooksh/core/vos"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type scriptCase struct {
	script   string
	wantCode int
	wantOut  string
}

func newFs(t *testing.T) afero.Fs {
	t.Helper()

	fs := afero.NewMemMapFs()
	for path, contents := range map[string]string{
		"/home/user/a.go":       "package a\n",
		"/home/user/b.go":       "package b\n",
		"/home/user/.hidden.go": "package hidden\n",
		"/home/user/notes.txt":  "notes\n",
		"/home/user/src/c.go":   "package c\n",
	} {
		require.NoError(t, afero.WriteFile(fs, path, []byte(contents), 0644))
	}
	require.NoError(t, fs.MkdirAll("/tmp", 0755))
	return fs
}

func runCases(t *testing.T, cases map[string]scriptCase) {
	t.Helper()

	for tn, tc := range cases {
		tc := tc
		t.Run(tn, func(t *testing.T) {
			script := &interptest.Script{Builtins: commands.AllBuiltins, Fs: newFs(t)}

			code, out, err := script.Run(context.Background(), tc.script)
			require.NoError(t, err)

			assert.Equal(t, tc.wantCode, code, "exit code")
			assert.Equal(t, tc.wantOut, out)
		})
	}
}

func TestExecute_booleanLists(t *testing.T) {
	runCases(t, map[string]scriptCase{
		"and short circuits": {
			script:   "(exit 3) && echo should-not-print",
			wantCode: 3,
		},
		"and runs right": {
			script:  "true && echo yes",
			wantOut: "yes\n",
		},
		"or short circuits": {
			script: "true || echo should-not-print",
		},
		"or runs right": {
			script:  "false || echo recovered",
			wantOut: "recovered\n",
		},
		"chained": {
			script:  "false && echo a || echo b",
			wantOut: "b\n",
		},
		"status after short circuit": {
			script:  "false && echo no; echo $?",
			wantOut: "1\n",
		},
		"right sees left changes": {
			script:  "export A=1 && echo $A; echo $A",
			wantOut: "1\n1\n",
		},
		"right sees left status": {
			script:  "false || echo $?",
			wantOut: "1\n",
		},
		"right changes win": {
			script:  "X=1 && X=2; echo $X",
			wantOut: "2\n",
		},
	})
}

func TestExecute_pipelines(t *testing.T) {
	runCases(t, map[string]scriptCase{
		"builtins": {
			script:  "echo hi | cat | cat",
			wantOut: "hi\n",
		},
		"last stage code": {
			script:   "true | false",
			wantCode: 1,
		},
		"earlier failures ignored": {
			script: "false | true",
		},
		"negated": {
			script:  "! true; echo $?; ! false; echo $?; ! (exit 3); echo $?",
			wantOut: "1\n0\n0\n",
		},
		"negated pipeline": {
			script: "! true | false",
		},
		"changes discarded": {
			script:  "cd /tmp | true; X=1 | true; pwd; echo \"[$X]\"",
			wantOut: "/home/user\n[]\n",
		},
		"single command keeps changes": {
			script:  "cd /tmp; pwd",
			wantOut: "/tmp\n",
		},
		"stderr pipe": {
			script:  "nope |& cat",
			wantOut: "hooksh: nope: command not found\n",
		},
		"stderr not piped": {
			script:  "nope 2>/dev/null | cat; echo $?",
			wantOut: "0\n",
		},
		"xargs": {
			script:  `echo "a b c" | xargs echo`,
			wantOut: "a b c\n",
		},
	})
}

func TestExecute_scopes(t *testing.T) {
	runCases(t, map[string]scriptCase{
		"subshell isolates": {
			script:  "X=1; (X=2; echo $X); echo $X",
			wantOut: "2\n1\n",
		},
		"subshell cd": {
			script:  "(cd /tmp && pwd); pwd",
			wantOut: "/tmp\n/home/user\n",
		},
		"group shares": {
			script:  "X=1; { X=2; }; echo $X",
			wantOut: "2\n",
		},
		"command scoped": {
			script:  `X=1 true; echo "[$X]"`,
			wantOut: "[]\n",
		},
		"command scoped chain": {
			script:  "A=1 B=$A env | xargs",
			wantOut: "A=1 B=1 HOME=/home/user PATH=/usr/bin:/bin USER=user\n",
		},
		"assignment run": {
			script:  `A=1 B=$A; echo "[$A][$B]"`,
			wantOut: "[1][1]\n",
		},
		"assignment run after failed substitution": {
			script:  `a=$(false) b=2; echo "[$b] $?"`,
			wantOut: "[2] 1\n",
		},
		"assignment run keeps last substitution status": {
			script:  `a=$(exit 3) b=$(true); echo $?`,
			wantOut: "0\n",
		},
		"assignment with redirect": {
			script:  "X=1 > /dev/null; echo $X",
			wantOut: "1\n",
		},
		"shell vars not exported": {
			script:  "X=1; env | xargs",
			wantOut: "HOME=/home/user PATH=/usr/bin:/bin USER=user\n",
		},
		"exported var updated by assignment": {
			script:  "USER=root; env | xargs",
			wantOut: "HOME=/home/user PATH=/usr/bin:/bin USER=root\n",
		},
		"exit in subshell": {
			script:  "(exit 4; echo no); echo $?",
			wantOut: "4\n",
		},
		"exit in group": {
			script:   "{ echo a; exit 5; echo no; }; echo no",
			wantCode: 5,
			wantOut:  "a\n",
		},
		"exit short circuits": {
			script:   "exit 3; echo should-not-print",
			wantCode: 3,
		},
	})
}

func TestExecute_expansion(t *testing.T) {
	runCases(t, map[string]scriptCase{
		"variables": {
			script:  `X=world; echo hello $X "${X}s" '$X'`,
			wantOut: "hello world worlds $X\n",
		},
		"unset variable": {
			script:  `echo "[$NOPE]" x${NOPE}y`,
			wantOut: "[] xy\n",
		},
		"field splitting": {
			script:  `X="a   b"; echo $X; echo "$X"`,
			wantOut: "a b\na   b\n",
		},
		"substitution": {
			script:  `echo "[$(echo hi)]" $(echo a   b)`,
			wantOut: "[hi] a b\n",
		},
		"nested substitution": {
			script:  `echo $(echo $(echo deep))`,
			wantOut: "deep\n",
		},
		"substitution status": {
			script:  `X=$(false); echo $?`,
			wantOut: "1\n",
		},
		"substitution isolated": {
			script:  `X=$(cd /tmp; Y=1; pwd); echo $X; pwd; echo "[$Y]"`,
			wantOut: "/tmp\n/home/user\n[]\n",
		},
		"tilde": {
			script:  `echo ~ ~/src "~"`,
			wantOut: "/home/user /home/user/src ~\n",
		},
		"status": {
			script:  `(exit 7); echo $? "$?"; echo $?`,
			wantOut: "7 7\n0\n",
		},
	})
}

func TestExecute_globbing(t *testing.T) {
	runCases(t, map[string]scriptCase{
		"matches sorted": {
			script:  "echo *.go",
			wantOut: "a.go b.go\n",
		},
		"hidden files need a dot": {
			script:  "echo .*.go",
			wantOut: ".hidden.go\n",
		},
		"no match kept": {
			script:  "echo *.rs",
			wantOut: "*.rs\n",
		},
		"quoted not expanded": {
			script:  `echo "*.go" '*.go'`,
			wantOut: "*.go *.go\n",
		},
		"escaped not expanded": {
			script:  `echo \*.go`,
			wantOut: "*.go\n",
		},
		"variable results not expanded": {
			script:  `X='*.go'; echo $X`,
			wantOut: "*.go\n",
		},
		"directories": {
			script:  "echo src/*.go",
			wantOut: "src/c.go\n",
		},
		"character class": {
			script:  "echo [ab].go",
			wantOut: "a.go b.go\n",
		},
		"question mark": {
			script:  "echo ?.go",
			wantOut: "a.go b.go\n",
		},
		"after cd": {
			script:  "cd src && echo *",
			wantOut: "c.go\n",
		},
	})
}

func TestExecute_redirects(t *testing.T) {
	runCases(t, map[string]scriptCase{
		"precedence": {
			script:  "echo hi > x > y; cat y; echo \"[$(cat x)]\"",
			wantOut: "hi\n[]\n",
		},
		"append": {
			script:  "echo a > f; echo b >> f; cat f",
			wantOut: "a\nb\n",
		},
		"truncate": {
			script:  "echo long > f; echo s > f; cat f",
			wantOut: "s\n",
		},
		"input": {
			script:  "cat < notes.txt",
			wantOut: "notes\n",
		},
		"dup order": {
			script:   "nope 2>&1 > out.txt",
			wantCode: 127,
			wantOut:  "hooksh: nope: command not found\n",
		},
		"dup into file": {
			script:  "nope > out.txt 2>&1; cat out.txt",
			wantOut: "hooksh: nope: command not found\n",
		},
		"both": {
			script:  "nope &> log.txt; echo $?; cat log.txt",
			wantOut: "127\nhooksh: nope: command not found\n",
		},
		"stdout to stderr": {
			script:  "echo err >&2 2>/dev/null",
			wantOut: "err\n",
		},
		"dev null": {
			script: "echo hi > /dev/null; cat < /dev/null",
		},
		"missing input": {
			script:  "cat < missing.txt; echo next $?",
			wantOut: "hooksh: missing.txt: file does not exist\nnext 1\n",
		},
		"missing input skips command": {
			script:   "echo ran < missing.txt",
			wantCode: 1,
			wantOut:  "hooksh: missing.txt: file does not exist\n",
		},
		"ambiguous": {
			script:   `F="a b"; echo x > $F`,
			wantCode: 1,
			wantOut:  "hooksh: ${F}: ambiguous redirect\n",
		},
		"expanded target": {
			script:  `F=out; echo x > "$F.txt"; cat out.txt`,
			wantOut: "x\n",
		},
		"group": {
			script:  "{ echo a; echo b; } > f; cat f",
			wantOut: "a\nb\n",
		},
		"subshell": {
			script:  "(echo a; nope) 2>&1 > f; cat f",
			wantOut: "hooksh: nope: command not found\na\n",
		},
		"relative to cwd": {
			script:  "cd src && echo x > out.txt; cat src/out.txt",
			wantOut: "x\n",
		},
	})
}

func TestExecute_async(t *testing.T) {
	runCases(t, map[string]scriptCase{
		"joined before returning": {
			script:  "sleep 0.05 && echo late & echo early",
			wantOut: "early\nlate\n",
		},
		"status is zero": {
			script:  "false & echo $?",
			wantOut: "0\n",
		},
		"isolated": {
			script:  "X=1 & cd /tmp & sleep 0.01; echo \"[$X]\"; pwd",
			wantOut: "[]\n/home/user\n",
		},
		"exit ends job only": {
			script:  "exit 3 & sleep 0.01; echo after",
			wantOut: "after\n",
		},
		"reads null stdin": {
			script:  "cat & echo done",
			wantOut: "done\n",
		},
	})
}

func TestExecute_notFound(t *testing.T) {
	script := &interptest.Script{Builtins: commands.AllBuiltins}

	code, out, err := script.Run(context.Background(), "nope arg; echo $?")
	require.NoError(t, err)

	assert.Equal(t, 0, code)
	assert.Equal(t, "hooksh: nope: command not found\n127\n", out)

	events := script.Events.Events()
	require.Len(t, events, 1)
	assert.Equal(t, logger.CommandNotFound, events[0].Type)
	assert.Equal(t, []string{"nope", "arg"}, events[0].Command)
	assert.Equal(t, "/home/user", events[0].Dir)
	assert.Equal(t, 127, events[0].ExitCode)
	assert.Equal(t, "test", events[0].SessionID)
}

func TestExecute_notExecutable(t *testing.T) {
	fs := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(fs, "/home/user/script.sh", []byte("echo hi"), 0644))
	script := &interptest.Script{Builtins: commands.AllBuiltins, Fs: fs}

	code, out, err := script.Run(context.Background(), "./script.sh")
	require.NoError(t, err)

	assert.Equal(t, 126, code)
	assert.Equal(t, "hooksh: ./script.sh: permission denied\n", out)
}

func TestExecute_builtinPanic(t *testing.T) {
	builtins := commands.AllBuiltins.Without()
	builtins["boom"] = interp.BuiltinFunc(func(bc *interp.Context) interp.ExecuteResult {
		panic("kaboom")
	})
	script := &interptest.Script{Builtins: builtins}

	code, out, err := script.Run(context.Background(), "boom; echo survived $?")
	require.NoError(t, err)

	assert.Equal(t, 0, code)
	assert.Equal(t, "hooksh: boom: internal error: kaboom\nsurvived 1\n", out)
	assert.Equal(t, []logger.EventType{logger.BuiltinPanic}, script.Events.Types())
}

func TestExecute_disabledBuiltin(t *testing.T) {
	script := &interptest.Script{Builtins: commands.AllBuiltins.Without("echo")}

	code, out, err := script.Run(context.Background(), "echo hi")
	require.NoError(t, err)

	assert.Equal(t, 127, code)
	assert.Equal(t, "hooksh: echo: command not found\n", out)
}

func TestExecute_reentrant(t *testing.T) {
	builtins := commands.AllBuiltins.Without()
	builtins["twice"] = interp.BuiltinFunc(func(bc *interp.Context) interp.ExecuteResult {
		var last interp.ExecuteResult
		for i := 0; i < 2; i++ {
			last = bc.Execute(bc.Args[1:], vos.NewStdio(nil, bc.Stdout, bc.Stderr))
		}
		return interp.Continue(last.ExitCode)
	})
	script := &interptest.Script{Builtins: builtins}

	code, out, err := script.Run(context.Background(), "twice echo hi; twice cd /; pwd; twice exit 4")
	require.NoError(t, err)

	// Changes made by re-entered commands are discarded and exit is contained.
	assert.Equal(t, 4, code)
	assert.Equal(t, "hi\nhi\n/home/user\n", out)
}

func TestRun_parseError(t *testing.T) {
	fs := afero.NewMemMapFs()
	var stdout strings.Builder

	code, err := interp.Run(context.Background(), "touch created; echo 'abc", interp.RunOptions{
		Dir:      "/",
		Builtins: commands.AllBuiltins,
		Stdout:   &stdout,
		Fs:       fs,
	})

	var parseErr *shell.ParseError
	require.True(t, errors.As(err, &parseErr), "got %v", err)
	assert.Equal(t, 2, code)
	assert.Equal(t, 1, parseErr.Line)
	assert.Empty(t, stdout.String())

	// Nothing runs before the whole script parses.
	exists, err := afero.Exists(fs, "/created")
	require.NoError(t, err)
	assert.False(t, exists)
}

func TestRun_options(t *testing.T) {
	fs := afero.NewMemMapFs()
	require.NoError(t, fs.MkdirAll("/work", 0755))
	var out vos.CaptureBuffer

	code, err := interp.Run(context.Background(), "pwd; echo $GREETING; nope", interp.RunOptions{
		Dir:      "/work",
		Env:      []string{"GREETING=hello"},
		Builtins: commands.AllBuiltins,
		Stdout:   &out,
		Stderr:   &out,
		Fs:       fs,
		Name:     "hook",
	})

	require.NoError(t, err)
	assert.Equal(t, 127, code)
	assert.Equal(t, "/work\nhello\nhook: nope: command not found\n", out.String())
}

func TestRun_cancelledBeforeStart(t *testing.T) {
	kill := vos.NewKillSignal()
	kill.Send(vos.SigTerm)
	var out vos.CaptureBuffer

	code, err := interp.Run(context.Background(), "echo should-not-print", interp.RunOptions{
		Dir:        "/",
		Builtins:   commands.AllBuiltins,
		Stdout:     &out,
		Fs:         afero.NewMemMapFs(),
		KillSignal: kill,
	})

	assert.ErrorIs(t, err, interp.ErrCancelled)
	assert.Equal(t, 143, code)
	assert.Empty(t, out.String())
}

func TestExecute_exited(t *testing.T) {
	state := interp.NewStateFromOptions(interp.RunOptions{
		Dir:      "/",
		Builtins: commands.AllBuiltins,
		Fs:       afero.NewMemMapFs(),
	})

	run := func(script string) int {
		list, err := shell.Parse(script)
		require.NoError(t, err)
		code, err := interp.Execute(context.Background(), list, state, vos.NullStdio())
		require.NoError(t, err)
		return code
	}

	assert.Equal(t, 0, run("(exit 3); true"))
	assert.False(t, state.Exited())

	assert.Equal(t, 5, run("exit 5; echo unreachable"))
	assert.True(t, state.Exited())

	assert.Equal(t, 0, run("true"))
	assert.False(t, state.Exited())
}
