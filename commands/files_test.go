package commands

import (
	"context"
	"testing"
	"time"

	"github.com/josephlewis42/hooksh/core/interp"
	"github.com/josephlewis42/hooksh/core/interp/interptest"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCat(t *testing.T) {
	cases := map[string]struct {
		script   string
		wantCode int
		wantOut  string
	}{
		"file": {
			script:  "cat a.txt",
			wantOut: "alpha\n",
		},
		"concatenates": {
			script:  "cat a.txt /home/user/b.txt",
			wantOut: "alpha\nbravo\n",
		},
		"stdin": {
			script:  "echo piped | cat",
			wantOut: "piped\n",
		},
		"dash": {
			script:  "echo piped | cat a.txt - b.txt",
			wantOut: "alpha\npiped\nbravo\n",
		},
		"redirected input": {
			script:  "cat < b.txt",
			wantOut: "bravo\n",
		},
		"missing continues": {
			script:   "cat nope a.txt",
			wantCode: 1,
			wantOut:  "cat: nope: no such file or directory\nalpha\n",
		},
	}

	for tn, tc := range cases {
		t.Run(tn, func(t *testing.T) {
			code, out := runScript(t, tc.script,
				withFile("/home/user/a.txt", "alpha\n"),
				withFile("/home/user/b.txt", "bravo\n"))

			assert.Equal(t, tc.wantCode, code)
			assert.Equal(t, tc.wantOut, out)
		})
	}
}

func TestRm(t *testing.T) {
	cases := map[string]struct {
		script    string
		wantCode  int
		wantOut   string
		wantGone  []string
		wantExist []string
	}{
		"file": {
			script:    "rm a.txt",
			wantGone:  []string{"/home/user/a.txt"},
			wantExist: []string{"/home/user/dir/b.txt"},
		},
		"directory needs recursive": {
			script:    "rm dir",
			wantCode:  1,
			wantOut:   "rm: can't remove \"dir\": is a directory\n",
			wantExist: []string{"/home/user/dir/b.txt"},
		},
		"recursive": {
			script:   "rm -r dir a.txt",
			wantGone: []string{"/home/user/dir", "/home/user/dir/b.txt", "/home/user/a.txt"},
		},
		"missing": {
			script:   "rm nope",
			wantCode: 1,
			wantOut:  "rm: can't remove \"nope\": no such file or directory\n",
		},
		"force": {
			script:   "rm -f nope a.txt",
			wantGone: []string{"/home/user/a.txt"},
		},
		"no operand": {
			script:   "rm",
			wantCode: 1,
			wantOut:  "rm: missing operand\n",
		},
		"glob": {
			script:    "rm *.txt",
			wantGone:  []string{"/home/user/a.txt"},
			wantExist: []string{"/home/user/dir/b.txt"},
		},
	}

	for tn, tc := range cases {
		t.Run(tn, func(t *testing.T) {
			fs := afero.NewMemMapFs()
			require.NoError(t, afero.WriteFile(fs, "/home/user/a.txt", []byte("a"), 0644))
			require.NoError(t, afero.WriteFile(fs, "/home/user/dir/b.txt", []byte("b"), 0644))

			code, out := runScript(t, tc.script, func(s *interptest.Script) { s.Fs = fs })

			assert.Equal(t, tc.wantCode, code)
			assert.Equal(t, tc.wantOut, out)
			for _, path := range tc.wantGone {
				ok, err := afero.Exists(fs, path)
				require.NoError(t, err)
				assert.False(t, ok, path)
			}
			for _, path := range tc.wantExist {
				ok, err := afero.Exists(fs, path)
				require.NoError(t, err)
				assert.True(t, ok, path)
			}
		})
	}
}

func TestTouch(t *testing.T) {
	fs := afero.NewMemMapFs()
	old := time.Date(2000, 1, 1, 0, 0, 0, 0, time.UTC)
	require.NoError(t, afero.WriteFile(fs, "/home/user/old.txt", []byte("keep"), 0644))
	require.NoError(t, fs.Chtimes("/home/user/old.txt", old, old))

	code, out := runScript(t, "touch old.txt new.txt && touch -c absent.txt", func(s *interptest.Script) { s.Fs = fs })
	assert.Equal(t, 0, code)
	assert.Empty(t, out)

	info, err := fs.Stat("/home/user/old.txt")
	require.NoError(t, err)
	assert.True(t, info.ModTime().After(old))

	contents, err := afero.ReadFile(fs, "/home/user/old.txt")
	require.NoError(t, err)
	assert.Equal(t, "keep", string(contents))

	ok, err := afero.Exists(fs, "/home/user/new.txt")
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = afero.Exists(fs, "/home/user/absent.txt")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestTouch_noOperand(t *testing.T) {
	cmd := interptest.Command(interp.BuiltinFunc(Touch), "touch")

	out, err := cmd.CombinedOutput()
	require.NoError(t, err)

	assert.Equal(t, 1, cmd.ExitStatus)
	assert.Equal(t, "touch: missing file operand\n", string(out))
}

func TestSleep(t *testing.T) {
	code, out := runScript(t, "sleep 0.01 && sleep 0 && echo done")

	assert.Equal(t, 0, code)
	assert.Equal(t, "done\n", out)
}

func TestSleep_invalid(t *testing.T) {
	cmd := interptest.Command(interp.BuiltinFunc(Sleep), "sleep", "soon")

	out, err := cmd.CombinedOutput()
	require.NoError(t, err)

	assert.Equal(t, 1, cmd.ExitStatus)
	assert.Equal(t, "sleep: invalid time interval \"soon\"\n", string(out))
	assert.Len(t, cmd.Events.Events(), 1)
}

func TestSleep_cancelled(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	script := &interptest.Script{Builtins: AllBuiltins}
	start := time.Now()
	code, out, err := script.Run(ctx, "sleep 60; echo unreachable")

	assert.ErrorIs(t, err, interp.ErrCancelled)
	assert.Equal(t, 137, code)
	assert.Empty(t, out)
	assert.Less(t, time.Since(start), 10*time.Second)
}
