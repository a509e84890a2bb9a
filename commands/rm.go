package commands

import (
	"errors"
	"io/fs"

	"github.com/josephlewis42/hooksh/core/interp"
)

// Rm implements a POSIX rm command.
func Rm(bc *interp.Context) interp.ExecuteResult {
	cmd := &SimpleCommand{
		Use:   "rm [OPTION...] FILE...",
		Short: "Remove files or directories.",
	}

	recursive := cmd.Flags().BoolLong("recursive", 'r', "remove directories and their contents recursively")
	force := cmd.Flags().BoolLong("force", 'f', "ignore missing files and arguments, never prompt")

	return code(cmd.Run(bc, func() int {
		files := cmd.Flags().Args()
		if len(files) == 0 && !*force {
			bc.Errorf("missing operand")
			return 1
		}

		fsys := bc.State().Fs()
		anyFailed := false
		for _, file := range files {
			path := bc.State().Abs(file)
			stat, statErr := fsys.Stat(path)
			switch {
			case errors.Is(statErr, fs.ErrNotExist):
				if !*force {
					bc.Errorf("can't remove %q: no such file or directory", file)
					anyFailed = true
				}
			case statErr != nil:
				bc.Errorf("can't stat %q: %s", file, describeErr(statErr))
				anyFailed = true
			case stat.IsDir():
				if !*recursive {
					bc.Errorf("can't remove %q: is a directory", file)
					anyFailed = true
					continue
				}
				if err := fsys.RemoveAll(path); err != nil {
					bc.Errorf("can't remove %q: %s", file, describeErr(err))
					anyFailed = true
				}
			default:
				if err := fsys.Remove(path); err != nil {
					bc.Errorf("can't remove %q: %s", file, describeErr(err))
					anyFailed = true
				}
			}
		}

		if anyFailed {
			return 1
		}
		return 0
	}))
}

func init() {
	addBuiltin("rm", Rm)
}
