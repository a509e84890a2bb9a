package commands

import (
	"errors"
	"io/fs"
	"time"

	"github.com/josephlewis42/hooksh/core/interp"
)

// Touch implements a POSIX touch command.
func Touch(bc *interp.Context) interp.ExecuteResult {
	cmd := &SimpleCommand{
		Use:   "touch [OPTION...] FILE...",
		Short: "Update the access and modification times of files to now.",
	}

	noCreate := cmd.Flags().BoolLong("no-create", 'c', "don't create files")

	return code(cmd.Run(bc, func() int {
		paths := cmd.Flags().Args()
		if len(paths) == 0 {
			bc.Errorf("missing file operand")
			return 1
		}

		fsys := bc.State().Fs()
		now := time.Now()

		var anyFailed bool
		for _, path := range paths {
			abs := bc.State().Abs(path)
			err := fsys.Chtimes(abs, now, now)
			switch {
			case errors.Is(err, fs.ErrNotExist) && !*noCreate:
				fd, err := fsys.Create(abs)
				if err != nil {
					bc.Errorf("cannot touch %q: %s", path, describeErr(err))
					anyFailed = true
					continue
				}
				fd.Close()
			case errors.Is(err, fs.ErrNotExist) && *noCreate:
				// Not an error.
			case err != nil:
				bc.Errorf("setting times of %q: %s", path, describeErr(err))
				anyFailed = true
			}
		}

		if anyFailed {
			return 1
		}
		return 0
	}))
}

func init() {
	addBuiltin("touch", Touch)
}
