package commands

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/josephlewis42/hooksh/core/interp"
)

// Mkdir implements a POSIX mkdir command.
//
// https://pubs.opengroup.org/onlinepubs/9699919799.2018edition/utilities/mkdir.html
func Mkdir(bc *interp.Context) interp.ExecuteResult {
	cmd := &SimpleCommand{
		Use:   "mkdir [OPTION...] DIRECTORY...",
		Short: "Create directories if they don't exist.",
	}

	makeParents := cmd.Flags().BoolLong("parents", 'p', "make parents if needed")
	verbose := cmd.Flags().BoolLong("verbose", 'v', "print line for every created directory")

	return code(cmd.Run(bc, func() int {
		directories := cmd.Flags().Args()
		if len(directories) == 0 {
			bc.Errorf("missing operand")

			cmd.PrintHelp(bc.Stderr)
			return 1
		}

		fsys := bc.State().Fs()
		op := func(path string, perm os.FileMode) error {
			// Not every filesystem checks the parent exists.
			parent, err := fsys.Stat(filepath.Dir(path))
			switch {
			case err != nil:
				return err
			case !parent.IsDir():
				return &fs.PathError{Op: "mkdir", Path: path, Err: errors.New("not a directory")}
			}
			return fsys.Mkdir(path, perm)
		}
		if *makeParents {
			op = fsys.MkdirAll
		}

		anyFailed := false
		for _, dir := range directories {
			err := op(bc.State().Abs(dir), 0777)
			switch {
			case err != nil:
				bc.Errorf("cannot create directory %q: %s", dir, describeErr(err))
				anyFailed = true

			case *verbose:
				fmt.Fprintf(bc.Stdout, "mkdir: created directory %q\n", dir)
			}
		}

		if anyFailed {
			return 1
		}
		return 0
	}))
}

// describeErr strips the operation and path from filesystem errors, commands
// print the path the user typed instead.
func describeErr(err error) string {
	var pathErr *fs.PathError
	switch {
	case errors.Is(err, fs.ErrNotExist):
		return "no such file or directory"
	case errors.Is(err, fs.ErrExist):
		return "file exists"
	case errors.Is(err, fs.ErrPermission):
		return "permission denied"
	case errors.As(err, &pathErr):
		return pathErr.Err.Error()
	default:
		return err.Error()
	}
}

func init() {
	addBuiltin("mkdir", Mkdir)
}
