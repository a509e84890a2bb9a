package commands

import (
	"io"

	"github.com/josephlewis42/hooksh/core/interp"
)

// Cat concatenates files to stdout, "-" or no files reads stdin.
func Cat(bc *interp.Context) interp.ExecuteResult {
	cmd := &SimpleCommand{
		Use:   "cat [FILE]...",
		Short: "Concatenate FILE(s) to standard output.",
	}

	return code(cmd.Run(bc, func() int {
		files := cmd.Flags().Args()
		if len(files) == 0 {
			files = []string{"-"}
		}

		anyFailed := false
		for _, file := range files {
			if file == "-" {
				if _, err := io.Copy(bc.Stdout, bc.Stdin); err != nil {
					bc.Errorf("-: %v", err)
					return 1
				}
				continue
			}

			fd, err := bc.State().Fs().Open(bc.State().Abs(file))
			if err != nil {
				bc.Errorf("%s: %s", file, describeErr(err))
				anyFailed = true
				continue
			}

			_, err = io.Copy(bc.Stdout, fd)
			fd.Close()
			if err != nil {
				bc.Errorf("%s: %s", file, describeErr(err))
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
	addBuiltin("cat", Cat)
}
