package commands

import (
	"errors"
	"fmt"
	"io/fs"

	"github.com/josephlewis42/hooksh/core/interp"
)

// Cd changes the shell's working directory.
//
// https://pubs.opengroup.org/onlinepubs/9699919799.2018edition/utilities/cd.html
func Cd(bc *interp.Context) interp.ExecuteResult {
	cmd := &SimpleCommand{
		Use:   "cd [DIR|-]",
		Short: "Change the working directory, $HOME by default or $OLDPWD with -.",
	}

	var changes []interp.EnvChange
	ret := cmd.Run(bc, func() int {
		state := bc.State()
		args := cmd.Flags().Args()

		var target string
		printDir := false
		switch {
		case len(args) > 1:
			bc.Errorf("too many arguments")
			return 1

		case len(args) == 0:
			home, ok := state.GetVar(interp.EnvHome)
			if !ok || home == "" {
				bc.Errorf("HOME not set")
				return 1
			}
			target = home

		case args[0] == "-":
			old, ok := state.GetVar(interp.EnvOldPWD)
			if !ok || old == "" {
				bc.Errorf("OLDPWD not set")
				return 1
			}
			target = old
			printDir = true

		default:
			target = args[0]
		}

		dir := state.Abs(target)
		info, err := state.Fs().Stat(dir)
		switch {
		case errors.Is(err, fs.ErrNotExist):
			bc.Errorf("%s: no such file or directory", target)
			return 1
		case err != nil:
			bc.Errorf("%s: %v", target, err)
			return 1
		case !info.IsDir():
			bc.Errorf("%s: not a directory", target)
			return 1
		}

		if printDir {
			fmt.Fprintln(bc.Stdout, dir)
		}
		changes = append(changes, interp.Cd{Path: dir})
		return 0
	})

	return interp.Continue(ret, changes...)
}

func init() {
	addBuiltin("cd", Cd)
}
