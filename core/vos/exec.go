package vos

import (
	"errors"
	"io/fs"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/spf13/afero"
)

// ErrNotFound is the error resulting if a path search failed to find an executable file.
var ErrNotFound = exec.ErrNotFound

func findExecutable(fsys afero.Fs, file string) error {
	d, err := fsys.Stat(file)
	switch {
	case errors.Is(err, fs.ErrNotExist):
		return ErrNotFound
	case err != nil:
		return err
	}
	if m := d.Mode(); !m.IsDir() && m&0111 != 0 {
		return nil
	}
	return fs.ErrPermission
}

// LookPath searches for an executable named file in the directories named by
// pathEnv, a PATH style list. If file contains a slash, it is tried directly
// relative to cwd and the PATH is not consulted. The result is always an
// absolute path.
//
// A file that exists but isn't executable results in fs.ErrPermission when
// it was named directly, PATH entries that aren't executable are skipped.
func LookPath(fsys afero.Fs, cwd, pathEnv, file string) (string, error) {
	if strings.ContainsRune(file, '/') || strings.ContainsRune(file, filepath.Separator) {
		path := absolute(cwd, file)
		if err := findExecutable(fsys, path); err != nil {
			return "", err
		}
		return path, nil
	}

	if file == "" {
		return "", ErrNotFound
	}

	for _, dir := range filepath.SplitList(pathEnv) {
		if dir == "" {
			// Unix shell semantics: path element "" means "."
			dir = "."
		}
		path := absolute(cwd, filepath.Join(dir, file))
		if err := findExecutable(fsys, path); err == nil {
			return path, nil
		}
	}
	return "", ErrNotFound
}

func absolute(cwd, path string) string {
	if filepath.IsAbs(path) {
		return filepath.Clean(path)
	}
	return filepath.Join(cwd, path)
}
