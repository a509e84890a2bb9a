package interp

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"

	"github.com/josephlewis42/hooksh/core/shell"
	"github.com/josephlewis42/hooksh/core/vos"
)

const devNull = "/dev/null"

// RedirectError describes a redirection that couldn't be set up.
type RedirectError struct {
	Target string
	Err    error
}

func (e *RedirectError) Error() string {
	return fmt.Sprintf("%s: %v", e.Target, e.Err)
}

func (e *RedirectError) Unwrap() error {
	return e.Err
}

var (
	errAmbiguousRedirect = errors.New("ambiguous redirect")
	errBadFd             = errors.New("bad file descriptor")
)

// redirect applies the redirects from left to right and returns the new
// streams along with a function that closes any files that were opened.
func (s *State) redirect(ec execContext, redirects []shell.Redirect) (execContext, func(), error) {
	var opened []io.Closer
	cleanup := func() {
		for _, c := range opened {
			c.Close()
		}
	}

	for _, r := range redirects {
		switch target := r.Target.(type) {
		case shell.FdTarget:
			var src io.Writer
			switch target.Fd {
			case shell.FdStdout:
				src = ec.stdout
			case shell.FdStderr:
				src = ec.stderr
			default:
				cleanup()
				return ec, nil, &RedirectError{Target: fmt.Sprint(target.Fd), Err: errBadFd}
			}
			if err := setWriter(&ec, r.Fd, src); err != nil {
				cleanup()
				return ec, nil, err
			}

		case shell.PathTarget:
			x := s.expander(ec)
			fields := x.fields([]shell.Word{target.Path})
			if len(fields) != 1 {
				cleanup()
				return ec, nil, &RedirectError{Target: target.Path.String(), Err: errAmbiguousRedirect}
			}
			path := fields[0]

			if r.Op == shell.InputFrom {
				if r.Fd != shell.FdStdin {
					cleanup()
					return ec, nil, &RedirectError{Target: fmt.Sprint(r.Fd), Err: errBadFd}
				}
				if path == devNull {
					ec.stdin = vos.Null
					continue
				}
				f, err := s.fs.Open(s.Abs(path))
				if err != nil {
					cleanup()
					return ec, nil, redirectError(path, err)
				}
				opened = append(opened, f)
				ec.stdin = f
				continue
			}

			var w io.Writer = vos.Null
			if path != devNull {
				flags := os.O_WRONLY | os.O_CREATE | os.O_TRUNC
				if r.Op == shell.Append {
					flags = os.O_WRONLY | os.O_CREATE | os.O_APPEND
				}
				f, err := s.fs.OpenFile(s.Abs(path), flags, 0644)
				if err != nil {
					cleanup()
					return ec, nil, redirectError(path, err)
				}
				opened = append(opened, f)
				w = f
			}
			if err := setWriter(&ec, r.Fd, w); err != nil {
				cleanup()
				return ec, nil, err
			}
		}
	}

	return ec, cleanup, nil
}

func setWriter(ec *execContext, fd shell.Fd, w io.Writer) error {
	switch fd {
	case shell.FdStdout:
		ec.stdout = w
	case shell.FdStderr:
		ec.stderr = w
	case shell.FdBoth:
		ec.stdout = w
		ec.stderr = w
	default:
		return &RedirectError{Target: fmt.Sprint(fd), Err: errBadFd}
	}
	return nil
}

// redirectError strips the operation from path errors so messages read
// "file: reason".
func redirectError(path string, err error) error {
	var pathErr *fs.PathError
	if errors.As(err, &pathErr) {
		err = pathErr.Err
	}
	return &RedirectError{Target: path, Err: err}
}
