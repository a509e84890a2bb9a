package cmd

import (
	"errors"
	"fmt"
	"io"
	"io/ioutil"
	"os"
	"path/filepath"

	"github.com/josephlewis42/hooksh/core/config"
	"github.com/josephlewis42/hooksh/core/logger"
	"github.com/spf13/cobra"
)

// scriptSource holds the -c flag shared by commands that take a script.
type scriptSource struct {
	inline string
}

func (s *scriptSource) addFlags(cmd *cobra.Command) {
	cmd.Flags().StringVarP(&s.inline, "command", "c", "", "script to run instead of reading a file")
}

// Read returns the script text from -c, a file, or stdin if the file is "-".
func (s *scriptSource) Read(cmd *cobra.Command, args []string) (string, error) {
	switch {
	case cmd.Flags().Changed("command") && len(args) > 0:
		return "", errors.New("-c can't be combined with a script file")
	case cmd.Flags().Changed("command"):
		return s.inline, nil
	case len(args) == 0:
		return "", errors.New("expected a script file or -c")
	case args[0] == "-":
		contents, err := ioutil.ReadAll(cmd.InOrStdin())
		return string(contents), err
	default:
		contents, err := ioutil.ReadFile(args[0])
		return string(contents), err
	}
}

// workingDir resolves the directory scripts start in, defaulting to the
// current one.
func workingDir(dir string) (string, error) {
	if dir == "" {
		return os.Getwd()
	}

	abs, err := filepath.Abs(dir)
	if err != nil {
		return "", err
	}
	switch info, err := os.Stat(abs); {
	case err != nil:
		return "", err
	case !info.IsDir():
		return "", fmt.Errorf("%s: not a directory", abs)
	}
	return abs, nil
}

// openEventLog opens the event log named by the flag, or the configured one
// if the flag is empty. A nil writer means events are disabled.
func openEventLog(cfg *config.Configuration, override string) (io.WriteCloser, error) {
	switch {
	case override != "":
		return os.OpenFile(override, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0600)
	case cfg.EventLogPath() == "":
		return nil, nil
	default:
		return cfg.OpenEventLog()
	}
}

// newEventSession starts a session in the log, w may be nil.
func newEventSession(w io.Writer) *logger.SessionLogger {
	if w == nil {
		return nil
	}
	return logger.NewJsonLinesLogRecorder(w).NewSession()
}
