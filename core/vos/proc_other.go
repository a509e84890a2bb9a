//go:build windows

package vos

import (
	"os"
	"os/exec"
)

func setProcessGroup(cmd *exec.Cmd) {}

// killProcess can only terminate the direct child, there are no signals or
// process groups to forward to.
func killProcess(proc *os.Process, sig Signal, group bool) error {
	if proc == nil {
		return os.ErrProcessDone
	}
	return proc.Kill()
}

func exitCode(state *os.ProcessState) int {
	return state.ExitCode()
}
