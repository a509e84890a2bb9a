//go:build !windows

package vos

import (
	"os"
	"os/exec"
	"syscall"

	"golang.org/x/sys/unix"
)

// setProcessGroup puts the child in its own process group so the whole group
// can be signalled, including anything it spawns.
func setProcessGroup(cmd *exec.Cmd) {
	if cmd.SysProcAttr == nil {
		cmd.SysProcAttr = &syscall.SysProcAttr{}
	}
	cmd.SysProcAttr.Setpgid = true
}

func killProcess(proc *os.Process, sig Signal, group bool) error {
	if proc == nil {
		return os.ErrProcessDone
	}
	if group {
		if err := unix.Kill(-proc.Pid, syscall.Signal(sig)); err == nil {
			return nil
		}
	}
	return proc.Signal(syscall.Signal(sig))
}

func exitCode(state *os.ProcessState) int {
	if ws, ok := state.Sys().(syscall.WaitStatus); ok && ws.Signaled() {
		return 128 + int(ws.Signal())
	}
	return state.ExitCode()
}
