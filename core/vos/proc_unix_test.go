//go:build !windows

package vos

import (
	"context"
	"os/exec"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func requireBinary(t *testing.T, name string) string {
	t.Helper()
	path, err := exec.LookPath(name)
	if err != nil {
		t.Skipf("%s not available: %v", name, err)
	}
	return path
}

func TestTracker_exitCode(t *testing.T) {
	sh := requireBinary(t, "sh")
	tracker := NewTracker()

	proc, err := tracker.Start(exec.Command(sh, "-c", "exit 3"), NewKillSignal())
	require.NoError(t, err)

	code, err := proc.Wait()
	assert.NoError(t, err)
	assert.Equal(t, 3, code)
	assert.Equal(t, Exited, proc.State())
	assert.Empty(t, tracker.Running())
}

func TestTracker_killRunning(t *testing.T) {
	sleep := requireBinary(t, "sleep")
	tracker := NewTracker()
	root := NewKillSignal()

	proc, err := tracker.Start(exec.Command(sleep, "30"), root)
	require.NoError(t, err)
	assert.Len(t, tracker.Running(), 1)

	start := time.Now()
	root.Send(SigTerm)

	code, err := proc.Wait()
	assert.ErrorIs(t, err, ErrKilled)
	assert.Equal(t, 128+15, code)
	assert.Equal(t, Killed, proc.State())
	assert.Less(t, time.Since(start), 10*time.Second)
	assert.Empty(t, tracker.Running())
}

func TestTracker_killBeforeStart(t *testing.T) {
	sleep := requireBinary(t, "sleep")
	tracker := NewTracker()
	root := NewKillSignal()
	root.Send(SigKill)

	cmd := exec.Command(sleep, "30")
	proc, err := tracker.Start(cmd, root)
	assert.ErrorIs(t, err, ErrKilled)
	assert.Nil(t, cmd.Process, "the process must never be spawned")
	assert.Equal(t, Killed, proc.State())

	code, err := proc.Wait()
	assert.ErrorIs(t, err, ErrKilled)
	assert.Equal(t, 128+9, code)
	assert.Empty(t, tracker.Running())
}

func TestTracker_killAllBeforeStart(t *testing.T) {
	sleep := requireBinary(t, "sleep")
	tracker := NewTracker()
	root := NewKillSignal()

	// KillAll lands after the process is tracked but before it's spawned.
	cmd := exec.Command(sleep, "30")
	proc := tracker.register(cmd, root)
	tracker.KillAll(SigTerm)

	err := tracker.start(proc)
	assert.ErrorIs(t, err, ErrKilled)
	assert.Nil(t, cmd.Process, "the process must never be spawned")
	assert.Equal(t, Killed, proc.State())

	code, err := proc.Wait()
	assert.ErrorIs(t, err, ErrKilled)
	assert.Equal(t, 128+15, code)
	assert.Empty(t, tracker.Running())

	_, fired := root.Fired()
	assert.False(t, fired)
}

func TestTracker_killAfterExit(t *testing.T) {
	sh := requireBinary(t, "sh")
	tracker := NewTracker()
	root := NewKillSignal()

	proc, err := tracker.Start(exec.Command(sh, "-c", "exit 0"), root)
	require.NoError(t, err)
	code, err := proc.Wait()
	require.NoError(t, err)

	root.Send(SigKill)

	assert.Equal(t, 0, code)
	assert.Equal(t, Exited, proc.State())
}

func TestTracker_killGrace(t *testing.T) {
	sh := requireBinary(t, "sh")
	tracker := NewTracker()
	tracker.KillGrace = 100 * time.Millisecond
	root := NewKillSignal()

	// The shell ignores SIGTERM so only the escalation can stop it.
	proc, err := tracker.Start(exec.Command(sh, "-c", "trap '' TERM; while :; do sleep 1; done"), root)
	require.NoError(t, err)

	time.Sleep(100 * time.Millisecond)
	root.Send(SigTerm)

	select {
	case <-proc.Done():
	case <-time.After(10 * time.Second):
		t.Fatal("process survived SIGKILL escalation")
	}
	_, err = proc.Wait()
	assert.ErrorIs(t, err, ErrKilled)
}

func TestTracker_Wait(t *testing.T) {
	sh := requireBinary(t, "sh")
	tracker := NewTracker()
	root := NewKillSignal()

	for i := 0; i < 3; i++ {
		_, err := tracker.Start(exec.Command(sh, "-c", "sleep 0.1"), root)
		require.NoError(t, err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	assert.NoError(t, tracker.Wait(ctx))
	assert.Empty(t, tracker.Running())
}

func TestTracker_KillAll(t *testing.T) {
	sleep := requireBinary(t, "sleep")
	tracker := NewTracker()
	root := NewKillSignal()

	var procs []*Process
	for i := 0; i < 3; i++ {
		proc, err := tracker.Start(exec.Command(sleep, "30"), root)
		require.NoError(t, err)
		procs = append(procs, proc)
	}

	tracker.KillAll(SigKill)
	for _, proc := range procs {
		code, err := proc.Wait()
		assert.ErrorIs(t, err, ErrKilled)
		assert.Equal(t, 128+9, code)
	}

	_, fired := root.Fired()
	assert.False(t, fired, "KillAll signals processes, not the tree")
}

func TestTracker_startFailure(t *testing.T) {
	tracker := NewTracker()

	proc, err := tracker.Start(exec.Command("/does/not/exist"), NewKillSignal())
	assert.Error(t, err)
	code, _ := proc.Wait()
	assert.Equal(t, 126, code)
	assert.Empty(t, tracker.Running())
}
