//go:build linux

// Package procattr configures subprocess attributes so agent CLI processes
// cannot outlive the session that spawned them.
package procattr

import (
	"os/exec"
	"syscall"
)

// Set puts the child in its own process group and arranges for it to receive
// SIGTERM if this process dies first (OOM kill, SIGKILL). Group membership is
// what lets Stop signal the CLI together with everything it forked.
func Set(cmd *exec.Cmd) {
	cmd.SysProcAttr = &syscall.SysProcAttr{
		Setpgid:   true,
		Pdeathsig: syscall.SIGTERM,
	}
}
