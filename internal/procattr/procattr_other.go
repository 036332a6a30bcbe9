//go:build !linux

// Package procattr configures subprocess attributes so agent CLI processes
// cannot outlive the session that spawned them.
package procattr

import (
	"os/exec"
	"syscall"
)

// Set puts the child in its own process group. Pdeathsig is Linux-only, so on
// other platforms orphan prevention relies on group signaling alone.
func Set(cmd *exec.Cmd) {
	cmd.SysProcAttr = &syscall.SysProcAttr{
		Setpgid: true,
	}
}
