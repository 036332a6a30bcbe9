package procattr

import (
	"os"
	"syscall"
)

// SignalGroup delivers sig to the entire process group of p. The negative
// PID form reaches every process in the group, not just the direct child.
// A nil process is a no-op.
func SignalGroup(p *os.Process, sig syscall.Signal) error {
	if p == nil {
		return nil
	}
	return syscall.Kill(-p.Pid, sig)
}

// KillGroup sends SIGKILL to the entire process group of p.
func KillGroup(p *os.Process) error {
	return SignalGroup(p, syscall.SIGKILL)
}
