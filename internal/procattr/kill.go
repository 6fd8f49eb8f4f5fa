package procattr

import (
	"os"
	"syscall"
)

// KillGroup sends SIGKILL to the entire process group of p. The negative
// PID makes the kernel deliver the signal to every process in the group,
// not just the direct child, so shell wrappers cannot strand grandchildren.
func KillGroup(p *os.Process) error {
	if p == nil {
		return nil
	}
	return syscall.Kill(-p.Pid, syscall.SIGKILL)
}
