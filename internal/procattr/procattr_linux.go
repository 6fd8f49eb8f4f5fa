//go:build linux

// Package procattr configures spawned Codex CLI processes so they cannot
// outlive the SDK: each child runs in its own process group, and on Linux
// carries a parent-death signal.
package procattr

import (
	"os/exec"
	"syscall"
)

// Set places the child in its own process group and arms Pdeathsig so the
// kernel kills the child if this process dies without reaching its own
// cleanup path (OOM kill, SIGKILL).
func Set(cmd *exec.Cmd) {
	cmd.SysProcAttr = &syscall.SysProcAttr{
		Setpgid:   true,
		Pdeathsig: syscall.SIGKILL,
	}
}
