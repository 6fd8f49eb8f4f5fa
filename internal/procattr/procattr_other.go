//go:build !linux

// Package procattr configures spawned Codex CLI processes so they cannot
// outlive the SDK: each child runs in its own process group, and on Linux
// carries a parent-death signal.
package procattr

import (
	"os/exec"
	"syscall"
)

// Set places the child in its own process group. Pdeathsig is unavailable
// off Linux; the group still lets KillGroup take down the whole subtree.
func Set(cmd *exec.Cmd) {
	cmd.SysProcAttr = &syscall.SysProcAttr{
		Setpgid: true,
	}
}
