package procattr

import (
	"os/exec"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSet_ConfiguresProcessGroup(t *testing.T) {
	t.Parallel()
	cmd := exec.Command("true")
	Set(cmd)

	require.NotNil(t, cmd.SysProcAttr)
	assert.True(t, cmd.SysProcAttr.Setpgid)
}

func TestKillGroup_NilProcessIsNoop(t *testing.T) {
	t.Parallel()
	assert.NoError(t, KillGroup(nil))
}

func TestKillGroup_TerminatesRunningProcess(t *testing.T) {
	t.Parallel()
	cmd := exec.Command("sleep", "60")
	Set(cmd)
	require.NoError(t, cmd.Start())

	require.NoError(t, KillGroup(cmd.Process))

	done := make(chan error, 1)
	go func() { done <- cmd.Wait() }()

	select {
	case err := <-done:
		require.Error(t, err)
		assert.False(t, cmd.ProcessState.Success())
	case <-time.After(5 * time.Second):
		t.Fatal("process did not exit after group kill")
	}
}
