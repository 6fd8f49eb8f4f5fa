package codex

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildArgs_Default(t *testing.T) {
	t.Parallel()
	args := buildArgs(execArgs{inputText: "hello"})

	assert.Equal(t, []string{"exec", "--experimental-json"}, args)
}

func TestBuildArgs_AllFlags(t *testing.T) {
	t.Parallel()
	args := buildArgs(execArgs{
		inputText:             "go",
		model:                 "gpt-test-1",
		sandboxMode:           SandboxWorkspaceWrite,
		workingDirectory:      "/tmp/work",
		additionalDirectories: []string{"/tmp/a", "/tmp/b"},
		skipGitRepoCheck:      true,
		outputSchemaFile:      "/tmp/schema.json",
		reasoningEffort:       EffortHigh,
		networkAccess:         Ptr(true),
		webSearch:             Ptr(false),
		approvalPolicy:        ApprovalOnRequest,
		images:                []string{"/p1.png", "/p2.png"},
		threadID:              "thread-123",
	})

	expected := []string{
		"exec", "--experimental-json",
		"--model", "gpt-test-1",
		"--sandbox", "workspace-write",
		"--cd", "/tmp/work",
		"--add-dir", "/tmp/a",
		"--add-dir", "/tmp/b",
		"--skip-git-repo-check",
		"--output-schema", "/tmp/schema.json",
		"--config", `model_reasoning_effort="high"`,
		"--config", "sandbox_workspace_write.network_access=true",
		"--config", `web_search="disabled"`,
		"--config", `approval_policy="on-request"`,
		"--image", "/p1.png",
		"--image", "/p2.png",
		"resume", "thread-123",
	}
	assert.Equal(t, expected, args)
}

func TestBuildArgs_WebSearchModeWinsOverShorthand(t *testing.T) {
	t.Parallel()
	args := buildArgs(execArgs{
		webSearchMode: WebSearchCached,
		webSearch:     Ptr(true),
	})

	assert.Contains(t, args, `web_search="cached"`)
	assert.NotContains(t, args, `web_search="live"`)
}

func TestBuildArgs_WebSearchShorthand(t *testing.T) {
	t.Parallel()
	args := buildArgs(execArgs{webSearch: Ptr(true)})
	assert.Contains(t, args, `web_search="live"`)
}

func TestBuildEnv_OverrideReplacesAmbient(t *testing.T) {
	t.Setenv("CODEX_ENV_SHOULD_NOT_LEAK", "leak")

	e := newCodexExec("codex", map[string]string{"CUSTOM_ENV": "custom"})
	env := envMap(e.buildEnv(execArgs{baseURL: "http://example.test", apiKey: "test"}))

	assert.Equal(t, "custom", env["CUSTOM_ENV"])
	assert.NotContains(t, env, "CODEX_ENV_SHOULD_NOT_LEAK")
	assert.Equal(t, "http://example.test", env["OPENAI_BASE_URL"])
	assert.Equal(t, "test", env["CODEX_API_KEY"])
	assert.Equal(t, sdkOriginator, env[internalOriginatorEnv])
}

func TestBuildEnv_InheritsAmbient(t *testing.T) {
	t.Setenv("CODEX_ENV_AMBIENT", "present")

	e := newCodexExec("codex", nil)
	env := envMap(e.buildEnv(execArgs{}))

	assert.Equal(t, "present", env["CODEX_ENV_AMBIENT"])
	assert.Equal(t, sdkOriginator, env[internalOriginatorEnv])
}

func TestBuildEnv_OriginatorNotOverwritten(t *testing.T) {
	t.Parallel()
	e := newCodexExec("codex", map[string]string{internalOriginatorEnv: "custom_originator"})
	env := envMap(e.buildEnv(execArgs{}))

	assert.Equal(t, "custom_originator", env[internalOriginatorEnv])
}

// envMap converts "k=v" entries back into a map for assertions.
func envMap(entries []string) map[string]string {
	m := make(map[string]string, len(entries))
	for _, kv := range entries {
		for i := 0; i < len(kv); i++ {
			if kv[i] == '=' {
				m[kv[:i]] = kv[i+1:]
				break
			}
		}
	}
	return m
}

// writeScript creates an executable fake codex binary for process tests.
func writeScript(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "codex")
	require.NoError(t, os.WriteFile(path, []byte("#!/bin/sh\n"+body), 0o755))
	return path
}

// collectLines drives a stream to completion, closing it on every path.
func collectLines(ctx context.Context, t *testing.T, s lineSource) ([]string, error) {
	t.Helper()
	defer s.Close()

	var lines []string
	for {
		line, err := s.Next(ctx)
		if err == io.EOF {
			return lines, nil
		}
		if err != nil {
			return lines, err
		}
		lines = append(lines, line)
	}
}

func TestExecStream_YieldsLinesAndExitsClean(t *testing.T) {
	t.Parallel()
	script := writeScript(t, `cat >/dev/null
printf 'one\ntwo\n'
printf 'trailing'`)

	e := newCodexExec(script, nil)
	s, err := e.start(execArgs{inputText: "hi"})
	require.NoError(t, err)

	lines, err := collectLines(context.Background(), t, s)
	require.NoError(t, err)
	assert.Equal(t, []string{"one", "two", "trailing"}, lines)
}

func TestExecStream_NonzeroExitReportsStderr(t *testing.T) {
	t.Parallel()
	script := writeScript(t, `cat >/dev/null
printf 'partial output\n'
echo 'something broke' >&2
exit 3`)

	e := newCodexExec(script, nil)
	s, err := e.start(execArgs{inputText: "hi"})
	require.NoError(t, err)

	lines, err := collectLines(context.Background(), t, s)
	assert.Equal(t, []string{"partial output"}, lines)

	var procErr *ProcessError
	require.ErrorAs(t, err, &procErr)
	assert.Equal(t, "code 3", procErr.Detail)
	assert.Contains(t, procErr.Stderr, "something broke")
}

func TestExecStream_CancelKillsProcess(t *testing.T) {
	t.Parallel()
	script := writeScript(t, `cat >/dev/null
sleep 60`)

	e := newCodexExec(script, nil)
	src, err := e.start(execArgs{inputText: "hi"})
	require.NoError(t, err)
	s := src.(*execStream)

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(50 * time.Millisecond)
		cancel()
	}()

	_, err = s.Next(ctx)
	require.ErrorIs(t, err, context.Canceled)

	s.Close()
	// The process was killed and waited on: no zombie remains.
	require.NotNil(t, s.cmd.ProcessState)
	assert.False(t, s.cmd.ProcessState.Success())
}

func TestExecStream_IdleTimeout(t *testing.T) {
	t.Parallel()
	script := writeScript(t, `cat >/dev/null
sleep 60`)

	e := newCodexExec(script, nil)
	s, err := e.start(execArgs{inputText: "hi", idleTimeout: 100 * time.Millisecond})
	require.NoError(t, err)
	defer s.Close()

	_, err = s.Next(context.Background())
	var idleErr *IdleTimeoutError
	require.ErrorAs(t, err, &idleErr)
	assert.Equal(t, 100*time.Millisecond, idleErr.Timeout)
}

func TestExecStream_CloseIsIdempotent(t *testing.T) {
	t.Parallel()
	script := writeScript(t, `cat >/dev/null
echo done`)

	e := newCodexExec(script, nil)
	s, err := e.start(execArgs{inputText: "hi"})
	require.NoError(t, err)

	s.Close()
	s.Close()
}

func TestExec_MissingBinary(t *testing.T) {
	t.Parallel()
	e := newCodexExec(filepath.Join(t.TempDir(), "missing-binary"), nil)
	_, err := e.start(execArgs{inputText: "hi"})
	require.Error(t, err)
}
