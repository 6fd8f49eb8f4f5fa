package codex

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/exec"
	"sort"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/bazelment/codex-sdk/internal/ndjson"
	"github.com/bazelment/codex-sdk/internal/procattr"
)

const (
	// internalOriginatorEnv attributes CLI calls to this SDK. It is set
	// only if the caller's environment does not already define it.
	internalOriginatorEnv = "CODEX_INTERNAL_ORIGINATOR_OVERRIDE"
	sdkOriginator         = "codex_sdk_go"

	defaultBinary = "codex"
)

// execArgs describes one exec invocation. Built once per turn, never
// mutated afterwards.
type execArgs struct {
	networkAccess         *bool
	webSearch             *bool
	inputText             string
	baseURL               string
	apiKey                string
	threadID              string
	model                 string
	workingDirectory      string
	outputSchemaFile      string
	sandboxMode           SandboxMode
	reasoningEffort       ReasoningEffort
	webSearchMode         WebSearchMode
	approvalPolicy        ApprovalMode
	images                []string
	additionalDirectories []string
	idleTimeout           time.Duration
	skipGitRepoCheck      bool
}

// lineSource is a lazy, finite, non-restartable sequence of stdout lines
// backed by one child process. Close must run on every exit path.
type lineSource interface {
	Next(ctx context.Context) (string, error)
	Close()
}

// runner abstracts codexExec so turn aggregation can be tested against
// canned line sequences.
type runner interface {
	start(args execArgs) (lineSource, error)
}

// codexExec spawns codex CLI processes. One instance is shared by all
// threads of a client; each run owns exactly one child process.
type codexExec struct {
	env  map[string]string // nil means inherit the ambient environment
	path string
}

func newCodexExec(pathOverride string, env map[string]string) *codexExec {
	return &codexExec{path: pathOverride, env: env}
}

// buildArgs assembles the CLI argument vector. Order is deterministic:
// subcommand and output format first, one flag per populated field, list
// fields in input order, resume subcommand last.
func buildArgs(args execArgs) []string {
	cmd := []string{"exec", "--experimental-json"}

	if args.model != "" {
		cmd = append(cmd, "--model", args.model)
	}
	if args.sandboxMode != "" {
		cmd = append(cmd, "--sandbox", string(args.sandboxMode))
	}
	if args.workingDirectory != "" {
		cmd = append(cmd, "--cd", args.workingDirectory)
	}
	for _, dir := range args.additionalDirectories {
		cmd = append(cmd, "--add-dir", dir)
	}
	if args.skipGitRepoCheck {
		cmd = append(cmd, "--skip-git-repo-check")
	}
	if args.outputSchemaFile != "" {
		cmd = append(cmd, "--output-schema", args.outputSchemaFile)
	}
	if args.reasoningEffort != "" {
		cmd = append(cmd, "--config", fmt.Sprintf("model_reasoning_effort=%q", args.reasoningEffort))
	}
	if args.networkAccess != nil {
		cmd = append(cmd, "--config",
			fmt.Sprintf("sandbox_workspace_write.network_access=%t", *args.networkAccess))
	}
	// The explicit mode wins over the boolean shorthand.
	switch {
	case args.webSearchMode != "":
		cmd = append(cmd, "--config", fmt.Sprintf("web_search=%q", args.webSearchMode))
	case args.webSearch != nil && *args.webSearch:
		cmd = append(cmd, "--config", `web_search="live"`)
	case args.webSearch != nil:
		cmd = append(cmd, "--config", `web_search="disabled"`)
	}
	if args.approvalPolicy != "" {
		cmd = append(cmd, "--config", fmt.Sprintf("approval_policy=%q", args.approvalPolicy))
	}
	for _, image := range args.images {
		cmd = append(cmd, "--image", image)
	}
	if args.threadID != "" {
		cmd = append(cmd, "resume", args.threadID)
	}
	return cmd
}

// buildEnv assembles the child environment. An explicit override replaces
// the ambient environment entirely; the originator marker is added only
// when absent; base URL and API key overrides are applied last.
func (e *codexExec) buildEnv(args execArgs) []string {
	env := make(map[string]string)
	if e.env != nil {
		for k, v := range e.env {
			env[k] = v
		}
	} else {
		for _, kv := range os.Environ() {
			if k, v, ok := strings.Cut(kv, "="); ok {
				env[k] = v
			}
		}
	}

	if _, ok := env[internalOriginatorEnv]; !ok {
		env[internalOriginatorEnv] = sdkOriginator
	}
	if args.baseURL != "" {
		env["OPENAI_BASE_URL"] = args.baseURL
	}
	if args.apiKey != "" {
		env["CODEX_API_KEY"] = args.apiKey
	}

	keys := make([]string, 0, len(env))
	for k := range env {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	out := make([]string, 0, len(env))
	for _, k := range keys {
		out = append(out, k+"="+env[k])
	}
	return out
}

// stderrDrain accumulates the child's full stderr in the background so a
// full pipe buffer can never stall the child.
type stderrDrain struct {
	done chan struct{}
	buf  []byte
}

func drainStderr(r io.Reader) *stderrDrain {
	d := &stderrDrain{done: make(chan struct{})}
	go func() {
		defer close(d.done)
		d.buf, _ = io.ReadAll(r)
	}()
	return d
}

// wait blocks until the drain sees EOF (killing the child closes the
// pipe) and returns everything read.
func (d *stderrDrain) wait() string {
	<-d.done
	return string(d.buf)
}

// execStream is one live exec invocation: a lazy line sequence plus the
// child process it is read from. The owner must call Close on every exit
// path; Close is idempotent.
type execStream struct {
	cmd    *exec.Cmd
	reader *ndjson.Reader
	stderr *stderrDrain
	finErr error
	waited bool
	closed bool
}

// start spawns the CLI, writes the whole input payload to stdin, starts
// the stderr drain, and returns the stdout line stream.
func (e *codexExec) start(args execArgs) (lineSource, error) {
	path := e.path
	if path == "" {
		found, err := exec.LookPath(defaultBinary)
		if err != nil {
			return nil, &CLINotFoundError{Cause: err}
		}
		path = found
	}

	cmd := exec.Command(path, buildArgs(args)...)
	cmd.Env = e.buildEnv(args)
	procattr.Set(cmd)

	stdin, err := cmd.StdinPipe()
	if err != nil {
		return nil, fmt.Errorf("codex exec: stdin pipe: %w", err)
	}
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return nil, fmt.Errorf("codex exec: stdout pipe: %w", err)
	}
	stderr, err := cmd.StderrPipe()
	if err != nil {
		return nil, fmt.Errorf("codex exec: stderr pipe: %w", err)
	}

	if err := cmd.Start(); err != nil {
		if errors.Is(err, exec.ErrNotFound) {
			return nil, &CLINotFoundError{Path: path, Cause: err}
		}
		return nil, fmt.Errorf("codex exec: start: %w", err)
	}

	s := &execStream{
		cmd:    cmd,
		reader: ndjson.NewReader(stdout, args.idleTimeout),
		stderr: drainStderr(stderr),
	}

	// The child treats stdin EOF as "prompt complete"; write errors are
	// deliberately ignored so a child that exits early surfaces its
	// stderr through exit classification instead of an EPIPE here.
	if _, err := io.WriteString(stdin, args.inputText); err != nil {
		slog.Debug("codex exec: stdin write failed", "err", err)
	}
	_ = stdin.Close()

	return s, nil
}

// Next returns the next stdout line. io.EOF means the sequence ended and
// the process exited cleanly. Cancellation and idle-timeout errors leave
// the process running; the caller's Close tears it down.
func (s *execStream) Next(ctx context.Context) (string, error) {
	line, err := s.reader.ReadLine(ctx)
	if err == nil {
		return line, nil
	}
	if err == io.EOF {
		return "", s.finish()
	}
	return "", err
}

// finish runs after stdout is exhausted: join the stderr drain, wait for
// exit, classify. Exit code zero maps to io.EOF.
func (s *execStream) finish() error {
	if s.waited {
		return s.finErr
	}
	s.waited = true

	stderrText := s.stderr.wait()
	err := s.cmd.Wait()
	if err == nil {
		s.finErr = io.EOF
		return io.EOF
	}

	detail := "code -1"
	if state := s.cmd.ProcessState; state != nil {
		detail = "code " + strconv.Itoa(state.ExitCode())
		if ws, ok := state.Sys().(syscall.WaitStatus); ok && ws.Signaled() {
			detail = "signal " + strconv.Itoa(int(ws.Signal()))
		}
	}
	s.finErr = &ProcessError{Detail: detail, Stderr: stderrText, Cause: err}
	return s.finErr
}

// Close releases every resource the stream owns: the reader's background
// read, the stderr drain, and the child itself. If the process has not
// exited it is killed (whole process group) and waited on, so no zombie
// or leaked descriptor remains on any exit path.
func (s *execStream) Close() {
	if s.closed {
		return
	}
	s.closed = true

	s.reader.Close()

	if !s.waited {
		if s.cmd.ProcessState == nil {
			_ = procattr.KillGroup(s.cmd.Process)
		}
		s.stderr.wait()
		s.waited = true
		_ = s.cmd.Wait()
	}
}
