package codex

import (
	"errors"
	"fmt"

	"github.com/bazelment/codex-sdk/internal/ndjson"
)

// Sentinel errors for common error conditions.
var (
	// ErrTurnIncomplete reports that the event stream ended without a
	// turn.completed or turn.failed event. A truncated protocol stream is
	// never a valid result.
	ErrTurnIncomplete = errors.New("turn ended without turn.completed or turn.failed")

	// ErrInvalidOutputSchema reports an output schema whose top level is
	// not a JSON object.
	ErrInvalidOutputSchema = errors.New("output schema must be a plain JSON object")

	// ErrOptionConflict reports that both an options struct and discrete
	// functional options were supplied for the same call.
	ErrOptionConflict = errors.New("pass either an options struct or discrete options, not both")
)

// IdleTimeoutError reports that the CLI produced no stdout chunk within
// the configured idle window. Timeout carries the configured duration.
type IdleTimeoutError = ndjson.IdleTimeoutError

// ProtocolError represents a protocol-level error, such as a stdout line
// that is not valid JSON. Line holds the offending line verbatim.
type ProtocolError struct {
	Cause   error
	Message string
	Line    string
}

func (e *ProtocolError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("protocol error: %s: %v", e.Message, e.Cause)
	}
	return fmt.Sprintf("protocol error: %s", e.Message)
}

func (e *ProtocolError) Unwrap() error {
	return e.Cause
}

// ProcessError represents a Codex CLI process failure: nonzero exit or
// signal termination. Detail is "code N" or "signal SIG"; Stderr holds the
// full accumulated stderr output.
type ProcessError struct {
	Cause  error
	Detail string
	Stderr string
}

func (e *ProcessError) Error() string {
	return fmt.Sprintf("codex exec exited with %s: %s", e.Detail, e.Stderr)
}

func (e *ProcessError) Unwrap() error {
	return e.Cause
}

// TurnFailedError surfaces a turn.failed event reported by the CLI itself.
type TurnFailedError struct {
	Message string
}

func (e *TurnFailedError) Error() string {
	return e.Message
}

// CLINotFoundError indicates the codex binary was not found.
type CLINotFoundError struct {
	Cause error
	Path  string
}

func (e *CLINotFoundError) Error() string {
	if e.Path == "" {
		return "could not find codex on PATH; set WithCodexPath to override"
	}
	return fmt.Sprintf("codex binary not found at %q: %v", e.Path, e.Cause)
}

func (e *CLINotFoundError) Unwrap() error {
	return e.Cause
}
