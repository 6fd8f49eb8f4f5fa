package codex

import "time"

// SandboxMode controls the filesystem sandbox policy for the turn.
type SandboxMode string

const (
	SandboxReadOnly       SandboxMode = "read-only"
	SandboxWorkspaceWrite SandboxMode = "workspace-write"
	SandboxFullAccess     SandboxMode = "danger-full-access"
)

// ApprovalMode controls when the agent escalates for approval.
type ApprovalMode string

const (
	ApprovalNever     ApprovalMode = "never"
	ApprovalOnRequest ApprovalMode = "on-request"
	ApprovalOnFailure ApprovalMode = "on-failure"
	ApprovalUntrusted ApprovalMode = "untrusted"
)

// ReasoningEffort selects the model reasoning effort.
type ReasoningEffort string

const (
	EffortMinimal ReasoningEffort = "minimal"
	EffortLow     ReasoningEffort = "low"
	EffortMedium  ReasoningEffort = "medium"
	EffortHigh    ReasoningEffort = "high"
	EffortXHigh   ReasoningEffort = "xhigh"
)

// WebSearchMode selects the web search behavior.
type WebSearchMode string

const (
	WebSearchDisabled WebSearchMode = "disabled"
	WebSearchCached   WebSearchMode = "cached"
	WebSearchLive     WebSearchMode = "live"
)

// Ptr returns a pointer to v, for the optional pointer fields below.
func Ptr[T any](v T) *T { return &v }

// CodexOptions configures the client as a whole: where the binary lives
// and how its calls authenticate.
type CodexOptions struct {
	// Env, when non-nil, fully replaces the ambient process environment
	// for spawned CLI processes. It is never merged with os.Environ.
	Env map[string]string

	// CodexPathOverride skips PATH discovery and uses this binary.
	CodexPathOverride string

	// BaseURL overrides the API endpoint via OPENAI_BASE_URL.
	BaseURL string

	// APIKey is injected as CODEX_API_KEY.
	APIKey string
}

// Option configures the client.
type Option func(*CodexOptions)

// WithCodexPath sets an explicit codex binary path.
func WithCodexPath(path string) Option {
	return func(o *CodexOptions) { o.CodexPathOverride = path }
}

// WithBaseURL overrides the API base URL.
func WithBaseURL(url string) Option {
	return func(o *CodexOptions) { o.BaseURL = url }
}

// WithAPIKey sets the API key passed to the CLI.
func WithAPIKey(key string) Option {
	return func(o *CodexOptions) { o.APIKey = key }
}

// WithEnv replaces the ambient environment for spawned CLI processes.
func WithEnv(env map[string]string) Option {
	return func(o *CodexOptions) { o.Env = env }
}

// ThreadOptions configures every turn run on a thread.
type ThreadOptions struct {
	// NetworkAccess toggles sandbox_workspace_write.network_access when set.
	NetworkAccess *bool

	// WebSearch is the boolean shorthand for web search. Ignored when
	// WebSearchMode is set.
	WebSearch *bool

	Model            string
	SandboxMode      SandboxMode
	WorkingDirectory string
	ReasoningEffort  ReasoningEffort
	WebSearchMode    WebSearchMode
	ApprovalPolicy   ApprovalMode

	// AdditionalDirectories are extra writable roots, one --add-dir each.
	AdditionalDirectories []string

	SkipGitRepoCheck bool
}

// threadConfig tracks how thread options were supplied so the ambiguous
// combination (struct plus discrete options) can be rejected.
type threadConfig struct {
	opts       ThreadOptions
	wholeSet   bool
	discretSet bool
}

// ThreadOption configures a thread.
type ThreadOption func(*threadConfig)

// WithThreadOptions supplies the full options struct. It cannot be
// combined with discrete thread options.
func WithThreadOptions(opts ThreadOptions) ThreadOption {
	return func(c *threadConfig) {
		c.opts = opts
		c.wholeSet = true
	}
}

// WithModel sets the model for the thread.
func WithModel(model string) ThreadOption {
	return func(c *threadConfig) {
		c.opts.Model = model
		c.discretSet = true
	}
}

// WithSandboxMode sets the sandbox policy.
func WithSandboxMode(mode SandboxMode) ThreadOption {
	return func(c *threadConfig) {
		c.opts.SandboxMode = mode
		c.discretSet = true
	}
}

// WithWorkingDirectory sets the working directory passed via --cd.
func WithWorkingDirectory(dir string) ThreadOption {
	return func(c *threadConfig) {
		c.opts.WorkingDirectory = dir
		c.discretSet = true
	}
}

// WithAdditionalDirectories adds extra writable directories.
func WithAdditionalDirectories(dirs ...string) ThreadOption {
	return func(c *threadConfig) {
		c.opts.AdditionalDirectories = append(c.opts.AdditionalDirectories, dirs...)
		c.discretSet = true
	}
}

// WithSkipGitRepoCheck disables the CLI's git repository check.
func WithSkipGitRepoCheck() ThreadOption {
	return func(c *threadConfig) {
		c.opts.SkipGitRepoCheck = true
		c.discretSet = true
	}
}

// WithReasoningEffort sets the model reasoning effort.
func WithReasoningEffort(effort ReasoningEffort) ThreadOption {
	return func(c *threadConfig) {
		c.opts.ReasoningEffort = effort
		c.discretSet = true
	}
}

// WithNetworkAccess toggles workspace network access.
func WithNetworkAccess(enabled bool) ThreadOption {
	return func(c *threadConfig) {
		c.opts.NetworkAccess = Ptr(enabled)
		c.discretSet = true
	}
}

// WithWebSearchMode sets the web search mode. Takes precedence over the
// WithWebSearch boolean shorthand.
func WithWebSearchMode(mode WebSearchMode) ThreadOption {
	return func(c *threadConfig) {
		c.opts.WebSearchMode = mode
		c.discretSet = true
	}
}

// WithWebSearch is the boolean shorthand: true maps to "live", false to
// "disabled".
func WithWebSearch(enabled bool) ThreadOption {
	return func(c *threadConfig) {
		c.opts.WebSearch = Ptr(enabled)
		c.discretSet = true
	}
}

// WithApprovalPolicy sets the approval policy.
func WithApprovalPolicy(policy ApprovalMode) ThreadOption {
	return func(c *threadConfig) {
		c.opts.ApprovalPolicy = policy
		c.discretSet = true
	}
}

// resolveThreadOptions folds thread options, rejecting the ambiguous
// struct-plus-discrete combination rather than silently preferring one.
func resolveThreadOptions(opts []ThreadOption) (ThreadOptions, error) {
	var c threadConfig
	for _, opt := range opts {
		opt(&c)
	}
	if c.wholeSet && c.discretSet {
		return ThreadOptions{}, ErrOptionConflict
	}
	return c.opts, nil
}

// TurnOptions configures a single turn.
type TurnOptions struct {
	// OutputSchema is a JSON-object structured-output contract. It is
	// materialized to a temporary file for the duration of the turn.
	OutputSchema any

	// IdleTimeout bounds the gap between successive stdout chunks.
	// Zero means no idle bound.
	IdleTimeout time.Duration
}

// turnConfig mirrors threadConfig for per-turn options.
type turnConfig struct {
	opts       TurnOptions
	wholeSet   bool
	discretSet bool
}

// TurnOption configures a single turn.
type TurnOption func(*turnConfig)

// WithTurnOptions supplies the full per-turn options struct. It cannot be
// combined with discrete turn options.
func WithTurnOptions(opts TurnOptions) TurnOption {
	return func(c *turnConfig) {
		c.opts = opts
		c.wholeSet = true
	}
}

// WithOutputSchema sets the structured-output JSON schema for the turn.
// The schema's top level must be a JSON object.
func WithOutputSchema(schema any) TurnOption {
	return func(c *turnConfig) {
		c.opts.OutputSchema = schema
		c.discretSet = true
	}
}

// WithOutputSchemaFor derives the structured-output schema from v's type
// via jsonschema reflection. See OutputSchemaFor.
func WithOutputSchemaFor(v any) TurnOption {
	return func(c *turnConfig) {
		c.opts.OutputSchema = OutputSchemaFor(v)
		c.discretSet = true
	}
}

// WithIdleTimeout bounds the gap between successive stdout chunks.
func WithIdleTimeout(d time.Duration) TurnOption {
	return func(c *turnConfig) {
		c.opts.IdleTimeout = d
		c.discretSet = true
	}
}

// resolveTurnOptions folds turn options with the same exclusivity rule as
// resolveThreadOptions.
func resolveTurnOptions(opts []TurnOption) (TurnOptions, error) {
	var c turnConfig
	for _, opt := range opts {
		opt(&c)
	}
	if c.wholeSet && c.discretSet {
		return TurnOptions{}, ErrOptionConflict
	}
	return c.opts, nil
}
