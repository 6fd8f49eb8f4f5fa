// Package codex is a Go SDK for the Codex CLI. It drives `codex exec`
// as a child process, streams its newline-delimited JSON events, and
// aggregates them into per-turn results.
//
// Basic usage:
//
//	client := codex.New()
//	thread, err := client.StartThread()
//	if err != nil {
//		return err
//	}
//	turn, err := thread.Run(ctx, codex.Text("Summarize this repo"))
//	if err != nil {
//		return err
//	}
//	fmt.Println(turn.FinalResponse)
//
// Each call to Run or RunStreamed spawns one CLI process; the thread
// identity captured from the first turn resumes the same conversation on
// later turns.
package codex

// Codex is the client entrypoint. One client can own many threads; each
// thread's turns run against independent child processes.
type Codex struct {
	exec    *codexExec
	options CodexOptions
}

// New creates a client. The codex binary is located on PATH at first use
// unless WithCodexPath overrides it.
func New(opts ...Option) *Codex {
	var options CodexOptions
	for _, opt := range opts {
		opt(&options)
	}
	return &Codex{
		options: options,
		exec:    newCodexExec(options.CodexPathOverride, options.Env),
	}
}

// StartThread creates a new conversation. The thread receives its
// identity from the CLI on the first turn.
func (c *Codex) StartThread(opts ...ThreadOption) (*Thread, error) {
	return c.newThread("", opts)
}

// ResumeThread continues an existing conversation by its identifier.
func (c *Codex) ResumeThread(threadID string, opts ...ThreadOption) (*Thread, error) {
	return c.newThread(threadID, opts)
}

func (c *Codex) newThread(threadID string, opts []ThreadOption) (*Thread, error) {
	threadOpts, err := resolveThreadOptions(opts)
	if err != nil {
		return nil, err
	}
	return &Thread{
		exec:    c.exec,
		options: c.options,
		thread:  threadOpts,
		id:      threadID,
	}, nil
}
