package codex

import (
	"context"
	"io"
	"strings"
	"sync"
)

// UserInput is one typed part of a structured turn input.
type UserInput interface {
	isUserInput()
}

// TextPart is a text segment of a structured input.
type TextPart struct {
	Text string
}

func (TextPart) isUserInput() {}

// LocalImagePart references a local image file attached to the input.
type LocalImagePart struct {
	Path string
}

func (LocalImagePart) isUserInput() {}

// Input is a turn's input payload: either a single text blob or an
// ordered list of typed parts. Construct with Text or Parts.
type Input interface {
	inputParts() []UserInput
}

type textInput string

func (t textInput) inputParts() []UserInput {
	return []UserInput{TextPart{Text: string(t)}}
}

// Text wraps a plain prompt string as an Input.
func Text(s string) Input { return textInput(s) }

type partsInput []UserInput

func (p partsInput) inputParts() []UserInput { return p }

// Parts builds a structured multi-part Input.
func Parts(parts ...UserInput) Input { return partsInput(parts) }

// normalizeInput joins text parts with a blank line and collects image
// paths separately. Order is preserved within each category.
func normalizeInput(input Input) (string, []string) {
	if input == nil {
		return "", nil
	}
	var texts []string
	var images []string
	for _, part := range input.inputParts() {
		switch p := part.(type) {
		case TextPart:
			texts = append(texts, p.Text)
		case LocalImagePart:
			images = append(images, p.Path)
		}
	}
	return strings.Join(texts, "\n\n"), images
}

// Turn is the materialized result of one exchange: the items observed in
// arrival order, the last agent message text, and the usage snapshot
// (nil if the turn never completed). Frozen once returned.
type Turn struct {
	Usage         *Usage
	FinalResponse string
	Items         []ThreadItem
}

// StreamedTurn is a live event stream for one turn. Range over Events
// until it closes, then check Err for how the stream ended.
type StreamedTurn struct {
	events chan ThreadEvent
	err    error
}

// Events returns the turn's event channel. Single consumer.
func (st *StreamedTurn) Events() <-chan ThreadEvent { return st.events }

// Err reports how the stream ended. Valid only after Events has closed.
func (st *StreamedTurn) Err() error { return st.err }

// Thread is a handle on one Codex conversation. The thread identity is
// assigned by the CLI on first use and captured from thread.started;
// subsequent turns resume it. Callers must not run two turns concurrently
// against the same thread.
type Thread struct {
	exec    runner
	options CodexOptions
	mu      sync.Mutex
	id      string
	thread  ThreadOptions
}

// ID returns the thread identifier, or empty before the first turn's
// thread.started event.
func (t *Thread) ID() string {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.id
}

// captureID records the thread identity write-once from the first
// thread.started event.
func (t *Thread) captureID(id string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.id == "" {
		t.id = id
	}
}

// RunStreamed starts a turn and returns its live event stream. Every
// thread.started event updates the thread identity before it is
// forwarded. The output-schema resource, the stdout reader, and the child
// process are released however the stream ends.
func (t *Thread) RunStreamed(ctx context.Context, input Input, opts ...TurnOption) (*StreamedTurn, error) {
	turnOpts, err := resolveTurnOptions(opts)
	if err != nil {
		return nil, err
	}
	return t.runStreamed(ctx, input, turnOpts)
}

func (t *Thread) runStreamed(ctx context.Context, input Input, turnOpts TurnOptions) (*StreamedTurn, error) {
	// Schema validation happens before any process is spawned.
	schemaPath, schemaCleanup, err := createOutputSchemaFile(turnOpts.OutputSchema)
	if err != nil {
		return nil, err
	}

	prompt, images := normalizeInput(input)
	stream, err := t.exec.start(execArgs{
		inputText:             prompt,
		baseURL:               t.options.BaseURL,
		apiKey:                t.options.APIKey,
		threadID:              t.ID(),
		images:                images,
		model:                 t.thread.Model,
		sandboxMode:           t.thread.SandboxMode,
		workingDirectory:      t.thread.WorkingDirectory,
		additionalDirectories: t.thread.AdditionalDirectories,
		skipGitRepoCheck:      t.thread.SkipGitRepoCheck,
		outputSchemaFile:      schemaPath,
		reasoningEffort:       t.thread.ReasoningEffort,
		networkAccess:         t.thread.NetworkAccess,
		webSearchMode:         t.thread.WebSearchMode,
		webSearch:             t.thread.WebSearch,
		approvalPolicy:        t.thread.ApprovalPolicy,
		idleTimeout:           turnOpts.IdleTimeout,
	})
	if err != nil {
		schemaCleanup()
		return nil, err
	}

	st := &StreamedTurn{events: make(chan ThreadEvent)}
	go func() {
		defer close(st.events)
		defer schemaCleanup()
		defer stream.Close()

		for {
			line, err := stream.Next(ctx)
			if err == io.EOF {
				return
			}
			if err != nil {
				st.err = err
				return
			}

			event, err := parseEvent(line)
			if err != nil {
				st.err = err
				return
			}
			if started, ok := event.(ThreadStartedEvent); ok {
				t.captureID(started.ThreadID)
			}

			select {
			case st.events <- event:
			case <-ctx.Done():
				st.err = context.Cause(ctx)
				return
			}
		}
	}()
	return st, nil
}

// Run executes a turn to completion and folds its event stream into a
// Turn. A turn.failed event fails the call with the CLI's message and
// abandons the remainder of the stream; a stream that ends without either
// terminal event fails with ErrTurnIncomplete.
func (t *Thread) Run(ctx context.Context, input Input, opts ...TurnOption) (*Turn, error) {
	turnOpts, err := resolveTurnOptions(opts)
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	st, err := t.runStreamed(ctx, input, turnOpts)
	if err != nil {
		return nil, err
	}

	turn := &Turn{}
	completed := false
	for event := range st.Events() {
		switch e := event.(type) {
		case ItemCompletedEvent:
			if msg, ok := e.Item.(AgentMessageItem); ok {
				turn.FinalResponse = msg.Text
			}
			turn.Items = append(turn.Items, e.Item)
		case TurnCompletedEvent:
			usage := e.Usage
			turn.Usage = &usage
			completed = true
		case TurnFailedEvent:
			// Stop consuming; cancel tears the producer down and with
			// it the process and schema resource.
			cancel()
			for range st.Events() {
			}
			return nil, &TurnFailedError{Message: e.Error.Message}
		}
	}

	if err := st.Err(); err != nil {
		return nil, err
	}
	if !completed {
		return nil, ErrTurnIncomplete
	}
	return turn, nil
}
