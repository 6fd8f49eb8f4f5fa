// Package render provides ANSI-colored terminal rendering of Codex
// thread events and items for CLI consumers.
package render

import (
	"fmt"
	"io"
	"os"
	"sync"

	codex "github.com/bazelment/codex-sdk"
)

// ANSI color codes - chosen to work on both light and dark backgrounds
const (
	ColorReset  = "\x1b[0m"
	ColorDim    = "\x1b[2m"
	ColorItalic = "\x1b[3m"
	ColorRed    = "\x1b[31m"
	ColorGreen  = "\x1b[32m"
	ColorCyan   = "\x1b[36m"
	ColorGray   = "\x1b[90m"
)

// Renderer writes a human-readable transcript of a turn's event stream.
type Renderer struct {
	out     io.Writer
	mu      sync.Mutex
	verbose bool
	noColor bool
}

// NewRenderer creates a renderer writing to out. If verbose is true,
// command executions and tool calls are shown as they complete. If
// noColor is true, ANSI color codes are suppressed; colors are also
// suppressed automatically when out is not a terminal.
func NewRenderer(out io.Writer, verbose, noColor bool) *Renderer {
	if !noColor {
		noColor = !isTerminal(out)
	}
	return &Renderer{out: out, verbose: verbose, noColor: noColor}
}

func isTerminal(w io.Writer) bool {
	if f, ok := w.(*os.File); ok {
		stat, err := f.Stat()
		if err != nil {
			return false
		}
		return (stat.Mode() & os.ModeCharDevice) != 0
	}
	return false
}

// color returns the color code if colors are enabled, empty string otherwise.
func (r *Renderer) color(c string) string {
	if r.noColor {
		return ""
	}
	return c
}

// Event renders one thread event.
func (r *Renderer) Event(event codex.ThreadEvent) {
	switch e := event.(type) {
	case codex.ThreadStartedEvent:
		r.mu.Lock()
		fmt.Fprintf(r.out, "%s[thread=%s]%s\n", r.color(ColorGray), e.ThreadID, r.color(ColorReset))
		r.mu.Unlock()
	case codex.ItemCompletedEvent:
		r.Item(e.Item)
	case codex.TurnCompletedEvent:
		r.TurnComplete(e.Usage)
	case codex.TurnFailedEvent:
		r.mu.Lock()
		fmt.Fprintf(r.out, "\n%s[turn failed]%s %s\n", r.color(ColorRed), r.color(ColorReset), e.Error.Message)
		r.mu.Unlock()
	}
}

// Item renders one completed thread item.
func (r *Renderer) Item(item codex.ThreadItem) {
	r.mu.Lock()
	defer r.mu.Unlock()

	switch i := item.(type) {
	case codex.AgentMessageItem:
		fmt.Fprintln(r.out, i.Text)
	case codex.ReasoningItem:
		fmt.Fprintf(r.out, "%s%s%s%s\n", r.color(ColorDim), r.color(ColorItalic), i.Text, r.color(ColorReset))
	case codex.CommandExecutionItem:
		r.commandItem(i)
	case codex.FileChangeItem:
		for _, change := range i.Changes {
			fmt.Fprintf(r.out, "%s[%s]%s %s\n", r.color(ColorCyan), change.Kind, r.color(ColorReset), change.Path)
		}
	case codex.WebSearchItem:
		if r.verbose {
			fmt.Fprintf(r.out, "%s[search]%s %s\n", r.color(ColorCyan), r.color(ColorReset), i.Query)
		}
	case codex.McpToolCallItem:
		if r.verbose {
			mark, color := "✓", ColorGreen
			if i.Status == codex.McpToolCallFailed {
				mark, color = "✗", ColorRed
			}
			fmt.Fprintf(r.out, "%s[%s.%s]%s %s%s%s\n",
				r.color(ColorCyan), i.Server, i.Tool, r.color(ColorReset),
				r.color(color), mark, r.color(ColorReset))
		}
	case codex.TodoListItem:
		for _, todo := range i.Items {
			box := "[ ]"
			if todo.Completed {
				box = "[x]"
			}
			fmt.Fprintf(r.out, "%s%s %s%s\n", r.color(ColorGray), box, todo.Text, r.color(ColorReset))
		}
	case codex.ErrorItem:
		fmt.Fprintf(r.out, "%s[error]%s %s\n", r.color(ColorRed), r.color(ColorReset), i.Message)
	}
}

// commandItem prints one line per executed command in verbose mode:
// [command] ✓ or [command] ✗ exit N.
func (r *Renderer) commandItem(i codex.CommandExecutionItem) {
	if !r.verbose {
		return
	}
	if i.ExitCode == nil || *i.ExitCode == 0 {
		fmt.Fprintf(r.out, "%s[%s]%s %s✓%s\n",
			r.color(ColorCyan), truncate(i.Command, 60), r.color(ColorReset),
			r.color(ColorGreen), r.color(ColorReset))
		return
	}
	fmt.Fprintf(r.out, "%s[%s]%s %s✗ exit %d%s\n",
		r.color(ColorCyan), truncate(i.Command, 60), r.color(ColorReset),
		r.color(ColorRed), *i.ExitCode, r.color(ColorReset))
}

// TurnComplete prints the turn's token usage summary.
func (r *Renderer) TurnComplete(usage codex.Usage) {
	r.mu.Lock()
	defer r.mu.Unlock()

	fmt.Fprintf(r.out, "\n%s%s Turn complete (%d input / %d cached / %d output tokens)%s\n",
		r.color(ColorGreen), "✓",
		usage.InputTokens, usage.CachedInputTokens, usage.OutputTokens,
		r.color(ColorReset))
}

// Error prints an error raised while driving the stream.
func (r *Renderer) Error(err error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	fmt.Fprintf(r.out, "\n%s[error]%s %v\n", r.color(ColorRed), r.color(ColorReset), err)
}

// truncate truncates a string to the given max length.
func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max-3] + "..."
}
