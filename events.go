package codex

import "encoding/json"

// EventType is the wire discriminator for thread events.
type EventType string

const (
	EventTypeThreadStarted EventType = "thread.started"
	EventTypeTurnStarted   EventType = "turn.started"
	EventTypeItemCompleted EventType = "item.completed"
	EventTypeTurnCompleted EventType = "turn.completed"
	EventTypeTurnFailed    EventType = "turn.failed"
)

// ThreadEvent is one decoded event from the CLI's NDJSON stdout stream.
// Events are immutable once decoded.
type ThreadEvent interface {
	EventType() EventType
}

// ThreadStartedEvent fires once when the CLI assigns a thread identifier.
type ThreadStartedEvent struct {
	ThreadID string `json:"thread_id"`
}

func (e ThreadStartedEvent) EventType() EventType { return EventTypeThreadStarted }

// TurnStartedEvent fires when a turn begins.
type TurnStartedEvent struct{}

func (e TurnStartedEvent) EventType() EventType { return EventTypeTurnStarted }

// ItemCompletedEvent carries one completed thread item.
type ItemCompletedEvent struct {
	Item ThreadItem
}

func (e ItemCompletedEvent) EventType() EventType { return EventTypeItemCompleted }

// Usage is the token usage snapshot attached to turn.completed.
type Usage struct {
	CachedInputTokens int `json:"cached_input_tokens"`
	InputTokens       int `json:"input_tokens"`
	OutputTokens      int `json:"output_tokens"`
}

// TurnCompletedEvent is the normal terminal signal for a turn.
type TurnCompletedEvent struct {
	Usage Usage `json:"usage"`
}

func (e TurnCompletedEvent) EventType() EventType { return EventTypeTurnCompleted }

// ThreadError is the error payload of a turn.failed event.
type ThreadError struct {
	Message string `json:"message"`
}

// TurnFailedEvent is the failing terminal signal for a turn.
type TurnFailedEvent struct {
	Error ThreadError `json:"error"`
}

func (e TurnFailedEvent) EventType() EventType { return EventTypeTurnFailed }

// UnknownEvent preserves events with unrecognized discriminators. Newer
// CLI versions emit new event kinds; they pass through unclassified
// rather than failing the turn.
type UnknownEvent struct {
	Type EventType
	Raw  json.RawMessage
}

func (e UnknownEvent) EventType() EventType { return e.Type }

// parseEvent decodes one stdout line as a thread event. A line that is
// not valid JSON fails the whole turn; the offending line is preserved
// verbatim for diagnosis.
func parseEvent(line string) (ThreadEvent, error) {
	var wire struct {
		Type     EventType       `json:"type"`
		ThreadID string          `json:"thread_id"`
		Item     json.RawMessage `json:"item"`
		Usage    Usage           `json:"usage"`
		Error    ThreadError     `json:"error"`
	}
	if err := json.Unmarshal([]byte(line), &wire); err != nil {
		return nil, &ProtocolError{Message: "failed to parse event", Line: line, Cause: err}
	}

	switch wire.Type {
	case EventTypeThreadStarted:
		return ThreadStartedEvent{ThreadID: wire.ThreadID}, nil
	case EventTypeTurnStarted:
		return TurnStartedEvent{}, nil
	case EventTypeItemCompleted:
		item, err := unmarshalItem(wire.Item)
		if err != nil {
			return nil, &ProtocolError{Message: "failed to parse item", Line: line, Cause: err}
		}
		return ItemCompletedEvent{Item: item}, nil
	case EventTypeTurnCompleted:
		return TurnCompletedEvent{Usage: wire.Usage}, nil
	case EventTypeTurnFailed:
		return TurnFailedEvent{Error: wire.Error}, nil
	default:
		return UnknownEvent{Type: wire.Type, Raw: json.RawMessage(line)}, nil
	}
}
