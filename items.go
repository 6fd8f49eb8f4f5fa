package codex

import "encoding/json"

// ItemType discriminates thread item kinds on the wire.
type ItemType string

const (
	ItemTypeAgentMessage     ItemType = "agent_message"
	ItemTypeReasoning        ItemType = "reasoning"
	ItemTypeCommandExecution ItemType = "command_execution"
	ItemTypeFileChange       ItemType = "file_change"
	ItemTypeMcpToolCall      ItemType = "mcp_tool_call"
	ItemTypeWebSearch        ItemType = "web_search"
	ItemTypeTodoList         ItemType = "todo_list"
	ItemTypeError            ItemType = "error"
)

// ThreadItem is one discrete unit of agent output within a turn. Items are
// terminal facts: once recorded in a turn's result they are never revised.
type ThreadItem interface {
	// ItemType returns the wire discriminator for the item.
	ItemType() ItemType
	// ItemID returns the item's identifier.
	ItemID() string
}

// CommandExecutionStatus is the lifecycle stage of a command run by the agent.
type CommandExecutionStatus string

const (
	CommandStatusInProgress CommandExecutionStatus = "in_progress"
	CommandStatusCompleted  CommandExecutionStatus = "completed"
	CommandStatusFailed     CommandExecutionStatus = "failed"
)

// CommandExecutionItem captures one shell command executed by the agent,
// with its aggregated output and exit status.
type CommandExecutionItem struct {
	ID               string                 `json:"id"`
	Command          string                 `json:"command"`
	AggregatedOutput string                 `json:"aggregated_output"`
	ExitCode         *int                   `json:"exit_code,omitempty"`
	Status           CommandExecutionStatus `json:"status"`
}

func (i CommandExecutionItem) ItemType() ItemType { return ItemTypeCommandExecution }
func (i CommandExecutionItem) ItemID() string     { return i.ID }

// PatchChangeKind indicates how a file changed.
type PatchChangeKind string

const (
	PatchChangeAdd    PatchChangeKind = "add"
	PatchChangeDelete PatchChangeKind = "delete"
	PatchChangeUpdate PatchChangeKind = "update"
)

// FileUpdateChange is a single path/kind pair within a file change.
type FileUpdateChange struct {
	Path string          `json:"path"`
	Kind PatchChangeKind `json:"kind"`
}

// PatchApplyStatus indicates whether a patch was applied successfully.
type PatchApplyStatus string

const (
	PatchApplyCompleted PatchApplyStatus = "completed"
	PatchApplyFailed    PatchApplyStatus = "failed"
)

// FileChangeItem aggregates the ordered set of file edits in one patch.
type FileChangeItem struct {
	ID      string             `json:"id"`
	Changes []FileUpdateChange `json:"changes"`
	Status  PatchApplyStatus   `json:"status"`
}

func (i FileChangeItem) ItemType() ItemType { return ItemTypeFileChange }
func (i FileChangeItem) ItemID() string     { return i.ID }

// McpToolCallStatus describes the status of an MCP tool invocation.
type McpToolCallStatus string

const (
	McpToolCallInProgress McpToolCallStatus = "in_progress"
	McpToolCallCompleted  McpToolCallStatus = "completed"
	McpToolCallFailed     McpToolCallStatus = "failed"
)

// McpToolCallResult is the successful result of an MCP tool call.
type McpToolCallResult struct {
	Content           []map[string]any `json:"content"`
	StructuredContent any              `json:"structured_content"`
}

// McpToolCallError is the failure detail of an MCP tool call.
type McpToolCallError struct {
	Message string `json:"message"`
}

// McpToolCallItem represents a single MCP tool call made by the agent.
type McpToolCallItem struct {
	ID        string             `json:"id"`
	Server    string             `json:"server"`
	Tool      string             `json:"tool"`
	Arguments any                `json:"arguments"`
	Result    *McpToolCallResult `json:"result,omitempty"`
	Error     *McpToolCallError  `json:"error,omitempty"`
	Status    McpToolCallStatus  `json:"status"`
}

func (i McpToolCallItem) ItemType() ItemType { return ItemTypeMcpToolCall }
func (i McpToolCallItem) ItemID() string     { return i.ID }

// AgentMessageItem contains the model's response text (natural language or
// structured JSON when an output schema is in effect).
type AgentMessageItem struct {
	ID   string `json:"id"`
	Text string `json:"text"`
}

func (i AgentMessageItem) ItemType() ItemType { return ItemTypeAgentMessage }
func (i AgentMessageItem) ItemID() string     { return i.ID }

// ReasoningItem carries the agent's intermediate reasoning summary.
type ReasoningItem struct {
	ID   string `json:"id"`
	Text string `json:"text"`
}

func (i ReasoningItem) ItemType() ItemType { return ItemTypeReasoning }
func (i ReasoningItem) ItemID() string     { return i.ID }

// WebSearchItem denotes a web search performed by the agent.
type WebSearchItem struct {
	ID    string `json:"id"`
	Query string `json:"query"`
}

func (i WebSearchItem) ItemType() ItemType { return ItemTypeWebSearch }
func (i WebSearchItem) ItemID() string     { return i.ID }

// TodoItem is a single task within the agent's to-do list.
type TodoItem struct {
	Text      string `json:"text"`
	Completed bool   `json:"completed"`
}

// TodoListItem tracks the tasks the agent manages during a turn.
type TodoListItem struct {
	ID    string     `json:"id"`
	Items []TodoItem `json:"items"`
}

func (i TodoListItem) ItemType() ItemType { return ItemTypeTodoList }
func (i TodoListItem) ItemID() string     { return i.ID }

// ErrorItem captures a non-fatal error emitted by the agent.
type ErrorItem struct {
	ID      string `json:"id"`
	Message string `json:"message"`
}

func (i ErrorItem) ItemType() ItemType { return ItemTypeError }
func (i ErrorItem) ItemID() string     { return i.ID }

// OtherItem preserves items with unrecognized discriminators so newer CLI
// versions degrade to passthrough instead of failing the turn.
type OtherItem struct {
	ID   string
	Type ItemType
	Raw  json.RawMessage
}

func (i OtherItem) ItemType() ItemType { return i.Type }
func (i OtherItem) ItemID() string     { return i.ID }

// unmarshalItem decodes one item by its wire discriminator.
func unmarshalItem(raw json.RawMessage) (ThreadItem, error) {
	var probe struct {
		ID   string   `json:"id"`
		Type ItemType `json:"type"`
	}
	if err := json.Unmarshal(raw, &probe); err != nil {
		return nil, err
	}

	switch probe.Type {
	case ItemTypeAgentMessage:
		var item AgentMessageItem
		if err := json.Unmarshal(raw, &item); err != nil {
			return nil, err
		}
		return item, nil
	case ItemTypeReasoning:
		var item ReasoningItem
		if err := json.Unmarshal(raw, &item); err != nil {
			return nil, err
		}
		return item, nil
	case ItemTypeCommandExecution:
		var item CommandExecutionItem
		if err := json.Unmarshal(raw, &item); err != nil {
			return nil, err
		}
		return item, nil
	case ItemTypeFileChange:
		var item FileChangeItem
		if err := json.Unmarshal(raw, &item); err != nil {
			return nil, err
		}
		return item, nil
	case ItemTypeMcpToolCall:
		var item McpToolCallItem
		if err := json.Unmarshal(raw, &item); err != nil {
			return nil, err
		}
		return item, nil
	case ItemTypeWebSearch:
		var item WebSearchItem
		if err := json.Unmarshal(raw, &item); err != nil {
			return nil, err
		}
		return item, nil
	case ItemTypeTodoList:
		var item TodoListItem
		if err := json.Unmarshal(raw, &item); err != nil {
			return nil, err
		}
		return item, nil
	case ItemTypeError:
		var item ErrorItem
		if err := json.Unmarshal(raw, &item); err != nil {
			return nil, err
		}
		return item, nil
	default:
		return OtherItem{ID: probe.ID, Type: probe.Type, Raw: raw}, nil
	}
}
