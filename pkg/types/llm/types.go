// Package llm defines the provider-agnostic types shared between the
// execution engine and the model backends: tool catalogs, tool calls,
// streaming events and the native conversation history format.
package llm

import "context"

// ToolDefinition describes a tool available to the model. The input schema
// is a JSON-Schema-like object ({"type": "object", "properties": ...}).
type ToolDefinition struct {
	Name        string         `json:"name"`
	Description string         `json:"description"`
	InputSchema map[string]any `json:"input_schema"`
}

// ToolCall is a tool invocation requested by the model. The ID is an opaque
// correlation token issued by the model.
type ToolCall struct {
	ID        string         `json:"id"`
	Name      string         `json:"name"`
	Arguments map[string]any `json:"arguments"`
}

// ToolResult is the outcome of executing a single tool call. Content is
// always text; structured or binary results must be serialized first.
type ToolResult struct {
	ToolCallID string `json:"tool_call_id"`
	Content    string `json:"content"`
	IsError    bool   `json:"is_error"`
}

// StreamEventType discriminates the StreamEvent union.
type StreamEventType string

const (
	StreamEventText     StreamEventType = "text"
	StreamEventToolCall StreamEventType = "tool_call"
	StreamEventDone     StreamEventType = "done"
)

// StreamEvent is one unit of provider output. Within a single response the
// order is: zero or more text events, zero or more tool_call events, exactly
// one terminal done event.
type StreamEvent struct {
	Type       StreamEventType
	Text       string
	ToolCall   *ToolCall
	StopReason string
}

// Roles used in the conversation history.
const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// Block types used in message content.
const (
	BlockTypeText       = "text"
	BlockTypeToolUse    = "tool_use"
	BlockTypeToolResult = "tool_result"
)

// ContentBlock is one block of a structured message: plain text, a tool
// invocation, or a tool result.
type ContentBlock struct {
	Type string `json:"type"`

	// text
	Text string `json:"text,omitempty"`

	// tool_use
	ID    string         `json:"id,omitempty"`
	Name  string         `json:"name,omitempty"`
	Input map[string]any `json:"input,omitempty"`

	// tool_result
	ToolUseID string `json:"tool_use_id,omitempty"`
	Content   string `json:"content,omitempty"`
	IsError   bool   `json:"is_error,omitempty"`
}

// Message is one turn of the conversation history.
//
// Invariant: every tool_use block in an assistant turn is matched by exactly
// one tool_result block in the immediately following user turn, correlated
// by ID and in the same order.
type Message struct {
	Role   string         `json:"role"`
	Blocks []ContentBlock `json:"content"`
}

// TextBlock builds a text content block.
func TextBlock(text string) ContentBlock {
	return ContentBlock{Type: BlockTypeText, Text: text}
}

// ToolUseBlock builds a tool invocation block from a tool call.
func ToolUseBlock(call ToolCall) ContentBlock {
	return ContentBlock{
		Type:  BlockTypeToolUse,
		ID:    call.ID,
		Name:  call.Name,
		Input: call.Arguments,
	}
}

// ToolResultBlock builds a tool result block from a tool result.
func ToolResultBlock(result ToolResult) ContentBlock {
	return ContentBlock{
		Type:      BlockTypeToolResult,
		ToolUseID: result.ToolCallID,
		Content:   result.Content,
		IsError:   result.IsError,
	}
}

// Config selects and parameterizes a provider backend.
type Config struct {
	Provider  string // "anthropic", "openai" or "ollama"
	Model     string
	APIKey    string
	BaseURL   string // alternate endpoint, compatibility backends only
	MaxTokens int
}

// Request is one completion request: the full conversation so far plus the
// tool catalog offered for this turn. A nil Tools slice offers no tools.
type Request struct {
	System    string
	Messages  []Message
	Tools     []ToolDefinition
	MaxTokens int
}

// Provider streams one model turn. Implementations call emit with text
// deltas as they arrive, then one tool_call event per requested tool
// invocation, then exactly one done event. A returned error means the
// stream failed; no done event is emitted in that case.
type Provider interface {
	StreamCompletion(ctx context.Context, req Request, emit func(StreamEvent)) error
	Name() string
	Model() string
}
