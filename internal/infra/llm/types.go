// Package llm implements the multi-provider chat-completion client.
// One canonical conversation model is translated to and from the wire
// formats of the supported backends (Ollama, OpenAI-compatible,
// Anthropic-compatible) by per-provider adapters.
package llm

// Role constants for conversation turns.
const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
	RoleTool      = "tool"
)

// Message is the provider-independent representation of one conversation
// turn. Content is always serialized as a string: an assistant turn that
// carries tool calls goes out with content "" rather than null, because
// the OpenAI API rejects a null content field on that turn.
type Message struct {
	Role       string     `json:"role"`
	Content    string     `json:"content"`
	ToolCalls  []ToolCall `json:"tool_calls,omitempty"`
	ToolCallID string     `json:"tool_call_id,omitempty"`
	Name       string     `json:"name,omitempty"`
}

// NewSystemMessage builds a system-role message.
func NewSystemMessage(content string) Message {
	return Message{Role: RoleSystem, Content: content}
}

// NewUserMessage builds a user-role message.
func NewUserMessage(content string) Message {
	return Message{Role: RoleUser, Content: content}
}

// NewToolResultMessage builds the tool-role message that answers a single
// tool call. toolCallID must equal the ID of the call it resolves.
func NewToolResultMessage(toolCallID, content string) Message {
	return Message{Role: RoleTool, Content: content, ToolCallID: toolCallID}
}

// Tool is a declarative function definition advertised to the model.
// It carries no executable code.
type Tool struct {
	Type     string       `json:"type"`
	Function ToolFunction `json:"function"`
}

// ToolFunction describes the callable: name, human description, and a
// JSON-schema object for the parameters.
type ToolFunction struct {
	Name        string         `json:"name"`
	Description string         `json:"description,omitempty"`
	Parameters  map[string]any `json:"parameters,omitempty"`
}

// NewFunctionTool builds a function tool definition.
func NewFunctionTool(name, description string, parameters map[string]any) Tool {
	return Tool{
		Type: "function",
		Function: ToolFunction{
			Name:        name,
			Description: description,
			Parameters:  parameters,
		},
	}
}

// ToolCall is a model-issued request to execute a named tool. It is
// produced by the remote model and consumed exactly once by the executor.
type ToolCall struct {
	ID       string           `json:"id"`
	Type     string           `json:"type"`
	Function ToolCallFunction `json:"function"`
}

// ToolCallFunction holds the requested function name and its arguments as
// a JSON-encoded string.
type ToolCallFunction struct {
	Name      string `json:"name"`
	Arguments string `json:"arguments"`
}
