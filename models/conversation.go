package models

import "time"

// Conversation roles. Tool turns carry results produced by the server,
// never text typed by the user.
const (
	RoleUser  = "user"
	RoleAgent = "agent"
	RoleTool  = "tool"
)

// ToolCall is a single function invocation requested by the model.
type ToolCall struct {
	Name string         `json:"name"`           // declared tool name, e.g. "book_appointment"
	Args map[string]any `json:"args,omitempty"` // raw arguments as the model produced them
}

// ToolResult is the outcome of executing one ToolCall, fed back to the
// model verbatim. Errors travel as text with IsError set so the model
// can explain the failure instead of the server hiding it.
type ToolResult struct {
	Name    string `json:"name"`
	Content string `json:"content"`
	IsError bool   `json:"is_error,omitempty"`
}

// Turn is one entry in a conversation history. Exactly one of the
// role-specific shapes applies:
//   - user:  Content holds the typed message
//   - agent: Content holds reply text, ToolCalls any requested invocations
//   - tool:  ToolResults holds the executed outcomes, in call order
type Turn struct {
	Role        string       `json:"role"`
	Content     string       `json:"content,omitempty"`
	ToolCalls   []ToolCall   `json:"tool_calls,omitempty"`
	ToolResults []ToolResult `json:"tool_results,omitempty"`
	At          time.Time    `json:"at"`
}
