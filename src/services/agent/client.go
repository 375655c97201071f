// Package agent implements a tool-calling LLM loop over market data tools.
package agent

import (
	"context"
	"encoding/json"
)

// Client is the LLM provider interface for the agent loop. Implementations
// must be safe for concurrent use.
type Client interface {
	Complete(ctx context.Context, request *Request) (*Response, error)
	Name() string
	Model() string
}

// Request is one completion request to the LLM.
type Request struct {
	SystemPrompt string           `json:"system_prompt,omitempty"`
	Messages     []Message        `json:"messages"`
	Tools        []ToolDefinition `json:"tools,omitempty"`
	MaxTokens    int              `json:"max_tokens,omitempty"`
	Temperature  float32          `json:"temperature,omitempty"`
}

// Message is one conversation turn.
type Message struct {
	Role       string     `json:"role"`
	Content    string     `json:"content"`
	ToolCalls  []ToolCall `json:"tool_calls,omitempty"`
	ToolCallID string     `json:"tool_call_id,omitempty"`
}

const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
	RoleTool      = "tool"
)

// ToolCall is a tool invocation requested by the model.
type ToolCall struct {
	ID        string          `json:"id"`
	Name      string          `json:"name"`
	Arguments json.RawMessage `json:"arguments"`
}

// Response is the model's reply: either final text, tool calls to execute,
// or both.
type Response struct {
	Content   string     `json:"content"`
	ToolCalls []ToolCall `json:"tool_calls,omitempty"`
}

// ToolDefinition describes one callable tool to the model. Parameters is a
// JSON-schema object.
type ToolDefinition struct {
	Name        string         `json:"name"`
	Description string         `json:"description"`
	Parameters  map[string]any `json:"parameters"`
}
