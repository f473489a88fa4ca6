package llm

import (
	"context"
)

// Role tags a chat message. Only these four values are valid.
type Role string

const (
	RoleSystem    Role = "system"
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
	RoleTool      Role = "tool"
)

// Message represents a chat message in a provider-agnostic format
type Message struct {
	Role    Role
	Content string

	// Set on assistant messages that request tool execution
	ToolCalls []ToolCall
	// Set on tool messages: the call this result answers and the tool name
	ToolCallID string
	Name       string
}

// ToolCall is a single function invocation requested by the model
type ToolCall struct {
	ID        string
	Name      string
	Arguments map[string]interface{}
}

// ToolDefinition describes a tool the model is allowed to call.
// Parameters is a JSON schema object.
type ToolDefinition struct {
	Name        string
	Description string
	Parameters  map[string]interface{}
}

func UserMessage(content string) Message {
	return Message{Role: RoleUser, Content: content}
}

func AssistantMessage(content string) Message {
	return Message{Role: RoleAssistant, Content: content}
}

func SystemMessage(content string) Message {
	return Message{Role: RoleSystem, Content: content}
}

func ToolMessage(callID, name, content string) Message {
	return Message{Role: RoleTool, Content: content, ToolCallID: callID, Name: name}
}

// Option allows for optional parameters like Temperature, MaxTokens, etc.
type Option func(*Options)

type Options struct {
	Temperature float64
	MaxTokens   int
	Model       string // Override default model
}

func WithTemperature(temp float64) Option {
	return func(o *Options) {
		o.Temperature = temp
	}
}

func WithModel(model string) Option {
	return func(o *Options) {
		o.Model = model
	}
}

func WithMaxTokens(n int) Option {
	return func(o *Options) {
		o.MaxTokens = n
	}
}

// LLMProvider defines the contract for any LLM backend
type LLMProvider interface {
	// Chat sends a chat history to the model and returns the response
	Chat(ctx context.Context, history []Message, options ...Option) (string, error)

	// Generate sends a single prompt to the model (convenience method)
	Generate(ctx context.Context, prompt string, options ...Option) (string, error)
}

// ToolCaller is implemented by providers that support function calling.
// The returned message is always assistant-role; it carries ToolCalls when
// the model wants tools executed before it answers.
type ToolCaller interface {
	ChatWithTools(ctx context.Context, history []Message, tools []ToolDefinition, options ...Option) (Message, error)
}
