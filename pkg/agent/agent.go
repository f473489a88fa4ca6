package agent

import (
	"context"
	"errors"
	"fmt"

	"ikms-rag-be/pkg/llm"
)

// DefaultMaxIterations bounds the model/tool round trips of one invocation
const DefaultMaxIterations = 10

var ErrToolsUnsupported = errors.New("llm provider does not support tool calling")

// Agent is an opaque request/response capability: role-tagged messages in,
// the full transcript out (input messages, assistant replies and tool results).
type Agent interface {
	Invoke(ctx context.Context, messages []llm.Message) ([]llm.Message, error)
}

// AgentFunc adapts a function to the Agent interface
type AgentFunc func(ctx context.Context, messages []llm.Message) ([]llm.Message, error)

func (f AgentFunc) Invoke(ctx context.Context, messages []llm.Message) ([]llm.Message, error) {
	return f(ctx, messages)
}

// ChatAgent pairs a system prompt with a provider and an optional tool set
type ChatAgent struct {
	name          string
	systemPrompt  string
	provider      llm.LLMProvider
	tools         map[string]Tool
	toolDefs      []llm.ToolDefinition
	maxIterations int
	options       []llm.Option
}

type ChatAgentOption func(*ChatAgent)

func WithTools(tools ...Tool) ChatAgentOption {
	return func(a *ChatAgent) {
		for _, t := range tools {
			a.tools[t.Name()] = t
			a.toolDefs = append(a.toolDefs, Definition(t))
		}
	}
}

func WithMaxIterations(n int) ChatAgentOption {
	return func(a *ChatAgent) {
		if n > 0 {
			a.maxIterations = n
		}
	}
}

func WithLLMOptions(opts ...llm.Option) ChatAgentOption {
	return func(a *ChatAgent) {
		a.options = append(a.options, opts...)
	}
}

// NewChatAgent fails when tools are requested from a provider that cannot call them
func NewChatAgent(name, systemPrompt string, provider llm.LLMProvider, opts ...ChatAgentOption) (*ChatAgent, error) {
	a := &ChatAgent{
		name:          name,
		systemPrompt:  systemPrompt,
		provider:      provider,
		tools:         make(map[string]Tool),
		maxIterations: DefaultMaxIterations,
	}
	for _, opt := range opts {
		opt(a)
	}

	if len(a.tools) > 0 {
		if _, ok := provider.(llm.ToolCaller); !ok {
			return nil, fmt.Errorf("agent %s: %w", name, ErrToolsUnsupported)
		}
	}
	return a, nil
}

func (a *ChatAgent) Name() string {
	return a.name
}

// Invoke runs the model until it produces an answer without tool calls
func (a *ChatAgent) Invoke(ctx context.Context, messages []llm.Message) ([]llm.Message, error) {
	transcript := make([]llm.Message, 0, len(messages)+2)
	transcript = append(transcript, messages...)

	if len(a.tools) == 0 {
		reply, err := a.provider.Chat(ctx, a.withSystem(transcript), a.options...)
		if err != nil {
			return nil, fmt.Errorf("agent %s: %w", a.name, err)
		}
		return append(transcript, llm.AssistantMessage(reply)), nil
	}

	caller := a.provider.(llm.ToolCaller)
	for i := 0; i < a.maxIterations; i++ {
		reply, err := caller.ChatWithTools(ctx, a.withSystem(transcript), a.toolDefs, a.options...)
		if err != nil {
			return nil, fmt.Errorf("agent %s: %w", a.name, err)
		}
		transcript = append(transcript, reply)

		if len(reply.ToolCalls) == 0 {
			return transcript, nil
		}

		for _, call := range reply.ToolCalls {
			result, err := a.runTool(ctx, call)
			if err != nil {
				return nil, fmt.Errorf("agent %s: %w", a.name, err)
			}
			transcript = append(transcript, llm.ToolMessage(call.ID, call.Name, result))
		}
	}

	// Out of tool rounds: one last plain call so the model answers with what it gathered
	reply, err := a.provider.Chat(ctx, a.withSystem(transcript), a.options...)
	if err != nil {
		return nil, fmt.Errorf("agent %s: %w", a.name, err)
	}
	return append(transcript, llm.AssistantMessage(reply)), nil
}

func (a *ChatAgent) runTool(ctx context.Context, call llm.ToolCall) (string, error) {
	tool, ok := a.tools[call.Name]
	if !ok {
		// Unknown tools are reported back to the model instead of aborting
		return fmt.Sprintf("error: unknown tool %q", call.Name), nil
	}
	result, err := tool.Call(ctx, call.Arguments)
	if errors.Is(err, ErrInvalidArguments) {
		return fmt.Sprintf("error: %v", err), nil
	}
	if err != nil {
		return "", fmt.Errorf("tool %s failed: %w", call.Name, err)
	}
	return result, nil
}

func (a *ChatAgent) withSystem(transcript []llm.Message) []llm.Message {
	if a.systemPrompt == "" {
		return transcript
	}
	out := make([]llm.Message, 0, len(transcript)+1)
	out = append(out, llm.SystemMessage(a.systemPrompt))
	return append(out, transcript...)
}

// LastAssistantContent returns the content of the most recent assistant message, or ""
func LastAssistantContent(messages []llm.Message) string {
	for i := len(messages) - 1; i >= 0; i-- {
		if messages[i].Role == llm.RoleAssistant {
			return messages[i].Content
		}
	}
	return ""
}

// LastToolContent returns the content of the most recent tool result
func LastToolContent(messages []llm.Message) (string, bool) {
	for i := len(messages) - 1; i >= 0; i-- {
		if messages[i].Role == llm.RoleTool {
			return messages[i].Content, true
		}
	}
	return "", false
}
