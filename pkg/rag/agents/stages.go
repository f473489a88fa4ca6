package agents

import (
	"context"
	"fmt"
	"strings"

	"ikms-rag-be/internal/constant"
	"ikms-rag-be/internal/pkg/logger"
	"ikms-rag-be/pkg/agent"
	"ikms-rag-be/pkg/llm"
	"ikms-rag-be/pkg/rag/graph"
	"ikms-rag-be/pkg/rag/planner"
)

// Node names, in execution order
const (
	NodePlanner       = "planner"
	NodeRetrieval     = "retrieval"
	NodeSummarization = "summarization"
	NodeVerification  = "verification"

	DefaultHistoryWindow = 6
	DefaultExcerptLength = 200

	logModule = "QAStages"
)

type Config struct {
	// HistoryWindow is how many recent history entries the planner sees
	HistoryWindow int
	// ExcerptLength caps the previous answer hint given to retrieval, in characters
	ExcerptLength int
}

// Stages holds the four agents of the QA pipeline
type Stages struct {
	planner     agent.Agent
	retriever   agent.Agent
	summarizer  agent.Agent
	verifier    agent.Agent
	cfg         Config
	transcripts logger.ILogger
}

type Option func(*Stages)

// WithTranscriptLogger records every agent exchange at debug level
func WithTranscriptLogger(l logger.ILogger) Option {
	return func(s *Stages) {
		if l != nil {
			s.transcripts = l
		}
	}
}

func NewStages(plannerAgent, retriever, summarizer, verifier agent.Agent, cfg Config, opts ...Option) *Stages {
	if cfg.HistoryWindow <= 0 {
		cfg.HistoryWindow = DefaultHistoryWindow
	}
	if cfg.ExcerptLength <= 0 {
		cfg.ExcerptLength = DefaultExcerptLength
	}
	s := &Stages{
		planner:     plannerAgent,
		retriever:   retriever,
		summarizer:  summarizer,
		verifier:    verifier,
		cfg:         cfg,
		transcripts: logger.NewNopLogger(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Plan decomposes the question into a numbered plan and search sub-questions
func (s *Stages) Plan(ctx context.Context, state graph.State) (graph.StateDelta, error) {
	recent := state.Recent(s.cfg.HistoryWindow)
	input := make([]llm.Message, 0, len(recent)+1)
	for _, m := range recent {
		switch m.Role {
		case llm.RoleUser:
			input = append(input, llm.UserMessage(m.Content))
		case llm.RoleAssistant:
			input = append(input, llm.AssistantMessage(m.Content))
		}
	}
	input = append(input, llm.UserMessage(state.Question))

	out, err := s.invoke(ctx, NodePlanner, s.planner, input)
	if err != nil {
		return graph.StateDelta{}, err
	}

	plan, subQuestions := planner.ParsePlan(agent.LastAssistantContent(out))
	return graph.StateDelta{Plan: plan, SubQuestions: subQuestions}, nil
}

// Retrieve gathers context through the retrieval agent's tool calls
func (s *Stages) Retrieve(ctx context.Context, state graph.State) (graph.StateDelta, error) {
	query := s.RetrievalQuery(state)

	out, err := s.invoke(ctx, NodeRetrieval, s.retriever, []llm.Message{llm.UserMessage(query)})
	if err != nil {
		return graph.StateDelta{}, err
	}

	// Only the latest tool result counts as context. No tool call means no context.
	content, _ := agent.LastToolContent(out)
	return graph.StateDelta{Context: &content}, nil
}

// RetrievalQuery renders the composite query handed to the retrieval agent
func (s *Stages) RetrievalQuery(state graph.State) string {
	plan := constant.NoneMarker
	if state.Plan != nil {
		plan = *state.Plan
	}

	subQuestions := constant.NoneMarker
	if len(state.SubQuestions) > 0 {
		lines := make([]string, len(state.SubQuestions))
		for i, sq := range state.SubQuestions {
			lines[i] = "- " + sq
		}
		subQuestions = strings.Join(lines, "\n")
	}

	var note string
	if len(state.Messages) >= 2 {
		if last, ok := state.LastAssistantMessage(); ok && last != "" {
			note = fmt.Sprintf("\n[Previous answer excerpt: %s...]\n", truncateRunes(last, s.cfg.ExcerptLength))
		}
	}

	return fmt.Sprintf("%sQuestion: %s\n\nPlan:\n%s\n\nSub-Questions:\n%s", note, state.Question, plan, subQuestions)
}

// Summarize drafts an answer grounded in the retrieved context only
func (s *Stages) Summarize(ctx context.Context, state graph.State) (graph.StateDelta, error) {
	if state.Context == nil {
		return graph.StateDelta{}, fmt.Errorf("summarize needs context: %w", graph.ErrMissingInput)
	}

	input := fmt.Sprintf("Question: %s\n\nContext:\n%s", state.Question, *state.Context)
	out, err := s.invoke(ctx, NodeSummarization, s.summarizer, []llm.Message{llm.UserMessage(input)})
	if err != nil {
		return graph.StateDelta{}, err
	}

	draft := agent.LastAssistantContent(out)
	return graph.StateDelta{DraftAnswer: &draft}, nil
}

// Verify strips unsupported claims from the draft and records the final answer
// in the conversation history.
func (s *Stages) Verify(ctx context.Context, state graph.State) (graph.StateDelta, error) {
	if state.DraftAnswer == nil {
		return graph.StateDelta{}, fmt.Errorf("verify needs a draft answer: %w", graph.ErrMissingInput)
	}

	input := fmt.Sprintf("Question: %s\n\nContext:\n%s\n\nDraft Answer:\n%s\n\n%s",
		state.Question, graph.StrValue(state.Context), *state.DraftAnswer, constant.VerificationInstruction)
	out, err := s.invoke(ctx, NodeVerification, s.verifier, []llm.Message{llm.UserMessage(input)})
	if err != nil {
		return graph.StateDelta{}, err
	}

	answer := agent.LastAssistantContent(out)
	return graph.StateDelta{
		Answer:   &answer,
		Messages: []graph.ConversationMessage{{Role: llm.RoleAssistant, Content: answer}},
	}, nil
}

func (s *Stages) invoke(ctx context.Context, stage string, a agent.Agent, input []llm.Message) ([]llm.Message, error) {
	out, err := a.Invoke(ctx, input)
	if err != nil {
		return nil, err
	}
	s.transcripts.Debug(logModule, "Agent transcript", map[string]interface{}{
		"stage":      stage,
		"transcript": out,
	})
	return out, nil
}

// NewQAGraph wires planner -> retrieval -> summarization -> verification
func NewQAGraph(s *Stages, opts ...graph.CompileOption) (*graph.CompiledGraph, error) {
	return graph.NewBuilder().
		AddNode(NodePlanner, s.Plan).
		AddNode(NodeRetrieval, s.Retrieve).
		AddNode(NodeSummarization, s.Summarize).
		AddNode(NodeVerification, s.Verify).
		AddEdge(graph.START, NodePlanner).
		AddEdge(NodePlanner, NodeRetrieval).
		AddEdge(NodeRetrieval, NodeSummarization).
		AddEdge(NodeSummarization, NodeVerification).
		AddEdge(NodeVerification, graph.END).
		Compile(opts...)
}

func truncateRunes(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}
