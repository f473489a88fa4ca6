package graph

import (
	"context"
	"strings"
	"sync"

	"ikms-rag-be/pkg/llm"

	"github.com/google/uuid"
)

// Provider builds the compiled graph on first use and hands out the same
// instance afterwards. Reset forces a rebuild.
type Provider struct {
	build func() (*CompiledGraph, error)

	mu    sync.Mutex
	graph *CompiledGraph
}

func NewProvider(build func() (*CompiledGraph, error)) *Provider {
	return &Provider{build: build}
}

func (p *Provider) Get() (*CompiledGraph, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.graph != nil {
		return p.graph, nil
	}
	g, err := p.build()
	if err != nil {
		return nil, err
	}
	p.graph = g
	return g, nil
}

func (p *Provider) Reset() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.graph = nil
}

// Result is the final state of a run plus the session it belongs to
type Result struct {
	State
	SessionID string
}

// Runner is the entry point of a question-answering turn
type Runner struct {
	provider *Provider
	newID    func() string
}

type RunnerOption func(*Runner)

// WithIDGenerator replaces the UUID session id generator
func WithIDGenerator(fn func() string) RunnerOption {
	return func(r *Runner) {
		r.newID = fn
	}
}

func NewRunner(provider *Provider, opts ...RunnerOption) *Runner {
	r := &Runner{
		provider: provider,
		newID:    uuid.NewString,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Run answers one question. An empty sessionID starts a new session; a known
// one resumes its history. Only the history survives between turns.
func (r *Runner) Run(ctx context.Context, question, sessionID string) (*Result, error) {
	if strings.TrimSpace(question) == "" {
		return nil, ErrEmptyQuestion
	}

	g, err := r.provider.Get()
	if err != nil {
		return nil, err
	}

	if sessionID == "" {
		sessionID = r.newID()
	}

	existing, found, err := g.GetState(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	userTurn := ConversationMessage{Role: llm.RoleUser, Content: question}
	var messages []ConversationMessage
	if found && existing != nil && len(existing.Messages) > 0 {
		messages = append(append(messages, existing.Messages...), userTurn)
	} else {
		messages = []ConversationMessage{userTurn}
	}

	initial := State{
		Question: question,
		Messages: messages,
	}

	final, err := g.Invoke(ctx, sessionID, initial)
	if err != nil {
		return nil, err
	}

	return &Result{State: final, SessionID: sessionID}, nil
}

// History returns the stored conversation of a session
func (r *Runner) History(ctx context.Context, sessionID string) ([]ConversationMessage, bool, error) {
	g, err := r.provider.Get()
	if err != nil {
		return nil, false, err
	}
	st, found, err := g.GetState(ctx, sessionID)
	if err != nil || !found || st == nil {
		return nil, false, err
	}
	return st.Messages, true, nil
}
