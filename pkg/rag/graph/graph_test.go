package graph

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"ikms-rag-be/pkg/llm"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type mapCheckpointer struct {
	mu     sync.Mutex
	states map[string]State
	puts   []string
	getErr error
	putErr error
}

func newMapCheckpointer() *mapCheckpointer {
	return &mapCheckpointer{states: make(map[string]State)}
}

func (m *mapCheckpointer) Get(_ context.Context, id string) (*State, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.getErr != nil {
		return nil, false, m.getErr
	}
	st, ok := m.states[id]
	if !ok {
		return nil, false, nil
	}
	c := st.Clone()
	return &c, true, nil
}

func (m *mapCheckpointer) Put(_ context.Context, id string, st *State) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.putErr != nil {
		return m.putErr
	}
	m.states[id] = st.Clone()
	m.puts = append(m.puts, id)
	return nil
}

// echoPipeline mimics the four stages with deterministic outputs
func echoPipeline(t *testing.T, store Checkpointer, opts ...CompileOption) *CompiledGraph {
	t.Helper()

	plan := func(_ context.Context, s State) (StateDelta, error) {
		return StateDelta{Plan: Str("1. look up " + s.Question), SubQuestions: []string{"a", "b"}}, nil
	}
	retrieve := func(_ context.Context, s State) (StateDelta, error) {
		return StateDelta{Context: Str("ctx for " + s.Question)}, nil
	}
	summarize := func(_ context.Context, s State) (StateDelta, error) {
		if s.Context == nil {
			return StateDelta{}, ErrMissingInput
		}
		return StateDelta{DraftAnswer: Str("draft: " + *s.Context)}, nil
	}
	verify := func(_ context.Context, s State) (StateDelta, error) {
		if s.DraftAnswer == nil {
			return StateDelta{}, ErrMissingInput
		}
		answer := "final: " + *s.DraftAnswer
		return StateDelta{
			Answer:   &answer,
			Messages: []ConversationMessage{{Role: llm.RoleAssistant, Content: answer}},
		}, nil
	}

	g, err := NewBuilder().
		AddNode("planner", plan).
		AddNode("retrieval", retrieve).
		AddNode("summarization", summarize).
		AddNode("verification", verify).
		AddEdge(START, "planner").
		AddEdge("planner", "retrieval").
		AddEdge("retrieval", "summarization").
		AddEdge("summarization", "verification").
		AddEdge("verification", END).
		Compile(append([]CompileOption{WithCheckpointer(store)}, opts...)...)
	require.NoError(t, err)
	return g
}

func newTestRunner(t *testing.T, store Checkpointer) *Runner {
	return NewRunner(NewProvider(func() (*CompiledGraph, error) {
		return echoPipeline(t, store), nil
	}))
}

func TestCompile_Order(t *testing.T) {
	g := echoPipeline(t, nil)
	assert.Equal(t, []string{"planner", "retrieval", "summarization", "verification"}, g.Nodes())
}

func TestCompile_InvalidGraphs(t *testing.T) {
	noop := func(context.Context, State) (StateDelta, error) { return StateDelta{}, nil }

	tests := []struct {
		name  string
		build func() *Builder
	}{
		{
			name: "no start edge",
			build: func() *Builder {
				return NewBuilder().AddNode("a", noop).AddEdge("a", END)
			},
		},
		{
			name: "dangling node",
			build: func() *Builder {
				return NewBuilder().AddNode("a", noop).AddEdge(START, "a")
			},
		},
		{
			name: "unknown target",
			build: func() *Builder {
				return NewBuilder().AddNode("a", noop).AddEdge(START, "a").AddEdge("a", "b")
			},
		},
		{
			name: "cycle",
			build: func() *Builder {
				return NewBuilder().
					AddNode("a", noop).AddNode("b", noop).
					AddEdge(START, "a").AddEdge("a", "b").AddEdge("b", "a")
			},
		},
		{
			name: "unreachable node",
			build: func() *Builder {
				return NewBuilder().
					AddNode("a", noop).AddNode("b", noop).
					AddEdge(START, "a").AddEdge("a", END).AddEdge("b", END)
			},
		},
		{
			name: "duplicate node",
			build: func() *Builder {
				return NewBuilder().AddNode("a", noop).AddNode("a", noop).AddEdge(START, "a").AddEdge("a", END)
			},
		},
		{
			name: "reserved name",
			build: func() *Builder {
				return NewBuilder().AddNode(END, noop)
			},
		},
		{
			name: "two successors",
			build: func() *Builder {
				return NewBuilder().AddNode("a", noop).AddEdge(START, "a").AddEdge("a", END).AddEdge("a", END)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := tt.build().Compile()
			assert.ErrorIs(t, err, ErrInvalidGraph)
		})
	}
}

func TestRunner_FreshSession(t *testing.T) {
	store := newMapCheckpointer()
	runner := NewRunner(
		NewProvider(func() (*CompiledGraph, error) { return echoPipeline(t, store), nil }),
		WithIDGenerator(func() string { return "session-1" }),
	)

	res, err := runner.Run(context.Background(), "q1", "")
	require.NoError(t, err)

	assert.Equal(t, "session-1", res.SessionID)
	require.Len(t, res.Messages, 2)
	assert.Equal(t, ConversationMessage{Role: llm.RoleUser, Content: "q1"}, res.Messages[0])
	assert.Equal(t, llm.RoleAssistant, res.Messages[1].Role)
	assert.Equal(t, StrValue(res.Answer), res.Messages[1].Content)

	// one checkpoint per stage
	assert.Len(t, store.puts, 4)

	saved, found, err := store.Get(context.Background(), "session-1")
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, res.State, *saved)
}

func TestRunner_ResumesSession(t *testing.T) {
	store := newMapCheckpointer()
	runner := newTestRunner(t, store)
	ctx := context.Background()

	first, err := runner.Run(ctx, "q1", "")
	require.NoError(t, err)
	require.NotEmpty(t, first.SessionID)

	second, err := runner.Run(ctx, "q2", first.SessionID)
	require.NoError(t, err)

	assert.Equal(t, first.SessionID, second.SessionID)
	require.Len(t, second.Messages, 4)
	assert.Equal(t, first.Messages, second.Messages[:2])
	assert.Equal(t, ConversationMessage{Role: llm.RoleUser, Content: "q2"}, second.Messages[2])
	assert.Equal(t, "final: draft: ctx for q2", second.Messages[3].Content)

	// fields other than the history are reset each turn
	assert.Equal(t, "q2", second.Question)
	assert.Equal(t, "ctx for q2", StrValue(second.Context))
}

func TestRunner_SessionsAreIsolated(t *testing.T) {
	store := newMapCheckpointer()
	runner := newTestRunner(t, store)
	ctx := context.Background()

	a, err := runner.Run(ctx, "qa", "a")
	require.NoError(t, err)
	b, err := runner.Run(ctx, "qb", "b")
	require.NoError(t, err)

	assert.Len(t, a.Messages, 2)
	assert.Len(t, b.Messages, 2)
	assert.Equal(t, "qb", b.Messages[0].Content)
}

func TestRunner_EmptyQuestion(t *testing.T) {
	store := newMapCheckpointer()
	runner := newTestRunner(t, store)

	_, err := runner.Run(context.Background(), "   ", "")
	assert.ErrorIs(t, err, ErrEmptyQuestion)
	assert.Empty(t, store.puts)
}

func TestInvoke_StageFailureAborts(t *testing.T) {
	boom := errors.New("provider down")
	var verifyCalled bool

	store := newMapCheckpointer()
	g, err := NewBuilder().
		AddNode("planner", func(context.Context, State) (StateDelta, error) {
			return StateDelta{Plan: Str("1. x")}, nil
		}).
		AddNode("retrieval", func(context.Context, State) (StateDelta, error) {
			return StateDelta{}, boom
		}).
		AddNode("verification", func(context.Context, State) (StateDelta, error) {
			verifyCalled = true
			return StateDelta{}, nil
		}).
		AddEdge(START, "planner").
		AddEdge("planner", "retrieval").
		AddEdge("retrieval", "verification").
		AddEdge("verification", END).
		Compile(WithCheckpointer(store))
	require.NoError(t, err)

	out, err := g.Invoke(context.Background(), "s", State{Question: "q"})
	require.Error(t, err)

	var stageErr *StageError
	require.True(t, errors.As(err, &stageErr))
	assert.Equal(t, "retrieval", stageErr.Stage)
	assert.ErrorIs(t, err, boom)
	assert.False(t, verifyCalled)
	assert.Equal(t, State{}, out)
	assert.Equal(t, []string{"s"}, store.puts)
}

func TestInvoke_CheckpointFailure(t *testing.T) {
	store := newMapCheckpointer()
	store.putErr = errors.New("disk full")
	g := echoPipeline(t, store)

	_, err := g.Invoke(context.Background(), "s", State{Question: "q"})

	var cpErr *CheckpointError
	require.True(t, errors.As(err, &cpErr))
	assert.Equal(t, "s", cpErr.SessionID)
}

func TestInvoke_StageTimeout(t *testing.T) {
	g, err := NewBuilder().
		AddNode("slow", func(ctx context.Context, _ State) (StateDelta, error) {
			select {
			case <-ctx.Done():
				return StateDelta{}, ctx.Err()
			case <-time.After(time.Second):
				return StateDelta{}, nil
			}
		}).
		AddEdge(START, "slow").
		AddEdge("slow", END).
		Compile(WithStageTimeout(10 * time.Millisecond))
	require.NoError(t, err)

	_, err = g.Invoke(context.Background(), "s", State{Question: "q"})
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestInvoke_DoesNotMutateInput(t *testing.T) {
	g := echoPipeline(t, nil)
	input := State{
		Question: "q",
		Messages: []ConversationMessage{{Role: llm.RoleUser, Content: "q"}},
	}

	_, err := g.Invoke(context.Background(), "s", input)
	require.NoError(t, err)
	assert.Len(t, input.Messages, 1)
	assert.Nil(t, input.Answer)
}

func TestProvider_MemoizesAndResets(t *testing.T) {
	builds := 0
	p := NewProvider(func() (*CompiledGraph, error) {
		builds++
		return echoPipeline(t, nil), nil
	})

	g1, err := p.Get()
	require.NoError(t, err)
	g2, err := p.Get()
	require.NoError(t, err)
	assert.Same(t, g1, g2)
	assert.Equal(t, 1, builds)

	p.Reset()
	g3, err := p.Get()
	require.NoError(t, err)
	assert.NotSame(t, g1, g3)
	assert.Equal(t, 2, builds)
}

func TestProvider_BuildErrorNotCached(t *testing.T) {
	fail := true
	p := NewProvider(func() (*CompiledGraph, error) {
		if fail {
			return nil, errors.New("no model")
		}
		return echoPipeline(t, nil), nil
	})

	_, err := p.Get()
	require.Error(t, err)

	fail = false
	g, err := p.Get()
	require.NoError(t, err)
	assert.NotNil(t, g)
}

func TestState_Apply(t *testing.T) {
	s := State{Question: "q", Plan: Str("old")}
	s.Apply(StateDelta{
		Context:  Str("ctx"),
		Messages: []ConversationMessage{{Role: llm.RoleAssistant, Content: "hi"}},
	})

	assert.Equal(t, "old", StrValue(s.Plan))
	assert.Equal(t, "ctx", StrValue(s.Context))
	assert.Len(t, s.Messages, 1)
}
