package agents

import (
	"context"
	"errors"
	"strings"
	"testing"

	"ikms-rag-be/pkg/agent"
	"ikms-rag-be/pkg/llm"
	"ikms-rag-be/pkg/rag/graph"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// recordingAgent replies with a fixed transcript tail and remembers its input
type recordingAgent struct {
	reply  func(input []llm.Message) []llm.Message
	err    error
	inputs [][]llm.Message
}

func (r *recordingAgent) Invoke(_ context.Context, input []llm.Message) ([]llm.Message, error) {
	r.inputs = append(r.inputs, input)
	if r.err != nil {
		return nil, r.err
	}
	return append(append([]llm.Message(nil), input...), r.reply(input)...), nil
}

func replyWith(content string) *recordingAgent {
	return &recordingAgent{reply: func([]llm.Message) []llm.Message {
		return []llm.Message{llm.AssistantMessage(content)}
	}}
}

func echoContext() *recordingAgent {
	return &recordingAgent{reply: func(in []llm.Message) []llm.Message {
		content := in[len(in)-1].Content
		content = content[strings.Index(content, "Context:\n")+len("Context:\n"):]
		if end := strings.Index(content, "\n\nDraft Answer:"); end >= 0 {
			content = content[:end]
		}
		return []llm.Message{llm.AssistantMessage(content)}
	}}
}

func toolThenAnswer(toolResults ...string) *recordingAgent {
	return &recordingAgent{reply: func([]llm.Message) []llm.Message {
		var out []llm.Message
		for _, r := range toolResults {
			out = append(out,
				llm.Message{Role: llm.RoleAssistant, ToolCalls: []llm.ToolCall{{ID: "c", Name: "search_documents"}}},
				llm.ToolMessage("c", "search_documents", r),
			)
		}
		return append(out, llm.AssistantMessage("CONTEXT gathered"))
	}}
}

const plannerOutput = `original_question: "What is a vector database?"

plan:
1. Define vector databases
2. Describe how they store data

sub_questions:
- "vector database definition"
- "vector embedding storage"`

func newStages(p, r, s, v agent.Agent) *Stages {
	return NewStages(p, r, s, v, Config{})
}

func TestPlan_UsesRecentHistoryAndParses(t *testing.T) {
	p := replyWith(plannerOutput)
	stages := newStages(p, nil, nil, nil)

	history := make([]graph.ConversationMessage, 0, 9)
	for i := 0; i < 4; i++ {
		history = append(history,
			graph.ConversationMessage{Role: llm.RoleUser, Content: "u"},
			graph.ConversationMessage{Role: llm.RoleAssistant, Content: "a"},
		)
	}
	history = append(history, graph.ConversationMessage{Role: llm.RoleUser, Content: "What is a vector database?"})

	delta, err := stages.Plan(context.Background(), graph.State{Question: "What is a vector database?", Messages: history})
	require.NoError(t, err)

	require.Len(t, p.inputs, 1)
	input := p.inputs[0]
	require.Len(t, input, DefaultHistoryWindow+1)
	assert.Equal(t, llm.UserMessage("What is a vector database?"), input[len(input)-1])

	assert.Equal(t, "1. Define vector databases\n2. Describe how they store data", graph.StrValue(delta.Plan))
	assert.Equal(t, []string{"vector database definition", "vector embedding storage"}, delta.SubQuestions)
	assert.Empty(t, delta.Messages)
}

func TestPlan_UnstructuredOutputYieldsNothing(t *testing.T) {
	stages := newStages(replyWith("I think you should just search."), nil, nil, nil)

	delta, err := stages.Plan(context.Background(), graph.State{Question: "q"})
	require.NoError(t, err)
	assert.Nil(t, delta.Plan)
	assert.Nil(t, delta.SubQuestions)
}

func TestRetrievalQuery(t *testing.T) {
	stages := newStages(nil, nil, nil, nil)

	tests := []struct {
		name     string
		state    graph.State
		contains []string
		excludes []string
	}{
		{
			name:  "no plan and no sub-questions",
			state: graph.State{Question: "q", Messages: []graph.ConversationMessage{{Role: llm.RoleUser, Content: "q"}}},
			contains: []string{
				"Question: q\n\nPlan:\nNone\n\nSub-Questions:\nNone",
			},
			excludes: []string{"Previous answer excerpt"},
		},
		{
			name: "bulleted sub-questions",
			state: graph.State{
				Question:     "q",
				Plan:         graph.Str("1. A"),
				SubQuestions: []string{"x", "y"},
			},
			contains: []string{"Plan:\n1. A\n\nSub-Questions:\n- x\n- y"},
		},
		{
			name: "previous answer excerpt",
			state: graph.State{
				Question: "and then?",
				Messages: []graph.ConversationMessage{
					{Role: llm.RoleUser, Content: "first"},
					{Role: llm.RoleAssistant, Content: strings.Repeat("é", 250)},
					{Role: llm.RoleUser, Content: "and then?"},
				},
			},
			contains: []string{"\n[Previous answer excerpt: " + strings.Repeat("é", 200) + "...]\nQuestion: and then?"},
			excludes: []string{strings.Repeat("é", 201)},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := stages.RetrievalQuery(tt.state)
			for _, want := range tt.contains {
				assert.Contains(t, got, want)
			}
			for _, bad := range tt.excludes {
				assert.NotContains(t, got, bad)
			}
		})
	}
}

func TestRetrieve_TakesLatestToolResult(t *testing.T) {
	stages := newStages(nil, toolThenAnswer("first", "second"), nil, nil)

	delta, err := stages.Retrieve(context.Background(), graph.State{Question: "q"})
	require.NoError(t, err)
	assert.Equal(t, "second", graph.StrValue(delta.Context))
}

func TestRetrieve_NoToolCallMeansEmptyContext(t *testing.T) {
	stages := newStages(nil, replyWith("nothing to search"), nil, nil)

	delta, err := stages.Retrieve(context.Background(), graph.State{Question: "q"})
	require.NoError(t, err)
	require.NotNil(t, delta.Context)
	assert.Equal(t, "", *delta.Context)
}

func TestSummarizeAndVerify_RequireInputs(t *testing.T) {
	stages := newStages(nil, nil, replyWith("x"), replyWith("y"))

	_, err := stages.Summarize(context.Background(), graph.State{Question: "q"})
	assert.ErrorIs(t, err, graph.ErrMissingInput)

	_, err = stages.Verify(context.Background(), graph.State{Question: "q", Context: graph.Str("c")})
	assert.ErrorIs(t, err, graph.ErrMissingInput)
}

func TestVerify_AppendsAnswerToHistory(t *testing.T) {
	v := replyWith("final")
	stages := newStages(nil, nil, nil, v)

	delta, err := stages.Verify(context.Background(), graph.State{
		Question:    "q",
		Context:     graph.Str("c"),
		DraftAnswer: graph.Str("d"),
	})
	require.NoError(t, err)

	assert.Equal(t, "final", graph.StrValue(delta.Answer))
	assert.Equal(t, []graph.ConversationMessage{{Role: llm.RoleAssistant, Content: "final"}}, delta.Messages)
	assert.Equal(t,
		"Question: q\n\nContext:\nc\n\nDraft Answer:\nd\n\nPlease verify and correct the draft answer, removing any unsupported claims.",
		v.inputs[0][0].Content)
}

type memStore struct {
	states map[string]graph.State
}

func (m *memStore) Get(_ context.Context, id string) (*graph.State, bool, error) {
	st, ok := m.states[id]
	if !ok {
		return nil, false, nil
	}
	c := st.Clone()
	return &c, true, nil
}

func (m *memStore) Put(_ context.Context, id string, st *graph.State) error {
	m.states[id] = st.Clone()
	return nil
}

func TestQAGraph_EndToEnd(t *testing.T) {
	const retrieved = "Vector databases store embeddings..."

	stages := newStages(replyWith(plannerOutput), toolThenAnswer(retrieved), echoContext(), echoContext())
	store := &memStore{states: make(map[string]graph.State)}
	runner := graph.NewRunner(graph.NewProvider(func() (*graph.CompiledGraph, error) {
		return NewQAGraph(stages, graph.WithCheckpointer(store))
	}))

	res, err := runner.Run(context.Background(), "What is a vector database?", "")
	require.NoError(t, err)

	assert.NotEmpty(t, res.SessionID)
	assert.Equal(t, retrieved, graph.StrValue(res.Context))
	assert.Equal(t, retrieved, graph.StrValue(res.DraftAnswer))
	assert.Equal(t, retrieved, graph.StrValue(res.Answer))
	assert.NotNil(t, res.Plan)
	assert.Len(t, res.SubQuestions, 2)
	require.Len(t, res.Messages, 2)
	assert.Equal(t, retrieved, res.Messages[1].Content)
}

func TestQAGraph_StageFailureAborts(t *testing.T) {
	failing := &recordingAgent{err: errors.New("model timeout")}
	verifier := replyWith("never")
	stages := newStages(replyWith(plannerOutput), toolThenAnswer("c"), failing, verifier)

	g, err := NewQAGraph(stages)
	require.NoError(t, err)
	assert.Equal(t, []string{NodePlanner, NodeRetrieval, NodeSummarization, NodeVerification}, g.Nodes())

	_, err = g.Invoke(context.Background(), "s", graph.State{Question: "q"})
	var stageErr *graph.StageError
	require.True(t, errors.As(err, &stageErr))
	assert.Equal(t, NodeSummarization, stageErr.Stage)
	assert.Empty(t, verifier.inputs)
}
