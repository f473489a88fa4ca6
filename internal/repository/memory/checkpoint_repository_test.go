package memory

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"ikms-rag-be/pkg/llm"
	"ikms-rag-be/pkg/rag/graph"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCheckpointRepository_MissIsNotAnError(t *testing.T) {
	repo := NewCheckpointRepository(0)

	st, found, err := repo.Get(context.Background(), "unknown")
	require.NoError(t, err)
	assert.False(t, found)
	assert.Nil(t, st)
}

func TestCheckpointRepository_PutOverwrites(t *testing.T) {
	repo := NewCheckpointRepository(0)
	ctx := context.Background()

	require.NoError(t, repo.Put(ctx, "s", &graph.State{Question: "first"}))
	require.NoError(t, repo.Put(ctx, "s", &graph.State{Question: "second"}))

	st, found, err := repo.Get(ctx, "s")
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, "second", st.Question)
	assert.Equal(t, 1, repo.Count())
}

func TestCheckpointRepository_IsolatesCallers(t *testing.T) {
	repo := NewCheckpointRepository(0)
	ctx := context.Background()

	in := &graph.State{Messages: []graph.ConversationMessage{{Role: llm.RoleUser, Content: "hi"}}}
	require.NoError(t, repo.Put(ctx, "s", in))

	in.Messages[0].Content = "changed"
	in.Messages = append(in.Messages, graph.ConversationMessage{Role: llm.RoleAssistant, Content: "x"})

	out, _, err := repo.Get(ctx, "s")
	require.NoError(t, err)
	require.Len(t, out.Messages, 1)
	assert.Equal(t, "hi", out.Messages[0].Content)

	out.Messages[0].Content = "mutated"
	again, _, _ := repo.Get(ctx, "s")
	assert.Equal(t, "hi", again.Messages[0].Content)
}

func TestCheckpointRepository_TTL(t *testing.T) {
	repo := NewCheckpointRepository(20 * time.Millisecond)
	ctx := context.Background()

	require.NoError(t, repo.Put(ctx, "s", &graph.State{Question: "q"}))
	time.Sleep(50 * time.Millisecond)

	_, found, err := repo.Get(ctx, "s")
	require.NoError(t, err)
	assert.False(t, found)
}

func TestCheckpointRepository_Concurrent(t *testing.T) {
	repo := NewCheckpointRepository(0)
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			id := fmt.Sprintf("session-%d", i%5)
			_ = repo.Put(ctx, id, &graph.State{Question: id})
			st, found, err := repo.Get(ctx, id)
			if assert.NoError(t, err) && assert.True(t, found) {
				assert.Equal(t, id, st.Question)
			}
		}(i)
	}
	wg.Wait()

	assert.Equal(t, 5, repo.Count())
}
