package retrieval

import (
	"context"
	"errors"
	"testing"

	"ikms-rag-be/internal/entity"
	"ikms-rag-be/internal/repository/contract"
	"ikms-rag-be/pkg/agent"
	"ikms-rag-be/pkg/embedding"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeEmbedder struct {
	err      error
	taskType string
}

func (f *fakeEmbedder) Generate(_ context.Context, _ string, taskType string) (*embedding.EmbeddingResponse, error) {
	f.taskType = taskType
	if f.err != nil {
		return nil, f.err
	}
	return &embedding.EmbeddingResponse{Embedding: embedding.EmbeddingResponseEmbedding{Values: []float32{1, 0}}}, nil
}

type fakeChunks struct {
	contract.DocumentChunkRepository
	results   []*contract.ScoredDocumentChunk
	limit     int
	threshold float64
}

func (f *fakeChunks) SearchSimilarWithScore(_ context.Context, _ []float32, limit int, threshold float64) ([]*contract.ScoredDocumentChunk, error) {
	f.limit = limit
	f.threshold = threshold
	return f.results, nil
}

func TestSearchTool_FormatsChunks(t *testing.T) {
	emb := &fakeEmbedder{}
	chunks := &fakeChunks{results: []*contract.ScoredDocumentChunk{
		{Chunk: &entity.DocumentChunk{Source: "guide.pdf", Page: 3, Content: " Vector databases store embeddings. "}, Similarity: 0.9},
		{Chunk: &entity.DocumentChunk{Source: "notes.md", Content: "Indexes use HNSW."}, Similarity: 0.7},
	}}
	tool := NewSearchTool(emb, chunks, 0, 0.4, nil)

	out, err := tool.Call(context.Background(), map[string]interface{}{"query": "vector database"})
	require.NoError(t, err)

	assert.Equal(t,
		"[Chunk 1] (guide.pdf, page 3)\nVector databases store embeddings.\n\n[Chunk 2] (notes.md)\nIndexes use HNSW.",
		out)
	assert.Equal(t, embedding.TaskRetrievalQuery, emb.taskType)
	assert.Equal(t, DefaultTopK, chunks.limit)
	assert.Equal(t, 0.4, chunks.threshold)
}

func TestSearchTool_NoMatches(t *testing.T) {
	tool := NewSearchTool(&fakeEmbedder{}, &fakeChunks{}, 2, 0.3, nil)

	out, err := tool.Search(context.Background(), "anything")
	require.NoError(t, err)
	assert.Equal(t, NoResults, out)
}

func TestSearchTool_Errors(t *testing.T) {
	tool := NewSearchTool(&fakeEmbedder{err: errors.New("down")}, &fakeChunks{}, 2, 0.3, nil)

	_, err := tool.Call(context.Background(), map[string]interface{}{"query": "q"})
	assert.ErrorContains(t, err, "embed query")
	assert.NotErrorIs(t, err, agent.ErrInvalidArguments)

	_, err = tool.Call(context.Background(), map[string]interface{}{"q": "q"})
	assert.ErrorIs(t, err, agent.ErrInvalidArguments)
	assert.ErrorContains(t, err, "missing argument")
}
