package retrieval

import (
	"context"
	"fmt"
	"strings"

	"ikms-rag-be/internal/pkg/logger"
	"ikms-rag-be/internal/repository/contract"
	"ikms-rag-be/pkg/agent"
	"ikms-rag-be/pkg/embedding"
)

const (
	ToolName = "search_documents"

	// NoResults is returned to the model when nothing passes the threshold
	NoResults = "No relevant document chunks found."

	DefaultTopK      = 4
	DefaultThreshold = 0.3
)

// SearchTool embeds a query and returns the closest document chunks as one CONTEXT blob
type SearchTool struct {
	embedder  embedding.EmbeddingProvider
	chunks    contract.DocumentChunkRepository
	topK      int
	threshold float64
	logger    logger.ILogger
}

var _ agent.Tool = (*SearchTool)(nil)

func NewSearchTool(embedder embedding.EmbeddingProvider, chunks contract.DocumentChunkRepository, topK int, threshold float64, l logger.ILogger) *SearchTool {
	if topK <= 0 {
		topK = DefaultTopK
	}
	if l == nil {
		l = logger.NewNopLogger()
	}
	return &SearchTool{
		embedder:  embedder,
		chunks:    chunks,
		topK:      topK,
		threshold: threshold,
		logger:    l,
	}
}

func (t *SearchTool) Name() string {
	return ToolName
}

func (t *SearchTool) Description() string {
	return "Search the indexed documents for passages relevant to a query. Returns the matching chunks with their source and page."
}

func (t *SearchTool) Parameters() map[string]interface{} {
	return map[string]interface{}{
		"type": "object",
		"properties": map[string]interface{}{
			"query": map[string]interface{}{
				"type":        "string",
				"description": "Search query, e.g. a sub-question of the plan",
			},
		},
		"required": []string{"query"},
	}
}

func (t *SearchTool) Call(ctx context.Context, args map[string]interface{}) (string, error) {
	query, err := agent.StringArg(args, "query")
	if err != nil {
		return "", err
	}
	return t.Search(ctx, query)
}

// Search runs one lookup and renders the result
func (t *SearchTool) Search(ctx context.Context, query string) (string, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return NoResults, nil
	}

	res, err := t.embedder.Generate(ctx, query, embedding.TaskRetrievalQuery)
	if err != nil {
		return "", fmt.Errorf("embed query: %w", err)
	}

	scored, err := t.chunks.SearchSimilarWithScore(ctx, res.Embedding.Values, t.topK, t.threshold)
	if err != nil {
		return "", fmt.Errorf("search chunks: %w", err)
	}

	t.logger.Debug("Retrieval", "Document search", map[string]interface{}{
		"query":   query,
		"matches": len(scored),
	})

	return FormatContext(scored), nil
}

// FormatContext renders chunks as numbered passages with location references
func FormatContext(scored []*contract.ScoredDocumentChunk) string {
	if len(scored) == 0 {
		return NoResults
	}

	var sb strings.Builder
	for i, s := range scored {
		if i > 0 {
			sb.WriteString("\n\n")
		}
		c := s.Chunk
		if c.Page > 0 {
			fmt.Fprintf(&sb, "[Chunk %d] (%s, page %d)\n", i+1, c.Source, c.Page)
		} else {
			fmt.Fprintf(&sb, "[Chunk %d] (%s)\n", i+1, c.Source)
		}
		sb.WriteString(strings.TrimSpace(c.Content))
	}
	return sb.String()
}
