package factory

import (
	"fmt"

	"ikms-rag-be/pkg/embedding"
	"ikms-rag-be/pkg/embedding/jina"
)

// NewEmbeddingProvider creates an embedding provider. apiKey is used by gemini and jina.
func NewEmbeddingProvider(providerType, baseURL, model, apiKey string) (embedding.EmbeddingProvider, error) {
	switch providerType {
	case "ollama", "":
		return embedding.NewOllamaProvider(baseURL, model), nil
	case "gemini":
		if apiKey == "" {
			return nil, fmt.Errorf("gemini embeddings require an API key")
		}
		return embedding.NewGeminiProvider(apiKey), nil
	case "jina":
		if apiKey == "" {
			return nil, fmt.Errorf("jina embeddings require an API key")
		}
		return jina.NewJinaProvider(apiKey), nil
	default:
		return nil, fmt.Errorf("unsupported embedding provider: %s", providerType)
	}
}
