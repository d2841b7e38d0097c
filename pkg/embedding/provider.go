package embedding

import "fmt"

// EmbeddingProvider defines the interface for generating text embeddings
type EmbeddingProvider interface {
	Generate(text string, taskType string) (*EmbeddingResponse, error)
}

type EmbeddingResponseEmbedding struct {
	Values []float32 `json:"values"`
}

type EmbeddingResponse struct {
	Embedding EmbeddingResponseEmbedding `json:"embedding"`
}

// NewProvider selects an embedding backend by name ("ollama" or "gemini").
func NewProvider(provider, ollamaBaseURL, ollamaModel, geminiAPIKey string) (EmbeddingProvider, error) {
	switch provider {
	case "ollama":
		return NewOllamaProvider(ollamaBaseURL, ollamaModel), nil
	case "gemini":
		if geminiAPIKey == "" {
			return nil, fmt.Errorf("gemini embedding provider requires GEMINI_API_KEY")
		}
		return NewGeminiProvider(geminiAPIKey), nil
	default:
		return nil, fmt.Errorf("unknown embedding provider %q", provider)
	}
}
