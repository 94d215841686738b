// Package embedding wires the configured embedding backend behind the
// driven.EmbeddingService port. The backend is selected by the
// "provider/model" id in the configuration; remote clients are not
// constructed until the first embedding call.
package embedding

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	geminiembed "github.com/quillstone-labs/paperdex-cli/internal/adapters/driven/embedding/gemini"
	hashembed "github.com/quillstone-labs/paperdex-cli/internal/adapters/driven/embedding/hash"
	ollamaembed "github.com/quillstone-labs/paperdex-cli/internal/adapters/driven/embedding/ollama"
	openaiembed "github.com/quillstone-labs/paperdex-cli/internal/adapters/driven/embedding/openai"
	"github.com/quillstone-labs/paperdex-cli/internal/core/domain"
	"github.com/quillstone-labs/paperdex-cli/internal/core/ports/driven"
)

// pingTimeout is the maximum time to wait for backend connectivity
// validation at first use.
const pingTimeout = 5 * time.Second

// Provider name prefixes recognised in embedding model ids.
const (
	ProviderHash   = "hash"
	ProviderOpenAI = "openai"
	ProviderGemini = "gemini"
	ProviderOllama = "ollama"
)

// Environment variables consulted for backend credentials and endpoints.
const (
	envOpenAIKey     = "OPENAI_API_KEY"
	envOpenAIBaseURL = "OPENAI_BASE_URL"
	envGeminiKey     = "GEMINI_API_KEY"
	envOllamaHost    = "OLLAMA_HOST"
)

// NewService creates the embedding service described by
// cfg.EmbeddingModelID. Dimensions are resolved immediately; backend
// construction and credential checks are deferred to first use.
func NewService(cfg domain.Config) (*Provider, error) {
	provider, model, ok := strings.Cut(cfg.EmbeddingModelID, "/")
	if !ok || provider == "" || model == "" {
		return nil, fmt.Errorf("%w: embedding model id must be \"provider/model\", got %q",
			domain.ErrInvalidConfig, cfg.EmbeddingModelID)
	}

	dimensions, err := resolveDimensions(provider, model)
	if err != nil {
		return nil, err
	}

	batchSize := cfg.EmbeddingBatchSize
	if batchSize <= 0 {
		batchSize = domain.DefaultEmbeddingBatchSize
	}

	return &Provider{
		provider:   provider,
		model:      model,
		modelID:    cfg.EmbeddingModelID,
		dimensions: dimensions,
		batchSize:  batchSize,
	}, nil
}

// resolveDimensions reports the vector size for a model without
// constructing its backend.
func resolveDimensions(provider, model string) (int, error) {
	switch provider {
	case ProviderHash:
		return hashembed.ParseDimensions(model)

	case ProviderOpenAI:
		return openaiembed.ModelDimensions(model), nil

	case ProviderGemini:
		return geminiembed.ModelDimensions(model), nil

	case ProviderOllama:
		return ollamaembed.ModelDimensions(model), nil

	default:
		return 0, fmt.Errorf("%w: unknown embedding provider %q", domain.ErrModelUnavailable, provider)
	}
}

// createBackend constructs the concrete embedding service for a
// provider/model pair. Remote providers read credentials from the
// environment.
func createBackend(ctx context.Context, provider, model string) (driven.EmbeddingService, error) {
	switch provider {
	case ProviderHash:
		return hashembed.NewEmbeddingService(model)

	case ProviderOpenAI:
		apiKey := os.Getenv(envOpenAIKey)
		if apiKey == "" {
			return nil, fmt.Errorf("%w: %s is not set", domain.ErrModelUnavailable, envOpenAIKey)
		}
		return openaiembed.NewEmbeddingService(openaiembed.Config{
			APIKey:  apiKey,
			BaseURL: os.Getenv(envOpenAIBaseURL),
			Model:   model,
		})

	case ProviderGemini:
		apiKey := os.Getenv(envGeminiKey)
		if apiKey == "" {
			return nil, fmt.Errorf("%w: %s is not set", domain.ErrModelUnavailable, envGeminiKey)
		}
		return geminiembed.NewEmbeddingService(ctx, geminiembed.Config{
			APIKey: apiKey,
			Model:  model,
		})

	case ProviderOllama:
		return ollamaembed.NewEmbeddingService(ollamaembed.Config{
			BaseURL: os.Getenv(envOllamaHost),
			Model:   model,
		}), nil

	default:
		return nil, fmt.Errorf("%w: unknown embedding provider %q", domain.ErrModelUnavailable, provider)
	}
}
