package embedding

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/quillstone-labs/paperdex-cli/internal/core/domain"
)

func configWithModel(modelID string) domain.Config {
	cfg := domain.DefaultConfig()
	cfg.EmbeddingModelID = modelID
	return cfg
}

func TestNewService(t *testing.T) {
	tests := []struct {
		name     string
		modelID  string
		wantDims int
		wantErr  error
	}{
		{
			name:     "hash provider",
			modelID:  "hash/256",
			wantDims: 256,
		},
		{
			name:     "hash with custom dimensions",
			modelID:  "hash/64",
			wantDims: 64,
		},
		{
			name:     "openai small",
			modelID:  "openai/text-embedding-3-small",
			wantDims: 1536,
		},
		{
			name:     "openai large",
			modelID:  "openai/text-embedding-3-large",
			wantDims: 3072,
		},
		{
			name:     "gemini",
			modelID:  "gemini/text-embedding-004",
			wantDims: 768,
		},
		{
			name:     "ollama nomic",
			modelID:  "ollama/nomic-embed-text",
			wantDims: 768,
		},
		{
			name:     "ollama minilm",
			modelID:  "ollama/all-minilm",
			wantDims: 384,
		},
		{
			name:    "unknown provider",
			modelID: "acme/simhash-3",
			wantErr: domain.ErrModelUnavailable,
		},
		{
			name:    "hash with bad dimensions",
			modelID: "hash/tiny",
			wantErr: domain.ErrModelUnavailable,
		},
		{
			name:    "missing separator",
			modelID: "hash",
			wantErr: domain.ErrInvalidConfig,
		},
		{
			name:    "empty model part",
			modelID: "openai/",
			wantErr: domain.ErrInvalidConfig,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, err := NewService(configWithModel(tt.modelID))
			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)
				return
			}

			require.NoError(t, err)
			defer svc.Close()

			assert.Equal(t, tt.wantDims, svc.Dimensions())
			assert.Equal(t, tt.modelID, svc.ModelID())
		})
	}
}

func TestNewService_MissingCredentialsSurfaceAtFirstUse(t *testing.T) {
	t.Setenv("OPENAI_API_KEY", "")

	svc, err := NewService(configWithModel("openai/text-embedding-3-small"))
	require.NoError(t, err, "construction must not need credentials")
	defer svc.Close()

	_, err = svc.Embed(context.Background(), "a query")
	require.ErrorIs(t, err, domain.ErrModelUnavailable)
	assert.Contains(t, err.Error(), "OPENAI_API_KEY")
}

func TestNewService_MissingGeminiKey(t *testing.T) {
	t.Setenv("GEMINI_API_KEY", "")

	svc, err := NewService(configWithModel("gemini/text-embedding-004"))
	require.NoError(t, err)
	defer svc.Close()

	_, err = svc.EmbedBatch(context.Background(), []string{"a query"})
	require.ErrorIs(t, err, domain.ErrModelUnavailable)
}

func TestNewService_OllamaHostFromEnvironment(t *testing.T) {
	var paths []string
	srv := httptest.NewServer(http.HandlerFunc(func(_ http.ResponseWriter, r *http.Request) {
		paths = append(paths, r.URL.Path)
	}))
	defer srv.Close()
	t.Setenv("OLLAMA_HOST", srv.URL)

	svc, err := NewService(configWithModel("ollama/nomic-embed-text"))
	require.NoError(t, err)
	defer svc.Close()

	require.NoError(t, svc.Ping(context.Background()))
	assert.Contains(t, paths, "/api/tags")
}
