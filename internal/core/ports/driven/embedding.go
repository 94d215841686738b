// Package driven provides interfaces for infrastructure adapters (secondary/outbound ports).
package driven

import "context"

// EmbeddingService maps chunk or query text to fixed-dimension dense
// vectors. Implementations are deterministic for a given model: the
// same text yields the same vector across calls and process restarts.
//
// Fixed policy: empty or whitespace-only text is rejected with
// domain.ErrEmbedding, never mapped to a zero vector.
//
// Implementations include:
//   - hash (offline feature hashing, bit-identical, the default)
//   - openai (text-embedding-3-small, text-embedding-3-large)
//   - gemini (text-embedding-004)
//   - ollama (nomic-embed-text, all-minilm)
type EmbeddingService interface {
	// Embed generates a vector for one text (typically a query).
	Embed(ctx context.Context, text string) ([]float32, error)

	// EmbedBatch generates vectors for multiple texts, order- and
	// length-preserving. Batch boundaries never affect the values.
	EmbedBatch(ctx context.Context, texts []string) ([][]float32, error)

	// Dimensions returns the vector length the model produces.
	Dimensions() int

	// ModelID returns the "provider/model" identifier. Vectors from
	// different model ids never share an index.
	ModelID() string

	// Ping validates the model is loadable/reachable with a
	// lightweight request.
	Ping(ctx context.Context) error

	// Close releases the cached model handle.
	Close() error
}
