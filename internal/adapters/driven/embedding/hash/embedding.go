// Package hash provides a deterministic offline embedding service built
// on feature hashing. It needs no model files and no network, and it
// produces bit-identical vectors for identical text, which makes it the
// default backend and the one the test suite runs against.
package hash

import (
	"context"
	"fmt"
	"hash/fnv"
	"math"
	"strconv"
	"strings"
	"unicode"

	"github.com/quillstone-labs/paperdex-cli/internal/core/domain"
	"github.com/quillstone-labs/paperdex-cli/internal/core/ports/driven"
)

// Ensure EmbeddingService implements the interface.
var _ driven.EmbeddingService = (*EmbeddingService)(nil)

// DefaultDimensions is the vector size of the default "hash/256" model.
const DefaultDimensions = 256

// EmbeddingService embeds text by hashing word unigrams and bigrams into
// a fixed number of signed buckets and L2-normalising the result.
type EmbeddingService struct {
	dimensions int
}

// ParseDimensions interprets the model part of a "hash/N" model id as
// the vector dimension count.
func ParseDimensions(model string) (int, error) {
	dims, err := strconv.Atoi(model)
	if err != nil || dims <= 0 {
		return 0, fmt.Errorf("%w: hash model must be a positive dimension count, got %q",
			domain.ErrModelUnavailable, model)
	}
	return dims, nil
}

// NewEmbeddingService creates a hash embedding service. The model string
// is the dimension count, e.g. "256".
func NewEmbeddingService(model string) (*EmbeddingService, error) {
	dims, err := ParseDimensions(model)
	if err != nil {
		return nil, err
	}
	return &EmbeddingService{dimensions: dims}, nil
}

// Embed generates a vector embedding for the given text.
func (s *EmbeddingService) Embed(ctx context.Context, text string) ([]float32, error) {
	tokens := tokenize(text)
	if len(tokens) == 0 {
		return nil, fmt.Errorf("%w: text has no embeddable tokens", domain.ErrEmbedding)
	}

	vec := make([]float32, s.dimensions)
	for i, tok := range tokens {
		addFeature(vec, tok)
		if i+1 < len(tokens) {
			addFeature(vec, tok+" "+tokens[i+1])
		}
	}

	normalize(vec)
	return vec, nil
}

// EmbedBatch generates embeddings for multiple texts.
func (s *EmbeddingService) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	embeddings := make([][]float32, len(texts))
	for i, text := range texts {
		embedding, err := s.Embed(ctx, text)
		if err != nil {
			return nil, fmt.Errorf("embed text %d: %w", i, err)
		}
		embeddings[i] = embedding
	}
	return embeddings, nil
}

// Dimensions returns the embedding vector size.
func (s *EmbeddingService) Dimensions() int {
	return s.dimensions
}

// ModelID returns the provider-qualified model identifier.
func (s *EmbeddingService) ModelID() string {
	return fmt.Sprintf("hash/%d", s.dimensions)
}

// Ping always succeeds; there is no backend to reach.
func (s *EmbeddingService) Ping(ctx context.Context) error {
	return nil
}

// Close releases resources.
func (s *EmbeddingService) Close() error {
	return nil
}

// addFeature hashes one feature into its bucket. The top hash bit picks
// the sign, so colliding features partially cancel instead of always
// accumulating.
func addFeature(vec []float32, feature string) {
	h := fnv.New64a()
	_, _ = h.Write([]byte(feature))
	sum := h.Sum64()

	bucket := int(sum % uint64(len(vec)))
	if sum&(1<<63) != 0 {
		vec[bucket]--
	} else {
		vec[bucket]++
	}
}

// tokenize lowercases and splits on any rune that is not a letter or a
// digit. Whitespace-only and punctuation-only text yields no tokens.
func tokenize(text string) []string {
	return strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsNumber(r)
	})
}

// normalize scales the vector to unit L2 length in place. A zero vector
// is left as is.
func normalize(vec []float32) {
	var sum float64
	for _, v := range vec {
		sum += float64(v) * float64(v)
	}
	if sum == 0 {
		return
	}
	inv := float32(1 / math.Sqrt(sum))
	for i := range vec {
		vec[i] *= inv
	}
}
