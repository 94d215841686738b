package domain

import (
	"fmt"
	"strings"
)

// DistanceMetric selects how vector similarity is scored. It is fixed
// when an index is built and persisted in the index header; querying
// with a different configured metric is rejected.
type DistanceMetric string

// Available distance metrics.
const (
	// MetricCosine scores by cosine similarity. Vectors are
	// L2-normalised at insert time, so the score is an inner product
	// in [-1, 1] with 1.0 for identical directions.
	MetricCosine DistanceMetric = "cosine"

	// MetricDot scores by raw inner product.
	MetricDot DistanceMetric = "dot"

	// MetricL2 scores by negative squared Euclidean distance, so that
	// higher is still better and 0 is a perfect match.
	MetricL2 DistanceMetric = "l2"
)

// IsValid returns true if the metric is recognised.
func (m DistanceMetric) IsValid() bool {
	switch m {
	case MetricCosine, MetricDot, MetricL2:
		return true
	default:
		return false
	}
}

// String returns the string representation.
func (m DistanceMetric) String() string {
	return string(m)
}

// MaxScore returns the metric's best possible score for a vector
// compared with itself.
func (m DistanceMetric) MaxScore() float64 {
	switch m {
	case MetricCosine:
		return 1.0
	default:
		return 0 // MetricL2; MetricDot has no fixed maximum.
	}
}

// ChunkUnit is the unit the chunker counts window and overlap in.
type ChunkUnit string

// Available chunk units.
const (
	// UnitChars counts runes of the source text.
	UnitChars ChunkUnit = "chars"

	// UnitWords counts whitespace-delimited tokens. Offsets remain
	// rune positions in the source text.
	UnitWords ChunkUnit = "words"
)

// IsValid returns true if the unit is recognised.
func (u ChunkUnit) IsValid() bool {
	return u == UnitChars || u == UnitWords
}

// String returns the string representation.
func (u ChunkUnit) String() string {
	return string(u)
}

// Configuration defaults.
const (
	DefaultWindowSize         = 1200
	DefaultOverlap            = 120
	DefaultChunkUnit          = UnitChars
	DefaultEmbeddingModelID   = "hash/256"
	DefaultEmbeddingBatchSize = 64
	DefaultDistanceMetric     = MetricCosine
	DefaultMaxPerDocument     = 0
)

// Config is the full recognised configuration surface. It is decoded
// strictly (unknown keys are rejected) and validated once at load; the
// rest of the code trusts it.
type Config struct {
	// WindowSize is the chunk window in chunk units.
	WindowSize int `toml:"window_size" envconfig:"WINDOW_SIZE"`

	// Overlap is how many units consecutive chunks share.
	Overlap int `toml:"overlap" envconfig:"OVERLAP"`

	// ChunkUnit is "chars" or "words".
	ChunkUnit ChunkUnit `toml:"chunk_unit" envconfig:"CHUNK_UNIT"`

	// EmbeddingModelID selects the embedding backend and model, in
	// "provider/model" form: hash/256, openai/text-embedding-3-small,
	// gemini/text-embedding-004, ollama/nomic-embed-text.
	EmbeddingModelID string `toml:"embedding_model_id" envconfig:"EMBEDDING_MODEL_ID"`

	// EmbeddingBatchSize caps how many texts go to the backend per
	// request. Batch boundaries never affect the vectors produced.
	EmbeddingBatchSize int `toml:"embedding_batch_size" envconfig:"EMBEDDING_BATCH_SIZE"`

	// DistanceMetric is the index scoring metric.
	DistanceMetric DistanceMetric `toml:"distance_metric" envconfig:"DISTANCE_METRIC"`

	// MaxChunksPerDocumentInResults caps chunks per document in search
	// results. 0 disables deduplication.
	MaxChunksPerDocumentInResults int `toml:"max_chunks_per_document_in_results" envconfig:"MAX_CHUNKS_PER_DOC"`

	// IndexLocation is the directory holding the two index artifacts.
	IndexLocation string `toml:"index_location" envconfig:"INDEX_LOCATION"`
}

// DefaultConfig returns a Config with every field at its default.
// IndexLocation is left empty; the loader resolves it against the
// user's home directory.
func DefaultConfig() Config {
	return Config{
		WindowSize:                    DefaultWindowSize,
		Overlap:                       DefaultOverlap,
		ChunkUnit:                     DefaultChunkUnit,
		EmbeddingModelID:              DefaultEmbeddingModelID,
		EmbeddingBatchSize:            DefaultEmbeddingBatchSize,
		DistanceMetric:                DefaultDistanceMetric,
		MaxChunksPerDocumentInResults: DefaultMaxPerDocument,
	}
}

// Validate checks every field once, up front.
func (c Config) Validate() error {
	if c.WindowSize <= 0 {
		return fmt.Errorf("%w: window_size must be positive, got %d", ErrInvalidConfig, c.WindowSize)
	}
	if c.Overlap < 0 {
		return fmt.Errorf("%w: overlap must be non-negative, got %d", ErrInvalidConfig, c.Overlap)
	}
	if c.Overlap >= c.WindowSize {
		return fmt.Errorf("%w: overlap (%d) must be smaller than window_size (%d)", ErrInvalidConfig, c.Overlap, c.WindowSize)
	}
	if !c.ChunkUnit.IsValid() {
		return fmt.Errorf("%w: unknown chunk_unit %q", ErrInvalidConfig, c.ChunkUnit)
	}
	if !c.DistanceMetric.IsValid() {
		return fmt.Errorf("%w: unknown distance_metric %q", ErrInvalidConfig, c.DistanceMetric)
	}
	if c.EmbeddingBatchSize <= 0 {
		return fmt.Errorf("%w: embedding_batch_size must be positive, got %d", ErrInvalidConfig, c.EmbeddingBatchSize)
	}
	if c.MaxChunksPerDocumentInResults < 0 {
		return fmt.Errorf("%w: max_chunks_per_document_in_results must be non-negative, got %d", ErrInvalidConfig, c.MaxChunksPerDocumentInResults)
	}
	provider, model, ok := strings.Cut(c.EmbeddingModelID, "/")
	if !ok || provider == "" || model == "" {
		return fmt.Errorf("%w: embedding_model_id must be \"provider/model\", got %q", ErrInvalidConfig, c.EmbeddingModelID)
	}
	if c.IndexLocation == "" {
		return fmt.Errorf("%w: index_location must be set", ErrInvalidConfig)
	}
	return nil
}
