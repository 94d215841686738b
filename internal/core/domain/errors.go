package domain

import "errors"

// Domain errors represent retrieval-engine failures.
// They are matched with errors.Is and wrapped with %w; none of them
// is retried inside the core.
var (
	// ErrInvalidConfig indicates bad configuration, caught before any
	// work starts: window/overlap constraints, unknown metric or chunk
	// unit, unknown config keys, or a metric/model that disagrees with
	// a persisted index header.
	ErrInvalidConfig = errors.New("invalid configuration")

	// ErrInvalidArgument indicates bad per-call input, e.g. k <= 0.
	ErrInvalidArgument = errors.New("invalid argument")

	// ErrDimensionMismatch indicates vectors of differing length or
	// model id offered to one index.
	ErrDimensionMismatch = errors.New("dimension mismatch")

	// ErrEmptyBatch indicates an index build or add with zero chunks.
	ErrEmptyBatch = errors.New("empty batch")

	// ErrDuplicateChunk indicates the same chunk id appearing twice
	// within one build batch.
	ErrDuplicateChunk = errors.New("duplicate chunk")

	// ErrEmbedding indicates the embedding backend rejected an input,
	// including the fixed policy that empty text is never embedded.
	ErrEmbedding = errors.New("embedding failed")

	// ErrModelUnavailable indicates the embedding model cannot be
	// loaded: unknown provider, missing API key, or unreachable service.
	ErrModelUnavailable = errors.New("embedding model unavailable")

	// ErrCorruptIndex indicates a persistence integrity failure: a
	// missing artifact, bad magic/checksum, or disagreeing artifact
	// counts at the index location.
	ErrCorruptIndex = errors.New("corrupt index")

	// ErrIndexUnavailable indicates a query before any index was built
	// or loaded at the configured location.
	ErrIndexUnavailable = errors.New("index unavailable")

	// ErrNotFound indicates a requested entity does not exist.
	ErrNotFound = errors.New("not found")
)
