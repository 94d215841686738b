package driven

import (
	"context"

	"github.com/quillstone-labs/paperdex-cli/internal/core/domain"
)

// VectorIndex is an append-only nearest-neighbour structure over
// embedded chunks. One index holds vectors of a single dimension,
// model id and metric; the contract is single-writer multiple-reader:
// concurrent Search calls are safe against a handle that is not
// simultaneously being mutated by Add.
type VectorIndex interface {
	// Add validates the whole batch first (dimension, model id,
	// intra-batch duplicates) and then appends atomically: on error
	// the index is unchanged and still queryable. Chunk ids already
	// present are skipped, never duplicated; the count of vectors
	// actually appended is returned.
	Add(ctx context.Context, chunks []domain.EmbeddedChunk) (int, error)

	// Search finds up to k best-scoring chunks for the query vector,
	// ordered by descending score with ties broken by ascending chunk
	// id. An empty index yields an empty result, not an error.
	Search(ctx context.Context, query []float32, k int) ([]VectorHit, error)

	// Stage writes the index artifact to a temporary file inside the
	// location directory. The visible artifact is untouched until the
	// returned handle is committed, so a staged write that is never
	// published leaves the location exactly as it was.
	Stage(location string) (StagedArtifact, error)

	// Len returns the number of indexed chunks.
	Len() int

	// Dimensions returns the vector length.
	Dimensions() int

	// Metric returns the scoring metric fixed at construction.
	Metric() domain.DistanceMetric

	// ModelID returns the embedding model the index accepts.
	ModelID() string
}

// StagedArtifact is an index artifact written next to its destination
// but not yet visible to readers.
type StagedArtifact interface {
	// Commit publishes the staged artifact, replacing any previous
	// one at the destination.
	Commit() error

	// Abort discards the staged artifact. Calling it after a
	// successful Commit is a no-op, so it is safe to defer.
	Abort()
}

// VectorHit is one similarity search result.
type VectorHit struct {
	// ChunkID is the matched chunk.
	ChunkID string

	// Score is the similarity under the index metric, higher is
	// better for every metric.
	Score float64
}
