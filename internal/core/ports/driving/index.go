package driving

import (
	"context"

	"github.com/quillstone-labs/paperdex-cli/internal/core/domain"
)

// IndexService builds, extends and inspects the persisted index.
type IndexService interface {
	// Build embeds the chunks and writes a fresh index (both
	// artifacts) to the configured location, replacing any previous
	// one. Zero chunks is domain.ErrEmptyBatch; a duplicate chunk id
	// within the batch is domain.ErrDuplicateChunk.
	Build(ctx context.Context, chunks []domain.Chunk, docs []domain.Document) (domain.IndexInfo, error)

	// Add embeds the chunks and appends them to the existing index.
	// Chunk ids already indexed are skipped. Returns how many chunks
	// were added and how many were skipped.
	Add(ctx context.Context, chunks []domain.Chunk, docs []domain.Document) (added, skipped int, err error)

	// Info describes the index at the configured location without
	// loading vectors into memory.
	Info(ctx context.Context) (domain.IndexInfo, error)
}
