package driven

import (
	"context"

	"github.com/quillstone-labs/paperdex-cli/internal/core/domain"
)

// MetadataStore is the index's sidecar: it maps chunk ids back to
// their provenance (document id, text, sequence index, offsets) and
// keeps document metadata for result hydration. It is written together
// with the vector artifact and loaded together with it.
type MetadataStore interface {
	MetadataBatch

	// ChunksByIDs returns the chunks found for the given ids, keyed by
	// id. Missing ids are simply absent from the map.
	ChunksByIDs(ctx context.Context, ids []string) (map[string]domain.Chunk, error)

	// Apply runs fn against a single write batch. The sidecar is
	// unchanged unless fn returns nil and the batch commits, so a
	// failure anywhere inside fn leaves every record as it was.
	Apply(ctx context.Context, fn func(MetadataBatch) error) error

	// Close releases the underlying database handle.
	Close() error
}

// MetadataBatch is the sidecar surface available inside one write
// batch. The store itself also implements it, with each call
// committed on its own.
type MetadataBatch interface {
	// UpsertDocuments inserts or replaces document records.
	UpsertDocuments(ctx context.Context, docs []domain.Document) error

	// UpsertChunks inserts or replaces chunk records.
	UpsertChunks(ctx context.Context, chunks []domain.Chunk) error

	// DocumentsByIDs returns the documents found for the given ids.
	DocumentsByIDs(ctx context.Context, ids []string) (map[string]domain.Document, error)

	// CountChunks returns the number of stored chunk records.
	CountChunks(ctx context.Context) (int, error)

	// CountDocuments returns the number of stored document records.
	CountDocuments(ctx context.Context) (int, error)

	// Reset removes all stored records. Used by a fresh build.
	Reset(ctx context.Context) error
}
