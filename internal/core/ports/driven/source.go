package driven

import (
	"context"

	"github.com/quillstone-labs/paperdex-cli/internal/core/domain"
)

// PaperSource fetches paper metadata from an upstream archive. The
// core never parses feeds or PDFs itself; sources hand it Document
// records ready for chunking.
type PaperSource interface {
	// Fetch returns up to q.MaxResults documents matching the query,
	// newest first.
	Fetch(ctx context.Context, q domain.PaperQuery) ([]domain.Document, error)
}
