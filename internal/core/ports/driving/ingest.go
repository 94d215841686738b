package driving

import (
	"context"

	"github.com/quillstone-labs/paperdex-cli/internal/core/domain"
)

// IngestService brings papers into the corpus, either fetched from
// the upstream archive or extracted from local PDFs.
type IngestService interface {
	// Fetch returns documents matching the query, newest first.
	Fetch(ctx context.Context, q domain.PaperQuery) ([]domain.Document, error)

	// ExtractPDF reads the text layer of a local PDF and assembles a
	// document record for the corpus.
	ExtractPDF(ctx context.Context, path, id, title string) (domain.Document, error)
}
