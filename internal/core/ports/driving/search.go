package driving

import (
	"context"

	"github.com/quillstone-labs/paperdex-cli/internal/core/domain"
)

// SearchService answers top-k retrieval queries against the persisted
// index.
type SearchService interface {
	// Search embeds the query, searches the index and returns up to
	// opts.K hydrated results, best first.
	Search(ctx context.Context, query string, opts domain.SearchOptions) ([]domain.SearchResult, error)

	// SearchContext wraps Search results in the downstream envelope
	// (query, count, index snapshot).
	SearchContext(ctx context.Context, query string, opts domain.SearchOptions) (domain.SearchContext, error)
}
