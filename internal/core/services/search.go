package services

import (
	"context"
	"fmt"

	"github.com/quillstone-labs/paperdex-cli/internal/core/domain"
	"github.com/quillstone-labs/paperdex-cli/internal/core/ports/driven"
	"github.com/quillstone-labs/paperdex-cli/internal/core/ports/driving"
	"github.com/quillstone-labs/paperdex-cli/internal/logger"
)

// Ensure SearchService implements the driving port.
var _ driving.SearchService = (*SearchService)(nil)

// SearchService answers top-k queries against an opened index: it
// embeds the query, ranks chunks by vector similarity and hydrates the
// survivors from the metadata sidecar.
type SearchService struct {
	embedder driven.EmbeddingService
	index    driven.VectorIndex
	meta     driven.MetadataStore
	location string
}

// NewSearchService creates a search service over an opened index pair.
func NewSearchService(embedder driven.EmbeddingService, index driven.VectorIndex, meta driven.MetadataStore, location string) *SearchService {
	return &SearchService{
		embedder: embedder,
		index:    index,
		meta:     meta,
		location: location,
	}
}

// Search embeds the query, searches the index and returns up to opts.K
// hydrated results, best first.
func (s *SearchService) Search(ctx context.Context, query string, opts domain.SearchOptions) ([]domain.SearchResult, error) {
	if opts.K <= 0 {
		return nil, fmt.Errorf("%w: k must be positive, got %d", domain.ErrInvalidArgument, opts.K)
	}

	logger.Debug("Searching for %q (k=%d, max per doc=%d, %d document filters)",
		query, opts.K, opts.MaxPerDocument, len(opts.DocumentIDs))

	vector, err := s.embedder.Embed(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("embed query: %w", err)
	}

	results, err := s.retrieve(ctx, vector, opts)
	if err != nil {
		return nil, err
	}

	if err := s.hydrateTitles(ctx, results); err != nil {
		return nil, err
	}

	logger.Debug("Search returned %d results", len(results))
	return results, nil
}

// SearchContext wraps Search results in the downstream envelope.
func (s *SearchService) SearchContext(ctx context.Context, query string, opts domain.SearchOptions) (domain.SearchContext, error) {
	results, err := s.Search(ctx, query, opts)
	if err != nil {
		return domain.SearchContext{}, err
	}

	documents, err := s.meta.CountDocuments(ctx)
	if err != nil {
		return domain.SearchContext{}, fmt.Errorf("count documents: %w", err)
	}

	return domain.SearchContext{
		Query:      query,
		NumResults: len(results),
		Results:    results,
		Index: domain.IndexInfo{
			Location:   s.location,
			ModelID:    s.index.ModelID(),
			Metric:     s.index.Metric(),
			Dimensions: s.index.Dimensions(),
			Chunks:     s.index.Len(),
			Documents:  documents,
		},
	}, nil
}

// retrieve runs the index search with a widening fanout. Filters can
// discard hits, so the fanout doubles until k results survive or the
// whole index has been considered.
func (s *SearchService) retrieve(ctx context.Context, vector []float32, opts domain.SearchOptions) ([]domain.SearchResult, error) {
	fanout := opts.K
	if opts.MaxPerDocument > 0 || len(opts.DocumentIDs) > 0 {
		fanout *= 2
	}

	for {
		hits, err := s.index.Search(ctx, vector, fanout)
		if err != nil {
			return nil, fmt.Errorf("search index: %w", err)
		}

		results, err := s.selectHits(ctx, hits, opts)
		if err != nil {
			return nil, err
		}

		if len(results) >= opts.K || len(hits) >= s.index.Len() {
			return results, nil
		}

		logger.Debug("Only %d of %d results survived filtering, widening fanout to %d",
			len(results), opts.K, fanout*2)
		fanout *= 2
	}
}

// selectHits hydrates the hits from the sidecar and applies the result
// filters, preserving score order and stopping at opts.K.
func (s *SearchService) selectHits(ctx context.Context, hits []driven.VectorHit, opts domain.SearchOptions) ([]domain.SearchResult, error) {
	results := make([]domain.SearchResult, 0, min(len(hits), opts.K))
	if len(hits) == 0 {
		return results, nil
	}

	ids := make([]string, len(hits))
	for i, hit := range hits {
		ids[i] = hit.ChunkID
	}
	chunks, err := s.meta.ChunksByIDs(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("hydrate chunks: %w", err)
	}

	allowed := make(map[string]bool, len(opts.DocumentIDs))
	for _, id := range opts.DocumentIDs {
		allowed[id] = true
	}

	perDoc := make(map[string]int)
	for _, hit := range hits {
		chunk, ok := chunks[hit.ChunkID]
		if !ok {
			logger.Warn("Chunk %s is indexed but missing from the sidecar, skipping", hit.ChunkID)
			continue
		}
		if len(allowed) > 0 && !allowed[chunk.DocumentID] {
			continue
		}
		if opts.MaxPerDocument > 0 && perDoc[chunk.DocumentID] >= opts.MaxPerDocument {
			continue
		}
		perDoc[chunk.DocumentID]++

		results = append(results, domain.SearchResult{
			ChunkID:       chunk.ID,
			Score:         hit.Score,
			Text:          chunk.Text,
			DocumentID:    chunk.DocumentID,
			SequenceIndex: chunk.SequenceIndex,
		})
		if len(results) == opts.K {
			break
		}
	}
	return results, nil
}

// hydrateTitles attaches document titles to the selected results.
func (s *SearchService) hydrateTitles(ctx context.Context, results []domain.SearchResult) error {
	if len(results) == 0 {
		return nil
	}

	ids := make([]string, 0, len(results))
	seen := make(map[string]bool, len(results))
	for _, r := range results {
		if !seen[r.DocumentID] {
			seen[r.DocumentID] = true
			ids = append(ids, r.DocumentID)
		}
	}

	docs, err := s.meta.DocumentsByIDs(ctx, ids)
	if err != nil {
		return fmt.Errorf("hydrate documents: %w", err)
	}

	for i := range results {
		if doc, ok := docs[results[i].DocumentID]; ok {
			results[i].Title = doc.Title
		}
	}
	return nil
}
