package mcp

import (
	"context"

	"github.com/quillstone-labs/paperdex-cli/internal/core/domain"
	"github.com/quillstone-labs/paperdex-cli/internal/core/ports/driving"
)

// mockSearchService is a mock implementation of driving.SearchService.
type mockSearchService struct {
	results  []domain.SearchResult
	index    domain.IndexInfo
	err      error
	lastOpts domain.SearchOptions
}

var _ driving.SearchService = (*mockSearchService)(nil)

func (m *mockSearchService) Search(
	_ context.Context,
	_ string,
	opts domain.SearchOptions,
) ([]domain.SearchResult, error) {
	m.lastOpts = opts
	return m.results, m.err
}

func (m *mockSearchService) SearchContext(
	_ context.Context,
	query string,
	opts domain.SearchOptions,
) (domain.SearchContext, error) {
	m.lastOpts = opts
	if m.err != nil {
		return domain.SearchContext{}, m.err
	}
	return domain.SearchContext{
		Query:      query,
		NumResults: len(m.results),
		Results:    m.results,
		Index:      m.index,
	}, nil
}

// mockIndexService is a mock implementation of driving.IndexService.
type mockIndexService struct {
	info domain.IndexInfo
	err  error
}

var _ driving.IndexService = (*mockIndexService)(nil)

func (m *mockIndexService) Build(
	_ context.Context,
	_ []domain.Chunk,
	_ []domain.Document,
) (domain.IndexInfo, error) {
	return m.info, m.err
}

func (m *mockIndexService) Add(
	_ context.Context,
	_ []domain.Chunk,
	_ []domain.Document,
) (int, int, error) {
	return 0, 0, m.err
}

func (m *mockIndexService) Info(_ context.Context) (domain.IndexInfo, error) {
	return m.info, m.err
}
