package cli

import (
	"bytes"
	"context"

	"github.com/quillstone-labs/paperdex-cli/internal/core/domain"
)

// executeCommand runs the root command with args and captures output.
func executeCommand(args ...string) (string, error) {
	buf := new(bytes.Buffer)
	rootCmd.SetOut(buf)
	rootCmd.SetErr(buf)
	rootCmd.SetArgs(args)
	defer rootCmd.SetArgs(nil)

	err := rootCmd.Execute()
	return buf.String(), err
}

// setupTestServices installs mock services and returns a cleanup that
// restores the package state.
func setupTestServices() func() {
	searchService = &mockSearchService{
		results: []domain.SearchResult{
			{ChunkID: "chunk-1", Score: 0.92, Text: "mock chunk text", DocumentID: "2401.00001", Title: "Mock Paper"},
		},
	}
	indexService = &mockIndexService{
		info: domain.IndexInfo{
			Location:   "/tmp/index",
			ModelID:    "hash/256",
			Metric:     domain.MetricCosine,
			Dimensions: 256,
			Chunks:     3,
			Documents:  2,
		},
	}
	evalService = &mockEvalService{
		report: domain.EvalReport{
			Queries: 2,
			Metrics: []domain.EvalMetrics{{K: 1, Recall: 0.5, Precision: 0.5}},
		},
	}
	ingestService = &mockIngestService{
		docs: []domain.Document{
			{ID: "2401.00001", Title: "Mock Paper", Text: "mock abstract"},
		},
	}

	return func() {
		searchService = nil
		indexService = nil
		evalService = nil
		ingestService = nil
	}
}

type mockSearchService struct {
	results  []domain.SearchResult
	lastOpts domain.SearchOptions
	err      error
}

func (m *mockSearchService) Search(_ context.Context, _ string, opts domain.SearchOptions) ([]domain.SearchResult, error) {
	m.lastOpts = opts
	if m.err != nil {
		return nil, m.err
	}
	return m.results, nil
}

func (m *mockSearchService) SearchContext(ctx context.Context, query string, opts domain.SearchOptions) (domain.SearchContext, error) {
	results, err := m.Search(ctx, query, opts)
	if err != nil {
		return domain.SearchContext{}, err
	}
	return domain.SearchContext{
		Query:      query,
		NumResults: len(results),
		Results:    results,
	}, nil
}

type mockIndexService struct {
	info       domain.IndexInfo
	lastChunks []domain.Chunk
	lastDocs   []domain.Document
	added      int
	skipped    int
	err        error
}

func (m *mockIndexService) Build(_ context.Context, chunks []domain.Chunk, docs []domain.Document) (domain.IndexInfo, error) {
	m.lastChunks = chunks
	m.lastDocs = docs
	if m.err != nil {
		return domain.IndexInfo{}, m.err
	}
	return m.info, nil
}

func (m *mockIndexService) Add(_ context.Context, chunks []domain.Chunk, docs []domain.Document) (int, int, error) {
	m.lastChunks = chunks
	m.lastDocs = docs
	if m.err != nil {
		return 0, 0, m.err
	}
	return m.added, m.skipped, nil
}

func (m *mockIndexService) Info(_ context.Context) (domain.IndexInfo, error) {
	if m.err != nil {
		return domain.IndexInfo{}, m.err
	}
	return m.info, nil
}

type mockEvalService struct {
	report      domain.EvalReport
	lastQueries []domain.EvalQuery
	lastKs      []int
	err         error
}

func (m *mockEvalService) Run(_ context.Context, queries []domain.EvalQuery, ks []int) (domain.EvalReport, error) {
	m.lastQueries = queries
	m.lastKs = ks
	if m.err != nil {
		return domain.EvalReport{}, m.err
	}
	return m.report, nil
}

type mockIngestService struct {
	docs      []domain.Document
	lastQuery domain.PaperQuery
	err       error
}

func (m *mockIngestService) Fetch(_ context.Context, q domain.PaperQuery) ([]domain.Document, error) {
	m.lastQuery = q
	if m.err != nil {
		return nil, m.err
	}
	return m.docs, nil
}

func (m *mockIngestService) ExtractPDF(_ context.Context, path, id, title string) (domain.Document, error) {
	if m.err != nil {
		return domain.Document{}, m.err
	}
	return domain.Document{ID: id, Title: title, SourceURL: path, Text: "extracted text"}, nil
}
