package services

import (
	"context"
	"fmt"
	"sort"

	"github.com/quillstone-labs/paperdex-cli/internal/core/domain"
	"github.com/quillstone-labs/paperdex-cli/internal/core/ports/driving"
	"github.com/quillstone-labs/paperdex-cli/internal/logger"
)

// DefaultEvalCutoffs are the ranks evaluated when none are given.
var DefaultEvalCutoffs = []int{1, 3, 5, 10}

// Ensure EvalService implements the driving port.
var _ driving.EvalService = (*EvalService)(nil)

// EvalService measures retrieval quality against labelled queries.
// Quality is judged at document granularity: a result counts when its
// source document is in the query's relevant set, regardless of which
// chunk matched.
type EvalService struct {
	search driving.SearchService
}

// NewEvalService creates an evaluation service on top of search.
func NewEvalService(search driving.SearchService) *EvalService {
	return &EvalService{search: search}
}

// Run retrieves each query once at the largest cutoff and reports mean
// recall@k and precision@k for every cutoff in ks. Queries whose
// retrieval fails are skipped with a warning; Run errors only when no
// query could be evaluated.
func (s *EvalService) Run(ctx context.Context, queries []domain.EvalQuery, ks []int) (domain.EvalReport, error) {
	if len(queries) == 0 {
		return domain.EvalReport{}, fmt.Errorf("%w: no queries to evaluate", domain.ErrInvalidArgument)
	}
	if len(ks) == 0 {
		ks = DefaultEvalCutoffs
	}
	ks, err := normaliseCutoffs(ks)
	if err != nil {
		return domain.EvalReport{}, err
	}
	maxK := ks[len(ks)-1]

	recall := make(map[int]float64, len(ks))
	precision := make(map[int]float64, len(ks))
	evaluated := 0
	var lastErr error

	for _, q := range queries {
		results, err := s.search.Search(ctx, q.Query, domain.SearchOptions{K: maxK})
		if err != nil {
			if ctx.Err() != nil {
				return domain.EvalReport{}, fmt.Errorf("evaluate %q: %w", q.Query, err)
			}
			logger.Warn("Skipping query %q: %v", q.Query, err)
			lastErr = err
			continue
		}
		evaluated++

		relevant := make(map[string]bool, len(q.RelevantDocumentIDs))
		for _, id := range q.RelevantDocumentIDs {
			relevant[id] = true
		}

		for _, k := range ks {
			r, p := metricsAt(results, relevant, k)
			recall[k] += r
			precision[k] += p
		}
	}

	if evaluated == 0 {
		return domain.EvalReport{}, fmt.Errorf("no query could be evaluated: %w", lastErr)
	}

	metrics := make([]domain.EvalMetrics, len(ks))
	for i, k := range ks {
		metrics[i] = domain.EvalMetrics{
			K:         k,
			Recall:    recall[k] / float64(evaluated),
			Precision: precision[k] / float64(evaluated),
		}
	}

	logger.Info("Evaluated %d of %d queries at cutoffs %v", evaluated, len(queries), ks)
	return domain.EvalReport{Queries: evaluated, Metrics: metrics}, nil
}

// SeedQueries returns a starter labelled set to copy and edit.
func SeedQueries() []domain.EvalQuery {
	return []domain.EvalQuery{
		{Query: "contrastive learning", RelevantDocumentIDs: []string{"2106.04102", "2002.05709"}},
		{Query: "attention mechanisms", RelevantDocumentIDs: []string{"1706.03762", "1909.11942"}},
		{Query: "diffusion models", RelevantDocumentIDs: []string{"2006.11239", "2105.05233"}},
	}
}

// metricsAt computes recall@k and precision@k over the distinct
// document ids among the first k results. An empty relevant set or an
// empty cut both score 0.
func metricsAt(results []domain.SearchResult, relevant map[string]bool, k int) (recall, precision float64) {
	cut := results
	if len(cut) > k {
		cut = cut[:k]
	}

	retrieved := make(map[string]bool, len(cut))
	hits := 0
	for _, r := range cut {
		if retrieved[r.DocumentID] {
			continue
		}
		retrieved[r.DocumentID] = true
		if relevant[r.DocumentID] {
			hits++
		}
	}

	if len(relevant) > 0 {
		recall = float64(hits) / float64(len(relevant))
	}
	if len(retrieved) > 0 {
		precision = float64(hits) / float64(len(retrieved))
	}
	return recall, precision
}

// normaliseCutoffs validates the cutoffs and returns them sorted with
// duplicates removed.
func normaliseCutoffs(ks []int) ([]int, error) {
	out := make([]int, 0, len(ks))
	seen := make(map[int]bool, len(ks))
	for _, k := range ks {
		if k <= 0 {
			return nil, fmt.Errorf("%w: cutoff must be positive, got %d", domain.ErrInvalidArgument, k)
		}
		if !seen[k] {
			seen[k] = true
			out = append(out, k)
		}
	}
	sort.Ints(out)
	return out, nil
}
