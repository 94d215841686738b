// Package flat provides an exact nearest-neighbour vector index held
// fully in memory and persisted as a single binary artifact. Search
// scans every vector, so results carry no approximation error and are
// reproducible across processes.
package flat

import (
	"context"
	"fmt"
	"math"
	"sort"
	"sync"

	"github.com/quillstone-labs/paperdex-cli/internal/core/domain"
	"github.com/quillstone-labs/paperdex-cli/internal/core/ports/driven"
)

// Ensure Index implements the interface.
var _ driven.VectorIndex = (*Index)(nil)

// Index is a flat (brute-force) vector index. One index holds vectors
// of a single dimension, model id and metric. Cosine indexes store
// vectors L2-normalised, so the cosine score is a plain inner product.
type Index struct {
	mu       sync.RWMutex
	dims     int
	metric   domain.DistanceMetric
	modelID  string
	ids      []string
	vectors  [][]float32
	position map[string]int
}

// New creates an empty index for the given vector dimension, scoring
// metric and embedding model id.
func New(dims int, metric domain.DistanceMetric, modelID string) (*Index, error) {
	if dims <= 0 {
		return nil, fmt.Errorf("%w: index dimensions must be positive, got %d", domain.ErrInvalidConfig, dims)
	}
	if !metric.IsValid() {
		return nil, fmt.Errorf("%w: unknown distance metric %q", domain.ErrInvalidConfig, metric)
	}
	if modelID == "" {
		return nil, fmt.Errorf("%w: index model id must be set", domain.ErrInvalidConfig)
	}

	return &Index{
		dims:     dims,
		metric:   metric,
		modelID:  modelID,
		position: make(map[string]int),
	}, nil
}

// Add validates the whole batch first and then appends it. On error the
// index is unchanged and still queryable. Chunk ids already present are
// skipped; the count of vectors actually appended is returned.
func (idx *Index) Add(ctx context.Context, chunks []domain.EmbeddedChunk) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}

	idx.mu.Lock()
	defer idx.mu.Unlock()

	seen := make(map[string]struct{}, len(chunks))
	for _, c := range chunks {
		if c.ID == "" {
			return 0, fmt.Errorf("%w: chunk with empty id", domain.ErrInvalidArgument)
		}
		if len(c.Vector) != idx.dims {
			return 0, fmt.Errorf("%w: chunk %s has %d dimensions, index has %d",
				domain.ErrDimensionMismatch, c.ID, len(c.Vector), idx.dims)
		}
		if c.ModelID != idx.modelID {
			return 0, fmt.Errorf("%w: chunk %s embedded with %q, index holds %q",
				domain.ErrInvalidArgument, c.ID, c.ModelID, idx.modelID)
		}
		if _, dup := seen[c.ID]; dup {
			return 0, fmt.Errorf("%w: chunk id %s appears twice in batch", domain.ErrDuplicateChunk, c.ID)
		}
		seen[c.ID] = struct{}{}
	}

	added := 0
	for _, c := range chunks {
		if _, exists := idx.position[c.ID]; exists {
			continue
		}

		vec := make([]float32, idx.dims)
		copy(vec, c.Vector)
		if idx.metric == domain.MetricCosine {
			normalize(vec)
		}

		idx.position[c.ID] = len(idx.ids)
		idx.ids = append(idx.ids, c.ID)
		idx.vectors = append(idx.vectors, vec)
		added++
	}
	return added, nil
}

// Search finds up to k best-scoring chunks for the query vector. An
// empty index yields an empty result, not an error.
func (idx *Index) Search(ctx context.Context, query []float32, k int) ([]driven.VectorHit, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if k <= 0 {
		return nil, fmt.Errorf("%w: k must be positive, got %d", domain.ErrInvalidArgument, k)
	}

	idx.mu.RLock()
	defer idx.mu.RUnlock()

	if len(query) != idx.dims {
		return nil, fmt.Errorf("%w: query has %d dimensions, index has %d",
			domain.ErrDimensionMismatch, len(query), idx.dims)
	}

	hits := make([]driven.VectorHit, 0, len(idx.ids))
	if len(idx.ids) == 0 {
		return hits, nil
	}

	q := query
	if idx.metric == domain.MetricCosine {
		q = make([]float32, idx.dims)
		copy(q, query)
		normalize(q)
	}

	for i, vec := range idx.vectors {
		var score float64
		switch idx.metric {
		case domain.MetricCosine, domain.MetricDot:
			score = dot(q, vec)
		case domain.MetricL2:
			score = negSquaredL2(q, vec)
		}
		hits = append(hits, driven.VectorHit{ChunkID: idx.ids[i], Score: score})
	}

	// Descending score; equal scores ordered by ascending chunk id so
	// results are stable across runs.
	sort.Slice(hits, func(i, j int) bool {
		if hits[i].Score != hits[j].Score {
			return hits[i].Score > hits[j].Score
		}
		return hits[i].ChunkID < hits[j].ChunkID
	})

	if k < len(hits) {
		hits = hits[:k]
	}
	return hits, nil
}

// Len returns the number of indexed chunks.
func (idx *Index) Len() int {
	idx.mu.RLock()
	defer idx.mu.RUnlock()
	return len(idx.ids)
}

// Dimensions returns the vector length.
func (idx *Index) Dimensions() int {
	return idx.dims
}

// Metric returns the scoring metric fixed at construction.
func (idx *Index) Metric() domain.DistanceMetric {
	return idx.metric
}

// ModelID returns the embedding model the index accepts.
func (idx *Index) ModelID() string {
	return idx.modelID
}

// dot computes the inner product in float64 for stable ordering.
func dot(a, b []float32) float64 {
	var sum float64
	for i := range a {
		sum += float64(a[i]) * float64(b[i])
	}
	return sum
}

// negSquaredL2 computes the negative squared Euclidean distance, so
// higher is better and 0 is a perfect match.
func negSquaredL2(a, b []float32) float64 {
	var sum float64
	for i := range a {
		d := float64(a[i]) - float64(b[i])
		sum += d * d
	}
	if sum == 0 {
		return 0
	}
	return -sum
}

// normalize scales the vector to unit L2 length in place. A zero vector
// is left as is.
func normalize(vec []float32) {
	var sum float64
	for _, v := range vec {
		sum += float64(v) * float64(v)
	}
	if sum == 0 {
		return
	}
	inv := float32(1 / math.Sqrt(sum))
	for i := range vec {
		vec[i] *= inv
	}
}
