package domain

// SearchOptions configures a retrieval query.
type SearchOptions struct {
	// K is the maximum number of results to return. Must be > 0.
	K int

	// MaxPerDocument caps how many chunks of one document may appear
	// in the results. 0 means unlimited (no deduplication).
	MaxPerDocument int

	// DocumentIDs restricts results to the given documents when
	// non-empty.
	DocumentIDs []string
}

// SearchResult is a single ranked hit. Produced per query, never
// persisted.
type SearchResult struct {
	// ChunkID identifies the matched chunk.
	ChunkID string `json:"chunk_id"`

	// Score is the similarity under the index metric, best first.
	Score float64 `json:"score"`

	// Text is the chunk text, hydrated from the metadata sidecar.
	Text string `json:"text"`

	// DocumentID references the source document.
	DocumentID string `json:"document_id"`

	// SequenceIndex is the chunk's position within its document.
	SequenceIndex int `json:"sequence_index"`

	// Title is the source document title when the sidecar has it.
	Title string `json:"title,omitempty"`
}

// SearchContext is the result envelope handed to downstream consumers:
// the query, its results, and a snapshot of the index they came from.
type SearchContext struct {
	Query      string         `json:"query"`
	NumResults int            `json:"num_results"`
	Results    []SearchResult `json:"results"`
	Index      IndexInfo      `json:"index"`
}

// IndexInfo describes a persisted index.
type IndexInfo struct {
	// Location is the directory holding both index artifacts.
	Location string `json:"location"`

	// ModelID is the embedding model the index was built with.
	ModelID string `json:"model_id"`

	// Metric is the distance metric fixed at build time.
	Metric DistanceMetric `json:"metric"`

	// Dimensions is the vector length.
	Dimensions int `json:"dimensions"`

	// Chunks is the number of indexed chunks.
	Chunks int `json:"chunks"`

	// Documents is the number of distinct documents in the sidecar.
	Documents int `json:"documents"`
}
