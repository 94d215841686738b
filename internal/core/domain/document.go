package domain

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// chunkNamespace is the fixed UUIDv5 namespace for chunk identifiers.
// Changing it would change every chunk id and orphan existing indexes.
var chunkNamespace = uuid.MustParse("8f3a1c6e-2b4d-4e9a-9c71-5d20c1f4b8a3")

// Document represents one paper as produced by the ingestion stage.
// It is immutable once written; chunks reference it by ID and never
// copy its metadata.
type Document struct {
	// ID is the stable identifier, e.g. an arXiv id like "2401.12345".
	ID string `json:"id"`

	// Title is the paper title.
	Title string `json:"title,omitempty"`

	// Authors lists author names in publication order.
	Authors []string `json:"authors,omitempty"`

	// Category is the primary subject classification, e.g. "cs.CL".
	Category string `json:"category,omitempty"`

	// Published is the publication timestamp.
	Published time.Time `json:"published,omitzero"`

	// SourceURL points at the original artifact (abstract page or PDF).
	SourceURL string `json:"source_url,omitempty"`

	// Text is the retrievable body: the abstract for metadata-only
	// ingestion, or the extracted full text for PDF ingestion.
	Text string `json:"text"`
}

// Chunk is a contiguous retrievable unit of one document's text.
// Chunks are immutable once created.
type Chunk struct {
	// ID is deterministic: the same document chunked with the same
	// parameters always yields the same ids. See NewChunkID.
	ID string `json:"chunk_id"`

	// DocumentID references the source document.
	DocumentID string `json:"document_id"`

	// SequenceIndex is the 0-based position among the document's chunks.
	SequenceIndex int `json:"sequence_index"`

	// StartOffset and EndOffset are rune positions in the source text.
	// EndOffset - StartOffset never exceeds the configured window size;
	// the final chunk of a document may be shorter.
	StartOffset int `json:"start_offset"`
	EndOffset   int `json:"end_offset"`

	// Text is the covered substring of the source document.
	Text string `json:"text"`
}

// NewChunkID derives the deterministic chunk id for a document position.
func NewChunkID(documentID string, sequenceIndex int) string {
	return uuid.NewSHA1(chunkNamespace, fmt.Appendf(nil, "%s#%d", documentID, sequenceIndex)).String()
}

// EmbeddedChunk pairs a chunk with its vector representation.
// All embedded chunks stored in one index share the same vector
// length and model id.
type EmbeddedChunk struct {
	Chunk

	// Vector is the dense embedding, length = model dimension.
	Vector []float32 `json:"vector"`

	// ModelID names the embedding model that produced the vector.
	ModelID string `json:"model_id"`
}
