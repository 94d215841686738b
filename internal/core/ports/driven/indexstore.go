package driven

import (
	"github.com/quillstone-labs/paperdex-cli/internal/core/domain"
)

// IndexHeader is the stored shape of a vector artifact, readable
// without loading the vectors themselves.
type IndexHeader struct {
	// Metric is the scoring metric fixed at build time.
	Metric domain.DistanceMetric

	// ModelID is the embedding model the index was built with.
	ModelID string

	// Dimensions is the vector length.
	Dimensions int

	// Chunks is the number of stored vectors.
	Chunks int
}

// IndexStore creates, inspects and opens the artifacts that make up an
// index location: the vector artifact and its metadata sidecar. It
// keeps on-disk knowledge out of the services; they decide WHICH
// artifacts to touch, the store knows HOW.
type IndexStore interface {
	// New returns a fresh empty index accepting vectors of the given
	// shape.
	New(dims int, metric domain.DistanceMetric, modelID string) (VectorIndex, error)

	// Artifacts reports which of the two artifacts exist at the
	// location.
	Artifacts(location string) (vectors, metadata bool, err error)

	// Load reads the vector artifact at the location into memory.
	Load(location string) (VectorIndex, error)

	// Describe reads the vector artifact header without loading the
	// vectors.
	Describe(location string) (IndexHeader, error)

	// OpenMetadata opens the metadata sidecar at the location,
	// creating an empty one if absent.
	OpenMetadata(location string) (MetadataStore, error)
}
