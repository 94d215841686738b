// Package index pairs the two on-disk artifacts of an index location,
// the flat vector artifact and the sqlite metadata sidecar, behind the
// store the services work against.
package index

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/quillstone-labs/paperdex-cli/internal/adapters/driven/index/flat"
	"github.com/quillstone-labs/paperdex-cli/internal/adapters/driven/storage/sqlite"
	"github.com/quillstone-labs/paperdex-cli/internal/core/domain"
	"github.com/quillstone-labs/paperdex-cli/internal/core/ports/driven"
)

// Ensure Store implements the driven port.
var _ driven.IndexStore = (*Store)(nil)

// Store creates, inspects and opens index artifacts on disk.
type Store struct{}

// NewStore returns an artifact store.
func NewStore() *Store {
	return &Store{}
}

// New returns a fresh empty flat index for the given vector shape.
func (s *Store) New(dims int, metric domain.DistanceMetric, modelID string) (driven.VectorIndex, error) {
	idx, err := flat.New(dims, metric, modelID)
	if err != nil {
		return nil, err
	}
	return idx, nil
}

// Artifacts reports which of the two artifacts exist at the location.
func (s *Store) Artifacts(location string) (vectors, metadata bool, err error) {
	vectors, err = fileExists(filepath.Join(location, flat.IndexFileName))
	if err != nil {
		return false, false, err
	}
	metadata, err = fileExists(filepath.Join(location, sqlite.MetadataFileName))
	if err != nil {
		return false, false, err
	}
	return vectors, metadata, nil
}

// Load reads the vector artifact at the location into memory.
func (s *Store) Load(location string) (driven.VectorIndex, error) {
	idx, err := flat.Load(location)
	if err != nil {
		return nil, err
	}
	return idx, nil
}

// Describe reads the vector artifact header without the vectors.
func (s *Store) Describe(location string) (driven.IndexHeader, error) {
	h, err := flat.ReadHeader(location)
	if err != nil {
		return driven.IndexHeader{}, err
	}
	return driven.IndexHeader{
		Metric:     h.Metric,
		ModelID:    h.ModelID,
		Dimensions: h.Dimensions,
		Chunks:     h.Count,
	}, nil
}

// OpenMetadata opens the sidecar at the location, creating an empty
// one if absent.
func (s *Store) OpenMetadata(location string) (driven.MetadataStore, error) {
	store, err := sqlite.NewStore(location)
	if err != nil {
		return nil, err
	}
	return store, nil
}

func fileExists(path string) (bool, error) {
	_, err := os.Stat(path)
	switch {
	case err == nil:
		return true, nil
	case errors.Is(err, fs.ErrNotExist):
		return false, nil
	default:
		return false, fmt.Errorf("stat %s: %w", path, err)
	}
}
