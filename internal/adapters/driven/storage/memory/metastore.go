package memory

import (
	"context"
	"fmt"
	"maps"
	"sync"

	"github.com/quillstone-labs/paperdex-cli/internal/core/domain"
	"github.com/quillstone-labs/paperdex-cli/internal/core/ports/driven"
)

// Ensure MetadataStore implements the interface.
var _ driven.MetadataStore = (*MetadataStore)(nil)

// MetadataStore is an in-memory implementation of driven.MetadataStore.
// It backs tests and ephemeral indexes that are never persisted.
type MetadataStore struct {
	mu        sync.RWMutex
	documents map[string]domain.Document
	chunks    map[string]domain.Chunk
}

// NewMetadataStore creates a new in-memory metadata store.
func NewMetadataStore() *MetadataStore {
	return &MetadataStore{
		documents: make(map[string]domain.Document),
		chunks:    make(map[string]domain.Chunk),
	}
}

// UpsertDocuments stores or replaces document records.
func (s *MetadataStore) UpsertDocuments(_ context.Context, docs []domain.Document) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, doc := range docs {
		if doc.ID == "" {
			return fmt.Errorf("%w: document id is empty", domain.ErrInvalidArgument)
		}
		s.documents[doc.ID] = doc
	}
	return nil
}

// UpsertChunks stores or replaces chunk records.
func (s *MetadataStore) UpsertChunks(_ context.Context, chunks []domain.Chunk) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, chunk := range chunks {
		if chunk.ID == "" {
			return fmt.Errorf("%w: chunk id is empty", domain.ErrInvalidArgument)
		}
		s.chunks[chunk.ID] = chunk
	}
	return nil
}

// ChunksByIDs returns the chunks found for the given ids, keyed by id.
func (s *MetadataStore) ChunksByIDs(_ context.Context, ids []string) (map[string]domain.Chunk, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make(map[string]domain.Chunk, len(ids))
	for _, id := range ids {
		if chunk, ok := s.chunks[id]; ok {
			out[id] = chunk
		}
	}
	return out, nil
}

// DocumentsByIDs returns the documents found for the given ids, keyed by id.
func (s *MetadataStore) DocumentsByIDs(_ context.Context, ids []string) (map[string]domain.Document, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make(map[string]domain.Document, len(ids))
	for _, id := range ids {
		if doc, ok := s.documents[id]; ok {
			out[id] = doc
		}
	}
	return out, nil
}

// CountChunks returns the number of stored chunk records.
func (s *MetadataStore) CountChunks(_ context.Context) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.chunks), nil
}

// CountDocuments returns the number of stored document records.
func (s *MetadataStore) CountDocuments(_ context.Context) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.documents), nil
}

// Apply runs fn against a scratch copy of the store and swaps the
// copy in only when fn succeeds, mirroring the transactional sidecar:
// a failure inside fn leaves every record as it was.
func (s *MetadataStore) Apply(_ context.Context, fn func(driven.MetadataBatch) error) error {
	s.mu.RLock()
	scratch := &MetadataStore{
		documents: maps.Clone(s.documents),
		chunks:    maps.Clone(s.chunks),
	}
	s.mu.RUnlock()

	if err := fn(scratch); err != nil {
		return err
	}

	s.mu.Lock()
	s.documents = scratch.documents
	s.chunks = scratch.chunks
	s.mu.Unlock()
	return nil
}

// Reset removes all stored records.
func (s *MetadataStore) Reset(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.documents = make(map[string]domain.Document)
	s.chunks = make(map[string]domain.Chunk)
	return nil
}

// Close is a no-op for the in-memory store.
func (s *MetadataStore) Close() error {
	return nil
}
