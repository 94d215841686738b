package services

import (
	"context"
	"fmt"

	"github.com/quillstone-labs/paperdex-cli/internal/core/domain"
	"github.com/quillstone-labs/paperdex-cli/internal/core/ports/driven"
	"github.com/quillstone-labs/paperdex-cli/internal/core/ports/driving"
	"github.com/quillstone-labs/paperdex-cli/internal/logger"
)

// Ensure IndexService implements the driving port.
var _ driving.IndexService = (*IndexService)(nil)

// IndexService builds, extends and inspects the persisted index. Every
// operation works against the location fixed in the configuration, and
// always on both artifacts together: the vector artifact and the
// metadata sidecar never change independently.
type IndexService struct {
	embedder driven.EmbeddingService
	store    driven.IndexStore
	cfg      domain.Config
}

// NewIndexService creates an index service.
func NewIndexService(embedder driven.EmbeddingService, store driven.IndexStore, cfg domain.Config) *IndexService {
	return &IndexService{
		embedder: embedder,
		store:    store,
		cfg:      cfg,
	}
}

// Build embeds the chunks and writes a fresh index to the configured
// location, replacing any previous one.
func (s *IndexService) Build(ctx context.Context, chunks []domain.Chunk, docs []domain.Document) (domain.IndexInfo, error) {
	defer logger.Timed("index build")()

	if len(chunks) == 0 {
		return domain.IndexInfo{}, fmt.Errorf("%w: nothing to index", domain.ErrEmptyBatch)
	}
	if err := rejectDuplicates(chunks); err != nil {
		return domain.IndexInfo{}, err
	}

	embedded, err := s.embedChunks(ctx, chunks)
	if err != nil {
		return domain.IndexInfo{}, err
	}

	idx, err := s.store.New(s.embedder.Dimensions(), s.cfg.DistanceMetric, s.embedder.ModelID())
	if err != nil {
		return domain.IndexInfo{}, fmt.Errorf("create index: %w", err)
	}
	if _, err := idx.Add(ctx, embedded); err != nil {
		return domain.IndexInfo{}, fmt.Errorf("index chunks: %w", err)
	}

	// Commit order: the vector artifact is staged first, the sidecar
	// batch commits second, and only then is the staged artifact
	// renamed into place. A failure at any step leaves the previous
	// index queryable.
	staged, err := idx.Stage(s.cfg.IndexLocation)
	if err != nil {
		return domain.IndexInfo{}, fmt.Errorf("stage index: %w", err)
	}
	defer staged.Abort()

	meta, err := s.store.OpenMetadata(s.cfg.IndexLocation)
	if err != nil {
		return domain.IndexInfo{}, fmt.Errorf("open metadata sidecar: %w", err)
	}
	defer meta.Close()

	var info domain.IndexInfo
	if err := meta.Apply(ctx, func(b driven.MetadataBatch) error {
		if err := b.Reset(ctx); err != nil {
			return fmt.Errorf("reset metadata sidecar: %w", err)
		}
		if err := s.upsertMetadata(ctx, b, chunks, docs); err != nil {
			return err
		}
		var verr error
		info, verr = s.verifyCounts(ctx, idx, b)
		return verr
	}); err != nil {
		return domain.IndexInfo{}, err
	}

	if err := staged.Commit(); err != nil {
		return domain.IndexInfo{}, fmt.Errorf("save index: %w", err)
	}

	logger.Info("Built index at %s: %d chunks from %d documents",
		info.Location, info.Chunks, info.Documents)
	return info, nil
}

// Add embeds the chunks and appends them to the existing index.
// Chunk ids already indexed are skipped, never duplicated.
func (s *IndexService) Add(ctx context.Context, chunks []domain.Chunk, docs []domain.Document) (added, skipped int, err error) {
	defer logger.Timed("index add")()

	if len(chunks) == 0 {
		return 0, 0, fmt.Errorf("%w: nothing to index", domain.ErrEmptyBatch)
	}
	if err := rejectDuplicates(chunks); err != nil {
		return 0, 0, err
	}

	idx, meta, err := s.Open(ctx)
	if err != nil {
		return 0, 0, err
	}
	defer meta.Close()

	embedded, err := s.embedChunks(ctx, chunks)
	if err != nil {
		return 0, 0, err
	}

	added, err = idx.Add(ctx, embedded)
	if err != nil {
		return 0, 0, fmt.Errorf("index chunks: %w", err)
	}
	skipped = len(chunks) - added

	// Same commit order as Build: stage vectors, commit the sidecar
	// batch, publish the staged artifact last.
	staged, err := idx.Stage(s.cfg.IndexLocation)
	if err != nil {
		return 0, 0, fmt.Errorf("stage index: %w", err)
	}
	defer staged.Abort()

	if err := meta.Apply(ctx, func(b driven.MetadataBatch) error {
		if err := s.upsertMetadata(ctx, b, chunks, docs); err != nil {
			return err
		}
		_, verr := s.verifyCounts(ctx, idx, b)
		return verr
	}); err != nil {
		return 0, 0, err
	}

	if err := staged.Commit(); err != nil {
		return 0, 0, fmt.Errorf("save index: %w", err)
	}

	logger.Info("Added %d chunks to %s (%d already indexed)",
		added, s.cfg.IndexLocation, skipped)
	return added, skipped, nil
}

// Info describes the index at the configured location without loading
// vectors into memory.
func (s *IndexService) Info(ctx context.Context) (domain.IndexInfo, error) {
	location := s.cfg.IndexLocation

	if err := s.checkArtifacts(location); err != nil {
		return domain.IndexInfo{}, err
	}

	header, err := s.store.Describe(location)
	if err != nil {
		return domain.IndexInfo{}, err
	}

	meta, err := s.store.OpenMetadata(location)
	if err != nil {
		return domain.IndexInfo{}, fmt.Errorf("open metadata sidecar: %w", err)
	}
	defer meta.Close()

	documents, err := meta.CountDocuments(ctx)
	if err != nil {
		return domain.IndexInfo{}, fmt.Errorf("count documents: %w", err)
	}

	return domain.IndexInfo{
		Location:   location,
		ModelID:    header.ModelID,
		Metric:     header.Metric,
		Dimensions: header.Dimensions,
		Chunks:     header.Chunks,
		Documents:  documents,
	}, nil
}

// Open loads both artifacts at the configured location, verifying that
// they exist together, agree on the chunk count and match the
// configured metric and model. The caller owns closing the returned
// metadata store.
func (s *IndexService) Open(ctx context.Context) (driven.VectorIndex, driven.MetadataStore, error) {
	location := s.cfg.IndexLocation

	if err := s.checkArtifacts(location); err != nil {
		return nil, nil, err
	}

	idx, err := s.store.Load(location)
	if err != nil {
		return nil, nil, err
	}
	if err := s.checkShape(idx.Metric(), idx.ModelID()); err != nil {
		return nil, nil, err
	}

	meta, err := s.store.OpenMetadata(location)
	if err != nil {
		return nil, nil, fmt.Errorf("open metadata sidecar: %w", err)
	}

	chunkCount, err := meta.CountChunks(ctx)
	if err != nil {
		meta.Close()
		return nil, nil, fmt.Errorf("count chunks: %w", err)
	}
	if chunkCount != idx.Len() {
		meta.Close()
		return nil, nil, fmt.Errorf("%w: vector artifact has %d chunks but the sidecar has %d",
			domain.ErrCorruptIndex, idx.Len(), chunkCount)
	}

	return idx, meta, nil
}

// checkArtifacts applies the pairing policy: an index location holds
// both artifacts or none.
func (s *IndexService) checkArtifacts(location string) error {
	hasVectors, hasMetadata, err := s.store.Artifacts(location)
	if err != nil {
		return fmt.Errorf("inspect index location: %w", err)
	}
	switch {
	case !hasVectors && !hasMetadata:
		return fmt.Errorf("%w: no index at %s, build one first", domain.ErrIndexUnavailable, location)
	case !hasVectors:
		return fmt.Errorf("%w: %s has a metadata sidecar but no vector artifact", domain.ErrCorruptIndex, location)
	case !hasMetadata:
		return fmt.Errorf("%w: %s has a vector artifact but no metadata sidecar", domain.ErrCorruptIndex, location)
	}
	return nil
}

// checkShape rejects a configuration that disagrees with the stored
// index header.
func (s *IndexService) checkShape(metric domain.DistanceMetric, modelID string) error {
	if s.cfg.DistanceMetric != metric {
		return fmt.Errorf("%w: configured distance_metric %q but the index was built with %q",
			domain.ErrInvalidConfig, s.cfg.DistanceMetric, metric)
	}
	if s.cfg.EmbeddingModelID != modelID {
		return fmt.Errorf("%w: configured embedding_model_id %q but the index was built with %q",
			domain.ErrInvalidConfig, s.cfg.EmbeddingModelID, modelID)
	}
	return nil
}

// embedChunks turns chunks into embedded chunks, batch boundaries
// handled by the embedding service.
func (s *IndexService) embedChunks(ctx context.Context, chunks []domain.Chunk) ([]domain.EmbeddedChunk, error) {
	logger.Debug("Embedding %d chunks with %s", len(chunks), s.embedder.ModelID())

	texts := make([]string, len(chunks))
	for i, c := range chunks {
		texts[i] = c.Text
	}

	vectors, err := s.embedder.EmbedBatch(ctx, texts)
	if err != nil {
		return nil, fmt.Errorf("embed chunks: %w", err)
	}
	if len(vectors) != len(chunks) {
		return nil, fmt.Errorf("%w: got %d vectors for %d chunks",
			domain.ErrEmbedding, len(vectors), len(chunks))
	}

	modelID := s.embedder.ModelID()
	embedded := make([]domain.EmbeddedChunk, len(chunks))
	for i, c := range chunks {
		embedded[i] = domain.EmbeddedChunk{Chunk: c, Vector: vectors[i], ModelID: modelID}
	}
	return embedded, nil
}

// upsertMetadata writes documents before chunks so the sidecar's
// foreign key holds. Chunks may arrive without their documents; those
// get id-only rows, never overwriting real records.
func (s *IndexService) upsertMetadata(ctx context.Context, meta driven.MetadataBatch, chunks []domain.Chunk, docs []domain.Document) error {
	if err := meta.UpsertDocuments(ctx, docs); err != nil {
		return fmt.Errorf("store documents: %w", err)
	}

	seen := make(map[string]bool, len(docs))
	for _, d := range docs {
		seen[d.ID] = true
	}
	var unknown []string
	for _, c := range chunks {
		if !seen[c.DocumentID] {
			seen[c.DocumentID] = true
			unknown = append(unknown, c.DocumentID)
		}
	}

	if len(unknown) > 0 {
		existing, err := meta.DocumentsByIDs(ctx, unknown)
		if err != nil {
			return fmt.Errorf("look up documents: %w", err)
		}
		placeholders := make([]domain.Document, 0, len(unknown))
		for _, id := range unknown {
			if _, ok := existing[id]; !ok {
				placeholders = append(placeholders, domain.Document{ID: id})
			}
		}
		if len(placeholders) > 0 {
			logger.Debug("Creating %d id-only document records for chunks without document metadata", len(placeholders))
			if err := meta.UpsertDocuments(ctx, placeholders); err != nil {
				return fmt.Errorf("store documents: %w", err)
			}
		}
	}

	if err := meta.UpsertChunks(ctx, chunks); err != nil {
		return fmt.Errorf("store chunks: %w", err)
	}
	return nil
}

// verifyCounts cross-checks the two artifacts before either is
// published and assembles the index description.
func (s *IndexService) verifyCounts(ctx context.Context, idx driven.VectorIndex, meta driven.MetadataBatch) (domain.IndexInfo, error) {
	chunkCount, err := meta.CountChunks(ctx)
	if err != nil {
		return domain.IndexInfo{}, fmt.Errorf("count chunks: %w", err)
	}
	if chunkCount != idx.Len() {
		return domain.IndexInfo{}, fmt.Errorf("%w: index has %d chunks but the sidecar has %d",
			domain.ErrCorruptIndex, idx.Len(), chunkCount)
	}

	documents, err := meta.CountDocuments(ctx)
	if err != nil {
		return domain.IndexInfo{}, fmt.Errorf("count documents: %w", err)
	}

	return domain.IndexInfo{
		Location:   s.cfg.IndexLocation,
		ModelID:    idx.ModelID(),
		Metric:     idx.Metric(),
		Dimensions: idx.Dimensions(),
		Chunks:     idx.Len(),
		Documents:  documents,
	}, nil
}

// rejectDuplicates refuses batches that repeat a chunk id before any
// embedding work is spent on them.
func rejectDuplicates(chunks []domain.Chunk) error {
	seen := make(map[string]bool, len(chunks))
	for _, c := range chunks {
		if seen[c.ID] {
			return fmt.Errorf("%w: chunk id %s appears twice in the batch", domain.ErrDuplicateChunk, c.ID)
		}
		seen[c.ID] = true
	}
	return nil
}
