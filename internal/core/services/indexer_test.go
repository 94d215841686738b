package services

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/quillstone-labs/paperdex-cli/internal/adapters/driven/embedding"
	"github.com/quillstone-labs/paperdex-cli/internal/adapters/driven/index"
	"github.com/quillstone-labs/paperdex-cli/internal/adapters/driven/index/flat"
	"github.com/quillstone-labs/paperdex-cli/internal/adapters/driven/storage/sqlite"
	"github.com/quillstone-labs/paperdex-cli/internal/core/domain"
	"github.com/quillstone-labs/paperdex-cli/internal/core/ports/driven"
)

func testIndexConfig(t *testing.T) domain.Config {
	t.Helper()
	cfg := domain.DefaultConfig()
	cfg.EmbeddingModelID = "hash/32"
	cfg.IndexLocation = t.TempDir()
	return cfg
}

func newIndexService(t *testing.T, cfg domain.Config) *IndexService {
	t.Helper()
	embedder, err := embedding.NewService(cfg)
	require.NoError(t, err)
	t.Cleanup(func() { _ = embedder.Close() })
	return NewIndexService(embedder, index.NewStore(), cfg)
}

func indexChunk(docID string, seq int, text string) domain.Chunk {
	return domain.Chunk{
		ID:            domain.NewChunkID(docID, seq),
		DocumentID:    docID,
		SequenceIndex: seq,
		StartOffset:   seq * 100,
		EndOffset:     seq*100 + len(text),
		Text:          text,
	}
}

var (
	indexDocs = []domain.Document{
		{ID: "2401.10001", Title: "Retrieval Augmented Generation"},
		{ID: "2401.10002", Title: "Dense Passage Retrieval"},
	}
	indexChunks = []domain.Chunk{
		indexChunk("2401.10001", 0, "retrieval augmented generation grounds answers in retrieved passages"),
		indexChunk("2401.10001", 1, "a frozen retriever feeds a generative reader"),
		indexChunk("2401.10002", 0, "dense passage retrieval learns dual encoders for questions and passages"),
	}
)

func TestIndexService_Build(t *testing.T) {
	cfg := testIndexConfig(t)
	svc := newIndexService(t, cfg)

	info, err := svc.Build(context.Background(), indexChunks, indexDocs)
	require.NoError(t, err)

	assert.Equal(t, cfg.IndexLocation, info.Location)
	assert.Equal(t, "hash/32", info.ModelID)
	assert.Equal(t, domain.MetricCosine, info.Metric)
	assert.Equal(t, 32, info.Dimensions)
	assert.Equal(t, 3, info.Chunks)
	assert.Equal(t, 2, info.Documents)

	// Both artifacts land on disk together.
	_, err = os.Stat(filepath.Join(cfg.IndexLocation, flat.IndexFileName))
	require.NoError(t, err)
	_, err = os.Stat(filepath.Join(cfg.IndexLocation, sqlite.MetadataFileName))
	require.NoError(t, err)
}

func TestIndexService_Build_EmptyBatch(t *testing.T) {
	svc := newIndexService(t, testIndexConfig(t))

	_, err := svc.Build(context.Background(), nil, nil)
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrEmptyBatch)
}

func TestIndexService_Build_RejectsDuplicateChunkIDs(t *testing.T) {
	svc := newIndexService(t, testIndexConfig(t))

	dup := []domain.Chunk{indexChunks[0], indexChunks[1], indexChunks[0]}
	_, err := svc.Build(context.Background(), dup, indexDocs)
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrDuplicateChunk)
}

func TestIndexService_Build_ReplacesPreviousIndex(t *testing.T) {
	cfg := testIndexConfig(t)
	svc := newIndexService(t, cfg)
	ctx := context.Background()

	_, err := svc.Build(ctx, indexChunks, indexDocs)
	require.NoError(t, err)

	fresh := []domain.Chunk{indexChunk("2402.20001", 0, "instruction tuning aligns language models with intent")}
	info, err := svc.Build(ctx, fresh, nil)
	require.NoError(t, err)

	assert.Equal(t, 1, info.Chunks)
	assert.Equal(t, 1, info.Documents)
}

func TestIndexService_Build_WithoutDocumentMetadata(t *testing.T) {
	cfg := testIndexConfig(t)
	svc := newIndexService(t, cfg)

	info, err := svc.Build(context.Background(), indexChunks, nil)
	require.NoError(t, err)

	// Chunks reference two documents; id-only rows keep the sidecar
	// consistent.
	assert.Equal(t, 3, info.Chunks)
	assert.Equal(t, 2, info.Documents)
}

func TestIndexService_Add(t *testing.T) {
	cfg := testIndexConfig(t)
	svc := newIndexService(t, cfg)
	ctx := context.Background()

	_, err := svc.Build(ctx, indexChunks[:2], indexDocs[:1])
	require.NoError(t, err)

	batch := []domain.Chunk{
		indexChunks[1], // already indexed
		indexChunks[2], // new
	}
	added, skipped, err := svc.Add(ctx, batch, indexDocs[1:])
	require.NoError(t, err)

	assert.Equal(t, 1, added)
	assert.Equal(t, 1, skipped)

	info, err := svc.Info(ctx)
	require.NoError(t, err)
	assert.Equal(t, 3, info.Chunks)
	assert.Equal(t, 2, info.Documents)
}

func TestIndexService_Add_KeepsDocumentMetadata(t *testing.T) {
	cfg := testIndexConfig(t)
	svc := newIndexService(t, cfg)
	ctx := context.Background()

	_, err := svc.Build(ctx, indexChunks[:1], indexDocs[:1])
	require.NoError(t, err)

	// Adding another chunk of the same document without metadata must
	// not downgrade the stored record to an id-only row.
	later := indexChunk(indexDocs[0].ID, 7, "retrieval quality depends on chunking granularity")
	_, _, err = svc.Add(ctx, []domain.Chunk{later}, nil)
	require.NoError(t, err)

	meta, err := sqlite.NewStore(cfg.IndexLocation)
	require.NoError(t, err)
	defer meta.Close()

	docs, err := meta.DocumentsByIDs(ctx, []string{indexDocs[0].ID})
	require.NoError(t, err)
	require.Contains(t, docs, indexDocs[0].ID)
	assert.Equal(t, indexDocs[0].Title, docs[indexDocs[0].ID].Title)
}

func TestIndexService_Add_EmptyBatch(t *testing.T) {
	cfg := testIndexConfig(t)
	svc := newIndexService(t, cfg)
	ctx := context.Background()

	_, err := svc.Build(ctx, indexChunks, indexDocs)
	require.NoError(t, err)

	_, _, err = svc.Add(ctx, nil, nil)
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrEmptyBatch)
}

func TestIndexService_Add_WithoutIndex(t *testing.T) {
	svc := newIndexService(t, testIndexConfig(t))

	_, _, err := svc.Add(context.Background(), indexChunks, nil)
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrIndexUnavailable)
}

func TestIndexService_Open(t *testing.T) {
	cfg := testIndexConfig(t)
	svc := newIndexService(t, cfg)
	ctx := context.Background()

	_, err := svc.Build(ctx, indexChunks, indexDocs)
	require.NoError(t, err)

	idx, meta, err := svc.Open(ctx)
	require.NoError(t, err)
	defer meta.Close()

	assert.Equal(t, 3, idx.Len())
	assert.Equal(t, "hash/32", idx.ModelID())

	count, err := meta.CountChunks(ctx)
	require.NoError(t, err)
	assert.Equal(t, 3, count)
}

func TestIndexService_Open_NoIndex(t *testing.T) {
	svc := newIndexService(t, testIndexConfig(t))

	_, _, err := svc.Open(context.Background())
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrIndexUnavailable)
}

func TestIndexService_Open_MissingArtifact(t *testing.T) {
	cases := []struct {
		name   string
		remove string
	}{
		{name: "vector artifact gone", remove: flat.IndexFileName},
		{name: "metadata sidecar gone", remove: sqlite.MetadataFileName},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := testIndexConfig(t)
			svc := newIndexService(t, cfg)
			ctx := context.Background()

			_, err := svc.Build(ctx, indexChunks, indexDocs)
			require.NoError(t, err)
			require.NoError(t, os.Remove(filepath.Join(cfg.IndexLocation, tc.remove)))

			_, _, err = svc.Open(ctx)
			require.Error(t, err)
			assert.ErrorIs(t, err, domain.ErrCorruptIndex)
		})
	}
}

func TestIndexService_Open_CountMismatch(t *testing.T) {
	cfg := testIndexConfig(t)
	svc := newIndexService(t, cfg)
	ctx := context.Background()

	_, err := svc.Build(ctx, indexChunks, indexDocs)
	require.NoError(t, err)

	// Slip an extra chunk into the sidecar behind the index's back.
	meta, err := sqlite.NewStore(cfg.IndexLocation)
	require.NoError(t, err)
	stray := indexChunk(indexDocs[0].ID, 99, "stray chunk the vector artifact never saw")
	require.NoError(t, meta.UpsertChunks(ctx, []domain.Chunk{stray}))
	require.NoError(t, meta.Close())

	_, _, err = svc.Open(ctx)
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrCorruptIndex)
}

func TestIndexService_Open_ConfigMismatch(t *testing.T) {
	cfg := testIndexConfig(t)
	ctx := context.Background()

	_, err := newIndexService(t, cfg).Build(ctx, indexChunks, indexDocs)
	require.NoError(t, err)

	t.Run("different metric", func(t *testing.T) {
		changed := cfg
		changed.DistanceMetric = domain.MetricL2

		_, _, err := newIndexService(t, changed).Open(ctx)
		require.Error(t, err)
		assert.ErrorIs(t, err, domain.ErrInvalidConfig)
	})

	t.Run("different model", func(t *testing.T) {
		changed := cfg
		changed.EmbeddingModelID = "hash/64"

		_, _, err := newIndexService(t, changed).Open(ctx)
		require.Error(t, err)
		assert.ErrorIs(t, err, domain.ErrInvalidConfig)
	})
}

func TestIndexService_Info(t *testing.T) {
	cfg := testIndexConfig(t)
	svc := newIndexService(t, cfg)
	ctx := context.Background()

	_, err := svc.Info(ctx)
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrIndexUnavailable)

	_, err = svc.Build(ctx, indexChunks, indexDocs)
	require.NoError(t, err)

	info, err := svc.Info(ctx)
	require.NoError(t, err)
	assert.Equal(t, cfg.IndexLocation, info.Location)
	assert.Equal(t, "hash/32", info.ModelID)
	assert.Equal(t, domain.MetricCosine, info.Metric)
	assert.Equal(t, 32, info.Dimensions)
	assert.Equal(t, 3, info.Chunks)
	assert.Equal(t, 2, info.Documents)
}

func TestIndexService_BuildThenSearch(t *testing.T) {
	cfg := testIndexConfig(t)
	svc := newIndexService(t, cfg)
	ctx := context.Background()

	_, err := svc.Build(ctx, indexChunks, indexDocs)
	require.NoError(t, err)

	idx, meta, err := svc.Open(ctx)
	require.NoError(t, err)
	defer meta.Close()

	embedder, err := embedding.NewService(cfg)
	require.NoError(t, err)
	defer embedder.Close()

	search := NewSearchService(embedder, idx, meta, cfg.IndexLocation)
	results, err := search.Search(ctx, indexChunks[2].Text, domain.SearchOptions{K: 1})
	require.NoError(t, err)

	require.Len(t, results, 1)
	assert.Equal(t, indexChunks[2].ID, results[0].ChunkID)
	assert.InDelta(t, 1.0, results[0].Score, 1e-4)
	assert.Equal(t, indexDocs[1].Title, results[0].Title)
}

// stageFailStore wraps the artifact store so every staged vector
// write fails, as a full disk would.
type stageFailStore struct {
	driven.IndexStore
	err error
}

func (s *stageFailStore) New(dims int, metric domain.DistanceMetric, modelID string) (driven.VectorIndex, error) {
	idx, err := s.IndexStore.New(dims, metric, modelID)
	if err != nil {
		return nil, err
	}
	return &stageFailIndex{VectorIndex: idx, err: s.err}, nil
}

func (s *stageFailStore) Load(location string) (driven.VectorIndex, error) {
	idx, err := s.IndexStore.Load(location)
	if err != nil {
		return nil, err
	}
	return &stageFailIndex{VectorIndex: idx, err: s.err}, nil
}

type stageFailIndex struct {
	driven.VectorIndex
	err error
}

func (i *stageFailIndex) Stage(string) (driven.StagedArtifact, error) {
	return nil, i.err
}

func newFailingSaveService(t *testing.T, cfg domain.Config) *IndexService {
	t.Helper()
	embedder, err := embedding.NewService(cfg)
	require.NoError(t, err)
	t.Cleanup(func() { _ = embedder.Close() })
	store := &stageFailStore{IndexStore: index.NewStore(), err: errors.New("write vectors: no space left on device")}
	return NewIndexService(embedder, store, cfg)
}

func TestIndexService_Build_FailedSaveKeepsPreviousIndex(t *testing.T) {
	cfg := testIndexConfig(t)
	svc := newIndexService(t, cfg)

	_, err := svc.Build(context.Background(), indexChunks[:2], indexDocs[:1])
	require.NoError(t, err)

	_, err = newFailingSaveService(t, cfg).Build(context.Background(), indexChunks, indexDocs)
	require.Error(t, err)

	// The previous index survives intact: both artifacts still agree
	// and the old chunks are still queryable.
	idx, meta, err := svc.Open(context.Background())
	require.NoError(t, err)
	defer meta.Close()
	assert.Equal(t, 2, idx.Len())

	info, err := svc.Info(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, info.Chunks)
	assert.Equal(t, 1, info.Documents)
}

func TestIndexService_Add_FailedSaveKeepsPreviousIndex(t *testing.T) {
	cfg := testIndexConfig(t)
	svc := newIndexService(t, cfg)

	_, err := svc.Build(context.Background(), indexChunks[:2], indexDocs[:1])
	require.NoError(t, err)

	_, _, err = newFailingSaveService(t, cfg).Add(context.Background(), indexChunks[2:], indexDocs[1:])
	require.Error(t, err)

	idx, meta, err := svc.Open(context.Background())
	require.NoError(t, err)
	defer meta.Close()
	assert.Equal(t, 2, idx.Len())

	// The failed batch left no trace in the sidecar.
	orphans, err := meta.ChunksByIDs(context.Background(), []string{indexChunks[2].ID})
	require.NoError(t, err)
	assert.Empty(t, orphans)
}
