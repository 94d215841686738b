package memory

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/quillstone-labs/paperdex-cli/internal/core/domain"
	"github.com/quillstone-labs/paperdex-cli/internal/core/ports/driven"
)

func TestNewMetadataStore(t *testing.T) {
	store := NewMetadataStore()
	require.NotNil(t, store)
	assert.NotNil(t, store.documents)
	assert.NotNil(t, store.chunks)
}

func TestMetadataStore_UpsertDocuments(t *testing.T) {
	store := NewMetadataStore()
	ctx := context.Background()

	doc := domain.Document{
		ID:       "2401.00001",
		Title:    "Original Title",
		Authors:  []string{"A. Karlsson"},
		Category: "cs.IR",
		Text:     "abstract",
	}
	require.NoError(t, store.UpsertDocuments(ctx, []domain.Document{doc}))

	doc.Title = "Updated Title"
	require.NoError(t, store.UpsertDocuments(ctx, []domain.Document{doc}))

	docs, err := store.DocumentsByIDs(ctx, []string{"2401.00001"})
	require.NoError(t, err)
	require.Contains(t, docs, "2401.00001")
	assert.Equal(t, "Updated Title", docs["2401.00001"].Title)

	n, err := store.CountDocuments(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

func TestMetadataStore_UpsertDocuments_RejectsEmptyID(t *testing.T) {
	store := NewMetadataStore()

	err := store.UpsertDocuments(context.Background(), []domain.Document{{Text: "no id"}})
	require.ErrorIs(t, err, domain.ErrInvalidArgument)
}

func TestMetadataStore_ChunksByIDs(t *testing.T) {
	store := NewMetadataStore()
	ctx := context.Background()

	chunks := []domain.Chunk{
		{ID: "c-1", DocumentID: "2401.00001", SequenceIndex: 0, Text: "first"},
		{ID: "c-2", DocumentID: "2401.00001", SequenceIndex: 1, Text: "second"},
	}
	require.NoError(t, store.UpsertChunks(ctx, chunks))

	got, err := store.ChunksByIDs(ctx, []string{"c-2", "missing"})
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "second", got["c-2"].Text)
}

func TestMetadataStore_Reset(t *testing.T) {
	store := NewMetadataStore()
	ctx := context.Background()

	require.NoError(t, store.UpsertDocuments(ctx, []domain.Document{{ID: "2401.00001"}}))
	require.NoError(t, store.UpsertChunks(ctx, []domain.Chunk{{ID: "c-1", DocumentID: "2401.00001"}}))

	require.NoError(t, store.Reset(ctx))

	nDocs, err := store.CountDocuments(ctx)
	require.NoError(t, err)
	assert.Zero(t, nDocs)

	nChunks, err := store.CountChunks(ctx)
	require.NoError(t, err)
	assert.Zero(t, nChunks)
}

func TestMetadataStore_ConcurrentAccess(t *testing.T) {
	store := NewMetadataStore()
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			id := fmt.Sprintf("2401.%05d", n)
			_ = store.UpsertDocuments(ctx, []domain.Document{{ID: id}})
			_ = store.UpsertChunks(ctx, []domain.Chunk{{ID: "c-" + id, DocumentID: id}})
			_, _ = store.DocumentsByIDs(ctx, []string{id})
			_, _ = store.CountChunks(ctx)
		}(i)
	}
	wg.Wait()

	n, err := store.CountDocuments(ctx)
	require.NoError(t, err)
	assert.Equal(t, 10, n)
}

func TestMetadataStore_Apply_RollsBackOnError(t *testing.T) {
	ctx := context.Background()
	store := NewMetadataStore()
	require.NoError(t, store.UpsertDocuments(ctx, []domain.Document{{ID: "2401.40001"}}))

	boom := errors.New("batch failed")
	err := store.Apply(ctx, func(b driven.MetadataBatch) error {
		if err := b.Reset(ctx); err != nil {
			return err
		}
		return boom
	})
	require.ErrorIs(t, err, boom)

	n, err := store.CountDocuments(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

func TestMetadataStore_Apply_SwapsInOnSuccess(t *testing.T) {
	ctx := context.Background()
	store := NewMetadataStore()

	err := store.Apply(ctx, func(b driven.MetadataBatch) error {
		return b.UpsertDocuments(ctx, []domain.Document{{ID: "2401.40002"}})
	})
	require.NoError(t, err)

	docs, err := store.DocumentsByIDs(ctx, []string{"2401.40002"})
	require.NoError(t, err)
	assert.Contains(t, docs, "2401.40002")
}
