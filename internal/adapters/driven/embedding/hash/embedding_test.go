package hash

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/quillstone-labs/paperdex-cli/internal/core/domain"
)

func TestNewEmbeddingService(t *testing.T) {
	t.Run("parses dimension count from model", func(t *testing.T) {
		svc, err := NewEmbeddingService("256")
		require.NoError(t, err)
		defer svc.Close()

		assert.Equal(t, 256, svc.Dimensions())
		assert.Equal(t, "hash/256", svc.ModelID())
		assert.NoError(t, svc.Ping(context.Background()))
	})

	t.Run("rejects non-numeric model", func(t *testing.T) {
		_, err := NewEmbeddingService("small")
		require.ErrorIs(t, err, domain.ErrModelUnavailable)
	})

	t.Run("rejects zero dimensions", func(t *testing.T) {
		_, err := NewEmbeddingService("0")
		require.ErrorIs(t, err, domain.ErrModelUnavailable)
	})

	t.Run("rejects negative dimensions", func(t *testing.T) {
		_, err := NewEmbeddingService("-8")
		require.ErrorIs(t, err, domain.ErrModelUnavailable)
	})
}

func TestEmbed_Deterministic(t *testing.T) {
	svc, err := NewEmbeddingService("64")
	require.NoError(t, err)
	ctx := context.Background()

	first, err := svc.Embed(ctx, "attention is all you need for sequence transduction")
	require.NoError(t, err)
	second, err := svc.Embed(ctx, "attention is all you need for sequence transduction")
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.Len(t, first, 64)
}

func TestEmbed_UnitLength(t *testing.T) {
	svc, err := NewEmbeddingService("128")
	require.NoError(t, err)

	vec, err := svc.Embed(context.Background(), "graph neural networks survey")
	require.NoError(t, err)

	var sumSq float64
	for _, v := range vec {
		sumSq += float64(v) * float64(v)
	}
	assert.InDelta(t, 1.0, sumSq, 1e-4)
}

func TestEmbed_DistinctTexts(t *testing.T) {
	svc, err := NewEmbeddingService("256")
	require.NoError(t, err)
	ctx := context.Background()

	a, err := svc.Embed(ctx, "convolutional networks for image classification")
	require.NoError(t, err)
	b, err := svc.Embed(ctx, "quantum error correction with surface codes")
	require.NoError(t, err)

	assert.NotEqual(t, a, b)
}

func TestEmbed_CaseAndPunctuationInsensitive(t *testing.T) {
	svc, err := NewEmbeddingService("64")
	require.NoError(t, err)
	ctx := context.Background()

	a, err := svc.Embed(ctx, "Deep Learning, today!")
	require.NoError(t, err)
	b, err := svc.Embed(ctx, "deep learning today")
	require.NoError(t, err)

	assert.Equal(t, a, b)
}

func TestEmbed_RejectsEmptyText(t *testing.T) {
	svc, err := NewEmbeddingService("64")
	require.NoError(t, err)
	ctx := context.Background()

	for _, text := range []string{"", "   ", "\n\t ", "..., --- !!!"} {
		_, err := svc.Embed(ctx, text)
		assert.ErrorIs(t, err, domain.ErrEmbedding, "text %q", text)
	}
}

func TestEmbedBatch_MatchesSingleCalls(t *testing.T) {
	svc, err := NewEmbeddingService("64")
	require.NoError(t, err)
	ctx := context.Background()

	texts := []string{
		"retrieval augmented generation",
		"sparse mixture of experts",
		"diffusion models for audio",
	}

	batch, err := svc.EmbedBatch(ctx, texts)
	require.NoError(t, err)
	require.Len(t, batch, len(texts))

	for i, text := range texts {
		single, err := svc.Embed(ctx, text)
		require.NoError(t, err)
		assert.Equal(t, single, batch[i], "text %d", i)
	}
}

func TestEmbedBatch_ReportsFailingIndex(t *testing.T) {
	svc, err := NewEmbeddingService("64")
	require.NoError(t, err)

	_, err = svc.EmbedBatch(context.Background(), []string{"fine", "  ", "also fine"})
	require.ErrorIs(t, err, domain.ErrEmbedding)
	assert.Contains(t, err.Error(), "embed text 1")
}
