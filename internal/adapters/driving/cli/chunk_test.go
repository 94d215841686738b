package cli

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/quillstone-labs/paperdex-cli/internal/corpus"
	"github.com/quillstone-labs/paperdex-cli/internal/core/domain"
)

func TestChunkCmd_Use(t *testing.T) {
	assert.Equal(t, "chunk", chunkCmd.Use)
}

func TestChunkCmd_Short(t *testing.T) {
	assert.Equal(t, "Split documents into retrievable chunks", chunkCmd.Short)
}

func TestChunkCmd_HasFlags(t *testing.T) {
	for _, name := range []string{"in", "out", "window", "overlap", "unit"} {
		assert.NotNil(t, chunkCmd.Flags().Lookup(name), "flag %s should exist", name)
	}
}

func TestChunkCmd_ChunksDocuments(t *testing.T) {
	dir := t.TempDir()
	in := filepath.Join(dir, "documents.jsonl")
	out := filepath.Join(dir, "chunks.jsonl")
	cfgPath := filepath.Join(dir, "config.toml")
	defer func() {
		chunkIn = "documents.jsonl"
		chunkOut = "chunks.jsonl"
		chunkWindow = 0
		chunkOverlap = -1
		chunkUnit = ""
		flagConfigPath = ""
	}()

	docs := []domain.Document{{ID: "doc-1", Text: "A B C D E F"}}
	require.NoError(t, corpus.WriteDocumentsFile(in, docs))

	output, err := executeCommand("chunk",
		"--config", cfgPath,
		"--in", in, "--out", out,
		"--window", "3", "--overlap", "1", "--unit", "words")

	require.NoError(t, err)
	assert.Contains(t, output, "Chunked 1 documents into 3 chunks")

	chunks, err := corpus.ReadChunksFile(out)
	require.NoError(t, err)
	require.Len(t, chunks, 3)
	assert.Equal(t, "A B C", chunks[0].Text)
	assert.Equal(t, "C D E", chunks[1].Text)
	assert.Equal(t, "E F", chunks[2].Text)
}

func TestChunkCmd_RejectsBadUnit(t *testing.T) {
	dir := t.TempDir()
	in := filepath.Join(dir, "documents.jsonl")
	defer func() {
		chunkIn = "documents.jsonl"
		chunkUnit = ""
		flagConfigPath = ""
	}()

	require.NoError(t, corpus.WriteDocumentsFile(in, nil))

	_, err := executeCommand("chunk",
		"--config", filepath.Join(dir, "config.toml"),
		"--in", in, "--unit", "sentences")

	assert.ErrorIs(t, err, domain.ErrInvalidConfig)
}
