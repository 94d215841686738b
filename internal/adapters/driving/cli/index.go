package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/quillstone-labs/paperdex-cli/internal/corpus"
	"github.com/quillstone-labs/paperdex-cli/internal/core/domain"
)

var (
	indexChunksFile string
	indexDocsFile   string
	indexInfoJSON   bool
)

var indexCmd = &cobra.Command{
	Use:   "index",
	Short: "Manage the vector index",
	Long: `Builds, extends and inspects the persisted vector index.
An index location holds two artifacts that always change together:
the vector index itself and a metadata sidecar for result hydration.`,
}

var indexBuildCmd = &cobra.Command{
	Use:   "build",
	Short: "Build a fresh index from a chunks file",
	Long: `Embeds the chunks and writes a fresh index to the configured
location, replacing any previous one. Passing the documents file as
well stores paper metadata alongside the chunks, so search results
carry titles.`,
	RunE: runIndexBuild,
}

var indexAddCmd = &cobra.Command{
	Use:   "add",
	Short: "Append chunks to the existing index",
	Long: `Embeds the chunks and appends them to the existing index.
Chunks already indexed (same chunk id) are skipped, so re-adding an
unchanged document is a no-op.`,
	RunE: runIndexAdd,
}

var indexInfoCmd = &cobra.Command{
	Use:   "info",
	Short: "Describe the persisted index",
	RunE:  runIndexInfo,
}

func init() {
	for _, cmd := range []*cobra.Command{indexBuildCmd, indexAddCmd} {
		cmd.Flags().StringVar(&indexChunksFile, "chunks", "chunks.jsonl", "input chunks JSONL file")
		cmd.Flags().StringVar(&indexDocsFile, "docs", "", "documents JSONL file for paper metadata")
	}
	indexInfoCmd.Flags().BoolVar(&indexInfoJSON, "json", false, "output as JSON")

	indexCmd.AddCommand(indexBuildCmd)
	indexCmd.AddCommand(indexAddCmd)
	indexCmd.AddCommand(indexInfoCmd)
	rootCmd.AddCommand(indexCmd)
}

// loadIndexInput reads the chunks file and, when given, the documents
// file.
func loadIndexInput() ([]domain.Chunk, []domain.Document, error) {
	chunks, err := corpus.ReadChunksFile(indexChunksFile)
	if err != nil {
		return nil, nil, fmt.Errorf("read chunks: %w", err)
	}

	var docs []domain.Document
	if indexDocsFile != "" {
		docs, err = corpus.ReadDocumentsFile(indexDocsFile)
		if err != nil {
			return nil, nil, fmt.Errorf("read documents: %w", err)
		}
	}
	return chunks, docs, nil
}

func runIndexBuild(cmd *cobra.Command, _ []string) error {
	chunks, docs, err := loadIndexInput()
	if err != nil {
		return err
	}

	svc, cleanup, err := getIndexService()
	if err != nil {
		return err
	}
	defer cleanup()

	info, err := svc.Build(cmd.Context(), chunks, docs)
	if err != nil {
		return fmt.Errorf("index build failed: %w", err)
	}

	cmd.Printf("Built index at %s\n", info.Location)
	outputIndexInfoTable(cmd, info)
	return nil
}

func runIndexAdd(cmd *cobra.Command, _ []string) error {
	chunks, docs, err := loadIndexInput()
	if err != nil {
		return err
	}

	svc, cleanup, err := getIndexService()
	if err != nil {
		return err
	}
	defer cleanup()

	added, skipped, err := svc.Add(cmd.Context(), chunks, docs)
	if err != nil {
		return fmt.Errorf("index add failed: %w", err)
	}

	cmd.Printf("Added %d chunks (%d already indexed)\n", added, skipped)
	return nil
}

func runIndexInfo(cmd *cobra.Command, _ []string) error {
	svc, cleanup, err := getIndexService()
	if err != nil {
		return err
	}
	defer cleanup()

	info, err := svc.Info(cmd.Context())
	if err != nil {
		return fmt.Errorf("index info failed: %w", err)
	}

	if indexInfoJSON {
		return outputJSON(cmd, info)
	}
	outputIndexInfoTable(cmd, info)
	return nil
}

func outputIndexInfoTable(cmd *cobra.Command, info domain.IndexInfo) {
	cmd.Printf("  Location:   %s\n", info.Location)
	cmd.Printf("  Model:      %s\n", info.ModelID)
	cmd.Printf("  Metric:     %s\n", info.Metric)
	cmd.Printf("  Dimensions: %d\n", info.Dimensions)
	cmd.Printf("  Chunks:     %d\n", info.Chunks)
	cmd.Printf("  Documents:  %d\n", info.Documents)
}
