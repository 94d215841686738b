package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/quillstone-labs/paperdex-cli/internal/corpus"
	"github.com/quillstone-labs/paperdex-cli/internal/core/domain"
)

var (
	ingestCategory   string
	ingestQuery      string
	ingestMaxResults int
	ingestOut        string
)

var ingestCmd = &cobra.Command{
	Use:   "ingest",
	Short: "Fetch paper metadata from arXiv",
	Long: `Fetches paper metadata from the arXiv API, newest first, and writes
one document record per line to a JSONL file. The abstract becomes the
document text; use "extract" to replace it with full PDF text.

Examples:
  paperdex ingest --category cs.CL --max-results 50
  paperdex ingest --query "retrieval augmented generation" --out papers.jsonl`,
	RunE: runIngest,
}

func init() {
	ingestCmd.Flags().StringVar(&ingestCategory, "category", "", "arXiv subject category, e.g. cs.CL")
	ingestCmd.Flags().StringVar(&ingestQuery, "query", "", "free-text query over all fields")
	ingestCmd.Flags().IntVar(&ingestMaxResults, "max-results", 25, "maximum number of papers to fetch")
	ingestCmd.Flags().StringVarP(&ingestOut, "out", "o", "documents.jsonl", "output documents JSONL file")
	rootCmd.AddCommand(ingestCmd)
}

func runIngest(cmd *cobra.Command, _ []string) error {
	docs, err := getIngestService().Fetch(cmd.Context(), domain.PaperQuery{
		Category:   ingestCategory,
		Terms:      ingestQuery,
		MaxResults: ingestMaxResults,
	})
	if err != nil {
		return fmt.Errorf("ingest failed: %w", err)
	}

	if err := corpus.WriteDocumentsFile(ingestOut, docs); err != nil {
		return fmt.Errorf("write documents: %w", err)
	}

	cmd.Printf("Fetched %d papers into %s\n", len(docs), ingestOut)
	return nil
}
