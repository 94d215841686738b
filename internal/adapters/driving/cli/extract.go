package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/quillstone-labs/paperdex-cli/internal/corpus"
	"github.com/quillstone-labs/paperdex-cli/internal/core/domain"
)

var (
	extractPDF   string
	extractID    string
	extractTitle string
	extractOut   string
)

var extractCmd = &cobra.Command{
	Use:   "extract",
	Short: "Extract text from a local PDF",
	Long: `Reads the text layer of a local PDF and appends the resulting
document record to the documents JSONL file. Pages without readable
text are skipped; a PDF with no extractable text at all is an error.`,
	RunE: runExtract,
}

func init() {
	extractCmd.Flags().StringVar(&extractPDF, "pdf", "", "path to the PDF file (required)")
	extractCmd.Flags().StringVar(&extractID, "id", "", "document id, e.g. the arXiv id (required)")
	extractCmd.Flags().StringVar(&extractTitle, "title", "", "document title")
	extractCmd.Flags().StringVarP(&extractOut, "out", "o", "documents.jsonl", "documents JSONL file to append to")
	_ = extractCmd.MarkFlagRequired("pdf")
	_ = extractCmd.MarkFlagRequired("id")
	rootCmd.AddCommand(extractCmd)
}

func runExtract(cmd *cobra.Command, _ []string) error {
	doc, err := getIngestService().ExtractPDF(cmd.Context(), extractPDF, extractID, extractTitle)
	if err != nil {
		return fmt.Errorf("extract failed: %w", err)
	}

	if err := corpus.AppendDocumentsFile(extractOut, []domain.Document{doc}); err != nil {
		return fmt.Errorf("write document: %w", err)
	}

	cmd.Printf("Extracted %s into %s (%d characters)\n", extractID, extractOut, len(doc.Text))
	return nil
}
