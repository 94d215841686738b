package cli

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/quillstone-labs/paperdex-cli/internal/core/domain"
)

var (
	searchK         int
	searchMaxPerDoc int
	searchJSON      bool
)

var searchCmd = &cobra.Command{
	Use:   "search [query]",
	Short: "Search the indexed papers",
	Long: `Retrieves the chunks most similar to a natural-language query.
The query is embedded with the configured model and ranked against the
persisted vector index; results carry the chunk text and paper metadata.`,
	Args: cobra.ExactArgs(1),
	RunE: runSearch,
}

func init() {
	searchCmd.Flags().IntVarP(&searchK, "top-k", "k", 5, "maximum number of results")
	searchCmd.Flags().IntVar(&searchMaxPerDoc, "max-per-doc", 0, "max chunks per paper in results (0 = unlimited)")
	searchCmd.Flags().BoolVar(&searchJSON, "json", false, "output the result envelope as JSON")
	rootCmd.AddCommand(searchCmd)
}

func runSearch(cmd *cobra.Command, args []string) error {
	query := args[0]
	ctx := cmd.Context()

	search, cleanup, err := getSearchService(ctx)
	if err != nil {
		return err
	}
	defer cleanup()

	opts := domain.SearchOptions{
		K:              searchK,
		MaxPerDocument: searchMaxPerDoc,
	}

	if searchJSON {
		sc, err := search.SearchContext(ctx, query, opts)
		if err != nil {
			return fmt.Errorf("search failed: %w", err)
		}
		return outputJSON(cmd, sc)
	}

	results, err := search.Search(ctx, query, opts)
	if err != nil {
		return fmt.Errorf("search failed: %w", err)
	}
	return outputSearchTable(cmd, results)
}

func outputJSON(cmd *cobra.Command, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal output: %w", err)
	}
	cmd.Println(string(data))
	return nil
}

func outputSearchTable(cmd *cobra.Command, results []domain.SearchResult) error {
	if len(results) == 0 {
		cmd.Println("No results found.")
		return nil
	}

	cmd.Println("Results:")
	cmd.Println()
	for i := range results {
		title := results[i].Title
		if title == "" {
			title = results[i].DocumentID
		}

		cmd.Printf("  [%d] %s (%.4f)\n", i+1, title, results[i].Score)
		cmd.Printf("      Paper: %s, chunk %d\n", results[i].DocumentID, results[i].SequenceIndex)
		if snippet := makeSnippet(results[i].Text, 160); snippet != "" {
			cmd.Printf("      %s\n", snippet)
		}
		cmd.Println()
	}
	return nil
}

// makeSnippet flattens and truncates chunk text for one-line display.
func makeSnippet(text string, limit int) string {
	runes := []rune(text)
	out := make([]rune, 0, len(runes))
	for _, r := range runes {
		if r == '\n' || r == '\t' || r == '\r' {
			r = ' '
		}
		out = append(out, r)
	}
	if len(out) > limit {
		return string(out[:limit]) + "..."
	}
	return string(out)
}
