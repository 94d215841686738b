package cli

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/quillstone-labs/paperdex-cli/internal/corpus"
	"github.com/quillstone-labs/paperdex-cli/internal/core/services"
)

var (
	evalFile    string
	evalCutoffs string
	evalJSON    bool
	evalInitOut string
)

var evalCmd = &cobra.Command{
	Use:   "eval",
	Short: "Measure retrieval quality",
	Long: `Runs a labelled query set against the index and reports mean
recall@k and precision@k per cutoff. The query file is JSONL, one
query per line:

  {"query": "...", "relevant_document_ids": ["2401.12345"]}

Use "eval init" to write a starter file to copy and edit.`,
	RunE: runEval,
}

var evalInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Write a starter labelled query file",
	RunE:  runEvalInit,
}

func init() {
	evalCmd.Flags().StringVarP(&evalFile, "file", "f", "eval.jsonl", "labelled queries JSONL file")
	evalCmd.Flags().StringVar(&evalCutoffs, "k", "", "comma-separated cutoffs (default 1,3,5,10)")
	evalCmd.Flags().BoolVar(&evalJSON, "json", false, "output the report as JSON")
	evalInitCmd.Flags().StringVarP(&evalInitOut, "out", "o", "eval.jsonl", "output file")
	evalCmd.AddCommand(evalInitCmd)
	rootCmd.AddCommand(evalCmd)
}

// parseCutoffs turns "1,3,5" into cutoff values; empty means the
// default set.
func parseCutoffs(s string) ([]int, error) {
	if strings.TrimSpace(s) == "" {
		return services.DefaultEvalCutoffs, nil
	}

	parts := strings.Split(s, ",")
	ks := make([]int, 0, len(parts))
	for _, part := range parts {
		k, err := strconv.Atoi(strings.TrimSpace(part))
		if err != nil {
			return nil, fmt.Errorf("invalid cutoff %q: %w", part, err)
		}
		ks = append(ks, k)
	}
	return ks, nil
}

func runEval(cmd *cobra.Command, _ []string) error {
	ks, err := parseCutoffs(evalCutoffs)
	if err != nil {
		return err
	}

	queries, err := corpus.ReadEvalQueriesFile(evalFile)
	if err != nil {
		return fmt.Errorf("read queries: %w", err)
	}

	ctx := cmd.Context()
	svc, cleanup, err := getEvalService(ctx)
	if err != nil {
		return err
	}
	defer cleanup()

	report, err := svc.Run(ctx, queries, ks)
	if err != nil {
		return fmt.Errorf("evaluation failed: %w", err)
	}

	if evalJSON {
		return outputJSON(cmd, report)
	}

	cmd.Printf("Evaluated %d queries:\n", report.Queries)
	for _, m := range report.Metrics {
		cmd.Printf("  k=%-3d recall %.4f  precision %.4f\n", m.K, m.Recall, m.Precision)
	}
	return nil
}

func runEvalInit(cmd *cobra.Command, _ []string) error {
	if err := corpus.WriteEvalQueriesFile(evalInitOut, services.SeedQueries()); err != nil {
		return fmt.Errorf("write seed queries: %w", err)
	}
	cmd.Printf("Wrote seed queries to %s; edit the relevant ids to match your corpus.\n", evalInitOut)
	return nil
}
