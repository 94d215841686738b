// Package cli implements the paperdex command-line interface using cobra.
// Commands construct the services they need from the loaded configuration;
// tests inject mock services through the package-level service variables.
package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/quillstone-labs/paperdex-cli/internal/adapters/driven/arxiv"
	"github.com/quillstone-labs/paperdex-cli/internal/adapters/driven/embedding"
	"github.com/quillstone-labs/paperdex-cli/internal/adapters/driven/index"
	"github.com/quillstone-labs/paperdex-cli/internal/adapters/driven/pdftext"
	"github.com/quillstone-labs/paperdex-cli/internal/core/domain"
	"github.com/quillstone-labs/paperdex-cli/internal/core/ports/driving"
	"github.com/quillstone-labs/paperdex-cli/internal/core/services"
	"github.com/quillstone-labs/paperdex-cli/internal/logger"

	configfile "github.com/quillstone-labs/paperdex-cli/internal/adapters/driven/config/file"
)

// version is set at build time via -ldflags.
var version = "dev"

// Services used by commands. Left nil in production and constructed
// per command from the configuration; tests assign mocks directly.
var (
	searchService driving.SearchService
	indexService  driving.IndexService
	evalService   driving.EvalService
	ingestService driving.IngestService
)

var (
	flagVerbose    bool
	flagConfigPath string
	flagIndexDir   string
)

var rootCmd = &cobra.Command{
	Use:   "paperdex",
	Short: "Semantic search over a corpus of academic papers",
	Long: `paperdex indexes academic papers and retrieves the passages most
relevant to a natural-language query.

The pipeline runs in stages, each with its own command:
  ingest   fetch paper metadata from arXiv into a documents file
  extract  add a local PDF's text to the documents file
  chunk    split documents into overlapping retrievable chunks
  index    embed chunks and build the searchable vector index
  search   answer top-k queries against the index
  eval     measure retrieval quality against labelled queries

Stage boundaries are JSONL files, so stages can run independently
and at different times.`,
	SilenceUsage: true,
	PersistentPreRun: func(_ *cobra.Command, _ []string) {
		logger.SetVerbose(flagVerbose)
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&flagVerbose, "verbose", "v", false, "enable debug logging to stderr")
	rootCmd.PersistentFlags().StringVar(&flagConfigPath, "config", "", "config file path (default ~/.paperdex/config.toml)")
	rootCmd.PersistentFlags().StringVar(&flagIndexDir, "index-dir", "", "index directory (overrides config)")
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

// resolveConfigPath returns the --config flag value or the default
// location under the user's home directory.
func resolveConfigPath() (string, error) {
	if flagConfigPath != "" {
		return flagConfigPath, nil
	}
	return configfile.DefaultPath()
}

// loadConfig loads the effective configuration and applies the
// --index-dir override.
func loadConfig() (domain.Config, error) {
	path, err := resolveConfigPath()
	if err != nil {
		return domain.Config{}, err
	}

	cfg, err := configfile.Load(path)
	if err != nil {
		return domain.Config{}, err
	}

	if flagIndexDir != "" {
		cfg.IndexLocation = flagIndexDir
	}
	return cfg, nil
}

// noopCleanup is returned with injected test services, which own their
// own lifecycle.
func noopCleanup() {}

// getIndexService returns the index service and a cleanup function the
// caller must run when done.
func getIndexService() (driving.IndexService, func(), error) {
	if indexService != nil {
		return indexService, noopCleanup, nil
	}

	cfg, err := loadConfig()
	if err != nil {
		return nil, nil, err
	}

	provider, err := embedding.NewService(cfg)
	if err != nil {
		return nil, nil, err
	}

	svc := services.NewIndexService(provider, index.NewStore(), cfg)
	cleanup := func() {
		if err := provider.Close(); err != nil {
			logger.Warn("Closing embedding provider: %v", err)
		}
	}
	return svc, cleanup, nil
}

// getSearchService opens the persisted index and returns a search
// service over it, with a cleanup function the caller must run.
func getSearchService(ctx context.Context) (driving.SearchService, func(), error) {
	if searchService != nil {
		return searchService, noopCleanup, nil
	}

	cfg, err := loadConfig()
	if err != nil {
		return nil, nil, err
	}

	provider, err := embedding.NewService(cfg)
	if err != nil {
		return nil, nil, err
	}

	indexSvc := services.NewIndexService(provider, index.NewStore(), cfg)
	idx, meta, err := indexSvc.Open(ctx)
	if err != nil {
		provider.Close()
		return nil, nil, fmt.Errorf("open index: %w", err)
	}

	svc := services.NewSearchService(provider, idx, meta, cfg.IndexLocation)
	cleanup := func() {
		if err := meta.Close(); err != nil {
			logger.Warn("Closing metadata sidecar: %v", err)
		}
		if err := provider.Close(); err != nil {
			logger.Warn("Closing embedding provider: %v", err)
		}
	}
	return svc, cleanup, nil
}

// getEvalService returns the evaluation service and a cleanup function.
func getEvalService(ctx context.Context) (driving.EvalService, func(), error) {
	if evalService != nil {
		return evalService, noopCleanup, nil
	}

	search, cleanup, err := getSearchService(ctx)
	if err != nil {
		return nil, nil, err
	}
	return services.NewEvalService(search), cleanup, nil
}

// getIngestService returns the ingestion service. It holds no
// resources, so there is no cleanup.
func getIngestService() driving.IngestService {
	if ingestService != nil {
		return ingestService
	}
	return services.NewIngestService(arxiv.NewClient(arxiv.Config{}), pdftext.NewExtractor())
}
