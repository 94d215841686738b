package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/quillstone-labs/paperdex-cli/internal/core/domain"

	configfile "github.com/quillstone-labs/paperdex-cli/internal/adapters/driven/config/file"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage configuration",
	Long: `Inspects and initialises the paperdex configuration file.
Values not present in the file fall back to defaults; PAPERDEX_*
environment variables override both.`,
	RunE: runConfigShow,
}

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Write a config file with the default values",
	RunE:  runConfigInit,
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show the effective configuration",
	RunE:  runConfigShow,
}

var configPathCmd = &cobra.Command{
	Use:   "path",
	Short: "Print the config file path",
	RunE:  runConfigPath,
}

func init() {
	configCmd.AddCommand(configInitCmd)
	configCmd.AddCommand(configShowCmd)
	configCmd.AddCommand(configPathCmd)
	rootCmd.AddCommand(configCmd)
}

func runConfigInit(cmd *cobra.Command, _ []string) error {
	path, err := resolveConfigPath()
	if err != nil {
		return err
	}

	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("config file already exists at %s", path)
	}

	cfg := domain.DefaultConfig()
	if err := configfile.Save(path, cfg); err != nil {
		return err
	}

	cmd.Printf("Wrote default configuration to %s\n", path)
	return nil
}

func runConfigShow(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	cmd.Printf("  window_size:                        %d\n", cfg.WindowSize)
	cmd.Printf("  overlap:                            %d\n", cfg.Overlap)
	cmd.Printf("  chunk_unit:                         %s\n", cfg.ChunkUnit)
	cmd.Printf("  embedding_model_id:                 %s\n", cfg.EmbeddingModelID)
	cmd.Printf("  embedding_batch_size:               %d\n", cfg.EmbeddingBatchSize)
	cmd.Printf("  distance_metric:                    %s\n", cfg.DistanceMetric)
	cmd.Printf("  max_chunks_per_document_in_results: %d\n", cfg.MaxChunksPerDocumentInResults)
	cmd.Printf("  index_location:                     %s\n", cfg.IndexLocation)
	return nil
}

func runConfigPath(cmd *cobra.Command, _ []string) error {
	path, err := resolveConfigPath()
	if err != nil {
		return err
	}
	cmd.Println(path)
	return nil
}
