// Package cli implements the lawdex command line interface.
package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/aoba-labs/lawdex/internal/adapters/driven/config/file"
	"github.com/aoba-labs/lawdex/internal/adapters/driven/embedding/openai"
	"github.com/aoba-labs/lawdex/internal/adapters/driven/storage/sqlite"
	"github.com/aoba-labs/lawdex/internal/logger"
)

// version is set at build time via ldflags.
var version = "dev"

var (
	flagVerbose   bool
	flagConfigDir string
	flagDataDir   string
)

var rootCmd = &cobra.Command{
	Use:   "lawdex",
	Short: "Crawl, chunk and index legal documents for retrieval",
	Long: `lawdex ingests web pages, PDFs and government statute data,
splits them into retrieval-ready chunks and builds vector indexes
for RAG consumers.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRun: func(_ *cobra.Command, _ []string) {
		logger.SetVerbose(flagVerbose)
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&flagVerbose, "verbose", "v", false, "enable verbose logging")
	rootCmd.PersistentFlags().StringVar(&flagConfigDir, "config-dir", "", "config directory (default ~/.lawdex)")
	rootCmd.PersistentFlags().StringVar(&flagDataDir, "data-dir", "", "data directory (default ~/.lawdex/data)")
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, errorStyle.Render("Error: "+err.Error()))
		os.Exit(1)
	}
}

// SetVersion overrides the reported version, for build-time injection.
func SetVersion(v string) {
	if v != "" {
		version = v
	}
}

// openConfig loads the TOML config store.
func openConfig() (*file.ConfigStore, error) {
	store, err := file.NewConfigStore(flagConfigDir)
	if err != nil {
		return nil, fmt.Errorf("opening config: %w", err)
	}
	return store, nil
}

// openDocStore opens the SQLite document store.
func openDocStore() (*sqlite.Store, error) {
	store, err := sqlite.NewStore(flagDataDir)
	if err != nil {
		return nil, fmt.Errorf("opening document store: %w", err)
	}
	return store, nil
}

// newEmbedder builds the OpenAI embedding service from config, with the
// environment taking precedence for the API key.
func newEmbedder(cfg *file.ConfigStore) (*openai.EmbeddingService, error) {
	apiKey := os.Getenv("OPENAI_API_KEY")
	if apiKey == "" {
		apiKey = cfg.GetString("embedding.api_key")
	}
	if apiKey == "" {
		return nil, fmt.Errorf("no OpenAI API key: set OPENAI_API_KEY or embedding.api_key")
	}

	return openai.NewEmbeddingService(openai.Config{
		APIKey:  apiKey,
		BaseURL: cfg.GetString("embedding.base_url"),
		Model:   cfg.GetString("embedding.model"),
	})
}
