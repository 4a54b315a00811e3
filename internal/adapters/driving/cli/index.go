package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/aoba-labs/lawdex/internal/adapters/driven/index/azure"
	"github.com/aoba-labs/lawdex/internal/adapters/driven/index/flat"
	"github.com/aoba-labs/lawdex/internal/core/ports/driven"
	"github.com/aoba-labs/lawdex/internal/core/services"
	"github.com/aoba-labs/lawdex/internal/postprocessors"
	"github.com/aoba-labs/lawdex/internal/postprocessors/chunker"
)

var (
	indexBackend       string
	indexDir           string
	indexMaxTokens     int
	indexOverlapTokens int
	indexAzureRecreate bool
)

var indexCmd = &cobra.Command{
	Use:   "index [name]",
	Short: "Chunk stored documents and build a vector index",
	Long: `Runs every stored document through the semantic chunker, embeds the
chunks and builds the named index. The local backend writes an index file,
a metadata JSON array and a raw embedding array next to each other; the
azure backend uploads documents to an Azure AI Search index.`,
	Args: cobra.ExactArgs(1),
	RunE: runIndex,
}

func init() {
	indexCmd.Flags().StringVar(&indexBackend, "backend", "local", "index backend: local or azure")
	indexCmd.Flags().StringVar(&indexDir, "dir", "index", "output directory for local index artifacts")
	indexCmd.Flags().IntVar(&indexMaxTokens, "max-tokens", chunker.DefaultMaxTokens, "token budget per chunk")
	indexCmd.Flags().IntVar(&indexOverlapTokens, "overlap-tokens", chunker.DefaultOverlapTokens, "token overlap between chunks")
	indexCmd.Flags().BoolVar(&indexAzureRecreate, "recreate", false, "recreate the azure index before upload")
	rootCmd.AddCommand(indexCmd)
}

func runIndex(cmd *cobra.Command, args []string) error {
	name := args[0]

	cfg, err := openConfig()
	if err != nil {
		return err
	}

	embedder, err := newEmbedder(cfg)
	if err != nil {
		return err
	}
	defer embedder.Close()

	var builder driven.IndexBuilder
	switch indexBackend {
	case "local":
		builder = flat.NewBuilder(embedder, indexDir)
	case "azure":
		builder, err = azure.NewBuilder(embedder, azure.Config{
			Endpoint:   cfg.GetString("azure.endpoint"),
			APIKey:     cfg.GetString("azure.api_key"),
			Dimensions: embedder.Dimensions(),
			Recreate:   indexAzureRecreate,
		})
		if err != nil {
			return err
		}
	default:
		return fmt.Errorf("unknown backend %q (want local or azure)", indexBackend)
	}

	docStore, err := openDocStore()
	if err != nil {
		return err
	}
	defer docStore.Close()

	pipeline := postprocessors.NewPipeline(chunker.NewProcessor(
		chunker.WithMaxTokens(indexMaxTokens),
		chunker.WithOverlapTokens(indexOverlapTokens),
	))

	ingest := services.NewIngestService(docStore, pipeline, builder)
	info, err := ingest.BuildIndex(cmd.Context(), name)
	if err != nil {
		return fmt.Errorf("building index: %w", err)
	}

	cmd.Println(titleStyle.Render("Index built"))
	cmd.Printf("  name:      %s\n", info.Name)
	cmd.Printf("  vectors:   %d\n", info.VectorCount)
	cmd.Printf("  dimension: %d\n", info.Dimension)
	if indexBackend == "azure" {
		if info.DocumentsUploaded < info.VectorCount {
			cmd.Println(warningStyle.Render(fmt.Sprintf("  uploaded:  %d of %d", info.DocumentsUploaded, info.VectorCount)))
		} else {
			cmd.Printf("  uploaded:  %d\n", info.DocumentsUploaded)
		}
	}
	return nil
}
