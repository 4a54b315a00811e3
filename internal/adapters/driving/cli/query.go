package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/aoba-labs/lawdex/internal/adapters/driven/index/flat"
	"github.com/aoba-labs/lawdex/internal/core/services"
)

var (
	queryIndexName string
	queryIndexDir  string
	queryTopK      int
)

var queryCmd = &cobra.Command{
	Use:   "query [text]",
	Short: "Query a built local index",
	Args:  cobra.ExactArgs(1),
	RunE:  runQuery,
}

func init() {
	queryCmd.Flags().StringVar(&queryIndexName, "index", "index", "index name")
	queryCmd.Flags().StringVar(&queryIndexDir, "dir", "index", "directory holding the index artifacts")
	queryCmd.Flags().IntVarP(&queryTopK, "top", "k", 5, "number of results")
	rootCmd.AddCommand(queryCmd)
}

func runQuery(cmd *cobra.Command, args []string) error {
	cfg, err := openConfig()
	if err != nil {
		return err
	}

	embedder, err := newEmbedder(cfg)
	if err != nil {
		return err
	}
	defer embedder.Close()

	index, err := flat.Open(queryIndexDir, queryIndexName)
	if err != nil {
		return fmt.Errorf("opening index: %w", err)
	}

	querier := services.NewQueryService(embedder, index)
	results, err := querier.Query(cmd.Context(), args[0], queryTopK)
	if err != nil {
		return err
	}

	if len(results) == 0 {
		cmd.Println("No results found.")
		return nil
	}

	for i, r := range results {
		source, _ := r.Metadata["source"].(string)
		content, _ := r.Metadata["content"].(string)
		if len([]rune(content)) > 200 {
			content = string([]rune(content)[:200]) + "..."
		}

		cmd.Printf("  [%d] %s %s\n", i+1, scoreStyle.Render(fmt.Sprintf("%.4f", r.Score)), source)
		if content != "" {
			cmd.Println(mutedStyle.Render("      " + content))
		}
		cmd.Println()
	}
	return nil
}
