package cli

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/aoba-labs/lawdex/internal/connectors/egov"
	"github.com/aoba-labs/lawdex/internal/core/services"
)

var (
	lawsDelay       time.Duration
	lawsMaxFetch    int
	lawsHealthCheck bool
	lawsNoStore     bool
)

var lawsCmd = &cobra.Command{
	Use:   "laws [law-id...]",
	Short: "Fetch statutes from the e-Gov law API",
	Long: `Fetches each law by its e-Gov identifier, extracts the operative
articles from the main provisions and stores one document per article.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runLaws,
}

func init() {
	lawsCmd.Flags().DurationVar(&lawsDelay, "delay", egov.DefaultRequestDelay, "delay between API requests")
	lawsCmd.Flags().IntVar(&lawsMaxFetch, "max-fetch", egov.DefaultMaxFetchCount, "fetch ceiling for this run")
	lawsCmd.Flags().BoolVar(&lawsHealthCheck, "health-check", false, "probe each law's display URL")
	lawsCmd.Flags().BoolVar(&lawsNoStore, "no-store", false, "print results without storing documents")
	rootCmd.AddCommand(lawsCmd)
}

func runLaws(cmd *cobra.Command, args []string) error {
	crawler := egov.NewCrawler(egov.Config{
		RequestDelay:  lawsDelay,
		MaxFetchCount: lawsMaxFetch,
		HealthCheck:   lawsHealthCheck,
	})

	results := crawler.FetchAll(cmd.Context(), args)

	articles := 0
	for _, r := range results {
		if r.Success {
			articles += len(r.Articles)
			cmd.Println(successStyle.Render(fmt.Sprintf("  %s: %s (%d articles)", r.LawID, r.LawName, len(r.Articles))))
		} else {
			cmd.Println(errorStyle.Render(fmt.Sprintf("  %s: %s", r.LawID, r.Error)))
		}
	}
	cmd.Println(mutedStyle.Render(fmt.Sprintf("Fetch quota remaining: %d", crawler.Remaining())))

	if lawsNoStore {
		return nil
	}

	docStore, err := openDocStore()
	if err != nil {
		return err
	}
	defer docStore.Close()

	ingest := services.NewIngestService(docStore, nil, nil)
	stored, err := ingest.StoreLawResults(cmd.Context(), results)
	if err != nil {
		return fmt.Errorf("storing documents: %w", err)
	}

	cmd.Println(successStyle.Render(fmt.Sprintf("Stored %d article documents (%d articles fetched)", stored, articles)))
	return nil
}
