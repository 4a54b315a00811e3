package cli

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/aoba-labs/lawdex/internal/connectors/web"
	"github.com/aoba-labs/lawdex/internal/core/domain"
	"github.com/aoba-labs/lawdex/internal/core/services"
)

var (
	crawlPathPrefixes []string
	crawlDomains      []string
	crawlMaxURLs      int
	crawlMaxDepth     int
	crawlMaxPDFMB     float64
	crawlDelay        time.Duration
	crawlNoStore      bool
)

var crawlCmd = &cobra.Command{
	Use:   "crawl [seed-url...]",
	Short: "Crawl web pages and PDFs into the document store",
	Long: `Crawls the given seed URLs breadth-first, extracting text from HTML
pages and PDFs. Crawling stays within the seed domains (or an explicit
domain allow-list) and respects a polite per-request delay.

With no arguments, seed URLs are read from the crawl.seeds key of the
config file.`,
	Args: cobra.ArbitraryArgs,
	RunE: runCrawl,
}

func init() {
	crawlCmd.Flags().StringSliceVar(&crawlPathPrefixes, "path-prefix", nil, "restrict crawling to these URL path prefixes")
	crawlCmd.Flags().StringSliceVar(&crawlDomains, "domain", nil, "additional allowed domains")
	crawlCmd.Flags().IntVar(&crawlMaxURLs, "max-urls", domain.DefaultMaxURLs, "maximum URLs to fetch")
	crawlCmd.Flags().IntVar(&crawlMaxDepth, "max-depth", domain.DefaultMaxDepth, "maximum link depth from seeds")
	crawlCmd.Flags().Float64Var(&crawlMaxPDFMB, "max-pdf-mb", domain.DefaultMaxPDFMB, "maximum PDF size in megabytes")
	crawlCmd.Flags().DurationVar(&crawlDelay, "delay", domain.DefaultRequestDelay, "delay between requests")
	crawlCmd.Flags().BoolVar(&crawlNoStore, "no-store", false, "print stats without storing documents")
	rootCmd.AddCommand(crawlCmd)
}

func runCrawl(cmd *cobra.Command, args []string) error {
	cfg := domain.DefaultCrawlConfig()
	cfg.SeedURLs = args
	cfg.AllowedPathPrefixes = crawlPathPrefixes
	cfg.AllowedDomains = crawlDomains
	cfg.MaxURLs = crawlMaxURLs
	cfg.MaxDepth = crawlMaxDepth
	cfg.MaxPDFMB = crawlMaxPDFMB
	cfg.RequestDelay = crawlDelay

	applyCrawlConfigDefaults(cmd, &cfg)

	if len(cfg.SeedURLs) == 0 {
		return fmt.Errorf("no seed URLs given and crawl.seeds is not configured")
	}

	crawler := web.NewCrawler()
	results := crawler.Crawl(cmd.Context(), cfg)

	stats := crawler.Stats()
	cmd.Println(titleStyle.Render("Crawl complete"))
	cmd.Printf("  attempted: %d\n", stats.URLsAttempted)
	cmd.Println(successStyle.Render(fmt.Sprintf("  success:   %d", stats.URLsSuccess)))
	if stats.URLsFailed > 0 {
		cmd.Println(errorStyle.Render(fmt.Sprintf("  failed:    %d", stats.URLsFailed)))
	}
	if stats.URLsSkipped > 0 {
		cmd.Println(mutedStyle.Render(fmt.Sprintf("  skipped:   %d", stats.URLsSkipped)))
	}

	if crawlNoStore {
		return nil
	}

	docStore, err := openDocStore()
	if err != nil {
		return err
	}
	defer docStore.Close()

	ingest := services.NewIngestService(docStore, nil, nil)
	stored, err := ingest.StoreCrawlResults(cmd.Context(), results)
	if err != nil {
		return fmt.Errorf("storing documents: %w", err)
	}

	cmd.Println(successStyle.Render(fmt.Sprintf("Stored %d documents", stored)))
	return nil
}

// applyCrawlConfigDefaults overlays config-file values for flags the user
// did not set explicitly.
func applyCrawlConfigDefaults(cmd *cobra.Command, cfg *domain.CrawlConfig) {
	store, err := openConfig()
	if err != nil {
		return
	}

	if !cmd.Flags().Changed("max-urls") {
		if v := store.GetInt("crawl.max_urls"); v > 0 {
			cfg.MaxURLs = v
		}
	}
	if !cmd.Flags().Changed("max-depth") {
		if _, ok := store.Get("crawl.max_depth"); ok {
			cfg.MaxDepth = store.GetInt("crawl.max_depth")
		}
	}
	if !cmd.Flags().Changed("max-pdf-mb") {
		if v := store.GetFloat("crawl.max_pdf_mb"); v > 0 {
			cfg.MaxPDFMB = v
		}
	}
	if !cmd.Flags().Changed("delay") {
		if v := store.GetFloat("crawl.request_delay"); v > 0 {
			cfg.RequestDelay = time.Duration(v * float64(time.Second))
		}
	}
	if ua := store.GetString("crawl.user_agent"); ua != "" {
		cfg.UserAgent = ua
	}
	if !cmd.Flags().Changed("path-prefix") {
		if prefixes := store.GetStringSlice("crawl.path_prefixes"); len(prefixes) > 0 {
			cfg.AllowedPathPrefixes = prefixes
		}
	}
	if len(cfg.SeedURLs) == 0 {
		cfg.SeedURLs = store.GetStringSlice("crawl.seeds")
	}
}
