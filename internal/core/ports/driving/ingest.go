package driving

import (
	"context"

	"github.com/aoba-labs/lawdex/internal/core/domain"
	"github.com/aoba-labs/lawdex/internal/core/ports/driven"
)

// Ingestor stores crawl output and turns stored documents into an index.
type Ingestor interface {
	// StoreCrawlResults converts successful crawl results into documents
	// and persists them. Returns the number of documents stored.
	StoreCrawlResults(ctx context.Context, results []domain.CrawlResult) (int, error)

	// StoreLawResults converts successful law fetches into one document per
	// article and persists them. Returns the number of documents stored.
	StoreLawResults(ctx context.Context, results []domain.LawResult) (int, error)

	// BuildIndex chunks all stored documents and builds the named index.
	BuildIndex(ctx context.Context, name string) (*driven.BuildInfo, error)
}

// Querier answers k-nearest-neighbour queries over a built local index.
type Querier interface {
	// Query embeds the text and returns the k best-matching chunks.
	Query(ctx context.Context, text string, k int) ([]domain.SearchResult, error)
}
