package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/aoba-labs/lawdex/internal/core/domain"
	"github.com/aoba-labs/lawdex/internal/core/ports/driven"
	"github.com/aoba-labs/lawdex/internal/core/ports/driving"
)

// Ensure QueryService implements the interface.
var _ driving.Querier = (*QueryService)(nil)

// QueryService answers text queries against a built local index.
type QueryService struct {
	embedder driven.EmbeddingService
	searcher driven.VectorSearcher
}

// NewQueryService creates a new query service.
func NewQueryService(embedder driven.EmbeddingService, searcher driven.VectorSearcher) *QueryService {
	return &QueryService{
		embedder: embedder,
		searcher: searcher,
	}
}

// Query embeds the text and runs a k-nearest-neighbour search.
func (s *QueryService) Query(ctx context.Context, text string, k int) ([]domain.SearchResult, error) {
	if strings.TrimSpace(text) == "" {
		return nil, fmt.Errorf("%w: empty query", domain.ErrInvalidInput)
	}
	if s.embedder == nil {
		return nil, domain.ErrEmbeddingUnavailable
	}
	if s.searcher == nil {
		return nil, domain.ErrIndexUnavailable
	}
	if k <= 0 {
		k = 5
	}

	vector, err := s.embedder.Embed(ctx, text)
	if err != nil {
		return nil, fmt.Errorf("embedding query: %w", err)
	}

	results, err := s.searcher.Search(ctx, vector, k)
	if err != nil {
		return nil, fmt.Errorf("searching index: %w", err)
	}
	return results, nil
}
