package driven

import (
	"context"

	"github.com/aoba-labs/lawdex/internal/core/domain"
)

// DocumentStore persists extracted documents between crawling and indexing.
type DocumentStore interface {
	// Save stores or updates a document. Documents are keyed by source, so
	// re-crawling a URL replaces the previous record.
	Save(ctx context.Context, doc domain.Document) error

	// Get retrieves a document by ID. Returns domain.ErrNotFound if absent.
	Get(ctx context.Context, id string) (*domain.Document, error)

	// List returns all stored documents in insertion order.
	List(ctx context.Context) ([]domain.Document, error)

	// DeleteBySource removes all documents for a source.
	DeleteBySource(ctx context.Context, source string) error

	// Count returns the number of stored documents.
	Count(ctx context.Context) (int, error)
}
