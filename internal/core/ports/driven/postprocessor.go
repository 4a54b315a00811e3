package driven

import (
	"context"

	"github.com/aoba-labs/lawdex/internal/core/domain"
)

// PostProcessor transforms a document into (or refines) chunks.
type PostProcessor interface {
	// Name returns the processor name for error reporting.
	Name() string

	// Process receives the document and the chunks produced so far.
	// The first processor in a pipeline receives nil chunks and creates them.
	Process(ctx context.Context, doc *domain.Document, chunks []domain.Chunk) ([]domain.Chunk, error)
}

// PostProcessorPipeline runs a document through an ordered processor chain.
type PostProcessorPipeline interface {
	Process(ctx context.Context, doc *domain.Document) ([]domain.Chunk, error)
}
