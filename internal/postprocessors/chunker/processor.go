package chunker

import (
	"context"

	"github.com/aoba-labs/lawdex/internal/core/domain"
)

// Processor adapts SemanticChunker to the PostProcessor interface.
type Processor struct {
	chunker *SemanticChunker
}

// NewProcessor creates a chunking processor with the given options.
func NewProcessor(opts ...Option) *Processor {
	return &Processor{chunker: New(opts...)}
}

// Name returns the processor name.
func (p *Processor) Name() string {
	return "semantic_chunker"
}

// Process splits the document content into chunks. Input chunks are
// ignored; this processor creates chunks from document content.
func (p *Processor) Process(_ context.Context, doc *domain.Document, _ []domain.Chunk) ([]domain.Chunk, error) {
	if doc.Content == "" {
		return nil, nil
	}

	source := doc.Source
	if source == "" {
		source = doc.ID
	}

	base := make(map[string]any, len(doc.Metadata))
	for k, v := range doc.Metadata {
		base[k] = v
	}
	if doc.Title != "" {
		base["title"] = doc.Title
	}

	return p.chunker.Chunk(doc.Content, source, base), nil
}
