package driven

import (
	"context"

	"github.com/aoba-labs/lawdex/internal/core/domain"
)

// BuildInfo summarizes a completed index build.
type BuildInfo struct {
	// Name is the index name the build was written under.
	Name string

	// VectorCount is the number of vectors indexed.
	VectorCount int

	// Dimension is the vector dimension.
	Dimension int

	// DocumentsUploaded is the number of documents accepted by a remote
	// backend. Equals VectorCount for local backends.
	DocumentsUploaded int
}

// IndexBuilder persists chunks plus their embeddings into a searchable
// index. Implementations embed chunk contents through an EmbeddingService
// and must reject an empty chunk list with domain.ErrNoChunks.
type IndexBuilder interface {
	// Build creates or overwrites the named index from the chunk list.
	Build(ctx context.Context, name string, chunks []domain.Chunk) (*BuildInfo, error)
}

// VectorSearcher runs k-nearest-neighbour queries against a built index.
type VectorSearcher interface {
	// Search returns the k best hits for the query vector, ranked by
	// cosine similarity.
	Search(ctx context.Context, query []float32, k int) ([]domain.SearchResult, error)
}
