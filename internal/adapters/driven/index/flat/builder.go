package flat

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/aoba-labs/lawdex/internal/core/domain"
	"github.com/aoba-labs/lawdex/internal/core/ports/driven"
	"github.com/aoba-labs/lawdex/internal/logger"
)

var _ driven.IndexBuilder = (*Builder)(nil)

// Builder embeds chunks and writes the flat-index artifact triplet.
type Builder struct {
	embedder driven.EmbeddingService
	dir      string
}

// NewBuilder creates a builder writing artifacts under dir.
func NewBuilder(embedder driven.EmbeddingService, dir string) *Builder {
	return &Builder{embedder: embedder, dir: dir}
}

// Build embeds all chunk contents, L2-normalizes the vectors and persists
// the index, metadata and raw-embedding artifacts under name. An existing
// build of the same name is overwritten.
func (b *Builder) Build(ctx context.Context, name string, chunks []domain.Chunk) (*driven.BuildInfo, error) {
	if len(chunks) == 0 {
		return nil, fmt.Errorf("%w: cannot build index %q", domain.ErrNoChunks, name)
	}

	texts := make([]string, len(chunks))
	for i, c := range chunks {
		texts[i] = c.Content
	}

	logger.Info("embedding %d chunks for index %q", len(chunks), name)
	embeddings, err := b.embedder.EmbedBatch(ctx, texts)
	if err != nil {
		return nil, fmt.Errorf("embed chunks: %w", err)
	}
	if len(embeddings) != len(chunks) {
		return nil, fmt.Errorf("embedding count mismatch: %d chunks, %d vectors", len(chunks), len(embeddings))
	}

	dim := len(embeddings[0])
	for i, e := range embeddings {
		if len(e) != dim {
			return nil, fmt.Errorf("%w: vector %d has %d dimensions, expected %d",
				domain.ErrDimensionMismatch, i, len(e), dim)
		}
	}

	// Normalized copies go into the index; the raw rows are persisted
	// separately so the index can be rebuilt without re-embedding.
	vectors := make([]float32, 0, len(embeddings)*dim)
	for _, e := range embeddings {
		row := make([]float32, dim)
		copy(row, e)
		normalize(row)
		vectors = append(vectors, row...)
	}

	metadata := make([]map[string]any, len(chunks))
	for i, c := range chunks {
		metadata[i] = metadataRow(c)
	}

	if err := os.MkdirAll(b.dir, 0o755); err != nil {
		return nil, fmt.Errorf("create index dir: %w", err)
	}

	if err := writeVectors(filepath.Join(b.dir, name+indexSuffix), vectors, dim); err != nil {
		return nil, fmt.Errorf("write index: %w", err)
	}

	metaJSON, err := json.MarshalIndent(metadata, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshal metadata: %w", err)
	}
	if err := os.WriteFile(filepath.Join(b.dir, name+metadataSuffix), metaJSON, 0o644); err != nil {
		return nil, fmt.Errorf("write metadata: %w", err)
	}

	if err := writeEmbeddings(filepath.Join(b.dir, name+embeddingsSuffix), embeddings); err != nil {
		return nil, fmt.Errorf("write embeddings: %w", err)
	}

	logger.Info("index %q built: %d vectors, dimension %d", name, len(chunks), dim)

	return &driven.BuildInfo{
		Name:              name,
		VectorCount:       len(chunks),
		Dimension:         dim,
		DocumentsUploaded: len(chunks),
	}, nil
}

// metadataRow flattens a chunk into one metadata object: identity fields
// first, then the chunk's own metadata keys.
func metadataRow(c domain.Chunk) map[string]any {
	row := make(map[string]any, len(c.Metadata)+3)
	row["chunk_id"] = c.ChunkID
	row["source"] = c.Source
	row["content"] = c.Content
	for k, v := range c.Metadata {
		row[k] = v
	}
	return row
}
