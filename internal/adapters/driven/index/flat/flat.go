// Package flat implements a local flat vector index: exact inner-product
// search over L2-normalized embeddings, persisted as an aligned artifact
// triplet (index file, metadata JSON, raw embeddings).
package flat

import (
	"context"
	"encoding/binary"
	"encoding/json"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"sort"

	"github.com/aoba-labs/lawdex/internal/core/domain"
	"github.com/aoba-labs/lawdex/internal/core/ports/driven"
)

// Ensure the interface bindings hold.
var _ driven.VectorSearcher = (*Index)(nil)

// vecMagic identifies the index file format.
var vecMagic = [8]byte{'L', 'W', 'D', 'X', 'V', 'E', 'C', '1'}

// Artifact name suffixes alongside the index file.
const (
	metadataSuffix   = "_metadata.json"
	embeddingsSuffix = "_embeddings.f32"
	indexSuffix      = ".vec"
)

// Index is an in-memory flat index loaded from (or about to be written to)
// the artifact triplet. Vectors are stored normalized, row-major.
type Index struct {
	dim      int
	vectors  []float32
	metadata []map[string]any
}

// VectorCount returns the number of indexed vectors.
func (ix *Index) VectorCount() int {
	if ix.dim == 0 {
		return 0
	}
	return len(ix.vectors) / ix.dim
}

// Dimension returns the vector dimension.
func (ix *Index) Dimension() int {
	return ix.dim
}

// Open loads a previously built index named name from dir.
func Open(dir, name string) (*Index, error) {
	vectors, dim, err := readVectors(filepath.Join(dir, name+indexSuffix))
	if err != nil {
		return nil, err
	}

	metaPath := filepath.Join(dir, name+metadataSuffix)
	raw, err := os.ReadFile(metaPath)
	if err != nil {
		return nil, fmt.Errorf("read metadata: %w", err)
	}
	var metadata []map[string]any
	if err := json.Unmarshal(raw, &metadata); err != nil {
		return nil, fmt.Errorf("parse metadata: %w", err)
	}

	return &Index{dim: dim, vectors: vectors, metadata: metadata}, nil
}

// Search runs an exact k-nearest-neighbour query. The query vector is
// normalized the same way as the stored vectors, so inner product equals
// cosine similarity. Results are zipped with metadata rows by position;
// an index with no matching metadata row is skipped.
func (ix *Index) Search(ctx context.Context, query []float32, k int) ([]domain.SearchResult, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if len(query) != ix.dim {
		return nil, fmt.Errorf("%w: query has %d dimensions, index has %d",
			domain.ErrDimensionMismatch, len(query), ix.dim)
	}
	if k <= 0 {
		k = 5
	}

	q := make([]float32, len(query))
	copy(q, query)
	normalize(q)

	type hit struct {
		idx   int
		score float32
	}

	n := ix.VectorCount()
	hits := make([]hit, 0, n)
	for i := 0; i < n; i++ {
		row := ix.vectors[i*ix.dim : (i+1)*ix.dim]
		var dot float32
		for j, v := range row {
			dot += v * q[j]
		}
		hits = append(hits, hit{idx: i, score: dot})
	}

	sort.Slice(hits, func(a, b int) bool { return hits[a].score > hits[b].score })
	if k < len(hits) {
		hits = hits[:k]
	}

	results := make([]domain.SearchResult, 0, len(hits))
	for _, h := range hits {
		if h.idx < 0 || h.idx >= len(ix.metadata) {
			continue
		}
		results = append(results, domain.SearchResult{
			Score:    h.score,
			Metadata: ix.metadata[h.idx],
		})
	}
	return results, nil
}

// normalize scales v to unit L2 norm in place. Zero vectors are left as-is.
func normalize(v []float32) {
	var sum float64
	for _, x := range v {
		sum += float64(x) * float64(x)
	}
	norm := math.Sqrt(sum)
	if norm == 0 {
		return
	}
	inv := float32(1 / norm)
	for i := range v {
		v[i] *= inv
	}
}

// writeVectors persists the normalized vectors with a small header:
// magic, count, dimension, then row-major little-endian float32 data.
func writeVectors(path string, vectors []float32, dim int) error {
	count := 0
	if dim > 0 {
		count = len(vectors) / dim
	}

	buf := make([]byte, 0, len(vecMagic)+8+len(vectors)*4)
	buf = append(buf, vecMagic[:]...)
	buf = binary.LittleEndian.AppendUint32(buf, uint32(count))
	buf = binary.LittleEndian.AppendUint32(buf, uint32(dim))
	for _, v := range vectors {
		buf = binary.LittleEndian.AppendUint32(buf, math.Float32bits(v))
	}

	return os.WriteFile(path, buf, 0o644)
}

func readVectors(path string) ([]float32, int, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, 0, fmt.Errorf("read index: %w", err)
	}
	if len(raw) < len(vecMagic)+8 {
		return nil, 0, fmt.Errorf("index file too short: %s", path)
	}
	for i, b := range vecMagic {
		if raw[i] != b {
			return nil, 0, fmt.Errorf("not an index file: %s", path)
		}
	}

	count := int(binary.LittleEndian.Uint32(raw[8:12]))
	dim := int(binary.LittleEndian.Uint32(raw[12:16]))
	data := raw[16:]
	if len(data) != count*dim*4 {
		return nil, 0, fmt.Errorf("index file truncated: want %d floats, have %d bytes", count*dim, len(data))
	}

	vectors := make([]float32, count*dim)
	for i := range vectors {
		bits := binary.LittleEndian.Uint32(data[i*4 : i*4+4])
		vectors[i] = math.Float32frombits(bits)
	}
	return vectors, dim, nil
}

// writeEmbeddings persists the raw (pre-normalization) float32 rows with no
// header, row-major little-endian.
func writeEmbeddings(path string, embeddings [][]float32) error {
	var total int
	for _, row := range embeddings {
		total += len(row)
	}
	buf := make([]byte, 0, total*4)
	for _, row := range embeddings {
		for _, v := range row {
			buf = binary.LittleEndian.AppendUint32(buf, math.Float32bits(v))
		}
	}
	return os.WriteFile(path, buf, 0o644)
}
