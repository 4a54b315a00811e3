package flat

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aoba-labs/lawdex/internal/core/domain"
)

// fakeEmbedder maps each text to a fixed vector so tests stay deterministic.
type fakeEmbedder struct {
	vectors map[string][]float32
	dim     int
}

func (f *fakeEmbedder) Embed(_ context.Context, text string) ([]float32, error) {
	return f.vectors[text], nil
}

func (f *fakeEmbedder) EmbedBatch(_ context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))
	for i, t := range texts {
		out[i] = f.vectors[t]
	}
	return out, nil
}

func (f *fakeEmbedder) Dimensions() int            { return f.dim }
func (f *fakeEmbedder) ModelName() string          { return "fake" }
func (f *fakeEmbedder) Ping(context.Context) error { return nil }
func (f *fakeEmbedder) Close() error               { return nil }

func testChunks() ([]domain.Chunk, *fakeEmbedder) {
	chunks := []domain.Chunk{
		{ChunkID: "c0", Source: "https://example.com/a", Content: "alpha", Metadata: map[string]any{"chunk_index": 0}},
		{ChunkID: "c1", Source: "https://example.com/a", Content: "beta", Metadata: map[string]any{"chunk_index": 1}},
		{ChunkID: "c2", Source: "https://example.com/b", Content: "gamma", Metadata: map[string]any{"chunk_index": 0}},
	}
	emb := &fakeEmbedder{
		dim: 3,
		vectors: map[string][]float32{
			"alpha": {1, 0, 0},
			"beta":  {0, 2, 0},
			"gamma": {0, 0, 0.5},
		},
	}
	return chunks, emb
}

func TestBuild_WritesArtifactTriplet(t *testing.T) {
	dir := t.TempDir()
	chunks, emb := testChunks()

	info, err := NewBuilder(emb, dir).Build(context.Background(), "laws", chunks)
	require.NoError(t, err)

	assert.Equal(t, "laws", info.Name)
	assert.Equal(t, 3, info.VectorCount)
	assert.Equal(t, 3, info.Dimension)
	assert.Equal(t, 3, info.DocumentsUploaded)

	for _, name := range []string{"laws.vec", "laws_metadata.json", "laws_embeddings.f32"} {
		_, err := os.Stat(filepath.Join(dir, name))
		assert.NoError(t, err, name)
	}

	// Raw embeddings file has no header: 3 rows of 3 float32s.
	raw, err := os.ReadFile(filepath.Join(dir, "laws_embeddings.f32"))
	require.NoError(t, err)
	assert.Len(t, raw, 3*3*4)
}

func TestBuild_EmptyChunks(t *testing.T) {
	_, emb := testChunks()
	_, err := NewBuilder(emb, t.TempDir()).Build(context.Background(), "laws", nil)
	assert.ErrorIs(t, err, domain.ErrNoChunks)
}

func TestOpenAndSearch(t *testing.T) {
	dir := t.TempDir()
	chunks, emb := testChunks()

	_, err := NewBuilder(emb, dir).Build(context.Background(), "laws", chunks)
	require.NoError(t, err)

	ix, err := Open(dir, "laws")
	require.NoError(t, err)
	assert.Equal(t, 3, ix.VectorCount())
	assert.Equal(t, 3, ix.Dimension())

	// The query matches "beta" exactly; magnitudes were normalized away at
	// build time, so the top hit scores ~1.0.
	results, err := ix.Search(context.Background(), []float32{0, 1, 0}, 2)
	require.NoError(t, err)
	require.Len(t, results, 2)

	assert.InDelta(t, 1.0, results[0].Score, 1e-5)
	assert.Equal(t, "c1", results[0].Metadata["chunk_id"])
	assert.Equal(t, "beta", results[0].Metadata["content"])
	assert.Equal(t, "https://example.com/a", results[0].Metadata["source"])
	assert.Greater(t, results[0].Score, results[1].Score)
}

func TestSearch_DimensionMismatch(t *testing.T) {
	dir := t.TempDir()
	chunks, emb := testChunks()
	_, err := NewBuilder(emb, dir).Build(context.Background(), "laws", chunks)
	require.NoError(t, err)

	ix, err := Open(dir, "laws")
	require.NoError(t, err)

	_, err = ix.Search(context.Background(), []float32{1, 0}, 5)
	assert.ErrorIs(t, err, domain.ErrDimensionMismatch)
}

func TestSearch_DefaultK(t *testing.T) {
	dir := t.TempDir()
	chunks, emb := testChunks()
	_, err := NewBuilder(emb, dir).Build(context.Background(), "laws", chunks)
	require.NoError(t, err)

	ix, err := Open(dir, "laws")
	require.NoError(t, err)

	results, err := ix.Search(context.Background(), []float32{1, 0, 0}, 0)
	require.NoError(t, err)
	assert.Len(t, results, 3)
}

func TestSearch_SkipsRowsWithoutMetadata(t *testing.T) {
	ix := &Index{
		dim:      2,
		vectors:  []float32{1, 0, 0, 1},
		metadata: []map[string]any{{"chunk_id": "only"}},
	}

	results, err := ix.Search(context.Background(), []float32{1, 0}, 5)
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "only", results[0].Metadata["chunk_id"])
}

func TestOpen_RejectsCorruptIndex(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "bad.vec"), []byte("not an index"), 0o644))

	_, err := Open(dir, "bad")
	assert.Error(t, err)
}
