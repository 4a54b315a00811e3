package services

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aoba-labs/lawdex/internal/core/domain"
)

type fakeEmbedder struct {
	vector []float32
	err    error
}

func (f *fakeEmbedder) Embed(_ context.Context, _ string) ([]float32, error) {
	return f.vector, f.err
}

func (f *fakeEmbedder) EmbedBatch(_ context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))
	for i := range texts {
		out[i] = f.vector
	}
	return out, f.err
}

func (f *fakeEmbedder) Dimensions() int            { return len(f.vector) }
func (f *fakeEmbedder) ModelName() string          { return "fake" }
func (f *fakeEmbedder) Ping(context.Context) error { return nil }
func (f *fakeEmbedder) Close() error               { return nil }

type fakeSearcher struct {
	gotQuery []float32
	gotK     int
	results  []domain.SearchResult
	err      error
}

func (f *fakeSearcher) Search(_ context.Context, query []float32, k int) ([]domain.SearchResult, error) {
	f.gotQuery = query
	f.gotK = k
	return f.results, f.err
}

func TestQuery(t *testing.T) {
	searcher := &fakeSearcher{results: []domain.SearchResult{
		{Score: 0.9, Metadata: map[string]any{"chunk_id": "a_0"}},
	}}
	svc := NewQueryService(&fakeEmbedder{vector: []float32{1, 0}}, searcher)

	results, err := svc.Query(context.Background(), "労働時間", 3)
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "a_0", results[0].Metadata["chunk_id"])
	assert.Equal(t, []float32{1, 0}, searcher.gotQuery)
	assert.Equal(t, 3, searcher.gotK)
}

func TestQuery_EmptyText(t *testing.T) {
	svc := NewQueryService(&fakeEmbedder{}, &fakeSearcher{})

	_, err := svc.Query(context.Background(), "   ", 5)
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestQuery_MissingDependencies(t *testing.T) {
	svc := NewQueryService(nil, &fakeSearcher{})
	_, err := svc.Query(context.Background(), "q", 5)
	assert.ErrorIs(t, err, domain.ErrEmbeddingUnavailable)

	svc = NewQueryService(&fakeEmbedder{vector: []float32{1}}, nil)
	_, err = svc.Query(context.Background(), "q", 5)
	assert.ErrorIs(t, err, domain.ErrIndexUnavailable)
}

func TestQuery_DefaultK(t *testing.T) {
	searcher := &fakeSearcher{}
	svc := NewQueryService(&fakeEmbedder{vector: []float32{1}}, searcher)

	_, err := svc.Query(context.Background(), "q", 0)
	require.NoError(t, err)
	assert.Equal(t, 5, searcher.gotK)
}

func TestQuery_EmbedFailure(t *testing.T) {
	svc := NewQueryService(&fakeEmbedder{err: errors.New("boom")}, &fakeSearcher{})

	_, err := svc.Query(context.Background(), "q", 5)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "embedding query")
}

func TestQuery_SearchFailure(t *testing.T) {
	searcher := &fakeSearcher{err: errors.New("index gone")}
	svc := NewQueryService(&fakeEmbedder{vector: []float32{1}}, searcher)

	_, err := svc.Query(context.Background(), "q", 5)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "searching index")
}
