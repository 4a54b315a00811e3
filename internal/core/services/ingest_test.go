package services

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aoba-labs/lawdex/internal/core/domain"
	"github.com/aoba-labs/lawdex/internal/core/ports/driven"
)

// fakeDocStore is an in-memory DocumentStore.
type fakeDocStore struct {
	docs []domain.Document
}

func (f *fakeDocStore) Save(_ context.Context, doc domain.Document) error {
	for i, d := range f.docs {
		if d.ID == doc.ID {
			f.docs[i] = doc
			return nil
		}
	}
	f.docs = append(f.docs, doc)
	return nil
}

func (f *fakeDocStore) Get(_ context.Context, id string) (*domain.Document, error) {
	for i, d := range f.docs {
		if d.ID == id {
			return &f.docs[i], nil
		}
	}
	return nil, domain.ErrNotFound
}

func (f *fakeDocStore) List(_ context.Context) ([]domain.Document, error) {
	out := make([]domain.Document, len(f.docs))
	copy(out, f.docs)
	return out, nil
}

func (f *fakeDocStore) DeleteBySource(_ context.Context, source string) error {
	kept := f.docs[:0]
	for _, d := range f.docs {
		if d.Source != source {
			kept = append(kept, d)
		}
	}
	f.docs = kept
	return nil
}

func (f *fakeDocStore) Count(_ context.Context) (int, error) {
	return len(f.docs), nil
}

// fakePipeline splits content on no boundaries: one chunk per document.
type fakePipeline struct{}

func (fakePipeline) Process(_ context.Context, doc *domain.Document) ([]domain.Chunk, error) {
	if doc.Content == "" {
		return nil, nil
	}
	return []domain.Chunk{{
		Content:  doc.Content,
		ChunkID:  domain.ChunkID(doc.Source, 0),
		Source:   doc.Source,
		Metadata: map[string]any{"chunk_index": 0},
	}}, nil
}

// fakeBuilder records the chunks it was asked to index.
type fakeBuilder struct {
	name   string
	chunks []domain.Chunk
}

func (f *fakeBuilder) Build(_ context.Context, name string, chunks []domain.Chunk) (*driven.BuildInfo, error) {
	f.name = name
	f.chunks = chunks
	return &driven.BuildInfo{Name: name, VectorCount: len(chunks), Dimension: 4, DocumentsUploaded: len(chunks)}, nil
}

func TestStoreCrawlResults(t *testing.T) {
	store := &fakeDocStore{}
	svc := NewIngestService(store, nil, nil)

	crawledAt := time.Date(2025, 6, 1, 9, 0, 0, 0, time.UTC)
	results := []domain.CrawlResult{
		{
			URL: "https://example.com/a", Domain: "example.com",
			ContentType: domain.ContentTypeHTML, Title: "Page A",
			Text: "body a", ContentHash: "hash-a",
			CrawledAt: crawledAt, Success: true,
		},
		{URL: "https://example.com/fail", Success: false, Error: "http status 500"},
		{URL: "https://example.com/empty", Success: true, Text: ""},
	}

	stored, err := svc.StoreCrawlResults(context.Background(), results)
	require.NoError(t, err)
	assert.Equal(t, 1, stored)
	require.Len(t, store.docs, 1)

	doc := store.docs[0]
	assert.NotEmpty(t, doc.ID)
	assert.Equal(t, "https://example.com/a", doc.Source)
	assert.Equal(t, "Page A", doc.Title)
	assert.Equal(t, "body a", doc.Content)
	assert.Equal(t, "hash-a", doc.ContentHash)
	assert.Equal(t, "example.com", doc.Metadata["domain"])
	assert.Equal(t, "html", doc.Metadata["content_type"])
	assert.Equal(t, "2025-06-01T09:00:00Z", doc.Metadata["crawled_at"])
}

func TestStoreCrawlResults_ReplacesPreviousCrawl(t *testing.T) {
	store := &fakeDocStore{}
	svc := NewIngestService(store, nil, nil)

	result := domain.CrawlResult{
		URL: "https://example.com/a", Text: "old", Success: true,
	}
	_, err := svc.StoreCrawlResults(context.Background(), []domain.CrawlResult{result})
	require.NoError(t, err)

	result.Text = "new"
	_, err = svc.StoreCrawlResults(context.Background(), []domain.CrawlResult{result})
	require.NoError(t, err)

	require.Len(t, store.docs, 1)
	assert.Equal(t, "new", store.docs[0].Content)
}

func TestStoreLawResults(t *testing.T) {
	store := &fakeDocStore{}
	svc := NewIngestService(store, nil, nil)

	updatedAt := time.Date(2025, 5, 1, 0, 0, 0, 0, time.UTC)
	results := []domain.LawResult{
		{
			LawID: "322AC0000000049", LawName: "労働基準法", LawNum: "昭和二十二年法律第四十九号",
			SourceURL:  "https://api.example.go.jp/322AC0000000049",
			DisplayURL: "https://example.go.jp/law/322AC0000000049",
			Articles: []domain.Article{
				{ArticleNumber: "1", Title: "第一条", Text: "第一条の本文", SectionType: "law_article"},
				{ArticleNumber: "2", Title: "第二条", Text: "第二条の本文", SectionType: "law_article"},
			},
			ContentHash: "hash-law", UpdatedAt: updatedAt,
			Layer: domain.LayerLaw, Success: true,
		},
		{LawID: "broken", Success: false, Error: "api request failed"},
	}

	stored, err := svc.StoreLawResults(context.Background(), results)
	require.NoError(t, err)
	assert.Equal(t, 2, stored)
	require.Len(t, store.docs, 2)

	doc := store.docs[0]
	assert.Equal(t, "https://example.go.jp/law/322AC0000000049", doc.Source)
	assert.Equal(t, "労働基準法 第一条", doc.Title)
	assert.Equal(t, "第一条の本文", doc.Content)
	assert.Equal(t, "322AC0000000049", doc.Metadata["law_id"])
	assert.Equal(t, "1", doc.Metadata["article_number"])
	assert.Equal(t, "law_article", doc.Metadata["section_type"])
	assert.Equal(t, string(domain.LayerLaw), doc.Metadata["layer"])
}

func TestStoreLawResults_FallsBackToSourceURL(t *testing.T) {
	store := &fakeDocStore{}
	svc := NewIngestService(store, nil, nil)

	results := []domain.LawResult{{
		LawID: "x", LawName: "名", SourceURL: "https://api.example.go.jp/x",
		Articles: []domain.Article{{ArticleNumber: "1", Title: "第一条", Text: "本文"}},
		Success:  true,
	}}

	_, err := svc.StoreLawResults(context.Background(), results)
	require.NoError(t, err)
	require.Len(t, store.docs, 1)
	assert.Equal(t, "https://api.example.go.jp/x", store.docs[0].Source)
}

func TestBuildIndex_ArticlesOfOneLawGetUniqueChunkIDs(t *testing.T) {
	// A law's articles are stored as separate documents sharing one source,
	// so their chunks must continue a single per-source sequence.
	lawURL := "https://elaws.e-gov.go.jp/document?lawid=322AC0000000049"
	store := &fakeDocStore{docs: []domain.Document{
		{ID: "1", Source: lawURL, Content: "第一条の本文"},
		{ID: "2", Source: lawURL, Content: "第二条の本文"},
		{ID: "3", Source: "https://example.com/page", Content: "web page"},
	}}
	builder := &fakeBuilder{}
	svc := NewIngestService(store, fakePipeline{}, builder)

	_, err := svc.BuildIndex(context.Background(), "laws")
	require.NoError(t, err)
	require.Len(t, builder.chunks, 3)

	assert.Equal(t, lawURL+"_0", builder.chunks[0].ChunkID)
	assert.Equal(t, lawURL+"_1", builder.chunks[1].ChunkID)
	assert.Equal(t, 1, builder.chunks[1].Metadata["chunk_index"])
	assert.Equal(t, "https://example.com/page_0", builder.chunks[2].ChunkID)

	seen := make(map[string]bool)
	for _, ch := range builder.chunks {
		assert.False(t, seen[ch.ChunkID], ch.ChunkID)
		seen[ch.ChunkID] = true
	}
}

func TestBuildIndex_WithoutBuilder(t *testing.T) {
	svc := NewIngestService(&fakeDocStore{}, nil, nil)
	_, err := svc.BuildIndex(context.Background(), "laws")
	assert.ErrorIs(t, err, domain.ErrIndexUnavailable)
}

func TestBuildIndex(t *testing.T) {
	store := &fakeDocStore{docs: []domain.Document{
		{ID: "1", Source: "s1", Content: "one"},
		{ID: "2", Source: "s2", Content: "two"},
		{ID: "3", Source: "s3", Content: ""},
	}}
	builder := &fakeBuilder{}
	svc := NewIngestService(store, fakePipeline{}, builder)

	info, err := svc.BuildIndex(context.Background(), "laws")
	require.NoError(t, err)

	assert.Equal(t, "laws", builder.name)
	assert.Len(t, builder.chunks, 2)
	assert.Equal(t, 2, info.VectorCount)
	assert.Equal(t, "s1_0", builder.chunks[0].ChunkID)
}
