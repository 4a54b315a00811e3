package services

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/aoba-labs/lawdex/internal/core/domain"
	"github.com/aoba-labs/lawdex/internal/core/ports/driven"
	"github.com/aoba-labs/lawdex/internal/core/ports/driving"
	"github.com/aoba-labs/lawdex/internal/logger"
)

// Ensure IngestService implements the interface.
var _ driving.Ingestor = (*IngestService)(nil)

// IngestService converts crawl output into stored documents and builds
// indexes from them.
type IngestService struct {
	docStore driven.DocumentStore
	pipeline driven.PostProcessorPipeline
	builder  driven.IndexBuilder
}

// NewIngestService creates a new ingest service.
func NewIngestService(
	docStore driven.DocumentStore,
	pipeline driven.PostProcessorPipeline,
	builder driven.IndexBuilder,
) *IngestService {
	return &IngestService{
		docStore: docStore,
		pipeline: pipeline,
		builder:  builder,
	}
}

// StoreCrawlResults persists one document per successful crawl result.
// Failed and skipped results are passed over silently; the caller already
// has them in the crawl stats.
func (s *IngestService) StoreCrawlResults(ctx context.Context, results []domain.CrawlResult) (int, error) {
	stored := 0
	for _, r := range results {
		if !r.Success || r.Text == "" {
			continue
		}

		doc := domain.Document{
			ID:          uuid.NewString(),
			Source:      r.URL,
			Title:       r.Title,
			Content:     r.Text,
			ContentHash: r.ContentHash,
			CrawledAt:   r.CrawledAt,
			Metadata: map[string]any{
				"title":        r.Title,
				"domain":       r.Domain,
				"content_type": string(r.ContentType),
				"content_hash": r.ContentHash,
				"crawled_at":   r.CrawledAt.Format("2006-01-02T15:04:05Z07:00"),
			},
		}

		// Re-crawls of the same URL replace the previous record.
		if err := s.docStore.DeleteBySource(ctx, r.URL); err != nil {
			return stored, fmt.Errorf("replacing documents for %s: %w", r.URL, err)
		}
		if err := s.docStore.Save(ctx, doc); err != nil {
			return stored, fmt.Errorf("saving document for %s: %w", r.URL, err)
		}
		stored++
	}

	logger.Info("stored %d documents from %d crawl results", stored, len(results))
	return stored, nil
}

// StoreLawResults persists one document per extracted article. The article
// is the retrieval unit for statutes, so each becomes its own document with
// law identity carried in metadata.
func (s *IngestService) StoreLawResults(ctx context.Context, results []domain.LawResult) (int, error) {
	stored := 0
	for _, r := range results {
		if !r.Success || len(r.Articles) == 0 {
			continue
		}

		source := r.DisplayURL
		if source == "" {
			source = r.SourceURL
		}

		if err := s.docStore.DeleteBySource(ctx, source); err != nil {
			return stored, fmt.Errorf("replacing documents for %s: %w", r.LawID, err)
		}

		for _, article := range r.Articles {
			doc := domain.Document{
				ID:          uuid.NewString(),
				Source:      source,
				Title:       r.LawName + " " + article.Title,
				Content:     article.Text,
				ContentHash: r.ContentHash,
				CrawledAt:   r.UpdatedAt,
				Metadata: map[string]any{
					"law_id":         r.LawID,
					"law_name":       r.LawName,
					"law_num":        r.LawNum,
					"article_number": article.ArticleNumber,
					"section_type":   article.SectionType,
					"layer":          string(r.Layer),
					"parent_law_id":  r.ParentLawID,
					"updated_at":     r.UpdatedAt.Format("2006-01-02T15:04:05Z07:00"),
					"content_hash":   r.ContentHash,
				},
			}
			if err := s.docStore.Save(ctx, doc); err != nil {
				return stored, fmt.Errorf("saving article %s of %s: %w", article.ArticleNumber, r.LawID, err)
			}
			stored++
		}
	}

	logger.Info("stored %d article documents from %d law results", stored, len(results))
	return stored, nil
}

// BuildIndex runs every stored document through the processing pipeline and
// builds the named index from the combined chunk list.
func (s *IngestService) BuildIndex(ctx context.Context, name string) (*driven.BuildInfo, error) {
	if s.pipeline == nil || s.builder == nil {
		return nil, domain.ErrIndexUnavailable
	}

	docs, err := s.docStore.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("listing documents: %w", err)
	}

	// Chunk indexes run per source, not per document. A law's articles are
	// separate documents sharing one source, so their chunks continue the
	// source's sequence instead of each restarting at _0.
	perSource := make(map[string]int)

	var chunks []domain.Chunk
	for i := range docs {
		docChunks, err := s.pipeline.Process(ctx, &docs[i])
		if err != nil {
			return nil, fmt.Errorf("processing document %s: %w", docs[i].ID, err)
		}
		for j := range docChunks {
			ch := &docChunks[j]
			idx := perSource[ch.Source]
			ch.ChunkID = domain.ChunkID(ch.Source, idx)
			if ch.Metadata != nil {
				ch.Metadata["chunk_index"] = idx
			}
			perSource[ch.Source]++
		}
		chunks = append(chunks, docChunks...)
	}

	logger.Info("chunked %d documents into %d chunks", len(docs), len(chunks))

	return s.builder.Build(ctx, name, chunks)
}
