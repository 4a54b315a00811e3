// Package azure implements the managed search index backend on the Azure
// AI Search REST API: schema ensure/recreate plus batched document upload.
package azure

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/aoba-labs/lawdex/internal/core/domain"
	"github.com/aoba-labs/lawdex/internal/core/ports/driven"
	"github.com/aoba-labs/lawdex/internal/logger"
)

var _ driven.IndexBuilder = (*Builder)(nil)

// Default configuration values.
const (
	DefaultAPIVersion = "2023-11-01"
	DefaultDimensions = 1536
	DefaultBatchSize  = 100
	DefaultTimeout    = 60 * time.Second
)

// Config holds configuration for the Azure AI Search backend.
type Config struct {
	// Endpoint is the search service endpoint, e.g.
	// https://myservice.search.windows.net (required).
	Endpoint string

	// APIKey is the admin API key (required).
	APIKey string

	// APIVersion selects the REST API version (default: 2023-11-01).
	APIVersion string

	// Dimensions is the vector field dimension (default: 1536).
	Dimensions int

	// BatchSize caps documents per upload call (default: 100).
	BatchSize int

	// Recreate deletes an existing index of the same name before the
	// schema is ensured.
	Recreate bool

	// Timeout is the per-request HTTP timeout (default: 60s).
	Timeout time.Duration
}

// Builder uploads chunks plus embeddings to an Azure AI Search index.
type Builder struct {
	cfg      Config
	client   *http.Client
	embedder driven.EmbeddingService
}

// NewBuilder creates an Azure index builder.
func NewBuilder(embedder driven.EmbeddingService, cfg Config) (*Builder, error) {
	if cfg.Endpoint == "" || cfg.APIKey == "" {
		return nil, fmt.Errorf("azure: endpoint and API key are required")
	}
	if cfg.APIVersion == "" {
		cfg.APIVersion = DefaultAPIVersion
	}
	if cfg.Dimensions <= 0 {
		cfg.Dimensions = DefaultDimensions
	}
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = DefaultBatchSize
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = DefaultTimeout
	}

	return &Builder{
		cfg:      cfg,
		client:   &http.Client{Timeout: cfg.Timeout},
		embedder: embedder,
	}, nil
}

// Build ensures the index schema, embeds all chunk contents and uploads
// documents in fixed-size batches. Partial batch failures are counted,
// not fatal: the returned BuildInfo reports how many documents the
// service accepted.
func (b *Builder) Build(ctx context.Context, name string, chunks []domain.Chunk) (*driven.BuildInfo, error) {
	if len(chunks) == 0 {
		return nil, fmt.Errorf("%w: cannot build index %q", domain.ErrNoChunks, name)
	}

	if b.cfg.Recreate {
		if err := b.deleteIndex(ctx, name); err != nil {
			logger.Debug("delete existing index %q: %v", name, err)
		}
	}
	if err := b.ensureIndex(ctx, name); err != nil {
		return nil, fmt.Errorf("ensure index: %w", err)
	}

	texts := make([]string, len(chunks))
	for i, c := range chunks {
		texts[i] = c.Content
	}

	logger.Info("embedding %d chunks for azure index %q", len(chunks), name)
	embeddings, err := b.embedder.EmbedBatch(ctx, texts)
	if err != nil {
		return nil, fmt.Errorf("embed chunks: %w", err)
	}
	if len(embeddings) != len(chunks) {
		return nil, fmt.Errorf("embedding count mismatch: %d chunks, %d vectors", len(chunks), len(embeddings))
	}

	documents := make([]searchDocument, len(chunks))
	for i, c := range chunks {
		documents[i] = searchDocument{
			Action:    "upload",
			ID:        c.ChunkID,
			Content:   c.Content,
			Source:    c.Source,
			ChunkID:   c.ChunkID,
			Embedding: embeddings[i],
		}
	}

	uploaded := 0
	for start := 0; start < len(documents); start += b.cfg.BatchSize {
		end := start + b.cfg.BatchSize
		if end > len(documents) {
			end = len(documents)
		}

		ok, err := b.uploadBatch(ctx, name, documents[start:end])
		if err != nil {
			return nil, fmt.Errorf("upload batch at %d: %w", start, err)
		}
		uploaded += ok
		logger.Info("uploaded %d/%d documents", uploaded, len(documents))
	}

	return &driven.BuildInfo{
		Name:              name,
		VectorCount:       len(chunks),
		Dimension:         b.cfg.Dimensions,
		DocumentsUploaded: uploaded,
	}, nil
}

// searchDocument is the upload payload for one chunk.
type searchDocument struct {
	Action    string    `json:"@search.action"`
	ID        string    `json:"id"`
	Content   string    `json:"content"`
	Source    string    `json:"source"`
	ChunkID   string    `json:"chunk_id"`
	Embedding []float32 `json:"embedding"`
}

// indexSchema declares the fixed four-field-plus-vector schema with an
// HNSW approximate-nearest-neighbour profile.
func (b *Builder) indexSchema(name string) map[string]any {
	return map[string]any{
		"name": name,
		"fields": []map[string]any{
			{"name": "id", "type": "Edm.String", "key": true},
			{"name": "content", "type": "Edm.String", "searchable": true},
			{"name": "source", "type": "Edm.String", "filterable": true},
			{"name": "chunk_id", "type": "Edm.String", "filterable": true},
			{
				"name":                "embedding",
				"type":                "Collection(Edm.Single)",
				"searchable":          true,
				"dimensions":          b.cfg.Dimensions,
				"vectorSearchProfile": "default-profile",
			},
		},
		"vectorSearch": map[string]any{
			"algorithms": []map[string]any{
				{"name": "default-algorithm", "kind": "hnsw"},
			},
			"profiles": []map[string]any{
				{"name": "default-profile", "algorithm": "default-algorithm"},
			},
		},
	}
}

// ensureIndex creates or updates the index schema, idempotently.
func (b *Builder) ensureIndex(ctx context.Context, name string) error {
	body, err := json.Marshal(b.indexSchema(name))
	if err != nil {
		return fmt.Errorf("marshal schema: %w", err)
	}

	status, respBody, err := b.do(ctx, http.MethodPut, b.indexURL(name), body)
	if err != nil {
		return err
	}
	if status != http.StatusOK && status != http.StatusCreated && status != http.StatusNoContent {
		return fmt.Errorf("schema update returned status %d: %s", status, respBody)
	}

	logger.Info("azure index ensured: %s", name)
	return nil
}

func (b *Builder) deleteIndex(ctx context.Context, name string) error {
	status, respBody, err := b.do(ctx, http.MethodDelete, b.indexURL(name), nil)
	if err != nil {
		return err
	}
	if status != http.StatusNoContent && status != http.StatusNotFound {
		return fmt.Errorf("delete returned status %d: %s", status, respBody)
	}
	return nil
}

// uploadBatch posts one batch and counts per-document acceptance from the
// response. Rejected documents are logged and skipped.
func (b *Builder) uploadBatch(ctx context.Context, name string, batch []searchDocument) (int, error) {
	payload, err := json.Marshal(map[string]any{"value": batch})
	if err != nil {
		return 0, fmt.Errorf("marshal batch: %w", err)
	}

	uploadURL := fmt.Sprintf("%s/indexes/%s/docs/index?api-version=%s",
		b.cfg.Endpoint, url.PathEscape(name), b.cfg.APIVersion)

	status, respBody, err := b.do(ctx, http.MethodPost, uploadURL, payload)
	if err != nil {
		return 0, err
	}
	// 207 carries per-document statuses; anything else non-2xx is fatal.
	if status != http.StatusOK && status != http.StatusMultiStatus {
		return 0, fmt.Errorf("upload returned status %d: %s", status, respBody)
	}

	var result struct {
		Value []struct {
			Key          string `json:"key"`
			Status       bool   `json:"status"`
			ErrorMessage string `json:"errorMessage"`
		} `json:"value"`
	}
	if err := json.Unmarshal(respBody, &result); err != nil {
		return 0, fmt.Errorf("decode upload response: %w", err)
	}

	ok := 0
	for _, r := range result.Value {
		if r.Status {
			ok++
			continue
		}
		logger.Warn("document rejected: %s (%s)", r.Key, r.ErrorMessage)
	}
	return ok, nil
}

func (b *Builder) indexURL(name string) string {
	return fmt.Sprintf("%s/indexes/%s?api-version=%s",
		b.cfg.Endpoint, url.PathEscape(name), b.cfg.APIVersion)
}

func (b *Builder) do(ctx context.Context, method, reqURL string, body []byte) (int, []byte, error) {
	var reader io.Reader = http.NoBody
	if body != nil {
		reader = bytes.NewReader(body)
	}

	req, err := http.NewRequestWithContext(ctx, method, reqURL, reader)
	if err != nil {
		return 0, nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("api-key", b.cfg.APIKey)

	resp, err := b.client.Do(req)
	if err != nil {
		return 0, nil, fmt.Errorf("send request: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return resp.StatusCode, nil, fmt.Errorf("read response: %w", err)
	}
	return resp.StatusCode, respBody, nil
}
