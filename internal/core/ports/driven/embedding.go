package driven

import "context"

// EmbeddingService generates vector embeddings from text.
//
// Implementations batch internally and retry transient provider failures
// with linear backoff before surfacing a hard error. Inputs are cleaned
// (newlines collapsed, whitespace normalized, truncated to the provider's
// limit, empty strings replaced with a single space) so every request is
// valid for the provider.
type EmbeddingService interface {
	// Embed generates a vector embedding for the given text.
	Embed(ctx context.Context, text string) ([]float32, error)

	// EmbedBatch generates embeddings for multiple texts, preserving order.
	EmbedBatch(ctx context.Context, texts []string) ([][]float32, error)

	// Dimensions returns the embedding vector size (e.g., 1536).
	Dimensions() int

	// ModelName returns the name of the embedding model being used.
	ModelName() string

	// Ping validates the service is reachable with a lightweight request.
	Ping(ctx context.Context) error

	// Close releases resources.
	Close() error
}
