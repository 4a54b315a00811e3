package domain

import "fmt"

// Chunk is the unit of retrieval: a bounded, source-attributed text fragment
// with open metadata. Content is non-empty and trimmed; ChunkID is stable and
// deterministic for a given source and index.
type Chunk struct {
	// Content is the UTF-8 text of the fragment.
	Content string

	// ChunkID uniquely identifies the chunk within its source.
	ChunkID string

	// Source is the originating URL or law identifier.
	Source string

	// Metadata contains scalar key-value pairs (chunk_index, token_count,
	// force_split, law/article identifiers, crawl timestamps, content hash).
	Metadata map[string]any
}

// ChunkID builds the deterministic chunk identifier for a source and index.
func ChunkID(source string, index int) string {
	return fmt.Sprintf("%s_%d", source, index)
}
