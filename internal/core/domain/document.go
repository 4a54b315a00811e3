package domain

import "time"

// Document is a stored, retrieval-ready text record produced by a crawl.
// Crawl and law results are converted into documents before chunking so the
// index can be rebuilt without re-crawling.
type Document struct {
	// ID is the store-assigned identifier.
	ID string

	// Source is the originating URL or law identifier, used for chunk
	// attribution.
	Source string

	// Title is the human-readable title, if any.
	Title string

	// Content is the full extracted text.
	Content string

	// ContentHash fingerprints the raw source bytes for change detection.
	ContentHash string

	// Metadata carries per-source fields copied onto every chunk.
	Metadata map[string]any

	// CrawledAt is when the source was fetched.
	CrawledAt time.Time
}

// SearchResult is one ranked hit from a vector index query.
type SearchResult struct {
	// Score is the cosine similarity of the hit.
	Score float32

	// Metadata is the stored metadata row aligned with the matched vector,
	// including chunk_id, source, and content.
	Metadata map[string]any
}
