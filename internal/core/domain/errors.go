package domain

import "errors"

// Domain errors represent business logic failures.
// These are distinct from infrastructure errors.
var (
	// ErrNotFound indicates a requested entity does not exist.
	ErrNotFound = errors.New("not found")

	// ErrInvalidInput indicates malformed or invalid input.
	ErrInvalidInput = errors.New("invalid input")

	// ErrNoChunks indicates an index build was requested with an empty chunk
	// list.
	ErrNoChunks = errors.New("no chunks provided")

	// ErrFetchLimit indicates the law API crawler exhausted its
	// instance-lifetime fetch quota.
	ErrFetchLimit = errors.New("fetch limit reached")

	// ErrEmbeddingUnavailable indicates the embedding service is not
	// configured. Index builds and semantic queries are disabled without it.
	ErrEmbeddingUnavailable = errors.New("embedding service unavailable")

	// ErrIndexUnavailable indicates no vector index has been built or opened.
	ErrIndexUnavailable = errors.New("vector index unavailable")

	// ErrDimensionMismatch indicates a vector's dimension does not match the
	// index configuration.
	ErrDimensionMismatch = errors.New("embedding dimension mismatch")
)
