package domain

import "errors"

var (
	// ErrMissingPropertyID signals a property record without the required id.
	// Rejected before any flattening work is done.
	ErrMissingPropertyID = errors.New("property id is required")
	// ErrPropertyNotFound signals a missing property.
	ErrPropertyNotFound = errors.New("property not found")
	// ErrStaleChunkCleanup signals that deleting a property's prior chunks
	// failed. The upsert aborts rather than inserting on top of stale data.
	ErrStaleChunkCleanup = errors.New("stale chunk cleanup failed")
	// ErrEmbeddingProviderError signals an embedding provider failure.
	ErrEmbeddingProviderError = errors.New("embedding provider error")
	// ErrStoreUnavailable signals a vector store adapter failure.
	ErrStoreUnavailable = errors.New("vector store unavailable")
	// ErrEmptyQuery signals a search request without query text.
	ErrEmptyQuery = errors.New("query text is required")
	// ErrEmbeddingQuotaExceeded signals the token budget is spent.
	ErrEmbeddingQuotaExceeded = errors.New("embedding token budget exceeded")
)
