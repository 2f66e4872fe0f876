package propdex

import "github.com/kailas-cloud/propdex/internal/domain"

// Sentinel errors re-exported from the domain layer.
// Use errors.Is() to check.
var (
	ErrMissingPropertyID      = domain.ErrMissingPropertyID
	ErrPropertyNotFound       = domain.ErrPropertyNotFound
	ErrStaleChunkCleanup      = domain.ErrStaleChunkCleanup
	ErrEmbeddingProviderError = domain.ErrEmbeddingProviderError
	ErrEmbeddingQuotaExceeded = domain.ErrEmbeddingQuotaExceeded
	ErrStoreUnavailable       = domain.ErrStoreUnavailable
	ErrEmptyQuery             = domain.ErrEmptyQuery
)
