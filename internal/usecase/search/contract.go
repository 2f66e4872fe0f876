package search

import (
	"context"

	"github.com/kailas-cloud/propdex/internal/domain"
)

// ChunkStore defines the vector store contract for search operations.
type ChunkStore interface {
	Query(ctx context.Context, vector []float32, k int, hard *domain.HardFilter) ([]domain.SearchCandidate, error)

	// SupportsHardFilter reports whether Query applies the hard filter inside
	// the store. When false the engine filters client-side.
	SupportsHardFilter() bool
}

// Embedder vectorizes the query text.
type Embedder interface {
	Embed(ctx context.Context, text string) (domain.EmbeddingResult, error)
}
