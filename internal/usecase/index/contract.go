package index

import (
	"context"

	"github.com/kailas-cloud/propdex/internal/domain"
)

// ChunkStore defines the vector store contract for the indexing pipeline.
type ChunkStore interface {
	Upsert(ctx context.Context, chunks []domain.Chunk) error
	DeleteWhere(ctx context.Context, field, value string) (int, error)
	ListWhere(ctx context.Context, field, value string) ([]domain.SearchCandidate, error)
	Count(ctx context.Context) (int, error)
}

// Chunker splits section documents into bounded overlapping chunks.
type Chunker interface {
	Chunk(docs []domain.SectionDocument) []domain.Chunk
}

// Embedder vectorizes chunk texts in a single batch call.
type Embedder interface {
	BatchEmbed(ctx context.Context, texts []string) (domain.BatchEmbeddingResult, error)
}
