package message

import (
	"context"

	"github.com/kailas-cloud/propdex/internal/domain"
)

// MessageStore defines the storage contract for conversation memory.
type MessageStore interface {
	Add(ctx context.Context, msg *domain.Message, vector []float32) error
	Query(ctx context.Context, vector []float32, k int, conversationID string) ([]domain.MessageHit, error)
}

// Embedder vectorizes message and query texts.
type Embedder interface {
	Embed(ctx context.Context, text string) (domain.EmbeddingResult, error)
}
