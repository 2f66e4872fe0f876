// Package message implements conversation memory: storing embedded chat turns
// and recalling them by semantic similarity.
package message

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/kailas-cloud/propdex/internal/domain"
)

// overFetch widens the KNN pool so client-side tag filtering still fills the
// requested page.
const overFetch = 2

// SearchRequest is a message memory query. Tag values are matched as
// case-insensitive substrings; empty values deactivate the predicate.
type SearchRequest struct {
	Query          string
	TopK           int
	ConversationID string
	Role           string
	Intent         string
}

// Service stores and recalls conversation messages.
type Service struct {
	store       MessageStore
	embed       Embedder
	defaultTopK int
}

// New creates a message memory service.
func New(store MessageStore, embed Embedder) *Service {
	return &Service{store: store, embed: embed, defaultTopK: 5}
}

// Store embeds and persists one message, assigning an id when the caller did
// not provide one. Returns the message id.
func (s *Service) Store(ctx context.Context, msg *domain.Message) (string, error) {
	if strings.TrimSpace(msg.Text) == "" {
		return "", domain.ErrEmptyQuery
	}
	if msg.ID == "" {
		msg.ID = uuid.NewString()
	}

	res, err := s.embed.Embed(ctx, msg.Text)
	if err != nil {
		return "", fmt.Errorf("vectorize message: %w: %v", domain.ErrEmbeddingProviderError, err)
	}

	if err := s.store.Add(ctx, msg, res.Embedding); err != nil {
		return "", fmt.Errorf("store message: %w", err)
	}
	return msg.ID, nil
}

// Search recalls messages similar to the query, most similar first.
func (s *Service) Search(ctx context.Context, req *SearchRequest) ([]domain.MessageHit, error) {
	if strings.TrimSpace(req.Query) == "" {
		return nil, domain.ErrEmptyQuery
	}

	topK := req.TopK
	if topK <= 0 {
		topK = s.defaultTopK
	}

	res, err := s.embed.Embed(ctx, req.Query)
	if err != nil {
		return nil, fmt.Errorf("vectorize query: %w: %v", domain.ErrEmbeddingProviderError, err)
	}

	hits, err := s.store.Query(ctx, res.Embedding, topK*overFetch, req.ConversationID)
	if err != nil {
		return nil, fmt.Errorf("query messages: %w", err)
	}

	results := make([]domain.MessageHit, 0, topK)
	for _, h := range hits {
		if !tagContains(h.Tags, "role", req.Role) {
			continue
		}
		if !tagContains(h.Tags, "intent", req.Intent) {
			continue
		}
		results = append(results, h)
		if len(results) == topK {
			break
		}
	}
	return results, nil
}

// tagContains reports whether the tag value contains want, ignoring case.
// An empty want always passes; a missing tag passes too, matching the
// vacuous-pass convention of the property search filters.
func tagContains(tags map[string]string, field, want string) bool {
	if want == "" {
		return true
	}
	got, ok := tags[field]
	if !ok {
		return true
	}
	return strings.Contains(strings.ToLower(got), strings.ToLower(want))
}
