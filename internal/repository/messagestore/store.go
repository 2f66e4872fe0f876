// Package messagestore persists conversation turns as vector-indexed hashes
// so the assistant can recall earlier context by semantic similarity.
package messagestore

import (
	"context"
	"errors"
	"fmt"

	"github.com/kailas-cloud/propdex/internal/db"
	"github.com/kailas-cloud/propdex/internal/domain"
)

const (
	fieldContent = "content"
	fieldVector  = "vector"

	// Tag fields indexed for exact-match pre-filtering.
	FieldConversationID = "conversation_id"
	FieldUserID         = "user_id"
	FieldRole           = "role"
	FieldIntent         = "intent"
)

type store interface {
	HSet(ctx context.Context, key string, fields map[string]string) error
	SearchKNN(ctx context.Context, q *db.KNNQuery) (*db.SearchResult, error)
	CreateIndex(ctx context.Context, def *db.IndexDefinition) error
	IndexExists(ctx context.Context, name string) (bool, error)
}

// Store implements the message memory against Redis.
type Store struct {
	store     store
	keyPrefix string
	indexName string
	vectorDim int
}

func New(s store, keyPrefix string, vectorDim int) *Store {
	return &Store{
		store:     s,
		keyPrefix: keyPrefix + "msg:",
		indexName: keyPrefix + "msg_idx",
		vectorDim: vectorDim,
	}
}

// EnsureIndex creates the FT index if it does not exist yet.
func (s *Store) EnsureIndex(ctx context.Context) error {
	exists, err := s.store.IndexExists(ctx, s.indexName)
	if err != nil {
		return fmt.Errorf("probe index %s: %w", s.indexName, err)
	}
	if exists {
		return nil
	}

	def := &db.IndexDefinition{
		Name:        s.indexName,
		StorageType: db.StorageHash,
		Prefixes:    []string{s.keyPrefix},
		Fields: []db.IndexField{
			{Name: FieldConversationID, Type: db.IndexFieldTag},
			{Name: FieldUserID, Type: db.IndexFieldTag},
			{Name: FieldRole, Type: db.IndexFieldTag},
			{Name: FieldIntent, Type: db.IndexFieldTag},
			{
				Name:           fieldVector,
				Type:           db.IndexFieldVector,
				VectorAlgo:     db.VectorHNSW,
				VectorDim:      s.vectorDim,
				VectorDistance: db.DistanceCosine,
			},
		},
	}

	if err := s.store.CreateIndex(ctx, def); err != nil && !errors.Is(err, db.ErrIndexExists) {
		return fmt.Errorf("create index %s: %w", s.indexName, err)
	}
	return nil
}

// Add stores one embedded message.
func (s *Store) Add(ctx context.Context, msg *domain.Message, vector []float32) error {
	fields := map[string]string{
		fieldContent:        msg.Text,
		fieldVector:         db.VectorBytes(vector),
		FieldConversationID: msg.ConversationID,
		FieldUserID:         msg.UserID,
		FieldRole:           msg.Role,
	}
	if msg.Intent != "" {
		fields[FieldIntent] = msg.Intent
	}
	for k, v := range msg.Extra {
		fields[k] = v
	}

	if err := s.store.HSet(ctx, s.keyPrefix+msg.ID, fields); err != nil {
		return fmt.Errorf("store message %s: %w", msg.ID, err)
	}
	return nil
}

// Query runs a KNN search scoped to a conversation when conversationID is
// non-empty, otherwise across all messages.
func (s *Store) Query(
	ctx context.Context, vector []float32, k int, conversationID string,
) ([]domain.MessageHit, error) {
	q := &db.KNNQuery{
		IndexName: s.indexName,
		Vector:    vector,
		K:         k,
	}
	if conversationID != "" {
		q.PreFilter = db.TagFilter(FieldConversationID, conversationID)
	}

	res, err := s.store.SearchKNN(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("message knn query: %w", err)
	}

	hits := make([]domain.MessageHit, 0, len(res.Entries))
	for _, e := range res.Entries {
		hit := domain.MessageHit{
			ID:    trimPrefix(e.Key, s.keyPrefix),
			Score: e.Score,
			Tags:  map[string]string{},
		}
		for name, val := range e.Fields {
			switch name {
			case fieldContent:
				hit.Text = val
			case fieldVector:
			default:
				hit.Tags[name] = val
			}
		}
		hits = append(hits, hit)
	}
	return hits, nil
}

func trimPrefix(key, prefix string) string {
	if len(key) >= len(prefix) && key[:len(prefix)] == prefix {
		return key[len(prefix):]
	}
	return key
}
