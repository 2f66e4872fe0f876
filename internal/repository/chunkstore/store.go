// Package chunkstore is the Redis realization of the vector store adapter:
// chunks live as hashes under a common prefix, indexed by an FT HNSW cosine
// index with TAG/NUMERIC metadata fields for filter pushdown.
package chunkstore

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"github.com/kailas-cloud/propdex/internal/db"
	"github.com/kailas-cloud/propdex/internal/domain"
)

// Hash field names. The vector field name is reflected in the FT schema and
// in the KNN query attribute, so all three must stay in sync.
const (
	fieldContent = "content"
	fieldVector  = "vector"
)

// deletePageSize bounds how many keys a single DeleteWhere page fetches.
const deletePageSize = 500

// store is the consumer interface for the chunk store (ISP).
type store interface {
	HSetMulti(ctx context.Context, items []db.HashSetItem) error
	DelMulti(ctx context.Context, keys []string) (int, error)
	SearchKNN(ctx context.Context, q *db.KNNQuery) (*db.SearchResult, error)
	SearchList(ctx context.Context, index, query string, offset, limit int, fields []string) (*db.SearchResult, error)
	SearchCount(ctx context.Context, index, query string) (int, error)
	CreateIndex(ctx context.Context, def *db.IndexDefinition) error
	IndexExists(ctx context.Context, name string) (bool, error)
	Ping(ctx context.Context) error
}

// HNSWConfig carries index build parameters.
type HNSWConfig struct {
	M           int
	EFConstruct int
}

// Store implements the vector store adapter contract against Redis.
type Store struct {
	store     store
	keyPrefix string
	indexName string
	vectorDim int
	hnsw      HNSWConfig
}

// New creates a chunk store. keyPrefix namespaces all chunk keys (and the FT
// index prefix) so several deployments can share one Redis.
func New(s store, keyPrefix string, vectorDim int) *Store {
	return &Store{
		store:     s,
		keyPrefix: keyPrefix + "chunk:",
		indexName: keyPrefix + "chunk_idx",
		vectorDim: vectorDim,
	}
}

// WithHNSW overrides HNSW build parameters.
func (s *Store) WithHNSW(cfg HNSWConfig) *Store {
	s.hnsw = cfg
	return s
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
			{Name: domain.FieldPropertyID, Type: db.IndexFieldTag},
			{Name: domain.FieldSection, Type: db.IndexFieldTag},
			{Name: domain.FieldUnitID, Type: db.IndexFieldTag},
			{Name: domain.FieldLocation, Type: db.IndexFieldTag},
			{Name: domain.FieldPropertyType, Type: db.IndexFieldTag},
			{Name: domain.FieldChunkIndex, Type: db.IndexFieldNumeric},
			{Name: domain.FieldBedrooms, Type: db.IndexFieldNumeric},
			{Name: domain.FieldPrice, Type: db.IndexFieldNumeric},
			{
				Name:              fieldVector,
				Type:              db.IndexFieldVector,
				VectorAlgo:        db.VectorHNSW,
				VectorDim:         s.vectorDim,
				VectorDistance:    db.DistanceCosine,
				VectorM:           s.hnsw.M,
				VectorEFConstruct: s.hnsw.EFConstruct,
			},
		},
	}

	if err := s.store.CreateIndex(ctx, def); err != nil && !errors.Is(err, db.ErrIndexExists) {
		return fmt.Errorf("create index %s: %w", s.indexName, err)
	}
	return nil
}

// Upsert stores chunks in a single pipelined round-trip.
func (s *Store) Upsert(ctx context.Context, chunks []domain.Chunk) error {
	items := make([]db.HashSetItem, len(chunks))
	for i := range chunks {
		c := &chunks[i]
		fields := map[string]string{
			fieldContent:           c.Text,
			fieldVector:            db.VectorBytes(c.Vector),
			domain.FieldPropertyID: c.PropertyID,
			domain.FieldSection:    c.Section,
			domain.FieldChunkIndex: strconv.Itoa(c.Index),
		}
		for k, v := range c.Tags {
			fields[k] = v
		}
		for k, v := range c.Numerics {
			fields[k] = strconv.FormatFloat(v, 'f', -1, 64)
		}
		items[i] = db.HashSetItem{Key: s.keyPrefix + c.ID(), Fields: fields}
	}

	if err := s.store.HSetMulti(ctx, items); err != nil {
		return fmt.Errorf("upsert %d chunks: %w", len(items), err)
	}
	return nil
}

// DeleteWhere removes every chunk whose tag field matches value and returns
// the number of chunks removed.
func (s *Store) DeleteWhere(ctx context.Context, field, value string) (int, error) {
	query := db.TagFilter(field, value)
	deleted := 0

	for {
		res, err := s.store.SearchList(ctx, s.indexName, query, 0, deletePageSize, nil)
		if err != nil {
			return deleted, fmt.Errorf("find chunks %s=%s: %w", field, value, err)
		}
		if res == nil || len(res.Entries) == 0 {
			return deleted, nil
		}

		keys := make([]string, len(res.Entries))
		for i, e := range res.Entries {
			keys[i] = e.Key
		}
		n, err := s.store.DelMulti(ctx, keys)
		deleted += n
		if err != nil {
			return deleted, fmt.Errorf("delete chunks %s=%s: %w", field, value, err)
		}
		if len(res.Entries) < deletePageSize {
			return deleted, nil
		}
	}
}

// Query runs a KNN search and returns candidates in similarity order,
// highest first. A non-nil hard filter is pushed down as a TAG pre-filter.
func (s *Store) Query(
	ctx context.Context, vector []float32, k int, hard *domain.HardFilter,
) ([]domain.SearchCandidate, error) {
	q := &db.KNNQuery{
		IndexName: s.indexName,
		Vector:    vector,
		K:         k,
	}
	if hard != nil {
		q.PreFilter = db.TagFilter(hard.Field, hard.Value)
	}

	res, err := s.store.SearchKNN(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("knn query: %w", err)
	}

	candidates := make([]domain.SearchCandidate, 0, len(res.Entries))
	for _, e := range res.Entries {
		candidates = append(candidates, entryToCandidate(e, s.keyPrefix))
	}
	return candidates, nil
}

// SupportsHardFilter reports pushdown capability: Redis applies TAG
// pre-filters inside FT.SEARCH.
func (s *Store) SupportsHardFilter() bool { return true }

// ListWhere returns the stored chunks whose tag field matches value, without
// scores, for store inspection.
func (s *Store) ListWhere(ctx context.Context, field, value string) ([]domain.SearchCandidate, error) {
	res, err := s.store.SearchList(ctx, s.indexName, db.TagFilter(field, value), 0, deletePageSize, nil)
	if err != nil {
		return nil, fmt.Errorf("list chunks %s=%s: %w", field, value, err)
	}

	out := make([]domain.SearchCandidate, 0, len(res.Entries))
	for _, e := range res.Entries {
		out = append(out, entryToCandidate(e, s.keyPrefix))
	}
	return out, nil
}

// Count returns the total number of stored chunks.
func (s *Store) Count(ctx context.Context) (int, error) {
	n, err := s.store.SearchCount(ctx, s.indexName, "*")
	if err != nil {
		return 0, fmt.Errorf("count chunks: %w", err)
	}
	return n, nil
}

// Ping reports underlying store connectivity.
func (s *Store) Ping(ctx context.Context) error {
	return s.store.Ping(ctx)
}

// entryToCandidate maps a raw search entry back to a candidate, splitting
// hash fields into tags and numerics and stripping internal fields.
func entryToCandidate(e db.SearchEntry, keyPrefix string) domain.SearchCandidate {
	c := domain.SearchCandidate{
		ID:       trimPrefix(e.Key, keyPrefix),
		Score:    e.Score,
		Tags:     map[string]string{},
		Numerics: map[string]float64{},
	}
	for name, val := range e.Fields {
		switch name {
		case fieldContent:
			c.Text = val
		case fieldVector:
			// internal, never exposed to clients
		case domain.FieldChunkIndex, domain.FieldBedrooms, domain.FieldPrice:
			if f, err := strconv.ParseFloat(val, 64); err == nil {
				c.Numerics[name] = f
			}
		default:
			c.Tags[name] = val
		}
	}
	return c
}

func trimPrefix(key, prefix string) string {
	if len(key) >= len(prefix) && key[:len(prefix)] == prefix {
		return key[len(prefix):]
	}
	return key
}
