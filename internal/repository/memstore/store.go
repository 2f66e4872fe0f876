// Package memstore is the embedded realization of the vector store adapter:
// chunks are held in process memory and queried by brute-force cosine scan.
// It serves development, tests, and small single-node deployments where
// running Redis is not worth the operational cost.
package memstore

import (
	"context"
	"math"
	"sort"
	"sync"

	"github.com/kailas-cloud/propdex/internal/domain"
)

type record struct {
	chunk  domain.Chunk
	vector []float32
	norm   float64
}

// Store keeps all chunks in memory. Safe for concurrent use.
type Store struct {
	mu      sync.RWMutex
	records map[string]record
}

// New creates an empty in-memory store.
func New() *Store {
	return &Store{records: make(map[string]record)}
}

// EnsureIndex is a no-op: the scan needs no index structure.
func (s *Store) EnsureIndex(_ context.Context) error { return nil }

// Ping always succeeds; the store lives in the same process.
func (s *Store) Ping(_ context.Context) error { return nil }

// Upsert stores chunks, replacing any existing chunk with the same identity.
func (s *Store) Upsert(_ context.Context, chunks []domain.Chunk) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range chunks {
		c := chunks[i]
		s.records[c.ID()] = record{
			chunk:  c,
			vector: c.Vector,
			norm:   vectorNorm(c.Vector),
		}
	}
	return nil
}

// DeleteWhere removes every chunk whose tag field matches value and returns
// the number removed. The built-in identity fields are matched alongside the
// metadata tags so deletion by property_id or section works uniformly.
func (s *Store) DeleteWhere(_ context.Context, field, value string) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	deleted := 0
	for id, r := range s.records {
		if tagValue(&r.chunk, field) == value {
			delete(s.records, id)
			deleted++
		}
	}
	return deleted, nil
}

// Query scores every stored chunk against the query vector and returns the
// top k by cosine similarity, highest first. The hard filter is ignored here;
// SupportsHardFilter reports false and the engine applies it client-side.
func (s *Store) Query(
	_ context.Context, vector []float32, k int, _ *domain.HardFilter,
) ([]domain.SearchCandidate, error) {
	qnorm := vectorNorm(vector)

	s.mu.RLock()
	candidates := make([]domain.SearchCandidate, 0, len(s.records))
	for id, r := range s.records {
		candidates = append(candidates, domain.SearchCandidate{
			ID:       id,
			Score:    cosineSimilarity(vector, qnorm, r.vector, r.norm),
			Text:     r.chunk.Text,
			Tags:     candidateTags(&r.chunk),
			Numerics: candidateNumerics(&r.chunk),
		})
	}
	s.mu.RUnlock()

	sort.SliceStable(candidates, func(i, j int) bool {
		return candidates[i].Score > candidates[j].Score
	})
	if k < len(candidates) {
		candidates = candidates[:k]
	}
	return candidates, nil
}

// SupportsHardFilter reports pushdown capability; the scan has none.
func (s *Store) SupportsHardFilter() bool { return false }

// ListWhere returns stored chunks whose tag field matches value, without
// scores, ordered by chunk identity for determinism.
func (s *Store) ListWhere(_ context.Context, field, value string) ([]domain.SearchCandidate, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []domain.SearchCandidate
	for id, r := range s.records {
		if tagValue(&r.chunk, field) != value {
			continue
		}
		out = append(out, domain.SearchCandidate{
			ID:       id,
			Text:     r.chunk.Text,
			Tags:     candidateTags(&r.chunk),
			Numerics: candidateNumerics(&r.chunk),
		})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

// Count returns the total number of stored chunks.
func (s *Store) Count(_ context.Context) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.records), nil
}

func tagValue(c *domain.Chunk, field string) string {
	switch field {
	case domain.FieldPropertyID:
		return c.PropertyID
	case domain.FieldSection:
		return c.Section
	default:
		return c.Tags[field]
	}
}

func candidateTags(c *domain.Chunk) map[string]string {
	tags := make(map[string]string, len(c.Tags)+2)
	for k, v := range c.Tags {
		tags[k] = v
	}
	tags[domain.FieldPropertyID] = c.PropertyID
	tags[domain.FieldSection] = c.Section
	return tags
}

func candidateNumerics(c *domain.Chunk) map[string]float64 {
	nums := make(map[string]float64, len(c.Numerics)+1)
	for k, v := range c.Numerics {
		nums[k] = v
	}
	nums[domain.FieldChunkIndex] = float64(c.Index)
	return nums
}

func vectorNorm(v []float32) float64 {
	var sum float64
	for _, x := range v {
		sum += float64(x) * float64(x)
	}
	return math.Sqrt(sum)
}

// cosineSimilarity returns 1 - cosine distance. Vectors of mismatched length
// are compared over the shorter prefix; a zero-norm vector scores 0.
func cosineSimilarity(a []float32, anorm float64, b []float32, bnorm float64) float64 {
	if anorm == 0 || bnorm == 0 {
		return 0
	}
	n := len(a)
	if len(b) < n {
		n = len(b)
	}
	var dot float64
	for i := 0; i < n; i++ {
		dot += float64(a[i]) * float64(b[i])
	}
	return dot / (anorm * bnorm)
}
