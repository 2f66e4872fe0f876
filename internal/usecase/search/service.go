// Package search implements hybrid retrieval: semantic KNN over chunk
// embeddings combined with structured metadata filters.
package search

import (
	"context"
	"fmt"
	"strings"

	"github.com/kailas-cloud/propdex/internal/domain"
)

// Filter tolerances. Bedrooms comes from listings that store "2.0" style
// strings, so the minimum check allows a small slack; the budget epsilon
// absorbs float coercion noise on prices.
const (
	bedroomsTolerance = 0.1
	budgetEpsilon     = 1e-6
)

// Over-fetch multipliers. Filtered queries fetch a deeper candidate pool so
// post-filtering still fills the requested page.
const (
	rawOverFetch      = 2
	filteredOverFetch = 5
)

// Request is a hybrid search request. TopK <= 0 selects the service default.
type Request struct {
	Query   string
	TopK    int
	Filters domain.FilterSet
}

// Service executes hybrid searches against a chunk store.
type Service struct {
	store       ChunkStore
	embed       Embedder
	defaultTopK int
	maxTopK     int
}

// New creates a search service.
func New(store ChunkStore, embed Embedder) *Service {
	return &Service{
		store:       store,
		embed:       embed,
		defaultTopK: 5,
		maxTopK:     50,
	}
}

// WithLimits configures top-k bounds.
func (s *Service) WithLimits(defaultTopK, maxTopK int) *Service {
	if defaultTopK > 0 {
		s.defaultTopK = defaultTopK
	}
	if maxTopK > 0 {
		s.maxTopK = maxTopK
	}
	return s
}

// Search embeds the query, over-fetches candidates, applies structured
// filters, and returns at most TopK hits. Candidate order is whatever the
// store returned; filtering drops entries without re-sorting survivors.
func (s *Service) Search(ctx context.Context, req *Request) ([]domain.SearchCandidate, error) {
	if strings.TrimSpace(req.Query) == "" {
		return nil, domain.ErrEmptyQuery
	}

	topK := req.TopK
	if topK <= 0 {
		topK = s.defaultTopK
	}
	if topK > s.maxTopK {
		topK = s.maxTopK
	}

	embResult, err := s.embed.Embed(ctx, req.Query)
	if err != nil {
		return nil, fmt.Errorf("vectorize query: %w: %v", domain.ErrEmbeddingProviderError, err)
	}

	fetchK := topK * rawOverFetch
	if !req.Filters.IsEmpty() {
		fetchK = topK * filteredOverFetch
	}

	hard, hardPushed := s.hardFilter(req.Filters)
	candidates, err := s.store.Query(ctx, embResult.Embedding, fetchK, hard)
	if err != nil {
		return nil, fmt.Errorf("query chunks: %w", err)
	}

	results := make([]domain.SearchCandidate, 0, topK)
	for _, c := range candidates {
		if !hardPushed && !matchesHard(&c, req.Filters) {
			continue
		}
		if !matchesSoft(&c, req.Filters) {
			continue
		}
		results = append(results, c)
		if len(results) == topK {
			break
		}
	}
	return results, nil
}

// hardFilter returns the pushdown predicate when the store supports it. The
// second return reports whether the store applies it; otherwise matchesHard
// runs client-side.
func (s *Service) hardFilter(f domain.FilterSet) (*domain.HardFilter, bool) {
	if f.PropertyType == "" {
		return nil, true
	}
	if !s.store.SupportsHardFilter() {
		return nil, false
	}
	return &domain.HardFilter{Field: domain.FieldPropertyType, Value: f.PropertyType}, true
}

// matchesHard applies the property type predicate client-side. Chunks with no
// property_type tag pass: the predicate constrains values, not presence.
func matchesHard(c *domain.SearchCandidate, f domain.FilterSet) bool {
	if f.PropertyType == "" {
		return true
	}
	pt, ok := c.Tags[domain.FieldPropertyType]
	if !ok {
		return true
	}
	return strings.EqualFold(pt, f.PropertyType)
}

// matchesSoft applies the location, bedrooms, and budget predicates. String
// predicates pass when the chunk lacks the tag; numeric predicates fail when
// the chunk lacks the number, since an unknown price cannot be shown to
// satisfy a budget.
func matchesSoft(c *domain.SearchCandidate, f domain.FilterSet) bool {
	if f.Location != "" {
		if loc, ok := c.Tags[domain.FieldLocation]; ok {
			if !strings.Contains(strings.ToLower(loc), strings.ToLower(f.Location)) {
				return false
			}
		}
	}

	if f.Bedrooms != nil {
		beds, ok := c.Numerics[domain.FieldBedrooms]
		if !ok || beds < *f.Bedrooms-bedroomsTolerance {
			return false
		}
	}

	if f.BudgetMax != nil {
		price, ok := c.Numerics[domain.FieldPrice]
		if !ok || price > *f.BudgetMax+budgetEpsilon {
			return false
		}
	}

	return true
}
