package search

import (
	"context"
	"errors"
	"testing"

	"github.com/kailas-cloud/propdex/internal/domain"
)

type mockChunkStore struct {
	candidates []domain.SearchCandidate
	queryErr   error
	pushdown   bool

	gotK    int
	gotHard *domain.HardFilter
}

func (m *mockChunkStore) Query(
	_ context.Context, _ []float32, k int, hard *domain.HardFilter,
) ([]domain.SearchCandidate, error) {
	m.gotK = k
	m.gotHard = hard
	if m.queryErr != nil {
		return nil, m.queryErr
	}
	return m.candidates, nil
}

func (m *mockChunkStore) SupportsHardFilter() bool { return m.pushdown }

type mockEmbedder struct {
	err   error
	calls int
}

func (m *mockEmbedder) Embed(_ context.Context, _ string) (domain.EmbeddingResult, error) {
	m.calls++
	if m.err != nil {
		return domain.EmbeddingResult{}, m.err
	}
	return domain.EmbeddingResult{Embedding: []float32{1, 0, 0}, TotalTokens: 4}, nil
}

func candidate(id string, score float64, tags map[string]string, nums map[string]float64) domain.SearchCandidate {
	if tags == nil {
		tags = map[string]string{}
	}
	if nums == nil {
		nums = map[string]float64{}
	}
	return domain.SearchCandidate{ID: id, Score: score, Text: "chunk " + id, Tags: tags, Numerics: nums}
}

func ptr(f float64) *float64 { return &f }

func TestSearch_EmptyQuery(t *testing.T) {
	svc := New(&mockChunkStore{}, &mockEmbedder{})

	_, err := svc.Search(context.Background(), &Request{Query: "   "})
	if !errors.Is(err, domain.ErrEmptyQuery) {
		t.Fatalf("expected ErrEmptyQuery, got %v", err)
	}
}

func TestSearch_EmbedFailure(t *testing.T) {
	svc := New(&mockChunkStore{}, &mockEmbedder{err: errors.New("provider down")})

	_, err := svc.Search(context.Background(), &Request{Query: "riverside"})
	if !errors.Is(err, domain.ErrEmbeddingProviderError) {
		t.Fatalf("expected ErrEmbeddingProviderError, got %v", err)
	}
}

func TestSearch_DefaultAndMaxTopK(t *testing.T) {
	store := &mockChunkStore{}
	svc := New(store, &mockEmbedder{}).WithLimits(5, 50)

	if _, err := svc.Search(context.Background(), &Request{Query: "apartment"}); err != nil {
		t.Fatalf("search: %v", err)
	}
	if store.gotK != 5*rawOverFetch {
		t.Errorf("fetch k = %d, want default %d", store.gotK, 5*rawOverFetch)
	}

	if _, err := svc.Search(context.Background(), &Request{Query: "apartment", TopK: 500}); err != nil {
		t.Fatalf("search: %v", err)
	}
	if store.gotK != 50*rawOverFetch {
		t.Errorf("fetch k = %d, want capped %d", store.gotK, 50*rawOverFetch)
	}
}

func TestSearch_FilteredOverFetch(t *testing.T) {
	store := &mockChunkStore{}
	svc := New(store, &mockEmbedder{})

	req := &Request{
		Query:   "apartment",
		TopK:    4,
		Filters: domain.FilterSet{Location: "district"},
	}
	if _, err := svc.Search(context.Background(), req); err != nil {
		t.Fatalf("search: %v", err)
	}
	if store.gotK != 4*filteredOverFetch {
		t.Errorf("fetch k = %d, want %d", store.gotK, 4*filteredOverFetch)
	}
}

func TestSearch_HardFilterPushdown(t *testing.T) {
	store := &mockChunkStore{pushdown: true}
	svc := New(store, &mockEmbedder{})

	req := &Request{
		Query:   "apartment",
		Filters: domain.FilterSet{PropertyType: "villa"},
	}
	if _, err := svc.Search(context.Background(), req); err != nil {
		t.Fatalf("search: %v", err)
	}
	if store.gotHard == nil {
		t.Fatal("hard filter not pushed down")
	}
	if store.gotHard.Field != domain.FieldPropertyType || store.gotHard.Value != "villa" {
		t.Errorf("pushed filter = %+v", store.gotHard)
	}
}

func TestSearch_HardFilterClientSide(t *testing.T) {
	store := &mockChunkStore{
		pushdown: false,
		candidates: []domain.SearchCandidate{
			candidate("a", 0.9, map[string]string{domain.FieldPropertyType: "villa"}, nil),
			candidate("b", 0.8, map[string]string{domain.FieldPropertyType: "apartment"}, nil),
			candidate("c", 0.7, nil, nil), // no tag: predicate constrains values, not presence
		},
	}
	svc := New(store, &mockEmbedder{})

	got, err := svc.Search(context.Background(), &Request{
		Query:   "pool",
		Filters: domain.FilterSet{PropertyType: "Villa"},
	})
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	if store.gotHard != nil {
		t.Error("filter must not be pushed to a store without pushdown")
	}
	if len(got) != 2 || got[0].ID != "a" || got[1].ID != "c" {
		t.Fatalf("got %v", ids(got))
	}
}

func TestSearch_LocationSubstring(t *testing.T) {
	store := &mockChunkStore{candidates: []domain.SearchCandidate{
		candidate("a", 0.9, map[string]string{domain.FieldLocation: "Thu Thiem, District 2"}, nil),
		candidate("b", 0.8, map[string]string{domain.FieldLocation: "District 7"}, nil),
		candidate("c", 0.7, nil, nil), // missing tag passes
	}}
	svc := New(store, &mockEmbedder{})

	got, err := svc.Search(context.Background(), &Request{
		Query:   "river",
		Filters: domain.FilterSet{Location: "district 2"},
	})
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	if len(got) != 2 || got[0].ID != "a" || got[1].ID != "c" {
		t.Fatalf("got %v", ids(got))
	}
}

func TestSearch_BedroomsTolerance(t *testing.T) {
	store := &mockChunkStore{candidates: []domain.SearchCandidate{
		candidate("exact", 0.9, nil, map[string]float64{domain.FieldBedrooms: 2}),
		candidate("slack", 0.8, nil, map[string]float64{domain.FieldBedrooms: 1.95}),
		candidate("below", 0.7, nil, map[string]float64{domain.FieldBedrooms: 1.5}),
		candidate("missing", 0.6, nil, nil), // missing numeric fails closed
	}}
	svc := New(store, &mockEmbedder{})

	got, err := svc.Search(context.Background(), &Request{
		Query:   "bedrooms",
		Filters: domain.FilterSet{Bedrooms: ptr(2)},
	})
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	if len(got) != 2 || got[0].ID != "exact" || got[1].ID != "slack" {
		t.Fatalf("got %v", ids(got))
	}
}

func TestSearch_BudgetEpsilon(t *testing.T) {
	store := &mockChunkStore{candidates: []domain.SearchCandidate{
		candidate("under", 0.9, nil, map[string]float64{domain.FieldPrice: 900000}),
		candidate("at", 0.8, nil, map[string]float64{domain.FieldPrice: 1000000}),
		candidate("over", 0.7, nil, map[string]float64{domain.FieldPrice: 1000001}),
		candidate("missing", 0.6, nil, nil),
	}}
	svc := New(store, &mockEmbedder{})

	got, err := svc.Search(context.Background(), &Request{
		Query:   "budget",
		Filters: domain.FilterSet{BudgetMax: ptr(1000000)},
	})
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	if len(got) != 2 || got[0].ID != "under" || got[1].ID != "at" {
		t.Fatalf("got %v", ids(got))
	}
}

func TestSearch_OrderPreservedNoResort(t *testing.T) {
	// The store returns similarity order; filtering must only drop entries.
	store := &mockChunkStore{candidates: []domain.SearchCandidate{
		candidate("first", 0.9, nil, map[string]float64{domain.FieldPrice: 100}),
		candidate("drop", 0.85, nil, map[string]float64{domain.FieldPrice: 900}),
		candidate("second", 0.8, nil, map[string]float64{domain.FieldPrice: 200}),
	}}
	svc := New(store, &mockEmbedder{})

	got, err := svc.Search(context.Background(), &Request{
		Query:   "order",
		Filters: domain.FilterSet{BudgetMax: ptr(500)},
	})
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	if len(got) != 2 || got[0].ID != "first" || got[1].ID != "second" {
		t.Fatalf("got %v", ids(got))
	}
}

func TestSearch_TruncatesAtTopK(t *testing.T) {
	var cands []domain.SearchCandidate
	for i := 0; i < 20; i++ {
		cands = append(cands, candidate(string(rune('a'+i)), 1.0-float64(i)/100, nil, nil))
	}
	store := &mockChunkStore{candidates: cands}
	svc := New(store, &mockEmbedder{})

	got, err := svc.Search(context.Background(), &Request{Query: "many", TopK: 3})
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	if len(got) != 3 {
		t.Fatalf("got %d results, want 3", len(got))
	}
}

func TestSearch_StoreError(t *testing.T) {
	store := &mockChunkStore{queryErr: errors.New("index unavailable")}
	svc := New(store, &mockEmbedder{})

	_, err := svc.Search(context.Background(), &Request{Query: "anything"})
	if err == nil {
		t.Fatal("expected error")
	}
}

func ids(cs []domain.SearchCandidate) []string {
	out := make([]string, len(cs))
	for i, c := range cs {
		out[i] = c.ID
	}
	return out
}
