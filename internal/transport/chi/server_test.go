package chi

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/kailas-cloud/propdex/internal/chunker"
	"github.com/kailas-cloud/propdex/internal/domain"
	"github.com/kailas-cloud/propdex/internal/repository/memstore"
	healthuc "github.com/kailas-cloud/propdex/internal/usecase/health"
	indexuc "github.com/kailas-cloud/propdex/internal/usecase/index"
	messageuc "github.com/kailas-cloud/propdex/internal/usecase/message"
	searchuc "github.com/kailas-cloud/propdex/internal/usecase/search"
)

type stubEmbedder struct {
	err error
}

func (e *stubEmbedder) Embed(_ context.Context, _ string) (domain.EmbeddingResult, error) {
	if e.err != nil {
		return domain.EmbeddingResult{}, e.err
	}
	return domain.EmbeddingResult{Embedding: []float32{1, 0, 0}, TotalTokens: 4}, nil
}

func (e *stubEmbedder) BatchEmbed(_ context.Context, texts []string) (domain.BatchEmbeddingResult, error) {
	if e.err != nil {
		return domain.BatchEmbeddingResult{}, e.err
	}
	embeddings := make([][]float32, len(texts))
	for i := range embeddings {
		embeddings[i] = []float32{1, 0, 0}
	}
	return domain.BatchEmbeddingResult{Embeddings: embeddings, TotalTokens: len(texts) * 3}, nil
}

type stubMessageStore struct {
	hits []domain.MessageHit
}

func (s *stubMessageStore) Add(_ context.Context, _ *domain.Message, _ []float32) error {
	return nil
}

func (s *stubMessageStore) Query(
	_ context.Context, _ []float32, _ int, _ string,
) ([]domain.MessageHit, error) {
	return s.hits, nil
}

type stubEmbeddingChecker struct{ err error }

func (c *stubEmbeddingChecker) HealthCheck(_ context.Context) error { return c.err }

func newTestRouter(t *testing.T, emb *stubEmbedder, withMessages bool) (chi.Router, *memstore.Store) {
	t.Helper()
	store := memstore.New()

	indexSvc := indexuc.New(store, chunker.New(0, 0), emb)
	searchSvc := searchuc.New(store, emb)
	healthSvc := healthuc.New(store, &stubEmbeddingChecker{})

	var messageSvc *messageuc.Service
	if withMessages {
		messageSvc = messageuc.New(&stubMessageStore{hits: []domain.MessageHit{
			{ID: "m1", Score: 0.9, Text: "remembered turn", Tags: map[string]string{"role": "user"}},
		}}, emb)
	}

	server := NewServer(indexSvc, searchSvc, messageSvc, healthSvc, zap.NewNop())
	r := chi.NewRouter()
	server.Routes(r)
	return r, store
}

func doJSON(r chi.Router, method, path, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	return rec
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder, v any) {
	t.Helper()
	if err := json.NewDecoder(rec.Body).Decode(v); err != nil {
		t.Fatalf("decode response: %v\nbody: %s", err, rec.Body.String())
	}
}

const propertyBody = `{
	"id": "p1",
	"description": "Bright corner apartment overlooking the river with a private terrace.",
	"design_and_layout": {
		"location": "Thu Thiem, District 2",
		"type": "apartment",
		"bedrooms": 2,
		"price": "4,500,000,000"
	}
}`

func TestUpsertProperty(t *testing.T) {
	r, store := newTestRouter(t, &stubEmbedder{}, false)

	rec := doJSON(r, http.MethodPost, "/api/v2/property/embedding", propertyBody)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
	}

	var resp embedResponse
	decodeBody(t, rec, &resp)
	if resp.PropertyID != "p1" || resp.Chunks < 1 {
		t.Errorf("response = %+v", resp)
	}
	if n, _ := store.Count(context.Background()); n != resp.Chunks {
		t.Errorf("store holds %d chunks, response says %d", n, resp.Chunks)
	}

	// PUT shares replace semantics with POST.
	rec = doJSON(r, http.MethodPut, "/api/v2/property/embedding", propertyBody)
	if rec.Code != http.StatusOK {
		t.Fatalf("PUT status = %d", rec.Code)
	}
	if n, _ := store.Count(context.Background()); n != resp.Chunks {
		t.Errorf("re-upsert accumulated chunks: %d", n)
	}
}

func TestUpsertProperty_MissingID(t *testing.T) {
	r, _ := newTestRouter(t, &stubEmbedder{}, false)

	rec := doJSON(r, http.MethodPost, "/api/v2/property/embedding", `{"description":"no id at all"}`)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d", rec.Code)
	}
	var resp errorResponse
	decodeBody(t, rec, &resp)
	if resp.Code != codeMissingPropertyID {
		t.Errorf("code = %q", resp.Code)
	}
}

func TestUpsertProperty_InvalidJSON(t *testing.T) {
	r, _ := newTestRouter(t, &stubEmbedder{}, false)

	rec := doJSON(r, http.MethodPost, "/api/v2/property/embedding", `{not json`)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d", rec.Code)
	}
}

func TestUpsertProperty_ProviderDown(t *testing.T) {
	r, _ := newTestRouter(t, &stubEmbedder{err: errors.New("upstream 500")}, false)

	rec := doJSON(r, http.MethodPost, "/api/v2/property/embedding", propertyBody)
	if rec.Code != http.StatusBadGateway {
		t.Fatalf("status = %d, want 502", rec.Code)
	}
	var resp errorResponse
	decodeBody(t, rec, &resp)
	if resp.Code != codeProviderError {
		t.Errorf("code = %q", resp.Code)
	}
	if strings.Contains(resp.Message, "upstream 500") {
		t.Error("internal error detail leaked to client")
	}
}

func TestDeleteProperty(t *testing.T) {
	r, _ := newTestRouter(t, &stubEmbedder{}, false)
	doJSON(r, http.MethodPost, "/api/v2/property/embedding", propertyBody)

	rec := doJSON(r, http.MethodDelete, "/api/v2/property/embedding/p1", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	var resp deleteResponse
	decodeBody(t, rec, &resp)
	if resp.PropertyID != "p1" || resp.Deleted < 1 {
		t.Errorf("response = %+v", resp)
	}

	// Second delete: already gone.
	rec = doJSON(r, http.MethodDelete, "/api/v2/property/embedding/p1", "")
	if rec.Code != http.StatusNotFound {
		t.Fatalf("repeat delete status = %d, want 404", rec.Code)
	}
	var errResp errorResponse
	decodeBody(t, rec, &errResp)
	if errResp.Code != codePropertyNotFound {
		t.Errorf("code = %q", errResp.Code)
	}
}

func TestInspectVectors(t *testing.T) {
	r, _ := newTestRouter(t, &stubEmbedder{}, false)
	doJSON(r, http.MethodPost, "/api/v2/property/embedding", propertyBody)

	rec := doJSON(r, http.MethodGet, "/api/v2/property/vector/p1", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	var resp vectorInspectResponse
	decodeBody(t, rec, &resp)
	if resp.PropertyID != "p1" || resp.Total < 1 {
		t.Fatalf("response = %+v", resp)
	}
	for _, c := range resp.Chunks {
		if c.Score != nil {
			t.Error("inspection must not carry similarity scores")
		}
		if c.Text == "" {
			t.Error("chunk text missing")
		}
	}

	rec = doJSON(r, http.MethodGet, "/api/v2/property/vector/unknown", "")
	if rec.Code != http.StatusNotFound {
		t.Fatalf("unknown id status = %d", rec.Code)
	}
}

func TestSearchProperties(t *testing.T) {
	r, _ := newTestRouter(t, &stubEmbedder{}, false)
	doJSON(r, http.MethodPost, "/api/v2/property/embedding", propertyBody)

	rec := doJSON(r, http.MethodPost, "/api/v2/property/search",
		`{"query":"riverside apartment","top_k":3}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
	}
	var resp searchResponse
	decodeBody(t, rec, &resp)
	if resp.Total < 1 {
		t.Fatal("no search results")
	}
	if resp.Items[0].Score == nil {
		t.Error("search results must carry scores")
	}
}

func TestSearchProperties_WithFilters(t *testing.T) {
	r, _ := newTestRouter(t, &stubEmbedder{}, false)
	doJSON(r, http.MethodPost, "/api/v2/property/embedding", propertyBody)

	rec := doJSON(r, http.MethodPost, "/api/v2/property/search",
		`{"query":"apartment","filters":{"location":"district 2","bedrooms":2,"budget_max":5000000000}}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
	}
	var resp searchResponse
	decodeBody(t, rec, &resp)
	if resp.Total < 1 {
		t.Fatal("filters rejected a matching property")
	}

	// A budget below the listing price excludes it.
	rec = doJSON(r, http.MethodPost, "/api/v2/property/search",
		`{"query":"apartment","filters":{"budget_max":1000}}`)
	decodeBody(t, rec, &resp)
	if resp.Total != 0 {
		t.Errorf("over-budget property returned: %+v", resp)
	}
}

func TestSearchProperties_Validation(t *testing.T) {
	r, _ := newTestRouter(t, &stubEmbedder{}, false)

	cases := []struct {
		name string
		body string
	}{
		{"missing query", `{"top_k":5}`},
		{"top_k too large", `{"query":"q","top_k":100}`},
		{"negative bedrooms", `{"query":"q","filters":{"bedrooms":-1}}`},
		{"zero budget", `{"query":"q","filters":{"budget_max":0}}`},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			rec := doJSON(r, http.MethodPost, "/api/v2/property/search", c.body)
			if rec.Code != http.StatusBadRequest {
				t.Fatalf("status = %d, want 400", rec.Code)
			}
			var resp errorResponse
			decodeBody(t, rec, &resp)
			if resp.Code != codeValidationFailed {
				t.Errorf("code = %q", resp.Code)
			}
		})
	}
}

func TestConversationRoutes(t *testing.T) {
	r, _ := newTestRouter(t, &stubEmbedder{}, true)

	rec := doJSON(r, http.MethodPost, "/api/v2/conversation/message",
		`{"conversation_id":"conv-1","role":"user","text":"looking for two bedrooms"}`)
	if rec.Code != http.StatusCreated {
		t.Fatalf("store status = %d, body %s", rec.Code, rec.Body.String())
	}
	var stored messageStoreResponse
	decodeBody(t, rec, &stored)
	if stored.ID == "" {
		t.Error("no message id returned")
	}

	rec = doJSON(r, http.MethodPost, "/api/v2/conversation/message/search",
		`{"query":"bedrooms","conversation_id":"conv-1"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("search status = %d", rec.Code)
	}
	var resp messageSearchResponse
	decodeBody(t, rec, &resp)
	if resp.Total != 1 || resp.Items[0].ID != "m1" {
		t.Errorf("response = %+v", resp)
	}
}

func TestConversationRoutes_InvalidRole(t *testing.T) {
	r, _ := newTestRouter(t, &stubEmbedder{}, true)

	rec := doJSON(r, http.MethodPost, "/api/v2/conversation/message",
		`{"conversation_id":"conv-1","role":"robot","text":"hi"}`)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d", rec.Code)
	}
}

func TestConversationRoutes_DisabledWhenNil(t *testing.T) {
	r, _ := newTestRouter(t, &stubEmbedder{}, false)

	rec := doJSON(r, http.MethodPost, "/api/v2/conversation/message",
		`{"conversation_id":"conv-1","role":"user","text":"hi"}`)
	if rec.Code == http.StatusCreated {
		t.Fatal("conversation route mounted despite nil service")
	}
}

func TestHealth(t *testing.T) {
	r, _ := newTestRouter(t, &stubEmbedder{}, false)

	rec := doJSON(r, http.MethodGet, "/health", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	var resp healthResponse
	decodeBody(t, rec, &resp)
	if resp.Status != string(healthuc.Healthy) {
		t.Errorf("status = %q", resp.Status)
	}
	if resp.Checks["store"] == "" || resp.Checks["embedding"] == "" {
		t.Errorf("checks = %v", resp.Checks)
	}
}
