// Package chi is the HTTP transport: request decoding, validation, routing,
// and domain error mapping for the property index API.
package chi

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/kailas-cloud/propdex/internal/domain"
	"github.com/kailas-cloud/propdex/internal/metrics"
	healthuc "github.com/kailas-cloud/propdex/internal/usecase/health"
	indexuc "github.com/kailas-cloud/propdex/internal/usecase/index"
	messageuc "github.com/kailas-cloud/propdex/internal/usecase/message"
	searchuc "github.com/kailas-cloud/propdex/internal/usecase/search"
)

// Server exposes the indexing, search, and conversation memory APIs.
type Server struct {
	index    *indexuc.Service
	search   *searchuc.Service
	messages *messageuc.Service
	health   *healthuc.Service
	logger   *zap.Logger
}

// NewServer creates an HTTP API server. messages can be nil when conversation
// memory is not configured.
func NewServer(
	index *indexuc.Service,
	search *searchuc.Service,
	messages *messageuc.Service,
	health *healthuc.Service,
	logger *zap.Logger,
) *Server {
	return &Server{
		index:    index,
		search:   search,
		messages: messages,
		health:   health,
		logger:   logger,
	}
}

// Routes mounts all handlers on the given router.
func (s *Server) Routes(r chi.Router) {
	r.Route("/api/v2", func(r chi.Router) {
		r.Post("/property/embedding", s.upsertProperty)
		r.Put("/property/embedding", s.upsertProperty)
		r.Delete("/property/embedding/{id}", s.deleteProperty)
		r.Get("/property/vector/{id}", s.inspectVectors)
		r.Post("/property/search", s.searchProperties)

		if s.messages != nil {
			r.Post("/conversation/message", s.storeMessage)
			r.Post("/conversation/message/search", s.searchMessages)
		}
	})

	r.Get("/health", s.healthCheck)
	r.Get("/metrics", s.metricsHandler)
}

// upsertProperty handles POST and PUT /api/v2/property/embedding. Both verbs
// share replace semantics: the record's previous chunks are dropped first.
func (s *Server) upsertProperty(w http.ResponseWriter, r *http.Request) {
	var rec domain.PropertyRecord
	if err := json.NewDecoder(r.Body).Decode(&rec); err != nil {
		writeError(w, http.StatusBadRequest, codeBadRequest, "Invalid request body: "+err.Error())
		return
	}

	count, err := s.index.IndexProperty(r.Context(), &rec)
	if err != nil {
		metrics.PropertiesIndexedTotal.WithLabelValues("error").Inc()
		s.handleDomainError(w, err)
		return
	}

	metrics.PropertiesIndexedTotal.WithLabelValues("success").Inc()
	metrics.ChunksIndexedTotal.Add(float64(count))

	writeJSON(w, http.StatusOK, embedResponse{
		PropertyID: rec.ID,
		Chunks:     count,
	})
}

// deleteProperty handles DELETE /api/v2/property/embedding/{id}.
func (s *Server) deleteProperty(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if id == "" {
		writeError(w, http.StatusBadRequest, codeMissingPropertyID, "property id is required")
		return
	}

	deleted, err := s.index.DeleteProperty(r.Context(), id)
	if err != nil {
		s.handleDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, deleteResponse{
		PropertyID: id,
		Deleted:    deleted,
	})
}

// inspectVectors handles GET /api/v2/property/vector/{id}: the stored chunks
// of one property, without similarity scores.
func (s *Server) inspectVectors(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if id == "" {
		writeError(w, http.StatusBadRequest, codeMissingPropertyID, "property id is required")
		return
	}

	chunks, err := s.index.ListChunks(r.Context(), id)
	if err != nil {
		s.handleDomainError(w, err)
		return
	}

	items := make([]chunkItem, len(chunks))
	for i := range chunks {
		items[i] = candidateToItem(&chunks[i], false)
	}

	writeJSON(w, http.StatusOK, vectorInspectResponse{
		PropertyID: id,
		Chunks:     items,
		Total:      len(items),
	})
}

// searchProperties handles POST /api/v2/property/search.
func (s *Server) searchProperties(w http.ResponseWriter, r *http.Request) {
	var req searchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, codeBadRequest, "Invalid request body: "+err.Error())
		return
	}
	if err := validate.Struct(&req); err != nil {
		writeError(w, http.StatusBadRequest, codeValidationFailed, err.Error())
		return
	}

	filtered := "false"
	if !req.Filters.toDomain().IsEmpty() {
		filtered = "true"
	}

	results, err := s.search.Search(r.Context(), &searchuc.Request{
		Query:   req.Query,
		TopK:    req.TopK,
		Filters: req.Filters.toDomain(),
	})
	if err != nil {
		metrics.SearchRequestsTotal.WithLabelValues(filtered, "error").Inc()
		s.handleDomainError(w, err)
		return
	}

	metrics.SearchRequestsTotal.WithLabelValues(filtered, "success").Inc()

	items := make([]chunkItem, len(results))
	for i := range results {
		items[i] = candidateToItem(&results[i], true)
	}

	writeJSON(w, http.StatusOK, searchResponse{
		Items: items,
		Total: len(items),
	})
}

// storeMessage handles POST /api/v2/conversation/message.
func (s *Server) storeMessage(w http.ResponseWriter, r *http.Request) {
	var req messageRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, codeBadRequest, "Invalid request body: "+err.Error())
		return
	}
	if err := validate.Struct(&req); err != nil {
		writeError(w, http.StatusBadRequest, codeValidationFailed, err.Error())
		return
	}

	id, err := s.messages.Store(r.Context(), req.toDomain())
	if err != nil {
		s.handleDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, messageStoreResponse{ID: id})
}

// searchMessages handles POST /api/v2/conversation/message/search.
func (s *Server) searchMessages(w http.ResponseWriter, r *http.Request) {
	var req messageSearchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, codeBadRequest, "Invalid request body: "+err.Error())
		return
	}
	if err := validate.Struct(&req); err != nil {
		writeError(w, http.StatusBadRequest, codeValidationFailed, err.Error())
		return
	}

	hits, err := s.messages.Search(r.Context(), &messageuc.SearchRequest{
		Query:          req.Query,
		TopK:           req.TopK,
		ConversationID: req.ConversationID,
		Role:           req.Role,
		Intent:         req.Intent,
	})
	if err != nil {
		s.handleDomainError(w, err)
		return
	}

	items := make([]messageItem, len(hits))
	for i, h := range hits {
		items[i] = messageItem{ID: h.ID, Score: h.Score, Text: h.Text, Tags: h.Tags}
	}

	writeJSON(w, http.StatusOK, messageSearchResponse{
		Items: items,
		Total: len(items),
	})
}

// healthCheck handles GET /health.
func (s *Server) healthCheck(w http.ResponseWriter, r *http.Request) {
	report := s.health.Check(r.Context())

	checks := make(map[string]string, len(report.Checks))
	for k, v := range report.Checks {
		checks[k] = string(v)
	}

	httpStatus := http.StatusOK
	if report.Status != healthuc.Healthy {
		httpStatus = http.StatusServiceUnavailable
	}

	writeJSON(w, httpStatus, healthResponse{
		Status: string(report.Status),
		Checks: checks,
	})
}

// metricsHandler handles GET /metrics.
func (s *Server) metricsHandler(w http.ResponseWriter, r *http.Request) {
	promhttp.Handler().ServeHTTP(w, r)
}
