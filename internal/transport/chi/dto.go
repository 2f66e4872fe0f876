package chi

import (
	"github.com/go-playground/validator/v10"

	"github.com/kailas-cloud/propdex/internal/domain"
)

var validate = validator.New()

// errorResponse is the uniform error body.
type errorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// embedResponse is returned by property embedding upserts.
type embedResponse struct {
	PropertyID string `json:"property_id"`
	Chunks     int    `json:"chunks"`
}

// deleteResponse is returned by property embedding deletes.
type deleteResponse struct {
	PropertyID string `json:"property_id"`
	Deleted    int    `json:"deleted"`
}

// chunkItem is one stored chunk in inspection and search responses.
type chunkItem struct {
	ID       string             `json:"id"`
	Score    *float64           `json:"score,omitempty"`
	Text     string             `json:"text"`
	Tags     map[string]string  `json:"tags,omitempty"`
	Numerics map[string]float64 `json:"numerics,omitempty"`
}

// vectorInspectResponse is returned by GET /property/vector/{id}.
type vectorInspectResponse struct {
	PropertyID string      `json:"property_id"`
	Chunks     []chunkItem `json:"chunks"`
	Total      int         `json:"total"`
}

// searchFilters carries the structured predicates of a search request.
type searchFilters struct {
	Location     string   `json:"location,omitempty"`
	PropertyType string   `json:"property_type,omitempty"`
	Bedrooms     *float64 `json:"bedrooms,omitempty" validate:"omitempty,gte=0"`
	BudgetMax    *float64 `json:"budget_max,omitempty" validate:"omitempty,gt=0"`
}

// searchRequest is the hybrid search request body.
type searchRequest struct {
	Query   string        `json:"query" validate:"required"`
	TopK    int           `json:"top_k" validate:"omitempty,gte=1,lte=50"`
	Filters searchFilters `json:"filters"`
}

// searchResponse is the hybrid search response body.
type searchResponse struct {
	Items []chunkItem `json:"items"`
	Total int         `json:"total"`
}

// messageRequest stores one conversation turn.
type messageRequest struct {
	ID             string            `json:"id,omitempty"`
	ConversationID string            `json:"conversation_id" validate:"required"`
	UserID         string            `json:"user_id,omitempty"`
	Role           string            `json:"role" validate:"required,oneof=user assistant system"`
	Text           string            `json:"text" validate:"required"`
	Intent         string            `json:"intent,omitempty"`
	Extra          map[string]string `json:"extra,omitempty"`
}

// messageStoreResponse returns the id of the stored message.
type messageStoreResponse struct {
	ID string `json:"id"`
}

// messageSearchRequest queries conversation memory.
type messageSearchRequest struct {
	Query          string `json:"query" validate:"required"`
	TopK           int    `json:"top_k" validate:"omitempty,gte=1,lte=50"`
	ConversationID string `json:"conversation_id,omitempty"`
	Role           string `json:"role,omitempty"`
	Intent         string `json:"intent,omitempty"`
}

// messageItem is one hit in a message search response.
type messageItem struct {
	ID    string            `json:"id"`
	Score float64           `json:"score"`
	Text  string            `json:"text"`
	Tags  map[string]string `json:"tags,omitempty"`
}

// messageSearchResponse is the message search response body.
type messageSearchResponse struct {
	Items []messageItem `json:"items"`
	Total int           `json:"total"`
}

// healthResponse mirrors the health usecase report.
type healthResponse struct {
	Status string            `json:"status"`
	Checks map[string]string `json:"checks"`
}

func (r *messageRequest) toDomain() *domain.Message {
	return &domain.Message{
		ID:             r.ID,
		ConversationID: r.ConversationID,
		UserID:         r.UserID,
		Role:           r.Role,
		Text:           r.Text,
		Intent:         r.Intent,
		Extra:          r.Extra,
	}
}

func (f *searchFilters) toDomain() domain.FilterSet {
	return domain.FilterSet{
		Location:     f.Location,
		PropertyType: f.PropertyType,
		Bedrooms:     f.Bedrooms,
		BudgetMax:    f.BudgetMax,
	}
}

func candidateToItem(c *domain.SearchCandidate, withScore bool) chunkItem {
	item := chunkItem{
		ID:       c.ID,
		Text:     c.Text,
		Tags:     c.Tags,
		Numerics: c.Numerics,
	}
	if withScore {
		score := c.Score
		item.Score = &score
	}
	return item
}
