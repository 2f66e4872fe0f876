package propdex

import (
	"go.uber.org/zap"

	"github.com/kailas-cloud/propdex/internal/domain"
	"github.com/kailas-cloud/propdex/internal/transport/openai"
)

// EmbeddingResult carries an embedding vector and token usage.
type EmbeddingResult = domain.EmbeddingResult

// BatchEmbeddingResult carries multiple vectors and aggregate token usage.
type BatchEmbeddingResult = domain.BatchEmbeddingResult

// OpenAIConfig configures the bundled OpenAI-compatible embedding provider.
type OpenAIConfig struct {
	APIKey     string
	BaseURL    string // empty targets api.openai.com
	Model      string
	Dimensions int
	Logger     *zap.Logger
}

// NewOpenAIEmbedder returns an embedder backed by an OpenAI-compatible
// embeddings API. It also implements BatchEmbedder, so indexing vectorizes
// all chunks of a property in one call. Pass it to WithEmbedder.
func NewOpenAIEmbedder(cfg OpenAIConfig) Embedder {
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return openai.NewEmbedder(&openai.Config{
		APIKey:     cfg.APIKey,
		BaseURL:    cfg.BaseURL,
		Model:      cfg.Model,
		Dimensions: cfg.Dimensions,
		Provider:   "openai",
		Logger:     logger,
	})
}
