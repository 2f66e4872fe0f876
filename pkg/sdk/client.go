package propdex

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/propdex/internal/chunker"
	dbRedis "github.com/kailas-cloud/propdex/internal/db/redis"
	"github.com/kailas-cloud/propdex/internal/domain"
	"github.com/kailas-cloud/propdex/internal/repository/chunkstore"
	"github.com/kailas-cloud/propdex/internal/repository/memstore"
	healthuc "github.com/kailas-cloud/propdex/internal/usecase/health"
	indexuc "github.com/kailas-cloud/propdex/internal/usecase/index"
	searchuc "github.com/kailas-cloud/propdex/internal/usecase/search"
)

const defaultReadinessTimeout = 10 * time.Second

// Embedder converts text to vector embeddings.
type Embedder = domain.Embedder

// BatchEmbedder vectorizes multiple texts in a single API call. Optional;
// embedders without it fall back to one call per chunk.
type BatchEmbedder = domain.BatchEmbedder

// PropertyRecord is a structured property listing to index.
type PropertyRecord = domain.PropertyRecord

// SearchCandidate is a single retrieval hit.
type SearchCandidate = domain.SearchCandidate

// Health mirrors the service /health report.
type Health = healthuc.Report

// SearchOptions configures a hybrid search query. Zero values mean the
// corresponding filter is inactive.
type SearchOptions struct {
	TopK         int
	Location     string
	PropertyType string
	Bedrooms     *float64
	BudgetMax    *float64
}

// vectorStore is the adapter contract both drivers satisfy.
type vectorStore interface {
	indexuc.ChunkStore
	searchuc.ChunkStore
	EnsureIndex(ctx context.Context) error
	Ping(ctx context.Context) error
}

// Client is the embedded propdex entry point.
type Client struct {
	store     *dbRedis.Store // nil for the memory driver
	indexSvc  *indexuc.Service
	searchSvc *searchuc.Service
	healthSvc *healthuc.Service
	logger    *zap.Logger
}

// New creates a Client and prepares the chunk index. The provided context
// bounds the initial readiness check and schema creation.
func New(ctx context.Context, opts ...Option) (*Client, error) {
	cfg := &clientConfig{
		driver:           "memory",
		vectorDimensions: domain.DefaultVectorDimensions,
		keyPrefix:        "propdex:",
		chunkMaxChars:    chunker.DefaultMaxChars,
		chunkOverlap:     chunker.DefaultOverlap,
	}
	for _, o := range opts {
		o.apply(cfg)
	}
	if cfg.embedder == nil {
		return nil, errors.New("embedder is required: pass WithEmbedder")
	}
	logger := cfg.logger
	if logger == nil {
		logger = zap.NewNop()
	}

	c := &Client{logger: logger}

	var chunks vectorStore
	switch cfg.driver {
	case "redis":
		store, err := dbRedis.NewStore(dbRedis.Config{
			Addrs:    cfg.addrs,
			Password: cfg.password,
		})
		if err != nil {
			return nil, fmt.Errorf("connect redis: %w", err)
		}
		if err := store.WaitForReady(ctx, defaultReadinessTimeout); err != nil {
			store.Close()
			return nil, fmt.Errorf("redis not ready: %w", err)
		}
		cs := chunkstore.New(store, cfg.keyPrefix, cfg.vectorDimensions)
		if cfg.hnswM > 0 || cfg.hnswEFConstruct > 0 {
			cs = cs.WithHNSW(chunkstore.HNSWConfig{
				M:           cfg.hnswM,
				EFConstruct: cfg.hnswEFConstruct,
			})
		}
		c.store = store
		chunks = cs
	case "memory":
		chunks = memstore.New()
	default:
		return nil, fmt.Errorf("unknown driver %q", cfg.driver)
	}

	if err := chunks.EnsureIndex(ctx); err != nil {
		c.Close()
		return nil, fmt.Errorf("ensure chunk index: %w", err)
	}
	logger.Debug("client ready",
		zap.String("driver", cfg.driver),
		zap.Int("vector_dimensions", cfg.vectorDimensions))

	batch := &batchAdapter{inner: cfg.embedder}
	splitter := chunker.New(cfg.chunkMaxChars, cfg.chunkOverlap)

	c.indexSvc = indexuc.New(chunks, splitter, batch)
	c.searchSvc = searchuc.New(chunks, cfg.embedder).
		WithLimits(cfg.defaultTopK, cfg.maxTopK)
	c.healthSvc = healthuc.New(chunks, &embedderChecker{embedder: cfg.embedder})

	return c, nil
}

// IndexProperty flattens, chunks, embeds, and stores a property record,
// replacing any chunks from a previous version. Returns the stored chunk
// count.
func (c *Client) IndexProperty(ctx context.Context, rec *PropertyRecord) (int, error) {
	return c.indexSvc.IndexProperty(ctx, rec)
}

// DeleteProperty removes all chunks of a property. Returns the number
// removed; ErrPropertyNotFound if there were none.
func (c *Client) DeleteProperty(ctx context.Context, propertyID string) (int, error) {
	return c.indexSvc.DeleteProperty(ctx, propertyID)
}

// ListChunks returns the stored chunks of one property without scores.
func (c *Client) ListChunks(ctx context.Context, propertyID string) ([]SearchCandidate, error) {
	return c.indexSvc.ListChunks(ctx, propertyID)
}

// Count returns the total number of stored chunks.
func (c *Client) Count(ctx context.Context) (int, error) {
	return c.indexSvc.Count(ctx)
}

// Search runs a hybrid query: semantic retrieval plus the structured
// filters in opts.
func (c *Client) Search(ctx context.Context, query string, opts SearchOptions) ([]SearchCandidate, error) {
	return c.searchSvc.Search(ctx, &searchuc.Request{
		Query: query,
		TopK:  opts.TopK,
		Filters: domain.FilterSet{
			Location:     opts.Location,
			PropertyType: opts.PropertyType,
			Bedrooms:     opts.Bedrooms,
			BudgetMax:    opts.BudgetMax,
		},
	})
}

// HealthCheck reports store and embedding provider availability.
func (c *Client) HealthCheck(ctx context.Context) Health {
	return c.healthSvc.Check(ctx)
}

// Close releases the underlying connection. Safe to call on a memory-backed
// client.
func (c *Client) Close() {
	if c.store != nil {
		c.store.Close()
	}
}

// batchAdapter gives the indexing pipeline a batch interface over any
// embedder, using native batching when available.
type batchAdapter struct {
	inner Embedder
}

func (a *batchAdapter) BatchEmbed(ctx context.Context, texts []string) (domain.BatchEmbeddingResult, error) {
	if be, ok := a.inner.(BatchEmbedder); ok {
		return be.BatchEmbed(ctx, texts)
	}
	return domain.BatchFallback(ctx, a.inner, texts)
}

// embedderChecker probes the provider when it exposes a health check and
// reports healthy otherwise.
type embedderChecker struct {
	embedder Embedder
}

func (e *embedderChecker) HealthCheck(ctx context.Context) error {
	if hc, ok := e.embedder.(domain.HealthChecker); ok {
		return hc.HealthCheck(ctx)
	}
	return nil
}
