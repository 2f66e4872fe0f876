// Package index implements the ingestion pipeline: property record in,
// embedded chunks in the vector store out.
package index

import (
	"context"
	"fmt"
	"hash/fnv"
	"sync"

	"go.uber.org/zap"

	"github.com/kailas-cloud/propdex/internal/docbuild"
	"github.com/kailas-cloud/propdex/internal/domain"
	"github.com/kailas-cloud/propdex/internal/logger"
)

// lockStripes bounds the lock pool regardless of how many property ids pass
// through the service.
const lockStripes = 64

// Service runs the full indexing pipeline for property records.
type Service struct {
	store   ChunkStore
	chunker Chunker
	emb     Embedder

	// locks serializes upserts per property id so concurrent updates of the
	// same record cannot interleave delete and insert phases. Ids hash onto
	// a fixed stripe pool; unrelated properties sharing a stripe only costs
	// extra serialization, never lost mutual exclusion.
	locks [lockStripes]sync.Mutex
}

// New creates an indexing service.
func New(store ChunkStore, chunker Chunker, emb Embedder) *Service {
	return &Service{
		store:   store,
		chunker: chunker,
		emb:     emb,
	}
}

// IndexProperty replaces all indexed chunks of a property with freshly built
// ones and returns the number of chunks stored. The stale set is removed
// before the insert; when that removal fails the upsert is aborted rather
// than left to accumulate orphaned chunks.
func (s *Service) IndexProperty(ctx context.Context, rec *domain.PropertyRecord) (int, error) {
	docs, err := docbuild.BuildDocuments(rec)
	if err != nil {
		return 0, fmt.Errorf("build documents: %w", err)
	}

	chunks := s.chunker.Chunk(docs)
	if len(chunks) == 0 {
		// Nothing survived filtering. Still drop stale chunks so the index
		// reflects the current record.
		return 0, s.replaceChunks(ctx, rec.ID, nil)
	}

	texts := make([]string, len(chunks))
	for i := range chunks {
		texts[i] = chunks[i].Text
	}

	res, err := s.emb.BatchEmbed(ctx, texts)
	if err != nil {
		return 0, fmt.Errorf("embed %d chunks: %w: %v", len(chunks), domain.ErrEmbeddingProviderError, err)
	}
	if len(res.Embeddings) != len(chunks) {
		return 0, fmt.Errorf(
			"embedding count mismatch: got %d for %d chunks: %w",
			len(res.Embeddings), len(chunks), domain.ErrEmbeddingProviderError,
		)
	}
	for i := range chunks {
		chunks[i].Vector = res.Embeddings[i]
	}

	logger.FromContext(ctx).Debug("indexing property",
		zap.String("property_id", rec.ID),
		zap.Int("sections", len(docs)),
		zap.Int("chunks", len(chunks)),
		zap.Int("total_tokens", res.TotalTokens),
	)

	if err := s.replaceChunks(ctx, rec.ID, chunks); err != nil {
		return 0, err
	}
	return len(chunks), nil
}

// replaceChunks removes the property's existing chunks and inserts the new
// set under the per-property lock.
func (s *Service) replaceChunks(ctx context.Context, propertyID string, chunks []domain.Chunk) error {
	lock := s.lockFor(propertyID)
	lock.Lock()
	defer lock.Unlock()

	if _, err := s.store.DeleteWhere(ctx, domain.FieldPropertyID, propertyID); err != nil {
		return fmt.Errorf("remove stale chunks for %s: %w: %v", propertyID, domain.ErrStaleChunkCleanup, err)
	}
	if len(chunks) == 0 {
		return nil
	}
	if err := s.store.Upsert(ctx, chunks); err != nil {
		return fmt.Errorf("store chunks for %s: %w", propertyID, err)
	}
	return nil
}

// DeleteProperty removes every chunk of a property and returns how many were
// removed. Unknown ids map to ErrPropertyNotFound.
func (s *Service) DeleteProperty(ctx context.Context, propertyID string) (int, error) {
	lock := s.lockFor(propertyID)
	lock.Lock()
	defer lock.Unlock()

	n, err := s.store.DeleteWhere(ctx, domain.FieldPropertyID, propertyID)
	if err != nil {
		return n, fmt.Errorf("delete chunks for %s: %w", propertyID, err)
	}
	if n == 0 {
		return 0, domain.ErrPropertyNotFound
	}
	return n, nil
}

// ListChunks returns the stored chunks of a property for inspection. Unknown
// ids map to ErrPropertyNotFound.
func (s *Service) ListChunks(ctx context.Context, propertyID string) ([]domain.SearchCandidate, error) {
	chunks, err := s.store.ListWhere(ctx, domain.FieldPropertyID, propertyID)
	if err != nil {
		return nil, fmt.Errorf("list chunks for %s: %w", propertyID, err)
	}
	if len(chunks) == 0 {
		return nil, domain.ErrPropertyNotFound
	}
	return chunks, nil
}

// Count returns the total number of indexed chunks.
func (s *Service) Count(ctx context.Context) (int, error) {
	n, err := s.store.Count(ctx)
	if err != nil {
		return 0, fmt.Errorf("count chunks: %w", err)
	}
	return n, nil
}

func (s *Service) lockFor(propertyID string) *sync.Mutex {
	h := fnv.New32a()
	h.Write([]byte(propertyID))
	return &s.locks[h.Sum32()%lockStripes]
}
