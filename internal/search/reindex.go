package search

import (
	"context"
	"fmt"
	"sort"

	"go.uber.org/zap"
)

// SourceFunc pages through the primary store for one index.
type SourceFunc func(ctx context.Context, offset, limit int) ([]Document, error)

// ReindexStats summarizes a reindex run.
type ReindexStats struct {
	Synced map[string]int
	Failed map[string]int
}

// Reindexer rebuilds search records from the primary store in batches.
// It heals records whose change events were lost; it does not remove
// records for documents deleted while the feed was down.
type Reindexer struct {
	index     Index
	sources   map[string]SourceFunc
	batchSize int
	logger    *zap.Logger
}

// NewReindexer creates a Reindexer writing batchSize documents per bulk request.
func NewReindexer(index Index, batchSize int, logger *zap.Logger) *Reindexer {
	if batchSize <= 0 {
		batchSize = 100
	}
	return &Reindexer{
		index:     index,
		sources:   make(map[string]SourceFunc),
		batchSize: batchSize,
		logger:    logger.Named("search_reindexer"),
	}
}

// AddSource registers the source feeding indexName.
func (r *Reindexer) AddSource(indexName string, src SourceFunc) {
	r.sources[indexName] = src
}

// ReindexAll walks every registered source.
func (r *Reindexer) ReindexAll(ctx context.Context) (ReindexStats, error) {
	stats := ReindexStats{Synced: map[string]int{}, Failed: map[string]int{}}

	names := make([]string, 0, len(r.sources))
	for name := range r.sources {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		synced, failed, err := r.reindex(ctx, name, r.sources[name])
		stats.Synced[name] = synced
		stats.Failed[name] = failed
		if err != nil {
			return stats, err
		}
	}
	return stats, nil
}

func (r *Reindexer) reindex(ctx context.Context, indexName string, src SourceFunc) (synced, failed int, err error) {
	log := r.logger.With(zap.String("index", indexName))
	log.Info("Starting search reindex", zap.Int("batchSize", r.batchSize))

	for offset, batch := 0, 1; ; batch++ {
		docs, err := src(ctx, offset, r.batchSize)
		if err != nil {
			return synced, failed, fmt.Errorf("fetching batch %d for %s: %w", batch, indexName, err)
		}
		if len(docs) == 0 {
			break
		}

		n, err := r.index.BulkUpsert(ctx, indexName, docs)
		if err != nil {
			log.Error("Bulk request failed", zap.Int("batchNumber", batch), zap.Error(err))
			failed += len(docs)
		} else {
			synced += n
			failed += len(docs) - n
		}
		log.Debug("Batch processed", zap.Int("batchNumber", batch), zap.Int("count", len(docs)))

		offset += len(docs)
		if len(docs) < r.batchSize {
			break
		}
	}

	log.Info("Search reindex finished", zap.Int("synced", synced), zap.Int("failed", failed))
	return synced, failed, nil
}
