// Package indexer ingests stored HTML renditions into the full-text search index.
package indexer

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"prdapi/internal/metrics"
	"prdapi/internal/model"
	"prdapi/internal/repository"
	"prdapi/internal/service"
	"prdapi/internal/storage"
)

// Stats summarises one sync pass.
type Stats struct {
	Seen    int
	Indexed int
	Skipped int
	Failed  int
}

// Indexer copies documents that are not yet indexed from the object store into the index.
type Indexer struct {
	store     storage.Storage
	index     repository.IndexRepository
	layout    service.Layout
	metrics   *metrics.Metrics
	log       zerolog.Logger
	batchSize int
}

// New creates an Indexer. batchSize <= 0 means no per-pass limit.
func New(store storage.Storage, index repository.IndexRepository, prefix string, batchSize int, m *metrics.Metrics, log zerolog.Logger) *Indexer {
	return &Indexer{
		store:     store,
		index:     index,
		layout:    service.Layout{Prefix: prefix},
		metrics:   m,
		log:       log.With().Str("component", "indexer").Logger(),
		batchSize: batchSize,
	}
}

// SyncOnce runs a single ingestion pass. Per-document failures are counted and logged
// without aborting the pass.
func (ix *Indexer) SyncOnce(ctx context.Context) (Stats, error) {
	var st Stats

	known, err := ix.index.IndexedIDs(ctx)
	if err != nil {
		return st, fmt.Errorf("load indexed ids: %w", err)
	}

	objects, err := ix.store.List(ctx, ix.layout.ListPrefix())
	if err != nil {
		return st, fmt.Errorf("list objects: %w", err)
	}

	for _, obj := range objects {
		if err := ctx.Err(); err != nil {
			return st, err
		}
		id, ok := ix.layout.ID(obj.Key, service.ExtHTML)
		if !ok {
			continue
		}
		st.Seen++
		if _, done := known[id]; done {
			st.Skipped++
			continue
		}
		if ix.batchSize > 0 && st.Indexed >= ix.batchSize {
			break
		}

		if err := ix.ingest(ctx, id, obj.Key); err != nil {
			st.Failed++
			ix.metrics.IndexErrors.Inc()
			ix.log.Error().Str("event", "index_failed").Str("prd_id", id).Err(err).Msg("failed to index document")
			continue
		}
		st.Indexed++
		ix.metrics.Indexed.Inc()
	}

	ix.log.Info().
		Str("event", "index_sync").
		Int("seen", st.Seen).
		Int("indexed", st.Indexed).
		Int("skipped", st.Skipped).
		Int("failed", st.Failed).
		Msg("index sync finished")
	return st, nil
}

func (ix *Indexer) ingest(ctx context.Context, id, key string) error {
	rc, info, err := ix.store.Get(ctx, key)
	if err != nil {
		return err
	}
	defer rc.Close()

	text, err := ExtractText(rc)
	if err != nil {
		return fmt.Errorf("parse html: %w", err)
	}

	doc := service.DocumentFromObject(id, info)
	name := doc.ProductName
	if info.Metadata[service.MetaProductName] == "" && text.Title != "" {
		name = text.Title
	}

	return ix.index.Upsert(ctx, model.IndexEntry{
		ID:          doc.ID,
		ProductName: name,
		Summary:     doc.Summary,
		Body:        text.Body,
		HTMLPath:    ix.store.URI(key),
		CreatedAt:   doc.CreatedAt,
	})
}

// Run calls SyncOnce immediately and then on every tick until ctx is cancelled.
func (ix *Indexer) Run(ctx context.Context, interval time.Duration) {
	ix.log.Info().Dur("interval", interval).Msg("indexer started")
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		if _, err := ix.SyncOnce(ctx); err != nil && ctx.Err() == nil {
			ix.log.Warn().Str("event", "index_sync_failed").Err(err).Msg("index sync failed")
		}
		select {
		case <-ctx.Done():
			ix.log.Info().Msg("indexer stopped")
			return
		case <-ticker.C:
		}
	}
}
