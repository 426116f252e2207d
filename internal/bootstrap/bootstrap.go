// Package bootstrap opens the backends shared by the service and indexer binaries.
package bootstrap

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/rs/zerolog"

	"prdapi/internal/config"
	"prdapi/internal/database"
	"prdapi/internal/database/migration"
	"prdapi/internal/repository"
	"prdapi/internal/repository/postgres"
	"prdapi/internal/storage"
)

// MemoryEndpoint selects the in-process object store.
const MemoryEndpoint = "memory"

const defaultBucket = "prds"

// OpenStorage returns the configured object store. An empty endpoint or "memory" keeps objects in process.
func OpenStorage(cfg config.MinIOConfig, log zerolog.Logger) (storage.Storage, error) {
	if cfg.Endpoint == "" || cfg.Endpoint == MemoryEndpoint {
		bucket := cfg.Bucket
		if bucket == "" {
			bucket = defaultBucket
		}
		log.Warn().Str("bucket", bucket).Msg("using in-memory object storage, documents are lost on exit")
		return storage.NewMemory(bucket), nil
	}
	store, err := storage.NewMinIO(cfg)
	if err != nil {
		return nil, fmt.Errorf("init object storage: %w", err)
	}
	log.Info().Str("endpoint", cfg.Endpoint).Str("bucket", store.Bucket()).Msg("object storage ready")
	return store, nil
}

// Index is an opened search index and the handle to release it.
type Index struct {
	Repo repository.IndexRepository
	// Name is the database name, or "disabled".
	Name string
	db   *sql.DB
}

// Close releases the database pool, if any.
func (i *Index) Close() error {
	if i.db == nil {
		return nil
	}
	return i.db.Close()
}

// OpenIndex connects and migrates the search index. Without DB_HOST, or when the database is
// unreachable and required is false, search runs on the object-store fallback.
func OpenIndex(ctx context.Context, cfg config.DatabaseConfig, required bool, log zerolog.Logger) (*Index, error) {
	disabled := &Index{Repo: repository.DisabledIndex{}, Name: "disabled"}
	if !cfg.Enabled() {
		log.Info().Msg("search index disabled, DB_HOST not set")
		return disabled, nil
	}

	db, err := database.NewPostgres(ctx, cfg)
	if err == nil {
		err = migration.EnsureMigrated(ctx, db, log, cfg.Host)
		if err != nil {
			db.Close()
		}
	}
	if err != nil {
		if required {
			return nil, fmt.Errorf("open search index: %w", err)
		}
		log.Error().Err(err).Msg("search index unavailable, continuing with fallback search")
		return disabled, nil
	}

	return &Index{Repo: postgres.NewIndexPostgres(db), Name: cfg.Name, db: db}, nil
}
