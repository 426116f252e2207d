package repository

import (
	"context"
	"errors"

	"prdapi/internal/model"
)

// ErrIndexUnavailable is returned when no search index is configured or reachable.
var ErrIndexUnavailable = errors.New("search index unavailable")

// IndexRepository is the full-text search index over stored documents.
// No business logic here, strictly persistence operations.
type IndexRepository interface {
	// Search returns at most limit matches ordered by descending relevance score.
	Search(ctx context.Context, query string, limit int) ([]model.SearchResult, error)

	// Upsert inserts or replaces the index row of a document.
	Upsert(ctx context.Context, entry model.IndexEntry) error

	// IndexedIDs returns the identifiers already present in the index.
	IndexedIDs(ctx context.Context) (map[string]struct{}, error)

	// Ping checks index connectivity.
	Ping(ctx context.Context) error
}
