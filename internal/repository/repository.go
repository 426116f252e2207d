// Package repository defines the search index abstraction. Implementations live in subpackages.
package repository

import (
	"context"

	"prdapi/internal/model"
)

// DisabledIndex stands in when no index database is configured.
// Every call fails with ErrIndexUnavailable so search takes its fallback path.
type DisabledIndex struct{}

var _ IndexRepository = DisabledIndex{}

func (DisabledIndex) Search(context.Context, string, int) ([]model.SearchResult, error) {
	return nil, ErrIndexUnavailable
}

func (DisabledIndex) Upsert(context.Context, model.IndexEntry) error {
	return ErrIndexUnavailable
}

func (DisabledIndex) IndexedIDs(context.Context) (map[string]struct{}, error) {
	return nil, ErrIndexUnavailable
}

func (DisabledIndex) Ping(context.Context) error {
	return ErrIndexUnavailable
}
