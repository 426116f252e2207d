package mocks

import (
	"context"

	"prdapi/internal/model"

	"github.com/stretchr/testify/mock"
)

type MockIndexRepository struct {
	mock.Mock
}

func (m *MockIndexRepository) Search(ctx context.Context, query string, limit int) ([]model.SearchResult, error) {
	args := m.Called(ctx, query, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.SearchResult), args.Error(1)
}

func (m *MockIndexRepository) Upsert(ctx context.Context, entry model.IndexEntry) error {
	args := m.Called(ctx, entry)
	return args.Error(0)
}

func (m *MockIndexRepository) IndexedIDs(ctx context.Context) (map[string]struct{}, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(map[string]struct{}), args.Error(1)
}

func (m *MockIndexRepository) Ping(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}
