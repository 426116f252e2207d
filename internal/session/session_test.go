package session

import (
	"context"
	"testing"
	"time"

	"prdapi/internal/model"

	mr "github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newRedisStore(t *testing.T) (*RedisStore, *mr.Miniredis) {
	t.Helper()
	m, err := mr.Run()
	require.NoError(t, err)
	t.Cleanup(m.Close)

	client := redis.NewClient(&redis.Options{Addr: m.Addr()})
	return NewRedisStore(client, "test:session:"), m
}

func TestRedisStore_SaveLoadDelete(t *testing.T) {
	store, m := newRedisStore(t)
	ctx := context.Background()

	s := New("A fitness tracker", time.Hour)
	s.State = StateAwaitingApproval
	s.Draft = "# Fitness Tracker"
	s.Matches = []model.SearchResult{{ID: "fitness_tracker_1", Score: 0.5}}

	require.NoError(t, store.Save(ctx, s))
	assert.True(t, m.Exists("test:session:"+s.ID))
	assert.InDelta(t, time.Hour.Seconds(), m.TTL("test:session:"+s.ID).Seconds(), 5)

	got, err := store.Load(ctx, s.ID)
	require.NoError(t, err)
	assert.Equal(t, StateAwaitingApproval, got.State)
	assert.Equal(t, "# Fitness Tracker", got.Draft)
	assert.Equal(t, "fitness_tracker_1", got.Matches[0].ID)
	assert.True(t, got.Awaiting())

	require.NoError(t, store.Delete(ctx, s.ID))
	_, err = store.Load(ctx, s.ID)
	assert.ErrorIs(t, err, ErrSessionNotFound)
}

func TestRedisStore_TTLExpiry(t *testing.T) {
	store, m := newRedisStore(t)
	ctx := context.Background()

	s := New("idea", 2*time.Second)
	require.NoError(t, store.Save(ctx, s))

	m.FastForward(3 * time.Second)

	_, err := store.Load(ctx, s.ID)
	assert.ErrorIs(t, err, ErrSessionNotFound)
}

func TestRedisStore_ExpiredValue(t *testing.T) {
	store, _ := newRedisStore(t)
	ctx := context.Background()

	s := New("idea", time.Hour)
	s.ExpiresAt = time.Now().UTC().Add(-time.Minute)
	require.NoError(t, store.Save(ctx, s))

	_, err := store.Load(ctx, s.ID)
	assert.ErrorIs(t, err, ErrSessionNotFound)
}

func TestMemoryStore(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()
	now := time.Now()
	store.now = func() time.Time { return now }

	s := New("idea", time.Minute)
	require.NoError(t, store.Save(ctx, s))

	got, err := store.Load(ctx, s.ID)
	require.NoError(t, err)
	got.Description = "mutated"

	again, err := store.Load(ctx, s.ID)
	require.NoError(t, err)
	assert.Equal(t, "idea", again.Description)

	store.now = func() time.Time { return now.Add(2 * time.Minute) }
	_, err = store.Load(ctx, s.ID)
	assert.ErrorIs(t, err, ErrSessionNotFound)

	_, err = store.Load(ctx, "unknown")
	assert.ErrorIs(t, err, ErrSessionNotFound)
}
