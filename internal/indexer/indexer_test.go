package indexer

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"prdapi/internal/metrics"
	"prdapi/internal/model"
	repoMocks "prdapi/internal/repository/mocks"
	"prdapi/internal/service"
	"prdapi/internal/storage"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

const page = `<!DOCTYPE html><html><head><title>Fitness Tracker</title><style>body{color:red}</style></head>
<body><h1>Fitness Tracker</h1><p>Track   workouts
daily.</p><script>alert(1)</script></body></html>`

func putHTML(t *testing.T, s storage.Storage, key string, md map[string]string) {
	t.Helper()
	_, err := s.Put(context.Background(), key, strings.NewReader(page), storage.PutObjectOptions{
		Size:     int64(len(page)),
		Metadata: md,
	})
	require.NoError(t, err)
}

func newTestIndexer(t *testing.T, s storage.Storage, idx *repoMocks.MockIndexRepository, batch int) (*Indexer, *metrics.Metrics) {
	t.Helper()
	m, err := metrics.New(prometheus.NewRegistry())
	require.NoError(t, err)
	return New(s, idx, "prds", batch, m, zerolog.Nop()), m
}

func TestExtractText(t *testing.T) {
	text, err := ExtractText(strings.NewReader(page))

	require.NoError(t, err)
	assert.Equal(t, "Fitness Tracker", text.Title)
	assert.Equal(t, "Fitness Tracker Track workouts daily.", text.Body)
}

func TestSyncOnce(t *testing.T) {
	ctx := context.Background()
	created := time.Date(2025, 2, 3, 4, 5, 6, 0, time.UTC)

	mem := storage.NewMemory("bucket")
	putHTML(t, mem, "prds/fitness_tracker_1.html", map[string]string{
		service.MetaProductName: "Fitness Tracker",
		service.MetaSummary:     "Track workouts.",
		service.MetaCreatedAt:   created.Format(time.RFC3339Nano),
	})
	putHTML(t, mem, "prds/old_2.html", nil)
	putHTML(t, mem, "prds/no_meta_3.html", nil)
	_, err := mem.Put(ctx, "prds/fitness_tracker_1.md", strings.NewReader("# x"), storage.PutObjectOptions{Size: 3})
	require.NoError(t, err)

	idx := new(repoMocks.MockIndexRepository)
	ix, m := newTestIndexer(t, mem, idx, 0)

	idx.On("IndexedIDs", ctx).Return(map[string]struct{}{"old_2": {}}, nil).Once()
	idx.On("Upsert", ctx, model.IndexEntry{
		ID:          "fitness_tracker_1",
		ProductName: "Fitness Tracker",
		Summary:     "Track workouts.",
		Body:        "Fitness Tracker Track workouts daily.",
		HTMLPath:    "mem://bucket/prds/fitness_tracker_1.html",
		CreatedAt:   created,
	}).Return(nil).Once()
	idx.On("Upsert", ctx, mock.MatchedBy(func(e model.IndexEntry) bool {
		return e.ID == "no_meta_3" && e.ProductName == "Fitness Tracker"
	})).Return(errors.New("db down")).Once()

	st, err := ix.SyncOnce(ctx)

	require.NoError(t, err)
	assert.Equal(t, Stats{Seen: 3, Indexed: 1, Skipped: 1, Failed: 1}, st)
	assert.Equal(t, float64(1), testutil.ToFloat64(m.Indexed))
	assert.Equal(t, float64(1), testutil.ToFloat64(m.IndexErrors))
	idx.AssertExpectations(t)
}

func TestSyncOnce_BatchLimit(t *testing.T) {
	ctx := context.Background()
	mem := storage.NewMemory("bucket")
	putHTML(t, mem, "prds/a_1.html", nil)
	putHTML(t, mem, "prds/b_2.html", nil)

	idx := new(repoMocks.MockIndexRepository)
	ix, _ := newTestIndexer(t, mem, idx, 1)

	idx.On("IndexedIDs", ctx).Return(map[string]struct{}{}, nil).Once()
	idx.On("Upsert", ctx, mock.Anything).Return(nil).Once()

	st, err := ix.SyncOnce(ctx)

	require.NoError(t, err)
	assert.Equal(t, 1, st.Indexed)
	idx.AssertNumberOfCalls(t, "Upsert", 1)
}

func TestSyncOnce_IndexUnavailable(t *testing.T) {
	ctx := context.Background()
	idx := new(repoMocks.MockIndexRepository)
	ix, _ := newTestIndexer(t, storage.NewMemory("bucket"), idx, 0)

	idx.On("IndexedIDs", ctx).Return(nil, errors.New("refused")).Once()

	_, err := ix.SyncOnce(ctx)

	assert.ErrorContains(t, err, "load indexed ids")
}

func TestRun_StopsOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	idx := new(repoMocks.MockIndexRepository)
	ix, _ := newTestIndexer(t, storage.NewMemory("bucket"), idx, 0)

	idx.On("IndexedIDs", mock.Anything).Return(map[string]struct{}{}, nil).Run(func(mock.Arguments) { cancel() })

	done := make(chan struct{})
	go func() {
		ix.Run(ctx, time.Hour)
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Run did not return after cancel")
	}
}
