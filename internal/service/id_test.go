package service

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSlugify(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"Fitness Tracker", "fitness_tracker"},
		{"  AI-Powered   Budget App!! ", "ai_powered_budget_app"},
		{"Café 2.0", "caf_2_0"},
		{"___", "prd"},
		{"", "prd"},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, Slugify(tt.in))
		})
	}
}

func TestIDGenerator_StrictlyIncreasingWithFrozenClock(t *testing.T) {
	frozen := time.Unix(1700000000, 0)
	g := &IDGenerator{now: func() time.Time { return frozen }}

	first := g.Next("Fitness Tracker")
	second := g.Next("Fitness Tracker")

	assert.Equal(t, "fitness_tracker_1700000000000000", first)
	assert.Equal(t, "fitness_tracker_1700000000000001", second)
}

func TestIDGenerator_ClockGoingBackwards(t *testing.T) {
	times := []time.Time{time.UnixMicro(500), time.UnixMicro(100)}
	i := 0
	g := &IDGenerator{now: func() time.Time { t := times[i]; i++; return t }}

	assert.Equal(t, "x_500", g.Next("x"))
	assert.Equal(t, "x_501", g.Next("x"))
}

func TestIDGenerator_ConcurrentUnique(t *testing.T) {
	g := NewIDGenerator()
	const n = 200

	var (
		mu   sync.Mutex
		seen = make(map[string]struct{}, n)
		wg   sync.WaitGroup
	)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			id := g.Next("Same Name")
			mu.Lock()
			seen[id] = struct{}{}
			mu.Unlock()
		}()
	}
	wg.Wait()

	require.Len(t, seen, n)
}

func TestValidateID(t *testing.T) {
	assert.NoError(t, validateID("fitness_tracker_1700000000000000"))
	assert.NoError(t, validateID("a-b_c"))
	assert.ErrorIs(t, validateID(""), ErrValidation)
	assert.ErrorIs(t, validateID("../x"), ErrValidation)
	assert.ErrorIs(t, validateID("_leading"), ErrValidation)
	assert.ErrorIs(t, validateID("Upper"), ErrValidation)
}
