package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew(t *testing.T) {
	reg := prometheus.NewRegistry()
	m, err := New(reg)
	require.NoError(t, err)

	m.Searches.WithLabelValues(PathFallback).Inc()
	m.Fallbacks.Inc()

	assert.Equal(t, float64(1), testutil.ToFloat64(m.Searches.WithLabelValues(PathFallback)))
	assert.Equal(t, float64(1), testutil.ToFloat64(m.Fallbacks))

	// Registering twice on the same registry fails.
	_, err = New(reg)
	assert.Error(t, err)
}
