// Package metrics provides the domain Prometheus metrics of the document service.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Search paths.
const (
	PathIndex    = "index"
	PathFallback = "fallback"
)

// Metrics holds counters for document operations.
type Metrics struct {
	Searches    *prometheus.CounterVec
	Fallbacks   prometheus.Counter
	Stores      *prometheus.CounterVec
	Gets        *prometheus.CounterVec
	Indexed     prometheus.Counter
	IndexErrors prometheus.Counter
	RateLimited prometheus.Counter
}

// New creates the metrics and registers them on reg.
func New(reg prometheus.Registerer) (*Metrics, error) {
	m := &Metrics{
		Searches: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "prdapi_searches_total",
				Help: "Searches served, by the path that produced the results.",
			},
			[]string{"path"},
		),
		Fallbacks: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "prdapi_search_fallback_total",
			Help: "Searches that fell back to listing the object store.",
		}),
		Stores: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "prdapi_stores_total",
				Help: "Store operations by outcome.",
			},
			[]string{"status"},
		),
		Gets: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "prdapi_gets_total",
				Help: "Get operations by outcome.",
			},
			[]string{"status"},
		),
		Indexed: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "prdapi_indexed_documents_total",
			Help: "Documents ingested into the search index.",
		}),
		IndexErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "prdapi_index_errors_total",
			Help: "Documents that failed to ingest into the search index.",
		}),
		RateLimited: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "prdapi_rate_limited_total",
			Help: "Requests rejected by the rate limiter.",
		}),
	}

	for _, c := range []prometheus.Collector{m.Searches, m.Fallbacks, m.Stores, m.Gets, m.Indexed, m.IndexErrors, m.RateLimited} {
		if err := reg.Register(c); err != nil {
			return nil, err
		}
	}
	return m, nil
}
