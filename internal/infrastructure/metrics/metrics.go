// Package metrics exposes Prometheus instrumentation for bug searches and
// HTTP traffic.
package metrics

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	apperrors "github.com/lorrc/bug-burndown/internal/core/errors"
	"github.com/lorrc/bug-burndown/internal/core/ports"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "burndown"

// Metrics holds the collectors of the service on a private registry.
type Metrics struct {
	registry       *prometheus.Registry
	searchDuration *prometheus.HistogramVec
	searchBugs     prometheus.Histogram
	httpRequests   *prometheus.CounterVec
}

var _ ports.SearchObserver = (*Metrics)(nil)

// New creates and registers all collectors, including the Go runtime and
// process collectors.
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		searchDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "search_duration_seconds",
			Help:      "Duration of bug tracker searches.",
			Buckets:   []float64{0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60},
		}, []string{"result"}),
		searchBugs: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "search_bugs",
			Help:      "Number of bugs returned by successful searches.",
			Buckets:   prometheus.ExponentialBuckets(1, 4, 8),
		}),
		httpRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "HTTP requests by route and status code.",
		}, []string{"route", "code"}),
	}

	m.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.searchDuration,
		m.searchBugs,
		m.httpRequests,
	)
	return m
}

// ObserveSearch records one bug search.
func (m *Metrics) ObserveSearch(duration time.Duration, bugs int, err error) {
	m.searchDuration.WithLabelValues(searchResult(err)).Observe(duration.Seconds())
	if err == nil {
		m.searchBugs.Observe(float64(bugs))
	}
}

// ObserveRequest counts one served HTTP request.
func (m *Metrics) ObserveRequest(route string, status int) {
	m.httpRequests.WithLabelValues(route, strconv.Itoa(status)).Inc()
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

// Registry returns the underlying registry.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

func searchResult(err error) string {
	var fetchErr *apperrors.FetchError
	switch {
	case err == nil:
		return "ok"
	case errors.As(err, &fetchErr) && fetchErr.Type == "timeout":
		return "timeout"
	default:
		return "error"
	}
}
