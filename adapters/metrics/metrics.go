// Package metrics provides Prometheus metrics for generated model routes.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "modelgate"

// Collector holds all Prometheus metrics.
type Collector struct {
	// Request metrics
	RequestsTotal    *prometheus.CounterVec
	RequestDuration  *prometheus.HistogramVec
	RequestsInFlight prometheus.Gauge

	// Auth metrics
	AuthFailures *prometheus.CounterVec

	// Pipeline metrics
	ModelsRegistered    prometheus.Gauge
	RelationsUnresolved prometheus.Counter

	// Entity metrics
	EntityChanges *prometheus.CounterVec

	gatherer prometheus.Gatherer
}

// New creates a collector registered with the default registry.
func New() *Collector {
	return NewWithRegistry(prometheus.DefaultRegisterer)
}

// NewWithRegistry creates a collector registered with reg.
// Tests pass a fresh registry to avoid global state.
func NewWithRegistry(reg prometheus.Registerer) *Collector {
	factory := promauto.With(reg)

	gatherer := prometheus.DefaultGatherer
	if g, ok := reg.(prometheus.Gatherer); ok {
		gatherer = g
	}

	return &Collector{
		gatherer: gatherer,
		RequestsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "requests_total",
				Help:      "Total number of model requests processed",
			},
			[]string{"model", "operation", "status"},
		),
		RequestDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "request_duration_seconds",
				Help:      "Model request duration in seconds",
				Buckets:   []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10},
			},
			[]string{"model", "operation"},
		),
		RequestsInFlight: factory.NewGauge(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "requests_in_flight",
				Help:      "Number of model requests currently being processed",
			},
		),
		AuthFailures: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "auth_failures_total",
				Help:      "Total number of rejected requests on authenticated routes",
			},
			[]string{"model", "status"},
		),
		ModelsRegistered: factory.NewGauge(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "models_registered",
				Help:      "Number of models derived at startup",
			},
		),
		RelationsUnresolved: factory.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "relations_unresolved_total",
				Help:      "Relations skipped because their target model is not registered",
			},
		),
		EntityChanges: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "entity_changes_total",
				Help:      "Entities created, updated or deleted",
			},
			[]string{"model", "action"},
		),
	}
}

// Instrument wraps next and records one observation per request under the
// given model and operation labels.
func (c *Collector) Instrument(model, operation string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			c.RequestsInFlight.Inc()
			defer c.RequestsInFlight.Dec()

			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			start := time.Now()
			next.ServeHTTP(ww, r)

			status := ww.Status()
			if status == 0 {
				status = http.StatusOK
			}
			c.RequestsTotal.WithLabelValues(model, operation, StatusClass(status)).Inc()
			c.RequestDuration.WithLabelValues(model, operation).Observe(time.Since(start).Seconds())
			if status == http.StatusUnauthorized || status == http.StatusForbidden {
				c.AuthFailures.WithLabelValues(model, strconv.Itoa(status)).Inc()
			}
		})
	}
}

// Handler exposes the metrics of the collector's registry.
func (c *Collector) Handler() http.Handler {
	return promhttp.HandlerFor(c.gatherer, promhttp.HandlerOpts{})
}

// StatusClass reduces a status code to its class, e.g. 404 -> "4xx".
func StatusClass(status int) string {
	if status < 100 || status > 599 {
		return "unknown"
	}
	return strconv.Itoa(status/100) + "xx"
}
