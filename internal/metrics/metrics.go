// Package metrics provides Prometheus metrics for the conform service.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "envconform"

// Conform outcomes recorded by ObserveConform.
const (
	OutcomeOK             = "ok"
	OutcomeInvalidDefault = "invalid_default"
	OutcomeInvalidSchema  = "invalid_schema"
	OutcomeNoSchema       = "no_schema"
)

// Collector holds the service metrics and the registry they are registered on.
type Collector struct {
	gatherer prometheus.Gatherer

	RequestsTotal   *prometheus.CounterVec
	RequestDuration *prometheus.HistogramVec
	RateLimited     prometheus.Counter

	ConformTotal    *prometheus.CounterVec
	ConformedValues *prometheus.CounterVec

	SchemaReloads      prometheus.Counter
	SchemaReloadErrors prometheus.Counter
}

// New creates a collector on a fresh registry that also carries the Go and
// process collectors.
func New() *Collector {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return NewWithRegistry(reg, reg)
}

// NewWithRegistry registers the metrics on reg and serves them from gatherer.
func NewWithRegistry(reg prometheus.Registerer, gatherer prometheus.Gatherer) *Collector {
	factory := promauto.With(reg)

	return &Collector{
		gatherer: gatherer,
		RequestsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "requests_total",
				Help:      "Total number of HTTP requests processed",
			},
			[]string{"method", "path", "status"},
		),
		RequestDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "request_duration_seconds",
				Help:      "HTTP request duration in seconds",
				Buckets:   []float64{.0005, .001, .005, .01, .025, .05, .1, .25, .5, 1},
			},
			[]string{"method", "path"},
		),
		RateLimited: factory.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "rate_limited_total",
				Help:      "Total number of HTTP requests rejected by the rate limiter",
			},
		),
		ConformTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "conform_total",
				Help:      "Total number of conform calls by outcome",
			},
			[]string{"outcome"},
		),
		ConformedValues: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "conformed_values_total",
				Help:      "Total number of values produced by kind",
			},
			[]string{"kind"},
		),
		SchemaReloads: factory.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "schema_reloads_total",
				Help:      "Total number of successful schema file reloads",
			},
		),
		SchemaReloadErrors: factory.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "schema_reload_errors_total",
				Help:      "Total number of failed schema file reloads",
			},
		),
	}
}

// ObserveRequest records a completed HTTP request.
func (c *Collector) ObserveRequest(method, path string, status int, duration time.Duration) {
	if c == nil {
		return
	}
	c.RequestsTotal.WithLabelValues(method, path, strconv.Itoa(status)).Inc()
	c.RequestDuration.WithLabelValues(method, path).Observe(duration.Seconds())
}

// ObserveRateLimited records a request rejected by the rate limiter.
func (c *Collector) ObserveRateLimited() {
	if c == nil {
		return
	}
	c.RateLimited.Inc()
}

// ObserveConform records a conform call and, on success, the kinds it produced.
func (c *Collector) ObserveConform(outcome string, kinds []string) {
	if c == nil {
		return
	}
	c.ConformTotal.WithLabelValues(outcome).Inc()
	for _, kind := range kinds {
		c.ConformedValues.WithLabelValues(kind).Inc()
	}
}

// ObserveReload records a schema reload attempt. It matches the storage
// watcher's reload hook signature.
func (c *Collector) ObserveReload(err error) {
	if c == nil {
		return
	}
	if err != nil {
		c.SchemaReloadErrors.Inc()
		return
	}
	c.SchemaReloads.Inc()
}

// Handler serves the collected metrics in the Prometheus exposition format.
func (c *Collector) Handler() http.Handler {
	return promhttp.HandlerFor(c.gatherer, promhttp.HandlerOpts{})
}
