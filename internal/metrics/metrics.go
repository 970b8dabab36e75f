// Package metrics exposes dashboard counters and gauges in Prometheus format.
package metrics

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"deployhub/internal/deployment"
	"deployhub/internal/stats"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Collector owns a private registry so tests and multiple servers never
// collide on the default one.
type Collector struct {
	registry *prometheus.Registry

	generated       *prometheus.CounterVec
	feedRecords     prometheus.Gauge
	statusRecords   *prometheus.GaugeVec
	successRate     prometheus.Gauge
	requestCounter  *prometheus.CounterVec
	requestDuration *prometheus.HistogramVec
}

// New creates a collector with all dashboard metrics registered
func New() *Collector {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)

	c := &Collector{registry: reg}

	c.generated = factory.NewCounterVec(
		prometheus.CounterOpts{
			Name: "deployhub_deployments_generated_total",
			Help: "Total number of synthetic deployments generated",
		},
		[]string{"status", "environment"},
	)

	c.feedRecords = factory.NewGauge(
		prometheus.GaugeOpts{
			Name: "deployhub_feed_records",
			Help: "Number of deployment records currently in the feed",
		},
	)

	c.statusRecords = factory.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "deployhub_feed_records_by_status",
			Help: "Number of deployment records in the feed by status",
		},
		[]string{"status"},
	)

	c.successRate = factory.NewGauge(
		prometheus.GaugeOpts{
			Name: "deployhub_success_rate_percent",
			Help: "Rounded success rate of the records in the feed",
		},
	)

	c.requestCounter = factory.NewCounterVec(
		prometheus.CounterOpts{
			Name: "deployhub_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "route", "status_code"},
	)

	c.requestDuration = factory.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "deployhub_http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "route"},
	)

	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	return c
}

// Observe counts a generated deployment. It matches the simulator hook signature.
func (c *Collector) Observe(_ context.Context, r deployment.Record) {
	c.generated.WithLabelValues(string(r.Status), string(r.Environment)).Inc()
}

// Update sets the feed gauges from freshly computed stats
func (c *Collector) Update(s stats.Stats) {
	c.feedRecords.Set(float64(s.Total))
	c.successRate.Set(float64(s.SuccessRate))

	c.statusRecords.WithLabelValues(string(deployment.StatusSuccess)).Set(float64(s.SuccessCount))
	c.statusRecords.WithLabelValues(string(deployment.StatusInProgress)).Set(float64(s.InProgressCount))
	c.statusRecords.WithLabelValues(string(deployment.StatusFailed)).Set(float64(s.FailedCount))
	c.statusRecords.WithLabelValues(string(deployment.StatusUnknown)).Set(float64(s.UnknownCount))
}

// ObserveRequest records one served HTTP request
func (c *Collector) ObserveRequest(method, route string, status int, elapsed time.Duration) {
	c.requestCounter.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	c.requestDuration.WithLabelValues(method, route).Observe(elapsed.Seconds())
}

// Handler serves the registry in the Prometheus exposition format
func (c *Collector) Handler() http.Handler {
	return promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{})
}

// Registry returns the underlying registry
func (c *Collector) Registry() *prometheus.Registry {
	return c.registry
}
