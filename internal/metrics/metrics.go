// Package metrics exposes Prometheus collectors for the HTTP surface, the
// default-device merge and webhook delivery.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "cctv_report"

// Metrics groups the collectors. A nil *Metrics is valid and records nothing.
type Metrics struct {
	requests   *prometheus.CounterVec
	latency    *prometheus.HistogramVec
	merged     *prometheus.CounterVec
	deliveries *prometheus.CounterVec
}

// New creates the collectors and registers them with reg.
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "HTTP requests by method, route and status code.",
		}, []string{"method", "route", "status"}),
		latency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency by method and route.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "route"}),
		merged: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "device_merge_candidates_total",
			Help:      "Default-device merge candidates by outcome.",
		}, []string{"result"}),
		deliveries: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "webhook_deliveries_total",
			Help:      "Incident webhook deliveries by outcome.",
		}, []string{"result"}),
	}
	reg.MustRegister(m.requests, m.latency, m.merged, m.deliveries)
	return m
}

// ObserveRequest records one served request.
func (m *Metrics) ObserveRequest(method, route string, status int, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.requests.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	m.latency.WithLabelValues(method, route).Observe(elapsed.Seconds())
}

// DevicesMerged records the outcome of one committed merge batch.
func (m *Metrics) DevicesMerged(inserted, skipped int) {
	if m == nil {
		return
	}
	m.merged.WithLabelValues("inserted").Add(float64(inserted))
	m.merged.WithLabelValues("skipped").Add(float64(skipped))
}

// WebhookDelivered records one delivery attempt.
func (m *Metrics) WebhookDelivered(ok bool) {
	if m == nil {
		return
	}
	result := "failure"
	if ok {
		result = "success"
	}
	m.deliveries.WithLabelValues(result).Inc()
}

// Handler serves the metrics gathered by g.
func Handler(g prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(g, promhttp.HandlerOpts{})
}
