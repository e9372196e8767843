package metrics

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCounters(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := New(reg)

	m.DevicesMerged(2, 1)
	m.DevicesMerged(0, 3)
	m.WebhookDelivered(true)
	m.WebhookDelivered(false)
	m.WebhookDelivered(false)
	m.ObserveRequest(http.MethodGet, "/api/v1/devices", http.StatusOK, 15*time.Millisecond)

	assert.Equal(t, 2.0, testutil.ToFloat64(m.merged.WithLabelValues("inserted")))
	assert.Equal(t, 4.0, testutil.ToFloat64(m.merged.WithLabelValues("skipped")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.deliveries.WithLabelValues("success")))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.deliveries.WithLabelValues("failure")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.requests.WithLabelValues("GET", "/api/v1/devices", "200")))
}

func TestNilMetricsIsNoop(t *testing.T) {
	var m *Metrics
	assert.NotPanics(t, func() {
		m.DevicesMerged(1, 1)
		m.WebhookDelivered(true)
		m.ObserveRequest("GET", "/", 200, time.Millisecond)
	})
}

func TestHandler(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := New(reg)
	m.DevicesMerged(1, 0)

	w := httptest.NewRecorder()
	Handler(reg).ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `cctv_report_device_merge_candidates_total{result="inserted"} 1`)
}
