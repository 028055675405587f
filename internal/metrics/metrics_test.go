package metrics

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestCounters(t *testing.T) {
	m := New()

	m.ObserveDelivery(3)
	m.ObservePush("delivery", true)
	m.ObservePush("delivery", false)
	m.ObserveDetection(time.Now(), true)
	m.ObserveDetection(time.Now(), false)

	assert.Equal(t, 1.0, testutil.ToFloat64(m.DeliveriesCreated))
	assert.Equal(t, 3.0, testutil.ToFloat64(m.ItemsDelivered))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.SyncPushes.WithLabelValues("delivery", "failure")))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.FramesAnalyzed))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.FacesDetected))
}

func TestIndependentRegistries(t *testing.T) {
	assert.NotPanics(t, func() {
		New()
		New()
	})
}

func TestNilMetrics(t *testing.T) {
	var m *Metrics
	assert.NotPanics(t, func() {
		m.ObserveDelivery(1)
		m.ObservePush("catalog", true)
		m.ObserveBackup(false)
	})
}

func TestHandler(t *testing.T) {
	m := New()
	m.ObservePull(true)

	w := httptest.NewRecorder()
	m.Handler().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "epi_sync_pulls_total")
}
