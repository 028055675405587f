package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds every collector of the service on its own registry.
// A nil *Metrics is valid and records nothing.
type Metrics struct {
	registry *prometheus.Registry

	DeliveriesCreated prometheus.Counter
	ItemsDelivered    prometheus.Counter
	SyncPushes        *prometheus.CounterVec
	SyncPulls         *prometheus.CounterVec
	FramesAnalyzed    prometheus.Counter
	FacesDetected     prometheus.Counter
	DetectionDuration prometheus.Histogram
	CaptureSessions   *prometheus.CounterVec
	Backups           *prometheus.CounterVec
}

func New() *Metrics {
	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	factory := promauto.With(registry)

	return &Metrics{
		registry: registry,
		DeliveriesCreated: factory.NewCounter(prometheus.CounterOpts{
			Name: "epi_deliveries_created_total",
			Help: "Total number of delivery records created",
		}),
		ItemsDelivered: factory.NewCounter(prometheus.CounterOpts{
			Name: "epi_items_delivered_total",
			Help: "Total number of item units handed out",
		}),
		SyncPushes: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "epi_sync_pushes_total",
			Help: "Remote pushes by entity kind and outcome",
		}, []string{"kind", "outcome"}),
		SyncPulls: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "epi_sync_pulls_total",
			Help: "Remote pulls by outcome",
		}, []string{"outcome"}),
		FramesAnalyzed: factory.NewCounter(prometheus.CounterOpts{
			Name: "epi_capture_frames_analyzed_total",
			Help: "Frames passed to the face detector",
		}),
		FacesDetected: factory.NewCounter(prometheus.CounterOpts{
			Name: "epi_capture_faces_detected_total",
			Help: "Analysed frames in which a face was present",
		}),
		DetectionDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "epi_capture_detection_duration_seconds",
			Help:    "Duration of a single face detection call",
			Buckets: []float64{0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5},
		}),
		CaptureSessions: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "epi_capture_sessions_total",
			Help: "Capture sessions by final outcome",
		}, []string{"outcome"}),
		Backups: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "epi_backups_total",
			Help: "Backups written by outcome",
		}, []string{"outcome"}),
	}
}

func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

func outcome(ok bool) string {
	if ok {
		return "success"
	}
	return "failure"
}

// ObserveDelivery records a persisted delivery with its number of units.
func (m *Metrics) ObserveDelivery(units int) {
	if m == nil {
		return
	}
	m.DeliveriesCreated.Inc()
	m.ItemsDelivered.Add(float64(units))
}

func (m *Metrics) ObservePush(kind string, ok bool) {
	if m == nil {
		return
	}
	m.SyncPushes.WithLabelValues(kind, outcome(ok)).Inc()
}

func (m *Metrics) ObservePull(ok bool) {
	if m == nil {
		return
	}
	m.SyncPulls.WithLabelValues(outcome(ok)).Inc()
}

// ObserveDetection records one analysed frame.
// Call with time.Now() taken before the detector call.
func (m *Metrics) ObserveDetection(start time.Time, facePresent bool) {
	if m == nil {
		return
	}
	m.FramesAnalyzed.Inc()
	m.DetectionDuration.Observe(time.Since(start).Seconds())
	if facePresent {
		m.FacesDetected.Inc()
	}
}

func (m *Metrics) ObserveCaptureSession(result string) {
	if m == nil {
		return
	}
	m.CaptureSessions.WithLabelValues(result).Inc()
}

func (m *Metrics) ObserveBackup(ok bool) {
	if m == nil {
		return
	}
	m.Backups.WithLabelValues(outcome(ok)).Inc()
}
