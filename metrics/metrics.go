// Package metrics - Prometheus instrumentation for the classifier.
package metrics

import (
	"net/http"
	"sync/atomic"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Prediction outcomes used as the "outcome" label.
const (
	OutcomeOK      = "ok"
	OutcomeUnknown = "unknown_model"
	OutcomeLoad    = "load_error"
	OutcomeFailed  = "prediction_error"
)

// Metrics holds all application metrics.
//
// A nil *Metrics is valid and records nothing.
type Metrics struct {
	// Live-frame counters
	FramesProcessed atomic.Uint64
	FramesErrored   atomic.Uint64

	// Live session tracking
	ActiveSessions  atomic.Int64
	TotalSessions   atomic.Uint64
	ExpiredSessions atomic.Uint64

	predictions *prometheus.CounterVec
	latency     *prometheus.HistogramVec

	// Prometheus collectors
	registry *prometheus.Registry
}

// New creates a new Metrics instance with its own Prometheus registry.
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		predictions: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "wayang_predictions_total",
				Help: "Total predictions by model and outcome",
			},
			[]string{"model", "outcome"},
		),
		latency: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "wayang_inference_duration_seconds",
				Help:    "Time spent preprocessing, running and postprocessing one image",
				Buckets: []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5},
			},
			[]string{"model"},
		),
	}

	m.registerPrometheusMetrics()

	return m
}

func (m *Metrics) registerPrometheusMetrics() {
	m.registry.MustRegister(m.predictions, m.latency)

	m.registry.MustRegister(prometheus.NewCounterFunc(
		prometheus.CounterOpts{
			Name: "wayang_frames_processed_total",
			Help: "Total live frames annotated and returned",
		},
		func() float64 { return float64(m.FramesProcessed.Load()) },
	))

	m.registry.MustRegister(prometheus.NewCounterFunc(
		prometheus.CounterOpts{
			Name: "wayang_frames_errored_total",
			Help: "Total live frames whose prediction was replaced by the error label",
		},
		func() float64 { return float64(m.FramesErrored.Load()) },
	))

	m.registry.MustRegister(prometheus.NewGaugeFunc(
		prometheus.GaugeOpts{
			Name: "wayang_active_sessions",
			Help: "Number of open live sessions",
		},
		func() float64 { return float64(m.ActiveSessions.Load()) },
	))

	m.registry.MustRegister(prometheus.NewCounterFunc(
		prometheus.CounterOpts{
			Name: "wayang_sessions_total",
			Help: "Total live sessions created",
		},
		func() float64 { return float64(m.TotalSessions.Load()) },
	))

	m.registry.MustRegister(prometheus.NewCounterFunc(
		prometheus.CounterOpts{
			Name: "wayang_sessions_expired_total",
			Help: "Total live sessions closed for inactivity",
		},
		func() float64 { return float64(m.ExpiredSessions.Load()) },
	))
}

// ObservePrediction records one Predict call.
func (m *Metrics) ObservePrediction(model, outcome string, d time.Duration) {
	if m == nil {
		return
	}
	m.predictions.WithLabelValues(model, outcome).Inc()
	if outcome == OutcomeOK {
		m.latency.WithLabelValues(model).Observe(d.Seconds())
	}
}

// ObserveFrame records one processed live frame.
func (m *Metrics) ObserveFrame(errored bool) {
	if m == nil {
		return
	}
	m.FramesProcessed.Add(1)
	if errored {
		m.FramesErrored.Add(1)
	}
}

// SessionOpened records a new live session.
func (m *Metrics) SessionOpened() {
	if m == nil {
		return
	}
	m.ActiveSessions.Add(1)
	m.TotalSessions.Add(1)
}

// SessionClosed records a closed live session.
func (m *Metrics) SessionClosed() {
	if m == nil {
		return
	}
	m.ActiveSessions.Add(-1)
}

// SessionExpired records a live session closed by the idle sweep.
func (m *Metrics) SessionExpired() {
	if m == nil {
		return
	}
	m.ActiveSessions.Add(-1)
	m.ExpiredSessions.Add(1)
}

// Handler returns the Prometheus HTTP handler.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
