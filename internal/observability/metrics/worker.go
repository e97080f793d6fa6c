package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type WorkerMetrics struct {
	registry *prometheus.Registry

	auditTotal    *prometheus.CounterVec
	auditDuration *prometheus.HistogramVec
	auditInFlight prometheus.Gauge
	eventLag      *prometheus.HistogramVec
}

func NewWorkerMetrics(service string) *WorkerMetrics {
	registry := prometheus.NewRegistry()

	auditTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "docqa",
			Subsystem: "worker",
			Name:      "run_audit_total",
			Help:      "Total persisted run audit records by status.",
		},
		[]string{"service", "status"},
	)
	auditDuration := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "docqa",
			Subsystem: "worker",
			Name:      "run_audit_duration_seconds",
			Help:      "Run audit persistence duration in seconds by status.",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"service", "status"},
	)
	auditInFlight := prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "docqa",
			Subsystem: "worker",
			Name:      "run_audit_in_flight",
			Help:      "Number of in-flight run audit tasks.",
			ConstLabels: prometheus.Labels{
				"service": service,
			},
		},
	)
	eventLag := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "docqa",
			Subsystem: "worker",
			Name:      "event_lag_seconds",
			Help:      "Delay between run completion and audit persistence.",
			Buckets:   []float64{0.1, 0.5, 1, 2, 5, 10, 30, 60, 120, 300},
		},
		[]string{"service"},
	)

	registry.MustRegister(auditTotal, auditDuration, auditInFlight, eventLag)

	return &WorkerMetrics{
		registry:      registry,
		auditTotal:    auditTotal,
		auditDuration: auditDuration,
		auditInFlight: auditInFlight,
		eventLag:      eventLag,
	}
}

func (m *WorkerMetrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

func (m *WorkerMetrics) StartAudit() {
	m.auditInFlight.Inc()
}

func (m *WorkerMetrics) FinishAudit(service string, duration time.Duration, err error) {
	m.auditInFlight.Dec()

	status := "success"
	if err != nil {
		status = "error"
	}
	m.auditTotal.WithLabelValues(service, status).Inc()
	m.auditDuration.WithLabelValues(service, status).Observe(duration.Seconds())
}

func (m *WorkerMetrics) ObserveEventLag(service string, lag time.Duration) {
	if lag < 0 {
		return
	}
	m.eventLag.WithLabelValues(service).Observe(lag.Seconds())
}
