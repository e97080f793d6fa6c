package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type HTTPServerMetrics struct {
	registry *prometheus.Registry

	requestTotal    *prometheus.CounterVec
	requestDuration *prometheus.HistogramVec
	requestInFlight prometheus.Gauge

	runsTotal          *prometheus.CounterVec
	runDuration        *prometheus.HistogramVec
	runQuestions       *prometheus.HistogramVec
	runPassages        *prometheus.HistogramVec
	sentinelTotal      *prometheus.CounterVec
	cacheLookupsTotal  *prometheus.CounterVec
	retrievalHitTotal  *prometheus.CounterVec
	retrievalMissTotal *prometheus.CounterVec
}

func NewHTTPServerMetrics(service string) *HTTPServerMetrics {
	registry := prometheus.NewRegistry()

	requestTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "docqa",
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Total HTTP requests processed.",
		},
		[]string{"service", "method", "path", "status"},
	)
	requestDuration := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "docqa",
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "HTTP request duration in seconds.",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"service", "method", "path"},
	)
	requestInFlight := prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "docqa",
			Subsystem: "http",
			Name:      "in_flight_requests",
			Help:      "Number of in-flight HTTP requests.",
			ConstLabels: prometheus.Labels{
				"service": service,
			},
		},
	)
	runsTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "docqa",
			Subsystem: "run",
			Name:      "total",
			Help:      "Total document QA runs by terminal status.",
		},
		[]string{"service", "status"},
	)
	runDuration := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "docqa",
			Subsystem: "run",
			Name:      "duration_seconds",
			Help:      "Run duration in seconds by terminal status.",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"service", "status"},
	)
	runQuestions := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "docqa",
			Subsystem: "run",
			Name:      "questions",
			Help:      "Distribution of questions per run.",
			Buckets:   []float64{1, 2, 3, 5, 8, 13, 21, 34},
		},
		[]string{"service"},
	)
	runPassages := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "docqa",
			Subsystem: "run",
			Name:      "passages",
			Help:      "Distribution of indexed passages per run.",
			Buckets:   []float64{1, 5, 10, 25, 50, 100, 250, 500, 1000},
		},
		[]string{"service"},
	)
	sentinelTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "docqa",
			Subsystem: "run",
			Name:      "sentinel_answers_total",
			Help:      "Total answer slots filled with the sentinel string.",
		},
		[]string{"service"},
	)
	cacheLookupsTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "docqa",
			Subsystem: "ingest",
			Name:      "cache_lookups_total",
			Help:      "Document cache lookups by outcome.",
		},
		[]string{"service", "outcome"},
	)
	retrievalHitTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "docqa",
			Subsystem: "retrieval",
			Name:      "hit_total",
			Help:      "Questions with at least one retrieved passage.",
		},
		[]string{"service"},
	)
	retrievalMissTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "docqa",
			Subsystem: "retrieval",
			Name:      "no_context_total",
			Help:      "Questions answered without retrieved passages.",
		},
		[]string{"service"},
	)

	registry.MustRegister(
		requestTotal,
		requestDuration,
		requestInFlight,
		runsTotal,
		runDuration,
		runQuestions,
		runPassages,
		sentinelTotal,
		cacheLookupsTotal,
		retrievalHitTotal,
		retrievalMissTotal,
	)

	return &HTTPServerMetrics{
		registry:           registry,
		requestTotal:       requestTotal,
		requestDuration:    requestDuration,
		requestInFlight:    requestInFlight,
		runsTotal:          runsTotal,
		runDuration:        runDuration,
		runQuestions:       runQuestions,
		runPassages:        runPassages,
		sentinelTotal:      sentinelTotal,
		cacheLookupsTotal:  cacheLookupsTotal,
		retrievalHitTotal:  retrievalHitTotal,
		retrievalMissTotal: retrievalMissTotal,
	}
}

func (m *HTTPServerMetrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

func (m *HTTPServerMetrics) Middleware(service string, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		recorder := &statusRecorder{
			ResponseWriter: w,
			statusCode:     http.StatusOK,
		}

		m.requestInFlight.Inc()
		defer m.requestInFlight.Dec()

		next.ServeHTTP(recorder, r)

		m.requestTotal.WithLabelValues(
			service,
			r.Method,
			r.URL.Path,
			strconv.Itoa(recorder.statusCode),
		).Inc()
		m.requestDuration.WithLabelValues(service, r.Method, r.URL.Path).Observe(time.Since(start).Seconds())
	})
}

func (m *HTTPServerMetrics) RecordRun(service, status string, questions, passages, sentinels int, duration time.Duration) {
	m.runsTotal.WithLabelValues(service, status).Inc()
	m.runDuration.WithLabelValues(service, status).Observe(duration.Seconds())
	m.runQuestions.WithLabelValues(service).Observe(float64(questions))
	if passages > 0 {
		m.runPassages.WithLabelValues(service).Observe(float64(passages))
	}
	if sentinels > 0 {
		m.sentinelTotal.WithLabelValues(service).Add(float64(sentinels))
	}
}

func (m *HTTPServerMetrics) RecordCacheLookup(service string, hit bool) {
	outcome := "miss"
	if hit {
		outcome = "hit"
	}
	m.cacheLookupsTotal.WithLabelValues(service, outcome).Inc()
}

func (m *HTTPServerMetrics) RecordRetrieval(service string, retrieved int) {
	if retrieved > 0 {
		m.retrievalHitTotal.WithLabelValues(service).Inc()
		return
	}
	m.retrievalMissTotal.WithLabelValues(service).Inc()
}

// statusRecorder tracks the status a handler writes. All endpoints
// answer with buffered JSON, so no streaming interfaces are forwarded.
type statusRecorder struct {
	http.ResponseWriter
	statusCode int
}

func (w *statusRecorder) WriteHeader(statusCode int) {
	w.statusCode = statusCode
	w.ResponseWriter.WriteHeader(statusCode)
}
