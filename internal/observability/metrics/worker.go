package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/planlens/roomscan/internal/core/domain"
)

type WorkerMetrics struct {
	registry *prometheus.Registry

	outcomeTotal    *prometheus.CounterVec
	processDuration *prometheus.HistogramVec
	processInFlight prometheus.Gauge
	queueLag        *prometheus.HistogramVec
	roomsPerJob     *prometheus.HistogramVec
	attemptsPerJob  *prometheus.HistogramVec
}

func NewWorkerMetrics(service string) *WorkerMetrics {
	registry := prometheus.NewRegistry()

	outcomeTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "roomscan",
			Subsystem: "worker",
			Name:      "job_outcome_total",
			Help:      "Total processing attempts by resulting job status.",
		},
		[]string{"service", "status"},
	)
	processDuration := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "roomscan",
			Subsystem: "worker",
			Name:      "job_process_duration_seconds",
			Help:      "Detection job processing duration in seconds by outcome.",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"service", "status"},
	)
	processInFlight := prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "roomscan",
			Subsystem: "worker",
			Name:      "job_process_in_flight",
			Help:      "Number of in-flight detection jobs.",
			ConstLabels: prometheus.Labels{
				"service": service,
			},
		},
	)
	queueLag := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "roomscan",
			Subsystem: "worker",
			Name:      "queue_lag_seconds",
			Help:      "Delay between job creation and processing start.",
			Buckets:   []float64{0.1, 0.5, 1, 2, 5, 10, 30, 60, 120, 300, 600},
		},
		[]string{"service"},
	)
	roomsPerJob := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "roomscan",
			Subsystem: "worker",
			Name:      "rooms_per_job",
			Help:      "Distribution of detected rooms per completed job.",
			Buckets:   []float64{0, 1, 2, 3, 5, 8, 13, 21, 34},
		},
		[]string{"service"},
	)
	attemptsPerJob := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "roomscan",
			Subsystem: "worker",
			Name:      "attempts_per_job",
			Help:      "Distribution of attempts consumed before a terminal state.",
			Buckets:   []float64{1, 2, 3, 4, 5},
		},
		[]string{"service"},
	)

	registry.MustRegister(outcomeTotal, processDuration, processInFlight, queueLag, roomsPerJob, attemptsPerJob)

	return &WorkerMetrics{
		registry:        registry,
		outcomeTotal:    outcomeTotal,
		processDuration: processDuration,
		processInFlight: processInFlight,
		queueLag:        queueLag,
		roomsPerJob:     roomsPerJob,
		attemptsPerJob:  attemptsPerJob,
	}
}

func (m *WorkerMetrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

func (m *WorkerMetrics) StartJob() {
	m.processInFlight.Inc()
}

func (m *WorkerMetrics) FinishJob(service string, duration time.Duration, err error) {
	m.processInFlight.Dec()

	status := "success"
	if err != nil {
		status = "error"
	}

	m.processDuration.WithLabelValues(service, status).Observe(duration.Seconds())
}

func (m *WorkerMetrics) ObserveQueueLag(service string, lag time.Duration) {
	if lag < 0 {
		return
	}
	m.queueLag.WithLabelValues(service).Observe(lag.Seconds())
}

// Recorder adapts the worker registry to the lifecycle outcome hook.
func (m *WorkerMetrics) Recorder(service string) *OutcomeRecorder {
	return &OutcomeRecorder{metrics: m, service: service}
}

type OutcomeRecorder struct {
	metrics *WorkerMetrics
	service string
}

func (r *OutcomeRecorder) RecordOutcome(status domain.JobStatus, rooms int, attempt int) {
	r.metrics.outcomeTotal.WithLabelValues(r.service, string(status)).Inc()
	switch status {
	case domain.StatusCompleted:
		r.metrics.roomsPerJob.WithLabelValues(r.service).Observe(float64(rooms))
		r.metrics.attemptsPerJob.WithLabelValues(r.service).Observe(float64(attempt))
	case domain.StatusFailed:
		r.metrics.attemptsPerJob.WithLabelValues(r.service).Observe(float64(attempt))
	}
}
