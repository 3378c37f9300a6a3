package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// PipelineMetrics tracks the comment-to-atom pipeline on a private registry
// so tests can instantiate it without collector name collisions.
type PipelineMetrics struct {
	registry *prometheus.Registry

	atomsTotal       *prometheus.CounterVec
	commentsTotal    *prometheus.CounterVec
	commentsInFlight prometheus.Gauge
	matchMethodTotal *prometheus.CounterVec
	storeFailures    *prometheus.CounterVec
	mentionsTotal    *prometheus.CounterVec
	batchDuration    *prometheus.HistogramVec
	commentDuration  *prometheus.HistogramVec
}

func NewPipelineMetrics(service string) *PipelineMetrics {
	registry := prometheus.NewRegistry()

	atomsTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "trustgraph",
			Subsystem: "pipeline",
			Name:      "atoms_created_total",
			Help:      "Total trust atoms created by source.",
		},
		[]string{"service", "source"},
	)
	commentsTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "trustgraph",
			Subsystem: "pipeline",
			Name:      "comments_processed_total",
			Help:      "Total comments processed by status.",
		},
		[]string{"service", "source", "status"},
	)
	commentsInFlight := prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "trustgraph",
			Subsystem: "pipeline",
			Name:      "comments_in_flight",
			Help:      "Number of comments being processed.",
			ConstLabels: prometheus.Labels{
				"service": service,
			},
		},
	)
	matchMethodTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "trustgraph",
			Subsystem: "matcher",
			Name:      "method_total",
			Help:      "Total product matches by resolution method.",
		},
		[]string{"service", "method"},
	)
	storeFailures := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "trustgraph",
			Subsystem: "storage",
			Name:      "destination_failures_total",
			Help:      "Total per-destination store failures.",
		},
		[]string{"service", "destination"},
	)
	mentionsTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "trustgraph",
			Subsystem: "matcher",
			Name:      "unresolved_mentions_total",
			Help:      "Total mentions logged for registry curation.",
		},
		[]string{"service"},
	)
	batchDuration := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "trustgraph",
			Subsystem: "pipeline",
			Name:      "batch_duration_seconds",
			Help:      "Batch processing duration in seconds by source.",
			Buckets:   []float64{0.1, 0.5, 1, 2, 5, 10, 30, 60, 120, 300},
		},
		[]string{"service", "source"},
	)
	commentDuration := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "trustgraph",
			Subsystem: "pipeline",
			Name:      "comment_duration_seconds",
			Help:      "Single comment processing duration in seconds.",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"service", "source"},
	)

	registry.MustRegister(
		atomsTotal,
		commentsTotal,
		commentsInFlight,
		matchMethodTotal,
		storeFailures,
		mentionsTotal,
		batchDuration,
		commentDuration,
	)

	return &PipelineMetrics{
		registry:         registry,
		atomsTotal:       atomsTotal,
		commentsTotal:    commentsTotal,
		commentsInFlight: commentsInFlight,
		matchMethodTotal: matchMethodTotal,
		storeFailures:    storeFailures,
		mentionsTotal:    mentionsTotal,
		batchDuration:    batchDuration,
		commentDuration:  commentDuration,
	}
}

func (m *PipelineMetrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

func (m *PipelineMetrics) StartComment() {
	m.commentsInFlight.Inc()
}

func (m *PipelineMetrics) FinishComment(service, source string, duration time.Duration, err error) {
	m.commentsInFlight.Dec()

	status := "success"
	if err != nil {
		status = "error"
	}
	m.commentsTotal.WithLabelValues(service, source, status).Inc()
	m.commentDuration.WithLabelValues(service, source).Observe(duration.Seconds())
}

func (m *PipelineMetrics) RecordAtomCreated(service, source string) {
	m.atomsTotal.WithLabelValues(service, source).Inc()
}

func (m *PipelineMetrics) RecordMatchMethod(service, method string) {
	if method == "" {
		method = "unknown"
	}
	m.matchMethodTotal.WithLabelValues(service, method).Inc()
}

func (m *PipelineMetrics) RecordStoreFailure(service, destination string) {
	m.storeFailures.WithLabelValues(service, destination).Inc()
}

func (m *PipelineMetrics) RecordUnresolvedMention(service string) {
	m.mentionsTotal.WithLabelValues(service).Inc()
}

func (m *PipelineMetrics) ObserveBatch(service, source string, duration time.Duration) {
	m.batchDuration.WithLabelValues(service, source).Observe(duration.Seconds())
}
