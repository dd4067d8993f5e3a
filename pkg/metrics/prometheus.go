package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Recorder implements domain.repository.Metrics using Prometheus.
type Recorder struct {
	collected   *prometheus.GaugeVec
	errorsTotal *prometheus.CounterVec
	lastRun     *prometheus.GaugeVec
	latency     *prometheus.HistogramVec
}

// New creates a new Prometheus metrics recorder.
func New() *Recorder {
	return &Recorder{
		collected: promauto.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "twpull_instruments_collected",
				Help: "Number of instruments in the last collected roster",
			},
			[]string{"index"},
		),
		errorsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "twpull_errors_total",
				Help: "Total number of errors encountered",
			},
			[]string{"type"},
		),
		lastRun: promauto.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "twpull_last_collection_timestamp_seconds",
				Help: "Unix timestamp of the last successful collection",
			},
			[]string{"index"},
		),
		latency: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "twpull_operation_duration_seconds",
				Help:    "Duration of operations in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"operation"},
		),
	}
}

// RecordCollected records the roster size of a collection run.
func (r *Recorder) RecordCollected(index string, count int) {
	r.collected.WithLabelValues(index).Set(float64(count))
}

// RecordError records an error occurrence.
func (r *Recorder) RecordError(kind string) {
	r.errorsTotal.WithLabelValues(kind).Inc()
}

// RecordLastRun records when an index was last collected.
func (r *Recorder) RecordLastRun(index string, ts time.Time) {
	r.lastRun.WithLabelValues(index).Set(float64(ts.Unix()))
}

// RecordLatency records operation latency in seconds.
func (r *Recorder) RecordLatency(op string, seconds float64) {
	r.latency.WithLabelValues(op).Observe(seconds)
}
