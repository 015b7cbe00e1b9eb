// Package observability provides Prometheus metrics for monitoring.
package observability

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds all Prometheus metrics for the application.
type Metrics struct {
	// Recorder metrics
	TicksRecorded      prometheus.Counter
	TickBatchesFlushed prometheus.Counter
	TickParseErrors    prometheus.Counter
	WSReconnects       prometheus.Counter
	LastTickTimestamp  prometheus.Gauge

	// Pipeline metrics
	PipelineRunsTotal *prometheus.CounterVec
	PipelineDuration  *prometheus.HistogramVec
	EventsDetected    prometheus.Counter
	TradesSimulated   prometheus.Counter
	ReportsGenerated  prometheus.Counter
}

// NewMetrics creates a new Metrics instance with all metrics registered.
func NewMetrics(namespace string) *Metrics {
	if namespace == "" {
		namespace = "volume_reversion_lab"
	}

	return &Metrics{
		TicksRecorded: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "recorder",
			Name:      "ticks_recorded_total",
			Help:      "Total number of ticks written to storage",
		}),
		TickBatchesFlushed: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "recorder",
			Name:      "batches_flushed_total",
			Help:      "Total number of tick batches flushed to storage",
		}),
		TickParseErrors: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "recorder",
			Name:      "parse_errors_total",
			Help:      "Total number of stream messages that failed to parse",
		}),
		WSReconnects: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "recorder",
			Name:      "ws_reconnects_total",
			Help:      "Total number of WebSocket reconnect attempts",
		}),
		LastTickTimestamp: promauto.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "recorder",
			Name:      "last_tick_timestamp",
			Help:      "Unix timestamp of the most recently recorded tick",
		}),

		PipelineRunsTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "pipeline",
			Name:      "runs_total",
			Help:      "Total number of pipeline runs by status",
		}, []string{"phase", "status"}),
		PipelineDuration: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "pipeline",
			Name:      "duration_seconds",
			Help:      "Pipeline execution duration in seconds",
			Buckets:   []float64{0.1, 0.5, 1, 5, 10, 30, 60, 120},
		}, []string{"phase"}),
		EventsDetected: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "pipeline",
			Name:      "events_detected_total",
			Help:      "Total number of big-volume events detected",
		}),
		TradesSimulated: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "pipeline",
			Name:      "trades_simulated_total",
			Help:      "Total number of trades simulated",
		}),
		ReportsGenerated: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "pipeline",
			Name:      "reports_generated_total",
			Help:      "Total number of reports generated",
		}),
	}
}

// Handler returns an HTTP handler for the /metrics endpoint.
func Handler() http.Handler {
	return promhttp.Handler()
}

// DefaultMetrics is the default metrics instance.
var DefaultMetrics = NewMetrics("")

// RecordTicksFlushed records a flushed tick batch.
func RecordTicksFlushed(count int, lastUnix int64) {
	DefaultMetrics.TicksRecorded.Add(float64(count))
	DefaultMetrics.TickBatchesFlushed.Inc()
	DefaultMetrics.LastTickTimestamp.Set(float64(lastUnix))
}

// RecordParseError increments the stream parse error counter.
func RecordParseError() {
	DefaultMetrics.TickParseErrors.Inc()
}

// RecordWSReconnect increments the reconnect counter.
func RecordWSReconnect() {
	DefaultMetrics.WSReconnects.Inc()
}

// RecordPipelineRun records a pipeline run.
func RecordPipelineRun(phase, status string, durationSeconds float64) {
	DefaultMetrics.PipelineRunsTotal.WithLabelValues(phase, status).Inc()
	DefaultMetrics.PipelineDuration.WithLabelValues(phase).Observe(durationSeconds)
}

// RecordEventsDetected adds to the detected event counter.
func RecordEventsDetected(count int) {
	DefaultMetrics.EventsDetected.Add(float64(count))
}

// RecordTradesSimulated adds to the simulated trade counter.
func RecordTradesSimulated(count int) {
	DefaultMetrics.TradesSimulated.Add(float64(count))
}

// RecordReportGenerated increments the report counter.
func RecordReportGenerated() {
	DefaultMetrics.ReportsGenerated.Inc()
}
