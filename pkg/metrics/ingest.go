package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// IngestMetrics instruments the ingest pipeline. All methods are safe on a
// nil receiver, so callers can pass nil when metrics are disabled.
type IngestMetrics struct {
	jobsTotal         *prometheus.CounterVec
	jobDuration       prometheus.Histogram
	linesRead         prometheus.Counter
	eventsPersisted   *prometheus.CounterVec
	dedupeConflicts   prometheus.Counter
	rawBlocksFlushed  prometheus.Counter
	unknownSignatures prometheus.Counter
}

// NewIngestMetrics creates Prometheus-backed ingest metrics.
//
// Returns nil if metrics are not enabled (InitRegistry not called).
func NewIngestMetrics() *IngestMetrics {
	if !IsEnabled() {
		return nil
	}

	reg := GetRegistry()

	return &IngestMetrics{
		jobsTotal: promauto.With(reg).NewCounterVec(
			prometheus.CounterOpts{
				Name: "caseforge_ingest_jobs_total",
				Help: "Total number of finished ingest jobs by outcome",
			},
			[]string{"outcome"}, // "completed", "failed"
		),
		jobDuration: promauto.With(reg).NewHistogram(
			prometheus.HistogramOpts{
				Name:    "caseforge_ingest_job_duration_seconds",
				Help:    "Wall-clock duration of ingest jobs",
				Buckets: prometheus.ExponentialBuckets(0.1, 2, 12),
			},
		),
		linesRead: promauto.With(reg).NewCounter(
			prometheus.CounterOpts{
				Name: "caseforge_ingest_lines_read_total",
				Help: "Total number of source lines read",
			},
		),
		eventsPersisted: promauto.With(reg).NewCounterVec(
			prometheus.CounterOpts{
				Name: "caseforge_ingest_events_persisted_total",
				Help: "Total number of events persisted by event type",
			},
			[]string{"event_type"},
		),
		dedupeConflicts: promauto.With(reg).NewCounter(
			prometheus.CounterOpts{
				Name: "caseforge_ingest_dedupe_conflicts_total",
				Help: "Total number of event inserts swallowed by dedupe",
			},
		),
		rawBlocksFlushed: promauto.With(reg).NewCounter(
			prometheus.CounterOpts{
				Name: "caseforge_ingest_raw_blocks_flushed_total",
				Help: "Total number of compressed raw blocks written",
			},
		),
		unknownSignatures: promauto.With(reg).NewCounter(
			prometheus.CounterOpts{
				Name: "caseforge_ingest_unknown_lines_total",
				Help: "Total number of payload lines no parser claimed",
			},
		),
	}
}

// RecordJob records a finished job and its duration.
func (m *IngestMetrics) RecordJob(outcome string, duration time.Duration) {
	if m == nil {
		return
	}
	m.jobsTotal.WithLabelValues(outcome).Inc()
	m.jobDuration.Observe(duration.Seconds())
}

// RecordLines adds to the lines-read counter.
func (m *IngestMetrics) RecordLines(n int) {
	if m == nil {
		return
	}
	m.linesRead.Add(float64(n))
}

// RecordEvent records one persisted event.
func (m *IngestMetrics) RecordEvent(eventType string) {
	if m == nil {
		return
	}
	m.eventsPersisted.WithLabelValues(eventType).Inc()
}

// RecordDedupeConflict records one swallowed duplicate insert.
func (m *IngestMetrics) RecordDedupeConflict() {
	if m == nil {
		return
	}
	m.dedupeConflicts.Inc()
}

// RecordRawBlockFlush records one sealed raw block.
func (m *IngestMetrics) RecordRawBlockFlush() {
	if m == nil {
		return
	}
	m.rawBlocksFlushed.Inc()
}

// RecordUnknownLine records one unclaimed payload line.
func (m *IngestMetrics) RecordUnknownLine() {
	if m == nil {
		return
	}
	m.unknownSignatures.Inc()
}
