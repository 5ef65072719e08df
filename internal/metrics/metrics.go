// Package metrics registers the Prometheus collectors that mirror the
// Counters table plus per-adapter circuit breaker state and
// publish-latency histograms. The Supervisor owns the registry and
// optionally starts a /metrics scrape listener; nothing here is a
// management RPC surface.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"

	"github.com/senzing-garage/redoer/internal/counters"
)

// Metrics holds every collector the daemon exposes.
type Metrics struct {
	registry *prometheus.Registry

	redoRecordsFromEngine prometheus.Gauge
	receivedFromRedoQueue prometheus.Gauge
	sentToRedoQueue       prometheus.Gauge
	processedRedoRecords  prometheus.Gauge
	sentToInfoQueue       prometheus.Gauge
	sentToFailureQueue    prometheus.Gauge

	breakerState    *prometheus.GaugeVec
	publishLatency  *prometheus.HistogramVec
	publishFailures *prometheus.CounterVec
}

// New builds and registers every collector against a fresh registry.
func New() *Metrics {
	reg := prometheus.NewRegistry()

	m := &Metrics{
		registry: reg,
		redoRecordsFromEngine: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "redoer", Name: "redo_records_from_engine_total", Help: "Records pulled from the engine's redo backlog.",
		}),
		receivedFromRedoQueue: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "redoer", Name: "received_from_redo_queue_total", Help: "Records dequeued from the internal redo queue.",
		}),
		sentToRedoQueue: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "redoer", Name: "sent_to_redo_queue_total", Help: "Records enqueued onto the internal redo queue or forwarded to a bus's redo queue.",
		}),
		processedRedoRecords: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "redoer", Name: "processed_redo_records_total", Help: "Records successfully applied.",
		}),
		sentToInfoQueue: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "redoer", Name: "sent_to_info_queue_total", Help: "Info envelopes forwarded to an output bus.",
		}),
		sentToFailureQueue: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "redoer", Name: "sent_to_failure_queue_total", Help: "Records forwarded to a failure bus.",
		}),
		breakerState: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: "redoer", Name: "adapter_circuit_breaker_state", Help: "0=closed, 1=half-open, 2=open, per transport adapter.",
		}, []string{"adapter"}),
		publishLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "redoer", Name: "publish_latency_seconds", Help: "Publish call latency per transport adapter.",
			Buckets: prometheus.DefBuckets,
		}, []string{"adapter"}),
		publishFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "redoer", Name: "publish_failures_total", Help: "Publish calls that exhausted retries, per transport adapter.",
		}, []string{"adapter"}),
	}

	reg.MustRegister(
		m.redoRecordsFromEngine, m.receivedFromRedoQueue, m.sentToRedoQueue,
		m.processedRedoRecords, m.sentToInfoQueue, m.sentToFailureQueue,
		m.breakerState, m.publishLatency, m.publishFailures,
	)
	return m
}

// Registry exposes the underlying registry for an HTTP scrape handler.
func (m *Metrics) Registry() *prometheus.Registry { return m.registry }

// SetFromSnapshot overwrites the six counter gauges from a Counters
// snapshot; called once per Monitor tick.
func (m *Metrics) SetFromSnapshot(s counters.Snapshot) {
	m.redoRecordsFromEngine.Set(float64(s.RedoRecordsFromEngine))
	m.receivedFromRedoQueue.Set(float64(s.ReceivedFromRedoQueue))
	m.sentToRedoQueue.Set(float64(s.SentToRedoQueue))
	m.processedRedoRecords.Set(float64(s.ProcessedRedoRecords))
	m.sentToInfoQueue.Set(float64(s.SentToInfoQueue))
	m.sentToFailureQueue.Set(float64(s.SentToFailureQueue))
}

// BreakerState records one adapter's circuit breaker state (0/1/2 for
// closed/half-open/open).
func (m *Metrics) BreakerState(adapter string, state float64) {
	m.breakerState.WithLabelValues(adapter).Set(state)
}

// ObservePublishLatency records how long one publish call took.
func (m *Metrics) ObservePublishLatency(adapter string, seconds float64) {
	m.publishLatency.WithLabelValues(adapter).Observe(seconds)
}

// IncPublishFailure counts one exhausted-retry publish failure.
func (m *Metrics) IncPublishFailure(adapter string) {
	m.publishFailures.WithLabelValues(adapter).Inc()
}
