// Package metrics defines the minimal backend interface the ingestion
// pipeline emits to. Concrete backends (Datadog, Prometheus pushgateway)
// live in subpackages; the pipeline depends only on Backend.
package metrics

import "time"

// Labels are metric dimensions, e.g. {"stage": "repaired", "status": "ok"}.
type Labels map[string]string

// Backend receives pipeline metrics.
//
// Metric names used by the pipeline:
//   - ingest_stage_total{stage,status}            counter
//   - ingest_stage_duration_seconds{stage,status} histogram
//   - ingest_rows_total{kind}                     counter (seen, repaired, failed)
//   - ingest_records_total{kind}                  counter (inserted, updated)
//   - ingest_batches_total                        counter
//   - ingest_oracle_requests_total{status}        counter
//
// Implementations must be safe for concurrent use.
type Backend interface {
	IncCounter(name string, delta float64, labels Labels)
	ObserveHistogram(name string, value float64, labels Labels)

	// Flush pushes buffered metrics to the backend.
	Flush() error

	// Close stops background work and performs one final Flush.
	Close() error
}

// Nop discards all metrics. Use it when no backend is configured so callers
// never nil-check.
type Nop struct{}

func (Nop) IncCounter(string, float64, Labels)       {}
func (Nop) ObserveHistogram(string, float64, Labels) {}
func (Nop) Flush() error                             { return nil }
func (Nop) Close() error                             { return nil }

var _ Backend = Nop{}

// ObserveStage records one pipeline stage execution on b.
func ObserveStage(b Backend, stage, status string, d time.Duration) {
	if b == nil {
		return
	}
	l := Labels{"stage": stage, "status": status}
	b.IncCounter("ingest_stage_total", 1, l)
	b.ObserveHistogram("ingest_stage_duration_seconds", d.Seconds(), l)
}
