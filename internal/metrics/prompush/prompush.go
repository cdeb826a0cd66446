// Package prompush implements a Prometheus Pushgateway backend for the
// internal/metrics package.
//
// Unlike the Datadog backend there is no local buffering: counters and
// histograms are regular prometheus collectors in a private registry, and
// Flush() pushes the whole registry to the gateway. Prometheus types are
// already safe for concurrent use, so the backend carries no locks of its own.
package prompush

import (
	"errors"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/push"

	"intake/internal/metrics"
)

// Options controls Pushgateway backend configuration.
type Options struct {
	// URL is the Pushgateway base URL, e.g. "http://localhost:9091".
	URL string

	// JobName becomes the push job label. If empty, defaults to "intake".
	JobName string

	// FlushEvery controls how often the registry is pushed.
	// If <= 0, defaults to 60 seconds.
	FlushEvery time.Duration

	// pusher is an unexported test seam; production code leaves it nil.
	pusher registryPusher
}

type registryPusher interface {
	Push() error
}

// Backend implements metrics.Backend against a Prometheus Pushgateway.
type Backend struct {
	pusher registryPusher

	flushEvery time.Duration
	stopCh     chan struct{}
	doneCh     chan struct{}

	stageTotal    *prometheus.CounterVec
	stageDuration *prometheus.HistogramVec
	rowsTotal     *prometheus.CounterVec
	recordsTotal  *prometheus.CounterVec
	oracleTotal   *prometheus.CounterVec
	batchesTotal  prometheus.Counter
}

// NewBackend constructs a Pushgateway backend with the pipeline's metric
// families pre-registered in a private registry.
//
// Errors:
//   - Returns an error if opts.URL is empty.
func NewBackend(opts Options) (*Backend, error) {
	if opts.URL == "" && opts.pusher == nil {
		return nil, errors.New("prompush: pushgateway URL required")
	}

	job := opts.JobName
	if job == "" {
		job = "intake"
	}
	flushEvery := opts.FlushEvery
	if flushEvery <= 0 {
		flushEvery = 60 * time.Second
	}

	reg := prometheus.NewRegistry()

	b := &Backend{
		flushEvery: flushEvery,
		stopCh:     make(chan struct{}),
		doneCh:     make(chan struct{}),

		stageTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "ingest_stage_total",
			Help: "Pipeline stage completions by stage and status.",
		}, []string{"stage", "status"}),
		stageDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "ingest_stage_duration_seconds",
			Help:    "Pipeline stage durations in seconds.",
			Buckets: prometheus.DefBuckets,
		}, []string{"stage", "status"}),
		rowsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "ingest_rows_total",
			Help: "Spreadsheet rows seen by the pipeline, by kind.",
		}, []string{"kind"}),
		recordsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "ingest_records_total",
			Help: "Persisted record outcomes, by kind.",
		}, []string{"kind"}),
		oracleTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "ingest_oracle_requests_total",
			Help: "Column-mapping oracle requests, by status.",
		}, []string{"status"}),
		batchesTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "ingest_batches_total",
			Help: "Completed ingestion batches.",
		}),
	}

	reg.MustRegister(b.stageTotal, b.stageDuration, b.rowsTotal, b.recordsTotal, b.oracleTotal, b.batchesTotal)

	b.pusher = opts.pusher
	if b.pusher == nil {
		b.pusher = push.New(opts.URL, job).Gatherer(reg)
	}

	go b.loop()
	return b, nil
}

func (b *Backend) loop() {
	defer close(b.doneCh)

	t := time.NewTicker(b.flushEvery)
	defer t.Stop()

	for {
		select {
		case <-t.C:
			_ = b.Flush()
		case <-b.stopCh:
			return
		}
	}
}

// IncCounter implements metrics.Backend. Unknown metric names are ignored.
func (b *Backend) IncCounter(name string, delta float64, labels metrics.Labels) {
	if delta <= 0 {
		return
	}

	switch name {
	case "ingest_stage_total":
		b.stageTotal.WithLabelValues(labels["stage"], labels["status"]).Add(delta)
	case "ingest_rows_total":
		b.rowsTotal.WithLabelValues(labels["kind"]).Add(delta)
	case "ingest_records_total":
		b.recordsTotal.WithLabelValues(labels["kind"]).Add(delta)
	case "ingest_oracle_requests_total":
		b.oracleTotal.WithLabelValues(labels["status"]).Add(delta)
	case "ingest_batches_total":
		b.batchesTotal.Add(delta)
	}
}

// ObserveHistogram implements metrics.Backend. Unknown metric names are ignored.
func (b *Backend) ObserveHistogram(name string, value float64, labels metrics.Labels) {
	switch name {
	case "ingest_stage_duration_seconds":
		b.stageDuration.WithLabelValues(labels["stage"], labels["status"]).Observe(value)
	}
}

// Flush pushes the registry to the gateway.
func (b *Backend) Flush() error {
	return b.pusher.Push()
}

// Close stops the background push loop and performs one final push.
func (b *Backend) Close() error {
	close(b.stopCh)
	<-b.doneCh
	return b.Flush()
}

var _ metrics.Backend = (*Backend)(nil)
