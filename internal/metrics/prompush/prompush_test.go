package prompush

import (
	"sync/atomic"
	"testing"
	"time"

	dto "github.com/prometheus/client_model/go"

	"intake/internal/metrics"
)

type countingPusher struct {
	pushes atomic.Int64
}

func (p *countingPusher) Push() error {
	p.pushes.Add(1)
	return nil
}

func newTestBackend(t *testing.T) (*Backend, *countingPusher) {
	t.Helper()

	p := &countingPusher{}
	b, err := NewBackend(Options{
		JobName:    "testjob",
		FlushEvery: time.Hour,
		pusher:     p,
	})
	if err != nil {
		t.Fatalf("NewBackend: %v", err)
	}
	return b, p
}

func counterValue(t *testing.T, c interface{ Write(*dto.Metric) error }) float64 {
	t.Helper()

	var m dto.Metric
	if err := c.Write(&m); err != nil {
		t.Fatalf("write metric: %v", err)
	}
	return m.GetCounter().GetValue()
}

func TestRequiresURL(t *testing.T) {
	t.Parallel()

	if _, err := NewBackend(Options{}); err == nil {
		t.Fatal("NewBackend without URL should fail")
	}
}

func TestCountersAccumulate(t *testing.T) {
	t.Parallel()

	b, _ := newTestBackend(t)
	defer b.Close()

	b.IncCounter("ingest_rows_total", 10, metrics.Labels{"kind": "parsed"})
	b.IncCounter("ingest_rows_total", 5, metrics.Labels{"kind": "parsed"})
	b.IncCounter("ingest_batches_total", 1, nil)
	b.IncCounter("made_up_metric", 100, nil)

	got := counterValue(t, b.rowsTotal.WithLabelValues("parsed"))
	if got != 15 {
		t.Errorf("rows_total{kind=parsed} = %v, want 15", got)
	}
	if got := counterValue(t, b.batchesTotal); got != 1 {
		t.Errorf("batches_total = %v, want 1", got)
	}
}

func TestStageStatusLabels(t *testing.T) {
	t.Parallel()

	b, _ := newTestBackend(t)
	defer b.Close()

	b.IncCounter("ingest_stage_total", 1, metrics.Labels{"stage": "cleared", "status": "ok"})
	b.IncCounter("ingest_stage_total", 1, metrics.Labels{"stage": "cleared", "status": "degraded"})

	if got := counterValue(t, b.stageTotal.WithLabelValues("cleared", "ok")); got != 1 {
		t.Errorf("stage ok = %v, want 1", got)
	}
	if got := counterValue(t, b.stageTotal.WithLabelValues("cleared", "degraded")); got != 1 {
		t.Errorf("stage degraded = %v, want 1", got)
	}
}

func TestFlushAndClosePush(t *testing.T) {
	t.Parallel()

	b, p := newTestBackend(t)

	b.ObserveHistogram("ingest_stage_duration_seconds", 0.25, metrics.Labels{"stage": "repaired", "status": "ok"})
	if err := b.Flush(); err != nil {
		t.Fatalf("Flush: %v", err)
	}
	if err := b.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	if got := p.pushes.Load(); got != 2 {
		t.Errorf("pushes = %d, want 2 (one Flush, one on Close)", got)
	}
}
