package datadog

import (
	"context"
	"net/http"
	"sync"
	"testing"
	"time"

	"github.com/DataDog/datadog-api-client-go/v2/api/datadogV2"

	"intake/internal/metrics"
)

type fakeSubmitter struct {
	mu       sync.Mutex
	payloads []datadogV2.MetricPayload
	err      error
}

func (f *fakeSubmitter) SubmitMetrics(ctx context.Context, body datadogV2.MetricPayload, params ...datadogV2.SubmitMetricsOptionalParameters) (datadogV2.IntakePayloadAccepted, *http.Response, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.payloads = append(f.payloads, body)
	return datadogV2.IntakePayloadAccepted{}, nil, f.err
}

func (f *fakeSubmitter) all() []datadogV2.MetricPayload {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]datadogV2.MetricPayload(nil), f.payloads...)
}

func newTestBackend(t *testing.T, sub metricsSubmitter) *Backend {
	t.Helper()

	b, err := NewBackend(context.Background(), Options{
		JobName:    "testjob",
		FlushEvery: time.Hour, // loop must not fire during tests
		now:        func() time.Time { return time.Unix(1700000000, 0) },
		submitter:  sub,
	})
	if err != nil {
		t.Fatalf("NewBackend: %v", err)
	}
	return b
}

func seriesByMetric(payloads []datadogV2.MetricPayload) map[string][]datadogV2.MetricSeries {
	out := make(map[string][]datadogV2.MetricSeries)
	for _, p := range payloads {
		for _, s := range p.Series {
			out[s.Metric] = append(out[s.Metric], s)
		}
	}
	return out
}

func hasTag(s datadogV2.MetricSeries, tag string) bool {
	for _, t := range s.Tags {
		if t == tag {
			return true
		}
	}
	return false
}

func TestFlushEmptySubmitsNothing(t *testing.T) {
	t.Parallel()

	sub := &fakeSubmitter{}
	b := newTestBackend(t, sub)

	if err := b.Flush(); err != nil {
		t.Fatalf("Flush: %v", err)
	}
	if got := len(sub.all()); got != 0 {
		t.Fatalf("submissions = %d, want 0", got)
	}
	if err := b.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
}

func TestCountersBecomeCountSeries(t *testing.T) {
	t.Parallel()

	sub := &fakeSubmitter{}
	b := newTestBackend(t, sub)
	defer b.Close()

	b.IncCounter("ingest_stage_total", 1, metrics.Labels{"stage": "repaired", "status": "ok"})
	b.IncCounter("ingest_stage_total", 1, metrics.Labels{"stage": "repaired", "status": "ok"})
	b.IncCounter("ingest_rows_total", 40, metrics.Labels{"kind": "parsed"})
	b.IncCounter("ingest_records_total", 3, metrics.Labels{"kind": "failed"})
	b.IncCounter("ingest_oracle_requests_total", 1, metrics.Labels{"status": "degraded"})
	b.IncCounter("ingest_batches_total", 1, nil)

	if err := b.Flush(); err != nil {
		t.Fatalf("Flush: %v", err)
	}

	by := seriesByMetric(sub.all())

	stage := by["intake.stage.total"]
	if len(stage) != 1 {
		t.Fatalf("stage series = %d, want 1", len(stage))
	}
	if got := *stage[0].Points[0].Value; got != 2 {
		t.Errorf("stage total = %v, want 2", got)
	}
	if !hasTag(stage[0], "stage:repaired") || !hasTag(stage[0], "status:ok") {
		t.Errorf("stage tags = %v, missing stage/status", stage[0].Tags)
	}
	if !hasTag(stage[0], "job:testjob") {
		t.Errorf("stage tags = %v, missing job tag", stage[0].Tags)
	}

	rows := by["intake.rows.total"]
	if len(rows) != 1 || *rows[0].Points[0].Value != 40 {
		t.Errorf("rows series = %+v, want single value 40", rows)
	}
	if len(by["intake.records.total"]) != 1 {
		t.Errorf("records series missing")
	}
	if len(by["intake.oracle.requests.total"]) != 1 {
		t.Errorf("oracle series missing")
	}
	if len(by["intake.batches.total"]) != 1 {
		t.Errorf("batches series missing")
	}
}

func TestFlushResetsBuffers(t *testing.T) {
	t.Parallel()

	sub := &fakeSubmitter{}
	b := newTestBackend(t, sub)
	defer b.Close()

	b.IncCounter("ingest_batches_total", 1, nil)
	if err := b.Flush(); err != nil {
		t.Fatalf("first Flush: %v", err)
	}
	if err := b.Flush(); err != nil {
		t.Fatalf("second Flush: %v", err)
	}
	if got := len(sub.all()); got != 1 {
		t.Fatalf("submissions = %d, want 1 (second flush had nothing)", got)
	}
}

func TestHistogramPercentiles(t *testing.T) {
	t.Parallel()

	sub := &fakeSubmitter{}
	b := newTestBackend(t, sub)
	defer b.Close()

	for _, v := range []float64{0.1, 0.2, 0.3, 0.4, 10} {
		b.ObserveHistogram("ingest_stage_duration_seconds", v, metrics.Labels{"stage": "repaired", "status": "ok"})
	}
	if err := b.Flush(); err != nil {
		t.Fatalf("Flush: %v", err)
	}

	by := seriesByMetric(sub.all())

	maxSeries := by["intake.stage.duration_seconds.max"]
	if len(maxSeries) != 1 || *maxSeries[0].Points[0].Value != 10 {
		t.Errorf("max series = %+v, want 10", maxSeries)
	}
	samples := by["intake.stage.duration_seconds.samples"]
	if len(samples) != 1 || *samples[0].Points[0].Value != 5 {
		t.Errorf("samples series = %+v, want 5", samples)
	}
	for _, name := range []string{
		"intake.stage.duration_seconds.p50",
		"intake.stage.duration_seconds.p90",
		"intake.stage.duration_seconds.p95",
		"intake.stage.duration_seconds.p99",
	} {
		if len(by[name]) != 1 {
			t.Errorf("missing percentile series %s", name)
		}
	}
}

func TestUnknownMetricIgnored(t *testing.T) {
	t.Parallel()

	sub := &fakeSubmitter{}
	b := newTestBackend(t, sub)
	defer b.Close()

	b.IncCounter("made_up_metric", 5, nil)
	b.ObserveHistogram("made_up_histogram", 1, nil)

	if err := b.Flush(); err != nil {
		t.Fatalf("Flush: %v", err)
	}
	if got := len(sub.all()); got != 0 {
		t.Fatalf("submissions = %d, want 0", got)
	}
}

func TestPercentileNearestRank(t *testing.T) {
	t.Parallel()

	s := []float64{1, 2, 3, 4, 5, 6, 7, 8, 9, 10}
	cases := []struct {
		p    float64
		want float64
	}{
		{0, 1},
		{0.5, 6},
		{0.9, 9},
		{1, 10},
	}
	for _, tc := range cases {
		if got := percentileNearestRank(s, tc.p); got != tc.want {
			t.Errorf("percentileNearestRank(p=%v) = %v, want %v", tc.p, got, tc.want)
		}
	}
	if got := percentileNearestRank(nil, 0.5); got != 0 {
		t.Errorf("empty samples = %v, want 0", got)
	}
}

func TestParseTagsCSV(t *testing.T) {
	t.Parallel()

	got := ParseTagsCSV(" env:prod , service:intake ,, ")
	if len(got) != 2 || got[0] != "env:prod" || got[1] != "service:intake" {
		t.Errorf("ParseTagsCSV = %v", got)
	}
	if got := ParseTagsCSV(""); got != nil {
		t.Errorf("ParseTagsCSV(\"\") = %v, want nil", got)
	}
}
