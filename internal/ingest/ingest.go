// Package ingest coordinates one upload batch: oracle mapping lookup, row
// repair, and either a preview rendering or the persistence pass.
package ingest

import (
	"context"
	"fmt"
	"log"
	"time"

	"intake/internal/metrics"
	"intake/internal/oracle"
	"intake/internal/parser"
	"intake/internal/repair"
	"intake/internal/schema"
	"intake/internal/storage"
)

// Logger is the minimal logging interface used by the orchestrator.
// *log.Logger satisfies this interface.
type Logger interface {
	Printf(format string, v ...any)
}

// Mapper produces an advisory column mapping for a batch. *oracle.Client
// satisfies this; tests inject a fake. The mapping is best-effort input, not
// ground truth.
type Mapper interface {
	Map(ctx context.Context, columns, fields []string, rows []map[string]string) oracle.Mapping
}

// Pipeline wires one batch's collaborators together.
//
// Edge cases:
//   - A nil Mapper means no oracle: every batch repairs from an empty
//     advisory mapping.
//   - A nil Store is allowed for Preview (identifiers become batch-local);
//     Persist requires one.
type Pipeline struct {
	Mapper  Mapper
	Store   storage.Store
	Logger  Logger
	Metrics metrics.Backend

	// Workers bounds concurrent row repair; < 2 means sequential.
	Workers int
}

// Preview is the dry-run batch output: the advisory mapping that was used and
// the first N repaired rows as plain field->value records.
type Preview struct {
	Mapping oracle.Mapping      `json:"mapping"`
	Rows    []map[string]string `json:"rows"`
}

// RecordFailure reports one record whose write failed. The rest of the batch
// is unaffected.
type RecordFailure struct {
	ApplicantID string `json:"applicant_id"`
	Err         string `json:"error"`
}

// PersistResult counts the batch's write outcomes.
type PersistResult struct {
	Inserted int             `json:"inserted"`
	Updated  int             `json:"updated"`
	Failed   []RecordFailure `json:"failed,omitempty"`
}

// Preview repairs the batch without writing anything and returns the mapping
// plus up to limit repaired rows. limit <= 0 means all rows.
//
// Errors:
//   - Only context cancellation fails a preview; dirty data never does.
func (p *Pipeline) Preview(ctx context.Context, t parser.Table, limit int) (Preview, error) {
	mapping, records, err := p.repairAll(ctx, t)
	if err != nil {
		return Preview{}, err
	}

	if limit <= 0 || limit > len(records) {
		limit = len(records)
	}
	rows := make([]map[string]string, 0, limit)
	for i := 0; i < limit; i++ {
		rows = append(rows, records[i].AsMap())
	}
	return Preview{Mapping: mapping, Rows: rows}, nil
}

// Persist repairs the batch and upserts every record keyed by applicant_id.
//
// Failure policy: a single record's write failure is isolated to that
// record's transaction. The batch continues, the failure is collected, and
// the full list is reported in the result. The returned error is non-nil only
// for batch-fatal conditions (no store, schema setup failure, cancellation).
func (p *Pipeline) Persist(ctx context.Context, t parser.Table) (PersistResult, error) {
	if p.Store == nil {
		return PersistResult{}, fmt.Errorf("ingest: store is required for persist")
	}

	logf := p.logger()
	mb := p.metrics()

	if err := p.Store.EnsureSchema(ctx); err != nil {
		return PersistResult{}, fmt.Errorf("ensure schema: %w", err)
	}

	_, records, err := p.repairAll(ctx, t)
	if err != nil {
		return PersistResult{}, err
	}

	writeStart := time.Now()
	var res PersistResult
	for i := range records {
		if err := ctx.Err(); err != nil {
			return res, err
		}
		outcome, err := p.Store.Upsert(ctx, records[i])
		if err != nil {
			logf("stage=persisted status=error applicant_id=%s err=%v", records[i].ApplicantID, err)
			res.Failed = append(res.Failed, RecordFailure{
				ApplicantID: records[i].ApplicantID,
				Err:         err.Error(),
			})
			continue
		}
		switch outcome {
		case storage.Inserted:
			res.Inserted++
		case storage.Updated:
			res.Updated++
		}
	}

	logf("stage=persisted ok duration=%s inserted=%d updated=%d failed=%d",
		time.Since(writeStart).Truncate(time.Millisecond), res.Inserted, res.Updated, len(res.Failed))
	status := "ok"
	if len(res.Failed) > 0 {
		status = "partial"
	}
	metrics.ObserveStage(mb, "persisted", status, time.Since(writeStart))
	mb.IncCounter("ingest_records_total", float64(res.Inserted), metrics.Labels{"kind": "inserted"})
	mb.IncCounter("ingest_records_total", float64(res.Updated), metrics.Labels{"kind": "updated"})
	mb.IncCounter("ingest_rows_total", float64(len(res.Failed)), metrics.Labels{"kind": "failed"})
	mb.IncCounter("ingest_batches_total", 1, nil)

	return res, nil
}

// repairAll fetches the advisory mapping and runs the repair engine over the
// whole table.
func (p *Pipeline) repairAll(ctx context.Context, t parser.Table) (oracle.Mapping, []schema.Record, error) {
	mb := p.metrics()

	mapping := oracle.Mapping{}
	if p.Mapper != nil {
		mapping = p.Mapper.Map(ctx, t.Columns, schema.Columns(), t.RowMaps())
		status := "ok"
		if len(mapping) == 0 {
			// Degradations inside the client all surface as an empty mapping.
			status = "empty"
		}
		mb.IncCounter("ingest_oracle_requests_total", 1, metrics.Labels{"status": status})
	}

	eng := &repair.Engine{
		IDs:     idSource(p.Store),
		Logger:  p.Logger,
		Metrics: p.Metrics,
		Workers: p.Workers,
	}
	records, err := eng.Run(ctx, t, mapping)
	if err != nil {
		return nil, nil, err
	}
	return mapping, records, nil
}

// idSource avoids handing the engine a typed-nil interface when no store is
// configured.
func idSource(s storage.Store) repair.IDSource {
	if s == nil {
		return nil
	}
	return s
}

func (p *Pipeline) logger() func(format string, v ...any) {
	if p.Logger == nil {
		l := log.New(discardWriter{}, "", 0)
		return l.Printf
	}
	return p.Logger.Printf
}

func (p *Pipeline) metrics() metrics.Backend {
	if p.Metrics == nil {
		return metrics.Nop{}
	}
	return p.Metrics
}

type discardWriter struct{}

func (discardWriter) Write(p []byte) (int, error) { return len(p), nil }
