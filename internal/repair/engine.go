// Package repair rebuilds schema-conformant applicant records from untrusted
// rows and an advisory column mapping.
//
// The batch moves through fixed stages: cleared (fresh identifier set, seeded
// from the store), mapping_applied (advisory column mapping projected onto
// the canonical fields), invalidated (mapped cells that fail their field's
// format are blanked), repaired (every field rebuilt from the bag of raw row
// values by shape classification). No stage fails a row: a row that cannot be
// repaired persists with unresolved fields empty.
package repair

import (
	"context"
	"log"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"intake/internal/classify"
	"intake/internal/identity"
	"intake/internal/metrics"
	"intake/internal/oracle"
	"intake/internal/parser"
	"intake/internal/schema"
)

// Logger is the minimal logging interface used by the repair engine.
// *log.Logger satisfies this interface.
type Logger interface {
	Printf(format string, v ...any)
}

// IDSource lists applicant identifiers already persisted. storage.Store
// satisfies this; tests inject a fake.
type IDSource = identity.IDSource

// Engine repairs one batch of rows at a time.
//
// Concurrency:
//   - Identifier registration and allocation are serialized inside
//     identity.Batch, and allocation happens in a sequential row-order pass,
//     so output is deterministic regardless of Workers.
//   - With Workers > 1, per-row field repair runs concurrently; rows are
//     independent at that point.
type Engine struct {
	// IDs seeds the batch identifier set. Nil means batch-local identifiers
	// only (fresh store, or store read intentionally skipped).
	IDs IDSource

	Logger  Logger
	Metrics metrics.Backend

	// Workers bounds concurrent row repair. Values < 2 mean sequential.
	Workers int
}

// Run repairs every row of the table and returns one record per input row,
// in input order.
//
// Errors:
//   - Run never fails on dirty data. The only returned errors are context
//     cancellation between stages.
func (e *Engine) Run(ctx context.Context, t parser.Table, mapping oracle.Mapping) ([]schema.Record, error) {
	logf := e.logger()
	mb := e.metrics()

	// cleared: fresh identifier set, seeded from the durable store.
	clearStart := time.Now()
	batch := identity.NewBatch()
	clearStatus := "ok"
	if err := batch.Seed(ctx, e.IDs); err != nil {
		// Recoverable: the batch degrades to batch-local knowledge.
		clearStatus = "degraded"
		logf("stage=cleared status=degraded err=%v", err)
	} else {
		logf("stage=cleared ok duration=%s known_ids=%d", durMS(clearStart), batch.Len())
	}
	metrics.ObserveStage(mb, "cleared", clearStatus, time.Since(clearStart))

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	// mapping_applied: project source columns onto canonical fields.
	mapStart := time.Now()
	columnOf := resolveColumns(t.Columns, mapping)
	records := applyMapping(t, columnOf)
	logf("stage=mapping_applied ok duration=%s rows=%d mapped_fields=%d", durMS(mapStart), len(records), len(columnOf))
	metrics.ObserveStage(mb, "mapping_applied", "ok", time.Since(mapStart))
	mb.IncCounter("ingest_rows_total", float64(len(records)), metrics.Labels{"kind": "seen"})

	// invalidated: blank mapped cells that fail their field's format.
	invStart := time.Now()
	blanked := 0
	for i := range records {
		blanked += invalidate(&records[i])
	}
	logf("stage=invalidated ok duration=%s blanked_cells=%d", durMS(invStart), blanked)
	metrics.ObserveStage(mb, "invalidated", "ok", time.Since(invStart))

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	// repaired: rebuild fields from value shape.
	repStart := time.Now()
	buckets := make([]classify.Buckets, len(t.Rows))
	for i, row := range t.Rows {
		buckets[i] = classify.Gather(row)
	}

	// All identifier work is sequential and row-ordered so allocation does
	// not depend on worker scheduling. Pre-existing valid identifiers are
	// registered across the whole batch before the first allocation.
	for i := range records {
		if schema.ValidID(records[i].ApplicantID) {
			batch.Register(records[i].ApplicantID)
		}
		for _, id := range buckets[i].ID {
			batch.Register(id)
		}
	}
	for i := range records {
		assignID(&records[i], buckets[i], batch)
	}

	e.eachRow(len(records), func(i int) {
		repairFields(&records[i], buckets[i])
	})

	logf("stage=repaired ok duration=%s rows=%d workers=%d", durMS(repStart), len(records), e.workers())
	metrics.ObserveStage(mb, "repaired", "ok", time.Since(repStart))
	mb.IncCounter("ingest_rows_total", float64(len(records)), metrics.Labels{"kind": "repaired"})

	return records, nil
}

// resolveColumns decides which source column feeds each canonical field.
//
// The advisory mapping wins; a source column whose own (trimmed, lowercased)
// name already equals a canonical column counts as mapped to it. When several
// source columns claim one field, the first in header order wins.
func resolveColumns(columns []string, mapping oracle.Mapping) map[schema.Field]int {
	out := make(map[schema.Field]int, len(schema.Columns()))
	for i, col := range columns {
		target, ok := mapping[col]
		if !ok {
			target = strings.ToLower(strings.TrimSpace(col))
		}
		f, known := schema.FieldByColumn(target)
		if !known {
			continue
		}
		if _, taken := out[f]; taken {
			continue
		}
		out[f] = i
	}
	return out
}

// applyMapping builds one record per row from the resolved columns. Every
// canonical field exists on every record; fields with no source column stay
// empty. Placeholder cells read as empty, everything else is normalized for
// storage casing.
func applyMapping(t parser.Table, columnOf map[schema.Field]int) []schema.Record {
	records := make([]schema.Record, len(t.Rows))
	for i, row := range t.Rows {
		for f, col := range columnOf {
			if col >= len(row) {
				continue
			}
			v := schema.NormalizeScientific(row[col])
			if schema.IsPlaceholder(v) {
				continue
			}
			records[i].Set(f, f.Normalize(v))
		}
	}
	return records
}

// invalidate blanks cells that fail their assigned field's format and returns
// how many it blanked. loan_amount and monthly_income are exempt: their
// ranges overlap, so the numeric split in the repaired pass owns them.
func invalidate(rec *schema.Record) int {
	blanked := 0
	for _, f := range schema.Fields() {
		if f == schema.LoanAmount || f == schema.MonthlyIncome {
			continue
		}
		v := rec.Get(f)
		if v == "" {
			continue
		}
		if !f.Valid(v) {
			rec.Set(f, "")
			blanked++
		}
	}
	return blanked
}

// assignID gives the record its identifier: the first id-shaped value
// anywhere in the row, else a fresh allocation. The id bucket is
// authoritative over the mapped column, same as every other bucket; a valid
// mapped identifier is itself a row value, so it is always in the bucket and
// keeps only its position in row order, not priority. Every row leaves with
// an identifier, even a row with zero classifiable values.
func assignID(rec *schema.Record, b classify.Buckets, batch *identity.Batch) {
	if len(b.ID) > 0 {
		rec.ApplicantID = b.ID[0]
		return
	}
	rec.ApplicantID = batch.Next()
}

// repairFields rebuilds the non-identifier fields of one record from its
// classified value buckets. A bucket match is authoritative: it overwrites
// whatever the mapped column carried.
func repairFields(rec *schema.Record, b classify.Buckets) {
	overwrite := func(f schema.Field, members []string) {
		if len(members) > 0 {
			rec.Set(f, members[0])
		}
	}
	overwrite(schema.Email, b.Email)
	overwrite(schema.PANNumber, b.PAN)
	overwrite(schema.AadhaarNumber, b.Aadhaar)
	overwrite(schema.PhoneNumber, b.Phone)
	overwrite(schema.EmploymentType, b.Employment)
	overwrite(schema.LoanPurpose, b.Purpose)
	overwrite(schema.ApplicantName, b.Name)

	splitAmounts(rec, b.Numeric)
}

// splitAmounts assigns bare numeric row values to monthly_income and
// loan_amount by range.
//
// Walk the numerics ascending, skipping any that independently reads as a
// phone number. The first value under 500000 becomes monthly_income and the
// first over 500000 becomes loan_amount, each only if the field was not
// already assigned in this walk. Exactly 500000 lands on neither side, and a
// third numeric beyond the two assignments is dropped.
func splitAmounts(rec *schema.Record, numeric []int) {
	if len(numeric) == 0 {
		return
	}
	sorted := append([]int(nil), numeric...)
	sort.Ints(sorted)

	var income, loan int
	for _, n := range sorted {
		if schema.ValidPhone(strconv.Itoa(n)) {
			continue
		}
		if n < 500000 {
			if income == 0 {
				income = n
			}
		} else if n > 500000 {
			if loan == 0 {
				loan = n
			}
		}
	}
	if income > 0 {
		rec.MonthlyIncome = strconv.Itoa(income)
	}
	if loan > 0 {
		rec.LoanAmount = strconv.Itoa(loan)
	}
}

// eachRow runs fn for every row index, concurrently when Workers > 1.
func (e *Engine) eachRow(n int, fn func(i int)) {
	workers := e.workers()
	if workers < 2 || n < 2 {
		for i := 0; i < n; i++ {
			fn(i)
		}
		return
	}
	if workers > n {
		workers = n
	}

	idx := make(chan int)
	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range idx {
				fn(i)
			}
		}()
	}
	for i := 0; i < n; i++ {
		idx <- i
	}
	close(idx)
	wg.Wait()
}

func (e *Engine) workers() int {
	if e.Workers < 2 {
		return 1
	}
	return e.Workers
}

func (e *Engine) logger() func(format string, v ...any) {
	if e.Logger == nil {
		l := log.New(discardWriter{}, "", 0)
		return l.Printf
	}
	return e.Logger.Printf
}

func (e *Engine) metrics() metrics.Backend {
	if e.Metrics == nil {
		return metrics.Nop{}
	}
	return e.Metrics
}

func durMS(start time.Time) time.Duration { return time.Since(start).Truncate(time.Millisecond) }

type discardWriter struct{}

func (discardWriter) Write(p []byte) (int, error) { return len(p), nil }
