// Package storage defines the backend-agnostic applicant store and the
// backend factory registry. Each backend (postgres, sqlite, mssql) registers
// itself from an init() and implements upsert semantics in its own idiomatic
// way (SELECT-then-write inside a per-record transaction).
package storage

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"sync"

	"intake/internal/schema"
)

// Config is the minimal configuration needed to create a Store.
//
// Edge cases:
//   - Kind must be non-empty and must match a registered backend kind.
//   - DSN is passed through to the backend factory; validation is
//     backend-specific.
type Config struct {
	Kind string
	DSN  string
}

// TableName is the durable applicant table. One row per applicant_id;
// created_at is assigned server-side on insert and never updated.
const TableName = "loan_applicants"

// Outcome reports what an Upsert did.
type Outcome int

const (
	Inserted Outcome = iota
	Updated
)

func (o Outcome) String() string {
	if o == Updated {
		return "updated"
	}
	return "inserted"
}

// Store is the backend-agnostic applicant store.
//
// IMPORTANT: This interface is intentionally minimal and focused on what the
// ingestion pipeline needs: idempotent DDL, an identifier scan to seed the
// allocator, and a per-record transactional upsert.
type Store interface {
	// Close releases backend resources. Treat as "call once" at shutdown.
	Close()

	// EnsureSchema creates the applicant table if it does not exist.
	// Safe to call on every batch.
	EnsureSchema(ctx context.Context) error

	// ApplicantIDs returns every applicant_id currently persisted.
	// Used once per batch to seed the identifier allocator.
	ApplicantIDs(ctx context.Context) ([]string, error)

	// Upsert writes one repaired record in its own transaction: insert when
	// the key is new, overwrite all non-key fields when it exists.
	//
	// A failure is isolated to this record; previously committed records are
	// unaffected.
	Upsert(ctx context.Context, rec schema.Record) (Outcome, error)
}

// ---- factories (one per backend kind) ----

type factory func(ctx context.Context, cfg Config) (Store, error)

var (
	factoryMu sync.RWMutex
	factories = map[string]factory{}
)

// Register registers a store backend under a kind (e.g. "postgres").
//
// Call Register from an init() function in a backend package. Registering
// the same kind more than once panics, to fail fast on ambiguous selection.
//
// Panics:
//   - If kind is empty.
//   - If f is nil.
//   - If kind is already registered.
func Register(kind string, f factory) {
	factoryMu.Lock()
	defer factoryMu.Unlock()

	if kind == "" {
		panic("storage: Register called with empty kind")
	}
	if f == nil {
		panic("storage: Register called with nil factory")
	}
	if _, exists := factories[kind]; exists {
		panic(fmt.Sprintf("storage: factory already registered for kind=%q", kind))
	}

	factories[kind] = f
}

// New constructs a Store using the registered backend factory.
//
// Errors:
//   - Returns an error if cfg.Kind is empty or unsupported.
//   - Returns whatever error the registered factory returns.
func New(ctx context.Context, cfg Config) (Store, error) {
	if cfg.Kind == "" {
		return nil, fmt.Errorf("storage: missing Kind")
	}

	factoryMu.RLock()
	f := factories[cfg.Kind]
	factoryMu.RUnlock()

	if f == nil {
		return nil, fmt.Errorf("unsupported storage.kind=%s", cfg.Kind)
	}
	return f(ctx, cfg)
}

// ---- write-boundary value conversion shared by all backends ----

// BindValue converts a record field to its SQL bind value. Placeholder
// values become NULL at the storage boundary.
func BindValue(v string) any {
	if schema.IsPlaceholder(v) {
		return nil
	}
	return strings.TrimSpace(v)
}

// BindAmount converts an amount field to its SQL bind value. Repaired
// amounts are digit strings and bind as integers; a column-trusted leftover
// that is not numeric is passed through as text so the backend's column type
// decides, keeping any failure scoped to that record's transaction.
func BindAmount(v string) any {
	if schema.IsPlaceholder(v) {
		return nil
	}
	v = strings.TrimSpace(v)
	if n, err := strconv.ParseInt(v, 10, 64); err == nil {
		return n
	}
	return v
}

// BindRecord returns the bind values for the nine non-key columns, in the
// canonical column order that NonKeyColumns reports.
func BindRecord(rec schema.Record) []any {
	return []any{
		BindValue(rec.ApplicantName),
		BindValue(rec.PhoneNumber),
		BindValue(rec.Email),
		BindValue(rec.AadhaarNumber),
		BindValue(rec.PANNumber),
		BindAmount(rec.LoanAmount),
		BindValue(rec.LoanPurpose),
		BindValue(rec.EmploymentType),
		BindAmount(rec.MonthlyIncome),
	}
}

// NonKeyColumns returns the canonical columns excluding the primary key.
func NonKeyColumns() []string {
	cols := schema.Columns()
	out := make([]string, 0, len(cols)-1)
	for _, c := range cols {
		if c == schema.ApplicantID.Column() {
			continue
		}
		out = append(out, c)
	}
	return out
}
