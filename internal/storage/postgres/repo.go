package postgres

import (
	"context"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"intake/internal/schema"
	"intake/internal/storage"
)

// Repo implements storage.Store for Postgres.
//
// Upsert is SELECT-then-write inside one transaction per record. The primary
// key constraint remains the backstop if two batches race on the same
// applicant_id: the loser's transaction fails and is reported for that record
// only.
type Repo struct {
	pool *pgxpool.Pool
}

// New creates a Postgres-backed Repo and validates connectivity.
func New(ctx context.Context, cfg storage.Config) (storage.Store, error) {
	pool, err := pgxpool.New(ctx, cfg.DSN)
	if err != nil {
		return nil, err
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, err
	}
	return &Repo{pool: pool}, nil
}

// Close closes the connection pool.
func (r *Repo) Close() {
	r.pool.Close()
}

// EnsureSchema creates the applicant table when missing. created_at is
// defaulted server-side and never written by the pipeline.
func (r *Repo) EnsureSchema(ctx context.Context) error {
	ddl := fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
  applicant_id    TEXT PRIMARY KEY,
  applicant_name  TEXT,
  phone_number    TEXT,
  email           TEXT,
  aadhaar_number  TEXT,
  pan_number      TEXT,
  loan_amount     BIGINT,
  loan_purpose    TEXT,
  employment_type TEXT,
  monthly_income  BIGINT,
  created_at      TIMESTAMPTZ NOT NULL DEFAULT now()
);`, storage.TableName)

	if _, err := r.pool.Exec(ctx, ddl); err != nil {
		return fmt.Errorf("create table %s: %w", storage.TableName, err)
	}
	return nil
}

// ApplicantIDs returns every persisted applicant_id.
func (r *Repo) ApplicantIDs(ctx context.Context) ([]string, error) {
	rows, err := r.pool.Query(ctx, fmt.Sprintf(`SELECT applicant_id FROM %s`, storage.TableName))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		out = append(out, id)
	}
	return out, rows.Err()
}

// Upsert writes one record in its own transaction.
func (r *Repo) Upsert(ctx context.Context, rec schema.Record) (storage.Outcome, error) {
	tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return 0, err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	var exists bool
	err = tx.QueryRow(ctx,
		fmt.Sprintf(`SELECT EXISTS (SELECT 1 FROM %s WHERE applicant_id = $1)`, storage.TableName),
		rec.ApplicantID,
	).Scan(&exists)
	if err != nil {
		return 0, err
	}

	args := append([]any{rec.ApplicantID}, storage.BindRecord(rec)...)

	outcome := storage.Inserted
	if exists {
		outcome = storage.Updated
		if _, err := tx.Exec(ctx, updateSQL(), args...); err != nil {
			return 0, err
		}
	} else {
		if _, err := tx.Exec(ctx, insertSQL(), args...); err != nil {
			return 0, err
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return 0, err
	}
	return outcome, nil
}

func insertSQL() string {
	cols := append([]string{schema.ApplicantID.Column()}, storage.NonKeyColumns()...)
	ph := make([]string, len(cols))
	for i := range cols {
		ph[i] = fmt.Sprintf("$%d", i+1)
	}
	return fmt.Sprintf(
		`INSERT INTO %s (%s) VALUES (%s)`,
		storage.TableName, strings.Join(cols, ", "), strings.Join(ph, ", "),
	)
}

func updateSQL() string {
	sets := make([]string, 0, 9)
	for i, c := range storage.NonKeyColumns() {
		sets = append(sets, fmt.Sprintf("%s = $%d", c, i+2))
	}
	return fmt.Sprintf(
		`UPDATE %s SET %s WHERE applicant_id = $1`,
		storage.TableName, strings.Join(sets, ", "),
	)
}
