package mssql

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"intake/internal/schema"
	"intake/internal/storage"
)

// Repo implements storage.Store for Microsoft SQL Server.
//
// Note on driver registration:
//   - This package intentionally does NOT blank-import a SQL Server driver.
//     The application must register the "sqlserver" driver elsewhere (the
//     storage/all package does this).
type Repo struct {
	db *sql.DB
}

func init() {
	storage.Register("mssql", New)
}

// New constructs a Repo using database/sql and the "sqlserver" driver.
//
// The caller must ensure a SQL Server driver is registered with database/sql
// under the name "sqlserver" before calling New. Connectivity is validated
// via PingContext.
func New(ctx context.Context, cfg storage.Config) (storage.Store, error) {
	db, err := sql.Open("sqlserver", cfg.DSN)
	if err != nil {
		return nil, err
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}
	return &Repo{db: db}, nil
}

func (r *Repo) Close() {
	if r == nil || r.db == nil {
		return
	}
	_ = r.db.Close()
}

// EnsureSchema creates the applicant table when missing.
func (r *Repo) EnsureSchema(ctx context.Context) error {
	ddl := fmt.Sprintf(`IF OBJECT_ID('%s', 'U') IS NULL
CREATE TABLE %s (
  applicant_id    NVARCHAR(50) PRIMARY KEY,
  applicant_name  NVARCHAR(255),
  phone_number    NVARCHAR(20),
  email           NVARCHAR(255),
  aadhaar_number  NVARCHAR(20),
  pan_number      NVARCHAR(20),
  loan_amount     BIGINT,
  loan_purpose    NVARCHAR(255),
  employment_type NVARCHAR(100),
  monthly_income  BIGINT,
  created_at      DATETIME2 NOT NULL DEFAULT SYSUTCDATETIME()
);`, storage.TableName, storage.TableName)

	if _, err := r.db.ExecContext(ctx, ddl); err != nil {
		return fmt.Errorf("create table %s: %w", storage.TableName, err)
	}
	return nil
}

// ApplicantIDs returns every persisted applicant_id.
func (r *Repo) ApplicantIDs(ctx context.Context) ([]string, error) {
	rows, err := r.db.QueryContext(ctx, fmt.Sprintf(`SELECT applicant_id FROM %s`, storage.TableName))
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
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, err
	}
	defer func() { _ = tx.Rollback() }()

	var count int
	err = tx.QueryRowContext(ctx,
		fmt.Sprintf(`SELECT COUNT(*) FROM %s WHERE applicant_id = @p1`, storage.TableName),
		rec.ApplicantID,
	).Scan(&count)
	if err != nil {
		return 0, err
	}

	args := append([]any{rec.ApplicantID}, storage.BindRecord(rec)...)

	outcome := storage.Inserted
	if count > 0 {
		outcome = storage.Updated
		if _, err := tx.ExecContext(ctx, updateSQL(), args...); err != nil {
			return 0, err
		}
	} else {
		if _, err := tx.ExecContext(ctx, insertSQL(), args...); err != nil {
			return 0, err
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, err
	}
	return outcome, nil
}

func insertSQL() string {
	cols := append([]string{schema.ApplicantID.Column()}, storage.NonKeyColumns()...)
	ph := make([]string, len(cols))
	for i := range cols {
		ph[i] = fmt.Sprintf("@p%d", i+1)
	}
	return fmt.Sprintf(
		`INSERT INTO %s (%s) VALUES (%s)`,
		storage.TableName, strings.Join(cols, ", "), strings.Join(ph, ", "),
	)
}

func updateSQL() string {
	sets := make([]string, 0, 9)
	for i, c := range storage.NonKeyColumns() {
		sets = append(sets, fmt.Sprintf("%s = @p%d", c, i+2))
	}
	return fmt.Sprintf(
		`UPDATE %s SET %s WHERE applicant_id = @p1`,
		storage.TableName, strings.Join(sets, ", "),
	)
}
