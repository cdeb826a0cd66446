package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	_ "modernc.org/sqlite"

	"intake/internal/schema"
	"intake/internal/storage"
)

// Repo implements storage.Store for SQLite.
//
// Key design points vs Postgres:
//   - SQLite has no TIMESTAMPTZ; created_at is stored as an RFC3339-style
//     TEXT default computed by strftime, which round-trips reliably with
//     modernc.org/sqlite.
//   - Placeholders are "?" and identifiers use "quoted" form.
type Repo struct {
	db *sql.DB
}

func init() {
	storage.Register("sqlite", New)
}

// New opens (or creates) the SQLite database and validates connectivity.
func New(ctx context.Context, cfg storage.Config) (storage.Store, error) {
	db, err := sql.Open("sqlite", cfg.DSN)
	if err != nil {
		return nil, err
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}
	return &Repo{db: db}, nil
}

func (r *Repo) Close() { _ = r.db.Close() }

// EnsureSchema creates the applicant table when missing.
func (r *Repo) EnsureSchema(ctx context.Context) error {
	ddl := fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
  "applicant_id"    TEXT PRIMARY KEY,
  "applicant_name"  TEXT,
  "phone_number"    TEXT,
  "email"           TEXT,
  "aadhaar_number"  TEXT,
  "pan_number"      TEXT,
  "loan_amount"     INTEGER,
  "loan_purpose"    TEXT,
  "employment_type" TEXT,
  "monthly_income"  INTEGER,
  "created_at"      TEXT NOT NULL DEFAULT (strftime('%%Y-%%m-%%dT%%H:%%M:%%fZ', 'now'))
);`, storage.TableName)

	if _, err := r.db.ExecContext(ctx, ddl); err != nil {
		return fmt.Errorf("create table %s: %w", storage.TableName, err)
	}
	return nil
}

// ApplicantIDs returns every persisted applicant_id.
func (r *Repo) ApplicantIDs(ctx context.Context) ([]string, error) {
	rows, err := r.db.QueryContext(ctx, fmt.Sprintf(`SELECT "applicant_id" FROM %s`, storage.TableName))
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
		fmt.Sprintf(`SELECT COUNT(*) FROM %s WHERE "applicant_id" = ?`, storage.TableName),
		rec.ApplicantID,
	).Scan(&count)
	if err != nil {
		return 0, err
	}

	args := append([]any{rec.ApplicantID}, storage.BindRecord(rec)...)

	outcome := storage.Inserted
	if count > 0 {
		outcome = storage.Updated
		// UPDATE binds non-key values first, key last.
		updArgs := append(append([]any{}, args[1:]...), rec.ApplicantID)
		if _, err := tx.ExecContext(ctx, updateSQL(), updArgs...); err != nil {
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

func sqlIdent(id string) string {
	return `"` + strings.ReplaceAll(id, `"`, `""`) + `"`
}

func insertSQL() string {
	cols := append([]string{schema.ApplicantID.Column()}, storage.NonKeyColumns()...)
	idents := make([]string, len(cols))
	for i, c := range cols {
		idents[i] = sqlIdent(c)
	}
	ph := strings.TrimRight(strings.Repeat("?,", len(cols)), ",")
	return fmt.Sprintf(
		`INSERT INTO %s (%s) VALUES (%s)`,
		storage.TableName, strings.Join(idents, ", "), ph,
	)
}

func updateSQL() string {
	sets := make([]string, 0, 9)
	for _, c := range storage.NonKeyColumns() {
		sets = append(sets, fmt.Sprintf("%s = ?", sqlIdent(c)))
	}
	return fmt.Sprintf(
		`UPDATE %s SET %s WHERE "applicant_id" = ?`,
		storage.TableName, strings.Join(sets, ", "),
	)
}
