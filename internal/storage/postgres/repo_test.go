package postgres

import (
	"strings"
	"testing"
)

func TestInsertSQL(t *testing.T) {
	t.Parallel()

	got := insertSQL()
	want := `INSERT INTO loan_applicants (applicant_id, applicant_name, phone_number, email, aadhaar_number, pan_number, loan_amount, loan_purpose, employment_type, monthly_income) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`
	if got != want {
		t.Errorf("insertSQL =\n%s\nwant\n%s", got, want)
	}
}

func TestUpdateSQL(t *testing.T) {
	t.Parallel()

	got := updateSQL()
	if !strings.HasPrefix(got, "UPDATE loan_applicants SET applicant_name = $2, ") {
		t.Errorf("updateSQL = %s, want non-key columns starting at $2", got)
	}
	if !strings.HasSuffix(got, "monthly_income = $10 WHERE applicant_id = $1") {
		t.Errorf("updateSQL = %s, want key bound to $1 in WHERE", got)
	}
	if strings.Contains(got, "created_at") {
		t.Errorf("updateSQL = %s, must never touch created_at", got)
	}
}
