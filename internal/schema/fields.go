// Package schema defines the canonical loan-applicant record: the closed set
// of target fields, their format validators, and their storage normalizers.
//
// Every downstream stage (classification, repair, persistence) keys off this
// enumeration rather than raw column-name strings, so adding a field is a
// compile-visible change instead of a silently missing map entry.
package schema

// Field identifies one canonical record field.
//
// The zero value is ApplicantID; use Fields() when canonical column order
// matters (DDL, preview output, mapping requests).
type Field int

const (
	ApplicantID Field = iota
	ApplicantName
	PhoneNumber
	Email
	AadhaarNumber
	PANNumber
	LoanAmount
	LoanPurpose
	EmploymentType
	MonthlyIncome
)

var fieldColumns = [...]string{
	ApplicantID:    "applicant_id",
	ApplicantName:  "applicant_name",
	PhoneNumber:    "phone_number",
	Email:          "email",
	AadhaarNumber:  "aadhaar_number",
	PANNumber:      "pan_number",
	LoanAmount:     "loan_amount",
	LoanPurpose:    "loan_purpose",
	EmploymentType: "employment_type",
	MonthlyIncome:  "monthly_income",
}

// Column returns the storage column name for the field.
func (f Field) Column() string { return fieldColumns[f] }

func (f Field) String() string { return f.Column() }

// Fields returns all canonical fields in column order.
//
// The returned slice is freshly allocated; callers may mutate it.
func Fields() []Field {
	out := make([]Field, len(fieldColumns))
	for i := range out {
		out[i] = Field(i)
	}
	return out
}

// Columns returns the canonical column names in order.
func Columns() []string {
	out := make([]string, len(fieldColumns))
	copy(out, fieldColumns[:])
	return out
}

// FieldByColumn resolves a column name to its Field.
func FieldByColumn(name string) (Field, bool) {
	for i, c := range fieldColumns {
		if c == name {
			return Field(i), true
		}
	}
	return 0, false
}

// Record is one repaired applicant row. Empty string means "no value"; the
// storage layer converts placeholders to SQL NULL at the write boundary.
type Record struct {
	ApplicantID    string
	ApplicantName  string
	PhoneNumber    string
	Email          string
	AadhaarNumber  string
	PANNumber      string
	LoanAmount     string
	LoanPurpose    string
	EmploymentType string
	MonthlyIncome  string
}

// Get returns the value stored for a field.
func (r *Record) Get(f Field) string {
	switch f {
	case ApplicantID:
		return r.ApplicantID
	case ApplicantName:
		return r.ApplicantName
	case PhoneNumber:
		return r.PhoneNumber
	case Email:
		return r.Email
	case AadhaarNumber:
		return r.AadhaarNumber
	case PANNumber:
		return r.PANNumber
	case LoanAmount:
		return r.LoanAmount
	case LoanPurpose:
		return r.LoanPurpose
	case EmploymentType:
		return r.EmploymentType
	case MonthlyIncome:
		return r.MonthlyIncome
	}
	return ""
}

// Set stores a value for a field.
func (r *Record) Set(f Field, v string) {
	switch f {
	case ApplicantID:
		r.ApplicantID = v
	case ApplicantName:
		r.ApplicantName = v
	case PhoneNumber:
		r.PhoneNumber = v
	case Email:
		r.Email = v
	case AadhaarNumber:
		r.AadhaarNumber = v
	case PANNumber:
		r.PANNumber = v
	case LoanAmount:
		r.LoanAmount = v
	case LoanPurpose:
		r.LoanPurpose = v
	case EmploymentType:
		r.EmploymentType = v
	case MonthlyIncome:
		r.MonthlyIncome = v
	}
}

// AsMap renders the record as column->value with "" for absent values.
// Used by the preview path.
func (r *Record) AsMap() map[string]string {
	out := make(map[string]string, len(fieldColumns))
	for _, f := range Fields() {
		v := r.Get(f)
		if IsPlaceholder(v) {
			v = ""
		}
		out[f.Column()] = v
	}
	return out
}
