package schema

import (
	"regexp"
	"strconv"
	"strings"
)

// Controlled vocabularies for the two categorical fields. Matching is
// case-insensitive; storage form is title case (see Normalize).
var (
	LoanPurposes = []string{
		"education", "home renovation", "car",
		"business", "personal", "medical",
	}

	EmploymentTypes = []string{
		"salaried", "self employed", "unemployed",
	}
)

// Amount ranges are inclusive. They overlap in [500000, 1000000]; the repair
// engine's numeric split owns the tie-break, not these validators.
const (
	LoanAmountMin = 500_000
	LoanAmountMax = 10_000_000

	MonthlyIncomeMin = 25_000
	MonthlyIncomeMax = 1_000_000
)

var (
	idRe    = regexp.MustCompile(`^A[0-9]+$`)
	nameRe  = regexp.MustCompile(`^[A-Za-z ]+$`)
	emailRe = regexp.MustCompile(`^[^@\s]+@[^@\s]+\.[^@\s]{2,}$`)
	panRe   = regexp.MustCompile(`^[A-Z]{5}[0-9]{4}[A-Z]$`)
)

// IsPlaceholder reports whether a value stands for "no value". The set
// mirrors what spreadsheet exports and dataframe round-trips leave behind.
func IsPlaceholder(v string) bool {
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "", "nan", "none", "null", "nat":
		return true
	}
	return false
}

// ValidID matches "A" followed by one or more digits.
func ValidID(v string) bool { return idRe.MatchString(strings.TrimSpace(v)) }

// ValidName requires at least two whitespace-separated tokens, letters and
// spaces only, every token at least two characters.
func ValidName(v string) bool {
	v = strings.TrimSpace(v)
	if !nameRe.MatchString(v) {
		return false
	}
	parts := strings.Fields(v)
	if len(parts) < 2 {
		return false
	}
	for _, p := range parts {
		if len(p) < 2 {
			return false
		}
	}
	return true
}

// ValidPhone requires exactly 10 digits with a leading 6, 7, 8 or 9.
func ValidPhone(v string) bool {
	v = strings.TrimSpace(v)
	if len(v) != 10 || !isDigits(v) {
		return false
	}
	switch v[0] {
	case '6', '7', '8', '9':
		return true
	}
	return false
}

// ValidEmail checks a local@domain.tld shape with no embedded whitespace and
// a TLD of at least two characters. Reachability is out of scope.
func ValidEmail(v string) bool { return emailRe.MatchString(strings.TrimSpace(v)) }

// ValidAadhaar requires exactly 12 digits.
func ValidAadhaar(v string) bool {
	v = strings.TrimSpace(v)
	return len(v) == 12 && isDigits(v)
}

// ValidPAN matches 5 letters + 4 digits + 1 letter, case-insensitively.
func ValidPAN(v string) bool {
	return panRe.MatchString(strings.ToUpper(strings.TrimSpace(v)))
}

// ValidLoanAmount requires an integer in [500000, 10000000].
func ValidLoanAmount(v string) bool {
	n, err := strconv.Atoi(strings.TrimSpace(v))
	return err == nil && n >= LoanAmountMin && n <= LoanAmountMax
}

// ValidMonthlyIncome requires an integer in [25000, 1000000].
func ValidMonthlyIncome(v string) bool {
	n, err := strconv.Atoi(strings.TrimSpace(v))
	return err == nil && n >= MonthlyIncomeMin && n <= MonthlyIncomeMax
}

// ValidLoanPurpose matches the purpose vocabulary, case-insensitively.
func ValidLoanPurpose(v string) bool {
	return inVocabulary(LoanPurposes, v)
}

// ValidEmploymentType matches the employment vocabulary, case-insensitively.
func ValidEmploymentType(v string) bool {
	return inVocabulary(EmploymentTypes, v)
}

// Valid applies the field's format rule to a single trimmed value.
// Placeholder values always fail, for every field.
func (f Field) Valid(v string) bool {
	if IsPlaceholder(v) {
		return false
	}
	switch f {
	case ApplicantID:
		return ValidID(v)
	case ApplicantName:
		return ValidName(v)
	case PhoneNumber:
		return ValidPhone(v)
	case Email:
		return ValidEmail(v)
	case AadhaarNumber:
		return ValidAadhaar(v)
	case PANNumber:
		return ValidPAN(v)
	case LoanAmount:
		return ValidLoanAmount(v)
	case LoanPurpose:
		return ValidLoanPurpose(v)
	case EmploymentType:
		return ValidEmploymentType(v)
	case MonthlyIncome:
		return ValidMonthlyIncome(v)
	}
	return false
}

func inVocabulary(vocab []string, v string) bool {
	lv := strings.ToLower(strings.TrimSpace(v))
	for _, t := range vocab {
		if lv == t {
			return true
		}
	}
	return false
}

func isDigits(s string) bool {
	if s == "" {
		return false
	}
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}

// IsDigits reports whether s is a non-empty run of ASCII digits.
func IsDigits(s string) bool { return isDigits(s) }
