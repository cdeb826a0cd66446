package schema

import (
	"strconv"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// TitleCase lowercases the value and re-capitalizes each word.
// Used for the storage form of names and categorical values.
//
// A fresh Caser is built per call: cases.Caser carries internal state and is
// not safe for concurrent use, and repair workers may normalize in parallel.
func TitleCase(v string) string {
	return cases.Title(language.English).String(strings.ToLower(strings.TrimSpace(v)))
}

// NormalizeScientific repairs spreadsheet scientific-notation artifacts,
// e.g. "1.23457E+11" for an Aadhaar number. Values without an exponent, and
// values that fail to parse, are returned unchanged (trimmed).
func NormalizeScientific(v string) string {
	v = strings.TrimSpace(v)
	if !strings.Contains(strings.ToLower(v), "e+") {
		return v
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return v
	}
	return strconv.FormatInt(int64(f), 10)
}

// Normalize converts a valid raw value into its storage form.
//
// PAN is uppercased; names and categorical values are title-cased; all other
// fields are trimmed only. Callers should validate first: Normalize does not
// reject invalid input.
func (f Field) Normalize(v string) string {
	v = strings.TrimSpace(v)
	switch f {
	case PANNumber:
		return strings.ToUpper(v)
	case ApplicantName, LoanPurpose, EmploymentType:
		return TitleCase(v)
	}
	return v
}
