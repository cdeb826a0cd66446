// Package classify buckets raw cell values by what they look like, not by
// which column they came from. The advisory column mapping is fallible, but
// most target fields have mutually exclusive shapes (email, PAN, Aadhaar,
// phone), so value identity is the reliable repair signal.
package classify

import (
	"strconv"
	"strings"

	"intake/internal/schema"
)

// Bucket identifies the single bucket a value classifies into.
type Bucket int

const (
	None Bucket = iota
	ID
	Email
	PAN
	Aadhaar
	Phone
	Employment
	Purpose
	Numeric
	Name
)

var bucketNames = map[Bucket]string{
	None:       "none",
	ID:         "id",
	Email:      "email",
	PAN:        "pan",
	Aadhaar:    "aadhaar",
	Phone:      "phone",
	Employment: "employment",
	Purpose:    "purpose",
	Numeric:    "numeric",
	Name:       "name",
}

func (b Bucket) String() string { return bucketNames[b] }

// Classify assigns one raw value to exactly one bucket and returns its
// normalized form. The priority chain is total and deterministic: the first
// matching rule wins, so the result is a partition of the input space.
//
// Returns None, "", false for values that match no rule; those contribute
// nothing to repair.
func Classify(v string) (Bucket, string, bool) {
	v = strings.TrimSpace(v)
	lv := strings.ToLower(v)

	switch {
	case schema.ValidID(v):
		return ID, v, true
	case schema.ValidEmail(v):
		return Email, v, true
	case schema.ValidPAN(v):
		return PAN, strings.ToUpper(v), true
	case schema.ValidAadhaar(v):
		return Aadhaar, v, true
	case schema.ValidPhone(v):
		return Phone, v, true
	case schema.ValidEmploymentType(lv):
		return Employment, schema.TitleCase(lv), true
	case schema.ValidLoanPurpose(lv):
		return Purpose, schema.TitleCase(lv), true
	case schema.IsDigits(v):
		// Phone-shaped digit runs were caught above; what remains is a
		// candidate amount.
		return Numeric, v, true
	case isNameShaped(v):
		return Name, schema.TitleCase(v), true
	}
	return None, "", false
}

func isNameShaped(v string) bool {
	if len(v) < 3 {
		return false
	}
	for i := 0; i < len(v); i++ {
		c := v[i]
		if c == ' ' || (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z') {
			continue
		}
		return false
	}
	return true
}

// Buckets accumulates classified values in input order. First-in wins at
// assignment time, so order is part of the contract.
type Buckets struct {
	ID         []string
	Email      []string
	PAN        []string
	Aadhaar    []string
	Phone      []string
	Employment []string
	Purpose    []string
	Name       []string
	Numeric    []int
}

// Gather normalizes and classifies every raw value of a source row.
//
// Placeholders are dropped, scientific-notation artifacts are repaired first
// (so a mangled Aadhaar can still land in its bucket), and unclassifiable
// values are discarded.
func Gather(values []string) Buckets {
	var b Buckets
	for _, raw := range values {
		if schema.IsPlaceholder(raw) {
			continue
		}
		v := schema.NormalizeScientific(raw)

		bucket, norm, ok := Classify(v)
		if !ok {
			continue
		}
		switch bucket {
		case ID:
			b.ID = append(b.ID, norm)
		case Email:
			b.Email = append(b.Email, norm)
		case PAN:
			b.PAN = append(b.PAN, norm)
		case Aadhaar:
			b.Aadhaar = append(b.Aadhaar, norm)
		case Phone:
			b.Phone = append(b.Phone, norm)
		case Employment:
			b.Employment = append(b.Employment, norm)
		case Purpose:
			b.Purpose = append(b.Purpose, norm)
		case Name:
			b.Name = append(b.Name, norm)
		case Numeric:
			n, err := strconv.Atoi(norm)
			if err != nil {
				// Digit run too large for int; nothing sensible to repair.
				continue
			}
			b.Numeric = append(b.Numeric, n)
		}
	}
	return b
}
