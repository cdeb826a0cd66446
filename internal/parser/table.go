// Package parser defines the in-memory table shape shared by the file
// readers. Every cell is text: uploads are never numerically coerced before
// classification, because coercion is exactly how Aadhaar numbers end up as
// scientific notation.
package parser

// Table is one parsed upload: a header row and all data rows, cells as text.
//
// Rows are padded to len(Columns); a short source row reads as empty cells.
type Table struct {
	Columns []string
	Rows    [][]string
}

// RowMaps renders the table as one map per row, keyed by source column name.
// Used to build the oracle's sample payload.
func (t Table) RowMaps() []map[string]string {
	out := make([]map[string]string, 0, len(t.Rows))
	for _, r := range t.Rows {
		m := make(map[string]string, len(t.Columns))
		for i, c := range t.Columns {
			if i < len(r) {
				m[c] = r[i]
			} else {
				m[c] = ""
			}
		}
		out = append(out, m)
	}
	return out
}
