// Package csv reads a CSV upload into a parser.Table with every cell as text.
package csv

import (
	"encoding/csv"
	"fmt"
	"io"
	"strings"

	"intake/internal/config"
	"intake/internal/parser"
)

// Read parses an entire CSV document.
//
// Options:
//   - "comma"       delimiter, first rune (default ",")
//   - "trim_space"  trim each cell (default true)
//   - "lazy_quotes" tolerate stray quotes (default false)
//   - "header_map"  source header renames applied before anything else
//
// The first record is always the header. Header cells are trimmed and the
// leading UTF-8 BOM is stripped from the first one; beyond the optional
// header_map renames, header names are preserved verbatim so the advisory
// mapping can refer to them.
//
// Errors:
//   - Any read error is fatal for the batch: a file we cannot parse is the
//     one failure dirty-data repair cannot absorb.
func Read(r io.Reader, opt config.Options) (parser.Table, error) {
	cr := csv.NewReader(r)
	cr.Comma = opt.Rune("comma", ',')
	cr.LazyQuotes = opt.Bool("lazy_quotes", false)
	cr.FieldsPerRecord = -1

	trim := opt.Bool("trim_space", true)
	hm := opt.StringMap("header_map")

	hdr, err := cr.Read()
	if err == io.EOF {
		return parser.Table{}, fmt.Errorf("csv: empty file")
	}
	if err != nil {
		return parser.Table{}, fmt.Errorf("csv: read header: %w", err)
	}

	columns := make([]string, len(hdr))
	for i, h := range hdr {
		h = strings.TrimSpace(h)
		if i == 0 {
			h = strings.TrimPrefix(h, "\uFEFF")
		}
		if mapped, ok := hm[h]; ok {
			h = mapped
		}
		columns[i] = h
	}

	var rows [][]string
	for line := 2; ; line++ {
		rec, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return parser.Table{}, fmt.Errorf("csv: line %d: %w", line, err)
		}

		row := make([]string, len(columns))
		for i := range columns {
			if i >= len(rec) {
				continue
			}
			v := rec[i]
			if trim {
				v = strings.TrimSpace(v)
			}
			row[i] = v
		}
		rows = append(rows, row)
	}

	return parser.Table{Columns: columns, Rows: rows}, nil
}
