// Package xlsx reads an Excel upload into a parser.Table with every cell as
// formatted text, mirroring the CSV reader's contract.
package xlsx

import (
	"fmt"
	"io"
	"strings"

	"github.com/xuri/excelize/v2"

	"intake/internal/config"
	"intake/internal/parser"
)

// Read parses the first sheet (or the sheet named by the "sheet" option).
//
// Options:
//   - "sheet"       sheet name (default: first sheet)
//   - "trim_space"  trim each cell (default true)
//   - "header_map"  source header renames applied before anything else
//
// Cells come back as their displayed text, so large numerics may carry the
// scientific-notation formatting the repair engine knows how to undo.
//
// Errors:
//   - An unreadable workbook or missing sheet is fatal for the batch.
func Read(r io.Reader, opt config.Options) (parser.Table, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return parser.Table{}, fmt.Errorf("xlsx: open workbook: %w", err)
	}
	defer f.Close()

	sheet := opt.String("sheet", "")
	if sheet == "" {
		sheet = f.GetSheetName(0)
	}
	if sheet == "" {
		return parser.Table{}, fmt.Errorf("xlsx: workbook has no sheets")
	}

	rows, err := f.GetRows(sheet)
	if err != nil {
		return parser.Table{}, fmt.Errorf("xlsx: read sheet %q: %w", sheet, err)
	}
	if len(rows) == 0 {
		return parser.Table{}, fmt.Errorf("xlsx: sheet %q is empty", sheet)
	}

	trim := opt.Bool("trim_space", true)
	hm := opt.StringMap("header_map")

	hdr := rows[0]
	columns := make([]string, len(hdr))
	for i, h := range hdr {
		h = strings.TrimSpace(h)
		if mapped, ok := hm[h]; ok {
			h = mapped
		}
		columns[i] = h
	}

	out := make([][]string, 0, len(rows)-1)
	for _, rec := range rows[1:] {
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
		out = append(out, row)
	}

	return parser.Table{Columns: columns, Rows: out}, nil
}
