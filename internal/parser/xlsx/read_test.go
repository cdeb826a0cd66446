package xlsx

import (
	"bytes"
	"reflect"
	"strings"
	"testing"

	"github.com/xuri/excelize/v2"

	"intake/internal/config"
)

func workbook(t *testing.T, sheet string, rows [][]any) *bytes.Buffer {
	t.Helper()

	f := excelize.NewFile()
	defer f.Close()

	if sheet != "Sheet1" {
		if _, err := f.NewSheet(sheet); err != nil {
			t.Fatalf("NewSheet: %v", err)
		}
	}
	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			t.Fatalf("CoordinatesToCellName: %v", err)
		}
		if err := f.SetSheetRow(sheet, cell, &row); err != nil {
			t.Fatalf("SetSheetRow: %v", err)
		}
	}

	var buf bytes.Buffer
	if err := f.Write(&buf); err != nil {
		t.Fatalf("Write: %v", err)
	}
	return &buf
}

func TestReadFirstSheet(t *testing.T) {
	t.Parallel()

	buf := workbook(t, "Sheet1", [][]any{
		{"Col1", "Col2"},
		{"john smith", "9876543210"},
		{"a"},
	})

	tbl, err := Read(buf, nil)
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	if !reflect.DeepEqual(tbl.Columns, []string{"Col1", "Col2"}) {
		t.Fatalf("columns = %v", tbl.Columns)
	}
	want := [][]string{
		{"john smith", "9876543210"},
		{"a", ""},
	}
	if !reflect.DeepEqual(tbl.Rows, want) {
		t.Fatalf("rows = %v", tbl.Rows)
	}
}

func TestReadNamedSheet(t *testing.T) {
	t.Parallel()

	buf := workbook(t, "Applicants", [][]any{
		{"Name"},
		{"priya nair"},
	})

	tbl, err := Read(buf, config.Options{"sheet": "Applicants"})
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	if !reflect.DeepEqual(tbl.Rows, [][]string{{"priya nair"}}) {
		t.Fatalf("rows = %v", tbl.Rows)
	}
}

func TestReadMissingSheetIsFatal(t *testing.T) {
	t.Parallel()

	buf := workbook(t, "Sheet1", [][]any{{"a"}})
	if _, err := Read(buf, config.Options{"sheet": "Nope"}); err == nil {
		t.Fatal("expected error for missing sheet")
	}
}

func TestReadGarbageIsFatal(t *testing.T) {
	t.Parallel()

	if _, err := Read(strings.NewReader("this is not a zip archive"), nil); err == nil {
		t.Fatal("expected error for unreadable workbook")
	}
}
