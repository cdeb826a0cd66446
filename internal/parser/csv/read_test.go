package csv

import (
	"reflect"
	"strings"
	"testing"

	"intake/internal/config"
)

func TestReadBasic(t *testing.T) {
	t.Parallel()

	in := "Col1,Col2,Col3\njohn smith,9876543210,john@x.com\n a , b ,\n"
	tbl, err := Read(strings.NewReader(in), nil)
	if err != nil {
		t.Fatalf("Read: %v", err)
	}

	if !reflect.DeepEqual(tbl.Columns, []string{"Col1", "Col2", "Col3"}) {
		t.Fatalf("columns = %v", tbl.Columns)
	}
	want := [][]string{
		{"john smith", "9876543210", "john@x.com"},
		{"a", "b", ""},
	}
	if !reflect.DeepEqual(tbl.Rows, want) {
		t.Fatalf("rows = %v", tbl.Rows)
	}
}

func TestReadStripsBOMAndAppliesHeaderMap(t *testing.T) {
	t.Parallel()

	in := "\uFEFFPhone No.,Name\n9876543210,john smith\n"
	opt := config.Options{"header_map": map[string]any{"Phone No.": "phone_number"}}
	tbl, err := Read(strings.NewReader(in), opt)
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	if !reflect.DeepEqual(tbl.Columns, []string{"phone_number", "Name"}) {
		t.Fatalf("columns = %v", tbl.Columns)
	}
}

func TestReadPadsShortRows(t *testing.T) {
	t.Parallel()

	tbl, err := Read(strings.NewReader("a,b,c\n1\n"), nil)
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	if !reflect.DeepEqual(tbl.Rows, [][]string{{"1", "", ""}}) {
		t.Fatalf("rows = %v", tbl.Rows)
	}
}

func TestReadCustomDelimiter(t *testing.T) {
	t.Parallel()

	tbl, err := Read(strings.NewReader("a;b\n1;2\n"), config.Options{"comma": ";"})
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	if !reflect.DeepEqual(tbl.Rows, [][]string{{"1", "2"}}) {
		t.Fatalf("rows = %v", tbl.Rows)
	}
}

func TestReadEmptyFileIsFatal(t *testing.T) {
	t.Parallel()

	if _, err := Read(strings.NewReader(""), nil); err == nil {
		t.Fatal("expected error for empty file")
	}
}

func TestReadMalformedIsFatal(t *testing.T) {
	t.Parallel()

	// An unterminated quote is a transport/format failure, not dirty data.
	if _, err := Read(strings.NewReader("a,b\n\"broken,2\n"), nil); err == nil {
		t.Fatal("expected error for malformed csv")
	}
}
