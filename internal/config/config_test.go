package config

import (
	"encoding/json"
	"testing"
)

func TestOptionsAccessors(t *testing.T) {
	t.Parallel()

	var o Options
	if err := json.Unmarshal([]byte(`{
		"has_header": true,
		"comma": ";",
		"batch": 42,
		"sheet": "Applicants",
		"header_map": {"Phone No.": "phone_number", "bad": 3}
	}`), &o); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}

	if !o.Bool("has_header", false) {
		t.Error("Bool(has_header) = false")
	}
	if o.Bool("missing", true) != true {
		t.Error("Bool default not applied")
	}
	if got := o.Rune("comma", ','); got != ';' {
		t.Errorf("Rune(comma) = %q", got)
	}
	if got := o.Rune("missing", ','); got != ',' {
		t.Errorf("Rune default = %q", got)
	}
	if got := o.Int("batch", 0); got != 42 {
		t.Errorf("Int(batch) = %d", got)
	}
	if got := o.String("sheet", ""); got != "Applicants" {
		t.Errorf("String(sheet) = %q", got)
	}
	hm := o.StringMap("header_map")
	if hm["Phone No."] != "phone_number" {
		t.Errorf("StringMap = %v", hm)
	}
	if _, ok := hm["bad"]; ok {
		t.Error("StringMap kept a non-string value")
	}

	var nilOpts Options
	if nilOpts.Bool("x", true) != true || nilOpts.Any("x") != nil {
		t.Error("nil Options should behave as empty")
	}
}

func TestValidate(t *testing.T) {
	t.Parallel()

	good := Pipeline{
		Job:     "loan_intake",
		Source:  Source{Kind: "file"},
		Parser:  Parser{Kind: "csv"},
		Oracle:  Oracle{URL: "http://oracle.local/map"},
		Storage: Storage{Kind: "sqlite", DSN: "file:intake.db"},
	}
	for _, iss := range Validate(good) {
		if iss.Severity == SeverityError {
			t.Errorf("unexpected error on valid config: %s", iss)
		}
	}

	bad := Pipeline{
		Source:  Source{Kind: "queue"},
		Parser:  Parser{Kind: "parquet"},
		Storage: Storage{Kind: "oracle-db"},
		Runtime: Runtime{RepairWorkers: -1},
	}
	errors := 0
	for _, iss := range Validate(bad) {
		if iss.Severity == SeverityError {
			errors++
		}
	}
	if errors < 4 {
		t.Fatalf("expected at least 4 errors, got %d: %v", errors, Validate(bad))
	}
}

func TestValidateWarnsOnMissingOracle(t *testing.T) {
	t.Parallel()

	warned := false
	for _, iss := range Validate(Pipeline{Job: "x", Parser: Parser{Kind: "csv"}}) {
		if iss.Severity == SeverityWarning && iss.Path == "oracle.url" {
			warned = true
		}
	}
	if !warned {
		t.Fatal("expected a warning for missing oracle url")
	}
}
