package config

import (
	"fmt"
	"strings"
)

type Severity string

const (
	SeverityError   Severity = "error"
	SeverityWarning Severity = "warning"
)

// Issue is one validation finding. Path points into the JSON config.
type Issue struct {
	Severity Severity
	Path     string
	Message  string
}

func (i Issue) String() string {
	return fmt.Sprintf("%s: %s: %s", i.Severity, i.Path, i.Message)
}

var (
	parserKinds  = map[string]bool{"csv": true, "xlsx": true}
	storageKinds = map[string]bool{"postgres": true, "sqlite": true, "mssql": true}
)

// Validate checks a pipeline config and returns every finding. The caller
// decides whether warnings are fatal; errors always are.
func Validate(p Pipeline) []Issue {
	var issues []Issue

	errf := func(path, format string, v ...any) {
		issues = append(issues, Issue{SeverityError, path, fmt.Sprintf(format, v...)})
	}
	warnf := func(path, format string, v ...any) {
		issues = append(issues, Issue{SeverityWarning, path, fmt.Sprintf(format, v...)})
	}

	if strings.TrimSpace(p.Job) == "" {
		warnf("job", "job name is empty; metrics will use the default job tag")
	}

	switch p.Source.Kind {
	case "", "file":
		// "file" is currently the only source; the CLI -file flag may override
		// the configured path, so an absent path is not an error here.
	default:
		errf("source.kind", "unsupported source kind %q", p.Source.Kind)
	}

	if p.Parser.Kind != "" && !parserKinds[p.Parser.Kind] {
		errf("parser.kind", "unsupported parser kind %q (want csv or xlsx)", p.Parser.Kind)
	}

	if p.Storage.Kind != "" && !storageKinds[p.Storage.Kind] {
		errf("storage.kind", "unsupported storage kind %q", p.Storage.Kind)
	}
	if p.Storage.Kind != "" && strings.TrimSpace(p.Storage.DSN) == "" {
		errf("storage.dsn", "dsn is required when storage.kind is set")
	}

	if p.Oracle.URL == "" {
		warnf("oracle.url", "no oracle configured; every batch will run with an empty advisory mapping")
	}
	if p.Oracle.TimeoutSeconds < 0 {
		errf("oracle.timeout_seconds", "timeout must not be negative")
	}

	if p.Runtime.RepairWorkers < 0 {
		errf("runtime.repair_workers", "repair_workers must not be negative")
	}
	if p.Runtime.PreviewRows < 0 {
		errf("runtime.preview_rows", "preview_rows must not be negative")
	}

	return issues
}
